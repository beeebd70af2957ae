package perm

import "kanban-cli/internal/model"

// CanEditTask enforces board ownership rules for editing a task.
//
// Rules:
//   - An admin can edit anything.
//   - The assignee can edit.
//   - The creator can edit.
//
// Emails compare case-insensitively; an empty actor email never matches.
func CanEditTask(actor model.Actor, t model.Task) bool {
	if actor.Admin {
		return true
	}
	return sameEmail(actor.Email, t.AssigneeEmail) || sameEmail(actor.Email, t.CreatorEmail)
}

// CanArchiveTask: admin or creator.
func CanArchiveTask(actor model.Actor, t model.Task) bool {
	if actor.Admin {
		return true
	}
	return sameEmail(actor.Email, t.CreatorEmail)
}

// CanApproveTask: admin or creator. The same rule gates returning a Done task
// to Doing.
func CanApproveTask(actor model.Actor, t model.Task) bool {
	if actor.Admin {
		return true
	}
	return sameEmail(actor.Email, t.CreatorEmail)
}

func sameEmail(a, b string) bool {
	a = model.NormalizeEmail(a)
	if a == "" {
		return false
	}
	return a == model.NormalizeEmail(b)
}
