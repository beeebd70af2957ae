// Package service defines the backend-agnostic contract for the remote task API.
package service

import (
	"context"

	"kanban-cli/internal/model"
)

// Service is the set of remote actions the board consumes.
// Front-ends and controllers never import a concrete backend directly.
type Service interface {
	// Login resolves an actor for email. A rejected email yields a *RejectedError.
	Login(ctx context.Context, email string) (model.Actor, error)

	// ListTasks returns every task visible to email, in backend order.
	ListTasks(ctx context.Context, email string) ([]model.Task, error)

	CreateTask(ctx context.Context, actorEmail string, in TaskInput) error
	UpdateTask(ctx context.Context, actorEmail, id string, in TaskInput) error

	// MoveTask sets a task's status without any approval semantics.
	MoveTask(ctx context.Context, actorEmail, id string, status model.Status) error

	// ReturnToDoing sends a Done task back to Doing with a free-text reason.
	ReturnToDoing(ctx context.Context, actorEmail, id, reason string) error

	Approve(ctx context.Context, actorEmail, id string) error
	ArchiveTask(ctx context.Context, actorEmail, id string) error

	ListComments(ctx context.Context, taskID string) ([]model.Comment, error)
	AddComment(ctx context.Context, actorEmail, taskID, text string) error
}

// TaskInput carries the editable task fields shared by create and update.
type TaskInput struct {
	Title         string
	Description   string
	AssigneeName  string
	AssigneeEmail string
	Priority      model.Priority
	Status        model.Status
	DueDate       string
	Link1         string
	Link2         string
	Link3         string
}

// Params flattens the input into remote call parameters.
func (in TaskInput) Params() map[string]string {
	return map[string]string{
		"title":         in.Title,
		"description":   in.Description,
		"assigneeName":  in.AssigneeName,
		"assigneeEmail": in.AssigneeEmail,
		"priority":      string(in.Priority),
		"status":        string(in.Status),
		"dueDate":       in.DueDate,
		"link1":         in.Link1,
		"link2":         in.Link2,
		"link3":         in.Link3,
	}
}

// InputFromTask seeds an edit form from a cached task.
func InputFromTask(t model.Task) TaskInput {
	return TaskInput{
		Title:         t.Title,
		Description:   t.Description,
		AssigneeName:  t.AssigneeName,
		AssigneeEmail: t.AssigneeEmail,
		Priority:      t.DisplayPriority(),
		Status:        t.Status,
		DueDate:       t.DueDate,
		Link1:         t.Link1,
		Link2:         t.Link2,
		Link3:         t.Link3,
	}
}
