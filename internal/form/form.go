// Package form holds the create/edit task form shared by every front-end.
package form

import (
	"fmt"
	"strings"
	"time"

	"kanban-cli/internal/model"
	"kanban-cli/internal/service"
)

type Mode int

const (
	ModeCreate Mode = iota
	ModeEdit
)

func (m Mode) String() string {
	if m == ModeEdit {
		return "edit"
	}
	return "create"
}

// Title is the modal heading for the mode.
func (m Mode) Title() string {
	if m == ModeEdit {
		return "Edit task"
	}
	return "Create task"
}

// TaskForm is the raw text of every form field.
type TaskForm struct {
	Title         string
	AssigneeName  string
	AssigneeEmail string
	Priority      string
	DueDate       string
	Status        string
	Description   string
	Link1         string
	Link2         string
	Link3         string
}

// Blank is the create form with selector defaults filled in.
func Blank() TaskForm {
	return TaskForm{
		Priority: string(model.PriorityNormal),
		Status:   string(model.StatusToDo),
	}
}

// FromTask seeds the edit form. The due date is shown as a calendar day.
func FromTask(t model.Task) TaskForm {
	due := ""
	if strings.TrimSpace(t.DueDate) != "" {
		if d := t.DueDay(); isDay(d) {
			due = d
		}
	}
	return TaskForm{
		Title:         t.Title,
		AssigneeName:  t.AssigneeName,
		AssigneeEmail: t.AssigneeEmail,
		Priority:      string(t.DisplayPriority()),
		DueDate:       due,
		Status:        string(t.Status),
		Description:   t.Description,
		Link1:         t.Link1,
		Link2:         t.Link2,
		Link3:         t.Link3,
	}
}

// Normalize trims every field and lowercases the assignee email.
func (f TaskForm) Normalize() TaskForm {
	f.Title = strings.TrimSpace(f.Title)
	f.AssigneeName = strings.TrimSpace(f.AssigneeName)
	f.AssigneeEmail = model.NormalizeEmail(f.AssigneeEmail)
	f.Priority = strings.TrimSpace(f.Priority)
	f.DueDate = strings.TrimSpace(f.DueDate)
	f.Status = strings.TrimSpace(f.Status)
	f.Description = strings.TrimSpace(f.Description)
	f.Link1 = strings.TrimSpace(f.Link1)
	f.Link2 = strings.TrimSpace(f.Link2)
	f.Link3 = strings.TrimSpace(f.Link3)
	return f
}

// ValidationError is a local form failure. Field names the first offending
// field; Message is shown to the user as-is.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

type Options struct {
	// Domain is the required assignee email domain, without "@".
	Domain string
	// StrictDate additionally requires DueDate to be YYYY-MM-DD. Free-text
	// front-ends set it; the browser date picker already guarantees it.
	StrictDate bool
}

// Validate checks a normalized form. Order: title, assignee email domain,
// due date. Only the first failure is reported.
func (f TaskForm) Validate(opts Options) error {
	if f.Title == "" {
		return &ValidationError{Field: "title", Message: "Title required"}
	}
	domain := strings.TrimPrefix(strings.ToLower(strings.TrimSpace(opts.Domain)), "@")
	if !strings.HasSuffix(f.AssigneeEmail, "@"+domain) {
		return &ValidationError{Field: "assigneeEmail", Message: fmt.Sprintf("Assignee must be %s email", domain)}
	}
	if f.DueDate == "" {
		return &ValidationError{Field: "dueDate", Message: "Due date required"}
	}
	if opts.StrictDate && !isDay(f.DueDate) {
		return &ValidationError{Field: "dueDate", Message: "Due date must be YYYY-MM-DD"}
	}
	if f.Priority != "" {
		if _, ok := model.ParsePriority(f.Priority); !ok {
			return &ValidationError{Field: "priority", Message: "Unknown priority " + f.Priority}
		}
	}
	if f.Status != "" {
		if _, ok := model.ParseStatus(f.Status); !ok {
			return &ValidationError{Field: "status", Message: "Unknown status " + f.Status}
		}
	}
	return nil
}

// Input normalizes and validates the form and converts it to a remote
// payload.
func (f TaskForm) Input(opts Options) (service.TaskInput, error) {
	f = f.Normalize()
	if err := f.Validate(opts); err != nil {
		return service.TaskInput{}, err
	}
	prio := model.PriorityNormal
	if p, ok := model.ParsePriority(f.Priority); ok {
		prio = p
	}
	status := model.StatusToDo
	if s, ok := model.ParseStatus(f.Status); ok {
		status = s
	}
	return service.TaskInput{
		Title:         f.Title,
		Description:   f.Description,
		AssigneeName:  f.AssigneeName,
		AssigneeEmail: f.AssigneeEmail,
		Priority:      prio,
		Status:        status,
		DueDate:       f.DueDate,
		Link1:         f.Link1,
		Link2:         f.Link2,
		Link3:         f.Link3,
	}, nil
}

func isDay(s string) bool {
	_, err := time.Parse("2006-01-02", s)
	return err == nil
}
