// Package mutate gates board actions on local permission checks and issues
// the matching remote call. The backend stays the authority; these checks
// only avoid calls that are known to be refused.
package mutate

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"kanban-cli/internal/board"
	"kanban-cli/internal/model"
	"kanban-cli/internal/perm"
	"kanban-cli/internal/service"
)

type Mutator struct {
	svc    service.Service
	logger *slog.Logger
}

func New(svc service.Service, logger *slog.Logger) *Mutator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Mutator{svc: svc, logger: logger}
}

// Apply executes a plan from PlanStatusChange. reason is only used for
// PlanReturnToDoing and may be empty.
func (m *Mutator) Apply(ctx context.Context, actor model.Actor, p StatusPlan, reason string) error {
	switch p.Kind {
	case PlanNone:
		return nil
	case PlanReturnToDoing:
		m.logger.Info("return to doing", "task", p.TaskID, "actor", actor.Email)
		return m.svc.ReturnToDoing(ctx, actor.Email, p.TaskID, reason)
	case PlanMove:
		m.logger.Info("move task", "task", p.TaskID, "from", p.From, "to", p.To, "actor", actor.Email)
		return m.svc.MoveTask(ctx, actor.Email, p.TaskID, p.To)
	default:
		return fmt.Errorf("unknown plan kind %d", p.Kind)
	}
}

// Drop moves a task to the target status of column col. No approval
// special-casing: dropping on the Done column always sets Done.
func (m *Mutator) Drop(ctx context.Context, actor model.Actor, taskID string, col int) error {
	taskID = strings.TrimSpace(taskID)
	if taskID == "" {
		return NotFoundError{Kind: "task", ID: taskID}
	}
	c, ok := board.ColumnDef(col)
	if !ok {
		return fmt.Errorf("unknown column %d", col)
	}
	m.logger.Info("drop task", "task", taskID, "column", c.Key, "actor", actor.Email)
	return m.svc.MoveTask(ctx, actor.Email, taskID, c.Target)
}

func (m *Mutator) Create(ctx context.Context, actor model.Actor, in service.TaskInput) error {
	m.logger.Info("create task", "title", in.Title, "actor", actor.Email)
	return m.svc.CreateTask(ctx, actor.Email, in)
}

func (m *Mutator) Update(ctx context.Context, actor model.Actor, t model.Task, in service.TaskInput) error {
	if !perm.CanEditTask(actor, t) {
		return ForbiddenError{Action: "edit", TaskID: t.ID, Msg: "Only assignee/creator/admin can edit."}
	}
	m.logger.Info("update task", "task", t.ID, "actor", actor.Email)
	return m.svc.UpdateTask(ctx, actor.Email, t.ID, in)
}

func (m *Mutator) Archive(ctx context.Context, actor model.Actor, t model.Task) error {
	if !perm.CanArchiveTask(actor, t) {
		return ForbiddenError{Action: "archive", TaskID: t.ID, Msg: "Only creator/admin can archive."}
	}
	m.logger.Info("archive task", "task", t.ID, "actor", actor.Email)
	return m.svc.ArchiveTask(ctx, actor.Email, t.ID)
}

// Approve and ReturnToDoing are offered only on Done tasks to actors who may
// approve them.
func (m *Mutator) Approve(ctx context.Context, actor model.Actor, t model.Task) error {
	if err := checkReview(actor, t, "approve"); err != nil {
		return err
	}
	m.logger.Info("approve task", "task", t.ID, "actor", actor.Email)
	return m.svc.Approve(ctx, actor.Email, t.ID)
}

func (m *Mutator) ReturnToDoing(ctx context.Context, actor model.Actor, t model.Task, reason string) error {
	if err := checkReview(actor, t, "returnToDoing"); err != nil {
		return err
	}
	m.logger.Info("return to doing", "task", t.ID, "actor", actor.Email)
	return m.svc.ReturnToDoing(ctx, actor.Email, t.ID, reason)
}

func checkReview(actor model.Actor, t model.Task, action string) error {
	if !perm.CanApproveTask(actor, t) {
		return ForbiddenError{Action: action, TaskID: t.ID, Msg: "Only creator/admin can approve."}
	}
	if t.Status != model.StatusDone {
		return ErrNotDone
	}
	return nil
}

// AddComment posts text on taskID. Blank text is ignored: posted is false and
// no call is made.
func (m *Mutator) AddComment(ctx context.Context, actor model.Actor, taskID, text string) (posted bool, err error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return false, nil
	}
	if err := m.svc.AddComment(ctx, actor.Email, taskID, text); err != nil {
		return false, err
	}
	return true, nil
}
