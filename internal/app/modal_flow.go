package app

import (
	"context"

	"kanban-cli/internal/form"
	"kanban-cli/internal/model"
	"kanban-cli/internal/mutate"
	"kanban-cli/internal/perm"
)

func (c *Controller) Modal() Modal {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.modal
}

func (c *Controller) setModal(m Modal) {
	c.mu.Lock()
	c.modal = m
	c.mu.Unlock()
}

// OpenCreate opens an empty form and returns its initial values.
func (c *Controller) OpenCreate() (form.TaskForm, error) {
	if _, err := c.actor(); err != nil {
		return form.TaskForm{}, err
	}
	c.setModal(Modal{Kind: ModalForm, Mode: form.ModeCreate})
	return form.Blank(), nil
}

// OpenEdit opens the form for task id when the actor may edit it.
func (c *Controller) OpenEdit(id string) (form.TaskForm, error) {
	a, err := c.actor()
	if err != nil {
		return form.TaskForm{}, err
	}
	t, err := c.Find(id)
	if err != nil {
		return form.TaskForm{}, err
	}
	if !perm.CanEditTask(a, t) {
		return form.TaskForm{}, mutate.ForbiddenError{Action: "edit", TaskID: id, Msg: "Only assignee/creator/admin can edit."}
	}
	c.setModal(Modal{Kind: ModalForm, Mode: form.ModeEdit, TaskID: id})
	return form.FromTask(t), nil
}

// OpenDetail opens the detail view for task id and fetches its comments.
// The modal stays open when the comment fetch fails.
func (c *Controller) OpenDetail(ctx context.Context, id string) (model.Task, []model.Comment, error) {
	t, err := c.Find(id)
	if err != nil {
		return model.Task{}, nil, err
	}
	c.setModal(Modal{Kind: ModalDetail, TaskID: id})
	cs, err := c.Comments(ctx, id)
	return t, cs, err
}

func (c *Controller) Close() { c.setModal(Modal{}) }

// Submitting reports whether a form submit is in flight.
func (c *Controller) Submitting() bool { return c.submit.InFlight() }

// Submit validates f and creates or updates the task the open form is for.
// On success the modal closes and the board reloads. Validation failures
// make no remote call; a submit while another is pending returns
// form.ErrSubmitInFlight.
func (c *Controller) Submit(ctx context.Context, f form.TaskForm) error {
	m := c.Modal()
	if m.Kind != ModalForm {
		return ErrNoForm
	}
	return c.save(ctx, m.Mode, m.TaskID, f)
}

// SubmitCreate creates a task from f whatever modal is open. Callers that
// share one controller across requests name the target instead of relying
// on the open form.
func (c *Controller) SubmitCreate(ctx context.Context, f form.TaskForm) error {
	return c.save(ctx, form.ModeCreate, "", f)
}

// SubmitEdit updates task id from f whatever modal is open.
func (c *Controller) SubmitEdit(ctx context.Context, id string, f form.TaskForm) error {
	return c.save(ctx, form.ModeEdit, id, f)
}

// save closes the modal only when it is the form for this target. A reload
// failure after a successful save wraps board.ErrLoad.
func (c *Controller) save(ctx context.Context, mode form.Mode, id string, f form.TaskForm) error {
	return c.submit.Do(func() error {
		a, err := c.actor()
		if err != nil {
			return err
		}
		in, err := f.Input(form.Options{Domain: c.opts.EmailDomain, StrictDate: c.opts.StrictDates})
		if err != nil {
			return err
		}
		switch mode {
		case form.ModeEdit:
			t, err := c.Find(id)
			if err != nil {
				return err
			}
			if err := c.mut.Update(ctx, a, t, in); err != nil {
				return err
			}
		default:
			id = ""
			if err := c.mut.Create(ctx, a, in); err != nil {
				return err
			}
		}
		c.mu.Lock()
		if c.modal.Kind == ModalForm && c.modal.Mode == mode && c.modal.TaskID == id {
			c.modal = Modal{}
		}
		c.mu.Unlock()
		return c.afterMutation(ctx, a)
	})
}
