// Package app wires session, task store and mutations into one controller per
// signed-in user. Front-ends drive it and render from its state.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"kanban-cli/internal/board"
	"kanban-cli/internal/form"
	"kanban-cli/internal/model"
	"kanban-cli/internal/mutate"
	"kanban-cli/internal/perm"
	"kanban-cli/internal/service"
	"kanban-cli/internal/session"
)

var (
	ErrNotLoggedIn = errors.New("not logged in")
	ErrNoForm      = errors.New("no form is open")
)

type Options struct {
	// EmailDomain is the required assignee domain.
	EmailDomain string
	// StrictDates makes the form require YYYY-MM-DD due dates.
	StrictDates bool
}

type Controller struct {
	svc     service.Service
	session *session.Manager
	tasks   *board.Store
	mut     *mutate.Mutator
	opts    Options
	logger  *slog.Logger

	submit form.Submitter

	mu    sync.Mutex
	modal Modal
}

func NewController(svc service.Service, storage session.Storage, opts Options, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{
		svc:     svc,
		session: session.New(svc, storage, logger),
		tasks:   board.NewStore(svc, logger),
		mut:     mutate.New(svc, logger),
		opts:    opts,
		logger:  logger,
	}
}

func (c *Controller) Options() Options { return c.opts }

// Start resolves the actor (cached email, else prompt) and performs the first
// load.
func (c *Controller) Start(ctx context.Context, prompt session.Prompt) (model.Actor, error) {
	actor, err := c.session.EnsureLogin(ctx, prompt)
	if err != nil {
		return model.Actor{}, err
	}
	_, err = c.tasks.Refresh(ctx, actor)
	return actor, err
}

// Login signs in as email, replacing any current actor, and loads the board.
func (c *Controller) Login(ctx context.Context, email string) (model.Actor, error) {
	actor, err := c.session.Login(ctx, email)
	if err != nil {
		return model.Actor{}, err
	}
	c.tasks.Reset()
	_, err = c.tasks.Refresh(ctx, actor)
	return actor, err
}

func (c *Controller) CachedEmail(ctx context.Context) (string, error) {
	return c.session.CachedEmail(ctx)
}

// Logout tears down the session: cached identity, actor, tasks and modal.
func (c *Controller) Logout(ctx context.Context) error {
	c.tasks.Reset()
	c.Close()
	return c.session.Logout(ctx)
}

func (c *Controller) Actor() (model.Actor, bool) {
	return c.session.Current()
}

func (c *Controller) actor() (model.Actor, error) {
	a, ok := c.session.Current()
	if !ok {
		return model.Actor{}, ErrNotLoggedIn
	}
	return a, nil
}

// Refresh reloads the board unless a load is already running.
func (c *Controller) Refresh(ctx context.Context) (bool, error) {
	a, err := c.actor()
	if err != nil {
		return false, err
	}
	return c.tasks.Refresh(ctx, a)
}

func (c *Controller) Tasks() []model.Task { return c.tasks.Tasks() }

func (c *Controller) Columns() [board.NumColumns]board.Column { return c.tasks.Columns() }

func (c *Controller) Loading() bool { return c.tasks.Loading() }

func (c *Controller) Store() *board.Store { return c.tasks }

func (c *Controller) Find(id string) (model.Task, error) {
	t, ok := c.tasks.Find(id)
	if !ok {
		return model.Task{}, mutate.NotFoundError{Kind: "task", ID: id}
	}
	return t, nil
}

// Rights is what the current actor may do with one task.
type Rights struct {
	CanEdit    bool
	CanArchive bool
	CanApprove bool
	// ShowReview: approve / return-to-doing controls are offered.
	ShowReview bool
}

func (c *Controller) Rights(t model.Task) Rights {
	a, ok := c.session.Current()
	if !ok {
		return Rights{}
	}
	r := Rights{
		CanEdit:    perm.CanEditTask(a, t),
		CanArchive: perm.CanArchiveTask(a, t),
		CanApprove: perm.CanApproveTask(a, t),
	}
	r.ShowReview = r.CanApprove && t.Status == model.StatusDone
	return r
}

// afterMutation reloads the board once a mutation has succeeded.
func (c *Controller) afterMutation(ctx context.Context, a model.Actor) error {
	_, err := c.tasks.Refresh(ctx, a)
	return err
}

// PlanStatus evaluates a status selection on task id without calling out.
func (c *Controller) PlanStatus(id string, to model.Status) (mutate.StatusPlan, error) {
	a, err := c.actor()
	if err != nil {
		return mutate.StatusPlan{}, err
	}
	t, err := c.Find(id)
	if err != nil {
		return mutate.StatusPlan{}, err
	}
	return mutate.PlanStatusChange(a, t, to)
}

// ApplyStatus executes a plan and reloads. reason is used only for a
// return-to-doing plan.
func (c *Controller) ApplyStatus(ctx context.Context, p mutate.StatusPlan, reason string) error {
	a, err := c.actor()
	if err != nil {
		return err
	}
	if p.Kind == mutate.PlanNone {
		return nil
	}
	if err := c.mut.Apply(ctx, a, p, reason); err != nil {
		return err
	}
	return c.afterMutation(ctx, a)
}

// Drop moves task id into column col and reloads.
func (c *Controller) Drop(ctx context.Context, id string, col int) error {
	a, err := c.actor()
	if err != nil {
		return err
	}
	if err := c.mut.Drop(ctx, a, id, col); err != nil {
		return err
	}
	return c.afterMutation(ctx, a)
}

// Archive re-checks rights on the cached task, archives it and reloads.
// Confirmation is the caller's job.
func (c *Controller) Archive(ctx context.Context, id string) error {
	a, err := c.actor()
	if err != nil {
		return err
	}
	t, err := c.Find(id)
	if err != nil {
		return err
	}
	if err := c.mut.Archive(ctx, a, t); err != nil {
		return err
	}
	return c.afterMutation(ctx, a)
}

func (c *Controller) Approve(ctx context.Context, id string) error {
	return c.review(ctx, id, func(a model.Actor, t model.Task) error {
		return c.mut.Approve(ctx, a, t)
	})
}

func (c *Controller) ReturnToDoing(ctx context.Context, id, reason string) error {
	return c.review(ctx, id, func(a model.Actor, t model.Task) error {
		return c.mut.ReturnToDoing(ctx, a, t, reason)
	})
}

// review runs approve/return, then closes the task's detail modal and reloads.
func (c *Controller) review(ctx context.Context, id string, fn func(model.Actor, model.Task) error) error {
	a, err := c.actor()
	if err != nil {
		return err
	}
	t, err := c.Find(id)
	if err != nil {
		return err
	}
	if err := fn(a, t); err != nil {
		return err
	}
	c.mu.Lock()
	if c.modal.IsDetail(id) {
		c.modal = Modal{}
	}
	c.mu.Unlock()
	return c.afterMutation(ctx, a)
}

func (c *Controller) Comments(ctx context.Context, taskID string) ([]model.Comment, error) {
	cs, err := c.svc.ListComments(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("load comments: %w", err)
	}
	return cs, nil
}

// AddComment posts text and re-fetches the thread. Blank text posts nothing,
// fetches nothing and returns posted=false with no comments.
func (c *Controller) AddComment(ctx context.Context, taskID, text string) (comments []model.Comment, posted bool, err error) {
	a, err := c.actor()
	if err != nil {
		return nil, false, err
	}
	posted, err = c.mut.AddComment(ctx, a, taskID, text)
	if err != nil {
		return nil, false, err
	}
	if !posted {
		return nil, false, nil
	}
	comments, err = c.Comments(ctx, taskID)
	return comments, true, err
}
