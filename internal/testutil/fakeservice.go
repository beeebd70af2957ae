// Package testutil provides testing utilities.
package testutil

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"kanban-cli/internal/model"
	"kanban-cli/internal/service"
)

// Call records one invocation of a FakeService method.
type Call struct {
	Method string
	Actor  string
	ID     string
	Status model.Status
	Reason string
	Text   string
	Input  service.TaskInput
}

// FakeService is an in-memory implementation of service.Service for testing.
type FakeService struct {
	mu       sync.Mutex
	users    map[string]bool // email -> admin
	tasks    []model.Task
	private  map[string][]model.Task // email -> tasks only that user lists
	comments map[string][]model.Comment
	calls    []Call
	nextID   int

	// Error injection for testing
	LoginErr         error
	ListTasksErr     error
	CreateTaskErr    error
	UpdateTaskErr    error
	MoveTaskErr      error
	ReturnToDoingErr error
	ApproveErr       error
	ArchiveTaskErr   error
	ListCommentsErr  error
	AddCommentErr    error

	// Block, when set, is received from before any method does its work.
	// Tests use it to hold a call in flight.
	Block chan struct{}
	// Started, when set, receives the method name as each call begins.
	Started chan string
}

func NewFakeService() *FakeService {
	return &FakeService{
		users:    make(map[string]bool),
		private:  make(map[string][]model.Task),
		comments: make(map[string][]model.Comment),
	}
}

// AddUser registers an email the fake will accept at login.
func (f *FakeService) AddUser(email string, admin bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users[model.NormalizeEmail(email)] = admin
}

func (f *FakeService) AddTask(t model.Task) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tasks = append(f.tasks, t)
}

// AddPrivateTask adds a task that only email sees in ListTasks.
func (f *FakeService) AddPrivateTask(email string, t model.Task) {
	f.mu.Lock()
	defer f.mu.Unlock()
	email = model.NormalizeEmail(email)
	f.private[email] = append(f.private[email], t)
}

func (f *FakeService) AddComments(taskID string, cs ...model.Comment) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.comments[taskID] = append(f.comments[taskID], cs...)
}

// Task returns the stored task with id.
func (f *FakeService) Task(id string) (model.Task, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range f.tasks {
		if t.ID == id {
			return t, true
		}
	}
	return model.Task{}, false
}

// Calls returns a copy of all recorded calls.
func (f *FakeService) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Call(nil), f.calls...)
}

// CallsTo returns the recorded calls to method.
func (f *FakeService) CallsTo(method string) []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []Call
	for _, c := range f.calls {
		if c.Method == method {
			out = append(out, c)
		}
	}
	return out
}

// Mutations returns every recorded call that is not a read.
func (f *FakeService) Mutations() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []Call
	for _, c := range f.calls {
		switch c.Method {
		case "Login", "ListTasks", "ListComments":
		default:
			out = append(out, c)
		}
	}
	return out
}

func (f *FakeService) begin(ctx context.Context, c Call) error {
	f.mu.Lock()
	f.calls = append(f.calls, c)
	started, block := f.Started, f.Block
	f.mu.Unlock()

	if started != nil {
		started <- c.Method
	}
	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return &service.TransportError{Action: c.Method, Err: ctx.Err()}
		}
	}
	return nil
}

func (f *FakeService) Login(ctx context.Context, email string) (model.Actor, error) {
	if err := f.begin(ctx, Call{Method: "Login", Actor: email}); err != nil {
		return model.Actor{}, err
	}
	if f.LoginErr != nil {
		return model.Actor{}, f.LoginErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	email = model.NormalizeEmail(email)
	admin, ok := f.users[email]
	if !ok {
		return model.Actor{}, &service.RejectedError{Action: "login", Message: "Unknown user"}
	}
	return model.Actor{Email: email, Admin: admin}, nil
}

func (f *FakeService) ListTasks(ctx context.Context, email string) ([]model.Task, error) {
	if err := f.begin(ctx, Call{Method: "ListTasks", Actor: email}); err != nil {
		return nil, err
	}
	if f.ListTasksErr != nil {
		return nil, f.ListTasksErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	out := append([]model.Task(nil), f.tasks...)
	return append(out, f.private[model.NormalizeEmail(email)]...), nil
}

func (f *FakeService) CreateTask(ctx context.Context, actorEmail string, in service.TaskInput) error {
	if err := f.begin(ctx, Call{Method: "CreateTask", Actor: actorEmail, Input: in}); err != nil {
		return err
	}
	if f.CreateTaskErr != nil {
		return f.CreateTaskErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	t := taskFromInput(in)
	t.ID = fmt.Sprintf("new-%d", f.nextID)
	t.CreatorEmail = actorEmail
	f.tasks = append(f.tasks, t)
	return nil
}

func (f *FakeService) UpdateTask(ctx context.Context, actorEmail, id string, in service.TaskInput) error {
	if err := f.begin(ctx, Call{Method: "UpdateTask", Actor: actorEmail, ID: id, Input: in}); err != nil {
		return err
	}
	if f.UpdateTaskErr != nil {
		return f.UpdateTaskErr
	}
	return f.update(id, func(t *model.Task) {
		creator := t.CreatorEmail
		*t = taskFromInput(in)
		t.ID = id
		t.CreatorEmail = creator
	})
}

func (f *FakeService) MoveTask(ctx context.Context, actorEmail, id string, status model.Status) error {
	if err := f.begin(ctx, Call{Method: "MoveTask", Actor: actorEmail, ID: id, Status: status}); err != nil {
		return err
	}
	if f.MoveTaskErr != nil {
		return f.MoveTaskErr
	}
	return f.update(id, func(t *model.Task) { t.Status = status })
}

func (f *FakeService) ReturnToDoing(ctx context.Context, actorEmail, id, reason string) error {
	if err := f.begin(ctx, Call{Method: "ReturnToDoing", Actor: actorEmail, ID: id, Reason: reason}); err != nil {
		return err
	}
	if f.ReturnToDoingErr != nil {
		return f.ReturnToDoingErr
	}
	return f.update(id, func(t *model.Task) { t.Status = model.StatusDoing })
}

func (f *FakeService) Approve(ctx context.Context, actorEmail, id string) error {
	if err := f.begin(ctx, Call{Method: "Approve", Actor: actorEmail, ID: id}); err != nil {
		return err
	}
	if f.ApproveErr != nil {
		return f.ApproveErr
	}
	return f.update(id, func(t *model.Task) { t.Status = model.StatusApproved })
}

func (f *FakeService) ArchiveTask(ctx context.Context, actorEmail, id string) error {
	if err := f.begin(ctx, Call{Method: "ArchiveTask", Actor: actorEmail, ID: id}); err != nil {
		return err
	}
	if f.ArchiveTaskErr != nil {
		return f.ArchiveTaskErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, t := range f.tasks {
		if t.ID == id {
			f.tasks = append(f.tasks[:i], f.tasks[i+1:]...)
			return nil
		}
	}
	return &service.RejectedError{Action: "archiveTask", Message: "Task not found"}
}

func (f *FakeService) ListComments(ctx context.Context, taskID string) ([]model.Comment, error) {
	if err := f.begin(ctx, Call{Method: "ListComments", ID: taskID}); err != nil {
		return nil, err
	}
	if f.ListCommentsErr != nil {
		return nil, f.ListCommentsErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.Comment(nil), f.comments[taskID]...), nil
}

func (f *FakeService) AddComment(ctx context.Context, actorEmail, taskID, text string) error {
	if err := f.begin(ctx, Call{Method: "AddComment", Actor: actorEmail, ID: taskID, Text: text}); err != nil {
		return err
	}
	if f.AddCommentErr != nil {
		return f.AddCommentErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.comments[taskID] = append(f.comments[taskID], model.Comment{
		TaskID:      taskID,
		Text:        text,
		AuthorEmail: actorEmail,
		CreatedAt:   fmt.Sprintf("2025-01-01T00:00:%02dZ", len(f.comments[taskID])%60),
	})
	return nil
}

func (f *FakeService) update(id string, fn func(*model.Task)) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.tasks {
		if strings.EqualFold(f.tasks[i].ID, id) {
			fn(&f.tasks[i])
			return nil
		}
	}
	return &service.RejectedError{Action: "update", Message: "Task not found"}
}

func taskFromInput(in service.TaskInput) model.Task {
	return model.Task{
		Title:         in.Title,
		Description:   in.Description,
		AssigneeName:  in.AssigneeName,
		AssigneeEmail: in.AssigneeEmail,
		Priority:      in.Priority,
		Status:        in.Status,
		DueDate:       in.DueDate,
		Link1:         in.Link1,
		Link2:         in.Link2,
		Link3:         in.Link3,
	}
}

var _ service.Service = (*FakeService)(nil)
