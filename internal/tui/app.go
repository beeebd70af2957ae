package tui

import (
	"context"
	"log/slog"
	"time"

	"kanban-cli/internal/app"
	"kanban-cli/internal/model"
	"kanban-cli/internal/mutate"
	"kanban-cli/internal/store"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

type modalKind int

const (
	modalNone modalKind = iota
	modalLogin
	modalForm
	modalDetail
	modalStatus
	modalReason
	modalConfirmArchive
)

// pendingReturn is what the reason prompt will run once submitted: either a
// status plan from the picker or a return-to-doing from the detail view.
type pendingReturn struct {
	plan   *mutate.StatusPlan
	taskID string
}

type appModel struct {
	ctx    context.Context
	ctrl   *app.Controller
	logger *slog.Logger

	pollInterval time.Duration
	emailDomain  string

	width  int
	height int

	sel   boardSelection
	carry *carryState

	modal modalKind

	login      textinput.Model
	signingIn  bool
	taskForm   taskFormModel
	detail     detailModel
	statusCur  int
	statusTask string
	reason     textinput.Model
	reasonFor  pendingReturn
	confirmID  string
	confirmFoc confirmModalFocus

	// alert is the blocking notification drawn over everything else.
	alert string
	// status is a transient footer line (poll failures, progress).
	status string

	showHelp bool
	// restore is applied once after the first successful load.
	restore *store.TUIState
}

// Messages produced by commands.
type (
	startMsg     struct{ email string }
	loginDoneMsg struct {
		actor model.Actor
		err   error
	}
	loadDoneMsg struct {
		ran  bool
		err  error
		poll bool
	}
	pollTickMsg   struct{}
	actionDoneMsg struct {
		action string
		err    error
	}
	submitDoneMsg   struct{ err error }
	detailLoadedMsg struct {
		taskID   string
		task     model.Task
		comments []model.Comment
		err      error
	}
	commentsMsg struct {
		taskID   string
		comments []model.Comment
		posted   bool
		err      error
	}
	logoutDoneMsg struct{ err error }
)

type Options struct {
	// PollInterval is the background reload period; zero disables polling.
	PollInterval time.Duration
	// State, when set, persists the cursor between runs.
	State  *store.Store
	Logger *slog.Logger
}

func newAppModel(ctx context.Context, ctrl *app.Controller, opts Options, restore *store.TUIState) appModel {
	if ctx == nil {
		ctx = context.Background()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	m := appModel{
		ctx:          ctx,
		ctrl:         ctrl,
		logger:       logger,
		pollInterval: opts.PollInterval,
		emailDomain:  ctrl.Options().EmailDomain,
		login:        newTextInput("you@"+ctrl.Options().EmailDomain, 254),
		reason:       newTextInput("optional", 1000),
		restore:      restore,
	}
	if restore != nil {
		m.sel.Col = restore.Column
		m.showHelp = restore.ShowHelp
	}
	return m
}

func (m appModel) Init() tea.Cmd {
	return tea.Batch(m.startCmd(), m.pollCmd())
}

// tuiState snapshots what is restored on the next launch.
func (m appModel) tuiState() *store.TUIState {
	sel := clampSelection(m.ctrl.Columns(), m.sel)
	return &store.TUIState{
		Version:        1,
		Column:         sel.Col,
		SelectedTaskID: sel.TaskID,
		ShowHelp:       m.showHelp,
	}
}

func (m appModel) startCmd() tea.Cmd {
	ctrl, ctx := m.ctrl, m.ctx
	return func() tea.Msg {
		email, err := ctrl.CachedEmail(ctx)
		if err != nil {
			return startMsg{}
		}
		return startMsg{email: email}
	}
}

func (m appModel) pollCmd() tea.Cmd {
	if m.pollInterval <= 0 {
		return nil
	}
	return tea.Tick(m.pollInterval, func(time.Time) tea.Msg { return pollTickMsg{} })
}

func (m appModel) loginCmd(email string) tea.Cmd {
	ctrl, ctx := m.ctrl, m.ctx
	return func() tea.Msg {
		actor, err := ctrl.Login(ctx, email)
		return loginDoneMsg{actor: actor, err: err}
	}
}

func (m appModel) refreshCmd(poll bool) tea.Cmd {
	ctrl, ctx := m.ctrl, m.ctx
	return func() tea.Msg {
		ran, err := ctrl.Refresh(ctx)
		return loadDoneMsg{ran: ran, err: err, poll: poll}
	}
}

func (m appModel) actionCmd(action string, fn func(context.Context) error) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		return actionDoneMsg{action: action, err: fn(ctx)}
	}
}

func (m appModel) submitCmd() tea.Cmd {
	ctrl, ctx := m.ctrl, m.ctx
	f := m.taskForm.values()
	return func() tea.Msg {
		return submitDoneMsg{err: ctrl.Submit(ctx, f)}
	}
}

func (m appModel) detailCmd(id string) tea.Cmd {
	ctrl, ctx := m.ctrl, m.ctx
	return func() tea.Msg {
		t, cs, err := ctrl.OpenDetail(ctx, id)
		return detailLoadedMsg{taskID: id, task: t, comments: cs, err: err}
	}
}

func (m appModel) commentCmd(id, text string) tea.Cmd {
	ctrl, ctx := m.ctrl, m.ctx
	return func() tea.Msg {
		cs, posted, err := ctrl.AddComment(ctx, id, text)
		return commentsMsg{taskID: id, comments: cs, posted: posted, err: err}
	}
}

func (m appModel) logoutCmd() tea.Cmd {
	ctrl, ctx := m.ctrl, m.ctx
	return func() tea.Msg {
		return logoutDoneMsg{err: ctrl.Logout(ctx)}
	}
}
