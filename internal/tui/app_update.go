package tui

import (
	"context"
	"errors"
	"strings"

	"kanban-cli/internal/app"
	"kanban-cli/internal/board"
	"kanban-cli/internal/form"
	"kanban-cli/internal/model"
	"kanban-cli/internal/mutate"

	tea "github.com/charmbracelet/bubbletea"
)

func errMessage(err error) string { return app.Message(err) }

func (m appModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case startMsg:
		if msg.email == "" {
			return m.openLogin(""), nil
		}
		m.signingIn = true
		return m, m.loginCmd(msg.email)

	case loginDoneMsg:
		m.signingIn = false
		if msg.actor.Email == "" {
			// The board stays unrendered until a login succeeds.
			m = m.openLogin("")
			m.alert = "Login failed: " + errMessage(msg.err)
			return m, nil
		}
		m.modal = modalNone
		m.status = ""
		if msg.err != nil {
			m.alert = app.LoadErrorMessage(msg.err)
		}
		m = m.applyRestore()
		return m, nil

	case loadDoneMsg:
		if msg.err != nil {
			if errors.Is(msg.err, app.ErrNotLoggedIn) {
				return m, nil
			}
			if msg.poll {
				m.status = app.LoadErrorMessage(msg.err)
				m.logger.Warn("background reload failed", "err", msg.err)
			} else {
				m.alert = app.LoadErrorMessage(msg.err)
			}
			return m, nil
		}
		if msg.ran {
			m.status = ""
		}
		m.sel = clampSelection(m.ctrl.Columns(), m.sel)
		return m, nil

	case pollTickMsg:
		var cmds []tea.Cmd
		if _, ok := m.ctrl.Actor(); ok && !m.ctrl.Loading() {
			cmds = append(cmds, m.refreshCmd(true))
		}
		if next := m.pollCmd(); next != nil {
			cmds = append(cmds, next)
		}
		if len(cmds) == 0 {
			return m, nil
		}
		return m, tea.Batch(cmds...)

	case actionDoneMsg:
		m.status = ""
		if msg.err != nil {
			m.alert = errMessage(msg.err)
		}
		m = m.syncModal()
		m.sel = clampSelection(m.ctrl.Columns(), m.sel)
		return m, nil

	case submitDoneMsg:
		m.taskForm.saving = false
		if errors.Is(msg.err, form.ErrSubmitInFlight) {
			return m, nil
		}
		m = m.syncModal()
		if msg.err != nil {
			var ve *form.ValidationError
			if m.modal == modalForm && errors.As(msg.err, &ve) {
				m.taskForm.err = ve.Message
				return m, nil
			}
			m.alert = errMessage(msg.err)
		}
		m.sel = clampSelection(m.ctrl.Columns(), m.sel)
		return m, nil

	case detailLoadedMsg:
		if m.modal != modalDetail || m.detail.taskID != msg.taskID {
			return m, nil
		}
		m.detail.loading = false
		if msg.task.ID == "" {
			m.modal = modalNone
			m.ctrl.Close()
			m.alert = errMessage(msg.err)
			return m, nil
		}
		m.detail.task = msg.task
		m.detail.comments = msg.comments
		if msg.err != nil {
			m.detail.commentsErr = errMessage(msg.err)
		}
		return m, nil

	case commentsMsg:
		if m.modal != modalDetail || m.detail.taskID != msg.taskID {
			return m, nil
		}
		m.detail.posting = false
		if msg.err != nil {
			m.alert = errMessage(msg.err)
			return m, nil
		}
		if msg.posted {
			m.detail.comments = msg.comments
			m.detail.commentsErr = ""
			m.detail.input.SetValue("")
		}
		return m, nil

	case logoutDoneMsg:
		m.carry = nil
		m.sel = boardSelection{}
		if msg.err != nil {
			m.alert = errMessage(msg.err)
		}
		return m.openLogin(""), nil

	case tea.KeyMsg:
		return m.updateKey(msg)
	}
	return m, nil
}

// syncModal closes the form/detail view when the controller closed it (submit
// success, approve, return-to-doing).
func (m appModel) syncModal() appModel {
	if (m.modal == modalForm || m.modal == modalDetail) && !m.ctrl.Modal().IsOpen() {
		m.modal = modalNone
	}
	return m
}

func (m appModel) applyRestore() appModel {
	if m.restore != nil {
		if m.restore.SelectedTaskID != "" {
			m.sel.TaskID = m.restore.SelectedTaskID
		}
		m.restore = nil
	}
	m.sel = clampSelection(m.ctrl.Columns(), m.sel)
	return m
}

func (m appModel) openLogin(value string) appModel {
	m.modal = modalLogin
	m.login.SetValue(value)
	m.login.Focus()
	return m
}

func (m appModel) updateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}
	if m.alert != "" {
		switch msg.String() {
		case "enter", "esc", " ", "q":
			m.alert = ""
		}
		return m, nil
	}

	switch m.modal {
	case modalLogin:
		return m.updateLogin(msg)
	case modalForm:
		return m.updateForm(msg)
	case modalDetail:
		return m.updateDetail(msg)
	case modalStatus:
		return m.updateStatusPicker(msg)
	case modalReason:
		return m.updateReason(msg)
	case modalConfirmArchive:
		return m.updateConfirmArchive(msg)
	}
	return m.updateBoard(msg)
}

func (m appModel) updateLogin(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		return m, tea.Quit
	case "enter":
		if m.signingIn {
			return m, nil
		}
		email := strings.TrimSpace(m.login.Value())
		if email == "" {
			return m, nil
		}
		m.signingIn = true
		return m, m.loginCmd(email)
	}
	var cmd tea.Cmd
	m.login, cmd = m.login.Update(msg)
	return m, cmd
}

func (m appModel) selected() (model.Task, bool) {
	return selectedTask(m.ctrl.Columns(), m.sel)
}

func (m appModel) updateBoard(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	cols := m.ctrl.Columns()
	m.sel = clampSelection(cols, m.sel)

	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "?":
		m.showHelp = !m.showHelp
		return m, nil
	case "esc":
		m.carry = nil
		return m, nil
	case "h", "left":
		if m.sel.Col > 0 {
			m.sel = m.moveToColumn(cols, m.sel.Col-1)
		}
		return m, nil
	case "l", "right":
		if m.sel.Col < board.NumColumns-1 {
			m.sel = m.moveToColumn(cols, m.sel.Col+1)
		}
		return m, nil
	case "j", "down":
		if m.carry == nil && m.sel.Item+1 < cols[m.sel.Col].Count() {
			m.sel.Item++
			m.sel.TaskID = cols[m.sel.Col].Tasks[m.sel.Item].ID
		}
		return m, nil
	case "k", "up":
		if m.carry == nil && m.sel.Item > 0 {
			m.sel.Item--
			m.sel.TaskID = cols[m.sel.Col].Tasks[m.sel.Item].ID
		}
		return m, nil
	case "r":
		if m.ctrl.Loading() {
			return m, nil
		}
		m.status = "Loading…"
		return m, m.refreshCmd(false)
	case "L":
		m.carry = nil
		return m, m.logoutCmd()
	case "n":
		f, err := m.ctrl.OpenCreate()
		if err != nil {
			m.alert = errMessage(err)
			return m, nil
		}
		m.taskForm = newTaskFormModel(form.ModeCreate, "", f, m.viewWidth())
		m.modal = modalForm
		return m, nil
	case " ", "space":
		return m.grabOrDrop()
	case "enter":
		if m.carry != nil {
			return m.grabOrDrop()
		}
		t, ok := m.selected()
		if !ok {
			return m, nil
		}
		m.detail = newDetailModel(t.ID, m.viewWidth())
		m.detail.task = t
		m.modal = modalDetail
		return m, m.detailCmd(t.ID)
	}

	t, ok := m.selected()
	if !ok || m.carry != nil {
		return m, nil
	}
	switch msg.String() {
	case "e":
		return m.openEdit(t.ID)
	case "s":
		m.statusTask = t.ID
		m.statusCur = indexOf(model.Statuses(), t.Status)
		m.modal = modalStatus
		return m, nil
	case "a":
		if !m.ctrl.Rights(t).CanArchive {
			m.alert = "Only creator/admin can archive."
			return m, nil
		}
		m.confirmID = t.ID
		m.confirmFoc = confirmFocusCancel
		m.modal = modalConfirmArchive
		return m, nil
	}
	return m, nil
}

// moveToColumn keeps the row index when possible. While carrying, the
// selected column is the drop target.
func (m appModel) moveToColumn(cols columns, col int) boardSelection {
	return clampSelection(cols, boardSelection{Col: col, Item: m.sel.Item})
}

func (m appModel) grabOrDrop() (tea.Model, tea.Cmd) {
	if m.carry == nil {
		t, ok := m.selected()
		if !ok {
			return m, nil
		}
		m.carry = &carryState{TaskID: t.ID, FromCol: m.sel.Col}
		return m, nil
	}
	id, col := m.carry.TaskID, m.sel.Col
	m.carry = nil
	m.sel = boardSelection{Col: col, TaskID: id}
	ctrl := m.ctrl
	m.status = "Moving…"
	return m, m.actionCmd("drop", func(ctx context.Context) error {
		return ctrl.Drop(ctx, id, col)
	})
}

func (m appModel) openEdit(id string) (tea.Model, tea.Cmd) {
	f, err := m.ctrl.OpenEdit(id)
	if err != nil {
		m.alert = errMessage(err)
		return m, nil
	}
	m.taskForm = newTaskFormModel(form.ModeEdit, id, f, m.viewWidth())
	m.modal = modalForm
	return m, nil
}

func (m appModel) updateForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.ctrl.Close()
		m.modal = modalNone
		return m, nil
	case "ctrl+s":
		return m.submitForm()
	case "tab":
		m.taskForm.setFocus(m.taskForm.focus + 1)
		return m, nil
	case "shift+tab":
		m.taskForm.setFocus(m.taskForm.focus - 1)
		return m, nil
	case "enter":
		if m.taskForm.focus == fieldDescription {
			break
		}
		if m.taskForm.focus == numFormFields-1 {
			return m.submitForm()
		}
		m.taskForm.setFocus(m.taskForm.focus + 1)
		return m, nil
	}
	cmd := m.taskForm.update(msg)
	return m, cmd
}

func (m appModel) submitForm() (tea.Model, tea.Cmd) {
	if m.taskForm.saving {
		return m, nil
	}
	m.taskForm.err = ""
	m.taskForm.saving = true
	return m, m.submitCmd()
}

func (m appModel) updateDetail(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	d := &m.detail
	if d.inputFocused {
		switch msg.String() {
		case "esc":
			d.inputFocused = false
			d.input.Blur()
			return m, nil
		case "enter":
			if d.posting {
				return m, nil
			}
			text := d.input.Value()
			if strings.TrimSpace(text) == "" {
				return m, nil
			}
			d.posting = true
			return m, m.commentCmd(d.taskID, text)
		}
		var cmd tea.Cmd
		d.input, cmd = d.input.Update(msg)
		return m, cmd
	}

	rights := m.ctrl.Rights(d.task)
	switch msg.String() {
	case "esc", "q":
		m.ctrl.Close()
		m.modal = modalNone
	case "j", "down":
		d.scroll++
	case "k", "up":
		if d.scroll > 0 {
			d.scroll--
		}
	case "c":
		d.inputFocused = true
		d.input.Focus()
	case "e":
		return m.openEdit(d.taskID)
	case "p":
		if !rights.ShowReview {
			return m, nil
		}
		id, ctrl := d.taskID, m.ctrl
		return m, m.actionCmd("approve", func(ctx context.Context) error {
			return ctrl.Approve(ctx, id)
		})
	case "b":
		if !rights.ShowReview {
			return m, nil
		}
		return m.openReason(pendingReturn{taskID: d.taskID}), nil
	}
	return m, nil
}

func (m appModel) openReason(p pendingReturn) appModel {
	m.reasonFor = p
	m.reason.SetValue("")
	m.reason.Focus()
	m.modal = modalReason
	return m
}

func (m appModel) updateStatusPicker(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	statuses := model.Statuses()
	switch msg.String() {
	case "esc", "q":
		m.modal = modalNone
	case "j", "down":
		if m.statusCur < len(statuses)-1 {
			m.statusCur++
		}
	case "k", "up":
		if m.statusCur > 0 {
			m.statusCur--
		}
	case "enter":
		m.modal = modalNone
		plan, err := m.ctrl.PlanStatus(m.statusTask, statuses[m.statusCur])
		if err != nil {
			// Nothing changed locally, so the card keeps its status.
			m.alert = errMessage(err)
			return m, nil
		}
		switch {
		case plan.Kind == mutate.PlanNone:
			return m, nil
		case plan.NeedsReason():
			return m.openReason(pendingReturn{plan: &plan}), nil
		}
		ctrl := m.ctrl
		return m, m.actionCmd("status", func(ctx context.Context) error {
			return ctrl.ApplyStatus(ctx, plan, "")
		})
	}
	return m, nil
}

func (m appModel) updateReason(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		// Cancelling the prompt cancels the return.
		m.modal = modalNone
		if m.reasonFor.plan == nil && m.ctrl.Modal().IsDetail(m.reasonFor.taskID) {
			m.modal = modalDetail
		}
		m.reasonFor = pendingReturn{}
		return m, nil
	case "enter":
		reason := m.reason.Value()
		p := m.reasonFor
		m.reasonFor = pendingReturn{}
		ctrl := m.ctrl
		if p.plan != nil {
			plan := *p.plan
			m.modal = modalNone
			return m, m.actionCmd("status", func(ctx context.Context) error {
				return ctrl.ApplyStatus(ctx, plan, reason)
			})
		}
		// Back to the detail view until the controller closes it.
		m.modal = modalDetail
		id := p.taskID
		return m, m.actionCmd("return", func(ctx context.Context) error {
			return ctrl.ReturnToDoing(ctx, id, reason)
		})
	}
	var cmd tea.Cmd
	m.reason, cmd = m.reason.Update(msg)
	return m, cmd
}

func (m appModel) updateConfirmArchive(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "n", "q":
		m.modal = modalNone
		m.confirmID = ""
		return m, nil
	case "tab", "shift+tab", "left", "right", "h", "l":
		if m.confirmFoc == confirmFocusConfirm {
			m.confirmFoc = confirmFocusCancel
		} else {
			m.confirmFoc = confirmFocusConfirm
		}
		return m, nil
	case "y":
		m.confirmFoc = confirmFocusConfirm
	case "enter":
	default:
		return m, nil
	}
	m.modal = modalNone
	id := m.confirmID
	m.confirmID = ""
	if m.confirmFoc != confirmFocusConfirm {
		return m, nil
	}
	ctrl := m.ctrl
	return m, m.actionCmd("archive", func(ctx context.Context) error {
		return ctrl.Archive(ctx, id)
	})
}
