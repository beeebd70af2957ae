package tui

import (
	"strings"

	"kanban-cli/internal/model"

	"github.com/charmbracelet/lipgloss"
)

func (m appModel) viewWidth() int {
	if m.width <= 0 {
		return 100
	}
	return m.width
}

func (m appModel) viewHeight() int {
	if m.height <= 0 {
		return 30
	}
	return m.height
}

func (m appModel) View() string {
	w, h := m.viewWidth(), m.viewHeight()

	if m.alert != "" {
		return placeModal(w, h, renderAlert(w, m.alert))
	}

	switch m.modal {
	case modalLogin:
		return placeModal(w, h, m.renderLogin(w))
	case modalForm:
		return placeModal(w, h, renderTaskForm(w, m.taskForm))
	case modalDetail:
		return placeModal(w, h, renderDetail(w, h, m.detail, m.ctrl.Rights(m.detail.task)))
	case modalStatus:
		opts := make([]string, 0, 4)
		for _, s := range model.Statuses() {
			opts = append(opts, string(s))
		}
		cur := ""
		if t, err := m.ctrl.Find(m.statusTask); err == nil {
			cur = string(t.Status)
		}
		return placeModal(w, h, renderPicker(w, "Change status", opts, m.statusCur, cur, "j/k: move   enter: set   esc: cancel"))
	case modalReason:
		body := "Reason to return to Doing?\n\n> " + m.reason.View() + "\n\n" +
			styleMuted().Render("enter: return task   esc: cancel")
		return placeModal(w, h, renderModalBox(w, "Return to Doing", body))
	case modalConfirmArchive:
		title := ""
		if t, err := m.ctrl.Find(m.confirmID); err == nil {
			title = t.DisplayTitle()
		}
		body := "Archive this task?"
		if title != "" {
			body += "\n\n" + lipgloss.NewStyle().Bold(true).Render(truncateText(title, modalBodyWidth(w)))
		}
		return placeModal(w, h, renderConfirmModal(w, "Archive", body, "Archive", "Cancel", m.confirmFoc))
	}

	actor, ok := m.ctrl.Actor()
	if !ok {
		return placeModal(w, h, styleMuted().Render("Signing in…"))
	}

	header := m.renderHeader(w, actor)
	footer := m.renderFooter(w)
	bodyH := h - lipgloss.Height(header) - lipgloss.Height(footer) - 1
	body := renderColumns(m.ctrl.Columns(), m.sel, m.carry, m.ctrl.Rights, w, bodyH)
	return strings.Join([]string{header, body, "", footer}, "\n")
}

func (m appModel) renderLogin(w int) string {
	prompt := "Please enter your company email (xxx@" + m.emailDomain + "):"
	body := prompt + "\n\n> " + m.login.View()
	if m.signingIn {
		body += "\n\n" + styleMuted().Render("Signing in…")
	}
	body += "\n\n" + styleMuted().Render("enter: sign in   esc: quit")
	return renderModalBox(w, "Sign in", body)
}

func (m appModel) renderHeader(w int, actor model.Actor) string {
	left := lipgloss.NewStyle().Bold(true).Render("Kanban") + "  " + actor.Label()
	right := ""
	switch {
	case m.ctrl.Loading():
		right = "loading…"
	case m.status != "":
		right = m.status
	}
	gap := w - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}
	return fitWidth(left+strings.Repeat(" ", gap)+styleMuted().Render(right), w)
}

func (m appModel) renderFooter(w int) string {
	if m.carry != nil {
		return styleMuted().Render(truncateText("h/l: choose column   space/enter: drop   esc: cancel", w))
	}
	if !m.showHelp {
		return styleMuted().Render(truncateText("?: help   q: quit", w))
	}
	keys := []string{
		"h/j/k/l: move", "enter: detail", "space: grab", "n: new", "e: edit",
		"s: status", "a: archive", "r: refresh", "L: logout", "q: quit",
	}
	return styleMuted().Width(w).Render(strings.Join(keys, "   "))
}
