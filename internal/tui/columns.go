package tui

import (
	"strings"

	"kanban-cli/internal/app"
	"kanban-cli/internal/board"
	"kanban-cli/internal/model"

	"github.com/charmbracelet/lipgloss"
)

type boardSelection struct {
	Col  int
	Item int
	// TaskID is the stable selected task id (preferred over Item for tracking
	// focus across reloads and status changes).
	TaskID string
}

// carryState is a task picked up with space and not yet dropped.
type carryState struct {
	TaskID  string
	FromCol int
}

type columns = [board.NumColumns]board.Column

func indexOfTask(cols columns, id string) (int, int, bool) {
	id = strings.TrimSpace(id)
	if id == "" {
		return 0, 0, false
	}
	for ci := range cols {
		for ii, t := range cols[ci].Tasks {
			if t.ID == id {
				return ci, ii, true
			}
		}
	}
	return 0, 0, false
}

func clampSelection(cols columns, sel boardSelection) boardSelection {
	if ci, ii, ok := indexOfTask(cols, sel.TaskID); ok {
		sel.Col = ci
		sel.Item = ii
	} else {
		sel.TaskID = ""
	}
	if sel.Col < 0 {
		sel.Col = 0
	}
	if sel.Col >= len(cols) {
		sel.Col = len(cols) - 1
	}

	n := len(cols[sel.Col].Tasks)
	if n == 0 {
		sel.Item = -1
		return sel
	}
	if sel.Item < 0 {
		sel.Item = 0
	}
	if sel.Item >= n {
		sel.Item = n - 1
	}
	sel.TaskID = cols[sel.Col].Tasks[sel.Item].ID
	return sel
}

func selectedTask(cols columns, sel boardSelection) (model.Task, bool) {
	sel = clampSelection(cols, sel)
	if sel.Item < 0 {
		return model.Task{}, false
	}
	return cols[sel.Col].Tasks[sel.Item], true
}

func priorityStyle(p model.Priority) lipgloss.Style {
	st := lipgloss.NewStyle().Bold(true)
	switch p {
	case model.PriorityUrgent:
		return st.Foreground(colorUrgent)
	case model.PriorityPlanned:
		return st.Foreground(colorPlanned)
	default:
		return st.Foreground(colorNormal)
	}
}

// cardLines renders one task card as plain lines of exactly width cells.
func cardLines(t model.Task, rights app.Rights, selected, carried bool, width int) []string {
	if width < 8 {
		width = 8
	}
	inner := width - 2

	title := t.DisplayTitle()
	if carried {
		title = "[moving] " + title
	}
	var lines []string
	for _, ln := range wrapText(title, inner) {
		lines = append(lines, lipgloss.NewStyle().Bold(true).Render(ln))
	}
	for _, ln := range excerpt(t.Description, inner, 2) {
		lines = append(lines, styleMuted().Render(ln))
	}

	meta := []string{}
	if a := t.AssigneeLabel(); a != "" {
		meta = append(meta, "@"+a)
	}
	meta = append(meta, priorityStyle(t.DisplayPriority()).Render(string(t.DisplayPriority())))
	if t.Status == model.StatusApproved {
		meta = append(meta, lipgloss.NewStyle().Foreground(colorAccent).Render("Approved"))
	}
	lines = append(lines, truncateText(strings.Join(meta, " · "), inner))
	lines = append(lines, styleMeta().Render(truncateText("Due: "+t.DueDay(), inner)))
	if c := strings.TrimSpace(t.CreatorEmail); c != "" {
		lines = append(lines, styleMeta().Render(truncateText("By: "+c, inner)))
	}
	for i, l := range t.Links() {
		lines = append(lines, styleMuted().Render(truncateText("Link"+string(rune('1'+i))+": "+l, inner)))
	}
	if selected {
		ctl := []string{"enter detail", "s status"}
		if rights.CanEdit {
			ctl = append(ctl, "e edit")
		}
		if rights.CanArchive {
			ctl = append(ctl, "a archive")
		}
		lines = append(lines, styleMuted().Render(truncateText(strings.Join(ctl, " · "), inner)))
	}

	bar := "  "
	switch {
	case carried:
		bar = lipgloss.NewStyle().Foreground(colorUrgent).Render("┃ ")
	case selected:
		bar = lipgloss.NewStyle().Foreground(colorAccent).Render("┃ ")
	}
	for i, ln := range lines {
		ln = bar + ln
		if selected {
			ln = lipgloss.NewStyle().Background(colorSelectedBg).Render(fitWidth(ln, width))
		}
		lines[i] = fitWidth(ln, width)
	}
	return lines
}

// renderColumns draws the three columns side by side. Each column scrolls so
// that its selected card stays visible.
func renderColumns(cols columns, sel boardSelection, carry *carryState, rights func(model.Task) app.Rights, width, height int) string {
	if width < 0 {
		width = 0
	}
	if height < 3 {
		height = 3
	}
	sel = clampSelection(cols, sel)
	gap := 2
	colW := (width - gap*(len(cols)-1)) / len(cols)
	if colW < 10 {
		colW = 10
	}

	headerBase := lipgloss.NewStyle().Bold(true).Padding(0, 1)
	headerActive := headerBase.Foreground(colorAccentFg).Background(colorAccent)
	headerInactive := headerBase.Foreground(colorSurfaceFg).Background(colorControlBg)

	rendered := make([]string, 0, len(cols))
	for ci, col := range cols {
		label := col.Title + " (" + itoa(col.Count()) + ")"
		if carry != nil && ci == sel.Col {
			label += "  ◂ drop here"
		}
		hs := headerInactive
		if ci == sel.Col {
			hs = headerActive
		}
		header := hs.Width(colW).Render(truncateText(label, colW-2))

		var body []string
		selStart, selEnd := -1, -1
		for ii, t := range col.Tasks {
			isSel := ci == sel.Col && ii == sel.Item
			isCarried := carry != nil && carry.TaskID == t.ID
			if isSel {
				selStart = len(body)
			}
			body = append(body, cardLines(t, rights(t), isSel, isCarried, colW)...)
			if isSel {
				selEnd = len(body)
			}
			body = append(body, "")
		}
		if len(col.Tasks) == 0 {
			body = append(body, styleMuted().Render("(empty)"))
		}

		avail := height - 2
		off := 0
		if selEnd > avail {
			off = selEnd - avail
			if off > selStart {
				off = selStart
			}
		}
		if off > 0 && off < len(body) {
			body = body[off:]
		}
		content := header + "\n\n" + strings.Join(body, "\n")
		rendered = append(rendered, normalizePane(content, colW, height))
	}

	spacer := strings.Repeat(" ", gap)
	parts := make([]string, 0, len(rendered)*2)
	for i, r := range rendered {
		if i > 0 {
			parts = append(parts, normalizePane(strings.Repeat(spacer+"\n", height), gap, height))
		}
		parts = append(parts, r)
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}
