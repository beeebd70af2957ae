package tui

import (
	"strings"

	"kanban-cli/internal/form"
	"kanban-cli/internal/model"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Form fields in focus order.
const (
	fieldTitle = iota
	fieldAssigneeName
	fieldAssigneeEmail
	fieldPriority
	fieldDueDate
	fieldStatus
	fieldDescription
	fieldLink1
	fieldLink2
	fieldLink3
	numFormFields
)

var fieldLabels = [numFormFields]string{
	"Title", "Assignee name", "Assignee email", "Priority", "Due date",
	"Status", "Description", "Link 1", "Link 2", "Link 3",
}

func isSelectorField(i int) bool { return i == fieldPriority || i == fieldStatus }

type taskFormModel struct {
	mode   form.Mode
	taskID string

	inputs   [numFormFields]textinput.Model
	desc     textarea.Model
	priority int
	status   int

	focus  int
	err    string
	saving bool
}

func newTextInput(placeholder string, limit int) textinput.Model {
	in := textinput.New()
	in.Prompt = ""
	in.Placeholder = placeholder
	in.CharLimit = limit
	in.Cursor.SetMode(cursor.CursorStatic)
	return in
}

func indexOf[T comparable](xs []T, v T) int {
	for i, x := range xs {
		if x == v {
			return i
		}
	}
	return 0
}

func newTaskFormModel(mode form.Mode, taskID string, f form.TaskForm, width int) taskFormModel {
	m := taskFormModel{mode: mode, taskID: taskID}
	placeholders := [numFormFields]string{
		fieldTitle:         "What needs doing",
		fieldAssigneeEmail: "name@company",
		fieldDueDate:       "YYYY-MM-DD",
		fieldLink1:         "https://",
		fieldLink2:         "https://",
		fieldLink3:         "https://",
	}
	for i := range m.inputs {
		if isSelectorField(i) || i == fieldDescription {
			continue
		}
		m.inputs[i] = newTextInput(placeholders[i], 512)
		m.inputs[i].Width = modalBodyWidth(width) - 18
	}
	m.inputs[fieldTitle].SetValue(f.Title)
	m.inputs[fieldAssigneeName].SetValue(f.AssigneeName)
	m.inputs[fieldAssigneeEmail].SetValue(f.AssigneeEmail)
	m.inputs[fieldDueDate].SetValue(f.DueDate)
	m.inputs[fieldLink1].SetValue(f.Link1)
	m.inputs[fieldLink2].SetValue(f.Link2)
	m.inputs[fieldLink3].SetValue(f.Link3)

	m.desc = textarea.New()
	m.desc.Prompt = ""
	m.desc.ShowLineNumbers = false
	m.desc.Placeholder = "Description (markdown)"
	m.desc.SetWidth(modalBodyWidth(width) - 18)
	m.desc.SetHeight(4)
	m.desc.Cursor.SetMode(cursor.CursorStatic)
	m.desc.SetValue(f.Description)

	if p, ok := model.ParsePriority(f.Priority); ok {
		m.priority = indexOf(model.Priorities(), p)
	} else {
		m.priority = indexOf(model.Priorities(), model.PriorityNormal)
	}
	if s, ok := model.ParseStatus(f.Status); ok {
		m.status = indexOf(model.Statuses(), s)
	}
	m.setFocus(fieldTitle)
	return m
}

func (m *taskFormModel) setFocus(i int) {
	if i < 0 {
		i = numFormFields - 1
	}
	if i >= numFormFields {
		i = 0
	}
	for j := range m.inputs {
		if isSelectorField(j) || j == fieldDescription {
			continue
		}
		m.inputs[j].Blur()
	}
	m.desc.Blur()
	m.focus = i
	switch {
	case i == fieldDescription:
		m.desc.Focus()
	case !isSelectorField(i):
		m.inputs[i].Focus()
	}
}

// values reads the raw field text; normalization happens in form.
func (m taskFormModel) values() form.TaskForm {
	return form.TaskForm{
		Title:         m.inputs[fieldTitle].Value(),
		AssigneeName:  m.inputs[fieldAssigneeName].Value(),
		AssigneeEmail: m.inputs[fieldAssigneeEmail].Value(),
		Priority:      string(model.Priorities()[m.priority]),
		DueDate:       m.inputs[fieldDueDate].Value(),
		Status:        string(model.Statuses()[m.status]),
		Description:   m.desc.Value(),
		Link1:         m.inputs[fieldLink1].Value(),
		Link2:         m.inputs[fieldLink2].Value(),
		Link3:         m.inputs[fieldLink3].Value(),
	}
}

func (m *taskFormModel) cycle(delta int) {
	switch m.focus {
	case fieldPriority:
		n := len(model.Priorities())
		m.priority = (m.priority + delta + n) % n
	case fieldStatus:
		n := len(model.Statuses())
		m.status = (m.status + delta + n) % n
	}
}

// update handles a key that is not a form-level command.
func (m *taskFormModel) update(msg tea.KeyMsg) tea.Cmd {
	if isSelectorField(m.focus) {
		switch msg.String() {
		case "left", "h":
			m.cycle(-1)
		case "right", "l", " ", "space":
			m.cycle(1)
		}
		return nil
	}
	var cmd tea.Cmd
	if m.focus == fieldDescription {
		m.desc, cmd = m.desc.Update(msg)
		return cmd
	}
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	return cmd
}

func renderTaskForm(width int, m taskFormModel) string {
	bodyW := modalBodyWidth(width)
	labelW := 16
	label := func(i int) string {
		st := lipgloss.NewStyle().Width(labelW)
		if i == m.focus {
			st = st.Bold(true).Foreground(colorAccent)
		} else {
			st = st.Foreground(colorMuted)
		}
		return st.Render(fieldLabels[i])
	}
	selector := func(i int, opts []string, cur int) string {
		var parts []string
		for j, o := range opts {
			if j == cur {
				st := lipgloss.NewStyle().Bold(true).Foreground(colorSelectedFg).Background(colorSelectedBg).Padding(0, 1)
				if i == m.focus {
					st = st.Foreground(colorAccentFg).Background(colorAccent)
				}
				parts = append(parts, st.Render(o))
				continue
			}
			parts = append(parts, lipgloss.NewStyle().Padding(0, 1).Foreground(colorMuted).Render(o))
		}
		return strings.Join(parts, "")
	}

	var rows []string
	for i := 0; i < numFormFields; i++ {
		var field string
		switch i {
		case fieldPriority:
			opts := make([]string, 0, 3)
			for _, p := range model.Priorities() {
				opts = append(opts, string(p))
			}
			field = selector(i, opts, m.priority)
		case fieldStatus:
			opts := make([]string, 0, 4)
			for _, s := range model.Statuses() {
				opts = append(opts, string(s))
			}
			field = selector(i, opts, m.status)
		case fieldDescription:
			field = m.desc.View()
		default:
			field = m.inputs[i].View()
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, label(i), field))
	}

	rows = append(rows, "")
	if m.err != "" {
		errSt := lipgloss.NewStyle().Bold(true).Foreground(colorUrgent)
		rows = append(rows, errSt.Render(truncateText(m.err, bodyW)))
	}
	if m.saving {
		rows = append(rows, styleMuted().Render("Saving…"))
	}
	rows = append(rows, styleMuted().Width(bodyW).Render("tab/shift+tab: field   ←/→: choose   ctrl+s: save   esc: cancel"))
	return renderModalBox(width, m.mode.Title(), strings.Join(rows, "\n"))
}
