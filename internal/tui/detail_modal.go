package tui

import (
	"strings"

	"kanban-cli/internal/app"
	"kanban-cli/internal/model"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/lipgloss"
)

type detailModel struct {
	taskID   string
	task     model.Task
	comments []model.Comment
	loading  bool
	// commentsErr is shown in place of the thread when the fetch failed.
	commentsErr string

	input        textinput.Model
	inputFocused bool
	posting      bool
	scroll       int
}

func newDetailModel(id string, width int) detailModel {
	in := newTextInput("Write a comment", 2000)
	in.Width = modalBodyWidth(width) - 4
	return detailModel{taskID: id, loading: true, input: in}
}

func renderDetail(width, height int, d detailModel, rights app.Rights) string {
	bodyW := modalBodyWidth(width)
	t := d.task
	label := lipgloss.NewStyle().Foreground(colorMuted)

	var lines []string
	field := func(name, value string) {
		lines = append(lines, label.Render(name+": ")+truncateText(value, bodyW-len(name)-2))
	}
	field("Status", string(t.Status))
	field("Priority", string(t.DisplayPriority()))
	assignee := t.AssigneeLabel()
	if t.AssigneeName != "" && t.AssigneeEmail != "" {
		assignee += " <" + t.AssigneeEmail + ">"
	}
	if assignee == "" {
		assignee = "-"
	}
	field("Assignee", assignee)
	field("Due", t.DueDay())
	if t.CreatorEmail != "" {
		field("By", t.CreatorEmail)
	}
	for i, l := range t.Links() {
		field("Link"+itoa(i+1), l)
	}

	lines = append(lines, "")
	if desc := renderMarkdown(t.Description, bodyW); desc != "" {
		lines = append(lines, strings.Split(desc, "\n")...)
	} else {
		lines = append(lines, styleMuted().Render("(no description)"))
	}

	lines = append(lines, "", lipgloss.NewStyle().Bold(true).Render("Comments"))
	switch {
	case d.loading:
		lines = append(lines, styleMuted().Render("Loading…"))
	case d.commentsErr != "":
		lines = append(lines, lipgloss.NewStyle().Foreground(colorUrgent).Render(truncateText(d.commentsErr, bodyW)))
	case len(d.comments) == 0:
		lines = append(lines, styleMuted().Render("No comments yet."))
	default:
		for _, c := range d.comments {
			author := strings.TrimSpace(c.AuthorEmail)
			if author == "" {
				author = "?"
			}
			lines = append(lines, styleMeta().Render(truncateText(author+" · "+model.FormatDateTime(c.CreatedAt), bodyW)))
			lines = append(lines, wrapText(c.Text, bodyW)...)
			lines = append(lines, "")
		}
	}

	// Scrollable area: everything above the comment box and controls.
	avail := height - 12
	if avail < 5 {
		avail = 5
	}
	scroll := d.scroll
	if limit := len(lines) - avail; scroll > limit {
		scroll = limit
	}
	if scroll < 0 {
		scroll = 0
	}
	view := lines[scroll:]
	if len(view) > avail {
		view = view[:avail]
	}

	box := "> " + d.input.View()
	if !d.inputFocused {
		box = styleMuted().Render("c: comment")
	}
	if d.posting {
		box += styleMuted().Render("  sending…")
	}

	help := []string{"j/k: scroll", "c: comment"}
	if rights.CanEdit {
		help = append(help, "e: edit")
	}
	if rights.ShowReview {
		help = append(help, "p: approve", "b: back to Doing")
	}
	help = append(help, "esc: close")

	content := strings.Join(view, "\n") + "\n\n" + box + "\n\n" +
		styleMuted().Width(bodyW).Render(strings.Join(help, "   "))
	return renderModalBox(width, t.DisplayTitle(), content)
}
