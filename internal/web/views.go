package web

import (
	"html/template"
	"strings"

	"kanban-cli/internal/app"
	"kanban-cli/internal/board"
	"kanban-cli/internal/form"
	"kanban-cli/internal/model"
)

type baseVM struct {
	Title     string
	Actor     model.Actor
	LoggedIn  bool
	Flash     string
	StreamURL string
}

type optionVM struct {
	Value    string
	Label    string
	Selected bool
}

type cardVM struct {
	ID       string
	Title    string
	Excerpt  string
	Assignee string
	Priority string
	Due      string
	Creator  string
	Status   string
	Links    []string
	Rights   app.Rights
	Statuses []optionVM
}

type columnVM struct {
	Key   string
	Title string
	Count int
	Cards []cardVM
}

type boardVM struct {
	baseVM
	Columns  []columnVM
	LoadedAt string
}

type formVM struct {
	baseVM
	Heading    string
	Action     string
	Form       form.TaskForm
	Error      string
	Priorities []optionVM
	Statuses   []optionVM
}

type commentVM struct {
	Author string
	When   string
	Text   string
}

type detailVM struct {
	baseVM
	Task          model.Task
	Title         string
	Priority      string
	Due           string
	Rights        app.Rights
	Description   template.HTML
	Comments      []commentVM
	CommentsError string
}

type reasonVM struct {
	baseVM
	TaskID string
	Action string
	Status string
}

type loginVM struct {
	baseVM
	Prompt string
	Email  string
	Error  string
}

func (s *Server) base(ws *webSession, title string) baseVM {
	vm := baseVM{Title: title}
	if ws == nil {
		return vm
	}
	if a, ok := ws.ctrl.Actor(); ok {
		vm.Actor = a
		vm.LoggedIn = true
	}
	vm.Flash = ws.takeFlash()
	return vm
}

func statusOptions(current string) []optionVM {
	out := make([]optionVM, 0, 4)
	for _, st := range model.Statuses() {
		out = append(out, optionVM{Value: string(st), Label: string(st), Selected: string(st) == current})
	}
	return out
}

func priorityOptions(current string) []optionVM {
	out := make([]optionVM, 0, 3)
	for _, p := range model.Priorities() {
		out = append(out, optionVM{Value: string(p), Label: string(p), Selected: string(p) == current})
	}
	return out
}

func excerptText(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return strings.TrimSpace(string(r[:n])) + "…"
}

func buildCard(t model.Task, rights app.Rights) cardVM {
	return cardVM{
		ID:       t.ID,
		Title:    t.DisplayTitle(),
		Excerpt:  excerptText(t.Description, 140),
		Assignee: t.AssigneeLabel(),
		Priority: string(t.DisplayPriority()),
		Due:      t.DueDay(),
		Creator:  t.CreatorEmail,
		Status:   string(t.Status),
		Links:    t.Links(),
		Rights:   rights,
		Statuses: statusOptions(string(t.Status)),
	}
}

func buildColumns(ctrl *app.Controller) []columnVM {
	cols := ctrl.Columns()
	out := make([]columnVM, 0, board.NumColumns)
	for _, c := range cols {
		cv := columnVM{Key: c.Key, Title: c.Title, Count: c.Count()}
		for _, t := range c.Tasks {
			cv.Cards = append(cv.Cards, buildCard(t, ctrl.Rights(t)))
		}
		out = append(out, cv)
	}
	return out
}

func (s *Server) boardVM(ws *webSession) boardVM {
	vm := boardVM{
		baseVM:  s.base(ws, "Board"),
		Columns: buildColumns(ws.ctrl),
	}
	vm.StreamURL = "/board/stream"
	if at := ws.ctrl.Store().LoadedAt(); !at.IsZero() {
		vm.LoadedAt = at.Local().Format("15:04:05")
	}
	return vm
}

func (s *Server) formVM(ws *webSession, mode form.Mode, action string, f form.TaskForm, errMsg string) formVM {
	return formVM{
		baseVM:     s.base(ws, mode.Title()),
		Heading:    mode.Title(),
		Action:     action,
		Form:       f,
		Error:      errMsg,
		Priorities: priorityOptions(f.Priority),
		Statuses:   statusOptions(f.Status),
	}
}

func (s *Server) detailVM(ws *webSession, t model.Task, cs []model.Comment, commentsErr string) detailVM {
	vm := detailVM{
		baseVM:        s.base(ws, t.DisplayTitle()),
		Task:          t,
		Title:         t.DisplayTitle(),
		Priority:      string(t.DisplayPriority()),
		Due:           t.DueDay(),
		Rights:        ws.ctrl.Rights(t),
		Description:   renderMarkdownHTML(t.Description),
		CommentsError: commentsErr,
	}
	for _, c := range cs {
		author := strings.TrimSpace(c.AuthorEmail)
		if author == "" {
			author = "?"
		}
		vm.Comments = append(vm.Comments, commentVM{Author: author, When: model.FormatDateTime(c.CreatedAt), Text: c.Text})
	}
	return vm
}
