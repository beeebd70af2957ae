package web

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"kanban-cli/internal/app"
	"kanban-cli/internal/board"
	"kanban-cli/internal/form"
	"kanban-cli/internal/model"
	"kanban-cli/internal/mutate"

	"github.com/go-chi/chi/v5"
)

func (s *Server) loginPrompt() string {
	return "Please enter your company email (xxx@" + s.cfg.EmailDomain + "):"
}

func (s *Server) handleLoginGet(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.sessionForRequest(r); ok {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	s.writeHTMLTemplate(w, http.StatusOK, "login.html", loginVM{
		baseVM: baseVM{Title: "Sign in"},
		Prompt: s.loginPrompt(),
	})
}

func (s *Server) handleLoginPost(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	email := strings.TrimSpace(r.PostForm.Get("email"))
	vm := loginVM{baseVM: baseVM{Title: "Sign in"}, Prompt: s.loginPrompt(), Email: email}
	if email == "" {
		vm.Error = "Email required"
		s.writeHTMLTemplate(w, http.StatusBadRequest, "login.html", vm)
		return
	}

	tok, claims, err := s.signer.issue(email, sessionTTL, time.Now())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if _, err := s.hub.open(r.Context(), claims.ID, claims.Email); err != nil {
		vm.Error = "Login failed: " + app.Message(err)
		s.writeHTMLTemplate(w, http.StatusUnauthorized, "login.html", vm)
		return
	}
	s.setSessionCookie(w, tok)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleLogoutPost(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(sessionCookieName); err == nil {
		if claims, err := s.signer.verify(c.Value, time.Now()); err == nil {
			s.hub.close(r.Context(), claims.ID, time.Unix(claims.Expires, 0))
		}
	}
	s.clearSessionCookie(w)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func (s *Server) handleBoard(w http.ResponseWriter, r *http.Request) {
	ws := sessionFrom(r.Context())
	ws.ctrl.Close()
	if ws.ctrl.Store().LoadedAt().IsZero() || r.URL.Query().Get("refresh") != "" {
		if _, err := ws.ctrl.Refresh(r.Context()); err != nil {
			ws.setFlash(app.LoadErrorMessage(err))
		}
	}
	s.writeHTMLTemplate(w, http.StatusOK, "board.html", s.boardVM(ws))
}

// done finishes a mutating request: a script gets a status code, a form
// post is redirected with any error as a banner.
func (s *Server) done(w http.ResponseWriter, r *http.Request, ws *webSession, err error, next string) {
	if wantsFragment(r) {
		if err != nil {
			http.Error(w, app.Message(err), statusFor(err))
			return
		}
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if err != nil {
		ws.setFlash(app.Message(err))
	}
	http.Redirect(w, r, next, http.StatusSeeOther)
}

func statusFor(err error) int {
	var nf mutate.NotFoundError
	var ve *form.ValidationError
	switch {
	case mutate.IsForbidden(err):
		return http.StatusForbidden
	case errors.As(err, &nf):
		return http.StatusNotFound
	case errors.As(err, &ve), errors.Is(err, mutate.ErrInvalidStatus), errors.Is(err, mutate.ErrNotDone):
		return http.StatusUnprocessableEntity
	case errors.Is(err, form.ErrSubmitInFlight):
		return http.StatusConflict
	default:
		return http.StatusBadGateway
	}
}

func formFromRequest(r *http.Request) form.TaskForm {
	return form.TaskForm{
		Title:         r.PostForm.Get("title"),
		AssigneeName:  r.PostForm.Get("assigneeName"),
		AssigneeEmail: r.PostForm.Get("assigneeEmail"),
		Priority:      r.PostForm.Get("priority"),
		DueDate:       r.PostForm.Get("dueDate"),
		Status:        r.PostForm.Get("status"),
		Description:   r.PostForm.Get("description"),
		Link1:         r.PostForm.Get("link1"),
		Link2:         r.PostForm.Get("link2"),
		Link3:         r.PostForm.Get("link3"),
	}
}

func (s *Server) handleTaskNew(w http.ResponseWriter, r *http.Request) {
	ws := sessionFrom(r.Context())
	f, err := ws.ctrl.OpenCreate()
	if err != nil {
		s.done(w, r, ws, err, "/")
		return
	}
	s.writeHTMLTemplate(w, http.StatusOK, "form.html", s.formVM(ws, form.ModeCreate, "/tasks", f, ""))
}

func (s *Server) handleTaskEdit(w http.ResponseWriter, r *http.Request) {
	ws := sessionFrom(r.Context())
	id := chi.URLParam(r, "id")
	f, err := ws.ctrl.OpenEdit(id)
	if err != nil {
		s.done(w, r, ws, err, "/")
		return
	}
	s.writeHTMLTemplate(w, http.StatusOK, "form.html", s.formVM(ws, form.ModeEdit, "/tasks/"+id, f, ""))
}

func (s *Server) handleTaskCreate(w http.ResponseWriter, r *http.Request) {
	ws := sessionFrom(r.Context())
	s.submit(w, r, ws, form.ModeCreate, "/tasks", func(f form.TaskForm) error {
		return ws.ctrl.SubmitCreate(r.Context(), f)
	})
}

func (s *Server) handleTaskUpdate(w http.ResponseWriter, r *http.Request) {
	ws := sessionFrom(r.Context())
	id := chi.URLParam(r, "id")
	s.submit(w, r, ws, form.ModeEdit, "/tasks/"+id, func(f form.TaskForm) error {
		return ws.ctrl.SubmitEdit(r.Context(), id, f)
	})
}

// submit saves the posted form to the target the route names. Tabs of one
// browser share a controller, so the open modal says nothing about this
// request.
func (s *Server) submit(w http.ResponseWriter, r *http.Request, ws *webSession, mode form.Mode, action string, save func(form.TaskForm) error) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	f := formFromRequest(r)
	err := save(f)
	var nf mutate.NotFoundError
	switch {
	case err == nil:
		http.Redirect(w, r, "/", http.StatusSeeOther)
	case errors.Is(err, board.ErrLoad):
		// Saved; only the reload failed.
		ws.setFlash(app.LoadErrorMessage(err))
		http.Redirect(w, r, "/", http.StatusSeeOther)
	case mutate.IsForbidden(err), errors.As(err, &nf), errors.Is(err, app.ErrNotLoggedIn):
		s.done(w, r, ws, err, "/")
	default:
		s.writeHTMLTemplate(w, statusFor(err), "form.html", s.formVM(ws, mode, action, f, app.Message(err)))
	}
}

func (s *Server) handleTaskDetail(w http.ResponseWriter, r *http.Request) {
	ws := sessionFrom(r.Context())
	id := chi.URLParam(r, "id")
	t, cs, err := ws.ctrl.OpenDetail(r.Context(), id)
	if t.ID == "" {
		s.done(w, r, ws, err, "/")
		return
	}
	commentsErr := ""
	if err != nil {
		commentsErr = app.Message(err)
	}
	s.writeHTMLTemplate(w, http.StatusOK, "detail.html", s.detailVM(ws, t, cs, commentsErr))
}

func (s *Server) handleTaskStatus(w http.ResponseWriter, r *http.Request) {
	ws := sessionFrom(r.Context())
	id := chi.URLParam(r, "id")
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	to, ok := model.ParseStatus(r.PostForm.Get("status"))
	if !ok {
		s.done(w, r, ws, mutate.ErrInvalidStatus, "/")
		return
	}
	plan, err := ws.ctrl.PlanStatus(id, to)
	if err != nil {
		s.done(w, r, ws, err, "/")
		return
	}
	if plan.Kind == mutate.PlanNone {
		s.done(w, r, ws, nil, "/")
		return
	}
	if plan.NeedsReason() {
		if _, given := r.PostForm["reason"]; !given {
			s.writeHTMLTemplate(w, http.StatusOK, "reason.html", reasonVM{
				baseVM: s.base(ws, "Return to Doing"),
				TaskID: id,
				Action: "/tasks/" + id + "/status",
				Status: string(to),
			})
			return
		}
	}
	s.done(w, r, ws, ws.ctrl.ApplyStatus(r.Context(), plan, r.PostForm.Get("reason")), "/")
}

func (s *Server) handleTaskDrop(w http.ResponseWriter, r *http.Request) {
	ws := sessionFrom(r.Context())
	id := chi.URLParam(r, "id")
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	col, ok := board.ParseColumn(r.PostForm.Get("column"))
	if !ok {
		s.done(w, r, ws, mutate.ErrInvalidStatus, "/")
		return
	}
	s.done(w, r, ws, ws.ctrl.Drop(r.Context(), id, col), "/")
}

func (s *Server) handleTaskArchive(w http.ResponseWriter, r *http.Request) {
	ws := sessionFrom(r.Context())
	s.done(w, r, ws, ws.ctrl.Archive(r.Context(), chi.URLParam(r, "id")), "/")
}

func (s *Server) handleTaskApprove(w http.ResponseWriter, r *http.Request) {
	ws := sessionFrom(r.Context())
	s.done(w, r, ws, ws.ctrl.Approve(r.Context(), chi.URLParam(r, "id")), "/")
}

func (s *Server) handleTaskReturn(w http.ResponseWriter, r *http.Request) {
	ws := sessionFrom(r.Context())
	id := chi.URLParam(r, "id")
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if _, given := r.PostForm["reason"]; !given {
		s.writeHTMLTemplate(w, http.StatusOK, "reason.html", reasonVM{
			baseVM: s.base(ws, "Return to Doing"),
			TaskID: id,
			Action: "/tasks/" + id + "/return",
		})
		return
	}
	s.done(w, r, ws, ws.ctrl.ReturnToDoing(r.Context(), id, r.PostForm.Get("reason")), "/")
}

func (s *Server) handleCommentAdd(w http.ResponseWriter, r *http.Request) {
	ws := sessionFrom(r.Context())
	id := chi.URLParam(r, "id")
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	_, _, err := ws.ctrl.AddComment(r.Context(), id, r.PostForm.Get("text"))
	s.done(w, r, ws, err, "/tasks/"+id)
}
