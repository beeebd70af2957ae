package web

import (
	"context"
	"errors"
	"sync"
	"time"

	"kanban-cli/internal/app"
)

// webSession is one browser's board. Each has its own controller so visitors
// never share an actor, task cache or open form.
type webSession struct {
	id   string
	ctrl *app.Controller

	mu    sync.Mutex
	flash string
}

func (ws *webSession) setFlash(msg string) {
	ws.mu.Lock()
	ws.flash = msg
	ws.mu.Unlock()
}

// takeFlash returns and clears the pending banner message.
func (ws *webSession) takeFlash() string {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	msg := ws.flash
	ws.flash = ""
	return msg
}

var errSessionRevoked = errors.New("session logged out")

// sessionHub holds live sessions and the ids logged out of this process. A
// logged-out id stays refused until its cookie would have expired anyway.
// The set is in memory, so a restart forgets it.
type sessionHub struct {
	mu       sync.Mutex
	sessions map[string]*webSession
	revoked  map[string]time.Time // session id -> cookie expiry
	newCtrl  func() *app.Controller
	now      func() time.Time
}

func newSessionHub(newCtrl func() *app.Controller) *sessionHub {
	return &sessionHub{
		sessions: map[string]*webSession{},
		revoked:  map[string]time.Time{},
		newCtrl:  newCtrl,
		now:      time.Now,
	}
}

func (h *sessionHub) get(id string) (*webSession, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	ws, ok := h.sessions[id]
	return ws, ok
}

// open signs email in on a fresh controller and registers it under id.
func (h *sessionHub) open(ctx context.Context, id, email string) (*webSession, error) {
	h.mu.Lock()
	_, revoked := h.revoked[id]
	h.mu.Unlock()
	if revoked {
		return nil, errSessionRevoked
	}
	ws := &webSession{id: id, ctrl: h.newCtrl()}
	if _, err := ws.ctrl.Login(ctx, email); err != nil {
		if _, ok := ws.ctrl.Actor(); !ok {
			return nil, err
		}
		// Signed in but the first load failed; show it on the board.
		ws.setFlash(app.LoadErrorMessage(err))
	}
	h.mu.Lock()
	h.sessions[id] = ws
	h.mu.Unlock()
	return ws, nil
}

// close logs session id out and refuses it until expires.
func (h *sessionHub) close(ctx context.Context, id string, expires time.Time) {
	h.mu.Lock()
	ws, ok := h.sessions[id]
	delete(h.sessions, id)
	now := h.now()
	for rid, exp := range h.revoked {
		if !exp.After(now) {
			delete(h.revoked, rid)
		}
	}
	if expires.After(now) {
		h.revoked[id] = expires
	}
	h.mu.Unlock()
	if ok {
		_ = ws.ctrl.Logout(ctx)
	}
}

func (h *sessionHub) len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.sessions)
}
