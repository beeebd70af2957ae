package web

import (
	"context"
	"net/http"
	"time"
)

type ctxKey int

const sessionKey ctxKey = iota

func sessionFrom(ctx context.Context) *webSession {
	ws, _ := ctx.Value(sessionKey).(*webSession)
	return ws
}

func (s *Server) setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(sessionTTL / time.Second),
		HttpOnly: true,
		Secure:   s.cfg.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *Server) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.cfg.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

// sessionForRequest resolves the cookie to a live session. A valid cookie
// whose session is unknown (server restart) signs its email in again, the
// way a cached email is reused at startup.
func (s *Server) sessionForRequest(r *http.Request) (*webSession, bool) {
	c, err := r.Cookie(sessionCookieName)
	if err != nil {
		return nil, false
	}
	claims, err := s.signer.verify(c.Value, time.Now())
	if err != nil {
		return nil, false
	}
	if ws, ok := s.hub.get(claims.ID); ok {
		return ws, true
	}
	ws, err := s.hub.open(r.Context(), claims.ID, claims.Email)
	if err != nil {
		s.logger.Warn("cookie re-login failed", "email", claims.Email, "err", err)
		return nil, false
	}
	return ws, true
}

func (s *Server) requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, ok := s.sessionForRequest(r)
		if !ok {
			s.clearSessionCookie(w)
			if wantsFragment(r) {
				http.Error(w, "not logged in", http.StatusUnauthorized)
				return
			}
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), sessionKey, ws)))
	})
}

// wantsFragment reports a script-issued request that expects a status code
// and plain-text error rather than a redirect.
func wantsFragment(r *http.Request) bool {
	return r.Header.Get("X-Requested-With") == "fetch"
}
