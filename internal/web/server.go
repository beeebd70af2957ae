// Package web serves the browser board: server-rendered pages, HTML5
// drag-and-drop and a periodic SSE refresh.
package web

import (
	"context"
	"embed"
	"errors"
	"html/template"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"kanban-cli/internal/app"
	"kanban-cli/internal/service"
	"kanban-cli/internal/session"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

//go:embed templates/*.html static/*.js static/*.css
var assetsFS embed.FS

type ServerConfig struct {
	Addr string
	// ConfigDir holds the cookie signing key (web/secret.key).
	ConfigDir string
	Service   service.Service

	EmailDomain  string
	StrictDates  bool
	PollInterval time.Duration
	Logger       *slog.Logger

	// Secret overrides the on-disk signing key.
	Secret []byte
	// SecureCookies sets the Secure flag on the session cookie.
	SecureCookies bool
}

type Server struct {
	cfg    ServerConfig
	tmpl   *template.Template
	signer cookieSigner
	hub    *sessionHub
	logger *slog.Logger
}

func NewServer(cfg ServerConfig) (*Server, error) {
	cfg.Addr = strings.TrimSpace(cfg.Addr)
	cfg.ConfigDir = strings.TrimSpace(cfg.ConfigDir)
	if cfg.Addr == "" {
		return nil, errors.New("web: addr is empty")
	}
	if cfg.Service == nil {
		return nil, errors.New("web: service is nil")
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	secret := cfg.Secret
	if len(secret) == 0 {
		if cfg.ConfigDir == "" {
			return nil, errors.New("web: config dir is empty")
		}
		var err error
		secret, err = loadOrInitSigningKey(cfg.ConfigDir)
		if err != nil {
			return nil, err
		}
	}

	tmpl, err := template.New("base").Funcs(template.FuncMap{
		"trim": strings.TrimSpace,
	}).ParseFS(assetsFS, "templates/*.html")
	if err != nil {
		return nil, err
	}

	s := &Server{cfg: cfg, tmpl: tmpl, signer: cookieSigner{key: secret}, logger: cfg.Logger}
	s.hub = newSessionHub(func() *app.Controller {
		// Per-browser storage: the cached email lives in the signed cookie.
		return app.NewController(cfg.Service, session.NewMemoryStorage(), app.Options{
			EmailDomain: cfg.EmailDomain,
			StrictDates: cfg.StrictDates,
		}, cfg.Logger)
	})
	return s, nil
}

func (s *Server) Addr() string { return s.cfg.Addr }

func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer, s.slogMiddleware)

	r.Get("/health", s.handleHealth)
	r.Get("/static/app.js", s.handleAsset("static/app.js", "application/javascript; charset=utf-8"))
	r.Get("/static/app.css", s.handleAsset("static/app.css", "text/css; charset=utf-8"))
	r.Get("/login", s.handleLoginGet)
	r.Post("/login", s.handleLoginPost)
	r.Post("/logout", s.handleLogoutPost)

	r.Group(func(r chi.Router) {
		r.Use(s.requireSession)
		r.Get("/", s.handleBoard)
		r.Get("/board/stream", s.handleBoardStream)
		r.Get("/tasks/new", s.handleTaskNew)
		r.Post("/tasks", s.handleTaskCreate)
		r.Route("/tasks/{id}", func(r chi.Router) {
			r.Get("/", s.handleTaskDetail)
			r.Post("/", s.handleTaskUpdate)
			r.Get("/edit", s.handleTaskEdit)
			r.Post("/status", s.handleTaskStatus)
			r.Post("/drop", s.handleTaskDrop)
			r.Post("/archive", s.handleTaskArchive)
			r.Post("/approve", s.handleTaskApprove)
			r.Post("/return", s.handleTaskReturn)
			r.Post("/comments", s.handleCommentAdd)
		})
	})
	return r
}

// ListenAndServe serves on the configured address until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is cancelled, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
	errc := make(chan error, 1)
	go func() { errc <- srv.Serve(ln) }()
	s.logger.Info("web board listening", "addr", ln.Addr().String())

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// slogMiddleware logs one line per request at a level derived from the status.
func (s *Server) slogMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		level := slog.LevelDebug
		switch {
		case ww.Status() >= 500:
			level = slog.LevelError
		case ww.Status() >= 400:
			level = slog.LevelWarn
		}
		s.logger.Log(r.Context(), level, http.StatusText(ww.Status()),
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes_written", ww.BytesWritten(),
			"duration", time.Since(start),
		)
	})
}

func (s *Server) handleAsset(name, contentType string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		b, err := assetsFS.ReadFile(name)
		if err != nil || len(b) == 0 {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", contentType)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(b)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok\n"))
}

func (s *Server) renderTemplate(name string, data any) (string, error) {
	var b strings.Builder
	if err := s.tmpl.ExecuteTemplate(&b, name, data); err != nil {
		return "", err
	}
	return b.String(), nil
}

func (s *Server) writeHTMLTemplate(w http.ResponseWriter, status int, name string, data any) {
	html, err := s.renderTemplate(name, data)
	if err != nil {
		s.logger.Error("render template", "template", name, "err", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, html)
}
