// Package session resolves and remembers who is using the board.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"kanban-cli/internal/model"
	"kanban-cli/internal/service"
	"kanban-cli/internal/store"
)

// ErrNoEmail means neither the cache nor the prompt produced an email.
var ErrNoEmail = errors.New("no email")

// Storage is the key/value surface of store.Store the manager needs.
type Storage interface {
	GetItem(ctx context.Context, key string) (string, bool, error)
	SetItem(ctx context.Context, key, value string) error
	RemoveItem(ctx context.Context, key string) error
}

// Prompt asks the user for an email. It is called at most once per EnsureLogin.
type Prompt func(ctx context.Context) (string, error)

type Manager struct {
	svc     service.Service
	storage Storage
	logger  *slog.Logger

	mu    sync.RWMutex
	actor *model.Actor
}

func New(svc service.Service, storage Storage, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{svc: svc, storage: storage, logger: logger}
}

// EnsureLogin logs in with the cached email, or with one obtained from prompt
// when nothing is cached.
func (m *Manager) EnsureLogin(ctx context.Context, prompt Prompt) (model.Actor, error) {
	cached, err := m.CachedEmail(ctx)
	if err != nil {
		return model.Actor{}, err
	}
	email := cached
	if email == "" && prompt != nil {
		entered, err := prompt(ctx)
		if err != nil {
			return model.Actor{}, err
		}
		email = model.NormalizeEmail(entered)
	}
	if email == "" {
		return model.Actor{}, ErrNoEmail
	}
	return m.Login(ctx, email)
}

// CachedEmail returns the normalized stored email, or "" when none is stored.
func (m *Manager) CachedEmail(ctx context.Context) (string, error) {
	v, ok, err := m.storage.GetItem(ctx, store.KeyUserEmail)
	if err != nil {
		return "", fmt.Errorf("read cached email: %w", err)
	}
	if !ok {
		return "", nil
	}
	return model.NormalizeEmail(v), nil
}

// Login authenticates email. A rejection removes the cached identity before the
// error is returned so the next attempt prompts again.
func (m *Manager) Login(ctx context.Context, email string) (model.Actor, error) {
	email = model.NormalizeEmail(email)
	if email == "" {
		return model.Actor{}, ErrNoEmail
	}

	actor, err := m.svc.Login(ctx, email)
	if err != nil {
		if service.IsRejected(err) {
			if rmErr := m.storage.RemoveItem(ctx, store.KeyUserEmail); rmErr != nil {
				m.logger.Warn("clear cached email", "err", rmErr)
			}
		}
		m.logger.Info("login failed", "email", email, "err", err)
		return model.Actor{}, err
	}

	m.mu.Lock()
	m.actor = &actor
	m.mu.Unlock()

	if err := m.storage.SetItem(ctx, store.KeyUserEmail, actor.Email); err != nil {
		m.logger.Warn("persist cached email", "err", err)
	}
	m.logger.Info("logged in", "email", actor.Email, "admin", actor.Admin)
	return actor, nil
}

// Logout clears the cached identity and the in-memory actor.
func (m *Manager) Logout(ctx context.Context) error {
	m.mu.Lock()
	m.actor = nil
	m.mu.Unlock()
	if err := m.storage.RemoveItem(ctx, store.KeyUserEmail); err != nil {
		return fmt.Errorf("clear cached email: %w", err)
	}
	return nil
}

// Current returns the logged-in actor, if any.
func (m *Manager) Current() (model.Actor, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.actor == nil {
		return model.Actor{}, false
	}
	return *m.actor, true
}
