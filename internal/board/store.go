package board

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"kanban-cli/internal/model"
	"kanban-cli/internal/service"
)

// ErrLoad wraps every failed Refresh.
var ErrLoad = errors.New("load tasks")

// Store caches the task list for one actor. The list is only ever replaced as
// a whole. At most one load is in flight; a Refresh requested meanwhile is
// skipped, not queued. Reset starts a new generation: a load begun before it
// neither blocks later loads nor installs its result.
type Store struct {
	svc    service.Service
	logger *slog.Logger
	now    func() time.Time

	mu       sync.Mutex
	tasks    []model.Task
	loading  bool
	loadedAt time.Time
	gen      uint64
}

func NewStore(svc service.Service, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{svc: svc, logger: logger, now: time.Now}
}

// Refresh reloads the list for actor. ran is false when another load was
// already pending, or when Reset ran while this one was out and its result
// was dropped. On error the previous list is kept.
func (s *Store) Refresh(ctx context.Context, actor model.Actor) (ran bool, err error) {
	s.mu.Lock()
	if s.loading {
		s.mu.Unlock()
		s.logger.Debug("refresh skipped: load in flight")
		return false, nil
	}
	s.loading = true
	gen := s.gen
	s.mu.Unlock()

	tasks, err := s.svc.ListTasks(ctx, actor.Email)

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen {
		s.logger.Debug("stale load dropped", "actor", actor.Email)
		return false, nil
	}
	s.loading = false
	if err != nil {
		s.logger.Warn("load tasks failed", "err", err)
		return true, fmt.Errorf("%w: %w", ErrLoad, err)
	}
	s.tasks = tasks
	s.loadedAt = s.now()
	s.logger.Debug("tasks loaded", "count", len(tasks))
	return true, nil
}

// Tasks returns a copy of the cached list.
func (s *Store) Tasks() []model.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.Task(nil), s.tasks...)
}

// Columns partitions the cached list.
func (s *Store) Columns() [NumColumns]Column {
	return Partition(s.Tasks())
}

func (s *Store) Find(id string) (model.Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.tasks {
		if t.ID == id {
			return t, true
		}
	}
	return model.Task{}, false
}

func (s *Store) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// LoadedAt is the time of the last successful load (zero before the first).
func (s *Store) LoadedAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadedAt
}

// Reset drops the cached list, e.g. on logout. A load still in flight is
// orphaned: the next Refresh runs at once.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
	s.loading = false
	s.tasks = nil
	s.loadedAt = time.Time{}
}
