package form

import (
	"errors"
	"sync"
)

// ErrSubmitInFlight is returned for a submit attempted while another one is
// still running.
var ErrSubmitInFlight = errors.New("submit already in progress")

// Submitter guards one form against double submission. The zero value is
// ready to use.
type Submitter struct {
	mu       sync.Mutex
	inFlight bool
}

// Begin claims the guard. It returns ErrSubmitInFlight when already held.
func (s *Submitter) Begin() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inFlight {
		return ErrSubmitInFlight
	}
	s.inFlight = true
	return nil
}

func (s *Submitter) End() {
	s.mu.Lock()
	s.inFlight = false
	s.mu.Unlock()
}

// Do runs fn under the guard and releases it on every outcome.
func (s *Submitter) Do(fn func() error) error {
	if err := s.Begin(); err != nil {
		return err
	}
	defer s.End()
	return fn()
}

func (s *Submitter) InFlight() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inFlight
}
