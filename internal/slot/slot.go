// Package slot enforces at-most-one in-flight request per logical
// channel. Issuing a new request cancels the previous one; late results
// from a superseded request are detected by the caller and discarded.
package slot

import (
	"context"
	"errors"
	"sync"
)

// ErrSuperseded is the cancellation cause when a newer request replaces
// a still-pending one. It is not a genuine failure: callers must treat
// it like a cancellation, never like an error outcome.
var ErrSuperseded = errors.New("request superseded by a newer one")

// Canceled reports whether err is a supersession or an ordinary context
// cancellation, either of which means "discard this result silently".
func Canceled(err error) bool {
	return errors.Is(err, ErrSuperseded) || errors.Is(err, context.Canceled)
}

// Slot owns one logical request channel. The zero value is ready to use.
type Slot struct {
	mu     sync.Mutex
	cancel context.CancelCauseFunc
	gen    uint64
}

// Issue cancels any request previously issued through the slot (with
// cause ErrSuperseded), then registers a new one. It returns the context
// the request must run under and a predicate that reports whether the
// request is still the current one. Callers check the predicate before
// applying the result to any state; a false return means the outcome,
// success or failure, must be dropped.
func (s *Slot) Issue(parent context.Context) (context.Context, func() bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		s.cancel(ErrSuperseded)
	}

	ctx, cancel := context.WithCancelCause(parent)
	s.cancel = cancel
	s.gen++
	gen := s.gen

	current := func() bool {
		s.mu.Lock()
		defer s.mu.Unlock()
		return s.gen == gen && s.cancel != nil
	}
	return ctx, current
}

// CancelAll cancels the in-flight request, if any, and invalidates every
// outstanding current() predicate. Called on owner teardown.
func (s *Slot) CancelAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel(context.Canceled)
		s.cancel = nil
	}
}
