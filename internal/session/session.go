// Package session owns the authenticated-user state machine. It is the
// single source of truth for "who is logged in", reconciling a
// best-effort server probe against explicit login, register and logout
// actions without ever letting a slow probe downgrade a session the
// user just established.
package session

import (
	"context"
	"strings"
	"sync"
	"time"

	"leadctl/internal/leadapi"
	"leadctl/internal/slot"
)

// Status is the session lifecycle state. It only moves through the
// Store's operations; nothing else writes it.
type Status int

const (
	// StatusUnknown means the initial probe has not run yet.
	StatusUnknown Status = iota
	// StatusChecking means a probe is in flight.
	StatusChecking
	// StatusAuthenticated means a user is logged in.
	StatusAuthenticated
	// StatusAnonymous means there is no session.
	StatusAnonymous
)

func (s Status) String() string {
	switch s {
	case StatusChecking:
		return "checking"
	case StatusAuthenticated:
		return "authenticated"
	case StatusAnonymous:
		return "anonymous"
	default:
		return "unknown"
	}
}

// API is the slice of the lead API the store needs.
type API interface {
	Me(ctx context.Context) (*leadapi.User, error)
	Login(ctx context.Context, email, password string) (*leadapi.User, error)
	Register(ctx context.Context, req leadapi.RegisterRequest) error
	Logout(ctx context.Context) error
}

// Result is the explicit outcome of an auth operation. Operations never
// panic or return raw errors to UI code; callers branch on OK.
type Result struct {
	OK      bool
	Message string
}

// probeTimeout bounds how long the UI can sit in "checking" on a hung
// session probe.
const probeTimeout = 5 * time.Second

// Store is the session state machine. Safe for concurrent use.
type Store struct {
	api API

	mu        sync.Mutex
	status    Status
	user      *leadapi.User
	lastError string

	probe        slot.Slot
	probeTimeout time.Duration
}

// NewStore returns a store in StatusUnknown.
func NewStore(api API) *Store {
	return &Store{api: api, probeTimeout: probeTimeout}
}

// Status returns the current lifecycle state.
func (s *Store) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// User returns the authenticated user, or nil.
func (s *Store) User() *leadapi.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user
}

// Authenticated reports whether a user is present.
func (s *Store) Authenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status == StatusAuthenticated
}

// LastError returns the message from the most recent failed operation,
// or "".
func (s *Store) LastError() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastError
}

// Check probes the server for an existing session. A known user is
// returned from cache without a round trip. Any probe failure resolves
// silently to anonymous; only non-401 failures leave a message in
// LastError. The probe is bounded by a hard timeout so callers are
// never stuck in StatusChecking, and a probe that loses a race against
// a successful login never downgrades the session.
func (s *Store) Check(ctx context.Context) *leadapi.User {
	s.mu.Lock()
	if s.status == StatusAuthenticated {
		user := s.user
		s.mu.Unlock()
		return user
	}
	s.status = StatusChecking
	s.mu.Unlock()

	probeCtx, current := s.probe.Issue(ctx)
	probeCtx, cancel := context.WithTimeout(probeCtx, s.probeTimeout)
	defer cancel()

	user, err := s.api.Me(probeCtx)

	s.mu.Lock()
	defer s.mu.Unlock()

	if !current() {
		// A newer probe took over; whatever this one saw is stale.
		return s.user
	}
	if s.status == StatusAuthenticated {
		// Login completed while the probe was in flight.
		return s.user
	}

	if err != nil {
		s.status = StatusAnonymous
		s.user = nil
		// A 401 is the normal "not logged in" answer; anything else
		// (network, timeout, bad payload) is worth telling the user.
		if !leadapi.IsUnauthenticated(err) && !slot.Canceled(err) {
			s.lastError = leadapi.UserMessage(err, "Session expired. Please log in again.")
		}
		return nil
	}

	s.status = StatusAuthenticated
	s.user = user
	s.lastError = ""
	return user
}

// Login authenticates with email and password. Input problems are
// reported inline without a network call. On success the session is
// authenticated and LastError cleared. Login deliberately does not pass
// through StatusChecking, so a login form never flickers a global
// loading state.
func (s *Store) Login(ctx context.Context, email, password string) Result {
	email = strings.TrimSpace(email)
	if msg := validateCredentials(email, password); msg != "" {
		return Result{Message: msg}
	}

	user, err := s.api.Login(ctx, email, password)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		msg := leadapi.UserMessage(err, "Login failed")
		s.lastError = msg
		return Result{Message: msg}
	}

	s.status = StatusAuthenticated
	s.user = user
	s.lastError = ""
	return Result{OK: true}
}

// Register creates an account and immediately logs it in, so a
// successful registration yields an authenticated session in one
// user-visible step. If the follow-up login fails the store resolves to
// anonymous and reports a single failure; it never stays
// half-authenticated.
func (s *Store) Register(ctx context.Context, req leadapi.RegisterRequest) Result {
	req.Email = strings.TrimSpace(req.Email)
	req.Username = strings.TrimSpace(req.Username)
	if msg := validateRegistration(req); msg != "" {
		return Result{Message: msg}
	}

	if err := s.api.Register(ctx, req); err != nil {
		msg := leadapi.UserMessage(err, "Registration failed")
		s.mu.Lock()
		s.lastError = msg
		s.mu.Unlock()
		return Result{Message: msg}
	}

	user, err := s.api.Login(ctx, req.Email, req.Password)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		s.status = StatusAnonymous
		s.user = nil
		msg := leadapi.UserMessage(err, "Registration succeeded but login failed. Please log in.")
		s.lastError = msg
		return Result{Message: msg}
	}

	s.status = StatusAuthenticated
	s.user = user
	s.lastError = ""
	return Result{OK: true}
}

// Logout clears the local session first, then notifies the server best
// effort. A failed server call is recorded in LastError but the session
// stays anonymous either way.
func (s *Store) Logout(ctx context.Context) Result {
	s.mu.Lock()
	s.status = StatusAnonymous
	s.user = nil
	s.lastError = ""
	s.mu.Unlock()

	if err := s.api.Logout(ctx); err != nil {
		msg := leadapi.UserMessage(err, "Logout failed")
		s.mu.Lock()
		s.lastError = msg
		s.mu.Unlock()
		return Result{Message: msg}
	}
	return Result{OK: true}
}
