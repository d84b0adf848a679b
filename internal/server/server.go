// Package server is the bundled demo lead API: cookie sessions backed by
// SQLite and the /leads CRUD surface the client talks to. It exists so
// leadctl works end to end without an external deployment.
package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"leadctl/internal/storage"
)

// SessionCookie is the name of the session cookie issued on login.
const SessionCookie = "leadapi_session"

// DefaultSessionTTL is how long an issued session stays valid.
const DefaultSessionTTL = 24 * time.Hour

type Deps struct {
	Store      *storage.Store
	Logger     *slog.Logger
	SessionTTL time.Duration // defaults to DefaultSessionTTL
	Now        func() time.Time
}

type app struct {
	store      *storage.Store
	logger     *slog.Logger
	sessionTTL time.Duration
	now        func() time.Time
}

func NewHandler(deps Deps) http.Handler {
	a := &app{
		store:      deps.Store,
		logger:     deps.Logger,
		sessionTTL: deps.SessionTTL,
		now:        deps.Now,
	}
	if a.logger == nil {
		a.logger = slog.Default()
	}
	if a.sessionTTL <= 0 {
		a.sessionTTL = DefaultSessionTTL
	}
	if a.now == nil {
		a.now = time.Now
	}

	r := chi.NewRouter()
	r.Use(a.logRequests)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/auth", func(r chi.Router) {
		r.Post("/register", a.handleRegister)
		r.Post("/login", a.handleLogin)
		r.Get("/logout", a.handleLogout)
		r.With(a.requireSession).Get("/me", a.handleMe)
	})

	r.Route("/leads", func(r chi.Router) {
		r.Use(a.requireSession)
		r.Get("/", a.handleListLeads)
		r.Post("/", a.handleCreateLead)
		r.Get("/{id}", a.handleGetLead)
		r.Put("/{id}", a.handleUpdateLead)
		r.Delete("/{id}", a.handleDeleteLead)
	})

	return r
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (a *app) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := a.now()
		next.ServeHTTP(rec, r)
		a.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start))
	})
}

type ctxKey int

const userKey ctxKey = 0

// requireSession resolves the session cookie to a user and rejects the
// request with 401 when there is none.
func (a *app) requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(SessionCookie)
		if err != nil || cookie.Value == "" {
			httpError(w, http.StatusUnauthorized, "Not authenticated")
			return
		}
		sess, err := a.store.GetSession(cookie.Value, a.now())
		if err != nil {
			httpError(w, http.StatusUnauthorized, "Session expired or invalid")
			return
		}
		user, err := a.store.GetUser(sess.UserID)
		if err != nil {
			httpError(w, http.StatusUnauthorized, "Session expired or invalid")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userKey, user)))
	})
}

func currentUser(r *http.Request) storage.User {
	u, _ := r.Context().Value(userKey).(storage.User)
	return u
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func httpError(w http.ResponseWriter, code int, message string) {
	writeJSON(w, code, map[string]any{
		"success": false,
		"message": message,
	})
}
