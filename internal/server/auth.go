package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/mail"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"leadctl/internal/leadapi"
	"leadctl/internal/storage"
)

func wireUser(u storage.User) leadapi.User {
	return leadapi.User{ID: u.ID, Username: u.Username, Email: u.Email}
}

func (a *app) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req leadapi.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)
	switch {
	case req.Username == "":
		httpError(w, http.StatusBadRequest, "Username is required")
		return
	case req.Email == "":
		httpError(w, http.StatusBadRequest, "Email is required")
		return
	case !validEmail(req.Email):
		httpError(w, http.StatusBadRequest, "Email address is invalid")
		return
	case len(req.Password) < 6:
		httpError(w, http.StatusBadRequest, "Password must be at least 6 characters")
		return
	case req.Password != req.ConfirmPassword:
		httpError(w, http.StatusBadRequest, "Passwords do not match")
		return
	}

	if _, err := a.store.GetUserByEmail(req.Email); err == nil {
		httpError(w, http.StatusConflict, "Email is already registered")
		return
	} else if !errors.Is(err, storage.ErrNotFound) {
		a.logger.Error("looking up user", "error", err)
		httpError(w, http.StatusInternalServerError, "Registration failed")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		a.logger.Error("hashing password", "error", err)
		httpError(w, http.StatusInternalServerError, "Registration failed")
		return
	}

	user := storage.User{
		ID:           uuid.NewString(),
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: string(hash),
		CreatedAt:    a.now().UTC(),
	}
	if err := a.store.CreateUser(user); err != nil {
		a.logger.Error("creating user", "error", err)
		httpError(w, http.StatusInternalServerError, "Registration failed")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"success": true,
		"user":    wireUser(user),
		"message": "Registration successful",
	})
}

func (a *app) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	user, err := a.store.GetUserByEmail(strings.TrimSpace(req.Email))
	if errors.Is(err, storage.ErrNotFound) {
		httpError(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}
	if err != nil {
		a.logger.Error("looking up user", "error", err)
		httpError(w, http.StatusInternalServerError, "Login failed")
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		httpError(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}

	now := a.now().UTC()
	sess := storage.Session{
		Token:     uuid.NewString(),
		UserID:    user.ID,
		CreatedAt: now,
		ExpiresAt: now.Add(a.sessionTTL),
	}
	if err := a.store.CreateSession(sess); err != nil {
		a.logger.Error("creating session", "error", err)
		httpError(w, http.StatusInternalServerError, "Login failed")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    sess.Token,
		Path:     "/",
		Expires:  sess.ExpiresAt,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"user":    wireUser(user),
		"message": "Login successful",
	})
}

func (a *app) handleMe(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"user":    wireUser(currentUser(r)),
	})
}

func (a *app) handleLogout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(SessionCookie); err == nil && cookie.Value != "" {
		if err := a.store.DeleteSession(cookie.Value); err != nil {
			a.logger.Error("deleting session", "error", err)
		}
	}
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Logged out",
	})
}

func validEmail(s string) bool {
	_, err := mail.ParseAddress(s)
	return err == nil
}
