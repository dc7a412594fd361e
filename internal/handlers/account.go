package handlers

import (
	"errors"
	"net/http"
	"strings"

	"finance-tracker/internal/auth"
	"finance-tracker/internal/models"
	"finance-tracker/internal/storage"
)

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type authResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

// RegisterAuthRoutes mounts the account API under /api/auth. Register and
// login go through limiter when it is non-nil.
func (h *Handlers) RegisterAuthRoutes(mux *http.ServeMux, limiter *RateLimiter) {
	throttle := func(fn http.HandlerFunc) http.Handler {
		if limiter == nil {
			return fn
		}
		return limiter.Middleware(fn)
	}

	mux.Handle("POST /api/auth/register", throttle(h.Register))
	mux.Handle("POST /api/auth/login", throttle(h.Login))
	mux.Handle("GET /api/auth/me", h.AuthMiddleware(http.HandlerFunc(h.Me)))
}

// Register creates an account and returns a token for it.
func (h *Handlers) Register(w http.ResponseWriter, r *http.Request) {
	var c credentials
	if !decodeJSON(w, r, &c) {
		return
	}
	username, err := auth.CheckCredentials(c.Username, c.Password)
	var cerr *auth.CredentialError
	if errors.As(err, &cerr) {
		writeMessage(w, http.StatusBadRequest, cerr.Message)
		return
	}
	if err != nil {
		h.serverError(w, r, "register", err)
		return
	}

	hash, err := auth.HashPassword(c.Password)
	if err != nil {
		h.serverError(w, r, "register", err)
		return
	}

	user, err := h.store.CreateUser(r.Context(), username, hash)
	if errors.Is(err, storage.ErrUserExists) {
		writeMessage(w, http.StatusBadRequest, "User already exists")
		return
	}
	if err != nil {
		h.serverError(w, r, "register", err)
		return
	}

	h.respondWithToken(w, r, http.StatusCreated, user)
}

// Login exchanges valid credentials for a token.
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var c credentials
	if !decodeJSON(w, r, &c) {
		return
	}
	c.Username = strings.TrimSpace(c.Username)

	user, err := h.store.GetUserByUsername(r.Context(), c.Username)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		h.serverError(w, r, "login", err)
		return
	}
	if user == nil || !auth.CheckPassword(c.Password, user.PasswordHash) {
		h.logger.Info("failed login")
		writeMessage(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	h.respondWithToken(w, r, http.StatusOK, user)
}

// Me returns the authenticated user.
func (h *Handlers) Me(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, GetUserFromContext(r))
}

func (h *Handlers) respondWithToken(w http.ResponseWriter, r *http.Request, status int, user *models.User) {
	token, err := h.issuer.Issue(user.ID)
	if err != nil {
		h.serverError(w, r, "issue token", err)
		return
	}
	out := *user
	out.PasswordHash = ""
	writeJSON(w, status, authResponse{Token: token, User: &out})
}
