package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"finance-tracker/internal/auth"
	"finance-tracker/internal/models"
	"finance-tracker/internal/storage"

	"go.uber.org/zap"
)

// Context key type to avoid collisions.
type contextKey string

// UserContextKey is the context key for the authenticated user.
const UserContextKey contextKey = "user"

const serverErrorMessage = "Server error. Please try again later."

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 1 << 20

// Handlers holds dependencies for HTTP handlers.
type Handlers struct {
	store    storage.Store
	verifier *auth.Verifier
	issuer   *auth.Issuer
	logger   *zap.Logger
	now      func() time.Time
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(store storage.Store, verifier *auth.Verifier, issuer *auth.Issuer, logger *zap.Logger) *Handlers {
	return &Handlers{
		store:    store,
		verifier: verifier,
		issuer:   issuer,
		logger:   logger,
		now:      time.Now,
	}
}

// GetUserFromContext retrieves the authenticated user from request context.
func GetUserFromContext(r *http.Request) *models.User {
	if user, ok := r.Context().Value(UserContextKey).(*models.User); ok {
		return user
	}
	return nil
}

// AuthMiddleware wraps handlers to require a valid bearer token.
// Rejected requests get 401 with the rejection reason and never reach next.
func (h *Handlers) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, err := h.verifier.Authenticate(r.Context(), r.Header.Get("Authorization"))
		if err != nil {
			h.logger.Debug("request rejected",
				zap.String("path", r.URL.Path), zap.String("reason", err.Error()))
			writeMessage(w, http.StatusUnauthorized, err.Error())
			return
		}

		ctx := context.WithValue(r.Context(), UserContextKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Health reports that the server is up.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "OK", "message": "Server is running"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"message": msg})
}

// serverError logs err and answers with a generic 500.
func (h *Handlers) serverError(w http.ResponseWriter, r *http.Request, op string, err error) {
	h.logger.Error(op+" error",
		zap.Error(err),
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
	)
	writeMessage(w, http.StatusInternalServerError, serverErrorMessage)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}
