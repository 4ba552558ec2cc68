package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	identitysvc "watchtrack/services/identity"
	"watchtrack/models"
)

type identityService interface {
	SignUp(ctx context.Context, email, password, fullName string) (identitysvc.Session, error)
	SignIn(ctx context.Context, email, password string) (identitysvc.Session, error)
	SignOut(ctx context.Context, token string) error
	Validate(ctx context.Context, token string) (models.User, error)
	Profile(ctx context.Context, userID string) (models.Profile, error)
}

var _ identityService = (*identitysvc.Service)(nil)

// AuthHandler exposes the identity provider over HTTP.
type AuthHandler struct {
	Identity identityService
}

func NewAuthHandler(identity identityService) *AuthHandler {
	return &AuthHandler{Identity: identity}
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
}

// SignUp creates an account and responds with an established session.
func (h *AuthHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(r, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	session, err := h.Identity.SignUp(r.Context(), req.Email, req.Password, req.FullName)
	if err != nil {
		switch {
		case errors.Is(err, identitysvc.ErrEmailTaken):
			http.Error(w, err.Error(), http.StatusConflict)
		case errors.Is(err, identitysvc.ErrBadEmail), errors.Is(err, identitysvc.ErrWeakPassword):
			http.Error(w, err.Error(), http.StatusBadRequest)
		default:
			log.Printf("[auth-handler] sign-up failed: %v", err)
			http.Error(w, "sign up failed", http.StatusInternalServerError)
		}
		return
	}
	writeJSON(w, http.StatusCreated, session)
}

// SignIn verifies credentials and responds with a fresh session.
func (h *AuthHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(r, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	session, err := h.Identity.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, identitysvc.ErrInvalidLogin) {
			http.Error(w, err.Error(), http.StatusUnauthorized)
			return
		}
		log.Printf("[auth-handler] sign-in failed: %v", err)
		http.Error(w, "sign in failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

// SignOut revokes the presented token. Always succeeds for tokens that no
// longer validate.
func (h *AuthHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	token := BearerToken(r)
	if token == "" {
		http.Error(w, "missing bearer token", http.StatusBadRequest)
		return
	}
	if err := h.Identity.SignOut(r.Context(), token); err != nil {
		log.Printf("[auth-handler] sign-out failed: %v", err)
		http.Error(w, "sign out failed", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Session restores the session behind a bearer token.
func (h *AuthHandler) Session(w http.ResponseWriter, r *http.Request) {
	token := BearerToken(r)
	if token == "" {
		http.Error(w, "missing bearer token", http.StatusUnauthorized)
		return
	}
	user, err := h.Identity.Validate(r.Context(), token)
	if err != nil {
		http.Error(w, "invalid session", http.StatusUnauthorized)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// Profile returns the caller's profile row, creating it on first view.
func (h *AuthHandler) Profile(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		http.Error(w, "not authenticated", http.StatusUnauthorized)
		return
	}
	profile, err := h.Identity.Profile(r.Context(), user.ID)
	if err != nil {
		log.Printf("[auth-handler] profile lookup failed: %v", err)
		http.Error(w, "profile lookup failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
