package handlers

import (
	"database/sql"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/formcoach/formcoach/internal/middleware"
	"github.com/formcoach/formcoach/internal/models"
	"github.com/go-chi/chi/v5"
)

// Auth holds dependencies for authentication handlers.
type Auth struct {
	DB       *sql.DB
	Sessions *scs.SessionManager
}

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Email    string `json:"email"`
	FullName string `json:"fullName"`
}

type authResponse struct {
	Token     string       `json:"token"`
	ExpiresAt *time.Time   `json:"expiresAt,omitempty"`
	User      userResponse `json:"user"`
}

type userResponse struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	IsAdmin  bool   `json:"isAdmin"`
}

// Register creates a new account and logs it in.
// POST /api/v1/auth/register
func (a *Auth) Register(w http.ResponseWriter, r *http.Request) {
	if models.GetSetting(a.DB, "auth.allow_registration") != "true" {
		writeError(w, http.StatusForbidden, "Registration is disabled")
		return
	}

	var in credentials
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	in.Username = strings.TrimSpace(in.Username)
	if in.Username == "" || len(in.Password) < 8 {
		writeError(w, http.StatusBadRequest, "Username and a password of at least 8 characters are required")
		return
	}

	// The first account becomes the admin.
	user, err := models.RegisterUser(a.DB, in.Username, in.Password, in.Email)
	if err != nil {
		if errors.Is(err, models.ErrDuplicateUsername) {
			writeError(w, http.StatusConflict, "Username is already taken")
			return
		}
		log.Printf("handlers: register %q: %v", in.Username, err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	if in.FullName != "" {
		if _, err := models.UpsertProfile(a.DB, user.ID, in.FullName, "", ""); err != nil {
			log.Printf("handlers: create profile for user %d: %v", user.ID, err)
		}
	}

	a.establishSession(w, r, user, http.StatusCreated)
}

// Login checks credentials, mints a bearer token, and sets the session.
// POST /api/v1/auth/login
func (a *Auth) Login(w http.ResponseWriter, r *http.Request) {
	var in credentials
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	user, err := models.GetUserByUsername(a.DB, strings.TrimSpace(in.Username))
	if err != nil || !models.CheckPassword(user.PasswordHash, in.Password) {
		if err != nil && !errors.Is(err, models.ErrNotFound) {
			log.Printf("handlers: login lookup %q: %v", in.Username, err)
		}
		writeError(w, http.StatusUnauthorized, "Invalid username or password")
		return
	}

	a.establishSession(w, r, user, http.StatusOK)
}

// establishSession renews the session, binds it to the user, and mints a
// fresh bearer token for API callers.
func (a *Auth) establishSession(w http.ResponseWriter, r *http.Request, user *models.User, status int) {
	if err := a.Sessions.RenewToken(r.Context()); err != nil {
		log.Printf("handlers: session renew error: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	a.Sessions.Put(r.Context(), "userID", user.ID)

	expiry := time.Now().AddDate(0, 0, models.GetTokenTTLDays(a.DB))
	token, err := models.CreateAPIToken(a.DB, user.ID, "login", &expiry)
	if err != nil {
		log.Printf("handlers: mint token for user %d: %v", user.ID, err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(w, status, authResponse{
		Token:     token.Token,
		ExpiresAt: nullTimePtr(token.ExpiresAt),
		User:      userResponse{ID: user.ID, Username: user.Username, IsAdmin: user.IsAdmin},
	})
}

// Logout destroys the session.
// POST /api/v1/auth/logout
func (a *Auth) Logout(w http.ResponseWriter, r *http.Request) {
	if err := a.Sessions.Destroy(r.Context()); err != nil {
		log.Printf("handlers: session destroy error: %v", err)
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListTokens returns the caller's API tokens (values are not re-shown).
// GET /api/v1/auth/tokens
func (a *Auth) ListTokens(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())

	tokens, err := models.ListAPITokensByUser(a.DB, user.ID)
	if err != nil {
		log.Printf("handlers: list tokens for user %d: %v", user.ID, err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	type tokenInfo struct {
		ID        int64      `json:"id"`
		Label     string     `json:"label"`
		ExpiresAt *time.Time `json:"expiresAt,omitempty"`
		CreatedAt time.Time  `json:"createdAt"`
	}
	out := make([]tokenInfo, 0, len(tokens))
	for _, t := range tokens {
		out = append(out, tokenInfo{ID: t.ID, Label: t.Label.String, ExpiresAt: nullTimePtr(t.ExpiresAt), CreatedAt: t.CreatedAt})
	}
	writeJSON(w, http.StatusOK, out)
}

func nullTimePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	return &t.Time
}

// DeleteToken revokes one of the caller's API tokens.
// DELETE /api/v1/auth/tokens/{id}
func (a *Auth) DeleteToken(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid token id")
		return
	}

	if err := models.DeleteAPIToken(a.DB, id, user.ID); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Token not found")
			return
		}
		log.Printf("handlers: delete token %d for user %d: %v", id, user.ID, err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
