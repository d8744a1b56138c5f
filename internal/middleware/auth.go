package middleware

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/alexedwards/scs/v2"
	"github.com/formcoach/formcoach/internal/models"
)

type contextKey string

const userContextKey contextKey = "user"

// RequireAuth authenticates the request, preferring a bearer API token and
// falling back to the session cookie. Unauthenticated requests get a JSON 401.
func RequireAuth(sm *scs.SessionManager, db *sql.DB, next http.Handler) http.Handler {
	return sm.LoadAndSave(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, err := authenticate(sm, db, r)
		if err != nil {
			if !errors.Is(err, models.ErrNotFound) {
				log.Printf("middleware: authenticate: %v", err)
			}
			unauthorized(w)
			return
		}

		ctx := context.WithValue(r.Context(), userContextKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	}))
}

func authenticate(sm *scs.SessionManager, db *sql.DB, r *http.Request) (*models.User, error) {
	if auth := r.Header.Get("Authorization"); auth != "" {
		token, ok := strings.CutPrefix(auth, "Bearer ")
		if !ok {
			return nil, models.ErrNotFound
		}
		return models.ValidateAPIToken(db, token)
	}

	userID := sm.GetInt64(r.Context(), "userID")
	if userID == 0 {
		return nil, models.ErrNotFound
	}
	return models.GetUserByID(db, userID)
}

// RequireAdmin rejects requests whose authenticated user is not an admin.
// Must run inside RequireAuth.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := UserFromContext(r.Context())
		if user == nil {
			unauthorized(w)
			return
		}
		if !user.IsAdmin {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusForbidden)
			w.Write([]byte(`{"error":"Forbidden"}`))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	w.Write([]byte(`{"error":"Unauthorized"}`))
}

// UserFromContext retrieves the authenticated user from the request context.
// Returns nil if no user is set (should not happen behind RequireAuth).
func UserFromContext(ctx context.Context) *models.User {
	u, _ := ctx.Value(userContextKey).(*models.User)
	return u
}

// WithUser returns a context carrying the given user, as RequireAuth would
// set it. Intended for handler tests.
func WithUser(ctx context.Context, u *models.User) context.Context {
	return context.WithValue(ctx, userContextKey, u)
}
