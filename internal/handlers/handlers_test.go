package handlers

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/formcoach/formcoach/internal/database"
	"github.com/formcoach/formcoach/internal/middleware"
	"github.com/formcoach/formcoach/internal/models"
	"github.com/go-chi/chi/v5"
)

// testDB creates a fresh in-memory SQLite database with migrations applied.
func testDB(t testing.TB) *sql.DB {
	t.Helper()

	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := database.RunMigrations(db); err != nil {
		db.Close()
		t.Fatalf("run migrations: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// testSessionManager creates a cookie-based in-memory session manager for tests.
func testSessionManager() *scs.SessionManager {
	sm := scs.New()
	sm.Lifetime = 30 * 24 * time.Hour
	sm.Cookie.HttpOnly = true
	sm.Cookie.SameSite = http.SameSiteLaxMode
	return sm
}

// seedUser creates a user and returns it.
func seedUser(t testing.TB, db *sql.DB, username string, isAdmin bool) *models.User {
	t.Helper()
	user, err := models.CreateUser(db, username, "password123", "", isAdmin)
	if err != nil {
		t.Fatalf("seed user %q: %v", username, err)
	}
	return user
}

// jsonRequest creates a JSON request with the given user in context, as
// RequireAuth would set it.
func jsonRequest(method, target, body string, user *models.User) *http.Request {
	var r *http.Request
	if body != "" {
		r = httptest.NewRequest(method, target, strings.NewReader(body))
		r.Header.Set("Content-Type", "application/json")
	} else {
		r = httptest.NewRequest(method, target, nil)
	}
	if user != nil {
		r = r.WithContext(middleware.WithUser(r.Context(), user))
	}
	return r
}

// withChiParam attaches a chi URL parameter to the request, simulating a
// route match.
func withChiParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// decodeBody unmarshals a recorded JSON response into v.
func decodeBody(t testing.TB, rr *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rr.Body.Bytes(), v); err != nil {
		t.Fatalf("decode response %q: %v", rr.Body.String(), err)
	}
}

// errorMessage extracts the "error" field of a JSON error response.
func errorMessage(t testing.TB, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var out struct {
		Error string `json:"error"`
	}
	decodeBody(t, rr, &out)
	return out.Error
}

// itoa is a shorthand for strconv.FormatInt used in test URLs.
func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
