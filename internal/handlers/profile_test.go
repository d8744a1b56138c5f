package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestProfile(t *testing.T) {
	db := testDB(t)
	user := seedUser(t, db, "maria", false)
	h := &Profile{DB: db}

	t.Run("get without stored profile returns empty fields", func(t *testing.T) {
		req := jsonRequest("GET", "/api/v1/profile", "", user)
		rr := httptest.NewRecorder()

		h.Get(rr, req)

		if rr.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rr.Code)
		}
		var out struct {
			FullName  string `json:"fullName"`
			Objective string `json:"objective"`
		}
		decodeBody(t, rr, &out)
		if out.FullName != "" || out.Objective != "" {
			t.Errorf("expected empty profile, got %+v", out)
		}
	})

	t.Run("update and read back", func(t *testing.T) {
		req := jsonRequest("PUT", "/api/v1/profile",
			`{"fullName":"  Maria Silva  ","objective":"Hipertrofia","experienceLevel":"Avançado"}`, user)
		rr := httptest.NewRecorder()

		h.Update(rr, req)

		if rr.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
		}

		req = jsonRequest("GET", "/api/v1/profile", "", user)
		rr = httptest.NewRecorder()
		h.Get(rr, req)

		var out struct {
			FullName        string `json:"fullName"`
			Objective       string `json:"objective"`
			ExperienceLevel string `json:"experienceLevel"`
		}
		decodeBody(t, rr, &out)
		if out.FullName != "Maria Silva" {
			t.Errorf("fullName = %q, want trimmed value", out.FullName)
		}
		if out.Objective != "Hipertrofia" || out.ExperienceLevel != "Avançado" {
			t.Errorf("profile = %+v", out)
		}
	})

	t.Run("rejects malformed body", func(t *testing.T) {
		req := jsonRequest("PUT", "/api/v1/profile", `{"fullName":`, user)
		rr := httptest.NewRecorder()

		h.Update(rr, req)

		if rr.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rr.Code)
		}
	})
}
