package handlers

import (
	"database/sql"
	"log"
	"net/http"
	"strings"

	"github.com/formcoach/formcoach/internal/middleware"
	"github.com/formcoach/formcoach/internal/models"
)

// Profile handles the training profile endpoints.
type Profile struct {
	DB *sql.DB
}

// Get returns the caller's profile. A user without a stored profile gets
// empty fields, not a 404.
// GET /api/v1/profile
func (h *Profile) Get(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())

	profile, err := models.GetProfile(h.DB, user.ID)
	if err != nil {
		log.Printf("handlers: get profile for user %d: %v", user.ID, err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

// Update creates or replaces the caller's profile.
// PUT /api/v1/profile
func (h *Profile) Update(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())

	var in struct {
		FullName        string `json:"fullName"`
		Objective       string `json:"objective"`
		ExperienceLevel string `json:"experienceLevel"`
	}
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	profile, err := models.UpsertProfile(h.DB, user.ID,
		strings.TrimSpace(in.FullName),
		strings.TrimSpace(in.Objective),
		strings.TrimSpace(in.ExperienceLevel))
	if err != nil {
		log.Printf("handlers: update profile for user %d: %v", user.ID, err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	writeJSON(w, http.StatusOK, profile)
}
