package handlers

import (
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/formcoach/formcoach/internal/middleware"
	"github.com/formcoach/formcoach/internal/models"
	"github.com/formcoach/formcoach/internal/notify"
	"github.com/go-chi/chi/v5"
)

// Checkins handles daily wellness check-ins.
type Checkins struct {
	DB *sql.DB
}

type checkinResponse struct {
	ID             int64     `json:"id"`
	CheckinDate    string    `json:"checkinDate"`
	Mood           string    `json:"mood"`
	EnergyLevel    int       `json:"energyLevel"`
	SleepQuality   *int64    `json:"sleepQuality,omitempty"`
	MuscleSoreness *int64    `json:"muscleSoreness,omitempty"`
	GoalsForToday  string    `json:"goalsForToday,omitempty"`
	Notes          string    `json:"notes,omitempty"`
	WeightKg       *float64  `json:"weightKg,omitempty"`
	StreakCount    int       `json:"streakCount"`
	XPEarned       int       `json:"xpEarned"`
	SharedToSocial bool      `json:"sharedToSocial"`
	CreatedAt      time.Time `json:"createdAt"`
}

func toCheckinResponse(c *models.DailyCheckin) checkinResponse {
	resp := checkinResponse{
		ID:             c.ID,
		CheckinDate:    c.CheckinDate,
		Mood:           c.Mood,
		EnergyLevel:    c.EnergyLevel,
		GoalsForToday:  c.GoalsForToday.String,
		Notes:          c.Notes.String,
		StreakCount:    c.StreakCount,
		XPEarned:       c.XPEarned,
		SharedToSocial: c.SharedToSocial,
		CreatedAt:      c.CreatedAt,
	}
	if c.SleepQuality.Valid {
		resp.SleepQuality = &c.SleepQuality.Int64
	}
	if c.MuscleSoreness.Valid {
		resp.MuscleSoreness = &c.MuscleSoreness.Int64
	}
	if c.WeightKg.Valid {
		resp.WeightKg = &c.WeightKg.Float64
	}
	return resp
}

// Create records today's check-in.
// POST /api/v1/checkins
func (h *Checkins) Create(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())

	var in struct {
		Mood           string  `json:"mood"`
		EnergyLevel    int     `json:"energyLevel"`
		SleepQuality   int     `json:"sleepQuality"`
		MuscleSoreness int     `json:"muscleSoreness"`
		GoalsForToday  string  `json:"goalsForToday"`
		Notes          string  `json:"notes"`
		WeightKg       float64 `json:"weightKg"`
	}
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	in.Mood = strings.TrimSpace(in.Mood)
	if in.Mood == "" {
		writeError(w, http.StatusBadRequest, "mood is required")
		return
	}
	if in.EnergyLevel < 1 || in.EnergyLevel > 5 {
		writeError(w, http.StatusBadRequest, "energyLevel must be between 1 and 5")
		return
	}

	checkin, err := models.CreateCheckin(h.DB, user.ID, models.CheckinInput{
		Mood:           in.Mood,
		EnergyLevel:    in.EnergyLevel,
		SleepQuality:   in.SleepQuality,
		MuscleSoreness: in.MuscleSoreness,
		GoalsForToday:  strings.TrimSpace(in.GoalsForToday),
		Notes:          strings.TrimSpace(in.Notes),
		WeightKg:       in.WeightKg,
	}, time.Now())
	if err != nil {
		if errors.Is(err, models.ErrDuplicateCheckin) {
			writeError(w, http.StatusConflict, "Already checked in today")
			return
		}
		log.Printf("handlers: create checkin for user %d: %v", user.ID, err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	// Weekly streak milestones get a celebratory notification.
	if checkin.StreakCount > 0 && checkin.StreakCount%7 == 0 {
		notify.Send(h.DB, notify.Request{
			UserID:  user.ID,
			Type:    models.NotifyStreakMilestone,
			Title:   fmt.Sprintf("%d dias de streak! 🔥", checkin.StreakCount),
			Message: "Sua consistência está pagando. Continue assim!",
		})
	}

	writeJSON(w, http.StatusCreated, toCheckinResponse(checkin))
}

// Today returns the caller's check-in for the current day, if any.
// GET /api/v1/checkins/today
func (h *Checkins) Today(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())

	checkin, err := models.GetTodayCheckin(h.DB, user.ID, time.Now())
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			writeError(w, http.StatusNotFound, "No check-in today")
			return
		}
		log.Printf("handlers: today checkin for user %d: %v", user.ID, err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	writeJSON(w, http.StatusOK, toCheckinResponse(checkin))
}

// List returns the caller's check-in history, newest first.
// GET /api/v1/checkins?limit=N
func (h *Checkins) List(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())

	limit := 30
	if s := r.URL.Query().Get("limit"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 && n <= 200 {
			limit = n
		}
	}

	checkins, err := models.ListCheckins(h.DB, user.ID, limit)
	if err != nil {
		log.Printf("handlers: list checkins for user %d: %v", user.ID, err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	out := make([]checkinResponse, 0, len(checkins))
	for _, c := range checkins {
		out = append(out, toCheckinResponse(c))
	}
	writeJSON(w, http.StatusOK, out)
}

// Share marks a check-in as shared to social channels.
// POST /api/v1/checkins/{id}/share
func (h *Checkins) Share(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid check-in id")
		return
	}

	if err := models.MarkCheckinShared(h.DB, id, user.ID); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Check-in not found")
			return
		}
		log.Printf("handlers: share checkin %d for user %d: %v", id, user.ID, err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"shared": true})
}
