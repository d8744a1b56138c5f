package handlers

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/formcoach/formcoach/internal/llm"
	"github.com/formcoach/formcoach/internal/middleware"
	"github.com/formcoach/formcoach/internal/models"
	"github.com/formcoach/formcoach/internal/notify"
	"github.com/formcoach/formcoach/internal/plan"
)

// WeeklyPlan handles weekly plan generation.
type WeeklyPlan struct {
	DB *sql.DB
}

// Generate runs the weekly plan pipeline for the caller. The response is
// always 200 when the pipeline completes, including the fallback path;
// error statuses are reserved for auth and upstream transport failures.
// POST /api/v1/weekly-plan
func (h *WeeklyPlan) Generate(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())

	provider, err := llm.NewProviderFromSettings(h.DB)
	if err != nil {
		log.Printf("handlers: create AI provider: %v", err)
		writeError(w, http.StatusInternalServerError, "AI provider is not configured")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 120*time.Second)
	defer cancel()

	result, err := plan.Generate(ctx, h.DB, provider, user.ID)
	if err != nil {
		log.Printf("handlers: weekly plan for user %d: %v", user.ID, err)

		var apiErr *llm.APIError
		switch {
		case errors.As(err, &apiErr) && apiErr.IsRateLimited():
			writeError(w, http.StatusTooManyRequests, "Rate limit exceeded. Please try again later.")
		case errors.As(err, &apiErr) && apiErr.IsPaymentRequired():
			writeError(w, http.StatusPaymentRequired, "Payment required. Please add credits.")
		case errors.As(err, &apiErr):
			writeError(w, http.StatusInternalServerError, apiErr.UserMessage())
		case errors.Is(err, context.DeadlineExceeded):
			writeError(w, http.StatusInternalServerError, "Plan generation timed out. Please try again.")
		default:
			writeError(w, http.StatusInternalServerError, "Internal server error")
		}
		return
	}

	notify.Send(h.DB, notify.Request{
		UserID: user.ID,
		Type:   models.NotifyPlanGenerated,
		Title:  "Seu plano semanal está pronto",
		Link:   "/weekly-plan",
	})

	writeJSON(w, http.StatusOK, result)
}
