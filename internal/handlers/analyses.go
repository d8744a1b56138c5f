package handlers

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/formcoach/formcoach/internal/analyze"
	"github.com/formcoach/formcoach/internal/llm"
	"github.com/formcoach/formcoach/internal/middleware"
	"github.com/formcoach/formcoach/internal/models"
	"github.com/formcoach/formcoach/internal/notify"
	"github.com/go-chi/chi/v5"
)

// Analyses handles exercise analysis submission and scoring.
type Analyses struct {
	DB *sql.DB
}

// analysisResponse is the API shape of one analysis. The feedback,
// recommendations, and jointAngles columns already hold JSON, so they pass
// through as raw messages.
type analysisResponse struct {
	ID              string          `json:"id"`
	ExerciseType    string          `json:"exerciseType"`
	VideoURL        string          `json:"videoUrl,omitempty"`
	Status          string          `json:"status"`
	OverallScore    *int64          `json:"overallScore,omitempty"`
	RiskLevel       string          `json:"riskLevel,omitempty"`
	Feedback        json.RawMessage `json:"feedback,omitempty"`
	Recommendations json.RawMessage `json:"recommendations,omitempty"`
	JointAngles     json.RawMessage `json:"jointAngles,omitempty"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

func toAnalysisResponse(a *models.ExerciseAnalysis) analysisResponse {
	resp := analysisResponse{
		ID:           a.ID,
		ExerciseType: a.ExerciseType,
		VideoURL:     a.VideoURL.String,
		Status:       a.Status,
		RiskLevel:    a.RiskLevel.String,
		CreatedAt:    a.CreatedAt,
		UpdatedAt:    a.UpdatedAt,
	}
	if a.OverallScore.Valid {
		resp.OverallScore = &a.OverallScore.Int64
	}
	if a.Feedback.Valid {
		resp.Feedback = json.RawMessage(a.Feedback.String)
	}
	if a.Recommendations.Valid {
		resp.Recommendations = json.RawMessage(a.Recommendations.String)
	}
	if a.JointAngles.Valid {
		resp.JointAngles = json.RawMessage(a.JointAngles.String)
	}
	return resp
}

// Create registers a new pending analysis for a submitted exercise video.
// POST /api/v1/analyses
func (h *Analyses) Create(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())

	var in struct {
		ExerciseType string `json:"exerciseType"`
		VideoURL     string `json:"videoUrl"`
	}
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	in.ExerciseType = strings.TrimSpace(in.ExerciseType)
	if in.ExerciseType == "" {
		writeError(w, http.StatusBadRequest, "exerciseType is required")
		return
	}

	analysis, err := models.CreateAnalysis(h.DB, user.ID, in.ExerciseType, strings.TrimSpace(in.VideoURL))
	if err != nil {
		log.Printf("handlers: create analysis for user %d: %v", user.ID, err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	writeJSON(w, http.StatusCreated, toAnalysisResponse(analysis))
}

// List returns the caller's analyses, newest first. A ?days=N query
// restricts the window instead of the row limit.
// GET /api/v1/analyses?limit=N&days=N
func (h *Analyses) List(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())

	var analyses []*models.ExerciseAnalysis
	var err error
	if s := r.URL.Query().Get("days"); s != "" {
		days, convErr := strconv.Atoi(s)
		if convErr != nil || days < 1 || days > 365 {
			writeError(w, http.StatusBadRequest, "days must be between 1 and 365")
			return
		}
		analyses, err = models.ListAnalysesSince(h.DB, user.ID, time.Now().AddDate(0, 0, -days))
	} else {
		limit := 50
		if s := r.URL.Query().Get("limit"); s != "" {
			if n, convErr := strconv.Atoi(s); convErr == nil && n > 0 && n <= 200 {
				limit = n
			}
		}
		analyses, err = models.ListAnalyses(h.DB, user.ID, limit)
	}
	if err != nil {
		log.Printf("handlers: list analyses for user %d: %v", user.ID, err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	out := make([]analysisResponse, 0, len(analyses))
	for _, a := range analyses {
		out = append(out, toAnalysisResponse(a))
	}
	writeJSON(w, http.StatusOK, out)
}

// Get returns one analysis owned by the caller.
// GET /api/v1/analyses/{id}
func (h *Analyses) Get(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())

	analysis, err := models.GetAnalysis(h.DB, chi.URLParam(r, "id"), user.ID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Analysis not found")
			return
		}
		log.Printf("handlers: get analysis: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	writeJSON(w, http.StatusOK, toAnalysisResponse(analysis))
}

// Analyze runs the AI scoring pipeline on a pending analysis.
// POST /api/v1/analyses/{id}/analyze
func (h *Analyses) Analyze(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())

	analysis, err := models.GetAnalysis(h.DB, chi.URLParam(r, "id"), user.ID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Analysis not found")
			return
		}
		log.Printf("handlers: get analysis for scoring: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if analysis.Status != models.AnalysisPending {
		writeError(w, http.StatusConflict, "Analysis has already been processed")
		return
	}

	provider, err := llm.NewProviderFromSettings(h.DB)
	if err != nil {
		log.Printf("handlers: create AI provider: %v", err)
		writeError(w, http.StatusInternalServerError, "AI provider is not configured")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 120*time.Second)
	defer cancel()

	result, err := analyze.Run(ctx, h.DB, provider, analysis)
	if err != nil {
		h.writeUpstreamError(w, analysis.ID, err)
		return
	}

	notify.Send(h.DB, notify.Request{
		UserID:  user.ID,
		Type:    models.NotifyAnalysisComplete,
		Title:   fmt.Sprintf("Análise de %s concluída", analysis.ExerciseType),
		Message: fmt.Sprintf("Pontuação: %d%%", result.OverallScore),
		Link:    "/analyses/" + analysis.ID,
	})

	writeJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"analysis": result,
	})
}

// writeUpstreamError maps a provider failure onto the API error contract:
// rate limits and billing failures pass through, everything else is a 500.
func (h *Analyses) writeUpstreamError(w http.ResponseWriter, analysisID string, err error) {
	log.Printf("handlers: analyze %s: %v", analysisID, err)

	var apiErr *llm.APIError
	switch {
	case errors.As(err, &apiErr) && apiErr.IsRateLimited():
		writeError(w, http.StatusTooManyRequests, "Rate limits exceeded, please try again later.")
	case errors.As(err, &apiErr) && apiErr.IsPaymentRequired():
		writeError(w, http.StatusPaymentRequired, "Payment required, please add credits.")
	case errors.As(err, &apiErr):
		writeError(w, http.StatusInternalServerError, apiErr.UserMessage())
	case errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusInternalServerError, "Analysis timed out. Please try again.")
	default:
		writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}
