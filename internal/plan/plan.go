// Package plan implements weekly plan generation: it aggregates the user's
// recent exercise analyses, derives gamification state, asks the configured
// AI provider for a personalized coaching plan, and assembles the combined
// result. A model response that cannot be parsed is absorbed into a canned
// plan; provider transport errors propagate to the caller untouched.
package plan

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	"github.com/formcoach/formcoach/internal/llm"
	"github.com/formcoach/formcoach/internal/models"
)

// weeklyPlanTemperature is fixed: the plan prompt wants variety week to week.
const weeklyPlanTemperature = 0.8

// Result is the complete weekly plan response body.
type Result struct {
	Success        bool            `json:"success"`
	Gamification   *Gamification   `json:"gamification"`
	WeeklyStats    *WeeklyStats    `json:"weeklyStats"`
	Recommendation *Recommendation `json:"recommendation"`
	UserName       string          `json:"userName"`
}

// Generate runs the full weekly plan pipeline for one user:
// aggregate stats, derive gamification, compose prompts, call the provider,
// normalize its response, and assemble the result.
func Generate(ctx context.Context, db *sql.DB, provider llm.Provider, userID int64) (*Result, error) {
	now := time.Now()

	stats, err := Aggregate(db, userID, now)
	if err != nil {
		return nil, err
	}
	gam := Gamify(stats)

	profile, err := models.GetProfile(db, userID)
	if err != nil {
		return nil, fmt.Errorf("plan: load profile: %w", err)
	}

	systemPrompt, userPrompt := ComposePrompt(profile, stats, gam)

	resp, err := provider.Generate(ctx, systemPrompt, userPrompt, llm.Options{
		Temperature: weeklyPlanTemperature,
	})
	if err != nil {
		return nil, err
	}

	rec, err := ParseRecommendation(resp.Content)
	if err != nil {
		log.Printf("plan: falling back to canned recommendation for user %d: %v", userID, err)
		rec = FallbackRecommendation(stats)
	}

	return &Result{
		Success:        true,
		Gamification:   gam,
		WeeklyStats:    stats,
		Recommendation: rec,
		UserName:       profile.DisplayName(),
	}, nil
}
