package plan

import (
	"database/sql"
	"fmt"
	"math"
	"time"

	"github.com/formcoach/formcoach/internal/models"
)

// WeeklyStats summarizes a user's exercise analyses over the trailing
// seven-day window. Only completed analyses contribute to score-derived
// fields; pending and failed rows count toward TotalExercises only.
type WeeklyStats struct {
	TotalExercises int  `json:"totalExercises"`
	AvgScore       int  `json:"avgScore"`
	ExcellentCount int  `json:"excellentCount"`
	HighRiskCount  int  `json:"highRiskCount"`
	NeedsRecovery  bool `json:"needsRecovery"`
	IsExcelling    bool `json:"isExcelling"`

	// completed analyses scoring 70 or above, kept for the fallback
	// milestone calculation only
	goodScoreCount int
}

// Aggregate computes WeeklyStats from the user's analyses created in the
// seven days before now.
func Aggregate(db *sql.DB, userID int64, now time.Time) (*WeeklyStats, error) {
	since := now.AddDate(0, 0, -7)
	analyses, err := models.ListAnalysesSince(db, userID, since)
	if err != nil {
		return nil, fmt.Errorf("plan: aggregate stats for user %d: %w", userID, err)
	}

	stats := &WeeklyStats{TotalExercises: len(analyses)}

	completed := 0
	scoreSum := 0
	for _, a := range analyses {
		if a.Status != models.AnalysisComplete {
			continue
		}
		completed++
		score := int(a.OverallScore.Int64)
		scoreSum += score
		if score >= 80 {
			stats.ExcellentCount++
		}
		if score >= 70 {
			stats.goodScoreCount++
		}
		if a.RiskLevel.String == models.RiskHigh {
			stats.HighRiskCount++
		}
	}

	if completed > 0 {
		stats.AvgScore = int(math.Round(float64(scoreSum) / float64(completed)))
	}

	// An empty window is neutral, not a recovery signal.
	stats.NeedsRecovery = stats.HighRiskCount >= 2 || (completed > 0 && stats.AvgScore < 60)
	stats.IsExcelling = stats.ExcellentCount >= 3 && stats.AvgScore >= 80

	return stats, nil
}

// MilestoneProgress returns the percentage of the "10 analyses scoring 70+"
// milestone the user has completed, capped at 100.
func (s *WeeklyStats) MilestoneProgress() float64 {
	return math.Min(float64(s.goodScoreCount)/10*100, 100)
}
