package models

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Analysis status values.
const (
	AnalysisPending  = "pending"
	AnalysisComplete = "complete"
	AnalysisFailed   = "failed"
)

// Risk level values.
const (
	RiskLow    = "low"
	RiskMedium = "medium"
	RiskHigh   = "high"
)

// ExerciseAnalysis represents one submitted exercise video and its AI scoring
// result. Score and risk fields are populated only once status is "complete".
// The feedback, recommendations, and joint_angles columns hold JSON produced
// by the analysis pipeline and are passed through to API clients verbatim.
type ExerciseAnalysis struct {
	ID              string
	UserID          int64
	ExerciseType    string
	VideoURL        sql.NullString
	Status          string
	OverallScore    sql.NullInt64
	RiskLevel       sql.NullString
	Feedback        sql.NullString
	Recommendations sql.NullString
	JointAngles     sql.NullString
	AIAnalysis      sql.NullString
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

const analysisColumns = `id, user_id, exercise_type, video_url, status, overall_score,
	risk_level, feedback, recommendations, joint_angles, ai_analysis, created_at, updated_at`

func scanAnalysis(row interface{ Scan(...any) error }) (*ExerciseAnalysis, error) {
	a := &ExerciseAnalysis{}
	err := row.Scan(&a.ID, &a.UserID, &a.ExerciseType, &a.VideoURL, &a.Status,
		&a.OverallScore, &a.RiskLevel, &a.Feedback, &a.Recommendations,
		&a.JointAngles, &a.AIAnalysis, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return a, nil
}

// CreateAnalysis inserts a new pending analysis record and returns it.
func CreateAnalysis(db *sql.DB, userID int64, exerciseType, videoURL string) (*ExerciseAnalysis, error) {
	id := uuid.NewString()

	var urlVal sql.NullString
	if videoURL != "" {
		urlVal = sql.NullString{String: videoURL, Valid: true}
	}

	_, err := db.Exec(
		`INSERT INTO exercise_analyses (id, user_id, exercise_type, video_url, status)
		 VALUES (?, ?, ?, ?, ?)`,
		id, userID, exerciseType, urlVal, AnalysisPending,
	)
	if err != nil {
		return nil, fmt.Errorf("models: create analysis for user %d: %w", userID, err)
	}
	return GetAnalysis(db, id, userID)
}

// GetAnalysis retrieves an analysis by id, scoped to its owner. Returns
// ErrNotFound when the row does not exist or belongs to another user.
func GetAnalysis(db *sql.DB, id string, userID int64) (*ExerciseAnalysis, error) {
	row := db.QueryRow(
		`SELECT `+analysisColumns+` FROM exercise_analyses WHERE id = ? AND user_id = ?`,
		id, userID,
	)
	a, err := scanAnalysis(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("models: get analysis %s: %w", id, err)
	}
	return a, nil
}

// ListAnalysesSince returns all analyses for a user created at or after the
// given time, newest first. This is the weekly-plan window query.
func ListAnalysesSince(db *sql.DB, userID int64, since time.Time) ([]*ExerciseAnalysis, error) {
	rows, err := db.Query(
		`SELECT `+analysisColumns+` FROM exercise_analyses
		 WHERE user_id = ? AND created_at >= ?
		 ORDER BY created_at DESC`,
		userID, sqliteTime(since),
	)
	if err != nil {
		return nil, fmt.Errorf("models: list analyses since for user %d: %w", userID, err)
	}
	defer rows.Close()
	return collectAnalyses(rows)
}

// ListAnalyses returns a user's analyses newest first, up to limit rows
// (0 means no limit).
func ListAnalyses(db *sql.DB, userID int64, limit int) ([]*ExerciseAnalysis, error) {
	q := `SELECT ` + analysisColumns + ` FROM exercise_analyses
	      WHERE user_id = ? ORDER BY created_at DESC`
	args := []any{userID}
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := db.Query(q, args...)
	if err != nil {
		return nil, fmt.Errorf("models: list analyses for user %d: %w", userID, err)
	}
	defer rows.Close()
	return collectAnalyses(rows)
}

func collectAnalyses(rows *sql.Rows) ([]*ExerciseAnalysis, error) {
	var analyses []*ExerciseAnalysis
	for rows.Next() {
		a, err := scanAnalysis(rows)
		if err != nil {
			return nil, fmt.Errorf("models: scan analysis: %w", err)
		}
		analyses = append(analyses, a)
	}
	return analyses, rows.Err()
}

// CompleteAnalysis writes the scoring result onto a pending analysis and
// marks it complete. The feedback, recommendations, and jointAngles arguments
// are JSON-encoded strings; raw is the unprocessed model output.
func CompleteAnalysis(db *sql.DB, id string, score int, riskLevel, feedback, recommendations, jointAngles, raw string) error {
	result, err := db.Exec(
		`UPDATE exercise_analyses
		 SET status = ?, overall_score = ?, risk_level = ?, feedback = ?,
		     recommendations = ?, joint_angles = ?, ai_analysis = ?,
		     updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`,
		AnalysisComplete, score, riskLevel, feedback, recommendations, jointAngles, raw, id,
	)
	if err != nil {
		return fmt.Errorf("models: complete analysis %s: %w", id, err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// FailStalePending marks pending analyses created before the cutoff as
// failed. Returns the number of rows updated. Run by the maintenance
// scheduler so abandoned submissions don't stay pending forever.
func FailStalePending(db *sql.DB, cutoff time.Time) (int64, error) {
	result, err := db.Exec(
		`UPDATE exercise_analyses SET status = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE status = ? AND created_at < ?`,
		AnalysisFailed, AnalysisPending, sqliteTime(cutoff),
	)
	if err != nil {
		return 0, fmt.Errorf("models: fail stale pending analyses: %w", err)
	}
	n, _ := result.RowsAffected()
	return n, nil
}
