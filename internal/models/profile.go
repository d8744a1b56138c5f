package models

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Profile holds a user's training profile. One row per user; absent rows are
// treated as a profile with empty fields.
type Profile struct {
	UserID          int64     `json:"-"`
	FullName        string    `json:"fullName"`
	Objective       string    `json:"objective"`
	ExperienceLevel string    `json:"experienceLevel"`
	UpdatedAt       time.Time `json:"-"`
}

// DisplayName returns the profile's full name, or "Atleta" when unset.
func (p *Profile) DisplayName() string {
	if p.FullName != "" {
		return p.FullName
	}
	return "Atleta"
}

// GetProfile retrieves a user's profile. A user without a stored profile gets
// a zero-value Profile rather than an error.
func GetProfile(db *sql.DB, userID int64) (*Profile, error) {
	p := &Profile{UserID: userID}
	err := db.QueryRow(
		`SELECT full_name, objective, experience_level, updated_at
		 FROM profiles WHERE user_id = ?`, userID,
	).Scan(&p.FullName, &p.Objective, &p.ExperienceLevel, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return p, nil
	}
	if err != nil {
		return nil, fmt.Errorf("models: get profile for user %d: %w", userID, err)
	}
	return p, nil
}

// UpsertProfile creates or updates a user's profile.
func UpsertProfile(db *sql.DB, userID int64, fullName, objective, experienceLevel string) (*Profile, error) {
	_, err := db.Exec(
		`INSERT INTO profiles (user_id, full_name, objective, experience_level)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(user_id) DO UPDATE SET
		   full_name = excluded.full_name,
		   objective = excluded.objective,
		   experience_level = excluded.experience_level,
		   updated_at = CURRENT_TIMESTAMP`,
		userID, fullName, objective, experienceLevel,
	)
	if err != nil {
		return nil, fmt.Errorf("models: upsert profile for user %d: %w", userID, err)
	}
	return GetProfile(db, userID)
}
