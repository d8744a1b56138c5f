package models

import (
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"time"
)

// APIToken represents a bearer token granting API access for a user.
type APIToken struct {
	ID        int64
	UserID    int64
	Token     string
	Label     sql.NullString
	ExpiresAt sql.NullTime
	CreatedAt time.Time
}

// IsExpired returns true if the token has an expiry date that has passed.
func (t *APIToken) IsExpired() bool {
	return t.ExpiresAt.Valid && t.ExpiresAt.Time.Before(time.Now())
}

// generateToken creates a cryptographically secure random hex string.
func generateToken(nBytes int) (string, error) {
	b := make([]byte, nBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("models: generate token: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// CreateAPIToken generates a new bearer token for the given user.
// Label is optional (e.g. "mobile app"). ExpiresAt is optional — nil means
// no expiry.
func CreateAPIToken(db *sql.DB, userID int64, label string, expiresAt *time.Time) (*APIToken, error) {
	token, err := generateToken(32) // 256-bit token
	if err != nil {
		return nil, err
	}

	var labelVal sql.NullString
	if label != "" {
		labelVal = sql.NullString{String: label, Valid: true}
	}

	var expiresVal sql.NullTime
	if expiresAt != nil {
		expiresVal = sql.NullTime{Time: *expiresAt, Valid: true}
	}

	result, err := db.Exec(
		`INSERT INTO api_tokens (user_id, token, label, expires_at) VALUES (?, ?, ?, ?)`,
		userID, token, labelVal, expiresVal,
	)
	if err != nil {
		return nil, fmt.Errorf("models: create api token for user %d: %w", userID, err)
	}

	id, _ := result.LastInsertId()
	return &APIToken{
		ID:        id,
		UserID:    userID,
		Token:     token,
		Label:     labelVal,
		ExpiresAt: expiresVal,
		CreatedAt: time.Now(),
	}, nil
}

// ValidateAPIToken looks up a token and returns the associated user if the
// token is valid and not expired. Returns ErrNotFound if invalid or expired.
func ValidateAPIToken(db *sql.DB, token string) (*User, error) {
	t := &APIToken{}
	err := db.QueryRow(
		`SELECT id, user_id, token, label, expires_at, created_at
		 FROM api_tokens WHERE token = ?`, token,
	).Scan(&t.ID, &t.UserID, &t.Token, &t.Label, &t.ExpiresAt, &t.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("models: validate api token: %w", err)
	}

	if t.IsExpired() {
		return nil, ErrNotFound
	}

	user, err := GetUserByID(db, t.UserID)
	if err != nil {
		return nil, fmt.Errorf("models: validate api token get user: %w", err)
	}
	return user, nil
}

// ListAPITokensByUser returns all tokens belonging to a user, newest first.
func ListAPITokensByUser(db *sql.DB, userID int64) ([]*APIToken, error) {
	rows, err := db.Query(
		`SELECT id, user_id, token, label, expires_at, created_at
		 FROM api_tokens WHERE user_id = ? ORDER BY created_at DESC`, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("models: list api tokens for user %d: %w", userID, err)
	}
	defer rows.Close()

	var tokens []*APIToken
	for rows.Next() {
		t := &APIToken{}
		if err := rows.Scan(&t.ID, &t.UserID, &t.Token, &t.Label, &t.ExpiresAt, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("models: scan api token: %w", err)
		}
		tokens = append(tokens, t)
	}
	return tokens, rows.Err()
}

// DeleteAPIToken removes a token owned by the given user. Returns ErrNotFound
// if no such token exists for that user.
func DeleteAPIToken(db *sql.DB, id, userID int64) error {
	result, err := db.Exec(`DELETE FROM api_tokens WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("models: delete api token %d: %w", id, err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteExpiredAPITokens removes tokens past their expiry date. Returns the
// number of tokens deleted.
func DeleteExpiredAPITokens(db *sql.DB) (int64, error) {
	result, err := db.Exec(
		`DELETE FROM api_tokens WHERE expires_at IS NOT NULL AND expires_at < CURRENT_TIMESTAMP`,
	)
	if err != nil {
		return 0, fmt.Errorf("models: delete expired api tokens: %w", err)
	}
	n, _ := result.RowsAffected()
	return n, nil
}
