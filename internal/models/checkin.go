package models

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ErrDuplicateCheckin is returned when a user already checked in today.
var ErrDuplicateCheckin = errors.New("duplicate checkin")

// DailyCheckin is one self-reported wellness entry. At most one per user per
// calendar day; streak_count is the consecutive-day run ending on this row.
type DailyCheckin struct {
	ID             int64
	UserID         int64
	CheckinDate    string // YYYY-MM-DD
	Mood           string
	EnergyLevel    int
	SleepQuality   sql.NullInt64
	MuscleSoreness sql.NullInt64
	GoalsForToday  sql.NullString
	Notes          sql.NullString
	WeightKg       sql.NullFloat64
	StreakCount    int
	XPEarned       int
	SharedToSocial bool
	CreatedAt      time.Time
}

// CheckinInput carries the user-provided fields for a new check-in.
// Zero values for the optional fields mean "not provided".
type CheckinInput struct {
	Mood           string
	EnergyLevel    int
	SleepQuality   int
	MuscleSoreness int
	GoalsForToday  string
	Notes          string
	WeightKg       float64
}

// XP computes the experience award for a check-in: a 50 XP base plus bonuses
// for the optional fields.
func (in *CheckinInput) XP() int {
	xp := 50
	if in.SleepQuality > 0 {
		xp += 10
	}
	if in.GoalsForToday != "" {
		xp += 20
	}
	if in.WeightKg > 0 {
		xp += 10
	}
	return xp
}

const checkinColumns = `id, user_id, checkin_date, mood, energy_level, sleep_quality,
	muscle_soreness, goals_for_today, notes, weight_kg, streak_count, xp_earned,
	shared_to_social, created_at`

func scanCheckin(row interface{ Scan(...any) error }) (*DailyCheckin, error) {
	c := &DailyCheckin{}
	err := row.Scan(&c.ID, &c.UserID, &c.CheckinDate, &c.Mood, &c.EnergyLevel,
		&c.SleepQuality, &c.MuscleSoreness, &c.GoalsForToday, &c.Notes,
		&c.WeightKg, &c.StreakCount, &c.XPEarned, &c.SharedToSocial, &c.CreatedAt)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// CreateCheckin inserts today's check-in for a user, computing the streak
// from the most recent prior check-in: a gap of exactly one day extends the
// streak, anything longer resets it to 1. Returns ErrDuplicateCheckin when a
// row for today already exists.
func CreateCheckin(db *sql.DB, userID int64, in CheckinInput, now time.Time) (*DailyCheckin, error) {
	today := now.Format("2006-01-02")

	streak := 1
	var lastDate string
	var lastStreak int
	err := db.QueryRow(
		`SELECT checkin_date, streak_count FROM daily_checkins
		 WHERE user_id = ? ORDER BY checkin_date DESC LIMIT 1`, userID,
	).Scan(&lastDate, &lastStreak)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("models: last checkin for user %d: %w", userID, err)
	}
	if err == nil {
		switch daysBetween(lastDate, today) {
		case 0:
			return nil, ErrDuplicateCheckin
		case 1:
			streak = lastStreak + 1
		}
	}

	result, err := db.Exec(
		`INSERT INTO daily_checkins (user_id, checkin_date, mood, energy_level,
		   sleep_quality, muscle_soreness, goals_for_today, notes, weight_kg,
		   streak_count, xp_earned)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		userID, today, in.Mood, in.EnergyLevel,
		nullInt(in.SleepQuality), nullInt(in.MuscleSoreness),
		nullString(in.GoalsForToday), nullString(in.Notes), nullFloat(in.WeightKg),
		streak, in.XP(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateCheckin
		}
		return nil, fmt.Errorf("models: create checkin for user %d: %w", userID, err)
	}

	id, _ := result.LastInsertId()
	return getCheckinByID(db, id)
}

// GetTodayCheckin returns the user's check-in for the given day, or
// ErrNotFound when none exists.
func GetTodayCheckin(db *sql.DB, userID int64, now time.Time) (*DailyCheckin, error) {
	row := db.QueryRow(
		`SELECT `+checkinColumns+` FROM daily_checkins
		 WHERE user_id = ? AND checkin_date = ?`,
		userID, now.Format("2006-01-02"),
	)
	c, err := scanCheckin(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("models: today checkin for user %d: %w", userID, err)
	}
	return c, nil
}

// ListCheckins returns a user's check-ins newest first, up to limit rows
// (0 means no limit).
func ListCheckins(db *sql.DB, userID int64, limit int) ([]*DailyCheckin, error) {
	q := `SELECT ` + checkinColumns + ` FROM daily_checkins
	      WHERE user_id = ? ORDER BY checkin_date DESC`
	args := []any{userID}
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := db.Query(q, args...)
	if err != nil {
		return nil, fmt.Errorf("models: list checkins for user %d: %w", userID, err)
	}
	defer rows.Close()

	var checkins []*DailyCheckin
	for rows.Next() {
		c, err := scanCheckin(rows)
		if err != nil {
			return nil, fmt.Errorf("models: scan checkin: %w", err)
		}
		checkins = append(checkins, c)
	}
	return checkins, rows.Err()
}

// MarkCheckinShared flags a check-in as shared to social, scoped to its owner.
func MarkCheckinShared(db *sql.DB, id, userID int64) error {
	result, err := db.Exec(
		`UPDATE daily_checkins SET shared_to_social = 1 WHERE id = ? AND user_id = ?`,
		id, userID,
	)
	if err != nil {
		return fmt.Errorf("models: mark checkin %d shared: %w", id, err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func getCheckinByID(db *sql.DB, id int64) (*DailyCheckin, error) {
	row := db.QueryRow(`SELECT `+checkinColumns+` FROM daily_checkins WHERE id = ?`, id)
	c, err := scanCheckin(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("models: get checkin %d: %w", id, err)
	}
	return c, nil
}

// daysBetween returns whole days from one YYYY-MM-DD date to another.
func daysBetween(from, to string) int {
	a, err1 := time.Parse("2006-01-02", from)
	b, err2 := time.Parse("2006-01-02", to)
	if err1 != nil || err2 != nil {
		return -1
	}
	return int(b.Sub(a).Hours() / 24)
}

func nullInt(v int) sql.NullInt64 {
	if v == 0 {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(v), Valid: true}
}

func nullString(v string) sql.NullString {
	if v == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: v, Valid: true}
}

func nullFloat(v float64) sql.NullFloat64 {
	if v == 0 {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: v, Valid: true}
}
