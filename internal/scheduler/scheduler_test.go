package scheduler

import (
	"database/sql"
	"testing"
	"time"

	"github.com/formcoach/formcoach/internal/database"
	"github.com/formcoach/formcoach/internal/models"
)

// testDB creates a fresh in-memory SQLite database with migrations applied.
func testDB(t testing.TB) *sql.DB {
	t.Helper()

	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := database.RunMigrations(db); err != nil {
		db.Close()
		t.Fatalf("run migrations: %v", err)
	}

	t.Cleanup(func() { db.Close() })
	return db
}

func TestSchedulerStartStop(t *testing.T) {
	db := testDB(t)
	s := New(db)
	s.Start()
	// Stop should return without blocking.
	s.Stop()
}

func TestMaintenanceCleanup(t *testing.T) {
	db := testDB(t)

	user, err := models.CreateUser(db, "testuser", "password123", "", false)
	if err != nil {
		t.Fatalf("create user: %v", err)
	}

	// Create expired and valid API tokens.
	past := time.Now().Add(-1 * time.Hour)
	models.CreateAPIToken(db, user.ID, "expired", &past)
	future := time.Now().Add(24 * time.Hour)
	models.CreateAPIToken(db, user.ID, "valid", &future)

	// Create old read notification and backdate it past the retention cutoff.
	models.CreateNotification(db, user.ID, models.NotifyPlanGenerated, "Old notification", "", "/test")
	notifications, _ := models.ListNotifications(db, user.ID, 10, 0)
	if len(notifications) > 0 {
		models.MarkAsRead(db, notifications[0].ID, user.ID)
		db.Exec(`UPDATE notifications SET created_at = datetime('now', '-100 days') WHERE id = ?`, notifications[0].ID)
	}

	// Create recent unread notification.
	models.CreateNotification(db, user.ID, models.NotifyPlanGenerated, "Recent notification", "", "/test2")

	// Create a stale pending analysis and a fresh one.
	stale, _ := models.CreateAnalysis(db, user.ID, "agachamento", "")
	db.Exec(`UPDATE exercise_analyses SET created_at = datetime('now', '-2 days') WHERE id = ?`, stale.ID)
	fresh, _ := models.CreateAnalysis(db, user.ID, "levantamento terra", "")

	// Run maintenance directly.
	s := &Scheduler{db: db}
	s.runMaintenance()

	// Expired token should be gone, valid token should remain.
	tokens, _ := models.ListAPITokensByUser(db, user.ID)
	if len(tokens) != 1 {
		t.Errorf("tokens remaining = %d, want 1", len(tokens))
	}

	// Old read notification should be pruned, recent one should remain.
	remaining, _ := models.ListNotifications(db, user.ID, 10, 0)
	if len(remaining) != 1 {
		t.Errorf("notifications remaining = %d, want 1", len(remaining))
	}

	// Stale pending analysis should be failed, fresh one untouched.
	staleRow, _ := models.GetAnalysis(db, stale.ID, user.ID)
	if staleRow.Status != models.AnalysisFailed {
		t.Errorf("stale analysis status = %q, want failed", staleRow.Status)
	}
	freshRow, _ := models.GetAnalysis(db, fresh.ID, user.ID)
	if freshRow.Status != models.AnalysisPending {
		t.Errorf("fresh analysis status = %q, want pending", freshRow.Status)
	}
}

func TestStatusAfterRun(t *testing.T) {
	db := testDB(t)
	s := &Scheduler{db: db}
	s.runMaintenance()

	status := s.Status()
	if status.LastRun.IsZero() {
		t.Error("LastRun should be set after a maintenance pass")
	}
	if !status.NextRun.After(status.LastRun) {
		t.Error("NextRun should be after LastRun")
	}
	if status.IntervalHours <= 0 {
		t.Errorf("IntervalHours = %d, want > 0", status.IntervalHours)
	}
}
