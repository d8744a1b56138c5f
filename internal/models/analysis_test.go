package models

import (
	"errors"
	"testing"
	"time"
)

func TestCreateAnalysis(t *testing.T) {
	db := testDB(t)
	user, _ := CreateUser(db, "maria", "password123", "", false)

	a, err := CreateAnalysis(db, user.ID, "squat", "https://example.com/v.mp4")
	if err != nil {
		t.Fatalf("create analysis: %v", err)
	}
	if a.ID == "" {
		t.Error("expected a generated id")
	}
	if a.Status != AnalysisPending {
		t.Errorf("status = %q, want pending", a.Status)
	}
	if a.OverallScore.Valid {
		t.Error("pending analysis must not have a score")
	}
	if !a.VideoURL.Valid || a.VideoURL.String != "https://example.com/v.mp4" {
		t.Errorf("video url = %+v", a.VideoURL)
	}
}

func TestGetAnalysis_ScopedToOwner(t *testing.T) {
	db := testDB(t)
	maria, _ := CreateUser(db, "maria", "password123", "", false)
	joao, _ := CreateUser(db, "joao", "password123", "", false)

	a, err := CreateAnalysis(db, maria.ID, "deadlift", "")
	if err != nil {
		t.Fatal(err)
	}

	if _, err := GetAnalysis(db, a.ID, joao.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for foreign read, got %v", err)
	}
}

func TestCompleteAnalysis(t *testing.T) {
	db := testDB(t)
	user, _ := CreateUser(db, "maria", "password123", "", false)

	a, err := CreateAnalysis(db, user.ID, "squat", "")
	if err != nil {
		t.Fatal(err)
	}

	feedback := `[{"type":"positive","message":"Boa execução"}]`
	err = CompleteAnalysis(db, a.ID, 85, RiskLow, feedback, `["Mantenha o ritmo"]`, `{"knee":95}`, "raw content")
	if err != nil {
		t.Fatalf("complete analysis: %v", err)
	}

	stored, err := GetAnalysis(db, a.ID, user.ID)
	if err != nil {
		t.Fatal(err)
	}
	if stored.Status != AnalysisComplete {
		t.Errorf("status = %q", stored.Status)
	}
	if !stored.OverallScore.Valid || stored.OverallScore.Int64 != 85 {
		t.Errorf("score = %+v", stored.OverallScore)
	}
	if stored.RiskLevel.String != RiskLow {
		t.Errorf("risk = %q", stored.RiskLevel.String)
	}
	if stored.Feedback.String != feedback {
		t.Errorf("feedback = %q", stored.Feedback.String)
	}
	if stored.AIAnalysis.String != "raw content" {
		t.Errorf("raw = %q", stored.AIAnalysis.String)
	}
}

func TestListAnalysesSince(t *testing.T) {
	db := testDB(t)
	user, _ := CreateUser(db, "maria", "password123", "", false)

	recent, err := CreateAnalysis(db, user.ID, "squat", "")
	if err != nil {
		t.Fatal(err)
	}
	old, err := CreateAnalysis(db, user.ID, "deadlift", "")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := db.Exec(`UPDATE exercise_analyses SET created_at = datetime('now', '-10 days') WHERE id = ?`, old.ID); err != nil {
		t.Fatal(err)
	}

	got, err := ListAnalysesSince(db, user.ID, time.Now().AddDate(0, 0, -7))
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 analysis inside window, got %d", len(got))
	}
	if got[0].ID != recent.ID {
		t.Errorf("got %s, want %s", got[0].ID, recent.ID)
	}
}

func TestFailStalePending(t *testing.T) {
	db := testDB(t)
	user, _ := CreateUser(db, "maria", "password123", "", false)

	stale, err := CreateAnalysis(db, user.ID, "squat", "")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := db.Exec(`UPDATE exercise_analyses SET created_at = datetime('now', '-2 days') WHERE id = ?`, stale.ID); err != nil {
		t.Fatal(err)
	}
	fresh, err := CreateAnalysis(db, user.ID, "deadlift", "")
	if err != nil {
		t.Fatal(err)
	}
	done, err := CreateAnalysis(db, user.ID, "lunge", "")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := db.Exec(`UPDATE exercise_analyses SET status = ?, created_at = datetime('now', '-2 days') WHERE id = ?`, AnalysisComplete, done.ID); err != nil {
		t.Fatal(err)
	}

	n, err := FailStalePending(db, time.Now().Add(-24*time.Hour))
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("failed = %d, want 1", n)
	}

	check := func(id, want string) {
		t.Helper()
		a, err := GetAnalysis(db, id, user.ID)
		if err != nil {
			t.Fatal(err)
		}
		if a.Status != want {
			t.Errorf("analysis %s status = %q, want %q", id, a.Status, want)
		}
	}
	check(stale.ID, AnalysisFailed)
	check(fresh.ID, AnalysisPending)
	check(done.ID, AnalysisComplete)
}
