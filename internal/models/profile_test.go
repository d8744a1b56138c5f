package models

import "testing"

func TestGetProfile_MissingRowIsEmpty(t *testing.T) {
	db := testDB(t)
	user, _ := CreateUser(db, "maria", "password123", "", false)

	p, err := GetProfile(db, user.ID)
	if err != nil {
		t.Fatalf("get profile: %v", err)
	}
	if p.FullName != "" || p.Objective != "" || p.ExperienceLevel != "" {
		t.Errorf("expected empty profile, got %+v", p)
	}
}

func TestUpsertProfile(t *testing.T) {
	db := testDB(t)
	user, _ := CreateUser(db, "maria", "password123", "", false)

	if _, err := UpsertProfile(db, user.ID, "Maria Silva", "Hipertrofia", "Intermediário"); err != nil {
		t.Fatalf("insert: %v", err)
	}

	// Second write replaces the row.
	p, err := UpsertProfile(db, user.ID, "Maria Silva", "Força", "Avançado")
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if p.Objective != "Força" || p.ExperienceLevel != "Avançado" {
		t.Errorf("profile = %+v", p)
	}
}

func TestProfileDisplayName(t *testing.T) {
	p := &Profile{}
	if got := p.DisplayName(); got != "Atleta" {
		t.Errorf("empty display name = %q, want Atleta", got)
	}
	p.FullName = "Maria Silva"
	if got := p.DisplayName(); got != "Maria Silva" {
		t.Errorf("display name = %q", got)
	}
}
