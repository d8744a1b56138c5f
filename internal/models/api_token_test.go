package models

import (
	"errors"
	"testing"
	"time"
)

func TestAPIToken_ValidateRoundTrip(t *testing.T) {
	db := testDB(t)
	user, err := CreateUser(db, "maria", "password123", "", false)
	if err != nil {
		t.Fatal(err)
	}

	expiry := time.Now().Add(24 * time.Hour)
	token, err := CreateAPIToken(db, user.ID, "cli", &expiry)
	if err != nil {
		t.Fatalf("create token: %v", err)
	}
	if len(token.Token) != 64 {
		t.Errorf("token length = %d, want 64 hex chars", len(token.Token))
	}

	got, err := ValidateAPIToken(db, token.Token)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if got.ID != user.ID {
		t.Errorf("user id = %d, want %d", got.ID, user.ID)
	}
}

func TestAPIToken_Expired(t *testing.T) {
	db := testDB(t)
	user, err := CreateUser(db, "maria", "password123", "", false)
	if err != nil {
		t.Fatal(err)
	}

	past := time.Now().Add(-time.Hour)
	token, err := CreateAPIToken(db, user.ID, "", &past)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := ValidateAPIToken(db, token.Token); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for expired token, got %v", err)
	}
}

func TestAPIToken_NoExpiry(t *testing.T) {
	db := testDB(t)
	user, err := CreateUser(db, "maria", "password123", "", false)
	if err != nil {
		t.Fatal(err)
	}

	token, err := CreateAPIToken(db, user.ID, "", nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := ValidateAPIToken(db, token.Token); err != nil {
		t.Errorf("validate token without expiry: %v", err)
	}
}

func TestAPIToken_DeleteScopedToOwner(t *testing.T) {
	db := testDB(t)
	maria, _ := CreateUser(db, "maria", "password123", "", false)
	joao, _ := CreateUser(db, "joao", "password123", "", false)

	token, err := CreateAPIToken(db, maria.ID, "", nil)
	if err != nil {
		t.Fatal(err)
	}

	if err := DeleteAPIToken(db, token.ID, joao.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for foreign delete, got %v", err)
	}
	if err := DeleteAPIToken(db, token.ID, maria.ID); err != nil {
		t.Errorf("owner delete: %v", err)
	}
}

func TestDeleteExpiredAPITokens(t *testing.T) {
	db := testDB(t)
	user, _ := CreateUser(db, "maria", "password123", "", false)

	past := time.Now().UTC().Add(-time.Hour)
	future := time.Now().UTC().Add(time.Hour)
	if _, err := CreateAPIToken(db, user.ID, "old", &past); err != nil {
		t.Fatal(err)
	}
	valid, err := CreateAPIToken(db, user.ID, "new", &future)
	if err != nil {
		t.Fatal(err)
	}

	n, err := DeleteExpiredAPITokens(db)
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("deleted = %d, want 1", n)
	}
	if _, err := ValidateAPIToken(db, valid.Token); err != nil {
		t.Errorf("valid token should survive cleanup: %v", err)
	}
}
