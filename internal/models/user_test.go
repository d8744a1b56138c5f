package models

import (
	"errors"
	"testing"
)

func TestCreateUser(t *testing.T) {
	db := testDB(t)

	user, err := CreateUser(db, "maria", "password123", "maria@test.com", false)
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	if user.Username != "maria" {
		t.Errorf("username = %q", user.Username)
	}
	if !user.Email.Valid || user.Email.String != "maria@test.com" {
		t.Errorf("email = %+v", user.Email)
	}
	if user.IsAdmin {
		t.Error("expected non-admin")
	}
	if user.PasswordHash == "password123" {
		t.Error("password must not be stored in plaintext")
	}
}

func TestCreateUser_Duplicate(t *testing.T) {
	db := testDB(t)

	if _, err := CreateUser(db, "maria", "password123", "", false); err != nil {
		t.Fatal(err)
	}
	_, err := CreateUser(db, "maria", "otherpassword", "", false)
	if !errors.Is(err, ErrDuplicateUsername) {
		t.Errorf("expected ErrDuplicateUsername, got %v", err)
	}
}

func TestRegisterUser_FirstIsAdmin(t *testing.T) {
	db := testDB(t)

	first, err := RegisterUser(db, "maria", "password123", "maria@test.com")
	if err != nil {
		t.Fatalf("register first user: %v", err)
	}
	if !first.IsAdmin {
		t.Error("first registered account should be admin")
	}

	second, err := RegisterUser(db, "joao", "password123", "")
	if err != nil {
		t.Fatalf("register second user: %v", err)
	}
	if second.IsAdmin {
		t.Error("second registered account should not be admin")
	}

	_, err = RegisterUser(db, "maria", "otherpassword", "")
	if !errors.Is(err, ErrDuplicateUsername) {
		t.Errorf("expected ErrDuplicateUsername, got %v", err)
	}
}

func TestCheckPassword(t *testing.T) {
	db := testDB(t)

	user, err := CreateUser(db, "maria", "password123", "", false)
	if err != nil {
		t.Fatal(err)
	}
	if !CheckPassword(user.PasswordHash, "password123") {
		t.Error("expected correct password to verify")
	}
	if CheckPassword(user.PasswordHash, "wrongwrong") {
		t.Error("expected wrong password to fail")
	}
}

func TestGetUserByUsername_NotFound(t *testing.T) {
	db := testDB(t)

	_, err := GetUserByUsername(db, "ghost")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestCountUsers(t *testing.T) {
	db := testDB(t)

	count, err := CountUsers(db)
	if err != nil {
		t.Fatal(err)
	}
	if count != 0 {
		t.Errorf("count = %d, want 0", count)
	}

	if _, err := CreateUser(db, "maria", "password123", "", true); err != nil {
		t.Fatal(err)
	}
	count, err = CountUsers(db)
	if err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Errorf("count = %d, want 1", count)
	}
}
