package models

import (
	"errors"
	"testing"
	"time"
)

func TestNotificationLifecycle(t *testing.T) {
	db := testDB(t)
	maria, _ := CreateUser(db, "maria", "password123", "", false)
	joao, _ := CreateUser(db, "joao", "password123", "", false)

	n, err := CreateNotification(db, maria.ID, NotifyAnalysisComplete, "Análise concluída", "Pontuação: 85%", "/analyses/x")
	if err != nil {
		t.Fatalf("create notification: %v", err)
	}
	if n.Read {
		t.Error("new notification must be unread")
	}

	count, err := GetUnreadCount(db, maria.ID)
	if err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Errorf("unread = %d, want 1", count)
	}

	if err := MarkAsRead(db, n.ID, joao.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for foreign mark, got %v", err)
	}
	if err := MarkAsRead(db, n.ID, maria.ID); err != nil {
		t.Fatal(err)
	}

	count, err = GetUnreadCount(db, maria.ID)
	if err != nil {
		t.Fatal(err)
	}
	if count != 0 {
		t.Errorf("unread after mark = %d, want 0", count)
	}
}

func TestListNotifications_Pagination(t *testing.T) {
	db := testDB(t)
	user, _ := CreateUser(db, "maria", "password123", "", false)

	for i := 0; i < 5; i++ {
		if _, err := CreateNotification(db, user.ID, NotifyPlanGenerated, "Plano pronto", "", ""); err != nil {
			t.Fatal(err)
		}
	}

	page, err := ListNotifications(db, user.ID, 2, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(page) != 2 {
		t.Errorf("page size = %d, want 2", len(page))
	}

	rest, err := ListNotifications(db, user.ID, 10, 4)
	if err != nil {
		t.Fatal(err)
	}
	if len(rest) != 1 {
		t.Errorf("offset page size = %d, want 1", len(rest))
	}
}

func TestDeleteOldNotifications(t *testing.T) {
	db := testDB(t)
	user, _ := CreateUser(db, "maria", "password123", "", false)

	old, err := CreateNotification(db, user.ID, NotifyPlanGenerated, "Antiga", "", "")
	if err != nil {
		t.Fatal(err)
	}
	unreadOld, err := CreateNotification(db, user.ID, NotifyPlanGenerated, "Antiga não lida", "", "")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := CreateNotification(db, user.ID, NotifyPlanGenerated, "Recente", "", ""); err != nil {
		t.Fatal(err)
	}

	if err := MarkAsRead(db, old.ID, user.ID); err != nil {
		t.Fatal(err)
	}
	for _, id := range []int64{old.ID, unreadOld.ID} {
		if _, err := db.Exec(`UPDATE notifications SET created_at = datetime('now', '-100 days') WHERE id = ?`, id); err != nil {
			t.Fatal(err)
		}
	}

	n, err := DeleteOldNotifications(db, time.Now().AddDate(0, 0, -90))
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("deleted = %d, want 1 (only old read rows)", n)
	}

	remaining, err := ListNotifications(db, user.ID, 10, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(remaining) != 2 {
		t.Errorf("remaining = %d, want 2", len(remaining))
	}
}
