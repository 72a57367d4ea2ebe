package store

import (
	"context"
	"testing"
	"time"

	"github.com/PirrosBell/BidHub/internal/db"
)

func TestRecordVisitDedupe(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	seller := createTestUser(t, database, "seller")
	viewer := createTestUser(t, database, "viewer")

	item := createTestItem(t, database, seller.ID, "Rug", time.Now().Add(time.Hour))

	recorded, err := RecordVisit(ctx, database, viewer.ID, item.ID)
	if err != nil {
		t.Fatalf("RecordVisit: %v", err)
	}
	if !recorded {
		t.Error("expected first visit to be recorded")
	}

	// Same user, same item, within the window: suppressed.
	recorded, err = RecordVisit(ctx, database, viewer.ID, item.ID)
	if err != nil {
		t.Fatalf("RecordVisit repeat: %v", err)
	}
	if recorded {
		t.Error("expected repeat visit within the window to be suppressed")
	}

	count, _ := CountVisits(ctx, database, item.ID)
	if count != 1 {
		t.Errorf("expected 1 visit, got %d", count)
	}
}

func TestRecordVisitAfterWindow(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	seller := createTestUser(t, database, "seller")
	viewer := createTestUser(t, database, "viewer")

	item := createTestItem(t, database, seller.ID, "Rug", time.Now().Add(time.Hour))

	// Backdate an old visit past the dedupe window.
	old := time.Now().UTC().Add(-VisitDedupeWindow - time.Minute)
	if _, err := database.Exec(
		`INSERT INTO visits (user_id, item_id, visited_at) VALUES (?, ?, ?)`,
		viewer.ID, item.ID, old,
	); err != nil {
		t.Fatalf("inserting old visit: %v", err)
	}

	recorded, err := RecordVisit(ctx, database, viewer.ID, item.ID)
	if err != nil {
		t.Fatalf("RecordVisit: %v", err)
	}
	if !recorded {
		t.Error("expected visit after the window to be recorded")
	}

	count, _ := CountVisits(ctx, database, item.ID)
	if count != 2 {
		t.Errorf("expected 2 visits, got %d", count)
	}
}

func TestRecordVisitDifferentUsers(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	seller := createTestUser(t, database, "seller")
	alice := createTestUser(t, database, "alice")
	bob := createTestUser(t, database, "bob")

	item := createTestItem(t, database, seller.ID, "Rug", time.Now().Add(time.Hour))

	RecordVisit(ctx, database, alice.ID, item.ID)
	recorded, err := RecordVisit(ctx, database, bob.ID, item.ID)
	if err != nil {
		t.Fatalf("RecordVisit: %v", err)
	}
	if !recorded {
		t.Error("expected visits by different users to be independent")
	}
}
