package store

import (
	"context"
	"testing"
	"time"

	"github.com/PirrosBell/BidHub/internal/db"
)

func TestListTrainingItemIDsExcludesCancelled(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	seller := createTestUser(t, database, "seller")

	kept := createTestItem(t, database, seller.ID, "Kept", time.Now().Add(time.Hour))
	dropped := createTestItem(t, database, seller.ID, "Dropped", time.Now().Add(time.Hour))
	database.Exec(`UPDATE items SET status = 'cancelled' WHERE id = ?`, dropped.ID)

	ids, err := ListTrainingItemIDs(ctx, database)
	if err != nil {
		t.Fatalf("ListTrainingItemIDs: %v", err)
	}
	if len(ids) != 1 || ids[0] != kept.ID {
		t.Errorf("expected only the non-cancelled item, got %v", ids)
	}
}

func TestListInteractions(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	seller := createTestUser(t, database, "seller")
	alice := createTestUser(t, database, "alice")

	item := createTestItem(t, database, seller.ID, "Lamp", time.Now().Add(time.Hour))
	cancelled := createTestItem(t, database, seller.ID, "Gone", time.Now().Add(time.Hour))
	database.Exec(`UPDATE items SET status = 'cancelled' WHERE id = ?`, cancelled.ID)

	insertTestBid(t, database, item.ID, alice.ID, 11.0)
	insertTestBid(t, database, cancelled.ID, alice.ID, 5.0)
	RecordVisit(ctx, database, alice.ID, item.ID)
	RecordVisit(ctx, database, alice.ID, cancelled.ID)

	bids, err := ListBidInteractions(ctx, database)
	if err != nil {
		t.Fatalf("ListBidInteractions: %v", err)
	}
	if len(bids) != 1 || bids[0].UserID != alice.ID || bids[0].ItemID != item.ID {
		t.Errorf("expected one bid interaction on the live item, got %+v", bids)
	}

	visits, err := ListVisitInteractions(ctx, database)
	if err != nil {
		t.Fatalf("ListVisitInteractions: %v", err)
	}
	if len(visits) != 1 || visits[0].ItemID != item.ID {
		t.Errorf("expected one visit interaction on the live item, got %+v", visits)
	}
}

func TestSetRecIndexes(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	alice := createTestUser(t, database, "alice")
	seller := createTestUser(t, database, "seller")

	item := createTestItem(t, database, seller.ID, "Lamp", time.Now().Add(time.Hour))

	err := SetRecIndexes(ctx, database,
		map[int64]int64{alice.ID: 0},
		map[int64]int64{item.ID: 3},
	)
	if err != nil {
		t.Fatalf("SetRecIndexes: %v", err)
	}

	user, _ := GetUser(ctx, database, alice.ID)
	if user.RecIndex == nil || *user.RecIndex != 0 {
		t.Errorf("expected user rec index 0, got %v", user.RecIndex)
	}

	got, _ := GetItem(ctx, database, item.ID)
	if got.RecIndex == nil || *got.RecIndex != 3 {
		t.Errorf("expected item rec index 3, got %v", got.RecIndex)
	}
}
