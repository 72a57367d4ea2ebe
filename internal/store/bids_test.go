package store

import (
	"context"
	"testing"
	"time"

	"github.com/PirrosBell/BidHub/internal/db"
)

func TestGetBid(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	seller := createTestUser(t, database, "seller")
	bidder := createTestUser(t, database, "bidder")

	item := createTestItem(t, database, seller.ID, "Lamp", time.Now().Add(time.Hour))
	id := insertTestBid(t, database, item.ID, bidder.ID, 12.5)

	bid, err := GetBid(ctx, database, id)
	if err != nil {
		t.Fatalf("GetBid: %v", err)
	}
	if bid == nil || bid.Amount != 12.5 || bid.BidderID != bidder.ID {
		t.Errorf("expected bid of 12.5 by bidder, got %+v", bid)
	}

	missing, err := GetBid(ctx, database, 999)
	if err != nil {
		t.Fatalf("GetBid missing: %v", err)
	}
	if missing != nil {
		t.Errorf("expected nil for missing bid, got %+v", missing)
	}
}

func TestListBidsFilters(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	seller := createTestUser(t, database, "seller")
	alice := createTestUser(t, database, "alice")
	bob := createTestUser(t, database, "bob")

	lamp := createTestItem(t, database, seller.ID, "Lamp", time.Now().Add(time.Hour))
	desk := createTestItem(t, database, seller.ID, "Desk", time.Now().Add(time.Hour))

	insertTestBid(t, database, lamp.ID, alice.ID, 11.0)
	insertTestBid(t, database, lamp.ID, bob.ID, 12.0)
	insertTestBid(t, database, desk.ID, alice.ID, 20.0)

	forLamp, err := ListBids(ctx, database, lamp.ID, 0)
	if err != nil {
		t.Fatalf("ListBids: %v", err)
	}
	if len(forLamp) != 2 {
		t.Fatalf("expected 2 bids on the lamp, got %d", len(forLamp))
	}
	// Newest first.
	if forLamp[0].Amount != 12.0 {
		t.Errorf("expected newest bid first, got %v", forLamp[0].Amount)
	}
	if forLamp[0].BidderName != "bob" {
		t.Errorf("expected bidder name joined, got %q", forLamp[0].BidderName)
	}

	byAlice, _ := ListBids(ctx, database, 0, alice.ID)
	if len(byAlice) != 2 {
		t.Errorf("expected 2 bids by alice across items, got %d", len(byAlice))
	}

	aliceOnLamp, _ := ListBids(ctx, database, lamp.ID, alice.ID)
	if len(aliceOnLamp) != 1 || aliceOnLamp[0].Amount != 11.0 {
		t.Errorf("expected alice's lamp bid only, got %+v", aliceOnLamp)
	}
}
