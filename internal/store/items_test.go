package store

import (
	"context"
	"testing"
	"time"

	"github.com/PirrosBell/BidHub/internal/db"
	"github.com/PirrosBell/BidHub/internal/model"
)

func TestCreateAndGetItem(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	seller := createTestUser(t, database, "seller")

	buyPrice := 50.0
	ends := time.Now().Add(24 * time.Hour)
	item, err := CreateItem(ctx, database, seller.ID, "Vintage Clock", "Brass, working", 10.0, &buyPrice, nil, ends)
	if err != nil {
		t.Fatalf("CreateItem: %v", err)
	}

	if item.Status != model.ItemStatusPending {
		t.Errorf("expected status 'pending', got %q", item.Status)
	}
	if item.CurrentBid != item.FirstBid {
		t.Errorf("expected current bid %v to equal first bid %v", item.CurrentBid, item.FirstBid)
	}
	if item.BuyPrice == nil || *item.BuyPrice != 50.0 {
		t.Errorf("expected buy price 50.0, got %v", item.BuyPrice)
	}
	if item.BidCount != 0 {
		t.Errorf("expected 0 bids, got %d", item.BidCount)
	}

	got, err := GetItem(ctx, database, item.ID)
	if err != nil {
		t.Fatalf("GetItem: %v", err)
	}
	if got == nil || got.Name != "Vintage Clock" {
		t.Errorf("expected to fetch 'Vintage Clock', got %+v", got)
	}
}

func TestGetItemMissing(t *testing.T) {
	database := db.NewTestDB(t)

	item, err := GetItem(context.Background(), database, 999)
	if err != nil {
		t.Fatalf("GetItem: %v", err)
	}
	if item != nil {
		t.Errorf("expected nil for missing item, got %+v", item)
	}
}

func TestListItemsFilters(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	alice := createTestUser(t, database, "alice")
	bob := createTestUser(t, database, "bob")

	soon := time.Now().Add(1 * time.Hour)
	later := time.Now().Add(48 * time.Hour)

	cheap := createTestItem(t, database, alice.ID, "Cheap", soon)
	expensive, _ := CreateItem(ctx, database, bob.ID, "Expensive", "", 100.0, nil, nil, later)
	activateItem(t, database, cheap.ID)
	activateItem(t, database, expensive.ID)

	active, err := ListItems(ctx, database, ItemFilter{Status: model.ItemStatusActive})
	if err != nil {
		t.Fatalf("ListItems: %v", err)
	}
	if len(active) != 2 {
		t.Fatalf("expected 2 active items, got %d", len(active))
	}
	// Soonest-ending first.
	if active[0].ID != cheap.ID {
		t.Errorf("expected soonest-ending item first, got %q", active[0].Name)
	}

	mine, _ := ListItems(ctx, database, ItemFilter{SellerID: bob.ID})
	if len(mine) != 1 || mine[0].ID != expensive.ID {
		t.Errorf("expected only bob's item, got %+v", mine)
	}

	pricey, _ := ListItems(ctx, database, ItemFilter{MinCurrent: 50.0})
	if len(pricey) != 1 || pricey[0].ID != expensive.ID {
		t.Errorf("expected only the expensive item, got %+v", pricey)
	}

	window, _ := ListItems(ctx, database, ItemFilter{EndsAfter: time.Now(), EndsBefore: time.Now().Add(2 * time.Hour)})
	if len(window) != 1 || window[0].ID != cheap.ID {
		t.Errorf("expected only the soon-ending item in window, got %+v", window)
	}
}

func TestListItemsDueForClose(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	seller := createTestUser(t, database, "seller")

	past := createTestItem(t, database, seller.ID, "Ended", time.Now().Add(-time.Hour))
	future := createTestItem(t, database, seller.ID, "Running", time.Now().Add(time.Hour))
	activateItem(t, database, past.ID)
	activateItem(t, database, future.ID)

	due, err := ListItemsDueForClose(ctx, database, time.Now())
	if err != nil {
		t.Fatalf("ListItemsDueForClose: %v", err)
	}
	if len(due) != 1 || due[0].ID != past.ID {
		t.Errorf("expected only the ended item, got %+v", due)
	}
}

func TestListItemsDueForPublish(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	seller := createTestUser(t, database, "seller")

	starts := time.Now().Add(-time.Minute)
	ends := time.Now().Add(time.Hour)
	scheduled, err := CreateItem(ctx, database, seller.ID, "Scheduled", "", 10.0, nil, &starts, ends)
	if err != nil {
		t.Fatalf("CreateItem: %v", err)
	}
	// No scheduled start: stays pending until published explicitly.
	createTestItem(t, database, seller.ID, "Draft", ends)

	due, err := ListItemsDueForPublish(ctx, database, time.Now())
	if err != nil {
		t.Fatalf("ListItemsDueForPublish: %v", err)
	}
	if len(due) != 1 || due[0].ID != scheduled.ID {
		t.Errorf("expected only the scheduled item, got %+v", due)
	}
}

func TestUpdateItemResetsCurrentBid(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	seller := createTestUser(t, database, "seller")

	item := createTestItem(t, database, seller.ID, "Old Name", time.Now().Add(time.Hour))

	ends := time.Now().Add(2 * time.Hour)
	if err := UpdateItem(ctx, database, item.ID, "New Name", "desc", 25.0, nil, nil, ends); err != nil {
		t.Fatalf("UpdateItem: %v", err)
	}

	got, _ := GetItem(ctx, database, item.ID)
	if got.Name != "New Name" || got.FirstBid != 25.0 || got.CurrentBid != 25.0 {
		t.Errorf("expected updated item with reset current bid, got %+v", got)
	}
}

func TestUpdateItemSkippedAfterBids(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	seller := createTestUser(t, database, "seller")
	bidder := createTestUser(t, database, "bidder")

	item := createTestItem(t, database, seller.ID, "Bid On", time.Now().Add(time.Hour))
	activateItem(t, database, item.ID)
	insertTestBid(t, database, item.ID, bidder.ID, 15.0)
	database.Exec(`UPDATE items SET bid_count = 1, current_bid = 15.0 WHERE id = ?`, item.ID)

	UpdateItem(ctx, database, item.ID, "Renamed", "", 99.0, nil, nil, time.Now().Add(time.Hour))

	got, _ := GetItem(ctx, database, item.ID)
	if got.Name != "Bid On" || got.CurrentBid != 15.0 {
		t.Errorf("expected item with bids to be unchanged, got %+v", got)
	}
}

func TestSetAndGetItemImage(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	seller := createTestUser(t, database, "seller")

	item := createTestItem(t, database, seller.ID, "Pictured", time.Now().Add(time.Hour))

	data := []byte{0xFF, 0xD8, 0xFF}
	if err := SetItemImage(ctx, database, item.ID, data, "image/jpeg"); err != nil {
		t.Fatalf("SetItemImage: %v", err)
	}

	got, mime, err := GetItemImage(ctx, database, item.ID)
	if err != nil {
		t.Fatalf("GetItemImage: %v", err)
	}
	if mime != "image/jpeg" || len(got) != 3 {
		t.Errorf("expected stored image back, got %d bytes, mime %q", len(got), mime)
	}
}
