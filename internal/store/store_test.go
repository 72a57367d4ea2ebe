package store

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/PirrosBell/BidHub/internal/model"
)

// Shared fixtures for the store tests.

func createTestUser(t *testing.T, db *sql.DB, username string) *model.User {
	t.Helper()
	user, err := CreateUser(context.Background(), db, username, "hash", model.RoleUser)
	if err != nil {
		t.Fatalf("CreateUser(%s): %v", username, err)
	}
	return user
}

func createTestItem(t *testing.T, db *sql.DB, sellerID int64, name string, ends time.Time) *model.Item {
	t.Helper()
	item, err := CreateItem(context.Background(), db, sellerID, name, "", 10.0, nil, nil, ends)
	if err != nil {
		t.Fatalf("CreateItem(%s): %v", name, err)
	}
	return item
}

func activateItem(t *testing.T, db *sql.DB, id int64) {
	t.Helper()
	if _, err := db.Exec(`UPDATE items SET status = 'active' WHERE id = ?`, id); err != nil {
		t.Fatalf("activating item %d: %v", id, err)
	}
}

func insertTestBid(t *testing.T, db *sql.DB, itemID, bidderID int64, amount float64) int64 {
	t.Helper()
	result, err := db.Exec(
		`INSERT INTO bids (item_id, bidder_id, amount) VALUES (?, ?, ?)`,
		itemID, bidderID, amount,
	)
	if err != nil {
		t.Fatalf("inserting bid: %v", err)
	}
	id, _ := result.LastInsertId()
	return id
}
