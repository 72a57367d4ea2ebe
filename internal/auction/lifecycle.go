// Package auction implements the item lifecycle state machine and the
// bid-acceptance engine. Items move pending → active → sold/expired/cancelled;
// all transitions are guarded by conditional updates so a racing sweep and bid
// lose cleanly instead of corrupting the status.
package auction

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/PirrosBell/BidHub/internal/model"
	"github.com/PirrosBell/BidHub/internal/store"
)

// Publish transitions a pending item to active. The actual start timestamp is
// recorded as now, not the scheduled time, so late publication does not
// corrupt the original scheduling intent.
func Publish(ctx context.Context, db *sql.DB, itemID int64) (*model.Item, error) {
	item, err := store.GetItem(ctx, db, itemID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, ErrItemNotFound
	}
	if item.Status != model.ItemStatusPending {
		return nil, fmt.Errorf("publishing item %d in status %q: %w", itemID, item.Status, ErrInvalidTransition)
	}

	result, err := db.ExecContext(ctx,
		`UPDATE items SET status = 'active', starts = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND status = 'pending'`,
		time.Now().UTC(), itemID,
	)
	if err != nil {
		return nil, fmt.Errorf("publishing item: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return nil, fmt.Errorf("publishing item %d: %w", itemID, ErrInvalidTransition)
	}

	slog.Info("item published", "item", itemID)
	return store.GetItem(ctx, db, itemID)
}

// Close finishes an active auction. With no bids the item becomes expired if
// its end time has passed, otherwise cancelled. With bids the item becomes
// sold and a winning pair is created for the bid matching the current bid
// amount. A missing matching bid or a duplicate pair is a recoverable
// degraded state: the item stays sold, the pair creation is skipped with a
// warning, and the close is not rolled back.
func Close(ctx context.Context, db *sql.DB, itemID int64) (*model.Item, error) {
	item, err := store.GetItem(ctx, db, itemID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, ErrItemNotFound
	}
	if item.Status != model.ItemStatusActive {
		return nil, fmt.Errorf("closing item %d in status %q: %w", itemID, item.Status, ErrInvalidTransition)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	// The conditional UPDATE takes the write lock before the outcome is
	// decided. A bid committing after the snapshot above can therefore no
	// longer change the winner: bid count, current bid and winner all come
	// from the locked row, not the snapshot.
	result, err := tx.ExecContext(ctx,
		`UPDATE items SET status = 'sold', updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND status = 'active'`,
		itemID,
	)
	if err != nil {
		return nil, fmt.Errorf("closing item: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return nil, fmt.Errorf("closing item %d: %w", itemID, ErrInvalidTransition)
	}

	var (
		currentBid float64
		bidCount   int
		ends       time.Time
	)
	err = tx.QueryRowContext(ctx,
		`SELECT current_bid, bid_count, ends FROM items WHERE id = ?`, itemID,
	).Scan(&currentBid, &bidCount, &ends)
	if err != nil {
		return nil, fmt.Errorf("re-reading item %d: %w", itemID, err)
	}

	target := model.ItemStatusSold
	if bidCount == 0 {
		if !ends.After(time.Now().UTC()) {
			target = model.ItemStatusExpired
		} else {
			target = model.ItemStatusCancelled
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE items SET status = ? WHERE id = ?`, target, itemID,
		); err != nil {
			return nil, fmt.Errorf("closing item without bids: %w", err)
		}
	}

	if target == model.ItemStatusSold {
		if err := createWinningPair(ctx, tx, itemID, currentBid); err != nil {
			// Sold-without-pair is preserved deliberately: the status change
			// must not be rolled back by a pair bookkeeping failure.
			slog.Warn("item sold without winning pair", "item", itemID, "error", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing close: %w", err)
	}

	slog.Info("item closed", "item", itemID, "status", target)
	return store.GetItem(ctx, db, itemID)
}

// createWinningPair looks up the bid whose amount equals the item's recorded
// current bid and records the item/bid/bidder triple. Runs inside the close
// transaction; its failure is reported, not propagated.
func createWinningPair(ctx context.Context, tx *sql.Tx, itemID int64, currentBid float64) error {
	var bidID, bidderID int64
	err := tx.QueryRowContext(ctx,
		`SELECT id, bidder_id FROM bids
		 WHERE item_id = ? AND amount = ?
		 ORDER BY created_at DESC, id DESC LIMIT 1`,
		itemID, currentBid,
	).Scan(&bidID, &bidderID)
	if err == sql.ErrNoRows {
		return fmt.Errorf("no bid matches current bid %.2f", currentBid)
	}
	if err != nil {
		return fmt.Errorf("finding winning bid: %w", err)
	}

	result, err := tx.ExecContext(ctx,
		`INSERT OR IGNORE INTO winning_pairs (item_id, bid_id, bidder_id) VALUES (?, ?, ?)`,
		itemID, bidID, bidderID,
	)
	if err != nil {
		return fmt.Errorf("creating winning pair: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("winning pair already exists for item %d", itemID)
	}
	return nil
}

// CheckAndUpdateStatus closes the item if it is active and past its end time.
// Idempotent: calling it on an already-closed item is a no-op. Read paths use
// it defensively when they might observe a stale status.
func CheckAndUpdateStatus(ctx context.Context, db *sql.DB, itemID int64) (*model.Item, error) {
	item, err := store.GetItem(ctx, db, itemID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, ErrItemNotFound
	}
	if item.Status != model.ItemStatusActive || item.Ends.After(time.Now().UTC()) {
		return item, nil
	}
	return Close(ctx, db, itemID)
}
