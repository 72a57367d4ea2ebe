package auction

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/PirrosBell/BidHub/internal/model"
	"github.com/PirrosBell/BidHub/internal/store"
)

// PlaceBid validates and commits a single bid against an item.
//
// A bid at or above the item's buy price is clamped down to exactly the buy
// price and closes the auction immediately, short-circuiting the scheduler.
//
// The commit is an optimistic conditional update keyed on the current bid
// value read at validation time. Two bidders racing against the same prior
// current bid observe a linear order: the second commit matches zero rows,
// the bid insert is rolled back, and the caller gets ErrConcurrentUpdate.
func PlaceBid(ctx context.Context, db *sql.DB, itemID, bidderID int64, amount float64) (*model.Bid, error) {
	item, err := store.GetItem(ctx, db, itemID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, ErrItemNotFound
	}
	if item.Status != model.ItemStatusActive {
		return nil, ErrItemNotActive
	}
	if !item.Ends.After(time.Now().UTC()) {
		// Close out the stale row so the item does not linger as active.
		if _, err := CheckAndUpdateStatus(ctx, db, itemID); err != nil {
			slog.Warn("refreshing ended item failed", "item", itemID, "error", err)
		}
		return nil, ErrAuctionEnded
	}
	if item.SellerID == bidderID {
		return nil, ErrOwnBid
	}
	if amount <= 0 || math.IsNaN(amount) || math.IsInf(amount, 0) {
		return nil, ErrInvalidAmount
	}
	if amount <= item.CurrentBid {
		return nil, ErrBidTooLow
	}

	bought := false
	if item.BuyPrice != nil && amount >= *item.BuyPrice {
		amount = *item.BuyPrice
		bought = true
	}

	bid, err := commitBid(ctx, db, item, bidderID, amount)
	if err != nil {
		return nil, err
	}

	slog.Info("bid accepted", "item", itemID, "bidder", bidderID, "amount", amount, "bought", bought)

	if bought {
		if _, err := Close(ctx, db, itemID); err != nil {
			return nil, fmt.Errorf("closing bought item: %w", err)
		}
	}

	return bid, nil
}

// commitBid persists the bid and advances the item's current bid and bid
// count as a single atomic unit. The update only matches if the row's current
// bid still equals the value the validation read, which prevents lost-update
// anomalies without locking reads.
func commitBid(ctx context.Context, db *sql.DB, item *model.Item, bidderID int64, amount float64) (*model.Bid, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		`INSERT INTO bids (item_id, bidder_id, amount) VALUES (?, ?, ?)`,
		item.ID, bidderID, amount,
	)
	if err != nil {
		return nil, fmt.Errorf("inserting bid: %w", err)
	}

	bidID, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting bid id: %w", err)
	}

	result, err = tx.ExecContext(ctx,
		`UPDATE items SET current_bid = ?, bid_count = bid_count + 1, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND status = 'active' AND current_bid = ?`,
		amount, item.ID, item.CurrentBid,
	)
	if err != nil {
		return nil, fmt.Errorf("updating current bid: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return nil, ErrConcurrentUpdate
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing bid: %w", err)
	}

	return store.GetBid(ctx, db, bidID)
}
