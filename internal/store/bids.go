package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/PirrosBell/BidHub/internal/model"
)

// GetBid returns a bid by ID.
func GetBid(ctx context.Context, db *sql.DB, id int64) (*model.Bid, error) {
	b := &model.Bid{}
	err := db.QueryRowContext(ctx,
		`SELECT b.id, b.item_id, b.bidder_id, b.amount, b.created_at, u.username
		 FROM bids b JOIN users u ON u.id = b.bidder_id
		 WHERE b.id = ?`, id,
	).Scan(&b.ID, &b.ItemID, &b.BidderID, &b.Amount, &b.CreatedAt, &b.BidderName)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting bid: %w", err)
	}
	return b, nil
}

// ListBids returns bids, optionally filtered by item or bidder, newest first.
func ListBids(ctx context.Context, db *sql.DB, itemID, bidderID int64) ([]model.Bid, error) {
	query := `SELECT b.id, b.item_id, b.bidder_id, b.amount, b.created_at, u.username
	          FROM bids b
	          JOIN users u ON u.id = b.bidder_id
	          WHERE 1=1`
	var args []any

	if itemID > 0 {
		query += ` AND b.item_id = ?`
		args = append(args, itemID)
	}
	if bidderID > 0 {
		query += ` AND b.bidder_id = ?`
		args = append(args, bidderID)
	}

	query += ` ORDER BY b.created_at DESC, b.id DESC`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing bids: %w", err)
	}
	defer rows.Close()

	var bids []model.Bid
	for rows.Next() {
		var b model.Bid
		if err := rows.Scan(&b.ID, &b.ItemID, &b.BidderID, &b.Amount, &b.CreatedAt, &b.BidderName); err != nil {
			return nil, fmt.Errorf("scanning bid: %w", err)
		}
		bids = append(bids, b)
	}
	return bids, rows.Err()
}
