package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/PirrosBell/BidHub/internal/model"
)

const pairColumns = `p.id, p.item_id, p.bid_id, p.bidder_id, p.status,
	p.deleted_by_seller, p.deleted_by_bidder, p.created_at,
	i.name, i.seller_id, b.amount, u.username`

const pairJoins = ` FROM winning_pairs p
	JOIN items i ON i.id = p.item_id
	JOIN bids b ON b.id = p.bid_id
	JOIN users u ON u.id = p.bidder_id`

// GetWinningPair returns a winning pair by ID.
func GetWinningPair(ctx context.Context, db *sql.DB, id int64) (*model.WinningPair, error) {
	row := db.QueryRowContext(ctx,
		`SELECT `+pairColumns+pairJoins+` WHERE p.id = ?`, id,
	)
	p, err := scanPair(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting winning pair: %w", err)
	}
	return p, nil
}

// GetWinningPairForItem returns the winning pair for an item, if any.
func GetWinningPairForItem(ctx context.Context, db *sql.DB, itemID int64) (*model.WinningPair, error) {
	row := db.QueryRowContext(ctx,
		`SELECT `+pairColumns+pairJoins+` WHERE p.item_id = ?`, itemID,
	)
	p, err := scanPair(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting winning pair for item: %w", err)
	}
	return p, nil
}

// ListWinningPairsForUser returns pairs visible to a user: pairs for items the
// user sold that the seller has not hidden, plus pairs the user won that the
// bidder has not hidden.
func ListWinningPairsForUser(ctx context.Context, db *sql.DB, userID int64) ([]model.WinningPair, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT `+pairColumns+pairJoins+`
		 WHERE (i.seller_id = ? AND p.deleted_by_seller = 0)
		    OR (p.bidder_id = ? AND p.deleted_by_bidder = 0)
		 ORDER BY p.created_at DESC, p.id DESC`,
		userID, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing winning pairs: %w", err)
	}
	defer rows.Close()

	var pairs []model.WinningPair
	for rows.Next() {
		p, err := scanPair(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning winning pair: %w", err)
		}
		pairs = append(pairs, *p)
	}
	return pairs, rows.Err()
}

// HideWinningPair marks a pair hidden for one side. When both sides have
// hidden it the pair is deactivated, keeping the audit record.
func HideWinningPair(ctx context.Context, db *sql.DB, id int64, bySeller bool) error {
	column := "deleted_by_bidder"
	if bySeller {
		column = "deleted_by_seller"
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`UPDATE winning_pairs SET `+column+` = 1 WHERE id = ?`, id,
	); err != nil {
		return fmt.Errorf("hiding winning pair: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE winning_pairs SET status = 'inactive'
		 WHERE id = ? AND deleted_by_seller = 1 AND deleted_by_bidder = 1`, id,
	); err != nil {
		return fmt.Errorf("deactivating winning pair: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing winning pair update: %w", err)
	}
	return nil
}

func scanPair(s scanner) (*model.WinningPair, error) {
	p := &model.WinningPair{}
	err := s.Scan(&p.ID, &p.ItemID, &p.BidID, &p.BidderID, &p.Status,
		&p.DeletedBySeller, &p.DeletedByBidder, &p.CreatedAt,
		&p.ItemName, &p.SellerID, &p.Amount, &p.BidderName)
	if err != nil {
		return nil, err
	}
	return p, nil
}
