package store

import (
	"context"
	"database/sql"
	"fmt"
)

// Interaction is one (user, item) signal used by the recommendation trainer.
type Interaction struct {
	UserID int64
	ItemID int64
}

// ListTrainingItemIDs returns the IDs of all non-cancelled items in ID order.
// Cancelled items carry no preference signal worth learning.
func ListTrainingItemIDs(ctx context.Context, db *sql.DB) ([]int64, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id FROM items WHERE status != 'cancelled' ORDER BY id`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing training items: %w", err)
	}
	defer rows.Close()

	return scanIDs(rows)
}

// ListBidInteractions returns one interaction per bid against a non-cancelled item.
func ListBidInteractions(ctx context.Context, db *sql.DB) ([]Interaction, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT b.bidder_id, b.item_id FROM bids b
		 JOIN items i ON i.id = b.item_id
		 WHERE i.status != 'cancelled'`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing bid interactions: %w", err)
	}
	defer rows.Close()

	return scanInteractions(rows)
}

// ListVisitInteractions returns one interaction per recorded visit to a
// non-cancelled item.
func ListVisitInteractions(ctx context.Context, db *sql.DB) ([]Interaction, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT v.user_id, v.item_id FROM visits v
		 JOIN items i ON i.id = v.item_id
		 WHERE i.status != 'cancelled'`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing visit interactions: %w", err)
	}
	defer rows.Close()

	return scanInteractions(rows)
}

// SetRecIndexes persists the dense row/column indices assigned by a training
// run back onto the user and item records, in a single transaction so the
// scorer never observes a half-assigned mapping.
func SetRecIndexes(ctx context.Context, db *sql.DB, userIndex, itemIndex map[int64]int64) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	for id, idx := range userIndex {
		if _, err := tx.ExecContext(ctx,
			`UPDATE users SET rec_index = ? WHERE id = ?`, idx, id,
		); err != nil {
			return fmt.Errorf("setting user rec index: %w", err)
		}
	}
	for id, idx := range itemIndex {
		if _, err := tx.ExecContext(ctx,
			`UPDATE items SET rec_index = ? WHERE id = ?`, idx, id,
		); err != nil {
			return fmt.Errorf("setting item rec index: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing rec indexes: %w", err)
	}
	return nil
}

func scanIDs(rows *sql.Rows) ([]int64, error) {
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func scanInteractions(rows *sql.Rows) ([]Interaction, error) {
	var out []Interaction
	for rows.Next() {
		var in Interaction
		if err := rows.Scan(&in.UserID, &in.ItemID); err != nil {
			return nil, fmt.Errorf("scanning interaction: %w", err)
		}
		out = append(out, in)
	}
	return out, rows.Err()
}
