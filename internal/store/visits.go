package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// VisitDedupeWindow suppresses repeat visit records from the same user on the
// same item. Without it a single browsing session would dominate the
// interaction weights.
const VisitDedupeWindow = 10 * time.Minute

// RecordVisit records a page visit unless the user already visited the item
// within the dedupe window. Returns true if a visit was recorded.
func RecordVisit(ctx context.Context, db *sql.DB, userID, itemID int64) (bool, error) {
	result, err := db.ExecContext(ctx,
		`INSERT INTO visits (user_id, item_id)
		 SELECT ?, ?
		 WHERE NOT EXISTS (
		     SELECT 1 FROM visits WHERE user_id = ? AND item_id = ? AND visited_at >= ?
		 )`,
		userID, itemID, userID, itemID, time.Now().UTC().Add(-VisitDedupeWindow),
	)
	if err != nil {
		return false, fmt.Errorf("recording visit: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("checking visit insert: %w", err)
	}
	return n > 0, nil
}

// CountVisits returns the number of recorded visits for an item.
func CountVisits(ctx context.Context, db *sql.DB, itemID int64) (int, error) {
	var count int
	err := db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM visits WHERE item_id = ?`, itemID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting visits: %w", err)
	}
	return count, nil
}
