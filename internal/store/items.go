package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/PirrosBell/BidHub/internal/model"
)

const itemColumns = `id, seller_id, name, description, first_bid, current_bid, buy_price,
	bid_count, starts, ends, status, rec_index, image_mime, created_at, updated_at`

// CreateItem creates a new listing in the pending state. The current bid
// starts at the first bid amount.
func CreateItem(ctx context.Context, db *sql.DB, sellerID int64, name, description string, firstBid float64, buyPrice *float64, starts *time.Time, ends time.Time) (*model.Item, error) {
	result, err := db.ExecContext(ctx,
		`INSERT INTO items (seller_id, name, description, first_bid, current_bid, buy_price, starts, ends, status)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, 'pending')`,
		sellerID, name, description, firstBid, firstBid, buyPrice, utcOrNil(starts), ends.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("creating item: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting item id: %w", err)
	}

	return GetItem(ctx, db, id)
}

// GetItem returns an item by ID.
func GetItem(ctx context.Context, db *sql.DB, id int64) (*model.Item, error) {
	row := db.QueryRowContext(ctx,
		`SELECT `+itemColumns+` FROM items WHERE id = ?`, id,
	)
	item, err := scanItem(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting item: %w", err)
	}
	return item, nil
}

// ItemFilter narrows ListItems results. Zero values mean no filtering.
type ItemFilter struct {
	Status     string
	SellerID   int64
	Category   string
	EndsBefore time.Time
	EndsAfter  time.Time
	MinCurrent float64
	MaxCurrent float64
}

// ListItems returns items matching the filter, soonest-ending first.
func ListItems(ctx context.Context, db *sql.DB, f ItemFilter) ([]model.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM items WHERE 1=1`
	var args []any

	if f.Status != "" {
		query += ` AND status = ?`
		args = append(args, f.Status)
	}
	if f.SellerID > 0 {
		query += ` AND seller_id = ?`
		args = append(args, f.SellerID)
	}
	if f.Category != "" {
		query += ` AND id IN (SELECT ic.item_id FROM item_categories ic
			JOIN categories c ON c.id = ic.category_id WHERE c.name = ?)`
		args = append(args, f.Category)
	}
	if !f.EndsBefore.IsZero() {
		query += ` AND ends <= ?`
		args = append(args, f.EndsBefore.UTC())
	}
	if !f.EndsAfter.IsZero() {
		query += ` AND ends >= ?`
		args = append(args, f.EndsAfter.UTC())
	}
	if f.MinCurrent > 0 {
		query += ` AND current_bid >= ?`
		args = append(args, f.MinCurrent)
	}
	if f.MaxCurrent > 0 {
		query += ` AND current_bid <= ?`
		args = append(args, f.MaxCurrent)
	}

	query += ` ORDER BY ends, id`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing items: %w", err)
	}
	defer rows.Close()

	return scanItems(rows)
}

// ListItemsDueForClose returns active items whose end time has passed.
func ListItemsDueForClose(ctx context.Context, db *sql.DB, now time.Time) ([]model.Item, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT `+itemColumns+` FROM items WHERE status = 'active' AND ends <= ? ORDER BY ends`,
		now.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("listing items due for close: %w", err)
	}
	defer rows.Close()

	return scanItems(rows)
}

// ListItemsDueForPublish returns pending items whose scheduled start has passed.
// Items with no scheduled start stay pending until published explicitly.
func ListItemsDueForPublish(ctx context.Context, db *sql.DB, now time.Time) ([]model.Item, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT `+itemColumns+` FROM items
		 WHERE status = 'pending' AND starts IS NOT NULL AND starts <= ? ORDER BY starts`,
		now.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("listing items due for publish: %w", err)
	}
	defer rows.Close()

	return scanItems(rows)
}

// UpdateItem updates a listing's editable fields. Callers must ensure the item
// has no bids yet; the current bid is reset to the new first bid.
func UpdateItem(ctx context.Context, db *sql.DB, id int64, name, description string, firstBid float64, buyPrice *float64, starts *time.Time, ends time.Time) error {
	_, err := db.ExecContext(ctx,
		`UPDATE items SET name = ?, description = ?, first_bid = ?, current_bid = ?, buy_price = ?,
		        starts = ?, ends = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND bid_count = 0`,
		name, description, firstBid, firstBid, buyPrice, utcOrNil(starts), ends.UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("updating item: %w", err)
	}
	return nil
}

// SetItemImage sets an item's image data.
func SetItemImage(ctx context.Context, db *sql.DB, id int64, image []byte, mime string) error {
	_, err := db.ExecContext(ctx,
		`UPDATE items SET image = ?, image_mime = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		image, mime, id,
	)
	if err != nil {
		return fmt.Errorf("setting item image: %w", err)
	}
	return nil
}

// GetItemImage returns an item's image data and MIME type.
func GetItemImage(ctx context.Context, db *sql.DB, id int64) ([]byte, string, error) {
	var image []byte
	var mime sql.NullString
	err := db.QueryRowContext(ctx,
		`SELECT image, image_mime FROM items WHERE id = ?`, id,
	).Scan(&image, &mime)
	if err == sql.ErrNoRows {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", fmt.Errorf("getting item image: %w", err)
	}
	return image, mime.String, nil
}

func utcOrNil(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanItem(s scanner) (*model.Item, error) {
	item := &model.Item{}
	var description, imageMime sql.NullString
	var buyPrice sql.NullFloat64
	var starts sql.NullTime
	var recIndex sql.NullInt64
	err := s.Scan(&item.ID, &item.SellerID, &item.Name, &description, &item.FirstBid,
		&item.CurrentBid, &buyPrice, &item.BidCount, &starts, &item.Ends, &item.Status,
		&recIndex, &imageMime, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		return nil, err
	}
	item.Description = description.String
	item.ImageMime = imageMime.String
	if buyPrice.Valid {
		item.BuyPrice = &buyPrice.Float64
	}
	if starts.Valid {
		item.Starts = &starts.Time
	}
	if recIndex.Valid {
		item.RecIndex = &recIndex.Int64
	}
	return item, nil
}

func scanItems(rows *sql.Rows) ([]model.Item, error) {
	var items []model.Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning item: %w", err)
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}
