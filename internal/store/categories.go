package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/PirrosBell/BidHub/internal/model"
)

// ListCategories returns the full taxonomy, alphabetically.
func ListCategories(ctx context.Context, db *sql.DB) ([]model.Category, error) {
	rows, err := db.QueryContext(ctx, `SELECT id, name FROM categories ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("listing categories: %w", err)
	}
	defer rows.Close()

	var categories []model.Category
	for rows.Next() {
		var c model.Category
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, fmt.Errorf("scanning category: %w", err)
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

// SetItemCategories replaces an item's category set with the given names,
// creating any category that does not exist yet. An empty list clears the
// item's categories.
func SetItemCategories(ctx context.Context, db *sql.DB, itemID int64, names []string) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM item_categories WHERE item_id = ?`, itemID,
	); err != nil {
		return fmt.Errorf("clearing item categories: %w", err)
	}

	for _, name := range names {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO categories (name) VALUES (?)`, name,
		); err != nil {
			return fmt.Errorf("creating category %q: %w", name, err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO item_categories (item_id, category_id)
			 SELECT ?, id FROM categories WHERE name = ?`,
			itemID, name,
		); err != nil {
			return fmt.Errorf("tagging item with %q: %w", name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing categories: %w", err)
	}
	return nil
}

// ListItemCategories returns an item's category names, alphabetically.
func ListItemCategories(ctx context.Context, db *sql.DB, itemID int64) ([]string, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT c.name FROM categories c
		 JOIN item_categories ic ON ic.category_id = c.id
		 WHERE ic.item_id = ? ORDER BY c.name`,
		itemID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing item categories: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scanning category name: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}
