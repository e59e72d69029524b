package store

import (
	"context"
	"database/sql"
	"fmt"
)

// SetItemImage stores (or replaces) the photo for an item barcode.
// Photos live outside the inventory snapshot so backups stay small.
func SetItemImage(ctx context.Context, db *sql.DB, barcode string, image []byte, mime string) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO item_images (barcode, image, mime) VALUES (?, ?, ?)
		 ON CONFLICT (barcode) DO UPDATE SET image = excluded.image, mime = excluded.mime,
		     updated_at = CURRENT_TIMESTAMP`,
		barcode, image, mime,
	)
	if err != nil {
		return fmt.Errorf("setting item image: %w", err)
	}
	return nil
}

// GetItemImage returns an item's photo and MIME type, or nil if the
// item has no photo.
func GetItemImage(ctx context.Context, db *sql.DB, barcode string) ([]byte, string, error) {
	var image []byte
	var mime string
	err := db.QueryRowContext(ctx,
		`SELECT image, mime FROM item_images WHERE barcode = ?`, barcode,
	).Scan(&image, &mime)
	if err == sql.ErrNoRows {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", fmt.Errorf("getting item image: %w", err)
	}
	return image, mime, nil
}

// DeleteItemImage removes an item's photo.
func DeleteItemImage(ctx context.Context, db *sql.DB, barcode string) error {
	_, err := db.ExecContext(ctx, `DELETE FROM item_images WHERE barcode = ?`, barcode)
	if err != nil {
		return fmt.Errorf("deleting item image: %w", err)
	}
	return nil
}
