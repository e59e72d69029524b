package store

import (
	"context"
	"database/sql"
	"fmt"
)

// Blobs is a durable string-keyed blob store over the kv table. The
// inventory store persists its snapshot through it and never touches
// the database directly.
type Blobs struct {
	db *sql.DB
}

// NewBlobs creates a blob store over the given database.
func NewBlobs(db *sql.DB) *Blobs {
	return &Blobs{db: db}
}

// Get returns the value for key, reporting whether it was present.
func (b *Blobs) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := b.db.QueryRowContext(ctx,
		`SELECT value FROM kv WHERE key = ?`, key,
	).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("getting blob %q: %w", key, err)
	}
	return value, true, nil
}

// Put stores value under key, replacing any previous value. The write
// is durable when Put returns (synchronous=FULL).
func (b *Blobs) Put(ctx context.Context, key, value string) error {
	_, err := b.db.ExecContext(ctx,
		`INSERT INTO kv (key, value) VALUES (?, ?)
		 ON CONFLICT (key) DO UPDATE SET value = excluded.value`,
		key, value,
	)
	if err != nil {
		return fmt.Errorf("putting blob %q: %w", key, err)
	}
	return nil
}

// Delete removes key. Deleting an absent key is not an error.
func (b *Blobs) Delete(ctx context.Context, key string) error {
	_, err := b.db.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, key)
	if err != nil {
		return fmt.Errorf("deleting blob %q: %w", key, err)
	}
	return nil
}
