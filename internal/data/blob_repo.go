package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// =============================================================================
// CART BLOB REPOSITORY
// =============================================================================

// BlobRepository is the durable string-keyed store behind each session's cart.
type BlobRepository struct {
	now func() time.Time
}

func NewBlobRepository() *BlobRepository {
	return &BlobRepository{now: time.Now}
}

func (r *BlobRepository) GetBlob(ctx context.Context, owner, key string) (string, bool, error) {
	const stmt = `SELECT value FROM cart_blobs WHERE owner = ? AND key = ?`

	row, err := QueryRowDB(ctx, stmt, owner, key)
	if err != nil {
		return "", false, err
	}

	var value string
	if err := row.Scan(&value); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to read blob %s: %w", key, err)
	}
	return value, true, nil
}

// PutBlob replaces the whole value and refreshes updated_at.
func (r *BlobRepository) PutBlob(ctx context.Context, owner, key, value string) error {
	const stmt = `
		INSERT INTO cart_blobs (owner, key, value, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(owner, key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`

	if _, err := ExecDB(ctx, stmt, owner, key, value, formatTime(r.now())); err != nil {
		return fmt.Errorf("failed to write blob %s: %w", key, err)
	}
	return nil
}

func (r *BlobRepository) DeleteOwner(ctx context.Context, owner string) error {
	if _, err := ExecDB(ctx, `DELETE FROM cart_blobs WHERE owner = ?`, owner); err != nil {
		return fmt.Errorf("failed to delete blobs for owner: %w", err)
	}
	return nil
}

// PurgeStale removes at most limit blobs not written since cutoff.
func (r *BlobRepository) PurgeStale(ctx context.Context, cutoff time.Time, limit int) (int, error) {
	const stmt = `
		DELETE FROM cart_blobs
		WHERE rowid IN (
			SELECT rowid FROM cart_blobs
			WHERE updated_at < ?
			LIMIT ?
		)`

	result, err := ExecDB(ctx, stmt, formatTime(cutoff), limit)
	if err != nil {
		return 0, err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}
