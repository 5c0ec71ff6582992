package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/anugrahsy/monolog-food-orders-app/internal/order"
)

// =============================================================================
// ORDER SNAPSHOT REPOSITORY
// =============================================================================

// SnapshotRepository keeps a local copy of every order handed off to the shop.
type SnapshotRepository struct{}

func NewSnapshotRepository() *SnapshotRepository {
	return &SnapshotRepository{}
}

func (r *SnapshotRepository) Record(ctx context.Context, owner string, s order.Snapshot) error {
	snapshotJSON, err := marshalJSON(s)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	const stmt = `
		INSERT INTO order_snapshots (
			reference, owner, created_at, customer_name, customer_phone, item_count, total, snapshot_json
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = ExecDB(ctx, stmt,
		s.Reference, owner, formatTime(s.CreatedAt),
		s.Customer.Name, s.Customer.Phone,
		s.Breakdown.TotalItems, s.Breakdown.Total, snapshotJSON,
	)
	if err != nil {
		return fmt.Errorf("failed to insert order snapshot: %w", err)
	}
	return nil
}

// Last returns the newest snapshot recorded for owner.
func (r *SnapshotRepository) Last(ctx context.Context, owner string) (order.Snapshot, bool, error) {
	const stmt = `
		SELECT snapshot_json FROM order_snapshots
		WHERE owner = ?
		ORDER BY id DESC
		LIMIT 1`

	row, err := QueryRowDB(ctx, stmt, owner)
	if err != nil {
		return order.Snapshot{}, false, err
	}

	var raw string
	if err := row.Scan(&raw); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return order.Snapshot{}, false, nil
		}
		return order.Snapshot{}, false, fmt.Errorf("failed to read order snapshot: %w", err)
	}

	var s order.Snapshot
	if err := unmarshalJSON(raw, &s); err != nil {
		return order.Snapshot{}, false, err
	}
	return s, true, nil
}

// PurgeOlderThan removes at most limit snapshots created before cutoff.
func (r *SnapshotRepository) PurgeOlderThan(ctx context.Context, cutoff time.Time, limit int) (int, error) {
	const stmt = `
		DELETE FROM order_snapshots
		WHERE id IN (
			SELECT id FROM order_snapshots
			WHERE created_at < ?
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

// CountSince is used by the daily report in the cleanup job.
func (r *SnapshotRepository) CountSince(ctx context.Context, since time.Time) (int, int64, error) {
	const stmt = `SELECT COUNT(*), COALESCE(SUM(total), 0) FROM order_snapshots WHERE created_at >= ?`

	row, err := QueryRowDB(ctx, stmt, formatTime(since))
	if err != nil {
		return 0, 0, err
	}
	var count int
	var total int64
	if err := row.Scan(&count, &total); err != nil {
		return 0, 0, fmt.Errorf("failed to count order snapshots: %w", err)
	}
	return count, total, nil
}
