package cleanup

import (
	"context"
	"time"

	"github.com/anugrahsy/monolog-food-orders-app/internal/logger"
	"github.com/anugrahsy/monolog-food-orders-app/internal/pricing"
)

const (
	cleanupHour       = 2 // 2 AM
	maxDeletionPerRun = 500
)

// BlobPurger removes persisted carts nobody has touched since cutoff.
type BlobPurger interface {
	PurgeStale(ctx context.Context, cutoff time.Time, limit int) (int, error)
}

// SnapshotPurger removes and counts local order snapshots.
type SnapshotPurger interface {
	PurgeOlderThan(ctx context.Context, cutoff time.Time, limit int) (int, error)
	CountSince(ctx context.Context, since time.Time) (int, int64, error)
}

type Config struct {
	CartRetention     time.Duration
	SnapshotRetention time.Duration
}

func DefaultConfig() Config {
	return Config{
		CartRetention:     30 * 24 * time.Hour,
		SnapshotRetention: 90 * 24 * time.Hour,
	}
}

type Job struct {
	blobs     BlobPurger
	snapshots SnapshotPurger
	config    Config
	now       func() time.Time
}

func NewJob(blobs BlobPurger, snapshots SnapshotPurger, config Config) *Job {
	return &Job{blobs: blobs, snapshots: snapshots, config: config, now: time.Now}
}

// Start runs the job daily at cleanupHour until ctx is done.
func (j *Job) Start(ctx context.Context) {
	go func() {
		logger.LogInfo("Cleanup routine started - will run daily at %d:00 AM", cleanupHour)

		for {
			now := j.now()
			next := time.Date(now.Year(), now.Month(), now.Day(), cleanupHour, 0, 0, 0, now.Location())
			if now.After(next) {
				next = next.Add(24 * time.Hour)
			}

			wait := next.Sub(now)
			logger.LogInfo("Next cleanup scheduled for %v (in %v)", next.Format("2006-01-02 15:04:05"), wait)

			timer := time.NewTimer(wait)
			select {
			case <-ctx.Done():
				timer.Stop()
				return
			case <-timer.C:
				j.Run(ctx)
			}
		}
	}()
}

// Result counts what one run removed.
type Result struct {
	Carts     int
	Snapshots int
}

// Run purges abandoned carts and old order snapshots, then logs the last day's orders.
func (j *Job) Run(ctx context.Context) Result {
	logger.LogInfo("Starting daily cleanup of abandoned carts")
	now := j.now()
	var res Result

	cartCutoff := now.Add(-j.config.CartRetention)
	n, err := j.blobs.PurgeStale(ctx, cartCutoff, maxDeletionPerRun)
	if err != nil {
		logger.LogError("Failed to purge abandoned carts: %v", err)
	} else {
		res.Carts = n
		if n > 0 {
			logger.LogInfo("Cleaned up %d carts untouched since %v", n, cartCutoff.Format("2006-01-02 15:04:05"))
		}
	}

	if j.snapshots != nil {
		n, err := j.snapshots.PurgeOlderThan(ctx, now.Add(-j.config.SnapshotRetention), maxDeletionPerRun)
		if err != nil {
			logger.LogError("Failed to purge order snapshots: %v", err)
		} else {
			res.Snapshots = n
		}

		count, total, err := j.snapshots.CountSince(ctx, now.Add(-24*time.Hour))
		if err != nil {
			logger.LogError("Failed to count recent orders: %v", err)
		} else {
			logger.LogInfo("Orders handed off in the last 24h: %d totalling %s", count, pricing.FormatRupiah(total))
		}
	}

	if res.Carts+res.Snapshots == 0 {
		logger.LogInfo("Cleanup completed - nothing to remove")
	} else {
		logger.LogInfo("Cleanup completed - %d carts and %d order snapshots removed", res.Carts, res.Snapshots)
	}
	return res
}
