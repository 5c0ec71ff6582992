package cleanup

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeBlobs struct {
	cutoff time.Time
	n      int
	err    error
}

func (f *fakeBlobs) PurgeStale(_ context.Context, cutoff time.Time, limit int) (int, error) {
	f.cutoff = cutoff
	return f.n, f.err
}

type fakeSnapshots struct {
	cutoff time.Time
	n      int
}

func (f *fakeSnapshots) PurgeOlderThan(_ context.Context, cutoff time.Time, limit int) (int, error) {
	f.cutoff = cutoff
	return f.n, nil
}

func (f *fakeSnapshots) CountSince(context.Context, time.Time) (int, int64, error) {
	return 3, 150000, nil
}

func TestRunUsesRetention(t *testing.T) {
	now := time.Date(2025, 6, 1, 2, 0, 0, 0, time.UTC)
	blobs := &fakeBlobs{n: 4}
	snaps := &fakeSnapshots{n: 2}

	job := NewJob(blobs, snaps, DefaultConfig())
	job.now = func() time.Time { return now }

	res := job.Run(context.Background())
	assert.Equal(t, Result{Carts: 4, Snapshots: 2}, res)
	assert.Equal(t, now.Add(-30*24*time.Hour), blobs.cutoff)
	assert.Equal(t, now.Add(-90*24*time.Hour), snaps.cutoff)
}

func TestRunContinuesAfterErrors(t *testing.T) {
	blobs := &fakeBlobs{err: errors.New("locked")}
	snaps := &fakeSnapshots{n: 1}

	res := NewJob(blobs, snaps, DefaultConfig()).Run(context.Background())
	assert.Equal(t, Result{Snapshots: 1}, res)
}

func TestRunWithoutSnapshots(t *testing.T) {
	res := NewJob(&fakeBlobs{}, nil, DefaultConfig()).Run(context.Background())
	assert.Equal(t, Result{}, res)
}

func TestStartStopsWithContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	NewJob(&fakeBlobs{}, nil, DefaultConfig()).Start(ctx)
	cancel()
}
