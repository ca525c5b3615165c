package futurecash

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	db "github.com/glkeru/loyalty/futurecash/internal/db"
	model "github.com/glkeru/loyalty/futurecash/internal/models"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestRunJobLocked(t *testing.T) {
	lock := db.NewMemoryLock()
	runner := NewRunner(zap.NewNop(), lock, time.Minute)
	var calls atomic.Int32
	runner.Every("sweep", time.Minute, func(ctx context.Context, now time.Time) error {
		calls.Add(1)
		return nil
	})

	require.NoError(t, runner.RunJob(context.Background(), "sweep"))
	require.Equal(t, int32(1), calls.Load())

	// второй экземпляр держит блокировку
	unlock, err := lock.Lock(context.Background(), "sweep", time.Minute)
	require.NoError(t, err)
	err = runner.RunJob(context.Background(), "sweep")
	require.ErrorIs(t, err, model.ErrLocked)
	require.Equal(t, int32(1), calls.Load())

	require.NoError(t, unlock(context.Background()))
	require.NoError(t, runner.RunJob(context.Background(), "sweep"))
	require.Equal(t, int32(2), calls.Load())

	require.ErrorIs(t, runner.RunJob(context.Background(), "missing"), model.ErrNotFound)
}

func TestRunAll(t *testing.T) {
	runner := NewRunner(zap.NewNop(), db.NewMemoryLock(), time.Minute)
	failure := errors.New("boom")
	var ok atomic.Int32
	runner.Every("sweep", time.Minute, func(ctx context.Context, now time.Time) error {
		ok.Add(1)
		return nil
	})
	runner.Daily("stats", 1, func(ctx context.Context, now time.Time) error {
		return failure
	})

	err := runner.RunAll(context.Background())
	require.ErrorIs(t, err, failure)
	require.Equal(t, int32(1), ok.Load())

	// после ошибки блокировка снята
	err = runner.RunJob(context.Background(), "stats")
	require.ErrorIs(t, err, failure)
}

func TestNextDaily(t *testing.T) {
	tests := []struct {
		now      time.Time
		hour     int
		expected time.Time
	}{
		{time.Date(2025, 3, 1, 0, 30, 0, 0, time.UTC), 1, time.Date(2025, 3, 1, 1, 0, 0, 0, time.UTC)},
		{time.Date(2025, 3, 1, 1, 0, 0, 0, time.UTC), 1, time.Date(2025, 3, 2, 1, 0, 0, 0, time.UTC)},
		{time.Date(2025, 3, 1, 23, 0, 0, 0, time.UTC), 1, time.Date(2025, 3, 2, 1, 0, 0, 0, time.UTC)},
		{time.Date(2025, 12, 31, 5, 0, 0, 0, time.UTC), 1, time.Date(2026, 1, 1, 1, 0, 0, 0, time.UTC)},
	}
	for _, ts := range tests {
		require.Equal(t, ts.expected, nextDaily(ts.now, ts.hour), "now=%v", ts.now)
	}
}

func TestStart(t *testing.T) {
	runner := NewRunner(zap.NewNop(), db.NewMemoryLock(), time.Minute)
	var calls atomic.Int32
	runner.Every("tick", 10*time.Millisecond, func(ctx context.Context, now time.Time) error {
		calls.Add(1)
		return nil
	})

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	runner.Start(ctx)
	require.GreaterOrEqual(t, calls.Load(), int32(2))
}
