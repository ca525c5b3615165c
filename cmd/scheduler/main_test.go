package main

import (
	"context"
	"errors"
	"testing"
	"time"

	db "github.com/glkeru/loyalty/futurecash/internal/db"
	scheduler "github.com/glkeru/loyalty/futurecash/internal/scheduler"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestRunOnceExitCode(t *testing.T) {
	lock := db.NewMemoryLock()

	ok := scheduler.NewRunner(zap.NewNop(), lock, time.Minute)
	ok.Every("sweep", time.Minute, func(ctx context.Context, now time.Time) error { return nil })
	require.Equal(t, 0, runOnce(context.Background(), ok, zap.NewNop()))

	failed := scheduler.NewRunner(zap.NewNop(), lock, time.Minute)
	failed.Daily("stats", 1, func(ctx context.Context, now time.Time) error { return errors.New("db is down") })
	require.Equal(t, 1, runOnce(context.Background(), failed, zap.NewNop()))

	// блокировка у другого экземпляра - не ошибка
	unlock, err := lock.Lock(context.Background(), "sweep", time.Minute)
	require.NoError(t, err)
	defer unlock(context.Background())
	require.Equal(t, 0, runOnce(context.Background(), ok, zap.NewNop()))
}
