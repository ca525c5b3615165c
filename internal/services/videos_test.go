package futurecash

import (
	"context"
	"testing"
	"time"

	model "github.com/glkeru/loyalty/futurecash/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestWatchVideo(t *testing.T) {
	e := newTestEnv(t, nil, nil)
	user := e.addUser(t, "viewer@example.com", 72*time.Hour)
	video := e.db.AddVideo(model.Video{Title: "Intro", Points: 25, WatchTimeSeconds: 30, Status: true})
	ctx := context.Background()

	info, err := e.videos.StartWatch(ctx, video.ID, user.ID, "10.0.0.2", "agent")
	require.NoError(t, err)
	require.Equal(t, 30, info.WatchTimeRequired)
	require.Equal(t, int64(25), info.Points)

	// недосмотр можно повторить
	_, err = e.videos.CompleteWatch(ctx, video.ID, user.ID, 10, "10.0.0.2")
	require.ErrorIs(t, err, model.ErrInsufficientWatchTime)
	var wt *model.WatchTimeError
	require.ErrorAs(t, err, &wt)
	require.Equal(t, 30, wt.Required)
	require.Equal(t, 10, wt.Provided)
	require.Equal(t, int64(0), e.balance(t, user))

	res, err := e.videos.CompleteWatch(ctx, video.ID, user.ID, 31, "10.0.0.2")
	require.NoError(t, err)
	require.Equal(t, int64(25), res.PointsEarned)
	require.Equal(t, int64(25), res.NewBalance)

	// второй раз баллы не начисляются
	_, err = e.videos.CompleteWatch(ctx, video.ID, user.ID, 31, "10.0.0.2")
	require.ErrorIs(t, err, model.ErrAlreadyWatched)
	require.ErrorIs(t, err, model.ErrInvalidState)

	_, err = e.videos.StartWatch(ctx, video.ID, user.ID, "10.0.0.2", "agent")
	require.ErrorIs(t, err, model.ErrAlreadyWatched)

	require.Equal(t, int64(25), e.balance(t, user))

	views, err := e.videos.GetHistory(ctx, user.ID, model.NewPage(1, 20))
	require.NoError(t, err)
	require.Len(t, views, 2)
	e.requireReconciled(t, user)
}

func TestWatchVideoNotFound(t *testing.T) {
	e := newTestEnv(t, nil, nil)
	user := e.addUser(t, "viewer@example.com", 72*time.Hour)
	disabled := e.db.AddVideo(model.Video{Title: "Old", Points: 5, WatchTimeSeconds: 5})

	_, err := e.videos.StartWatch(context.Background(), uuid.New(), user.ID, "", "")
	require.ErrorIs(t, err, model.ErrNotFound)

	_, err = e.videos.CompleteWatch(context.Background(), disabled.ID, user.ID, 10, "")
	require.ErrorIs(t, err, model.ErrNotFound)
}
