package futurecash

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	model "github.com/glkeru/loyalty/futurecash/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func newUser(t *testing.T, m *MemoryDB, email string) model.User {
	t.Helper()
	user, err := m.CreateUser(context.Background(), model.User{
		Email:        email,
		ReferralCode: uuid.NewString()[:8],
	}, model.UserActivity{ActivityType: model.ActivityRegistration})
	require.NoError(t, err)
	return user
}

func TestMemoryUserUnique(t *testing.T) {
	m := NewMemoryDB()
	newUser(t, m, "a@example.com")
	_, err := m.CreateUser(context.Background(), model.User{Email: "A@Example.com", ReferralCode: "X1"}, model.UserActivity{})
	require.ErrorIs(t, err, model.ErrDuplicate)
}

// один transaction_id - одно начисление при гонке
func TestMemoryCompletionRace(t *testing.T) {
	m := NewMemoryDB()
	user := newUser(t, m, "race@example.com")
	offer := uuid.New()

	var ok, dup atomic.Int32
	wg := &sync.WaitGroup{}
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, err := m.SaveCompletion(context.Background(), model.OfferCompletion{
				UserID:        user.ID,
				OfferID:       offer,
				TransactionID: "tx-race",
				PointsAwarded: 100,
				Status:        model.CompletionApproved,
			}, model.UserActivity{ActivityType: model.ActivityOfferCompleted, PointsChange: 100})
			switch {
			case err == nil:
				ok.Add(1)
			case errors.Is(err, model.ErrDuplicateTransaction):
				dup.Add(1)
			}
		}()
	}
	wg.Wait()
	require.Equal(t, int32(1), ok.Load())
	require.Equal(t, int32(19), dup.Load())

	balance, err := m.GetBalance(context.Background(), user.ID)
	require.NoError(t, err)
	require.Equal(t, int64(100), balance)
}

func TestMemoryCompletedViewRace(t *testing.T) {
	m := NewMemoryDB()
	user := newUser(t, m, "video@example.com")
	video := uuid.New()

	var ok atomic.Int32
	wg := &sync.WaitGroup{}
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, err := m.SaveCompletedView(context.Background(), model.VideoView{
				UserID:        user.ID,
				VideoID:       video,
				PointsAwarded: 25,
			}, model.UserActivity{ActivityType: model.ActivityVideoCompleted, PointsChange: 25})
			if err == nil {
				ok.Add(1)
			}
		}()
	}
	wg.Wait()
	require.Equal(t, int32(1), ok.Load())

	done, err := m.HasCompletedView(context.Background(), user.ID, video)
	require.NoError(t, err)
	require.True(t, done)
}

func TestMemoryLock(t *testing.T) {
	l := NewMemoryLock()
	unlock, err := l.Lock(context.Background(), "job", time.Minute)
	require.NoError(t, err)
	_, err = l.Lock(context.Background(), "job", time.Minute)
	require.ErrorIs(t, err, model.ErrLocked)
	require.NoError(t, unlock(context.Background()))
	_, err = l.Lock(context.Background(), "job", time.Minute)
	require.NoError(t, err)
}
