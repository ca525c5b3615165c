package futurecash

import (
	"context"
	"errors"
	"testing"
	"time"

	config "github.com/glkeru/loyalty/futurecash/internal/config"
	model "github.com/glkeru/loyalty/futurecash/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"
)

func TestShouldHold(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	cfg := config.Default().Hold
	userID := uuid.New()
	old := model.User{ID: userID, CreatedAt: now.Add(-72 * time.Hour)}
	fresh := model.User{ID: userID, CreatedAt: now.Add(-time.Hour)}
	cheap := model.Offer{ID: uuid.New(), Points: 100}
	expensive := model.Offer{ID: uuid.New(), Points: 5000}

	tests := []struct {
		name     string
		user     model.User
		userErr  error
		count    int
		countErr error
		offer    model.Offer
		noCount  bool
		expected bool
	}{
		{name: "approve", user: old, count: 0, offer: cheap, expected: false},
		{name: "below ip threshold", user: old, count: 9, offer: cheap, expected: false},
		{name: "new account", user: fresh, offer: cheap, noCount: true, expected: true},
		{name: "new account cheap offer clean ip", user: fresh, offer: model.Offer{Points: 1}, noCount: true, expected: true},
		{name: "ip frequency", user: old, count: 10, offer: cheap, expected: true},
		{name: "high value", user: old, count: 0, offer: expensive, expected: true},
		{name: "user error", userErr: errors.New("db down"), offer: cheap, noCount: true, expected: true},
		{name: "missing user", userErr: model.ErrNotFound, offer: cheap, noCount: true, expected: true},
		{name: "count error", user: old, countErr: errors.New("timeout"), offer: cheap, expected: true},
	}

	for _, ts := range tests {
		t.Run(ts.name, func(t *testing.T) {
			cont := gomock.NewController(t)
			defer cont.Finish()

			storage := NewMockFraudStorage(cont)
			storage.EXPECT().GetUser(gomock.Any(), userID).Return(ts.user, ts.userErr)
			if !ts.noCount {
				storage.EXPECT().
					CountCompletionsByIP(gomock.Any(), "10.0.0.1", now.Add(-cfg.IPWindow)).
					Return(ts.count, ts.countErr)
			}

			hold := NewHoldPolicy(zap.NewNop(), storage, cfg)
			result := hold.ShouldHold(context.Background(), userID, ts.offer, "10.0.0.1", now)
			require.Equal(t, ts.expected, result)
		})
	}
}
