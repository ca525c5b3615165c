package futurecash

import (
	"context"
	"testing"
	"time"

	model "github.com/glkeru/loyalty/futurecash/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

// начислить баллы через колбэк
func (e *testEnv) earn(t *testing.T, user model.User, tx string, points int64) {
	t.Helper()
	offer := e.db.AddOffer(model.Offer{OfferWallID: e.offer.OfferWallID, ExternalOfferID: "ext-" + tx, Title: tx, Points: points, Status: true})
	cb := e.callback(user, tx, points)
	cb.OfferID = offer.ExternalOfferID
	res, err := e.offers.ProcessCallback(context.Background(), cb)
	require.NoError(t, err)
	require.Equal(t, model.ResultApproved, res.Result)
}

func TestRedeemInsufficient(t *testing.T) {
	e := newTestEnv(t, nil, nil)
	user := e.addUser(t, "user@example.com", 72*time.Hour)
	e.earn(t, user, "tx-50", 50)
	reward := e.db.AddReward(model.RewardOption{Name: "PayPal $1", PointsRequired: 100, Status: true})

	_, _, err := e.rewards.Redeem(context.Background(), reward.ID, user.ID, "user@paypal", "")
	require.ErrorIs(t, err, model.ErrInsufficientPoints)
	var ip *model.InsufficientPointsError
	require.ErrorAs(t, err, &ip)
	require.Equal(t, int64(100), ip.Required)
	require.Equal(t, int64(50), ip.Balance)
	require.Equal(t, int64(50), e.balance(t, user))

	list, err := e.rewards.GetHistory(context.Background(), user.ID, model.NewPage(1, 20))
	require.NoError(t, err)
	require.Empty(t, list)
	e.requireReconciled(t, user)
}

func TestRedeem(t *testing.T) {
	cont := gomock.NewController(t)
	defer cont.Finish()

	publisher := NewMockRedemptionPublisher(cont)
	e := newTestEnv(t, nil, publisher)
	user := e.addUser(t, "user@example.com", 72*time.Hour)
	e.earn(t, user, "tx-150", 150)
	reward := e.db.AddReward(model.RewardOption{Name: "Gift card", PointsRequired: 100, Status: true})

	publisher.EXPECT().PublishRedemption(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, r model.RewardRedemption) error {
			require.Equal(t, model.RedemptionPending, r.Status)
			require.Equal(t, int64(100), r.PointsUsed)
			return nil
		}).Times(1)

	redemption, balance, err := e.rewards.Redeem(context.Background(), reward.ID, user.ID, "card@example.com", "10.0.0.1")
	require.NoError(t, err)
	require.Equal(t, int64(50), balance)
	require.Equal(t, model.RedemptionPending, redemption.Status)
	require.Equal(t, int64(50), e.balance(t, user))

	got, err := e.rewards.GetRedemption(context.Background(), redemption.ID, user.ID)
	require.NoError(t, err)
	require.Equal(t, redemption.ID, got.ID)

	// чужая заявка
	_, err = e.rewards.GetRedemption(context.Background(), redemption.ID, uuid.New())
	require.ErrorIs(t, err, model.ErrNotFound)
	e.requireReconciled(t, user)
}

func TestRedeemValidation(t *testing.T) {
	e := newTestEnv(t, nil, nil)
	user := e.addUser(t, "user@example.com", 72*time.Hour)
	disabled := e.db.AddReward(model.RewardOption{Name: "Old", PointsRequired: 1})

	_, _, err := e.rewards.Redeem(context.Background(), disabled.ID, user.ID, "", "")
	require.ErrorIs(t, err, model.ErrBadRequest)

	_, _, err = e.rewards.Redeem(context.Background(), uuid.New(), user.ID, "details", "")
	require.ErrorIs(t, err, model.ErrNotFound)

	_, _, err = e.rewards.Redeem(context.Background(), disabled.ID, user.ID, "details", "")
	require.ErrorIs(t, err, model.ErrInvalidState)
}

func TestRedemptionStatus(t *testing.T) {
	e := newTestEnv(t, nil, nil)
	user := e.addUser(t, "user@example.com", 72*time.Hour)
	e.earn(t, user, "tx-100", 100)
	reward := e.db.AddReward(model.RewardOption{Name: "Gift card", PointsRequired: 100, Status: true})

	redemption, _, err := e.rewards.Redeem(context.Background(), reward.ID, user.ID, "card", "")
	require.NoError(t, err)

	updated, err := e.rewards.UpdateRedemptionStatus(context.Background(), redemption.ID, model.RedemptionProcessing, "")
	require.NoError(t, err)
	require.Equal(t, model.RedemptionProcessing, updated.Status)

	updated, err = e.rewards.UpdateRedemptionStatus(context.Background(), redemption.ID, model.RedemptionRejected, "invalid card")
	require.NoError(t, err)
	require.Equal(t, model.RedemptionRejected, updated.Status)
	require.Equal(t, "invalid card", updated.AdminNotes)

	// из конечного статуса переходов нет
	_, err = e.rewards.UpdateRedemptionStatus(context.Background(), redemption.ID, model.RedemptionCompleted, "")
	require.ErrorIs(t, err, model.ErrInvalidState)

	// отклонение баллы не возвращает
	require.Equal(t, int64(0), e.balance(t, user))
	e.requireReconciled(t, user)
}
