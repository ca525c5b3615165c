package futurecash

import (
	"context"
	"testing"
	"time"

	model "github.com/glkeru/loyalty/futurecash/internal/models"
	"github.com/stretchr/testify/require"
)

func TestReferralCommission(t *testing.T) {
	e := newTestEnv(t, nil, nil)
	ctx := context.Background()
	referrer := e.addUser(t, "referrer@example.com", 72*time.Hour)
	referred := e.addUser(t, "referred@example.com", 72*time.Hour)

	ref, err := e.referrals.CreateReferral(ctx, referred.ID, referrer.ReferralCode)
	require.NoError(t, err)
	require.Equal(t, model.ReferralActive, ref.Status)

	// повторная привязка возвращает ту же связь
	again, err := e.referrals.CreateReferral(ctx, referred.ID, referrer.ReferralCode)
	require.NoError(t, err)
	require.Equal(t, ref.ID, again.ID)

	res, err := e.offers.ProcessCallback(ctx, e.callback(referred, "tx-ref", 100))
	require.NoError(t, err)
	require.Equal(t, model.ResultApproved, res.Result)

	require.Equal(t, int64(100), e.balance(t, referred))
	require.Equal(t, int64(10), e.balance(t, referrer))

	info, err := e.referrals.GetReferrals(ctx, referrer.ID)
	require.NoError(t, err)
	require.Equal(t, 1, info.TotalReferrals)
	require.Equal(t, int64(10), info.TotalEarnings)
	require.Equal(t, int64(10), info.Referrals[0].PointsEarned)
	require.Equal(t, "https://futurecash.app/register?ref="+referrer.ReferralCode, info.ReferralLink)

	// видео тоже дает комиссию
	video := e.db.AddVideo(model.Video{Title: "Ad", Points: 50, WatchTimeSeconds: 10, Status: true})
	_, err = e.videos.CompleteWatch(ctx, video.ID, referred.ID, 10, "")
	require.NoError(t, err)
	require.Equal(t, int64(15), e.balance(t, referrer))

	e.requireReconciled(t, referrer, referred)
}

func TestReferralPercentageSetting(t *testing.T) {
	e := newTestEnv(t, nil, nil)
	ctx := context.Background()
	referrer := e.addUser(t, "referrer@example.com", 72*time.Hour)
	referred := e.addUser(t, "referred@example.com", 72*time.Hour)
	_, err := e.referrals.CreateReferral(ctx, referred.ID, referrer.ReferralCode)
	require.NoError(t, err)

	e.db.SetSetting(referralPercentageKey, "0.25")
	points, err := e.referrals.AwardReferralPoints(ctx, referred.ID, 7, model.ActivityOfferCompleted)
	require.NoError(t, err)
	require.Equal(t, int64(1), points)

	// floor(3 * 0.25) = 0 - без записи
	points, err = e.referrals.AwardReferralPoints(ctx, referred.ID, 3, model.ActivityOfferCompleted)
	require.NoError(t, err)
	require.Equal(t, int64(0), points)

	points, err = e.referrals.AwardReferralPoints(ctx, referrer.ID, 100, model.ActivityOfferCompleted)
	require.NoError(t, err)
	require.Equal(t, int64(0), points)

	require.Equal(t, int64(1), e.balance(t, referrer))
	e.requireReconciled(t, referrer, referred)
}

func TestValidateCode(t *testing.T) {
	e := newTestEnv(t, nil, nil)
	ctx := context.Background()
	referrer := e.addUser(t, "referrer@example.com", 72*time.Hour)

	_, err := e.referrals.ValidateCode(ctx, "", nil)
	require.ErrorIs(t, err, model.ErrBadRequest)

	_, err = e.referrals.ValidateCode(ctx, "NOPE", nil)
	require.ErrorIs(t, err, model.ErrNotFound)

	_, err = e.referrals.ValidateCode(ctx, referrer.ReferralCode, &referrer.ID)
	require.ErrorIs(t, err, model.ErrSelfReferral)

	got, err := e.referrals.ValidateCode(ctx, referrer.ReferralCode, nil)
	require.NoError(t, err)
	require.Equal(t, referrer.ID, got.ID)

	_, err = e.referrals.CreateReferral(ctx, referrer.ID, referrer.ReferralCode)
	require.ErrorIs(t, err, model.ErrSelfReferral)
}
