package futurecash

import (
	"context"
	"time"

	model "github.com/glkeru/loyalty/futurecash/internal/models"
	"github.com/google/uuid"
)

//go:generate mockgen -destination=./../services/mock_futurecash_test.go -package=futurecash . FraudStorage,EventPublisher,RedemptionPublisher

// Каждая операция, меняющая баланс, выполняется одной транзакцией:
// блокировка пользователя, изменение баланса и запись в журнал.

type UserStorage interface {
	CreateUser(ctx context.Context, user model.User, activity model.UserActivity) (model.User, error)
	GetUser(ctx context.Context, id uuid.UUID) (model.User, error)
	GetUserByEmail(ctx context.Context, email string) (model.User, error)
	GetUserByReferralCode(ctx context.Context, code string) (model.User, error)
}

type OfferStorage interface {
	GetOfferWalls(ctx context.Context) ([]model.OfferWall, error)
	GetOffers(ctx context.Context, page model.Page) ([]model.Offer, error)
	GetOffer(ctx context.Context, id uuid.UUID) (model.Offer, error)
	GetOfferByExternal(ctx context.Context, provider string, externalID string) (model.Offer, error)
	TransactionExists(ctx context.Context, transactionID string) (bool, error)
	CountCompletionsByIP(ctx context.Context, ip string, since time.Time) (int, error)
	SaveCompletion(ctx context.Context, completion model.OfferCompletion, activity model.UserActivity) (model.OfferCompletion, int64, error)
	Chargeback(ctx context.Context, userID uuid.UUID, offerID uuid.UUID, transactionID string, activity model.UserActivity) (completion model.OfferCompletion, delta int64, balance int64, err error)
	GetDueHeldCompletions(ctx context.Context, now time.Time, limit uint64) ([]model.OfferCompletion, error)
	ApproveHeld(ctx context.Context, completionID uuid.UUID, now time.Time, activity model.UserActivity) (model.OfferCompletion, int64, error)
	GetCompletions(ctx context.Context, userID uuid.UUID, status string, page model.Page) ([]model.OfferCompletion, error)
	TrackIP(ctx context.Context, history model.IPHistory) error
}

type FraudStorage interface {
	GetUser(ctx context.Context, id uuid.UUID) (model.User, error)
	CountCompletionsByIP(ctx context.Context, ip string, since time.Time) (int, error)
}

type VideoStorage interface {
	GetVideos(ctx context.Context, page model.Page) ([]model.Video, error)
	GetVideo(ctx context.Context, id uuid.UUID) (model.Video, error)
	HasCompletedView(ctx context.Context, userID uuid.UUID, videoID uuid.UUID) (bool, error)
	SavePartialView(ctx context.Context, view model.VideoView) (model.VideoView, error)
	SaveCompletedView(ctx context.Context, view model.VideoView, activity model.UserActivity) (model.VideoView, int64, error)
	GetVideoViews(ctx context.Context, userID uuid.UUID, page model.Page) ([]model.VideoView, error)
}

type RewardStorage interface {
	GetRewards(ctx context.Context) ([]model.RewardOption, error)
	GetReward(ctx context.Context, id uuid.UUID) (model.RewardOption, error)
	Redeem(ctx context.Context, redemption model.RewardRedemption, activity model.UserActivity) (model.RewardRedemption, int64, error)
	GetRedemption(ctx context.Context, id uuid.UUID) (model.RewardRedemption, error)
	UpdateRedemptionStatus(ctx context.Context, id uuid.UUID, from string, to string, notes string) (model.RewardRedemption, error)
	GetRedemptions(ctx context.Context, userID uuid.UUID, page model.Page) ([]model.RewardRedemption, error)
}

type ReferralStorage interface {
	CreateReferral(ctx context.Context, referral model.Referral, activity model.UserActivity) (model.Referral, bool, error)
	GetReferralByReferred(ctx context.Context, referredID uuid.UUID) (model.Referral, error)
	AwardCommission(ctx context.Context, referralID uuid.UUID, activity model.UserActivity) (model.Referral, int64, error)
	GetReferrals(ctx context.Context, referrerID uuid.UUID) ([]model.ReferredUser, error)
}

type LedgerStorage interface {
	GetBalance(ctx context.Context, userID uuid.UUID) (int64, error)
	GetActivities(ctx context.Context, userID uuid.UUID, nonZero bool, page model.Page) ([]model.UserActivity, error)
	GetActivitiesBetween(ctx context.Context, userID uuid.UUID, from time.Time, to time.Time) ([]model.UserActivity, error)
	SumActivities(ctx context.Context, userID uuid.UUID) (int64, error)
	LogActivity(ctx context.Context, activity model.UserActivity) error
}

type SettingsStorage interface {
	GetSetting(ctx context.Context, key string) (string, error)
}

type StatsStorage interface {
	GetDailyStat(ctx context.Context, date time.Time) (model.DailyStat, error)
	CollectDailyStat(ctx context.Context, from time.Time, to time.Time) (model.DailyStat, error)
	SaveDailyStat(ctx context.Context, stat model.DailyStat) (model.DailyStat, error)
}

type Storage interface {
	UserStorage
	OfferStorage
	VideoStorage
	RewardStorage
	ReferralStorage
	LedgerStorage
	SettingsStorage
	StatsStorage
}

type CacheStorage interface {
	GetBalance(ctx context.Context, user uuid.UUID) (points int64, err error)
	SetBalance(ctx context.Context, user uuid.UUID, points int64) (err error)
	InvalidateBalance(ctx context.Context, user uuid.UUID) error
}

// Блокировка периодических задач (один экземпляр)
type JobLocker interface {
	Lock(ctx context.Context, job string, ttl time.Duration) (unlock func(ctx context.Context) error, err error)
}

type EventPublisher interface {
	PublishPoints(ctx context.Context, event model.PointsEvent) error
}

type RedemptionPublisher interface {
	PublishRedemption(ctx context.Context, redemption model.RewardRedemption) error
}

type CallbackLog interface {
	SaveCallback(ctx context.Context, record model.CallbackRecord) error
}

// Проверка подписи провайдера
type Verifier interface {
	Verify(ctx context.Context, callback model.Callback) error
}
