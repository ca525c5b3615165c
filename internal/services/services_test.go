package futurecash

import (
	"context"
	"testing"
	"time"

	auth "github.com/glkeru/loyalty/futurecash/internal/auth"
	config "github.com/glkeru/loyalty/futurecash/internal/config"
	db "github.com/glkeru/loyalty/futurecash/internal/db"
	interf "github.com/glkeru/loyalty/futurecash/internal/interfaces"
	model "github.com/glkeru/loyalty/futurecash/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const provider = "adgate"

type testEnv struct {
	db        *db.MemoryDB
	cfg       *config.Config
	ledger    *LedgerService
	referrals *ReferralService
	verifiers *VerifierRegistry
	offers    *OfferService
	videos    *VideoService
	rewards   *RewardService
	users     *UserService
	stats     *StatsService
	offer     model.Offer
}

func newTestEnv(t *testing.T, events interf.EventPublisher, publisher interf.RedemptionPublisher) *testEnv {
	t.Helper()
	logger := zap.NewNop()
	mem := db.NewMemoryDB()
	cfg := config.Default()

	e := &testEnv{db: mem, cfg: cfg}
	e.ledger = NewLedgerService(logger, mem, nil, events)
	e.referrals = NewReferralService(logger, mem, mem, mem, e.ledger, cfg)
	e.verifiers = NewVerifierRegistry(logger, false)
	hold := NewHoldPolicy(logger, mem, cfg.Hold)
	e.offers = NewOfferService(logger, mem, mem, hold, e.verifiers, e.referrals, e.ledger, nil, cfg)
	e.videos = NewVideoService(logger, mem, mem, e.referrals, e.ledger)
	e.rewards = NewRewardService(logger, mem, e.ledger, publisher)
	e.users = NewUserService(logger, mem, e.referrals, auth.NewJWTService("test", time.Hour))
	e.stats = NewStatsService(logger, mem)

	wall := mem.AddOfferWall(model.OfferWall{Name: provider, Status: true})
	e.offer = mem.AddOffer(model.Offer{
		OfferWallID:     wall.ID,
		ExternalOfferID: "ext-100",
		Title:           "Survey",
		OfferURL:        "https://provider.example/go?offer=100",
		Points:          100,
		Status:          true,
	})
	return e
}

// пользователь старше суток - без холда по возрасту
func (e *testEnv) addUser(t *testing.T, email string, age time.Duration) model.User {
	t.Helper()
	user, err := e.db.CreateUser(context.Background(), model.User{
		Email:        email,
		Fullname:     email,
		ReferralCode: uuid.NewString()[:8],
		CreatedAt:    time.Now().Add(-age),
	}, model.UserActivity{ActivityType: model.ActivityRegistration})
	require.NoError(t, err)
	return user
}

func (e *testEnv) callback(user model.User, tx string, points int64) model.Callback {
	return model.Callback{
		TransactionID: tx,
		UserID:        user.ID.String(),
		OfferID:       e.offer.ExternalOfferID,
		Points:        points,
		Provider:      provider,
		IPAddress:     "10.0.0.1",
	}
}

func (e *testEnv) balance(t *testing.T, user model.User) int64 {
	t.Helper()
	b, err := e.db.GetBalance(context.Background(), user.ID)
	require.NoError(t, err)
	return b
}

// баланс == сумма журнала
func (e *testEnv) requireReconciled(t *testing.T, users ...model.User) {
	t.Helper()
	for _, u := range users {
		r, err := e.ledger.Reconcile(context.Background(), u.ID)
		require.NoError(t, err)
		require.True(t, r.OK, "user %s balance %d ledger %d", u.Email, r.Balance, r.LedgerSum)
	}
}
