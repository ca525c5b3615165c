// Сборка зависимостей для бинарников cmd/*
package futurecash

import (
	"context"
	"os"
	"time"

	auth "github.com/glkeru/loyalty/futurecash/internal/auth"
	config "github.com/glkeru/loyalty/futurecash/internal/config"
	db "github.com/glkeru/loyalty/futurecash/internal/db"
	interf "github.com/glkeru/loyalty/futurecash/internal/interfaces"
	services "github.com/glkeru/loyalty/futurecash/internal/services"
	"go.uber.org/zap"
)

type Options struct {
	Events    interf.EventPublisher
	Publisher interf.RedemptionPublisher
	JWT       *auth.JWTService
}

type App struct {
	Config    *config.Config
	Storage   interf.Storage
	Locker    interf.JobLocker
	Verifiers *services.VerifierRegistry
	Ledger    *services.LedgerService
	Offers    *services.OfferService
	Videos    *services.VideoService
	Rewards   *services.RewardService
	Referrals *services.ReferralService
	Users     *services.UserService
	Stats     *services.StatsService

	closers []func()
}

// FUTURECASH_STORAGE=memory - всё в памяти, без Postgres, Redis и Mongo
func NewApp(logger *zap.Logger, cfg *config.Config, opts Options) (*App, error) {
	a := &App{Config: cfg}

	var cache interf.CacheStorage
	var callbacks interf.CallbackLog

	if os.Getenv("FUTURECASH_STORAGE") == "memory" {
		logger.Warn("In-memory storage, data is not persisted")
		a.Storage = db.NewMemoryDB()
		a.Locker = db.NewMemoryLock()
	} else {
		// database
		pg, err := db.NewPointsDB(logger)
		if err != nil {
			return nil, err
		}
		a.Storage = pg
		a.closers = append(a.closers, pg.Close)

		// cache
		client, err := db.NewRedisClient()
		if err != nil {
			logger.Error(err.Error())
		} else {
			cache = db.NewCacheService(client, cfg.Balance.CacheTTL)
			a.Locker = db.NewJobLock(client)
			a.closers = append(a.closers, func() { _ = client.Close() })
		}
		if a.Locker == nil {
			logger.Warn("Redis is not available, job lock is local")
			a.Locker = db.NewMemoryLock()
		}

		// callback log
		mgo, err := db.NewCallbackLogDB()
		if err != nil {
			logger.Error(err.Error())
		} else {
			callbacks = mgo
			a.closers = append(a.closers, func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = mgo.Close(ctx)
			})
		}
	}

	// services
	a.Ledger = services.NewLedgerService(logger, a.Storage, cache, opts.Events)
	a.Referrals = services.NewReferralService(logger, a.Storage, a.Storage, a.Storage, a.Ledger, cfg)
	a.Verifiers = services.NewVerifierRegistry(logger, cfg.Callback.Strict)
	hold := services.NewHoldPolicy(logger, a.Storage, cfg.Hold)
	a.Offers = services.NewOfferService(logger, a.Storage, a.Storage, hold, a.Verifiers, a.Referrals, a.Ledger, callbacks, cfg)
	a.Videos = services.NewVideoService(logger, a.Storage, a.Storage, a.Referrals, a.Ledger)
	a.Rewards = services.NewRewardService(logger, a.Storage, a.Ledger, opts.Publisher)
	a.Users = services.NewUserService(logger, a.Storage, a.Referrals, opts.JWT)
	a.Stats = services.NewStatsService(logger, a.Storage)
	return a, nil
}

func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}
