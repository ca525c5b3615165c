package futurecash

import (
	"context"
	"time"

	interf "github.com/glkeru/loyalty/futurecash/internal/interfaces"
	model "github.com/glkeru/loyalty/futurecash/internal/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type LedgerService struct {
	logger *zap.Logger
	db     interf.LedgerStorage
	cache  interf.CacheStorage
	events interf.EventPublisher
}

func NewLedgerService(logger *zap.Logger, db interf.LedgerStorage, cache interf.CacheStorage, events interf.EventPublisher) *LedgerService {
	return &LedgerService{logger, db, cache, events}
}

type PointsSummary struct {
	Balance      int64                `json:"points_balance"`
	Transactions []model.UserActivity `json:"transactions"`
}

type Reconciliation struct {
	User      uuid.UUID `json:"user_id"`
	Balance   int64     `json:"points_balance"`
	LedgerSum int64     `json:"ledger_sum"`
	OK        bool      `json:"ok"`
}

// После коммита изменения баланса: кэш, событие, метрики.
// Ошибки только логируются - баланс уже зафиксирован.
func (l *LedgerService) Settled(ctx context.Context, user uuid.UUID, activityType string, delta int64, balance int64) {
	switch {
	case delta > 0:
		pointsCredited.WithLabelValues(activityType).Add(float64(delta))
	case delta < 0:
		pointsDebited.WithLabelValues(activityType).Add(float64(-delta))
	}

	err := l.InvalidateBalance(ctx, user)
	if err != nil {
		l.logger.Error("Invalidate balance", zap.Error(err), zap.String("user_id", user.String()))
	}

	if l.events != nil {
		event := model.PointsEvent{
			ID:           uuid.New(),
			UserID:       user,
			ActivityType: activityType,
			PointsChange: delta,
			Balance:      balance,
			CreatedAt:    time.Now(),
		}
		err = l.events.PublishPoints(ctx, event)
		if err != nil {
			l.logger.Error("Publish points event", zap.Error(err), zap.String("user_id", user.String()))
		}
	}
}

// баланс
func (l *LedgerService) GetBalance(ctx context.Context, user uuid.UUID) (points int64, err error) {
	// cache
	if l.cache != nil {
		points, err = l.cache.GetBalance(ctx, user)
		if err == nil {
			return points, nil
		}
	}
	// database
	points, err = l.db.GetBalance(ctx, user)
	if err != nil {
		return 0, err
	}
	if l.cache != nil {
		_ = l.cache.SetBalance(ctx, user, points)
	}
	return points, nil
}

// инвалидировать кэш баланса
func (l *LedgerService) InvalidateBalance(ctx context.Context, user uuid.UUID) error {
	if l.cache != nil {
		return l.cache.InvalidateBalance(ctx, user)
	}
	return nil
}

// Баланс + движения баллов
func (l *LedgerService) GetPoints(ctx context.Context, user uuid.UUID, page model.Page) (PointsSummary, error) {
	balance, err := l.GetBalance(ctx, user)
	if err != nil {
		return PointsSummary{}, err
	}
	list, err := l.db.GetActivities(ctx, user, true, page)
	if err != nil {
		return PointsSummary{}, err
	}
	return PointsSummary{balance, list}, nil
}

// Вся активность
func (l *LedgerService) GetActivities(ctx context.Context, user uuid.UUID, page model.Page) ([]model.UserActivity, error) {
	return l.db.GetActivities(ctx, user, false, page)
}

// История за период
func (l *LedgerService) GetHistory(ctx context.Context, user uuid.UUID, from time.Time, to time.Time) ([]model.UserActivity, error) {
	_, err := l.db.GetBalance(ctx, user)
	if err != nil {
		return nil, err
	}
	return l.db.GetActivitiesBetween(ctx, user, from, to)
}

// Сверка: баланс == сумма журнала
func (l *LedgerService) Reconcile(ctx context.Context, user uuid.UUID) (Reconciliation, error) {
	balance, err := l.db.GetBalance(ctx, user)
	if err != nil {
		return Reconciliation{}, err
	}
	sum, err := l.db.SumActivities(ctx, user)
	if err != nil {
		return Reconciliation{}, err
	}
	r := Reconciliation{User: user, Balance: balance, LedgerSum: sum, OK: balance == sum}
	if !r.OK {
		l.logger.Error("Ledger mismatch",
			zap.String("user_id", user.String()),
			zap.Int64("balance", balance),
			zap.Int64("ledger_sum", sum),
		)
	}
	return r, nil
}

// Запись без изменения баланса
func (l *LedgerService) LogActivity(ctx context.Context, activity model.UserActivity) error {
	err := l.db.LogActivity(ctx, activity)
	if err != nil {
		l.logger.Error("Log activity", zap.Error(err), zap.String("activity", activity.ActivityType))
	}
	return err
}
