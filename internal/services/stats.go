package futurecash

import (
	"context"
	"errors"
	"time"

	interf "github.com/glkeru/loyalty/futurecash/internal/interfaces"
	model "github.com/glkeru/loyalty/futurecash/internal/models"
	"go.uber.org/zap"
)

type StatsService struct {
	logger *zap.Logger
	db     interf.StatsStorage
}

func NewStatsService(logger *zap.Logger, db interf.StatsStorage) *StatsService {
	return &StatsService{logger, db}
}

// Статистика за предыдущие сутки UTC, один раз на дату
func (s *StatsService) GenerateDailyStats(ctx context.Context, now time.Time) (model.DailyStat, error) {
	to := now.UTC().Truncate(24 * time.Hour)
	from := to.Add(-24 * time.Hour)

	existing, err := s.db.GetDailyStat(ctx, from)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, model.ErrNotFound) {
		return model.DailyStat{}, err
	}

	stat, err := s.db.CollectDailyStat(ctx, from, to)
	if err != nil {
		return model.DailyStat{}, err
	}
	stat.Date = from
	saved, err := s.db.SaveDailyStat(ctx, stat)
	if err != nil {
		// параллельный запуск уже сохранил
		if errors.Is(err, model.ErrDuplicate) {
			return saved, nil
		}
		return model.DailyStat{}, err
	}
	s.logger.Info("Daily stats generated",
		zap.String("date", from.Format("2006-01-02")),
		zap.Int64("new_users", saved.NewUsers),
		zap.Int64("points_earned", saved.PointsEarned),
	)
	return saved, nil
}

func (s *StatsService) GetDailyStat(ctx context.Context, date time.Time) (model.DailyStat, error) {
	return s.db.GetDailyStat(ctx, date)
}
