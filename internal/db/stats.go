package futurecash

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	model "github.com/glkeru/loyalty/futurecash/internal/models"
	"golang.org/x/sync/errgroup"
)

var statColumns = []string{"date", "total_users", "new_users", "offer_completions", "video_views", "redemptions", "points_earned", "points_spent", "created_at"}

func (p *PointsDB) GetDailyStat(ctx context.Context, date time.Time) (s model.DailyStat, err error) {
	row, err := p.queryRow(ctx, p.pool, sq.Select(statColumns...).
		From("daily_stats").
		Where(sq.Eq{"date": date.UTC().Format("2006-01-02")}).
		PlaceholderFormat(sq.Dollar))
	if err != nil {
		return model.DailyStat{}, err
	}
	err = row.Scan(&s.Date, &s.TotalUsers, &s.NewUsers, &s.OfferCompletions, &s.VideoViews, &s.Redemptions, &s.PointsEarned, &s.PointsSpent, &s.CreatedAt)
	if err != nil {
		return model.DailyStat{}, notFound(err, "daily stat")
	}
	return s, nil
}

// Агрегаты за период [from, to) - запросы параллельно
func (p *PointsDB) CollectDailyStat(ctx context.Context, from time.Time, to time.Time) (model.DailyStat, error) {
	stat := model.DailyStat{Date: from}

	count := func(dest *int64, b sq.SelectBuilder) func() error {
		return func() error {
			row, err := p.queryRow(ctx, p.pool, b.PlaceholderFormat(sq.Dollar))
			if err != nil {
				return err
			}
			return row.Scan(dest)
		}
	}
	period := sq.And{sq.GtOrEq{"created_at": from}, sq.Lt{"created_at": to}}

	g, _ := errgroup.WithContext(ctx)
	g.Go(count(&stat.TotalUsers, sq.Select("COUNT(*)").From("users").Where(sq.Lt{"created_at": to})))
	g.Go(count(&stat.NewUsers, sq.Select("COUNT(*)").From("users").Where(period)))
	g.Go(count(&stat.OfferCompletions, sq.Select("COUNT(*)").From("offer_completions").
		Where(sq.Eq{"status": model.CompletionApproved}).
		Where(sq.GtOrEq{"completion_time": from}).
		Where(sq.Lt{"completion_time": to})))
	g.Go(count(&stat.VideoViews, sq.Select("COUNT(*)").From("video_views").
		Where(sq.Eq{"status": model.ViewCompleted}).
		Where(period)))
	g.Go(count(&stat.Redemptions, sq.Select("COUNT(*)").From("reward_redemptions").Where(period)))
	g.Go(count(&stat.PointsEarned, sq.Select("COALESCE(SUM(points_change), 0)").From("user_activities").
		Where(sq.Gt{"points_change": 0}).
		Where(period)))
	g.Go(count(&stat.PointsSpent, sq.Select("COALESCE(-SUM(points_change), 0)").From("user_activities").
		Where(sq.Eq{"activity_type": model.ActivityRewardRedeemed}).
		Where(period)))

	err := g.Wait()
	if err != nil {
		return model.DailyStat{}, err
	}
	return stat, nil
}

// Сохранение один раз за дату
func (p *PointsDB) SaveDailyStat(ctx context.Context, stat model.DailyStat) (model.DailyStat, error) {
	stat.CreatedAt = time.Now()
	_, err := p.exec(ctx, p.pool, sq.Insert("daily_stats").
		Columns(statColumns...).
		Values(stat.Date.UTC().Format("2006-01-02"), stat.TotalUsers, stat.NewUsers, stat.OfferCompletions, stat.VideoViews, stat.Redemptions, stat.PointsEarned, stat.PointsSpent, stat.CreatedAt).
		PlaceholderFormat(sq.Dollar))
	if err != nil {
		if isUniqueViolation(err, "") {
			existing, gerr := p.GetDailyStat(ctx, stat.Date)
			if gerr != nil {
				return model.DailyStat{}, gerr
			}
			return existing, fmt.Errorf("daily stat %w", model.ErrDuplicate)
		}
		return model.DailyStat{}, err
	}
	return stat, nil
}
