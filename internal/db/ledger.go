package futurecash

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	model "github.com/glkeru/loyalty/futurecash/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgtype"
	"github.com/jackc/pgx/v5"
)

var activityColumns = []string{"id", "user_id", "activity_type", "points_change", "description", "ip_address", "created_at"}

func scanActivity(row pgx.Row) (a model.UserActivity, err error) {
	var ip pgtype.Text
	err = row.Scan(&a.ID, &a.UserID, &a.ActivityType, &a.PointsChange, &a.Description, &ip, &a.CreatedAt)
	a.IPAddress = ip.String
	return a, err
}

// Получить баланс
func (p *PointsDB) GetBalance(ctx context.Context, userID uuid.UUID) (points int64, err error) {
	row := p.pool.QueryRow(ctx, "SELECT points_balance FROM users WHERE id = $1", userID)
	err = row.Scan(&points)
	if err != nil {
		return 0, notFound(err, "user")
	}
	return points, nil
}

func (p *PointsDB) listActivities(ctx context.Context, b sq.SelectBuilder) ([]model.UserActivity, error) {
	rows, err := p.query(ctx, p.pool, b)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := []model.UserActivity{}
	for rows.Next() {
		a, err := scanActivity(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, a)
	}
	return list, rows.Err()
}

func (p *PointsDB) GetActivities(ctx context.Context, userID uuid.UUID, nonZero bool, page model.Page) ([]model.UserActivity, error) {
	b := sq.Select(activityColumns...).
		From("user_activities").
		Where(sq.Eq{"user_id": userID}).
		OrderBy("created_at DESC").
		Limit(page.Limit).
		Offset(page.Offset).
		PlaceholderFormat(sq.Dollar)
	if nonZero {
		b = b.Where(sq.NotEq{"points_change": 0})
	}
	return p.listActivities(ctx, b)
}

func (p *PointsDB) GetActivitiesBetween(ctx context.Context, userID uuid.UUID, from time.Time, to time.Time) ([]model.UserActivity, error) {
	return p.listActivities(ctx, sq.Select(activityColumns...).
		From("user_activities").
		Where(sq.Eq{"user_id": userID}).
		Where(sq.GtOrEq{"created_at": from}).
		Where(sq.LtOrEq{"created_at": to}).
		OrderBy("created_at").
		PlaceholderFormat(sq.Dollar))
}

// Сумма журнала - для сверки с балансом
func (p *PointsDB) SumActivities(ctx context.Context, userID uuid.UUID) (sum int64, err error) {
	row := p.pool.QueryRow(ctx, "SELECT COALESCE(SUM(points_change), 0) FROM user_activities WHERE user_id = $1", userID)
	err = row.Scan(&sum)
	return sum, err
}

// Запись без изменения баланса (клик, старт видео)
func (p *PointsDB) LogActivity(ctx context.Context, activity model.UserActivity) error {
	if activity.ID == uuid.Nil {
		activity.ID = uuid.New()
	}
	if activity.CreatedAt.IsZero() {
		activity.CreatedAt = time.Now()
	}
	_, err := p.exec(ctx, p.pool, sq.Insert("user_activities").
		Columns(activityColumns...).
		Values(activity.ID, activity.UserID, activity.ActivityType, 0, activity.Description, activity.IPAddress, activity.CreatedAt).
		PlaceholderFormat(sq.Dollar))
	return err
}
