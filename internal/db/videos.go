package futurecash

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	model "github.com/glkeru/loyalty/futurecash/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

var videoColumns = []string{"id", "title", "video_url", "points", "watch_time_seconds", "status", "created_at", "updated_at"}

var viewColumns = []string{"id", "user_id", "video_id", "points_awarded", "watch_time_seconds", "status", "ip_address", "created_at", "updated_at"}

func scanVideo(row pgx.Row) (v model.Video, err error) {
	err = row.Scan(&v.ID, &v.Title, &v.VideoURL, &v.Points, &v.WatchTimeSeconds, &v.Status, &v.CreatedAt, &v.UpdatedAt)
	return v, err
}

func scanView(row pgx.Row) (v model.VideoView, err error) {
	err = row.Scan(&v.ID, &v.UserID, &v.VideoID, &v.PointsAwarded, &v.WatchTimeSeconds, &v.Status, &v.IPAddress, &v.CreatedAt, &v.UpdatedAt)
	return v, err
}

func (p *PointsDB) GetVideos(ctx context.Context, page model.Page) ([]model.Video, error) {
	rows, err := p.query(ctx, p.pool, sq.Select(videoColumns...).
		From("videos").
		Where(sq.Eq{"status": true}).
		OrderBy("created_at DESC").
		Limit(page.Limit).
		Offset(page.Offset).
		PlaceholderFormat(sq.Dollar))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := []model.Video{}
	for rows.Next() {
		v, err := scanVideo(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, v)
	}
	return list, rows.Err()
}

func (p *PointsDB) GetVideo(ctx context.Context, id uuid.UUID) (model.Video, error) {
	row, err := p.queryRow(ctx, p.pool, sq.Select(videoColumns...).
		From("videos").
		Where(sq.Eq{"id": id}).
		PlaceholderFormat(sq.Dollar))
	if err != nil {
		return model.Video{}, err
	}
	v, err := scanVideo(row)
	if err != nil {
		return model.Video{}, notFound(err, "video")
	}
	return v, nil
}

func (p *PointsDB) HasCompletedView(ctx context.Context, userID uuid.UUID, videoID uuid.UUID) (exists bool, err error) {
	row, err := p.queryRow(ctx, p.pool, sq.Select("1").
		Prefix("SELECT EXISTS (").
		From("video_views").
		Where(sq.Eq{"user_id": userID, "video_id": videoID, "status": model.ViewCompleted}).
		Suffix(")").
		PlaceholderFormat(sq.Dollar))
	if err != nil {
		return false, err
	}
	err = row.Scan(&exists)
	return exists, err
}

func (p *PointsDB) insertView(ctx context.Context, q querier, view model.VideoView) error {
	_, err := p.exec(ctx, q, sq.Insert("video_views").
		Columns(viewColumns...).
		Values(view.ID, view.UserID, view.VideoID, view.PointsAwarded, view.WatchTimeSeconds, view.Status, view.IPAddress, view.CreatedAt, view.UpdatedAt).
		PlaceholderFormat(sq.Dollar))
	return err
}

// Частичный просмотр: без баллов, можно повторять
func (p *PointsDB) SavePartialView(ctx context.Context, view model.VideoView) (model.VideoView, error) {
	if view.ID == uuid.Nil {
		view.ID = uuid.New()
	}
	view.Status = model.ViewPartial
	view.PointsAwarded = 0
	view.CreatedAt = time.Now()
	view.UpdatedAt = view.CreatedAt

	err := p.insertView(ctx, p.pool, view)
	if err != nil {
		return model.VideoView{}, err
	}
	return view, nil
}

// Завершенный просмотр + начисление. Повтор отсекает частичный
// уникальный индекс uq_video_completed.
func (p *PointsDB) SaveCompletedView(ctx context.Context, view model.VideoView, activity model.UserActivity) (model.VideoView, int64, error) {
	if view.ID == uuid.Nil {
		view.ID = uuid.New()
	}
	view.Status = model.ViewCompleted
	view.CreatedAt = time.Now()
	view.UpdatedAt = view.CreatedAt
	activity.UserID = view.UserID

	var balance int64
	err := p.inTx(ctx, "SaveCompletedView", func(tx pgx.Tx) error {
		current, err := p.lockBalance(ctx, tx, view.UserID)
		if err != nil {
			return err
		}
		err = p.insertView(ctx, tx, view)
		if err != nil {
			if isUniqueViolation(err, "uq_video_completed") {
				return model.ErrAlreadyWatched
			}
			return err
		}
		balance, err = p.writeLedger(ctx, tx, current, activity)
		return err
	})
	if err != nil {
		return model.VideoView{}, 0, err
	}
	return view, balance, nil
}

func (p *PointsDB) GetVideoViews(ctx context.Context, userID uuid.UUID, page model.Page) ([]model.VideoView, error) {
	rows, err := p.query(ctx, p.pool, sq.Select(viewColumns...).
		From("video_views").
		Where(sq.Eq{"user_id": userID}).
		OrderBy("created_at DESC").
		Limit(page.Limit).
		Offset(page.Offset).
		PlaceholderFormat(sq.Dollar))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := []model.VideoView{}
	for rows.Next() {
		v, err := scanView(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, v)
	}
	return list, rows.Err()
}
