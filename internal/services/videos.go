package futurecash

import (
	"context"
	"errors"
	"fmt"

	interf "github.com/glkeru/loyalty/futurecash/internal/interfaces"
	model "github.com/glkeru/loyalty/futurecash/internal/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type VideoService struct {
	logger    *zap.Logger
	db        interf.VideoStorage
	offers    interf.OfferStorage
	referrals *ReferralService
	ledger    *LedgerService
}

func NewVideoService(logger *zap.Logger, db interf.VideoStorage, offers interf.OfferStorage, referrals *ReferralService, ledger *LedgerService) *VideoService {
	return &VideoService{logger, db, offers, referrals, ledger}
}

type WatchInfo struct {
	WatchTimeRequired int   `json:"watch_time_required"`
	Points            int64 `json:"points"`
}

type WatchResult struct {
	PointsEarned int64 `json:"points_earned"`
	NewBalance   int64 `json:"new_balance"`
}

func (s *VideoService) GetVideos(ctx context.Context, page model.Page) ([]model.Video, error) {
	return s.db.GetVideos(ctx, page)
}

func (s *VideoService) getVideo(ctx context.Context, id uuid.UUID) (model.Video, error) {
	video, err := s.db.GetVideo(ctx, id)
	if err != nil {
		return model.Video{}, err
	}
	if !video.Status {
		return model.Video{}, fmt.Errorf("video %w", model.ErrNotFound)
	}
	return video, nil
}

// Начало просмотра: только информация, состояние не меняется
func (s *VideoService) StartWatch(ctx context.Context, videoID uuid.UUID, userID uuid.UUID, ip string, userAgent string) (WatchInfo, error) {
	video, err := s.getVideo(ctx, videoID)
	if err != nil {
		return WatchInfo{}, err
	}
	watched, err := s.db.HasCompletedView(ctx, userID, videoID)
	if err != nil {
		return WatchInfo{}, err
	}
	if watched {
		return WatchInfo{}, model.ErrAlreadyWatched
	}

	if s.offers != nil {
		err = s.offers.TrackIP(ctx, model.IPHistory{UserID: userID, IPAddress: ip, UserAgent: userAgent})
		if err != nil {
			s.logger.Error("Track ip", zap.Error(err), zap.String("user_id", userID.String()))
		}
	}
	err = s.ledger.LogActivity(ctx, model.UserActivity{
		UserID:       userID,
		ActivityType: model.ActivityVideoStart,
		Description:  fmt.Sprintf("Started watching video: %s", video.Title),
		IPAddress:    ip,
	})
	if err != nil {
		return WatchInfo{}, err
	}
	return WatchInfo{WatchTimeRequired: video.WatchTimeSeconds, Points: video.Points}, nil
}

// Завершение просмотра. Баллы начисляются один раз на пару пользователь/видео.
func (s *VideoService) CompleteWatch(ctx context.Context, videoID uuid.UUID, userID uuid.UUID, watchTime int, ip string) (WatchResult, error) {
	ctx, span := tracer.Start(ctx, "CompleteWatch")
	defer span.End()

	video, err := s.getVideo(ctx, videoID)
	if err != nil {
		return WatchResult{}, err
	}
	watched, err := s.db.HasCompletedView(ctx, userID, videoID)
	if err != nil {
		return WatchResult{}, err
	}
	if watched {
		return WatchResult{}, model.ErrAlreadyWatched
	}

	view := model.VideoView{
		UserID:           userID,
		VideoID:          videoID,
		WatchTimeSeconds: watchTime,
		IPAddress:        ip,
	}

	// недосмотр: частичный просмотр без баллов, можно повторить
	if watchTime < video.WatchTimeSeconds {
		_, err = s.db.SavePartialView(ctx, view)
		if err != nil {
			return WatchResult{}, err
		}
		return WatchResult{}, &model.WatchTimeError{Required: video.WatchTimeSeconds, Provided: watchTime}
	}

	view.PointsAwarded = video.Points
	activity := model.UserActivity{
		ActivityType: model.ActivityVideoCompleted,
		PointsChange: video.Points,
		Description:  fmt.Sprintf("Watched video: %s", video.Title),
		IPAddress:    ip,
	}
	_, balance, err := s.db.SaveCompletedView(ctx, view, activity)
	if err != nil {
		if errors.Is(err, model.ErrAlreadyWatched) {
			return WatchResult{}, model.ErrAlreadyWatched
		}
		return WatchResult{}, err
	}

	s.ledger.Settled(ctx, userID, model.ActivityVideoCompleted, video.Points, balance)
	s.referrals.afterEarning(ctx, userID, video.Points, model.ActivityVideoCompleted)
	return WatchResult{PointsEarned: video.Points, NewBalance: balance}, nil
}

func (s *VideoService) GetHistory(ctx context.Context, userID uuid.UUID, page model.Page) ([]model.VideoView, error) {
	return s.db.GetVideoViews(ctx, userID, page)
}
