package futurecash

import (
	"context"
	"errors"
	"fmt"

	config "github.com/glkeru/loyalty/futurecash/internal/config"
	interf "github.com/glkeru/loyalty/futurecash/internal/interfaces"
	model "github.com/glkeru/loyalty/futurecash/internal/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const referralPercentageKey = "referral_points_percentage"

type ReferralService struct {
	logger   *zap.Logger
	db       interf.ReferralStorage
	users    interf.UserStorage
	settings interf.SettingsStorage
	ledger   *LedgerService
	cfg      *config.Config
}

func NewReferralService(logger *zap.Logger, db interf.ReferralStorage, users interf.UserStorage, settings interf.SettingsStorage, ledger *LedgerService, cfg *config.Config) *ReferralService {
	return &ReferralService{logger, db, users, settings, ledger, cfg}
}

type ReferralInfo struct {
	ReferralCode   string               `json:"referral_code"`
	ReferralLink   string               `json:"referral_link"`
	TotalReferrals int                  `json:"total_referrals"`
	TotalEarnings  int64                `json:"total_earnings"`
	Referrals      []model.ReferredUser `json:"referrals"`
}

// Проверка кода; caller - текущий пользователь, если известен
func (s *ReferralService) ValidateCode(ctx context.Context, code string, caller *uuid.UUID) (model.User, error) {
	if code == "" {
		return model.User{}, fmt.Errorf("referral code is required: %w", model.ErrBadRequest)
	}
	referrer, err := s.users.GetUserByReferralCode(ctx, code)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return model.User{}, fmt.Errorf("invalid referral code: %w", model.ErrNotFound)
		}
		return model.User{}, err
	}
	if caller != nil && referrer.ID == *caller {
		return model.User{}, model.ErrSelfReferral
	}
	return referrer, nil
}

// Привязка пользователя к пригласившему. Повторный вызов возвращает существующую связь.
func (s *ReferralService) CreateReferral(ctx context.Context, userID uuid.UUID, code string) (model.Referral, error) {
	referrer, err := s.ValidateCode(ctx, code, &userID)
	if err != nil {
		return model.Referral{}, err
	}

	referral := model.Referral{
		ReferrerID: referrer.ID,
		ReferredID: userID,
		Status:     model.ReferralActive,
	}
	activity := model.UserActivity{
		ActivityType: model.ActivityReferralJoined,
		Description:  "Joined using referral code: " + code,
	}
	r, created, err := s.db.CreateReferral(ctx, referral, activity)
	if err != nil {
		return model.Referral{}, err
	}
	if created {
		s.logger.Info("Referral created",
			zap.String("referrer_id", referrer.ID.String()),
			zap.String("referred_id", userID.String()),
		)
	}
	return r, nil
}

// процент комиссии: system_settings, иначе конфиг
func (s *ReferralService) percentage(ctx context.Context) decimal.Decimal {
	if s.settings != nil {
		v, err := s.settings.GetSetting(ctx, referralPercentageKey)
		if err == nil {
			d, perr := decimal.NewFromString(v)
			if perr == nil {
				return d
			}
			s.logger.Error("Bad referral percentage setting", zap.String("value", v), zap.Error(perr))
		} else if !errors.Is(err, model.ErrNotFound) {
			s.logger.Error("Get referral percentage", zap.Error(err))
		}
	}
	return decimal.NewFromFloat(s.cfg.Referral.Percentage)
}

// Комиссия пригласившему: floor(points * percentage)
func (s *ReferralService) AwardReferralPoints(ctx context.Context, referredID uuid.UUID, points int64, activityType string) (int64, error) {
	if points <= 0 {
		return 0, nil
	}
	referral, err := s.db.GetReferralByReferred(ctx, referredID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return 0, nil
		}
		return 0, err
	}

	commission := decimal.NewFromInt(points).Mul(s.percentage(ctx)).Floor().IntPart()
	if commission <= 0 {
		return 0, nil
	}

	activity := model.UserActivity{
		ActivityType: model.ActivityReferralCommission,
		PointsChange: commission,
		Description:  fmt.Sprintf("Referral commission for %s of referred user", activityType),
	}
	_, balance, err := s.db.AwardCommission(ctx, referral.ID, activity)
	if err != nil {
		return 0, err
	}
	s.ledger.Settled(ctx, referral.ReferrerID, model.ActivityReferralCommission, commission, balance)
	return commission, nil
}

// вызывается после каждого начисления; ошибка не отменяет начисление
func (s *ReferralService) afterEarning(ctx context.Context, referredID uuid.UUID, points int64, activityType string) {
	_, err := s.AwardReferralPoints(ctx, referredID, points, activityType)
	if err != nil {
		s.logger.Error("Referral commission",
			zap.Error(err),
			zap.String("referred_id", referredID.String()),
			zap.String("activity", activityType),
		)
	}
}

func (s *ReferralService) GetReferrals(ctx context.Context, referrerID uuid.UUID) (ReferralInfo, error) {
	user, err := s.users.GetUser(ctx, referrerID)
	if err != nil {
		return ReferralInfo{}, err
	}
	list, err := s.db.GetReferrals(ctx, referrerID)
	if err != nil {
		return ReferralInfo{}, err
	}
	info := ReferralInfo{
		ReferralCode:   user.ReferralCode,
		ReferralLink:   s.cfg.Frontend.URL + "/register?ref=" + user.ReferralCode,
		TotalReferrals: len(list),
		Referrals:      list,
	}
	for _, r := range list {
		info.TotalEarnings += r.PointsEarned
	}
	return info, nil
}
