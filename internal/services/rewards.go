package futurecash

import (
	"context"
	"fmt"

	interf "github.com/glkeru/loyalty/futurecash/internal/interfaces"
	model "github.com/glkeru/loyalty/futurecash/internal/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type RewardService struct {
	logger    *zap.Logger
	db        interf.RewardStorage
	ledger    *LedgerService
	publisher interf.RedemptionPublisher
}

func NewRewardService(logger *zap.Logger, db interf.RewardStorage, ledger *LedgerService, publisher interf.RedemptionPublisher) *RewardService {
	return &RewardService{logger, db, ledger, publisher}
}

// допустимые переходы статуса заявки
var redemptionTransitions = map[string][]string{
	model.RedemptionPending:    {model.RedemptionProcessing, model.RedemptionCompleted, model.RedemptionRejected},
	model.RedemptionProcessing: {model.RedemptionCompleted, model.RedemptionRejected},
}

func (s *RewardService) GetRewards(ctx context.Context) ([]model.RewardOption, error) {
	return s.db.GetRewards(ctx)
}

// Вывод баллов: списание и заявка в одной транзакции
func (s *RewardService) Redeem(ctx context.Context, rewardID uuid.UUID, userID uuid.UUID, paymentDetails string, ip string) (model.RewardRedemption, int64, error) {
	ctx, span := tracer.Start(ctx, "Redeem")
	defer span.End()

	if paymentDetails == "" {
		return model.RewardRedemption{}, 0, fmt.Errorf("payment details are required: %w", model.ErrBadRequest)
	}
	reward, err := s.db.GetReward(ctx, rewardID)
	if err != nil {
		return model.RewardRedemption{}, 0, err
	}
	if !reward.Status {
		return model.RewardRedemption{}, 0, fmt.Errorf("reward is unavailable: %w", model.ErrInvalidState)
	}

	redemption := model.RewardRedemption{
		ID:             uuid.New(),
		UserID:         userID,
		RewardID:       reward.ID,
		PointsUsed:     reward.PointsRequired,
		PaymentDetails: paymentDetails,
	}
	activity := model.UserActivity{
		ActivityType: model.ActivityRewardRedeemed,
		Description:  fmt.Sprintf("Redeemed reward: %s", reward.Name),
		IPAddress:    ip,
	}
	saved, balance, err := s.db.Redeem(ctx, redemption, activity)
	if err != nil {
		return model.RewardRedemption{}, 0, err
	}

	s.ledger.Settled(ctx, userID, model.ActivityRewardRedeemed, -reward.PointsRequired, balance)

	// заявка исполнителю
	if s.publisher != nil {
		err = s.publisher.PublishRedemption(ctx, saved)
		if err != nil {
			s.logger.Error("Publish redemption", zap.Error(err), zap.String("redemption_id", saved.ID.String()))
		}
	}
	return saved, balance, nil
}

// Смена статуса заявки исполнителем. Баллы при отклонении не возвращаются.
func (s *RewardService) UpdateRedemptionStatus(ctx context.Context, id uuid.UUID, status string, notes string) (model.RewardRedemption, error) {
	current, err := s.db.GetRedemption(ctx, id)
	if err != nil {
		return model.RewardRedemption{}, err
	}
	allowed := false
	for _, to := range redemptionTransitions[current.Status] {
		if to == status {
			allowed = true
			break
		}
	}
	if !allowed {
		return model.RewardRedemption{}, fmt.Errorf("redemption %s -> %s: %w", current.Status, status, model.ErrInvalidState)
	}
	updated, err := s.db.UpdateRedemptionStatus(ctx, id, current.Status, status, notes)
	if err != nil {
		return model.RewardRedemption{}, err
	}
	s.logger.Info("Redemption status updated",
		zap.String("redemption_id", id.String()),
		zap.String("from", current.Status),
		zap.String("to", status),
	)
	return updated, nil
}

// заявка владельца
func (s *RewardService) GetRedemption(ctx context.Context, id uuid.UUID, userID uuid.UUID) (model.RewardRedemption, error) {
	r, err := s.db.GetRedemption(ctx, id)
	if err != nil {
		return model.RewardRedemption{}, err
	}
	if r.UserID != userID {
		return model.RewardRedemption{}, fmt.Errorf("redemption %w", model.ErrNotFound)
	}
	return r, nil
}

func (s *RewardService) GetHistory(ctx context.Context, userID uuid.UUID, page model.Page) ([]model.RewardRedemption, error) {
	return s.db.GetRedemptions(ctx, userID, page)
}
