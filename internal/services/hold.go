package futurecash

import (
	"context"
	"time"

	config "github.com/glkeru/loyalty/futurecash/internal/config"
	interf "github.com/glkeru/loyalty/futurecash/internal/interfaces"
	model "github.com/glkeru/loyalty/futurecash/internal/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Антифрод: решение hold/approve для выполнения оффера
type HoldPolicy struct {
	logger *zap.Logger
	db     interf.FraudStorage
	cfg    config.HoldConfig
}

func NewHoldPolicy(logger *zap.Logger, db interf.FraudStorage, cfg config.HoldConfig) *HoldPolicy {
	return &HoldPolicy{logger, db, cfg}
}

// Правила по порядку: новый аккаунт, частота с IP, дорогой оффер.
// Любая ошибка - hold.
func (h *HoldPolicy) ShouldHold(ctx context.Context, userID uuid.UUID, offer model.Offer, ip string, now time.Time) bool {
	user, err := h.db.GetUser(ctx, userID)
	if err != nil {
		h.logger.Error("Hold check: get user", zap.Error(err), zap.String("user_id", userID.String()))
		return true
	}

	// аккаунт моложе суток
	if now.Sub(user.CreatedAt) < h.cfg.AccountAge {
		h.logger.Info("Hold: new account", zap.String("user_id", userID.String()))
		return true
	}

	// много выполнений с одного IP
	count, err := h.db.CountCompletionsByIP(ctx, ip, now.Add(-h.cfg.IPWindow))
	if err != nil {
		h.logger.Error("Hold check: count by ip", zap.Error(err), zap.String("ip", ip))
		return true
	}
	if count >= h.cfg.IPThreshold {
		h.logger.Info("Hold: ip frequency", zap.String("ip", ip), zap.Int("count", count))
		return true
	}

	// дорогой оффер
	if offer.Points >= h.cfg.HighValuePoints {
		h.logger.Info("Hold: high value offer", zap.String("offer_id", offer.ID.String()), zap.Int64("points", offer.Points))
		return true
	}
	return false
}
