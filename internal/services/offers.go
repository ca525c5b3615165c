package futurecash

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	config "github.com/glkeru/loyalty/futurecash/internal/config"
	interf "github.com/glkeru/loyalty/futurecash/internal/interfaces"
	model "github.com/glkeru/loyalty/futurecash/internal/models"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type OfferService struct {
	logger    *zap.Logger
	db        interf.OfferStorage
	users     interf.UserStorage
	hold      *HoldPolicy
	verifiers interf.Verifier
	referrals *ReferralService
	ledger    *LedgerService
	callbacks interf.CallbackLog
	cfg       *config.Config
	now       func() time.Time
}

func NewOfferService(
	logger *zap.Logger,
	db interf.OfferStorage,
	users interf.UserStorage,
	hold *HoldPolicy,
	verifiers interf.Verifier,
	referrals *ReferralService,
	ledger *LedgerService,
	callbacks interf.CallbackLog,
	cfg *config.Config,
) *OfferService {
	return &OfferService{
		logger:    logger,
		db:        db,
		users:     users,
		hold:      hold,
		verifiers: verifiers,
		referrals: referrals,
		ledger:    ledger,
		callbacks: callbacks,
		cfg:       cfg,
		now:       time.Now,
	}
}

// часы для тестов
func (s *OfferService) SetClock(now func() time.Time) {
	s.now = now
}

// Обработка колбэка провайдера
func (s *OfferService) ProcessCallback(ctx context.Context, callback model.Callback) (result model.CallbackResult, err error) {
	ctx, span := tracer.Start(ctx, "ProcessCallback")
	defer span.End()
	span.SetAttributes(
		attribute.String("provider", callback.Provider),
		attribute.String("transaction_id", callback.TransactionID),
	)

	defer func() {
		res := result.Result
		if err != nil {
			res = model.ResultRejected
			span.RecordError(err)
		}
		callbackResults.WithLabelValues(res).Inc()
		s.saveCallback(ctx, callback, res, err)
	}()

	userID, err := callback.Validate()
	if err != nil {
		return model.CallbackResult{}, err
	}

	// подпись
	err = s.verifiers.Verify(ctx, callback)
	if err != nil {
		return model.CallbackResult{}, err
	}

	// оффер
	offer, err := s.db.GetOfferByExternal(ctx, callback.Provider, callback.OfferID)
	if err != nil {
		return model.CallbackResult{}, err
	}

	_, err = s.users.GetUser(ctx, userID)
	if err != nil {
		return model.CallbackResult{}, err
	}

	// повторная доставка
	exists, err := s.db.TransactionExists(ctx, callback.TransactionID)
	if err != nil {
		return model.CallbackResult{}, err
	}
	if exists {
		return model.CallbackResult{Result: model.ResultDuplicate}, nil
	}

	if callback.IsChargeback() {
		return s.chargeback(ctx, userID, offer, callback)
	}

	now := s.now()
	completion := model.OfferCompletion{
		ID:             uuid.New(),
		UserID:         userID,
		OfferID:        offer.ID,
		TransactionID:  callback.TransactionID,
		PointsAwarded:  offer.Points,
		IPAddress:      callback.IPAddress,
		CompletionTime: now,
	}
	activity := model.UserActivity{
		IPAddress: callback.IPAddress,
		CreatedAt: now,
	}

	held := s.hold.ShouldHold(ctx, userID, offer, callback.IPAddress, now)
	if held {
		until := now.Add(s.cfg.Hold.Duration)
		completion.Status = model.CompletionHeld
		completion.HeldUntil = &until
		activity.ActivityType = model.ActivityOfferHeld
		activity.Description = fmt.Sprintf("Offer completion on hold: %s", offer.Title)
	} else {
		completion.Status = model.CompletionApproved
		activity.ActivityType = model.ActivityOfferCompleted
		activity.PointsChange = offer.Points
		activity.Description = fmt.Sprintf("Completed offer: %s", offer.Title)
	}

	saved, balance, err := s.db.SaveCompletion(ctx, completion, activity)
	if err != nil {
		if errors.Is(err, model.ErrDuplicateTransaction) {
			return model.CallbackResult{Result: model.ResultDuplicate}, nil
		}
		return model.CallbackResult{}, err
	}

	if held {
		s.logger.Info("Offer completion held",
			zap.String("user_id", userID.String()),
			zap.String("transaction_id", callback.TransactionID),
		)
		return model.CallbackResult{Result: model.ResultHeld, Completion: &saved}, nil
	}

	s.ledger.Settled(ctx, userID, model.ActivityOfferCompleted, offer.Points, balance)
	s.referrals.afterEarning(ctx, userID, offer.Points, model.ActivityOfferCompleted)
	return model.CallbackResult{Result: model.ResultApproved, Completion: &saved}, nil
}

// отмена выполнения: подтвержденное - списание, удерживаемое - отклонение без списания
func (s *OfferService) chargeback(ctx context.Context, userID uuid.UUID, offer model.Offer, callback model.Callback) (model.CallbackResult, error) {
	activity := model.UserActivity{
		ActivityType: model.ActivityOfferChargeback,
		PointsChange: callback.Points,
		Description:  fmt.Sprintf("Chargeback for offer: %s", offer.Title),
		IPAddress:    callback.IPAddress,
		CreatedAt:    s.now(),
	}
	completion, delta, balance, err := s.db.Chargeback(ctx, userID, offer.ID, callback.TransactionID, activity)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			s.logger.Warn("Chargeback without approved or held completion",
				zap.String("user_id", userID.String()),
				zap.String("offer_id", offer.ID.String()),
				zap.String("transaction_id", callback.TransactionID),
			)
			return model.CallbackResult{Result: model.ResultIgnored}, nil
		}
		if errors.Is(err, model.ErrDuplicateTransaction) {
			return model.CallbackResult{Result: model.ResultDuplicate}, nil
		}
		return model.CallbackResult{}, err
	}
	s.ledger.Settled(ctx, userID, model.ActivityOfferChargeback, delta, balance)
	return model.CallbackResult{Result: model.ResultChargeback, Completion: &completion}, nil
}

// журнал колбэков
func (s *OfferService) saveCallback(ctx context.Context, callback model.Callback, result string, cause error) {
	if s.callbacks == nil {
		return
	}
	record := model.CallbackRecord{
		ID:        uuid.New(),
		Callback:  callback,
		Result:    result,
		CreatedAt: s.now(),
	}
	if cause != nil {
		record.Error = cause.Error()
	}
	err := s.callbacks.SaveCallback(ctx, record)
	if err != nil {
		s.logger.Error("Save callback log", zap.Error(err), zap.String("transaction_id", callback.TransactionID))
	}
}

// Подтверждение выполнений, у которых истек холд.
// Возвращает кол-во подтвержденных.
func (s *OfferService) ProcessHeldOffers(ctx context.Context, now time.Time) (int, error) {
	ctx, span := tracer.Start(ctx, "ProcessHeldOffers")
	defer span.End()

	due, err := s.db.GetDueHeldCompletions(ctx, now, s.cfg.Sweep.BatchSize)
	if err != nil {
		return 0, err
	}
	if len(due) == 0 {
		return 0, nil
	}

	approved := make([]bool, len(due))
	failed := make([]error, len(due))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Sweep.Workers)
	for i, c := range due {
		g.Go(func() error {
			ok, err := s.approveHeld(gctx, c, now)
			approved[i] = ok
			failed[i] = err
			return nil
		})
	}
	_ = g.Wait()

	count := 0
	for _, ok := range approved {
		if ok {
			count++
		}
	}
	s.logger.Info("Held offers sweep", zap.Int("due", len(due)), zap.Int("approved", count))
	return count, errors.Join(failed...)
}

func (s *OfferService) approveHeld(ctx context.Context, c model.OfferCompletion, now time.Time) (bool, error) {
	title := c.OfferID.String()
	offer, err := s.db.GetOffer(ctx, c.OfferID)
	if err == nil {
		title = offer.Title
	}
	activity := model.UserActivity{
		ActivityType: model.ActivityOfferApproved,
		Description:  fmt.Sprintf("Offer approved after hold: %s", title),
		IPAddress:    c.IPAddress,
		CreatedAt:    now,
	}
	completion, balance, err := s.db.ApproveHeld(ctx, c.ID, now, activity)
	if err != nil {
		// уже обработано другим экземпляром
		if errors.Is(err, model.ErrInvalidState) {
			return false, nil
		}
		s.logger.Error("Approve held completion", zap.Error(err), zap.String("completion_id", c.ID.String()))
		return false, err
	}
	heldApproved.Inc()
	s.ledger.Settled(ctx, completion.UserID, model.ActivityOfferApproved, completion.PointsAwarded, balance)
	s.referrals.afterEarning(ctx, completion.UserID, completion.PointsAwarded, model.ActivityOfferApproved)
	return true, nil
}

// Клик по офферу: ссылка провайдера с user_id/sub_id
func (s *OfferService) TrackClick(ctx context.Context, offerID uuid.UUID, userID uuid.UUID, ip string, userAgent string) (string, error) {
	offer, err := s.db.GetOffer(ctx, offerID)
	if err != nil {
		return "", err
	}
	if !offer.Status {
		return "", fmt.Errorf("offer %w", model.ErrNotFound)
	}

	err = s.db.TrackIP(ctx, model.IPHistory{UserID: userID, IPAddress: ip, UserAgent: userAgent, CreatedAt: s.now()})
	if err != nil {
		return "", err
	}
	err = s.ledger.LogActivity(ctx, model.UserActivity{
		UserID:       userID,
		ActivityType: model.ActivityOfferClick,
		Description:  fmt.Sprintf("Clicked on offer: %s", offer.Title),
		IPAddress:    ip,
		CreatedAt:    s.now(),
	})
	if err != nil {
		return "", err
	}

	if offer.OfferURL == "" {
		return "", nil
	}
	u, err := url.Parse(offer.OfferURL)
	if err != nil {
		return "", fmt.Errorf("offer url: %w", err)
	}
	q := u.Query()
	q.Set("user_id", userID.String())
	q.Set("sub_id", userID.String())
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// включенные провайдеры
func (s *OfferService) GetProviders(ctx context.Context) ([]model.OfferWall, error) {
	walls, err := s.db.GetOfferWalls(ctx)
	if err != nil {
		return nil, err
	}
	enabled := make([]model.OfferWall, 0, len(walls))
	for _, w := range walls {
		if w.Status {
			enabled = append(enabled, w)
		}
	}
	return enabled, nil
}

func (s *OfferService) GetOffers(ctx context.Context, page model.Page) ([]model.Offer, error) {
	return s.db.GetOffers(ctx, page)
}

func (s *OfferService) GetOffer(ctx context.Context, id uuid.UUID) (model.Offer, error) {
	return s.db.GetOffer(ctx, id)
}

// история выполнений пользователя
func (s *OfferService) GetHistory(ctx context.Context, userID uuid.UUID, status string, page model.Page) ([]model.OfferCompletion, error) {
	return s.db.GetCompletions(ctx, userID, status, page)
}
