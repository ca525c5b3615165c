package futurecash

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	model "github.com/glkeru/loyalty/futurecash/internal/models"
	"github.com/google/uuid"
)

// MemoryDB - хранилище в памяти с теми же ограничениями уникальности,
// что и схема Postgres. Один мьютекс = одна транзакция.
type MemoryDB struct {
	mu sync.RWMutex

	users       map[uuid.UUID]*model.User
	emailIndex  map[string]uuid.UUID
	codeIndex   map[string]uuid.UUID
	walls       map[uuid.UUID]*model.OfferWall
	offers      map[uuid.UUID]*model.Offer
	completions map[uuid.UUID]*model.OfferCompletion
	txIndex     map[string]uuid.UUID // transaction_id и chargeback_transaction_id
	videos      map[uuid.UUID]*model.Video
	views       map[uuid.UUID]*model.VideoView
	rewards     map[uuid.UUID]*model.RewardOption
	redemptions map[uuid.UUID]*model.RewardRedemption
	referrals   map[uuid.UUID]*model.Referral
	activities  []model.UserActivity
	ipHistory   map[string]model.IPHistory
	settings    map[string]string
	stats       map[string]model.DailyStat
}

func NewMemoryDB() *MemoryDB {
	return &MemoryDB{
		users:       make(map[uuid.UUID]*model.User),
		emailIndex:  make(map[string]uuid.UUID),
		codeIndex:   make(map[string]uuid.UUID),
		walls:       make(map[uuid.UUID]*model.OfferWall),
		offers:      make(map[uuid.UUID]*model.Offer),
		completions: make(map[uuid.UUID]*model.OfferCompletion),
		txIndex:     make(map[string]uuid.UUID),
		videos:      make(map[uuid.UUID]*model.Video),
		views:       make(map[uuid.UUID]*model.VideoView),
		rewards:     make(map[uuid.UUID]*model.RewardOption),
		redemptions: make(map[uuid.UUID]*model.RewardRedemption),
		referrals:   make(map[uuid.UUID]*model.Referral),
		ipHistory:   make(map[string]model.IPHistory),
		settings:    make(map[string]string),
		stats:       make(map[string]model.DailyStat),
	}
}

// изменение баланса + запись в журнал, вызывается под mu.Lock
func (m *MemoryDB) applyPoints(activity model.UserActivity) (int64, error) {
	user, ok := m.users[activity.UserID]
	if !ok {
		return 0, fmt.Errorf("user %w", model.ErrNotFound)
	}
	if activity.ID == uuid.Nil {
		activity.ID = uuid.New()
	}
	if activity.CreatedAt.IsZero() {
		activity.CreatedAt = time.Now()
	}
	user.PointsBalance += activity.PointsChange
	user.UpdatedAt = time.Now()
	m.activities = append(m.activities, activity)
	return user.PointsBalance, nil
}

func paginate[T any](items []T, page model.Page) []T {
	if page.Limit == 0 {
		return items
	}
	if page.Offset >= uint64(len(items)) {
		return []T{}
	}
	end := page.Offset + page.Limit
	if end > uint64(len(items)) {
		end = uint64(len(items))
	}
	return items[page.Offset:end]
}

// Пользователи

func (m *MemoryDB) CreateUser(ctx context.Context, user model.User, activity model.UserActivity) (model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	email := strings.ToLower(user.Email)
	if _, ok := m.emailIndex[email]; ok {
		return model.User{}, fmt.Errorf("email %w", model.ErrDuplicate)
	}
	if _, ok := m.codeIndex[user.ReferralCode]; ok {
		return model.User{}, fmt.Errorf("referral code %w", model.ErrDuplicate)
	}
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	now := time.Now()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now
	if user.AccountStatus == "" {
		user.AccountStatus = model.AccountActive
	}
	user.PointsBalance = 0
	u := user
	m.users[user.ID] = &u
	m.emailIndex[email] = user.ID
	m.codeIndex[user.ReferralCode] = user.ID

	activity.UserID = user.ID
	balance, err := m.applyPoints(activity)
	if err != nil {
		return model.User{}, err
	}
	u.PointsBalance = balance
	return u, nil
}

func (m *MemoryDB) GetUser(ctx context.Context, id uuid.UUID) (model.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	if !ok {
		return model.User{}, fmt.Errorf("user %w", model.ErrNotFound)
	}
	return *u, nil
}

func (m *MemoryDB) GetUserByEmail(ctx context.Context, email string) (model.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.emailIndex[strings.ToLower(email)]
	if !ok {
		return model.User{}, fmt.Errorf("user %w", model.ErrNotFound)
	}
	return *m.users[id], nil
}

func (m *MemoryDB) GetUserByReferralCode(ctx context.Context, code string) (model.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.codeIndex[code]
	if !ok {
		return model.User{}, fmt.Errorf("referrer %w", model.ErrNotFound)
	}
	return *m.users[id], nil
}

// Справочники (для тестов и локального запуска)

func (m *MemoryDB) AddOfferWall(wall model.OfferWall) model.OfferWall {
	m.mu.Lock()
	defer m.mu.Unlock()
	if wall.ID == uuid.Nil {
		wall.ID = uuid.New()
	}
	wall.CreatedAt = time.Now()
	wall.UpdatedAt = wall.CreatedAt
	w := wall
	m.walls[wall.ID] = &w
	return wall
}

func (m *MemoryDB) AddOffer(offer model.Offer) model.Offer {
	m.mu.Lock()
	defer m.mu.Unlock()
	if offer.ID == uuid.Nil {
		offer.ID = uuid.New()
	}
	offer.CreatedAt = time.Now()
	offer.UpdatedAt = offer.CreatedAt
	o := offer
	m.offers[offer.ID] = &o
	return offer
}

func (m *MemoryDB) AddVideo(video model.Video) model.Video {
	m.mu.Lock()
	defer m.mu.Unlock()
	if video.ID == uuid.Nil {
		video.ID = uuid.New()
	}
	video.CreatedAt = time.Now()
	video.UpdatedAt = video.CreatedAt
	v := video
	m.videos[video.ID] = &v
	return video
}

func (m *MemoryDB) AddReward(reward model.RewardOption) model.RewardOption {
	m.mu.Lock()
	defer m.mu.Unlock()
	if reward.ID == uuid.Nil {
		reward.ID = uuid.New()
	}
	reward.CreatedAt = time.Now()
	reward.UpdatedAt = reward.CreatedAt
	r := reward
	m.rewards[reward.ID] = &r
	return reward
}

func (m *MemoryDB) SetSetting(key string, value string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.settings[key] = value
}

// Офферы

func (m *MemoryDB) GetOfferWalls(ctx context.Context) ([]model.OfferWall, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	walls := []model.OfferWall{}
	for _, w := range m.walls {
		if w.Status {
			walls = append(walls, *w)
		}
	}
	sort.Slice(walls, func(i, j int) bool { return walls[i].Name < walls[j].Name })
	return walls, nil
}

func (m *MemoryDB) GetOffers(ctx context.Context, page model.Page) ([]model.Offer, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	offers := []model.Offer{}
	for _, o := range m.offers {
		if o.Status {
			offers = append(offers, *o)
		}
	}
	sort.Slice(offers, func(i, j int) bool { return offers[i].Points > offers[j].Points })
	return paginate(offers, page), nil
}

func (m *MemoryDB) GetOffer(ctx context.Context, id uuid.UUID) (model.Offer, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	o, ok := m.offers[id]
	if !ok {
		return model.Offer{}, fmt.Errorf("offer %w", model.ErrNotFound)
	}
	return *o, nil
}

func (m *MemoryDB) GetOfferByExternal(ctx context.Context, provider string, externalID string) (model.Offer, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, o := range m.offers {
		wall, ok := m.walls[o.OfferWallID]
		if ok && wall.Name == provider && o.ExternalOfferID == externalID {
			return *o, nil
		}
	}
	return model.Offer{}, fmt.Errorf("offer %w", model.ErrNotFound)
}

func (m *MemoryDB) TransactionExists(ctx context.Context, transactionID string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.txIndex[transactionID]
	return ok, nil
}

func (m *MemoryDB) CountCompletionsByIP(ctx context.Context, ip string, since time.Time) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	count := 0
	for _, c := range m.completions {
		if c.IPAddress == ip && !c.CompletionTime.Before(since) {
			count++
		}
	}
	return count, nil
}

func (m *MemoryDB) SaveCompletion(ctx context.Context, completion model.OfferCompletion, activity model.UserActivity) (model.OfferCompletion, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.txIndex[completion.TransactionID]; ok {
		return model.OfferCompletion{}, 0, model.ErrDuplicateTransaction
	}
	if _, ok := m.users[completion.UserID]; !ok {
		return model.OfferCompletion{}, 0, fmt.Errorf("user %w", model.ErrNotFound)
	}
	if completion.ID == uuid.Nil {
		completion.ID = uuid.New()
	}
	now := time.Now()
	completion.CreatedAt = now
	completion.UpdatedAt = now

	activity.UserID = completion.UserID
	balance, err := m.applyPoints(activity)
	if err != nil {
		return model.OfferCompletion{}, 0, err
	}
	c := completion
	m.completions[completion.ID] = &c
	m.txIndex[completion.TransactionID] = completion.ID
	return completion, balance, nil
}

func (m *MemoryDB) Chargeback(ctx context.Context, userID uuid.UUID, offerID uuid.UUID, transactionID string, activity model.UserActivity) (model.OfferCompletion, int64, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.txIndex[transactionID]; ok {
		return model.OfferCompletion{}, 0, 0, model.ErrDuplicateTransaction
	}
	// последнее подтвержденное или удерживаемое выполнение
	var target *model.OfferCompletion
	for _, c := range m.completions {
		if c.UserID != userID || c.OfferID != offerID {
			continue
		}
		if c.Status != model.CompletionApproved && c.Status != model.CompletionHeld {
			continue
		}
		if target == nil || c.CompletionTime.After(target.CompletionTime) {
			target = c
		}
	}
	if target == nil {
		return model.OfferCompletion{}, 0, 0, fmt.Errorf("approved completion %w", model.ErrNotFound)
	}

	// холд еще не начислен - списывать нечего
	if target.Status == model.CompletionHeld {
		activity.PointsChange = 0
	}
	activity.UserID = userID
	balance, err := m.applyPoints(activity)
	if err != nil {
		return model.OfferCompletion{}, 0, 0, err
	}
	target.Status = model.CompletionRejected
	target.ChargebackTransactionID = transactionID
	target.UpdatedAt = time.Now()
	m.txIndex[transactionID] = target.ID
	return *target, activity.PointsChange, balance, nil
}

func (m *MemoryDB) GetDueHeldCompletions(ctx context.Context, now time.Time, limit uint64) ([]model.OfferCompletion, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	due := []model.OfferCompletion{}
	for _, c := range m.completions {
		if c.Status == model.CompletionHeld && c.HeldUntil != nil && c.HeldUntil.Before(now) {
			due = append(due, *c)
		}
	}
	sort.Slice(due, func(i, j int) bool { return due[i].HeldUntil.Before(*due[j].HeldUntil) })
	if limit > 0 && uint64(len(due)) > limit {
		due = due[:limit]
	}
	return due, nil
}

func (m *MemoryDB) ApproveHeld(ctx context.Context, completionID uuid.UUID, now time.Time, activity model.UserActivity) (model.OfferCompletion, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.completions[completionID]
	if !ok {
		return model.OfferCompletion{}, 0, fmt.Errorf("completion %w", model.ErrNotFound)
	}
	if c.Status != model.CompletionHeld || c.HeldUntil == nil || !c.HeldUntil.Before(now) {
		return model.OfferCompletion{}, 0, fmt.Errorf("completion is %s: %w", c.Status, model.ErrInvalidState)
	}
	activity.UserID = c.UserID
	activity.PointsChange = c.PointsAwarded
	balance, err := m.applyPoints(activity)
	if err != nil {
		return model.OfferCompletion{}, 0, err
	}
	c.Status = model.CompletionApproved
	c.UpdatedAt = time.Now()
	return *c, balance, nil
}

func (m *MemoryDB) GetCompletions(ctx context.Context, userID uuid.UUID, status string, page model.Page) ([]model.OfferCompletion, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	list := []model.OfferCompletion{}
	for _, c := range m.completions {
		if c.UserID == userID && (status == "" || c.Status == status) {
			list = append(list, *c)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].CompletionTime.After(list[j].CompletionTime) })
	return paginate(list, page), nil
}

func (m *MemoryDB) TrackIP(ctx context.Context, history model.IPHistory) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := history.UserID.String() + "|" + history.IPAddress + "|" + history.UserAgent
	if _, ok := m.ipHistory[key]; ok {
		return nil
	}
	if history.CreatedAt.IsZero() {
		history.CreatedAt = time.Now()
	}
	m.ipHistory[key] = history
	return nil
}

// Видео

func (m *MemoryDB) GetVideos(ctx context.Context, page model.Page) ([]model.Video, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	list := []model.Video{}
	for _, v := range m.videos {
		if v.Status {
			list = append(list, *v)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].CreatedAt.After(list[j].CreatedAt) })
	return paginate(list, page), nil
}

func (m *MemoryDB) GetVideo(ctx context.Context, id uuid.UUID) (model.Video, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.videos[id]
	if !ok {
		return model.Video{}, fmt.Errorf("video %w", model.ErrNotFound)
	}
	return *v, nil
}

func (m *MemoryDB) hasCompletedView(userID uuid.UUID, videoID uuid.UUID) bool {
	for _, v := range m.views {
		if v.UserID == userID && v.VideoID == videoID && v.Status == model.ViewCompleted {
			return true
		}
	}
	return false
}

func (m *MemoryDB) HasCompletedView(ctx context.Context, userID uuid.UUID, videoID uuid.UUID) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.hasCompletedView(userID, videoID), nil
}

func (m *MemoryDB) SavePartialView(ctx context.Context, view model.VideoView) (model.VideoView, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if view.ID == uuid.Nil {
		view.ID = uuid.New()
	}
	view.Status = model.ViewPartial
	view.PointsAwarded = 0
	view.CreatedAt = time.Now()
	view.UpdatedAt = view.CreatedAt
	v := view
	m.views[view.ID] = &v
	return view, nil
}

func (m *MemoryDB) SaveCompletedView(ctx context.Context, view model.VideoView, activity model.UserActivity) (model.VideoView, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	// аналог частичного уникального индекса
	if m.hasCompletedView(view.UserID, view.VideoID) {
		return model.VideoView{}, 0, model.ErrAlreadyWatched
	}
	if view.ID == uuid.Nil {
		view.ID = uuid.New()
	}
	view.Status = model.ViewCompleted
	view.CreatedAt = time.Now()
	view.UpdatedAt = view.CreatedAt

	activity.UserID = view.UserID
	balance, err := m.applyPoints(activity)
	if err != nil {
		return model.VideoView{}, 0, err
	}
	v := view
	m.views[view.ID] = &v
	return view, balance, nil
}

func (m *MemoryDB) GetVideoViews(ctx context.Context, userID uuid.UUID, page model.Page) ([]model.VideoView, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	list := []model.VideoView{}
	for _, v := range m.views {
		if v.UserID == userID {
			list = append(list, *v)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].CreatedAt.After(list[j].CreatedAt) })
	return paginate(list, page), nil
}

// Награды

func (m *MemoryDB) GetRewards(ctx context.Context) ([]model.RewardOption, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	list := []model.RewardOption{}
	for _, r := range m.rewards {
		if r.Status {
			list = append(list, *r)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].PointsRequired < list[j].PointsRequired })
	return list, nil
}

func (m *MemoryDB) GetReward(ctx context.Context, id uuid.UUID) (model.RewardOption, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.rewards[id]
	if !ok {
		return model.RewardOption{}, fmt.Errorf("reward %w", model.ErrNotFound)
	}
	return *r, nil
}

func (m *MemoryDB) Redeem(ctx context.Context, redemption model.RewardRedemption, activity model.UserActivity) (model.RewardRedemption, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	user, ok := m.users[redemption.UserID]
	if !ok {
		return model.RewardRedemption{}, 0, fmt.Errorf("user %w", model.ErrNotFound)
	}
	if user.PointsBalance < redemption.PointsUsed {
		return model.RewardRedemption{}, 0, &model.InsufficientPointsError{Required: redemption.PointsUsed, Balance: user.PointsBalance}
	}
	if redemption.ID == uuid.Nil {
		redemption.ID = uuid.New()
	}
	redemption.Status = model.RedemptionPending
	redemption.CreatedAt = time.Now()
	redemption.UpdatedAt = redemption.CreatedAt

	activity.UserID = redemption.UserID
	activity.PointsChange = -redemption.PointsUsed
	balance, err := m.applyPoints(activity)
	if err != nil {
		return model.RewardRedemption{}, 0, err
	}
	r := redemption
	m.redemptions[redemption.ID] = &r
	return redemption, balance, nil
}

func (m *MemoryDB) GetRedemption(ctx context.Context, id uuid.UUID) (model.RewardRedemption, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.redemptions[id]
	if !ok {
		return model.RewardRedemption{}, fmt.Errorf("redemption %w", model.ErrNotFound)
	}
	return *r, nil
}

func (m *MemoryDB) UpdateRedemptionStatus(ctx context.Context, id uuid.UUID, from string, to string, notes string) (model.RewardRedemption, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.redemptions[id]
	if !ok {
		return model.RewardRedemption{}, fmt.Errorf("redemption %w", model.ErrNotFound)
	}
	if r.Status != from {
		return model.RewardRedemption{}, fmt.Errorf("redemption is %s: %w", r.Status, model.ErrInvalidState)
	}
	r.Status = to
	if notes != "" {
		r.AdminNotes = notes
	}
	r.UpdatedAt = time.Now()
	return *r, nil
}

func (m *MemoryDB) GetRedemptions(ctx context.Context, userID uuid.UUID, page model.Page) ([]model.RewardRedemption, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	list := []model.RewardRedemption{}
	for _, r := range m.redemptions {
		if r.UserID == userID {
			list = append(list, *r)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].CreatedAt.After(list[j].CreatedAt) })
	return paginate(list, page), nil
}

// Рефералы

func (m *MemoryDB) CreateReferral(ctx context.Context, referral model.Referral, activity model.UserActivity) (model.Referral, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, r := range m.referrals {
		if r.ReferrerID == referral.ReferrerID && r.ReferredID == referral.ReferredID {
			return *r, false, nil
		}
	}
	referred, ok := m.users[referral.ReferredID]
	if !ok {
		return model.Referral{}, false, fmt.Errorf("user %w", model.ErrNotFound)
	}
	if _, ok := m.users[referral.ReferrerID]; !ok {
		return model.Referral{}, false, fmt.Errorf("referrer %w", model.ErrNotFound)
	}
	if referral.ID == uuid.Nil {
		referral.ID = uuid.New()
	}
	referral.CreatedAt = time.Now()
	referral.UpdatedAt = referral.CreatedAt

	activity.UserID = referral.ReferredID
	activity.PointsChange = 0
	_, err := m.applyPoints(activity)
	if err != nil {
		return model.Referral{}, false, err
	}
	if referred.ReferredBy == nil {
		referrer := referral.ReferrerID
		referred.ReferredBy = &referrer
	}
	r := referral
	m.referrals[referral.ID] = &r
	return referral, true, nil
}

func (m *MemoryDB) GetReferralByReferred(ctx context.Context, referredID uuid.UUID) (model.Referral, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, r := range m.referrals {
		if r.ReferredID == referredID && r.Status == model.ReferralActive {
			return *r, nil
		}
	}
	return model.Referral{}, fmt.Errorf("referral %w", model.ErrNotFound)
}

func (m *MemoryDB) AwardCommission(ctx context.Context, referralID uuid.UUID, activity model.UserActivity) (model.Referral, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.referrals[referralID]
	if !ok {
		return model.Referral{}, 0, fmt.Errorf("referral %w", model.ErrNotFound)
	}
	activity.UserID = r.ReferrerID
	balance, err := m.applyPoints(activity)
	if err != nil {
		return model.Referral{}, 0, err
	}
	r.PointsEarned += activity.PointsChange
	r.UpdatedAt = time.Now()
	return *r, balance, nil
}

func (m *MemoryDB) GetReferrals(ctx context.Context, referrerID uuid.UUID) ([]model.ReferredUser, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	list := []model.ReferredUser{}
	for _, r := range m.referrals {
		if r.ReferrerID != referrerID {
			continue
		}
		ru := model.ReferredUser{Referral: *r}
		if u, ok := m.users[r.ReferredID]; ok {
			ru.Fullname = u.Fullname
			ru.Email = u.Email
		}
		list = append(list, ru)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].CreatedAt.After(list[j].CreatedAt) })
	return list, nil
}

// Журнал

func (m *MemoryDB) GetBalance(ctx context.Context, userID uuid.UUID) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[userID]
	if !ok {
		return 0, fmt.Errorf("user %w", model.ErrNotFound)
	}
	return u.PointsBalance, nil
}

func (m *MemoryDB) GetActivities(ctx context.Context, userID uuid.UUID, nonZero bool, page model.Page) ([]model.UserActivity, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	list := []model.UserActivity{}
	for i := len(m.activities) - 1; i >= 0; i-- {
		a := m.activities[i]
		if a.UserID != userID || (nonZero && a.PointsChange == 0) {
			continue
		}
		list = append(list, a)
	}
	return paginate(list, page), nil
}

func (m *MemoryDB) GetActivitiesBetween(ctx context.Context, userID uuid.UUID, from time.Time, to time.Time) ([]model.UserActivity, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	list := []model.UserActivity{}
	for _, a := range m.activities {
		if a.UserID == userID && !a.CreatedAt.Before(from) && !a.CreatedAt.After(to) {
			list = append(list, a)
		}
	}
	return list, nil
}

func (m *MemoryDB) SumActivities(ctx context.Context, userID uuid.UUID) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var sum int64
	for _, a := range m.activities {
		if a.UserID == userID {
			sum += a.PointsChange
		}
	}
	return sum, nil
}

func (m *MemoryDB) LogActivity(ctx context.Context, activity model.UserActivity) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	activity.PointsChange = 0
	_, err := m.applyPoints(activity)
	return err
}

// Настройки

func (m *MemoryDB) GetSetting(ctx context.Context, key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.settings[key]
	if !ok {
		return "", fmt.Errorf("setting %s %w", key, model.ErrNotFound)
	}
	return v, nil
}

// Статистика

func statKey(date time.Time) string {
	return date.UTC().Format("2006-01-02")
}

func (m *MemoryDB) GetDailyStat(ctx context.Context, date time.Time) (model.DailyStat, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.stats[statKey(date)]
	if !ok {
		return model.DailyStat{}, fmt.Errorf("daily stat %w", model.ErrNotFound)
	}
	return s, nil
}

func (m *MemoryDB) CollectDailyStat(ctx context.Context, from time.Time, to time.Time) (model.DailyStat, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	in := func(t time.Time) bool { return !t.Before(from) && t.Before(to) }

	stat := model.DailyStat{Date: from}
	for _, u := range m.users {
		if u.CreatedAt.Before(to) {
			stat.TotalUsers++
		}
		if in(u.CreatedAt) {
			stat.NewUsers++
		}
	}
	for _, c := range m.completions {
		if c.Status == model.CompletionApproved && in(c.CompletionTime) {
			stat.OfferCompletions++
		}
	}
	for _, v := range m.views {
		if v.Status == model.ViewCompleted && in(v.CreatedAt) {
			stat.VideoViews++
		}
	}
	for _, r := range m.redemptions {
		if in(r.CreatedAt) {
			stat.Redemptions++
		}
	}
	for _, a := range m.activities {
		if !in(a.CreatedAt) {
			continue
		}
		if a.PointsChange > 0 {
			stat.PointsEarned += a.PointsChange
		}
		if a.ActivityType == model.ActivityRewardRedeemed {
			stat.PointsSpent -= a.PointsChange
		}
	}
	return stat, nil
}

func (m *MemoryDB) SaveDailyStat(ctx context.Context, stat model.DailyStat) (model.DailyStat, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := statKey(stat.Date)
	if existing, ok := m.stats[key]; ok {
		return existing, model.ErrDuplicate
	}
	stat.CreatedAt = time.Now()
	m.stats[key] = stat
	return stat, nil
}

// Блокировка задач в памяти (локальный запуск, тесты)
type MemoryLock struct {
	mu    sync.Mutex
	locks map[string]time.Time
}

func NewMemoryLock() *MemoryLock {
	return &MemoryLock{locks: make(map[string]time.Time)}
}

func (l *MemoryLock) Lock(ctx context.Context, job string, ttl time.Duration) (func(ctx context.Context) error, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if until, ok := l.locks[job]; ok && time.Now().Before(until) {
		return nil, model.ErrLocked
	}
	until := time.Now().Add(ttl)
	l.locks[job] = until
	return func(ctx context.Context) error {
		l.mu.Lock()
		defer l.mu.Unlock()
		if l.locks[job].Equal(until) {
			delete(l.locks, job)
		}
		return nil
	}, nil
}
