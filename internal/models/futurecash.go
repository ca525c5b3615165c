package futurecash

import (
	"time"

	"github.com/google/uuid"
)

// статусы аккаунта
const (
	AccountActive    = "active"
	AccountSuspended = "suspended"
	AccountBanned    = "banned"
)

// статусы выполнения оффера
const (
	CompletionPending  = "pending"
	CompletionApproved = "approved"
	CompletionRejected = "rejected"
	CompletionHeld     = "held"
)

// статусы просмотра видео
const (
	ViewCompleted = "completed"
	ViewPartial   = "partial"
)

// статусы заявки на вывод
const (
	RedemptionPending    = "pending"
	RedemptionProcessing = "processing"
	RedemptionCompleted  = "completed"
	RedemptionRejected   = "rejected"
)

// статусы реферала
const (
	ReferralPending = "pending"
	ReferralActive  = "active"
	ReferralPaid    = "paid"
)

// типы записей в журнале
const (
	ActivityRegistration       = "registration"
	ActivityOfferClick         = "offer_click"
	ActivityOfferCompleted     = "offer_completed"
	ActivityOfferHeld          = "offer_held"
	ActivityOfferApproved      = "offer_approved"
	ActivityOfferChargeback    = "offer_chargeback"
	ActivityVideoStart         = "video_start"
	ActivityVideoCompleted     = "video_completed"
	ActivityRewardRedeemed     = "reward_redeemed"
	ActivityReferralJoined     = "referral_joined"
	ActivityReferralCommission = "referral_commission"
)

// Пользователь
type User struct {
	ID            uuid.UUID  `json:"id"`
	Email         string     `json:"email"`
	PasswordHash  string     `json:"-"`
	Fullname      string     `json:"fullname"`
	AccountStatus string     `json:"account_status"`
	PointsBalance int64      `json:"points_balance"` // денормализованный баланс
	ReferralCode  string     `json:"referral_code"`
	ReferredBy    *uuid.UUID `json:"referred_by,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// Провайдер офферов
type OfferWall struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"` // совпадает с provider в колбэке
	ImageURL    string    `json:"image_url"`
	Description string    `json:"description"`
	Status      bool      `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type Offer struct {
	ID              uuid.UUID `json:"id"`
	OfferWallID     uuid.UUID `json:"offer_wall_id"`
	ExternalOfferID string    `json:"external_offer_id"`
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	OfferURL        string    `json:"offer_url"`
	Points          int64     `json:"points"`
	Category        string    `json:"category"`
	Status          bool      `json:"status"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Выполнение оффера
type OfferCompletion struct {
	ID                      uuid.UUID  `json:"id"`
	UserID                  uuid.UUID  `json:"user_id"`
	OfferID                 uuid.UUID  `json:"offer_id"`
	TransactionID           string     `json:"transaction_id"`                      // ключ идемпотентности провайдера
	ChargebackTransactionID string     `json:"chargeback_transaction_id,omitempty"` // ID отмены
	PointsAwarded           int64      `json:"points_awarded"`
	Status                  string     `json:"status"`
	IPAddress               string     `json:"ip_address"`
	CompletionTime          time.Time  `json:"completion_time"`
	HeldUntil               *time.Time `json:"held_until,omitempty"`
	CreatedAt               time.Time  `json:"created_at"`
	UpdatedAt               time.Time  `json:"updated_at"`
}

type Video struct {
	ID               uuid.UUID `json:"id"`
	Title            string    `json:"title"`
	VideoURL         string    `json:"video_url"`
	Points           int64     `json:"points"`
	WatchTimeSeconds int       `json:"watch_time_seconds"`
	Status           bool      `json:"status"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

type VideoView struct {
	ID               uuid.UUID `json:"id"`
	UserID           uuid.UUID `json:"user_id"`
	VideoID          uuid.UUID `json:"video_id"`
	PointsAwarded    int64     `json:"points_awarded"`
	WatchTimeSeconds int       `json:"watch_time_seconds"`
	Status           string    `json:"status"`
	IPAddress        string    `json:"ip_address"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

type RewardOption struct {
	ID             uuid.UUID `json:"id"`
	Name           string    `json:"name"`
	Description    string    `json:"description"`
	Category       string    `json:"category"`
	PointsRequired int64     `json:"points_required"`
	Status         bool      `json:"status"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Заявка на вывод
type RewardRedemption struct {
	ID             uuid.UUID `json:"id"`
	UserID         uuid.UUID `json:"user_id"`
	RewardID       uuid.UUID `json:"reward_id"`
	PointsUsed     int64     `json:"points_used"`
	PaymentDetails string    `json:"payment_details"`
	Status         string    `json:"status"`
	AdminNotes     string    `json:"admin_notes,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

type Referral struct {
	ID           uuid.UUID `json:"id"`
	ReferrerID   uuid.UUID `json:"referrer_id"`
	ReferredID   uuid.UUID `json:"referred_id"`
	Status       string    `json:"status"`
	PointsEarned int64     `json:"points_earned"` // накопленная комиссия
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Запись журнала баллов
type UserActivity struct {
	ID           uuid.UUID `json:"id"`
	UserID       uuid.UUID `json:"user_id"`
	ActivityType string    `json:"activity_type"`
	PointsChange int64     `json:"points_change"` // со знаком
	Description  string    `json:"description"`
	IPAddress    string    `json:"ip_address,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

type IPHistory struct {
	UserID    uuid.UUID `json:"user_id"`
	IPAddress string    `json:"ip_address"`
	UserAgent string    `json:"user_agent"`
	CreatedAt time.Time `json:"created_at"`
}

// Дневная статистика
type DailyStat struct {
	Date             time.Time `json:"date"`
	TotalUsers       int64     `json:"total_users"`
	NewUsers         int64     `json:"new_users"`
	OfferCompletions int64     `json:"offer_completions"`
	VideoViews       int64     `json:"video_views"`
	Redemptions      int64     `json:"redemptions"`
	PointsEarned     int64     `json:"points_earned"`
	PointsSpent      int64     `json:"points_spent"`
	CreatedAt        time.Time `json:"created_at"`
}

type Page struct {
	Limit  uint64
	Offset uint64
}

func NewPage(page, limit int) Page {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if page <= 0 {
		page = 1
	}
	return Page{Limit: uint64(limit), Offset: uint64((page - 1) * limit)}
}

// Реферал с данными приглашенного
type ReferredUser struct {
	Referral
	Fullname string `json:"fullname"`
	Email    string `json:"email"`
}
