package futurecash

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Колбэк провайдера
type Callback struct {
	TransactionID string `json:"transaction_id"`
	UserID        string `json:"user_id"`
	OfferID       string `json:"offer_id"` // внешний ID оффера
	Points        int64  `json:"points"`   // < 0 - chargeback
	Provider      string `json:"provider"`
	IPAddress     string `json:"ip_address"`
	Signature     string `json:"signature"`
}

func (c Callback) Validate() (userID uuid.UUID, err error) {
	if c.TransactionID == "" || c.UserID == "" || c.OfferID == "" || c.Provider == "" {
		return uuid.Nil, fmt.Errorf("transaction_id, user_id, offer_id and provider are required: %w", ErrBadRequest)
	}
	userID, err = uuid.Parse(c.UserID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("user %w", ErrNotFound)
	}
	return userID, nil
}

func (c Callback) IsChargeback() bool {
	return c.Points < 0
}

// результат обработки колбэка
const (
	ResultApproved   = "approved"
	ResultHeld       = "held"
	ResultDuplicate  = "duplicate"
	ResultChargeback = "chargeback"
	ResultIgnored    = "ignored"
	ResultRejected   = "rejected"
)

type CallbackResult struct {
	Result     string           `json:"result"`
	Completion *OfferCompletion `json:"completion,omitempty"`
}

// Запись журнала колбэков (mongo)
type CallbackRecord struct {
	ID        uuid.UUID `bson:"id"`
	Callback  Callback  `bson:"callback"`
	Result    string    `bson:"result"`
	Error     string    `bson:"error,omitempty"`
	CreatedAt time.Time `bson:"created_at"`
}

// Событие изменения баланса (kafka)
type PointsEvent struct {
	ID           uuid.UUID `json:"id"`
	UserID       uuid.UUID `json:"user_id"`
	ActivityType string    `json:"activity_type"`
	PointsChange int64     `json:"points_change"`
	Balance      int64     `json:"balance"`
	CreatedAt    time.Time `json:"created_at"`
}

// Статус заявки от исполнителя (rabbitmq)
type RedemptionStatusUpdate struct {
	RedemptionID string `json:"redemption_id"`
	Status       string `json:"status"`
	AdminNotes   string `json:"admin_notes"`
}
