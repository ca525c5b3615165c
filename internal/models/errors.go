package futurecash

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound              = errors.New("not found")
	ErrBadRequest            = errors.New("bad request")
	ErrUnauthorized          = errors.New("unauthorized")
	ErrInvalidCallback       = errors.New("invalid callback")
	ErrInvalidState          = errors.New("invalid state")
	ErrDuplicate             = errors.New("already exists")
	ErrDuplicateTransaction  = errors.New("transaction already processed")
	ErrAlreadyWatched        = fmt.Errorf("video already watched: %w", ErrInvalidState)
	ErrInsufficientWatchTime = fmt.Errorf("insufficient watch time: %w", ErrInvalidState)
	ErrInsufficientPoints    = fmt.Errorf("insufficient points: %w", ErrInvalidState)
	ErrSelfReferral          = fmt.Errorf("cannot refer yourself: %w", ErrInvalidState)
	ErrLocked                = errors.New("job is locked")
)

// Недостаточно баллов - с контекстом для клиента
type InsufficientPointsError struct {
	Required int64
	Balance  int64
}

func (e *InsufficientPointsError) Error() string {
	return fmt.Sprintf("insufficient points: required %d, balance %d", e.Required, e.Balance)
}

func (e *InsufficientPointsError) Unwrap() error {
	return ErrInsufficientPoints
}

// Недостаточное время просмотра
type WatchTimeError struct {
	Required int
	Provided int
}

func (e *WatchTimeError) Error() string {
	return fmt.Sprintf("insufficient watch time: required %d, provided %d", e.Required, e.Provided)
}

func (e *WatchTimeError) Unwrap() error {
	return ErrInsufficientWatchTime
}
