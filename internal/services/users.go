package futurecash

import (
	"context"
	"errors"
	"fmt"
	"strings"

	auth "github.com/glkeru/loyalty/futurecash/internal/auth"
	interf "github.com/glkeru/loyalty/futurecash/internal/interfaces"
	model "github.com/glkeru/loyalty/futurecash/internal/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const codeAttempts = 5

type UserService struct {
	logger    *zap.Logger
	db        interf.UserStorage
	referrals *ReferralService
	jwt       *auth.JWTService
}

func NewUserService(logger *zap.Logger, db interf.UserStorage, referrals *ReferralService, jwt *auth.JWTService) *UserService {
	return &UserService{logger, db, referrals, jwt}
}

type Session struct {
	Token string     `json:"token"`
	User  model.User `json:"user"`
}

// реферальный код пользователя
func newReferralCode() string {
	return strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}

// Регистрация: хэш пароля, код, запись в журнал, привязка к пригласившему
func (s *UserService) Register(ctx context.Context, email string, password string, fullname string, referralCode string) (Session, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || password == "" || fullname == "" {
		return Session{}, fmt.Errorf("email, password and fullname are required: %w", model.ErrBadRequest)
	}
	_, err := s.db.GetUserByEmail(ctx, email)
	if err == nil {
		return Session{}, fmt.Errorf("email %w", model.ErrDuplicate)
	}
	if !errors.Is(err, model.ErrNotFound) {
		return Session{}, err
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return Session{}, err
	}

	var user model.User
	for i := 0; i < codeAttempts; i++ {
		user, err = s.db.CreateUser(ctx, model.User{
			Email:         email,
			PasswordHash:  hash,
			Fullname:      fullname,
			AccountStatus: model.AccountActive,
			ReferralCode:  newReferralCode(),
		}, model.UserActivity{
			ActivityType: model.ActivityRegistration,
			Description:  "User registered",
		})
		if !errors.Is(err, model.ErrDuplicate) {
			break
		}
	}
	if err != nil {
		return Session{}, err
	}

	// ошибка привязки не отменяет регистрацию
	if referralCode != "" && s.referrals != nil {
		_, rerr := s.referrals.CreateReferral(ctx, user.ID, referralCode)
		if rerr != nil {
			s.logger.Warn("Referral on register", zap.Error(rerr), zap.String("user_id", user.ID.String()))
		} else if updated, gerr := s.db.GetUser(ctx, user.ID); gerr == nil {
			user = updated
		}
	}

	token, err := s.jwt.GenerateToken(user.ID, user.Email)
	if err != nil {
		return Session{}, err
	}
	return Session{Token: token, User: user}, nil
}

func (s *UserService) Login(ctx context.Context, email string, password string) (Session, error) {
	user, err := s.db.GetUserByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return Session{}, fmt.Errorf("invalid email or password: %w", model.ErrUnauthorized)
		}
		return Session{}, err
	}
	if !auth.CheckPassword(user.PasswordHash, password) {
		return Session{}, fmt.Errorf("invalid email or password: %w", model.ErrUnauthorized)
	}
	if user.AccountStatus != model.AccountActive {
		return Session{}, fmt.Errorf("account is %s: %w", user.AccountStatus, model.ErrUnauthorized)
	}
	token, err := s.jwt.GenerateToken(user.ID, user.Email)
	if err != nil {
		return Session{}, err
	}
	return Session{Token: token, User: user}, nil
}

func (s *UserService) Get(ctx context.Context, id uuid.UUID) (model.User, error) {
	return s.db.GetUser(ctx, id)
}
