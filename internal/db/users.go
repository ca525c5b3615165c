package futurecash

import (
	"context"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	model "github.com/glkeru/loyalty/futurecash/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgtype"
	"github.com/jackc/pgx/v5"
)

var userColumns = []string{"id", "email", "password_hash", "fullname", "account_status", "points_balance", "referral_code", "referred_by", "created_at", "updated_at"}

func scanUser(row pgx.Row) (user model.User, err error) {
	var referredBy pgtype.UUID
	err = row.Scan(&user.ID, &user.Email, &user.PasswordHash, &user.Fullname, &user.AccountStatus,
		&user.PointsBalance, &user.ReferralCode, &referredBy, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return model.User{}, err
	}
	if referredBy.Status == pgtype.Present {
		ref, _ := uuid.FromBytes(referredBy.Bytes[:])
		user.ReferredBy = &ref
	}
	return user, nil
}

// Создание пользователя + запись о регистрации
func (p *PointsDB) CreateUser(ctx context.Context, user model.User, activity model.UserActivity) (model.User, error) {
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
	user.Email = strings.ToLower(user.Email)
	user.PointsBalance = 0

	err := p.inTx(ctx, "CreateUser", func(tx pgx.Tx) error {
		_, err := p.exec(ctx, tx, sq.Insert("users").
			Columns(userColumns...).
			Values(user.ID, user.Email, user.PasswordHash, user.Fullname, user.AccountStatus, 0, user.ReferralCode, user.ReferredBy, user.CreatedAt, user.UpdatedAt).
			PlaceholderFormat(sq.Dollar))
		if err != nil {
			if isUniqueViolation(err, "") {
				return fmt.Errorf("user %w", model.ErrDuplicate)
			}
			return err
		}
		activity.UserID = user.ID
		_, err = p.writeLedger(ctx, tx, 0, activity)
		return err
	})
	if err != nil {
		return model.User{}, err
	}
	return user, nil
}

func (p *PointsDB) getUserWhere(ctx context.Context, where sq.Eq, what string) (model.User, error) {
	row, err := p.queryRow(ctx, p.pool, sq.Select(userColumns...).
		From("users").
		Where(where).
		PlaceholderFormat(sq.Dollar))
	if err != nil {
		return model.User{}, err
	}
	user, err := scanUser(row)
	if err != nil {
		return model.User{}, notFound(err, what)
	}
	return user, nil
}

func (p *PointsDB) GetUser(ctx context.Context, id uuid.UUID) (model.User, error) {
	return p.getUserWhere(ctx, sq.Eq{"id": id}, "user")
}

func (p *PointsDB) GetUserByEmail(ctx context.Context, email string) (model.User, error) {
	return p.getUserWhere(ctx, sq.Eq{"email": strings.ToLower(email)}, "user")
}

func (p *PointsDB) GetUserByReferralCode(ctx context.Context, code string) (model.User, error) {
	return p.getUserWhere(ctx, sq.Eq{"referral_code": code}, "referrer")
}
