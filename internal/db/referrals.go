package futurecash

import (
	"context"
	"errors"
	"time"

	sq "github.com/Masterminds/squirrel"
	model "github.com/glkeru/loyalty/futurecash/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

var referralColumns = []string{"id", "referrer_id", "referred_id", "status", "points_earned", "created_at", "updated_at"}

func scanReferral(row pgx.Row) (r model.Referral, err error) {
	err = row.Scan(&r.ID, &r.ReferrerID, &r.ReferredID, &r.Status, &r.PointsEarned, &r.CreatedAt, &r.UpdatedAt)
	return r, err
}

func (p *PointsDB) getReferralPair(ctx context.Context, q querier, referrerID uuid.UUID, referredID uuid.UUID) (model.Referral, error) {
	row, err := p.queryRow(ctx, q, sq.Select(referralColumns...).
		From("referrals").
		Where(sq.Eq{"referrer_id": referrerID, "referred_id": referredID}).
		PlaceholderFormat(sq.Dollar))
	if err != nil {
		return model.Referral{}, err
	}
	return scanReferral(row)
}

// Создание реферала. Пара (referrer, referred) уникальна - при повторе
// возвращается существующая строка (created = false).
func (p *PointsDB) CreateReferral(ctx context.Context, referral model.Referral, activity model.UserActivity) (model.Referral, bool, error) {
	existing, err := p.getReferralPair(ctx, p.pool, referral.ReferrerID, referral.ReferredID)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return model.Referral{}, false, err
	}

	if referral.ID == uuid.Nil {
		referral.ID = uuid.New()
	}
	referral.CreatedAt = time.Now()
	referral.UpdatedAt = referral.CreatedAt
	activity.UserID = referral.ReferredID
	activity.PointsChange = 0

	var created bool
	err = p.inTx(ctx, "CreateReferral", func(tx pgx.Tx) error {
		tag, err := p.exec(ctx, tx, sq.Insert("referrals").
			Columns(referralColumns...).
			Values(referral.ID, referral.ReferrerID, referral.ReferredID, referral.Status, referral.PointsEarned, referral.CreatedAt, referral.UpdatedAt).
			Suffix("ON CONFLICT (referrer_id, referred_id) DO NOTHING").
			PlaceholderFormat(sq.Dollar))
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			// параллельный запрос успел раньше
			return nil
		}
		created = true

		_, err = p.exec(ctx, tx, sq.Update("users").
			Set("referred_by", referral.ReferrerID).
			Set("updated_at", time.Now()).
			Where(sq.Eq{"id": referral.ReferredID, "referred_by": nil}).
			PlaceholderFormat(sq.Dollar))
		if err != nil {
			return err
		}
		_, err = p.applyPoints(ctx, tx, activity)
		return err
	})
	if err != nil {
		return model.Referral{}, false, err
	}
	if !created {
		existing, err = p.getReferralPair(ctx, p.pool, referral.ReferrerID, referral.ReferredID)
		if err != nil {
			return model.Referral{}, false, notFound(err, "referral")
		}
		return existing, false, nil
	}
	return referral, true, nil
}

func (p *PointsDB) GetReferralByReferred(ctx context.Context, referredID uuid.UUID) (model.Referral, error) {
	row, err := p.queryRow(ctx, p.pool, sq.Select(referralColumns...).
		From("referrals").
		Where(sq.Eq{"referred_id": referredID, "status": model.ReferralActive}).
		OrderBy("created_at").
		Limit(1).
		PlaceholderFormat(sq.Dollar))
	if err != nil {
		return model.Referral{}, err
	}
	r, err := scanReferral(row)
	if err != nil {
		return model.Referral{}, notFound(err, "referral")
	}
	return r, nil
}

// Комиссия: накопление в referrals + начисление пригласившему
func (p *PointsDB) AwardCommission(ctx context.Context, referralID uuid.UUID, activity model.UserActivity) (model.Referral, int64, error) {
	var referral model.Referral
	var balance int64
	err := p.inTx(ctx, "AwardCommission", func(tx pgx.Tx) error {
		var referrer uuid.UUID
		err := tx.QueryRow(ctx, "SELECT referrer_id FROM referrals WHERE id = $1", referralID).Scan(&referrer)
		if err != nil {
			return notFound(err, "referral")
		}
		current, err := p.lockBalance(ctx, tx, referrer)
		if err != nil {
			return err
		}

		row, err := p.queryRow(ctx, tx, sq.Update("referrals").
			Set("points_earned", sq.Expr("points_earned + ?", activity.PointsChange)).
			Set("updated_at", time.Now()).
			Where(sq.Eq{"id": referralID}).
			Suffix("RETURNING id, referrer_id, referred_id, status, points_earned, created_at, updated_at").
			PlaceholderFormat(sq.Dollar))
		if err != nil {
			return err
		}
		referral, err = scanReferral(row)
		if err != nil {
			return notFound(err, "referral")
		}

		activity.UserID = referrer
		balance, err = p.writeLedger(ctx, tx, current, activity)
		return err
	})
	if err != nil {
		return model.Referral{}, 0, err
	}
	return referral, balance, nil
}

func (p *PointsDB) GetReferrals(ctx context.Context, referrerID uuid.UUID) ([]model.ReferredUser, error) {
	rows, err := p.query(ctx, p.pool, sq.Select("r.id", "r.referrer_id", "r.referred_id", "r.status", "r.points_earned", "r.created_at", "r.updated_at", "u.fullname", "u.email").
		From("referrals r").
		Join("users u ON u.id = r.referred_id").
		Where(sq.Eq{"r.referrer_id": referrerID}).
		OrderBy("r.created_at DESC").
		PlaceholderFormat(sq.Dollar))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := []model.ReferredUser{}
	for rows.Next() {
		var ru model.ReferredUser
		err = rows.Scan(&ru.ID, &ru.ReferrerID, &ru.ReferredID, &ru.Status, &ru.PointsEarned, &ru.CreatedAt, &ru.UpdatedAt, &ru.Fullname, &ru.Email)
		if err != nil {
			return nil, err
		}
		list = append(list, ru)
	}
	return list, rows.Err()
}
