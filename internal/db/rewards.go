package futurecash

import (
	"context"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	model "github.com/glkeru/loyalty/futurecash/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgtype"
	"github.com/jackc/pgx/v5"
)

var rewardColumns = []string{"id", "name", "description", "category", "points_required", "status", "created_at", "updated_at"}

var redemptionColumns = []string{"id", "user_id", "reward_id", "points_used", "payment_details", "status", "admin_notes", "created_at", "updated_at"}

func scanReward(row pgx.Row) (r model.RewardOption, err error) {
	err = row.Scan(&r.ID, &r.Name, &r.Description, &r.Category, &r.PointsRequired, &r.Status, &r.CreatedAt, &r.UpdatedAt)
	return r, err
}

func scanRedemption(row pgx.Row) (r model.RewardRedemption, err error) {
	var notes pgtype.Text
	err = row.Scan(&r.ID, &r.UserID, &r.RewardID, &r.PointsUsed, &r.PaymentDetails, &r.Status, &notes, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return model.RewardRedemption{}, err
	}
	r.AdminNotes = notes.String
	return r, nil
}

func (p *PointsDB) GetRewards(ctx context.Context) ([]model.RewardOption, error) {
	rows, err := p.query(ctx, p.pool, sq.Select(rewardColumns...).
		From("reward_options").
		Where(sq.Eq{"status": true}).
		OrderBy("points_required").
		PlaceholderFormat(sq.Dollar))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := []model.RewardOption{}
	for rows.Next() {
		r, err := scanReward(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, r)
	}
	return list, rows.Err()
}

func (p *PointsDB) GetReward(ctx context.Context, id uuid.UUID) (model.RewardOption, error) {
	row, err := p.queryRow(ctx, p.pool, sq.Select(rewardColumns...).
		From("reward_options").
		Where(sq.Eq{"id": id}).
		PlaceholderFormat(sq.Dollar))
	if err != nil {
		return model.RewardOption{}, err
	}
	r, err := scanReward(row)
	if err != nil {
		return model.RewardOption{}, notFound(err, "reward")
	}
	return r, nil
}

// Списание: проверка баланса под блокировкой, заявка и журнал в одной транзакции
func (p *PointsDB) Redeem(ctx context.Context, redemption model.RewardRedemption, activity model.UserActivity) (model.RewardRedemption, int64, error) {
	if redemption.ID == uuid.Nil {
		redemption.ID = uuid.New()
	}
	redemption.Status = model.RedemptionPending
	redemption.CreatedAt = time.Now()
	redemption.UpdatedAt = redemption.CreatedAt
	activity.UserID = redemption.UserID
	activity.PointsChange = -redemption.PointsUsed

	var balance int64
	err := p.inTx(ctx, "Redeem", func(tx pgx.Tx) error {
		current, err := p.lockBalance(ctx, tx, redemption.UserID)
		if err != nil {
			return err
		}
		if current < redemption.PointsUsed {
			return &model.InsufficientPointsError{Required: redemption.PointsUsed, Balance: current}
		}
		_, err = p.exec(ctx, tx, sq.Insert("reward_redemptions").
			Columns(redemptionColumns...).
			Values(redemption.ID, redemption.UserID, redemption.RewardID, redemption.PointsUsed, redemption.PaymentDetails, redemption.Status, redemption.AdminNotes, redemption.CreatedAt, redemption.UpdatedAt).
			PlaceholderFormat(sq.Dollar))
		if err != nil {
			return err
		}
		balance, err = p.writeLedger(ctx, tx, current, activity)
		return err
	})
	if err != nil {
		return model.RewardRedemption{}, 0, err
	}
	return redemption, balance, nil
}

func (p *PointsDB) GetRedemption(ctx context.Context, id uuid.UUID) (model.RewardRedemption, error) {
	row, err := p.queryRow(ctx, p.pool, sq.Select(redemptionColumns...).
		From("reward_redemptions").
		Where(sq.Eq{"id": id}).
		PlaceholderFormat(sq.Dollar))
	if err != nil {
		return model.RewardRedemption{}, err
	}
	r, err := scanRedemption(row)
	if err != nil {
		return model.RewardRedemption{}, notFound(err, "redemption")
	}
	return r, nil
}

// Смена статуса заявки только из ожидаемого статуса
func (p *PointsDB) UpdateRedemptionStatus(ctx context.Context, id uuid.UUID, from string, to string, notes string) (model.RewardRedemption, error) {
	b := sq.Update("reward_redemptions").
		Set("status", to).
		Set("updated_at", time.Now()).
		Where(sq.Eq{"id": id, "status": from}).
		Suffix("RETURNING id, user_id, reward_id, points_used, payment_details, status, admin_notes, created_at, updated_at").
		PlaceholderFormat(sq.Dollar)
	if notes != "" {
		b = b.Set("admin_notes", notes)
	}
	row, err := p.queryRow(ctx, p.pool, b)
	if err != nil {
		return model.RewardRedemption{}, err
	}
	r, err := scanRedemption(row)
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			return model.RewardRedemption{}, err
		}
		// нет строки или статус уже другой
		current, gerr := p.GetRedemption(ctx, id)
		if gerr != nil {
			return model.RewardRedemption{}, gerr
		}
		return model.RewardRedemption{}, fmt.Errorf("redemption is %s: %w", current.Status, model.ErrInvalidState)
	}
	return r, nil
}

func (p *PointsDB) GetRedemptions(ctx context.Context, userID uuid.UUID, page model.Page) ([]model.RewardRedemption, error) {
	rows, err := p.query(ctx, p.pool, sq.Select(redemptionColumns...).
		From("reward_redemptions").
		Where(sq.Eq{"user_id": userID}).
		OrderBy("created_at DESC").
		Limit(page.Limit).
		Offset(page.Offset).
		PlaceholderFormat(sq.Dollar))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := []model.RewardRedemption{}
	for rows.Next() {
		r, err := scanRedemption(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, r)
	}
	return list, rows.Err()
}
