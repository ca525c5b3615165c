package futurecash

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	model "github.com/glkeru/loyalty/futurecash/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgtype"
	"github.com/jackc/pgx/v5"
)

var offerColumns = []string{"id", "offer_wall_id", "external_offer_id", "title", "description", "offer_url", "points", "category", "status", "created_at", "updated_at"}

var completionColumns = []string{"id", "user_id", "offer_id", "transaction_id", "chargeback_transaction_id", "points_awarded", "status", "ip_address", "completion_time", "held_until", "created_at", "updated_at"}

func scanOffer(row pgx.Row) (o model.Offer, err error) {
	err = row.Scan(&o.ID, &o.OfferWallID, &o.ExternalOfferID, &o.Title, &o.Description, &o.OfferURL, &o.Points, &o.Category, &o.Status, &o.CreatedAt, &o.UpdatedAt)
	return o, err
}

func scanCompletion(row pgx.Row) (c model.OfferCompletion, err error) {
	var chargeback pgtype.Text
	var heldUntil pgtype.Timestamptz
	err = row.Scan(&c.ID, &c.UserID, &c.OfferID, &c.TransactionID, &chargeback, &c.PointsAwarded, &c.Status, &c.IPAddress, &c.CompletionTime, &heldUntil, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return model.OfferCompletion{}, err
	}
	c.ChargebackTransactionID = chargeback.String
	if heldUntil.Status == pgtype.Present {
		t := heldUntil.Time
		c.HeldUntil = &t
	}
	return c, nil
}

// Провайдеры
func (p *PointsDB) GetOfferWalls(ctx context.Context) ([]model.OfferWall, error) {
	rows, err := p.query(ctx, p.pool, sq.Select("id", "name", "image_url", "description", "status", "created_at", "updated_at").
		From("offer_walls").
		Where(sq.Eq{"status": true}).
		OrderBy("name").
		PlaceholderFormat(sq.Dollar))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	walls := []model.OfferWall{}
	for rows.Next() {
		var w model.OfferWall
		err = rows.Scan(&w.ID, &w.Name, &w.ImageURL, &w.Description, &w.Status, &w.CreatedAt, &w.UpdatedAt)
		if err != nil {
			return nil, err
		}
		walls = append(walls, w)
	}
	return walls, rows.Err()
}

func (p *PointsDB) GetOffers(ctx context.Context, page model.Page) ([]model.Offer, error) {
	rows, err := p.query(ctx, p.pool, sq.Select(offerColumns...).
		From("offers").
		Where(sq.Eq{"status": true}).
		OrderBy("points DESC").
		Limit(page.Limit).
		Offset(page.Offset).
		PlaceholderFormat(sq.Dollar))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	offers := []model.Offer{}
	for rows.Next() {
		o, err := scanOffer(rows)
		if err != nil {
			return nil, err
		}
		offers = append(offers, o)
	}
	return offers, rows.Err()
}

func (p *PointsDB) GetOffer(ctx context.Context, id uuid.UUID) (model.Offer, error) {
	row, err := p.queryRow(ctx, p.pool, sq.Select(offerColumns...).
		From("offers").
		Where(sq.Eq{"id": id}).
		PlaceholderFormat(sq.Dollar))
	if err != nil {
		return model.Offer{}, err
	}
	o, err := scanOffer(row)
	if err != nil {
		return model.Offer{}, notFound(err, "offer")
	}
	return o, nil
}

// Оффер по провайдеру (offer_walls.name) и внешнему ID
func (p *PointsDB) GetOfferByExternal(ctx context.Context, provider string, externalID string) (model.Offer, error) {
	cols := make([]string, len(offerColumns))
	for i, c := range offerColumns {
		cols[i] = "o." + c
	}
	row, err := p.queryRow(ctx, p.pool, sq.Select(cols...).
		From("offers o").
		Join("offer_walls w ON w.id = o.offer_wall_id").
		Where(sq.Eq{"w.name": provider, "o.external_offer_id": externalID}).
		PlaceholderFormat(sq.Dollar))
	if err != nil {
		return model.Offer{}, err
	}
	o, err := scanOffer(row)
	if err != nil {
		return model.Offer{}, notFound(err, "offer")
	}
	return o, nil
}

func (p *PointsDB) TransactionExists(ctx context.Context, transactionID string) (exists bool, err error) {
	row, err := p.queryRow(ctx, p.pool, sq.Select("1").
		Prefix("SELECT EXISTS (").
		From("offer_completions").
		Where(sq.Or{sq.Eq{"transaction_id": transactionID}, sq.Eq{"chargeback_transaction_id": transactionID}}).
		Suffix(")").
		PlaceholderFormat(sq.Dollar))
	if err != nil {
		return false, err
	}
	err = row.Scan(&exists)
	return exists, err
}

func (p *PointsDB) CountCompletionsByIP(ctx context.Context, ip string, since time.Time) (count int, err error) {
	row, err := p.queryRow(ctx, p.pool, sq.Select("COUNT(*)").
		From("offer_completions").
		Where(sq.Eq{"ip_address": ip}).
		Where(sq.GtOrEq{"completion_time": since}).
		PlaceholderFormat(sq.Dollar))
	if err != nil {
		return 0, err
	}
	err = row.Scan(&count)
	return count, err
}

// Выполнение оффера: строка + баланс + журнал в одной транзакции.
// Уникальность transaction_id проверяет база.
func (p *PointsDB) SaveCompletion(ctx context.Context, completion model.OfferCompletion, activity model.UserActivity) (model.OfferCompletion, int64, error) {
	if completion.ID == uuid.Nil {
		completion.ID = uuid.New()
	}
	now := time.Now()
	completion.CreatedAt = now
	completion.UpdatedAt = now
	activity.UserID = completion.UserID

	var balance int64
	err := p.inTx(ctx, "SaveCompletion", func(tx pgx.Tx) error {
		current, err := p.lockBalance(ctx, tx, completion.UserID)
		if err != nil {
			return err
		}
		_, err = p.exec(ctx, tx, sq.Insert("offer_completions").
			Columns("id", "user_id", "offer_id", "transaction_id", "points_awarded", "status", "ip_address", "completion_time", "held_until", "created_at", "updated_at").
			Values(completion.ID, completion.UserID, completion.OfferID, completion.TransactionID, completion.PointsAwarded, completion.Status, completion.IPAddress, completion.CompletionTime, completion.HeldUntil, completion.CreatedAt, completion.UpdatedAt).
			PlaceholderFormat(sq.Dollar))
		if err != nil {
			if isUniqueViolation(err, "uq_completion_transaction") {
				return model.ErrDuplicateTransaction
			}
			return err
		}
		balance, err = p.writeLedger(ctx, tx, current, activity)
		return err
	})
	if err != nil {
		return model.OfferCompletion{}, 0, err
	}
	return completion, balance, nil
}

// Отмена последнего подтвержденного выполнения
func (p *PointsDB) Chargeback(ctx context.Context, userID uuid.UUID, offerID uuid.UUID, transactionID string, activity model.UserActivity) (model.OfferCompletion, int64, int64, error) {
	activity.UserID = userID

	var completion model.OfferCompletion
	var balance int64
	err := p.inTx(ctx, "Chargeback", func(tx pgx.Tx) error {
		current, err := p.lockBalance(ctx, tx, userID)
		if err != nil {
			return err
		}
		row, err := p.queryRow(ctx, tx, sq.Select(completionColumns...).
			From("offer_completions").
			Where(sq.Eq{"user_id": userID, "offer_id": offerID, "status": []string{model.CompletionApproved, model.CompletionHeld}}).
			OrderBy("completion_time DESC").
			Limit(1).
			Suffix("FOR UPDATE").
			PlaceholderFormat(sq.Dollar))
		if err != nil {
			return err
		}
		completion, err = scanCompletion(row)
		if err != nil {
			return notFound(err, "approved completion")
		}

		// холд еще не начислен - списывать нечего
		if completion.Status == model.CompletionHeld {
			activity.PointsChange = 0
		}

		now := time.Now()
		_, err = p.exec(ctx, tx, sq.Update("offer_completions").
			Set("status", model.CompletionRejected).
			Set("chargeback_transaction_id", transactionID).
			Set("updated_at", now).
			Where(sq.Eq{"id": completion.ID}).
			PlaceholderFormat(sq.Dollar))
		if err != nil {
			if isUniqueViolation(err, "uq_completion_chargeback") {
				return model.ErrDuplicateTransaction
			}
			return err
		}
		completion.Status = model.CompletionRejected
		completion.ChargebackTransactionID = transactionID
		completion.UpdatedAt = now

		balance, err = p.writeLedger(ctx, tx, current, activity)
		return err
	})
	if err != nil {
		return model.OfferCompletion{}, 0, 0, err
	}
	return completion, activity.PointsChange, balance, nil
}

func (p *PointsDB) GetDueHeldCompletions(ctx context.Context, now time.Time, limit uint64) ([]model.OfferCompletion, error) {
	b := sq.Select(completionColumns...).
		From("offer_completions").
		Where(sq.Eq{"status": model.CompletionHeld}).
		Where(sq.Lt{"held_until": now}).
		OrderBy("held_until").
		PlaceholderFormat(sq.Dollar)
	if limit > 0 {
		b = b.Limit(limit)
	}
	rows, err := p.query(ctx, p.pool, b)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := []model.OfferCompletion{}
	for rows.Next() {
		c, err := scanCompletion(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, c)
	}
	return list, rows.Err()
}

// held -> approved: условное обновление, строку, которую уже обработал
// другой воркер, пропускаем (ErrInvalidState)
func (p *PointsDB) ApproveHeld(ctx context.Context, completionID uuid.UUID, now time.Time, activity model.UserActivity) (model.OfferCompletion, int64, error) {
	var completion model.OfferCompletion
	var balance int64
	err := p.inTx(ctx, "ApproveHeld", func(tx pgx.Tx) error {
		// владелец выполнения - для порядка блокировок user -> completion
		var owner uuid.UUID
		err := tx.QueryRow(ctx, "SELECT user_id FROM offer_completions WHERE id = $1", completionID).Scan(&owner)
		if err != nil {
			return notFound(err, "completion")
		}
		current, err := p.lockBalance(ctx, tx, owner)
		if err != nil {
			return err
		}

		row, err := p.queryRow(ctx, tx, sq.Update("offer_completions").
			Set("status", model.CompletionApproved).
			Set("updated_at", time.Now()).
			Where(sq.Eq{"id": completionID, "status": model.CompletionHeld}).
			Where(sq.Lt{"held_until": now}).
			Suffix("RETURNING "+strings.Join(completionColumns, ", ")).
			PlaceholderFormat(sq.Dollar))
		if err != nil {
			return err
		}
		completion, err = scanCompletion(row)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return fmt.Errorf("completion is not held: %w", model.ErrInvalidState)
			}
			return err
		}

		activity.UserID = completion.UserID
		activity.PointsChange = completion.PointsAwarded
		balance, err = p.writeLedger(ctx, tx, current, activity)
		return err
	})
	if err != nil {
		return model.OfferCompletion{}, 0, err
	}
	return completion, balance, nil
}

func (p *PointsDB) GetCompletions(ctx context.Context, userID uuid.UUID, status string, page model.Page) ([]model.OfferCompletion, error) {
	b := sq.Select(completionColumns...).
		From("offer_completions").
		Where(sq.Eq{"user_id": userID}).
		OrderBy("completion_time DESC").
		Limit(page.Limit).
		Offset(page.Offset).
		PlaceholderFormat(sq.Dollar)
	if status != "" {
		b = b.Where(sq.Eq{"status": status})
	}
	rows, err := p.query(ctx, p.pool, b)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := []model.OfferCompletion{}
	for rows.Next() {
		c, err := scanCompletion(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, c)
	}
	return list, rows.Err()
}

// История IP: одна строка на (user, ip, user_agent)
func (p *PointsDB) TrackIP(ctx context.Context, history model.IPHistory) error {
	if history.CreatedAt.IsZero() {
		history.CreatedAt = time.Now()
	}
	_, err := p.exec(ctx, p.pool, sq.Insert("user_ip_history").
		Columns("user_id", "ip_address", "user_agent", "created_at").
		Values(history.UserID, history.IPAddress, history.UserAgent, history.CreatedAt).
		Suffix("ON CONFLICT (user_id, ip_address, user_agent) DO NOTHING").
		PlaceholderFormat(sq.Dollar))
	return err
}
