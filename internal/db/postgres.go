package futurecash

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	sq "github.com/Masterminds/squirrel"
	model "github.com/glkeru/loyalty/futurecash/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

type PointsDB struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

func NewPointsDB(logger *zap.Logger) (db *PointsDB, err error) {
	// config
	purl := os.Getenv("FUTURECASH_DB")
	if purl == "" {
		return nil, fmt.Errorf("env FUTURECASH_DB is not set")
	}
	port := os.Getenv("FUTURECASH_DB_PORT")
	if port == "" {
		return nil, fmt.Errorf("env FUTURECASH_DB_PORT is not set")
	}
	user := os.Getenv("FUTURECASH_DB_USER")
	if user == "" {
		return nil, fmt.Errorf("env FUTURECASH_DB_USER is not set")
	}
	password := os.Getenv("FUTURECASH_DB_PASSWORD")
	if password == "" {
		return nil, fmt.Errorf("env FUTURECASH_DB_PASSWORD is not set")
	}
	database := os.Getenv("FUTURECASH_DB_BASE")
	if database == "" {
		return nil, fmt.Errorf("env FUTURECASH_DB_BASE is not set")
	}
	dsn := "postgres://" + user + ":" + password + "@" + purl + ":" + port + "/" + database

	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}
	config.MaxConns = 25
	config.MinConns = 2
	config.MaxConnLifetime = time.Hour
	config.MaxConnIdleTime = 30 * time.Minute
	config.HealthCheckPeriod = time.Minute

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, err
	}
	err = pool.Ping(ctx)
	if err != nil {
		pool.Close()
		return nil, err
	}
	return &PointsDB{pool, logger}, nil
}

func (p *PointsDB) Close() {
	p.pool.Close()
}

func (p *PointsDB) logSQL(err error, sql string, args []any) {
	p.logger.Error("SQL error",
		zap.Error(err),
		zap.String("query", sql),
		zap.Any("args", args),
	)
}

// построение запроса с логированием ошибки
func (p *PointsDB) build(b sq.Sqlizer) (string, []any, error) {
	sql, args, err := b.ToSql()
	if err != nil {
		p.logSQL(err, sql, args)
		return "", nil, err
	}
	return sql, args, nil
}

// выполнение запроса в рамках транзакции или соединения
type querier interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func (p *PointsDB) exec(ctx context.Context, q querier, b sq.Sqlizer) (pgconn.CommandTag, error) {
	sql, args, err := p.build(b)
	if err != nil {
		return pgconn.CommandTag{}, err
	}
	tag, err := q.Exec(ctx, sql, args...)
	if err != nil {
		p.logSQL(err, sql, args)
		return tag, err
	}
	return tag, nil
}

func (p *PointsDB) queryRow(ctx context.Context, q querier, b sq.Sqlizer) (pgx.Row, error) {
	sql, args, err := p.build(b)
	if err != nil {
		return nil, err
	}
	return q.QueryRow(ctx, sql, args...), nil
}

func (p *PointsDB) query(ctx context.Context, q querier, b sq.Sqlizer) (pgx.Rows, error) {
	sql, args, err := p.build(b)
	if err != nil {
		return nil, err
	}
	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		p.logSQL(err, sql, args)
		return nil, err
	}
	return rows, nil
}

// Транзакция: commit если fn без ошибки, иначе rollback
func (p *PointsDB) inTx(ctx context.Context, service string, fn func(tx pgx.Tx) error) (err error) {
	conn, err := p.pool.Acquire(ctx)
	if err != nil {
		p.logger.Error("Get connection error", zap.Error(err), zap.String("service", service))
		return err
	}
	defer conn.Release()

	tx, err := conn.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		p.logger.Error("Begin tx error", zap.Error(err), zap.String("service", service))
		return err
	}
	defer func() {
		if err != nil {
			tx.Rollback(ctx)
		}
	}()

	err = fn(tx)
	if err != nil {
		return err
	}
	err = tx.Commit(ctx)
	if err != nil {
		p.logger.Error("Commit error", zap.Error(err), zap.String("service", service))
		return err
	}
	return nil
}

// блокируем строку с балансом
func (p *PointsDB) lockBalance(ctx context.Context, tx pgx.Tx, user uuid.UUID) (balance int64, err error) {
	row := tx.QueryRow(ctx, "SELECT points_balance FROM users WHERE id = $1 FOR UPDATE", user)
	err = row.Scan(&balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, fmt.Errorf("user %w", model.ErrNotFound)
		}
		return 0, err
	}
	return balance, nil
}

// изменение заблокированного баланса + запись в журнал
func (p *PointsDB) writeLedger(ctx context.Context, tx pgx.Tx, balance int64, activity model.UserActivity) (int64, error) {
	now := time.Now()
	if activity.ID == uuid.Nil {
		activity.ID = uuid.New()
	}
	if activity.CreatedAt.IsZero() {
		activity.CreatedAt = now
	}

	if activity.PointsChange != 0 {
		balance += activity.PointsChange
		_, err := p.exec(ctx, tx, sq.Update("users").
			Set("points_balance", balance).
			Set("updated_at", now).
			Where(sq.Eq{"id": activity.UserID}).
			PlaceholderFormat(sq.Dollar))
		if err != nil {
			return 0, err
		}
	}

	_, err := p.exec(ctx, tx, sq.Insert("user_activities").
		Columns("id", "user_id", "activity_type", "points_change", "description", "ip_address", "created_at").
		Values(activity.ID, activity.UserID, activity.ActivityType, activity.PointsChange, activity.Description, activity.IPAddress, activity.CreatedAt).
		PlaceholderFormat(sq.Dollar))
	if err != nil {
		return 0, err
	}
	return balance, nil
}

func (p *PointsDB) applyPoints(ctx context.Context, tx pgx.Tx, activity model.UserActivity) (int64, error) {
	balance, err := p.lockBalance(ctx, tx, activity.UserID)
	if err != nil {
		return 0, err
	}
	return p.writeLedger(ctx, tx, balance, activity)
}

// нарушение уникальности (23505), constraint пустой - любое
func isUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return constraint == "" || pgErr.ConstraintName == constraint
	}
	return false
}

func notFound(err error, what string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s %w", what, model.ErrNotFound)
	}
	return err
}

// Настройки
func (p *PointsDB) GetSetting(ctx context.Context, key string) (value string, err error) {
	row, err := p.queryRow(ctx, p.pool, sq.Select("setting_value").
		From("system_settings").
		Where(sq.Eq{"setting_key": key}).
		PlaceholderFormat(sq.Dollar))
	if err != nil {
		return "", err
	}
	err = row.Scan(&value)
	if err != nil {
		return "", notFound(err, "setting "+key)
	}
	return value, nil
}
