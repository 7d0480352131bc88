package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kjannette/bullionaire-backend/internal/models"
)

const accountColumns = `id, user_id, starting_balance, current_balance, daily_profit_target,
	daily_risk_limit, max_position_size, auto_trading_active, created_at, updated_at`

type AccountRepo struct {
	pool *pgxpool.Pool
}

func NewAccountRepo(pool *pgxpool.Pool) *AccountRepo {
	return &AccountRepo{pool: pool}
}

// Create inserts a with its welcome activities in one transaction.
func (r *AccountRepo) Create(ctx context.Context, a *models.Account) (*models.Account, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	row := tx.QueryRow(ctx,
		`INSERT INTO trading_accounts
		 (id, user_id, starting_balance, current_balance, daily_profit_target,
		  daily_risk_limit, max_position_size, auto_trading_active, created_at, updated_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,NOW(),NOW())
		 RETURNING `+accountColumns,
		a.ID, a.UserID, a.StartingBalance, a.CurrentBalance, a.DailyProfitTarget,
		a.DailyRiskLimit, a.MaxPositionSize, a.AutoTradingActive,
	)
	created, err := scanAccount(row)
	if err != nil {
		return nil, fmt.Errorf("insert account: %w", err)
	}

	now := time.Now().UTC()
	for i, msg := range models.WelcomeMessages {
		e := &models.ActivityLogEntry{
			ID:        uuid.NewString(),
			AccountID: created.ID,
			Timestamp: now.Add(time.Duration(i) * time.Millisecond),
			Message:   msg,
			Type:      models.ActivityUpdate,
		}
		if err := insertActivity(ctx, tx, e); err != nil {
			return nil, fmt.Errorf("insert welcome activity: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return created, nil
}

func (r *AccountRepo) Get(ctx context.Context, id string) (*models.Account, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+accountColumns+` FROM trading_accounts WHERE id = $1`, id)
	a, err := scanAccount(row)
	if err != nil {
		if isNoRows(err) {
			return nil, models.ErrAccountNotFound
		}
		return nil, err
	}
	return a, nil
}

// FirstForUser returns the oldest account of userID.
func (r *AccountRepo) FirstForUser(ctx context.Context, userID string) (*models.Account, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+accountColumns+` FROM trading_accounts
		 WHERE user_id = $1 ORDER BY created_at ASC LIMIT 1`, userID)
	a, err := scanAccount(row)
	if err != nil {
		if isNoRows(err) {
			return nil, models.ErrAccountNotFound
		}
		return nil, err
	}
	return a, nil
}

func (r *AccountRepo) UpdateLimits(ctx context.Context, id string, l models.AccountLimits) (*models.Account, error) {
	if err := l.Validate(); err != nil {
		return nil, err
	}
	row := r.pool.QueryRow(ctx,
		`UPDATE trading_accounts
		 SET current_balance = $2,
		     daily_profit_target = $3,
		     daily_risk_limit = $4,
		     max_position_size = $5,
		     updated_at = NOW()
		 WHERE id = $1
		 RETURNING `+accountColumns,
		id, l.CurrentBalance, l.DailyProfitTarget, l.DailyRiskLimit, l.MaxPositionSize,
	)
	a, err := scanAccount(row)
	if err != nil {
		if isNoRows(err) {
			return nil, models.ErrAccountNotFound
		}
		return nil, err
	}
	return a, nil
}

func (r *AccountRepo) SetAutoTrading(ctx context.Context, id string, active bool) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE trading_accounts SET auto_trading_active = $2, updated_at = NOW() WHERE id = $1`,
		id, active,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return models.ErrAccountNotFound
	}
	return nil
}

// ListAutoTrading returns the accounts whose controller should be running.
func (r *AccountRepo) ListAutoTrading(ctx context.Context) ([]models.Account, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+accountColumns+` FROM trading_accounts
		 WHERE auto_trading_active = true ORDER BY created_at ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

func scanAccount(row scannable) (*models.Account, error) {
	var a models.Account
	err := row.Scan(
		&a.ID, &a.UserID, &a.StartingBalance, &a.CurrentBalance, &a.DailyProfitTarget,
		&a.DailyRiskLimit, &a.MaxPositionSize, &a.AutoTradingActive, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}
