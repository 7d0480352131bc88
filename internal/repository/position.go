package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kjannette/bullionaire-backend/internal/logger"
	"github.com/kjannette/bullionaire-backend/internal/models"
	"go.uber.org/zap"
)

const positionColumns = `id, account_id, symbol, direction, volume, entry_price, exit_price,
	stop_loss, take_profit, confidence_level, status, profit, opened_at, closed_at`

const uniqueViolation = "23505"

// PositionRepo is the Postgres position ledger. Ledger mutations and the
// command they produce are committed in one transaction.
type PositionRepo struct {
	pool *pgxpool.Pool
	log  *zap.SugaredLogger
}

func NewPositionRepo(pool *pgxpool.Pool) *PositionRepo {
	return &PositionRepo{pool: pool, log: logger.Named("LEDGER")}
}

// AppendOpenPosition records p as OPEN and, when cmd is non-nil, publishes it
// in the same transaction. It returns the position id, assigning one if p has
// none, or models.ErrPositionAlreadyOpen if the account already holds one.
func (r *PositionRepo) AppendOpenPosition(ctx context.Context, p *models.Position, cmd *models.TradeCommand) (string, error) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return "", err
	}
	defer tx.Rollback(ctx)

	var existing string
	err = tx.QueryRow(ctx,
		`SELECT id FROM positions WHERE account_id = $1 AND status = 'OPEN' FOR UPDATE`,
		p.AccountID,
	).Scan(&existing)
	switch {
	case err == nil:
		return "", fmt.Errorf("%w: %s", models.ErrPositionAlreadyOpen, existing)
	case !isNoRows(err):
		return "", err
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO positions
		 (id, account_id, symbol, direction, volume, entry_price, exit_price,
		  stop_loss, take_profit, confidence_level, status, profit, opened_at, closed_at)
		 VALUES ($1,$2,$3,$4,$5,$6,NULL,$7,$8,$9,'OPEN',NULL,$10,NULL)`,
		p.ID, p.AccountID, p.Symbol, string(p.Direction), p.Volume, p.EntryPrice,
		p.StopLoss, p.TakeProfit, p.ConfidenceLevel, p.OpenedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return "", models.ErrPositionAlreadyOpen
		}
		return "", fmt.Errorf("insert position: %w", err)
	}

	if cmd != nil {
		replaced, err := publishCommand(ctx, tx, cmd)
		if err != nil {
			return "", err
		}
		if replaced {
			r.log.Warnf("Overwrote an unconsumed command while opening %s", p.ID)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return "", err
	}
	p.Status = models.StatusOpen
	return p.ID, nil
}

// SettlePosition closes the OPEN position id. Settling twice returns
// models.ErrPositionAlreadySettled and changes nothing.
func (r *PositionRepo) SettlePosition(ctx context.Context, id string, s models.Settlement, cmd *models.TradeCommand) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx,
		`UPDATE positions
		 SET exit_price = $2, profit = $3, status = $4, closed_at = $5
		 WHERE id = $1 AND status = 'OPEN'`,
		id, s.ExitPrice, s.Profit, string(models.SettledStatus(s.Profit)), s.ClosedAt,
	)
	if err != nil {
		return fmt.Errorf("settle position: %w", err)
	}
	if tag.RowsAffected() == 0 {
		var status string
		err := tx.QueryRow(ctx, `SELECT status FROM positions WHERE id = $1`, id).Scan(&status)
		if isNoRows(err) {
			return models.ErrPositionNotFound
		}
		if err != nil {
			return err
		}
		return models.ErrPositionAlreadySettled
	}

	if cmd != nil {
		replaced, err := publishCommand(ctx, tx, cmd)
		if err != nil {
			return err
		}
		if replaced {
			r.log.Warnf("Overwrote an unconsumed command while closing %s", id)
		}
	}

	return tx.Commit(ctx)
}

// FindOpenPosition returns nil, nil when the account is flat.
func (r *PositionRepo) FindOpenPosition(ctx context.Context, accountID string) (*models.Position, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+positionColumns+` FROM positions
		 WHERE account_id = $1 AND status = 'OPEN' LIMIT 1`, accountID)
	p, err := scanPosition(row)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, err
	}
	return p, nil
}

// ListClosedPositions returns settled positions ordered by open time ascending.
func (r *PositionRepo) ListClosedPositions(ctx context.Context, accountID string) ([]models.Position, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+positionColumns+` FROM positions
		 WHERE account_id = $1 AND status <> 'OPEN'
		 ORDER BY opened_at ASC`, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectPositions(rows)
}

// ListClosedSince returns positions settled at or after since.
func (r *PositionRepo) ListClosedSince(ctx context.Context, accountID string, since time.Time) ([]models.Position, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+positionColumns+` FROM positions
		 WHERE account_id = $1 AND status <> 'OPEN' AND closed_at >= $2
		 ORDER BY opened_at ASC`, accountID, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectPositions(rows)
}

func scanPosition(row scannable) (*models.Position, error) {
	var p models.Position
	var dir, status string
	err := row.Scan(
		&p.ID, &p.AccountID, &p.Symbol, &dir, &p.Volume, &p.EntryPrice, &p.ExitPrice,
		&p.StopLoss, &p.TakeProfit, &p.ConfidenceLevel, &status, &p.Profit, &p.OpenedAt, &p.ClosedAt,
	)
	if err != nil {
		return nil, err
	}
	p.Direction = models.Direction(dir)
	p.Status = models.PositionStatus(status)
	return &p, nil
}

func collectPositions(rows rowsIter) ([]models.Position, error) {
	var out []models.Position
	for rows.Next() {
		p, err := scanPosition(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}
