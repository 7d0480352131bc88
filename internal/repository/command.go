package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kjannette/bullionaire-backend/internal/logger"
	"github.com/kjannette/bullionaire-backend/internal/models"
	"go.uber.org/zap"
)

// CommandRepo is the single-slot command outbox read by the execution bridge.
type CommandRepo struct {
	pool *pgxpool.Pool
	log  *zap.SugaredLogger
}

func NewCommandRepo(pool *pgxpool.Pool) *CommandRepo {
	return &CommandRepo{pool: pool, log: logger.Named("OUTBOX")}
}

// Publish overwrites the slot with cmd. The previous occupant, if any, is lost
// to the bridge but kept in the history table.
func (r *CommandRepo) Publish(ctx context.Context, cmd *models.TradeCommand) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	replaced, err := publishCommand(ctx, tx, cmd)
	if err != nil {
		return err
	}
	if replaced {
		r.log.Warnf("Overwrote an unconsumed command with %s", cmd.Action)
	}
	return tx.Commit(ctx)
}

// Current returns the command waiting in the slot, or nil when it is empty.
func (r *CommandRepo) Current(ctx context.Context) (*models.TradeCommand, error) {
	var payload string
	err := r.pool.QueryRow(ctx,
		`SELECT payload FROM trade_command WHERE slot = $1`, models.CommandSlot,
	).Scan(&payload)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, err
	}

	var cmd models.TradeCommand
	if err := json.Unmarshal([]byte(payload), &cmd); err != nil {
		return nil, fmt.Errorf("decode command: %w", err)
	}
	return &cmd, nil
}

// Clear empties the slot. It reports whether a command was removed.
func (r *CommandRepo) Clear(ctx context.Context) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM trade_command WHERE slot = $1`, models.CommandSlot)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// History returns the most recently published commands, newest first.
func (r *CommandRepo) History(ctx context.Context, limit int) ([]models.CommandRecord, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, action, payload, issued_at, created_at
		 FROM trade_command_history ORDER BY id DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.CommandRecord
	for rows.Next() {
		var rec models.CommandRecord
		var action string
		var payload []byte
		if err := rows.Scan(&rec.ID, &action, &payload, &rec.IssuedAt, &rec.CreatedAt); err != nil {
			return nil, err
		}
		rec.Action = models.CommandAction(action)
		rec.Payload = json.RawMessage(payload)
		out = append(out, rec)
	}
	return out, rows.Err()
}

func publishCommand(ctx context.Context, q querier, cmd *models.TradeCommand) (bool, error) {
	payload, err := json.Marshal(cmd)
	if err != nil {
		return false, fmt.Errorf("encode command: %w", err)
	}

	var replaced bool
	if err := q.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM trade_command WHERE slot = $1)`, models.CommandSlot,
	).Scan(&replaced); err != nil {
		return false, err
	}

	_, err = q.Exec(ctx,
		`INSERT INTO trade_command (slot, payload, issued_at, updated_at)
		 VALUES ($1, $2, $3, NOW())
		 ON CONFLICT (slot) DO UPDATE
		 SET payload = EXCLUDED.payload, issued_at = EXCLUDED.issued_at, updated_at = NOW()`,
		models.CommandSlot, string(payload), cmd.IssuedAt(),
	)
	if err != nil {
		return false, fmt.Errorf("publish command: %w", err)
	}

	_, err = q.Exec(ctx,
		`INSERT INTO trade_command_history (action, payload, issued_at) VALUES ($1, $2, $3)`,
		string(cmd.Action), payload, cmd.IssuedAt(),
	)
	if err != nil {
		return false, fmt.Errorf("record command history: %w", err)
	}
	return replaced, nil
}
