package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kjannette/bullionaire-backend/internal/models"
)

type ActivityRepo struct {
	pool *pgxpool.Pool
}

func NewActivityRepo(pool *pgxpool.Pool) *ActivityRepo {
	return &ActivityRepo{pool: pool}
}

func (r *ActivityRepo) Append(ctx context.Context, e *models.ActivityLogEntry) error {
	return insertActivity(ctx, r.pool, e)
}

// Recent returns up to limit entries for accountID, newest first.
func (r *ActivityRepo) Recent(ctx context.Context, accountID string, limit int) ([]models.ActivityLogEntry, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, account_id, timestamp, message, type
		 FROM bot_activities WHERE account_id = $1
		 ORDER BY timestamp DESC LIMIT $2`,
		accountID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectActivities(rows)
}

func insertActivity(ctx context.Context, q querier, e *models.ActivityLogEntry) error {
	_, err := q.Exec(ctx,
		`INSERT INTO bot_activities (id, account_id, timestamp, message, type)
		 VALUES ($1,$2,$3,$4,$5)`,
		e.ID, e.AccountID, e.Timestamp, e.Message, string(e.Type),
	)
	return err
}

func collectActivities(rows rowsIter) ([]models.ActivityLogEntry, error) {
	var out []models.ActivityLogEntry
	for rows.Next() {
		var e models.ActivityLogEntry
		var typ string
		if err := rows.Scan(&e.ID, &e.AccountID, &e.Timestamp, &e.Message, &typ); err != nil {
			return nil, err
		}
		e.Type = models.ActivityType(typ)
		out = append(out, e)
	}
	return out, rows.Err()
}
