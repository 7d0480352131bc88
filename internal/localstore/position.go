package localstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/kjannette/bullionaire-backend/internal/models"
	"gorm.io/gorm"
)

type PositionStore struct {
	s *Store
}

func (p *PositionStore) AppendOpenPosition(ctx context.Context, pos *models.Position, cmd *models.TradeCommand) (string, error) {
	if pos.ID == "" {
		pos.ID = uuid.NewString()
	}
	m := positionToModel(pos)
	m.Status = string(models.StatusOpen)
	m.ExitPrice, m.Profit, m.ClosedAt = nil, nil, nil

	err := p.s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing []positionModel
		if err := tx.Where("account_id = ? AND status = ?", pos.AccountID, models.StatusOpen).
			Limit(1).Find(&existing).Error; err != nil {
			return err
		}
		if len(existing) > 0 {
			return fmt.Errorf("%w: %s", models.ErrPositionAlreadyOpen, existing[0].ID)
		}
		if err := tx.Create(&m).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return models.ErrPositionAlreadyOpen
			}
			return fmt.Errorf("insert position: %w", err)
		}
		if cmd == nil {
			return nil
		}
		replaced, err := publishCommand(tx, cmd)
		if err != nil {
			return err
		}
		if replaced {
			p.s.log.Warnf("Overwrote an unconsumed command while opening %s", pos.ID)
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	pos.Status = models.StatusOpen
	return pos.ID, nil
}

func (p *PositionStore) SettlePosition(ctx context.Context, id string, s models.Settlement, cmd *models.TradeCommand) error {
	closedAt := s.ClosedAt.UTC()
	exit, profit := s.ExitPrice, s.Profit

	return p.s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&positionModel{}).
			Where("id = ? AND status = ?", id, models.StatusOpen).
			Updates(map[string]any{
				"exit_price": exit,
				"profit":     profit,
				"status":     string(models.SettledStatus(profit)),
				"closed_at":  closedAt,
			})
		if res.Error != nil {
			return fmt.Errorf("settle position: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			var n int64
			if err := tx.Model(&positionModel{}).Where("id = ?", id).Count(&n).Error; err != nil {
				return err
			}
			if n == 0 {
				return models.ErrPositionNotFound
			}
			return models.ErrPositionAlreadySettled
		}
		if cmd == nil {
			return nil
		}
		replaced, err := publishCommand(tx, cmd)
		if err != nil {
			return err
		}
		if replaced {
			p.s.log.Warnf("Overwrote an unconsumed command while closing %s", id)
		}
		return nil
	})
}

func (p *PositionStore) FindOpenPosition(ctx context.Context, accountID string) (*models.Position, error) {
	var rows []positionModel
	if err := p.s.db.WithContext(ctx).
		Where("account_id = ? AND status = ?", accountID, models.StatusOpen).
		Limit(1).Find(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return modelToPosition(rows[0]), nil
}

func (p *PositionStore) ListClosedPositions(ctx context.Context, accountID string) ([]models.Position, error) {
	var rows []positionModel
	if err := p.s.db.WithContext(ctx).
		Where("account_id = ? AND status <> ?", accountID, models.StatusOpen).
		Order("opened_at ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return modelsToPositions(rows), nil
}

func (p *PositionStore) ListClosedSince(ctx context.Context, accountID string, since time.Time) ([]models.Position, error) {
	var rows []positionModel
	if err := p.s.db.WithContext(ctx).
		Where("account_id = ? AND status <> ? AND closed_at >= ?", accountID, models.StatusOpen, since.UTC()).
		Order("opened_at ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return modelsToPositions(rows), nil
}

func positionToModel(p *models.Position) positionModel {
	return positionModel{
		ID:              p.ID,
		AccountID:       p.AccountID,
		Symbol:          p.Symbol,
		Direction:       string(p.Direction),
		Volume:          p.Volume,
		EntryPrice:      p.EntryPrice,
		ExitPrice:       p.ExitPrice,
		StopLoss:        p.StopLoss,
		TakeProfit:      p.TakeProfit,
		ConfidenceLevel: p.ConfidenceLevel,
		Status:          string(p.Status),
		Profit:          p.Profit,
		OpenedAt:        p.OpenedAt.UTC(),
		ClosedAt:        p.ClosedAt,
	}
}

func modelToPosition(m positionModel) *models.Position {
	return &models.Position{
		ID:              m.ID,
		AccountID:       m.AccountID,
		Symbol:          m.Symbol,
		Direction:       models.Direction(m.Direction),
		Volume:          m.Volume,
		EntryPrice:      m.EntryPrice,
		ExitPrice:       m.ExitPrice,
		StopLoss:        m.StopLoss,
		TakeProfit:      m.TakeProfit,
		ConfidenceLevel: m.ConfidenceLevel,
		Status:          models.PositionStatus(m.Status),
		Profit:          m.Profit,
		OpenedAt:        m.OpenedAt,
		ClosedAt:        m.ClosedAt,
	}
}

func modelsToPositions(rows []positionModel) []models.Position {
	out := make([]models.Position, 0, len(rows))
	for _, m := range rows {
		out = append(out, *modelToPosition(m))
	}
	return out
}
