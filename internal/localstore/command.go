package localstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/kjannette/bullionaire-backend/internal/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CommandStore struct {
	s *Store
}

func (c *CommandStore) Publish(ctx context.Context, cmd *models.TradeCommand) error {
	return c.s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		replaced, err := publishCommand(tx, cmd)
		if err != nil {
			return err
		}
		if replaced {
			c.s.log.Warnf("Overwrote an unconsumed command with %s", cmd.Action)
		}
		return nil
	})
}

func (c *CommandStore) Current(ctx context.Context) (*models.TradeCommand, error) {
	var rows []commandSlotModel
	if err := c.s.db.WithContext(ctx).Where("slot = ?", models.CommandSlot).Limit(1).Find(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	var cmd models.TradeCommand
	if err := json.Unmarshal([]byte(rows[0].Payload), &cmd); err != nil {
		return nil, fmt.Errorf("decode command: %w", err)
	}
	return &cmd, nil
}

func (c *CommandStore) Clear(ctx context.Context) (bool, error) {
	res := c.s.db.WithContext(ctx).Where("slot = ?", models.CommandSlot).Delete(&commandSlotModel{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (c *CommandStore) History(ctx context.Context, limit int) ([]models.CommandRecord, error) {
	var rows []commandHistoryModel
	if err := c.s.db.WithContext(ctx).Order("id DESC").Limit(limit).Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]models.CommandRecord, 0, len(rows))
	for _, m := range rows {
		out = append(out, models.CommandRecord{
			ID:        m.ID,
			Action:    models.CommandAction(m.Action),
			Payload:   json.RawMessage(m.Payload),
			IssuedAt:  m.IssuedAt,
			CreatedAt: m.CreatedAt,
		})
	}
	return out, nil
}

func publishCommand(tx *gorm.DB, cmd *models.TradeCommand) (bool, error) {
	payload, err := json.Marshal(cmd)
	if err != nil {
		return false, fmt.Errorf("encode command: %w", err)
	}

	var n int64
	if err := tx.Model(&commandSlotModel{}).Where("slot = ?", models.CommandSlot).Count(&n).Error; err != nil {
		return false, err
	}

	now := time.Now().UTC()
	slot := commandSlotModel{
		Slot:      models.CommandSlot,
		Payload:   string(payload),
		IssuedAt:  cmd.IssuedAt(),
		UpdatedAt: now,
	}
	if err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "slot"}},
		DoUpdates: clause.AssignmentColumns([]string{"payload", "issued_at", "updated_at"}),
	}).Create(&slot).Error; err != nil {
		return false, fmt.Errorf("publish command: %w", err)
	}

	hist := commandHistoryModel{
		Action:    string(cmd.Action),
		Payload:   datatypes.JSON(payload),
		IssuedAt:  cmd.IssuedAt(),
		CreatedAt: now,
	}
	if err := tx.Create(&hist).Error; err != nil {
		return false, fmt.Errorf("record command history: %w", err)
	}
	return n > 0, nil
}
