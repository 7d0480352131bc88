package localstore

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/kjannette/bullionaire-backend/internal/models"
	"gorm.io/gorm"
)

type AccountStore struct {
	s *Store
}

func (a *AccountStore) Create(ctx context.Context, acc *models.Account) (*models.Account, error) {
	now := time.Now().UTC()
	m := accountToModel(acc)
	m.CreatedAt, m.UpdatedAt = now, now

	err := a.s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&m).Error; err != nil {
			return err
		}
		for i, msg := range models.WelcomeMessages {
			e := activityModel{
				ID:        uuid.NewString(),
				AccountID: m.ID,
				Timestamp: now.Add(time.Duration(i) * time.Millisecond),
				Message:   msg,
				Type:      string(models.ActivityUpdate),
			}
			if err := tx.Create(&e).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return modelToAccount(m), nil
}

func (a *AccountStore) Get(ctx context.Context, id string) (*models.Account, error) {
	var m accountModel
	err := a.s.db.WithContext(ctx).Where("id = ?", id).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, models.ErrAccountNotFound
	}
	if err != nil {
		return nil, err
	}
	return modelToAccount(m), nil
}

func (a *AccountStore) FirstForUser(ctx context.Context, userID string) (*models.Account, error) {
	var m accountModel
	err := a.s.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at ASC").First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, models.ErrAccountNotFound
	}
	if err != nil {
		return nil, err
	}
	return modelToAccount(m), nil
}

func (a *AccountStore) UpdateLimits(ctx context.Context, id string, l models.AccountLimits) (*models.Account, error) {
	if err := l.Validate(); err != nil {
		return nil, err
	}
	res := a.s.db.WithContext(ctx).Model(&accountModel{}).Where("id = ?", id).Updates(map[string]any{
		"current_balance":     l.CurrentBalance,
		"daily_profit_target": l.DailyProfitTarget,
		"daily_risk_limit":    l.DailyRiskLimit,
		"max_position_size":   l.MaxPositionSize,
		"updated_at":          time.Now().UTC(),
	})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, models.ErrAccountNotFound
	}
	return a.Get(ctx, id)
}

func (a *AccountStore) SetAutoTrading(ctx context.Context, id string, active bool) error {
	res := a.s.db.WithContext(ctx).Model(&accountModel{}).Where("id = ?", id).Updates(map[string]any{
		"auto_trading_active": active,
		"updated_at":          time.Now().UTC(),
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return models.ErrAccountNotFound
	}
	return nil
}

func (a *AccountStore) ListAutoTrading(ctx context.Context) ([]models.Account, error) {
	var rows []accountModel
	if err := a.s.db.WithContext(ctx).Where("auto_trading_active = ?", true).Order("created_at ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]models.Account, 0, len(rows))
	for _, m := range rows {
		out = append(out, *modelToAccount(m))
	}
	return out, nil
}

func accountToModel(a *models.Account) accountModel {
	return accountModel{
		ID:                a.ID,
		UserID:            a.UserID,
		StartingBalance:   a.StartingBalance,
		CurrentBalance:    a.CurrentBalance,
		DailyProfitTarget: a.DailyProfitTarget,
		DailyRiskLimit:    a.DailyRiskLimit,
		MaxPositionSize:   a.MaxPositionSize,
		AutoTradingActive: a.AutoTradingActive,
		CreatedAt:         a.CreatedAt,
		UpdatedAt:         a.UpdatedAt,
	}
}

func modelToAccount(m accountModel) *models.Account {
	return &models.Account{
		ID:                m.ID,
		UserID:            m.UserID,
		StartingBalance:   m.StartingBalance,
		CurrentBalance:    m.CurrentBalance,
		DailyProfitTarget: m.DailyProfitTarget,
		DailyRiskLimit:    m.DailyRiskLimit,
		MaxPositionSize:   m.MaxPositionSize,
		AutoTradingActive: m.AutoTradingActive,
		CreatedAt:         m.CreatedAt,
		UpdatedAt:         m.UpdatedAt,
	}
}
