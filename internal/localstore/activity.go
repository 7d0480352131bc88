package localstore

import (
	"context"

	"github.com/kjannette/bullionaire-backend/internal/models"
)

type ActivityStore struct {
	s *Store
}

func (a *ActivityStore) Append(ctx context.Context, e *models.ActivityLogEntry) error {
	m := activityModel{
		ID:        e.ID,
		AccountID: e.AccountID,
		Timestamp: e.Timestamp.UTC(),
		Message:   e.Message,
		Type:      string(e.Type),
	}
	return a.s.db.WithContext(ctx).Create(&m).Error
}

func (a *ActivityStore) Recent(ctx context.Context, accountID string, limit int) ([]models.ActivityLogEntry, error) {
	var rows []activityModel
	if err := a.s.db.WithContext(ctx).
		Where("account_id = ?", accountID).
		Order("timestamp DESC").Limit(limit).Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]models.ActivityLogEntry, 0, len(rows))
	for _, m := range rows {
		out = append(out, models.ActivityLogEntry{
			ID:        m.ID,
			AccountID: m.AccountID,
			Timestamp: m.Timestamp,
			Message:   m.Message,
			Type:      models.ActivityType(m.Type),
		})
	}
	return out, nil
}
