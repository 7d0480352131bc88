package bot

import (
	"context"
	"time"

	"github.com/kjannette/bullionaire-backend/internal/models"
	"github.com/kjannette/bullionaire-backend/internal/risk"
)

// Ledger is the position store. Open and settle publish their bridge command
// in the same atomic write.
type Ledger interface {
	AppendOpenPosition(ctx context.Context, p *models.Position, cmd *models.TradeCommand) (string, error)
	SettlePosition(ctx context.Context, id string, s models.Settlement, cmd *models.TradeCommand) error
	FindOpenPosition(ctx context.Context, accountID string) (*models.Position, error)
	ListClosedPositions(ctx context.Context, accountID string) ([]models.Position, error)
	ListClosedSince(ctx context.Context, accountID string, since time.Time) ([]models.Position, error)
}

type ActivityLog interface {
	Append(ctx context.Context, e *models.ActivityLogEntry) error
}

type AccountStore interface {
	Get(ctx context.Context, id string) (*models.Account, error)
	SetAutoTrading(ctx context.Context, id string, active bool) error
	ListAutoTrading(ctx context.Context) ([]models.Account, error)
}

type SnapshotProvider interface {
	Snapshot(ctx context.Context) models.MarketSnapshot
}

type Notifier interface {
	Send(msg string)
	CycleFailed(accountID string, err error)
}

// ActivityRecorder queues activity entries without blocking the caller.
type ActivityRecorder interface {
	Record(accountID string, typ models.ActivityType, msg string)
}

// OpenGuard vets an OPEN before it reaches the ledger.
type OpenGuard interface {
	PreOpenCheck(ctx context.Context, accountID string, limits risk.Limits, volume float64) error
}

type DailyPnL interface {
	TodaysRealizedPnL(ctx context.Context, accountID string) (float64, error)
}
