package localstore

import (
	"time"

	"gorm.io/datatypes"
)

type accountModel struct {
	ID                string    `gorm:"column:id;primaryKey"`
	UserID            string    `gorm:"column:user_id;index:idx_trading_accounts_user"`
	StartingBalance   float64   `gorm:"column:starting_balance"`
	CurrentBalance    float64   `gorm:"column:current_balance"`
	DailyProfitTarget float64   `gorm:"column:daily_profit_target"`
	DailyRiskLimit    float64   `gorm:"column:daily_risk_limit"`
	MaxPositionSize   float64   `gorm:"column:max_position_size"`
	AutoTradingActive bool      `gorm:"column:auto_trading_active"`
	CreatedAt         time.Time `gorm:"column:created_at"`
	UpdatedAt         time.Time `gorm:"column:updated_at"`
}

func (accountModel) TableName() string { return "trading_accounts" }

type positionModel struct {
	ID              string     `gorm:"column:id;primaryKey"`
	AccountID       string     `gorm:"column:account_id;index:idx_positions_account_opened,priority:1"`
	Symbol          string     `gorm:"column:symbol"`
	Direction       string     `gorm:"column:direction"`
	Volume          float64    `gorm:"column:volume"`
	EntryPrice      float64    `gorm:"column:entry_price"`
	ExitPrice       *float64   `gorm:"column:exit_price"`
	StopLoss        *float64   `gorm:"column:stop_loss"`
	TakeProfit      *float64   `gorm:"column:take_profit"`
	ConfidenceLevel string     `gorm:"column:confidence_level"`
	Status          string     `gorm:"column:status"`
	Profit          *float64   `gorm:"column:profit"`
	OpenedAt        time.Time  `gorm:"column:opened_at;index:idx_positions_account_opened,priority:2"`
	ClosedAt        *time.Time `gorm:"column:closed_at"`
}

func (positionModel) TableName() string { return "positions" }

type activityModel struct {
	ID        string    `gorm:"column:id;primaryKey"`
	AccountID string    `gorm:"column:account_id;index:idx_bot_activities_account_ts,priority:1"`
	Timestamp time.Time `gorm:"column:timestamp;index:idx_bot_activities_account_ts,priority:2"`
	Message   string    `gorm:"column:message"`
	Type      string    `gorm:"column:type"`
}

func (activityModel) TableName() string { return "bot_activities" }

type commandSlotModel struct {
	Slot      string    `gorm:"column:slot;primaryKey"`
	Payload   string    `gorm:"column:payload;type:TEXT"`
	IssuedAt  time.Time `gorm:"column:issued_at"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (commandSlotModel) TableName() string { return "trade_command" }

type commandHistoryModel struct {
	ID        int64          `gorm:"column:id;primaryKey;autoIncrement"`
	Action    string         `gorm:"column:action"`
	Payload   datatypes.JSON `gorm:"column:payload;type:TEXT"`
	IssuedAt  time.Time      `gorm:"column:issued_at"`
	CreatedAt time.Time      `gorm:"column:created_at"`
}

func (commandHistoryModel) TableName() string { return "trade_command_history" }
