package models

import "time"

// Defaults applied to a freshly created trading account.
const (
	DefaultStartingBalance   = 10000.0
	DefaultDailyRiskLimit    = 500.0
	DefaultDailyProfitTarget = 1000.0
	DefaultMaxPositionSize   = 1.0
)

// WelcomeMessages are appended as UPDATE activities when an account is created.
var WelcomeMessages = []string{
	"Welcome to Bullionaire Bot! Your account is set up.",
	"Navigate to the dashboard to configure your first auto-trading session.",
}

type Account struct {
	ID                string    `json:"id"`
	UserID            string    `json:"userProfileId"`
	StartingBalance   float64   `json:"startingBalance"`
	CurrentBalance    float64   `json:"currentBalance"`
	DailyProfitTarget float64   `json:"dailyProfitTarget"`
	DailyRiskLimit    float64   `json:"dailyRiskLimit"`
	MaxPositionSize   float64   `json:"maxPositionSize"`
	AutoTradingActive bool      `json:"autoTradingActive"`
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

// AccountLimits is the user-editable part of an account.
type AccountLimits struct {
	CurrentBalance    float64 `json:"currentBalance"`
	DailyProfitTarget float64 `json:"dailyProfitTarget"`
	DailyRiskLimit    float64 `json:"dailyRiskLimit"`
	MaxPositionSize   float64 `json:"maxPositionSize"`
}

func NewAccount(id, userID string) *Account {
	return &Account{
		ID:                id,
		UserID:            userID,
		StartingBalance:   DefaultStartingBalance,
		CurrentBalance:    DefaultStartingBalance,
		DailyProfitTarget: DefaultDailyProfitTarget,
		DailyRiskLimit:    DefaultDailyRiskLimit,
		MaxPositionSize:   DefaultMaxPositionSize,
		AutoTradingActive: false,
	}
}

func (a *Account) Limits() AccountLimits {
	return AccountLimits{
		CurrentBalance:    a.CurrentBalance,
		DailyProfitTarget: a.DailyProfitTarget,
		DailyRiskLimit:    a.DailyRiskLimit,
		MaxPositionSize:   a.MaxPositionSize,
	}
}

// Validate reports the first non-positive limit.
func (l AccountLimits) Validate() error {
	switch {
	case l.CurrentBalance <= 0:
		return errInvalidLimit("currentBalance")
	case l.DailyProfitTarget <= 0:
		return errInvalidLimit("dailyProfitTarget")
	case l.DailyRiskLimit <= 0:
		return errInvalidLimit("dailyRiskLimit")
	case l.MaxPositionSize <= 0:
		return errInvalidLimit("maxPositionSize")
	}
	return nil
}
