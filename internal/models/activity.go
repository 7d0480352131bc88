package models

import "time"

type ActivityType string

const (
	ActivityAnalysis ActivityType = "ANALYSIS"
	ActivitySignal   ActivityType = "SIGNAL"
	ActivityResult   ActivityType = "RESULT"
	ActivityUpdate   ActivityType = "UPDATE"
	ActivityError    ActivityType = "ERROR"
)

type ActivityLogEntry struct {
	ID        string       `json:"id"`
	AccountID string       `json:"tradingAccountId"`
	Timestamp time.Time    `json:"timestamp"`
	Message   string       `json:"message"`
	Type      ActivityType `json:"type"`
}
