package models

import "time"

// TradingDayStart returns the start of the trading day containing ts. The day
// rolls over at cutoffHourUTC (22:00 UTC is the usual spot-gold rollover).
func TradingDayStart(ts time.Time, cutoffHourUTC int) time.Time {
	utc := ts.UTC()
	start := time.Date(utc.Year(), utc.Month(), utc.Day(), cutoffHourUTC, 0, 0, 0, time.UTC)
	if utc.Before(start) {
		start = start.AddDate(0, 0, -1)
	}
	return start
}

// TradingDay returns the YYYY-MM-DD label of the trading day containing ts.
// A day is labelled by the calendar date on which it ends.
func TradingDay(ts time.Time, cutoffHourUTC int) string {
	start := TradingDayStart(ts, cutoffHourUTC)
	if cutoffHourUTC == 0 {
		return start.Format("2006-01-02")
	}
	return start.AddDate(0, 0, 1).Format("2006-01-02")
}
