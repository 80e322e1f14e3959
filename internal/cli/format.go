package cli

import (
	"time"

	"options-backtester/pkg/utils"
)

// FormatIndianCurrency formats an amount in the Indian numbering system.
func FormatIndianCurrency(amount float64) string {
	return utils.FormatIndianCurrency(amount)
}

// FormatPercent formats a signed percentage.
func FormatPercent(value float64) string {
	return utils.FormatPercent(value)
}

// FormatDate formats a date as YYYY-MM-DD.
func FormatDate(t time.Time) string {
	return t.Format("2006-01-02")
}

// ParseDate parses a YYYY-MM-DD date in the local timezone.
func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation("2006-01-02", s, time.Local)
}
