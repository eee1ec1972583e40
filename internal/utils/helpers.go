package utils

import (
	"time"

	"github.com/shopspring/decimal"
)

// FormatAmount renders d keeping its parsed scale, so "42.50" stays "42.50".
func FormatAmount(d decimal.Decimal) string {
	if exp := d.Exponent(); exp < 0 {
		return d.StringFixed(-exp)
	}
	return d.String()
}

// FormatTimestamp renders a receipt timestamp as RFC 3339 with nanoseconds.
func FormatTimestamp(t time.Time) string {
	return t.Format(time.RFC3339Nano)
}

func ParseYMD(s string) (time.Time, error) {
	t, err := time.ParseInLocation("2006-01-02", s, time.UTC)
	if err != nil {
		return time.Time{}, err
	}
	// strip time to midnight UTC to match DATE semantics
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
}
