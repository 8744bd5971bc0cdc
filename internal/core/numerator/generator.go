// Package numerator provides the contract for sequential document numbering
// (kitchen tickets, orders). Implementations live in the infrastructure layer.
package numerator

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Generator issues the next number in a named sequence.
// Pattern: PREFIX-YEAR-XXXXX (e.g. KT-2026-00042).
type Generator interface {
	Next(ctx context.Context, cfg Config, period time.Time) (string, error)
}

// Config holds numbering configuration for one document kind.
type Config struct {
	// Prefix added to all numbers (e.g. "KT", "ORD").
	Prefix string

	// IncludeYear adds the period year to the number.
	IncludeYear bool

	// PadWidth is the minimum counter width (default 5).
	PadWidth int

	// ResetPeriod: "year", "month", "never".
	ResetPeriod string
}

// DefaultConfig returns yearly-reset numbering with a 5-digit counter.
func DefaultConfig(prefix string) Config {
	return Config{
		Prefix:      prefix,
		IncludeYear: true,
		PadWidth:    5,
		ResetPeriod: "year",
	}
}

// PeriodKey returns the sequence bucket for a period, per the reset policy.
func (c Config) PeriodKey(period time.Time) string {
	switch c.ResetPeriod {
	case "month":
		return period.Format("2006-01")
	case "never":
		return ""
	default:
		return period.Format("2006")
	}
}

// Format renders a counter value as a document number.
func (c Config) Format(period time.Time, value int64) string {
	width := c.PadWidth
	if width <= 0 {
		width = 5
	}
	parts := []string{c.Prefix}
	if c.IncludeYear {
		parts = append(parts, period.Format("2006"))
	}
	parts = append(parts, fmt.Sprintf("%0*d", width, value))
	return strings.Join(parts, "-")
}
