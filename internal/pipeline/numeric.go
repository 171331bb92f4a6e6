package pipeline

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Numeric coercion policy: a cell that fails to parse becomes zero. One bad
// cell must not discard an otherwise usable batch.

func coerceDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(cleanNumber(s))
	if err != nil {
		return decimal.Zero
	}
	return d
}

func coerceFloat(s string) float64 {
	f, err := strconv.ParseFloat(cleanNumber(s), 64)
	if err != nil {
		return 0
	}
	return f
}

// parseFloat is the strict variant for cells whose failure means the row
// should be skipped rather than zeroed.
func parseFloat(s string) (float64, bool) {
	f, err := strconv.ParseFloat(cleanNumber(s), 64)
	return f, err == nil
}

// cleanNumber strips grouping spaces and normalizes the decimal comma the
// 1C unloads use.
func cleanNumber(s string) string {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, ",", ".")
	return s
}
