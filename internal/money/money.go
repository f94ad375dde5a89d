// Package money converts between decimal amounts and integer minor units.
// All stored amounts are minor units; decimals only appear at the HTTP edge.
package money

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

const scale = 2

// ParseMinor parses "12.50" into 1250. More than two fractional digits is an
// error rather than a silent rounding.
func ParseMinor(s string) (int64, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	if !d.Equal(d.Round(scale)) {
		return 0, fmt.Errorf("invalid amount %q: more than %d decimal places", s, scale)
	}
	minor := d.Shift(scale).BigInt()
	if !minor.IsInt64() {
		return 0, fmt.Errorf("invalid amount %q: out of range", s)
	}
	return minor.Int64(), nil
}

// FormatMinor renders 1250 as "12.50".
func FormatMinor(v int64) string {
	return decimal.New(v, -scale).StringFixed(scale)
}
