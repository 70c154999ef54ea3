package normalize

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ParsePrice converts a possibly currency-formatted price string to a whole
// amount. Grouping separators and currency markers are stripped before
// parsing, so "12,000원", "₩12,000", and "12000" all yield 12000.
// Parsing is idempotent: a clean numeric string maps to itself.
func ParsePrice(raw string) (int64, error) {
	cleaned := stripNonNumeric(raw)
	if cleaned == "" || cleaned == "-" {
		return 0, fmt.Errorf("no numeric content in price %q", raw)
	}

	value, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, fmt.Errorf("parse price %q: %w", raw, err)
	}

	return int64(math.Round(value)), nil
}

// stripNonNumeric keeps digits, a leading minus, and the decimal point.
// Commas are treated as grouping separators, never as decimal marks.
func stripNonNumeric(raw string) string {
	var b strings.Builder
	for i, r := range raw {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.':
			b.WriteRune(r)
		case r == '-' && i == 0:
			b.WriteRune(r)
		}
	}
	return b.String()
}
