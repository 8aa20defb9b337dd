// Package core holds the entity model of the finance tracker together with
// money and rate parsing utilities.
//
// Monetary amounts are always integer cents and monthly rates are integer
// basis points; floating point only appears in display helpers.
package core

import (
	"strconv"
	"strings"
	"unicode"
)

// ParseDecimalToCents converts a decimal string to cents with half-up
// rounding on the third decimal place.
//
// It accepts both dot (12.34) and comma (12,34) separators and only
// positive amounts.
//
// Examples:
//
//	ParseDecimalToCents("12.34") -> 1234, nil
//	ParseDecimalToCents("12,34") -> 1234, nil
//	ParseDecimalToCents("12.345") -> 1234, nil (rounds down)
//	ParseDecimalToCents("12.346") -> 1235, nil (rounds up)
func ParseDecimalToCents(s string) (int64, error) {
	v, err := parseTwoDecimals(s)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	if v <= 0 {
		return 0, ErrInvalidAmount
	}
	return v, nil
}

// ParseRateBps converts a percentage string to basis points, so "0,8"
// becomes 80 and "1.25" becomes 125. Zero is a valid rate.
func ParseRateBps(s string) (int64, error) {
	v, err := parseTwoDecimals(s)
	if err != nil {
		return 0, ErrInvalidRate
	}
	if v < 0 {
		return 0, ErrInvalidRate
	}
	return v, nil
}

// parseTwoDecimals parses a non-negative decimal into hundredths.
func parseTwoDecimals(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidAmount
	}
	// Normalize decimal comma to dot
	s = strings.ReplaceAll(s, ",", ".")
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return 0, ErrInvalidAmount
	}
	parts := strings.Split(s, ".")
	if len(parts) > 2 {
		return 0, ErrInvalidAmount
	}
	intPart := parts[0]
	fracPart := ""
	if len(parts) == 2 {
		fracPart = parts[1]
	}
	if intPart == "" {
		intPart = "0"
	}
	for _, r := range intPart {
		if !unicode.IsDigit(r) {
			return 0, ErrInvalidAmount
		}
	}
	for _, r := range fracPart {
		if !unicode.IsDigit(r) {
			return 0, ErrInvalidAmount
		}
	}
	iv, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	// Prevent overflow when multiplying by 100
	const maxSafeInt64 = (1<<63 - 1) / 100
	if iv > maxSafeInt64 {
		return 0, ErrInvalidAmount
	}
	// Take the first two fractional digits, half-up rounding on the third
	var frac int64
	if len(fracPart) > 0 {
		d1 := int64(fracPart[0] - '0')
		frac = d1 * 10
		if len(fracPart) > 1 {
			d2 := int64(fracPart[1] - '0')
			frac += d2
			if len(fracPart) > 2 && fracPart[2] >= '5' {
				frac++
			}
		}
	}
	return iv*100 + frac, nil
}

// Reais returns the amount as a float64 for display purposes only.
// All calculations stay in cents.
func (m Money) Reais() float64 {
	return float64(m.Cents) / 100.0
}

// Percent returns the rate as a display percentage (80 bps -> 0.8).
func (r Rate) Percent() float64 {
	return float64(r.Bps) / 100.0
}

// Add returns m + other.
func (m Money) Add(other Money) Money {
	return Money{Cents: m.Cents + other.Cents}
}

// Sub returns m - other.
func (m Money) Sub(other Money) Money {
	return Money{Cents: m.Cents - other.Cents}
}

// ApplyRate returns the monthly yield of the amount at the given rate,
// rounded half up. 100000 cents at 80 bps yields 800 cents.
func (m Money) ApplyRate(r Rate) Money {
	n := m.Cents * r.Bps
	return Money{Cents: (n + 5000) / 10000}
}
