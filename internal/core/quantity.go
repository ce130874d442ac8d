package core

import (
	"errors"
	"math"
	"strconv"
	"strings"
	"unicode"
)

var ErrInvalidQuantity = errors.New("invalid quantity")

// ParseQuantity parses a non-negative decimal from user input.
//
// Both dot (72.5) and comma (72,5) separators are accepted and surrounding
// whitespace is ignored. Signs, exponents and thousands separators are
// rejected.
//
// Examples:
//   ParseQuantity("72.5") -> 72.5, nil
//   ParseQuantity("72,5") -> 72.5, nil
//   ParseQuantity("-1")   -> 0, ErrInvalidQuantity
func ParseQuantity(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidQuantity
	}
	s = strings.ReplaceAll(s, ",", ".")

	parts := strings.Split(s, ".")
	if len(parts) > 2 {
		return 0, ErrInvalidQuantity
	}
	if parts[0] == "" && (len(parts) == 1 || parts[1] == "") {
		return 0, ErrInvalidQuantity
	}
	for _, p := range parts {
		for _, r := range p {
			if !unicode.IsDigit(r) {
				return 0, ErrInvalidQuantity
			}
		}
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(v, 0) {
		return 0, ErrInvalidQuantity
	}
	return v, nil
}

// ParsePositiveQuantity is ParseQuantity that also rejects zero.
func ParsePositiveQuantity(s string) (float64, error) {
	v, err := ParseQuantity(s)
	if err != nil {
		return 0, err
	}
	if v == 0 {
		return 0, ErrInvalidQuantity
	}
	return v, nil
}
