package http

import (
	"fmt"
	"math"
	"strings"

	"nutrihelper/internal/services"
)

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

func invalidInput(err error) error {
	return fmt.Errorf("%w: %w", services.ErrInvalidInput, err)
}

// formatAmount renders a nutrient amount with one decimal, dropping ".0".
func formatAmount(v float64) string {
	v = math.Round(v*10) / 10
	if v == math.Trunc(v) {
		return fmt.Sprintf("%.0f", v)
	}
	return fmt.Sprintf("%.1f", v)
}

// barHeight scales v against peak into a 0-100 percentage for chart bars.
func barHeight(v, peak float64) float64 {
	if peak <= 0 || v <= 0 {
		return 0
	}
	return math.Min(100, math.Round(v/peak*1000)/10)
}
