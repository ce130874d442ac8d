package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"nutrihelper/internal/api"
	"nutrihelper/internal/core"
	"nutrihelper/internal/services"
)

// maxBodyBytes bounds every JSON request body.
const maxBodyBytes = 1 << 20

var errBadJSON = errors.New("malformed JSON body")

// decodeJSON reads a single JSON value from the body into dst. Every
// failure is errBadJSON so the handler can answer 400.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: %v", errBadJSON, err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return fmt.Errorf("%w: trailing data", errBadJSON)
	}
	return nil
}

// ParseStatsParams reads weight, height, age and gender from the query.
// Missing values fall back to core.DefaultUserStats; present but malformed
// ones are an input error.
func ParseStatsParams(q url.Values) (core.UserStats, error) {
	stats := core.DefaultUserStats()

	fields := []struct {
		key string
		dst *float64
	}{
		{"weight", &stats.WeightKg},
		{"height", &stats.HeightCm},
		{"age", &stats.AgeYears},
	}
	for _, f := range fields {
		raw := strings.TrimSpace(q.Get(f.key))
		if raw == "" {
			continue
		}
		v, err := core.ParsePositiveQuantity(raw)
		if err != nil {
			return core.UserStats{}, fmt.Errorf("%w: %s: %w", services.ErrInvalidInput, f.key, err)
		}
		*f.dst = v
	}

	if raw := strings.TrimSpace(q.Get("gender")); raw != "" {
		sex, err := core.ParseSex(raw)
		if err != nil {
			return core.UserStats{}, fmt.Errorf("%w: %w", services.ErrInvalidInput, err)
		}
		stats.Sex = sex
	}
	return stats, nil
}

// parseDay parses a YYYY-MM-DD calendar date as UTC midnight.
func parseDay(field, s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("%w: %s is required", services.ErrInvalidInput, field)
	}
	t, err := time.Parse(core.DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s must be YYYY-MM-DD", services.ErrInvalidInput, field)
	}
	return t, nil
}

// parseConsumedAt accepts the backend's time layouts; empty means now.
func parseConsumedAt(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	t, err := api.ParseConsumedAt(s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: consumed_at: %w", services.ErrInvalidInput, err)
	}
	return t, nil
}
