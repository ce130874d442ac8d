package api

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"nutrihelper/internal/core"
)

// consumedAtLayout is how entry times are sent: UTC wall time, no zone.
const consumedAtLayout = "2006-01-02T15:04:05"

// consumedAtLayouts are the accepted forms of a stored consumed_at value.
// Values without a zone are UTC.
var consumedAtLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05Z07:00",
	core.DateLayout,
}

type entryRequest struct {
	Name          string  `json:"name"`
	Portion       float64 `json:"portion"`
	Unit          string  `json:"unit"`
	Calories      float64 `json:"calories"`
	Protein       float64 `json:"protein"`
	Carbohydrates float64 `json:"carbohydrates"`
	Fat           float64 `json:"fat"`
	Fiber         float64 `json:"fiber"`
	Sugar         float64 `json:"sugar"`
	MealType      string  `json:"meal_type"`
	ConsumedAt    string  `json:"consumed_at"`
}

// entryRecord is a stored entry as the backend returns it. Older payloads
// name the food "food_name".
type entryRecord struct {
	ID            int64   `json:"id"`
	Name          string  `json:"name"`
	FoodName      string  `json:"food_name"`
	Portion       float64 `json:"portion"`
	Unit          string  `json:"unit"`
	Calories      float64 `json:"calories"`
	Protein       float64 `json:"protein"`
	Carbohydrates float64 `json:"carbohydrates"`
	Fat           float64 `json:"fat"`
	Fiber         float64 `json:"fiber"`
	Sugar         float64 `json:"sugar"`
	MealType      string  `json:"meal_type"`
	ConsumedAt    string  `json:"consumed_at"`
}

type filterRequest struct {
	FromDate string `json:"from_date"`
	ToDate   string `json:"to_date"`
}

// ParseConsumedAt parses a consumed_at value in any accepted layout.
func ParseConsumedAt(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range consumedAtLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized consumed_at %q", s)
}

// FormatConsumedAt renders t the way the backend stores it.
func FormatConsumedAt(t time.Time) string {
	return t.UTC().Format(consumedAtLayout)
}

func newEntryRequest(e core.FoodEntry) entryRequest {
	unit := e.Unit
	if unit == "" {
		unit = core.DefaultUnit
	}
	return entryRequest{
		Name:          strings.TrimSpace(e.Name),
		Portion:       e.Portion,
		Unit:          unit,
		Calories:      e.Macros.Calories,
		Protein:       e.Macros.Protein,
		Carbohydrates: e.Macros.Carbohydrates,
		Fat:           e.Macros.Fat,
		Fiber:         e.Macros.Fiber,
		Sugar:         e.Macros.Sugar,
		MealType:      string(e.MealType),
		ConsumedAt:    FormatConsumedAt(e.ConsumedAt),
	}
}

func (r entryRecord) toEntry() (core.FoodEntry, error) {
	at, err := ParseConsumedAt(r.ConsumedAt)
	if err != nil {
		return core.FoodEntry{}, err
	}
	name := r.Name
	if name == "" {
		name = r.FoodName
	}
	return core.FoodEntry{
		ID:      r.ID,
		Name:    name,
		Portion: r.Portion,
		Unit:    r.Unit,
		Macros: core.Macros{
			Calories:      r.Calories,
			Protein:       r.Protein,
			Fat:           r.Fat,
			Carbohydrates: r.Carbohydrates,
			Fiber:         r.Fiber,
			Sugar:         r.Sugar,
		},
		MealType:   core.MealType(strings.ToLower(r.MealType)),
		ConsumedAt: at,
	}, nil
}

// toEntries converts records, skipping those whose timestamp cannot be
// parsed so one bad row does not misplace or hide the rest.
func (c *Client) toEntries(ctx context.Context, records []entryRecord) []core.FoodEntry {
	entries := make([]core.FoodEntry, 0, len(records))
	for _, r := range records {
		e, err := r.toEntry()
		if err != nil {
			c.logger.WarnContext(ctx, "Skipping entry with invalid timestamp",
				"entry_id", r.ID,
				"consumed_at", r.ConsumedAt,
				"error", err)
			continue
		}
		entries = append(entries, e)
	}
	return entries
}

// AddFoodEntry stores e for the credential's user and returns the
// backend's confirmation message.
func (c *Client) AddFoodEntry(ctx context.Context, cred Credential, e core.FoodEntry) (string, error) {
	var msg string
	if err := c.doAuth(ctx, http.MethodPost, "/api/food-entry", cred, newEntryRequest(e), &msg); err != nil {
		return "", err
	}
	return msg, nil
}

// ListFoodEntries returns every entry of the credential's user.
func (c *Client) ListFoodEntries(ctx context.Context, cred Credential) ([]core.FoodEntry, error) {
	var records []entryRecord
	if err := c.doAuth(ctx, http.MethodGet, "/api/get-food-entry-user-details", cred, nil, &records); err != nil {
		return nil, err
	}
	return c.toEntries(ctx, records), nil
}

// FilterFoodEntries returns entries consumed between the calendar dates of
// from and to, both inclusive.
func (c *Client) FilterFoodEntries(ctx context.Context, cred Credential, from, to time.Time) ([]core.FoodEntry, error) {
	req := filterRequest{
		FromDate: from.Format(core.DateLayout),
		ToDate:   to.Format(core.DateLayout),
	}
	var records []entryRecord
	if err := c.doAuth(ctx, http.MethodPost, "/api/filter-food-entries", cred, req, &records); err != nil {
		return nil, err
	}
	return c.toEntries(ctx, records), nil
}
