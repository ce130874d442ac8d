package core

import "time"

// DateLayout is the calendar date format used for day buckets.
const DateLayout = "2006-01-02"

// DailyTotals is the sum of macros for one calendar day.
type DailyTotals struct {
	Date string // YYYY-MM-DD
	Macros
}

// MonthOverview is a chart-ready summary for a specific year+month.
type MonthOverview struct {
	Year       int
	Month      int // 1-12
	Days       []DailyTotals
	Total      Macros
	LoggedDays int
	// Stale marks an overview rebuilt from stored snapshots because the
	// backend could not be reached.
	Stale bool
}

// DateKey returns the UTC calendar date of t.
func DateKey(t time.Time) string {
	return t.UTC().Format(DateLayout)
}

// MonthBounds returns midnight UTC of the first and of the last day of the
// month containing today.
func MonthBounds(today time.Time) (start, end time.Time) {
	u := today.UTC()
	start = time.Date(u.Year(), u.Month(), 1, 0, 0, 0, 0, time.UTC)
	end = time.Date(u.Year(), u.Month()+1, 0, 0, 0, 0, 0, time.UTC)
	return start, end
}

func startOfDay(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// MonthlyTotals buckets entries by their UTC calendar date and returns one
// element per day of the month containing today, ascending, with days that
// have no entries zero-filled. Entries outside the month are ignored.
func MonthlyTotals(today time.Time, entries []FoodEntry) []DailyTotals {
	start, end := MonthBounds(today)

	byDay := make(map[string]Macros, len(entries))
	for _, e := range entries {
		day := startOfDay(e.ConsumedAt)
		if day.Before(start) || day.After(end) {
			continue
		}
		key := day.Format(DateLayout)
		byDay[key] = byDay[key].Add(e.Macros)
	}
	return fillMonth(start, end, byDay)
}

func fillMonth(start, end time.Time, byDay map[string]Macros) []DailyTotals {
	days := make([]DailyTotals, 0, end.Day())
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		key := d.Format(DateLayout)
		days = append(days, DailyTotals{Date: key, Macros: byDay[key]})
	}
	return days
}

// SumMacros adds up the macros of every entry.
func SumMacros(entries []FoodEntry) Macros {
	var total Macros
	for _, e := range entries {
		total = total.Add(e.Macros)
	}
	return total
}

// NewMonthOverview aggregates entries into the month containing today.
func NewMonthOverview(today time.Time, entries []FoodEntry) MonthOverview {
	return overview(today, MonthlyTotals(today, entries))
}

// MonthOverviewFromTotals rebuilds the overview of the month containing
// today from stored daily totals. Missing days are zero-filled and totals
// dated outside the month are ignored.
func MonthOverviewFromTotals(today time.Time, totals []DailyTotals) MonthOverview {
	start, end := MonthBounds(today)
	byDay := make(map[string]Macros, len(totals))
	for _, t := range totals {
		day, err := time.Parse(DateLayout, t.Date)
		if err != nil || day.Before(start) || day.After(end) {
			continue
		}
		byDay[t.Date] = byDay[t.Date].Add(t.Macros)
	}
	return overview(today, fillMonth(start, end, byDay))
}

func overview(today time.Time, days []DailyTotals) MonthOverview {
	start, _ := MonthBounds(today)
	ov := MonthOverview{
		Year:  start.Year(),
		Month: int(start.Month()),
		Days:  days,
	}
	for _, d := range days {
		ov.Total = ov.Total.Add(d.Macros)
		if !d.Macros.IsZero() {
			ov.LoggedDays++
		}
	}
	return ov
}
