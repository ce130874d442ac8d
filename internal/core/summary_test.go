package core

import (
	"reflect"
	"testing"
	"time"
)

func entryAt(ts string, m Macros) FoodEntry {
	t, err := time.Parse(time.RFC3339, ts)
	if err != nil {
		panic(err)
	}
	return FoodEntry{Name: "x", Portion: 100, Unit: DefaultUnit, Macros: m, MealType: Snack, ConsumedAt: t}
}

func TestMonthlyTotalsEmpty(t *testing.T) {
	today := time.Date(2024, 4, 17, 12, 0, 0, 0, time.UTC)
	days := MonthlyTotals(today, nil)
	if len(days) != 30 {
		t.Fatalf("expected 30 days for April, got %d", len(days))
	}
	for _, d := range days {
		if !d.Macros.IsZero() {
			t.Fatalf("expected zero totals, got %+v on %s", d.Macros, d.Date)
		}
	}
}

func TestMonthlyTotalsLength(t *testing.T) {
	cases := []struct {
		today time.Time
		want  int
	}{
		{time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC), 29},
		{time.Date(2023, 2, 10, 0, 0, 0, 0, time.UTC), 28},
		{time.Date(2100, 2, 1, 0, 0, 0, 0, time.UTC), 28},
		{time.Date(2000, 2, 1, 0, 0, 0, 0, time.UTC), 29},
		{time.Date(2024, 3, 31, 23, 59, 0, 0, time.UTC), 31},
		{time.Date(2024, 11, 1, 0, 0, 0, 0, time.UTC), 30},
		{time.Date(2024, 12, 25, 0, 0, 0, 0, time.UTC), 31},
	}
	for _, tc := range cases {
		t.Run(tc.today.Format(DateLayout), func(t *testing.T) {
			days := MonthlyTotals(tc.today, nil)
			if len(days) != tc.want {
				t.Fatalf("expected %d days, got %d", tc.want, len(days))
			}
		})
	}
}

func TestMonthlyTotalsOrderedAndContiguous(t *testing.T) {
	today := time.Date(2024, 2, 14, 0, 0, 0, 0, time.UTC)
	entries := []FoodEntry{
		entryAt("2024-02-20T10:00:00Z", Macros{Calories: 100}),
		entryAt("2024-02-02T10:00:00Z", Macros{Calories: 50}),
	}
	days := MonthlyTotals(today, entries)

	if days[0].Date != "2024-02-01" || days[len(days)-1].Date != "2024-02-29" {
		t.Fatalf("unexpected bounds %s..%s", days[0].Date, days[len(days)-1].Date)
	}
	for i := 1; i < len(days); i++ {
		prev, _ := time.Parse(DateLayout, days[i-1].Date)
		cur, _ := time.Parse(DateLayout, days[i].Date)
		if cur.Sub(prev) != 24*time.Hour {
			t.Fatalf("dates not contiguous at %d: %s -> %s", i, days[i-1].Date, days[i].Date)
		}
	}
}

func TestMonthlyTotalsSumsPerDay(t *testing.T) {
	today := time.Date(2024, 3, 20, 0, 0, 0, 0, time.UTC)
	entries := []FoodEntry{
		entryAt("2024-03-05T08:00:00Z", Macros{Calories: 200, Protein: 10}),
		entryAt("2024-03-05T19:30:00Z", Macros{Calories: 300, Protein: 5, Sugar: 2}),
	}
	days := MonthlyTotals(today, entries)

	for _, d := range days {
		switch d.Date {
		case "2024-03-05":
			want := Macros{Calories: 500, Protein: 15, Sugar: 2}
			if d.Macros != want {
				t.Fatalf("expected %+v on 03-05, got %+v", want, d.Macros)
			}
		default:
			if !d.Macros.IsZero() {
				t.Fatalf("expected zero on %s, got %+v", d.Date, d.Macros)
			}
		}
	}
}

func TestMonthlyTotalsUsesUTCDate(t *testing.T) {
	rome, err := time.LoadLocation("Europe/Rome")
	if err != nil {
		t.Skipf("timezone data unavailable: %v", err)
	}
	// Same instant expressed in UTC and in Rome (01:15) lands on March 1.
	utc := entryAt("2024-03-01T00:15:00Z", Macros{Calories: 1})
	local := utc
	local.ConsumedAt = utc.ConsumedAt.In(rome)

	today := time.Date(2024, 3, 10, 0, 0, 0, 0, rome)
	for _, e := range []FoodEntry{utc, local} {
		days := MonthlyTotals(today, []FoodEntry{e})
		if days[0].Date != "2024-03-01" || days[0].Calories != 1 {
			t.Fatalf("expected record on 2024-03-01, got %+v", days[0])
		}
	}

	// 23:30 on Feb 29 in New York is March 1 in UTC.
	ny, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skipf("timezone data unavailable: %v", err)
	}
	late := entryAt("2024-03-01T04:30:00Z", Macros{Calories: 7})
	late.ConsumedAt = late.ConsumedAt.In(ny)
	days := MonthlyTotals(today, []FoodEntry{late})
	if days[0].Calories != 7 {
		t.Fatalf("expected record on March 1 UTC, got %+v", days[0])
	}
}

func TestMonthlyTotalsExcludesOtherMonths(t *testing.T) {
	today := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	entries := []FoodEntry{
		entryAt("2024-02-29T12:00:00Z", Macros{Calories: 999}),
		entryAt("2024-04-01T00:00:00Z", Macros{Calories: 999}),
		entryAt("2023-03-10T12:00:00Z", Macros{Calories: 999}),
		entryAt("2024-03-31T23:59:59Z", Macros{Calories: 10}),
		entryAt("2024-03-01T00:00:00Z", Macros{Calories: 20}),
	}
	days := MonthlyTotals(today, entries)

	total := Macros{}
	for _, d := range days {
		total = total.Add(d.Macros)
	}
	if total.Calories != 30 {
		t.Fatalf("expected only in-month calories (30), got %v", total.Calories)
	}
	if days[0].Calories != 20 || days[30].Calories != 10 {
		t.Fatalf("first/last day not included: %+v %+v", days[0], days[30])
	}
}

func TestMonthlyTotalsSumEqualsInput(t *testing.T) {
	today := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)
	var entries []FoodEntry
	want := Macros{}
	for i := 0; i < 40; i++ {
		m := Macros{Calories: float64(i), Protein: 1, Fat: 2, Carbohydrates: 3, Fiber: 4, Sugar: 5}
		ts := time.Date(2024, 7, 1+i%31, i%24, 0, 0, 0, time.UTC)
		entries = append(entries, FoodEntry{Name: "x", Portion: 1, MealType: Snack, Macros: m, ConsumedAt: ts})
		want = want.Add(m)
	}
	got := Macros{}
	for _, d := range MonthlyTotals(today, entries) {
		got = got.Add(d.Macros)
	}
	if got != want {
		t.Fatalf("expected %+v, got %+v", want, got)
	}
}

func TestMonthlyTotalsIdempotent(t *testing.T) {
	today := time.Date(2024, 5, 5, 0, 0, 0, 0, time.UTC)
	entries := []FoodEntry{
		entryAt("2024-05-03T10:00:00Z", Macros{Calories: 120, Fiber: 3}),
		entryAt("2024-05-04T10:00:00Z", Macros{Calories: 80}),
	}
	a := MonthlyTotals(today, entries)
	b := MonthlyTotals(today, entries)
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("expected identical results")
	}
}

func TestSumMacros(t *testing.T) {
	entries := []FoodEntry{
		entryAt("2024-05-03T10:00:00Z", Macros{Calories: 120, Fiber: 3}),
		entryAt("2024-06-04T10:00:00Z", Macros{Calories: 80}),
	}
	got := SumMacros(entries)
	if got != (Macros{Calories: 200, Fiber: 3}) {
		t.Fatalf("unexpected sum %+v", got)
	}
	if !SumMacros(nil).IsZero() {
		t.Fatalf("expected zero sum for no entries")
	}
}

func TestNewMonthOverview(t *testing.T) {
	today := time.Date(2024, 3, 20, 0, 0, 0, 0, time.UTC)
	entries := []FoodEntry{
		entryAt("2024-03-05T08:00:00Z", Macros{Calories: 200}),
		entryAt("2024-03-05T19:30:00Z", Macros{Calories: 300}),
		entryAt("2024-03-09T19:30:00Z", Macros{Calories: 100}),
		entryAt("2024-02-29T19:30:00Z", Macros{Calories: 100}),
	}
	ov := NewMonthOverview(today, entries)
	if ov.Year != 2024 || ov.Month != 3 {
		t.Fatalf("unexpected period %d-%d", ov.Year, ov.Month)
	}
	if len(ov.Days) != 31 || ov.Total.Calories != 600 || ov.LoggedDays != 2 {
		t.Fatalf("unexpected overview: days=%d total=%v logged=%d", len(ov.Days), ov.Total.Calories, ov.LoggedDays)
	}
}

func TestMonthBounds(t *testing.T) {
	start, end := MonthBounds(time.Date(2024, 12, 31, 23, 0, 0, 0, time.UTC))
	if DateKey(start) != "2024-12-01" || DateKey(end) != "2024-12-31" {
		t.Fatalf("unexpected bounds %s %s", DateKey(start), DateKey(end))
	}
}

func TestMonthOverviewFromTotals(t *testing.T) {
	today := time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC)
	stored := []DailyTotals{
		{Date: "2024-02-03", Macros: Macros{Calories: 400, Protein: 20}},
		{Date: "2024-02-29", Macros: Macros{Calories: 100}},
		{Date: "2024-01-31", Macros: Macros{Calories: 999}},
		{Date: "garbage", Macros: Macros{Calories: 999}},
	}

	ov := MonthOverviewFromTotals(today, stored)
	if len(ov.Days) != 29 || ov.Days[0].Date != "2024-02-01" || ov.Days[28].Date != "2024-02-29" {
		t.Fatalf("expected a zero-filled leap February, got %d days", len(ov.Days))
	}
	if ov.Days[2].Calories != 400 || ov.Days[28].Calories != 100 {
		t.Fatalf("stored days not placed: %+v %+v", ov.Days[2], ov.Days[28])
	}
	if ov.Total.Calories != 500 || ov.LoggedDays != 2 || ov.Stale {
		t.Fatalf("unexpected overview total=%v logged=%d stale=%v", ov.Total.Calories, ov.LoggedDays, ov.Stale)
	}
}
