package google

import (
	"fmt"
	"strconv"
	"strings"

	"nutrihelper/internal/core"
)

var header = []any{"User", "Date", "Calories", "Protein", "Fat", "Carbohydrates", "Fiber", "Sugar"}

const (
	colUser = 0
	colDate = 1
)

// mergeRows returns the full tab content after replacing user's rows of
// ov's month with the month's logged days. The first existing row is
// treated as the header and always rewritten.
func mergeRows(existing [][]any, user string, ov core.MonthOverview) [][]any {
	prefix := fmt.Sprintf("%04d-%02d-", ov.Year, ov.Month)

	out := make([][]any, 0, len(existing)+len(ov.Days)+1)
	out = append(out, header)
	for i, row := range existing {
		if i == 0 {
			continue
		}
		cells := toStrings(row)
		if len(cells) == 0 || safeGet(cells, colUser) == "" {
			continue
		}
		if strings.EqualFold(safeGet(cells, colUser), user) && strings.HasPrefix(safeGet(cells, colDate), prefix) {
			continue
		}
		out = append(out, row)
	}

	for _, d := range ov.Days {
		if d.Macros.IsZero() {
			continue
		}
		out = append(out, []any{
			user,
			d.Date,
			round1(d.Calories),
			round1(d.Protein),
			round1(d.Fat),
			round1(d.Carbohydrates),
			round1(d.Fiber),
			round1(d.Sugar),
		})
	}
	return out
}

func round1(v float64) float64 {
	f, _ := strconv.ParseFloat(strconv.FormatFloat(v, 'f', 1, 64), 64)
	return f
}

func toStrings(in []any) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = strings.TrimSpace(fmt.Sprint(v))
	}
	return out
}

func safeGet(arr []string, idx int) string {
	if idx >= 0 && idx < len(arr) {
		return arr[idx]
	}
	return ""
}

// yearPrefixedName returns "<year> <base>" unless base already starts with a 4-digit year.
func yearPrefixedName(base string, year int) string {
	base = strings.TrimSpace(base)
	if base == "" {
		return base
	}
	if len(base) >= 5 {
		if y, err := strconv.Atoi(base[0:4]); err == nil && base[4] == ' ' && y > 1900 && y < 3000 {
			return base
		}
	}
	return fmt.Sprintf("%d %s", year, base)
}
