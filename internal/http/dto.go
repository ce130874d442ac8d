package http

import (
	"time"

	"nutrihelper/internal/api"
	"nutrihelper/internal/core"
	"nutrihelper/internal/services"
)

type macrosJSON struct {
	Calories      float64 `json:"calories"`
	Protein       float64 `json:"protein"`
	Fat           float64 `json:"fat"`
	Carbohydrates float64 `json:"carbohydrates"`
	Fiber         float64 `json:"fiber"`
	Sugar         float64 `json:"sugar"`
}

func newMacrosJSON(m core.Macros) macrosJSON {
	return macrosJSON{
		Calories:      m.Calories,
		Protein:       m.Protein,
		Fat:           m.Fat,
		Carbohydrates: m.Carbohydrates,
		Fiber:         m.Fiber,
		Sugar:         m.Sugar,
	}
}

func (m macrosJSON) macros() core.Macros {
	return core.Macros{
		Calories:      m.Calories,
		Protein:       m.Protein,
		Fat:           m.Fat,
		Carbohydrates: m.Carbohydrates,
		Fiber:         m.Fiber,
		Sugar:         m.Sugar,
	}
}

type entryJSON struct {
	ID       int64   `json:"id,omitempty"`
	Name     string  `json:"name"`
	Portion  float64 `json:"portion"`
	Unit     string  `json:"unit"`
	MealType string  `json:"meal_type"`
	// ConsumedAt is UTC wall time without a zone.
	ConsumedAt string `json:"consumed_at"`
	macrosJSON
}

func newEntryJSON(e core.FoodEntry) entryJSON {
	return entryJSON{
		ID:         e.ID,
		Name:       e.Name,
		Portion:    e.Portion,
		Unit:       e.Unit,
		MealType:   string(e.MealType),
		ConsumedAt: api.FormatConsumedAt(e.ConsumedAt),
		macrosJSON: newMacrosJSON(e.Macros),
	}
}

func newEntriesJSON(entries []core.FoodEntry) []entryJSON {
	out := make([]entryJSON, 0, len(entries))
	for _, e := range entries {
		out = append(out, newEntryJSON(e))
	}
	return out
}

// entry converts a request body into a domain entry. Validation of the
// values themselves is left to the entry service.
func (in entryJSON) entry() (core.FoodEntry, error) {
	meal, err := core.ParseMealType(in.MealType)
	if err != nil {
		return core.FoodEntry{}, invalidInput(err)
	}
	at, err := parseConsumedAt(in.ConsumedAt)
	if err != nil {
		return core.FoodEntry{}, err
	}
	return core.FoodEntry{
		Name:       sanitizeInput(in.Name),
		Portion:    in.Portion,
		Unit:       sanitizeInput(in.Unit),
		Macros:     in.macrosJSON.macros(),
		MealType:   meal,
		ConsumedAt: at,
	}, nil
}

type dailyTotalsJSON struct {
	Date string `json:"date"`
	macrosJSON
}

type monthJSON struct {
	Year       int               `json:"year"`
	Month      int               `json:"month"`
	Days       []dailyTotalsJSON `json:"days"`
	Total      macrosJSON        `json:"total"`
	LoggedDays int               `json:"logged_days"`
	Stale      bool              `json:"stale,omitempty"`
}

func newMonthJSON(ov core.MonthOverview) monthJSON {
	days := make([]dailyTotalsJSON, 0, len(ov.Days))
	for _, d := range ov.Days {
		days = append(days, dailyTotalsJSON{Date: d.Date, macrosJSON: newMacrosJSON(d.Macros)})
	}
	return monthJSON{
		Year:       ov.Year,
		Month:      ov.Month,
		Days:       days,
		Total:      newMacrosJSON(ov.Total),
		LoggedDays: ov.LoggedDays,
		Stale:      ov.Stale,
	}
}

type statsJSON struct {
	WeightKg float64 `json:"weight_kg"`
	HeightCm float64 `json:"height_cm"`
	Age      float64 `json:"age"`
	Gender   string  `json:"gender"`
}

type needsJSON struct {
	Calories      float64 `json:"calories"`
	Protein       float64 `json:"protein"`
	Carbohydrates float64 `json:"carbohydrates"`
	Fat           float64 `json:"fat"`
	Fiber         float64 `json:"fiber"`
}

type nutrientJSON struct {
	Name       string  `json:"name"`
	Unit       string  `json:"unit"`
	Current    float64 `json:"current"`
	Target     float64 `json:"target"`
	Percent    float64 `json:"percent"`
	BarPercent float64 `json:"bar_percent"`
	Low        bool    `json:"low"`
}

type progressJSON struct {
	Date      string         `json:"date"`
	Stats     statsJSON      `json:"stats"`
	BMR       float64        `json:"bmr"`
	Needs     needsJSON      `json:"needs"`
	Intake    macrosJSON     `json:"intake"`
	Entries   int            `json:"entries"`
	Nutrients []nutrientJSON `json:"nutrients"`
}

func newProgressJSON(p services.Progress) progressJSON {
	nutrients := make([]nutrientJSON, 0, len(p.Nutrients))
	for _, n := range p.Nutrients {
		nutrients = append(nutrients, nutrientJSON(n))
	}
	return progressJSON{
		Date: p.Date,
		Stats: statsJSON{
			WeightKg: p.Stats.WeightKg,
			HeightCm: p.Stats.HeightCm,
			Age:      p.Stats.AgeYears,
			Gender:   string(p.Stats.Sex),
		},
		BMR:       p.Stats.BMR(),
		Needs:     needsJSON(p.Needs),
		Intake:    newMacrosJSON(p.Intake),
		Entries:   p.Entries,
		Nutrients: nutrients,
	}
}

type dashboardJSON struct {
	Month    monthJSON    `json:"month"`
	Progress progressJSON `json:"progress"`
}

type targetsJSON struct {
	Calories      float64 `json:"calories"`
	Protein       float64 `json:"protein"`
	Fat           float64 `json:"fat"`
	Carbohydrates float64 `json:"carbohydrates"`
}

type recipeJSON struct {
	Title     string      `json:"title"`
	Image     string      `json:"image,omitempty"`
	Nutrition targetsJSON `json:"nutrition"`
}

func newRecipesJSON(recipes []core.Recipe) []recipeJSON {
	out := make([]recipeJSON, 0, len(recipes))
	for _, r := range recipes {
		out = append(out, recipeJSON{Title: r.Title, Image: r.Image, Nutrition: targetsJSON(r.Nutrition)})
	}
	return out
}

func (in recipeJSON) recipe() core.Recipe {
	return core.Recipe{
		Title:     sanitizeInput(in.Title),
		Image:     in.Image,
		Nutrition: core.RecipeNutrition(in.Nutrition),
	}
}

type foodInfoJSON struct {
	ProductName   string  `json:"product_name"`
	Calories      float64 `json:"calories"`
	Fat           float64 `json:"fat"`
	Carbohydrates float64 `json:"carbohydrates"`
	Sugars        float64 `json:"sugars"`
	Protein       float64 `json:"protein"`
	Fiber         float64 `json:"fiber"`
	Image         string  `json:"image,omitempty"`
}

type candidateJSON struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	// Per100g holds the product's nutrients per 100 g.
	Per100g macrosJSON `json:"per_100g"`
}

func (c candidateJSON) candidate() core.FoodCandidate {
	return core.FoodCandidate{ID: c.ID, Name: sanitizeInput(c.Name), Macros: c.Per100g.macros()}
}

func newCandidatesJSON(found []core.FoodCandidate) []candidateJSON {
	out := make([]candidateJSON, 0, len(found))
	for _, c := range found {
		out = append(out, candidateJSON{ID: c.ID, Name: c.Name, Per100g: newMacrosJSON(c.Macros)})
	}
	return out
}

type sessionJSON struct {
	Email     string    `json:"email"`
	ExpiresAt time.Time `json:"expires_at"`
}

type messageJSON struct {
	Message string `json:"message"`
}
