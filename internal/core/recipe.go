package core

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// MacroTargets are the goals recipes are recommended against.
type MacroTargets struct {
	Calories      float64
	Protein       float64
	Fat           float64
	Carbohydrates float64
}

// RecipeNutrition is the subset of recipe nutrients the app uses.
type RecipeNutrition struct {
	Calories      float64
	Protein       float64
	Fat           float64
	Carbohydrates float64
}

type Recipe struct {
	Title     string
	Image     string
	Nutrition RecipeNutrition
}

// FoodInfo is the nutrition lookup result for a free-text food query.
type FoodInfo struct {
	ProductName   string
	Calories      float64
	Fat           float64
	Carbohydrates float64
	Sugars        float64
	Protein       float64
	Fiber         float64
	Image         string
}

// FoodCandidate is a product found in a food database, values per 100 g.
type FoodCandidate struct {
	ID     string
	Name   string
	Macros Macros
}

var ErrInvalidTarget = errors.New("invalid macro target")

func (t MacroTargets) Validate() error {
	fields := []struct {
		name  string
		value float64
	}{
		{"calories", t.Calories},
		{"protein", t.Protein},
		{"fat", t.Fat},
		{"carbohydrates", t.Carbohydrates},
	}
	for _, f := range fields {
		if f.value <= 0 {
			return fmt.Errorf("%w: %s must be greater than zero", ErrInvalidTarget, f.name)
		}
	}
	return nil
}

// ToFoodEntry turns a recipe into a 100 g meal entry with whole-number macros.
func (r Recipe) ToFoodEntry(at time.Time) FoodEntry {
	return FoodEntry{
		Name:    r.Title,
		Portion: 100,
		Unit:    DefaultUnit,
		Macros: Macros{
			Calories:      math.Round(r.Nutrition.Calories),
			Protein:       math.Round(r.Nutrition.Protein),
			Fat:           math.Round(r.Nutrition.Fat),
			Carbohydrates: math.Round(r.Nutrition.Carbohydrates),
		},
		MealType:   Meal,
		ConsumedAt: at,
	}
}

// ToFoodEntry logs a 100 g portion of the product as a snack.
func (c FoodCandidate) ToFoodEntry(at time.Time) FoodEntry {
	return FoodEntry{
		Name:       c.Name,
		Portion:    100,
		Unit:       DefaultUnit,
		Macros:     c.Macros,
		MealType:   Snack,
		ConsumedAt: at,
	}
}
