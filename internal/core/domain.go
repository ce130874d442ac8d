package core

import (
	"errors"
	"strings"
	"time"
)

const (
	Breakfast MealType = "breakfast"
	Lunch     MealType = "lunch"
	Dinner    MealType = "dinner"
	Snack     MealType = "snack"
	// Meal is used for entries created from a recommended recipe.
	Meal MealType = "meal"
)

// DefaultUnit is the portion unit the backend stores entries in.
const DefaultUnit = "grams"

type (
	MealType string

	// Macros holds the six nutrient quantities tracked per entry and per day.
	// Calories are kcal, everything else grams.
	Macros struct {
		Calories      float64
		Protein       float64
		Fat           float64
		Carbohydrates float64
		Fiber         float64
		Sugar         float64
	}

	// FoodEntry is one logged consumption of a food item.
	FoodEntry struct {
		ID         int64
		Name       string
		Portion    float64
		Unit       string
		Macros     Macros
		MealType   MealType
		ConsumedAt time.Time
	}
)

var (
	ErrEmptyName       = errors.New("empty food name")
	ErrNameTooLong     = errors.New("food name too long (max 200 characters)")
	ErrInvalidPortion  = errors.New("invalid portion")
	ErrNegativeMacro   = errors.New("nutrient values cannot be negative")
	ErrInvalidMealType = errors.New("invalid meal type")
	ErrMissingTime     = errors.New("consumption time cannot be zero")
	ErrFutureEntry     = errors.New("consumption time cannot be in the future")
)

// Add returns the field-wise sum of m and o.
func (m Macros) Add(o Macros) Macros {
	return Macros{
		Calories:      m.Calories + o.Calories,
		Protein:       m.Protein + o.Protein,
		Fat:           m.Fat + o.Fat,
		Carbohydrates: m.Carbohydrates + o.Carbohydrates,
		Fiber:         m.Fiber + o.Fiber,
		Sugar:         m.Sugar + o.Sugar,
	}
}

// IsZero reports whether every field is zero.
func (m Macros) IsZero() bool {
	return m == Macros{}
}

func (m Macros) Validate() error {
	for _, v := range []float64{m.Calories, m.Protein, m.Fat, m.Carbohydrates, m.Fiber, m.Sugar} {
		if v < 0 {
			return ErrNegativeMacro
		}
	}
	return nil
}

// ParseMealType normalizes s and checks it against the known meal types.
func ParseMealType(s string) (MealType, error) {
	mt := MealType(strings.ToLower(strings.TrimSpace(s)))
	if err := mt.Validate(); err != nil {
		return "", err
	}
	return mt, nil
}

func (mt MealType) Validate() error {
	switch mt {
	case Breakfast, Lunch, Dinner, Snack, Meal:
		return nil
	default:
		return ErrInvalidMealType
	}
}

func (e FoodEntry) Validate() error {
	if len(strings.TrimSpace(e.Name)) == 0 {
		return ErrEmptyName
	}
	if len(e.Name) > 200 {
		return ErrNameTooLong
	}
	if e.Portion <= 0 {
		return ErrInvalidPortion
	}
	if err := e.Macros.Validate(); err != nil {
		return err
	}
	if err := e.MealType.Validate(); err != nil {
		return err
	}
	if e.ConsumedAt.IsZero() {
		return ErrMissingTime
	}
	return nil
}

// ValidateAt validates e and additionally rejects entries dated after the
// calendar day of now.
func (e FoodEntry) ValidateAt(now time.Time) error {
	if err := e.Validate(); err != nil {
		return err
	}
	y, m, d := now.Date()
	endOfDay := time.Date(y, m, d+1, 0, 0, 0, 0, now.Location())
	if !e.ConsumedAt.Before(endOfDay) {
		return ErrFutureEntry
	}
	return nil
}
