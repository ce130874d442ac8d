package core

import (
	"errors"
	"math"
	"strings"
)

const (
	Male   Sex = "male"
	Female Sex = "female"
)

// ActivityFactor is the multiplier for a moderately active person.
const ActivityFactor = 1.55

// LowIntakePercent is the share of a target below which intake is flagged.
const LowIntakePercent = 80.0

type (
	Sex string

	// UserStats are the body measurements the daily needs are estimated from.
	UserStats struct {
		WeightKg float64
		HeightCm float64
		AgeYears float64
		Sex      Sex
	}

	// Needs are the estimated daily targets.
	Needs struct {
		Calories      float64
		Protein       float64
		Carbohydrates float64
		Fat           float64
		Fiber         float64
	}

	// NutrientProgress compares one nutrient's intake against its target.
	NutrientProgress struct {
		Name       string
		Unit       string
		Current    float64
		Target     float64
		Percent    float64
		BarPercent float64
		Low        bool
	}
)

var (
	ErrInvalidWeight = errors.New("invalid weight")
	ErrInvalidHeight = errors.New("invalid height")
	ErrInvalidAge    = errors.New("invalid age")
	ErrInvalidSex    = errors.New("invalid sex")
)

// DefaultUserStats are used until the user enters their own measurements.
func DefaultUserStats() UserStats {
	return UserStats{WeightKg: 70, HeightCm: 170, AgeYears: 30, Sex: Male}
}

func ParseSex(s string) (Sex, error) {
	sex := Sex(strings.ToLower(strings.TrimSpace(s)))
	switch sex {
	case Male, Female:
		return sex, nil
	default:
		return "", ErrInvalidSex
	}
}

func (s UserStats) Validate() error {
	if s.WeightKg <= 0 || s.WeightKg > 500 {
		return ErrInvalidWeight
	}
	if s.HeightCm <= 0 || s.HeightCm > 300 {
		return ErrInvalidHeight
	}
	if s.AgeYears <= 0 || s.AgeYears > 150 {
		return ErrInvalidAge
	}
	if s.Sex != Male && s.Sex != Female {
		return ErrInvalidSex
	}
	return nil
}

// BMR is the Mifflin-St Jeor basal metabolic rate in kcal/day.
func (s UserStats) BMR() float64 {
	base := 10*s.WeightKg + 6.25*s.HeightCm - 5*s.AgeYears
	if s.Sex == Female {
		return base - 161
	}
	return base + 5
}

// DailyNeeds estimates daily targets for a moderately active person.
// Carbohydrates cover 55% and fat 25% of the energy target.
func DailyNeeds(s UserStats) Needs {
	energy := s.BMR() * ActivityFactor
	return Needs{
		Calories:      math.Round(energy),
		Protein:       math.Round(s.WeightKg * 1.6),
		Carbohydrates: math.Round(energy * 0.55 / 4),
		Fat:           math.Round(energy * 0.25 / 9),
		Fiber:         25,
	}
}

// CompareToNeeds reports intake against needs for calories, protein,
// carbohydrates, fat and fiber, in that order.
func CompareToNeeds(intake Macros, needs Needs) []NutrientProgress {
	rows := []NutrientProgress{
		{Name: "Calories", Unit: "kcal", Current: intake.Calories, Target: needs.Calories},
		{Name: "Protein", Unit: "g", Current: intake.Protein, Target: needs.Protein},
		{Name: "Carbohydrates", Unit: "g", Current: intake.Carbohydrates, Target: needs.Carbohydrates},
		{Name: "Fat", Unit: "g", Current: intake.Fat, Target: needs.Fat},
		{Name: "Fiber", Unit: "g", Current: intake.Fiber, Target: needs.Fiber},
	}
	for i := range rows {
		r := &rows[i]
		if r.Target > 0 {
			r.Percent = r.Current * 100 / r.Target
		}
		r.BarPercent = math.Min(r.Percent, 100)
		r.Low = r.Percent < LowIntakePercent
	}
	return rows
}
