package meals

import (
	"fmt"
	"time"

	"github.com/dstojkovic/fitlog/internal/fitness"
	"github.com/dstojkovic/fitlog/internal/fitness/workouts"
)

type MealEntry struct {
	ID          int       `json:"id"`
	UserID      int       `json:"userId"`
	Description string    `json:"description"`
	Calories    int       `json:"calories"`
	ProteinG    int       `json:"proteinG"`
	CarbsG      int       `json:"carbsG"`
	FatsG       int       `json:"fatsG"`
	Date        time.Time `json:"date"`
	CreatedAt   time.Time `json:"createdAt"`
}

// MealPayload is the shape the automation agent posts to the meal callback.
// Unlike workouts, meals are persisted right away, no confirmation step.
// The agent sends the meal name and bare macro names (protein/carbs/fats).
type MealPayload struct {
	UserID   int    `json:"user"`
	Name     string `json:"name"`
	Calories int    `json:"calories"`
	Protein  int    `json:"protein"`
	Carbs    int    `json:"carbs"`
	Fats     int    `json:"fats"`
	Date     string `json:"date"`
}

func (p *MealPayload) Validate() fitness.ValidationErrors {
	ve := fitness.ValidationErrors{}

	if p.UserID <= 0 {
		ve.Add("user", "must be a positive integer")
	}
	if p.Name == "" {
		ve.Add("name", "must not be empty")
	}
	if p.Date == "" {
		ve.Add("date", "must not be empty")
	} else if _, err := time.Parse(workouts.DateLayout, p.Date); err != nil {
		ve.Add("date", fmt.Sprintf("must be in %s format", workouts.DateLayout))
	}
	if p.Calories < 0 {
		ve.Add("calories", "must not be negative")
	}
	if p.Protein < 0 {
		ve.Add("protein", "must not be negative")
	}
	if p.Carbs < 0 {
		ve.Add("carbs", "must not be negative")
	}
	if p.Fats < 0 {
		ve.Add("fats", "must not be negative")
	}

	return ve
}

func (p *MealPayload) ToMealEntry() (*MealEntry, error) {
	date, err := time.Parse(workouts.DateLayout, p.Date)
	if err != nil {
		return nil, fmt.Errorf("parse date: %w", err)
	}
	return &MealEntry{
		UserID:      p.UserID,
		Description: p.Name,
		Calories:    p.Calories,
		ProteinG:    p.Protein,
		CarbsG:      p.Carbs,
		FatsG:       p.Fats,
		Date:        date,
		CreatedAt:   time.Now(),
	}, nil
}
