package workouts

import (
	"fmt"
	"sort"
	"time"

	"github.com/dstojkovic/fitlog/internal/fitness"
)

// WorkoutPayload is the shape the automation agent posts to the workout
// callback. It is validated before it is staged, and validated again when
// the staged copy gets finalized.
type WorkoutPayload struct {
	UserID    int               `json:"user"`
	Name      string            `json:"name"`
	Date      string            `json:"date"`
	Notes     string            `json:"notes,omitempty"`
	Exercises []ExercisePayload `json:"exercises"`
}

type ExercisePayload struct {
	ExerciseID  string   `json:"exercise_id"`
	Sets        int      `json:"sets"`
	Reps        int      `json:"reps"`
	Weight      *float64 `json:"weight,omitempty"`
	RestSeconds int      `json:"rest_seconds,omitempty"`
	Notes       string   `json:"notes,omitempty"`
	Order       *int     `json:"order,omitempty"`
}

func (p *WorkoutPayload) Validate() fitness.ValidationErrors {
	ve := fitness.ValidationErrors{}

	if p.UserID <= 0 {
		ve.Add("user", "must be a positive integer")
	}
	if p.Name == "" {
		ve.Add("name", "must not be empty")
	}
	if p.Date == "" {
		ve.Add("date", "must not be empty")
	} else if _, err := time.Parse(DateLayout, p.Date); err != nil {
		ve.Add("date", fmt.Sprintf("must be in %s format", DateLayout))
	}
	if len(p.Exercises) == 0 {
		ve.Add("exercises", "must contain at least one exercise")
	}

	for i, ex := range p.Exercises {
		field := func(name string) string {
			return fmt.Sprintf("exercises[%d].%s", i, name)
		}
		if ex.ExerciseID == "" {
			ve.Add(field("exercise_id"), "must not be empty")
		}
		if ex.Sets < 0 {
			ve.Add(field("sets"), "must not be negative")
		}
		if ex.Reps < 0 {
			ve.Add(field("reps"), "must not be negative")
		}
		if ex.Weight != nil && *ex.Weight < 0 {
			ve.Add(field("weight"), "must not be negative")
		}
		if ex.RestSeconds < 0 {
			ve.Add(field("rest_seconds"), "must not be negative")
		}
		if ex.Order != nil && *ex.Order < 0 {
			ve.Add(field("order"), "must not be negative")
		}
	}

	return ve
}

// ToWorkout converts a validated payload into a Workout. A line's explicit
// order value wins; lines without one keep their position in the payload.
// The resulting lines are sorted by order, which is also the order they get
// folded into exercise progress.
func (p *WorkoutPayload) ToWorkout() (*Workout, error) {
	date, err := time.Parse(DateLayout, p.Date)
	if err != nil {
		return nil, fmt.Errorf("parse date: %w", err)
	}

	w := &Workout{
		UserID:    p.UserID,
		Name:      p.Name,
		Date:      date,
		Notes:     p.Notes,
		CreatedAt: time.Now(),
		Exercises: make([]WorkoutLine, 0, len(p.Exercises)),
	}
	for i, ex := range p.Exercises {
		order := i
		if ex.Order != nil {
			order = *ex.Order
		}
		w.Exercises = append(w.Exercises, WorkoutLine{
			ExerciseID:  ex.ExerciseID,
			Sets:        ex.Sets,
			Reps:        ex.Reps,
			Weight:      ex.Weight,
			RestSeconds: ex.RestSeconds,
			Notes:       ex.Notes,
			Order:       order,
		})
	}
	sort.SliceStable(w.Exercises, func(i, j int) bool {
		return w.Exercises[i].Order < w.Exercises[j].Order
	})

	return w, nil
}
