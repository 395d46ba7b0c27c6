package workouts

import (
	"time"
)

// DateLayout is the calendar day format used across payloads and responses.
const DateLayout = "2006-01-02"

type Workout struct {
	ID        int           `json:"id"`
	UserID    int           `json:"userId"`
	Name      string        `json:"name"`
	Date      time.Time     `json:"date"`
	Notes     string        `json:"notes,omitempty"`
	CreatedAt time.Time     `json:"createdAt"`
	Exercises []WorkoutLine `json:"exercises"`
}

// WorkoutLine is a single exercise entry within a workout. Order is the
// position of the line within the workout, it matters for progress merging.
type WorkoutLine struct {
	ID          int      `json:"id"`
	WorkoutID   int      `json:"workoutId"`
	ExerciseID  string   `json:"exerciseId"`
	Sets        int      `json:"sets"`
	Reps        int      `json:"reps"`
	Weight      *float64 `json:"weight,omitempty"`
	RestSeconds int      `json:"restSeconds,omitempty"`
	Notes       string   `json:"notes,omitempty"`
	Order       int      `json:"order"`
}
