package dailylog

import (
	"time"
)

// DailyLog is the per-user, per-day bucket that workouts and meals get
// attached to. The stored total_* columns are written once at creation and
// never updated afterwards, nutrition sums shown to the user are computed
// from the linked meals at read time.
type DailyLog struct {
	ID            int       `json:"id"`
	UserID        int       `json:"userId"`
	Date          time.Time `json:"date"`
	TotalCalories int       `json:"totalCalories"`
	TotalProteinG int       `json:"totalProteinG"`
	TotalCarbsG   int       `json:"totalCarbsG"`
	TotalFatsG    int       `json:"totalFatsG"`
	CreatedAt     time.Time `json:"createdAt"`

	WorkoutIDs []int `json:"workoutIds"`
	MealIDs    []int `json:"mealIds"`
}
