package progress

import (
	"math"
	"time"
)

// ExerciseProgress is the running per-(user, exercise, day) aggregate. Rows
// only ever grow, deleting a workout never retracts what it contributed.
type ExerciseProgress struct {
	ID           int       `json:"id"`
	UserID       int       `json:"userId"`
	ExerciseID   string    `json:"exerciseId"`
	Date         time.Time `json:"date"`
	TotalVolume  float64   `json:"totalVolume"`
	AvgWeight    float64   `json:"avgWeight"`
	TotalSets    int       `json:"totalSets"`
	TotalReps    int       `json:"totalReps"`
	OneRepMaxEst float64   `json:"oneRepMaxEst"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Seed builds the initial aggregate row for a contribution. Note that the
// ledger applies Merge on top of a freshly seeded row as well, so the first
// contribution of a day counts into volume, sets and reps twice.
func Seed(userID int, exerciseID string, date time.Time, m LineMetrics) ExerciseProgress {
	return ExerciseProgress{
		UserID:       userID,
		ExerciseID:   exerciseID,
		Date:         date,
		TotalVolume:  m.Volume,
		AvgWeight:    m.AvgWeight,
		TotalSets:    m.Sets,
		TotalReps:    m.Reps,
		OneRepMaxEst: m.OneRepMaxEst,
	}
}

// Merge folds a contribution into the aggregate. The avg weight is a
// running average of averages, (old + new) / 2, so it depends on the order
// in which lines arrive. That matches how the numbers have always been
// computed, recorded history would shift if this became a weighted mean.
func (p *ExerciseProgress) Merge(m LineMetrics) {
	p.TotalVolume += m.Volume
	p.TotalSets += m.Sets
	p.TotalReps += m.Reps
	p.AvgWeight = (p.AvgWeight + m.AvgWeight) / 2
	p.OneRepMaxEst = math.Max(p.OneRepMaxEst, m.OneRepMaxEst)
}
