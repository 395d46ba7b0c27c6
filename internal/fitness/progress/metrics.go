package progress

// LineMetrics is the per-exercise-line contribution that gets merged into
// the running ExerciseProgress row. A missing weight counts as zero.
type LineMetrics struct {
	Volume       float64 `json:"volume"`
	Sets         int     `json:"sets"`
	Reps         int     `json:"reps"`
	AvgWeight    float64 `json:"avgWeight"`
	OneRepMaxEst float64 `json:"oneRepMaxEst"`
}

// CalcLineMetrics derives the contribution of a single exercise line:
//   - volume: weight * reps * sets
//   - reps:   reps * sets
//   - one rep max estimate, Epley: weight * (1 + reps/30)
func CalcLineMetrics(sets, reps int, weight *float64) LineMetrics {
	var w float64
	if weight != nil {
		w = *weight
	}
	return LineMetrics{
		Volume:       w * float64(reps) * float64(sets),
		Sets:         sets,
		Reps:         reps * sets,
		AvgWeight:    w,
		OneRepMaxEst: w * (1 + float64(reps)/30.0),
	}
}
