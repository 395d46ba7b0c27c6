package progress

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/dstojkovic/fitlog/internal/fitness/workouts"
	"github.com/dstojkovic/fitlog/internal/telemetry/tracing"
)

type progressLedger interface {
	MergeContribution(
		ctx context.Context,
		userID int,
		exerciseID string,
		date time.Time,
		m LineMetrics,
	) (*ExerciseProgress, error)
}

// Aggregator folds finished workouts into the per-exercise progress ledger.
type Aggregator struct {
	ledger progressLedger
}

func NewAggregator(ledger progressLedger) *Aggregator {
	return &Aggregator{
		ledger: ledger,
	}
}

// IngestWorkout merges each exercise line of the workout into the ledger,
// in line order. Lines merged before a failing one stay merged, the ledger
// is append-only and there is nothing to roll back to.
func (a *Aggregator) IngestWorkout(ctx context.Context, workout *workouts.Workout) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "progress.aggregator.ingestworkout")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	for _, line := range workout.Exercises {
		m := CalcLineMetrics(line.Sets, line.Reps, line.Weight)
		if _, err := a.ledger.MergeContribution(
			ctx, workout.UserID, line.ExerciseID, workout.Date, m,
		); err != nil {
			return fmt.Errorf("merge contribution [%s]: %w", line.ExerciseID, err)
		}
		log.Tracef(
			"workout %d: merged progress for user %d, exercise [%s]",
			workout.ID, workout.UserID, line.ExerciseID,
		)
	}

	return nil
}
