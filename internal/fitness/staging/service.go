package staging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/dstojkovic/fitlog/internal/fitness/workouts"
	"github.com/dstojkovic/fitlog/internal/telemetry/tracing"
)

type stagedSlots interface {
	Store(ctx context.Context, userID int, payload []byte) error
	Load(ctx context.Context, userID int) ([]byte, error)
	Delete(ctx context.Context, userID int) error
}

type workoutAdder interface {
	Add(ctx context.Context, workout *workouts.Workout) (*workouts.Workout, error)
}

type workoutIngester interface {
	IngestWorkout(ctx context.Context, workout *workouts.Workout) error
}

type dailyLogAttacher interface {
	AttachWorkout(ctx context.Context, userID, workoutID int, date time.Time) error
}

// Service runs the staged workout workflow: agent-produced workouts wait in
// a per-user slot until the user confirms or discards them.
type Service struct {
	slots      stagedSlots
	workouts   workoutAdder
	aggregator workoutIngester
	dailyLogs  dailyLogAttacher
}

func NewService(
	slots stagedSlots,
	workoutsRepo workoutAdder,
	aggregator workoutIngester,
	dailyLogs dailyLogAttacher,
) *Service {
	return &Service{
		slots:      slots,
		workouts:   workoutsRepo,
		aggregator: aggregator,
		dailyLogs:  dailyLogs,
	}
}

// Stage validates the payload shape and stores it verbatim, replacing
// whatever was in the user's slot before.
func (s *Service) Stage(ctx context.Context, payload *workouts.WorkoutPayload) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "staging.stage")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if ve := payload.Validate(); !ve.IsValid() {
		return ve
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal staged workout: %w", err)
	}

	return s.slots.Store(ctx, payload.UserID, data)
}

// Current is a read-only peek at the user's slot.
func (s *Service) Current(ctx context.Context, userID int) (_ *workouts.WorkoutPayload, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "staging.current")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	data, err := s.slots.Load(ctx, userID)
	if err != nil {
		return nil, err
	}

	var payload workouts.WorkoutPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("unmarshal staged workout: %w", err)
	}
	return &payload, nil
}

// Finalize turns the staged payload into a persisted workout: re-validate,
// store, fold into the progress ledger, attach to the daily log, then clear
// the slot. Any failure before the final delete leaves the slot intact.
func (s *Service) Finalize(ctx context.Context, userID int) (_ *workouts.Workout, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "staging.finalize")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	payload, err := s.Current(ctx, userID)
	if err != nil {
		return nil, err
	}

	if ve := payload.Validate(); !ve.IsValid() {
		return nil, ve
	}

	workout, err := payload.ToWorkout()
	if err != nil {
		return nil, err
	}

	added, err := s.workouts.Add(ctx, workout)
	if err != nil {
		return nil, fmt.Errorf("add workout: %w", err)
	}

	if err := s.aggregator.IngestWorkout(ctx, added); err != nil {
		return nil, fmt.Errorf("ingest workout: %w", err)
	}

	if err := s.dailyLogs.AttachWorkout(ctx, added.UserID, added.ID, added.Date); err != nil {
		return nil, fmt.Errorf("attach workout to daily log: %w", err)
	}

	if err := s.slots.Delete(ctx, userID); err != nil {
		// workout is already in, just the slot cleanup failed
		log.Errorf("failed to clear staged workout slot for user %d: %s", userID, err)
	}

	return added, nil
}

// Discard drops the slot content, no validation, no error when empty.
func (s *Service) Discard(ctx context.Context, userID int) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "staging.discard")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	return s.slots.Delete(ctx, userID)
}
