package workouts

import (
	"context"
	"errors"
	"fmt"

	"github.com/dstojkovic/fitlog/internal/telemetry/tracing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
)

var ErrWorkoutNotFound = errors.New("workout not found")

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{
		db: db,
	}
}

// Add stores a workout together with all of its exercise lines in a single
// transaction. Either the whole workout lands or nothing does.
func (r *Repo) Add(ctx context.Context, workout *Workout) (_ *Workout, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workouts.add")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			if rollbackErr := tx.Rollback(ctx); rollbackErr != nil {
				err = fmt.Errorf("failed to rollback transaction: %w: %w", rollbackErr, err)
			}
		} else {
			err = tx.Commit(ctx)
		}
	}()

	err = tx.QueryRow(ctx, `
		INSERT INTO workout (user_id, name, date, notes, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`,
		workout.UserID,
		workout.Name,
		workout.Date,
		workout.Notes,
		workout.CreatedAt,
	).Scan(&workout.ID)
	if err != nil {
		return nil, err
	}

	for i := range workout.Exercises {
		line := &workout.Exercises[i]
		line.WorkoutID = workout.ID
		err = tx.QueryRow(ctx, `
			INSERT INTO workout_exercise
				(workout_id, exercise_id, sets, reps, weight, rest_seconds, notes, position)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			RETURNING id
		`,
			line.WorkoutID,
			line.ExerciseID,
			line.Sets,
			line.Reps,
			line.Weight,
			line.RestSeconds,
			line.Notes,
			line.Order,
		).Scan(&line.ID)
		if err != nil {
			return nil, fmt.Errorf("insert workout exercise [%s]: %w", line.ExerciseID, err)
		}
	}

	span.SetAttributes(attribute.Int("workout.id", workout.ID))

	return workout, nil
}

func (r *Repo) Get(ctx context.Context, id int) (_ *Workout, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workouts.get")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	workout := &Workout{}
	err = r.db.QueryRow(ctx, `
		SELECT id, user_id, name, date, notes, created_at
		FROM workout
		WHERE id = $1
	`, id).Scan(
		&workout.ID, &workout.UserID, &workout.Name,
		&workout.Date, &workout.Notes, &workout.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrWorkoutNotFound
		}
		return nil, err
	}

	if workout.Exercises, err = r.linesForWorkout(ctx, workout.ID); err != nil {
		return nil, err
	}

	return workout, nil
}

// Recent returns the user's newest workouts, newest first, with their lines.
func (r *Repo) Recent(ctx context.Context, userID, limit int) (_ []Workout, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workouts.recent")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	rows, err := r.db.Query(ctx, `
		SELECT id, user_id, name, date, notes, created_at
		FROM workout
		WHERE user_id = $1
		ORDER BY date DESC, created_at DESC
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	workoutsList, err := r.rows2workouts(rows)
	if err != nil {
		return nil, err
	}

	for i := range workoutsList {
		if workoutsList[i].Exercises, err = r.linesForWorkout(ctx, workoutsList[i].ID); err != nil {
			return nil, err
		}
	}

	span.SetAttributes(attribute.Int("workouts.count", len(workoutsList)))

	return workoutsList, nil
}

func (r *Repo) Delete(ctx context.Context, id int) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workouts.delete")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	// workout_exercise rows go away via ON DELETE CASCADE
	tag, err := r.db.Exec(ctx, `DELETE FROM workout WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrWorkoutNotFound
	}
	return nil
}

func (r *Repo) linesForWorkout(ctx context.Context, workoutID int) ([]WorkoutLine, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, workout_id, exercise_id, sets, reps, weight, rest_seconds, notes, position
		FROM workout_exercise
		WHERE workout_id = $1
		ORDER BY position ASC
	`, workoutID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lines []WorkoutLine
	for rows.Next() {
		var line WorkoutLine
		if err := rows.Scan(
			&line.ID, &line.WorkoutID, &line.ExerciseID,
			&line.Sets, &line.Reps, &line.Weight,
			&line.RestSeconds, &line.Notes, &line.Order,
		); err != nil {
			return nil, fmt.Errorf("rows scan: %w", err)
		}
		lines = append(lines, line)
	}

	return lines, rows.Err()
}

func (r *Repo) rows2workouts(rows pgx.Rows) ([]Workout, error) {
	var workoutsList []Workout
	for rows.Next() {
		var w Workout
		if err := rows.Scan(
			&w.ID, &w.UserID, &w.Name,
			&w.Date, &w.Notes, &w.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("rows scan: %w", err)
		}
		workoutsList = append(workoutsList, w)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return workoutsList, nil
}
