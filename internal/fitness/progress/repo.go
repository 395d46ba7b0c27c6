package progress

import (
	"context"
	"fmt"
	"time"

	"github.com/dstojkovic/fitlog/internal/telemetry/tracing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
)

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{
		db: db,
	}
}

// MergeContribution folds one exercise line contribution into the
// (user, exercise, date) aggregate row. The row is seeded with the
// contribution values when missing, and the merge is then applied on top
// regardless, so the first contribution of a day counts twice. Seed, lock
// and merge happen in one transaction.
func (r *Repo) MergeContribution(
	ctx context.Context,
	userID int,
	exerciseID string,
	date time.Time,
	m LineMetrics,
) (_ *ExerciseProgress, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.progress.mergecontribution")
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

	seed := Seed(userID, exerciseID, date, m)
	if _, err = tx.Exec(ctx, `
		INSERT INTO exercise_progress
			(user_id, exercise_id, date, total_volume, avg_weight, total_sets, total_reps, one_rep_max_est, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (user_id, exercise_id, date) DO NOTHING
	`,
		seed.UserID, seed.ExerciseID, seed.Date,
		seed.TotalVolume, seed.AvgWeight, seed.TotalSets, seed.TotalReps, seed.OneRepMaxEst,
		time.Now(),
	); err != nil {
		return nil, fmt.Errorf("seed progress row: %w", err)
	}

	p := &ExerciseProgress{}
	if err = tx.QueryRow(ctx, `
		SELECT id, user_id, exercise_id, date, total_volume, avg_weight, total_sets, total_reps, one_rep_max_est, created_at
		FROM exercise_progress
		WHERE user_id = $1 AND exercise_id = $2 AND date = $3
		FOR UPDATE
	`, userID, exerciseID, date).Scan(
		&p.ID, &p.UserID, &p.ExerciseID, &p.Date,
		&p.TotalVolume, &p.AvgWeight, &p.TotalSets, &p.TotalReps, &p.OneRepMaxEst,
		&p.CreatedAt,
	); err != nil {
		return nil, fmt.Errorf("lock progress row: %w", err)
	}

	p.Merge(m)

	if _, err = tx.Exec(ctx, `
		UPDATE exercise_progress
		SET total_volume = $1, avg_weight = $2, total_sets = $3, total_reps = $4, one_rep_max_est = $5
		WHERE id = $6
	`,
		p.TotalVolume, p.AvgWeight, p.TotalSets, p.TotalReps, p.OneRepMaxEst,
		p.ID,
	); err != nil {
		return nil, fmt.Errorf("update progress row: %w", err)
	}

	span.SetAttributes(
		attribute.Int("progress.id", p.ID),
		attribute.String("progress.exercise", exerciseID),
	)

	return p, nil
}

// History returns the full per-day series for one exercise, oldest first.
func (r *Repo) History(ctx context.Context, userID int, exerciseID string) (_ []ExerciseProgress, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.progress.history")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	rows, err := r.db.Query(ctx, `
		SELECT id, user_id, exercise_id, date, total_volume, avg_weight, total_sets, total_reps, one_rep_max_est, created_at
		FROM exercise_progress
		WHERE user_id = $1 AND exercise_id = $2
		ORDER BY date ASC
	`, userID, exerciseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return r.rows2progress(rows)
}

// Recent returns the newest aggregate rows across all exercises of a user.
func (r *Repo) Recent(ctx context.Context, userID, limit int) (_ []ExerciseProgress, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.progress.recent")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	rows, err := r.db.Query(ctx, `
		SELECT id, user_id, exercise_id, date, total_volume, avg_weight, total_sets, total_reps, one_rep_max_est, created_at
		FROM exercise_progress
		WHERE user_id = $1
		ORDER BY date DESC, created_at DESC
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return r.rows2progress(rows)
}

func (r *Repo) rows2progress(rows pgx.Rows) ([]ExerciseProgress, error) {
	var progresses []ExerciseProgress
	for rows.Next() {
		var p ExerciseProgress
		if err := rows.Scan(
			&p.ID, &p.UserID, &p.ExerciseID, &p.Date,
			&p.TotalVolume, &p.AvgWeight, &p.TotalSets, &p.TotalReps, &p.OneRepMaxEst,
			&p.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("rows scan: %w", err)
		}
		progresses = append(progresses, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return progresses, nil
}
