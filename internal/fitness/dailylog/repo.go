package dailylog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dstojkovic/fitlog/internal/telemetry/tracing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
)

var ErrDailyLogNotFound = errors.New("daily log not found")

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{
		db: db,
	}
}

// GetOrCreate returns the daily log for (user, date), creating it if it does
// not exist yet. Insert and read happen in one transaction, so two
// concurrent callers for the same day both end up with the same row.
func (r *Repo) GetOrCreate(ctx context.Context, userID int, date time.Time) (_ *DailyLog, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.dailylog.getorcreate")
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

	dailyLog, err := r.getOrCreateTx(ctx, tx, userID, date)
	if err != nil {
		return nil, err
	}

	span.SetAttributes(attribute.Int("dailylog.id", dailyLog.ID))

	return dailyLog, nil
}

func (r *Repo) getOrCreateTx(ctx context.Context, tx pgx.Tx, userID int, date time.Time) (*DailyLog, error) {
	if _, err := tx.Exec(ctx, `
		INSERT INTO daily_log (user_id, date, created_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, date) DO NOTHING
	`, userID, date, time.Now()); err != nil {
		return nil, fmt.Errorf("insert daily log: %w", err)
	}

	dailyLog := &DailyLog{}
	err := tx.QueryRow(ctx, `
		SELECT id, user_id, date, total_calories, total_protein_g, total_carbs_g, total_fats_g, created_at
		FROM daily_log
		WHERE user_id = $1 AND date = $2
	`, userID, date).Scan(
		&dailyLog.ID, &dailyLog.UserID, &dailyLog.Date,
		&dailyLog.TotalCalories, &dailyLog.TotalProteinG,
		&dailyLog.TotalCarbsG, &dailyLog.TotalFatsG,
		&dailyLog.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("select daily log: %w", err)
	}

	return dailyLog, nil
}

// AttachWorkout links a workout to the user's daily log for the given date,
// creating the log if needed. Attaching the same workout twice is a no-op.
func (r *Repo) AttachWorkout(ctx context.Context, userID, workoutID int, date time.Time) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.dailylog.attachworkout")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	return r.attach(ctx, userID, date, `
		INSERT INTO daily_log_workout (daily_log_id, workout_id)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING
	`, workoutID)
}

// AttachMeal links a meal to the user's daily log for the given date,
// creating the log if needed. Attaching the same meal twice is a no-op.
func (r *Repo) AttachMeal(ctx context.Context, userID, mealID int, date time.Time) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.dailylog.attachmeal")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	return r.attach(ctx, userID, date, `
		INSERT INTO daily_log_meal (daily_log_id, meal_id)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING
	`, mealID)
}

func (r *Repo) attach(ctx context.Context, userID int, date time.Time, insertLinkSQL string, linkedID int) (err error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
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

	dailyLog, err := r.getOrCreateTx(ctx, tx, userID, date)
	if err != nil {
		return err
	}

	if _, err := tx.Exec(ctx, insertLinkSQL, dailyLog.ID, linkedID); err != nil {
		return fmt.Errorf("insert daily log link: %w", err)
	}

	return nil
}

// DetachWorkout removes the workout link from the user's daily log for the
// given date. Missing log or missing link is a silent no-op.
func (r *Repo) DetachWorkout(ctx context.Context, userID, workoutID int, date time.Time) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.dailylog.detachworkout")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	_, err = r.db.Exec(ctx, `
		DELETE FROM daily_log_workout
		WHERE workout_id = $1
			AND daily_log_id IN (
				SELECT id FROM daily_log WHERE user_id = $2 AND date = $3
			)
	`, workoutID, userID, date)
	return err
}

// DetachMeal removes the meal link from the user's daily log for the given
// date. Missing log or missing link is a silent no-op.
func (r *Repo) DetachMeal(ctx context.Context, userID, mealID int, date time.Time) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.dailylog.detachmeal")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	_, err = r.db.Exec(ctx, `
		DELETE FROM daily_log_meal
		WHERE meal_id = $1
			AND daily_log_id IN (
				SELECT id FROM daily_log WHERE user_id = $2 AND date = $3
			)
	`, mealID, userID, date)
	return err
}

// Get returns the daily log for (user, date) with linked workout and meal
// ids, or ErrDailyLogNotFound when the day has no bucket yet.
func (r *Repo) Get(ctx context.Context, userID int, date time.Time) (_ *DailyLog, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.dailylog.get")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	dailyLog := &DailyLog{}
	err = r.db.QueryRow(ctx, `
		SELECT id, user_id, date, total_calories, total_protein_g, total_carbs_g, total_fats_g, created_at
		FROM daily_log
		WHERE user_id = $1 AND date = $2
	`, userID, date).Scan(
		&dailyLog.ID, &dailyLog.UserID, &dailyLog.Date,
		&dailyLog.TotalCalories, &dailyLog.TotalProteinG,
		&dailyLog.TotalCarbsG, &dailyLog.TotalFatsG,
		&dailyLog.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrDailyLogNotFound
		}
		return nil, err
	}

	if dailyLog.WorkoutIDs, err = r.linkedIDs(ctx, `
		SELECT workout_id FROM daily_log_workout WHERE daily_log_id = $1 ORDER BY workout_id
	`, dailyLog.ID); err != nil {
		return nil, err
	}
	if dailyLog.MealIDs, err = r.linkedIDs(ctx, `
		SELECT meal_id FROM daily_log_meal WHERE daily_log_id = $1 ORDER BY meal_id
	`, dailyLog.ID); err != nil {
		return nil, err
	}

	return dailyLog, nil
}

func (r *Repo) linkedIDs(ctx context.Context, query string, dailyLogID int) ([]int, error) {
	rows, err := r.db.Query(ctx, query, dailyLogID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("rows scan: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
