package meals

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

var ErrMealNotFound = errors.New("meal not found")

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{
		db: db,
	}
}

func (r *Repo) Add(ctx context.Context, meal *MealEntry) (_ *MealEntry, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.meals.add")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	err = r.db.QueryRow(ctx, `
		INSERT INTO meal_entry
			(user_id, description, calories, protein_g, carbs_g, fats_g, date, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`,
		meal.UserID,
		meal.Description,
		meal.Calories,
		meal.ProteinG,
		meal.CarbsG,
		meal.FatsG,
		meal.Date,
		meal.CreatedAt,
	).Scan(&meal.ID)
	if err != nil {
		return nil, err
	}

	span.SetAttributes(attribute.Int("meal.id", meal.ID))

	return meal, nil
}

func (r *Repo) Get(ctx context.Context, id int) (_ *MealEntry, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.meals.get")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	meal := &MealEntry{}
	err = r.db.QueryRow(ctx, `
		SELECT id, user_id, description, calories, protein_g, carbs_g, fats_g, date, created_at
		FROM meal_entry
		WHERE id = $1
	`, id).Scan(
		&meal.ID, &meal.UserID, &meal.Description,
		&meal.Calories, &meal.ProteinG, &meal.CarbsG, &meal.FatsG,
		&meal.Date, &meal.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrMealNotFound
		}
		return nil, err
	}
	return meal, nil
}

// ListForDay returns all meals a user logged on the given calendar day,
// oldest first.
func (r *Repo) ListForDay(ctx context.Context, userID int, date time.Time) (_ []MealEntry, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.meals.listforday")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	rows, err := r.db.Query(ctx, `
		SELECT id, user_id, description, calories, protein_g, carbs_g, fats_g, date, created_at
		FROM meal_entry
		WHERE user_id = $1 AND date = $2
		ORDER BY created_at ASC
	`, userID, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var mealsList []MealEntry
	for rows.Next() {
		var meal MealEntry
		if err := rows.Scan(
			&meal.ID, &meal.UserID, &meal.Description,
			&meal.Calories, &meal.ProteinG, &meal.CarbsG, &meal.FatsG,
			&meal.Date, &meal.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("rows scan: %w", err)
		}
		mealsList = append(mealsList, meal)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	span.SetAttributes(attribute.Int("meals.count", len(mealsList)))

	return mealsList, nil
}

func (r *Repo) Delete(ctx context.Context, id int) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.meals.delete")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	tag, err := r.db.Exec(ctx, `DELETE FROM meal_entry WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrMealNotFound
	}
	return nil
}
