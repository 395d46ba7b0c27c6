//go:build integration_test || all_tests

package dailylog

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/dstojkovic/fitlog/internal/db"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRepoSetup(t *testing.T) (*Repo, func()) {
	t.Helper()

	timeoutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	host := os.Getenv("POSTGRES_HOST")
	if host == "" {
		host = "localhost"
	}
	t.Logf("using postgres host: %s", host)

	dbPool, err := db.NewDBPool(timeoutCtx, db.NewDBPoolParams{
		DBHost:         host,
		DBPort:         "5432",
		DBName:         "fitlog",
		TracingEnabled: false,
	})
	require.NoError(t, err)

	return NewRepo(dbPool), func() {
		dbPool.Close()
	}
}

func deleteAllDailyLogs(ctx context.Context, repo *Repo) error {
	_, err := repo.db.Exec(ctx, `DELETE FROM daily_log`)
	return err
}

func addTestWorkout(ctx context.Context, t *testing.T, repo *Repo, userID int, date time.Time) int {
	t.Helper()
	var id int
	err := repo.db.QueryRow(ctx, `
		INSERT INTO workout (user_id, name, date, notes, created_at)
		VALUES ($1, 'test workout', $2, '', NOW())
		RETURNING id
	`, userID, date).Scan(&id)
	require.NoError(t, err)
	return id
}

func TestRepo_GetOrCreate(t *testing.T) {
	repo, shutdown := testRepoSetup(t)
	defer shutdown()

	ctx := context.Background()
	require.NoError(t, deleteAllDailyLogs(ctx, repo))

	date := time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC)

	created, err := repo.GetOrCreate(ctx, 1, date)
	require.NoError(t, err)
	assert.Equal(t, 1, created.UserID)
	assert.Equal(t, 0, created.TotalCalories)

	// same (user, date) resolves to the same row
	again, err := repo.GetOrCreate(ctx, 1, date)
	require.NoError(t, err)
	assert.Equal(t, created.ID, again.ID)

	// other user gets a different bucket
	other, err := repo.GetOrCreate(ctx, 2, date)
	require.NoError(t, err)
	assert.NotEqual(t, created.ID, other.ID)
}

func TestRepo_AttachDetachWorkout(t *testing.T) {
	repo, shutdown := testRepoSetup(t)
	defer shutdown()

	ctx := context.Background()
	require.NoError(t, deleteAllDailyLogs(ctx, repo))

	date := time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC)
	workoutID := addTestWorkout(ctx, t, repo, 1, date)

	// attach creates the bucket on the fly, repeated attach is a no-op
	require.NoError(t, repo.AttachWorkout(ctx, 1, workoutID, date))
	require.NoError(t, repo.AttachWorkout(ctx, 1, workoutID, date))

	dailyLog, err := repo.Get(ctx, 1, date)
	require.NoError(t, err)
	assert.Equal(t, []int{workoutID}, dailyLog.WorkoutIDs)

	require.NoError(t, repo.DetachWorkout(ctx, 1, workoutID, date))

	dailyLog, err = repo.Get(ctx, 1, date)
	require.NoError(t, err)
	assert.Empty(t, dailyLog.WorkoutIDs)

	// detaching again, or for a day with no bucket, stays silent
	require.NoError(t, repo.DetachWorkout(ctx, 1, workoutID, date))
	require.NoError(t, repo.DetachWorkout(ctx, 1, workoutID, date.AddDate(0, 0, 5)))
}

func TestRepo_Get_notFound(t *testing.T) {
	repo, shutdown := testRepoSetup(t)
	defer shutdown()

	ctx := context.Background()
	require.NoError(t, deleteAllDailyLogs(ctx, repo))

	_, err := repo.Get(ctx, 99, time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC))
	assert.ErrorIs(t, err, ErrDailyLogNotFound)
}
