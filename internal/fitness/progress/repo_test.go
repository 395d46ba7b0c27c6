//go:build integration_test || all_tests

package progress

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

func deleteAllProgress(ctx context.Context, repo *Repo) (int64, error) {
	tag, err := repo.db.Exec(ctx, `DELETE FROM exercise_progress`)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func TestRepo_MergeContribution(t *testing.T) {
	repo, shutdown := testRepoSetup(t)
	defer shutdown()

	ctx := context.Background()
	deleted, err := deleteAllProgress(ctx, repo)
	require.NoError(t, err)
	t.Logf("test setup, deleted progress rows: %d", deleted)

	date := time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC)
	weight := 100.0
	m := CalcLineMetrics(3, 8, &weight)

	// first merge of the day: seed + merge, counted twice
	p, err := repo.MergeContribution(ctx, 1, "bench-press", date, m)
	require.NoError(t, err)
	assert.Equal(t, 4800.0, p.TotalVolume)
	assert.Equal(t, 6, p.TotalSets)
	assert.Equal(t, 48, p.TotalReps)
	assert.Equal(t, 100.0, p.AvgWeight)

	// second merge of the same day: counted once on top
	p, err = repo.MergeContribution(ctx, 1, "bench-press", date, m)
	require.NoError(t, err)
	assert.Equal(t, 7200.0, p.TotalVolume)
	assert.Equal(t, 9, p.TotalSets)
	assert.Equal(t, 72, p.TotalReps)
	assert.Equal(t, 100.0, p.AvgWeight)

	// another day gets its own row
	nextDay := date.AddDate(0, 0, 1)
	p, err = repo.MergeContribution(ctx, 1, "bench-press", nextDay, m)
	require.NoError(t, err)
	assert.Equal(t, 4800.0, p.TotalVolume)

	history, err := repo.History(ctx, 1, "bench-press")
	require.NoError(t, err)
	require.Len(t, history, 2)
	// oldest first
	assert.Equal(t, date.Format("2006-01-02"), history[0].Date.Format("2006-01-02"))
	assert.Equal(t, nextDay.Format("2006-01-02"), history[1].Date.Format("2006-01-02"))

	recent, err := repo.Recent(ctx, 1, 50)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	// newest first
	assert.Equal(t, nextDay.Format("2006-01-02"), recent[0].Date.Format("2006-01-02"))
}
