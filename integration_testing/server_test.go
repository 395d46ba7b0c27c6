package integration_testing

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dstojkovic/fitlog/internal/fitness/progress"
	"github.com/dstojkovic/fitlog/internal/fitness/staging"
	"github.com/dstojkovic/fitlog/internal/fitness/workouts"
)

func doRequest(t *testing.T, method, path string, body any) *http.Response {
	t.Helper()

	var reqBody *bytes.Reader
	if body != nil {
		bodyBytes, err := json.Marshal(body)
		require.NoError(t, err)
		reqBody = bytes.NewReader(bodyBytes)
	} else {
		reqBody = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, serverEndpoint+path, reqBody)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Origin", "test")
	req.Header.Set("User-Agent", "test-agent")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var result T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	return result
}

func waitServerReady(t *testing.T) {
	t.Helper()
	for i := 0; i < 20; i++ {
		resp, err := http.Get(serverEndpoint + "/progress")
		if err == nil {
			resp.Body.Close()
			return
		}
		time.Sleep(250 * time.Millisecond)
	}
	t.Fatal("server did not become ready")
}

func TestServer_AgentCallbackPipeline(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	suite := newSuite(ctx)
	defer suite.cleanup()
	require.NotNil(t, suite.server)

	waitServerReady(t)

	today := time.Now().Format(workouts.DateLayout)

	t.Run("meal callback persists and shows up in the daily rollup", func(t *testing.T) {
		resp := doRequest(t, "POST", "/agent/callback/meal", map[string]any{
			"user":     1,
			"name":     "chicken and rice",
			"calories": 650,
			"protein":  52,
			"carbs":    70,
			"fats":     14,
			"date":     today,
		})
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		resp.Body.Close()

		view := decodeBody[progress.ViewResponse](t,
			doRequest(t, "GET", fmt.Sprintf("/progress?user_id=1&date=%s", today), nil))
		require.Len(t, view.Meals, 1)
		assert.Equal(t, 650, view.TotalCalories)
		assert.Equal(t, 52, view.TotalProteinG)
		assert.Equal(t, 70, view.TotalCarbsG)
		assert.Equal(t, 14, view.TotalFatsG)
		// stored bucket totals are not denormalized
		assert.Equal(t, 0, view.DailyLog.TotalCalories)
	})

	t.Run("workout callback stages, finalize persists and aggregates", func(t *testing.T) {
		resp := doRequest(t, "POST", "/agent/callback/workout", map[string]any{
			"user": 2,
			"name": "push day",
			"date": today,
			"exercises": []map[string]any{
				{"exercise_id": "bench-press", "sets": 3, "reps": 8, "weight": 100},
			},
		})
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		resp.Body.Close()

		// staged, not yet persisted
		recent := decodeBody[workouts.RecentWorkoutsResponse](t,
			doRequest(t, "GET", "/workouts/recent?user_id=2", nil))
		assert.Equal(t, 0, recent.Total)

		staged := decodeBody[staging.CurrentStagedResponse](t,
			doRequest(t, "GET", "/staging?user_id=2", nil))
		require.NotNil(t, staged.Staged)
		assert.Equal(t, "push day", staged.Staged.Name)

		finalizeResp := doRequest(t, "POST", "/staging/finalize?user_id=2", nil)
		require.Equal(t, http.StatusCreated, finalizeResp.StatusCode)
		finalized := decodeBody[staging.FinalizeResponse](t, finalizeResp)
		require.NotNil(t, finalized.Workout)
		workoutID := finalized.Workout.ID

		// slot is gone now
		emptySlotResp := doRequest(t, "GET", "/staging?user_id=2", nil)
		assert.Equal(t, http.StatusNotFound, emptySlotResp.StatusCode)
		emptySlotResp.Body.Close()

		recent = decodeBody[workouts.RecentWorkoutsResponse](t,
			doRequest(t, "GET", "/workouts/recent?user_id=2", nil))
		require.Equal(t, 1, recent.Total)
		assert.Equal(t, workoutID, recent.Workouts[0].ID)

		view := decodeBody[progress.ViewResponse](t,
			doRequest(t, "GET",
				fmt.Sprintf("/progress?user_id=2&date=%s&exercise=bench-press", today), nil))
		require.Len(t, view.Workouts, 1)
		series := view.Progress["bench-press"]
		require.Len(t, series, 1)

		// first contribution of the day lands twice: 2 x (100 * 8 * 3)
		assert.Equal(t, 4800.0, series[0].TotalVolume)
		assert.Equal(t, 6, series[0].TotalSets)
		assert.Equal(t, 48, series[0].TotalReps)
		assert.Equal(t, 100.0, series[0].AvgWeight)
		assert.InDelta(t, 126.6666, series[0].OneRepMaxEst, 0.0001)

		// deleting the workout detaches it, the progress row stays
		deleteResp := doRequest(t, "DELETE", fmt.Sprintf("/workouts/%d?user_id=2", workoutID), nil)
		require.Equal(t, http.StatusOK, deleteResp.StatusCode)
		deleteResp.Body.Close()

		viewAfterDelete := decodeBody[progress.ViewResponse](t,
			doRequest(t, "GET", fmt.Sprintf("/progress?user_id=2&date=%s", today), nil))
		assert.Empty(t, viewAfterDelete.Workouts)
		require.Len(t, viewAfterDelete.Progress["bench-press"], 1)
		assert.Equal(t, 4800.0, viewAfterDelete.Progress["bench-press"][0].TotalVolume)
	})

	t.Run("staged workout slot is overwritten and can be discarded", func(t *testing.T) {
		for _, name := range []string{"legs A", "legs B"} {
			resp := doRequest(t, "POST", "/agent/callback/workout", map[string]any{
				"user": 3,
				"name": name,
				"date": today,
				"exercises": []map[string]any{
					{"exercise_id": "squat", "sets": 5, "reps": 5, "weight": 120},
				},
			})
			require.Equal(t, http.StatusCreated, resp.StatusCode)
			resp.Body.Close()
		}

		// single slot: the second callback replaced the first
		staged := decodeBody[staging.CurrentStagedResponse](t,
			doRequest(t, "GET", "/staging?user_id=3", nil))
		require.NotNil(t, staged.Staged)
		assert.Equal(t, "legs B", staged.Staged.Name)

		discardResp := doRequest(t, "DELETE", "/staging?user_id=3", nil)
		require.Equal(t, http.StatusOK, discardResp.StatusCode)
		discardResp.Body.Close()

		emptySlotResp := doRequest(t, "GET", "/staging?user_id=3", nil)
		assert.Equal(t, http.StatusNotFound, emptySlotResp.StatusCode)
		emptySlotResp.Body.Close()

		recent := decodeBody[workouts.RecentWorkoutsResponse](t,
			doRequest(t, "GET", "/workouts/recent?user_id=3", nil))
		assert.Equal(t, 0, recent.Total)
	})

	t.Run("invalid workout callback reports field errors", func(t *testing.T) {
		resp := doRequest(t, "POST", "/agent/callback/workout", map[string]any{
			"user":      4,
			"name":      "broken",
			"date":      "not-a-date",
			"exercises": []map[string]any{},
		})
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)

		var errResp struct {
			Error   string            `json:"error"`
			Details map[string]string `json:"details"`
		}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&errResp))
		resp.Body.Close()
		assert.Equal(t, "invalid data", errResp.Error)
		assert.Contains(t, errResp.Details, "date")
		assert.Contains(t, errResp.Details, "exercises")
	})
}
