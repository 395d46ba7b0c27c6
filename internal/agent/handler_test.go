package agent

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dstojkovic/fitlog/internal/fitness"
	"github.com/dstojkovic/fitlog/internal/fitness/meals"
	"github.com/dstojkovic/fitlog/internal/fitness/workouts"
	"github.com/dstojkovic/fitlog/internal/telemetry/metrics"
)

type testDispatcher struct {
	result *DispatchResult
	err    error
	inputs []string
}

func (d *testDispatcher) Dispatch(_ context.Context, input string, _ int, _ string) (*DispatchResult, error) {
	d.inputs = append(d.inputs, input)
	if d.err != nil {
		return nil, d.err
	}
	return d.result, nil
}

type testStager struct {
	staged []*workouts.WorkoutPayload
}

func (s *testStager) Stage(_ context.Context, payload *workouts.WorkoutPayload) error {
	if ve := payload.Validate(); !ve.IsValid() {
		return ve
	}
	s.staged = append(s.staged, payload)
	return nil
}

type testMealAdder struct {
	added []*meals.MealEntry
}

func (a *testMealAdder) Add(_ context.Context, meal *meals.MealEntry) (*meals.MealEntry, error) {
	meal.ID = 7
	a.added = append(a.added, meal)
	return meal, nil
}

type testMealAttacher struct {
	attached [][2]int
}

func (a *testMealAttacher) AttachMeal(_ context.Context, userID, mealID int, _ time.Time) error {
	a.attached = append(a.attached, [2]int{userID, mealID})
	return nil
}

func newTestHandler(d *testDispatcher, s *testStager, ma *testMealAdder, att *testMealAttacher) *Handler {
	return NewHandler(d, s, ma, att, metrics.NewTestManager())
}

func TestHandler_HandleTrigger(t *testing.T) {
	d := &testDispatcher{
		result: &DispatchResult{
			AgentType:     TypeWorkout,
			AgentStatus:   http.StatusOK,
			AgentResponse: `{"status":"ok"}`,
		},
	}
	h := newTestHandler(d, &testStager{}, &testMealAdder{}, &testMealAttacher{})

	body := `{"input":"bench press 3x8","user_id":1,"date":"2024-03-11"}`
	req := httptest.NewRequest("POST", "/agent/trigger", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.HandleTrigger(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp TriggerResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "workout agent triggered successfully!", resp.Message)
	assert.Equal(t, http.StatusOK, resp.AgentStatus)
	assert.Equal(t, []string{"bench press 3x8"}, d.inputs)
}

func TestHandler_HandleTrigger_missingInput(t *testing.T) {
	d := &testDispatcher{}
	h := newTestHandler(d, &testStager{}, &testMealAdder{}, &testMealAttacher{})

	req := httptest.NewRequest("POST", "/agent/trigger", strings.NewReader(`{"user_id":1}`))
	rec := httptest.NewRecorder()
	h.HandleTrigger(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, d.inputs)
}

func TestHandler_HandleTrigger_agentTimeout(t *testing.T) {
	d := &testDispatcher{err: ErrAgentTimeout}
	h := newTestHandler(d, &testStager{}, &testMealAdder{}, &testMealAttacher{})

	req := httptest.NewRequest("POST", "/agent/trigger", strings.NewReader(`{"input":"bench press"}`))
	rec := httptest.NewRecorder()
	h.HandleTrigger(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "timeout")
}

func TestHandler_HandleWorkoutCallback_stagesPayload(t *testing.T) {
	stager := &testStager{}
	h := newTestHandler(&testDispatcher{}, stager, &testMealAdder{}, &testMealAttacher{})

	body := `{
		"user": 1,
		"name": "push day",
		"date": "2024-03-11",
		"exercises": [{"exercise_id": "bench-press", "sets": 3, "reps": 8, "weight": 100}]
	}`
	req := httptest.NewRequest("POST", "/agent/callback/workout", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.HandleWorkoutCallback(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	// staged only, nothing persisted yet
	require.Len(t, stager.staged, 1)
	assert.Equal(t, "push day", stager.staged[0].Name)
}

func TestHandler_HandleWorkoutCallback_invalidPayload(t *testing.T) {
	stager := &testStager{}
	h := newTestHandler(&testDispatcher{}, stager, &testMealAdder{}, &testMealAttacher{})

	body := `{"user": 1, "name": "push day", "date": "2024-03-11", "exercises": []}`
	req := httptest.NewRequest("POST", "/agent/callback/workout", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.HandleWorkoutCallback(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	var resp fitness.ValidationErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "invalid data", resp.Error)
	assert.Contains(t, resp.Details, "exercises")
	assert.Empty(t, stager.staged)
}

func TestHandler_HandleMealCallback_persistsAndAttaches(t *testing.T) {
	adder := &testMealAdder{}
	attacher := &testMealAttacher{}
	h := newTestHandler(&testDispatcher{}, &testStager{}, adder, attacher)

	body := `{
		"user": 1,
		"name": "chicken and rice",
		"calories": 650,
		"protein": 52,
		"date": "2024-03-11"
	}`
	req := httptest.NewRequest("POST", "/agent/callback/meal", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.HandleMealCallback(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	require.Len(t, adder.added, 1)
	assert.Equal(t, 650, adder.added[0].Calories)
	assert.Equal(t, 52, adder.added[0].ProteinG)
	require.Len(t, attacher.attached, 1)
	assert.Equal(t, [2]int{1, 7}, attacher.attached[0])
}

func TestHandler_HandleMealCallback_invalidPayload(t *testing.T) {
	adder := &testMealAdder{}
	h := newTestHandler(&testDispatcher{}, &testStager{}, adder, &testMealAttacher{})

	body := `{"user": 1, "calories": -5, "date": "2024-03-11"}`
	req := httptest.NewRequest("POST", "/agent/callback/meal", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.HandleMealCallback(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	var resp fitness.ValidationErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Contains(t, resp.Details, "name")
	assert.Contains(t, resp.Details, "calories")
	assert.Empty(t, adder.added)
}
