package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"

	"github.com/dstojkovic/fitlog/internal/fitness"
	"github.com/dstojkovic/fitlog/internal/fitness/meals"
	"github.com/dstojkovic/fitlog/internal/fitness/workouts"
	"github.com/dstojkovic/fitlog/internal/telemetry/metrics"
	"github.com/dstojkovic/fitlog/internal/telemetry/tracing"
	"github.com/dstojkovic/fitlog/pkg"
)

// defaultUserID is assumed when the trigger request does not carry one.
const defaultUserID = 1

type dispatcher interface {
	Dispatch(ctx context.Context, input string, userID int, date string) (*DispatchResult, error)
}

type workoutStager interface {
	Stage(ctx context.Context, payload *workouts.WorkoutPayload) error
}

type mealAdder interface {
	Add(ctx context.Context, meal *meals.MealEntry) (*meals.MealEntry, error)
}

type dailyLogAttacher interface {
	AttachMeal(ctx context.Context, userID, mealID int, date time.Time) error
}

type TriggerRequest struct {
	Input  string `json:"input"`
	UserID int    `json:"user_id"`
	Date   string `json:"date"`
}

type TriggerResponse struct {
	Message       string         `json:"message"`
	AgentStatus   int            `json:"agentStatus"`
	AgentResponse string         `json:"agentResponse"`
	PayloadSent   TriggerPayload `json:"payloadSent"`
}

type CallbackResponse struct {
	Message string `json:"message"`
}

type Handler struct {
	dispatcher dispatcher
	staging    workoutStager
	meals      mealAdder
	dailyLogs  dailyLogAttacher
	metrics    *metrics.Manager
}

func NewHandler(
	agentDispatcher dispatcher,
	staging workoutStager,
	mealsRepo mealAdder,
	dailyLogs dailyLogAttacher,
	metricsManager *metrics.Manager,
) *Handler {
	return &Handler{
		dispatcher: agentDispatcher,
		staging:    staging,
		meals:      mealsRepo,
		dailyLogs:  dailyLogs,
		metrics:    metricsManager,
	}
}

// HandleTrigger takes free-text input, classifies it and forwards it to the
// matching automation agent. The agent answers later via a callback.
func (handler *Handler) HandleTrigger(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.agent.trigger")
	defer span.End()

	var req TriggerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	if req.Input == "" {
		http.Error(w, "input is required", http.StatusBadRequest)
		return
	}
	if req.UserID <= 0 {
		req.UserID = defaultUserID
	}
	if req.Date == "" {
		req.Date = time.Now().Format(workouts.DateLayout)
	}

	result, err := handler.dispatcher.Dispatch(ctx, req.Input, req.UserID, req.Date)
	if err != nil {
		agentType := Classify(req.Input)
		handler.metrics.CounterAgentDispatches.With(
			prometheus.Labels{"agent": string(agentType), "outcome": "error"},
		).Inc()

		log.Errorf("failed to dispatch agent trigger for user %d: %s", req.UserID, err)
		switch {
		case errors.Is(err, ErrAgentTimeout):
			http.Error(w, "agent connection timeout", http.StatusInternalServerError)
		case errors.Is(err, ErrAgentUnavailable):
			http.Error(w, "agent connection error", http.StatusInternalServerError)
		default:
			http.Error(w, "agent request error", http.StatusInternalServerError)
		}
		return
	}

	handler.metrics.CounterAgentDispatches.With(
		prometheus.Labels{"agent": string(result.AgentType), "outcome": "ok"},
	).Inc()
	span.SetAttributes(attribute.String("agent.type", string(result.AgentType)))

	respBytes, err := json.Marshal(TriggerResponse{
		Message:       fmt.Sprintf("%s agent triggered successfully!", result.AgentType),
		AgentStatus:   result.AgentStatus,
		AgentResponse: result.AgentResponse,
		PayloadSent:   result.PayloadSent,
	})
	if err != nil {
		log.Errorf("marshal trigger response: %s", err)
		http.Error(w, "marshal trigger response error", http.StatusInternalServerError)
		return
	}

	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, respBytes)
}

// HandleWorkoutCallback receives the structured workout the agent produced.
// Agent output is not trusted blindly: it gets staged and waits for the
// user to confirm or discard it.
func (handler *Handler) HandleWorkoutCallback(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.agent.workoutcallback")
	defer span.End()

	var payload workouts.WorkoutPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	if err := handler.staging.Stage(ctx, &payload); err != nil {
		var ve fitness.ValidationErrors
		if errors.As(err, &ve) {
			fitness.WriteValidationErrors(w, ve)
			return
		}
		log.Errorf("failed to stage workout for user %d: %s", payload.UserID, err)
		http.Error(w, "failed to stage workout", http.StatusInternalServerError)
		return
	}

	respBytes, err := json.Marshal(CallbackResponse{Message: "workout staged for confirmation"})
	if err != nil {
		log.Errorf("marshal workout callback response: %s", err)
		http.Error(w, "marshal workout callback error", http.StatusInternalServerError)
		return
	}

	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, respBytes, http.StatusCreated)
}

// HandleMealCallback receives the structured meal the agent produced. Meals
// carry no confirmation step, the entry is persisted and attached to the
// daily log right away.
func (handler *Handler) HandleMealCallback(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.agent.mealcallback")
	defer span.End()

	var payload meals.MealPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	if ve := payload.Validate(); !ve.IsValid() {
		fitness.WriteValidationErrors(w, ve)
		return
	}

	meal, err := payload.ToMealEntry()
	if err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	added, err := handler.meals.Add(ctx, meal)
	if err != nil {
		log.Errorf("failed to add meal for user %d: %s", payload.UserID, err)
		http.Error(w, "failed to create meal", http.StatusInternalServerError)
		return
	}

	if err := handler.dailyLogs.AttachMeal(ctx, added.UserID, added.ID, added.Date); err != nil {
		log.Errorf("failed to attach meal %d to daily log: %s", added.ID, err)
		http.Error(w, "failed to create meal", http.StatusInternalServerError)
		return
	}

	handler.metrics.CounterMealsLogged.Inc()

	respBytes, err := json.Marshal(CallbackResponse{Message: "meal created successfully"})
	if err != nil {
		log.Errorf("marshal meal callback response: %s", err)
		http.Error(w, "marshal meal callback error", http.StatusInternalServerError)
		return
	}

	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, respBytes, http.StatusCreated)
}
