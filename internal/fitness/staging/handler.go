package staging

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	log "github.com/sirupsen/logrus"

	"github.com/dstojkovic/fitlog/internal/fitness"
	"github.com/dstojkovic/fitlog/internal/fitness/workouts"
	"github.com/dstojkovic/fitlog/internal/telemetry/metrics"
	"github.com/dstojkovic/fitlog/internal/telemetry/tracing"
	"github.com/dstojkovic/fitlog/pkg"
)

type stagingService interface {
	Current(ctx context.Context, userID int) (*workouts.WorkoutPayload, error)
	Finalize(ctx context.Context, userID int) (*workouts.Workout, error)
	Discard(ctx context.Context, userID int) error
}

type CurrentStagedResponse struct {
	Staged *workouts.WorkoutPayload `json:"staged"`
}

type FinalizeResponse struct {
	Message string            `json:"message"`
	Workout *workouts.Workout `json:"workout"`
}

type Handler struct {
	service stagingService
	metrics *metrics.Manager
}

func NewHandler(service stagingService, metricsManager *metrics.Manager) *Handler {
	return &Handler{
		service: service,
		metrics: metricsManager,
	}
}

func (handler *Handler) HandleCurrent(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.staging.current")
	defer span.End()

	userID, ok := userIDParam(w, r)
	if !ok {
		return
	}

	staged, err := handler.service.Current(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrNoStagedWorkout) {
			http.Error(w, "no staged workout", http.StatusNotFound)
			return
		}
		log.Errorf("failed to get staged workout for user %d: %s", userID, err)
		http.Error(w, "error, failed to get staged workout", http.StatusInternalServerError)
		return
	}

	respBytes, err := json.Marshal(CurrentStagedResponse{Staged: staged})
	if err != nil {
		log.Errorf("marshal staged workout response: %s", err)
		http.Error(w, "marshal staged workout error", http.StatusInternalServerError)
		return
	}

	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, respBytes)
}

func (handler *Handler) HandleFinalize(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.staging.finalize")
	defer span.End()

	userID, ok := userIDParam(w, r)
	if !ok {
		return
	}

	workout, err := handler.service.Finalize(ctx, userID)
	if err != nil {
		var ve fitness.ValidationErrors
		switch {
		case errors.Is(err, ErrNoStagedWorkout):
			http.Error(w, "no staged workout", http.StatusNotFound)
		case errors.As(err, &ve):
			// slot stays put, the user can fix the agent output and retry
			fitness.WriteValidationErrors(w, ve)
		default:
			log.Errorf("failed to finalize staged workout for user %d: %s", userID, err)
			http.Error(w, "error, failed to finalize staged workout", http.StatusInternalServerError)
		}
		return
	}

	handler.metrics.CounterStagedFinalized.Inc()
	handler.metrics.CounterWorkoutsIngested.Inc()

	respBytes, err := json.Marshal(FinalizeResponse{
		Message: "workout created successfully",
		Workout: workout,
	})
	if err != nil {
		log.Errorf("marshal finalize response: %s", err)
		http.Error(w, "marshal finalize error", http.StatusInternalServerError)
		return
	}

	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, respBytes, http.StatusCreated)
}

func (handler *Handler) HandleDiscard(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.staging.discard")
	defer span.End()

	userID, ok := userIDParam(w, r)
	if !ok {
		return
	}

	if err := handler.service.Discard(ctx, userID); err != nil {
		log.Errorf("failed to discard staged workout for user %d: %s", userID, err)
		http.Error(w, "error, failed to discard staged workout", http.StatusInternalServerError)
		return
	}

	handler.metrics.CounterStagedDiscarded.Inc()

	pkg.WriteTextResponseOK(w, "staged workout discarded")
}

func userIDParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	userID, err := strconv.Atoi(r.URL.Query().Get("user_id"))
	if err != nil || userID <= 0 {
		http.Error(w, "error, invalid user id", http.StatusBadRequest)
		return 0, false
	}
	return userID, true
}
