package workouts

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"github.com/dstojkovic/fitlog/internal/telemetry/tracing"
	"github.com/dstojkovic/fitlog/pkg"
)

//go:generate mockgen -source=$GOFILE -destination=workouts_mocks_test.go -package=workouts_test

// RecentWorkoutsNum is how many workouts the recent list shows.
const RecentWorkoutsNum = 5

type workoutsRepo interface {
	Get(ctx context.Context, id int) (*Workout, error)
	Recent(ctx context.Context, userID, limit int) ([]Workout, error)
	Delete(ctx context.Context, id int) error
}

type dailyLogDetacher interface {
	DetachWorkout(ctx context.Context, userID, workoutID int, date time.Time) error
}

type RecentWorkoutsResponse struct {
	Workouts []Workout `json:"workouts"`
	Total    int       `json:"total"`
}

type DeleteWorkoutResponse struct {
	DeletedID int `json:"deletedId"`
}

type Handler struct {
	repo      workoutsRepo
	dailyLogs dailyLogDetacher
}

func NewHandler(repo workoutsRepo, dailyLogs dailyLogDetacher) *Handler {
	return &Handler{
		repo:      repo,
		dailyLogs: dailyLogs,
	}
}

func (handler *Handler) HandleRecent(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.workouts.recent")
	defer span.End()

	userID, err := strconv.Atoi(r.URL.Query().Get("user_id"))
	if err != nil || userID <= 0 {
		http.Error(w, "error, invalid user id", http.StatusBadRequest)
		return
	}

	recent, err := handler.repo.Recent(ctx, userID, RecentWorkoutsNum)
	if err != nil {
		log.Errorf("failed to list recent workouts for user %d: %s", userID, err)
		http.Error(w, "error, failed to list recent workouts", http.StatusInternalServerError)
		return
	}

	resp := RecentWorkoutsResponse{
		Workouts: recent,
		Total:    len(recent),
	}
	respBytes, err := json.Marshal(resp)
	if err != nil {
		log.Errorf("marshal recent workouts response: %s", err)
		http.Error(w, "marshal recent workouts error", http.StatusInternalServerError)
		return
	}

	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, respBytes)
}

// HandleDelete removes a workout and detaches it from its daily log. The
// exercise progress the workout once contributed stays as it is.
func (handler *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.workouts.delete")
	defer span.End()

	vars := mux.Vars(r)
	id, err := strconv.Atoi(vars["id"])
	if err != nil {
		http.Error(w, "error, workout id NaN", http.StatusBadRequest)
		return
	}

	workout, err := handler.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrWorkoutNotFound) {
			http.Error(w, "workout not found", http.StatusNotFound)
			return
		}
		log.Errorf("failed to get workout %d before delete: %s", id, err)
		http.Error(w, "error, failed to delete workout", http.StatusInternalServerError)
		return
	}

	if err := handler.dailyLogs.DetachWorkout(ctx, workout.UserID, workout.ID, workout.Date); err != nil {
		log.Errorf("failed to detach workout %d from daily log: %s", id, err)
		http.Error(w, "error, failed to delete workout", http.StatusInternalServerError)
		return
	}

	if err := handler.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, ErrWorkoutNotFound) {
			http.Error(w, "workout not found", http.StatusNotFound)
			return
		}
		log.Errorf("failed to delete workout %d: %s", id, err)
		http.Error(w, "error, failed to delete workout", http.StatusInternalServerError)
		return
	}

	respBytes, err := json.Marshal(DeleteWorkoutResponse{DeletedID: id})
	if err != nil {
		log.Errorf("marshal delete workout response: %s", err)
		http.Error(w, "marshal delete workout error", http.StatusInternalServerError)
		return
	}

	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, respBytes)
}
