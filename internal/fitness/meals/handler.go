package meals

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

type mealsRepo interface {
	Get(ctx context.Context, id int) (*MealEntry, error)
	Delete(ctx context.Context, id int) error
}

type dailyLogDetacher interface {
	DetachMeal(ctx context.Context, userID, mealID int, date time.Time) error
}

type DeleteMealResponse struct {
	DeletedID int `json:"deletedId"`
}

type Handler struct {
	repo      mealsRepo
	dailyLogs dailyLogDetacher
}

func NewHandler(repo mealsRepo, dailyLogs dailyLogDetacher) *Handler {
	return &Handler{
		repo:      repo,
		dailyLogs: dailyLogs,
	}
}

// HandleDelete removes a meal entry and detaches it from its daily log.
// Stored daily log totals are left alone, the progress view computes
// nutrition sums from the remaining linked meals.
func (handler *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.meals.delete")
	defer span.End()

	vars := mux.Vars(r)
	id, err := strconv.Atoi(vars["id"])
	if err != nil {
		http.Error(w, "error, meal id NaN", http.StatusBadRequest)
		return
	}

	meal, err := handler.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrMealNotFound) {
			http.Error(w, "meal not found", http.StatusNotFound)
			return
		}
		log.Errorf("failed to get meal %d before delete: %s", id, err)
		http.Error(w, "error, failed to delete meal", http.StatusInternalServerError)
		return
	}

	if err := handler.dailyLogs.DetachMeal(ctx, meal.UserID, meal.ID, meal.Date); err != nil {
		log.Errorf("failed to detach meal %d from daily log: %s", id, err)
		http.Error(w, "error, failed to delete meal", http.StatusInternalServerError)
		return
	}

	if err := handler.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, ErrMealNotFound) {
			http.Error(w, "meal not found", http.StatusNotFound)
			return
		}
		log.Errorf("failed to delete meal %d: %s", id, err)
		http.Error(w, "error, failed to delete meal", http.StatusInternalServerError)
		return
	}

	respBytes, err := json.Marshal(DeleteMealResponse{DeletedID: id})
	if err != nil {
		log.Errorf("marshal delete meal response: %s", err)
		http.Error(w, "marshal delete meal error", http.StatusInternalServerError)
		return
	}

	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, respBytes)
}
