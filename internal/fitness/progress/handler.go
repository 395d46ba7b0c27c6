package progress

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/coocood/freecache"
	log "github.com/sirupsen/logrus"

	"github.com/dstojkovic/fitlog/internal/fitness/dailylog"
	"github.com/dstojkovic/fitlog/internal/fitness/meals"
	"github.com/dstojkovic/fitlog/internal/fitness/workouts"
	"github.com/dstojkovic/fitlog/internal/telemetry/tracing"
	"github.com/dstojkovic/fitlog/pkg"
)

const (
	// RecentProgressNum caps the grouped trend rows when no exercise filter
	// is given.
	RecentProgressNum = 50

	viewCacheExpireSeconds = 30
)

type progressRepo interface {
	History(ctx context.Context, userID int, exerciseID string) ([]ExerciseProgress, error)
	Recent(ctx context.Context, userID, limit int) ([]ExerciseProgress, error)
}

type dailyLogAssembler interface {
	GetOrCreate(ctx context.Context, userID int, date time.Time) (*dailylog.DailyLog, error)
	Get(ctx context.Context, userID int, date time.Time) (*dailylog.DailyLog, error)
}

type workoutsGetter interface {
	Get(ctx context.Context, id int) (*workouts.Workout, error)
}

type mealsLister interface {
	ListForDay(ctx context.Context, userID int, date time.Time) ([]meals.MealEntry, error)
}

type ViewResponse struct {
	Date          string                        `json:"date"`
	DailyLog      *dailylog.DailyLog            `json:"dailyLog"`
	Workouts      []workouts.Workout            `json:"workouts"`
	Meals         []meals.MealEntry             `json:"meals"`
	TotalCalories int                           `json:"totalCalories"`
	TotalProteinG int                           `json:"totalProteinG"`
	TotalCarbsG   int                           `json:"totalCarbsG"`
	TotalFatsG    int                           `json:"totalFatsG"`
	Progress      map[string][]ExerciseProgress `json:"progress"`
}

type Handler struct {
	repo      progressRepo
	dailyLogs dailyLogAssembler
	workouts  workoutsGetter
	meals     mealsLister
	cache     *freecache.Cache
}

func NewHandler(
	repo progressRepo,
	dailyLogs dailyLogAssembler,
	workoutsRepo workoutsGetter,
	mealsRepo mealsLister,
	cache *freecache.Cache,
) *Handler {
	return &Handler{
		repo:      repo,
		dailyLogs: dailyLogs,
		workouts:  workoutsRepo,
		meals:     mealsRepo,
		cache:     cache,
	}
}

// HandleProgressView serves the combined dashboard: the day bucket with its
// workouts, meals and computed nutrition totals, plus exercise trend rows,
// either the full series for one exercise or the recent rows grouped by
// exercise. Viewing a date creates its (empty) daily log bucket.
func (handler *Handler) HandleProgressView(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.progress.view")
	defer span.End()

	userID, err := strconv.Atoi(r.URL.Query().Get("user_id"))
	if err != nil || userID <= 0 {
		http.Error(w, "error, invalid user id", http.StatusBadRequest)
		return
	}

	dateParam := r.URL.Query().Get("date")
	if dateParam == "" {
		dateParam = time.Now().Format(workouts.DateLayout)
	}
	date, err := time.Parse(workouts.DateLayout, dateParam)
	if err != nil {
		http.Error(w, "error, invalid date", http.StatusBadRequest)
		return
	}

	exerciseID := r.URL.Query().Get("exercise")

	cacheKey := []byte(fmt.Sprintf("progress-view||%d||%s||%s", userID, dateParam, exerciseID))
	if cached, err := handler.cache.Get(cacheKey); err == nil {
		pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, cached)
		return
	}

	resp, err := handler.buildView(ctx, userID, date, exerciseID)
	if err != nil {
		log.Errorf("failed to build progress view for user %d: %s", userID, err)
		http.Error(w, "error, failed to get progress", http.StatusInternalServerError)
		return
	}

	respBytes, err := json.Marshal(resp)
	if err != nil {
		log.Errorf("marshal progress view response: %s", err)
		http.Error(w, "marshal progress view error", http.StatusInternalServerError)
		return
	}

	if err := handler.cache.Set(cacheKey, respBytes, viewCacheExpireSeconds); err != nil {
		log.Warnf("failed to cache progress view response: %s", err)
	}

	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, respBytes)
}

func (handler *Handler) buildView(
	ctx context.Context,
	userID int,
	date time.Time,
	exerciseID string,
) (*ViewResponse, error) {
	if _, err := handler.dailyLogs.GetOrCreate(ctx, userID, date); err != nil {
		return nil, fmt.Errorf("get or create daily log: %w", err)
	}
	dailyLog, err := handler.dailyLogs.Get(ctx, userID, date)
	if err != nil {
		return nil, fmt.Errorf("get daily log: %w", err)
	}

	resp := &ViewResponse{
		Date:     date.Format(workouts.DateLayout),
		DailyLog: dailyLog,
		Workouts: []workouts.Workout{},
		Meals:    []meals.MealEntry{},
		Progress: map[string][]ExerciseProgress{},
	}

	for _, workoutID := range dailyLog.WorkoutIDs {
		workout, err := handler.workouts.Get(ctx, workoutID)
		if err != nil {
			return nil, fmt.Errorf("get workout %d: %w", workoutID, err)
		}
		resp.Workouts = append(resp.Workouts, *workout)
	}

	dayMeals, err := handler.meals.ListForDay(ctx, userID, date)
	if err != nil {
		return nil, fmt.Errorf("list meals: %w", err)
	}
	for _, meal := range dayMeals {
		resp.Meals = append(resp.Meals, meal)
		resp.TotalCalories += meal.Calories
		resp.TotalProteinG += meal.ProteinG
		resp.TotalCarbsG += meal.CarbsG
		resp.TotalFatsG += meal.FatsG
	}

	if exerciseID != "" {
		series, err := handler.repo.History(ctx, userID, exerciseID)
		if err != nil {
			return nil, fmt.Errorf("progress history [%s]: %w", exerciseID, err)
		}
		resp.Progress[exerciseID] = series
	} else {
		recent, err := handler.repo.Recent(ctx, userID, RecentProgressNum)
		if err != nil {
			return nil, fmt.Errorf("recent progress: %w", err)
		}
		for _, p := range recent {
			resp.Progress[p.ExerciseID] = append(resp.Progress[p.ExerciseID], p)
		}
	}

	return resp, nil
}
