package internal

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/IBM/pgxpoolprometheus"
	"github.com/coocood/freecache"
	"github.com/getsentry/sentry-go"
	"github.com/go-redis/redis/v8"
	"github.com/go-redis/redis_rate/v9"
	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/dstojkovic/fitlog/internal/agent"
	"github.com/dstojkovic/fitlog/internal/config"
	"github.com/dstojkovic/fitlog/internal/db"
	"github.com/dstojkovic/fitlog/internal/fitness/dailylog"
	"github.com/dstojkovic/fitlog/internal/fitness/meals"
	"github.com/dstojkovic/fitlog/internal/fitness/progress"
	"github.com/dstojkovic/fitlog/internal/fitness/staging"
	"github.com/dstojkovic/fitlog/internal/fitness/workouts"
	"github.com/dstojkovic/fitlog/internal/middleware"
	"github.com/dstojkovic/fitlog/internal/telemetry/metrics"
	"github.com/dstojkovic/fitlog/internal/telemetry/tracing"
)

// progressViewCacheSize is the in-memory cache size for progress view
// responses.
const progressViewCacheSize = 10 * 1024 * 1024

type Server struct {
	httpServer        *http.Server
	metricsHttpServer *http.Server
	versionInfo       string

	config      *config.Config
	dbPool      *pgxpool.Pool
	redisClient *redis.Client
	agentClient *agent.Client

	// metrics
	metricsManager *metrics.Manager
	promRegistry   *prometheus.Registry
	otelShutdown   func()
}

type NewServerParams struct {
	Config                  *config.Config
	VersionInfo             string
	RedisPassword           string
	HoneycombTracingEnabled bool
}

func NewServer(
	ctx context.Context,
	params NewServerParams,
) (*Server, error) {
	dbPool, err := db.NewDBPool(ctx, db.NewDBPoolParams{
		DBHost:         params.Config.PostgresHost,
		DBPort:         params.Config.PostgresPort,
		DBName:         params.Config.PostgresDBName,
		TracingEnabled: params.HoneycombTracingEnabled,
	})
	if err != nil {
		return nil, fmt.Errorf("new db pool: %w", err)
	}

	if err := dbPool.Ping(ctx); err != nil {
		log.Warnf("failed to ping db: %s", err)
	}

	pgxpoolCollector := pgxpoolprometheus.NewCollector(
		dbPool,
		map[string]string{"db_name": "fitlog_db"},
	)
	promRegistry := metrics.SetupPrometheus(pgxpoolCollector)
	metricsManager := metrics.NewManager("fitlog", "backend", promRegistry)
	metricsManager.GaugeLifeSignal.Set(0)

	rdb := redis.NewClient(&redis.Options{
		Addr:     net.JoinHostPort(params.Config.RedisHost, params.Config.RedisPort),
		Password: params.RedisPassword,
		DB:       0, // use default DB
	})

	rdbStatus := rdb.Ping(ctx)
	if err := rdbStatus.Err(); err != nil {
		log.Errorf("--> failed to ping redis: %s", err)
	} else {
		log.Debugf("redis ping: %s", rdbStatus.Val())
	}

	// use honeycomb distro to setup OpenTelemetry SDK
	otelShutdown, err := tracing.HoneycombSetup(params.HoneycombTracingEnabled, "fitlog-backend", rdb)
	if err != nil {
		return nil, err
	}

	tracedHttpClient := &http.Client{
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}

	s := &Server{
		config:      params.Config,
		dbPool:      dbPool,
		redisClient: rdb,
		versionInfo: params.VersionInfo,
		agentClient: agent.NewClient(
			params.Config.WorkoutAgentURL,
			params.Config.MealAgentURL,
			params.Config.CallbackBaseURL,
			params.Config.AgentTimeout(),
			tracedHttpClient,
		),

		// telemetry
		metricsManager: metricsManager,
		promRegistry:   promRegistry,
		otelShutdown:   otelShutdown,
	}

	return s, nil
}

func (s *Server) routerSetup() (*mux.Router, error) {
	r := mux.NewRouter()
	r.Use(otelmux.Middleware("fitlog-router"))

	workoutsRepo := workouts.NewRepo(s.dbPool)
	mealsRepo := meals.NewRepo(s.dbPool)
	dailyLogRepo := dailylog.NewRepo(s.dbPool)
	progressRepo := progress.NewRepo(s.dbPool)
	aggregator := progress.NewAggregator(progressRepo)

	stagingService := staging.NewService(
		staging.NewRepo(s.redisClient),
		workoutsRepo,
		aggregator,
		dailyLogRepo,
	)

	agentHandler := agent.NewHandler(
		s.agentClient,
		stagingService,
		mealsRepo,
		dailyLogRepo,
		s.metricsManager,
	)
	reqRateLimiter := redis_rate.NewLimiter(s.redisClient)
	triggerRateLimit := middleware.RateLimit(
		reqRateLimiter,
		"agent-trigger",
		s.config.AgentTriggerPerMinAllowed,
		s.metricsManager,
	)
	r.Handle(
		"/agent/trigger",
		triggerRateLimit(http.HandlerFunc(agentHandler.HandleTrigger)),
	).Methods("POST", "OPTIONS").Name("agent-trigger")
	r.HandleFunc("/agent/callback/workout", agentHandler.HandleWorkoutCallback).Methods("POST", "OPTIONS").Name("agent-workout-callback")
	r.HandleFunc("/agent/callback/meal", agentHandler.HandleMealCallback).Methods("POST", "OPTIONS").Name("agent-meal-callback")

	workoutsHandler := workouts.NewHandler(workoutsRepo, dailyLogRepo)
	r.HandleFunc("/workouts/recent", workoutsHandler.HandleRecent).Methods("GET", "OPTIONS").Name("recent-workouts")
	r.HandleFunc("/workouts/{id}", workoutsHandler.HandleDelete).Methods("DELETE", "OPTIONS").Name("delete-workout")

	mealsHandler := meals.NewHandler(mealsRepo, dailyLogRepo)
	r.HandleFunc("/meals/{id}", mealsHandler.HandleDelete).Methods("DELETE", "OPTIONS").Name("delete-meal")

	progressHandler := progress.NewHandler(
		progressRepo,
		dailyLogRepo,
		workoutsRepo,
		mealsRepo,
		freecache.NewCache(progressViewCacheSize),
	)
	r.HandleFunc("/progress", progressHandler.HandleProgressView).Methods("GET", "OPTIONS").Name("progress-view")

	stagingHandler := staging.NewHandler(stagingService, s.metricsManager)
	r.HandleFunc("/staging", stagingHandler.HandleCurrent).Methods("GET", "OPTIONS").Name("staged-workout")
	r.HandleFunc("/staging/finalize", stagingHandler.HandleFinalize).Methods("POST", "OPTIONS").Name("finalize-staged-workout")
	r.HandleFunc("/staging", stagingHandler.HandleDiscard).Methods("DELETE", "OPTIONS").Name("discard-staged-workout")

	// all the rest - unhandled paths
	r.HandleFunc("/{unknown}", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}).Methods("GET", "POST", "PUT", "OPTIONS").Name("unknown")

	r.Use(middleware.PanicRecovery(s.metricsManager))
	r.Use(middleware.LogRequest())
	r.Use(middleware.RequestMetrics(s.metricsManager))
	r.Use(middleware.Cors())
	r.Use(middleware.DrainAndCloseRequest())

	return r, nil
}

func (s *Server) Serve(ctx context.Context, host string, port int) {
	router, err := s.routerSetup()
	if err != nil {
		log.Fatalf("failed to setup router: %s", err)
	}

	ipAndPort := net.JoinHostPort(host, strconv.Itoa(port))
	s.httpServer = &http.Server{
		Handler:      router,
		Addr:         ipAndPort,
		WriteTimeout: time.Minute,
		ReadTimeout:  time.Minute,
		ConnState:    s.connStateMetrics,
	}

	metricsRouter := mux.NewRouter()
	metricsRouter.Handle("/metrics", promhttp.HandlerFor(
		s.promRegistry,
		promhttp.HandlerOpts{},
	))
	metricsAddr := net.JoinHostPort(s.config.PrometheusMetricsHost, s.config.PrometheusMetricsPort)
	s.metricsHttpServer = &http.Server{
		Addr:    metricsAddr,
		Handler: metricsRouter,
	}

	go func() {
		log.Infof(" > server listening on: [%s]", ipAndPort)
		err := s.httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("main service, listen and serve: %s", err)
		}
	}()

	go func() {
		log.Debugf(" > metrics listening on: [%s]", metricsAddr)
		err := s.metricsHttpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("metrics service, listen and serve: %s", err)
		}
	}()

	s.metricsManager.GaugeLifeSignal.Set(1)
}

func (s *Server) GracefulShutdown() {
	log.Debug("graceful shutdown initiated ...")

	s.metricsManager.GaugeLifeSignal.Set(0)

	s.otelShutdown()
	log.Trace("otel shut down ...")

	if s.redisClient != nil {
		if err := s.redisClient.Close(); err != nil {
			log.Errorf("failed to close redis client conn: %s", err)
		}
	}

	if s.dbPool != nil {
		log.Debugln("closing db pool ...")
		s.dbPool.Close() // blocking operation
		log.Debugln("db pool closed")
	}

	if ok := sentry.Flush(5 * time.Second); ok {
		log.Debugf("sentry flush ok: %t", ok)
	}

	maxWaitDuration := time.Second * 15
	ctx, timeoutCancel := context.WithTimeout(context.Background(), maxWaitDuration)
	defer timeoutCancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		log.Error(" >>> failed to gracefully shutdown http server")
	}
	log.Warnln("server shut down")

	if err := s.metricsHttpServer.Shutdown(ctx); err != nil {
		log.Error(" >>> failed to gracefully shutdown metrics http server")
	}
	log.Warnln("metrics server shut down")
}

func (s *Server) connStateMetrics(_ net.Conn, state http.ConnState) {
	switch state {
	case http.StateNew:
		s.metricsManager.GaugeRequests.Add(1)
	case http.StateClosed:
		s.metricsManager.GaugeRequests.Add(-1)
	default:
		// do nothing
	}
}
