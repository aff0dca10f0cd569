package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/tkdojang/dojang-api/internal/api/middleware"
	"github.com/tkdojang/dojang-api/internal/catalog"
	"github.com/tkdojang/dojang-api/internal/config"
	"github.com/tkdojang/dojang-api/internal/domain/leitner"
	"github.com/tkdojang/dojang-api/internal/events"
	"github.com/tkdojang/dojang-api/internal/maintenance"
	"github.com/tkdojang/dojang-api/internal/platform/postgres"
	"github.com/tkdojang/dojang-api/internal/service"
	"github.com/tkdojang/dojang-api/internal/service/auth"
	"github.com/tkdojang/dojang-api/internal/service/review"
	"github.com/tkdojang/dojang-api/internal/store"
	"github.com/tkdojang/dojang-api/internal/task"
)

// application holds every long-lived dependency of the server. Handlers and
// the router are derived from it; cleanup tears it down in reverse order.
type application struct {
	config  *config.Config
	logger  *slog.Logger
	db      *sql.DB
	catalog *catalog.Catalog

	userStore    store.UserStore
	profileStore store.ProfileStore

	jwtService       auth.JWTService
	passwordVerifier auth.PasswordVerifier
	authMiddleware   *middleware.AuthMiddleware

	profileService  service.ProfileService
	studyService    service.StudyService
	reviewService   review.ReviewService
	importService   service.ImportService
	feedbackService service.FeedbackService

	eventEmitter *events.InMemoryEventEmitter
	taskRunner   *task.TaskRunner
	sweeper      *maintenance.StreakSweeper
}

// newApplication wires the dependency graph: catalog and auth first, then
// stores, then the task runner and services, and finally the background
// import pipeline and the streak sweeper. The runner and sweeper are started
// here so a returned *application is fully live.
func newApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger, db *sql.DB) (*application, error) {
	cat, err := catalog.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load content catalog: %w", err)
	}
	logger.Info("content catalog loaded",
		"belts", len(cat.Belts()),
		"terminology", len(cat.Terminology()),
		"patterns", len(cat.Patterns()),
		"step_sparring", len(cat.Sequences()))

	jwtService, err := auth.NewJWTService(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to create JWT service: %w", err)
	}
	passwordVerifier := auth.NewBcryptVerifier()

	userStore := postgres.NewPostgresUserStore(db, cfg.Auth.BcryptCost)
	profileStore := postgres.NewPostgresProfileStore(db, logger)
	progressStore := postgres.NewPostgresProgressStore(db, logger)
	sessionStore := postgres.NewPostgresSessionStore(db, logger)
	gradingStore := postgres.NewPostgresGradingStore(db, logger)
	feedbackStore := postgres.NewPostgresFeedbackStore(db, logger)
	importJobStore := postgres.NewPostgresImportJobStore(db, logger)
	taskStore := postgres.NewPostgresTaskStore(db, logger)

	taskRunner := task.NewTaskRunner(taskStore, task.TaskRunnerConfig{
		WorkerCount:            cfg.Task.WorkerCount,
		QueueSize:              cfg.Task.QueueSize,
		StuckTaskAge:           time.Duration(cfg.Task.StuckTaskAgeMinutes) * time.Minute,
		StuckTaskCheckInterval: time.Duration(cfg.Task.StuckTaskCheckMinutes) * time.Minute,
	}, logger)

	eventEmitter := events.NewInMemoryEventEmitter(logger)

	profileService, err := service.NewProfileService(
		profileStore, progressStore, sessionStore, gradingStore, cat, db, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create profile service: %w", err)
	}

	studyService, err := service.NewStudyService(profileStore, sessionStore, cat, db, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create study service: %w", err)
	}

	reviewService := review.NewReviewService(
		profileStore, progressStore, leitner.NewDefaultService(), cat, db, logger)

	importService, err := service.NewImportService(
		importJobStore, profileStore, progressStore, sessionStore, gradingStore,
		cat, db, eventEmitter, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create import service: %w", err)
	}

	feedbackService, err := service.NewFeedbackService(feedbackStore, db, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create feedback service: %w", err)
	}

	// Import jobs flow through the event emitter into the task runner. The
	// reconstructor must be registered before Start so recovery can revive
	// jobs that were mid-flight when the previous process died.
	importTaskFactory := task.NewProfileImportTaskFactory(importJobStore, importService, logger)
	taskRunner.RegisterReconstructor(task.TaskTypeProfileImport, importTaskFactory.ReconstructTask)
	eventEmitter.RegisterHandler(task.NewTaskFactoryEventHandler(importTaskFactory, taskRunner, logger))

	if err := taskRunner.Start(); err != nil {
		return nil, fmt.Errorf("failed to start task runner: %w", err)
	}

	sweeper := maintenance.NewStreakSweeper(profileStore, cfg.Maintenance.StreakSweepHourUTC, logger)
	if err := sweeper.Start(); err != nil {
		taskRunner.Stop()
		return nil, fmt.Errorf("failed to start streak sweeper: %w", err)
	}

	return &application{
		config:           cfg,
		logger:           logger,
		db:               db,
		catalog:          cat,
		userStore:        userStore,
		profileStore:     profileStore,
		jwtService:       jwtService,
		passwordVerifier: passwordVerifier,
		authMiddleware:   middleware.NewAuthMiddleware(jwtService),
		profileService:   profileService,
		studyService:     studyService,
		reviewService:    reviewService,
		importService:    importService,
		feedbackService:  feedbackService,
		eventEmitter:     eventEmitter,
		taskRunner:       taskRunner,
		sweeper:          sweeper,
	}, nil
}

// Run blocks serving HTTP until shutdown is requested or the listener fails.
func (app *application) Run(ctx context.Context) error {
	router := app.setupRouter()
	return app.startHTTPServer(ctx, router)
}

// cleanup releases background workers and the database pool. Called after the
// HTTP server has drained so no new work arrives while it runs.
func (app *application) cleanup() {
	app.sweeper.Stop()
	app.taskRunner.Stop()

	if err := app.db.Close(); err != nil {
		app.logger.Error("failed to close database pool", "error", err)
	}
}
