package main

import (
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	apiMiddleware "github.com/phrazzld/capsule-api/internal/api/middleware"
	"github.com/phrazzld/capsule-api/internal/config"
	"github.com/phrazzld/capsule-api/internal/events"
	"github.com/phrazzld/capsule-api/internal/platform/googleauth"
	"github.com/phrazzld/capsule-api/internal/platform/mail"
	"github.com/phrazzld/capsule-api/internal/platform/postgres"
	"github.com/phrazzld/capsule-api/internal/platform/storage"
	"github.com/phrazzld/capsule-api/internal/service"
	"github.com/phrazzld/capsule-api/internal/service/auth"
	"github.com/phrazzld/capsule-api/internal/store"
	"github.com/phrazzld/capsule-api/internal/task"
)

// application holds the shared application dependencies so startup and
// shutdown can manage them in one place.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB

	userStore         store.UserStore
	capsuleStore      store.CapsuleStore
	contentStore      store.ContentStore
	recipientStore    store.RecipientStore
	notificationStore store.NotificationStore
	deliveryLogStore  store.DeliveryLogStore
	taskStore         task.TaskStore

	jwtService          auth.JWTService
	userService         service.UserService
	capsuleService      service.CapsuleService
	notificationService service.NotificationService

	eventEmitter events.EventEmitter
	taskRunner   *task.TaskRunner
	scheduler    *task.DeliveryScheduler
	rateLimiter  *apiMiddleware.RateLimiter
}

// newApplication wires all application dependencies from configuration, a
// logger, and an open database connection.
func newApplication(cfg *config.Config, logger *slog.Logger, db *sql.DB) (*application, error) {
	app := &application{
		config: cfg,
		logger: logger,
		db:     db,
	}

	var err error
	app.jwtService, err = auth.NewJWTService(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize JWT service: %w", err)
	}
	passwordVerifier := auth.NewBcryptVerifier(cfg.Auth.BcryptCost)
	otpGenerator := auth.NewRandomOTPGenerator()

	app.userStore = postgres.NewPostgresUserStore(db, cfg.Auth.BcryptCost)
	app.capsuleStore = postgres.NewPostgresCapsuleStore(db)
	app.contentStore = postgres.NewPostgresContentStore(db)
	app.recipientStore = postgres.NewPostgresRecipientStore(db)
	app.notificationStore = postgres.NewPostgresNotificationStore(db)
	app.deliveryLogStore = postgres.NewPostgresDeliveryLogStore(db)

	mailer := mail.NewMailer(cfg.Email, cfg.Server.BaseURL)

	media, err := storage.NewMediaStore(cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize media storage: %w", err)
	}

	googleVerifier := googleauth.NewVerifier(cfg.Google.ClientID)

	app.userService = service.NewUserService(
		db,
		app.userStore,
		app.jwtService,
		passwordVerifier,
		otpGenerator,
		mailer,
		googleVerifier,
		time.Duration(cfg.Auth.OTPValiditySeconds)*time.Second,
		logger,
	)

	app.capsuleService = service.NewCapsuleService(
		db,
		app.capsuleStore,
		app.contentStore,
		app.recipientStore,
		app.notificationStore,
		app.deliveryLogStore,
		app.userStore,
		media,
		mailer,
		logger,
	)

	app.notificationService = service.NewNotificationService(app.notificationStore, logger)

	taskFactory := task.NewDeliveryTaskFactory(
		app.capsuleService,
		cfg.Task.DeliveryMaxAttempts,
		time.Duration(cfg.Task.DeliveryRetryDelaySeconds)*time.Second,
		logger,
	)

	app.taskStore = postgres.NewPostgresTaskStore(db, taskFactory)
	app.taskRunner = task.NewTaskRunner(app.taskStore, taskRunnerConfig(cfg.Task), logger)

	emitter := events.NewInMemoryEventEmitter(logger)
	emitter.RegisterHandler(task.NewTaskFactoryEventHandler(taskFactory, app.taskRunner, logger))
	app.eventEmitter = emitter

	app.scheduler = task.NewDeliveryScheduler(
		app.capsuleStore,
		app.eventEmitter,
		schedulerConfig(cfg.Task),
		logger,
	)

	app.rateLimiter = apiMiddleware.NewRateLimiter(cfg.Server.RateLimitPerMinute)

	return app, nil
}

// taskRunnerConfig maps the validated task settings onto the runner
// configuration, keeping defaults where the settings are unset.
func taskRunnerConfig(cfg config.TaskConfig) task.TaskRunnerConfig {
	runnerCfg := task.DefaultTaskRunnerConfig()
	if cfg.WorkerCount > 0 {
		runnerCfg.WorkerCount = cfg.WorkerCount
	}
	if cfg.QueueSize > 0 {
		runnerCfg.QueueSize = cfg.QueueSize
	}
	if cfg.StuckTaskAge > 0 {
		runnerCfg.StuckTaskAge = time.Duration(cfg.StuckTaskAge) * time.Minute
	}
	return runnerCfg
}

func schedulerConfig(cfg config.TaskConfig) task.DeliverySchedulerConfig {
	schedCfg := task.DefaultDeliverySchedulerConfig()
	if cfg.SchedulerIntervalSeconds > 0 {
		schedCfg.Interval = time.Duration(cfg.SchedulerIntervalSeconds) * time.Second
	}
	return schedCfg
}

// startBackground launches the task runner and the delivery scheduler.
func (app *application) startBackground() {
	if err := app.taskRunner.Start(); err != nil {
		app.logger.Error("failed to start task runner", "error", err)
	}
	app.scheduler.Start()
	app.logger.Info("background delivery pipeline started")
}

// stopBackground halts the scheduler before the runner so no new tasks are
// enqueued while workers drain, then stops the rate limiter's cleanup.
func (app *application) stopBackground() {
	app.scheduler.Stop()
	app.taskRunner.Stop()
	app.rateLimiter.Stop()
	app.logger.Info("background delivery pipeline stopped")
}
