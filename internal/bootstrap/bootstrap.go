package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	appAuth "github.com/yigit/edutransit/internal/app/auth"
	appControllers "github.com/yigit/edutransit/internal/app/controllers"
	appMigrations "github.com/yigit/edutransit/internal/app/migrations"
	appRepos "github.com/yigit/edutransit/internal/app/repositories"
	appRoutes "github.com/yigit/edutransit/internal/app/routes"
	appServices "github.com/yigit/edutransit/internal/app/services"
	"github.com/yigit/edutransit/internal/config"
	"github.com/yigit/edutransit/internal/db"
	"github.com/yigit/edutransit/internal/jobs"
	appMiddleware "github.com/yigit/edutransit/internal/middleware"
	pkgAuth "github.com/yigit/edutransit/internal/pkg/auth"
	"github.com/yigit/edutransit/internal/pkg/clock"
	"github.com/yigit/edutransit/internal/pkg/email"
	"github.com/yigit/edutransit/internal/pkg/filestorage"
	"github.com/yigit/edutransit/internal/pkg/helpers"
	"github.com/yigit/edutransit/internal/pkg/lock"
	"github.com/yigit/edutransit/internal/pkg/logger"
	"github.com/yigit/edutransit/internal/pkg/push"
	"github.com/yigit/edutransit/internal/pkg/qrtoken"
	"github.com/yigit/edutransit/internal/pkg/tracing"
	"github.com/yigit/edutransit/internal/pkg/websocket"
	"github.com/yigit/edutransit/internal/seed"
)

// MediaURLPrefix is where uploaded bus photos are served
const MediaURLPrefix = "/media"

// Dependencies holds all the application dependencies
type Dependencies struct {
	Repos          *appRepos.Repositories
	Services       *appServices.Services
	JWTService     *pkgAuth.JWTService
	AuthzService   *appAuth.AuthorizationService
	AuthMiddleware *appMiddleware.AuthMiddleware
	Handlers       appRoutes.Handlers
	Hub            *websocket.Hub
	Notifier       *jobs.MissedBoardingNotifier
	FileStorage    *filestorage.LocalStorage
	Redis          *redis.Client
	Logger         zerolog.Logger
}

// LoadConfigAndSetupLogger loads .env, the YAML configuration and initializes the logger.
func LoadConfigAndSetupLogger() (*config.Config, zerolog.Logger, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logger.Warn().Err(err).Msg("Failed to load .env file")
	}

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = filepath.Join("configs", "config.yaml")
	}
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to load configuration")
		return nil, zerolog.Logger{}, err
	}

	logLevel := logger.LogLevel(strings.ToLower(cfg.Logging.Level))
	logCfg := logger.Config{
		Level:  logLevel,
		Pretty: strings.ToLower(cfg.Logging.Format) == "text",
	}
	hostname, _ := os.Hostname()
	if hook := logger.NewRollbarHook(logger.RollbarConfig{
		Token:       cfg.Logging.RollbarToken,
		Environment: cfg.Logging.Environment,
		ServerHost:  hostname,
	}); hook != nil {
		logCfg.Hooks = append(logCfg.Hooks, hook)
	}
	logger.Configure(logCfg)

	lgr := logger.Get()
	lgr.Info().
		Str("logLevel", string(logLevel)).
		Str("logFormat", cfg.Logging.Format).
		Bool("rollbar", cfg.Logging.RollbarToken != "").
		Msg("Logger configured")
	return cfg, lgr, nil
}

// SetupTracing installs the tracer provider used by the HTTP server, the push
// client and the background jobs. Spans are written to stdout as JSON.
func SetupTracing(cfg *config.Config, lgr zerolog.Logger) (tracing.ShutdownFunc, error) {
	shutdown, err := tracing.Setup(tracing.Config{
		Enabled:     cfg.Tracing.Enabled,
		ServiceName: cfg.Tracing.ServiceName,
	})
	if err != nil {
		return nil, err
	}
	lgr.Info().Bool("enabled", cfg.Tracing.Enabled).Str("service", cfg.Tracing.ServiceName).Msg("Tracing configured")
	return shutdown, nil
}

// SetupDatabase opens the pool, runs migrations and seeds default data.
func SetupDatabase(ctx context.Context, cfg *config.Config, lgr zerolog.Logger) (*pgxpool.Pool, error) {
	lgr.Info().Msg("Establishing database connection...")
	dbPool, err := db.NewPostgresPool(ctx, cfg, lgr)
	if err != nil {
		lgr.Error().Err(err).Msg("Failed to connect to database")
		return nil, err
	}

	migrationsDir := cfg.Database.MigrationsDir
	if _, err := os.Stat(migrationsDir); err != nil {
		dbPool.Close()
		return nil, fmt.Errorf("migrations directory not found at %s: %w", migrationsDir, err)
	}

	migrator := appMigrations.NewMigrator(dbPool, lgr.With().Str("component", "migrator").Logger())
	if err := migrator.MigrateFromDirectory(ctx, migrationsDir); err != nil {
		dbPool.Close()
		return nil, fmt.Errorf("database migrations failed: %w", err)
	}

	err = seed.CreateDefaultData(ctx,
		appRepos.NewUserRepository(dbPool),
		appRepos.NewGradeRepository(dbPool),
		seed.Superuser{
			Username: cfg.App.SuperuserUsername,
			Email:    cfg.App.SuperuserEmail,
			Password: cfg.App.SuperuserPassword,
		},
		lgr,
	)
	if err != nil {
		// Startup continues; a missing grade or superuser can be fixed later.
		lgr.Error().Err(err).Msg("Failed to create default data, proceeding anyway...")
	}

	return dbPool, nil
}

// BuildDependencies initializes repositories, services, jobs and controllers.
func BuildDependencies(ctx context.Context, cfg *config.Config, dbPool *pgxpool.Pool, lgr zerolog.Logger) (*Dependencies, error) {
	deps := &Dependencies{Logger: lgr}
	component := func(name string) zerolog.Logger {
		return lgr.With().Str("component", name).Logger()
	}

	deps.Repos = appRepos.NewRepositories(dbPool)
	stores := appServices.NewStores(deps.Repos)

	var err error
	deps.FileStorage, err = filestorage.NewLocalStorage(cfg.App.StoragePath, MediaURLPrefix)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize file storage: %w", err)
	}

	mailer, err := email.New(ctx, email.Config{
		Provider:  cfg.Email.Provider,
		FromName:  cfg.Email.FromName,
		FromEmail: cfg.Email.FromEmail,
		SMTP: email.SMTPConfig{
			Host:     cfg.Email.SMTP.Host,
			Port:     cfg.Email.SMTP.Port,
			Username: cfg.Email.SMTP.Username,
			Password: cfg.Email.SMTP.Password,
			UseTLS:   cfg.Email.SMTP.UseTLS,
		},
		SESRegion:      cfg.Email.SES.Region,
		SendGridAPIKey: cfg.Email.SendGrid.APIKey,
	}, component("email"))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize email sender: %w", err)
	}

	var pusher push.Notifier = push.Disabled{}
	if cfg.Push.Enabled {
		pusher = push.NewExpoClient(push.Config{URL: cfg.Push.URL, Timeout: cfg.Push.Timeout}, component("push"))
	}
	dispatcher := appServices.NewDispatcher(mailer, pusher, component("dispatcher"))

	deps.JWTService = pkgAuth.NewJWTService(pkgAuth.JWTConfig{
		SecretKey:       cfg.JWT.Secret,
		AccessTokenExp:  helpers.ParseDuration(cfg.JWT.AccessTokenExpiration, time.Hour),
		RefreshTokenExp: helpers.ParseDuration(cfg.JWT.RefreshTokenExpiration, 720*time.Hour),
		TokenIssuer:     cfg.JWT.Issuer,
	})
	deps.AuthzService = appAuth.NewAuthorizationService(deps.Repos.UserRepository, deps.Repos.BusRepository)
	deps.AuthMiddleware = appMiddleware.NewAuthMiddleware(deps.JWTService)
	deps.Hub = websocket.NewHub(component("websocket"))

	loc := cfg.Location()
	deps.Services = appServices.New(appServices.Options{
		Stores:     stores,
		Authz:      deps.AuthzService,
		JWT:        deps.JWTService,
		Dispatcher: dispatcher,
		Publisher:  deps.Hub,
		Signer:     qrtoken.NewSigner(cfg.Boarding.QRSecret, cfg.Boarding.QRSalt),
		Boarding: appServices.BoardingPolicy{
			MaxAge:             cfg.Boarding.QRMaxAge,
			RequireAssignedBus: cfg.Boarding.RequireAssignedBus,
		},
		Storage:             deps.FileStorage,
		Clock:               clock.Real{},
		Location:            loc,
		DefaultOrganization: cfg.App.DefaultOrganization,
		Logger:              lgr,
	})

	var locker lock.Locker = lock.Noop{}
	if cfg.Notifier.UseRedis {
		deps.Redis = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := deps.Redis.Ping(pingCtx).Err(); err != nil {
			_ = deps.Redis.Close()
			return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Redis.Addr, err)
		}
		locker = lock.NewRedisLocker(deps.Redis)
		lgr.Info().Str("addr", cfg.Redis.Addr).Msg("Redis notifier lock enabled")
	}

	deps.Notifier = jobs.NewMissedBoardingNotifier(
		jobs.StoresFrom(stores),
		dispatcher,
		locker,
		clock.Real{},
		loc,
		jobs.MissedBoardingConfig{
			Interval:    cfg.Notifier.Interval,
			RunTimeout:  cfg.Notifier.RunTimeout,
			LockKey:     cfg.Notifier.LockKey,
			LockTTL:     cfg.Notifier.LockTTL,
			EveningLead: cfg.Notifier.EveningLead,
		},
		component("notifier"),
	)

	deps.Handlers = appRoutes.Handlers{
		Auth:       appControllers.NewAuthController(deps.Services.Auth, component("auth")),
		Users:      appControllers.NewUserController(deps.Services.Users, component("users")),
		Trips:      appControllers.NewTripController(deps.Services.Trips, component("trip")),
		Drivers:    appControllers.NewDriverController(deps.Services.Drivers, deps.Services.Boarding, component("driver")),
		Riders:     appControllers.NewRiderController(deps.Services.Dashboards, deps.Services.Complaints, component("rider")),
		Teachers:   appControllers.NewTeacherController(deps.Services.Teachers, component("teacher")),
		Management: appControllers.NewManagementController(deps.Services.Management, deps.Services.Complaints, component("management")),
		LiveBus:    websocket.NewHandler(deps.Hub, deps.AuthzService, component("websocket")),
	}

	return deps, nil
}

// StartBackground runs the websocket hub and the periodic jobs until ctx is cancelled.
func StartBackground(ctx context.Context, cfg *config.Config, deps *Dependencies) {
	go deps.Hub.Run(ctx)

	if cfg.Notifier.Enabled {
		deps.Notifier.Start(ctx)
	} else {
		deps.Logger.Info().Msg("Missed-boarding notifier disabled")
	}

	jobs.StartTokenCleanup(ctx, deps.Repos.TokenRepository, cfg.JWT.CleanupInterval, deps.Logger.With().Str("component", "token-cleanup").Logger())
}

// SetupRouter configures the Gin engine with middleware and routes.
func SetupRouter(cfg *config.Config, deps *Dependencies, lgr zerolog.Logger) (*gin.Engine, error) {
	if strings.ToLower(cfg.Server.Mode) == "production" {
		gin.SetMode(gin.ReleaseMode)
		lgr.Info().Msg("Setting Gin mode to release")
	} else {
		gin.SetMode(gin.DebugMode)
		lgr.Info().Msg("Setting Gin mode to debug")
	}

	if err := appMiddleware.RegisterValidators(); err != nil {
		return nil, fmt.Errorf("failed to register validators: %w", err)
	}

	router := gin.New()
	router.Use(gin.Recovery(), appMiddleware.RequestLogger())

	metricsPath := ""
	if cfg.Metrics.Enabled {
		metricsPath = cfg.Metrics.Path
	}
	appRoutes.SetupOps(router, metricsPath)
	appRoutes.SetupRouter(router, deps.Handlers, deps.AuthMiddleware)

	router.Static(MediaURLPrefix, deps.FileStorage.BasePath())
	lgr.Info().Str("path", deps.FileStorage.BasePath()).Str("url", MediaURLPrefix).Msg("Static file serving configured for uploads")

	return router, nil
}
