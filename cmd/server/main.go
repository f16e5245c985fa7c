// @title           Booking API
// @version         1.0
// @description     Appointment booking and payment tracking for a single practitioner.
// @BasePath        /api
//
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
// @description                 Type "Bearer" followed by the session token.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/psyconsult/booking-api/internal/api"
	"github.com/psyconsult/booking-api/internal/api/handler"
	"github.com/psyconsult/booking-api/internal/core/service"
	mongodb "github.com/psyconsult/booking-api/internal/infrastructure/db/mongo"
	redisdb "github.com/psyconsult/booking-api/internal/infrastructure/db/redis"
	"github.com/psyconsult/booking-api/internal/pkg/config"
	"github.com/psyconsult/booking-api/pkg/logger"
)

const shutdownTimeout = 15 * time.Second

func main() {
	envLoaded := loadLocalEnv()

	ctx := context.Background()
	cfg, err := config.Load(ctx)
	if err != nil {
		boot := logger.Init(logger.Options{Pretty: true})
		boot.Fatal().Err(err).Msg("failed to load configuration")
	}

	log := logger.Init(logger.Options{Level: cfg.LogLevel, Pretty: !cfg.IsProduction()})
	if !envLoaded {
		log.Debug().Msg("no .env file found; relying on existing environment")
	}

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	mongoClient, db, err := mongodb.Connect(ctx, mongodb.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
	if err != nil {
		return err
	}
	defer func() { _ = mongoClient.Disconnect(context.Background()) }()

	rdb, err := redisdb.Connect(ctx, redisdb.Config{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
	if err != nil {
		return err
	}
	defer func() { _ = rdb.Close() }()

	// --- Repositories ---
	appointmentRepo := mongodb.NewAppointmentRepository(db)
	userRepo := mongodb.NewUserRepository(db)
	auditRepo := mongodb.NewAuditRepository(db)
	sessions := redisdb.NewSessionStore(rdb)

	if err := mongodb.EnsureIndexes(ctx, appointmentRepo, userRepo); err != nil {
		return err
	}

	// --- Services ---
	appointments := service.NewAppointmentService(appointmentRepo, userRepo, auditRepo, log)
	auth := service.NewAuthService(userRepo, appointmentRepo, sessions, cfg.Auth.JWTSecret, cfg.Auth.SessionTTL, log)
	dashboard := service.NewDashboardService(appointmentRepo, userRepo, cfg.Location())

	if cfg.Admin.Email != "" {
		if err := auth.EnsureAdmin(ctx, cfg.Admin.Name, cfg.Admin.Email, cfg.Admin.Password); err != nil {
			return err
		}
	}

	e := api.NewRouter(api.Deps{
		Config:       cfg,
		Log:          log,
		Appointments: appointments,
		Auth:         auth,
		Dashboard:    dashboard,
		Users:        userRepo,
		Health: map[string]handler.Pinger{
			"mongodb": handler.PingFunc(func(ctx context.Context) error { return mongoClient.Ping(ctx, nil) }),
			"redis":   handler.PingFunc(func(ctx context.Context) error { return rdb.Ping(ctx).Err() }),
		},
		MetricsRegisterer: prometheus.DefaultRegisterer,
		MetricsGatherer:   prometheus.DefaultGatherer,
	})

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.Addr()).Str("env", cfg.Env).Msg("booking api listening")
		if err := e.Start(cfg.Addr()); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-sigCh:
		log.Info().Str("signal", sig.String()).Msg("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}

func loadLocalEnv() bool {
	return godotenv.Load() == nil
}
