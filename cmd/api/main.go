package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/jwalitptl/medtrack-api/internal/config"
	"github.com/jwalitptl/medtrack-api/internal/dosing"
	"github.com/jwalitptl/medtrack-api/internal/handler"
	doseLogHandler "github.com/jwalitptl/medtrack-api/internal/handler/doselog"
	doseUnitHandler "github.com/jwalitptl/medtrack-api/internal/handler/doseunit"
	medicationHandler "github.com/jwalitptl/medtrack-api/internal/handler/medication"
	scheduleHandler "github.com/jwalitptl/medtrack-api/internal/handler/schedule"
	"github.com/jwalitptl/medtrack-api/internal/middleware"
	"github.com/jwalitptl/medtrack-api/internal/repository/postgres"
	"github.com/jwalitptl/medtrack-api/internal/router"
	doseLogService "github.com/jwalitptl/medtrack-api/internal/service/doselog"
	doseUnitService "github.com/jwalitptl/medtrack-api/internal/service/doseunit"
	eventService "github.com/jwalitptl/medtrack-api/internal/service/event"
	medicationService "github.com/jwalitptl/medtrack-api/internal/service/medication"
	scheduleService "github.com/jwalitptl/medtrack-api/internal/service/schedule"
	"github.com/jwalitptl/medtrack-api/pkg/logger"
	"github.com/jwalitptl/medtrack-api/pkg/metrics"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	if err := postgres.Migrate(db); err != nil {
		log.Fatal().Err(err).Msg("failed to apply migrations")
	}

	loc, err := time.LoadLocation(cfg.Validation.Timezone)
	if err != nil {
		log.Fatal().Err(err).Str("timezone", cfg.Validation.Timezone).Msg("invalid validation timezone")
	}
	engine := dosing.NewEngine(loc)

	appLogger := logger.NewLogger(nil)
	appMetrics := metrics.NewMetrics("medtrack", "api")

	medicationRepo := postgres.NewMedicationRepository(db)
	doseUnitRepo := postgres.NewDoseUnitRepository(db)
	scheduleRepo := postgres.NewScheduleRepository(db)
	doseLogRepo := postgres.NewDoseLogRepository(db)
	outboxRepo := postgres.NewOutboxRepository(db)

	eventSvc := eventService.NewService(outboxRepo)
	medicationSvc := medicationService.NewService(medicationRepo, engine, eventSvc, appLogger)
	doseUnitSvc := doseUnitService.NewService(doseUnitRepo)
	scheduleSvc := scheduleService.NewService(scheduleRepo, medicationRepo, engine, eventSvc, appLogger)
	doseLogSvc := doseLogService.NewService(doseLogRepo, scheduleRepo, medicationRepo, engine, eventSvc, appMetrics, appLogger)

	handler.RegisterValidators()

	h := handler.NewHandler(db)
	r := router.NewRouter(
		medicationHandler.NewHandler(medicationSvc),
		doseUnitHandler.NewHandler(doseUnitSvc),
		scheduleHandler.NewHandler(scheduleSvc),
		doseLogHandler.NewHandler(doseLogSvc),
		h,
		router.RouterConfig{
			RateLimitEnabled: cfg.RateLimit.Enabled,
			RateLimit:        rate.Limit(cfg.RateLimit.RequestsPerSecond),
			RateBurst:        cfg.RateLimit.Burst,
			Timeout:          time.Duration(cfg.Server.TimeoutSeconds) * time.Second,
			CORSConfig:       middleware.DefaultCORSConfig(),
			MetricsPrefix:    "medtrack_api",
		},
	)
	r.Setup()

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: r.Engine(),
	}

	go func() {
		log.Info().Int("port", cfg.Server.Port).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server exited properly")
}
