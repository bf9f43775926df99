package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/kelseyhightower/envconfig"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/medtrack-api/internal/email"
	"github.com/jwalitptl/medtrack-api/internal/repository/postgres"
	"github.com/jwalitptl/medtrack-api/pkg/logger"
	"github.com/jwalitptl/medtrack-api/pkg/messaging/redis"
	"github.com/jwalitptl/medtrack-api/pkg/metrics"
	"github.com/jwalitptl/medtrack-api/pkg/worker"
)

type workerConfig struct {
	DatabaseURL     string        `envconfig:"DATABASE_URL" required:"true"`
	RedisURL        string        `envconfig:"REDIS_URL" default:"redis://localhost:6379/0"`
	BatchSize       int           `envconfig:"BATCH_SIZE" default:"100"`
	PollInterval    time.Duration `envconfig:"POLL_INTERVAL" default:"5s"`
	MaxRetries      int           `envconfig:"MAX_RETRIES" default:"3"`
	RetryDelay      time.Duration `envconfig:"RETRY_DELAY" default:"5s"`
	RetentionPeriod time.Duration `envconfig:"RETENTION_PERIOD" default:"168h"`
	CleanupInterval time.Duration `envconfig:"CLEANUP_INTERVAL" default:"1h"`
	HealthAddr      string        `envconfig:"HEALTH_ADDR" default:":8081"`

	SMTPHost     string `envconfig:"SMTP_HOST"`
	SMTPPort     int    `envconfig:"SMTP_PORT" default:"587"`
	SMTPUsername string `envconfig:"SMTP_USERNAME"`
	SMTPPassword string `envconfig:"SMTP_PASSWORD"`
	AlertFrom    string `envconfig:"ALERT_FROM"`
	AlertTo      string `envconfig:"ALERT_TO"`
}

func main() {
	var cfg workerConfig
	if err := envconfig.Process("medtrack", &cfg); err != nil {
		log.Fatal().Err(err).Msg("failed to load worker configuration")
	}

	appLogger := logger.NewLogger(nil)

	db, err := sqlx.Connect("postgres", cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	broker, err := redis.NewRedisBroker(redis.Config{
		URL:          cfg.RedisURL,
		MaxRetries:   3,
		RetryBackoff: 100 * time.Millisecond,
		PoolSize:     10,
		MinIdleConns: 2,
	}, &log.Logger)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to Redis")
	}
	defer broker.Close()

	outboxRepo := postgres.NewOutboxRepository(db)
	processor := worker.NewOutboxProcessor(
		outboxRepo,
		broker,
		worker.OutboxProcessorConfig{
			BatchSize:       cfg.BatchSize,
			PollInterval:    cfg.PollInterval,
			MaxRetries:      cfg.MaxRetries,
			RetryDelay:      cfg.RetryDelay,
			RetentionPeriod: cfg.RetentionPeriod,
		},
		appLogger,
		metrics.NewMetrics("medtrack", "worker"),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	startHealthCheck(cfg.HealthAddr, appLogger)

	if cfg.AlertTo != "" {
		emailSvc := email.NewNoopService()
		if cfg.SMTPHost != "" {
			emailSvc = email.NewSMTPService(email.SMTPConfig{
				Host:     cfg.SMTPHost,
				Port:     cfg.SMTPPort,
				Username: cfg.SMTPUsername,
				Password: cfg.SMTPPassword,
				From:     cfg.AlertFrom,
			})
		}
		alerter := worker.NewMissedDoseAlerter(
			broker,
			postgres.NewScheduleRepository(db),
			postgres.NewMedicationRepository(db),
			emailSvc,
			cfg.AlertTo,
			appLogger,
		)
		go func() {
			if err := alerter.Start(ctx); err != nil {
				appLogger.Error(err, "Missed dose alerter stopped")
			}
		}()
	}

	go func() {
		ticker := time.NewTicker(cfg.CleanupInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := processor.Cleanup(ctx); err != nil {
					appLogger.Error(err, "Failed to cleanup processed events")
				}
			}
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		appLogger.Info("Shutting down...")
		cancel()
	}()

	processor.Start(ctx)
}

func startHealthCheck(addr string, appLogger *logger.Logger) {
	mux := http.NewServeMux()
	mux.HandleFunc("/health/live", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	go func() {
		if err := http.ListenAndServe(addr, mux); err != nil {
			appLogger.Error(err, "Health check server failed")
			os.Exit(1)
		}
	}()
}
