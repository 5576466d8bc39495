// Command sweepwatch follows PL2 parameter sweeps published by rankexp.
//
// It consumes tuning events from Kafka, prints one progress line per event and
// serves the per-run summaries over HTTP:
//
//	GET /api/v1/sweeps        every tracked run, most recent first
//	GET /api/v1/sweeps/{id}   one run
//	GET /health/live, /health/ready
//	GET /metrics
//
// Usage:
//
//	go run ./cmd/sweepwatch [-config config.yaml]
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/Adithya-Monish-Kumar-K/ranking-lab/internal/tuning/monitor"
	"github.com/Adithya-Monish-Kumar-K/ranking-lab/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/ranking-lab/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/ranking-lab/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/ranking-lab/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/ranking-lab/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/ranking-lab/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/ranking-lab/pkg/middleware"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(apperrors.ExitConfiguration)
	}
	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		slog.Error("sweepwatch failed", "error", err)
		stop()
		os.Exit(apperrors.ExitCode(err))
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	if len(cfg.Kafka.Brokers) == 0 || cfg.Kafka.Topics.TuningEvents == "" {
		return apperrors.New(apperrors.ErrConfiguration, "kafka.brokers and kafka.topics.tuningEvents are required")
	}

	m := metrics.New(prometheus.NewRegistry())
	mon := monitor.New(os.Stdout, cfg.Watch.StaleAfter, monitor.WithMetrics(m))
	consumer := kafka.NewConsumer(cfg.Kafka, cfg.Kafka.Topics.TuningEvents, mon.MessageHandler())
	defer consumer.Close()

	consumeErr := make(chan error, 1)
	go func() {
		consumeErr <- consumer.Start(ctx)
	}()
	slog.Info("following tuning events",
		"topic", cfg.Kafka.Topics.TuningEvents,
		"group", cfg.Kafka.ConsumerGroup,
	)

	checker := health.NewChecker()
	checker.Register("kafka-consumer", func(context.Context) (health.Status, string) {
		handled, failed := consumer.Stats()
		msg := fmt.Sprintf("%d handled, %d failed", handled, failed)
		switch {
		case !consumer.Running():
			return health.StatusDown, "consumer stopped"
		case failed > 0:
			return health.StatusDegraded, msg
		default:
			return health.StatusUp, msg
		}
	})

	handler := monitor.NewHandler(mon)
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/sweeps", handler.List)
	mux.HandleFunc("GET /api/v1/sweeps/{id}", handler.Get)
	mux.HandleFunc("GET /health/live", checker.LiveHandler())
	mux.HandleFunc("GET /health/ready", checker.ReadyHandler())
	mux.Handle("GET /metrics", m.Handler())

	httpLog := logger.WithComponent("sweep-http")
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Watch.Port),
		Handler:      middleware.Chain(mux, middleware.Recover(httpLog), middleware.Metrics(m), middleware.Logging(httpLog)),
		ReadTimeout:  cfg.Watch.ReadTimeout,
		WriteTimeout: cfg.Watch.WriteTimeout,
	}
	serveErr := make(chan error, 1)
	go func() {
		slog.Info("sweepwatch listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
		slog.Info("shutdown signal received")
	case err := <-consumeErr:
		if err != nil {
			runErr = fmt.Errorf("consuming tuning events: %w", err)
		}
	case err := <-serveErr:
		runErr = fmt.Errorf("serving sweep api: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", "error", err)
	}
	slog.Info("sweepwatch stopped")
	return runErr
}
