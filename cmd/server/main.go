package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"veilpay/internal/api"
	"veilpay/internal/config"
	"veilpay/internal/fhe"
	"veilpay/internal/processor"
	"veilpay/internal/repository/memory"
	"veilpay/internal/service"
	"veilpay/pkg/crypto"
	"veilpay/pkg/metrics"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := setupLogger(cfg)
	logger.Info("Starting application",
		slog.String("name", cfg.App.Name),
		slog.String("environment", cfg.App.Environment))

	metricsCollector := metrics.NewMetricsCollector(logger)

	importSigner := crypto.NewSigner(cfg.Oracle.ImportSecret, logger)
	oracleSigner := crypto.NewSigner(cfg.Oracle.SigningSecret, logger)
	engine := fhe.NewMemoryEngine(importSigner, logger)
	verifier := fhe.NewOracleVerifier(oracleSigner, logger)

	ruleRepo := memory.NewRuleRepository()
	subRepo := memory.NewSubscriptionRepository()

	eventLog := service.NewEventLog(nil, cfg.Events.Workers, logger)
	seq := service.NewSequencer()

	ruleService := service.NewRuleService(ruleRepo, engine, eventLog, seq, logger)
	subService := service.NewSubscriptionService(subRepo, ruleRepo, eventLog, seq, logger)
	executor := processor.NewPaymentExecutor(subRepo, ruleRepo, verifier, eventLog, seq, logger)

	apiHandler := api.NewAPIHandler(ruleService, subService, executor, metricsCollector, logger)

	metricsServer := metricsCollector.StartMetricsServer(cfg.Metrics.Addr)
	httpServer := startHTTPServer(cfg, apiHandler, logger)

	waitForShutdown(logger, httpServer, metricsServer, eventLog)
	logger.Info("Application shutdown complete")
}

func setupLogger(cfg *config.Config) *slog.Logger {
	level := slog.LevelInfo
	switch cfg.Logging.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	return slog.New(handler)
}

func startHTTPServer(cfg *config.Config, apiHandler *api.APIHandler, logger *slog.Logger) *http.Server {
	mux := http.NewServeMux()

	apiHandler.RegisterRoutes(mux)

	mux.HandleFunc("GET /", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"name": "%s", "status": "ok"}`, cfg.App.Name)
	})

	server := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      mux,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	go func() {
		logger.Info("Starting HTTP server", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("HTTP server failed", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	return server
}

func waitForShutdown(
	logger *slog.Logger,
	httpServer *http.Server,
	metricsServer *http.Server,
	eventLog *service.EventLog,
) {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	<-stop
	logger.Info("Shutdown signal received")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("HTTP server shutdown failed", slog.String("error", err.Error()))
	}

	if err := metricsServer.Shutdown(ctx); err != nil {
		logger.Error("Metrics server shutdown failed", slog.String("error", err.Error()))
	}

	if err := eventLog.Shutdown(ctx); err != nil {
		logger.Error("Event log shutdown failed", slog.String("error", err.Error()))
	}
}
