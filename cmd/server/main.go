package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/meridianfs/ledgercore/internal/adapter/amqp"
	"github.com/meridianfs/ledgercore/internal/adapter/httpapi"
	"github.com/meridianfs/ledgercore/internal/app"
	"github.com/meridianfs/ledgercore/internal/config"
	"github.com/meridianfs/ledgercore/internal/usecase/ledger"
	"github.com/meridianfs/ledgercore/internal/usecase/seeder"
	"github.com/meridianfs/ledgercore/internal/usecase/settlement"
	"github.com/meridianfs/ledgercore/internal/usecase/ytd"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("configuration validation failed", "error", err)
		os.Exit(1)
	}

	repos, err := app.BuildRepos(cfg)
	if err != nil {
		logger.Error("failed to initialize store", "error", err, "backend", cfg.Backend)
		os.Exit(1)
	}
	defer func() {
		if err := repos.Close(); err != nil {
			logger.Error("failed to close store", "error", err)
		}
	}()
	logger.Info("store initialized", "backend", cfg.Backend)

	// AMQP is optional; without it settlements simply are not announced.
	var notifier settlement.Notifier
	if cfg.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("failed to initialize AMQP client, continuing without messaging", "error", err)
		} else {
			defer amqpClient.Close()
			notifier = amqpClient
			logger.Info("AMQP client initialized", "exchange", cfg.AMQPExchange)
		}
	} else {
		logger.Info("AMQP disabled, settled accounts will not be announced")
	}

	if cfg.SeedDemo {
		demoSeeder := seeder.NewDemoSeeder(repos.Accounts, repos.Activities)
		if err := demoSeeder.Seed(context.Background()); err != nil {
			logger.Error("failed to seed demo data", "error", err)
			os.Exit(1)
		}
		logger.Info("demo data seeded")
	}

	ledgerService := ledger.NewService(repos.Activities, repos.BalancePoints)
	ytdService := ytd.NewService(repos.Activities, repos.Accounts, repos.Assets)
	ytdService.QualifyingFund = cfg.QualifyingFund
	engine := settlement.NewEngine(repos.Scheduled, repos.SettlementStore, notifier)
	engine.SweepConcurrency = cfg.SweepConcurrency

	api := httpapi.NewServer(ledgerService, ytdService, engine, cfg.APIToken)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      api,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		sigint := make(chan os.Signal, 1)
		signal.Notify(sigint, os.Interrupt, syscall.SIGTERM)
		<-sigint

		logger.Info("shutting down server")
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			logger.Error("server shutdown error", "error", err)
		}
	}()

	logger.Info("starting server", "port", cfg.Port)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}
