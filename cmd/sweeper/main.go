package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/meridianfs/ledgercore/internal/adapter/amqp"
	"github.com/meridianfs/ledgercore/internal/app"
	"github.com/meridianfs/ledgercore/internal/config"
	"github.com/meridianfs/ledgercore/internal/usecase/settlement"
)

// sweepBudget caps one sweep run so a stuck store cannot wedge the
// ticker loop. Records not reached stay pending for the next pass.
const sweepBudget = 10 * time.Minute

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	logger.Info("starting settlement sweeper")

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

	var notifier settlement.Notifier
	if cfg.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("failed to initialize AMQP client, continuing without messaging", "error", err)
		} else {
			defer amqpClient.Close()
			notifier = amqpClient
		}
	}

	engine := settlement.NewEngine(repos.Scheduled, repos.SettlementStore, notifier)
	engine.SweepConcurrency = cfg.SweepConcurrency

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logger.Info("sweeper configured",
		"interval", cfg.SweepInterval,
		"concurrency", cfg.SweepConcurrency,
		"backend", cfg.Backend)

	sweep := func(now time.Time) {
		sweepCtx, cancelSweep := context.WithTimeout(ctx, sweepBudget)
		defer cancelSweep()

		result, err := engine.RunSweep(sweepCtx, now.UTC())
		if err != nil {
			logger.Error("sweep failed", "error", err)
			return
		}
		logger.Info("sweep complete",
			"processed", result.Processed,
			"failed", result.Failed)
	}

	// Run an initial sweep on startup, then tick.
	sweep(time.Now())

	ticker := time.NewTicker(cfg.SweepInterval)
	defer ticker.Stop()

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				sweep(now)
			}
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigChan
	logger.Info("shutdown signal received", "signal", sig.String())
	cancel()

	logger.Info("sweeper stopped")
}
