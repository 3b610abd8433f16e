package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/meridianfs/ledgercore/internal/adapter/amqp"
	"github.com/meridianfs/ledgercore/internal/app"
	"github.com/meridianfs/ledgercore/internal/config"
	"github.com/meridianfs/ledgercore/internal/usecase/ledger"
	"github.com/meridianfs/ledgercore/internal/usecase/ytd"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	logger.Info("starting rebuild worker")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("configuration validation failed", "error", err)
		os.Exit(1)
	}
	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL must be set for the rebuild worker")
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

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	ledgerService := ledger.NewService(repos.Activities, repos.BalancePoints)
	ytdService := ytd.NewService(repos.Activities, repos.Accounts, repos.Assets)
	ytdService.QualifyingFund = cfg.QualifyingFund

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// On each settled account, rebuild its balance points and refresh
	// the stored year-to-date figures for the current year.
	handle := func(ctx context.Context, msg *amqp.SettledMessage) error {
		if err := ledgerService.Rebuild(ctx, msg.AccountID); err != nil {
			return fmt.Errorf("failed to rebuild ledger for account %s: %w", msg.AccountID, err)
		}
		year := time.Now().UTC().Year()
		if err := ytdService.RefreshSnapshot(ctx, msg.AccountID, year); err != nil {
			return fmt.Errorf("failed to refresh year-to-date for account %s: %w", msg.AccountID, err)
		}
		logger.Info("account views refreshed", "account", msg.AccountID, "year", year)
		return nil
	}

	go func() {
		if err := amqpClient.Consume(ctx, handle); err != nil {
			if !errors.Is(err, context.Canceled) {
				logger.Error("message consumption failed", "error", err)
			}
			cancel()
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Info("shutdown signal received", "signal", sig.String())
	case <-ctx.Done():
		logger.Info("context cancelled")
	}
	cancel()

	logger.Info("rebuild worker stopped")
}
