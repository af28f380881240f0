package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/judopay/judopay-go/internal/app"
	"github.com/judopay/judopay-go/internal/config"
	"github.com/judopay/judopay-go/internal/logger"
	"github.com/judopay/judopay-go/pkg/httpclient"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "receipt-sync start failed: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := logger.Init(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Close()

	logger.InfoObj("receipt-sync starting", "config", map[string]any{
		"app_name":        cfg.AppName,
		"app_env":         cfg.Env,
		"publishers_file": cfg.PublishersFile,
		"sync_interval":   cfg.SyncInterval.String(),
		"sync_page_size":  cfg.SyncPageSize,
		"storage_type":    cfg.StorageType,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client := httpclient.NewRestyClient(httpclient.Options{
		Timeout: cfg.HTTPTimeout,
		Logger:  log.Sugar(),
	})

	receiptSync, err := app.NewReceiptSync(ctx, cfg, log, client)
	if err != nil {
		logger.ErrorObj("failed to initialize receipt sync", "error", err)
		return err
	}

	if err := receiptSync.Run(ctx); err != nil {
		return fmt.Errorf("receipt sync run: %w", err)
	}

	return nil
}
