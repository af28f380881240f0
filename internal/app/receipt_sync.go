package app

import (
	"context"
	"fmt"
	"time"

	"github.com/judopay/judopay-go/internal/config"
	"github.com/judopay/judopay-go/internal/logger"
	"github.com/judopay/judopay-go/internal/reconciler"
	"github.com/judopay/judopay-go/internal/storage"
	"github.com/judopay/judopay-go/pkg/httpclient"
	"github.com/judopay/judopay-go/pkg/judopay"
	"github.com/judopay/judopay-go/pkg/publishers"
)

// ReceiptSync is the receipt sync runtime. It polls the gateway on an
// interval, hands new receipts to the publishers and owns the ledger and
// publisher connections.
type ReceiptSync struct {
	cfg          *config.Config
	fanout       *publishers.Fanout
	syncService  *reconciler.Service
	syncInterval time.Duration
	log          logger.Logger
	store        storage.Store
}

// NewReceiptSync builds the runtime from config files and the gateway client.
func NewReceiptSync(ctx context.Context, cfg *config.Config, log logger.Logger, client httpclient.Client) (*ReceiptSync, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if log == nil {
		log = logger.NopLogger{}
	}
	if ctx == nil {
		ctx = context.Background()
	}

	judoCfg := cfg.Judopay()
	if err := judoCfg.Validate(); err != nil {
		return nil, fmt.Errorf("judopay configuration: %w", err)
	}
	transactions := judopay.NewTransactions(judopay.NewRequestBuilder(judoCfg, client))
	log.InfoObj("judopay client configured", "judopay_meta", map[string]any{
		"endpoint":    judoCfg.EndpointURL,
		"api_version": judoCfg.APIVersion,
		"judo_id":     judoCfg.JudoID,
		"oauth":       judoCfg.OAuthAccessToken != "",
	})

	publishersFile, err := publishers.LoadFile(cfg.PublishersFile)
	if err != nil {
		return nil, fmt.Errorf("load publishers: %w", err)
	}

	enabledPublishers := publishersFile.Enabled()
	if len(enabledPublishers) == 0 {
		return nil, fmt.Errorf("no publishers configured")
	}

	fanout, err := publishers.DefaultRegistry().BuildFanout(ctx, enabledPublishers, log)
	if err != nil {
		return nil, fmt.Errorf("build publishers: %w", err)
	}
	publisherSummaries := make([]map[string]string, 0, len(enabledPublishers))
	for _, pubCfg := range enabledPublishers {
		publisherSummaries = append(publisherSummaries, map[string]string{
			"id":   pubCfg.ID,
			"type": pubCfg.Type,
		})
	}
	log.InfoObj("publishers loaded", "publishers_meta", map[string]any{
		"count":      len(publisherSummaries),
		"publishers": publisherSummaries,
	})

	store, err := storage.Open(storage.Options{
		Type:            cfg.StorageType,
		Path:            cfg.BBoltPath,
		ReceiptTTL:      cfg.StorageTTL,
		CleanupInterval: cfg.StorageCleanupInterval,
	})
	if err != nil {
		_ = fanout.Close()
		return nil, fmt.Errorf("open receipt ledger: %w", err)
	}
	ledgerSize, err := store.Len()
	if err != nil {
		log.WarnObj("receipt ledger size unavailable", "error", err)
	}
	log.InfoObj("receipt ledger opened", "storage_config", map[string]any{
		"type":                     cfg.StorageType,
		"path":                     cfg.BBoltPath,
		"entries":                  ledgerSize,
		"receipt_ttl_seconds":      int(cfg.StorageTTL.Seconds()),
		"cleanup_interval_seconds": int(cfg.StorageCleanupInterval.Seconds()),
	})

	return &ReceiptSync{
		cfg:          cfg,
		fanout:       fanout,
		syncService:  reconciler.NewService(transactions, fanout, log, store, cfg.SyncPageSize),
		syncInterval: cfg.SyncInterval,
		log:          log,
		store:        store,
	}, nil
}

// Run starts the sync loop until the context is cancelled.
func (r *ReceiptSync) Run(ctx context.Context) error {
	if r == nil || r.syncService == nil {
		return fmt.Errorf("receipt sync is not initialized")
	}
	defer r.close()

	r.log.InfoObj("receipt sync loop starting", "sync_state", map[string]any{
		"publishers_count": r.fanout.Size(),
		"sync_interval":    r.syncInterval.String(),
	})

	if err := r.runOnce(ctx); err != nil {
		r.log.ErrorObj("initial sync failed", "error", err)
	}

	ticker := time.NewTicker(r.syncInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.log.InfoObj("receipt sync loop exiting", "reason", ctx.Err())
			return nil
		case <-ticker.C:
			if err := r.runOnce(ctx); err != nil {
				r.log.ErrorObj("scheduled sync failed", "error", err)
			}
		}
	}
}

// runOnce performs a single sync pass.
func (r *ReceiptSync) runOnce(ctx context.Context) error {
	start := time.Now()
	r.log.InfoObj("sync started", "sync_meta", map[string]any{
		"started_at": start.UTC(),
	})
	res, err := r.syncService.Run(ctx)
	if err != nil {
		return err
	}
	r.log.InfoObj("sync completed", "sync_meta", map[string]any{
		"published":  res.Published,
		"elapsed_ms": time.Since(start).Milliseconds(),
	})
	return nil
}

// close releases the ledger and publisher connections, logging any errors.
func (r *ReceiptSync) close() {
	if r == nil {
		return
	}
	if r.store != nil {
		if err := r.store.Close(); err != nil {
			r.log.ErrorObj("storage close failed", "error", err)
		}
	}
	if err := r.fanout.Close(); err != nil {
		r.log.ErrorObj("publishers close failed", "error", err)
	}
}
