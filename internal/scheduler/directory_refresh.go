// Package scheduler runs the background directory refresh used by serve mode.
package scheduler

import (
	"context"
	"time"

	"github.com/bucketbot/golink/internal/logger"
	"github.com/bucketbot/golink/internal/resolver"
)

// DirectoryRefresher periodically refreshes the cached directory snapshot so
// interactive resolves rarely pay for a fetch.
type DirectoryRefresher struct {
	resolver      *resolver.Resolver
	logger        logger.Logger
	interval      time.Duration
	stopCh        chan struct{}
	manualTrigger chan struct{}
}

// NewDirectoryRefresher creates a new refresher. manualTrigger lets the HTTP
// layer request an immediate refresh.
func NewDirectoryRefresher(
	res *resolver.Resolver,
	log logger.Logger,
	interval time.Duration,
	manualTrigger chan struct{},
) *DirectoryRefresher {
	return &DirectoryRefresher{
		resolver:      res,
		logger:        log,
		interval:      interval,
		stopCh:        make(chan struct{}),
		manualTrigger: manualTrigger,
	}
}

// Start refreshes once immediately, then on every tick or manual trigger.
// A failed refresh is logged and retried on the next tick; the stale cache
// keeps serving in the meantime.
func (dr *DirectoryRefresher) Start(ctx context.Context) error {
	if err := dr.refresh(ctx); err != nil {
		// First run with no cache at all: serve mode still starts, the
		// first successful refresh (or per-request fetch) fills the cache.
		dr.logger.Warn("initial directory refresh failed", logger.Error(err))
	}

	ticker := time.NewTicker(dr.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := dr.refresh(ctx); err != nil {
					dr.logger.Error("failed to refresh directory", logger.Error(err))
				}
			case <-dr.manualTrigger:
				dr.logger.Info("manual refresh triggered")
				if err := dr.refresh(ctx); err != nil {
					dr.logger.Error("failed to refresh directory", logger.Error(err))
				}
			case <-dr.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}

// Stop stops the refresher.
func (dr *DirectoryRefresher) Stop() {
	close(dr.stopCh)
}

func (dr *DirectoryRefresher) refresh(ctx context.Context) error {
	dr.logger.Debug("refreshing directory snapshot")
	return dr.resolver.Refresh(ctx)
}
