package scheduler

import (
	"context"
	"time"

	"github.com/MrSnakeDoc/arcade/internal/logger"
)

// Warmer resolves the catalog list queries ahead of the first view.
type Warmer interface {
	Warm(ctx context.Context)
}

// CatalogWarmer keeps the catalog resolved so views are rarely pending or stale
type CatalogWarmer struct {
	catalog  Warmer
	logger   logger.Logger
	interval time.Duration
	stopCh   chan struct{}
}

// NewCatalogWarmer creates a warmer that refreshes every interval
func NewCatalogWarmer(
	catalog Warmer,
	log logger.Logger,
	interval time.Duration,
) *CatalogWarmer {
	return &CatalogWarmer{
		catalog:  catalog,
		logger:   log,
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// Start warms the catalog once, then again on every tick
func (cw *CatalogWarmer) Start(ctx context.Context) {
	cw.logger.Info("warming catalog")
	cw.catalog.Warm(ctx)

	ticker := time.NewTicker(cw.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				cw.catalog.Warm(ctx)
			case <-cw.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop stops the warmer
func (cw *CatalogWarmer) Stop() {
	close(cw.stopCh)
}
