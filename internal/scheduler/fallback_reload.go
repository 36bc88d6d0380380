package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/MrSnakeDoc/arcade/internal/index"
	"github.com/MrSnakeDoc/arcade/internal/logger"
	"github.com/MrSnakeDoc/arcade/internal/sources/fallback"
)

// Invalidator drops cached catalog results after the fallback set changed.
type Invalidator interface {
	Invalidate()
}

// FallbackReloader handles periodic reloading of the fallback catalog
type FallbackReloader struct {
	loader        *fallback.Loader
	mapper        *fallback.Mapper
	index         *index.MemoryIndex
	catalog       Invalidator
	logger        logger.Logger
	interval      time.Duration
	stopCh        chan struct{}
	manualTrigger chan struct{}
}

// NewFallbackReloader creates a new fallback reloader.
// An empty file path serves the embedded default set.
func NewFallbackReloader(
	fallbackFile string,
	idx *index.MemoryIndex,
	catalog Invalidator,
	log logger.Logger,
	interval time.Duration,
	manualTrigger chan struct{},
) *FallbackReloader {
	return &FallbackReloader{
		loader:        fallback.NewLoader(fallbackFile),
		mapper:        fallback.NewMapper(),
		index:         idx,
		catalog:       catalog,
		logger:        log,
		interval:      interval,
		stopCh:        make(chan struct{}),
		manualTrigger: manualTrigger,
	}
}

// Start loads the fallback set once, then keeps it fresh
func (fr *FallbackReloader) Start(ctx context.Context) error {
	// Load immediately on start
	if err := fr.Reload(ctx); err != nil {
		return fmt.Errorf("initial reload failed: %w", err)
	}

	ticker := time.NewTicker(fr.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := fr.Reload(ctx); err != nil {
					fr.logger.Error("failed to reload fallback catalog",
						logger.Error(err))
				}
			case <-fr.manualTrigger:
				fr.logger.Info("manual reload triggered")
				if err := fr.Reload(ctx); err != nil {
					fr.logger.Error("failed to reload fallback catalog",
						logger.Error(err))
				}
			case <-fr.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}

// Stop stops the reloader
func (fr *FallbackReloader) Stop() {
	close(fr.stopCh)
}

// Reload reads the fallback file and swaps the in-memory set.
// On error the previous set stays in place.
func (fr *FallbackReloader) Reload(ctx context.Context) error {
	fr.logger.Info("reloading fallback catalog",
		logger.String("source", fr.loader.Source()))

	file, err := fr.loader.Load()
	if err != nil {
		return fmt.Errorf("failed to load fallback catalog: %w", err)
	}

	games, err := fr.mapper.MapGames(file)
	if err != nil {
		return fmt.Errorf("failed to map fallback catalog: %w", err)
	}

	previous := fr.index.Games()
	kept := make(map[string]bool, len(games))
	for _, g := range games {
		kept[g.ID] = true
	}
	removed := 0
	for _, g := range previous {
		if !kept[g.ID] {
			removed++
		}
	}

	fr.index.UpdateGames(games, fr.loader.Source())

	if fr.catalog != nil {
		fr.catalog.Invalidate()
	}

	fr.logger.Info("fallback catalog loaded",
		logger.Int("count", len(games)),
		logger.Int("removed", removed))

	return nil
}
