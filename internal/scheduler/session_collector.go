package scheduler

import (
	"context"
	"time"

	"github.com/MrSnakeDoc/arcade/internal/logger"
)

const (
	// DefaultSessionIdleTTL is the inactivity after which a session is collected
	DefaultSessionIdleTTL = 2 * time.Hour
)

// IdleCollector closes sessions that saw no activity for ttl.
type IdleCollector interface {
	CollectIdle(now time.Time, ttl time.Duration) int
	Count() int
}

// SessionCollector handles cleanup of abandoned play sessions
type SessionCollector struct {
	sessions IdleCollector
	logger   logger.Logger
	interval time.Duration
	ttl      time.Duration
	now      func() time.Time
	stopCh   chan struct{}
}

// NewSessionCollector creates a new session collector
func NewSessionCollector(
	sessions IdleCollector,
	log logger.Logger,
	interval time.Duration,
	ttl time.Duration,
) *SessionCollector {
	if ttl == 0 {
		ttl = DefaultSessionIdleTTL
	}

	return &SessionCollector{
		sessions: sessions,
		logger:   log,
		interval: interval,
		ttl:      ttl,
		now:      time.Now,
		stopCh:   make(chan struct{}),
	}
}

// Start begins the periodic collection
func (sc *SessionCollector) Start(ctx context.Context) {
	ticker := time.NewTicker(sc.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				sc.Collect()
			case <-sc.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop stops the collector
func (sc *SessionCollector) Stop() {
	close(sc.stopCh)
}

// Collect closes idle sessions and returns how many were closed
func (sc *SessionCollector) Collect() int {
	collected := sc.sessions.CollectIdle(sc.now(), sc.ttl)

	if collected > 0 {
		sc.logger.Info("idle sessions collected",
			logger.Int("collected", collected),
			logger.Int("remaining", sc.sessions.Count()),
			logger.Duration("idle_ttl", sc.ttl))
	} else {
		sc.logger.Debug("no idle sessions to collect")
	}

	return collected
}
