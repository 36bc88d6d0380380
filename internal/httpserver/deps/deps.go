package deps

import (
	"time"

	"github.com/MrSnakeDoc/arcade/internal/catalog"
	"github.com/MrSnakeDoc/arcade/internal/domain"
	"github.com/MrSnakeDoc/arcade/internal/index"
	"github.com/MrSnakeDoc/arcade/internal/logger"
	"github.com/MrSnakeDoc/arcade/internal/session"
	redisstore "github.com/MrSnakeDoc/arcade/internal/store/redis"
)

type Deps struct {
	Logger          logger.Logger
	StartTime       time.Time
	Version         string
	Commit          string
	BuildDate       string
	GoVersion       string
	TimeNow         func() time.Time      // for testing, defaults to time.Now
	AllowedHosts    []string              // Host headers allowed to access the admin endpoints
	AllowedCIDRS    []string              // IPs allowed to access readyz/infra/reload
	TrustProxy      bool                  // true if running behind a trusted reverse proxy (e.g., cloudflared)
	RequestTimeout  time.Duration         // per-request timeout for non-streaming routes
	RateLimitBurst  int                   // session creations allowed in a burst per client
	RateLimitPerMin int                   // sustained session creations per minute per client
	RemoteURL       string                // remote catalog base URL, empty when fallback only
	CatalogCache    *redisstore.Store     // shared catalog cache, nil when disabled
	MemoryIndex     *index.MemoryIndex    // fallback catalog
	Catalog         *catalog.Store        // catalog store (remote + fallback)
	Sessions        *session.Manager      // live play sessions
	Resolver        *domain.EmbedResolver // embed denylist
	ReloadTrigger   chan struct{}         // Channel to trigger manual fallback reload
}
