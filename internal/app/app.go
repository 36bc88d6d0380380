package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/arcade/internal/catalog"
	"github.com/MrSnakeDoc/arcade/internal/config"
	"github.com/MrSnakeDoc/arcade/internal/domain"
	"github.com/MrSnakeDoc/arcade/internal/httpserver"
	"github.com/MrSnakeDoc/arcade/internal/httpserver/deps"
	"github.com/MrSnakeDoc/arcade/internal/index"
	"github.com/MrSnakeDoc/arcade/internal/logger"
	"github.com/MrSnakeDoc/arcade/internal/redis"
	"github.com/MrSnakeDoc/arcade/internal/scheduler"
	"github.com/MrSnakeDoc/arcade/internal/session"
	"github.com/MrSnakeDoc/arcade/internal/sources/remote"
	redisstore "github.com/MrSnakeDoc/arcade/internal/store/redis"
	"github.com/MrSnakeDoc/arcade/internal/version"
)

type App struct {
	cfg         *config.Config
	logger      logger.Logger
	server      *httpserver.Server
	redisClient *goredis.Client
	catalog     *catalog.Store
	sessions    *session.Manager
	reloader    *scheduler.FallbackReloader
	collector   *scheduler.SessionCollector
	warmer      *scheduler.CatalogWarmer
}

func New() *App {
	cfg := config.Load()

	loggerClient := logger.New(cfg.LogLevel, cfg.PrettyLog)

	// Redis is a shared cache only, the catalog works without it.
	var cache catalog.SharedCache
	var redisClient *goredis.Client
	var catalogCache *redisstore.Store
	if cfg.RedisEnabled() {
		client, err := redis.New(context.Background(), redis.ConnectOptions{
			Addr:           cfg.RedisAddr,
			User:           cfg.RedisUser,
			Password:       cfg.RedisPassword,
			RedisDB:        cfg.RedisDB,
			DialTimeout:    cfg.RedisDT,
			ReadTimeout:    cfg.RedisRT,
			WriteTimeout:   cfg.RedisWT,
			PoolSize:       cfg.RedisPoolSize,
			ConnectTimeout: cfg.RedisConnectTimeout,
			RetryInterval:  cfg.RedisRetryInterval,
			MaxWait:        cfg.RedisMaxWait,
			PingTimeout:    cfg.RedisPingTimeout,
			WarnThreshold:  cfg.RedisWarnThreshold,
		}, loggerClient.Named("redis"))
		if err != nil {
			loggerClient.Warn("shared catalog cache disabled", logger.Error(err))
		} else {
			redisClient = client
			catalogCache = redisstore.NewStore(client)
			cache = catalogCache
		}
	} else {
		loggerClient.Info("redis not configured, shared catalog cache disabled")
	}

	var rem catalog.Remote
	if cfg.RemoteEnabled() {
		rem = remote.NewClient(cfg.RemoteURL, cfg.RemoteTimeout)
		loggerClient.Info("remote catalog configured", logger.String("url", cfg.RemoteURL))
	} else {
		loggerClient.Info("remote catalog not configured, serving fallback set only")
	}

	memIndex := index.NewMemoryIndex()

	store := catalog.NewStore(rem, memIndex, loggerClient.Named("catalog"), catalog.Options{
		FreshnessWindow:     cfg.FreshnessWindow,
		ByIDFreshnessWindow: cfg.ByIDFreshnessWindow,
		// cache round trips plus the remote call
		FetchTimeout: 2 * cfg.RemoteTimeout,
		Cache:        cache,
	})

	resolver := domain.NewEmbedResolver(cfg.EmbedDenylist)

	sessions := session.NewManager(store, resolver, loggerClient.Named("session"), session.ManagerOptions{
		FrameLoadGrace: cfg.FrameLoadGrace,
	})

	// Create manual reload trigger channel
	reloadTrigger := make(chan struct{}, 1)

	schedLog := loggerClient.Named("scheduler")

	reloader := scheduler.NewFallbackReloader(
		cfg.FallbackFile,
		memIndex,
		store,
		schedLog,
		cfg.ReloadInterval,
		reloadTrigger,
	)

	collector := scheduler.NewSessionCollector(
		sessions,
		schedLog,
		cfg.SessionGCInterval,
		cfg.SessionIdleTTL,
	)

	warmer := scheduler.NewCatalogWarmer(store, schedLog, cfg.FreshnessWindow)

	d := deps.Deps{
		Logger:          loggerClient,
		StartTime:       time.Now(),
		Version:         version.Version,
		Commit:          version.Commit,
		BuildDate:       version.BuildDate,
		GoVersion:       version.GoVersion,
		TimeNow:         time.Now,
		AllowedHosts:    cfg.AllowedHosts,
		AllowedCIDRS:    cfg.AllowedCIDRS,
		TrustProxy:      cfg.TrustProxy,
		RequestTimeout:  httpserver.DefaultRequestTimeout,
		RateLimitBurst:  cfg.RateLimitBurst,
		RateLimitPerMin: cfg.RateLimitPerMin,
		RemoteURL:       cfg.RemoteURL,
		CatalogCache:    catalogCache,
		MemoryIndex:     memIndex,
		Catalog:         store,
		Sessions:        sessions,
		Resolver:        resolver,
		ReloadTrigger:   reloadTrigger,
	}

	server := httpserver.New(cfg, loggerClient, d)

	return &App{
		cfg:         cfg,
		logger:      loggerClient,
		server:      server,
		redisClient: redisClient,
		catalog:     store,
		sessions:    sessions,
		reloader:    reloader,
		collector:   collector,
		warmer:      warmer,
	}
}

func (a *App) Run() error {
	a.logger.Infof("🚀 Starting Arcade v%s on %s", version.Version, a.cfg.ListenPort)
	a.logger.Info(version.String())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// The fallback set must be loaded before the catalog is warmed.
	if err := a.reloader.Start(ctx); err != nil {
		return fmt.Errorf("failed to start fallback reloader: %w", err)
	}
	a.logger.Info("fallback reloader started",
		logger.Duration("interval", a.cfg.ReloadInterval))

	a.warmer.Start(ctx)
	a.logger.Info("catalog warmer started",
		logger.Duration("interval", a.cfg.FreshnessWindow))

	a.collector.Start(ctx)
	a.logger.Info("session collector started",
		logger.Duration("interval", a.cfg.SessionGCInterval),
		logger.Duration("ttl", a.cfg.SessionIdleTTL))

	errCh := make(chan error, 1)
	go func() {
		if err := a.server.Start(); err != nil {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("⏳ Shutting down gracefully...")
	case err := <-errCh:
		return err
	}

	a.reloader.Stop()
	a.warmer.Stop()
	a.collector.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	if err := a.server.Stop(shutdownCtx); err != nil {
		return fmt.Errorf("failed to stop server: %w", err)
	}

	// Closing sessions ends every open event stream.
	a.sessions.CloseAll()
	a.sessions.Wait()
	a.catalog.Wait()

	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.logger.Warnf("failed to close redis: %v", err)
		} else {
			a.logger.Info("✅ Redis closed cleanly")
		}
	}

	a.logger.Info("✅ Arcade stopped cleanly")
	return nil
}
