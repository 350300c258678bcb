// Package app wires configuration, logging, the cache store, the directory
// client and the resolver, and drives the two invocation modes: one-shot
// resolution and the local serve daemon.
package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/bucketbot/golink/internal/config"
	"github.com/bucketbot/golink/internal/directory"
	"github.com/bucketbot/golink/internal/httpserver"
	"github.com/bucketbot/golink/internal/httpserver/deps"
	"github.com/bucketbot/golink/internal/logger"
	"github.com/bucketbot/golink/internal/redis"
	"github.com/bucketbot/golink/internal/resolver"
	"github.com/bucketbot/golink/internal/scheduler"
	"github.com/bucketbot/golink/internal/store"
	filestore "github.com/bucketbot/golink/internal/store/file"
	redisstore "github.com/bucketbot/golink/internal/store/redis"
	"github.com/bucketbot/golink/internal/version"
)

// Exit codes for the one-shot mode.
const (
	ExitResolved  = 0
	ExitNotFound  = 1
	ExitAmbiguous = 2
)

type App struct {
	cfg         *config.Config
	logger      logger.Logger
	resolver    *resolver.Resolver
	redisClient *goredis.Client // nil for the file backend
}

// New loads configuration and assembles the resolution engine.
func New() (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	loggerClient := logger.New(cfg.LogLevel, cfg.PrettyLog)

	if cfg.APIToken == "" {
		return nil, errors.New("no API token configured (set GOLINK_API_TOKEN or api_token in the config file)")
	}

	cacheStore, redisClient, err := buildStore(cfg, loggerClient)
	if err != nil {
		return nil, err
	}

	fetcher := directory.NewClient(cfg.Endpoint, cfg.APIToken,
		directory.WithTimeout(cfg.FetchTimeout))

	res := resolver.New(cacheStore, fetcher, loggerClient, resolver.Options{
		CacheMaxAge:     cfg.CacheMaxAge,
		MinConfidence:   cfg.MinConfidence,
		AmbiguityMargin: cfg.AmbiguityMargin,
		MaxCandidates:   cfg.MaxCandidates,
	})

	return &App{
		cfg:         cfg,
		logger:      loggerClient,
		resolver:    res,
		redisClient: redisClient,
	}, nil
}

// buildStore selects the cache backend from configuration.
func buildStore(cfg *config.Config, log logger.Logger) (store.Store, *goredis.Client, error) {
	switch cfg.CacheBackend {
	case config.BackendRedis:
		client, err := redis.New(redis.ConnectOptions{
			Addr:           cfg.RedisAddr,
			User:           cfg.RedisUser,
			Password:       cfg.RedisPassword,
			DB:             cfg.RedisDB,
			DialTimeout:    cfg.RedisDialTimeout,
			ConnectTimeout: cfg.RedisConnectTimeout,
			RetryInterval:  cfg.RedisRetryInterval,
			PingTimeout:    cfg.RedisPingTimeout,
		}, log)
		if err != nil {
			return nil, nil, fmt.Errorf("connecting to redis cache backend: %w", err)
		}
		return redisstore.NewStore(client, 0), client, nil

	default:
		return filestore.New(cfg.CachePath), nil, nil
	}
}

// Close releases resources held by the app.
func (a *App) Close() {
	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.logger.Warnf("failed to close redis: %v", err)
		}
	}
	_ = a.logger.Sync()
}

// ResolveOptions are the one-shot mode flags.
type ResolveOptions struct {
	Print   bool // print the URL instead of opening the browser
	JSON    bool // print the full outcome as JSON
	Refresh bool // force a directory refresh before matching
}

// Resolve runs one query end to end and returns the process exit code.
func (a *App) Resolve(ctx context.Context, query string, opts ResolveOptions) int {
	if opts.Refresh {
		if err := a.resolver.Refresh(ctx); err != nil {
			a.logger.Warn("forced refresh failed", logger.Error(err))
		}
	}

	outcome := a.resolver.Resolve(ctx, query)
	return a.render(query, outcome, opts)
}

// Serve runs the local HTTP daemon with a background directory refresher.
func (a *App) Serve() error {
	a.logger.Infof("starting golink daemon %s on %s", version.Version, a.cfg.ListenAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	refreshTrigger := make(chan struct{}, 1)
	refresher := scheduler.NewDirectoryRefresher(a.resolver, a.logger, a.cfg.RefreshInterval, refreshTrigger)

	d := deps.Deps{
		Logger:         a.logger,
		StartTime:      time.Now(),
		Version:        version.Version,
		Commit:         version.Commit,
		BuildDate:      version.BuildDate,
		GoVersion:      version.GoVersion,
		TimeNow:        time.Now,
		Resolver:       a.resolver,
		RefreshTrigger: refreshTrigger,
	}

	server := httpserver.New(a.cfg, a.logger, d)

	if err := refresher.Start(ctx); err != nil {
		return fmt.Errorf("failed to start directory refresher: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.Start(); err != nil {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutting down gracefully...")
	case err := <-errCh:
		refresher.Stop()
		return err
	}

	refresher.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	if err := server.Stop(shutdownCtx); err != nil {
		return fmt.Errorf("failed to stop server: %w", err)
	}

	a.logger.Info("golink daemon stopped cleanly")
	return nil
}
