// Package server provides the core application server and dependency injection.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/JakeFAU/ytproxy/internal/api"
	"github.com/JakeFAU/ytproxy/internal/clock/system"
	"github.com/JakeFAU/ytproxy/internal/config"
	"github.com/JakeFAU/ytproxy/internal/download"
	"github.com/JakeFAU/ytproxy/internal/hash/sha256"
	"github.com/JakeFAU/ytproxy/internal/id/uuid"
	"github.com/JakeFAU/ytproxy/internal/logging"
	"github.com/JakeFAU/ytproxy/internal/media"
	"github.com/JakeFAU/ytproxy/internal/metrics"
	"github.com/JakeFAU/ytproxy/internal/policy/ratelimit"
	"github.com/JakeFAU/ytproxy/internal/resolver"
	"github.com/JakeFAU/ytproxy/internal/static"
	"github.com/JakeFAU/ytproxy/internal/youtube"
)

const shutdownTimeout = 10 * time.Second

// App contains the application's dependencies.
type App struct {
	cfg         *config.Config
	logger      *zap.Logger
	apiServer   *api.Server
	platform    *youtube.Client
	memoryStore *ratelimit.MemoryStore
	redisClient *redis.Client
}

// NewApp creates a new App with the given configuration.
func NewApp(cfg *config.Config, logger *zap.Logger) (*App, error) {
	// Only non-sensitive fields; the redis URL may carry a password.
	type SanitizedConfig struct {
		Addr             string `json:"addr"`
		Environment      string `json:"environment"`
		RateLimitBackend string `json:"rate_limit_backend"`
		RateLimitMax     int    `json:"rate_limit_max"`
		RateLimitWindow  string `json:"rate_limit_window"`
	}
	safeCfg := SanitizedConfig{
		Addr:             cfg.Addr(),
		Environment:      cfg.Environment,
		RateLimitBackend: cfg.RateLimit.Backend,
		RateLimitMax:     cfg.RateLimit.Max,
		RateLimitWindow:  cfg.RateLimitWindow().String(),
	}
	logger.Info("Creating application", zap.Any("config", safeCfg))
	return &App{
		cfg:    cfg,
		logger: logger,
	}, nil
}

// Handler exposes the routed HTTP handler.
func (a *App) Handler() http.Handler {
	return a.apiServer.Handler()
}

// Run starts the application and blocks until the context is canceled.
func (a *App) Run(ctx context.Context) error {
	a.logger.Info("application started")
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a.startJanitors(ctx)

	srv := &http.Server{
		Addr:              a.cfg.Addr(),
		Handler:           a.apiServer.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		a.logger.Info("http server started", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("http server error", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	a.logger.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("server shutdown error", zap.Error(err))
	}

	return a.Close(shutdownCtx)
}

// startJanitors prunes the in-memory limiter and the platform lookup cache
// until ctx is done.
func (a *App) startJanitors(ctx context.Context) {
	interval := time.Duration(a.cfg.RateLimit.SweepIntervalSeconds) * time.Second
	if interval <= 0 {
		return
	}
	if a.memoryStore != nil {
		go a.memoryStore.RunSweeper(ctx, system.New(), interval, a.cfg.RateLimitWindow())
	}
	if a.platform != nil {
		go func() {
			ticker := time.NewTicker(interval)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					if n := a.platform.Sweep(); n > 0 {
						a.logger.Debug("expired video lookups dropped", zap.Int("count", n))
					}
				}
			}
		}()
	}
}

// Close gracefully shuts down the application.
func (a *App) Close(_ context.Context) error {
	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.logger.Warn("redis client close failed", zap.Error(err))
		}
	}
	a.logger.Info("shutdown complete")
	// Sync on stderr returns EINVAL on some platforms.
	_ = a.logger.Sync()
	return nil
}

// Build creates the application's dependencies.
func Build(ctx context.Context, cfg *config.Config) (*App, error) {
	logger, err := logging.New(cfg.Logging.Development, cfg.Logging.Level)
	if err != nil {
		return nil, fmt.Errorf("logger init failed: %w", err)
	}
	zap.ReplaceGlobals(logger)
	metrics.Init()

	app, err := NewApp(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("app init failed: %w", err)
	}

	app.logger.Info("building application dependencies")
	clock := system.New()

	limiter, err := setupLimiter(ctx, app, clock)
	if err != nil {
		return nil, err
	}

	app.platform = youtube.New(youtube.Config{
		RPS:          cfg.YouTube.UpstreamRPS,
		Burst:        cfg.YouTube.UpstreamBurst,
		CacheTTL:     time.Duration(cfg.YouTube.CacheTTLSeconds) * time.Second,
		FetchTimeout: cfg.UpstreamTimeout(),
	}, logger.Named("youtube"))
	searcher := youtube.NewSearcher(youtube.Config{
		RPS:   cfg.YouTube.UpstreamRPS,
		Burst: cfg.YouTube.UpstreamBurst,
	}, logger.Named("search"))
	app.logger.Info("youtube platform configured",
		zap.Float64("upstream_rps", cfg.YouTube.UpstreamRPS),
		zap.Int("upstream_burst", cfg.YouTube.UpstreamBurst),
		zap.Duration("upstream_timeout", cfg.UpstreamTimeout()),
	)

	validator := media.NewValidator(cfg.Security.AllowedDomains, cfg.Security.ValidateURLs)

	assets, err := static.New(cfg.Server.StaticDir)
	if err != nil {
		return nil, fmt.Errorf("static assets init failed: %w", err)
	}

	app.apiServer = api.NewServer(api.Deps{
		VideoInfo: resolver.NewMetadata(validator, app.platform, resolver.MetadataConfig{
			MaxVideoFormats: cfg.YouTube.MaxVideoFormats,
			MaxAudioFormats: cfg.YouTube.MaxAudioFormats,
			Container:       cfg.YouTube.DefaultContainer,
			Timeout:         cfg.UpstreamTimeout(),
		}, logger.Named("resolver")),
		Search: resolver.NewSearch(searcher, resolver.SearchConfig{
			DefaultLimit: cfg.Search.DefaultLimit,
			MaxLimit:     cfg.Search.MaxLimit,
			Timeout:      cfg.UpstreamTimeout(),
		}),
		Downloads: download.New(validator, app.platform, download.Config{
			Timeout:             cfg.UpstreamTimeout(),
			Selectors:           download.DefaultSelectors(cfg.YouTube.DefaultContainer),
			DefaultVideoQuality: cfg.YouTube.DefaultVideoQuality,
			DefaultAudioQuality: cfg.YouTube.DefaultAudioQuality,
		}, logger.Named("download")),
		Limiter: limiter,
		Assets:  assets,
		Clock:   clock,
		IDs:     uuid.New(),
	}, *cfg, logger.Named("api"))

	return app, nil
}

func setupLimiter(ctx context.Context, app *App, clock ratelimit.Clock) (*ratelimit.Limiter, error) {
	var store ratelimit.Store
	switch app.cfg.RateLimit.Backend {
	case "redis":
		opts, err := redis.ParseURL(app.cfg.RateLimit.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("redis url parse failed: %w", err)
		}
		app.redisClient = redis.NewClient(opts)
		if err := app.redisClient.Ping(ctx).Err(); err != nil {
			// The limiter fails open, so an unreachable store is not fatal.
			app.logger.Warn("redis ping failed", zap.String("addr", opts.Addr), zap.Error(err))
		}
		store = ratelimit.NewRedisStore(app.redisClient, app.cfg.RateLimit.RedisPrefix, sha256.New(app.cfg.RateLimit.RedisPrefix))
		app.logger.Info("using redis rate limit store", zap.String("addr", opts.Addr))
	default:
		app.memoryStore = ratelimit.NewMemoryStore()
		store = app.memoryStore
		app.logger.Info("using in-memory rate limit store")
	}

	limiter, err := ratelimit.New(store, clock, ratelimit.Config{
		Window: app.cfg.RateLimitWindow(),
		Max:    app.cfg.RateLimit.Max,
	})
	if err != nil {
		return nil, fmt.Errorf("rate limiter init failed: %w", err)
	}
	app.logger.Info("rate limiter enabled",
		zap.Int("max", app.cfg.RateLimit.Max),
		zap.Duration("window", app.cfg.RateLimitWindow()),
	)
	return limiter, nil
}
