package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/JakeFAU/ytproxy/internal/config"
	"github.com/JakeFAU/ytproxy/internal/download"
	"github.com/JakeFAU/ytproxy/internal/metrics"
	"github.com/JakeFAU/ytproxy/internal/policy/ratelimit"
	"github.com/JakeFAU/ytproxy/internal/resolver"
	"github.com/JakeFAU/ytproxy/internal/static"
)

// VideoInfoResolver answers video-info requests.
type VideoInfoResolver interface {
	Resolve(ctx context.Context, rawURL string) (resolver.VideoInfo, error)
}

// SearchRunner answers search requests.
type SearchRunner interface {
	Run(ctx context.Context, query string, limit int) (resolver.SearchPage, error)
}

// Downloader serves both download modes.
type Downloader interface {
	Stream(ctx context.Context, w http.ResponseWriter, rawURL string, req download.Request) error
	DirectLink(ctx context.Context, rawURL string, req download.Request) (download.Link, error)
}

// RateLimiter gates API calls per client.
type RateLimiter interface {
	Allow(ctx context.Context, key string) (ratelimit.Decision, error)
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}

// IDGenerator mints request IDs.
type IDGenerator interface {
	MustNewID() string
}

// Deps are the collaborators a Server dispatches to.
type Deps struct {
	VideoInfo VideoInfoResolver
	Search    SearchRunner
	Downloads Downloader
	Limiter   RateLimiter
	Assets    *static.Assets
	Clock     Clock
	IDs       IDGenerator
}

// Server wires HTTP handlers to the resolvers and dispatcher.
type Server struct {
	router  chi.Router
	deps    Deps
	cfg     config.Config
	logger  *zap.Logger
	started time.Time
}

// NewServer constructs a Server with middleware and routes.
func NewServer(deps Deps, cfg config.Config, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		deps:    deps,
		cfg:     cfg,
		logger:  logger,
		started: deps.Clock.Now(),
	}

	r := chi.NewRouter()
	r.Use(requestIDMiddleware(deps.IDs))
	if cfg.Server.TrustProxyHeaders {
		r.Use(middleware.RealIP)
	}
	if cfg.Logging.Requests {
		r.Use(s.loggingMiddleware)
	}
	r.Use(s.recoverMiddleware)
	r.Use(metrics.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{cfg.CORS.Origin},
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"Content-Disposition", "Retry-After", "X-RateLimit-Limit", "X-RateLimit-Remaining", "X-Request-ID"},
		AllowCredentials: cfg.CORS.Credentials,
		MaxAge:           300,
	}))

	r.Get("/health", s.health)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())
	if deps.Assets != nil {
		for _, rt := range static.Routes {
			r.Get(rt.Path, deps.Assets.Handler(rt))
		}
	}

	timeout := jsonTimeoutMiddleware(cfg.HandlerTimeout())
	// Only the named endpoints spend the client's budget; unmatched /api paths fall through to 404.
	r.Route("/api", func(r chi.Router) {
		r.With(s.rateLimitMiddleware, timeout).Post("/video-info", s.videoInfo)
		r.With(s.rateLimitMiddleware, timeout).Post("/search", s.search)
		r.With(s.rateLimitMiddleware, timeout).Post("/download-url", s.downloadURL)
		// Streaming is bounded only by the client connection.
		r.With(s.rateLimitMiddleware).Post("/download", s.download)
	})

	r.NotFound(s.notFound)
	r.MethodNotAllowed(s.notFound)

	s.router = r
	return s
}

// Handler returns the Router for use with http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}
