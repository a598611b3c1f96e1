// Package youtube adapts github.com/kkdai/youtube/v2 and
// github.com/raitonoberu/ytsearch to the media model.
//
// Outbound calls pass through a token-bucket throttle. Concurrent lookups of
// the same video share one upstream fetch, and the raw result is kept for a
// short TTL so the probe, metadata, and format steps of one request (and the
// follow-up download) cost a single round trip.
package youtube

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	yt "github.com/kkdai/youtube/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"github.com/JakeFAU/ytproxy/internal/cache"
	"github.com/JakeFAU/ytproxy/internal/media"
	"github.com/JakeFAU/ytproxy/internal/metrics"
)

// Upstream is the subset of *yt.Client the adapter relies on.
type Upstream interface {
	GetVideoContext(ctx context.Context, url string) (*yt.Video, error)
	GetStreamContext(ctx context.Context, video *yt.Video, format *yt.Format) (io.ReadCloser, int64, error)
	GetStreamURLContext(ctx context.Context, video *yt.Video, format *yt.Format) (string, error)
}

var _ Upstream = (*yt.Client)(nil)

// Config tunes the adapter.
type Config struct {
	// RPS caps outbound calls per second; zero or less disables the throttle.
	RPS   float64
	Burst int
	// CacheTTL keeps raw lookups around; zero disables caching.
	CacheTTL time.Duration
	// FetchTimeout bounds a shared metadata fetch independently of any one caller.
	FetchTimeout time.Duration
	HTTPClient   *http.Client
}

// Client resolves videos and streams through an Upstream.
type Client struct {
	upstream     Upstream
	limiter      *rate.Limiter
	group        singleflight.Group
	videos       *cache.Cache[*yt.Video]
	ttl          time.Duration
	fetchTimeout time.Duration
	logger       *zap.Logger
}

// New builds a Client backed by a real kkdai client.
func New(cfg Config, logger *zap.Logger) *Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return NewWithUpstream(&yt.Client{HTTPClient: httpClient}, cfg, logger)
}

// NewWithUpstream builds a Client around any Upstream.
func NewWithUpstream(up Upstream, cfg Config, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		upstream:     up,
		limiter:      newThrottle(cfg.RPS, cfg.Burst),
		videos:       cache.New[*yt.Video](),
		ttl:          cfg.CacheTTL,
		fetchTimeout: cfg.FetchTimeout,
		logger:       logger,
	}
}

func newThrottle(rps float64, burst int) *rate.Limiter {
	if rps <= 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}
	if burst <= 0 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(rps), burst)
}

// Sweep drops expired lookups and returns how many were removed.
func (c *Client) Sweep() int {
	return c.videos.Sweep()
}

// Probe confirms the video exists and is accessible.
func (c *Client) Probe(ctx context.Context, id string) error {
	_, err := c.video(ctx, id)
	return err
}

// Metadata returns the full raw record for id.
func (c *Client) Metadata(ctx context.Context, id string) (media.Video, error) {
	v, err := c.video(ctx, id)
	if err != nil {
		return media.Video{}, err
	}
	return toVideo(v), nil
}

// Formats returns the raw variant list for id in upstream order.
func (c *Client) Formats(ctx context.Context, id string) ([]media.Format, error) {
	v, err := c.video(ctx, id)
	if err != nil {
		return nil, err
	}
	return toFormats(v.Formats), nil
}

// Stream opens the byte stream of variant itag. The returned size is -1 or 0
// when unknown. Closing the reader or cancelling ctx stops the transfer.
func (c *Client) Stream(ctx context.Context, id string, itag int) (io.ReadCloser, int64, error) {
	v, f, err := c.variant(ctx, id, itag)
	if err != nil {
		return nil, 0, err
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, 0, fmt.Errorf("throttle: %w", err)
	}
	start := time.Now()
	rc, size, err := c.upstream.GetStreamContext(ctx, v, f)
	metrics.ObserveUpstream("stream", outcome(err), time.Since(start))
	if err != nil {
		return nil, 0, fmt.Errorf("open stream %s/%d: %w", id, itag, classify(err))
	}
	return rc, size, nil
}

// StreamURL resolves the direct media URL of variant itag.
func (c *Client) StreamURL(ctx context.Context, id string, itag int) (string, error) {
	v, f, err := c.variant(ctx, id, itag)
	if err != nil {
		return "", err
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("throttle: %w", err)
	}
	start := time.Now()
	u, err := c.upstream.GetStreamURLContext(ctx, v, f)
	metrics.ObserveUpstream("stream_url", outcome(err), time.Since(start))
	if err != nil {
		return "", fmt.Errorf("resolve stream url %s/%d: %w", id, itag, classify(err))
	}
	return u, nil
}

func (c *Client) variant(ctx context.Context, id string, itag int) (*yt.Video, *yt.Format, error) {
	v, err := c.video(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	for i := range v.Formats {
		if v.Formats[i].ItagNo == itag {
			f := v.Formats[i]
			return v, &f, nil
		}
	}
	return nil, nil, fmt.Errorf("itag %d: %w", itag, media.ErrNoFormat)
}

// video returns the raw record for id, sharing in-flight fetches and reusing
// recent results. The shared fetch is detached from the caller so one
// caller giving up does not fail the others.
func (c *Client) video(ctx context.Context, id string) (*yt.Video, error) {
	if v, ok := c.videos.Get(id); ok {
		metrics.ObserveUpstream("video", "cache_hit", 0)
		return v, nil
	}

	ch := c.group.DoChan(id, func() (any, error) {
		fetchCtx, cancel := c.detached(ctx)
		defer cancel()
		return c.fetch(fetchCtx, id)
	})

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("lookup %s: %w", id, ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		if res.Shared {
			c.logger.Debug("video lookup coalesced", zap.String("video_id", id))
		}
		return res.Val.(*yt.Video), nil
	}
}

func (c *Client) detached(ctx context.Context) (context.Context, context.CancelFunc) {
	base := context.WithoutCancel(ctx)
	if c.fetchTimeout > 0 {
		return context.WithTimeout(base, c.fetchTimeout)
	}
	return context.WithCancel(base)
}

func (c *Client) fetch(ctx context.Context, id string) (*yt.Video, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("throttle: %w", err)
	}
	start := time.Now()
	v, err := c.upstream.GetVideoContext(ctx, id)
	metrics.ObserveUpstream("video", outcome(err), time.Since(start))
	if err != nil {
		c.logger.Debug("video lookup failed", zap.String("video_id", id), zap.Error(err))
		return nil, fmt.Errorf("lookup %s: %w", id, classify(err))
	}
	c.videos.Set(id, v, c.ttl)
	return v, nil
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return "timeout"
	}
	switch classified := classify(err); {
	case errors.Is(classified, media.ErrRestricted):
		return "restricted"
	case errors.Is(classified, media.ErrNotFound):
		return "not_found"
	default:
		return "error"
	}
}
