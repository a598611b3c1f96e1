package youtube

import (
	"context"
	"fmt"
	"time"

	"github.com/raitonoberu/ytsearch"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/JakeFAU/ytproxy/internal/media"
	"github.com/JakeFAU/ytproxy/internal/metrics"
)

// SearchFunc runs one keyword query upstream.
type SearchFunc func(query string) ([]media.SearchHit, error)

// Searcher runs keyword searches.
type Searcher struct {
	search  SearchFunc
	limiter *rate.Limiter
	logger  *zap.Logger
}

// NewSearcher builds a Searcher backed by ytsearch.
func NewSearcher(cfg Config, logger *zap.Logger) *Searcher {
	return NewSearcherWithFunc(videoSearch, cfg, logger)
}

// NewSearcherWithFunc builds a Searcher around an arbitrary SearchFunc.
func NewSearcherWithFunc(fn SearchFunc, cfg Config, logger *zap.Logger) *Searcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Searcher{search: fn, limiter: newThrottle(cfg.RPS, cfg.Burst), logger: logger}
}

// Search returns every hit from the first result page in upstream rank order.
// The upstream library takes no context, so cancellation only stops the wait.
func (s *Searcher) Search(ctx context.Context, query string) ([]media.SearchHit, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("throttle: %w", err)
	}
	start := time.Now()
	hits, err := s.search(query)
	metrics.ObserveUpstream("search", outcome(err), time.Since(start))
	if err != nil {
		s.logger.Debug("search failed", zap.String("query", query), zap.Error(err))
		return nil, fmt.Errorf("search %q: %w", query, err)
	}
	return hits, nil
}

func videoSearch(query string) ([]media.SearchHit, error) {
	page, err := ytsearch.VideoSearch(query).Next()
	if err != nil {
		return nil, err
	}
	hits := make([]media.SearchHit, 0, len(page.Videos))
	for _, v := range page.Videos {
		hits = append(hits, toSearchHit(v))
	}
	return hits, nil
}

func toSearchHit(v *ytsearch.VideoItem) media.SearchHit {
	hit := media.SearchHit{
		ID:              v.ID,
		Title:           v.Title,
		Description:     v.Description,
		DurationSeconds: v.Duration,
		Views:           int64(v.ViewCount),
		Author:          v.Channel.Title,
		PublishedAgo:    v.PublishedTime,
	}
	if n := len(v.Thumbnails); n > 0 {
		hit.Thumbnail = v.Thumbnails[n-1].URL
	}
	return hit
}
