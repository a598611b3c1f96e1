package resolver

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/JakeFAU/ytproxy/internal/deadline"
	"github.com/JakeFAU/ytproxy/internal/media"
)

// Searcher runs a keyword query upstream.
type Searcher interface {
	Search(ctx context.Context, query string) ([]media.SearchHit, error)
}

// SearchConfig holds result-count bounds.
type SearchConfig struct {
	DefaultLimit int
	MaxLimit     int
	Timeout      time.Duration
}

// SearchPage is the body of a successful search.
type SearchPage struct {
	Query   string
	Results []media.SearchResult
	// TotalResults counts upstream hits before truncation.
	TotalResults int
}

// Search resolves keyword searches.
type Search struct {
	searcher Searcher
	cfg      SearchConfig
}

// NewSearch builds a Search resolver.
func NewSearch(searcher Searcher, cfg SearchConfig) *Search {
	return &Search{searcher: searcher, cfg: cfg}
}

// Limit normalises a requested result count: non-positive means the
// default, anything above the ceiling is clamped.
func (s *Search) Limit(requested int) int {
	limit := requested
	if limit <= 0 {
		limit = s.cfg.DefaultLimit
	}
	if s.cfg.MaxLimit > 0 && limit > s.cfg.MaxLimit {
		limit = s.cfg.MaxLimit
	}
	return limit
}

// Run executes query and returns at most Limit(limit) results.
func (s *Search) Run(ctx context.Context, query string, limit int) (SearchPage, error) {
	if strings.TrimSpace(query) == "" {
		return SearchPage{}, ErrQueryRequired
	}
	hits, err := deadline.Do(ctx, s.cfg.Timeout, func(ctx context.Context) ([]media.SearchHit, error) {
		return s.searcher.Search(ctx, query)
	})
	if err != nil {
		return SearchPage{}, fmt.Errorf("search: %w", err)
	}

	n := min(s.Limit(limit), len(hits))
	results := make([]media.SearchResult, 0, n)
	for _, h := range hits[:n] {
		results = append(results, media.ToSearchResult(h))
	}
	return SearchPage{Query: query, Results: results, TotalResults: len(hits)}, nil
}
