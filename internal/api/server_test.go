package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/JakeFAU/ytproxy/internal/config"
	"github.com/JakeFAU/ytproxy/internal/download"
	"github.com/JakeFAU/ytproxy/internal/media"
	"github.com/JakeFAU/ytproxy/internal/policy/ratelimit"
	"github.com/JakeFAU/ytproxy/internal/resolver"
	"github.com/JakeFAU/ytproxy/internal/static"
)

const watchURL = "https://www.youtube.com/watch?v=dQw4w9WgXcQ"

func TestServer_Health(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	srv := newTestServer(t, withClock(clock))
	clock.Advance(5 * time.Second)

	rec := do(t, srv, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body healthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "OK", body.Status)
	require.InDelta(t, 5.0, body.Uptime, 0.001)
	require.Equal(t, "2023-11-14T22:13:25Z", body.Timestamp)
}

func TestServer_VideoInfo(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)
	rec := do(t, srv, http.MethodPost, "/api/video-info", `{"url":"`+watchURL+`"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body struct {
		Success bool `json:"success"`
		Video   struct {
			ID       string `json:"id"`
			Duration string `json:"duration"`
			Views    string `json:"views"`
		} `json:"video"`
		Formats struct {
			Video []media.Variant `json:"video"`
			Audio []media.Variant `json:"audio"`
		} `json:"formats"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.True(t, body.Success)
	require.Equal(t, "dQw4w9WgXcQ", body.Video.ID)
	require.Equal(t, "3:33", body.Video.Duration)
	require.Equal(t, "1.5M", body.Video.Views)
	require.Len(t, body.Formats.Video, 2)
	require.Len(t, body.Formats.Audio, 1)
}

func TestServer_VideoInfoInputErrors(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)
	tests := []struct {
		name string
		body string
		want string
	}{
		{name: "empty body", body: "", want: "URL is required"},
		{name: "missing url", body: `{}`, want: "URL is required"},
		{name: "foreign host", body: `{"url":"https://evil.com/watch?v=12345678901"}`, want: "Invalid YouTube URL"},
		{name: "bad json", body: `{"url":`, want: "Invalid JSON body"},
	}
	for _, tc := range tests {
		rec := do(t, srv, http.MethodPost, "/api/video-info", tc.body)
		require.Equal(t, http.StatusBadRequest, rec.Code, tc.name)
		require.Equal(t, tc.want, decodeError(t, rec).Error, tc.name)
	}
}

func TestServer_ValidationFailuresAreDistinct(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, withPlatform(&fakePlatform{probeErr: fmt.Errorf("lookup: %w", media.ErrNotFound)}))
	rec := do(t, srv, http.MethodPost, "/api/video-info", `{"url":"`+watchURL+`"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "Video not found or unavailable", decodeError(t, rec).Error)

	srv = newTestServer(t, withPlatform(&fakePlatform{probeErr: fmt.Errorf("lookup: %w", media.ErrRestricted)}))
	rec = do(t, srv, http.MethodPost, "/api/video-info", `{"url":"`+watchURL+`"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeError(t, rec)
	require.Contains(t, body.Error, "private, restricted")
	require.Contains(t, body.Details, "restricted")
}

func TestServer_UpstreamErrorTextHiddenInProduction(t *testing.T) {
	t.Parallel()

	p := &fakePlatform{metaErr: errors.New("player response: signature cipher 0xdeadbeef")}

	dev := newTestServer(t, withPlatform(p))
	rec := do(t, dev, http.MethodPost, "/api/video-info", `{"url":"`+watchURL+`"}`)
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decodeError(t, rec)
	require.Equal(t, "Failed to get video information", body.Error)
	require.Contains(t, body.Message, "0xdeadbeef")

	prod := newTestServer(t, withPlatform(p), withConfig(func(c *config.Config) { c.Environment = config.EnvironmentProduction }))
	rec = do(t, prod, http.MethodPost, "/api/video-info", `{"url":"`+watchURL+`"}`)
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.NotContains(t, rec.Body.String(), "0xdeadbeef")
}

func TestServer_RateLimit(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	srv := newTestServer(t, withClock(clock))

	for i := 0; i < 10; i++ {
		rec := do(t, srv, http.MethodPost, "/api/video-info", `{"url":"`+watchURL+`"}`)
		require.Equal(t, http.StatusOK, rec.Code, "request %d", i+1)
		require.Equal(t, "10", rec.Header().Get("X-RateLimit-Limit"))
		require.Equal(t, fmt.Sprint(9-i), rec.Header().Get("X-RateLimit-Remaining"))
	}

	rec := do(t, srv, http.MethodPost, "/api/video-info", `{"url":"`+watchURL+`"}`)
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	require.Equal(t, "60", rec.Header().Get("Retry-After"))
	var body rateLimitResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, 60, body.RetryAfter)
	require.Equal(t, "Too many requests. Please try again later.", body.Error)

	// Non-API routes are not gated.
	require.Equal(t, http.StatusOK, do(t, srv, http.MethodGet, "/health", "").Code)

	clock.Advance(60 * time.Second)
	rec = do(t, srv, http.MethodPost, "/api/video-info", `{"url":"`+watchURL+`"}`)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestServer_UnmatchedAPIPathsAreNotRateLimited(t *testing.T) {
	t.Parallel()

	limiter := &recordingLimiter{}
	srv := newTestServer(t, withLimiter(limiter))
	for _, tc := range []struct{ method, path string }{
		{http.MethodPost, "/api/nope"},
		{http.MethodGet, "/api/video-info"},
		{http.MethodGet, "/api/download"},
	} {
		rec := do(t, srv, tc.method, tc.path, "")
		require.Equal(t, http.StatusNotFound, rec.Code, "%s %s", tc.method, tc.path)
		require.Equal(t, "Endpoint not found", decodeError(t, rec).Error)
		require.Empty(t, rec.Header().Get("X-RateLimit-Limit"))
	}
	require.Empty(t, limiter.keys())
}

func TestServer_UnmatchedAPIPathsAfterBudgetSpent(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)
	for i := 0; i < 10; i++ {
		require.Equal(t, http.StatusOK, do(t, srv, http.MethodPost, "/api/video-info", `{"url":"`+watchURL+`"}`).Code)
	}
	require.Equal(t, http.StatusTooManyRequests, do(t, srv, http.MethodPost, "/api/video-info", `{"url":"`+watchURL+`"}`).Code)

	require.Equal(t, http.StatusNotFound, do(t, srv, http.MethodPost, "/api/nope", "").Code)
	require.Equal(t, http.StatusNotFound, do(t, srv, http.MethodGet, "/api/video-info", "").Code)
}

func TestServer_DownloadURLUsesConfiguredDefaultQuality(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, withConfig(func(c *config.Config) { c.YouTube.DefaultVideoQuality = "360p" }))
	rec := do(t, srv, http.MethodPost, "/api/download-url", `{"url":"`+watchURL+`"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var body downloadURLResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, 18, body.Format.Itag)

	rec = do(t, srv, http.MethodPost, "/api/download-url", `{"url":"`+watchURL+`","quality":"720p"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, 22, body.Format.Itag)
}

func TestServer_RateLimitFailsOpen(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, withLimiter(erroringLimiter{}))
	rec := do(t, srv, http.MethodPost, "/api/video-info", `{"url":"`+watchURL+`"}`)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestServer_Search(t *testing.T) {
	t.Parallel()

	var hits []media.SearchHit
	for i := 0; i < 25; i++ {
		hits = append(hits, media.SearchHit{ID: fmt.Sprintf("vid%08d", i), Title: "t", DurationSeconds: 9, Views: 999})
	}
	srv := newTestServer(t, withSearcher(fakeSearcher{hits: hits}))

	rec := do(t, srv, http.MethodPost, "/api/search", `{"query":"lofi","limit":100}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var body searchResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.True(t, body.Success)
	require.Equal(t, "lofi", body.Query)
	require.Len(t, body.Results, 20)
	require.Equal(t, 25, body.TotalResults)
	require.Equal(t, "0:09", body.Results[0].Duration)
	require.Equal(t, "999", body.Results[0].Views)

	rec = do(t, srv, http.MethodPost, "/api/search", `{"query":""}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "Search query is required", decodeError(t, rec).Error)
}

func TestServer_SearchUpstreamFailure(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, withSearcher(fakeSearcher{err: errors.New("consent wall")}))
	rec := do(t, srv, http.MethodPost, "/api/search", `{"query":"x"}`)
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Equal(t, "Failed to search videos", decodeError(t, rec).Error)
}

func TestServer_DownloadStreams(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)
	rec := do(t, srv, http.MethodPost, "/api/download", `{"url":"`+watchURL+`","format":"audio"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, `attachment; filename="Test_Video.m4a"`, rec.Header().Get("Content-Disposition"))
	require.Equal(t, "audio/mp4", rec.Header().Get("Content-Type"))
	require.Equal(t, "no-cache", rec.Header().Get("Cache-Control"))
	require.Equal(t, "payload-140", rec.Body.String())
}

func TestServer_DownloadErrorBeforeHeaders(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, withPlatform(&fakePlatform{streamErr: errors.New("googlevideo 403")}))
	rec := do(t, srv, http.MethodPost, "/api/download", `{"url":"`+watchURL+`"}`)
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Equal(t, "Failed to download video", decodeError(t, rec).Error)
	require.Empty(t, rec.Header().Get("Content-Disposition"))
}

func TestServer_DownloadAbortsAfterHeaders(t *testing.T) {
	t.Parallel()

	p := &fakePlatform{midStreamErr: errors.New("connection reset by upstream")}
	ts := httptest.NewServer(newTestServer(t, withPlatform(p)).Handler())
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/api/download", "application/json", strings.NewReader(`{"url":"`+watchURL+`"}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	_, err = io.ReadAll(resp.Body)
	require.Error(t, err, "truncated stream must surface as a read error")
}

func TestServer_DownloadURL(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)
	rec := do(t, srv, http.MethodPost, "/api/download-url", `{"url":"`+watchURL+`","itag":"18","format":"audio"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var body downloadURLResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.True(t, body.Success)
	require.Equal(t, "https://rr.example/videoplayback?itag=18", body.DownloadURL)
	require.Equal(t, "Test_Video.mp4", body.Filename)
	require.Equal(t, 18, body.Format.Itag)
	require.Equal(t, "360p", body.Format.Quality)

	rec = do(t, srv, http.MethodPost, "/api/download-url", `{"url":"`+watchURL+`","itag":4242}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "No suitable format found", decodeError(t, rec).Error)

	rec = do(t, srv, http.MethodPost, "/api/download-url", `{"url":"`+watchURL+`","itag":"abc"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServer_NotFound(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)
	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/nope"},
		{http.MethodPost, "/api/unknown"},
		{http.MethodGet, "/api/search"},
		{http.MethodPost, "/health"},
	} {
		rec := do(t, srv, tc.method, tc.path, "")
		require.Equal(t, http.StatusNotFound, rec.Code, "%s %s", tc.method, tc.path)
		require.Equal(t, "Endpoint not found", decodeError(t, rec).Error)
	}
}

func TestServer_StaticAssets(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)
	rec := do(t, srv, http.MethodGet, "/robots.txt", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "User-agent")

	rec = do(t, srv, http.MethodGet, "/sw.js", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "no-cache", rec.Header().Get("Cache-Control"))
}

func TestServer_MetricsEndpoint(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)
	do(t, srv, http.MethodGet, "/health", "")
	rec := do(t, srv, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "http_requests_total")
}

func TestServer_CORS(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, withConfig(func(c *config.Config) { c.CORS.Origin = "https://app.example.com" }))
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "https://app.example.com")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	require.Equal(t, "https://app.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
	require.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
}

func TestServer_RealIPKeysLimiter(t *testing.T) {
	t.Parallel()

	limiter := &recordingLimiter{}
	srv := newTestServer(t, withLimiter(limiter), withConfig(func(c *config.Config) { c.Server.TrustProxyHeaders = true }))
	req := httptest.NewRequest(http.MethodPost, "/api/search", strings.NewReader(`{"query":"q"}`))
	req.Header.Set("X-Real-IP", "203.0.113.7")
	srv.Handler().ServeHTTP(httptest.NewRecorder(), req)
	require.Equal(t, []string{"203.0.113.7"}, limiter.keys())
}

func TestServer_RecoversPanics(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, withSearchRunner(panicRunner{}))
	rec := do(t, srv, http.MethodPost, "/api/search", `{"query":"boom"}`)
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Equal(t, "Internal server error", decodeError(t, rec).Error)
}

func TestRequestIDMiddlewareSetsHeader(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)
	rec := do(t, srv, http.MethodGet, "/health", "")
	require.Equal(t, "req-fixed", rec.Header().Get("X-Request-ID"))
}

func TestFlexItag(t *testing.T) {
	t.Parallel()

	for in, want := range map[string]int{`{"itag":18}`: 18, `{"itag":"22"}`: 22, `{"itag":null}`: 0, `{"itag":""}`: 0, `{}`: 0} {
		var req downloadRequest
		require.NoError(t, json.Unmarshal([]byte(in), &req), in)
		require.Equal(t, want, int(req.Itag), in)
	}
	var req downloadRequest
	require.Error(t, json.Unmarshal([]byte(`{"itag":"x"}`), &req))
}

// --- helpers/fakes ---

type testOptions struct {
	clock    *fakeClock
	platform *fakePlatform
	searcher resolver.Searcher
	limiter  RateLimiter
	runner   SearchRunner
	mutate   []func(*config.Config)
}

type testOption func(*testOptions)

func withClock(c *fakeClock) testOption { return func(o *testOptions) { o.clock = c } }
func withPlatform(p *fakePlatform) testOption { return func(o *testOptions) { o.platform = p } }
func withSearcher(s resolver.Searcher) testOption { return func(o *testOptions) { o.searcher = s } }
func withLimiter(l RateLimiter) testOption { return func(o *testOptions) { o.limiter = l } }
func withSearchRunner(r SearchRunner) testOption { return func(o *testOptions) { o.runner = r } }
func withConfig(fn func(*config.Config)) testOption {
	return func(o *testOptions) { o.mutate = append(o.mutate, fn) }
}

func newTestServer(t *testing.T, opts ...testOption) *Server {
	t.Helper()

	o := testOptions{
		clock:    &fakeClock{now: time.Unix(1_700_000_000, 0)},
		platform: &fakePlatform{},
		searcher: fakeSearcher{},
	}
	for _, opt := range opts {
		opt(&o)
	}

	cfg, err := config.Load("")
	require.NoError(t, err)
	cfg.Logging.Requests = false
	for _, fn := range o.mutate {
		fn(&cfg)
	}

	if o.limiter == nil {
		l, err := ratelimit.New(ratelimit.NewMemoryStore(), o.clock, ratelimit.Config{
			Window: cfg.RateLimitWindow(),
			Max:    cfg.RateLimit.Max,
		})
		require.NoError(t, err)
		o.limiter = l
	}

	validator := media.NewValidator(cfg.Security.AllowedDomains, cfg.Security.ValidateURLs)
	assets, err := static.New("")
	require.NoError(t, err)

	deps := Deps{
		VideoInfo: resolver.NewMetadata(validator, o.platform, resolver.MetadataConfig{
			MaxVideoFormats: cfg.YouTube.MaxVideoFormats,
			MaxAudioFormats: cfg.YouTube.MaxAudioFormats,
			Container:       cfg.YouTube.DefaultContainer,
			Timeout:         time.Second,
		}, zap.NewNop()),
		Search: resolver.NewSearch(o.searcher, resolver.SearchConfig{
			DefaultLimit: cfg.Search.DefaultLimit,
			MaxLimit:     cfg.Search.MaxLimit,
			Timeout:      time.Second,
		}),
		Downloads: download.New(validator, o.platform, download.Config{
			Timeout:             time.Second,
			DefaultVideoQuality: cfg.YouTube.DefaultVideoQuality,
			DefaultAudioQuality: cfg.YouTube.DefaultAudioQuality,
		}, zap.NewNop()),
		Limiter:   o.limiter,
		Assets:    assets,
		Clock:     o.clock,
		IDs:       fixedIDs{},
	}
	if o.runner != nil {
		deps.Search = o.runner
	}
	return NewServer(deps, cfg, zap.NewNop())
}

func do(t *testing.T, srv *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = bytes.NewBufferString(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorResponse {
	t.Helper()
	var body errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return body
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type fixedIDs struct{}

func (fixedIDs) MustNewID() string { return "req-fixed" }

type fakePlatform struct {
	probeErr     error
	metaErr      error
	streamErr    error
	midStreamErr error
}

func (p *fakePlatform) video() media.Video {
	return media.Video{
		ID:       "dQw4w9WgXcQ",
		Title:    "Test Video!",
		Views:    1_500_000,
		Duration: 213 * time.Second,
		Formats: []media.Format{
			{Itag: 18, MimeType: `video/mp4; codecs="avc1.42001E, mp4a.40.2"`, QualityLabel: "360p", Height: 360, AudioChannels: 2},
			{Itag: 22, MimeType: `video/mp4; codecs="avc1.64001F, mp4a.40.2"`, QualityLabel: "720p", Height: 720, AudioChannels: 2},
			{Itag: 137, MimeType: `video/mp4; codecs="avc1.640028"`, QualityLabel: "1080p", Height: 1080},
			{Itag: 140, MimeType: `audio/mp4; codecs="mp4a.40.2"`, Bitrate: 128_000, AudioChannels: 2},
		},
	}
}

func (p *fakePlatform) Probe(context.Context, string) error { return p.probeErr }

func (p *fakePlatform) Metadata(context.Context, string) (media.Video, error) {
	if p.metaErr != nil {
		return media.Video{}, p.metaErr
	}
	return p.video(), nil
}

func (p *fakePlatform) Formats(context.Context, string) ([]media.Format, error) {
	return p.video().Formats, nil
}

func (p *fakePlatform) Stream(_ context.Context, _ string, itag int) (io.ReadCloser, int64, error) {
	if p.streamErr != nil {
		return nil, 0, p.streamErr
	}
	if p.midStreamErr != nil {
		return io.NopCloser(io.MultiReader(strings.NewReader("partial"), errReader{p.midStreamErr})), 0, nil
	}
	body := fmt.Sprintf("payload-%d", itag)
	return io.NopCloser(strings.NewReader(body)), int64(len(body)), nil
}

func (p *fakePlatform) StreamURL(_ context.Context, _ string, itag int) (string, error) {
	return fmt.Sprintf("https://rr.example/videoplayback?itag=%d", itag), nil
}

type errReader struct{ err error }

func (e errReader) Read([]byte) (int, error) { return 0, e.err }

type fakeSearcher struct {
	hits []media.SearchHit
	err  error
}

func (f fakeSearcher) Search(context.Context, string) ([]media.SearchHit, error) {
	return f.hits, f.err
}

type panicRunner struct{}

func (panicRunner) Run(context.Context, string, int) (resolver.SearchPage, error) {
	panic("search exploded")
}

type erroringLimiter struct{}

func (erroringLimiter) Allow(context.Context, string) (ratelimit.Decision, error) {
	return ratelimit.Decision{Allowed: true, Limit: 10, Remaining: 10}, errors.New("redis: connection refused")
}

type recordingLimiter struct {
	mu   sync.Mutex
	seen []string
}

func (l *recordingLimiter) Allow(_ context.Context, key string) (ratelimit.Decision, error) {
	l.mu.Lock()
	l.seen = append(l.seen, key)
	l.mu.Unlock()
	return ratelimit.Decision{Allowed: true, Limit: 1, Remaining: 1}, nil
}

func (l *recordingLimiter) keys() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.seen...)
}
