// Package download selects an encoding variant and either relays its bytes
// through the service or hands back the direct upstream URL.
package download

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/ytproxy/internal/deadline"
	"github.com/JakeFAU/ytproxy/internal/media"
	"github.com/JakeFAU/ytproxy/internal/metrics"
	"github.com/JakeFAU/ytproxy/internal/resolver"
)

const fallbackContentType = "application/octet-stream"

// Platform resolves videos and opens variant streams.
type Platform interface {
	Probe(ctx context.Context, id string) error
	Metadata(ctx context.Context, id string) (media.Video, error)
	Stream(ctx context.Context, id string, itag int) (io.ReadCloser, int64, error)
	StreamURL(ctx context.Context, id string, itag int) (string, error)
}

// Config tunes the dispatcher.
type Config struct {
	// Timeout bounds each metadata step; streaming itself has no timeout.
	Timeout   time.Duration
	Selectors []Selector
	// DefaultVideoQuality and DefaultAudioQuality stand in for a request
	// that names no quality.
	DefaultVideoQuality string
	DefaultAudioQuality string
}

// Dispatcher serves downloads.
type Dispatcher struct {
	validator    *media.Validator
	platform     Platform
	timeout      time.Duration
	selectors    []Selector
	videoQuality string
	audioQuality string
	logger       *zap.Logger
}

// New builds a Dispatcher. Nil selectors means DefaultSelectors("mp4").
func New(validator *media.Validator, platform Platform, cfg Config, logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	selectors := cfg.Selectors
	if selectors == nil {
		selectors = DefaultSelectors("mp4")
	}
	return &Dispatcher{
		validator:    validator,
		platform:     platform,
		timeout:      cfg.Timeout,
		selectors:    selectors,
		videoQuality: cfg.DefaultVideoQuality,
		audioQuality: cfg.DefaultAudioQuality,
		logger:       logger,
	}
}

// Selection is a resolved variant ready to serve.
type Selection struct {
	VideoID  string
	Title    string
	Format   media.Format
	Filename string
	Strategy string
}

// Link is the body of a direct-link response.
type Link struct {
	DownloadURL string
	Filename    string
	Format      LinkFormat
}

// LinkFormat describes the variant behind a Link.
type LinkFormat struct {
	Itag      int    `json:"itag"`
	Quality   string `json:"quality"`
	Container string `json:"container"`
	Filesize  int64  `json:"filesize,omitempty"`
	MimeType  string `json:"mimeType"`
}

// AbortError reports a failure after response headers were sent. The
// response cannot carry an error body; the connection should be dropped.
type AbortError struct {
	Err error
}

func (e *AbortError) Error() string { return "stream aborted: " + e.Err.Error() }

func (e *AbortError) Unwrap() error { return e.Err }

// Resolve validates rawURL, checks the video, and runs the selector chain.
func (d *Dispatcher) Resolve(ctx context.Context, rawURL string, req Request) (Selection, error) {
	id, err := resolver.ValidateURL(d.validator, rawURL)
	if err != nil {
		return Selection{}, err
	}
	if _, err := deadline.Do(ctx, d.timeout, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, d.platform.Probe(ctx, id)
	}); err != nil {
		return Selection{}, fmt.Errorf("probe: %w", err)
	}
	video, err := deadline.Do(ctx, d.timeout, func(ctx context.Context) (media.Video, error) {
		return d.platform.Metadata(ctx, id)
	})
	if err != nil {
		return Selection{}, fmt.Errorf("metadata: %w", err)
	}

	f, strategy, err := Select(d.selectors, video.Formats, d.withDefaults(req))
	if err != nil {
		return Selection{}, err
	}
	return Selection{
		VideoID:  id,
		Title:    video.Title,
		Format:   f,
		Filename: media.Filename(video.Title, f),
		Strategy: strategy,
	}, nil
}

func (d *Dispatcher) withDefaults(req Request) Request {
	if strings.TrimSpace(req.Quality) != "" {
		return req
	}
	if strings.EqualFold(req.Class, ClassAudio) {
		req.Quality = d.audioQuality
	} else {
		req.Quality = d.videoQuality
	}
	return req
}

// DirectLink resolves the variant and returns its upstream URL.
func (d *Dispatcher) DirectLink(ctx context.Context, rawURL string, req Request) (Link, error) {
	sel, err := d.Resolve(ctx, rawURL, req)
	if err != nil {
		return Link{}, err
	}
	u, err := deadline.Do(ctx, d.timeout, func(ctx context.Context) (string, error) {
		return d.platform.StreamURL(ctx, sel.VideoID, sel.Format.Itag)
	})
	if err != nil {
		return Link{}, fmt.Errorf("stream url: %w", err)
	}
	return Link{
		DownloadURL: u,
		Filename:    sel.Filename,
		Format: LinkFormat{
			Itag:      sel.Format.Itag,
			Quality:   sel.Format.Label(),
			Container: sel.Format.Container(),
			Filesize:  sel.Format.ContentLength,
			MimeType:  sel.Format.MimeType,
		},
	}, nil
}

// Stream resolves the variant and relays its bytes to w as an attachment.
// Errors returned before anything is written leave w untouched; once headers
// are out, failures come back as *AbortError. Cancelling ctx closes the
// upstream reader immediately.
func (d *Dispatcher) Stream(ctx context.Context, w http.ResponseWriter, rawURL string, req Request) error {
	sel, err := d.Resolve(ctx, rawURL, req)
	if err != nil {
		return err
	}
	rc, size, err := d.platform.Stream(ctx, sel.VideoID, sel.Format.Itag)
	if err != nil {
		return fmt.Errorf("open stream: %w", err)
	}
	defer rc.Close()
	stop := context.AfterFunc(ctx, func() { _ = rc.Close() })
	defer stop()

	class := trackClass(sel.Format)
	metrics.IncActiveDownloads()
	defer metrics.DecActiveDownloads()

	contentType := sel.Format.ContentType()
	if contentType == "" {
		contentType = fallbackContentType
	}
	h := w.Header()
	h.Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", sel.Filename))
	h.Set("Content-Type", contentType)
	h.Set("Cache-Control", "no-cache")
	if size > 0 {
		h.Set("Content-Length", strconv.FormatInt(size, 10))
	}
	w.WriteHeader(http.StatusOK)
	_ = http.NewResponseController(w).Flush()

	n, err := io.Copy(w, rc)
	switch {
	case err == nil:
		metrics.ObserveDownload(class, "ok", n)
		d.logger.Info("download complete",
			zap.String("video_id", sel.VideoID),
			zap.Int("itag", sel.Format.Itag),
			zap.String("strategy", sel.Strategy),
			zap.Int64("bytes", n),
		)
		return nil
	case ctx.Err() != nil:
		metrics.ObserveDownload(class, "client_closed", n)
		d.logger.Info("download cancelled by client",
			zap.String("video_id", sel.VideoID),
			zap.Int64("bytes", n),
		)
		return &AbortError{Err: ctx.Err()}
	default:
		metrics.ObserveDownload(class, "error", n)
		d.logger.Warn("download interrupted",
			zap.String("video_id", sel.VideoID),
			zap.Int64("bytes", n),
			zap.Error(err),
		)
		return &AbortError{Err: err}
	}
}

// IsAbort reports whether err happened after headers were sent.
func IsAbort(err error) bool {
	var abort *AbortError
	return errors.As(err, &abort)
}

func trackClass(f media.Format) string {
	if f.HasAudio() && !f.HasVideo() {
		return ClassAudio
	}
	return "video"
}
