// Package resolver turns validated requests into video-info and search
// responses. Every upstream step runs under deadline.Do so no request waits
// on the platform longer than the configured timeout.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/ytproxy/internal/deadline"
	"github.com/JakeFAU/ytproxy/internal/media"
)

var (
	// ErrURLRequired is returned for a blank URL.
	ErrURLRequired = errors.New("url is required")
	// ErrQueryRequired is returned for a blank search query.
	ErrQueryRequired = errors.New("search query is required")
)

// Platform fetches metadata and variants for a video id.
type Platform interface {
	Probe(ctx context.Context, id string) error
	Metadata(ctx context.Context, id string) (media.Video, error)
	Formats(ctx context.Context, id string) ([]media.Format, error)
}

// MetadataConfig bounds the video-info response.
type MetadataConfig struct {
	MaxVideoFormats int
	MaxAudioFormats int
	// Container restricts the video list, e.g. "mp4".
	Container string
	Timeout   time.Duration
}

// VideoInfo is the body of a successful video-info lookup.
type VideoInfo struct {
	Video   media.VideoSummary
	Formats media.FormatSet
	// Degraded is set when the variant list fell back to defaults.
	Degraded bool
}

// FallbackFormats is served when the variant list cannot be fetched.
func FallbackFormats() media.FormatSet {
	return media.FormatSet{
		Video: []media.Variant{
			{Itag: 18, Quality: "360p", Container: "mp4"},
			{Itag: 22, Quality: "720p", Container: "mp4"},
		},
		Audio: []media.Variant{
			{Itag: 140, Quality: "128kbps", Container: "mp3"},
		},
	}
}

// Metadata resolves video-info requests.
type Metadata struct {
	validator *media.Validator
	platform  Platform
	cfg       MetadataConfig
	logger    *zap.Logger
}

// NewMetadata builds a Metadata resolver.
func NewMetadata(validator *media.Validator, platform Platform, cfg MetadataConfig, logger *zap.Logger) *Metadata {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Metadata{validator: validator, platform: platform, cfg: cfg, logger: logger}
}

// Resolve validates rawURL, confirms the video is reachable, and returns its
// summary plus capped variant lists. Only a failure of the variant fetch is
// tolerated; it degrades to FallbackFormats.
func (m *Metadata) Resolve(ctx context.Context, rawURL string) (VideoInfo, error) {
	id, err := ValidateURL(m.validator, rawURL)
	if err != nil {
		return VideoInfo{}, err
	}

	if _, err := deadline.Do(ctx, m.cfg.Timeout, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, m.platform.Probe(ctx, id)
	}); err != nil {
		return VideoInfo{}, fmt.Errorf("probe: %w", err)
	}

	video, err := deadline.Do(ctx, m.cfg.Timeout, func(ctx context.Context) (media.Video, error) {
		return m.platform.Metadata(ctx, id)
	})
	if err != nil {
		return VideoInfo{}, fmt.Errorf("metadata: %w", err)
	}

	info := VideoInfo{Video: media.Summarize(video)}
	formats, err := deadline.Do(ctx, m.cfg.Timeout, func(ctx context.Context) ([]media.Format, error) {
		return m.platform.Formats(ctx, id)
	})
	if err != nil {
		m.logger.Warn("variant list unavailable, serving fallback formats",
			zap.String("video_id", id),
			zap.Error(err),
		)
		info.Formats = FallbackFormats()
		info.Degraded = true
		return info, nil
	}
	info.Formats = m.partition(formats)
	return info, nil
}

// partition splits formats into capped video and audio lists, keeping
// upstream order.
func (m *Metadata) partition(formats []media.Format) media.FormatSet {
	set := media.FormatSet{
		Video: []media.Variant{},
		Audio: []media.Variant{},
	}
	for _, f := range formats {
		switch {
		case f.HasAudio() && f.HasVideo() && strings.EqualFold(f.Container(), m.cfg.Container):
			if len(set.Video) < m.cfg.MaxVideoFormats {
				set.Video = append(set.Video, media.ToVariant(f))
			}
		case f.HasAudio() && !f.HasVideo():
			if len(set.Audio) < m.cfg.MaxAudioFormats {
				set.Audio = append(set.Audio, media.ToVariant(f))
			}
		}
	}
	return set
}

// ValidateURL checks rawURL against validator and returns the video id.
func ValidateURL(validator *media.Validator, rawURL string) (string, error) {
	if strings.TrimSpace(rawURL) == "" {
		return "", ErrURLRequired
	}
	id, ok := validator.ExtractID(rawURL)
	if !ok {
		return "", media.ErrInvalidURL
	}
	return id, nil
}
