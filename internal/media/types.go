package media

import (
	"math"
	"strings"
	"time"
)

// Video is the raw metadata record returned by a platform client.
type Video struct {
	ID          string
	Title       string
	Description string
	Author      string
	Views       int64
	Duration    time.Duration
	PublishDate time.Time
	// Thumbnails are ordered smallest first.
	Thumbnails []string
	IsLive     bool
	Formats    []Format
}

// Format is one raw encoding variant as reported upstream.
type Format struct {
	Itag          int
	URL           string
	MimeType      string
	Quality       string
	QualityLabel  string
	Bitrate       int
	FPS           int
	Width         int
	Height        int
	ContentLength int64
	AudioChannels int
}

// Container returns the container named by the mime subtype, e.g. "mp4" for
// `video/mp4; codecs="avc1.42001E, mp4a.40.2"`.
func (f Format) Container() string {
	mime := f.MimeType
	if i := strings.IndexByte(mime, ';'); i >= 0 {
		mime = mime[:i]
	}
	_, sub, ok := strings.Cut(strings.TrimSpace(mime), "/")
	if !ok {
		return ""
	}
	return strings.ToLower(sub)
}

// ContentType returns the bare mime type without codec parameters.
func (f Format) ContentType() string {
	mime, _, _ := strings.Cut(f.MimeType, ";")
	return strings.TrimSpace(mime)
}

// HasVideo reports whether the variant carries a video track.
func (f Format) HasVideo() bool {
	return strings.HasPrefix(f.MimeType, "video/") || f.Height > 0
}

// HasAudio reports whether the variant carries an audio track.
func (f Format) HasAudio() bool {
	return strings.HasPrefix(f.MimeType, "audio/") || f.AudioChannels > 0
}

// AudioKbps approximates the audio bitrate in kbit/s for audio-only variants.
func (f Format) AudioKbps() int {
	if f.Bitrate <= 0 {
		return 0
	}
	return int(math.Round(float64(f.Bitrate) / 1000))
}

// Label is the human-readable quality: the vertical resolution label for
// video, "<n>kbps" for audio-only, otherwise the coarse upstream quality.
func (f Format) Label() string {
	switch {
	case f.QualityLabel != "":
		return f.QualityLabel
	case f.HasAudio() && !f.HasVideo() && f.AudioKbps() > 0:
		return formatKbps(f.AudioKbps())
	case f.Quality != "":
		return f.Quality
	default:
		return "Unknown"
	}
}

// SearchHit is a raw keyword-search record.
type SearchHit struct {
	ID              string
	Title           string
	Description     string
	Thumbnail       string
	DurationSeconds int
	Views           int64
	Author          string
	PublishedAgo    string
}

// VideoSummary is the video block of the video-info response.
type VideoSummary struct {
	ID            string `json:"id"`
	Title         string `json:"title"`
	Description   string `json:"description"`
	Thumbnail     string `json:"thumbnail"`
	Duration      string `json:"duration"`
	Views         string `json:"views"`
	Author        string `json:"author"`
	UploadDate    string `json:"uploadDate"`
	IsLiveContent bool   `json:"isLiveContent"`
}

// Variant is the client-facing description of an encoding variant.
type Variant struct {
	Itag      int    `json:"itag"`
	Quality   string `json:"quality"`
	Container string `json:"container"`
	Filesize  int64  `json:"filesize,omitempty"`
	FPS       int    `json:"fps,omitempty"`
}

// FormatSet groups the video and audio variant lists.
type FormatSet struct {
	Video []Variant `json:"video"`
	Audio []Variant `json:"audio"`
}

// SearchResult is one entry of the search response.
type SearchResult struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Thumbnail   string `json:"thumbnail"`
	Duration    string `json:"duration"`
	Views       string `json:"views"`
	Author      string `json:"author"`
	UploadDate  string `json:"uploadDate"`
	URL         string `json:"url"`
}
