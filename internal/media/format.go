package media

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"
)

const (
	descriptionLimit   = 200
	noDescription      = "No description"
	unknownValue       = "Unknown"
	uploadDateLayout   = "2006-01-02"
	canonicalWatchURL  = "https://www.youtube.com/watch?v="
	fallbackFilename   = "video"
	fallbackExtension  = "bin"
)

var (
	nonWordChars = regexp.MustCompile(`[^\w\s-]`)
	whitespace   = regexp.MustCompile(`\s+`)
)

// FormatDuration renders whole seconds as m:ss. Minutes are not wrapped into
// hours, so 3725 renders as "62:05".
func FormatDuration(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}

// FormatViews abbreviates a view count with one decimal place at the
// thousand and million boundaries.
func FormatViews(views int64) string {
	switch {
	case views >= 1_000_000:
		return strconv.FormatFloat(float64(views)/1e6, 'f', 1, 64) + "M"
	case views >= 1_000:
		return strconv.FormatFloat(float64(views)/1e3, 'f', 1, 64) + "K"
	default:
		return strconv.FormatInt(views, 10)
	}
}

// TruncateDescription keeps the first 200 runes and marks the cut with "...".
func TruncateDescription(desc string) string {
	if strings.TrimSpace(desc) == "" {
		return noDescription
	}
	if utf8.RuneCountInString(desc) <= descriptionLimit {
		return desc
	}
	runes := []rune(desc)
	return string(runes[:descriptionLimit]) + "..."
}

// SanitizeFilename strips everything but word characters, whitespace, and
// hyphens, then joins words with underscores.
func SanitizeFilename(title string) string {
	cleaned := nonWordChars.ReplaceAllString(title, "")
	cleaned = whitespace.ReplaceAllString(strings.TrimSpace(cleaned), "_")
	if cleaned == "" {
		return fallbackFilename
	}
	return cleaned
}

// Filename builds an attachment name for the given variant. Audio-only MP4
// is named .m4a.
func Filename(title string, f Format) string {
	ext := f.Container()
	switch {
	case ext == "":
		ext = fallbackExtension
	case ext == "mp4" && f.HasAudio() && !f.HasVideo():
		ext = "m4a"
	}
	return SanitizeFilename(title) + "." + ext
}

// WatchURL returns the canonical watch page for a video id.
func WatchURL(id string) string {
	return canonicalWatchURL + id
}

func formatKbps(kbps int) string {
	return strconv.Itoa(kbps) + "kbps"
}
