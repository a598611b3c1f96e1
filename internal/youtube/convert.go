package youtube

import (
	"errors"
	"fmt"
	"net/http"
	"sort"

	yt "github.com/kkdai/youtube/v2"

	"github.com/JakeFAU/ytproxy/internal/media"
)

func toVideo(v *yt.Video) media.Video {
	thumbs := make([]yt.Thumbnail, len(v.Thumbnails))
	copy(thumbs, v.Thumbnails)
	sort.SliceStable(thumbs, func(i, j int) bool {
		return thumbs[i].Width*thumbs[i].Height < thumbs[j].Width*thumbs[j].Height
	})
	urls := make([]string, 0, len(thumbs))
	for _, t := range thumbs {
		if t.URL != "" {
			urls = append(urls, t.URL)
		}
	}
	return media.Video{
		ID:          v.ID,
		Title:       v.Title,
		Description: v.Description,
		Author:      v.Author,
		Views:       int64(v.Views),
		Duration:    v.Duration,
		PublishDate: v.PublishDate,
		Thumbnails:  urls,
		IsLive:      v.HLSManifestURL != "",
		Formats:     toFormats(v.Formats),
	}
}

func toFormats(list yt.FormatList) []media.Format {
	out := make([]media.Format, 0, len(list))
	for _, f := range list {
		out = append(out, media.Format{
			Itag:          f.ItagNo,
			URL:           f.URL,
			MimeType:      f.MimeType,
			Quality:       f.Quality,
			QualityLabel:  f.QualityLabel,
			Bitrate:       f.Bitrate,
			FPS:           f.FPS,
			Width:         f.Width,
			Height:        f.Height,
			ContentLength: f.ContentLength,
			AudioChannels: f.AudioChannels,
		})
	}
	return out
}

// classify maps upstream failures onto media.ErrRestricted or
// media.ErrNotFound, keeping the original error in the chain.
func classify(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, yt.ErrVideoPrivate),
		errors.Is(err, yt.ErrLoginRequired),
		errors.Is(err, yt.ErrNotPlayableInEmbed):
		return fmt.Errorf("%w: %w", media.ErrRestricted, err)
	case errors.Is(err, yt.ErrInvalidCharactersInVideoID),
		errors.Is(err, yt.ErrVideoIDMinLength):
		return fmt.Errorf("%w: %w", media.ErrNotFound, err)
	}

	if status, ok := playabilityStatus(err); ok {
		switch status.Status {
		case "LOGIN_REQUIRED", "AGE_CHECK_REQUIRED", "CONTENT_CHECK_REQUIRED":
			return fmt.Errorf("%w: %w", media.ErrRestricted, err)
		case "ERROR", "UNPLAYABLE":
			return fmt.Errorf("%w: %w", media.ErrNotFound, err)
		}
	}

	var code yt.ErrUnexpectedStatusCode
	if errors.As(err, &code) {
		switch int(code) {
		case http.StatusNotFound, http.StatusGone:
			return fmt.Errorf("%w: %w", media.ErrNotFound, err)
		case http.StatusForbidden, http.StatusUnauthorized:
			return fmt.Errorf("%w: %w", media.ErrRestricted, err)
		}
	}
	return err
}

func playabilityStatus(err error) (yt.ErrPlayabiltyStatus, bool) {
	var status *yt.ErrPlayabiltyStatus
	if errors.As(err, &status) && status != nil {
		return *status, true
	}
	return yt.ErrPlayabiltyStatus{}, false
}
