package download

import (
	"sort"
	"strings"

	"github.com/JakeFAU/ytproxy/internal/media"
)

// ClassAudio requests an audio-only variant; any other class means video.
const ClassAudio = "audio"

// Request describes which variant the caller wants.
type Request struct {
	// Class is "audio" or "video"; empty means video.
	Class string
	// Quality is a label such as "720p" or "128kbps"; empty or a "highest"
	// keyword picks the best variant.
	Quality string
	// Itag, when non-zero, names the exact variant.
	Itag int
}

// Selector is one strategy in the selection chain. The first selector whose
// Applies reports true decides the outcome, match or not.
type Selector struct {
	Name    string
	Applies func(Request) bool
	Pick    func(formats []media.Format, req Request) (media.Format, bool)
}

// DefaultSelectors returns the chain: explicit itag, then audio class, then
// video class restricted to container.
func DefaultSelectors(container string) []Selector {
	return []Selector{ByItag(), BestAudio(), BestVideo(container)}
}

// Select runs the chain and returns the chosen variant or media.ErrNoFormat.
func Select(selectors []Selector, formats []media.Format, req Request) (media.Format, string, error) {
	for _, s := range selectors {
		if !s.Applies(req) {
			continue
		}
		f, ok := s.Pick(formats, req)
		if !ok {
			return media.Format{}, s.Name, media.ErrNoFormat
		}
		return f, s.Name, nil
	}
	return media.Format{}, "", media.ErrNoFormat
}

// ByItag matches the requested itag exactly.
func ByItag() Selector {
	return Selector{
		Name:    "itag",
		Applies: func(r Request) bool { return r.Itag != 0 },
		Pick: func(formats []media.Format, r Request) (media.Format, bool) {
			for _, f := range formats {
				if f.Itag == r.Itag {
					return f, true
				}
			}
			return media.Format{}, false
		},
	}
}

// BestAudio picks among audio-only variants. A label match such as
// "128kbps" wins; otherwise the highest bitrate, ties to the earliest
// upstream entry.
func BestAudio() Selector {
	return Selector{
		Name:    "audio",
		Applies: func(r Request) bool { return strings.EqualFold(r.Class, ClassAudio) },
		Pick: func(formats []media.Format, r Request) (media.Format, bool) {
			candidates := filter(formats, func(f media.Format) bool {
				return f.HasAudio() && !f.HasVideo()
			})
			if q := r.Quality; isLabel(q) {
				for _, f := range candidates {
					if strings.EqualFold(f.Label(), strings.TrimSpace(q)) {
						return f, true
					}
				}
			}
			sort.SliceStable(candidates, func(i, j int) bool {
				return candidates[i].Bitrate > candidates[j].Bitrate
			})
			return first(candidates)
		},
	}
}

// BestVideo picks among variants carrying both tracks in container, falling
// back to any container when none exist. A quality label match wins;
// otherwise the tallest variant, ties to the earliest upstream entry.
func BestVideo(container string) Selector {
	return Selector{
		Name:    "video",
		Applies: func(Request) bool { return true },
		Pick: func(formats []media.Format, r Request) (media.Format, bool) {
			candidates := filter(formats, func(f media.Format) bool {
				return f.HasAudio() && f.HasVideo() && strings.EqualFold(f.Container(), container)
			})
			if len(candidates) == 0 {
				candidates = filter(formats, func(f media.Format) bool {
					return f.HasAudio() && f.HasVideo()
				})
			}
			if q := r.Quality; isLabel(q) {
				for _, f := range candidates {
					if strings.EqualFold(f.QualityLabel, strings.TrimSpace(q)) {
						return f, true
					}
				}
			}
			sort.SliceStable(candidates, func(i, j int) bool {
				return candidates[i].Height > candidates[j].Height
			})
			return first(candidates)
		},
	}
}

// isLabel reports whether q names a concrete quality rather than a
// "pick the best" keyword.
func isLabel(q string) bool {
	switch strings.ToLower(strings.TrimSpace(q)) {
	case "", "highest", "highestvideo", "highestaudio":
		return false
	}
	return true
}

func filter(formats []media.Format, keep func(media.Format) bool) []media.Format {
	out := make([]media.Format, 0, len(formats))
	for _, f := range formats {
		if keep(f) {
			out = append(out, f)
		}
	}
	return out
}

func first(formats []media.Format) (media.Format, bool) {
	if len(formats) == 0 {
		return media.Format{}, false
	}
	return formats[0], true
}
