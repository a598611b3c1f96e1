package media

import (
	"net/url"
	"regexp"
	"strings"
)

const shortLinkHost = "youtu.be"

var idPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)

// Validator recognises platform URLs and extracts their video id.
type Validator struct {
	allowed   map[string]struct{}
	checkHost bool
}

// NewValidator builds a Validator. When checkHost is false only the path
// shape is checked; the allow-list is ignored.
func NewValidator(allowedDomains []string, checkHost bool) *Validator {
	allowed := make(map[string]struct{}, len(allowedDomains))
	for _, d := range allowedDomains {
		d = strings.ToLower(strings.TrimSpace(d))
		if d != "" {
			allowed[d] = struct{}{}
		}
	}
	return &Validator{allowed: allowed, checkHost: checkHost}
}

// IsValidURL reports whether text is an allowed platform URL carrying an
// 11-character video id.
func (v *Validator) IsValidURL(text string) bool {
	_, ok := v.ExtractID(text)
	return ok
}

// ExtractID returns the video id encoded in text. Accepted shapes are
// /watch?v=ID, /embed/ID, /v/ID, /shorts/ID, /live/ID and youtu.be/ID; the
// scheme may be omitted.
func (v *Validator) ExtractID(text string) (string, bool) {
	u, ok := parse(text)
	if !ok {
		return "", false
	}
	host := strings.ToLower(u.Hostname())
	if v.checkHost {
		if _, allowed := v.allowed[host]; !allowed {
			return "", false
		}
	}

	segments := strings.Split(strings.Trim(u.EscapedPath(), "/"), "/")
	var id string
	switch {
	case host == shortLinkHost:
		if len(segments) != 1 {
			return "", false
		}
		id = segments[0]
	case len(segments) == 1 && segments[0] == "watch":
		id = u.Query().Get("v")
	case len(segments) == 2:
		switch segments[0] {
		case "embed", "v", "shorts", "live":
			id = segments[1]
		}
	}
	if !idPattern.MatchString(id) {
		return "", false
	}
	return id, true
}

func parse(text string) (*url.URL, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, false
	}
	if !strings.Contains(text, "://") {
		text = "https://" + text
	}
	u, err := url.Parse(text)
	if err != nil || u.Host == "" || u.User != nil {
		return nil, false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, false
	}
	return u, true
}
