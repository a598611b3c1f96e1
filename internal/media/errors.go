package media

import "errors"

var (
	// ErrInvalidURL marks input that is not a recognised platform URL.
	ErrInvalidURL = errors.New("invalid video url")
	// ErrNotFound marks a video that does not exist or is unavailable.
	ErrNotFound = errors.New("video not found or unavailable")
	// ErrRestricted marks a video that exists but cannot be accessed.
	ErrRestricted = errors.New("video is private or restricted")
	// ErrNoFormat marks a selection that matched no variant.
	ErrNoFormat = errors.New("no suitable format found")
)
