// Package media holds the platform-neutral video model shared by the
// resolvers, the download dispatcher, and the HTTP layer: raw upstream
// records (Video, Format, SearchHit), the JSON shapes returned to clients
// (VideoSummary, Variant, SearchResult), URL validation, and the pure display
// formatters that turn raw integers into strings.
//
// Every display field is recomputed from the raw record on each call; nothing
// in this package caches derived values.
package media
