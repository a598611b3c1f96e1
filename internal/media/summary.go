package media

// Summarize derives the client-facing summary from a raw video record.
func Summarize(v Video) VideoSummary {
	s := VideoSummary{
		ID:            v.ID,
		Title:         v.Title,
		Description:   TruncateDescription(v.Description),
		Duration:      FormatDuration(int(v.Duration.Seconds())),
		Views:         FormatViews(v.Views),
		Author:        v.Author,
		UploadDate:    unknownValue,
		IsLiveContent: v.IsLive,
	}
	if n := len(v.Thumbnails); n > 0 {
		s.Thumbnail = v.Thumbnails[n-1]
	}
	if s.Author == "" {
		s.Author = unknownValue
	}
	if !v.PublishDate.IsZero() {
		s.UploadDate = v.PublishDate.Format(uploadDateLayout)
	}
	return s
}

// ToVariant describes a raw format for clients.
func ToVariant(f Format) Variant {
	return Variant{
		Itag:      f.Itag,
		Quality:   f.Label(),
		Container: f.Container(),
		Filesize:  f.ContentLength,
		FPS:       f.FPS,
	}
}

// ToSearchResult reshapes a raw search hit.
func ToSearchResult(h SearchHit) SearchResult {
	author := h.Author
	if author == "" {
		author = unknownValue
	}
	return SearchResult{
		ID:          h.ID,
		Title:       h.Title,
		Description: h.Description,
		Thumbnail:   h.Thumbnail,
		Duration:    FormatDuration(h.DurationSeconds),
		Views:       FormatViews(h.Views),
		Author:      author,
		UploadDate:  h.PublishedAgo,
		URL:         WatchURL(h.ID),
	}
}
