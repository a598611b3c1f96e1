package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/ytproxy/internal/download"
	"github.com/JakeFAU/ytproxy/internal/media"
	"github.com/JakeFAU/ytproxy/internal/resolver"
)

const maxBodyBytes = 64 << 10

type videoInfoRequest struct {
	URL string `json:"url"`
}

type searchRequest struct {
	Query string `json:"query"`
	Limit int    `json:"limit"`
}

type downloadRequest struct {
	URL     string   `json:"url"`
	Format  string   `json:"format"`
	Quality string   `json:"quality"`
	Itag    flexItag `json:"itag"`
}

func (r downloadRequest) toRequest() download.Request {
	return download.Request{Class: r.Format, Quality: r.Quality, Itag: int(r.Itag)}
}

// flexItag accepts an itag sent as a JSON number or a numeric string.
type flexItag int

func (f *flexItag) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*f = 0
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		if s == "" {
			*f = 0
			return nil
		}
		n, err := strconv.Atoi(s)
		if err != nil {
			return fmt.Errorf("itag %q is not a number", s)
		}
		*f = flexItag(n)
		return nil
	}
	var n int
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("itag must be a number: %w", err)
	}
	*f = flexItag(n)
	return nil
}

type videoInfoResponse struct {
	Success bool               `json:"success"`
	Video   media.VideoSummary `json:"video"`
	Formats media.FormatSet    `json:"formats"`
}

type searchResponse struct {
	Success      bool                 `json:"success"`
	Query        string               `json:"query"`
	Results      []media.SearchResult `json:"results"`
	TotalResults int                  `json:"totalResults"`
}

type downloadURLResponse struct {
	Success     bool                `json:"success"`
	DownloadURL string              `json:"downloadUrl"`
	Filename    string              `json:"filename"`
	Format      download.LinkFormat `json:"format"`
}

type healthResponse struct {
	Status    string  `json:"status"`
	Timestamp string  `json:"timestamp"`
	Uptime    float64 `json:"uptime"`
}

// failureText names the route-specific messages for writeFailure.
type failureText struct {
	restricted string
	internal   string
}

var (
	videoInfoFailure = failureText{
		restricted: "Unable to validate video URL. The video might be private, restricted, or unavailable.",
		internal:   "Failed to get video information",
	}
	searchFailure = failureText{
		internal: "Failed to search videos",
	}
	downloadFailure = failureText{
		restricted: "Unable to access video. It might be private or restricted.",
		internal:   "Failed to download video",
	}
	downloadURLFailure = failureText{
		restricted: "Unable to access video. It might be private or restricted.",
		internal:   "Failed to get download URL",
	}
)

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	now := s.deps.Clock.Now()
	writeJSON(w, http.StatusOK, healthResponse{
		Status:    "OK",
		Timestamp: now.UTC().Format(time.RFC3339Nano),
		Uptime:    now.Sub(s.started).Seconds(),
	})
}

func (s *Server) videoInfo(w http.ResponseWriter, r *http.Request) {
	var req videoInfoRequest
	if !s.decode(w, r, &req) {
		return
	}
	info, err := s.deps.VideoInfo.Resolve(r.Context(), req.URL)
	if err != nil {
		s.writeFailure(w, r, err, videoInfoFailure)
		return
	}
	writeJSON(w, http.StatusOK, videoInfoResponse{
		Success: true,
		Video:   info.Video,
		Formats: info.Formats,
	})
}

func (s *Server) search(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if !s.decode(w, r, &req) {
		return
	}
	page, err := s.deps.Search.Run(r.Context(), req.Query, req.Limit)
	if err != nil {
		s.writeFailure(w, r, err, searchFailure)
		return
	}
	writeJSON(w, http.StatusOK, searchResponse{
		Success:      true,
		Query:        page.Query,
		Results:      page.Results,
		TotalResults: page.TotalResults,
	})
}

func (s *Server) download(w http.ResponseWriter, r *http.Request) {
	var req downloadRequest
	if !s.decode(w, r, &req) {
		return
	}
	err := s.deps.Downloads.Stream(r.Context(), w, req.URL, req.toRequest())
	if err == nil {
		return
	}
	if download.IsAbort(err) {
		// Headers are gone; drop the connection so the client sees a truncated body.
		panic(http.ErrAbortHandler)
	}
	s.writeFailure(w, r, err, downloadFailure)
}

func (s *Server) downloadURL(w http.ResponseWriter, r *http.Request) {
	var req downloadRequest
	if !s.decode(w, r, &req) {
		return
	}
	link, err := s.deps.Downloads.DirectLink(r.Context(), req.URL, req.toRequest())
	if err != nil {
		s.writeFailure(w, r, err, downloadURLFailure)
		return
	}
	writeJSON(w, http.StatusOK, downloadURLResponse{
		Success:     true,
		DownloadURL: link.DownloadURL,
		Filename:    link.Filename,
		Format:      link.Format,
	})
}

func (s *Server) notFound(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusNotFound, errorResponse{Error: "Endpoint not found"})
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	// An empty body decodes as an empty object so the handler reports the missing field.
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		resp := errorResponse{Error: "Invalid JSON body"}
		if !s.cfg.IsProduction() {
			resp.Details = err.Error()
		}
		writeJSON(w, http.StatusBadRequest, resp)
		return false
	}
	return true
}

// writeFailure maps err onto the error taxonomy: input and validation
// problems are 400, everything else is a 500 with the route's message.
func (s *Server) writeFailure(w http.ResponseWriter, r *http.Request, err error, text failureText) {
	dev := !s.cfg.IsProduction()
	resp := errorResponse{}
	status := http.StatusBadRequest
	switch {
	case errors.Is(err, resolver.ErrURLRequired):
		resp.Error = "URL is required"
	case errors.Is(err, resolver.ErrQueryRequired):
		resp.Error = "Search query is required"
	case errors.Is(err, media.ErrInvalidURL):
		resp.Error = "Invalid YouTube URL"
	case errors.Is(err, media.ErrNotFound):
		resp.Error = "Video not found or unavailable"
	case errors.Is(err, media.ErrRestricted) && text.restricted != "":
		resp.Error = text.restricted
		if dev {
			resp.Details = err.Error()
		}
	case errors.Is(err, media.ErrNoFormat):
		resp.Error = "No suitable format found"
	default:
		status = http.StatusInternalServerError
		resp.Error = text.internal
		if dev {
			resp.Message = err.Error()
		}
		s.logger.Error(text.internal,
			zap.String("request_id", requestIDFrom(r.Context())),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
	}
	writeJSON(w, status, resp)
}
