// Package static serves the small set of front-end files exposed at fixed
// routes. Files are embedded in the binary; an optional directory overrides
// them name by name.
package static

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
)

//go:embed assets
var embedded embed.FS

// Route binds a URL path to a file.
type Route struct {
	Path        string
	File        string
	ContentType string
	NoCache     bool
}

// Routes lists every static path the router exposes.
var Routes = []Route{
	{Path: "/", File: "index.html", ContentType: "text/html; charset=utf-8"},
	{Path: "/favicon.ico", File: "favicon.ico", ContentType: "image/x-icon"},
	{Path: "/robots.txt", File: "robots.txt", ContentType: "text/plain; charset=utf-8"},
	{Path: "/sitemap.xml", File: "sitemap.xml", ContentType: "application/xml"},
	{Path: "/site.webmanifest", File: "site.webmanifest", ContentType: "application/manifest+json"},
	{Path: "/sw.js", File: "sw.js", ContentType: "text/javascript; charset=utf-8", NoCache: true},
}

// Assets resolves static files.
type Assets struct {
	fsys fs.FS
}

// New returns Assets backed by the embedded files, overlaid by dir when set.
func New(dir string) (*Assets, error) {
	base, err := fs.Sub(embedded, "assets")
	if err != nil {
		return nil, fmt.Errorf("embedded assets: %w", err)
	}
	if dir == "" {
		return &Assets{fsys: base}, nil
	}
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("static dir: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("static dir %s is not a directory", dir)
	}
	return NewFS(overlay{primary: os.DirFS(dir), fallback: base}), nil
}

// NewFS returns Assets backed by fsys.
func NewFS(fsys fs.FS) *Assets {
	return &Assets{fsys: fsys}
}

// Handler serves one route.
func (a *Assets) Handler(rt Route) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if rt.ContentType != "" {
			w.Header().Set("Content-Type", rt.ContentType)
		}
		if rt.NoCache {
			w.Header().Set("Cache-Control", "no-cache")
		}
		http.ServeFileFS(w, r, a.fsys, rt.File)
	}
}

type overlay struct {
	primary  fs.FS
	fallback fs.FS
}

func (o overlay) Open(name string) (fs.File, error) {
	f, err := o.primary.Open(name)
	if err == nil {
		return f, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return o.fallback.Open(name)
	}
	return nil, err
}
