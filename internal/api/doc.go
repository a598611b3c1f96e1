// Package api hosts the HTTP server, middleware, and JSON handlers. Routes:
//   - GET /health for liveness, GET /metrics for Prometheus scraping.
//   - POST /api/video-info, /api/search, /api/download-url (JSON) and
//     POST /api/download (attachment stream), all behind the per-client
//     sliding-window limiter.
//   - GET on the fixed static asset paths listed in static.Routes.
//
// Every error body uses the envelope {error, details?, message?}; raw upstream
// text only appears outside production.
package api
