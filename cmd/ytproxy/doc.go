// Package main hosts the ytproxy service entrypoint.
//
// Architecture overview:
//   - HTTP API: internal/api.Server exposes /health, /metrics, the static front-end files, and the JSON
//     endpoints under /api (video-info, search, download, download-url). Every /api call passes the per-client
//     sliding-window limiter first; JSON routes are bounded by server.handler_timeout_seconds while proxied
//     downloads stream for as long as the client stays connected.
//   - Resolution: internal/resolver validates the URL, probes the video, and shapes metadata, capped variant lists,
//     and search pages. internal/download runs the ordered selector chain (explicit itag, best audio, best video)
//     and either relays the bytes or returns the direct upstream URL.
//   - Platform: internal/youtube wraps kkdai/youtube and raitonoberu/ytsearch behind a token-bucket throttle.
//     Concurrent lookups of one video share a single fetch, and the raw record is kept for a short TTL so the
//     steps of one request cost one round trip.
//   - Rate limiting: internal/policy/ratelimit keeps per-IP request logs in memory (swept periodically) or in Redis
//     sorted sets shared by replicas. Store failures let the request through and are counted in Prometheus.
//   - Configuration & plumbing: Viper populates config from a file, YTPROXY_* variables, and the legacy
//     unprefixed names (PORT, RATE_LIMIT_MAX, ...); zap provides structured logging; Prometheus metrics cover
//     requests, upstream calls, and relayed bytes.
//
// Quick checklist:
//   - Configure env vars: PORT, CORS_ORIGIN, RATE_LIMIT_WINDOW (ms), RATE_LIMIT_MAX, ENVIRONMENT=production to hide
//     upstream error text, and YTPROXY_RATE_LIMIT_BACKEND=redis with REDIS_URL when running more than one replica.
//   - Run locally: go run ./cmd/ytproxy -config config.yaml (or rely solely on env overrides).
//   - Behind a load balancer, set server.trust_proxy_headers so limits key on the real client address.
package main
