// Package controller contains the net/http middlewares and helper handlers
// wrapped around the API server.
//
//   - WithCORS answers preflight requests and sets CORS headers for allowed origins.
//   - WithLogger carries a request ID and request-scoped logger in the context and
//     writes one access log entry per request, quieter for probe paths.
//   - WithMetrics records request latency as an OpenTelemetry histogram.
//   - PprofMux exposes the net/http/pprof handlers under a prefix.
package controller
