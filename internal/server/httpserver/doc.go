// Package httpserver serves the mock script endpoint over HTTP(S).
//
// Routes:
//
//   - POST /exec: every script action, see package handler
//   - GET /health: liveness with the active token count
//   - GET /metrics: Prometheus exposition
//
// Middleware chain for /exec: Recover, RequestID, CORS, RateLimit, Audit.
// Rate-limited requests are answered with SUP-SYS-4290 and Retry-After,
// which clients surface as retryable.
package httpserver
