// Package metric provides Prometheus metrics for the supplier portal.
//
//   - prometheus.go: registry construction and the /metrics handler
//   - client.go: session client call outcomes, latency and session clears
//   - server.go: mock endpoint request counters and live token gauge
//
// All metric types tolerate a nil receiver so callers may leave metrics
// unconfigured.
package metric
