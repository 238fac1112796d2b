// Package config provides configuration for the mock script endpoint.
//
//   - spec.go: ServerConfig struct definition
//   - default.go: Default configuration values
//   - verify.go: Validation (TLS pairs, rate limits, log settings)
//   - load.go: File, environment and flag layering via confloader
//
// Environment variables use the SUPPLIER_MOCK_ prefix with "__" between
// nesting levels, e.g. SUPPLIER_MOCK_RATE_LIMIT__RPS.
package config
