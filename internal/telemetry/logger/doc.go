// Package logger provides structured logging for the supplier portal.
//
// It wraps log/slog:
//
//   - logger.go: Logger interface, configuration and the process default
//   - context.go: context propagation of the logger, request ID and operation
//   - redact.go: masking of session tokens, passwords and passphrases
//
// The CLI logs in text format to stderr at warn level by default so that
// command output on stdout stays machine-readable; the mock endpoint logs
// JSON at info level.
package logger
