// Package service provides the supplier portal's client-side services.
//
// SessionClient owns the authenticated session: it logs in against the
// remote script endpoint, persists the resulting Session in a storage.KV,
// attaches the token to every call, and classifies each response into
// success or one of the domain error kinds:
//
//   - domain.ErrInvalidCredentials: login rejected
//   - domain.ErrUnauthenticated: token missing or rejected (session cleared)
//   - domain.ErrRetryable: rate limited or temporarily unavailable
//   - domain.ErrProtocol: malformed or unexpected response
//   - domain.ErrUnreachable: no response
//   - domain.ErrRejected: well-formed application error
//
// Errors returned by calls are *CallError values that unwrap to these
// sentinels, so errors.Is works on them. SessionClient never retries.
//
// SessionClient is safe for concurrent use.
package service
