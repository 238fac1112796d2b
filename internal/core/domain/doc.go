// Package domain defines the core domain models for the supplier portal.
//
// Domain models are pure value objects without IO dependencies:
//
//   - Session: the client-held authentication state
//   - Supplier, Order, Profile: records exchanged with the endpoint
//   - Errors: structured error codes and classification sentinels
package domain
