// Package token mints and hashes the session tokens issued by the mock
// script endpoint.
//
// Token Format:
//
//   - Prefix: spt_ (4 characters)
//   - Body: 43 characters of Base64 RawURL encoded random bytes
//   - Total: 47 characters
//
// The endpoint keys its token table by the SHA-256 hash of each token, so
// the table never holds a usable token.
package token
