// Package domain defines the core domain models for the supplier portal.
package domain

import (
	"strings"
	"time"
)

// Session constraints.
const (
	MaxUsernameLength = 128
	MaxTokenLength    = 4096
)

// Session is the client-held authentication state.
//
// A Session is either absent (nil) or fully populated; a value with an
// empty token or username never leaves this package's validation.
type Session struct {
	// Token is the opaque credential issued by the endpoint.
	Token string `json:"token"`

	// Username is the display identifier associated with the token.
	Username string `json:"username"`

	// IssuedAt is when the login that produced the token succeeded.
	IssuedAt time.Time `json:"issued_at"`
}

// NewSession creates a validated Session issued at now.
func NewSession(token, username string, now time.Time) (*Session, error) {
	s := &Session{
		Token:    token,
		Username: username,
		IssuedAt: now.UTC().Truncate(time.Millisecond),
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Validate checks that the session is fully populated.
func (s *Session) Validate() error {
	if s == nil {
		return ErrSessionInvalid.WithDetails("session is nil")
	}
	if strings.TrimSpace(s.Token) == "" {
		return ErrSessionInvalid.WithDetails("token is required")
	}
	if len(s.Token) > MaxTokenLength {
		return ErrSessionInvalid.WithDetails("token too long")
	}
	if strings.TrimSpace(s.Username) == "" {
		return ErrSessionInvalid.WithDetails("username is required")
	}
	if len(s.Username) > MaxUsernameLength {
		return ErrSessionInvalid.WithDetails("username too long")
	}
	if s.IssuedAt.IsZero() {
		return ErrSessionInvalid.WithDetails("issued_at is required")
	}
	return nil
}

// IsExpired reports whether the session is older than maxAge at now.
// A non-positive maxAge disables expiry.
func (s *Session) IsExpired(maxAge time.Duration, now time.Time) bool {
	if maxAge <= 0 {
		return false
	}
	return now.Sub(s.IssuedAt) > maxAge
}

// Age returns how long ago the session was issued.
func (s *Session) Age(now time.Time) time.Duration {
	return now.Sub(s.IssuedAt)
}

// Equal reports whether two sessions carry the same state.
func (s *Session) Equal(other *Session) bool {
	if s == nil || other == nil {
		return s == other
	}
	return s.Token == other.Token &&
		s.Username == other.Username &&
		s.IssuedAt.Equal(other.IssuedAt)
}

// Clone returns a copy of the session.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	c := *s
	return &c
}
