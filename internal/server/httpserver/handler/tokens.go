package handler

import (
	"context"
	"time"

	"github.com/yndnr/supplier-portal/pkg/cmap"
	"github.com/yndnr/supplier-portal/pkg/token"
)

type grant struct {
	username  string
	expiresAt time.Time
}

// Tokens is the table of issued session tokens, keyed by token hash.
type Tokens struct {
	m        *cmap.Map[grant]
	ttl      time.Duration
	now      func() time.Time
	observer func(active int)
}

// TokensOption configures a Tokens table.
type TokensOption func(*Tokens)

// WithTokenClock overrides the time source used for expiry.
func WithTokenClock(now func() time.Time) TokensOption {
	return func(t *Tokens) {
		t.now = now
	}
}

// WithTokenObserver registers fn to receive the table size after every
// change.
func WithTokenObserver(fn func(active int)) TokensOption {
	return func(t *Tokens) {
		t.observer = fn
	}
}

// NewTokens creates a table whose tokens live for ttl.
func NewTokens(ttl time.Duration, opts ...TokensOption) *Tokens {
	t := &Tokens{
		m:   cmap.New[grant](),
		ttl: ttl,
		now: time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Issue mints a token for username.
func (t *Tokens) Issue(username string) (string, time.Time, error) {
	tok, err := token.Generate()
	if err != nil {
		return "", time.Time{}, err
	}
	expiresAt := t.now().Add(t.ttl).UTC()
	t.m.Set(token.Hash(tok), grant{username: username, expiresAt: expiresAt})
	t.changed()
	return tok, expiresAt, nil
}

// Lookup returns the user a live token was issued to. Expired tokens are
// dropped on sight.
func (t *Tokens) Lookup(tok string) (string, bool) {
	if !token.Valid(tok) {
		return "", false
	}
	key := token.Hash(tok)
	g, ok := t.m.Get(key)
	if !ok {
		return "", false
	}
	if !t.now().Before(g.expiresAt) {
		t.m.Delete(key)
		t.changed()
		return "", false
	}
	return g.username, true
}

// Revoke invalidates tok and reports whether it was live.
func (t *Tokens) Revoke(tok string) bool {
	if !token.Valid(tok) {
		return false
	}
	_, ok := t.m.Pop(token.Hash(tok))
	if ok {
		t.changed()
	}
	return ok
}

// RevokeUser invalidates every token issued to username.
func (t *Tokens) RevokeUser(username string) int {
	n := t.m.DeleteFunc(func(_ string, g grant) bool { return g.username == username })
	if n > 0 {
		t.changed()
	}
	return n
}

// Sweep removes expired tokens and returns how many it removed.
func (t *Tokens) Sweep() int {
	now := t.now()
	n := t.m.DeleteFunc(func(_ string, g grant) bool { return !now.Before(g.expiresAt) })
	if n > 0 {
		t.changed()
	}
	return n
}

// Count returns the number of tokens in the table, expired or not.
func (t *Tokens) Count() int {
	return t.m.Count()
}

// Run sweeps every interval until ctx is done.
func (t *Tokens) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.Sweep()
		}
	}
}

func (t *Tokens) changed() {
	if t.observer != nil {
		t.observer(t.m.Count())
	}
}
