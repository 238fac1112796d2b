package storage

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/yndnr/supplier-portal/pkg/crypto/adaptive"
)

// ErrWrongPassphrase is returned when an EncryptedStore cannot open the
// values already in its backend.
var ErrWrongPassphrase = errors.New("storage: wrong passphrase or corrupted store")

const (
	subkeyInfo = "supplier-portal session store v1"
	checkValue = "supplier-portal"
)

// EncryptedStore wraps a KV and encrypts every value with XChaCha20-Poly1305.
//
// The Argon2id salt is kept in the wrapped store under saltKey together with
// a sealed check value that detects a wrong passphrase at open time. Each
// value is bound to its key name through the AEAD additional data, so
// ciphertexts cannot be swapped between keys.
type EncryptedStore struct {
	inner    KV
	cipher   adaptive.Cipher
	saltKey  string
	checkKey string
}

// NewEncryptedStore derives the store key from passphrase and wraps inner.
func NewEncryptedStore(ctx context.Context, inner KV, passphrase []byte, saltKey string) (*EncryptedStore, error) {
	checkKey := saltKey + ".check"

	existing, err := inner.Get(ctx, saltKey, checkKey)
	if err != nil {
		return nil, fmt.Errorf("encrypted store: read salt: %w", err)
	}

	var salt []byte
	fresh := false
	if enc, ok := existing[saltKey]; ok {
		salt, err = base64.StdEncoding.DecodeString(enc)
		if err != nil {
			return nil, fmt.Errorf("encrypted store: decode salt: %w", err)
		}
	} else {
		salt, err = adaptive.NewSalt()
		if err != nil {
			return nil, err
		}
		fresh = true
	}

	master, err := adaptive.DeriveKey(passphrase, salt)
	if err != nil {
		return nil, err
	}
	key, err := adaptive.DeriveSubkey(master, subkeyInfo, adaptive.KeySize)
	if err != nil {
		return nil, err
	}
	c, err := adaptive.NewWithType(key, adaptive.CipherXChaCha20)
	if err != nil {
		return nil, err
	}

	s := &EncryptedStore{
		inner:    inner,
		cipher:   c,
		saltKey:  saltKey,
		checkKey: checkKey,
	}

	if fresh {
		check, err := s.seal(checkKey, checkValue)
		if err != nil {
			return nil, err
		}
		if err := inner.Put(ctx, map[string]string{
			saltKey:  base64.StdEncoding.EncodeToString(salt),
			checkKey: check,
		}); err != nil {
			return nil, fmt.Errorf("encrypted store: write salt: %w", err)
		}
		return s, nil
	}

	if sealed, ok := existing[checkKey]; ok {
		v, err := s.open(checkKey, sealed)
		if err != nil || v != checkValue {
			return nil, ErrWrongPassphrase
		}
	}
	return s, nil
}

// Get implements KV.
func (s *EncryptedStore) Get(ctx context.Context, keys ...string) (map[string]string, error) {
	raw, err := s.inner.Get(ctx, keys...)
	if err != nil {
		return nil, err
	}

	out := make(map[string]string, len(raw))
	for k, v := range raw {
		plain, err := s.open(k, v)
		if err != nil {
			return nil, fmt.Errorf("encrypted store: key %s: %w", k, err)
		}
		out[k] = plain
	}
	return out, nil
}

// Put implements KV.
func (s *EncryptedStore) Put(ctx context.Context, entries map[string]string) error {
	sealed := make(map[string]string, len(entries))
	for k, v := range entries {
		if k == s.saltKey || k == s.checkKey {
			return fmt.Errorf("encrypted store: key %s is reserved", k)
		}
		enc, err := s.seal(k, v)
		if err != nil {
			return err
		}
		sealed[k] = enc
	}
	return s.inner.Put(ctx, sealed)
}

// Delete implements KV.
func (s *EncryptedStore) Delete(ctx context.Context, keys ...string) error {
	return s.inner.Delete(ctx, keys...)
}

// Close closes the wrapped store.
func (s *EncryptedStore) Close() error {
	return s.inner.Close()
}

func (s *EncryptedStore) seal(key, value string) (string, error) {
	ct, err := s.cipher.Encrypt([]byte(value), []byte(key))
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(ct), nil
}

func (s *EncryptedStore) open(key, value string) (string, error) {
	ct, err := base64.StdEncoding.DecodeString(value)
	if err != nil {
		return "", ErrWrongPassphrase
	}
	pt, err := s.cipher.Decrypt(ct, []byte(key))
	if err != nil {
		return "", ErrWrongPassphrase
	}
	return string(pt), nil
}
