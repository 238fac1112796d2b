// Package adaptive provides authenticated encryption for data the supplier
// portal keeps at rest.
//
// Supported Algorithms:
//
//   - AES-256-GCM: preferred when the CPU has AES instructions
//   - XChaCha20-Poly1305: 24-byte random nonces, used elsewhere
//
// Keys are derived from a passphrase with Argon2id and then split per
// purpose with HKDF-SHA256, so one passphrase can protect several stores.
//
// Usage:
//
//	salt, _ := adaptive.NewSalt()
//	master := adaptive.DeriveKey(passphrase, salt)
//	key, _ := adaptive.DeriveSubkey(master, "session-store", adaptive.KeySize)
//	c, _ := adaptive.New(key)
//	sealed, _ := c.Encrypt(plaintext, aad)
package adaptive
