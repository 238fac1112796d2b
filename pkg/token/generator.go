package token

import (
	"crypto/rand"
	"encoding/base64"
	"strings"

	"github.com/yndnr/supplier-portal/pkg/scriptapi"
)

// DefaultLength is the number of random bytes in a token body.
const DefaultLength = 32

// Length is the length of a token produced by Generate.
var Length = len(scriptapi.TokenPrefix) + base64.RawURLEncoding.EncodedLen(DefaultLength)

// Generate returns a new random session token.
func Generate() (string, error) {
	body, err := randomString(DefaultLength)
	if err != nil {
		return "", err
	}
	return scriptapi.TokenPrefix + body, nil
}

// randomString returns length random bytes, Base64 RawURL encoded.
func randomString(length int) (string, error) {
	b := make([]byte, length)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// Valid reports whether s has the shape of a token from Generate.
func Valid(s string) bool {
	body, ok := strings.CutPrefix(s, scriptapi.TokenPrefix)
	if !ok || len(s) != Length {
		return false
	}
	_, err := base64.RawURLEncoding.DecodeString(body)
	return err == nil
}
