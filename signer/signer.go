// Package signer mints and verifies tamper-evident tokens.
//
// A token is the original payload followed by a keyed digest of it:
//
//	<payload>|<hex hmac-sha256(secret, payload)>
//
// Tokens carry no expiry, a token stays valid for as long as the secret
// used to mint it is in use. Rotating the secret invalidates every
// outstanding token at once.
//
// The payload is not encrypted, anyone holding the token can read it.
// The signature only proves that the payload was produced by someone
// holding the secret and was not modified afterwards.
package signer

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/yusong-shen/multi-user-blog/internal/safecmp"
)

const (
	// Delimiter separates the payload from its signature, payloads
	// must not contain it.
	Delimiter = "|"
)

type (
	Signer struct {
		secret []byte
	}
)

// New returns a Signer using secret as the MAC key. The slice is copied,
// later changes made by the caller do not affect the signer.
func New(secret []byte) *Signer {
	key := make([]byte, len(secret))
	copy(key, secret)
	return &Signer{secret: key}
}

// Mint returns payload followed by its signature.
func (s *Signer) Mint(payload string) string {
	return payload + Delimiter + s.sign(payload)
}

// Verify returns the payload embedded in token when the signature matches.
// Any malformed or tampered token yields ("", false).
func (s *Signer) Verify(token string) (string, bool) {
	idx := strings.Index(token, Delimiter)
	if idx < 0 || idx == len(token)-len(Delimiter) {
		return "", false
	}
	payload := token[:idx]
	if !safecmp.Equal(s.Mint(payload), token) {
		return "", false
	}
	return payload, true
}

func (s *Signer) sign(payload string) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(payload))
	return hex.EncodeToString(mac.Sum(nil))
}
