package signer

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"io"
	"os"

	"golang.org/x/crypto/hkdf"
)

const (
	SecretEnvVar = "BLOG_SECRET"

	// CookiePurpose labels the key derived for session cookies.
	CookiePurpose = "multi-user-blog/session-cookie"

	minSecretLen = 16
	keyLen       = 32
)

// SecretFromEnv reads the root secret from varname and clears the variable
// so child processes never see it.
func SecretFromEnv(varname string, getfn func(string) string, setfn func(string, string) error) ([]byte, error) {
	if getfn == nil {
		getfn = os.Getenv
	}
	if setfn == nil {
		setfn = os.Setenv
	}
	val := getfn(varname)
	if err := setfn(varname, ""); err != nil {
		return nil, fmt.Errorf("signer: unable to clear %v, cause %w", varname, err)
	}
	if len(val) == 0 {
		return nil, fmt.Errorf("signer: environment variable %v is empty", varname)
	} else if len(val) < minSecretLen {
		return nil, fmt.Errorf("signer: secret too short got %v expecting at least %v bytes", len(val), minSecretLen)
	}
	return []byte(val), nil
}

// DeriveKey expands root into a key that is only ever used for purpose.
func DeriveKey(root []byte, purpose string) []byte {
	key := make([]byte, keyLen)
	// hkdf can produce up to 255*32 bytes, reading 32 never fails
	if _, err := io.ReadFull(hkdf.New(sha256.New, root, nil, []byte(purpose)), key); err != nil {
		panic(fmt.Sprintf("signer: hkdf failed: %v", err))
	}
	return key
}

// GenerateSecret returns a new random root secret encoded as base64.
func GenerateSecret() (string, error) {
	var buf [keyLen]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return "", fmt.Errorf("signer: unable to read random bytes, cause %w", err)
	}
	return base64.StdEncoding.EncodeToString(buf[:]), nil
}
