// Package vault derives and checks salted password records.
//
// A record is stored as a single string:
//
//	<salt>,<hex sha256(name + password + salt)>
//
// Mixing the user name into the digest means two users sharing the same
// password and, by chance, the same salt still end up with different
// records.
package vault

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/yusong-shen/multi-user-blog/internal/safecmp"
)

const (
	DefaultSaltLength = 5

	// Separator splits the salt from the digest inside a record.
	Separator = ","

	saltAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"
	// largest multiple of len(saltAlphabet) that fits in a byte,
	// bytes above it are discarded to keep the distribution uniform
	maxUnbiased = 256 - 256%len(saltAlphabet)
)

// GenerateSalt returns length letters picked uniformly from [A-Za-z].
// A non-positive length yields an empty salt.
func GenerateSalt(length int) string {
	if length <= 0 {
		return ""
	}
	var sb strings.Builder
	sb.Grow(length)
	buf := make([]byte, length*2)
	for sb.Len() < length {
		// crypto/rand.Read never returns an error on supported platforms
		if _, err := rand.Read(buf); err != nil {
			panic("vault: unable to read random bytes: " + err.Error())
		}
		for _, b := range buf {
			if int(b) >= maxUnbiased {
				continue
			}
			sb.WriteByte(saltAlphabet[int(b)%len(saltAlphabet)])
			if sb.Len() == length {
				break
			}
		}
	}
	return sb.String()
}

// Hash returns a new record for name and password using a fresh salt.
func Hash(name, password string) string {
	return HashWithSalt(name, password, "")
}

// HashWithSalt returns the record for name and password using salt.
// An empty salt is replaced by a fresh one.
func HashWithSalt(name, password, salt string) string {
	if salt == "" {
		salt = GenerateSalt(DefaultSaltLength)
	}
	sum := sha256.Sum256([]byte(name + password + salt))
	return salt + Separator + hex.EncodeToString(sum[:])
}

// VerifyPassword reports whether record was produced from name and
// password. Malformed records never match.
func VerifyPassword(name, password, record string) bool {
	idx := strings.Index(record, Separator)
	if idx <= 0 {
		return false
	}
	return safecmp.Equal(HashWithSalt(name, password, record[:idx]), record)
}
