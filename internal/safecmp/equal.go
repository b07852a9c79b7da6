// Package safecmp compares secret-derived strings without leaking timing
// information about where they differ.
package safecmp

import "crypto/subtle"

// Equal reports whether a and b are identical.
//
// The running time depends only on the length of the inputs, never on
// their content.
func Equal(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
