package vault

import "crypto/subtle"

// Wipe overwrites every byte of the buffer with zero. It is called on
// derived keys and plaintext buffers in deferred blocks so key material is
// cleared on every exit path, including error paths.
func Wipe(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

// constantTimeEqual compares two byte slices in constant time.
func constantTimeEqual(a, b []byte) bool {
	return subtle.ConstantTimeCompare(a, b) == 1
}
