package vault

import (
	"crypto/aes"
	"crypto/cipher"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"
)

// CipherSuite represents the AEAD algorithm backing an engine. Format
// version 1 records are always AES-256-GCM; the ChaCha20-Poly1305 engine
// is available to callers managing their own framing.
type CipherSuite uint8

const (
	// CipherAES256GCM uses AES-256 with Galois/Counter Mode
	CipherAES256GCM CipherSuite = iota
	// CipherChaCha20Poly1305 uses ChaCha20 stream cipher with Poly1305 MAC
	CipherChaCha20Poly1305
)

// String returns the string representation of the cipher suite.
func (c CipherSuite) String() string {
	switch c {
	case CipherAES256GCM:
		return "aes-256-gcm"
	case CipherChaCha20Poly1305:
		return "chacha20-poly1305"
	default:
		return "unknown"
	}
}

// CipherEngine provides AEAD encryption/decryption with a detached
// authentication tag, matching the record format where ciphertext and tag
// are carried in separate fields. OpenDetached reports authentication
// failure as ErrIntegrityCheckFailed - an explicit result, never a message
// to be parsed.
type CipherEngine interface {
	// SealDetached encrypts plaintext, returning ciphertext and tag
	// separately.
	SealDetached(nonce, plaintext []byte) (ciphertext, tag []byte, err error)

	// OpenDetached authenticates ciphertext against tag and returns the
	// plaintext, or ErrIntegrityCheckFailed if verification fails. No
	// partial plaintext is ever returned.
	OpenDetached(nonce, ciphertext, tag []byte) ([]byte, error)

	// NonceSize returns the size of nonces in bytes.
	NonceSize() int

	// Overhead returns the authentication tag size in bytes.
	Overhead() int
}

// aeadEngine adapts a cipher.AEAD to the detached-tag interface.
type aeadEngine struct {
	aead cipher.AEAD
}

func (e *aeadEngine) SealDetached(nonce, plaintext []byte) ([]byte, []byte, error) {
	if len(nonce) != e.aead.NonceSize() {
		return nil, nil, fmt.Errorf("nonce must be %d bytes, got %d", e.aead.NonceSize(), len(nonce))
	}

	sealed := e.aead.Seal(nil, nonce, plaintext, nil)
	split := len(sealed) - e.aead.Overhead()
	return sealed[:split], sealed[split:], nil
}

func (e *aeadEngine) OpenDetached(nonce, ciphertext, tag []byte) ([]byte, error) {
	if len(nonce) != e.aead.NonceSize() {
		return nil, fmt.Errorf("nonce must be %d bytes, got %d", e.aead.NonceSize(), len(nonce))
	}
	if len(tag) != e.aead.Overhead() {
		return nil, newPayloadError(ErrInvalidFormat, "authTag",
			fmt.Sprintf("tag must be %d bytes, got %d", e.aead.Overhead(), len(tag)))
	}

	sealed := make([]byte, 0, len(ciphertext)+len(tag))
	sealed = append(sealed, ciphertext...)
	sealed = append(sealed, tag...)

	plaintext, err := e.aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return nil, ErrIntegrityCheckFailed
	}
	return plaintext, nil
}

func (e *aeadEngine) NonceSize() int {
	return e.aead.NonceSize()
}

func (e *aeadEngine) Overhead() int {
	return e.aead.Overhead()
}

// NewAESGCMEngine creates an AES-256-GCM cipher engine.
func NewAESGCMEngine(key []byte) (CipherEngine, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("AES-256 requires a %d-byte key, got %d bytes", KeySize, len(key))
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create AES cipher: %w", err)
	}

	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}

	return &aeadEngine{aead: aead}, nil
}

// NewChaCha20Poly1305Engine creates a ChaCha20-Poly1305 cipher engine.
func NewChaCha20Poly1305Engine(key []byte) (CipherEngine, error) {
	if len(key) != chacha20poly1305.KeySize {
		return nil, fmt.Errorf("ChaCha20-Poly1305 requires a %d-byte key, got %d bytes",
			chacha20poly1305.KeySize, len(key))
	}

	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create ChaCha20-Poly1305 cipher: %w", err)
	}

	return &aeadEngine{aead: aead}, nil
}

// NewCipherEngine creates a cipher engine for the given suite.
func NewCipherEngine(suite CipherSuite, key []byte) (CipherEngine, error) {
	switch suite {
	case CipherAES256GCM:
		return NewAESGCMEngine(key)
	case CipherChaCha20Poly1305:
		return NewChaCha20Poly1305Engine(key)
	default:
		return nil, fmt.Errorf("unsupported cipher suite: %d", suite)
	}
}
