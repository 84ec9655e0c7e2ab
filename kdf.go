package vault

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/sha512"
	"fmt"
	"hash"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/pbkdf2"
)

// HashFunc represents hash function choices for PBKDF2.
type HashFunc uint8

const (
	// SHA256 hash function (format version 1).
	SHA256 HashFunc = iota
	// SHA512 hash function
	SHA512
)

// KDFParams contains fully custom PBKDF2 parameters, for interoperability
// with legacy records produced under a different configuration.
type KDFParams struct {
	Iterations int      // Number of iterations (must be >= 1)
	KeyLength  int      // Derived key size in bytes (must be >= 1)
	Hash       HashFunc // Hash function to use
}

// Argon2idParams contains parameters for Argon2id key derivation.
type Argon2idParams struct {
	Memory      uint32 // Memory in KiB (e.g. 64*1024 for 64 MB)
	Iterations  uint32 // Number of passes (time parameter)
	Parallelism uint8  // Degree of parallelism
	KeyLength   uint32 // Derived key size in bytes (default 32)
}

// pbkdf2Key is a seam over pbkdf2.Key so tests can count derivations.
var pbkdf2Key = pbkdf2.Key

// DeriveKey stretches a password into a 32-byte symmetric key using
// PBKDF2-HMAC-SHA256 with a freshly generated 16-byte salt and the
// version-1 iteration count. Derivation is CPU-bound and blocks the
// caller for its duration; run it on its own goroutine if that matters.
func DeriveKey(password []byte) (*DerivedKey, error) {
	salt, err := GenerateSalt()
	if err != nil {
		return nil, err
	}
	return DeriveKeyWithSalt(password, salt)
}

// DeriveKeyWithSalt is the deterministic variant: the same password and
// salt always yield the same key. It fails with ErrEmptyPassword for an
// empty password and ErrInvalidFormat for a wrong-length salt.
func DeriveKeyWithSalt(password, salt []byte) (*DerivedKey, error) {
	if len(password) == 0 {
		return nil, ErrEmptyPassword
	}
	if len(salt) != SaltSize {
		return nil, newPayloadError(ErrInvalidFormat, "salt",
			fmt.Sprintf("salt must be %d bytes, got %d", SaltSize, len(salt)))
	}

	key := pbkdf2Key(password, salt, DefaultIterations, KeySize, sha256.New)
	return &DerivedKey{Key: key, Salt: salt, Iterations: DefaultIterations}, nil
}

// DeriveKeyCustom derives a key with fully custom PBKDF2 parameters. It
// exists for reading records produced under a differently-configured
// legacy deployment; new records always use the version-1 parameters.
func DeriveKeyCustom(password, salt []byte, params KDFParams) (*DerivedKey, error) {
	if len(password) == 0 {
		return nil, ErrEmptyPassword
	}
	if params.Iterations < 1 {
		return nil, fmt.Errorf("iterations must be at least 1, got %d", params.Iterations)
	}
	if params.KeyLength < 1 {
		return nil, fmt.Errorf("key length must be at least 1, got %d", params.KeyLength)
	}

	var hashFunc func() hash.Hash
	switch params.Hash {
	case SHA256:
		hashFunc = sha256.New
	case SHA512:
		hashFunc = sha512.New
	default:
		return nil, fmt.Errorf("unsupported hash function: %v", params.Hash)
	}

	key := pbkdf2Key(password, salt, params.Iterations, params.KeyLength, hashFunc)
	return &DerivedKey{Key: key, Salt: salt, Iterations: params.Iterations}, nil
}

// DeriveKeyArgon2id derives a key using Argon2id. Memory-hard derivation
// resists GPU attacks better than PBKDF2; version-1 records are defined
// over PBKDF2, so this is for callers managing their own key material.
func DeriveKeyArgon2id(password, salt []byte, params Argon2idParams) (*DerivedKey, error) {
	if len(password) == 0 {
		return nil, ErrEmptyPassword
	}
	if len(salt) == 0 {
		return nil, newPayloadError(ErrInvalidFormat, "salt", "salt cannot be empty")
	}

	// OWASP-style defaults
	if params.Memory == 0 {
		params.Memory = 64 * 1024
	}
	if params.Iterations == 0 {
		params.Iterations = 3
	}
	if params.Parallelism == 0 {
		params.Parallelism = 4
	}
	if params.KeyLength == 0 {
		params.KeyLength = KeySize
	}

	key := argon2.IDKey(password, salt, params.Iterations, params.Memory,
		params.Parallelism, params.KeyLength)
	return &DerivedKey{Key: key, Salt: salt, Iterations: int(params.Iterations)}, nil
}

// GenerateSalt generates a fresh random salt.
func GenerateSalt() ([]byte, error) {
	salt := make([]byte, SaltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("failed to generate salt: %w", err)
	}
	return salt, nil
}

// GenerateIV generates a fresh random initialization vector.
func GenerateIV() ([]byte, error) {
	iv := make([]byte, IVSize)
	if _, err := rand.Read(iv); err != nil {
		return nil, fmt.Errorf("failed to generate IV: %w", err)
	}
	return iv, nil
}
