package vault

// Format constants for encrypted records. These are fixed for the lifetime
// of CurrentVersion: changing any of them invalidates previously produced
// records, which is exactly what the version field exists to manage.
const (
	// CurrentVersion is the record format version produced by this package.
	CurrentVersion = 1

	// SaltSize is the key-derivation salt size in bytes.
	SaltSize = 16

	// IVSize is the AES-GCM initialization vector size in bytes.
	IVSize = 12

	// TagSize is the AES-GCM authentication tag size in bytes.
	TagSize = 16

	// KeySize is the derived symmetric key size in bytes (AES-256).
	KeySize = 32

	// DefaultIterations is the PBKDF2 iteration count for version 1 records.
	DefaultIterations = 150000

	// MinPasswordLength is the minimum password length accepted by the
	// encrypt entry points.
	MinPasswordLength = 8
)

// Streaming chunk limits.
const (
	// DefaultChunkSize is the default plaintext chunk size for streaming
	// operations (64 KiB).
	DefaultChunkSize = 64 * 1024

	// MinChunkSize is the minimum allowed streaming chunk size.
	MinChunkSize = 512

	// MaxChunkSize is the maximum allowed streaming chunk size (16 MiB).
	// Frames claiming more than MaxChunkSize+TagSize bytes are rejected
	// before allocation so memory stays bounded on malformed input.
	MaxChunkSize = 16 * 1024 * 1024
)
