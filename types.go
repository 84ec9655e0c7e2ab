package vault

import "time"

// EncryptedPayload is a self-contained, transportable encrypted record with
// all binary fields base64-encoded. It is created by an encrypt operation
// and consumed, never mutated, by a decrypt operation.
type EncryptedPayload struct {
	CipherText string `json:"cipherText"`
	Salt       string `json:"salt"`
	IV         string `json:"iv"`
	AuthTag    string `json:"authTag"`
	Version    int    `json:"version"`
}

// EncryptedPayloadRaw is the binary form of EncryptedPayload, used by
// pipelines that want to avoid encode/decode overhead.
type EncryptedPayloadRaw struct {
	CipherText []byte
	Salt       []byte
	IV         []byte
	AuthTag    []byte
	Version    int
}

// EncryptionMetadata holds the non-secret parameters needed to reverse a
// file encryption. It is meant to be persisted separately from the
// ciphertext bytes; EncryptedAt marshals as an ISO-8601 timestamp.
type EncryptionMetadata struct {
	Salt             string    `json:"salt"`
	IV               string    `json:"iv"`
	AuthTag          string    `json:"authTag"`
	OriginalFileName string    `json:"originalFileName"`
	MimeType         string    `json:"mimeType"`
	OriginalSize     int64     `json:"originalSize"`
	Version          int       `json:"version"`
	EncryptedAt      time.Time `json:"encryptedAt"`
}

// DerivedKey is a stretched symmetric key together with the parameters that
// produced it. The key is sensitive and transient: it must never be logged
// or persisted, and Wipe must be called as soon as the operation that
// derived it completes.
type DerivedKey struct {
	Key        []byte
	Salt       []byte
	Iterations int
}

// Wipe zeroes the key material.
func (d *DerivedKey) Wipe() {
	Wipe(d.Key)
}

// EncryptOptions controls an encrypt operation. Salt and IV are generated
// fresh on every call when left nil; injecting them explicitly exists only
// for deterministic testing.
type EncryptOptions struct {
	Password string
	Salt     []byte
	IV       []byte
}

// DecryptResult is the outcome of a successful buffer decrypt. Data is
// returned only when the authentication tag verified, so Verified is
// always true on a nil-error return; it exists so callers never have to
// guess whether plaintext carries proof of integrity.
type DecryptResult struct {
	Data     []byte
	Verified bool
}

// FileDecryptResult is the outcome of a successful file decrypt.
type FileDecryptResult struct {
	OutputPath       string
	OriginalFileName string
	MimeType         string
	Size             int64
	Verified         bool
}

// ProgressFunc is invoked once per chunk during streaming operations with
// the number of input bytes consumed so far and the total input size.
// It runs synchronously on the pipeline's goroutine.
type ProgressFunc func(bytesProcessed, totalBytes int64)
