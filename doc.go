// Package vault implements the password-based authenticated-encryption core
// of the document-vault system: it derives symmetric keys from user
// passwords, encrypts and decrypts byte buffers, whole files and streamed
// files, and reports failures through a typed taxonomy.
//
// # Overview
//
// The package transforms bytes given a password and nothing else. It does
// not decide where ciphertext is stored, who may request decryption, or how
// records travel between machines - callers hand it a password together
// with raw bytes or a file path, and get back either plaintext with proof
// of integrity or a classified error.
//
// # Record Format (version 1)
//
// An encrypted record is a self-contained unit:
//   - Ciphertext (variable): AES-256-GCM output, tag detached
//   - Salt (16 bytes): random, mixed into key derivation
//   - IV (12 bytes): random per encryption
//   - Auth tag (16 bytes): GCM authentication tag
//   - Version (integer): format version, currently 1
//
// EncryptedPayload carries these fields base64-encoded for transport;
// EncryptedPayloadRaw carries them as byte slices for pipelines that want
// to avoid encoding overhead. File encryption persists the non-secret
// parameters separately as EncryptionMetadata alongside the original file
// name, MIME type, size and timestamp.
//
// Keys are derived with PBKDF2-HMAC-SHA256 at 150,000 iterations. Changing
// any format constant invalidates previously produced records; the version
// field exists so a future implementation can branch on older parameters.
//
// # Security Considerations
//
// Protected against:
//   - Ciphertext tampering and corruption (authenticated encryption)
//   - Plaintext-pattern leakage (fresh salt and IV per encryption)
//   - Offline brute-force (PBKDF2 stretching, Argon2id available)
//   - Partial or unverified decrypted files becoming readable on disk
//     (write-to-temp, rename only after verification)
//
// Not protected against:
//   - Memory dumps while plaintext or keys are held in memory
//   - Side-channel attacks (timing, cache)
//   - Compromised systems with keyloggers or malware
//
// Derived keys live only for the duration of one operation and are zeroed
// on every exit path, success or failure.
//
// # Streaming
//
// Files too large to buffer are processed as a sequence of independently
// sealed 64 KiB chunks with per-chunk nonces derived from the base IV.
// A final-chunk marker defends against truncation, and decryption writes
// to a temporary file that is renamed into place only once every chunk -
// including the final tag recorded in the metadata - has verified.
package vault
