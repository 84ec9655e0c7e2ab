package vault

import (
	"bytes"
	"crypto/rand"
	"errors"
	"hash"
	"testing"
)

const testPassword = "correct-password"

func TestEncryptDecryptBuffer_RoundTrip(t *testing.T) {
	plaintexts := map[string][]byte{
		"short text":      []byte("Hello, World!"),
		"empty":           {},
		"binary":          {0x00, 0xFF, 0x10, 0x80, 0x7F},
		"larger than 4KB": bytes.Repeat([]byte("0123456789ABCDEF"), 300),
	}

	for name, plaintext := range plaintexts {
		t.Run(name, func(t *testing.T) {
			payload, err := EncryptBuffer(plaintext, EncryptOptions{Password: testPassword})
			if err != nil {
				t.Fatalf("EncryptBuffer failed: %v", err)
			}
			if payload.Version != CurrentVersion {
				t.Fatalf("version: got %d, want %d", payload.Version, CurrentVersion)
			}

			result, err := DecryptBuffer(payload, testPassword)
			if err != nil {
				t.Fatalf("DecryptBuffer failed: %v", err)
			}
			if !result.Verified {
				t.Fatal("decrypt result not marked verified")
			}
			if !bytes.Equal(result.Data, plaintext) {
				t.Fatalf("plaintext mismatch: got %q, want %q", result.Data, plaintext)
			}
		})
	}
}

func TestEncryptBuffer_FreshRandomnessPerCall(t *testing.T) {
	plaintext := []byte("identical plaintext")

	p1, err := EncryptBuffer(plaintext, EncryptOptions{Password: testPassword})
	if err != nil {
		t.Fatalf("EncryptBuffer failed: %v", err)
	}
	p2, err := EncryptBuffer(plaintext, EncryptOptions{Password: testPassword})
	if err != nil {
		t.Fatalf("EncryptBuffer failed: %v", err)
	}

	if p1.CipherText == p2.CipherText {
		t.Fatal("two encryptions produced identical ciphertext")
	}
	if p1.Salt == p2.Salt {
		t.Fatal("two encryptions produced identical salt")
	}
	if p1.IV == p2.IV {
		t.Fatal("two encryptions produced identical IV")
	}
}

func TestDecryptBuffer_WrongPassword(t *testing.T) {
	payload, err := EncryptBuffer([]byte("Hello, World!"), EncryptOptions{Password: testPassword})
	if err != nil {
		t.Fatalf("EncryptBuffer failed: %v", err)
	}

	result, err := DecryptBuffer(payload, "wrong-password")
	if !errors.Is(err, ErrWrongPassword) {
		t.Fatalf("got %v, want ErrWrongPassword", err)
	}
	if result != nil {
		t.Fatal("decrypt returned a result alongside an error")
	}
	if Classify(err) != CodeWrongPassword {
		t.Fatalf("Classify: got %v, want CodeWrongPassword", Classify(err))
	}
}

func TestDecryptBuffer_TamperedCiphertextAndTag(t *testing.T) {
	payload, err := EncryptBuffer([]byte("sensitive document contents"), EncryptOptions{Password: testPassword})
	if err != nil {
		t.Fatalf("EncryptBuffer failed: %v", err)
	}
	raw, err := payload.Decode()
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}

	flip := func(idx int) *EncryptedPayload {
		clone := &EncryptedPayloadRaw{
			CipherText: bytes.Clone(raw.CipherText),
			Salt:       bytes.Clone(raw.Salt),
			IV:         bytes.Clone(raw.IV),
			AuthTag:    bytes.Clone(raw.AuthTag),
			Version:    raw.Version,
		}
		if idx < len(clone.CipherText) {
			clone.CipherText[idx] ^= 0x01
		} else {
			clone.AuthTag[idx-len(clone.CipherText)] ^= 0x01
		}
		return clone.Encode()
	}

	// Every single-byte flip across ciphertext and tag must fail closed.
	for i := 0; i < len(raw.CipherText)+TagSize; i++ {
		tampered := flip(i)
		result, err := DecryptBuffer(tampered, testPassword)
		if !errors.Is(err, ErrWrongPassword) {
			t.Fatalf("flip at %d: got %v, want ErrWrongPassword", i, err)
		}
		if result != nil {
			t.Fatalf("flip at %d: plaintext returned for tampered payload", i)
		}
	}
}

func TestEncryptBuffer_PasswordRules(t *testing.T) {
	if _, err := EncryptBuffer([]byte("data"), EncryptOptions{Password: ""}); !errors.Is(err, ErrEmptyPassword) {
		t.Fatalf("empty password: got %v, want ErrEmptyPassword", err)
	}
	if _, err := EncryptBuffer([]byte("data"), EncryptOptions{Password: "short"}); !errors.Is(err, ErrPasswordTooShort) {
		t.Fatalf("short password: got %v, want ErrPasswordTooShort", err)
	}
	if _, err := EncryptBuffer([]byte("data"), EncryptOptions{Password: "12345678"}); err != nil {
		t.Fatalf("8-character password rejected: %v", err)
	}
}

func TestDecryptBuffer_EmptyPassword(t *testing.T) {
	payload := wellFormedPayload()
	if _, err := DecryptBuffer(payload, ""); !errors.Is(err, ErrEmptyPassword) {
		t.Fatalf("got %v, want ErrEmptyPassword", err)
	}
}

func TestEncryptBuffer_InjectedSaltAndIV(t *testing.T) {
	salt := bytes.Repeat([]byte{0x55}, SaltSize)
	iv := bytes.Repeat([]byte{0x66}, IVSize)
	opts := EncryptOptions{Password: testPassword, Salt: salt, IV: iv}

	p1, err := EncryptBuffer([]byte("deterministic"), opts)
	if err != nil {
		t.Fatalf("EncryptBuffer failed: %v", err)
	}
	p2, err := EncryptBuffer([]byte("deterministic"), opts)
	if err != nil {
		t.Fatalf("EncryptBuffer failed: %v", err)
	}

	if p1.CipherText != p2.CipherText || p1.AuthTag != p2.AuthTag {
		t.Fatal("injected salt and IV did not produce deterministic output")
	}
}

// TestDecryptBuffer_VersionRejectedBeforeDerivation swaps the PBKDF2 seam
// for a counting wrapper to prove the structural gate runs first: a
// bad-version payload must never reach the expensive derivation.
func TestDecryptBuffer_VersionRejectedBeforeDerivation(t *testing.T) {
	payload, err := EncryptBuffer([]byte("gated"), EncryptOptions{Password: testPassword})
	if err != nil {
		t.Fatalf("EncryptBuffer failed: %v", err)
	}
	payload.Version = 7

	derivations := 0
	orig := pbkdf2Key
	pbkdf2Key = func(password, salt []byte, iter, keyLen int, h func() hash.Hash) []byte {
		derivations++
		return orig(password, salt, iter, keyLen, h)
	}
	defer func() { pbkdf2Key = orig }()

	if _, err := DecryptBuffer(payload, testPassword); !errors.Is(err, ErrUnsupportedVersion) {
		t.Fatalf("got %v, want ErrUnsupportedVersion", err)
	}
	if derivations != 0 {
		t.Fatalf("key derivation ran %d times for a bad-version payload", derivations)
	}
}

func TestEncryptDecryptBufferRaw(t *testing.T) {
	plaintext := make([]byte, 1024)
	rand.Read(plaintext)

	raw, err := EncryptBufferRaw(plaintext, EncryptOptions{Password: testPassword})
	if err != nil {
		t.Fatalf("EncryptBufferRaw failed: %v", err)
	}
	if len(raw.Salt) != SaltSize || len(raw.IV) != IVSize || len(raw.AuthTag) != TagSize {
		t.Fatal("raw payload field lengths do not match format constants")
	}
	if len(raw.CipherText) != len(plaintext) {
		t.Fatalf("ciphertext length: got %d, want %d (tag is detached)", len(raw.CipherText), len(plaintext))
	}

	result, err := DecryptBufferRaw(raw, testPassword)
	if err != nil {
		t.Fatalf("DecryptBufferRaw failed: %v", err)
	}
	if !bytes.Equal(result.Data, plaintext) {
		t.Fatal("raw round trip mismatch")
	}
}
