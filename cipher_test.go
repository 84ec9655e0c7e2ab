package vault

import (
	"bytes"
	"crypto/rand"
	"errors"
	"testing"
)

func testKey(t *testing.T) []byte {
	t.Helper()
	key := make([]byte, KeySize)
	if _, err := rand.Read(key); err != nil {
		t.Fatalf("failed to generate key: %v", err)
	}
	return key
}

func TestCipherEngine_SealOpenDetached(t *testing.T) {
	suites := []CipherSuite{CipherAES256GCM, CipherChaCha20Poly1305}

	for _, suite := range suites {
		t.Run(suite.String(), func(t *testing.T) {
			engine, err := NewCipherEngine(suite, testKey(t))
			if err != nil {
				t.Fatalf("NewCipherEngine failed: %v", err)
			}

			nonce := make([]byte, engine.NonceSize())
			rand.Read(nonce)
			plaintext := []byte("detached tag round trip")

			ciphertext, tag, err := engine.SealDetached(nonce, plaintext)
			if err != nil {
				t.Fatalf("SealDetached failed: %v", err)
			}
			if len(ciphertext) != len(plaintext) {
				t.Fatalf("ciphertext length: got %d, want %d", len(ciphertext), len(plaintext))
			}
			if len(tag) != engine.Overhead() {
				t.Fatalf("tag length: got %d, want %d", len(tag), engine.Overhead())
			}

			got, err := engine.OpenDetached(nonce, ciphertext, tag)
			if err != nil {
				t.Fatalf("OpenDetached failed: %v", err)
			}
			if !bytes.Equal(got, plaintext) {
				t.Fatalf("plaintext mismatch: got %q, want %q", got, plaintext)
			}
		})
	}
}

func TestCipherEngine_TamperDetection(t *testing.T) {
	engine, err := NewAESGCMEngine(testKey(t))
	if err != nil {
		t.Fatalf("NewAESGCMEngine failed: %v", err)
	}

	nonce := make([]byte, engine.NonceSize())
	ciphertext, tag, err := engine.SealDetached(nonce, []byte("authenticated data"))
	if err != nil {
		t.Fatalf("SealDetached failed: %v", err)
	}

	t.Run("flipped ciphertext byte", func(t *testing.T) {
		bad := bytes.Clone(ciphertext)
		bad[0] ^= 0x01
		if _, err := engine.OpenDetached(nonce, bad, tag); !errors.Is(err, ErrIntegrityCheckFailed) {
			t.Fatalf("got %v, want ErrIntegrityCheckFailed", err)
		}
	})

	t.Run("flipped tag byte", func(t *testing.T) {
		bad := bytes.Clone(tag)
		bad[TagSize-1] ^= 0x80
		if _, err := engine.OpenDetached(nonce, ciphertext, bad); !errors.Is(err, ErrIntegrityCheckFailed) {
			t.Fatalf("got %v, want ErrIntegrityCheckFailed", err)
		}
	})

	t.Run("wrong nonce", func(t *testing.T) {
		other := make([]byte, engine.NonceSize())
		other[0] = 0xFF
		if _, err := engine.OpenDetached(other, ciphertext, tag); !errors.Is(err, ErrIntegrityCheckFailed) {
			t.Fatalf("got %v, want ErrIntegrityCheckFailed", err)
		}
	})
}

func TestCipherEngine_EmptyPlaintext(t *testing.T) {
	engine, err := NewAESGCMEngine(testKey(t))
	if err != nil {
		t.Fatalf("NewAESGCMEngine failed: %v", err)
	}

	nonce := make([]byte, engine.NonceSize())
	ciphertext, tag, err := engine.SealDetached(nonce, nil)
	if err != nil {
		t.Fatalf("SealDetached failed: %v", err)
	}
	if len(ciphertext) != 0 {
		t.Fatalf("ciphertext for empty plaintext should be empty, got %d bytes", len(ciphertext))
	}

	got, err := engine.OpenDetached(nonce, ciphertext, tag)
	if err != nil {
		t.Fatalf("OpenDetached failed: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected empty plaintext, got %d bytes", len(got))
	}
}

func TestNewCipherEngine_InvalidInputs(t *testing.T) {
	if _, err := NewAESGCMEngine(make([]byte, 16)); err == nil {
		t.Fatal("expected error for 16-byte AES-256 key")
	}
	if _, err := NewChaCha20Poly1305Engine(make([]byte, 8)); err == nil {
		t.Fatal("expected error for 8-byte ChaCha20 key")
	}
	if _, err := NewCipherEngine(CipherSuite(99), make([]byte, KeySize)); err == nil {
		t.Fatal("expected error for unknown cipher suite")
	}

	engine, err := NewAESGCMEngine(testKey(t))
	if err != nil {
		t.Fatalf("NewAESGCMEngine failed: %v", err)
	}
	if _, _, err := engine.SealDetached(make([]byte, 8), []byte("x")); err == nil {
		t.Fatal("expected error for wrong nonce size")
	}
	if _, err := engine.OpenDetached(make([]byte, IVSize), nil, make([]byte, 4)); !errors.Is(err, ErrInvalidFormat) {
		t.Fatalf("short tag: got %v, want ErrInvalidFormat", err)
	}
}

func TestCipherSuite_String(t *testing.T) {
	if CipherAES256GCM.String() != "aes-256-gcm" {
		t.Fatalf("unexpected name: %s", CipherAES256GCM.String())
	}
	if CipherChaCha20Poly1305.String() != "chacha20-poly1305" {
		t.Fatalf("unexpected name: %s", CipherChaCha20Poly1305.String())
	}
	if CipherSuite(99).String() != "unknown" {
		t.Fatalf("unexpected name: %s", CipherSuite(99).String())
	}
}
