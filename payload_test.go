package vault

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
)

// wellFormedPayload builds a structurally valid payload. It is not
// decryptable; validator tests only care about structure.
func wellFormedPayload() *EncryptedPayload {
	raw := &EncryptedPayloadRaw{
		CipherText: bytes.Repeat([]byte{0x11}, 24),
		Salt:       bytes.Repeat([]byte{0x22}, SaltSize),
		IV:         bytes.Repeat([]byte{0x33}, IVSize),
		AuthTag:    bytes.Repeat([]byte{0x44}, TagSize),
		Version:    CurrentVersion,
	}
	return raw.Encode()
}

func TestValidatePayload(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(p *EncryptedPayload)
		wantErr error
	}{
		{"valid", func(p *EncryptedPayload) {}, nil},
		{"empty ciphertext is legal", func(p *EncryptedPayload) { p.CipherText = "" }, nil},
		{"missing salt", func(p *EncryptedPayload) { p.Salt = "" }, ErrMissingFields},
		{"missing iv", func(p *EncryptedPayload) { p.IV = "" }, ErrMissingFields},
		{"missing auth tag", func(p *EncryptedPayload) { p.AuthTag = "" }, ErrMissingFields},
		{"missing version", func(p *EncryptedPayload) { p.Version = 0 }, ErrMissingFields},
		{"ciphertext not base64", func(p *EncryptedPayload) { p.CipherText = "not base64!!!" }, ErrInvalidFormat},
		{"salt not base64", func(p *EncryptedPayload) { p.Salt = "%%%" }, ErrInvalidFormat},
		{"iv not base64", func(p *EncryptedPayload) { p.IV = "%%%" }, ErrInvalidFormat},
		{"auth tag not base64", func(p *EncryptedPayload) { p.AuthTag = "%%%" }, ErrInvalidFormat},
		{"salt wrong length", func(p *EncryptedPayload) {
			p.Salt = payloadEncoding.EncodeToString(make([]byte, 8))
		}, ErrInvalidFormat},
		{"iv wrong length", func(p *EncryptedPayload) {
			p.IV = payloadEncoding.EncodeToString(make([]byte, 16))
		}, ErrInvalidFormat},
		{"auth tag wrong length", func(p *EncryptedPayload) {
			p.AuthTag = payloadEncoding.EncodeToString(make([]byte, 12))
		}, ErrInvalidFormat},
		{"future version", func(p *EncryptedPayload) { p.Version = 2 }, ErrUnsupportedVersion},
		{"negative version", func(p *EncryptedPayload) { p.Version = -1 }, ErrUnsupportedVersion},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := wellFormedPayload()
			tt.mutate(p)

			err := ValidatePayload(p)
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("ValidatePayload failed: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("got %v, want %v", err, tt.wantErr)
			}
			if !IsPayloadError(err) {
				t.Fatalf("expected a *PayloadError, got %T", err)
			}
		})
	}
}

func TestValidatePayload_Nil(t *testing.T) {
	if err := ValidatePayload(nil); !errors.Is(err, ErrMissingFields) {
		t.Fatalf("got %v, want ErrMissingFields", err)
	}
}

func TestPayload_EncodeDecodeRoundTrip(t *testing.T) {
	raw := &EncryptedPayloadRaw{
		CipherText: []byte{0xDE, 0xAD, 0xBE, 0xEF},
		Salt:       bytes.Repeat([]byte{0x01}, SaltSize),
		IV:         bytes.Repeat([]byte{0x02}, IVSize),
		AuthTag:    bytes.Repeat([]byte{0x03}, TagSize),
		Version:    CurrentVersion,
	}

	decoded, err := raw.Encode().Decode()
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}

	if !bytes.Equal(decoded.CipherText, raw.CipherText) {
		t.Fatal("ciphertext did not round-trip")
	}
	if !bytes.Equal(decoded.Salt, raw.Salt) {
		t.Fatal("salt did not round-trip")
	}
	if !bytes.Equal(decoded.IV, raw.IV) {
		t.Fatal("IV did not round-trip")
	}
	if !bytes.Equal(decoded.AuthTag, raw.AuthTag) {
		t.Fatal("auth tag did not round-trip")
	}
	if decoded.Version != raw.Version {
		t.Fatalf("version: got %d, want %d", decoded.Version, raw.Version)
	}
}

func TestPayload_JSONFieldNames(t *testing.T) {
	data, err := json.Marshal(wellFormedPayload())
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}

	for _, name := range []string{"cipherText", "salt", "iv", "authTag", "version"} {
		if _, ok := fields[name]; !ok {
			t.Fatalf("JSON output missing wire field %q", name)
		}
	}
}
