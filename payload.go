package vault

import (
	"encoding/base64"
	"fmt"
)

// payloadEncoding is the text encoding used for binary payload fields.
var payloadEncoding = base64.StdEncoding

// Decode parses the payload into its binary form, running the full
// structural validation in the process. It is the cheap gate in front of
// every decrypt entry point: records that fail here are rejected before
// any key derivation work happens.
//
// Checks run in order: required fields present (ErrMissingFields), fields
// are well-formed base64 (ErrInvalidFormat), decoded salt/IV/tag lengths
// match the format constants (ErrInvalidFormat), and the version is the
// currently supported one (ErrUnsupportedVersion). An empty ciphertext is
// legal - the empty plaintext round-trips.
func (p *EncryptedPayload) Decode() (*EncryptedPayloadRaw, error) {
	if p == nil {
		return nil, newPayloadError(ErrMissingFields, "", "payload is nil")
	}
	if p.Salt == "" {
		return nil, newPayloadError(ErrMissingFields, "salt", "required field is missing")
	}
	if p.IV == "" {
		return nil, newPayloadError(ErrMissingFields, "iv", "required field is missing")
	}
	if p.AuthTag == "" {
		return nil, newPayloadError(ErrMissingFields, "authTag", "required field is missing")
	}
	if p.Version == 0 {
		return nil, newPayloadError(ErrMissingFields, "version", "required field is missing")
	}

	raw := &EncryptedPayloadRaw{Version: p.Version}

	var err error
	if p.CipherText != "" {
		if raw.CipherText, err = payloadEncoding.DecodeString(p.CipherText); err != nil {
			return nil, newPayloadError(ErrInvalidFormat, "cipherText", "not valid base64")
		}
	}
	if raw.Salt, err = payloadEncoding.DecodeString(p.Salt); err != nil {
		return nil, newPayloadError(ErrInvalidFormat, "salt", "not valid base64")
	}
	if raw.IV, err = payloadEncoding.DecodeString(p.IV); err != nil {
		return nil, newPayloadError(ErrInvalidFormat, "iv", "not valid base64")
	}
	if raw.AuthTag, err = payloadEncoding.DecodeString(p.AuthTag); err != nil {
		return nil, newPayloadError(ErrInvalidFormat, "authTag", "not valid base64")
	}

	if err := raw.Validate(); err != nil {
		return nil, err
	}
	return raw, nil
}

// Validate checks the raw payload's field lengths and version.
func (r *EncryptedPayloadRaw) Validate() error {
	if r == nil {
		return newPayloadError(ErrMissingFields, "", "payload is nil")
	}
	if len(r.Salt) != SaltSize {
		return newPayloadError(ErrInvalidFormat, "salt",
			fmt.Sprintf("decoded length is %d bytes, expected %d", len(r.Salt), SaltSize))
	}
	if len(r.IV) != IVSize {
		return newPayloadError(ErrInvalidFormat, "iv",
			fmt.Sprintf("decoded length is %d bytes, expected %d", len(r.IV), IVSize))
	}
	if len(r.AuthTag) != TagSize {
		return newPayloadError(ErrInvalidFormat, "authTag",
			fmt.Sprintf("decoded length is %d bytes, expected %d", len(r.AuthTag), TagSize))
	}
	if r.Version != CurrentVersion {
		return newPayloadError(ErrUnsupportedVersion, "version",
			fmt.Sprintf("version %d is not supported, expected %d", r.Version, CurrentVersion))
	}
	return nil
}

// Encode returns the transportable base64 form of the raw payload.
func (r *EncryptedPayloadRaw) Encode() *EncryptedPayload {
	return &EncryptedPayload{
		CipherText: payloadEncoding.EncodeToString(r.CipherText),
		Salt:       payloadEncoding.EncodeToString(r.Salt),
		IV:         payloadEncoding.EncodeToString(r.IV),
		AuthTag:    payloadEncoding.EncodeToString(r.AuthTag),
		Version:    r.Version,
	}
}

// ValidatePayload runs the structural checks on an encoded payload and
// discards the parsed form. Callers that go on to decrypt should prefer
// Decode, which validates and parses in one pass.
func ValidatePayload(p *EncryptedPayload) error {
	_, err := p.Decode()
	return err
}
