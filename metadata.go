package vault

import "fmt"

// decodeParams decodes and validates the cryptographic parameters stored
// in file metadata, returning them as a raw payload with the ciphertext
// left for the caller to fill in. It is the structural gate for the file
// decrypt entry points, mirroring EncryptedPayload.Decode.
func (m *EncryptionMetadata) decodeParams() (*EncryptedPayloadRaw, error) {
	if m == nil {
		return nil, newPayloadError(ErrMissingFields, "", "metadata is nil")
	}
	if m.Salt == "" {
		return nil, newPayloadError(ErrMissingFields, "salt", "required field is missing")
	}
	if m.IV == "" {
		return nil, newPayloadError(ErrMissingFields, "iv", "required field is missing")
	}
	if m.AuthTag == "" {
		return nil, newPayloadError(ErrMissingFields, "authTag", "required field is missing")
	}
	if m.Version == 0 {
		return nil, newPayloadError(ErrMissingFields, "version", "required field is missing")
	}

	raw := &EncryptedPayloadRaw{Version: m.Version}

	var err error
	if raw.Salt, err = payloadEncoding.DecodeString(m.Salt); err != nil {
		return nil, newPayloadError(ErrInvalidFormat, "salt", "not valid base64")
	}
	if raw.IV, err = payloadEncoding.DecodeString(m.IV); err != nil {
		return nil, newPayloadError(ErrInvalidFormat, "iv", "not valid base64")
	}
	if raw.AuthTag, err = payloadEncoding.DecodeString(m.AuthTag); err != nil {
		return nil, newPayloadError(ErrInvalidFormat, "authTag", "not valid base64")
	}

	if err := raw.Validate(); err != nil {
		return nil, err
	}
	if m.OriginalSize < 0 {
		return nil, newPayloadError(ErrInvalidFormat, "originalSize",
			fmt.Sprintf("size cannot be negative, got %d", m.OriginalSize))
	}
	return raw, nil
}
