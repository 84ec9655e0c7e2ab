package vault

// EncryptBuffer encrypts an in-memory byte sequence with a password and
// returns a transportable payload. Salt and IV are generated fresh unless
// injected through opts, so encrypting identical plaintext twice yields
// different ciphertext, salt and IV.
func EncryptBuffer(data []byte, opts EncryptOptions) (*EncryptedPayload, error) {
	raw, err := EncryptBufferRaw(data, opts)
	if err != nil {
		return nil, err
	}
	return raw.Encode(), nil
}

// EncryptBufferRaw is EncryptBuffer without the base64 encoding step, for
// pipelines that keep payloads binary.
func EncryptBufferRaw(data []byte, opts EncryptOptions) (*EncryptedPayloadRaw, error) {
	if len(opts.Password) < MinPasswordLength {
		if opts.Password == "" {
			return nil, ErrEmptyPassword
		}
		return nil, ErrPasswordTooShort
	}

	salt := opts.Salt
	if salt == nil {
		var err error
		if salt, err = GenerateSalt(); err != nil {
			return nil, err
		}
	}
	iv := opts.IV
	if iv == nil {
		var err error
		if iv, err = GenerateIV(); err != nil {
			return nil, err
		}
	}
	if len(iv) != IVSize {
		return nil, newPayloadError(ErrInvalidFormat, "iv", "injected IV has wrong length")
	}

	dk, err := DeriveKeyWithSalt([]byte(opts.Password), salt)
	if err != nil {
		return nil, err
	}
	defer dk.Wipe()

	engine, err := NewAESGCMEngine(dk.Key)
	if err != nil {
		return nil, err
	}

	ciphertext, tag, err := engine.SealDetached(iv, data)
	if err != nil {
		return nil, err
	}

	return &EncryptedPayloadRaw{
		CipherText: ciphertext,
		Salt:       salt,
		IV:         iv,
		AuthTag:    tag,
		Version:    CurrentVersion,
	}, nil
}

// DecryptBuffer validates the payload, re-derives the key from the stored
// salt and decrypts. A GCM tag mismatch surfaces as ErrWrongPassword: at
// this layer a wrong password and tampered ciphertext are
// indistinguishable, and no partial plaintext is ever returned.
func DecryptBuffer(p *EncryptedPayload, password string) (*DecryptResult, error) {
	// Structural gate before the expensive key derivation.
	raw, err := p.Decode()
	if err != nil {
		return nil, err
	}
	return DecryptBufferRaw(raw, password)
}

// DecryptBufferRaw is DecryptBuffer for payloads already in binary form.
func DecryptBufferRaw(raw *EncryptedPayloadRaw, password string) (*DecryptResult, error) {
	if password == "" {
		return nil, ErrEmptyPassword
	}
	if err := raw.Validate(); err != nil {
		return nil, err
	}

	dk, err := DeriveKeyWithSalt([]byte(password), raw.Salt)
	if err != nil {
		return nil, err
	}
	defer dk.Wipe()

	engine, err := NewAESGCMEngine(dk.Key)
	if err != nil {
		return nil, err
	}

	plaintext, err := engine.OpenDetached(raw.IV, raw.CipherText, raw.AuthTag)
	if err != nil {
		return nil, ErrWrongPassword
	}

	return &DecryptResult{Data: plaintext, Verified: true}, nil
}
