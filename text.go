package vault

// EncryptText encrypts a UTF-8 string through the buffer cipher.
func EncryptText(text, password string) (*EncryptedPayload, error) {
	return EncryptBuffer([]byte(text), EncryptOptions{Password: password})
}

// DecryptText decrypts a payload produced by EncryptText back to a string.
func DecryptText(p *EncryptedPayload, password string) (string, error) {
	result, err := DecryptBuffer(p, password)
	if err != nil {
		return "", err
	}
	return string(result.Data), nil
}
