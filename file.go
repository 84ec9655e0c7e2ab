package vault

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/absfs/absfs"
	"github.com/google/uuid"
)

// createFlags opens output files for exclusive truncating writes.
const createFlags = os.O_WRONLY | os.O_CREATE | os.O_TRUNC

// Config contains configuration for a Vault.
type Config struct {
	// ChunkSize is the plaintext chunk size for streaming operations.
	// Zero selects DefaultChunkSize.
	ChunkSize int
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c == nil {
		return nil
	}
	if c.ChunkSize != 0 && (c.ChunkSize < MinChunkSize || c.ChunkSize > MaxChunkSize) {
		return fmt.Errorf("chunk size must be between %d and %d bytes, got %d",
			MinChunkSize, MaxChunkSize, c.ChunkSize)
	}
	return nil
}

// Vault performs file encryption and decryption over a filesystem
// abstraction. Operations are independent: each derives its own key, owns
// its own buffers and wipes both before returning, so concurrent calls on
// one Vault are safe.
type Vault struct {
	fs        absfs.FileSystem
	chunkSize int
}

// New creates a Vault over the given filesystem.
func New(fs absfs.FileSystem, config *Config) (*Vault, error) {
	if fs == nil {
		return nil, errors.New("filesystem cannot be nil")
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	chunkSize := DefaultChunkSize
	if config != nil && config.ChunkSize != 0 {
		chunkSize = config.ChunkSize
	}

	return &Vault{fs: fs, chunkSize: chunkSize}, nil
}

// NewOS creates a Vault over the operating system filesystem.
func NewOS() *Vault {
	v, _ := New(osFS{}, nil)
	return v
}

// EncryptFile reads the input file fully into memory, encrypts it through
// the buffer cipher and writes the ciphertext (tag detached) to
// outputPath, creating the output directory if absent. The returned
// metadata carries everything needed to reverse the operation except the
// password. The plaintext buffer is wiped before returning.
func (v *Vault) EncryptFile(inputPath, outputPath string, opts EncryptOptions) (*EncryptionMetadata, error) {
	info, err := v.fs.Stat(inputPath)
	if err != nil {
		return nil, newFileError("stat", inputPath, err)
	}
	if !info.Mode().IsRegular() {
		return nil, newFileError("stat", inputPath, errors.New("not a regular file"))
	}

	data, err := v.readAll(inputPath)
	if err != nil {
		return nil, err
	}
	defer Wipe(data)

	raw, err := EncryptBufferRaw(data, opts)
	if err != nil {
		return nil, err
	}

	if err := v.writeAll(outputPath, raw.CipherText); err != nil {
		return nil, err
	}

	return &EncryptionMetadata{
		Salt:             payloadEncoding.EncodeToString(raw.Salt),
		IV:               payloadEncoding.EncodeToString(raw.IV),
		AuthTag:          payloadEncoding.EncodeToString(raw.AuthTag),
		OriginalFileName: filepath.Base(inputPath),
		MimeType:         MimeTypeFor(inputPath),
		OriginalSize:     info.Size(),
		Version:          raw.Version,
		EncryptedAt:      time.Now().UTC(),
	}, nil
}

// DecryptFile reads the ciphertext fully, decrypts it with the parameters
// stored in the metadata and writes the plaintext to outputPath. The
// plaintext is staged in a temporary file and renamed into place only
// after the authentication tag has verified, so a truncated or unverified
// output file is never observable; the temporary file is removed on every
// failure path.
func (v *Vault) DecryptFile(inputPath, outputPath string, meta *EncryptionMetadata, password string) (*FileDecryptResult, error) {
	// Structural gate before reading ciphertext or deriving the key.
	raw, err := meta.decodeParams()
	if err != nil {
		return nil, err
	}
	if password == "" {
		return nil, ErrEmptyPassword
	}

	if _, err := v.fs.Stat(inputPath); err != nil {
		return nil, newFileError("stat", inputPath, err)
	}

	raw.CipherText, err = v.readAll(inputPath)
	if err != nil {
		return nil, err
	}

	result, err := DecryptBufferRaw(raw, password)
	if err != nil {
		return nil, err
	}
	defer Wipe(result.Data)

	if err := v.writeAll(outputPath, result.Data); err != nil {
		return nil, err
	}

	return &FileDecryptResult{
		OutputPath:       outputPath,
		OriginalFileName: meta.OriginalFileName,
		MimeType:         meta.MimeType,
		Size:             int64(len(result.Data)),
		Verified:         true,
	}, nil
}

// readAll reads a file fully into memory.
func (v *Vault) readAll(path string) ([]byte, error) {
	f, err := v.fs.Open(path)
	if err != nil {
		return nil, newFileError("open", path, err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, newFileError("read", path, err)
	}
	return data, nil
}

// writeAll writes data to path through a uniquely named temporary file in
// the same directory, renaming it into place only once the write has
// fully succeeded. The parent directory is created if absent.
func (v *Vault) writeAll(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := v.fs.MkdirAll(dir, 0o755); err != nil {
			return newFileError("mkdir", dir, err)
		}
	}

	tmp := tempPathFor(path)
	f, err := v.fs.OpenFile(tmp, createFlags, 0o600)
	if err != nil {
		return newFileError("create", tmp, err)
	}

	if _, err := f.Write(data); err != nil {
		f.Close()
		v.fs.Remove(tmp)
		return newFileError("write", tmp, err)
	}
	if err := f.Close(); err != nil {
		v.fs.Remove(tmp)
		return newFileError("close", tmp, err)
	}

	if err := v.fs.Rename(tmp, path); err != nil {
		v.fs.Remove(tmp)
		return newFileError("rename", path, err)
	}
	return nil
}

// tempPathFor returns a unique sibling path for staging output.
func tempPathFor(path string) string {
	return path + "." + uuid.New().String() + ".tmp"
}
