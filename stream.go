package vault

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/absfs/absfs"
)

// Streamed files are a sequence of frames, each an independently sealed
// plaintext chunk:
//
//	[4 bytes BE: len(ciphertext||tag)] [ciphertext||tag]
//
// The per-chunk nonce is derived from the metadata IV by folding a
// big-endian chunk counter into its last four bytes; the final chunk
// additionally flips a marker bit so a truncated stream can never
// authenticate. The final chunk's tag is recorded in the metadata as the
// stream's authentication tag.

// finalChunkMarker is XORed into the nonce for the last chunk of a stream.
const finalChunkMarker = 0x80

// chunkNonce derives the nonce for chunk counter from the base IV.
func chunkNonce(baseIV []byte, counter uint32, final bool) []byte {
	nonce := make([]byte, IVSize)
	copy(nonce, baseIV)
	tail := binary.BigEndian.Uint32(nonce[IVSize-4:])
	binary.BigEndian.PutUint32(nonce[IVSize-4:], tail^counter)
	if final {
		nonce[7] ^= finalChunkMarker
	}
	return nonce
}

// EncryptFileStream encrypts a file through a bounded-memory pipeline: one
// plaintext chunk is in flight at a time regardless of file size. The
// progress callback, when non-nil, fires once per chunk with the input
// bytes consumed so far and the total input size. The context is checked
// between chunks; on cancellation the partial output is removed.
func (v *Vault) EncryptFileStream(ctx context.Context, inputPath, outputPath string, opts EncryptOptions, progress ProgressFunc) (*EncryptionMetadata, error) {
	if len(opts.Password) < MinPasswordLength {
		if opts.Password == "" {
			return nil, ErrEmptyPassword
		}
		return nil, ErrPasswordTooShort
	}

	info, err := v.fs.Stat(inputPath)
	if err != nil {
		return nil, newFileError("stat", inputPath, err)
	}
	if !info.Mode().IsRegular() {
		return nil, newFileError("stat", inputPath, errors.New("not a regular file"))
	}

	salt := opts.Salt
	if salt == nil {
		if salt, err = GenerateSalt(); err != nil {
			return nil, err
		}
	}
	iv := opts.IV
	if iv == nil {
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

	in, err := v.fs.Open(inputPath)
	if err != nil {
		return nil, newFileError("open", inputPath, err)
	}
	defer in.Close()

	out, tmp, err := v.createStaged(outputPath)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			out.Close()
			v.fs.Remove(tmp)
		}
	}()

	var (
		processed int64
		counter   uint32
		finalTag  []byte
		total     = info.Size()
	)

	// Read one chunk ahead so the last chunk can be sealed with the
	// final-chunk marker before it is written out.
	cur, curErr := readChunk(in, v.chunkSize)
	if curErr != nil && curErr != io.EOF {
		return nil, newFileError("read", inputPath, curErr)
	}

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		next, nextErr := readChunk(in, v.chunkSize)
		if nextErr != nil && nextErr != io.EOF {
			Wipe(cur)
			return nil, newFileError("read", inputPath, nextErr)
		}
		final := len(next) == 0

		ciphertext, tag, err := engine.SealDetached(chunkNonce(iv, counter, final), cur)
		if err != nil {
			Wipe(cur)
			return nil, err
		}

		if err := writeFrame(out, ciphertext, tag); err != nil {
			Wipe(cur)
			return nil, newFileError("write", tmp, err)
		}

		processed += int64(len(cur))
		Wipe(cur)
		if progress != nil {
			progress(processed, total)
		}

		if final {
			finalTag = tag
			break
		}
		cur = next
		counter++
	}

	if err := out.Close(); err != nil {
		return nil, newFileError("close", tmp, err)
	}
	if err := v.fs.Rename(tmp, outputPath); err != nil {
		return nil, newFileError("rename", outputPath, err)
	}
	committed = true

	return &EncryptionMetadata{
		Salt:             payloadEncoding.EncodeToString(salt),
		IV:               payloadEncoding.EncodeToString(iv),
		AuthTag:          payloadEncoding.EncodeToString(finalTag),
		OriginalFileName: filepath.Base(inputPath),
		MimeType:         MimeTypeFor(inputPath),
		OriginalSize:     total,
		Version:          CurrentVersion,
		EncryptedAt:      time.Now().UTC(),
	}, nil
}

// DecryptFileStream decrypts a streamed file. Every chunk must
// authenticate under the derived key before its plaintext is flushed, and
// the whole output is staged in a temporary file that is renamed into
// place only after the final chunk's tag has also matched the tag recorded
// in the metadata. On any failure - wrong password, tampering, truncation,
// cancellation - the temporary file is removed and no output path exists.
//
// GCM only proves integrity per chunk here, not across the stream as a
// whole, so chunk ordering and stream termination are bound into the
// per-chunk nonces instead.
func (v *Vault) DecryptFileStream(ctx context.Context, inputPath, outputPath string, meta *EncryptionMetadata, password string, progress ProgressFunc) (*FileDecryptResult, error) {
	raw, err := meta.decodeParams()
	if err != nil {
		return nil, err
	}
	if password == "" {
		return nil, ErrEmptyPassword
	}

	info, err := v.fs.Stat(inputPath)
	if err != nil {
		return nil, newFileError("stat", inputPath, err)
	}
	total := info.Size()

	dk, err := DeriveKeyWithSalt([]byte(password), raw.Salt)
	if err != nil {
		return nil, err
	}
	defer dk.Wipe()

	engine, err := NewAESGCMEngine(dk.Key)
	if err != nil {
		return nil, err
	}

	in, err := v.fs.Open(inputPath)
	if err != nil {
		return nil, newFileError("open", inputPath, err)
	}
	defer in.Close()

	out, tmp, err := v.createStaged(outputPath)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			out.Close()
			v.fs.Remove(tmp)
		}
	}()

	var (
		processed int64
		counter   uint32
		size      int64
	)

	cur, curErr := readFrame(in)
	if curErr == io.EOF {
		return nil, newPayloadError(ErrInvalidFormat, "stream", "no frames in encrypted stream")
	}
	if curErr != nil {
		return nil, curErr
	}

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		next, nextErr := readFrame(in)
		if nextErr != nil && nextErr != io.EOF {
			return nil, nextErr
		}
		final := nextErr == io.EOF

		split := len(cur) - TagSize
		ciphertext, tag := cur[:split], cur[split:]

		plaintext, err := engine.OpenDetached(chunkNonce(raw.IV, counter, final), ciphertext, tag)
		if err != nil {
			return nil, ErrWrongPassword
		}

		if _, err := out.Write(plaintext); err != nil {
			Wipe(plaintext)
			return nil, newFileError("write", tmp, err)
		}
		size += int64(len(plaintext))
		Wipe(plaintext)

		processed += int64(len(cur)) + frameHeaderSize
		if progress != nil {
			progress(processed, total)
		}

		if final {
			if !constantTimeEqual(tag, raw.AuthTag) {
				return nil, ErrIntegrityCheckFailed
			}
			break
		}
		cur = next
		counter++
	}

	if err := out.Close(); err != nil {
		return nil, newFileError("close", tmp, err)
	}
	if err := v.fs.Rename(tmp, outputPath); err != nil {
		return nil, newFileError("rename", outputPath, err)
	}
	committed = true

	return &FileDecryptResult{
		OutputPath:       outputPath,
		OriginalFileName: meta.OriginalFileName,
		MimeType:         meta.MimeType,
		Size:             size,
		Verified:         true,
	}, nil
}

// frameHeaderSize is the length prefix in front of every frame.
const frameHeaderSize = 4

// createStaged creates a uniquely named temporary file next to path,
// creating the parent directory if absent.
func (v *Vault) createStaged(path string) (absfs.File, string, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := v.fs.MkdirAll(dir, 0o755); err != nil {
			return nil, "", newFileError("mkdir", dir, err)
		}
	}
	tmp := tempPathFor(path)
	f, err := v.fs.OpenFile(tmp, createFlags, 0o600)
	if err != nil {
		return nil, "", newFileError("create", tmp, err)
	}
	return f, tmp, nil
}

// readChunk reads up to chunkSize plaintext bytes. It returns io.EOF only
// when no bytes at all remain.
func readChunk(r io.Reader, chunkSize int) ([]byte, error) {
	buf := make([]byte, chunkSize)
	n, err := io.ReadFull(r, buf)
	if n > 0 {
		return buf[:n], nil
	}
	if err == io.ErrUnexpectedEOF {
		err = io.EOF
	}
	return nil, err
}

// writeFrame writes one length-prefixed frame.
func writeFrame(w io.Writer, ciphertext, tag []byte) error {
	var header [frameHeaderSize]byte
	binary.BigEndian.PutUint32(header[:], uint32(len(ciphertext)+len(tag)))
	if _, err := w.Write(header[:]); err != nil {
		return err
	}
	if _, err := w.Write(ciphertext); err != nil {
		return err
	}
	_, err := w.Write(tag)
	return err
}

// readFrame reads one length-prefixed frame. It returns io.EOF when the
// stream ends cleanly on a frame boundary; a frame cut short mid-body is
// reported as a format error, since a well-formed stream never ends there.
func readFrame(r io.Reader) ([]byte, error) {
	var header [frameHeaderSize]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		if err == io.EOF {
			return nil, io.EOF
		}
		return nil, newPayloadError(ErrInvalidFormat, "stream", "truncated frame header")
	}

	length := binary.BigEndian.Uint32(header[:])
	if length < TagSize {
		return nil, newPayloadError(ErrInvalidFormat, "stream",
			fmt.Sprintf("frame of %d bytes is shorter than the authentication tag", length))
	}
	if length > MaxChunkSize+TagSize {
		return nil, newPayloadError(ErrInvalidFormat, "stream",
			fmt.Sprintf("frame of %d bytes exceeds the maximum chunk size", length))
	}

	frame := make([]byte, length)
	if _, err := io.ReadFull(r, frame); err != nil {
		return nil, newPayloadError(ErrInvalidFormat, "stream", "truncated frame body")
	}
	return frame, nil
}
