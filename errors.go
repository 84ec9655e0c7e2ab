package vault

import (
	"errors"
	"fmt"
)

// Sentinel errors forming the user-facing failure taxonomy. Every
// cryptographic or structural failure produced by this package wraps one
// of these, so callers classify with errors.Is rather than by matching
// message text.
var (
	// ErrWrongPassword is returned when GCM tag verification fails during
	// a password-based decrypt. At this layer a wrong password and
	// tampered ciphertext are indistinguishable.
	ErrWrongPassword = errors.New("wrong password or corrupted data")

	// ErrIntegrityCheckFailed is returned where tampering can be
	// disambiguated from a wrong password, e.g. when every streamed chunk
	// authenticates under the derived key but the final tag does not match
	// the one recorded in the metadata.
	ErrIntegrityCheckFailed = errors.New("integrity check failed - data has been tampered with")

	// ErrInvalidFormat is returned for malformed or wrong-length payload
	// fields.
	ErrInvalidFormat = errors.New("invalid payload format")

	// ErrUnsupportedVersion is returned when a record's format version is
	// not the currently supported one.
	ErrUnsupportedVersion = errors.New("unsupported payload version")

	// ErrMissingFields is returned when a required payload field is absent.
	ErrMissingFields = errors.New("payload is missing required fields")

	// ErrEmptyPassword is returned by key derivation for an empty password.
	ErrEmptyPassword = errors.New("password cannot be empty")

	// ErrPasswordTooShort is returned by encrypt entry points for
	// passwords shorter than MinPasswordLength.
	ErrPasswordTooShort = fmt.Errorf("password must be at least %d characters", MinPasswordLength)
)

// ErrorCode is the coarse classification of a failure, suitable for
// surfacing across a trust boundary without leaking internals.
type ErrorCode uint8

const (
	CodeUnknown ErrorCode = iota
	CodeWrongPassword
	CodeIntegrityCheckFailed
	CodeInvalidFormat
	CodeUnsupportedVersion
	CodeMissingFields
	CodeFileError
)

// String returns the string representation of the error code.
func (c ErrorCode) String() string {
	switch c {
	case CodeWrongPassword:
		return "wrong-password"
	case CodeIntegrityCheckFailed:
		return "integrity-check-failed"
	case CodeInvalidFormat:
		return "invalid-format"
	case CodeUnsupportedVersion:
		return "unsupported-version"
	case CodeMissingFields:
		return "missing-fields"
	case CodeFileError:
		return "file-error"
	default:
		return "unknown"
	}
}

// PayloadError reports a structural problem with an encrypted payload or
// its metadata. It wraps one of the taxonomy sentinels so errors.Is still
// matches while the field-level detail is preserved.
type PayloadError struct {
	Field   string // The payload field that failed validation
	Message string // Human-readable error message
	Err     error  // Taxonomy sentinel this failure belongs to
}

func (e *PayloadError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("payload error: %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("payload error: %s", e.Message)
}

func (e *PayloadError) Unwrap() error {
	return e.Err
}

// FileError reports a filesystem failure during a file encrypt or decrypt
// operation.
type FileError struct {
	Op   string // "open", "read", "write", "stat", "rename", ...
	Path string // File path
	Err  error  // Underlying error
}

func (e *FileError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("file error: %s %s: %v", e.Op, e.Path, e.Err)
	}
	return fmt.Sprintf("file error: %s: %v", e.Op, e.Err)
}

func (e *FileError) Unwrap() error {
	return e.Err
}

// newPayloadError creates a payload error wrapping the given sentinel.
func newPayloadError(sentinel error, field, message string) error {
	return &PayloadError{Field: field, Message: message, Err: sentinel}
}

// newFileError creates a file error for the given operation and path.
func newFileError(op, path string, err error) error {
	return &FileError{Op: op, Path: path, Err: err}
}

// Classify maps any error returned by this package onto the user-facing
// taxonomy. Classification is driven entirely by errors.Is/errors.As;
// message text never participates.
//
// Password validation failures (empty or too-short passwords) classify as
// CodeInvalidFormat: the caller's input was structurally unacceptable
// before any cryptographic work began.
func Classify(err error) ErrorCode {
	switch {
	case err == nil:
		return CodeUnknown
	case errors.Is(err, ErrWrongPassword):
		return CodeWrongPassword
	case errors.Is(err, ErrIntegrityCheckFailed):
		return CodeIntegrityCheckFailed
	case errors.Is(err, ErrUnsupportedVersion):
		return CodeUnsupportedVersion
	case errors.Is(err, ErrMissingFields):
		return CodeMissingFields
	case errors.Is(err, ErrInvalidFormat),
		errors.Is(err, ErrEmptyPassword),
		errors.Is(err, ErrPasswordTooShort):
		return CodeInvalidFormat
	}
	var fe *FileError
	if errors.As(err, &fe) {
		return CodeFileError
	}
	return CodeUnknown
}

// IsPayloadError checks if an error is a payload error.
func IsPayloadError(err error) bool {
	var pe *PayloadError
	return errors.As(err, &pe)
}

// IsFileError checks if an error is a file error.
func IsFileError(err error) bool {
	var fe *FileError
	return errors.As(err, &fe)
}
