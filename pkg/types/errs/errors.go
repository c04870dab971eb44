package errs

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// Not found.
	ErrRecordNotFound = errors.New("record not found")
	ErrUploadNotFound = errors.New("upload not found")

	// Security: declared type does not match the object's magic bytes.
	// The temp object is deleted before this is returned.
	ErrMimeMismatch = errors.New("declared content type does not match file contents")

	// Unrecoverable.
	ErrInvalidUploadID = errors.New("malformed upload id")
	ErrUnreadableImage = errors.New("image dimensions could not be determined")
)

// FieldError is one user-correctable problem with a named input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError aggregates field-level failures. Surfaced as HTTP 400
// with per-field detail.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		msgs = append(msgs, fmt.Sprintf("%s: %s", f.Field, f.Message))
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Fields: []FieldError{{Field: field, Message: message}}}
}

func (e *ValidationError) Add(field, message string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: message})
}

// ConflictError reports an asset that is still referenced. Usage maps
// each referencing relation to its reference count.
type ConflictError struct {
	Usage map[string]int
}

func (e *ConflictError) Error() string {
	total := 0
	for _, n := range e.Usage {
		total += n
	}
	return fmt.Sprintf("asset is still referenced %d time(s)", total)
}

// TransientStorageError wraps a blob-store transport failure. The
// caller may retry the whole operation while the temp object exists.
type TransientStorageError struct {
	Op  string
	Key string
	Err error
}

func (e *TransientStorageError) Error() string {
	return fmt.Sprintf("storage %s failed for %q: %v", e.Op, e.Key, e.Err)
}

func (e *TransientStorageError) Unwrap() error { return e.Err }
