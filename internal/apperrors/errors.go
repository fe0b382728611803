// Package apperrors provides the stager's error taxonomy and exit code mapping.
package apperrors

import (
	"errors"
	"fmt"
)

// Sentinel errors for classification via errors.Is().
var (
	ErrValidation       = errors.New("validation error")
	ErrProjectNotFound  = errors.New("project not found")
	ErrArtifactNotFound = errors.New("artifact not found")
	ErrFilesystem       = errors.New("filesystem error")
)

// Error provides structured error with context.
type Error struct {
	Sentinel error  // Wrapped sentinel for errors.Is() classification
	Message  string // Human-readable message
	Field    string // For validation errors (e.g., "variant", "staging_dir")
	Project  string // For project lookups (e.g., ":app_skin")
	Path     string // Filesystem path involved, if any
	Op       string // Operation that failed (e.g., "stage.copy")
	Cause    error  // Underlying error
}

// Error returns the human-readable error message.
func (e *Error) Error() string {
	return e.Message
}

// Unwrap exposes both the sentinel and the underlying cause, so errors.Is
// matches ErrFilesystem as well as fs.ErrPermission on the same value.
func (e *Error) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Sentinel}
	}
	return []error{e.Sentinel, e.Cause}
}

// Validation creates a validation error for a specific field.
func Validation(field, message string) error {
	return &Error{
		Sentinel: ErrValidation,
		Message:  message,
		Field:    field,
	}
}

// ProjectNotFound reports a sub-project identifier that does not resolve.
func ProjectNotFound(id string) error {
	return &Error{
		Sentinel: ErrProjectNotFound,
		Message:  fmt.Sprintf("project %s not found", id),
		Project:  id,
	}
}

// ArtifactNotFound reports a resolution that completed without a match.
func ArtifactNotFound(buildRoot, variant string) error {
	return &Error{
		Sentinel: ErrArtifactNotFound,
		Message:  fmt.Sprintf("no %s artifact found under %s", variant, buildRoot),
		Path:     buildRoot,
	}
}

// Filesystem wraps an I/O failure during directory creation or copying.
func Filesystem(op, path string, cause error) error {
	return &Error{
		Sentinel: ErrFilesystem,
		Message:  fmt.Sprintf("%s %s: %v", op, path, cause),
		Path:     path,
		Op:       op,
		Cause:    cause,
	}
}

// IsFatal reports whether err should abort the invocation.
// Missing projects and missing artifacts are expected variations, not failures.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	return !errors.Is(err, ErrProjectNotFound) && !errors.Is(err, ErrArtifactNotFound)
}
