// Package apperr holds the error kinds shared by the report subsystem.
// Callers wrap them with fmt.Errorf("...: %w", ...) and test with errors.Is.
package apperr

import "errors"

var (
	// ErrValidation marks a missing or malformed parameter, or an output
	// format a report does not support. Nothing is rendered.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound marks an unknown report id, file id or member.
	ErrNotFound = errors.New("not found")
	// ErrConflict marks a uniqueness violation (member id, name, email,
	// duplicate check-in).
	ErrConflict = errors.New("conflict")
	// ErrExpired marks a ledger entry past its expiry.
	ErrExpired = errors.New("file expired")
	// ErrGone marks a live ledger entry whose bytes are missing.
	ErrGone = errors.New("file no longer available")
	// ErrNotImplemented marks a cataloged report without a generator.
	ErrNotImplemented = errors.New("report not implemented")
	// ErrRender marks an unexpected failure while building a document.
	ErrRender = errors.New("render failed")
)
