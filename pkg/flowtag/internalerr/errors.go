// Package internalerr defines the sentinel errors shared across flowtag.
//
// Errors are created and wrapped with github.com/cockroachdb/errors so that
// stack traces and hints survive wrapping; callers match with errors.Is.
package internalerr

import (
	"github.com/cockroachdb/errors"
)

// Sentinel errors for common cases
var (
	ErrNotFound      = errors.New("not found")
	ErrInvalidInput  = errors.New("invalid input")
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrMalformedEntry marks ontology data with an unexpected shape. It is
	// raised at load time so bad data never reaches request processing.
	ErrMalformedEntry = errors.New("malformed dictionary entry")

	// ErrUnknownOntology is returned by providers that have no data for a name.
	ErrUnknownOntology = errors.New("unknown ontology")

	// ErrUndefinedLevel signals a summary pass referencing a confidence level
	// that does not exist. It indicates a programming or configuration error.
	ErrUndefinedLevel = errors.New("undefined confidence level")

	// ErrWindowTooShort is returned by gram generators when the input holds
	// fewer tokens than the requested arity.
	ErrWindowTooShort = errors.New("input shorter than gram window")
)

// Malformed wraps ErrMalformedEntry with a formatted description of the
// offending entry.
func Malformed(format string, args ...interface{}) error {
	return errors.Wrapf(ErrMalformedEntry, format, args...)
}

// InvalidConfig wraps ErrInvalidConfig with a formatted description.
func InvalidConfig(format string, args ...interface{}) error {
	return errors.Wrapf(ErrInvalidConfig, format, args...)
}
