package apperrors

import "errors"

var (
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput marks caller mistakes in a suggestion request, such as a
	// source column whose name is blank after trimming.
	ErrInvalidInput = errors.New("invalid input")

	// ErrValidation marks a correction that references no valid target and
	// carries no non-catalog status.
	ErrValidation = errors.New("validation failed")

	// ErrCatalogUnavailable is fatal at startup: the engine must not run
	// against an empty or partially loaded catalog.
	ErrCatalogUnavailable = errors.New("field catalog unavailable")
)

// IsClientError reports whether err should be surfaced to the caller as a
// bad request rather than a server failure.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidInput) || errors.Is(err, ErrValidation)
}
