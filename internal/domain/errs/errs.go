// Package errs defines the error taxonomy shared across components.
package errs

import "errors"

var (
	// ErrValidation marks a missing or invalid request field,
	// surfaced synchronously before any job is created.
	ErrValidation = errors.New("validation error")

	// ErrAuthentication marks upstream credential rejection. Never
	// retried automatically.
	ErrAuthentication = errors.New("authentication failed")

	// ErrManifestResolution marks a target whose item manifest could
	// not be fetched or parsed. Terminal for the job.
	ErrManifestResolution = errors.New("manifest resolution failed")

	// ErrMalformedInput marks a response that parsed but cannot be
	// used. The retry wrapper fails immediately on it, since an
	// identical request will not fix it.
	ErrMalformedInput = errors.New("malformed input")
)
