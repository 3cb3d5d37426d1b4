package ports

import "errors"

// Standard application-level errors.
// Adapters should wrap underlying infrastructure errors with these standard errors.
var (
	// General Errors
	ErrUnknown            = errors.New("unknown error occurred")
	ErrNotFound           = errors.New("resource not found")
	ErrTimeout            = errors.New("operation timed out")
	ErrContextCanceled    = errors.New("operation canceled via context")
	ErrConfigurationError = errors.New("invalid or missing configuration")

	// Remote Source Errors
	ErrSourceUnavailable = errors.New("remote data source is unavailable")
	ErrConnectionFailed  = errors.New("failed to connect to the remote source")
	ErrRateLimited       = errors.New("request rate limit exceeded")
	ErrListingFailed     = errors.New("bucket listing query failed")

	// Database Specific Errors
	ErrDBConnection = errors.New("database connection error")
	ErrQueryFailed  = errors.New("database query failed")
)
