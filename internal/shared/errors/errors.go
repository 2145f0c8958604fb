package errors

import "errors"

// Domain errors
var (
	// Detection errors
	ErrRemoteEvaluation    = errors.New("remote evaluation failed")
	ErrProbeException      = errors.New("probe threw an exception")
	ErrMalformedNetworkLog = errors.New("malformed network log")
	ErrNilExecutor         = errors.New("execution context is required")

	// Signature data errors
	ErrInvalidCatalog         = errors.New("invalid signature catalog")
	ErrInvalidServerSignature = errors.New("invalid server signature")

	// Browser errors
	ErrBrowserUnavailable = errors.New("browser unavailable")
	ErrNavigationFailed   = errors.New("navigation failed")

	// Validation errors
	ErrEmptyTarget   = errors.New("target cannot be empty")
	ErrInvalidTarget = errors.New("invalid target")
	ErrInvalidInput  = errors.New("invalid input")
)
