package cli

import (
	"errors"

	"usda-import/internal/model"
)

// Exit codes returned by the importer binary.
const (
	ExitSuccess           = 0  // Import completed successfully
	ExitGeneralError      = 1  // Unknown or unclassified error
	ExitUsageError        = 2  // CLI usage error (missing args, invalid flags)
	ExitPanic             = 3  // Internal panic (unexpected crash)
	ExitConfigError       = 10 // Invalid configuration
	ExitConnectionError   = 11 // Failed to connect to database
	ExitMissingSourceFile = 14 // FD_GROUP or FOOD_DES file not found
	ExitMalformedRecord   = 15 // Source line with too few fields
)

// Sentinel errors raised by the command layer.
var (
	// ErrUsage indicates invalid arguments or flags.
	ErrUsage = errors.New("invalid usage")

	// ErrInvalidConfig indicates the environment configuration is invalid.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrConnectionFailed indicates the database could not be reached.
	ErrConnectionFailed = errors.New("connection failed")
)

// ExitCodeForError returns the exit code for an error returned by Execute.
// Returns ExitSuccess for nil errors and ExitGeneralError for unclassified errors.
// ExitConnectionError is reserved for ErrConnectionFailed; a store error in the
// middle of a run is a general error.
func ExitCodeForError(err error) int {
	if err == nil {
		return ExitSuccess
	}

	switch {
	case errors.Is(err, ErrUsage), errors.Is(err, model.ErrInvalidOption):
		return ExitUsageError
	case errors.Is(err, ErrInvalidConfig):
		return ExitConfigError
	case errors.Is(err, ErrConnectionFailed):
		return ExitConnectionError
	case errors.Is(err, model.ErrMissingSourceFile):
		return ExitMissingSourceFile
	case errors.Is(err, model.ErrMalformedRecord):
		return ExitMalformedRecord
	}

	return ExitGeneralError
}
