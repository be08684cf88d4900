package model

import "fmt"

// Standard error codes for import failures
const (
	ErrCodeMissingSourceFile = "MISSING_SOURCE_FILE"
	ErrCodeMalformedRecord   = "MALFORMED_RECORD"
	ErrCodeInvalidOption     = "INVALID_OPTION"
)

// Domain errors for business logic
type DomainError struct {
	Code    string
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Common domain errors
var (
	ErrMissingSourceFile = NewDomainError(ErrCodeMissingSourceFile, "source file not found")
	ErrMalformedRecord   = NewDomainError(ErrCodeMalformedRecord, "malformed source record")
	ErrInvalidOption     = NewDomainError(ErrCodeInvalidOption, "invalid import option")
)

// RecordError describes a source line that does not have the expected number of fields.
// It unwraps to ErrMalformedRecord.
type RecordError struct {
	File string
	Line int
	Got  int
	Want int
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("%s line %d: %s: got %d fields, want at least %d",
		e.File, e.Line, ErrMalformedRecord.Message, e.Got, e.Want)
}

func (e *RecordError) Unwrap() error {
	return ErrMalformedRecord
}
