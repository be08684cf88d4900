package cli

import (
	"errors"
	"fmt"
	"testing"

	"usda-import/internal/model"

	"github.com/stretchr/testify/assert"
)

func TestExitCodeForError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "Nil", err: nil, want: ExitSuccess},
		{name: "Usage", err: fmt.Errorf("%w: missing root folder", ErrUsage), want: ExitUsageError},
		{name: "Invalid option", err: fmt.Errorf("%w: max rows", model.ErrInvalidOption), want: ExitUsageError},
		{name: "Config", err: fmt.Errorf("%w: bad port", ErrInvalidConfig), want: ExitConfigError},
		{name: "Connection sentinel", err: fmt.Errorf("%w: timeout", ErrConnectionFailed), want: ExitConnectionError},
		{name: "Connection sentinel wrapping dial error", err: fmt.Errorf("%w: %w", ErrConnectionFailed, errors.New("dial tcp 127.0.0.1:5432: connection refused")), want: ExitConnectionError},
		{name: "Store error during run", err: fmt.Errorf("failed to load food descriptions: %w", errors.New("write tcp: connection refused")), want: ExitGeneralError},
		{name: "Missing source file", err: fmt.Errorf("%w: /data/FD_GROUP.txt", model.ErrMissingSourceFile), want: ExitMissingSourceFile},
		{name: "Malformed record", err: &model.RecordError{File: "FOOD_DES.txt", Line: 3, Got: 2, Want: 14}, want: ExitMalformedRecord},
		{name: "Wrapped malformed record", err: fmt.Errorf("load: %w", &model.RecordError{Line: 1, Got: 1, Want: 2}), want: ExitMalformedRecord},
		{name: "Unclassified", err: errors.New("disk full"), want: ExitGeneralError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExitCodeForError(tt.err))
		})
	}
}
