package authenticity

import (
	"errors"
	"fmt"
)

// FailureKind tags why an analysis produced no result.
type FailureKind string

const (
	// FailureDecode means the input could not be interpreted as pixel data.
	FailureDecode FailureKind = "decode_error"
	// FailureEmptyInput means there were no frames to score.
	FailureEmptyInput FailureKind = "empty_input"
)

// AnalysisError is returned instead of a partial Result.
type AnalysisError struct {
	Kind  FailureKind
	Op    string
	Cause error
}

func (e *AnalysisError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Kind)
}

func (e *AnalysisError) Unwrap() error {
	return e.Cause
}

// DecodeError builds a FailureDecode error.
func DecodeError(op string, cause error) error {
	return &AnalysisError{Kind: FailureDecode, Op: op, Cause: cause}
}

// EmptyInputError builds a FailureEmptyInput error.
func EmptyInputError(op string) error {
	return &AnalysisError{Kind: FailureEmptyInput, Op: op}
}

// IsFailure reports whether err carries an AnalysisError of the given kind.
func IsFailure(err error, kind FailureKind) bool {
	var ae *AnalysisError
	if errors.As(err, &ae) {
		return ae.Kind == kind
	}
	return false
}
