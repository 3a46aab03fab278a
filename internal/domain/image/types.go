package image

import (
	"errors"
	"fmt"
)

// ErrTooLarge is wrapped by every size-limit rejection.
var ErrTooLarge = errors.New("payload too large")

// ValidationResult captures the outcome of security validation.
type ValidationResult struct {
	IsValid      bool
	Format       string
	Width        int
	Height       int
	FileSize     int64
	Error        error
	SecurityRisk string
}

// ValidationError rejects a payload before any pixel is decoded. Risk names the
// check that failed.
type ValidationError struct {
	Risk string
	Err  error
}

func (e *ValidationError) Error() string {
	if e.Risk == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %v", e.Risk, e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// Metrics aggregates pipeline statistics for observability.
type Metrics struct {
	TotalProcessed    int64 `json:"total_processed"`
	Decoded           int64 `json:"decoded"`
	FailedValidations int64 `json:"failed_validations"`
	DecodeFailures    int64 `json:"decode_failures"`
	SecurityIncidents int64 `json:"security_incidents"`
}
