package engine

import (
	"errors"
	"fmt"

	"github.com/roach88/canon/internal/canon"
)

// ValidationError is the gateway failure returned by Realize when the
// declaration did not pass validation. It carries the full verdict so
// callers can show every finding with rule ids and article citations.
type ValidationError struct {
	Verdict canon.Verdict
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	counts := e.Verdict.CountBySeverity()
	return fmt.Sprintf(
		"declaration %q failed validation: %d fatal, %d error, %d warn finding(s)",
		e.Verdict.DeclarationTitle,
		counts[canon.SeverityFatal],
		counts[canon.SeverityError],
		counts[canon.SeverityWarn],
	)
}

// BypassError is returned when skip-validation is requested on an engine
// that was not constructed with bypass authorization. A single call site
// can never disable validation on its own.
type BypassError struct {
	DeclarationTitle string
}

// Error implements the error interface.
func (e *BypassError) Error() string {
	return fmt.Sprintf(
		"validation bypass requested for declaration %q but this engine does not allow bypass",
		e.DeclarationTitle,
	)
}

// IsValidationError reports whether err is a validation gateway failure.
// Uses errors.As to handle wrapped errors.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsBypassError reports whether err is an unauthorized bypass attempt.
// Uses errors.As to handle wrapped errors.
func IsBypassError(err error) bool {
	var be *BypassError
	return errors.As(err, &be)
}

// VerdictFrom extracts the verdict from a validation gateway failure.
func VerdictFrom(err error) (canon.Verdict, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Verdict, true
	}
	return canon.Verdict{}, false
}
