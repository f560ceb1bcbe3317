/*
errors.go - Error taxonomy for the payroll core

PURPOSE:
  Every failure surfaced by the core is a single typed value (*Error) that
  carries its kind, the stage the computation had reached, and the offending
  field or rule. Callers branch with errors.Is on the kind sentinels.

ERROR KINDS:
  1. Validation           - malformed or out-of-range input
  2. MissingConfiguration - a referenced rule/record was not resolved by the
                            caller (a Validation variant: errors.Is matches both)
  3. Computation          - arithmetic contradiction (division by zero, a rule
                            with no calculation mode reaching resolution)

USAGE:
  result, err := engine.Compute(inputs)
  if payroll.IsValidation(err) {
      // map to 422
  }
  var overlap *payroll.BracketOverlapError
  if errors.As(err, &overlap) {
      // overlap.Previous / overlap.Current identify the pair
  }

SEE ALSO:
  - bracket.go: BracketOverlapError producer
  - engine.go: stage annotation
*/
package payroll

import (
	"errors"
	"fmt"
	"strings"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	ErrValidation           = errors.New("validation error")
	ErrMissingConfiguration = errors.New("missing configuration")
	ErrComputation          = errors.New("computation error")

	// ErrBracketOverlap is returned when two brackets of one set overlap or an
	// open-ended bracket is not the last one.
	ErrBracketOverlap = errors.New("overlapping brackets")

	ErrInvalidTimeRange     = errors.New("check-out must be after check-in")
	ErrFutureCheckIn        = errors.New("cannot check in for a future date")
	ErrOvertimeExceeded     = errors.New("overtime hours exceed the daily cap")
	ErrWorkingHoursExceeded = errors.New("working hours exceed the daily cap")

	// ErrNotFound is returned by stores for missing records.
	ErrNotFound = errors.New("not found")
)

// ErrorKind classifies an *Error.
type ErrorKind string

const (
	KindValidation           ErrorKind = "validation"
	KindMissingConfiguration ErrorKind = "missing_configuration"
	KindComputation          ErrorKind = "computation"
)

// =============================================================================
// STRUCTURED ERRORS
// =============================================================================

// Error is the typed error returned across the core.
type Error struct {
	Kind ErrorKind

	// Stage is the last state the computation reached before failing. Empty
	// for errors raised outside Engine.Compute (rule construction etc).
	Stage Stage

	Field   string
	RuleID  string
	Message string
	Err     error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Kind))
	if e.Stage != "" {
		b.WriteString(" at " + string(e.Stage))
	}
	if e.RuleID != "" {
		b.WriteString(" [rule " + e.RuleID + "]")
	}
	if e.Field != "" {
		b.WriteString(" [" + e.Field + "]")
	}
	b.WriteString(": " + e.Message)
	if e.Err != nil {
		b.WriteString(": " + e.Err.Error())
	}
	return b.String()
}

// Unwrap exposes the kind sentinels and the cause.
func (e *Error) Unwrap() []error {
	errs := make([]error, 0, 3)
	switch e.Kind {
	case KindValidation:
		errs = append(errs, ErrValidation)
	case KindMissingConfiguration:
		errs = append(errs, ErrMissingConfiguration, ErrValidation)
	case KindComputation:
		errs = append(errs, ErrComputation)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

func NewValidationError(field, format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Field: field, Message: fmt.Sprintf(format, args...)}
}

func NewMissingConfigurationError(field, format string, args ...any) *Error {
	return &Error{Kind: KindMissingConfiguration, Field: field, Message: fmt.Sprintf(format, args...)}
}

func NewComputationError(cause error, format string, args ...any) *Error {
	return &Error{Kind: KindComputation, Message: fmt.Sprintf(format, args...), Err: cause}
}

// ForRule returns a copy annotated with the rule id.
func (e *Error) ForRule(id string) *Error {
	c := *e
	c.RuleID = id
	return &c
}

// Because returns a copy wrapping cause.
func (e *Error) Because(cause error) *Error {
	c := *e
	c.Err = cause
	return &c
}

// BracketOverlapError identifies the offending bracket pair. Indexes refer to
// the set sorted by minimum amount.
type BracketOverlapError struct {
	PreviousIndex int
	CurrentIndex  int
	Previous      Bracket
	Current       Bracket
	Reason        string
}

func (e *BracketOverlapError) Error() string {
	return fmt.Sprintf("bracket %d (%s) conflicts with bracket %d (%s): %s",
		e.CurrentIndex, e.Current.DisplayLabel(), e.PreviousIndex, e.Previous.DisplayLabel(), e.Reason)
}

func (e *BracketOverlapError) Unwrap() []error {
	return []error{ErrBracketOverlap, ErrValidation}
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsValidation reports whether err is caller input at fault. Missing
// configuration counts as validation.
func IsValidation(err error) bool { return errors.Is(err, ErrValidation) }

func IsMissingConfiguration(err error) bool { return errors.Is(err, ErrMissingConfiguration) }

func IsComputation(err error) bool { return errors.Is(err, ErrComputation) }

// atStage annotates err with the stage reached. Foreign errors become
// computation errors so the caller always receives an *Error.
func atStage(err error, stage Stage) error {
	var pe *Error
	if errors.As(err, &pe) {
		c := *pe
		if c.Stage == "" {
			c.Stage = stage
		}
		return &c
	}
	var overlap *BracketOverlapError
	if errors.As(err, &overlap) {
		return &Error{Kind: KindValidation, Stage: stage, Message: "invalid bracket set", Err: err}
	}
	return &Error{Kind: KindComputation, Stage: stage, Message: "unexpected failure", Err: err}
}
