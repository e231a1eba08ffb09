/*
errors.go - Centralized error types for the budget engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  Only two things can go wrong inside the engine: a budget plan that
  breaks its own invariants, and a period that cannot be resolved.
  Aggregation and evaluation over well-formed inputs never fail.

ERROR CATEGORIES:
  1. Validation errors - Budget plan rejected at input time
  2. Period errors     - Unknown granularity or unparseable date
  3. Source errors     - Missing records/plans in a data source

USAGE:
  if err := plan.Validate(); err != nil {
      var verr *budget.ValidationError
      if errors.As(err, &verr) { ... verr.Excess ... }
  }

SEE ALSO:
  - types.go: BudgetPlan.Validate
  - period.go: ParseGranularity, ParseDate
  - api/handlers.go: Maps these errors to HTTP status codes
*/
package budget

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrValidation is wrapped by every ValidationError.
	ErrValidation = errors.New("budget plan validation failed")

	// ErrInvalidPeriod is wrapped by every InvalidPeriodError.
	ErrInvalidPeriod = errors.New("invalid period")

	// ErrRecordNotFound is returned by stores when a record id is unknown.
	ErrRecordNotFound = errors.New("record not found")

	// ErrBudgetNotFound is returned by sources when no plan exists for a month.
	ErrBudgetNotFound = errors.New("budget plan not found")
)

// Validation codes carried by ValidationError.Code.
const (
	CodeLimitsExceedTotal = "limits_exceed_total"
	CodeNegativeAmount    = "negative_amount"
	CodeInvalidRecord     = "invalid_record"
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// ValidationError reports a budget plan (or record) that must be rejected
// before evaluation.
type ValidationError struct {
	Code     string
	Message  string
	Category string // set when a single category is at fault

	Year  int
	Month time.Month

	// Set for CodeLimitsExceedTotal
	ExpectedTotalCost decimal.Decimal
	LimitsTotal       decimal.Decimal
	Excess            decimal.Decimal
}

func (e *ValidationError) Error() string {
	switch {
	case e.Code == CodeLimitsExceedTotal:
		return fmt.Sprintf("%s: %s (limits %s > expected %s by %s)",
			e.Code, e.Message, e.LimitsTotal, e.ExpectedTotalCost, e.Excess)
	case e.Category != "":
		return fmt.Sprintf("%s: %s (category %q)", e.Code, e.Message, e.Category)
	default:
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// InvalidPeriodError reports a granularity outside day/week/month or a
// reference date that cannot be parsed.
type InvalidPeriodError struct {
	Input  string
	Reason string
}

func (e *InvalidPeriodError) Error() string {
	return fmt.Sprintf("invalid period %q: %s", e.Input, e.Reason)
}

func (e *InvalidPeriodError) Unwrap() error {
	return ErrInvalidPeriod
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid caller input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrInvalidPeriod)
}

// IsNotFound returns true if the error indicates a missing record or plan.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrRecordNotFound) ||
		errors.Is(err, ErrBudgetNotFound)
}
