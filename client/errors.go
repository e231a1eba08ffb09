package client

import (
	"fmt"
	"net/http"

	"github.com/pocketledger/budget-engine/budget"
)

// APIError is a non-2xx response from the budget API.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
	Details    string
}

func (e *APIError) Error() string {
	msg := fmt.Sprintf("budget api: %d %s", e.StatusCode, e.Message)
	if e.Details != "" {
		msg += ": " + e.Details
	}
	return msg
}

// Unwrap maps the response to the matching budget sentinel, if any.
func (e *APIError) Unwrap() error {
	switch e.Code {
	case "record_not_found":
		return budget.ErrRecordNotFound
	case "budget_not_found":
		return budget.ErrBudgetNotFound
	case "invalid_period":
		return budget.ErrInvalidPeriod
	case budget.CodeLimitsExceedTotal, budget.CodeNegativeAmount, budget.CodeInvalidRecord:
		return budget.ErrValidation
	}
	return nil
}

// Unauthorized reports whether the server rejected the token.
func (e *APIError) Unauthorized() bool {
	return e.StatusCode == http.StatusUnauthorized
}
