/*
source.go - Interfaces to the external data source

PURPOSE:
  The engine never fetches anything. Callers obtain records and plans from
  a Source and hand them to the pure functions. These interfaces are the
  seam between the engine and whatever holds the data: the remote budget
  API (client package), a SQLite database (store/sqlite) or memory
  (budget/store).

KEY INTERFACES:
  Source: Read records for a resolved period, read a month's plan
  Store:  Source plus record CRUD and plan upserts

IMPLEMENTATIONS:
  - client/client.go: Remote HTTP API
  - store/sqlite/sqlite.go: SQLite
  - budget/store/memory.go: In-memory for tests and file input

SEE ALSO:
  - dashboard/controller.go: Fetches through a Source on period change
*/
package budget

import (
	"context"
	"time"
)

// =============================================================================
// SOURCE - Read side
// =============================================================================

// Source supplies records and plans.
type Source interface {
	// Records returns the records of the given kind that fall in the period,
	// ordered by OccurredAt.
	Records(ctx context.Context, period Period, kind Kind) ([]TransactionRecord, error)

	// Budget returns the plan for the month. Returns ErrBudgetNotFound when
	// no plan has been saved.
	Budget(ctx context.Context, year int, month time.Month) (BudgetPlan, error)
}

// =============================================================================
// STORE - Read/write side
// =============================================================================

// Store persists records and plans.
type Store interface {
	Source

	// AddRecord persists a new record. The caller assigns the ID.
	AddRecord(ctx context.Context, rec TransactionRecord) error

	// GetRecord returns ErrRecordNotFound for an unknown ID.
	GetRecord(ctx context.Context, id RecordID) (TransactionRecord, error)

	// UpdateRecord replaces an existing record. Returns ErrRecordNotFound
	// for an unknown ID.
	UpdateRecord(ctx context.Context, rec TransactionRecord) error

	// DeleteRecord removes a record. Returns ErrRecordNotFound for an
	// unknown ID.
	DeleteRecord(ctx context.Context, id RecordID) error

	// SaveBudget creates or replaces the plan for plan.Year/plan.Month.
	// Implementations do not validate; callers run plan.Validate() first.
	SaveBudget(ctx context.Context, plan BudgetPlan) error
}

// ValidateRecord checks a record before it is stored.
func ValidateRecord(rec TransactionRecord) error {
	switch {
	case rec.ID == "":
		return &ValidationError{Code: CodeInvalidRecord, Message: "record id is required"}
	case !rec.Kind.Valid():
		return &ValidationError{Code: CodeInvalidRecord, Message: "record kind must be income or expense"}
	case rec.Amount.IsNegative():
		return &ValidationError{Code: CodeNegativeAmount, Message: "amount must not be negative", Category: NormalizeCategory(rec.Category)}
	case rec.OccurredAt.IsZero():
		return &ValidationError{Code: CodeInvalidRecord, Message: "record date is required"}
	}
	return nil
}
