/*
Package budget provides the budget aggregation engine.

PURPOSE:
  This package contains the pure computations behind the budget tracker's
  dashboard, budget and report views. Given raw income/expense records it
  resolves display periods, totals records per category, and evaluates
  spending against a monthly budget plan.

KEY CONCEPTS IN THIS FILE (types.go):
  - TransactionRecord: One income or expense entry from the data source
  - Kind: Income or Expense
  - BudgetPlan: Expected total cost plus per-category limits for a month
  - CategoryBudgetStatus: Limit vs spent for one budgeted category

DESIGN PRINCIPLES:
  1. Purity: No I/O, no logging, no shared state. Safe for concurrent use.
  2. Precision: Uses decimal.Decimal for all money to avoid rounding drift
  3. Normalization: Categories are compared case-insensitively everywhere
  4. Freshness: Every call builds a new result; inputs are never mutated

USAGE:
  period, _ := budget.Resolve(time.Now(), budget.Month)
  totals := budget.Aggregate(records, budget.Expense)
  statuses := budget.Evaluate(plan, totals)

SEE ALSO:
  - period.go: Period resolution and stepping
  - aggregate.go: Category totals and summaries
  - evaluate.go: Budget evaluation
  - source.go: Interfaces for the external data source
*/
package budget

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// MONEY
// =============================================================================

// ParseAmount parses a decimal currency string such as "12.50".
// A comma is accepted as the decimal separator only when it is the sole
// separator and is followed by one or two digits ("12,5", "12,50").
// Thousands separators ("1,500", "1,500.00") and blank input are rejected.
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, fmt.Errorf("amount is required")
	}
	if i := strings.IndexByte(s, ','); i >= 0 {
		frac := s[i+1:]
		if strings.ContainsAny(frac, ",.") || strings.Contains(s[:i], ".") ||
			len(frac) < 1 || len(frac) > 2 || strings.Trim(frac, "0123456789") != "" {
			return decimal.Zero, fmt.Errorf("invalid amount %q: comma is only allowed as a decimal separator", s)
		}
		s = s[:i] + "." + frac
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	return d, nil
}

// MustParseDecimal parses s and returns zero on failure.
func MustParseDecimal(s string) decimal.Decimal {
	d, err := ParseAmount(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// percentOf returns part/whole*100 rounded to two places, or zero for an empty whole.
func percentOf(part, whole decimal.Decimal) decimal.Decimal {
	if whole.IsZero() {
		return decimal.Zero
	}
	return part.Mul(decimal.NewFromInt(100)).DivRound(whole, 2)
}

// =============================================================================
// TRANSACTION RECORDS
// =============================================================================

type RecordID string

// Kind distinguishes income from expense records.
type Kind string

const (
	Income  Kind = "income"
	Expense Kind = "expense"
)

// ParseKind accepts singular and plural forms ("expense", "expenses").
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "income", "incomes":
		return Income, nil
	case "expense", "expenses":
		return Expense, nil
	default:
		return "", fmt.Errorf("unknown record kind %q", s)
	}
}

func (k Kind) Valid() bool { return k == Income || k == Expense }

// Plural is the collection name used by the remote API paths.
func (k Kind) Plural() string { return string(k) + "s" }

// TransactionRecord is a single income or expense entry.
// Records are owned by the data source and passed by value.
type TransactionRecord struct {
	ID         RecordID
	Kind       Kind
	Category   string
	Amount     decimal.Decimal
	OccurredAt time.Time
	Notes      string
}

// UncategorizedCategory collects records with an empty category.
const UncategorizedCategory = "uncategorized"

// NormalizeCategory is the canonical category key: trimmed and lower-cased,
// with empty labels mapped to UncategorizedCategory.
func NormalizeCategory(category string) string {
	c := strings.ToLower(strings.TrimSpace(category))
	if c == "" {
		return UncategorizedCategory
	}
	return c
}

// =============================================================================
// BUDGET PLAN
// =============================================================================

// BudgetPlan declares the expected total cost and per-category limits
// for one calendar month.
type BudgetPlan struct {
	Year              int
	Month             time.Month
	ExpectedTotalCost decimal.Decimal
	CategoryLimits    map[string]decimal.Decimal
}

// LimitsTotal is the sum of every category limit.
func (p BudgetPlan) LimitsTotal() decimal.Decimal {
	total := decimal.Zero
	for _, limit := range p.CategoryLimits {
		total = total.Add(limit)
	}
	return total
}

// NormalizedLimits returns the limits keyed by normalized category.
// Keys that collapse to the same category are summed.
func (p BudgetPlan) NormalizedLimits() map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal, len(p.CategoryLimits))
	for category, limit := range p.CategoryLimits {
		key := NormalizeCategory(category)
		out[key] = out[key].Add(limit)
	}
	return out
}

// Validate enforces the plan's input-time invariants:
//   - Month is 1..12
//   - ExpectedTotalCost and every limit are non-negative
//   - Sum of limits does not exceed ExpectedTotalCost
func (p BudgetPlan) Validate() error {
	if p.Month < time.January || p.Month > time.December {
		return &InvalidPeriodError{Input: fmt.Sprintf("%d-%02d", p.Year, int(p.Month)), Reason: "month must be between 1 and 12"}
	}
	if p.ExpectedTotalCost.IsNegative() {
		return &ValidationError{
			Code:    CodeNegativeAmount,
			Message: "expected total cost must not be negative",
			Year:    p.Year,
			Month:   p.Month,
		}
	}
	for category, limit := range p.CategoryLimits {
		if limit.IsNegative() {
			return &ValidationError{
				Code:     CodeNegativeAmount,
				Message:  "category limit must not be negative",
				Category: NormalizeCategory(category),
				Year:     p.Year,
				Month:    p.Month,
			}
		}
	}

	limits := p.LimitsTotal()
	if limits.GreaterThan(p.ExpectedTotalCost) {
		return &ValidationError{
			Code:              CodeLimitsExceedTotal,
			Message:           "total category limits exceed the expected total cost",
			Year:              p.Year,
			Month:             p.Month,
			ExpectedTotalCost: p.ExpectedTotalCost,
			LimitsTotal:       limits,
			Excess:            limits.Sub(p.ExpectedTotalCost),
		}
	}
	return nil
}

// =============================================================================
// BUDGET STATUS
// =============================================================================

// CategoryBudgetStatus compares one budgeted category's limit with its spend.
type CategoryBudgetStatus struct {
	Category   string
	Limit      decimal.Decimal
	Spent      decimal.Decimal
	Remaining  decimal.Decimal // Limit - Spent, negative when overspent
	OverBudget bool

	// Share of the limit already spent, in percent (2 places). Not capped at 100.
	UsedPercent decimal.Decimal
}
