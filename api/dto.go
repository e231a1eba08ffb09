/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the engine types from the wire contract. The client package decodes the
  same types, so conversions in both directions live here.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - *Response: Complex response wrappers

MONEY:
  Every amount is a decimal string ("1500.25"). Floats never cross the
  wire, so totals computed by the server and by a client agree exactly.

DATES:
  Calendar days are YYYY-MM-DD. Record timestamps are RFC3339 with nanoseconds.

SEE ALSO:
  - handlers.go: Uses these types
  - client/client.go: Decodes these types
*/
package api

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/pocketledger/budget-engine/budget"
)

// =============================================================================
// RECORDS
// =============================================================================

// RecordDTO represents an income or expense record in API responses.
type RecordDTO struct {
	ID         string `json:"id"`
	Kind       string `json:"kind"`
	Category   string `json:"category"`
	Amount     string `json:"amount"`
	OccurredAt string `json:"occurred_at"`
	Notes      string `json:"notes,omitempty"`
}

// RecordRequest is the body of create and update requests.
// Date accepts YYYY-MM-DD or RFC3339 and defaults to now.
type RecordRequest struct {
	Category string `json:"category"`
	Amount   string `json:"amount"`
	Date     string `json:"date,omitempty"`
	Notes    string `json:"notes,omitempty"`
}

// RecordsResponse lists the records of one kind in a period.
type RecordsResponse struct {
	Period     PeriodDTO          `json:"period"`
	Kind       string             `json:"kind"`
	Records    []RecordDTO        `json:"records"`
	Total      string             `json:"total"`
	Count      int                `json:"count"`
	Categories []CategoryShareDTO `json:"categories"`
}

// NewRecordDTO converts a record for the wire.
func NewRecordDTO(rec budget.TransactionRecord) RecordDTO {
	return RecordDTO{
		ID:         string(rec.ID),
		Kind:       string(rec.Kind),
		Category:   rec.Category,
		Amount:     rec.Amount.String(),
		OccurredAt: rec.OccurredAt.Format(time.RFC3339Nano),
		Notes:      rec.Notes,
	}
}

// ToRecord converts a wire record back to an engine record.
func (d RecordDTO) ToRecord() (budget.TransactionRecord, error) {
	kind, err := budget.ParseKind(d.Kind)
	if err != nil {
		return budget.TransactionRecord{}, err
	}
	amount, err := budget.ParseAmount(d.Amount)
	if err != nil {
		return budget.TransactionRecord{}, fmt.Errorf("record %s: %w", d.ID, err)
	}
	at, err := time.Parse(time.RFC3339, d.OccurredAt)
	if err != nil {
		return budget.TransactionRecord{}, fmt.Errorf("record %s: bad occurred_at %q: %w", d.ID, d.OccurredAt, err)
	}
	return budget.TransactionRecord{
		ID:         budget.RecordID(d.ID),
		Kind:       kind,
		Category:   d.Category,
		Amount:     amount,
		OccurredAt: at,
		Notes:      d.Notes,
	}, nil
}

// =============================================================================
// PERIODS
// =============================================================================

// PeriodDTO is a resolved period.
type PeriodDTO struct {
	Granularity string `json:"granularity"`
	Reference   string `json:"reference"`
	Start       string `json:"start"`
	End         string `json:"end"`
	Label       string `json:"label"`
}

// NewPeriodDTO converts a period for the wire.
func NewPeriodDTO(p budget.Period) PeriodDTO {
	return PeriodDTO{
		Granularity: string(p.Granularity),
		Reference:   p.Reference.Format(budget.DateLayout),
		Start:       p.Start.Format(budget.DateLayout),
		End:         p.End.Format(budget.DateLayout),
		Label:       p.Label,
	}
}

// =============================================================================
// BUDGET
// =============================================================================

// BudgetPlanDTO is a monthly plan, used for both requests and responses.
type BudgetPlanDTO struct {
	Year              int               `json:"year"`
	Month             int               `json:"month"`
	ExpectedTotalCost string            `json:"expected_total_cost"`
	CategoryLimits    map[string]string `json:"category_limits"`
}

// BudgetResponse wraps the plan of a month; Budget is null when none exists.
type BudgetResponse struct {
	Budget *BudgetPlanDTO `json:"budget"`
}

// NewBudgetPlanDTO converts a plan for the wire.
func NewBudgetPlanDTO(p budget.BudgetPlan) BudgetPlanDTO {
	limits := make(map[string]string, len(p.CategoryLimits))
	for category, limit := range p.CategoryLimits {
		limits[category] = limit.String()
	}
	return BudgetPlanDTO{
		Year:              p.Year,
		Month:             int(p.Month),
		ExpectedTotalCost: p.ExpectedTotalCost.String(),
		CategoryLimits:    limits,
	}
}

// ToPlan parses the amounts of a wire plan. It does not validate limits
// against the expected total; call BudgetPlan.Validate for that.
func (d BudgetPlanDTO) ToPlan() (budget.BudgetPlan, error) {
	if strings.TrimSpace(d.ExpectedTotalCost) == "" {
		return budget.BudgetPlan{}, &budget.ValidationError{
			Code:    budget.CodeInvalidRecord,
			Message: "expected_total_cost is required",
			Year:    d.Year,
			Month:   time.Month(d.Month),
		}
	}
	expected, err := budget.ParseAmount(d.ExpectedTotalCost)
	if err != nil {
		return budget.BudgetPlan{}, &budget.ValidationError{
			Code:    budget.CodeInvalidRecord,
			Message: fmt.Sprintf("expected_total_cost %q is not a number", d.ExpectedTotalCost),
			Year:    d.Year,
			Month:   time.Month(d.Month),
		}
	}
	plan := budget.BudgetPlan{
		Year:              d.Year,
		Month:             time.Month(d.Month),
		ExpectedTotalCost: expected,
		CategoryLimits:    make(map[string]decimal.Decimal, len(d.CategoryLimits)),
	}
	for category, raw := range d.CategoryLimits {
		// A blank limit leaves the category unbudgeted.
		if strings.TrimSpace(raw) == "" {
			plan.CategoryLimits[category] = decimal.Zero
			continue
		}
		limit, err := budget.ParseAmount(raw)
		if err != nil {
			return budget.BudgetPlan{}, &budget.ValidationError{
				Code:     budget.CodeInvalidRecord,
				Message:  fmt.Sprintf("limit %q is not a number", raw),
				Category: category,
				Year:     d.Year,
				Month:    time.Month(d.Month),
			}
		}
		plan.CategoryLimits[category] = limit
	}
	return plan, nil
}

// CategoryStatusDTO is one row of the budget screen.
type CategoryStatusDTO struct {
	Category    string `json:"category"`
	Limit       string `json:"limit"`
	Spent       string `json:"spent"`
	Remaining   string `json:"remaining"`
	OverBudget  bool   `json:"over_budget"`
	UsedPercent string `json:"used_percent"`
}

// BudgetStatusResponse is the evaluated plan for a month.
type BudgetStatusResponse struct {
	Period            PeriodDTO           `json:"period"`
	Plan              BudgetPlanDTO       `json:"plan"`
	Statuses          []CategoryStatusDTO `json:"statuses"`
	TotalBudgeted     string              `json:"total_budgeted"`
	TotalSpent        string              `json:"total_spent"`
	UnbudgetedSpent   string              `json:"unbudgeted_spent"`
	RemainingExpected string              `json:"remaining_expected"`
	OverBudgetCount   int                 `json:"over_budget_count"`
}

// NewCategoryStatusDTO converts an evaluated status for the wire.
func NewCategoryStatusDTO(s budget.CategoryBudgetStatus) CategoryStatusDTO {
	return CategoryStatusDTO{
		Category:    s.Category,
		Limit:       s.Limit.String(),
		Spent:       s.Spent.String(),
		Remaining:   s.Remaining.String(),
		OverBudget:  s.OverBudget,
		UsedPercent: s.UsedPercent.StringFixed(2),
	}
}

// NewBudgetStatusResponse converts an overview for the wire.
func NewBudgetStatusResponse(period budget.Period, o budget.BudgetOverview) BudgetStatusResponse {
	statuses := make([]CategoryStatusDTO, len(o.Statuses))
	for i, s := range o.Statuses {
		statuses[i] = NewCategoryStatusDTO(s)
	}
	return BudgetStatusResponse{
		Period:            NewPeriodDTO(period),
		Plan:              NewBudgetPlanDTO(o.Plan),
		Statuses:          statuses,
		TotalBudgeted:     o.TotalBudgeted.String(),
		TotalSpent:        o.TotalSpent.String(),
		UnbudgetedSpent:   o.UnbudgetedSpent.String(),
		RemainingExpected: o.RemainingExpected.String(),
		OverBudgetCount:   len(o.OverBudget()),
	}
}

// =============================================================================
// REPORTS
// =============================================================================

// CategoryShareDTO is one slice of a category breakdown.
type CategoryShareDTO struct {
	Category string `json:"category"`
	Amount   string `json:"amount"`
	Count    int    `json:"count"`
	Percent  string `json:"percent"`
}

// SummaryDTO is the income/expense headline of a period.
type SummaryDTO struct {
	Income       string `json:"income"`
	Expense      string `json:"expense"`
	Balance      string `json:"balance"`
	IncomeCount  int    `json:"income_count"`
	ExpenseCount int    `json:"expense_count"`
}

// DailyTotalDTO is one bucket of the expense trend.
type DailyTotalDTO struct {
	Date   string `json:"date"`
	Amount string `json:"amount"`
}

// ReportDTO is the full period report.
type ReportDTO struct {
	Period   PeriodDTO          `json:"period"`
	Summary  SummaryDTO         `json:"summary"`
	Expenses []CategoryShareDTO `json:"expenses"`
	Incomes  []CategoryShareDTO `json:"incomes"`
	Trend    []DailyTotalDTO    `json:"trend"`
}

// NewCategoryShareDTOs converts a category breakdown, largest first.
func NewCategoryShareDTOs(totals budget.CategoryTotals) []CategoryShareDTO {
	shares := totals.Shares()
	out := make([]CategoryShareDTO, len(shares))
	for i, s := range shares {
		out[i] = CategoryShareDTO{
			Category: s.Category,
			Amount:   s.Amount.String(),
			Count:    s.Count,
			Percent:  s.Percent.StringFixed(2),
		}
	}
	return out
}

// NewReportDTO converts a report for the wire.
func NewReportDTO(r budget.Report) ReportDTO {
	trend := make([]DailyTotalDTO, len(r.Trend))
	for i, d := range r.Trend {
		trend[i] = DailyTotalDTO{Date: d.Date.Format(budget.DateLayout), Amount: d.Amount.String()}
	}
	return ReportDTO{
		Period: NewPeriodDTO(r.Period),
		Summary: SummaryDTO{
			Income:       r.Summary.Income.String(),
			Expense:      r.Summary.Expense.String(),
			Balance:      r.Summary.Balance.String(),
			IncomeCount:  r.Summary.IncomeCount,
			ExpenseCount: r.Summary.ExpenseCount,
		},
		Expenses: NewCategoryShareDTOs(r.Expenses),
		Incomes:  NewCategoryShareDTOs(r.Incomes),
		Trend:    trend,
	}
}

// =============================================================================
// ERRORS
// =============================================================================

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

// =============================================================================
// SCENARIO DTOs
// =============================================================================

// ScenarioDTO describes a demo scenario.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// ScenarioLoadResponse reports what a scenario load created.
type ScenarioLoadResponse struct {
	ScenarioID string `json:"scenario_id"`
	Records    int    `json:"records"`
	Budgets    int    `json:"budgets"`
}
