/*
scenarios.go - Demo scenario loaders for development and demonstrations

PURPOSE:

	Provides pre-built scenarios that populate the store with realistic
	records and budget plans. Dates are relative to the handler clock so a
	freshly loaded scenario always shows data in the current month.

AVAILABLE SCENARIOS:

	empty:         Clears everything
	first-month:   One salary, a few expenses, a plan that fits
	over-budget:   Overspent categories plus unbudgeted spending
	three-months:  Current and two previous months, each with a plan

HOW SCENARIOS WORK:
 1. Reset store (clear all data)
 2. Save the month plans
 3. Add income and expense records

USAGE VIA API (only when RouterOptions.Scenarios is set):

	GET  /api/v1/scenarios
	GET  /api/v1/scenarios/current
	POST /api/v1/scenarios/load
	{"scenario_id": "over-budget"}

NOTE:

	Scenarios reset the store. Only use in development/demo environments.

SEE ALSO:
  - server.go: Route registration
  - store/sqlite/sqlite.go: Reset
*/
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/pocketledger/budget-engine/budget"
)

// Resetter is implemented by stores that can be wiped for demo scenarios.
type Resetter interface {
	Reset(ctx context.Context) error
}

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

var scenarios = []ScenarioDTO{
	{
		ID:          "empty",
		Name:        "Empty",
		Description: "No records and no budgets",
	},
	{
		ID:          "first-month",
		Name:        "First Month",
		Description: "Salary, everyday expenses and a plan with room to spare",
	},
	{
		ID:          "over-budget",
		Name:        "Over Budget",
		Description: "Food and entertainment overspent, travel not budgeted at all",
	},
	{
		ID:          "three-months",
		Name:        "Three Months",
		Description: "Current and two previous months with a rent increase",
	},
}

// scenarioEntry is one record of a scenario, dated by day of month.
type scenarioEntry struct {
	kind     budget.Kind
	category string
	amount   string
	day      int
	notes    string
}

// scenarioMonth is the content of one month, offset from the current one.
type scenarioMonth struct {
	offset   int
	expected string
	limits   map[string]string
	entries  []scenarioEntry
}

var scenarioData = map[string][]scenarioMonth{
	"empty": nil,
	"first-month": {
		{
			expected: "2500",
			limits:   map[string]string{"groceries": "500", "rent": "1200", "transport": "100"},
			entries: []scenarioEntry{
				{budget.Income, "Salary", "3000", 1, "monthly pay"},
				{budget.Expense, "Rent", "1200", 1, ""},
				{budget.Expense, "Groceries", "180.20", 4, "weekly shop"},
				{budget.Expense, "Groceries", "240.30", 11, "weekly shop"},
				{budget.Expense, "Transport", "85", 6, "bus pass"},
			},
		},
	},
	"over-budget": {
		{
			expected: "1800",
			limits:   map[string]string{"food": "400", "entertainment": "150", "rent": "1000"},
			entries: []scenarioEntry{
				{budget.Income, "Salary", "2200", 1, ""},
				{budget.Expense, "Rent", "1000", 1, ""},
				{budget.Expense, "Food", "310.50", 3, ""},
				{budget.Expense, "food", "210.25", 9, "party"},
				{budget.Expense, "Entertainment", "90", 9, "concert"},
				{budget.Expense, "Entertainment", "75", 14, "cinema"},
				{budget.Expense, "Travel", "300", 12, "train tickets"},
			},
		},
	},
	"three-months": {
		{
			offset:   -2,
			expected: "2000",
			limits:   map[string]string{"rent": "1100", "food": "450"},
			entries: []scenarioEntry{
				{budget.Income, "Salary", "2800", 1, ""},
				{budget.Expense, "Rent", "1100", 1, ""},
				{budget.Expense, "Food", "390", 15, ""},
			},
		},
		{
			offset:   -1,
			expected: "2000",
			limits:   map[string]string{"rent": "1100", "food": "450"},
			entries: []scenarioEntry{
				{budget.Income, "Salary", "2800", 1, ""},
				{budget.Income, "Freelance", "450", 20, "logo design"},
				{budget.Expense, "Rent", "1100", 1, ""},
				{budget.Expense, "Food", "470", 15, ""},
			},
		},
		{
			expected: "2100",
			limits:   map[string]string{"rent": "1250", "food": "450"},
			entries: []scenarioEntry{
				{budget.Income, "Salary", "2800", 1, ""},
				{budget.Expense, "Rent", "1250", 1, "rent increase"},
				{budget.Expense, "Food", "120", 5, ""},
			},
		},
	},
}

// =============================================================================
// HANDLERS
// =============================================================================

// ListScenarios returns available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// GetCurrentScenario returns the last loaded scenario, or null.
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	h.scenarioMu.Lock()
	current := h.currentScenario
	h.scenarioMu.Unlock()

	for _, s := range scenarios {
		if s.ID == current {
			writeJSON(w, http.StatusOK, s)
			return
		}
	}
	writeJSON(w, http.StatusOK, nil)
}

// LoadScenario resets the store and loads a predefined scenario.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ScenarioID string `json:"scenario_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", "invalid_body", err)
		return
	}

	months, ok := scenarioData[req.ScenarioID]
	if !ok {
		writeError(w, http.StatusNotFound, "Unknown scenario", "scenario_not_found",
			fmt.Errorf("scenario %q does not exist", req.ScenarioID))
		return
	}

	resetter, ok := h.Store.(Resetter)
	if !ok {
		writeError(w, http.StatusNotImplemented, "Store cannot be reset", "not_supported", nil)
		return
	}

	h.scenarioMu.Lock()
	defer h.scenarioMu.Unlock()

	if err := resetter.Reset(r.Context()); err != nil {
		h.fail(w, r, "Failed to reset store", err)
		return
	}
	h.currentScenario = ""

	result, err := h.loadScenario(r.Context(), months)
	if err != nil {
		h.fail(w, r, "Failed to load scenario", err)
		return
	}
	h.currentScenario = req.ScenarioID
	result.ScenarioID = req.ScenarioID

	h.Logger.InfoContext(r.Context(), "scenario loaded",
		"scenario", req.ScenarioID,
		"records", result.Records,
		"budgets", result.Budgets)

	writeJSON(w, http.StatusOK, result)
}

// =============================================================================
// LOADERS
// =============================================================================

func (h *Handler) loadScenario(ctx context.Context, months []scenarioMonth) (ScenarioLoadResponse, error) {
	var result ScenarioLoadResponse
	now := h.Now()
	base := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())

	for _, m := range months {
		first := base.AddDate(0, m.offset, 0)

		plan, err := scenarioPlan(first, m)
		if err != nil {
			return result, err
		}
		if err := h.Store.SaveBudget(ctx, plan); err != nil {
			return result, fmt.Errorf("failed to save budget %d-%02d: %w", plan.Year, plan.Month, err)
		}
		result.Budgets++

		for _, e := range m.entries {
			rec := budget.TransactionRecord{
				ID:         h.NewID(),
				Kind:       e.kind,
				Category:   e.category,
				Amount:     decimal.RequireFromString(e.amount),
				OccurredAt: first.AddDate(0, 0, e.day-1).Add(12 * time.Hour),
				Notes:      e.notes,
			}
			if err := h.Store.AddRecord(ctx, rec); err != nil {
				return result, fmt.Errorf("failed to add %s %s: %w", e.kind, e.category, err)
			}
			result.Records++
		}
	}
	return result, nil
}

func scenarioPlan(first time.Time, m scenarioMonth) (budget.BudgetPlan, error) {
	plan := budget.BudgetPlan{
		Year:              first.Year(),
		Month:             first.Month(),
		ExpectedTotalCost: decimal.RequireFromString(m.expected),
		CategoryLimits:    make(map[string]decimal.Decimal, len(m.limits)),
	}
	for category, limit := range m.limits {
		plan.CategoryLimits[category] = decimal.RequireFromString(limit)
	}
	if err := plan.Validate(); err != nil {
		return budget.BudgetPlan{}, fmt.Errorf("invalid scenario plan: %w", err)
	}
	return plan, nil
}
