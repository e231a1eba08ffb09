/*
evaluate.go - Budget evaluation

PURPOSE:
  Compares expense totals against a month's budget plan and answers
  "how much is left in each category, and which ones are overspent?"

EVALUATION RULES:
  For every plan category with a limit > 0:
    Spent      = expense total for the category (0 if none)
    Remaining  = Limit - Spent (may be negative)
    OverBudget = Remaining < 0
  Categories with a zero or absent limit are not reported.

VALIDATION:
  Evaluate trusts its inputs. EvaluatePlan is the enforced pipeline:
  1. plan.Validate() rejects limits that exceed the expected total
  2. Aggregate(records, Expense)
  3. Evaluate(plan, totals)

EXAMPLE:
  Plan: expected 3000, food 2000
  Records: Food 1000, food 500 (expense), Transport 200 (income)

  Evaluate: food  limit 2000  spent 1500  remaining 500  over=false

SEE ALSO:
  - aggregate.go: Produces the expense totals
  - types.go: BudgetPlan and CategoryBudgetStatus
*/
package budget

import (
	"sort"

	"github.com/shopspring/decimal"
)

// =============================================================================
// EVALUATOR
// =============================================================================

// Evaluate produces one status per budgeted category, sorted by category.
// Neither the plan nor the totals are modified.
func Evaluate(plan BudgetPlan, spent CategoryTotals) []CategoryBudgetStatus {
	limits := plan.NormalizedLimits()

	categories := make([]string, 0, len(limits))
	for category, limit := range limits {
		if limit.IsPositive() {
			categories = append(categories, category)
		}
	}
	sort.Strings(categories)

	statuses := make([]CategoryBudgetStatus, 0, len(categories))
	for _, category := range categories {
		limit := limits[category]
		used := spent.Get(category)
		remaining := limit.Sub(used)
		statuses = append(statuses, CategoryBudgetStatus{
			Category:    category,
			Limit:       limit,
			Spent:       used,
			Remaining:   remaining,
			OverBudget:  remaining.IsNegative(),
			UsedPercent: percentOf(used, limit),
		})
	}
	return statuses
}

// =============================================================================
// BUDGET OVERVIEW - Validated pipeline result
// =============================================================================

// BudgetOverview is the budget view for one month.
type BudgetOverview struct {
	Plan     BudgetPlan
	Statuses []CategoryBudgetStatus

	// Sum of the positive limits that produced Statuses
	TotalBudgeted decimal.Decimal

	// All expenses in the month, budgeted or not
	TotalSpent decimal.Decimal

	// Expenses in categories without a positive limit
	UnbudgetedSpent decimal.Decimal

	// ExpectedTotalCost - TotalSpent
	RemainingExpected decimal.Decimal
}

// OverBudget returns the statuses that are overspent.
func (o BudgetOverview) OverBudget() []CategoryBudgetStatus {
	var out []CategoryBudgetStatus
	for _, s := range o.Statuses {
		if s.OverBudget {
			out = append(out, s)
		}
	}
	return out
}

// EvaluatePlan validates the plan and evaluates it against the expense
// records. A plan whose limits exceed its expected total is rejected with
// a *ValidationError before anything is computed.
func EvaluatePlan(plan BudgetPlan, records []TransactionRecord) (BudgetOverview, error) {
	if err := plan.Validate(); err != nil {
		return BudgetOverview{}, err
	}

	totals := Aggregate(records, Expense)
	statuses := Evaluate(plan, totals)

	budgeted := decimal.Zero
	spentInBudget := decimal.Zero
	for _, s := range statuses {
		budgeted = budgeted.Add(s.Limit)
		spentInBudget = spentInBudget.Add(s.Spent)
	}

	return BudgetOverview{
		Plan:              plan,
		Statuses:          statuses,
		TotalBudgeted:     budgeted,
		TotalSpent:        totals.GrandTotal,
		UnbudgetedSpent:   totals.GrandTotal.Sub(spentInBudget),
		RemainingExpected: plan.ExpectedTotalCost.Sub(totals.GrandTotal),
	}, nil
}
