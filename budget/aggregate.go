/*
aggregate.go - Category totals and period summaries

PURPOSE:
  Reduces a sequence of records into the numbers the views display:
  per-category totals, income/expense/balance, percentage shares and a
  per-day trend.

KEY INSIGHT:
  Totals are exact. Every sum is a decimal.Decimal addition, so the grand
  total equals the sum of the input amounts regardless of record order or
  count. No float ever enters the pipeline.

CATEGORY NORMALIZATION:
  "Food", "food" and " FOOD " all land in the "food" bucket. An empty
  category lands in "uncategorized" instead of being dropped.

SEE ALSO:
  - evaluate.go: Consumes expense totals
  - period.go: Period used by DailyTotals and FilterPeriod
*/
package budget

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// CATEGORY TOTALS
// =============================================================================

// CategoryTotals maps normalized category names to accumulated amounts.
type CategoryTotals struct {
	Kind       Kind
	Totals     map[string]decimal.Decimal
	Counts     map[string]int
	GrandTotal decimal.Decimal
}

// Aggregate totals the records of the given kind per category.
// An empty input yields empty totals and a zero grand total.
func Aggregate(records []TransactionRecord, kind Kind) CategoryTotals {
	result := CategoryTotals{
		Kind:       kind,
		Totals:     make(map[string]decimal.Decimal),
		Counts:     make(map[string]int),
		GrandTotal: decimal.Zero,
	}

	for _, r := range records {
		if r.Kind != kind {
			continue
		}
		category := NormalizeCategory(r.Category)
		result.Totals[category] = result.Totals[category].Add(r.Amount)
		result.Counts[category]++
		result.GrandTotal = result.GrandTotal.Add(r.Amount)
	}
	return result
}

// Get returns the total for a category, normalizing the lookup key.
func (ct CategoryTotals) Get(category string) decimal.Decimal {
	if v, ok := ct.Totals[NormalizeCategory(category)]; ok {
		return v
	}
	return decimal.Zero
}

// Categories returns the category names in alphabetical order.
func (ct CategoryTotals) Categories() []string {
	names := make([]string, 0, len(ct.Totals))
	for name := range ct.Totals {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len is the number of categories.
func (ct CategoryTotals) Len() int { return len(ct.Totals) }

// CategoryShare is one slice of the report breakdown.
type CategoryShare struct {
	Category string
	Amount   decimal.Decimal
	Count    int
	Percent  decimal.Decimal // of GrandTotal, 2 places
}

// Shares lists every category with its share of the grand total, largest
// first. Ties are ordered by name.
func (ct CategoryTotals) Shares() []CategoryShare {
	shares := make([]CategoryShare, 0, len(ct.Totals))
	for _, name := range ct.Categories() {
		amount := ct.Totals[name]
		shares = append(shares, CategoryShare{
			Category: name,
			Amount:   amount,
			Count:    ct.Counts[name],
			Percent:  percentOf(amount, ct.GrandTotal),
		})
	}
	sort.SliceStable(shares, func(i, j int) bool {
		return shares[i].Amount.GreaterThan(shares[j].Amount)
	})
	return shares
}

// =============================================================================
// SUMMARY - Income, expense and balance for a period
// =============================================================================

// Summary is the dashboard headline for a set of records.
type Summary struct {
	Income       decimal.Decimal
	Expense      decimal.Decimal
	Balance      decimal.Decimal // Income - Expense
	IncomeCount  int
	ExpenseCount int
}

// Summarize totals income and expense records. Records of any other kind
// are ignored.
func Summarize(records []TransactionRecord) Summary {
	s := Summary{Income: decimal.Zero, Expense: decimal.Zero}
	for _, r := range records {
		switch r.Kind {
		case Income:
			s.Income = s.Income.Add(r.Amount)
			s.IncomeCount++
		case Expense:
			s.Expense = s.Expense.Add(r.Amount)
			s.ExpenseCount++
		}
	}
	s.Balance = s.Income.Sub(s.Expense)
	return s
}

// =============================================================================
// TREND - Per-day buckets
// =============================================================================

// DailyTotal is the amount recorded on one calendar day.
type DailyTotal struct {
	Date   time.Time
	Amount decimal.Decimal
}

// DailyTotals buckets records of the given kind into the days of the period.
// Every day gets an entry, zero when nothing was recorded. Records outside
// the period are ignored.
func DailyTotals(records []TransactionRecord, period Period, kind Kind) []DailyTotal {
	days := period.Days()
	out := make([]DailyTotal, len(days))
	index := make(map[string]int, len(days))
	for i, d := range days {
		out[i] = DailyTotal{Date: d, Amount: decimal.Zero}
		index[d.Format(DateLayout)] = i
	}

	loc := period.Start.Location()
	for _, r := range records {
		if r.Kind != kind || !period.Contains(r.OccurredAt) {
			continue
		}
		i, ok := index[r.OccurredAt.In(loc).Format(DateLayout)]
		if !ok {
			continue
		}
		out[i].Amount = out[i].Amount.Add(r.Amount)
	}
	return out
}

// FilterPeriod returns the records that fall inside the period, in input order.
func FilterPeriod(records []TransactionRecord, period Period) []TransactionRecord {
	var out []TransactionRecord
	for _, r := range records {
		if period.Contains(r.OccurredAt) {
			out = append(out, r)
		}
	}
	return out
}

// =============================================================================
// REPORT - Everything a period view shows
// =============================================================================

// Report bundles the period, its summary, both category breakdowns and the
// expense trend.
type Report struct {
	Period   Period
	Summary  Summary
	Expenses CategoryTotals
	Incomes  CategoryTotals
	Trend    []DailyTotal
}

// BuildReport computes a report from records already scoped to the period.
func BuildReport(period Period, records []TransactionRecord) Report {
	return Report{
		Period:   period,
		Summary:  Summarize(records),
		Expenses: Aggregate(records, Expense),
		Incomes:  Aggregate(records, Income),
		Trend:    DailyTotals(records, period, Expense),
	}
}
