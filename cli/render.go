package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/pterm/pterm"
	"github.com/shopspring/decimal"

	"github.com/pocketledger/budget-engine/budget"
)

// Predefined colors for consistent output
var (
	boldRed     = color.New(color.FgRed, color.Bold).SprintFunc()
	brightGreen = color.New(color.FgGreen, color.Bold).SprintFunc()
	brightCyan  = color.New(color.FgCyan, color.Bold).SprintFunc()
)

const trendBarWidth = 30

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func percent(d decimal.Decimal) string {
	return d.StringFixed(2) + "%"
}

func signed(d decimal.Decimal) string {
	if d.IsNegative() {
		return boldRed(money(d))
	}
	return brightGreen(money(d))
}

func renderTable(w io.Writer, data pterm.TableData) error {
	table, err := pterm.DefaultTable.
		WithHasHeader().
		WithBoxed().
		WithHeaderStyle(pterm.NewStyle(pterm.FgLightCyan)).
		WithData(data).
		Srender()
	if err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}
	_, err = fmt.Fprintln(w, table)
	return err
}

func renderPeriod(w io.Writer, p budget.Period) error {
	fmt.Fprintln(w, brightCyan(p.Label))
	return renderTable(w, pterm.TableData{
		{"Granularity", "Start", "End", "Days"},
		{string(p.Granularity), p.Start.Format(budget.DateLayout), p.End.Format(budget.DateLayout), strconv.Itoa(len(p.Days()))},
	})
}

func renderReport(w io.Writer, r budget.Report) error {
	fmt.Fprintln(w, brightCyan(r.Period.Label))

	s := r.Summary
	if err := renderTable(w, pterm.TableData{
		{"Income", "Expense", "Balance", "Records"},
		{money(s.Income), money(s.Expense), signed(s.Balance), strconv.Itoa(s.IncomeCount + s.ExpenseCount)},
	}); err != nil {
		return err
	}

	sections := []struct {
		title  string
		totals budget.CategoryTotals
	}{
		{"Expenses", r.Expenses},
		{"Incomes", r.Incomes},
	}
	for _, sec := range sections {
		if sec.totals.Len() == 0 {
			continue
		}
		data := pterm.TableData{{sec.title, "Amount", "Count", "Share"}}
		for _, share := range sec.totals.Shares() {
			data = append(data, []string{share.Category, money(share.Amount), strconv.Itoa(share.Count), percent(share.Percent)})
		}
		if err := renderTable(w, data); err != nil {
			return err
		}
	}

	if r.Period.Granularity != budget.Day && s.ExpenseCount > 0 {
		return renderTrend(w, r.Trend)
	}
	return nil
}

func renderTrend(w io.Writer, trend []budget.DailyTotal) error {
	peak := decimal.Zero
	for _, d := range trend {
		if d.Amount.GreaterThan(peak) {
			peak = d.Amount
		}
	}

	data := pterm.TableData{{"Day", "Spent", ""}}
	for _, d := range trend {
		bar := ""
		if peak.IsPositive() {
			n := d.Amount.Mul(decimal.NewFromInt(trendBarWidth)).Div(peak).IntPart()
			bar = pterm.FgBlue.Sprint(strings.Repeat("█", int(n)))
		}
		data = append(data, []string{d.Date.Format(budget.DateLayout), money(d.Amount), bar})
	}
	return renderTable(w, data)
}

func renderBudget(w io.Writer, o budget.BudgetOverview) error {
	fmt.Fprintln(w, brightCyan(fmt.Sprintf("Budget %d-%02d", o.Plan.Year, int(o.Plan.Month))))

	data := pterm.TableData{{"Category", "Limit", "Spent", "Remaining", "Used"}}
	for _, st := range o.Statuses {
		row := []string{st.Category, money(st.Limit), money(st.Spent), money(st.Remaining), percent(st.UsedPercent)}
		if st.OverBudget {
			for i := range row {
				row[i] = boldRed(row[i])
			}
		}
		data = append(data, row)
	}
	if err := renderTable(w, data); err != nil {
		return err
	}

	if err := renderTable(w, pterm.TableData{
		{"Expected", "Budgeted", "Spent", "Unbudgeted", "Remaining"},
		{
			money(o.Plan.ExpectedTotalCost),
			money(o.TotalBudgeted),
			money(o.TotalSpent),
			money(o.UnbudgetedSpent),
			signed(o.RemainingExpected),
		},
	}); err != nil {
		return err
	}

	if over := o.OverBudget(); len(over) > 0 {
		names := make([]string, len(over))
		for i, st := range over {
			names[i] = st.Category
		}
		fmt.Fprintln(w, pterm.Warning.Sprintf("Over budget: %s", strings.Join(names, ", ")))
	}
	return nil
}
