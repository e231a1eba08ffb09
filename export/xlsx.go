package export

import (
	"io"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/pocketledger/budget-engine/budget"
)

const (
	summarySheet = "Summary"
	expenseSheet = "Expenses"
	incomeSheet  = "Incomes"
	trendSheet   = "Trend"
	budgetSheet  = "Budget"
)

// WriteXLSX writes one sheet per report section. Amounts become numeric
// cells, so spreadsheet formulas work on them.
func WriteXLSX(w io.Writer, doc Document) error {
	r := doc.Report

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return err
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "#FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#282828"}, Pattern: 1},
	})
	if err != nil {
		return err
	}
	overStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Color: "#C00000", Bold: true},
	})
	if err != nil {
		return err
	}

	sheet := &sheetWriter{f: f, header: headerStyle}

	sheet.rows(summarySheet, []any{"Period", "Income", "Expense", "Balance", "Income records", "Expense records"}, [][]any{{
		r.Period.Label, num(r.Summary.Income), num(r.Summary.Expense), num(r.Summary.Balance),
		r.Summary.IncomeCount, r.Summary.ExpenseCount,
	}})
	sheet.rows(expenseSheet, shareHeader, shareData(r.Expenses))
	sheet.rows(incomeSheet, shareHeader, shareData(r.Incomes))

	trend := make([][]any, len(r.Trend))
	for i, d := range r.Trend {
		trend[i] = []any{d.Date.Format(budget.DateLayout), num(d.Amount)}
	}
	sheet.rows(trendSheet, []any{"Date", "Expense"}, trend)

	if doc.Overview != nil {
		statuses := doc.Overview.Statuses
		data := make([][]any, len(statuses))
		for i, s := range statuses {
			data[i] = []any{s.Category, num(s.Limit), num(s.Spent), num(s.Remaining), num(s.UsedPercent), s.OverBudget}
		}
		sheet.rows(budgetSheet, []any{"Category", "Limit", "Spent", "Remaining", "Used %", "Over budget"}, data)
		for i, s := range statuses {
			if !s.OverBudget {
				continue
			}
			first, _ := excelize.CoordinatesToCellName(1, i+2)
			last, _ := excelize.CoordinatesToCellName(6, i+2)
			sheet.check(f.SetCellStyle(budgetSheet, first, last, overStyle))
		}
	}

	if sheet.err != nil {
		return sheet.err
	}
	return f.Write(w)
}

var shareHeader = []any{"Category", "Amount", "Count", "Share %"}

func shareData(totals budget.CategoryTotals) [][]any {
	shares := totals.Shares()
	data := make([][]any, 0, len(shares)+1)
	for _, s := range shares {
		data = append(data, []any{s.Category, num(s.Amount), s.Count, num(s.Percent)})
	}
	return append(data, []any{"Total", num(totals.GrandTotal)})
}

// num converts for display only; computation stays in decimal.
func num(d decimal.Decimal) float64 {
	return d.InexactFloat64()
}

// sheetWriter keeps the first error so the layout code stays linear.
type sheetWriter struct {
	f      *excelize.File
	header int
	err    error
}

func (s *sheetWriter) check(err error) {
	if s.err == nil {
		s.err = err
	}
}

func (s *sheetWriter) rows(name string, header []any, data [][]any) {
	if s.err != nil {
		return
	}
	if name != summarySheet {
		if _, err := s.f.NewSheet(name); err != nil {
			s.check(err)
			return
		}
	}

	s.check(s.f.SetSheetRow(name, "A1", &header))
	last, _ := excelize.CoordinatesToCellName(len(header), 1)
	s.check(s.f.SetCellStyle(name, "A1", last, s.header))
	s.check(s.f.SetColWidth(name, "A", "A", 24))

	for i, row := range data {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		s.check(s.f.SetSheetRow(name, cell, &row))
	}
}
