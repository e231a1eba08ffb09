package export

import (
	"fmt"
	"io"

	"github.com/jung-kurt/gofpdf"

	"github.com/pocketledger/budget-engine/budget"
)

// palette colours category rows by rank. Presentation only.
var palette = [][3]int{
	{249, 115, 22},
	{14, 165, 233},
	{34, 197, 94},
	{236, 72, 153},
	{139, 92, 246},
	{239, 68, 68},
	{250, 204, 21},
	{100, 116, 139},
}

var (
	headerColor   = [3]int{40, 40, 40}
	headerText    = [3]int{255, 255, 255}
	bodyTextColor = [3]int{50, 50, 50}
	lineColor     = [3]int{200, 200, 200}
	overColor     = [3]int{192, 0, 0}
)

// WritePDF renders an A4 summary of the report.
func WritePDF(w io.Writer, doc Document) error {
	r := doc.Report

	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle("Budget report "+r.Period.Label, false)
	pdf.AddPage()

	// Title bar
	pdf.SetFillColor(headerColor[0], headerColor[1], headerColor[2])
	pdf.SetTextColor(headerText[0], headerText[1], headerText[2])
	pdf.SetFont("Arial", "B", 14)
	pdf.CellFormat(0, 12, tr("  Budget report: "+r.Period.Label), "", 1, "L", true, 0, "")
	pdf.SetFont("Arial", "", 9)
	pdf.SetFillColor(240, 240, 240)
	pdf.SetTextColor(bodyTextColor[0], bodyTextColor[1], bodyTextColor[2])
	pdf.CellFormat(0, 7, tr("  "+r.Period.String()), "", 1, "L", true, 0, "")
	pdf.Ln(6)

	// Summary
	section(pdf, "Summary")
	pdf.SetFont("Arial", "", 10)
	for _, row := range [][2]string{
		{"Income", fmt.Sprintf("%s (%d)", r.Summary.Income.StringFixed(2), r.Summary.IncomeCount)},
		{"Expense", fmt.Sprintf("%s (%d)", r.Summary.Expense.StringFixed(2), r.Summary.ExpenseCount)},
		{"Balance", r.Summary.Balance.StringFixed(2)},
	} {
		pdf.CellFormat(60, 6, row[0], "", 0, "L", false, 0, "")
		pdf.CellFormat(60, 6, row[1], "", 1, "R", false, 0, "")
	}
	pdf.Ln(6)

	shareTable(pdf, tr, "Expenses by category", r.Expenses)
	shareTable(pdf, tr, "Income by category", r.Incomes)

	if doc.Overview != nil {
		budgetTable(pdf, tr, *doc.Overview)
	}

	if err := pdf.Error(); err != nil {
		return err
	}
	return pdf.Output(w)
}

func section(pdf *gofpdf.Fpdf, title string) {
	pdf.SetFont("Arial", "B", 12)
	pdf.SetTextColor(0, 0, 0)
	pdf.Cell(0, 8, title)
	pdf.Ln(7)
	pdf.SetDrawColor(lineColor[0], lineColor[1], lineColor[2])
	pdf.Line(pdf.GetX(), pdf.GetY(), pdf.GetX()+190, pdf.GetY())
	pdf.Ln(3)
	pdf.SetTextColor(bodyTextColor[0], bodyTextColor[1], bodyTextColor[2])
}

func shareTable(pdf *gofpdf.Fpdf, tr func(string) string, title string, totals budget.CategoryTotals) {
	section(pdf, title)
	shares := totals.Shares()
	if len(shares) == 0 {
		pdf.SetFont("Arial", "I", 10)
		pdf.CellFormat(0, 6, "No records", "", 1, "L", false, 0, "")
		pdf.Ln(6)
		return
	}

	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(8, 6, "", "B", 0, "L", false, 0, "")
	pdf.CellFormat(82, 6, "Category", "B", 0, "L", false, 0, "")
	pdf.CellFormat(40, 6, "Amount", "B", 0, "R", false, 0, "")
	pdf.CellFormat(25, 6, "Count", "B", 0, "R", false, 0, "")
	pdf.CellFormat(35, 6, "Share", "B", 1, "R", false, 0, "")

	pdf.SetFont("Arial", "", 10)
	for i, s := range shares {
		c := palette[i%len(palette)]
		pdf.SetFillColor(c[0], c[1], c[2])
		pdf.CellFormat(4, 6, "", "", 0, "L", true, 0, "")
		pdf.CellFormat(4, 6, "", "", 0, "L", false, 0, "")
		pdf.CellFormat(82, 6, tr(s.Category), "", 0, "L", false, 0, "")
		pdf.CellFormat(40, 6, s.Amount.StringFixed(2), "", 0, "R", false, 0, "")
		pdf.CellFormat(25, 6, fmt.Sprint(s.Count), "", 0, "R", false, 0, "")
		pdf.CellFormat(35, 6, s.Percent.StringFixed(2)+"%", "", 1, "R", false, 0, "")
	}
	pdf.CellFormat(90, 6, "Total", "T", 0, "L", false, 0, "")
	pdf.CellFormat(40, 6, totals.GrandTotal.StringFixed(2), "T", 0, "R", false, 0, "")
	pdf.CellFormat(60, 6, "", "T", 1, "R", false, 0, "")
	pdf.Ln(6)
}

func budgetTable(pdf *gofpdf.Fpdf, tr func(string) string, o budget.BudgetOverview) {
	section(pdf, "Budget")

	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(60, 6, "Category", "B", 0, "L", false, 0, "")
	pdf.CellFormat(35, 6, "Limit", "B", 0, "R", false, 0, "")
	pdf.CellFormat(35, 6, "Spent", "B", 0, "R", false, 0, "")
	pdf.CellFormat(35, 6, "Remaining", "B", 0, "R", false, 0, "")
	pdf.CellFormat(25, 6, "Used", "B", 1, "R", false, 0, "")

	pdf.SetFont("Arial", "", 10)
	for _, s := range o.Statuses {
		if s.OverBudget {
			pdf.SetTextColor(overColor[0], overColor[1], overColor[2])
		}
		pdf.CellFormat(60, 6, tr(s.Category), "", 0, "L", false, 0, "")
		pdf.CellFormat(35, 6, s.Limit.StringFixed(2), "", 0, "R", false, 0, "")
		pdf.CellFormat(35, 6, s.Spent.StringFixed(2), "", 0, "R", false, 0, "")
		pdf.CellFormat(35, 6, s.Remaining.StringFixed(2), "", 0, "R", false, 0, "")
		pdf.CellFormat(25, 6, s.UsedPercent.StringFixed(2)+"%", "", 1, "R", false, 0, "")
		pdf.SetTextColor(bodyTextColor[0], bodyTextColor[1], bodyTextColor[2])
	}
	pdf.Ln(4)

	pdf.SetFont("Arial", "", 9)
	for _, row := range [][2]string{
		{"Expected total cost", o.Plan.ExpectedTotalCost.StringFixed(2)},
		{"Budgeted", o.TotalBudgeted.StringFixed(2)},
		{"Spent", o.TotalSpent.StringFixed(2)},
		{"Outside budgeted categories", o.UnbudgetedSpent.StringFixed(2)},
		{"Remaining of expected total", o.RemainingExpected.StringFixed(2)},
	} {
		pdf.CellFormat(60, 5, row[0], "", 0, "L", false, 0, "")
		pdf.CellFormat(35, 5, row[1], "", 1, "R", false, 0, "")
	}
}
