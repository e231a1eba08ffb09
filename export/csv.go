package export

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"

	"github.com/pocketledger/budget-engine/api"
	"github.com/pocketledger/budget-engine/budget"
)

var csvHeader = []string{"section", "key", "amount", "count", "percent", "limit", "remaining", "over_budget"}

// WriteCSV writes the report as one flat table.
func WriteCSV(w io.Writer, doc Document) error {
	r := doc.Report
	writer := csv.NewWriter(w)

	rows := [][]string{
		csvHeader,
		{"period", r.Period.Label, "", "", "", "", "", ""},
		{"summary", "income", r.Summary.Income.String(), strconv.Itoa(r.Summary.IncomeCount), "", "", "", ""},
		{"summary", "expense", r.Summary.Expense.String(), strconv.Itoa(r.Summary.ExpenseCount), "", "", "", ""},
		{"summary", "balance", r.Summary.Balance.String(), "", "", "", "", ""},
	}
	rows = append(rows, shareRows(string(budget.Expense), r.Expenses)...)
	rows = append(rows, shareRows(string(budget.Income), r.Incomes)...)
	for _, d := range r.Trend {
		rows = append(rows, []string{"trend", d.Date.Format(budget.DateLayout), d.Amount.String(), "", "", "", "", ""})
	}
	if doc.Overview != nil {
		for _, s := range doc.Overview.Statuses {
			rows = append(rows, []string{
				"budget", s.Category, s.Spent.String(), "", s.UsedPercent.StringFixed(2),
				s.Limit.String(), s.Remaining.String(), strconv.FormatBool(s.OverBudget),
			})
		}
	}

	if err := writer.WriteAll(rows); err != nil {
		return err
	}
	return writer.Error()
}

func shareRows(section string, totals budget.CategoryTotals) [][]string {
	var rows [][]string
	for _, s := range totals.Shares() {
		rows = append(rows, []string{
			section, s.Category, s.Amount.String(), strconv.Itoa(s.Count), s.Percent.StringFixed(2), "", "", "",
		})
	}
	return rows
}

// jsonDocument is the JSON export shape.
type jsonDocument struct {
	Report api.ReportDTO             `json:"report"`
	Budget *api.BudgetStatusResponse `json:"budget,omitempty"`
}

// WriteJSON writes the report using the API's wire types.
func WriteJSON(w io.Writer, doc Document) error {
	out := jsonDocument{Report: api.NewReportDTO(doc.Report)}
	if doc.Overview != nil {
		status := api.NewBudgetStatusResponse(doc.Report.Period, *doc.Overview)
		out.Budget = &status
	}
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(out)
}
