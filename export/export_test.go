package export_test

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/pocketledger/budget-engine/budget"
	"github.com/pocketledger/budget-engine/export"
)

func document(t *testing.T) export.Document {
	t.Helper()
	at := time.Date(2024, time.March, 5, 12, 0, 0, 0, time.UTC)
	records := []budget.TransactionRecord{
		{ID: "1", Kind: budget.Expense, Category: "Food", Amount: decimal.NewFromInt(1000), OccurredAt: at},
		{ID: "2", Kind: budget.Expense, Category: "food", Amount: decimal.NewFromInt(500), OccurredAt: at},
		{ID: "3", Kind: budget.Expense, Category: "rent", Amount: decimal.NewFromInt(850), OccurredAt: at.AddDate(0, 0, 2)},
		{ID: "4", Kind: budget.Income, Category: "Transport", Amount: decimal.NewFromInt(200), OccurredAt: at},
	}
	period, err := budget.Resolve(at, budget.Month)
	require.NoError(t, err)

	overview, err := budget.EvaluatePlan(budget.BudgetPlan{
		Year: 2024, Month: time.March, ExpectedTotalCost: decimal.NewFromInt(3000),
		CategoryLimits: map[string]decimal.Decimal{"food": decimal.NewFromInt(2000), "rent": decimal.NewFromInt(800)},
	}, records)
	require.NoError(t, err)

	return export.Document{Report: budget.BuildReport(period, records), Overview: &overview}
}

func TestParseFormats(t *testing.T) {
	got, err := export.ParseFormats([]string{"CSV", "pdf", "csv", " xlsx ", ""})
	require.NoError(t, err)
	assert.Equal(t, []export.Format{export.CSV, export.PDF, export.XLSX}, got)

	_, err = export.ParseFormats([]string{"docx"})
	assert.Error(t, err)
}

func TestWriteCSV(t *testing.T) {
	// GIVEN: A March report with a plan
	var buf bytes.Buffer

	// WHEN: Writing CSV
	require.NoError(t, export.WriteCSV(&buf, document(t)))

	// THEN: Sections are present with exact amounts
	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, "section", rows[0][0])

	find := func(section, key string) []string {
		for _, r := range rows {
			if r[0] == section && r[1] == key {
				return r
			}
		}
		t.Fatalf("row %s/%s missing", section, key)
		return nil
	}
	assert.Equal(t, "2350", find("summary", "expense")[2])
	assert.Equal(t, "1500", find("expense", "food")[2])
	assert.Equal(t, "2", find("expense", "food")[3])
	assert.Equal(t, "transport", find("income", "transport")[1])
	assert.Equal(t, "true", find("budget", "rent")[7])
	assert.Equal(t, "-50", find("budget", "rent")[6])
	assert.Equal(t, "1500", find("trend", "2024-03-05")[2])
	assert.Equal(t, "850", find("trend", "2024-03-07")[2])
	assert.Equal(t, "0", find("trend", "2024-03-06")[2])
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, export.WriteJSON(&buf, document(t)))

	var out struct {
		Report struct {
			Summary struct {
				Balance string `json:"balance"`
			} `json:"summary"`
		} `json:"report"`
		Budget struct {
			OverBudgetCount int `json:"over_budget_count"`
		} `json:"budget"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	assert.Equal(t, "-2150", out.Report.Summary.Balance)
	assert.Equal(t, 1, out.Budget.OverBudgetCount)
}

func TestWriteJSON_WithoutPlan(t *testing.T) {
	doc := document(t)
	doc.Overview = nil

	var buf bytes.Buffer
	require.NoError(t, export.WriteJSON(&buf, doc))

	assert.NotContains(t, buf.String(), `"budget"`)
}

func TestWritePDF(t *testing.T) {
	var buf bytes.Buffer

	require.NoError(t, export.WritePDF(&buf, document(t)))

	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
}

func TestWriteXLSX(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, export.WriteXLSX(&buf, document(t)))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Summary", "Expenses", "Incomes", "Trend", "Budget"}, f.GetSheetList())

	category, err := f.GetCellValue("Expenses", "A2")
	require.NoError(t, err)
	assert.Equal(t, "food", category)

	amount, err := f.GetCellValue("Expenses", "B2")
	require.NoError(t, err)
	assert.Equal(t, "1500", amount)

	over, err := f.GetCellValue("Budget", "F3")
	require.NoError(t, err)
	assert.Contains(t, []string{"TRUE", "1", "true"}, over)
}

func TestFiles(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")

	paths, err := export.Files(dir, "", []export.Format{export.CSV, export.JSON}, document(t))
	require.NoError(t, err)

	require.Len(t, paths, 2)
	assert.Equal(t, "budget-report-2024-03-01.csv", filepath.Base(paths[0]))
	assert.Equal(t, "budget-report-2024-03-01.json", filepath.Base(paths[1]))
	for _, p := range paths {
		info, err := os.Stat(p)
		require.NoError(t, err)
		assert.Positive(t, info.Size())
	}
}
