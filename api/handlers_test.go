/*
handlers_test.go - HTTP tests for the budget API

Tests for:
- Record create/list/update/delete per kind
- Budget save (validation), fetch, and status evaluation
- Reports and period resolution
- Bearer token middleware
*/
package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pocketledger/budget-engine/api"
	"github.com/pocketledger/budget-engine/budget"
	"github.com/pocketledger/budget-engine/budget/store"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

type testServer struct {
	*httptest.Server
	store *store.Memory
}

func newTestServer(t *testing.T, opts api.RouterOptions) *testServer {
	t.Helper()
	mem := store.NewMemory()
	h := api.NewHandler(mem, slog.New(slog.NewTextHandler(io.Discard, nil)))
	h.Now = func() time.Time { return time.Date(2024, time.March, 13, 10, 0, 0, 0, time.Local) }
	seq := 0
	h.NewID = func() budget.RecordID {
		seq++
		return budget.RecordID(fmt.Sprintf("rec-%d", seq))
	}

	srv := httptest.NewServer(api.NewRouter(h, opts))
	t.Cleanup(srv.Close)
	return &testServer{Server: srv, store: mem}
}

func (s *testServer) do(t *testing.T, method, path string, body any) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, s.URL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func (s *testServer) addRecord(t *testing.T, kind, category, amount, date string) api.RecordDTO {
	t.Helper()
	resp := s.do(t, http.MethodPost, "/api/v1/"+kind+"/add", api.RecordRequest{
		Category: category, Amount: amount, Date: date,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	return decode[api.RecordDTO](t, resp)
}

// =============================================================================
// RECORDS
// =============================================================================

func TestCreateAndListRecords(t *testing.T) {
	// GIVEN: Expenses in March and April, and an income in March
	srv := newTestServer(t, api.RouterOptions{})
	created := srv.addRecord(t, "expenses", "Food", "1000", "2024-03-05")
	srv.addRecord(t, "expenses", "food", "500.50", "2024-03-20")
	srv.addRecord(t, "expenses", "rent", "900", "2024-04-01")
	srv.addRecord(t, "incomes", "Salary", "3000", "2024-03-01")

	assert.Equal(t, "rec-1", created.ID)
	assert.Equal(t, "expense", created.Kind)
	assert.Equal(t, "1000", created.Amount)

	// WHEN: Listing March expenses
	resp := srv.do(t, http.MethodGet, "/api/v1/expenses/month?year=2024&month=3", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	got := decode[api.RecordsResponse](t, resp)

	// THEN: Only March expenses, totals exact, categories folded
	assert.Equal(t, "March, 2024", got.Period.Label)
	assert.Equal(t, 2, got.Count)
	assert.Equal(t, "1500.5", got.Total)
	require.Len(t, got.Categories, 1)
	assert.Equal(t, "food", got.Categories[0].Category)
	assert.Equal(t, "100.00", got.Categories[0].Percent)
}

func TestListRecords_WeekDefaultsToToday(t *testing.T) {
	// GIVEN: "Today" is Wed March 13, 2024
	srv := newTestServer(t, api.RouterOptions{})
	srv.addRecord(t, "expenses", "food", "7", "2024-03-10")
	srv.addRecord(t, "expenses", "food", "9", "2024-03-17")

	// WHEN: Listing the current week without query parameters
	resp := srv.do(t, http.MethodGet, "/api/v1/expenses/week", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	got := decode[api.RecordsResponse](t, resp)

	// THEN: Sunday March 10 .. Saturday March 16
	assert.Equal(t, "2024-03-10", got.Period.Start)
	assert.Equal(t, "2024-03-16", got.Period.End)
	assert.Equal(t, "7", got.Total)
}

func TestListRecords_InvalidGranularity(t *testing.T) {
	srv := newTestServer(t, api.RouterOptions{})

	resp := srv.do(t, http.MethodGet, "/api/v1/expenses/year", nil)

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	body := decode[api.ErrorResponse](t, resp)
	assert.Equal(t, "invalid_period", body.Code)
}

func TestListRecords_InvalidDate(t *testing.T) {
	srv := newTestServer(t, api.RouterOptions{})

	resp := srv.do(t, http.MethodGet, "/api/v1/incomes/day?year=2023&month=2&day=29", nil)

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCreateRecord_Rejects(t *testing.T) {
	srv := newTestServer(t, api.RouterOptions{})

	cases := map[string]api.RecordRequest{
		"not a number": {Category: "food", Amount: "ten", Date: "2024-03-01"},
		"negative":     {Category: "food", Amount: "-1", Date: "2024-03-01"},
		"bad date":     {Category: "food", Amount: "1", Date: "01/03/2024"},
		"empty amount": {Category: "", Amount: "", Date: "2024-03-05"},
		"blank amount": {Category: "food", Amount: "  ", Date: "2024-03-05"},
		"thousands":    {Category: "food", Amount: "1,500", Date: "2024-03-05"},
	}
	for name, req := range cases {
		resp := srv.do(t, http.MethodPost, "/api/v1/expenses/add", req)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, name)
	}
	assert.Empty(t, srv.store.All())
}

func TestUpdateAndDeleteRecord(t *testing.T) {
	// GIVEN: One expense
	srv := newTestServer(t, api.RouterOptions{})
	rec := srv.addRecord(t, "expenses", "food", "10", "2024-03-05")

	// WHEN: Updating it
	resp := srv.do(t, http.MethodPut, "/api/v1/expenses/"+rec.ID, api.RecordRequest{
		Category: "groceries", Amount: "12,50", Date: "2024-03-06",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// THEN: The store holds the new values
	stored, err := srv.store.GetRecord(context.Background(), budget.RecordID(rec.ID))
	require.NoError(t, err)
	assert.Equal(t, "groceries", stored.Category)
	assert.True(t, stored.Amount.Equal(decimal.RequireFromString("12.5")))

	// Wrong kind is treated as missing
	resp = srv.do(t, http.MethodDelete, "/api/v1/incomes/"+rec.ID, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = srv.do(t, http.MethodDelete, "/api/v1/expenses/"+rec.ID, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = srv.do(t, http.MethodDelete, "/api/v1/expenses/"+rec.ID, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "record_not_found", decode[api.ErrorResponse](t, resp).Code)
}

// =============================================================================
// BUDGET
// =============================================================================

func TestSaveBudget_LimitsExceedTotal(t *testing.T) {
	// GIVEN: food 600 + rent 500 against an expected total of 1000
	srv := newTestServer(t, api.RouterOptions{})

	// WHEN: Saving
	resp := srv.do(t, http.MethodPost, "/api/v1/budget/add", api.BudgetPlanDTO{
		Year: 2024, Month: 3, ExpectedTotalCost: "1000",
		CategoryLimits: map[string]string{"food": "600", "rent": "500"},
	})

	// THEN: 400 with the validation code, nothing stored
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	body := decode[api.ErrorResponse](t, resp)
	assert.Equal(t, budget.CodeLimitsExceedTotal, body.Code)
	assert.Contains(t, body.Details, "100")

	_, err := srv.store.Budget(context.Background(), 2024, time.March)
	assert.ErrorIs(t, err, budget.ErrBudgetNotFound)
}

func TestSaveBudget_RejectsNonNumericLimit(t *testing.T) {
	srv := newTestServer(t, api.RouterOptions{})

	resp := srv.do(t, http.MethodPost, "/api/v1/budget/add", api.BudgetPlanDTO{
		Year: 2024, Month: 3, ExpectedTotalCost: "1000",
		CategoryLimits: map[string]string{"food": "lots"},
	})

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, budget.CodeInvalidRecord, decode[api.ErrorResponse](t, resp).Code)
}

func TestSaveBudget_RejectsMissingExpectedTotal(t *testing.T) {
	srv := newTestServer(t, api.RouterOptions{})

	for _, expected := range []string{"", "  "} {
		resp := srv.do(t, http.MethodPost, "/api/v1/budget/add", api.BudgetPlanDTO{
			Year: 2024, Month: 3, ExpectedTotalCost: expected,
			CategoryLimits: map[string]string{"food": "100"},
		})

		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, budget.CodeInvalidRecord, decode[api.ErrorResponse](t, resp).Code)
	}
	_, err := srv.store.Budget(context.Background(), 2024, time.March)
	assert.ErrorIs(t, err, budget.ErrBudgetNotFound)
}

func TestRecordDTO_KeepsSubSecondTime(t *testing.T) {
	when := time.Date(2024, time.March, 5, 12, 30, 15, 987654321, time.UTC)
	rec := budget.TransactionRecord{
		ID: "r1", Kind: budget.Expense, Category: "food", Amount: decimal.NewFromInt(4), OccurredAt: when,
	}

	back, err := api.NewRecordDTO(rec).ToRecord()

	require.NoError(t, err)
	assert.True(t, back.OccurredAt.Equal(when), back.OccurredAt)
}

func TestGetBudget(t *testing.T) {
	srv := newTestServer(t, api.RouterOptions{})

	// No plan yet: null, not 404
	resp := srv.do(t, http.MethodGet, "/api/v1/budget/month?year=2024&month=3", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Nil(t, decode[api.BudgetResponse](t, resp).Budget)

	resp = srv.do(t, http.MethodPost, "/api/v1/budget/add", api.BudgetPlanDTO{
		Year: 2024, Month: 3, ExpectedTotalCost: "1000",
		CategoryLimits: map[string]string{"Food": "600", "rent": "400"},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = srv.do(t, http.MethodGet, "/api/v1/budget/month?year=2024&month=3", nil)
	got := decode[api.BudgetResponse](t, resp)
	require.NotNil(t, got.Budget)
	assert.Equal(t, "1000", got.Budget.ExpectedTotalCost)
	assert.Equal(t, map[string]string{"food": "600", "rent": "400"}, got.Budget.CategoryLimits)
}

func TestGetBudget_InvalidMonth(t *testing.T) {
	srv := newTestServer(t, api.RouterOptions{})

	resp := srv.do(t, http.MethodGet, "/api/v1/budget/month?year=2024&month=13", nil)

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGetBudgetStatus(t *testing.T) {
	// GIVEN: Food 1000 + food 500, a food limit of 2000 and a rent limit of 800
	srv := newTestServer(t, api.RouterOptions{})
	srv.addRecord(t, "expenses", "Food", "1000", "2024-03-05")
	srv.addRecord(t, "expenses", "food", "500", "2024-03-06")
	srv.addRecord(t, "expenses", "rent", "850", "2024-03-01")
	srv.addRecord(t, "incomes", "transport", "200", "2024-03-05")
	resp := srv.do(t, http.MethodPost, "/api/v1/budget/add", api.BudgetPlanDTO{
		Year: 2024, Month: 3, ExpectedTotalCost: "3000",
		CategoryLimits: map[string]string{"food": "2000", "rent": "800", "education": "0"},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	// WHEN: Fetching the status
	resp = srv.do(t, http.MethodGet, "/api/v1/budget/status?year=2024&month=3", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	got := decode[api.BudgetStatusResponse](t, resp)

	// THEN: Sorted statuses, rent over budget, zero limit excluded
	require.Len(t, got.Statuses, 2)
	assert.Equal(t, api.CategoryStatusDTO{
		Category: "food", Limit: "2000", Spent: "1500", Remaining: "500", UsedPercent: "75.00",
	}, got.Statuses[0])
	assert.Equal(t, "rent", got.Statuses[1].Category)
	assert.Equal(t, "-50", got.Statuses[1].Remaining)
	assert.True(t, got.Statuses[1].OverBudget)
	assert.Equal(t, 1, got.OverBudgetCount)
	assert.Equal(t, "2350", got.TotalSpent)
	assert.Equal(t, "650", got.RemainingExpected)
}

func TestGetBudgetStatus_NoPlan(t *testing.T) {
	srv := newTestServer(t, api.RouterOptions{})

	resp := srv.do(t, http.MethodGet, "/api/v1/budget/status?year=2024&month=3", nil)

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "budget_not_found", decode[api.ErrorResponse](t, resp).Code)
}

// =============================================================================
// REPORTS / PERIODS
// =============================================================================

func TestGetReport(t *testing.T) {
	srv := newTestServer(t, api.RouterOptions{})
	srv.addRecord(t, "expenses", "Food", "1000", "2024-03-05")
	srv.addRecord(t, "expenses", "food", "500", "2024-03-05")
	srv.addRecord(t, "incomes", "Transport", "200", "2024-03-05")

	resp := srv.do(t, http.MethodGet, "/api/v1/reports/month?year=2024&month=3", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	got := decode[api.ReportDTO](t, resp)

	assert.Equal(t, "1500", got.Summary.Expense)
	assert.Equal(t, "200", got.Summary.Income)
	assert.Equal(t, "-1300", got.Summary.Balance)
	require.Len(t, got.Expenses, 1)
	assert.Equal(t, "food", got.Expenses[0].Category)
	require.Len(t, got.Incomes, 1)
	assert.Equal(t, "transport", got.Incomes[0].Category)
	require.Len(t, got.Trend, 31)
	assert.Equal(t, "2024-03-05", got.Trend[4].Date)
	assert.Equal(t, "1500", got.Trend[4].Amount)
}

func TestResolvePeriod_StepClampsMonth(t *testing.T) {
	srv := newTestServer(t, api.RouterOptions{})

	resp := srv.do(t, http.MethodGet, "/api/v1/periods/month?date=2024-01-31&step=1", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	got := decode[api.PeriodDTO](t, resp)

	assert.Equal(t, "2024-02-01", got.Start)
	assert.Equal(t, "2024-02-29", got.End)
	assert.Equal(t, "2024-02-29", got.Reference)
	assert.Equal(t, "February, 2024", got.Label)
}

func TestResolvePeriod_Errors(t *testing.T) {
	srv := newTestServer(t, api.RouterOptions{})

	for _, path := range []string{
		"/api/v1/periods/quarter",
		"/api/v1/periods/day?date=yesterday",
		"/api/v1/periods/day?step=x",
	} {
		resp := srv.do(t, http.MethodGet, path, nil)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, path)
	}
}

// =============================================================================
// AUTH
// =============================================================================

func TestBearerToken(t *testing.T) {
	srv := newTestServer(t, api.RouterOptions{Token: "s3cret"})

	// Missing token
	resp := srv.do(t, http.MethodGet, "/api/v1/periods/day", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// Correct token
	req, err := http.NewRequest(http.MethodGet, srv.URL+"/api/v1/periods/day", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer s3cret")
	ok, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer ok.Body.Close()
	assert.Equal(t, http.StatusOK, ok.StatusCode)

	// Health stays public
	resp = srv.do(t, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
