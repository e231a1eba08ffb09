package api_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pocketledger/budget-engine/api"
	"github.com/pocketledger/budget-engine/budget"
)

func TestScenarios_NotMountedByDefault(t *testing.T) {
	srv := newTestServer(t, api.RouterOptions{})

	resp := srv.do(t, http.MethodGet, "/api/v1/scenarios", nil)

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestScenarios_List(t *testing.T) {
	srv := newTestServer(t, api.RouterOptions{Scenarios: true})

	resp := srv.do(t, http.MethodGet, "/api/v1/scenarios", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	list := decode[[]api.ScenarioDTO](t, resp)
	ids := make([]string, len(list))
	for i, s := range list {
		ids[i] = s.ID
	}
	assert.Equal(t, []string{"empty", "first-month", "over-budget", "three-months"}, ids)
}

func TestScenarios_OverBudget(t *testing.T) {
	// GIVEN: A store with an unrelated record
	srv := newTestServer(t, api.RouterOptions{Scenarios: true})
	srv.addRecord(t, "expenses", "old", "5", "2024-03-02")

	// WHEN: Loading the over-budget scenario
	resp := srv.do(t, http.MethodPost, "/api/v1/scenarios/load", map[string]string{"scenario_id": "over-budget"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	loaded := decode[api.ScenarioLoadResponse](t, resp)
	assert.Equal(t, 7, loaded.Records)
	assert.Equal(t, 1, loaded.Budgets)

	// THEN: The old data is gone and the current month evaluates as designed
	for _, r := range srv.store.All() {
		assert.NotEqual(t, "old", r.Category)
	}

	resp = srv.do(t, http.MethodGet, "/api/v1/budget/status?year=2024&month=3", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	status := decode[api.BudgetStatusResponse](t, resp)

	assert.Equal(t, 2, status.OverBudgetCount) // food, entertainment
	assert.Equal(t, "1985.75", status.TotalSpent)
	assert.Equal(t, "300", status.UnbudgetedSpent)
	assert.Equal(t, "-185.75", status.RemainingExpected)

	resp = srv.do(t, http.MethodGet, "/api/v1/scenarios/current", nil)
	assert.Equal(t, "over-budget", decode[api.ScenarioDTO](t, resp).ID)
}

func TestScenarios_ThreeMonths(t *testing.T) {
	srv := newTestServer(t, api.RouterOptions{Scenarios: true})

	resp := srv.do(t, http.MethodPost, "/api/v1/scenarios/load", map[string]string{"scenario_id": "three-months"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// Plans exist for January through March 2024
	for _, month := range []time.Month{time.January, time.February, time.March} {
		_, err := srv.store.Budget(context.Background(), 2024, month)
		assert.NoError(t, err, month.String())
	}

	feb, err := budget.MonthPeriod(2024, time.February)
	require.NoError(t, err)
	incomes, err := srv.store.Records(context.Background(), feb, budget.Income)
	require.NoError(t, err)
	assert.Len(t, incomes, 2)
}

func TestScenarios_Errors(t *testing.T) {
	srv := newTestServer(t, api.RouterOptions{Scenarios: true})

	resp := srv.do(t, http.MethodPost, "/api/v1/scenarios/load", map[string]string{"scenario_id": "nope"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "scenario_not_found", decode[api.ErrorResponse](t, resp).Code)

	resp = srv.do(t, http.MethodPost, "/api/v1/scenarios/load", "not an object")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = srv.do(t, http.MethodGet, "/api/v1/scenarios/current", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
