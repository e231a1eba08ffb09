package dashboard_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pocketledger/budget-engine/budget"
	"github.com/pocketledger/budget-engine/budget/store"
	"github.com/pocketledger/budget-engine/dashboard"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func day(d int) time.Time {
	return time.Date(2024, time.March, d, 12, 0, 0, 0, time.UTC)
}

func month(t *testing.T, m time.Month) budget.Period {
	t.Helper()
	p, err := budget.Resolve(time.Date(2024, m, 1, 0, 0, 0, 0, time.UTC), budget.Month)
	require.NoError(t, err)
	return p
}

func seeded() *store.Memory {
	return store.NewMemoryFrom(
		[]budget.TransactionRecord{
			{ID: "1", Kind: budget.Expense, Category: "Food", Amount: decimal.NewFromInt(1000), OccurredAt: day(5)},
			{ID: "2", Kind: budget.Expense, Category: "food", Amount: decimal.NewFromInt(500), OccurredAt: day(6)},
			{ID: "3", Kind: budget.Income, Category: "Transport", Amount: decimal.NewFromInt(200), OccurredAt: day(5)},
			{ID: "4", Kind: budget.Expense, Category: "rent", Amount: decimal.NewFromInt(900), OccurredAt: time.Date(2024, time.April, 2, 0, 0, 0, 0, time.UTC)},
		},
		budget.BudgetPlan{
			Year: 2024, Month: time.March, ExpectedTotalCost: decimal.NewFromInt(3000),
			CategoryLimits: map[string]decimal.Decimal{"food": decimal.NewFromInt(2000)},
		},
	)
}

// gatedSource blocks Records calls for one period until released.
type gatedSource struct {
	budget.Source
	block   budget.Period
	release chan struct{}
	entered chan struct{}
	once    sync.Once
}

func (s *gatedSource) Records(ctx context.Context, p budget.Period, k budget.Kind) ([]budget.TransactionRecord, error) {
	if p.Equal(s.block) {
		s.once.Do(func() { close(s.entered) })
		select {
		case <-s.release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return s.Source.Records(ctx, p, k)
}

// failingSource fails every call once armed.
type failingSource struct {
	budget.Source
	fail bool
}

var errOffline = errors.New("offline")

func (s *failingSource) Records(ctx context.Context, p budget.Period, k budget.Kind) ([]budget.TransactionRecord, error) {
	if s.fail {
		return nil, errOffline
	}
	return s.Source.Records(ctx, p, k)
}

// =============================================================================
// TESTS
// =============================================================================

func TestController_MonthView(t *testing.T) {
	// GIVEN: March with a food plan
	c := dashboard.New(seeded(), month(t, time.March), nil)

	// WHEN: Refreshing
	view, err := c.Refresh(context.Background())
	require.NoError(t, err)

	// THEN: Report and evaluated plan
	assert.True(t, view.Report.Summary.Expense.Equal(decimal.NewFromInt(1500)))
	assert.True(t, view.Report.Summary.Income.Equal(decimal.NewFromInt(200)))
	require.True(t, view.HasPlan())
	require.Len(t, view.Overview.Statuses, 1)
	assert.True(t, view.Overview.Statuses[0].Remaining.Equal(decimal.NewFromInt(500)))

	got, ok := c.View()
	require.True(t, ok)
	assert.True(t, got.Period.Equal(view.Period))
}

func TestController_NavigateWithoutPlan(t *testing.T) {
	c := dashboard.New(seeded(), month(t, time.March), nil)

	view, err := c.Next(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "April, 2024", view.Period.Label)
	assert.False(t, view.HasPlan())
	assert.NoError(t, view.PlanErr)
	assert.True(t, view.Report.Expenses.Get("rent").Equal(decimal.NewFromInt(900)))
}

func TestController_WeekSkipsPlan(t *testing.T) {
	c := dashboard.New(seeded(), month(t, time.March), nil)

	view, err := c.SetGranularity(context.Background(), budget.Week)
	require.NoError(t, err)

	assert.Equal(t, budget.Week, view.Period.Granularity)
	assert.False(t, view.HasPlan())
	assert.Len(t, view.Report.Trend, 7)
}

func TestController_InvalidPlanIsReportedNotFatal(t *testing.T) {
	mem := seeded()
	require.NoError(t, mem.SaveBudget(context.Background(), budget.BudgetPlan{
		Year: 2024, Month: time.March, ExpectedTotalCost: decimal.NewFromInt(1000),
		CategoryLimits: map[string]decimal.Decimal{"food": decimal.NewFromInt(600), "rent": decimal.NewFromInt(500)},
	}))
	c := dashboard.New(mem, month(t, time.March), nil)

	view, err := c.Refresh(context.Background())

	require.NoError(t, err)
	assert.False(t, view.HasPlan())
	assert.ErrorIs(t, view.PlanErr, budget.ErrValidation)
}

func TestController_KeepsLastGoodViewOnFailure(t *testing.T) {
	// GIVEN: A successful March fetch
	src := &failingSource{Source: seeded()}
	c := dashboard.New(src, month(t, time.March), nil)
	_, err := c.Refresh(context.Background())
	require.NoError(t, err)

	// WHEN: The source goes offline and the user navigates
	src.fail = true
	_, err = c.Next(context.Background())

	// THEN: The error surfaces, the selection moved, the view did not
	assert.ErrorIs(t, err, errOffline)
	assert.Equal(t, "April, 2024", c.Period().Label)
	view, ok := c.View()
	require.True(t, ok)
	assert.Equal(t, "March, 2024", view.Period.Label)
}

func TestController_DiscardsStaleFetch(t *testing.T) {
	// GIVEN: Fetching March hangs until released
	march := month(t, time.March)
	src := &gatedSource{
		Source:  seeded(),
		block:   march,
		release: make(chan struct{}),
		entered: make(chan struct{}),
	}
	c := dashboard.New(src, march, nil)

	type result struct {
		view dashboard.View
		err  error
	}
	first := make(chan result, 1)
	go func() {
		v, err := c.Refresh(context.Background())
		first <- result{v, err}
	}()
	<-src.entered

	// WHEN: The user navigates to April before March arrives
	view, err := c.Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "April, 2024", view.Period.Label)

	// THEN: The March fetch is cancelled and discarded
	r := <-first
	assert.ErrorIs(t, r.err, dashboard.ErrStale)

	shown, ok := c.View()
	require.True(t, ok)
	assert.Equal(t, "April, 2024", shown.Period.Label)
}
