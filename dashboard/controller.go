/*
Package dashboard holds the screen state of the budget dashboard.

PURPOSE:
  The engine is pure; something still has to remember which period is on
  screen and what was last shown. Controller is that something. It owns
  the selected period and the last good view, and turns navigation into
  exactly one fetch per change.

KEY CONCEPTS:
  View:        Report for the period, plus the evaluated plan for months
  Generation:  Counter bumped by every navigation. A fetch whose generation
               is no longer current is discarded with ErrStale, and its
               context is cancelled when the next navigation starts.
  Last good:   A failed fetch leaves the previous view untouched.

FETCH:
  Expenses, incomes and (month granularity) the plan are loaded
  concurrently with errgroup. The first failure cancels the others.

SEE ALSO:
  - budget/source.go: Source interface
  - client/client.go: Remote Source
*/
package dashboard

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/pocketledger/budget-engine/budget"
)

// ErrStale is returned when a newer navigation superseded the fetch.
var ErrStale = errors.New("dashboard: fetch superseded by newer selection")

// View is what the dashboard renders for one period.
type View struct {
	Period budget.Period
	Report budget.Report

	// Set for month periods with a valid plan
	Overview *budget.BudgetOverview

	// Set when the month's plan exists but fails validation
	PlanErr error

	FetchedAt time.Time
}

// HasPlan reports whether a plan was found for the month.
func (v View) HasPlan() bool {
	return v.Overview != nil
}

// Controller tracks the selected period and the last good view.
type Controller struct {
	source budget.Source
	logger *slog.Logger
	now    func() time.Time

	mu     sync.Mutex
	period budget.Period
	view   *View
	gen    uint64
	cancel context.CancelFunc
}

// New creates a controller showing the given period. Nothing is fetched
// until Refresh or a navigation call.
func New(source budget.Source, initial budget.Period, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{
		source: source,
		logger: logger.With("component", "dashboard"),
		now:    time.Now,
		period: initial,
	}
}

// Period returns the selected period.
func (c *Controller) Period() budget.Period {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.period
}

// View returns the last good view, if any fetch has succeeded.
func (c *Controller) View() (View, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.view == nil {
		return View{}, false
	}
	return *c.view, true
}

// =============================================================================
// NAVIGATION
// =============================================================================

// Refresh refetches the selected period.
func (c *Controller) Refresh(ctx context.Context) (View, error) {
	return c.Select(ctx, c.Period())
}

// Next moves to the following period.
func (c *Controller) Next(ctx context.Context) (View, error) {
	return c.Select(ctx, c.Period().Next())
}

// Previous moves to the preceding period.
func (c *Controller) Previous(ctx context.Context) (View, error) {
	return c.Select(ctx, c.Period().Previous())
}

// SetGranularity re-resolves the selected reference date at g.
func (c *Controller) SetGranularity(ctx context.Context, g budget.Granularity) (View, error) {
	p, err := budget.Resolve(c.Period().Reference, g)
	if err != nil {
		return View{}, err
	}
	return c.Select(ctx, p)
}

// Select makes p the selected period and fetches it. The selection sticks
// even when the fetch fails; the last good view does not change on failure.
func (c *Controller) Select(ctx context.Context, p budget.Period) (View, error) {
	c.mu.Lock()
	if c.cancel != nil {
		c.cancel()
	}
	c.gen++
	gen := c.gen
	c.period = p
	fetchCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.mu.Unlock()

	view, err := c.fetch(fetchCtx, p)

	c.mu.Lock()
	defer c.mu.Unlock()
	defer cancel()

	if gen != c.gen {
		c.logger.Debug("discarding stale fetch", "period", p.Label)
		return View{}, ErrStale
	}
	c.cancel = nil
	if err != nil {
		c.logger.Warn("fetch failed, keeping last view", "period", p.Label, "error", err)
		return View{}, err
	}

	c.view = &view
	return view, nil
}

// =============================================================================
// FETCH
// =============================================================================

func (c *Controller) fetch(ctx context.Context, p budget.Period) (View, error) {
	var (
		expenses, incomes []budget.TransactionRecord
		plan              budget.BudgetPlan
		havePlan          bool
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		expenses, err = c.source.Records(gctx, p, budget.Expense)
		return err
	})
	g.Go(func() error {
		var err error
		incomes, err = c.source.Records(gctx, p, budget.Income)
		return err
	})
	if p.Granularity == budget.Month {
		g.Go(func() error {
			var err error
			plan, err = c.source.Budget(gctx, p.Start.Year(), p.Start.Month())
			if errors.Is(err, budget.ErrBudgetNotFound) {
				return nil
			}
			havePlan = err == nil
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return View{}, err
	}

	records := append(append([]budget.TransactionRecord(nil), expenses...), incomes...)
	view := View{
		Period:    p,
		Report:    budget.BuildReport(p, records),
		FetchedAt: c.now(),
	}

	if havePlan {
		overview, err := budget.EvaluatePlan(plan, expenses)
		if err != nil {
			view.PlanErr = err
		} else {
			view.Overview = &overview
		}
	}
	return view, nil
}
