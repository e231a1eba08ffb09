// Package store provides budget.Store implementations.
package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/pocketledger/budget-engine/budget"
	"github.com/shopspring/decimal"
)

var _ budget.Store = (*Memory)(nil)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev/file input)
// =============================================================================

type Memory struct {
	mu      sync.RWMutex
	records []budget.TransactionRecord // sorted by OccurredAt
	plans   map[monthKey]budget.BudgetPlan
}

type monthKey struct {
	Year  int
	Month time.Month
}

func NewMemory() *Memory {
	return &Memory{
		plans: make(map[monthKey]budget.BudgetPlan),
	}
}

// NewMemoryFrom seeds a store with records and plans, e.g. from an input file.
func NewMemoryFrom(records []budget.TransactionRecord, plans ...budget.BudgetPlan) *Memory {
	m := NewMemory()
	for _, r := range records {
		m.insertLocked(r)
	}
	for _, p := range plans {
		m.plans[monthKey{Year: p.Year, Month: p.Month}] = copyPlan(p)
	}
	return m
}

func (m *Memory) AddRecord(_ context.Context, rec budget.TransactionRecord) error {
	if err := budget.ValidateRecord(rec); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.insertLocked(rec)
	return nil
}

func (m *Memory) insertLocked(rec budget.TransactionRecord) {
	// Binary search keeps records ordered by OccurredAt
	i := sort.Search(len(m.records), func(i int) bool {
		return m.records[i].OccurredAt.After(rec.OccurredAt)
	})
	m.records = append(m.records, budget.TransactionRecord{})
	copy(m.records[i+1:], m.records[i:])
	m.records[i] = rec
}

func (m *Memory) indexLocked(id budget.RecordID) int {
	for i, r := range m.records {
		if r.ID == id {
			return i
		}
	}
	return -1
}

func (m *Memory) GetRecord(_ context.Context, id budget.RecordID) (budget.TransactionRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	i := m.indexLocked(id)
	if i < 0 {
		return budget.TransactionRecord{}, budget.ErrRecordNotFound
	}
	return m.records[i], nil
}

func (m *Memory) UpdateRecord(_ context.Context, rec budget.TransactionRecord) error {
	if err := budget.ValidateRecord(rec); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.indexLocked(rec.ID)
	if i < 0 {
		return budget.ErrRecordNotFound
	}
	m.records = append(m.records[:i], m.records[i+1:]...)
	m.insertLocked(rec)
	return nil
}

func (m *Memory) DeleteRecord(_ context.Context, id budget.RecordID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.indexLocked(id)
	if i < 0 {
		return budget.ErrRecordNotFound
	}
	m.records = append(m.records[:i], m.records[i+1:]...)
	return nil
}

func (m *Memory) Records(_ context.Context, period budget.Period, kind budget.Kind) ([]budget.TransactionRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []budget.TransactionRecord
	for _, r := range m.records {
		if r.Kind == kind && period.Contains(r.OccurredAt) {
			result = append(result, r)
		}
	}
	return result, nil
}

// All returns every record regardless of kind or date.
func (m *Memory) All() []budget.TransactionRecord {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]budget.TransactionRecord, len(m.records))
	copy(result, m.records)
	return result
}

func (m *Memory) Budget(_ context.Context, year int, month time.Month) (budget.BudgetPlan, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.plans[monthKey{Year: year, Month: month}]
	if !ok {
		return budget.BudgetPlan{}, budget.ErrBudgetNotFound
	}
	return copyPlan(p), nil
}

func (m *Memory) SaveBudget(_ context.Context, plan budget.BudgetPlan) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.plans[monthKey{Year: plan.Year, Month: plan.Month}] = copyPlan(plan)
	return nil
}

// Reset deletes all records and plans.
func (m *Memory) Reset(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = nil
	m.plans = make(map[monthKey]budget.BudgetPlan)
	return nil
}

// copyPlan detaches the limits map so callers cannot mutate stored plans.
func copyPlan(p budget.BudgetPlan) budget.BudgetPlan {
	limits := make(map[string]decimal.Decimal, len(p.CategoryLimits))
	for k, v := range p.CategoryLimits {
		limits[k] = v
	}
	p.CategoryLimits = limits
	return p
}
