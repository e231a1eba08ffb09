/*
Package sqlite provides a SQLite-backed implementation of budget.Store.

PURPOSE:
  Persists income/expense records and monthly budget plans for the
  budget service. The engine never touches this package; handlers load
  records for a resolved period and hand them to the pure functions.

INTERFACES IMPLEMENTED:
  budget.Source: Records in a period, plan for a month
  budget.Store:  Record CRUD, plan upsert

KEY TABLES:
  records:       One row per income/expense record
  budgets:       Expected total cost per (year, month)
  budget_limits: Category limits per (year, month, category)

MONEY:
  Amounts are stored as decimal TEXT (decimal.Decimal.String()) and parsed
  back with decimal.NewFromString. No REAL columns, so no float rounding.

TIME:
  occurred_at is stored in UTC with a fixed-width layout so that string
  comparison orders rows chronologically. Period bounds are converted to
  UTC before querying; records come back in UTC.

CONCURRENCY:
  Uses sync.RWMutex for thread-safety. ":memory:" databases are pinned
  to one connection because each SQLite connection would otherwise see
  its own empty database.

USAGE:
  store, err := sqlite.New("./data/budget.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

SEE ALSO:
  - budget/source.go: Interface definitions
  - budget/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/pocketledger/budget-engine/budget"
)

var _ budget.Store = (*Store)(nil)

// timeLayout sorts lexicographically in chronological order.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// Store implements budget.Store using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS records (
		id TEXT PRIMARY KEY,
		kind TEXT NOT NULL CHECK (kind IN ('income', 'expense')),
		category TEXT NOT NULL,
		amount TEXT NOT NULL,
		occurred_at TEXT NOT NULL,
		notes TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	-- Period queries (hot path)
	CREATE INDEX IF NOT EXISTS idx_records_kind_occurred
		ON records(kind, occurred_at);

	CREATE TABLE IF NOT EXISTS budgets (
		year INTEGER NOT NULL,
		month INTEGER NOT NULL CHECK (month BETWEEN 1 AND 12),
		expected_total_cost TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		PRIMARY KEY (year, month)
	);

	CREATE TABLE IF NOT EXISTS budget_limits (
		year INTEGER NOT NULL,
		month INTEGER NOT NULL,
		category TEXT NOT NULL,
		limit_value TEXT NOT NULL,
		PRIMARY KEY (year, month, category),
		FOREIGN KEY (year, month) REFERENCES budgets(year, month) ON DELETE CASCADE
	);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// RECORDS
// =============================================================================

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// AddRecord persists a new record.
func (s *Store) AddRecord(ctx context.Context, rec budget.TransactionRecord) error {
	if err := budget.ValidateRecord(rec); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC().Format(timeLayout)
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO records (id, kind, category, amount, occurred_at, notes, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		string(rec.ID),
		string(rec.Kind),
		rec.Category,
		rec.Amount.String(),
		rec.OccurredAt.UTC().Format(timeLayout),
		nullString(rec.Notes),
		now, now,
	)
	if err != nil {
		return fmt.Errorf("failed to insert record: %w", err)
	}
	return nil
}

// GetRecord returns a single record.
func (s *Store) GetRecord(ctx context.Context, id budget.RecordID) (budget.TransactionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records, err := s.queryRecords(ctx, `
		SELECT id, kind, category, amount, occurred_at, notes
		FROM records WHERE id = ?
	`, string(id))
	if err != nil {
		return budget.TransactionRecord{}, err
	}
	if len(records) == 0 {
		return budget.TransactionRecord{}, budget.ErrRecordNotFound
	}
	return records[0], nil
}

// UpdateRecord replaces an existing record.
func (s *Store) UpdateRecord(ctx context.Context, rec budget.TransactionRecord) error {
	if err := budget.ValidateRecord(rec); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `
		UPDATE records
		SET kind = ?, category = ?, amount = ?, occurred_at = ?, notes = ?, updated_at = ?
		WHERE id = ?
	`,
		string(rec.Kind),
		rec.Category,
		rec.Amount.String(),
		rec.OccurredAt.UTC().Format(timeLayout),
		nullString(rec.Notes),
		time.Now().UTC().Format(timeLayout),
		string(rec.ID),
	)
	if err != nil {
		return fmt.Errorf("failed to update record: %w", err)
	}
	return requireAffected(res, budget.ErrRecordNotFound)
}

// DeleteRecord removes a record.
func (s *Store) DeleteRecord(ctx context.Context, id budget.RecordID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, "DELETE FROM records WHERE id = ?", string(id))
	if err != nil {
		return fmt.Errorf("failed to delete record: %w", err)
	}
	return requireAffected(res, budget.ErrRecordNotFound)
}

// Records returns the records of a kind in [period.Start, period.EndExclusive).
func (s *Store) Records(ctx context.Context, period budget.Period, kind budget.Kind) ([]budget.TransactionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.queryRecords(ctx, `
		SELECT id, kind, category, amount, occurred_at, notes
		FROM records
		WHERE kind = ? AND occurred_at >= ? AND occurred_at < ?
		ORDER BY occurred_at, id
	`,
		string(kind),
		period.Start.UTC().Format(timeLayout),
		period.EndExclusive().UTC().Format(timeLayout),
	)
}

func (s *Store) queryRecords(ctx context.Context, query string, args ...any) ([]budget.TransactionRecord, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}
	defer rows.Close()

	var records []budget.TransactionRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	return records, rows.Err()
}

func scanRecord(rows *sql.Rows) (budget.TransactionRecord, error) {
	var (
		rec        budget.TransactionRecord
		id         string
		kind       string
		amount     string
		occurredAt string
		notes      sql.NullString
	)

	if err := rows.Scan(&id, &kind, &rec.Category, &amount, &occurredAt, &notes); err != nil {
		return rec, fmt.Errorf("failed to scan record: %w", err)
	}

	value, err := decimal.NewFromString(amount)
	if err != nil {
		return rec, fmt.Errorf("record %s: bad amount %q: %w", id, amount, err)
	}
	t, err := time.Parse(timeLayout, occurredAt)
	if err != nil {
		return rec, fmt.Errorf("record %s: bad occurred_at %q: %w", id, occurredAt, err)
	}

	rec.ID = budget.RecordID(id)
	rec.Kind = budget.Kind(kind)
	rec.Amount = value
	rec.OccurredAt = t
	rec.Notes = notes.String
	return rec, nil
}

// =============================================================================
// BUDGET PLANS
// =============================================================================

// Budget returns the plan for a month.
func (s *Store) Budget(ctx context.Context, year int, month time.Month) (budget.BudgetPlan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var expected string
	err := s.db.QueryRowContext(ctx,
		"SELECT expected_total_cost FROM budgets WHERE year = ? AND month = ?",
		year, int(month),
	).Scan(&expected)
	if errors.Is(err, sql.ErrNoRows) {
		return budget.BudgetPlan{}, budget.ErrBudgetNotFound
	}
	if err != nil {
		return budget.BudgetPlan{}, fmt.Errorf("failed to get budget: %w", err)
	}

	plan := budget.BudgetPlan{
		Year:           year,
		Month:          month,
		CategoryLimits: make(map[string]decimal.Decimal),
	}
	if plan.ExpectedTotalCost, err = decimal.NewFromString(expected); err != nil {
		return budget.BudgetPlan{}, fmt.Errorf("budget %d-%02d: bad expected_total_cost %q: %w", year, int(month), expected, err)
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT category, limit_value FROM budget_limits WHERE year = ? AND month = ?",
		year, int(month),
	)
	if err != nil {
		return budget.BudgetPlan{}, fmt.Errorf("failed to query budget limits: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var category, limit string
		if err := rows.Scan(&category, &limit); err != nil {
			return budget.BudgetPlan{}, fmt.Errorf("failed to scan budget limit: %w", err)
		}
		value, err := decimal.NewFromString(limit)
		if err != nil {
			return budget.BudgetPlan{}, fmt.Errorf("budget limit %s: bad value %q: %w", category, limit, err)
		}
		plan.CategoryLimits[category] = value
	}

	return plan, rows.Err()
}

// SaveBudget replaces the plan for plan.Year/plan.Month atomically.
func (s *Store) SaveBudget(ctx context.Context, plan budget.BudgetPlan) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO budgets (year, month, expected_total_cost, updated_at)
			VALUES (?, ?, ?, ?)
			ON CONFLICT(year, month) DO UPDATE SET
				expected_total_cost = excluded.expected_total_cost,
				updated_at = excluded.updated_at
		`, plan.Year, int(plan.Month), plan.ExpectedTotalCost.String(), time.Now().UTC().Format(timeLayout))
		if err != nil {
			return fmt.Errorf("failed to save budget: %w", err)
		}

		if _, err := tx.ExecContext(ctx,
			"DELETE FROM budget_limits WHERE year = ? AND month = ?",
			plan.Year, int(plan.Month),
		); err != nil {
			return fmt.Errorf("failed to clear budget limits: %w", err)
		}

		for category, limit := range plan.NormalizedLimits() {
			if err := insertLimit(ctx, tx, plan, category, limit); err != nil {
				return err
			}
		}
		return nil
	})
}

func insertLimit(ctx context.Context, db execer, plan budget.BudgetPlan, category string, limit decimal.Decimal) error {
	_, err := db.ExecContext(ctx,
		"INSERT INTO budget_limits (year, month, category, limit_value) VALUES (?, ?, ?, ?)",
		plan.Year, int(plan.Month), category, limit.String(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert budget limit %s: %w", category, err)
	}
	return nil
}

// =============================================================================
// ADMIN
// =============================================================================

// Reset deletes all data. Used by tests and the dev reset endpoint.
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tables := []string{"budget_limits", "budgets", "records"}
	for _, table := range tables {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return err
		}
	}
	return nil
}

// =============================================================================
// HELPERS
// =============================================================================

// withTx runs fn in a transaction, rolling back when fn returns an error.
// Callers hold s.mu.
func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	if err := fn(sqlTx); err != nil {
		return err
	}
	return sqlTx.Commit()
}

func requireAffected(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound
	}
	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
