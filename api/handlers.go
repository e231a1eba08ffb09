/*
handlers.go - HTTP API handlers for the budget service

PURPOSE:
  Exposes records, budget plans and engine results via REST API. Handles
  HTTP request/response and JSON serialization; the arithmetic is done by
  the budget package on records loaded from the store.

ENDPOINTS:
  Records (kind = expenses | incomes):
    POST   /api/v1/{kind}/add            Create record
    GET    /api/v1/{kind}/{granularity}  Records in period (?year&month&day)
    PUT    /api/v1/{kind}/{id}           Replace record
    DELETE /api/v1/{kind}/{id}           Delete record

  Budget:
    GET    /api/v1/budget/month          Plan for ?year&month, or null
    POST   /api/v1/budget/add            Validate and save plan
    GET    /api/v1/budget/status         Evaluated plan for ?year&month

  Reports:
    GET    /api/v1/reports/{granularity} Summary, breakdowns, trend

  Periods:
    GET    /api/v1/periods/{granularity} Resolve ?date, optionally ?step

REQUEST FLOW:
  1. Parse HTTP request
  2. Resolve the period
  3. Load records/plan from the store
  4. Call the engine (Aggregate, EvaluatePlan, BuildReport)
  5. Serialize response

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: ValidationError, InvalidPeriodError, malformed body
  - 401: Missing or wrong bearer token
  - 404: Record or plan not found
  - 500: Internal errors (logged)

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/pocketledger/budget-engine/budget"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store  budget.Store
	Logger *slog.Logger

	// Overridable in tests
	Now   func() time.Time
	NewID func() budget.RecordID

	scenarioMu      sync.Mutex
	currentScenario string
}

// NewHandler creates a new handler with the given store.
func NewHandler(store budget.Store, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		Store:  store,
		Logger: logger,
		Now:    time.Now,
		NewID:  func() budget.RecordID { return budget.RecordID(uuid.NewString()) },
	}
}

// =============================================================================
// RECORD HANDLERS
// =============================================================================

// CreateRecord stores a new record of the given kind.
// POST /api/v1/{kind}/add
func (h *Handler) CreateRecord(kind budget.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec, err := h.decodeRecord(r, kind, h.NewID())
		if err != nil {
			h.fail(w, r, "Invalid record", err)
			return
		}

		if err := h.Store.AddRecord(r.Context(), rec); err != nil {
			h.fail(w, r, "Failed to create record", err)
			return
		}

		writeJSON(w, http.StatusCreated, NewRecordDTO(rec))
	}
}

// ListRecords returns the records of a kind in the requested period.
// GET /api/v1/{kind}/{granularity}?year=2024&month=3&day=13
func (h *Handler) ListRecords(kind budget.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		period, err := h.periodFromQuery(r, chi.URLParam(r, "key"))
		if err != nil {
			h.fail(w, r, "Invalid period", err)
			return
		}

		records, err := h.Store.Records(r.Context(), period, kind)
		if err != nil {
			h.fail(w, r, "Failed to list records", err)
			return
		}

		totals := budget.Aggregate(records, kind)
		dtos := make([]RecordDTO, len(records))
		for i, rec := range records {
			dtos[i] = NewRecordDTO(rec)
		}

		writeJSON(w, http.StatusOK, RecordsResponse{
			Period:     NewPeriodDTO(period),
			Kind:       string(kind),
			Records:    dtos,
			Total:      totals.GrandTotal.String(),
			Count:      len(records),
			Categories: NewCategoryShareDTOs(totals),
		})
	}
}

// UpdateRecord replaces an existing record.
// PUT /api/v1/{kind}/{id}
func (h *Handler) UpdateRecord(kind budget.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := budget.RecordID(chi.URLParam(r, "key"))

		existing, err := h.Store.GetRecord(r.Context(), id)
		if err != nil {
			h.fail(w, r, "Failed to get record", err)
			return
		}
		if existing.Kind != kind {
			h.fail(w, r, "Failed to get record", budget.ErrRecordNotFound)
			return
		}

		rec, err := h.decodeRecord(r, kind, id)
		if err != nil {
			h.fail(w, r, "Invalid record", err)
			return
		}

		if err := h.Store.UpdateRecord(r.Context(), rec); err != nil {
			h.fail(w, r, "Failed to update record", err)
			return
		}

		writeJSON(w, http.StatusOK, NewRecordDTO(rec))
	}
}

// DeleteRecord removes a record.
// DELETE /api/v1/{kind}/{id}
func (h *Handler) DeleteRecord(kind budget.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := budget.RecordID(chi.URLParam(r, "key"))

		existing, err := h.Store.GetRecord(r.Context(), id)
		if err == nil && existing.Kind != kind {
			err = budget.ErrRecordNotFound
		}
		if err == nil {
			err = h.Store.DeleteRecord(r.Context(), id)
		}
		if err != nil {
			h.fail(w, r, "Failed to delete record", err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func (h *Handler) decodeRecord(r *http.Request, kind budget.Kind, id budget.RecordID) (budget.TransactionRecord, error) {
	var req RecordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return budget.TransactionRecord{}, &budget.ValidationError{
			Code:    budget.CodeInvalidRecord,
			Message: "invalid JSON payload",
		}
	}

	if strings.TrimSpace(req.Amount) == "" {
		return budget.TransactionRecord{}, &budget.ValidationError{
			Code:    budget.CodeInvalidRecord,
			Message: "amount is required",
		}
	}
	amount, err := budget.ParseAmount(req.Amount)
	if err != nil {
		return budget.TransactionRecord{}, &budget.ValidationError{
			Code:    budget.CodeInvalidRecord,
			Message: "amount must be a decimal number",
		}
	}

	at := h.Now()
	if strings.TrimSpace(req.Date) != "" {
		if at, err = budget.ParseDate(req.Date); err != nil {
			return budget.TransactionRecord{}, err
		}
	}

	rec := budget.TransactionRecord{
		ID:         id,
		Kind:       kind,
		Category:   strings.TrimSpace(req.Category),
		Amount:     amount,
		OccurredAt: at,
		Notes:      strings.TrimSpace(req.Notes),
	}
	return rec, budget.ValidateRecord(rec)
}

// =============================================================================
// BUDGET HANDLERS
// =============================================================================

// GetBudget returns the plan for a month, or {"budget": null}.
// GET /api/v1/budget/month?year=2024&month=3
func (h *Handler) GetBudget(w http.ResponseWriter, r *http.Request) {
	year, month, err := h.yearMonthFromQuery(r)
	if err != nil {
		h.fail(w, r, "Invalid period", err)
		return
	}

	plan, err := h.Store.Budget(r.Context(), year, month)
	if errors.Is(err, budget.ErrBudgetNotFound) {
		writeJSON(w, http.StatusOK, BudgetResponse{})
		return
	}
	if err != nil {
		h.fail(w, r, "Failed to get budget", err)
		return
	}

	dto := NewBudgetPlanDTO(plan)
	writeJSON(w, http.StatusOK, BudgetResponse{Budget: &dto})
}

// SaveBudget validates and stores a plan, replacing any plan for the month.
// POST /api/v1/budget/add
func (h *Handler) SaveBudget(w http.ResponseWriter, r *http.Request) {
	var req BudgetPlanDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.fail(w, r, "Invalid request body", &budget.ValidationError{
			Code:    budget.CodeInvalidRecord,
			Message: "invalid JSON payload",
		})
		return
	}

	plan, err := req.ToPlan()
	if err != nil {
		h.fail(w, r, "Invalid budget", err)
		return
	}
	if err := plan.Validate(); err != nil {
		h.fail(w, r, "Invalid budget", err)
		return
	}
	plan.CategoryLimits = plan.NormalizedLimits()

	if err := h.Store.SaveBudget(r.Context(), plan); err != nil {
		h.fail(w, r, "Failed to save budget", err)
		return
	}
	h.Logger.InfoContext(r.Context(), "budget saved",
		"year", plan.Year,
		"month", int(plan.Month),
		"expected_total_cost", plan.ExpectedTotalCost.String(),
		"categories", len(plan.CategoryLimits),
	)

	writeJSON(w, http.StatusCreated, NewBudgetPlanDTO(plan))
}

// GetBudgetStatus evaluates the month's plan against its expenses.
// GET /api/v1/budget/status?year=2024&month=3
func (h *Handler) GetBudgetStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	year, month, err := h.yearMonthFromQuery(r)
	if err != nil {
		h.fail(w, r, "Invalid period", err)
		return
	}
	period, err := budget.MonthPeriod(year, month)
	if err != nil {
		h.fail(w, r, "Invalid period", err)
		return
	}

	plan, err := h.Store.Budget(ctx, year, month)
	if err != nil {
		h.fail(w, r, "Failed to get budget", err)
		return
	}
	records, err := h.Store.Records(ctx, period, budget.Expense)
	if err != nil {
		h.fail(w, r, "Failed to list records", err)
		return
	}

	overview, err := budget.EvaluatePlan(plan, records)
	if err != nil {
		h.fail(w, r, "Invalid budget", err)
		return
	}

	writeJSON(w, http.StatusOK, NewBudgetStatusResponse(period, overview))
}

// =============================================================================
// REPORT / PERIOD HANDLERS
// =============================================================================

// GetReport returns summary, category breakdowns and the expense trend.
// GET /api/v1/reports/{granularity}?year=2024&month=3&day=13
func (h *Handler) GetReport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	period, err := h.periodFromQuery(r, chi.URLParam(r, "granularity"))
	if err != nil {
		h.fail(w, r, "Invalid period", err)
		return
	}

	expenses, err := h.Store.Records(ctx, period, budget.Expense)
	if err != nil {
		h.fail(w, r, "Failed to list records", err)
		return
	}
	incomes, err := h.Store.Records(ctx, period, budget.Income)
	if err != nil {
		h.fail(w, r, "Failed to list records", err)
		return
	}

	report := budget.BuildReport(period, append(expenses, incomes...))
	writeJSON(w, http.StatusOK, NewReportDTO(report))
}

// ResolvePeriod resolves a date to a period and optionally steps it.
// GET /api/v1/periods/{granularity}?date=2024-01-31&step=1
func (h *Handler) ResolvePeriod(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	g, err := budget.ParseGranularity(chi.URLParam(r, "granularity"))
	if err != nil {
		h.fail(w, r, "Invalid period", err)
		return
	}

	ref := h.Now()
	if raw := query.Get("date"); raw != "" {
		if ref, err = budget.ParseDate(raw); err != nil {
			h.fail(w, r, "Invalid period", err)
			return
		}
	}

	step := 0
	if raw := query.Get("step"); raw != "" {
		if step, err = strconv.Atoi(raw); err != nil {
			h.fail(w, r, "Invalid period", &budget.InvalidPeriodError{Input: raw, Reason: "step must be an integer"})
			return
		}
	}

	period, err := budget.Resolve(ref, g)
	if err != nil {
		h.fail(w, r, "Invalid period", err)
		return
	}
	if step != 0 {
		period = budget.Step(period, step)
	}

	writeJSON(w, http.StatusOK, NewPeriodDTO(period))
}

// =============================================================================
// QUERY PARSING
// =============================================================================

// periodFromQuery resolves ?year&month&day against the granularity. Missing
// parts default to today; a month query without a day uses the 1st.
func (h *Handler) periodFromQuery(r *http.Request, granularity string) (budget.Period, error) {
	g, err := budget.ParseGranularity(granularity)
	if err != nil {
		return budget.Period{}, err
	}

	now := h.Now()
	query := r.URL.Query()

	defaultDay := now.Day()
	if g == budget.Month || query.Get("month") != "" {
		defaultDay = 1
	}

	year, err := intParam(query.Get("year"), now.Year())
	if err != nil {
		return budget.Period{}, err
	}
	month, err := intParam(query.Get("month"), int(now.Month()))
	if err != nil {
		return budget.Period{}, err
	}
	day, err := intParam(query.Get("day"), defaultDay)
	if err != nil {
		return budget.Period{}, err
	}

	ref, err := budget.DateFromParts(year, month, day)
	if err != nil {
		return budget.Period{}, err
	}
	return budget.Resolve(ref, g)
}

func (h *Handler) yearMonthFromQuery(r *http.Request) (int, time.Month, error) {
	now := h.Now()
	query := r.URL.Query()

	year, err := intParam(query.Get("year"), now.Year())
	if err != nil {
		return 0, 0, err
	}
	month, err := intParam(query.Get("month"), int(now.Month()))
	if err != nil {
		return 0, 0, err
	}
	if month < 1 || month > 12 {
		return 0, 0, &budget.InvalidPeriodError{Input: strconv.Itoa(month), Reason: "month must be 1..12"}
	}
	return year, time.Month(month), nil
}

func intParam(raw string, fallback int) (int, error) {
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, &budget.InvalidPeriodError{Input: raw, Reason: "not an integer"}
	}
	return n, nil
}

// =============================================================================
// RESPONSE HELPERS
// =============================================================================

// fail maps an error to its HTTP status and writes it. 5xx are logged.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, message string, err error) {
	status, code := classify(err)
	if status >= http.StatusInternalServerError {
		h.Logger.ErrorContext(r.Context(), message,
			"error", err,
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", middleware.GetReqID(r.Context()),
		)
	}
	writeError(w, status, message, code, err)
}

func classify(err error) (int, string) {
	var verr *budget.ValidationError
	var perr *budget.InvalidPeriodError
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest, verr.Code
	case errors.As(err, &perr):
		return http.StatusBadRequest, "invalid_period"
	case errors.Is(err, budget.ErrRecordNotFound):
		return http.StatusNotFound, "record_not_found"
	case errors.Is(err, budget.ErrBudgetNotFound):
		return http.StatusNotFound, "budget_not_found"
	default:
		return http.StatusInternalServerError, "internal"
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message, code string, err error) {
	resp := ErrorResponse{Error: message, Code: code}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
