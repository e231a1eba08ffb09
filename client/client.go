/*
Package client talks to the budget HTTP API.

PURPOSE:
  Fetches records and plans from a remote budget service so the engine can
  run on them locally. Implements budget.Source, which lets the dashboard
  controller and the CLI treat a server exactly like a local store.

CONFIGURATION:
  The base URL and bearer token are explicit Config fields. Nothing is read
  from globals or the environment here.

ERRORS:
  Non-2xx responses become *APIError. APIError unwraps to the budget
  sentinel matching its code, so errors.Is(err, budget.ErrBudgetNotFound)
  works across the wire.

SEE ALSO:
  - api/dto.go: Wire types shared with the server
  - dashboard/controller.go: Main consumer
*/
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pocketledger/budget-engine/api"
	"github.com/pocketledger/budget-engine/budget"
)

var _ budget.Source = (*Client)(nil)

const defaultTimeout = 10 * time.Second

// Config configures a Client.
type Config struct {
	BaseURL string
	Token   string
	Timeout time.Duration

	// HTTPClient overrides the default client; Timeout is ignored when set.
	HTTPClient *http.Client
}

// Client is a budget API client.
type Client struct {
	base  *url.URL
	token string
	http  *http.Client
}

// New creates a client for the API at cfg.BaseURL.
func New(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, errors.New("client: base URL is required")
	}
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("client: invalid base URL: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("client: base URL scheme must be http or https, got %q", base.Scheme)
	}

	hc := cfg.HTTPClient
	if hc == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		hc = &http.Client{Timeout: timeout}
	}

	return &Client{base: base, token: cfg.Token, http: hc}, nil
}

// =============================================================================
// SOURCE
// =============================================================================

// Records fetches the records of a kind in a period.
func (c *Client) Records(ctx context.Context, period budget.Period, kind budget.Kind) ([]budget.TransactionRecord, error) {
	q := url.Values{}
	q.Set("year", strconv.Itoa(period.Start.Year()))
	q.Set("month", strconv.Itoa(int(period.Start.Month())))
	q.Set("day", strconv.Itoa(period.Start.Day()))

	var resp api.RecordsResponse
	path := "/api/v1/" + kind.Plural() + "/" + string(period.Granularity)
	if err := c.do(ctx, http.MethodGet, path, q, nil, &resp); err != nil {
		return nil, err
	}

	records := make([]budget.TransactionRecord, 0, len(resp.Records))
	for _, dto := range resp.Records {
		rec, err := dto.ToRecord()
		if err != nil {
			return nil, fmt.Errorf("client: decode record: %w", err)
		}
		records = append(records, rec)
	}
	return records, nil
}

// Budget fetches the plan for a month. Returns budget.ErrBudgetNotFound
// when the server has none.
func (c *Client) Budget(ctx context.Context, year int, month time.Month) (budget.BudgetPlan, error) {
	q := url.Values{}
	q.Set("year", strconv.Itoa(year))
	q.Set("month", strconv.Itoa(int(month)))

	var resp api.BudgetResponse
	if err := c.do(ctx, http.MethodGet, "/api/v1/budget/month", q, nil, &resp); err != nil {
		return budget.BudgetPlan{}, err
	}
	if resp.Budget == nil {
		return budget.BudgetPlan{}, budget.ErrBudgetNotFound
	}
	return resp.Budget.ToPlan()
}

// =============================================================================
// WRITES
// =============================================================================

// AddRecord creates a record. The server assigns the id; the stored record
// is returned.
func (c *Client) AddRecord(ctx context.Context, rec budget.TransactionRecord) (budget.TransactionRecord, error) {
	if !rec.Kind.Valid() {
		return budget.TransactionRecord{}, &budget.ValidationError{
			Code:    budget.CodeInvalidRecord,
			Message: "record kind must be income or expense",
		}
	}

	req := api.RecordRequest{
		Category: rec.Category,
		Amount:   rec.Amount.String(),
		Date:     rec.OccurredAt.Format(time.RFC3339Nano),
		Notes:    rec.Notes,
	}

	var resp api.RecordDTO
	if err := c.do(ctx, http.MethodPost, "/api/v1/"+rec.Kind.Plural()+"/add", nil, req, &resp); err != nil {
		return budget.TransactionRecord{}, err
	}
	return resp.ToRecord()
}

// SaveBudget validates the plan locally, then stores it on the server.
func (c *Client) SaveBudget(ctx context.Context, plan budget.BudgetPlan) error {
	if err := plan.Validate(); err != nil {
		return err
	}
	return c.do(ctx, http.MethodPost, "/api/v1/budget/add", nil, api.NewBudgetPlanDTO(plan), nil)
}

// =============================================================================
// TRANSPORT
// =============================================================================

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	u := *c.base
	u.Path = c.base.Path + path
	u.RawQuery = query.Encode()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("client: encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return fmt.Errorf("client: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("client: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return decodeError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("client: decode %s %s: %w", method, path, err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode}
	var body api.ErrorResponse
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if json.Unmarshal(data, &body) == nil && body.Error != "" {
		apiErr.Message = body.Error
		apiErr.Code = body.Code
		apiErr.Details = body.Details
	} else {
		apiErr.Message = strings.TrimSpace(string(data))
	}
	return apiErr
}
