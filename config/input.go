package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/pocketledger/budget-engine/budget"
	"github.com/pocketledger/budget-engine/budget/store"
)

// Input is the decoded content of a CLI input file. Amounts and dates are
// strings in every format so that no decoder turns them into floats or
// timestamps; quote them in TOML and JSON.
//
//	records:
//	  - kind: expense
//	    category: Food
//	    amount: "12.50"
//	    date: "2024-03-05"
//	budgets:
//	  - year: 2024
//	    month: 3
//	    expected_total_cost: "3000"
//	    category_limits: {food: "2000"}
type Input struct {
	Records []InputRecord `json:"records" yaml:"records" toml:"records"`
	Budgets []InputBudget `json:"budgets" yaml:"budgets" toml:"budgets"`
}

// InputRecord is one record line of an input file.
type InputRecord struct {
	ID       string `json:"id" yaml:"id" toml:"id"`
	Kind     string `json:"kind" yaml:"kind" toml:"kind"`
	Category string `json:"category" yaml:"category" toml:"category"`
	Amount   string `json:"amount" yaml:"amount" toml:"amount"`
	Date     string `json:"date" yaml:"date" toml:"date"`
	Notes    string `json:"notes" yaml:"notes" toml:"notes"`
}

// InputBudget is one monthly plan of an input file.
type InputBudget struct {
	Year              int               `json:"year" yaml:"year" toml:"year"`
	Month             int               `json:"month" yaml:"month" toml:"month"`
	ExpectedTotalCost string            `json:"expected_total_cost" yaml:"expected_total_cost" toml:"expected_total_cost"`
	CategoryLimits    map[string]string `json:"category_limits" yaml:"category_limits" toml:"category_limits"`
}

// LoadInput decodes a TOML, YAML or JSON input file.
func LoadInput(filePath string) (*Input, error) {
	fileExtension := strings.ToLower(filepath.Ext(filePath))

	fileInfo, err := os.Stat(filePath)
	if err != nil {
		return nil, fmt.Errorf("error accessing input file: %w", err)
	}
	if fileInfo.IsDir() {
		return nil, fmt.Errorf("%s is a directory, not a file", filePath)
	}

	fileData, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("error reading input file: %w", err)
	}

	var input Input
	switch fileExtension {
	case ".toml":
		if err := toml.Unmarshal(fileData, &input); err != nil {
			return nil, fmt.Errorf("error parsing TOML file: %w", err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(fileData, &input); err != nil {
			return nil, fmt.Errorf("error parsing YAML file: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(fileData, &input); err != nil {
			return nil, fmt.Errorf("error parsing JSON file: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported input file format: %s", fileExtension)
	}

	return &input, nil
}

// TransactionRecords converts the records. Missing ids become
// "<kind>-<n>" with n the 1-based position in the file.
func (in *Input) TransactionRecords() ([]budget.TransactionRecord, error) {
	records := make([]budget.TransactionRecord, 0, len(in.Records))
	for i, r := range in.Records {
		kind, err := budget.ParseKind(r.Kind)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i+1, err)
		}
		amount, err := budget.ParseAmount(r.Amount)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i+1, err)
		}
		at, err := budget.ParseDate(r.Date)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i+1, err)
		}

		id := r.ID
		if id == "" {
			id = fmt.Sprintf("%s-%d", kind, i+1)
		}
		rec := budget.TransactionRecord{
			ID:         budget.RecordID(id),
			Kind:       kind,
			Category:   r.Category,
			Amount:     amount,
			OccurredAt: at,
			Notes:      r.Notes,
		}
		if err := budget.ValidateRecord(rec); err != nil {
			return nil, fmt.Errorf("record %d: %w", i+1, err)
		}
		records = append(records, rec)
	}
	return records, nil
}

// Plans converts and validates the budget plans.
func (in *Input) Plans() ([]budget.BudgetPlan, error) {
	plans := make([]budget.BudgetPlan, 0, len(in.Budgets))
	for _, b := range in.Budgets {
		expected, err := budget.ParseAmount(b.ExpectedTotalCost)
		if err != nil {
			return nil, fmt.Errorf("budget %d-%02d: expected_total_cost: %w", b.Year, b.Month, err)
		}
		plan := budget.BudgetPlan{
			Year:              b.Year,
			Month:             time.Month(b.Month),
			ExpectedTotalCost: expected,
			CategoryLimits:    make(map[string]decimal.Decimal, len(b.CategoryLimits)),
		}
		for category, raw := range b.CategoryLimits {
			if strings.TrimSpace(raw) == "" {
				plan.CategoryLimits[category] = decimal.Zero
				continue
			}
			limit, err := budget.ParseAmount(raw)
			if err != nil {
				return nil, fmt.Errorf("budget %d-%02d: limit %s: %w", b.Year, b.Month, category, err)
			}
			plan.CategoryLimits[category] = limit
		}
		if err := plan.Validate(); err != nil {
			return nil, fmt.Errorf("budget %d-%02d: %w", b.Year, b.Month, err)
		}
		plans = append(plans, plan)
	}
	return plans, nil
}

// Store loads the input into an in-memory store.
func (in *Input) Store() (*store.Memory, error) {
	records, err := in.TransactionRecords()
	if err != nil {
		return nil, err
	}
	plans, err := in.Plans()
	if err != nil {
		return nil, err
	}
	return store.NewMemoryFrom(records, plans...), nil
}
