/*
Package export writes period reports to files.

PURPOSE:
  Renders a budget.Report (and, for months, the evaluated plan) as CSV,
  JSON, PDF or XLSX for the CLI's --export flag.

FORMATS:
  csv:   One flat table; the first column names the section
  json:  The API's wire DTOs, indented
  pdf:   A4 portrait summary with category and budget tables
  xlsx:  One sheet per section

FILE NAMES:
  <dir>/<base>.<ext>; base defaults to "budget-report-<start>".
  Every writer takes an io.Writer, so tests never touch the disk.

SEE ALSO:
  - cli/report.go: --export flag
  - api/dto.go: JSON shapes
*/
package export

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pocketledger/budget-engine/budget"
)

// Format is an export file format.
type Format string

const (
	CSV  Format = "csv"
	JSON Format = "json"
	PDF  Format = "pdf"
	XLSX Format = "xlsx"
)

// ParseFormats parses a list such as ["csv", "PDF"]. Duplicates are dropped.
func ParseFormats(names []string) ([]Format, error) {
	var out []Format
	seen := make(map[Format]bool)
	for _, name := range names {
		f := Format(strings.ToLower(strings.TrimSpace(name)))
		switch f {
		case CSV, JSON, PDF, XLSX:
		case "":
			continue
		default:
			return nil, fmt.Errorf("unsupported export format %q (use csv, json, pdf or xlsx)", name)
		}
		if !seen[f] {
			seen[f] = true
			out = append(out, f)
		}
	}
	return out, nil
}

// Document is what gets exported.
type Document struct {
	Report budget.Report

	// Nil outside month periods or when no valid plan exists
	Overview *budget.BudgetOverview
}

// Write renders doc in the given format.
func Write(w io.Writer, f Format, doc Document) error {
	switch f {
	case CSV:
		return WriteCSV(w, doc)
	case JSON:
		return WriteJSON(w, doc)
	case PDF:
		return WritePDF(w, doc)
	case XLSX:
		return WriteXLSX(w, doc)
	default:
		return fmt.Errorf("unsupported export format %q", f)
	}
}

// Files writes doc once per format into dir and returns the absolute paths.
func Files(dir, base string, formats []Format, doc Document) ([]string, error) {
	if base == "" {
		base = "budget-report-" + doc.Report.Period.Start.Format(budget.DateLayout)
	}
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("error creating export directory: %w", err)
	}

	var paths []string
	for _, f := range formats {
		path, err := writeFile(filepath.Join(dir, base+"."+string(f)), f, doc)
		if err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func writeFile(name string, f Format, doc Document) (string, error) {
	file, err := os.Create(name)
	if err != nil {
		return "", fmt.Errorf("error creating %s file: %w", f, err)
	}
	if err := Write(file, f, doc); err != nil {
		file.Close()
		return "", fmt.Errorf("error writing %s file: %w", f, err)
	}
	if err := file.Close(); err != nil {
		return "", err
	}
	return filepath.Abs(name)
}
