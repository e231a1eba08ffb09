package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/pocketledger/budget-engine/budget"
	"github.com/pocketledger/budget-engine/dashboard"
	"github.com/pocketledger/budget-engine/export"
)

// =============================================================================
// REPORT
// =============================================================================

func (app *App) reportCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report <day|week|month>",
		Short: "Show income, expenses and budget status for a period",
		Args:  cobra.ExactArgs(1),
		RunE:  app.runReport,
	}
	cmd.Flags().String("date", "", "Reference date YYYY-MM-DD (default: today)")
	cmd.Flags().Int("step", 0, "Move the period forward (positive) or back (negative)")
	cmd.Flags().StringSliceP("export", "y", nil, "Also write report files: csv, json, pdf, xlsx")
	cmd.Flags().StringP("dir", "d", "", "Directory to save the report files (default: current directory)")
	cmd.Flags().StringP("name", "n", "", "Base name for the report files (without extension)")
	return cmd
}

func (app *App) runReport(cmd *cobra.Command, args []string) error {
	p, err := app.resolve(cmd, args[0])
	if err != nil {
		return err
	}
	if step, _ := cmd.Flags().GetInt("step"); step != 0 {
		p = budget.Step(p, step)
	}

	formatNames, _ := cmd.Flags().GetStringSlice("export")
	formats, err := export.ParseFormats(formatNames)
	if err != nil {
		return err
	}

	source, err := app.source(cmd)
	if err != nil {
		return err
	}

	view, err := dashboard.New(source, p, app.logger(cmd)).Refresh(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to load %s: %w", p.Label, err)
	}

	out := cmd.OutOrStdout()
	if err := renderReport(out, view.Report); err != nil {
		return err
	}
	if view.PlanErr != nil {
		fmt.Fprintln(out, pterm.Warning.Sprintf("Budget plan ignored: %v", view.PlanErr))
	}
	if view.HasPlan() {
		if err := renderBudget(out, *view.Overview); err != nil {
			return err
		}
	}

	if len(formats) == 0 {
		return nil
	}
	dir, err := exportDir(cmd)
	if err != nil {
		return err
	}
	name, _ := cmd.Flags().GetString("name")
	paths, err := export.Files(dir, name, formats, export.Document{Report: view.Report, Overview: view.Overview})
	if err != nil {
		return err
	}
	for _, path := range paths {
		fmt.Fprintln(out, pterm.Success.Sprintf("Report saved: %s", path))
	}
	return nil
}

func exportDir(cmd *cobra.Command) (string, error) {
	dir, _ := cmd.Flags().GetString("dir")
	if dir == "" {
		return os.Getwd()
	}
	return filepath.Abs(dir)
}

// =============================================================================
// BUDGET
// =============================================================================

func (app *App) budgetCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "budget",
		Short: "Show the budget status of a month",
		Args:  cobra.NoArgs,
		RunE:  app.runBudget,
	}
	cmd.Flags().Int("year", 0, "Year (default: current year)")
	cmd.Flags().Int("month", 0, "Month 1-12 (default: current month)")
	return cmd
}

func (app *App) runBudget(cmd *cobra.Command, _ []string) error {
	now := app.Now()
	year, _ := cmd.Flags().GetInt("year")
	month, _ := cmd.Flags().GetInt("month")
	if year == 0 {
		year = now.Year()
	}
	if month == 0 {
		month = int(now.Month())
	}

	p, err := budget.MonthPeriod(year, time.Month(month))
	if err != nil {
		return err
	}

	source, err := app.source(cmd)
	if err != nil {
		return err
	}

	view, err := dashboard.New(source, p, app.logger(cmd)).Refresh(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to load %s: %w", p.Label, err)
	}
	if view.PlanErr != nil {
		return fmt.Errorf("budget for %s is invalid: %w", p.Label, view.PlanErr)
	}
	if !view.HasPlan() {
		return fmt.Errorf("no budget for %s: %w", p.Label, budget.ErrBudgetNotFound)
	}
	return renderBudget(cmd.OutOrStdout(), *view.Overview)
}
