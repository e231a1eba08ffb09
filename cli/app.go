/*
Package cli implements budgetctl, the terminal front end of the engine.

PURPOSE:
  Runs the same period, report and budget computations as the dashboard,
  against either a local input file or a remote budget server.

SOURCES (exactly one):
  --input FILE   YAML, TOML or JSON file of records and plans (config.LoadInput)
  --server URL   Budget API base URL; --token sets the bearer token

COMMANDS:
  period <day|week|month>   Resolve a period, optionally stepping it
  report <day|week|month>   Summary, category shares and (months) budget
  budget                    Budget status for one month
  add <expense|income>      Create a record on the server

EXAMPLES:
  budgetctl period week --date 2024-03-13
  budgetctl report month --input ledger.yaml --export csv,pdf --dir out
  budgetctl budget --server http://localhost:8080 --month 3 --year 2024

SEE ALSO:
  - dashboard/controller.go: Fetch and evaluation
  - export/export.go: Report files
*/
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/fatih/color"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/pocketledger/budget-engine/budget"
	"github.com/pocketledger/budget-engine/client"
	"github.com/pocketledger/budget-engine/config"
)

// App is the budgetctl command tree.
type App struct {
	rootCmd *cobra.Command
	version string

	// Now supplies the default reference date.
	Now func() time.Time
}

// NewApp builds the command tree.
func NewApp(version string) *App {
	app := &App{version: version, Now: time.Now}

	rootCmd := &cobra.Command{
		Use:           "budgetctl",
		Short:         "Budget aggregation from the terminal",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			if noColor, _ := cmd.Flags().GetBool("no-color"); noColor {
				color.NoColor = true
				pterm.DisableStyling()
			}
		},
	}
	rootCmd.SetVersionTemplate(`{{printf "budgetctl version: %s\n" .Version}}`)

	rootCmd.PersistentFlags().StringP("input", "i", "", "Path to a TOML, YAML, or JSON file of records and budgets")
	rootCmd.PersistentFlags().StringP("server", "s", "", "Base URL of a budget server")
	rootCmd.PersistentFlags().String("token", "", "Bearer token for the budget server")
	rootCmd.PersistentFlags().Duration("timeout", 10*time.Second, "Request timeout for the budget server")
	rootCmd.PersistentFlags().Bool("no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Log fetch details to stderr")

	rootCmd.AddCommand(
		app.periodCommand(),
		app.reportCommand(),
		app.budgetCommand(),
		app.addCommand(),
	)

	app.rootCmd = rootCmd
	return app
}

// Execute runs the command line in os.Args.
func (app *App) Execute(ctx context.Context) error {
	return app.rootCmd.ExecuteContext(ctx)
}

// Run executes args with output redirected to out and err.
func (app *App) Run(ctx context.Context, args []string, out, errOut io.Writer) error {
	app.rootCmd.SetArgs(args)
	app.rootCmd.SetOut(out)
	app.rootCmd.SetErr(errOut)
	return app.rootCmd.ExecuteContext(ctx)
}

// =============================================================================
// SOURCES
// =============================================================================

var errNoSource = errors.New("one of --input or --server is required")

// source opens the record source named by the persistent flags.
func (app *App) source(cmd *cobra.Command) (budget.Source, error) {
	input, _ := cmd.Flags().GetString("input")
	server, _ := cmd.Flags().GetString("server")

	switch {
	case input != "" && server != "":
		return nil, errors.New("--input and --server are mutually exclusive")
	case input != "":
		in, err := config.LoadInput(input)
		if err != nil {
			return nil, err
		}
		return in.Store()
	case server != "":
		return app.remote(cmd)
	default:
		return nil, errNoSource
	}
}

func (app *App) remote(cmd *cobra.Command) (*client.Client, error) {
	server, _ := cmd.Flags().GetString("server")
	if server == "" {
		return nil, errors.New("--server is required")
	}
	token, _ := cmd.Flags().GetString("token")
	timeout, _ := cmd.Flags().GetDuration("timeout")
	return client.New(client.Config{BaseURL: server, Token: token, Timeout: timeout})
}

func (app *App) logger(cmd *cobra.Command) *slog.Logger {
	level := slog.LevelWarn
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
}

// reference reads --date, defaulting to today.
func (app *App) reference(cmd *cobra.Command) (time.Time, error) {
	date, _ := cmd.Flags().GetString("date")
	if date == "" {
		return app.Now(), nil
	}
	return budget.ParseDate(date)
}

// =============================================================================
// PERIOD
// =============================================================================

func (app *App) periodCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "period <day|week|month>",
		Short: "Resolve the period containing a date",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := app.resolve(cmd, args[0])
			if err != nil {
				return err
			}
			if step, _ := cmd.Flags().GetInt("step"); step != 0 {
				p = budget.Step(p, step)
			}
			return renderPeriod(cmd.OutOrStdout(), p)
		},
	}
	cmd.Flags().String("date", "", "Reference date YYYY-MM-DD (default: today)")
	cmd.Flags().Int("step", 0, "Move the period forward (positive) or back (negative)")
	return cmd
}

func (app *App) resolve(cmd *cobra.Command, granularity string) (budget.Period, error) {
	g, err := budget.ParseGranularity(granularity)
	if err != nil {
		return budget.Period{}, err
	}
	ref, err := app.reference(cmd)
	if err != nil {
		return budget.Period{}, err
	}
	return budget.Resolve(ref, g)
}

// =============================================================================
// ADD
// =============================================================================

func (app *App) addCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add <expense|income>",
		Short: "Create a record on the budget server",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := budget.ParseKind(args[0])
			if err != nil {
				return err
			}
			amountText, _ := cmd.Flags().GetString("amount")
			amount, err := budget.ParseAmount(amountText)
			if err != nil {
				return err
			}
			at, err := app.reference(cmd)
			if err != nil {
				return err
			}
			category, _ := cmd.Flags().GetString("category")
			notes, _ := cmd.Flags().GetString("notes")

			remote, err := app.remote(cmd)
			if err != nil {
				return err
			}
			rec, err := remote.AddRecord(cmd.Context(), budget.TransactionRecord{
				Kind:       kind,
				Category:   category,
				Amount:     amount,
				OccurredAt: at,
				Notes:      notes,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created %s %s: %s %s on %s\n",
				rec.Kind, rec.ID, budget.NormalizeCategory(rec.Category),
				money(rec.Amount), rec.OccurredAt.Format(budget.DateLayout))
			return nil
		},
	}
	cmd.Flags().String("category", "", "Category name")
	cmd.Flags().String("amount", "", "Amount, e.g. 12.50")
	cmd.Flags().String("date", "", "Date YYYY-MM-DD (default: today)")
	cmd.Flags().String("notes", "", "Free-form notes")
	_ = cmd.MarkFlagRequired("amount")
	return cmd
}
