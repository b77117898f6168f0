package commands

import (
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jakechorley/guard-roster/pkg/core/partition"
	"github.com/jakechorley/guard-roster/pkg/core/premium"
	"github.com/jakechorley/guard-roster/pkg/core/services"
	"github.com/jakechorley/guard-roster/pkg/core/solver"
	"github.com/jakechorley/guard-roster/pkg/db"
	"github.com/jakechorley/guard-roster/pkg/filestore"
	"github.com/jakechorley/guard-roster/pkg/postgres"
)

const dateLayout = "2006-01-02"

// defaultRunDays is the length of the scheduling window when --end is not given
const defaultRunDays = 7

// OptimizeCmd creates the optimize command
func OptimizeCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "optimize",
		Short: "Assign guards to shifts for a date range",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			start, _ := cmd.Flags().GetString("start")
			end, _ := cmd.Flags().GetString("end")
			sites, _ := cmd.Flags().GetStringSlice("site")
			org, _ := cmd.Flags().GetString("org")
			input, _ := cmd.Flags().GetString("input")
			output, _ := cmd.Flags().GetString("output")
			dryRun, _ := cmd.Flags().GetBool("dry-run")
			strategy, _ := cmd.Flags().GetString("solver")

			loc := app.Cfg.Location()
			scope, err := parseScope(start, end, sites, org, loc, time.Now())
			if err != nil {
				return err
			}

			optCfg := app.Cfg.Optimizer
			if strategy != "" {
				optCfg.Solver = strategy
			}

			app.Logger.Debug("optimize command",
				zap.String("start", scope.StartDate.Format(dateLayout)),
				zap.String("end", scope.EndDate.Format(dateLayout)),
				zap.Strings("sites", scope.SiteIDs),
				zap.String("org", scope.OrgID),
				zap.String("input", input),
				zap.String("solver", optCfg.Solver),
				zap.Bool("dry_run", dryRun))

			store, closeStore, err := openStore(app, input, output)
			if err != nil {
				return err
			}
			defer closeStore()

			calc := premium.NewCalculator(optCfg.PremiumRates())
			optimizer, err := partition.New(optCfg.PartitionConfig(), calc, app.Logger)
			if err != nil {
				return fmt.Errorf("failed to create optimiser: %w", err)
			}

			result, err := services.OptimizeRoster(app.Ctx, store, optimizer, scope, app.Logger, dryRun)
			if err != nil {
				return err
			}

			printRosterResult(os.Stdout, result, loc)
			return nil
		},
	}

	cmd.Flags().String("start", "", "First shift date to roster, YYYY-MM-DD (default today)")
	cmd.Flags().String("end", "", "Last shift date to roster, YYYY-MM-DD (default start + 6 days)")
	cmd.Flags().StringSlice("site", nil, "Restrict to these site IDs (repeatable)")
	cmd.Flags().String("org", "", "Restrict to one organisation")
	cmd.Flags().String("input", "", "Read the problem from a YAML file instead of the database")
	cmd.Flags().String("output", "", "Directory to write roster YAML to when using --input")
	cmd.Flags().Bool("dry-run", false, "Run without saving the roster")
	cmd.Flags().String("solver", "", fmt.Sprintf("Override the configured solver (%s or %s)", solver.StrategyHungarian, solver.StrategyConstraint))

	return cmd
}

// openStore returns the file store when input is set and the postgres store otherwise
func openStore(app *AppContext, input, output string) (services.OptimizeRosterStore, func(), error) {
	loc := app.Cfg.Location()

	if input != "" {
		app.Logger.Info("Loading problem file", zap.String("path", input))
		store, err := filestore.Open(input, loc)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to load problem file: %w", err)
		}
		store.OutputDir = output
		return store, func() {}, nil
	}

	database, err := connect(app)
	if err != nil {
		return nil, nil, err
	}
	return database, database.Close, nil
}

func connect(app *AppContext) (*postgres.DB, error) {
	dbCfg := app.Cfg.Database
	if dbCfg.DSN == "" {
		return nil, fmt.Errorf("no database configured: set database.dsn or ROSTER_DATABASE_DSN, or pass --input")
	}

	app.Logger.Info("Connecting to database")
	database, err := postgres.NewDB(app.Ctx, dbCfg.DSN, dbCfg.MaxConns)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	database.SetLocation(app.Cfg.Location())
	app.Logger.Debug("Database connected successfully")
	return database, nil
}

// parseScope turns command flags into a run scope. Dates are calendar days in loc.
func parseScope(start, end string, sites []string, org string, loc *time.Location, now time.Time) (db.Scope, error) {
	scope := db.Scope{SiteIDs: sites, OrgID: org}

	if start == "" {
		y, m, d := now.In(loc).Date()
		scope.StartDate = time.Date(y, m, d, 0, 0, 0, 0, loc)
	} else {
		t, err := time.ParseInLocation(dateLayout, start, loc)
		if err != nil {
			return db.Scope{}, fmt.Errorf("invalid start date %q, expected YYYY-MM-DD: %w", start, err)
		}
		scope.StartDate = t
	}

	if end == "" {
		scope.EndDate = scope.StartDate.AddDate(0, 0, defaultRunDays-1)
	} else {
		t, err := time.ParseInLocation(dateLayout, end, loc)
		if err != nil {
			return db.Scope{}, fmt.Errorf("invalid end date %q, expected YYYY-MM-DD: %w", end, err)
		}
		scope.EndDate = t
	}

	if scope.EndDate.Before(scope.StartDate) {
		return db.Scope{}, fmt.Errorf("end date %s is before start date %s",
			scope.EndDate.Format(dateLayout), scope.StartDate.Format(dateLayout))
	}
	return scope, nil
}

func printRosterResult(w io.Writer, res *services.RosterResult, loc *time.Location) {
	summary := res.Summary

	fmt.Fprintf(w, "\nRoster status: %s\n", summary.Status)
	if res.Roster != nil {
		fmt.Fprintf(w, "Roster ID:     %s\n", res.Roster.ID)
	} else {
		fmt.Fprintf(w, "Roster ID:     (not saved)\n")
	}
	fmt.Fprintf(w, "Fill rate:     %.1f%% (%d/%d slots across %d shifts)\n",
		summary.FillRate*100, summary.FilledSlots, summary.TotalSlots, summary.TotalShifts)
	fmt.Fprintf(w, "Guards used:   %d\n", summary.EmployeesUsed)
	fmt.Fprintf(w, "Fairness:      %.3f\n\n", res.Result.FairnessScore)

	fmt.Fprintf(w, "Cost breakdown:\n")
	fmt.Fprintf(w, "  Regular pay:     %12s\n", summary.Cost.RegularPay.StringFixed(2))
	fmt.Fprintf(w, "  Overtime pay:    %12s\n", summary.Cost.OvertimePay.StringFixed(2))
	fmt.Fprintf(w, "  Night premium:   %12s\n", summary.Cost.NightPremium.StringFixed(2))
	fmt.Fprintf(w, "  Sunday uplift:   %12s\n", summary.Cost.SundayPremium.StringFixed(2))
	fmt.Fprintf(w, "  Holiday uplift:  %12s\n", summary.Cost.HolidayPremium.StringFixed(2))
	fmt.Fprintf(w, "  Travel:          %12s\n", summary.Cost.TravelReimbursement.StringFixed(2))
	fmt.Fprintf(w, "  Total:           %12s\n\n", res.Result.TotalCost.StringFixed(2))

	if len(res.Result.Assignments) > 0 {
		assignments := res.Result.Assignments
		order := make([]int, len(assignments))
		for i := range order {
			order[i] = i
		}
		sort.SliceStable(order, func(i, j int) bool {
			a, b := assignments[order[i]], assignments[order[j]]
			if !a.Interval.Start.Equal(b.Interval.Start) {
				return a.Interval.Start.Before(b.Interval.Start)
			}
			if a.ShiftID != b.ShiftID {
				return a.ShiftID < b.ShiftID
			}
			return a.EmployeeID < b.EmployeeID
		})

		fmt.Fprintf(w, "Assignments:\n")
		for _, i := range order {
			a := assignments[i]
			fmt.Fprintf(w, "  %s  %-14s %-14s %-20s %10s\n",
				a.Interval.Start.In(loc).Format("Mon 02 Jan 15:04"),
				a.ShiftID,
				a.EmployeeID,
				a.PremiumType,
				a.Pay.TotalCost.StringFixed(2))
		}
		fmt.Fprintln(w)
	}

	if len(summary.ComplianceFlags) > 0 {
		fmt.Fprintf(w, "Review:\n")
		for _, flag := range summary.ComplianceFlags {
			fmt.Fprintf(w, "  ! %s\n", flag)
		}
		fmt.Fprintln(w)
	}

	if len(res.Result.Partitions) > 1 {
		fmt.Fprintf(w, "Regions:\n")
		for _, p := range res.Result.Partitions {
			fmt.Fprintf(w, "  %-16s %-18s %3d assignments  %10s\n", p.Region, p.Status, p.Assignments, p.TotalCost.StringFixed(2))
		}
		fmt.Fprintln(w)
	}
}
