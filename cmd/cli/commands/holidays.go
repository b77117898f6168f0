package commands

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jakechorley/guard-roster/pkg/core/premium"
)

// HolidaysCmd creates the holidays command
func HolidaysCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "holidays <year>",
		Short: "List the public holidays that attract the holiday premium in a year",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			year, err := strconv.Atoi(args[0])
			if err != nil || year < 1583 {
				return fmt.Errorf("year must be a Gregorian calendar year, got: %s", args[0])
			}

			app.Logger.Debug("holidays command", zap.Int("year", year))

			from := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
			to := time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC)
			printHolidays(os.Stdout, year, premium.HolidaysBetween(from, to))
			return nil
		},
	}
}

func printHolidays(w io.Writer, year int, holidays []premium.Holiday) {
	fmt.Fprintf(w, "\nPublic holidays %d:\n\n", year)
	for _, h := range holidays {
		fmt.Fprintf(w, "  %s  %-9s  %s\n", h.Date.Format(dateLayout), h.Date.Weekday(), h.Name)
	}
	fmt.Fprintln(w)
}
