package cli

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/Bri-fat-sen/bfse-management-system-sub006/internal/domain/report"
	"github.com/Bri-fat-sen/bfse-management-system-sub006/internal/infrastructure/config"
	"github.com/spf13/cobra"
)

const nextRunLayout = "Mon 2006-01-02 15:04 MST"

type nextRunOptions struct {
	frequency  string
	at         string
	dayOfWeek  string
	dayOfMonth int
	from       string
	timezone   string
	count      int
}

func newNextRunCommand() *cobra.Command {
	var opts nextRunOptions

	cmd := &cobra.Command{
		Use:   "next-run",
		Short: "Print the upcoming run times of a delivery schedule",
		Example: `  reportctl next-run --frequency weekly --day-of-week friday --time 17:30
  reportctl next-run --frequency monthly --day-of-month 31 --from "2024-01-31 10:00" --count 3`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runNextRun(opts, time.Now(), cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&opts.frequency, "frequency", string(report.FrequencyDaily), "daily, weekly or monthly")
	cmd.Flags().StringVar(&opts.at, "time", "", "Time of day as HH:MM (default 08:00)")
	cmd.Flags().StringVar(&opts.dayOfWeek, "day-of-week", "", "Weekday for weekly schedules (default monday)")
	cmd.Flags().IntVar(&opts.dayOfMonth, "day-of-month", 0, "Day 1-31 for monthly schedules (default 1)")
	cmd.Flags().StringVar(&opts.from, "from", "", `Reference time as "yyyy-mm-dd hh:mm" or RFC 3339 (default now)`)
	cmd.Flags().StringVar(&opts.timezone, "tz", "", "IANA timezone (default local)")
	cmd.Flags().IntVar(&opts.count, "count", 1, "Number of runs to print")

	return cmd
}

func runNextRun(opts nextRunOptions, now time.Time, out io.Writer) error {
	if opts.count < 1 {
		return errors.New("count must be at least 1")
	}
	loc, err := config.AppConfig{Timezone: opts.timezone}.Location()
	if err != nil {
		return err
	}

	cur := now.In(loc)
	if opts.from != "" {
		if cur, err = parseReference(opts.from, loc); err != nil {
			return err
		}
	}

	schedule := report.Schedule{
		Frequency:  report.Frequency(opts.frequency),
		Time:       opts.at,
		DayOfWeek:  opts.dayOfWeek,
		DayOfMonth: opts.dayOfMonth,
	}
	if err := schedule.Validate(); err != nil {
		return err
	}

	for range opts.count {
		next, err := schedule.ComputeNextRun(cur)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintln(out, next.Format(nextRunLayout)); err != nil {
			return err
		}
		cur = next
	}
	return nil
}

func parseReference(value string, loc *time.Location) (time.Time, error) {
	if t, err := time.ParseInLocation("2006-01-02 15:04", value, loc); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --from %q: expected \"yyyy-mm-dd hh:mm\" or RFC 3339", value)
	}
	return t.In(loc), nil
}
