package cli

import (
	"fmt"
	"time"

	"hitcapsule/internal/services"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func newBackfillCommand(opts *rootOptions) *cobra.Command {
	var (
		from, to string
		step     int
		interval time.Duration
	)

	cmd := &cobra.Command{
		Use:   "backfill",
		Short: "Archive every weekly chart in a date range",
		Long: `Scrape and archive the charts between --from and --to so later
playlist builds read them from the archive. Dates already archived are skipped.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			now := time.Now()
			if err := services.ValidateChartDate(from, now); err != nil {
				return err
			}
			if to == "" {
				to = now.Format(time.DateOnly)
			} else if err := services.ValidateChartDate(to, now); err != nil {
				return err
			}
			start, _ := time.Parse(time.DateOnly, from)
			end, _ := time.Parse(time.DateOnly, to)

			out := cmd.OutOrStdout()
			yellow := color.New(color.FgYellow)
			backfiller := services.NewChartBackfiller(opts.app.Billboard, opts.app.Charts)
			report, err := backfiller.Run(cmd.Context(), services.BackfillOptions{
				From:     start,
				To:       end,
				StepDays: step,
				Interval: interval,
			}, func(date, status string) {
				if status == services.BackfillFailed {
					fmt.Fprintf(out, "%s %s\n", date, yellow.Sprint(status))
					return
				}
				fmt.Fprintf(out, "%s %s\n", date, status)
			})
			if err != nil {
				return err
			}

			fmt.Fprintf(out, "\narchived %d, skipped %d, failed %d\n", report.Archived, report.Skipped, report.Failed)
			return nil
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "first chart date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&to, "to", "", "last chart date (defaults to today)")
	cmd.Flags().IntVar(&step, "step", 7, "days between charts")
	cmd.Flags().DurationVar(&interval, "interval", 2*time.Second, "pause between page fetches")
	_ = cmd.MarkFlagRequired("from")
	return cmd
}
