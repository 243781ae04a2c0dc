package cli

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"hitcapsule/internal/handlers/render"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func newChartCommand(opts *rootOptions) *cobra.Command {
	var (
		date   string
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "chart",
		Short: "Print the Billboard Hot 100 for a date",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc := opts.app.ChartReader()
			chart, err := svc.Chart(cmd.Context(), date)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(render.NewChartResponse(chart))
			}

			bold := color.New(color.Bold)
			fmt.Fprintf(out, "%s %s\n\n", bold.Sprint("Billboard Hot 100"), chart.Date)
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			for _, e := range chart.Entries {
				fmt.Fprintf(tw, "%3d\t%s\t%s\n", e.Rank, e.Title, e.Artist)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().StringVarP(&date, "date", "d", "", "chart date (YYYY-MM-DD)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	_ = cmd.MarkFlagRequired("date")
	return cmd
}
