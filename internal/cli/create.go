package cli

import (
	"fmt"
	"io"
	"time"

	"hitcapsule/internal/services"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func newCreateCommand(opts *rootOptions) *cobra.Command {
	var req services.CapsuleRequest

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Build (or refresh) the playlist for a chart date",
		Example: `  hitcapsule create --date 1997-03-06
  hitcapsule create --date 1997-03-06 --blend-date 2003-11-14 --cover`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, _, err := opts.app.CapsuleService(cmd.Context(), req.UploadCover, promptTo(cmd))
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			result, err := svc.Create(cmd.Context(), req, progressPrinter(out))
			if err != nil {
				return err
			}
			printSummary(out, result)
			return nil
		},
	}

	cmd.Flags().StringVarP(&req.Date, "date", "d", "", "chart date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&req.SecondDate, "blend-date", "", "second chart date for a Bestie Blend")
	cmd.Flags().StringVarP(&req.Name, "name", "n", "", "playlist name (defaults to the chart date)")
	cmd.Flags().BoolVar(&req.Public, "public", false, "make the playlist public")
	cmd.Flags().BoolVar(&req.UploadCover, "cover", false, "render and upload a cover image")
	_ = cmd.MarkFlagRequired("date")
	return cmd
}

// progressPrinter redraws a single progress line
func progressPrinter(w io.Writer) services.ProgressFunc {
	return func(done, total int) {
		fmt.Fprintf(w, "\rMatching tracks %d/%d", done, total)
		if done == total {
			fmt.Fprintln(w)
		}
	}
}

func printSummary(w io.Writer, r *services.CapsuleResult) {
	green := color.New(color.FgGreen, color.Bold)
	yellow := color.New(color.FgYellow)
	cyan := color.New(color.FgCyan, color.Underline)
	badge := color.New(color.FgBlack, color.BgWhite)

	fmt.Fprintf(w, "\n%s %s\n", green.Sprint("✔"), r.Name)
	fmt.Fprintf(w, "  added:   %s\n", green.Sprint(r.Added))
	fmt.Fprintf(w, "  missing: %s\n", yellow.Sprint(r.Missing))
	fmt.Fprintf(w, "  time:    %s\n", r.Duration.Round(100*time.Millisecond))
	fmt.Fprintf(w, "  url:     %s\n", cyan.Sprint(r.URL))

	var badges []string
	if r.CreatedNew {
		badges = append(badges, "NEW")
	} else {
		badges = append(badges, "UPDATED")
	}
	if r.Uploaded {
		badges = append(badges, "COVER")
	}
	if r.PosterPath != "" {
		badges = append(badges, "POSTER")
	}
	fmt.Fprint(w, " ")
	for _, b := range badges {
		fmt.Fprintf(w, " %s", badge.Sprintf(" %s ", b))
	}
	fmt.Fprintln(w)

	if r.PosterPath != "" {
		fmt.Fprintf(w, "  poster:  %s\n", r.PosterPath)
	}
	for _, e := range r.MissingEntries {
		fmt.Fprintf(w, "  %s #%d %s - %s\n", yellow.Sprint("not found"), e.Rank, e.Title, e.Artist)
	}
}
