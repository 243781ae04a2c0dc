package cli

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func newLoginCommand(opts *rootOptions) *cobra.Command {
	var uploadCover bool

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Authorize hitcapsule with Spotify and cache the token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			authenticator, err := opts.app.Authenticator(uploadCover)
			if err != nil {
				return err
			}
			if _, err := authenticator.Login(cmd.Context(), promptTo(cmd)); err != nil {
				return err
			}
			session, err := authenticator.Session(cmd.Context())
			if err != nil {
				return err
			}

			green := color.New(color.FgGreen, color.Bold)
			fmt.Fprintf(cmd.OutOrStdout(), "%s as %s\n", green.Sprint("Logged in"), displayName(session.DisplayName, session.UserID))
			return nil
		},
	}

	cmd.Flags().BoolVar(&uploadCover, "cover", false, "also request the image upload scope")
	return cmd
}

// promptTo prints the consent URL for the user to open
func promptTo(cmd *cobra.Command) func(string) {
	return func(authURL string) {
		cyan := color.New(color.FgCyan)
		fmt.Fprintln(cmd.OutOrStdout(), "Open this URL in your browser to authorize hitcapsule:")
		fmt.Fprintln(cmd.OutOrStdout(), cyan.Sprint(authURL))
	}
}

func displayName(name, id string) string {
	if name != "" {
		return name
	}
	return id
}
