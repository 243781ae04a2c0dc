// Package cli implements the hitcapsule command line.
package cli

import (
	"context"
	"fmt"
	"io"

	"hitcapsule/internal/config"
	"hitcapsule/internal/logging"

	"github.com/spf13/cobra"
)

type rootOptions struct {
	logLevel string
	verbose  bool

	app       *App
	logCloser io.Closer
}

// NewRootCommand builds the command tree. Resources opened by a command
// are released by Execute.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&rootOptions{})
}

func newRootCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "hitcapsule",
		Short:         "Turn a Billboard Hot 100 week into a Spotify playlist",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return opts.setup(cmd)
		},
	}

	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level (debug, info, warn, error); overrides LOG_LEVEL")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "shorthand for --log-level debug")

	cmd.AddCommand(
		newLoginCommand(opts),
		newChartCommand(opts),
		newCreateCommand(opts),
		newServeCommand(opts),
		newBackfillCommand(opts),
	)
	return cmd
}

func (o *rootOptions) setup(cmd *cobra.Command) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	level := cfg.LogLevel
	if o.logLevel != "" {
		level = o.logLevel
	}
	if o.verbose {
		level = "debug"
	}

	logger, closer := logging.Setup(logging.Config{
		Level:    level,
		Format:   cfg.LogFormat,
		FilePath: cfg.LogFile,
		Output:   cmd.ErrOrStderr(),
	})
	o.logCloser = closer

	app, err := NewApp(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	o.app = app
	return nil
}

func (o *rootOptions) teardown() {
	if o.app != nil {
		o.app.Close()
		o.app = nil
	}
	if o.logCloser != nil {
		_ = o.logCloser.Close()
		o.logCloser = nil
	}
}

// Execute runs the command tree with ctx
func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	opts := &rootOptions{}
	defer opts.teardown()

	cmd := newRootCommand(opts)
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	return cmd.ExecuteContext(ctx)
}
