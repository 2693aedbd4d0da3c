package cli

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"student-dashboard/internal/app"
	"student-dashboard/internal/config"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	// Environ replaces the process environment when non-nil.
	Environ map[string]string
}

// NewRootCommand creates the root command of the admin CLI.
func NewRootCommand() *cobra.Command {
	return NewRootCommandWithEnv(nil)
}

func NewRootCommandWithEnv(environ map[string]string) *cobra.Command {
	opts := &RootOptions{Environ: environ}

	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Student dashboard administration",
		Long: `Administrative tasks for the student dashboard that run outside the
web server: bootstrap accounts, import seed data and inspect records.

Configuration is read from the same environment variables as the server.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")

	cmd.AddCommand(NewProvisionCommand(opts))
	cmd.AddCommand(NewSeedCommand(opts))
	cmd.AddCommand(NewListCommand(opts))

	return cmd
}

// openBackend loads configuration and opens the store for one command run.
func openBackend(opts *RootOptions, errOut io.Writer) (*app.Backend, *slog.Logger, error) {
	cfg, err := config.LoadConfigFromEnv(opts.Environ)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	if opts.Verbose {
		cfg.LogLevel = "debug"
	}
	logger := app.NewLogger(cfg, errOut)

	backend, err := app.OpenBackend(cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	return backend, logger, nil
}
