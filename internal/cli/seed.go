package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"student-dashboard/internal/provision"
)

// NewSeedCommand creates the command that imports students from YAML.
func NewSeedCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed <file.yaml>",
		Short: "Import student records from a YAML file",
		Long: `Import student records from a YAML file of the form

  students:
    - name: Ann
      class: "10"
      rollNumber: "1"

Each record is validated like one added through the dashboard. The import
stops at the first invalid record.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("open seed file: %w", err)
			}
			defer f.Close()

			drafts, err := provision.LoadSeed(f)
			if err != nil {
				return err
			}

			backend, logger, err := openBackend(rootOpts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer backend.Close()

			n, err := provision.SeedStudents(cmd.Context(), backend.Students, drafts, provision.SeedOptions{Logger: logger})
			fmt.Fprintf(cmd.OutOrStdout(), "seeded %d of %d students\n", n, len(drafts))
			return err
		},
	}

	return cmd
}
