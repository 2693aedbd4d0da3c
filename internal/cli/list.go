package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"student-dashboard/internal/records"
)

// NewListCommand creates the command that prints the stored students.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List student records",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			backend, logger, err := openBackend(rootOpts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer backend.Close()

			ctrl := records.NewController(backend.Students, records.WithLogger(logger))
			if err := ctrl.Refresh(cmd.Context()); err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tCLASS\tSECTION\tROLL")
			for _, rec := range ctrl.Records() {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", rec.ID, rec.Name, rec.Class, rec.Section, rec.RollNumber)
			}
			return w.Flush()
		},
	}

	return cmd
}
