package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"student-dashboard/internal/provision"
)

type provisionOptions struct {
	email    string
	password string
}

// NewProvisionCommand creates the command that bootstraps the admin account.
func NewProvisionCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &provisionOptions{}

	cmd := &cobra.Command{
		Use:   "provision",
		Short: "Create the bootstrap admin account",
		Long: `Create the bootstrap admin account if it does not exist yet.

An existing account is left untouched, so the command is safe to run on
every deploy.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			backend, _, err := openBackend(rootOpts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer backend.Close()

			created, err := provision.EnsureAdmin(cmd.Context(), backend.Provider, opts.email, opts.password)
			if err != nil {
				return err
			}
			if created {
				fmt.Fprintf(cmd.OutOrStdout(), "admin created: %s\n", opts.email)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "admin already exists: %s\n", opts.email)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.email, "email", provision.DefaultAdminEmail, "admin email")
	cmd.Flags().StringVar(&opts.password, "password", provision.DefaultAdminPassword, "admin password")

	return cmd
}
