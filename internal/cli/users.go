package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	errInvalidLogin    = errors.New("invalid email/phone or password")
	errUnknownIdentity = errors.New("email/phone not found")
)

func newUsersCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Manage stored accounts",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "register <identifier> <password>",
			Short: "Add an account; an existing identifier is left unchanged",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				creds, err := a.openCredentials(cmd.Context())
				if err != nil {
					return err
				}
				defer creds.Close()

				if err := creds.Register(cmd.Context(), args[0], args[1]); err != nil {
					return err
				}
				printf(cmd.OutOrStdout(), "registered %s\n", args[0])
				return nil
			},
		},
		&cobra.Command{
			Use:   "check <identifier> <password>",
			Short: "Verify a password",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				creds, err := a.openCredentials(cmd.Context())
				if err != nil {
					return err
				}
				defer creds.Close()

				ok, err := creds.Authenticate(cmd.Context(), args[0], args[1])
				if err != nil {
					return err
				}
				if !ok {
					return errInvalidLogin
				}
				printf(cmd.OutOrStdout(), "ok\n")
				return nil
			},
		},
		&cobra.Command{
			Use:   "lookup <identifier>",
			Short: "Print the stored password",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				creds, err := a.openCredentials(cmd.Context())
				if err != nil {
					return err
				}
				defer creds.Close()

				password, found, err := creds.LookupPassword(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if !found {
					return fmt.Errorf("%w: %s", errUnknownIdentity, args[0])
				}
				printf(cmd.OutOrStdout(), "%s\n", password)
				return nil
			},
		},
		&cobra.Command{
			Use:   "list",
			Short: "List stored identifiers",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				creds, err := a.openCredentials(cmd.Context())
				if err != nil {
					return err
				}
				defer creds.Close()

				records, err := creds.Load(cmd.Context())
				if err != nil {
					return err
				}
				for _, r := range records {
					printf(cmd.OutOrStdout(), "%s\n", r.Identifier)
				}
				return nil
			},
		},
	)
	return cmd
}
