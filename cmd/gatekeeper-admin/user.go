package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/prn-tf/gatekeeper/internal/app"
	"github.com/prn-tf/gatekeeper/internal/domain"
)

func newUserCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage users",
	}
	cmd.AddCommand(newUserCreateCmd(), newUserResetPasswordCmd(), newUserListCmd())
	return cmd
}

func newUserCreateCmd() *cobra.Command {
	var username, password, role string

	cmd := &cobra.Command{
		Use:     "create",
		Short:   "Create a user",
		Example: "  gatekeeper-admin user create --username root --password 'Adm1n!Secret' --role admin",
		RunE: withApp(func(cmd *cobra.Command, _ []string, a *app.App) error {
			user, err := a.Accounts.CreateAccount(cmd.Context(), username, password, domain.Role(role))
			if err != nil {
				return err
			}
			cmd.Printf("created user %s (%s) with id %s\n", user.Username, user.Role, user.ID)
			return nil
		}),
	}

	cmd.Flags().StringVar(&username, "username", "", "username")
	cmd.Flags().StringVar(&password, "password", "", "initial password")
	cmd.Flags().StringVar(&role, "role", string(domain.RoleUser), "role: admin, poweruser or user")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("password")

	return cmd
}

func newUserResetPasswordCmd() *cobra.Command {
	var username, password string

	cmd := &cobra.Command{
		Use:   "reset-password",
		Short: "Set a new password without the old one and unblock the account",
		RunE: withApp(func(cmd *cobra.Command, _ []string, a *app.App) error {
			if err := a.Accounts.ChangePassword(cmd.Context(), username, "", password, true); err != nil {
				return err
			}
			cmd.Printf("password of %s reset\n", domain.NormalizeUsername(username))
			return nil
		}),
	}

	cmd.Flags().StringVar(&username, "username", "", "username")
	cmd.Flags().StringVar(&password, "password", "", "new password")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("password")

	return cmd
}

func newUserListCmd() *cobra.Command {
	var role string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List users with a role",
		RunE: withApp(func(cmd *cobra.Command, _ []string, a *app.App) error {
			users, err := a.Accounts.ListByRole(cmd.Context(), domain.Role(role))
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tUSERNAME\tROLE\tFAILED\tBLOCKED\tPASSWORD EXPIRES")
			for _, u := range users {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%t\t%s\n",
					u.ID, u.Username, u.Role, u.FailedAttempts, u.Blocked, u.PasswordExpireTime.Format("2006-01-02 15:04"))
			}
			return tw.Flush()
		}),
	}

	cmd.Flags().StringVar(&role, "role", string(domain.RoleUser), "role: admin, poweruser or user")

	return cmd
}
