package main

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/prn-tf/gatekeeper/internal/app"
	"github.com/prn-tf/gatekeeper/internal/pkg/crypto"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect password and auth settings",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Print the current settings documents",
			RunE: withApp(func(cmd *cobra.Command, _ []string, a *app.App) error {
				settings, err := a.Settings.All(cmd.Context())
				if err != nil {
					return err
				}
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(settings)
			}),
		},
		&cobra.Command{
			Use:   "seed",
			Short: "Store default settings documents that do not exist yet",
			RunE: withApp(func(cmd *cobra.Command, _ []string, a *app.App) error {
				if err := a.Settings.Seed(cmd.Context()); err != nil {
					return err
				}
				cmd.Println("settings seeded")
				return nil
			}),
		},
	)

	return cmd
}

func newSecretCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "secret",
		Short: "Manage the token signing secret",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "generate",
		Short: "Print a random secret for auth.token_secret",
		RunE: func(cmd *cobra.Command, _ []string) error {
			secret, err := crypto.GenerateTokenSecret()
			if err != nil {
				return err
			}
			cmd.Println(secret)
			return nil
		},
	})

	return cmd
}
