package main

import (
	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for the authd CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "authd",
		Short: "MotoConnect credential and session token service",
		Long: `authd registers identities, verifies credentials and issues signed
session tokens. All settings are read from the environment.`,
		SilenceUsage: true,
	}

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewHashPasswordCmd())

	return cmd
}
