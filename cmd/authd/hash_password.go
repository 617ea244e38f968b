package main

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/motoconnect/auth-service/internal/core/domain"
)

// NewHashPasswordCmd creates the hash-password subcommand. It reads a single
// line from stdin and prints the encoded hash, for seeding identities.
func NewHashPasswordCmd() *cobra.Command {
	var iterations int

	cmd := &cobra.Command{
		Use:   "hash-password",
		Short: "Hash a password read from stdin",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
			if err != nil && line == "" {
				return fmt.Errorf("read password: %w", err)
			}

			hash, err := domain.NewPasswordHashWithIterations(strings.TrimRight(line, "\r\n"), iterations)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), hash.Encoded())
			return err
		},
	}

	cmd.Flags().IntVar(&iterations, "iterations", domain.DefaultIterations, "PBKDF2 iteration count")

	return cmd
}
