package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/sjperalta/fintera-rentals/internal/middleware"
)

var tokenCmd = &cobra.Command{
	Use:     "token",
	Short:   "Issue an API access token signed with JWT_SECRET",
	Example: `  ledgerctl token --email ops@example.com --role accountant --ttl 12h`,
	RunE: func(cmd *cobra.Command, args []string) error {
		email, _ := cmd.Flags().GetString("email")
		role, _ := cmd.Flags().GetString("role")
		ttl, _ := cmd.Flags().GetDuration("ttl")

		if role != middleware.RoleAdmin && role != middleware.RoleAccountant {
			return fmt.Errorf("role must be %s or %s", middleware.RoleAdmin, middleware.RoleAccountant)
		}

		token, err := middleware.IssueToken(appConfig.JWTSecret, email, role, ttl)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(tokenCmd)

	tokenCmd.Flags().String("email", "", "Subject email recorded as the actor")
	tokenCmd.Flags().String("role", middleware.RoleAccountant, "admin or accountant")
	tokenCmd.Flags().Duration("ttl", 24*time.Hour, "Token lifetime")
	_ = tokenCmd.MarkFlagRequired("email")
}
