package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	apimiddleware "scamshield/internal/api/middleware"
	"scamshield/internal/domain/models"
)

var tokenCmd = &cobra.Command{
	Use:   "token <user-id>",
	Short: "issue a bearer token signed with the configured JWT secret",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if err := cfg.JWT.Validate(); err != nil {
			return err
		}
		name, _ := cmd.Flags().GetString("name")
		role, _ := cmd.Flags().GetString("role")
		ttl, _ := cmd.Flags().GetDuration("ttl")

		actor := models.Actor{UserID: args[0], Name: name, Role: models.Role(role)}
		token, err := apimiddleware.IssueToken(actor, []byte(cfg.JWT.Secret), cfg.JWT.Issuer, ttl)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}

func init() {
	tokenCmd.Flags().String("name", "", "display name claim")
	tokenCmd.Flags().String("role", string(models.RoleUser), "role claim: user, expert or admin")
	tokenCmd.Flags().Duration("ttl", 24*time.Hour, "token lifetime")
}
