package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/abhisek/momentum/internal/api"
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue a development API token signed with MOMENTUM_JWT_SECRET",
	Long: `Issue a token for local development and testing. Production tokens
come from the account service, which is not part of this binary.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		name, _ := cmd.Flags().GetString("name")
		ttl, _ := cmd.Flags().GetDuration("ttl")

		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if err := cfg.RequireServer(); err != nil {
			return err
		}
		id := currentUser(cmd)
		if name == "" {
			name = id
		}
		tok, err := api.IssueToken(cfg.JWTSecret, id, name, ttl)
		if err != nil {
			return err
		}
		fmt.Println(tok)
		return nil
	},
}

func init() {
	tokenCmd.Flags().String("name", "", "Display name (default the user id)")
	tokenCmd.Flags().Duration("ttl", 24*time.Hour, "Token lifetime, 0 for no expiry")
}
