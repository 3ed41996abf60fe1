package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ims-sentinel/sentineld/internal/adminapi"
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Manage admin API bearer tokens",
}

var tokenIssueCmd = &cobra.Command{
	Use:   "issue <subject>",
	Short: "Mint a bearer token for the admin API",
	Long: `issue signs a bearer token for subject using
SENTINEL_ADMIN_JWT_SECRET, without going through the /api/v1/login
passphrase flow. Useful for scripted dashboards and CI.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		secret := os.Getenv("SENTINEL_ADMIN_JWT_SECRET")
		if secret == "" {
			return fmt.Errorf("token issue: SENTINEL_ADMIN_JWT_SECRET is not set")
		}
		token, err := adminapi.IssueToken(secret, args[0])
		if err != nil {
			return fmt.Errorf("token issue: %w", err)
		}
		fmt.Println(token)
		return nil
	},
}

func init() {
	tokenCmd.AddCommand(tokenIssueCmd)
}
