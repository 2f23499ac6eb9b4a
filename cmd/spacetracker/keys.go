package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/rpggio/spacetracker/internal/sqlite"
	"github.com/spf13/cobra"
)

var keysCmd = &cobra.Command{
	Use:   "keys",
	Short: "Manage API keys",
}

var (
	keyUser        string
	keyToken       string
	keyDescription string
)

var keysAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Register a bearer token for a user",
	Long: `Register a bearer token for a user in the backend database. A random
token is generated when --token is omitted. Only its SHA-256 hash is stored,
so save the printed token.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		db, err := openDB(cfg.DB.Path)
		if err != nil {
			return err
		}
		defer db.Close()

		token := keyToken
		if token == "" {
			token = uuid.NewString()
		}
		if err := sqlite.NewAPIKeyRepository(db).Add(cmd.Context(), token, keyUser, keyDescription); err != nil {
			return fmt.Errorf("adding key: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}

func init() {
	keysAddCmd.Flags().StringVar(&keyUser, "user", "", "User ID the token authenticates as")
	keysAddCmd.Flags().StringVar(&keyToken, "token", "", "Token to register (generated when empty)")
	keysAddCmd.Flags().StringVar(&keyDescription, "description", "", "Free-form note stored with the key")
	_ = keysAddCmd.MarkFlagRequired("user")
	keysCmd.AddCommand(keysAddCmd)
}
