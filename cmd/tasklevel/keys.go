package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/dukerupert/tasklevel/internal/auth"
	"github.com/dukerupert/tasklevel/internal/push"
)

func vapidKeysCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "vapid-keys",
		Short: "Generate a VAPID key pair for web push",
		RunE: func(cmd *cobra.Command, args []string) error {
			pub, priv, err := push.GenerateVAPIDKeys()
			if err != nil {
				return fmt.Errorf("generate keys: %w", err)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "TASKLEVEL_VAPID_PUBLIC_KEY=%s\n", pub)
			fmt.Fprintf(out, "TASKLEVEL_VAPID_PRIVATE_KEY=%s\n", priv)
			return nil
		},
	}
}

func tokenCmd() *cobra.Command {
	var (
		username string
		email    string
		ttl      time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token [profile-id]",
		Short: "Issue a signed bearer token for local testing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if cfg.JWTSecret == "" {
				return fmt.Errorf("jwt_secret is required")
			}

			token, err := auth.NewVerifier(cfg.JWTSecret).Issue(auth.Session{
				ProfileID: args[0],
				Email:     email,
				Username:  username,
			}, ttl)
			if err != nil {
				return fmt.Errorf("issue token: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&username, "username", "", "user_name claim")
	cmd.Flags().StringVar(&email, "email", "", "email claim")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")
	return cmd
}
