/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/taskhub/apiserver/config"
	"github.com/taskhub/apiserver/internal/auth"
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Inspect tokens signed with the configured secret",
}

var tokenInspectCmd = &cobra.Command{
	Use:   "inspect <token>",
	Short: "Verify a token's signature and print its claims",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.LoadConfig()
		codec, err := auth.NewCodec([]byte(cfg.Auth.JWTSecret))
		if err != nil {
			return err
		}

		claims, err := codec.Decode(args[0])
		if err != nil {
			return err
		}

		out := map[string]any{
			"sub":        claims.Subject,
			"id":         claims.UserID,
			"roles":      claims.Roles,
			"expires_at": claims.ExpiresAt.UTC().Format(time.RFC3339),
			"expired":    !time.Now().Before(claims.ExpiresAt),
			"alg":        codec.Algorithm(),
		}
		if !claims.IssuedAt.IsZero() {
			out["issued_at"] = claims.IssuedAt.UTC().Format(time.RFC3339)
		}
		if len(claims.Custom) > 0 {
			out["custom"] = claims.Custom
		}

		data, err := json.MarshalIndent(out, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(tokenCmd)
	tokenCmd.AddCommand(tokenInspectCmd)
}
