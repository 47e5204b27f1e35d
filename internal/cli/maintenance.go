package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"memberreports/internal/app"
	"memberreports/internal/auth"
	"memberreports/internal/config"
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Delete expired generated files and their ledger entries",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			n, err := a.Ledger.Sweep(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed %d expired files\n", n)
			return nil
		})
	},
}

var tokenTTL time.Duration

var tokenCmd = &cobra.Command{
	Use:   "token <subject>",
	Short: "Mint a staff access token for the api",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Load()
		ttl := cfg.AccessTTL
		if tokenTTL > 0 {
			ttl = tokenTTL
		}
		pair, err := auth.Issue(args[0], auth.RoleStaff, cfg.JWTIssuer, cfg.JWTSigningKey, ttl, cfg.RefreshTTL)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), pair.AccessToken)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(sweepCmd, tokenCmd)
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 0, "Token lifetime (default ACCESS_TTL)")
}
