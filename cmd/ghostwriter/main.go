// Package main provides the ghostwriter binary: the REST API, the optional Slack bot
// and a few maintenance commands.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/shubh-37/ghostwriter/config"
	"github.com/shubh-37/ghostwriter/internal/auth"
	"github.com/shubh-37/ghostwriter/internal/database"
	"github.com/shubh-37/ghostwriter/internal/logger"
	"github.com/spf13/cobra"
)

const (
	Version = "0.2.0"
	appName = "ghostwriter"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           appName,
		Short:         "LinkedIn post generator that learns from engagement",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(serveCmd(), migrateCmd(), tokenCmd(), versionCmd())
	return cmd
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the REST API and, when configured, the Slack bot",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := setup()
			if err != nil {
				return err
			}
			defer log.Sync()

			return run(cmd.Context(), cfg, log)
		},
	}
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the database tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := setup()
			if err != nil {
				return err
			}
			defer log.Sync()

			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()

			db, err := database.NewDB(ctx, cfg.DatabaseURL, log)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := db.CreateTables(ctx); err != nil {
				return err
			}
			log.Info("schema ready")
			return nil
		},
	}
}

func tokenCmd() *cobra.Command {
	var ttl time.Duration

	cmd := &cobra.Command{
		Use:   "token <user-id> [email]",
		Short: "Issue an API token for a user",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig()
			if err != nil {
				return err
			}

			provider, err := auth.NewProvider(cfg.JWTSecret, ttl)
			if err != nil {
				return err
			}

			email := ""
			if len(args) == 2 {
				email = args[1]
			}
			token, err := provider.GenerateJWT(args[0], email)
			if err != nil {
				return fmt.Errorf("failed to issue token: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().DurationVar(&ttl, "ttl", 7*24*time.Hour, "Token lifetime")
	return cmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s version %s\n", appName, Version)
		},
	}
}

// setup loads and validates the configuration and builds the logger
func setup() (*config.Config, *logger.Logger, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("configuration error: %w", err)
	}

	log, err := logger.New(cfg.Environment)
	if err != nil {
		return nil, nil, err
	}
	return cfg, log, nil
}
