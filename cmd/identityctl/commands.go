// AngelaMos | 2026
// commands.go

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/carterperez-dev/identity-service/internal/config"
	"github.com/carterperez-dev/identity-service/internal/core"
	"github.com/carterperez-dev/identity-service/internal/permission"
	"github.com/carterperez-dev/identity-service/internal/role"
	"github.com/carterperez-dev/identity-service/internal/seed"
	"github.com/carterperez-dev/identity-service/internal/user"
	"github.com/carterperez-dev/identity-service/migrations"
)

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "identityctl",
		Short:         "Operator commands for the identity service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "config.yaml", "path to config file")

	root.AddCommand(
		newMigrateCmd(&configPath),
		newSeedCmd(&configPath),
		newPermissionsCmd(),
	)

	return root
}

func newMigrateCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDatabase(cmd.Context(), *configPath, func(
				ctx context.Context, _ *config.Config, db *core.Database, logger *slog.Logger,
			) error {
				ran, err := migrations.Apply(ctx, db.DB, migrations.FS, logger)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "applied %d migration(s)\n", len(ran))
				return nil
			})
		},
	}
}

func newSeedCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Create the built-in roles, their permissions and the default accounts",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDatabase(cmd.Context(), *configPath, func(
				ctx context.Context, cfg *config.Config, db *core.Database, logger *slog.Logger,
			) error {
				s := seed.New(
					role.NewRepository(db.DB),
					user.NewRepository(db.DB),
					cfg.Seed,
					logger,
				)
				report, err := s.Run(ctx)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "roles created:  %v\n", report.RolesCreated)
				fmt.Fprintf(out, "claims added:   %d\n", report.ClaimsAdded)
				fmt.Fprintf(out, "users created:  %v\n", report.UsersCreated)
				return nil
			})
		},
	}
}

func newPermissionsCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "permissions",
		Short: "List the permission catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			return printPermissions(cmd.OutOrStdout(), format, permission.All())
		},
	}
	cmd.Flags().StringVar(&format, "out", "text", "output format: json|text")

	return cmd
}

func printPermissions(w io.Writer, format string, entries []permission.Entry) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	case "text":
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "NAME\tGROUP\tDESCRIPTION")
		for _, e := range entries {
			fmt.Fprintf(tw, "%s\t%s\t%s\n", e.Name, e.Group, e.Description)
		}
		return tw.Flush()
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}

type dbCommand func(
	ctx context.Context,
	cfg *config.Config,
	db *core.Database,
	logger *slog.Logger,
) error

func withDatabase(ctx context.Context, configPath string, fn dbCommand) error {
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	db, err := core.NewDatabase(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("database close error", "error", err)
		}
	}()

	return fn(ctx, cfg, db, logger)
}
