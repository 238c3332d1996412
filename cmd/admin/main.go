package main

import (
	"context"
	"fmt"
	"os"
	"time"

	_ "go.uber.org/automaxprocs"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"marketplace-api/internal/app"
	"marketplace-api/internal/core/config"
	"marketplace-api/internal/core/logger"
	"marketplace-api/internal/repo"
)

type env struct {
	cfg *config.Config
	log *zap.Logger
	db  *gorm.DB
}

// open loads config and connects; callers run cleanup when done.
func open(cmd *cobra.Command) (*env, func(), error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, nil, err
	}
	log, sync := logger.New(logger.FromConfig(cfg.Log))
	db, err := app.OpenDB(cfg, log)
	if err != nil {
		sync()
		return nil, nil, fmt.Errorf("db open: %w", err)
	}
	cleanup := func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
		sync()
	}
	return &env{cfg: cfg, log: log, db: db}, cleanup, nil
}

func withTimeout(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), 2*time.Minute)
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "migrate", Short: "Manage database schema migrations"}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, cleanup, err := open(cmd)
			if err != nil {
				return err
			}
			defer cleanup()
			ctx, cancel := withTimeout(cmd)
			defer cancel()
			applied, err := repo.NewMigrator(e.db).Up(ctx)
			if err != nil {
				return err
			}
			if len(applied) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No pending migrations.")
				return nil
			}
			for _, v := range applied {
				fmt.Fprintf(cmd.OutOrStdout(), "applied %s\n", v)
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Revert the last applied migration",
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, cleanup, err := open(cmd)
			if err != nil {
				return err
			}
			defer cleanup()
			ctx, cancel := withTimeout(cmd)
			defer cancel()
			v, err := repo.NewMigrator(e.db).Down(ctx)
			if err != nil {
				return err
			}
			if v == "" {
				fmt.Fprintln(cmd.OutOrStdout(), "Nothing to revert.")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "reverted %s\n", v)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "List applied and pending migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, cleanup, err := open(cmd)
			if err != nil {
				return err
			}
			defer cleanup()
			ctx, cancel := withTimeout(cmd)
			defer cancel()
			st, err := repo.NewMigrator(e.db).Status(ctx)
			if err != nil {
				return err
			}
			for _, s := range st {
				state := "pending"
				if s.Applied {
					state = "applied " + s.AppliedAt.Format(time.RFC3339)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s  %-40s %s\n", s.Version, s.Name, state)
			}
			return nil
		},
	})
	return cmd
}

func createAdminCmd() *cobra.Command {
	var name, email, password string
	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create an administrator account",
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, cleanup, err := open(cmd)
			if err != nil {
				return err
			}
			defer cleanup()
			a, err := app.New(e.cfg, e.log, e.db)
			if err != nil {
				return err
			}
			ctx, cancel := withTimeout(cmd)
			defer cancel()
			u, err := a.Auth.CreateAdmin(ctx, name, email, password)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "admin created: %s <%s>\n", u.ID, u.Email)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "Administrator", "display name")
	cmd.Flags().StringVar(&email, "email", "", "login email")
	cmd.Flags().StringVar(&password, "password", "", "login password (min 6 characters)")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func purgeTokensCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "purge-tokens",
		Short: "Delete expired and revoked refresh tokens past retention",
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, cleanup, err := open(cmd)
			if err != nil {
				return err
			}
			defer cleanup()
			a, err := app.New(e.cfg, e.log, e.db)
			if err != nil {
				return err
			}
			ctx, cancel := withTimeout(cmd)
			defer cancel()
			n, err := a.Auth.PurgeTokens(ctx, e.cfg.Jobs.TokenRetention())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %d refresh tokens\n", n)
			return nil
		},
	}
}

func main() {
	_ = godotenv.Load()

	root := &cobra.Command{
		Use:           "marketplace-admin",
		Short:         "Operations tool for the marketplace API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().String("config", os.Getenv("CONFIG_PATH"), "path to the YAML config file")
	root.AddCommand(migrateCmd(), createAdminCmd(), purgeTokensCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
