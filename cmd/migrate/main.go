package main

import (
	"database/sql"
	"fmt"
	"os"
	"strconv"

	_ "github.com/lib/pq"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/retailpos/backend/internal/infrastructure/config"
	"github.com/retailpos/backend/internal/infrastructure/logger"
	"github.com/retailpos/backend/internal/infrastructure/migration"
	"github.com/retailpos/backend/migrations"
)

const defaultMigrationsDir = "migrations"

type options struct {
	dir      string
	logLevel string
}

func main() {
	opts := &options{}
	root := &cobra.Command{
		Use:           "migrate",
		Short:         "Retail POS database migration tool",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.dir, "path", "", "read migrations from this directory instead of the embedded set")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(
		upCmd(opts),
		downCmd(opts),
		stepCmd(opts),
		gotoCmd(opts),
		versionCmd(opts),
		forceCmd(opts),
		dropCmd(opts),
		createCmd(),
		listCmd(opts),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// withMigrator opens the database and hands a ready Migrator to fn
func withMigrator(opts *options, fn func(*migration.Migrator) error) error {
	log, err := logger.New(&logger.Config{
		Level:      opts.logLevel,
		Format:     "console",
		Output:     "stdout",
		TimeFormat: "2006-01-02 15:04:05",
	})
	if err != nil {
		return fmt.Errorf("initialize logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}

	m, err := migration.New(db, migration.Source{Dir: opts.dir, FS: migrations.FS}, log)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := m.Close(); cerr != nil {
			log.Warn("Failed to close migrator", zap.Error(cerr))
		}
	}()
	return fn(m)
}

func upCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withMigrator(opts, func(m *migration.Migrator) error { return m.Up() })
		},
	}
}

func downCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "down",
		Short: "Roll back all migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withMigrator(opts, func(m *migration.Migrator) error { return m.Down() })
		},
	}
}

func stepCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "step N",
		Short: "Apply N migrations (negative N rolls back)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := strconv.Atoi(args[0])
			if err != nil || n == 0 {
				return fmt.Errorf("invalid step count %q", args[0])
			}
			return withMigrator(opts, func(m *migration.Migrator) error { return m.Steps(n) })
		},
	}
}

func gotoCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "goto VERSION",
		Short: "Migrate up or down to VERSION",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := strconv.ParseUint(args[0], 10, 32)
			if err != nil {
				return fmt.Errorf("invalid version %q", args[0])
			}
			return withMigrator(opts, func(m *migration.Migrator) error { return m.GoTo(uint(v)) })
		},
	}
}

func versionCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the applied migration version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withMigrator(opts, func(m *migration.Migrator) error {
				v, dirty, err := m.Version()
				if err != nil {
					return err
				}
				if dirty {
					cmd.Printf("version %d (dirty)\n", v)
				} else {
					cmd.Printf("version %d\n", v)
				}
				return nil
			})
		},
	}
}

func forceCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "force VERSION",
		Short: "Set the version without running migrations",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid version %q", args[0])
			}
			return withMigrator(opts, func(m *migration.Migrator) error { return m.Force(v) })
		},
	}
}

func dropCmd(opts *options) *cobra.Command {
	var confirm bool
	cmd := &cobra.Command{
		Use:   "drop",
		Short: "Drop every table in the database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !confirm {
				return fmt.Errorf("drop destroys all data; rerun with --confirm")
			}
			return withMigrator(opts, func(m *migration.Migrator) error { return m.Drop() })
		},
	}
	cmd.Flags().BoolVar(&confirm, "confirm", false, "confirm dropping all data")
	return cmd
}

func createCmd() *cobra.Command {
	var (
		dir         string
		description string
	)
	cmd := &cobra.Command{
		Use:   "create NAME",
		Short: "Create a new up/down migration pair",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mf, err := migration.CreateMigration(dir, args[0], description)
			if err != nil {
				return err
			}
			cmd.Printf("Created migration %06d:\n  %s\n  %s\n", mf.Version, mf.UpPath, mf.DownPath)
			return nil
		},
	}
	cmd.Flags().StringVar(&dir, "dir", defaultMigrationsDir, "migrations directory")
	cmd.Flags().StringVarP(&description, "description", "d", "", "description written into the file header")
	return cmd
}

func listCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List available migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var (
				list []migration.MigrationEntry
				err  error
			)
			if opts.dir != "" {
				list, err = migration.ListMigrations(os.DirFS(opts.dir))
			} else {
				list, err = migration.ListMigrations(migrations.FS)
			}
			if err != nil {
				return err
			}
			if len(list) == 0 {
				cmd.Println("No migrations found")
				return nil
			}
			for _, m := range list {
				down := ""
				if !m.HasDown {
					down = " (no down)"
				}
				cmd.Printf("%06d  %s%s\n", m.Version, m.Name, down)
			}
			return nil
		},
	}
}
