// Command migrate applies the embedded callbook schema. The connection comes
// from --dsn or, when omitted, from the same config the server loads.
package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/fatih/color"
	"github.com/golang-migrate/migrate/v4"
	"github.com/spf13/cobra"

	"github.com/JaimeStill/callbook/internal/config"
	"github.com/JaimeStill/callbook/internal/migrations"
)

var (
	dsn      string
	migrator *migrate.Migrate
)

var rootCmd = &cobra.Command{
	Use:           "migrate",
	Short:         "Manage the callbook database schema",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if dsn == "" {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("config load failed: %w", err)
			}
			dsn = cfg.Database.Dsn()
		}

		m, err := migrations.New(dsn)
		if err != nil {
			return err
		}
		migrator = m
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if migrator == nil {
			return nil
		}
		srcErr, dbErr := migrator.Close()
		return errors.Join(srcErr, dbErr)
	},
}

var upCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all pending migrations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := ignoreNoChange(migrator.Up()); err != nil {
			return fmt.Errorf("apply migrations: %w", err)
		}
		return report()
	},
}

var downCmd = &cobra.Command{
	Use:   "down",
	Short: "Revert every migration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := ignoreNoChange(migrator.Down()); err != nil {
			return fmt.Errorf("revert migrations: %w", err)
		}
		return report()
	},
}

var stepsCmd = &cobra.Command{
	Use:   "steps <n>",
	Short: "Apply n migrations (negative reverts)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		n, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("steps must be an integer: %w", err)
		}
		if err := ignoreNoChange(migrator.Steps(n)); err != nil {
			return fmt.Errorf("step migrations: %w", err)
		}
		return report()
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the current schema version",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return report()
	},
}

var forceCmd = &cobra.Command{
	Use:   "force <version>",
	Short: "Mark the schema at version without running migrations",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		v, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("version must be an integer: %w", err)
		}
		if err := migrator.Force(v); err != nil {
			return fmt.Errorf("force version: %w", err)
		}
		return report()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dsn, "dsn", "", "Database URL (defaults to the configured database)")
	rootCmd.AddCommand(upCmd, downCmd, stepsCmd, versionCmd, forceCmd)
}

func ignoreNoChange(err error) error {
	if errors.Is(err, migrate.ErrNoChange) {
		return nil
	}
	return err
}

func report() error {
	v, dirty, err := migrator.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		fmt.Println("schema empty")
		return nil
	}
	if err != nil {
		return fmt.Errorf("read version: %w", err)
	}

	state := color.GreenString("clean")
	if dirty {
		state = color.YellowString("dirty")
	}
	fmt.Printf("schema version %d (%s)\n", v, state)
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%s %v\n", color.RedString("Error:"), err)
		os.Exit(1)
	}
}
