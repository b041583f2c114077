// Command callctl drives the callbook pipeline from the shell: ingest
// documents, process the pending queue, search the question corpus and
// print corpus statistics. It talks to the same database, storage and AI
// providers as the server.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/JaimeStill/callbook/internal/api"
	"github.com/JaimeStill/callbook/internal/config"
	"github.com/JaimeStill/callbook/internal/infrastructure"
)

type app struct {
	cfg    *config.Config
	infra  *infrastructure.Infrastructure
	domain *api.Domain
}

var (
	current *app
	noColor bool
)

var rootCmd = &cobra.Command{
	Use:           "callctl",
	Short:         "Operate the callbook question corpus",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if noColor {
			color.NoColor = true
		}

		a, err := open()
		if err != nil {
			return err
		}
		current = a
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if current == nil {
			return nil
		}
		a := current
		current = nil
		return a.infra.Lifecycle.Shutdown(a.cfg.ShutdownTimeoutDuration())
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")
}

func open() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("config load failed: %w", err)
	}

	infra, err := infrastructure.New(cfg)
	if err != nil {
		return nil, err
	}

	domain, err := api.NewDomain(api.NewRuntime(cfg, infra))
	if err != nil {
		return nil, err
	}

	if err := infra.Start(); err != nil {
		return nil, err
	}
	if err := infra.Lifecycle.WaitForStartup(); err != nil {
		infra.Logger.Warn("startup incomplete", "error", err)
	}

	if err := infra.Database.Ping(infra.Lifecycle.Context()); err != nil {
		infra.Lifecycle.Shutdown(5 * time.Second)
		return nil, fmt.Errorf("database unavailable: %w", err)
	}

	return &app{cfg: cfg, infra: infra, domain: domain}, nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		red := color.New(color.FgRed).SprintFunc()
		fmt.Fprintf(os.Stderr, "%s %v\n", red("Error:"), err)
		if current != nil {
			current.infra.Lifecycle.Shutdown(current.cfg.ShutdownTimeoutDuration())
		}
		stop()
		os.Exit(1)
	}
}
