package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/albator-sec/albator/internal/config"
	"github.com/albator-sec/albator/internal/logger"
	"github.com/albator-sec/albator/internal/rollback"
)

type rollbackOptions struct {
	MetaPath   string
	ConfigPath string
	DryRun     bool
	Verbose    bool
}

var rollbackCmdRunner = runRollback

func newRollbackCmd(root *rootFlags) *cobra.Command {
	opts := rollbackOptions{}

	cmd := &cobra.Command{
		Use:   "rollback",
		Short: "Restore the prior values recorded in a finalized ledger",
		Long: `Rollback reads a finalized ledger file and re-applies each recorded prior
value in reverse application order. A failed entry is reported and the
remaining entries still run; exit code 1 means at least one entry could not
be restored.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.ConfigPath = root.config
			opts.DryRun = root.dryRun
			opts.Verbose = root.verbose

			return rollbackCmdRunner(opts)
		},
	}

	cmd.Flags().StringVar(&opts.MetaPath, "meta", "", "Path to the ledger file to roll back")
	cmd.MarkFlagRequired("meta") //nolint:errcheck

	return cmd
}

func runRollback(opts rollbackOptions) error {
	if _, err := os.Stat(opts.MetaPath); err != nil {
		return &exitError{code: 2, msg: fmt.Sprintf("ledger file not found: %s", opts.MetaPath)}
	}

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return err
	}

	level := cfg.LogLevel
	if opts.Verbose {
		level = "debug"
	}
	log, err := logger.New(logger.Options{Level: level, Format: cfg.LogFormat})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	executor := rollback.NewExecutor(getAppRegistry(), log, time.Duration(cfg.OperationTimeoutSeconds)*time.Second)
	summary, err := executor.Execute(ctx, opts.MetaPath, opts.DryRun)
	if err != nil {
		return err
	}

	fmt.Fprintln(os.Stdout, summary.Render())

	if code := summary.ExitCode(); code != 0 {
		return &exitError{code: code, msg: fmt.Sprintf("%d entries failed to restore", summary.Failed)}
	}
	return nil
}
