package main

import (
	"sync"

	"github.com/spf13/cobra"

	"github.com/albator-sec/albator/internal/provider"
)

type rootFlags struct {
	verbose bool
	dryRun  bool
	config  string
}

// exitError carries a specific process exit code out of a command runner.
type exitError struct {
	code int
	msg  string
}

func (e *exitError) Error() string {
	return e.msg
}

var (
	appRegistryMu sync.RWMutex
	appRegistry   *provider.Registry
)

func setAppRegistry(reg *provider.Registry) {
	appRegistryMu.Lock()
	defer appRegistryMu.Unlock()
	appRegistry = reg
}

func getAppRegistry() *provider.Registry {
	appRegistryMu.RLock()
	defer appRegistryMu.RUnlock()
	return appRegistry
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	cmd := &cobra.Command{
		Use:           "albator",
		Short:         "Albator hardens macOS with reversible, verified configuration changes",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cmd.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().BoolVar(&flags.dryRun, "dry-run", false, "Plan operations without making changes")
	cmd.PersistentFlags().StringVar(&flags.config, "config", "albator.yaml", "Path to configuration file")

	cmd.AddCommand(newHardenCmd(flags))
	cmd.AddCommand(newRollbackCmd(flags))
	cmd.AddCommand(newPreflightCmd(flags))
	cmd.AddCommand(newHistoryCmd(flags))
	cmd.AddCommand(newCleanupCmd(flags))
	cmd.AddCommand(newVersionCmd())

	return cmd
}
