package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/albator-sec/albator/internal/config"
)

func newCleanupCmd(root *rootFlags) *cobra.Command {
	var keep int

	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Prune old run directories, keeping the most recent ones",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(root.config)
			if err != nil {
				return err
			}
			if keep <= 0 {
				keep = cfg.KeepRuns
			}

			runs, err := listRuns(cfg.StateDir)
			if err != nil {
				return err
			}
			if len(runs) <= keep {
				fmt.Fprintln(cmd.OutOrStdout(), "Nothing to remove.")
				return nil
			}

			removed := 0
			for _, run := range runs[keep:] {
				if root.dryRun {
					fmt.Fprintf(cmd.OutOrStdout(), "dry-run: would remove %s\n", run.Dir)
					continue
				}
				if err := os.RemoveAll(run.Dir); err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "failed to remove %s: %v\n", run.Dir, err)
					continue
				}
				removed++
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d old run(s).\n", removed)
			return nil
		},
	}

	cmd.Flags().IntVar(&keep, "keep", 0, "Number of runs to keep (defaults to keep_runs from config)")

	return cmd
}
