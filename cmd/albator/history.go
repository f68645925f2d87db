package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"

	"github.com/albator-sec/albator/internal/config"
	"github.com/albator-sec/albator/internal/ledger"
)

// runEntry pairs a run directory with its loaded ledger.
type runEntry struct {
	Dir    string
	Ledger *ledger.File
}

func newHistoryCmd(root *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List finalized hardening runs available for rollback",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(root.config)
			if err != nil {
				return err
			}

			entries, err := listRuns(cfg.StateDir)
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No finalized runs found.")
				return nil
			}

			for _, entry := range entries {
				fmt.Fprintf(cmd.OutOrStdout(), "%s  script=%s  changes=%d  finished=%s\n",
					filepath.Join(entry.Dir, ledger.FileName),
					entry.Ledger.ScriptName,
					len(entry.Ledger.Changes),
					entry.Ledger.FinishedAt.Format("2006-01-02 15:04:05"))
			}
			return nil
		},
	}

	return cmd
}

// listRuns loads every finalized ledger under the state root, newest first.
// Run directories without a ledger were interrupted mid-run and offer no
// rollback; they are skipped.
func listRuns(stateRoot string) ([]runEntry, error) {
	dirEntries, err := os.ReadDir(stateRoot)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var runs []runEntry
	for _, entry := range dirEntries {
		if !entry.IsDir() {
			continue
		}
		dir := filepath.Join(stateRoot, entry.Name())
		file, err := ledger.Load(filepath.Join(dir, ledger.FileName))
		if err != nil {
			continue
		}
		runs = append(runs, runEntry{Dir: dir, Ledger: file})
	}

	sort.Slice(runs, func(i, j int) bool {
		return runs[i].Ledger.FinishedAt.After(runs[j].Ledger.FinishedAt)
	})
	return runs, nil
}
