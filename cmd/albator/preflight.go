package main

import (
	"context"
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/albator-sec/albator/internal/preflight"
)

func newPreflightCmd(root *rootFlags) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "preflight",
		Short: "Check run preconditions for every registered provider",
		RunE: func(cmd *cobra.Command, args []string) error {
			tools := make([]string, 0)
			seen := make(map[string]struct{})
			for _, name := range getAppRegistry().Names() {
				prov, err := getAppRegistry().Get(name)
				if err != nil {
					return err
				}
				for _, tool := range prov.RequiredTools() {
					if _, dup := seen[tool]; dup {
						continue
					}
					seen[tool] = struct{}{}
					tools = append(tools, tool)
				}
			}

			summary := preflight.Run(context.Background(), preflight.Options{
				RequiredTools: tools,
				RequireRoot:   runtime.GOOS == "darwin",
			})

			if jsonOut {
				out, err := summary.JSON()
				if err != nil {
					return err
				}
				fmt.Fprintln(os.Stdout, out)
			} else {
				fmt.Fprintln(os.Stdout, summary.Format())
			}

			if !summary.Passed {
				return &exitError{code: 1}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit the preflight summary as JSON")

	return cmd
}
