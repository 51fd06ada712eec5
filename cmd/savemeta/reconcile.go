package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func newReconcileCmd(opts *globalOptions) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Forget tracked files that no longer exist",
		Long: `Reconcile lists the save directory and removes the entries of tracked files
that are gone. Untracked files on disk are never added.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := validateFormat(format); err != nil {
				return err
			}

			session, err := opts.openSession(cmd)
			if err != nil {
				return err
			}
			defer func() {
				_ = session.Close()
			}()

			outcome, err := session.Reconcile(context.Background())
			if err != nil {
				return err
			}

			if format == "json" {
				return outputJSON(cmd, outcome)
			}

			out := cmd.OutOrStdout()
			for _, name := range outcome.Removed {
				fmt.Fprintf(out, "Removed %s\n", name)
			}
			fmt.Fprintf(out, "%d orphaned entr%s removed\n", len(outcome.Removed), pluralY(len(outcome.Removed)))
			if outcome.RunID != "" {
				fmt.Fprintf(out, "Run: %s\n", outcome.RunID)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&format, "format", "table", "Output format: table or json")

	return cmd
}

func pluralY(n int) string {
	if n == 1 {
		return "y"
	}
	return "ies"
}
