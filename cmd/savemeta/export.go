package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func newExportCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export <path|->",
		Short: "Write a copy of the metadata record",
		Long: `Export writes the current metadata record to path, or to stdout when path is
"-". A path ending in .zst is written zstd-compressed.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := opts.openSession(cmd)
			if err != nil {
				return err
			}
			defer func() {
				_ = session.Close()
			}()

			if args[0] == "-" {
				data, err := json.MarshalIndent(session.Store.Metadata(), "", "  ")
				if err != nil {
					return fmt.Errorf("failed to encode metadata: %w", err)
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
				return err
			}

			if err := session.Store.Export(args[0]); err != nil {
				return fmt.Errorf("failed to export metadata: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %s to %s\n", session.Store.Path(), args[0])
			return nil
		},
	}

	return cmd
}
