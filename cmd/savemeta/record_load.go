package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newRecordLoadCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "record-load <file>",
		Short: "Note that a file was loaded",
		Long: `Record-load stamps the file's last access time and bumps the load counter.
Unknown files still count as a load. Failures to persist are logged, not fatal.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := opts.openSession(cmd)
			if err != nil {
				return err
			}
			defer func() {
				_ = session.Close()
			}()

			session.Store.RecordLoad(args[0])
			fmt.Fprintf(cmd.OutOrStdout(), "Recorded load of %s\n", args[0])
			return nil
		},
	}

	return cmd
}
