package main

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/choplin/savemeta/internal/application"
)

func newUnregisterCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "unregister <file>...",
		Short: "Stop tracking files without touching them on disk",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := opts.openSession(cmd)
			if err != nil {
				return err
			}
			defer func() {
				_ = session.Close()
			}()

			removed, err := application.UnregisterFiles(session.Store, args)
			if err != nil {
				return err
			}

			for _, name := range args {
				if slices.Contains(removed, name) {
					fmt.Fprintf(cmd.OutOrStdout(), "Stopped tracking %s\n", name)
				} else {
					fmt.Fprintf(cmd.OutOrStdout(), "%s was not tracked\n", name)
				}
			}
			return nil
		},
	}

	return cmd
}
