package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newInfoCmd(opts *globalOptions) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "info <file>",
		Short: "Show the recorded metadata of a tracked file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
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

			entry, ok := session.Store.Entry(args[0])
			if !ok {
				return fmt.Errorf("file not tracked: %s", args[0])
			}

			if format == "json" {
				return outputJSON(cmd, toEntryOutput(entry))
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "File:          %s\n", entry.Filename)
			fmt.Fprintf(out, "Checksum:      %s (%s)\n", entry.Checksum, entry.ChecksumAlgorithm)
			fmt.Fprintf(out, "Size:          %s (%d bytes)\n", formatSize(entry.SizeBytes), entry.SizeBytes)
			fmt.Fprintf(out, "Created At:    %s\n", formatTime(entry.CreatedAt))
			fmt.Fprintf(out, "Modified At:   %s\n", formatTime(entry.LastModifiedAt))
			fmt.Fprintf(out, "Accessed At:   %s\n", formatOptionalTime(entry.LastAccessedAt))
			fmt.Fprintf(out, "Registrations: %d\n", entry.RegistrationCount)
			fmt.Fprintf(out, "Producer:      %s (level %d)\n", entry.ProducerVersion, entry.ProducerLevel)
			fmt.Fprintf(out, "Backup:        %t\n", entry.IsBackupVariant)

			return nil
		},
	}

	cmd.Flags().StringVar(&format, "format", "table", "Output format: table or json")

	return cmd
}
