package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/choplin/savemeta/internal/application"
)

func newRegisterCmd(opts *globalOptions) *cobra.Command {
	var (
		producerVersion string
		producerLevel   int
		size            int64
		format          string
	)

	cmd := &cobra.Command{
		Use:   "register <file>...",
		Short: "Record the checksum of files in the save directory",
		Long: `Register reads each named file from the save directory, records its checksum
and size, and persists the metadata record. Registering a tracked file again
refreshes its checksum and increments its registration count.`,
		Args: cobra.MinimumNArgs(1),
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

			input := application.RegisterInput{
				Filenames:       args,
				ProducerVersion: producerVersion,
				ProducerLevel:   producerLevel,
			}
			if cmd.Flags().Changed("size") {
				s := size
				input.SizeBytes = &s
			}

			entries, regErr := application.RegisterFiles(session.Store, input)

			if format == "json" {
				output := make([]entryOutput, 0, len(entries))
				for _, e := range entries {
					output = append(output, toEntryOutput(e))
				}
				if err := outputJSON(cmd, output); err != nil {
					return err
				}
				return regErr
			}

			for _, e := range entries {
				fmt.Fprintf(cmd.OutOrStdout(), "Registered %s (%s %s, %s, registration #%d)\n",
					e.Filename, e.ChecksumAlgorithm, shortChecksum(e.Checksum), formatSize(e.SizeBytes), e.RegistrationCount)
			}
			return regErr
		},
	}

	cmd.Flags().StringVar(&producerVersion, "producer-version", "", "Version of the program that wrote the files")
	cmd.Flags().IntVar(&producerLevel, "producer-level", 0, "Progress level recorded by the producer")
	cmd.Flags().Int64Var(&size, "size", 0, "Size to record instead of the byte count read (single file only)")
	cmd.Flags().StringVar(&format, "format", "table", "Output format: table or json")

	return cmd
}
