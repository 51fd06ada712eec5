package main

import (
	"context"
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/choplin/savemeta/internal/usecase"
)

func newValidateCmd(opts *globalOptions) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "validate [file...]",
		Short: "Verify files against their recorded checksums",
		Long: `Validate recomputes the checksum of each named file, or of every tracked file
when none are named, and compares it with the recorded one. It exits non-zero
when any file is mismatched, missing, unreadable or untracked.`,
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

			outcome := session.Validate(context.Background(), args)

			switch format {
			case "json":
				if err := outputJSON(cmd, outcome); err != nil {
					return err
				}
			default:
				outputValidateTable(cmd, outcome)
			}

			if !outcome.Report.OK() {
				return fmt.Errorf("%d of %d file(s) failed validation", outcome.Report.Invalid, outcome.Report.Total)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&format, "format", "table", "Output format: table or json")

	return cmd
}

func outputValidateTable(cmd *cobra.Command, outcome usecase.ValidationOutcome) {
	report := outcome.Report
	out := cmd.OutOrStdout()

	if report.Total == 0 {
		fmt.Fprintln(out, "No tracked files")
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"File", "Status", "Stored", "Current", "Detail"})

	nameWidth := getTerminalWidth() / 3
	for _, r := range report.Results {
		t.AppendRow(table.Row{
			wrapString(r.Filename, nameWidth),
			string(r.Status),
			shortChecksum(r.StoredChecksum),
			shortChecksum(r.CurrentChecksum),
			r.Detail,
		})
	}
	t.Render()

	fmt.Fprintf(out, "%d checked: %d valid, %d invalid (%d missing)\n", report.Total, report.Valid, report.Invalid, report.Missing)
	if outcome.RunID != "" {
		fmt.Fprintf(out, "Run: %s\n", outcome.RunID)
	}
}
