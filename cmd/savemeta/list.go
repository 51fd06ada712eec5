package main

import (
	"fmt"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"

	"github.com/choplin/savemeta/internal/metadata"
)

func newListCmd(opts *globalOptions) *cobra.Command {
	var (
		backupsOnly bool
		format      string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tracked files, most recently modified first",
		Args:  cobra.NoArgs,
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

			var entries []metadata.FileEntry
			for _, e := range session.Store.Entries() {
				if backupsOnly && !e.IsBackupVariant {
					continue
				}
				entries = append(entries, e)
			}

			switch format {
			case "json":
				output := make([]entryOutput, 0, len(entries))
				for _, e := range entries {
					output = append(output, toEntryOutput(e))
				}
				return outputJSON(cmd, output)
			default:
				outputListTable(cmd, entries)
				return nil
			}
		},
	}

	cmd.Flags().BoolVar(&backupsOnly, "backups-only", false, "Only list files following the backup naming convention")
	cmd.Flags().StringVar(&format, "format", "table", "Output format: table or json")

	return cmd
}

type entryOutput struct {
	Filename          string `json:"filename"`
	Checksum          string `json:"checksum"`
	ChecksumAlgorithm string `json:"checksumAlgorithm"`
	SizeBytes         int64  `json:"sizeBytes"`
	CreatedAt         string `json:"createdAt"`
	LastModifiedAt    string `json:"lastModifiedAt"`
	LastAccessedAt    string `json:"lastAccessedAt,omitempty"`
	IsBackupVariant   bool   `json:"isBackupVariant"`
	RegistrationCount int64  `json:"registrationCount"`
	ProducerVersion   string `json:"producerVersion"`
	ProducerLevel     int    `json:"producerLevel"`
}

func toEntryOutput(e metadata.FileEntry) entryOutput {
	return entryOutput{
		Filename:          e.Filename,
		Checksum:          e.Checksum,
		ChecksumAlgorithm: string(e.ChecksumAlgorithm),
		SizeBytes:         e.SizeBytes,
		CreatedAt:         e.CreatedAt.Format(time.RFC3339),
		LastModifiedAt:    e.LastModifiedAt.Format(time.RFC3339),
		LastAccessedAt:    rfc3339(e.LastAccessedAt),
		IsBackupVariant:   e.IsBackupVariant,
		RegistrationCount: e.RegistrationCount,
		ProducerVersion:   e.ProducerVersion,
		ProducerLevel:     e.ProducerLevel,
	}
}

// filenameWidth returns the widest filename, capped so the remaining columns
// fit the terminal.
func filenameWidth(termWidth int, entries []metadata.FileEntry) int {
	// Size, Checksum, Modified, Reg, Producer, Backup plus borders
	const fixedColumns = 10 + 12 + 19 + 4 + 12 + 6 + 7*3

	width := 8
	for _, e := range entries {
		if w := runewidth.StringWidth(e.Filename); w > width {
			width = w
		}
	}

	if available := termWidth - fixedColumns; width > available {
		width = available
	}
	if width < 12 {
		width = 12
	}
	return width
}

func outputListTable(cmd *cobra.Command, entries []metadata.FileEntry) {
	if len(entries) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No tracked files")
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(cmd.OutOrStdout())
	t.SetStyle(table.StyleLight)

	// Filenames are wrapped before being added: go-pretty's WidthMax does not
	// measure multi-byte characters correctly.
	width := filenameWidth(getTerminalWidth(), entries)

	t.AppendHeader(table.Row{"File", "Size", "Checksum", "Modified", "Reg", "Producer", "Backup"})
	for _, e := range entries {
		backup := ""
		if e.IsBackupVariant {
			backup = "yes"
		}
		producer := runewidth.Truncate(fmt.Sprintf("%s/%d", e.ProducerVersion, e.ProducerLevel), 12, "...")

		t.AppendRow(table.Row{
			wrapString(e.Filename, width),
			formatSize(e.SizeBytes),
			shortChecksum(e.Checksum),
			formatTime(e.LastModifiedAt),
			e.RegistrationCount,
			producer,
			backup,
		})
	}

	t.Render()
}
