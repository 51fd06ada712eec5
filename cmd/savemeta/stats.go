package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

type statsOutput struct {
	StoreDir              string  `json:"storeDir"`
	SchemaVersion         string  `json:"schemaVersion"`
	TrackedFiles          int     `json:"trackedFiles"`
	BackupFiles           int     `json:"backupFiles"`
	TotalSaveCount        int64   `json:"totalSaveCount"`
	TotalSaveOperations   int64   `json:"totalSaveOperations"`
	TotalLoadOperations   int64   `json:"totalLoadOperations"`
	LastSaveTimestamp     string  `json:"lastSaveTimestamp,omitempty"`
	LastSuccessfulSaveAt  string  `json:"lastSuccessfulSaveAt,omitempty"`
	LastSuccessfulLoadAt  string  `json:"lastSuccessfulLoadAt,omitempty"`
	AverageEntrySizeBytes float64 `json:"averageEntrySizeBytes"`
	TotalDiskUsageBytes   int64   `json:"totalDiskUsageBytes"`
}

func newStatsCmd(opts *globalOptions) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show operation counters and disk usage",
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

			rec := session.Store.Metadata()
			stats := session.Integrity.ComputeStatistics()

			backups := 0
			for _, e := range rec.Entries {
				if e.IsBackupVariant {
					backups++
				}
			}

			output := statsOutput{
				StoreDir:              session.Store.Dir(),
				SchemaVersion:         rec.SchemaVersion,
				TrackedFiles:          len(rec.Entries),
				BackupFiles:           backups,
				TotalSaveCount:        rec.TotalSaveCount,
				TotalSaveOperations:   stats.TotalSaveOperations,
				TotalLoadOperations:   stats.TotalLoadOperations,
				LastSaveTimestamp:     rfc3339(rec.LastSaveTimestamp),
				LastSuccessfulSaveAt:  rfc3339(stats.LastSuccessfulSaveAt),
				LastSuccessfulLoadAt:  rfc3339(stats.LastSuccessfulLoadAt),
				AverageEntrySizeBytes: stats.AverageEntrySizeBytes,
				TotalDiskUsageBytes:   stats.TotalDiskUsageBytes,
			}

			if format == "json" {
				return outputJSON(cmd, output)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Store:          %s\n", output.StoreDir)
			fmt.Fprintf(out, "Schema:         %s\n", output.SchemaVersion)
			fmt.Fprintf(out, "Tracked files:  %d (%d backup)\n", output.TrackedFiles, output.BackupFiles)
			fmt.Fprintf(out, "Disk usage:     %s\n", formatSize(output.TotalDiskUsageBytes))
			fmt.Fprintf(out, "Average size:   %s\n", humanize.IBytes(uint64(output.AverageEntrySizeBytes)))
			fmt.Fprintf(out, "Saves:          %s\n", humanize.Comma(output.TotalSaveOperations))
			fmt.Fprintf(out, "Loads:          %s\n", humanize.Comma(output.TotalLoadOperations))
			fmt.Fprintf(out, "Last save:      %s\n", formatOptionalTime(stats.LastSuccessfulSaveAt))
			fmt.Fprintf(out, "Last load:      %s\n", formatOptionalTime(stats.LastSuccessfulLoadAt))
			return nil
		},
	}

	cmd.Flags().StringVar(&format, "format", "table", "Output format: table or json")

	return cmd
}
