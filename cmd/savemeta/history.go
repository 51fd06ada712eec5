package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/choplin/savemeta/internal/database"
	"github.com/choplin/savemeta/internal/services"
	"github.com/choplin/savemeta/internal/usecase"
)

func newHistoryCmd(opts *globalOptions) *cobra.Command {
	var (
		limit  int
		format string
	)

	cmd := &cobra.Command{
		Use:   "history [run-id]",
		Short: "Show recorded validate and reconcile runs",
		Long: `History lists the most recent runs recorded for the save directory. Given a
run ID, or a unique prefix of one, it shows that run's findings.`,
		Args: cobra.MaximumNArgs(1),
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

			ctx := context.Background()

			if len(args) == 1 {
				detail, err := session.Run(ctx, args[0])
				if err != nil {
					return historyError(err, args[0])
				}
				if format == "json" {
					return outputJSON(cmd, detail)
				}
				outputRunDetail(cmd, detail)
				return nil
			}

			runs, err := session.History(ctx, limit)
			if err != nil {
				return historyError(err, "")
			}
			if format == "json" {
				if runs == nil {
					runs = []database.RunRecord{}
				}
				return outputJSON(cmd, runs)
			}
			outputRunsTable(cmd, runs)
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", database.DefaultRunLimit, "Maximum number of runs to show")
	cmd.Flags().StringVar(&format, "format", "table", "Output format: table or json")

	return cmd
}

func historyError(err error, id string) error {
	switch {
	case errors.Is(err, usecase.ErrJournalDisabled):
		return fmt.Errorf("journal is disabled; enable journal.enabled or drop --no-journal")
	case errors.Is(err, services.ErrNotFound):
		return fmt.Errorf("run not found: %s", id)
	case errors.Is(err, database.ErrAmbiguous):
		return fmt.Errorf("run ID prefix %q matches more than one run", id)
	default:
		return err
	}
}

func outputRunsTable(cmd *cobra.Command, runs []database.RunRecord) {
	if len(runs) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No recorded runs")
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(cmd.OutOrStdout())
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Run", "Kind", "Started", "Total", "Valid", "Invalid", "Missing", "Removed"})

	for _, r := range runs {
		t.AppendRow(table.Row{
			shortID(r.ID),
			string(r.Kind),
			formatTime(r.StartedAt),
			r.Total,
			r.Valid,
			r.Invalid,
			r.Missing,
			r.Removed,
		})
	}

	t.Render()
}

func outputRunDetail(cmd *cobra.Command, detail *services.RunDetail) {
	out := cmd.OutOrStdout()
	run := detail.Run

	fmt.Fprintf(out, "Run:       %s\n", run.ID)
	fmt.Fprintf(out, "Kind:      %s\n", run.Kind)
	fmt.Fprintf(out, "Store:     %s\n", run.StoreDir)
	fmt.Fprintf(out, "Started:   %s\n", formatTime(run.StartedAt))
	fmt.Fprintf(out, "Counts:    %d total, %d valid, %d invalid, %d missing, %d removed\n",
		run.Total, run.Valid, run.Invalid, run.Missing, run.Removed)

	if len(detail.Findings) == 0 {
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"File", "Status", "Stored", "Current", "Detail"})
	for _, f := range detail.Findings {
		t.AppendRow(table.Row{
			f.Filename,
			f.Status,
			shortChecksum(f.StoredChecksum),
			shortChecksum(f.CurrentChecksum),
			f.Detail,
		})
	}
	t.Render()
}

func shortID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}
