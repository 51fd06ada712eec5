package database

import (
	"fmt"

	sqldb "github.com/choplin/savemeta/internal/database/sqlc"
)

// RunRecordFromRow converts a database run row to a RunRecord.
func RunRecordFromRow(row sqldb.Run) (RunRecord, error) {
	startedAt, err := parseTime(row.StartedAt)
	if err != nil {
		return RunRecord{}, fmt.Errorf("run %s: %w", row.ID, err)
	}
	return RunRecord{
		ID:        row.ID,
		Kind:      RunKind(row.Kind),
		StoreDir:  row.StoreDir,
		StartedAt: startedAt,
		Total:     row.TotalCount,
		Valid:     row.ValidCount,
		Invalid:   row.InvalidCount,
		Missing:   row.MissingCount,
		Removed:   row.RemovedCount,
	}, nil
}

// RunInsertParams creates insert parameters from a run.
func RunInsertParams(run RunRecord) (sqldb.InsertRunParams, error) {
	switch run.Kind {
	case RunValidate, RunReconcile:
	default:
		return sqldb.InsertRunParams{}, fmt.Errorf("unsupported run kind: %s", run.Kind)
	}

	return sqldb.InsertRunParams{
		ID:           run.ID,
		Kind:         string(run.Kind),
		StoreDir:     run.StoreDir,
		StartedAt:    formatTime(run.StartedAt),
		TotalCount:   run.Total,
		ValidCount:   run.Valid,
		InvalidCount: run.Invalid,
		MissingCount: run.Missing,
		RemovedCount: run.Removed,
	}, nil
}

// FindingRecordFromRow converts a database finding row to a FindingRecord.
func FindingRecordFromRow(row sqldb.Finding) FindingRecord {
	return FindingRecord{
		RunID:           row.RunID,
		Filename:        row.Filename,
		Status:          row.Status,
		StoredChecksum:  optionalString(row.StoredChecksum),
		CurrentChecksum: optionalString(row.CurrentChecksum),
		Detail:          optionalString(row.Detail),
	}
}

// FindingInsertParams creates insert parameters for a finding of runID.
func FindingInsertParams(runID string, finding FindingRecord) sqldb.InsertFindingParams {
	return sqldb.InsertFindingParams{
		RunID:           runID,
		Filename:        finding.Filename,
		Status:          finding.Status,
		StoredChecksum:  nullString(finding.StoredChecksum),
		CurrentChecksum: nullString(finding.CurrentChecksum),
		Detail:          nullString(finding.Detail),
	}
}
