package database

import "time"

// RunKind identifies the integrity operation a run recorded.
type RunKind string

const (
	RunValidate  RunKind = "validate"
	RunReconcile RunKind = "reconcile"
)

// RunRecord represents a row in the runs table: one validation or
// reconciliation pass over a store directory.
type RunRecord struct {
	ID        string    `json:"id"`
	Kind      RunKind   `json:"kind"`
	StoreDir  string    `json:"storeDir"`
	StartedAt time.Time `json:"startedAt"`
	Total     int64     `json:"total"`
	Valid     int64     `json:"valid"`
	Invalid   int64     `json:"invalid"`
	Missing   int64     `json:"missing"`
	Removed   int64     `json:"removed"`
}

// FindingRecord mirrors the findings table. Validation runs record one finding
// per file that did not validate; reconciliation runs record one per pruned
// entry.
type FindingRecord struct {
	RunID           string `json:"runId"`
	Filename        string `json:"filename"`
	Status          string `json:"status"`
	StoredChecksum  string `json:"storedChecksum,omitempty"`
	CurrentChecksum string `json:"currentChecksum,omitempty"`
	Detail          string `json:"detail,omitempty"`
}
