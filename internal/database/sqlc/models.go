package sqldb

import "database/sql"

type Run struct {
	ID           string
	Kind         string
	StoreDir     string
	StartedAt    string
	TotalCount   int64
	ValidCount   int64
	InvalidCount int64
	MissingCount int64
	RemovedCount int64
}

type Finding struct {
	ID              int64
	RunID           string
	Filename        string
	Status          string
	StoredChecksum  sql.NullString
	CurrentChecksum sql.NullString
	Detail          sql.NullString
}
