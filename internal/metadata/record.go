package metadata

import (
	"maps"
	"slices"
	"time"

	"github.com/choplin/savemeta/internal/checksum"
)

// CurrentSchemaVersion is stamped on every record after migration.
const CurrentSchemaVersion = "1.1.0"

const (
	defaultAutoSaveEnabled      = true
	defaultAutoSaveIntervalMs   = 5 * 60 * 1000
	defaultBackupRetentionCount = 5
	unknownProducerVersion      = "unknown"
)

// Record is the single persisted aggregate describing every tracked file.
//
// AutoSaveEnabled, AutoSaveIntervalMs, BackupRetentionCount and
// MigrationCompleted are passed through for external consumers and never
// enforced here.
type Record struct {
	SchemaVersion        string               `json:"schemaVersion"`
	LastSaveTimestamp    *time.Time           `json:"lastSaveTimestamp,omitempty"`
	AutoSaveEnabled      bool                 `json:"autoSaveEnabled"`
	AutoSaveIntervalMs   int64                `json:"autoSaveIntervalMs"`
	BackupRetentionCount int                  `json:"backupRetentionCount"`
	TotalSaveCount       int64                `json:"totalSaveCount"`
	MigrationCompleted   bool                 `json:"migrationCompleted"`
	Entries              map[string]FileEntry `json:"entries"`
	Statistics           Statistics           `json:"statistics"`
}

// FileEntry is the metadata recorded for one tracked file at its last registration.
type FileEntry struct {
	Filename          string             `json:"filename"`
	Checksum          string             `json:"checksum"`
	ChecksumAlgorithm checksum.Algorithm `json:"checksumAlgorithm"`
	SizeBytes         int64              `json:"sizeBytes"`
	CreatedAt         time.Time          `json:"createdAt"`
	LastModifiedAt    time.Time          `json:"lastModifiedAt"`
	LastAccessedAt    *time.Time         `json:"lastAccessedAt,omitempty"`
	IsBackupVariant   bool               `json:"isBackupVariant"`
	RegistrationCount int64              `json:"registrationCount"`
	ProducerVersion   string             `json:"producerVersion"`
	ProducerLevel     int                `json:"producerLevel"`
}

// Statistics holds the operation counters and the size aggregates derived from
// the current entries.
type Statistics struct {
	TotalSaveOperations   int64      `json:"totalSaveOperations"`
	TotalLoadOperations   int64      `json:"totalLoadOperations"`
	LastSuccessfulSaveAt  *time.Time `json:"lastSuccessfulSaveAt,omitempty"`
	LastSuccessfulLoadAt  *time.Time `json:"lastSuccessfulLoadAt,omitempty"`
	AverageEntrySizeBytes float64    `json:"averageEntrySizeBytes"`
	TotalDiskUsageBytes   int64      `json:"totalDiskUsageBytes"`
}

// EntryInfo is what a producer supplies alongside a filename at registration.
// A nil SizeBytes means the size is taken from the bytes read.
type EntryInfo struct {
	SizeBytes       *int64
	ProducerVersion string
	ProducerLevel   int
}

// ConfigUpdate carries a partial configuration change; nil fields are left untouched.
type ConfigUpdate struct {
	AutoSaveEnabled      *bool
	AutoSaveIntervalMs   *int64
	BackupRetentionCount *int
	MigrationCompleted   *bool
}

func newRecord() *Record {
	return &Record{
		SchemaVersion:        CurrentSchemaVersion,
		AutoSaveEnabled:      defaultAutoSaveEnabled,
		AutoSaveIntervalMs:   defaultAutoSaveIntervalMs,
		BackupRetentionCount: defaultBackupRetentionCount,
		Entries:              map[string]FileEntry{},
	}
}

func (r *Record) clone() *Record {
	out := *r
	out.LastSaveTimestamp = cloneTime(r.LastSaveTimestamp)
	out.Statistics = r.Statistics.clone()
	out.Entries = make(map[string]FileEntry, len(r.Entries))
	for name, entry := range r.Entries {
		out.Entries[name] = entry.clone()
	}
	return &out
}

func (e FileEntry) clone() FileEntry {
	e.LastAccessedAt = cloneTime(e.LastAccessedAt)
	return e
}

func (s Statistics) clone() Statistics {
	s.LastSuccessfulSaveAt = cloneTime(s.LastSuccessfulSaveAt)
	s.LastSuccessfulLoadAt = cloneTime(s.LastSuccessfulLoadAt)
	return s
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

// Filenames returns the tracked filenames in lexical order.
func (r *Record) Filenames() []string {
	return slices.Sorted(maps.Keys(r.Entries))
}
