package metadata

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/choplin/savemeta/internal/checksum"
)

// decodeRecord parses a persisted record and migrates it into the current
// schema. The document is decoded into raw fields first; each known field is
// then applied over the defaults, so fields written by an older version acquire
// defaults instead of being absent. Any malformed field makes the whole record
// corrupt.
func decodeRecord(data []byte) (*Record, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}
	if raw == nil {
		return nil, fmt.Errorf("%w: document is not an object", ErrCorrupt)
	}

	rec := newRecord()
	fields := []struct {
		name string
		dst  any
	}{
		{"schemaVersion", &rec.SchemaVersion},
		{"lastSaveTimestamp", &rec.LastSaveTimestamp},
		{"autoSaveEnabled", &rec.AutoSaveEnabled},
		{"autoSaveIntervalMs", &rec.AutoSaveIntervalMs},
		{"backupRetentionCount", &rec.BackupRetentionCount},
		{"totalSaveCount", &rec.TotalSaveCount},
		{"migrationCompleted", &rec.MigrationCompleted},
		{"entries", &rec.Entries},
		{"statistics", &rec.Statistics},
	}
	for _, field := range fields {
		msg, ok := raw[field.name]
		if !ok || isNull(msg) {
			continue
		}
		if err := json.Unmarshal(msg, field.dst); err != nil {
			return nil, fmt.Errorf("%w: field %q: %w", ErrCorrupt, field.name, err)
		}
	}

	if err := migrate(rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// migrate upgrades a freshly decoded record to CurrentSchemaVersion.
func migrate(rec *Record) error {
	if rec.Entries == nil {
		rec.Entries = map[string]FileEntry{}
	}

	for name, entry := range rec.Entries {
		if entry.Filename == "" {
			entry.Filename = name
		}
		if entry.Filename != name {
			return fmt.Errorf("%w: entry %q records filename %q", ErrCorrupt, name, entry.Filename)
		}
		// Entries written before per-entry algorithms were recorded are SHA-256.
		if entry.ChecksumAlgorithm == "" {
			entry.ChecksumAlgorithm = checksum.SHA256
		}
		if entry.ProducerVersion == "" {
			entry.ProducerVersion = unknownProducerVersion
		}
		if entry.RegistrationCount < 1 {
			entry.RegistrationCount = 1
		}
		if entry.SizeBytes < 0 {
			entry.SizeBytes = 0
		}
		if entry.ProducerLevel < 0 {
			entry.ProducerLevel = 0
		}
		if entry.LastModifiedAt.IsZero() {
			entry.LastModifiedAt = entry.CreatedAt
		}
		rec.Entries[name] = entry
	}

	if rec.AutoSaveIntervalMs < 0 {
		rec.AutoSaveIntervalMs = defaultAutoSaveIntervalMs
	}
	if rec.BackupRetentionCount < 0 {
		rec.BackupRetentionCount = defaultBackupRetentionCount
	}

	rec.Statistics.TotalDiskUsageBytes, rec.Statistics.AverageEntrySizeBytes = ComputeSizeStatistics(rec.Entries)
	rec.SchemaVersion = CurrentSchemaVersion
	return nil
}

func isNull(msg json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(msg), []byte("null"))
}
