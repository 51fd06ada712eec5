// Package metadata owns the authoritative record describing every tracked file
// in a save directory.
//
// # Persistence
//
// The record lives in <dir>/metadata.json. Every mutation is applied to a deep
// copy of the in-memory record, persisted by writing <dir>/metadata.json.tmp
// and renaming it over the real file, and only then swapped in. A crash or a
// failed write therefore leaves either the previous or the new record on disk,
// never a truncated one, and a failed mutation leaves the in-memory record as
// it was.
//
// # Loading
//
// A missing record is bootstrapped empty. A record that cannot be parsed is
// copied aside to metadata_corrupted_<timestamp>.json and replaced by an empty
// one. A parseable record is migrated field by field into the current schema.
//
// # Concurrency
//
// A Store serialises its own mutations and is safe for concurrent use within
// one process. There is no cross-process locking: the last writer wins.
package metadata

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"

	"github.com/choplin/savemeta/internal/checksum"
	"github.com/choplin/savemeta/internal/filesystem"
)

// Store owns the metadata record of one directory.
type Store struct {
	mu     sync.RWMutex
	dir    string
	path   string
	opts   *Options
	record *Record
}

// Open loads the record in dir, bootstrapping or resetting it as needed.
// Only I/O failures other than a missing record are returned as errors.
func Open(dir string, opts ...OptionFunc) (*Store, error) {
	options := defaultOptions()
	for _, opt := range opts {
		opt(options)
	}

	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("metadata: store directory is required")
	}
	dir = filepath.Clean(dir)

	if err := options.FS.MkdirAll(dir, options.DirMode); err != nil {
		return nil, fmt.Errorf("%w: creating store directory: %w", ErrIO, err)
	}

	s := &Store{
		dir:  dir,
		path: filepath.Join(dir, metadataFileName),
		opts: options,
	}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

// Dir returns the store directory.
func (s *Store) Dir() string { return s.dir }

// Path returns the path of the backing record.
func (s *Store) Path() string { return s.path }

// FS returns the filesystem the store reads tracked files through.
func (s *Store) FS() filesystem.FS { return s.opts.FS }

func (s *Store) load() error {
	data, err := s.opts.FS.ReadFile(s.path)
	if err != nil {
		if filesystem.IsNotFound(err) {
			s.opts.Logger.Info().Str("path", s.path).Msg("no metadata record found, initialising")
			return s.bootstrap()
		}
		return fmt.Errorf("%w: reading %s: %w", ErrIO, s.path, err)
	}

	rec, err := decodeRecord(data)
	if err != nil {
		s.opts.Logger.Warn().Err(err).Str("path", s.path).Msg("metadata record is corrupted, resetting")
		s.quarantine(data)
		return s.bootstrap()
	}

	s.record = rec
	return nil
}

func (s *Store) bootstrap() error {
	rec := newRecord()
	if err := s.persist(rec); err != nil {
		return err
	}
	s.record = rec
	return nil
}

// quarantine copies an unparseable record aside. An existing quarantine file
// is never overwritten; a numeric suffix is added instead. Failure is logged only.
func (s *Store) quarantine(data []byte) {
	stamp := quarantineStamp(s.now())
	for attempt := 0; attempt < maxQuarantineAttempts; attempt++ {
		name := quarantinePrefix + stamp + quarantineSuffix
		if attempt > 0 {
			name = fmt.Sprintf("%s%s-%d%s", quarantinePrefix, stamp, attempt, quarantineSuffix)
		}
		path := filepath.Join(s.dir, name)

		err := s.opts.FS.CreateFile(path, data, s.opts.FileMode)
		if err == nil {
			s.opts.Logger.Warn().Str("path", path).Msg("corrupted metadata quarantined")
			return
		}
		if filesystem.KindOf(err) != filesystem.KindExists {
			s.opts.Logger.Warn().Err(err).Str("path", path).Msg("failed to quarantine corrupted metadata")
			return
		}
	}
	s.opts.Logger.Warn().Str("dir", s.dir).Msg("failed to quarantine corrupted metadata: no free file name")
}

// QuarantineFileName returns the name a corrupted record is copied to at t:
// the UTC ISO-8601 timestamp with ':' and '.' replaced by '-'. When that name
// is taken, "-1", "-2", ... is appended to the timestamp.
func QuarantineFileName(t time.Time) string {
	return quarantinePrefix + quarantineStamp(t) + quarantineSuffix
}

func quarantineStamp(t time.Time) string {
	stamp := t.UTC().Format("2006-01-02T15:04:05.000Z07:00")
	return strings.NewReplacer(":", "-", ".", "-").Replace(stamp)
}

func (s *Store) persist(rec *Record) error {
	data, err := encodeRecord(rec)
	if err != nil {
		return fmt.Errorf("%w: encoding record: %w", ErrIO, err)
	}

	tmp := s.path + tempSuffix
	if err := s.opts.FS.WriteFile(tmp, data, s.opts.FileMode); err != nil {
		_ = s.opts.FS.Remove(tmp)
		return fmt.Errorf("%w: writing %s: %w", ErrIO, tmp, err)
	}
	if err := s.opts.FS.Rename(tmp, s.path); err != nil {
		_ = s.opts.FS.Remove(tmp)
		return fmt.Errorf("%w: renaming %s: %w", ErrIO, tmp, err)
	}
	return nil
}

func encodeRecord(rec *Record) ([]byte, error) {
	b, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(b, '\n'), nil
}

// mutate runs fn against a copy of the record, recomputes the size statistics,
// persists the copy and swaps it in. The caller must hold s.mu.
func (s *Store) mutate(fn func(r *Record) error) error {
	next := s.record.clone()
	if err := fn(next); err != nil {
		return err
	}
	next.recomputeStatistics()
	if err := s.persist(next); err != nil {
		return err
	}
	s.record = next
	return nil
}

func (s *Store) now() time.Time {
	return s.opts.Clock().UTC()
}

// Register reads filename from the store directory, digests it and upserts its
// entry. Re-registering an existing filename increments its registration count
// and keeps its creation time.
func (s *Store) Register(filename string, info EntryInfo) (FileEntry, error) {
	if err := ValidateFilename(filename); err != nil {
		return FileEntry{}, err
	}
	if info.SizeBytes != nil && *info.SizeBytes < 0 {
		return FileEntry{}, fmt.Errorf("%w: size must be >= 0", ErrInvalidInfo)
	}
	if info.ProducerLevel < 0 {
		return FileEntry{}, fmt.Errorf("%w: producer level must be >= 0", ErrInvalidInfo)
	}

	data, err := s.opts.FS.ReadFile(filepath.Join(s.dir, filename))
	if err != nil {
		return FileEntry{}, fmt.Errorf("%w: %s: %w", ErrUnreadableArtifact, filename, err)
	}
	sum, err := checksum.Sum(s.opts.Algorithm, data)
	if err != nil {
		return FileEntry{}, err
	}

	size := int64(len(data))
	if info.SizeBytes != nil {
		size = *info.SizeBytes
	}
	producerVersion := info.ProducerVersion
	if strings.TrimSpace(producerVersion) == "" {
		producerVersion = unknownProducerVersion
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	var registered FileEntry
	err = s.mutate(func(r *Record) error {
		prev, exists := r.Entries[filename]
		entry := FileEntry{
			Filename:          filename,
			Checksum:          sum,
			ChecksumAlgorithm: s.opts.Algorithm,
			SizeBytes:         size,
			CreatedAt:         now,
			LastModifiedAt:    now,
			IsBackupVariant:   IsBackupVariant(filename),
			RegistrationCount: prev.RegistrationCount + 1,
			ProducerVersion:   producerVersion,
			ProducerLevel:     info.ProducerLevel,
		}
		if exists {
			entry.CreatedAt = prev.CreatedAt
			entry.LastAccessedAt = cloneTime(prev.LastAccessedAt)
		}
		r.Entries[filename] = entry

		savedAt := now
		r.LastSaveTimestamp = &savedAt
		r.TotalSaveCount++
		r.Statistics.TotalSaveOperations++
		r.Statistics.LastSuccessfulSaveAt = cloneTime(&savedAt)

		registered = entry.clone()
		return nil
	})
	if err != nil {
		return FileEntry{}, err
	}
	return registered, nil
}

// RecordLoad notes that filename was loaded. Unknown filenames still count as a
// load. Persistence failures are logged and otherwise ignored.
func (s *Store) RecordLoad(filename string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	err := s.mutate(func(r *Record) error {
		if entry, ok := r.Entries[filename]; ok {
			accessedAt := now
			entry.LastAccessedAt = &accessedAt
			r.Entries[filename] = entry
		}
		loadedAt := now
		r.Statistics.TotalLoadOperations++
		r.Statistics.LastSuccessfulLoadAt = &loadedAt
		return nil
	})
	if err != nil {
		s.opts.Logger.Warn().Err(err).Str("filename", filename).Msg("failed to record load operation")
	}
}

// Unregister forgets filename if it is tracked. The file itself is untouched.
func (s *Store) Unregister(filename string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.mutate(func(r *Record) error {
		delete(r.Entries, filename)
		return nil
	})
}

// Prune forgets every listed filename that is tracked, persisting once, and
// returns how many entries were removed.
func (s *Store) Prune(filenames []string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	err := s.mutate(func(r *Record) error {
		for _, name := range filenames {
			if _, ok := r.Entries[name]; ok {
				delete(r.Entries, name)
				removed++
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return removed, nil
}

// PruneMissing forgets every tracked file that is not present in the store
// directory and returns the removed filenames in sorted order. The listing and
// the removal happen under one acquisition of the store lock. Files present but
// untracked are left alone.
func (s *Store) PruneMissing() ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	present, err := s.opts.FS.ListFiles(s.dir)
	if err != nil {
		return nil, fmt.Errorf("%w: listing %s: %w", ErrIO, s.dir, err)
	}

	var orphans []string
	for _, name := range s.record.Filenames() {
		if _, found := slices.BinarySearch(present, name); !found {
			orphans = append(orphans, name)
		}
	}

	err = s.mutate(func(r *Record) error {
		for _, name := range orphans {
			delete(r.Entries, name)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return orphans, nil
}

// UpdateConfiguration applies the non-nil fields of update.
func (s *Store) UpdateConfiguration(update ConfigUpdate) error {
	if update.AutoSaveIntervalMs != nil && *update.AutoSaveIntervalMs < 0 {
		return fmt.Errorf("%w: auto-save interval must be >= 0", ErrInvalidConfig)
	}
	if update.BackupRetentionCount != nil && *update.BackupRetentionCount < 0 {
		return fmt.Errorf("%w: backup retention count must be >= 0", ErrInvalidConfig)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.mutate(func(r *Record) error {
		if update.AutoSaveEnabled != nil {
			r.AutoSaveEnabled = *update.AutoSaveEnabled
		}
		if update.AutoSaveIntervalMs != nil {
			r.AutoSaveIntervalMs = *update.AutoSaveIntervalMs
		}
		if update.BackupRetentionCount != nil {
			r.BackupRetentionCount = *update.BackupRetentionCount
		}
		if update.MigrationCompleted != nil {
			r.MigrationCompleted = *update.MigrationCompleted
		}
		return nil
	})
}

// Entry returns a copy of the entry for filename.
func (s *Store) Entry(filename string) (FileEntry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.record.Entries[filename]
	if !ok {
		return FileEntry{}, false
	}
	return entry.clone(), true
}

// Entries returns copies of all entries, most recently modified first.
func (s *Store) Entries() []FileEntry {
	s.mu.RLock()
	entries := make([]FileEntry, 0, len(s.record.Entries))
	for _, entry := range s.record.Entries {
		entries = append(entries, entry.clone())
	}
	s.mu.RUnlock()

	sort.Slice(entries, func(i, j int) bool {
		if !entries[i].LastModifiedAt.Equal(entries[j].LastModifiedAt) {
			return entries[i].LastModifiedAt.After(entries[j].LastModifiedAt)
		}
		return entries[i].Filename < entries[j].Filename
	})
	return entries
}

// Statistics returns a copy of the current statistics.
func (s *Store) Statistics() Statistics {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.record.Statistics.clone()
}

// Metadata returns a deep copy of the whole record.
func (s *Store) Metadata() *Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.record.clone()
}

// Export writes the current record to path for manual backup. A ".zst" suffix
// compresses the JSON with zstd. The write is not atomic; path is not the
// authoritative copy.
func (s *Store) Export(path string) error {
	s.mu.RLock()
	data, err := encodeRecord(s.record)
	s.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("%w: encoding record: %w", ErrIO, err)
	}

	if strings.HasSuffix(path, ".zst") {
		enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if err != nil {
			return fmt.Errorf("creating zstd encoder: %w", err)
		}
		data = enc.EncodeAll(data, nil)
		_ = enc.Close()
	}

	if err := s.opts.FS.WriteFile(path, data, s.opts.FileMode); err != nil {
		return fmt.Errorf("%w: exporting to %s: %w", ErrIO, path, err)
	}
	return nil
}
