// Package integrity verifies tracked files against their recorded checksums and
// reconciles the metadata record with the files actually present on disk.
package integrity

import (
	"path/filepath"
	"time"

	"github.com/choplin/savemeta/internal/checksum"
	"github.com/choplin/savemeta/internal/filesystem"
	"github.com/choplin/savemeta/internal/metadata"
)

// Status is the verdict for a single file.
type Status string

const (
	StatusValid      Status = "valid"
	StatusMismatch   Status = "mismatch"
	StatusMissing    Status = "missing"
	StatusUntracked  Status = "untracked"
	StatusUnreadable Status = "unreadable"
)

// Result is the outcome of validating one file.
type Result struct {
	Filename        string `json:"filename"`
	Status          Status `json:"status"`
	StoredChecksum  string `json:"storedChecksum,omitempty"`
	CurrentChecksum string `json:"currentChecksum,omitempty"`
	Detail          string `json:"detail,omitempty"`
}

// Valid reports whether the file matched its recorded checksum.
func (r Result) Valid() bool {
	return r.Status == StatusValid
}

// Report aggregates validation results. Invalid counts every result that is
// not valid; Missing is the subset whose file is gone.
type Report struct {
	Total     int       `json:"total"`
	Valid     int       `json:"valid"`
	Invalid   int       `json:"invalid"`
	Missing   int       `json:"missing"`
	Results   []Result  `json:"results"`
	CheckedAt time.Time `json:"checkedAt"`
}

// Service validates and reconciles the files tracked by a Store.
type Service struct {
	store *metadata.Store
	fs    filesystem.FS
	dir   string
	clock func() time.Time
}

// New creates a Service over store, reading files through the store's filesystem.
func New(store *metadata.Store) *Service {
	return &Service{
		store: store,
		fs:    store.FS(),
		dir:   store.Dir(),
		clock: time.Now,
	}
}

// ValidateOne checks filename against its recorded checksum. Verdicts are
// returned as values; ValidateOne never fails.
func (s *Service) ValidateOne(filename string) Result {
	entry, ok := s.store.Entry(filename)
	if !ok {
		return Result{Filename: filename, Status: StatusUntracked}
	}
	return s.check(entry)
}

func (s *Service) check(entry metadata.FileEntry) Result {
	result := Result{Filename: entry.Filename, StoredChecksum: entry.Checksum}

	data, err := s.fs.ReadFile(filepath.Join(s.dir, entry.Filename))
	if err != nil {
		if filesystem.IsNotFound(err) {
			result.Status = StatusMissing
			return result
		}
		result.Status = StatusUnreadable
		result.Detail = err.Error()
		return result
	}

	current, err := checksum.Sum(entry.ChecksumAlgorithm, data)
	if err != nil {
		result.Status = StatusUnreadable
		result.Detail = err.Error()
		return result
	}
	result.CurrentChecksum = current

	if checksum.Equal(current, entry.Checksum) {
		result.Status = StatusValid
	} else {
		result.Status = StatusMismatch
	}
	return result
}

// ValidateAll checks every tracked file, in filename order, without stopping at
// the first failure.
func (s *Service) ValidateAll() Report {
	rec := s.store.Metadata()
	report := s.newReport(len(rec.Entries))
	for _, name := range rec.Filenames() {
		report.add(s.check(rec.Entries[name]))
	}
	return report
}

// ValidateFiles checks the named files in the given order. Names that are not
// tracked are reported as untracked and counted as invalid.
func (s *Service) ValidateFiles(filenames []string) Report {
	report := s.newReport(len(filenames))
	for _, name := range filenames {
		report.add(s.ValidateOne(name))
	}
	return report
}

func (s *Service) newReport(size int) Report {
	return Report{
		Results:   make([]Result, 0, size),
		CheckedAt: s.clock().UTC(),
	}
}

func (r *Report) add(result Result) {
	r.Results = append(r.Results, result)
	r.Total++
	switch result.Status {
	case StatusValid:
		r.Valid++
	case StatusMissing:
		r.Missing++
		r.Invalid++
	default:
		r.Invalid++
	}
}

// OK reports whether every checked file was valid.
func (r Report) OK() bool {
	return r.Invalid == 0
}

// Reconcile forgets every tracked file that no longer exists in the store
// directory and returns how many entries were removed.
func (s *Service) Reconcile() (int, error) {
	removed, err := s.ReconcileDetailed()
	return len(removed), err
}

// ReconcileDetailed is Reconcile returning the removed filenames in sorted order.
// Files present on disk but not tracked are left alone.
func (s *Service) ReconcileDetailed() ([]string, error) {
	return s.store.PruneMissing()
}

// ComputeStatistics recomputes the size aggregates from the current entries,
// returning them alongside the stored operation counters.
func (s *Service) ComputeStatistics() metadata.Statistics {
	rec := s.store.Metadata()
	stats := rec.Statistics
	stats.TotalDiskUsageBytes, stats.AverageEntrySizeBytes = metadata.ComputeSizeStatistics(rec.Entries)
	return stats
}
