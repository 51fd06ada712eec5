package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/choplin/savemeta/internal/database"
	"github.com/choplin/savemeta/internal/integrity"
)

// ErrNotFound is returned when a requested run is not found.
var ErrNotFound = errors.New("run not found")

// removedStatus is the finding status recorded for entries pruned by reconciliation.
const removedStatus = "removed"

// RunDetail is a recorded run together with its findings.
type RunDetail struct {
	Run      database.RunRecord       `json:"run"`
	Findings []database.FindingRecord `json:"findings"`
}

// JournalService records integrity runs in the audit journal and reads them back.
type JournalService struct {
	repo *database.JournalRepository
}

// NewJournalService creates a new JournalService.
func NewJournalService(ctx *database.Context) *JournalService {
	return &JournalService{
		repo: database.NewJournalRepository(ctx),
	}
}

// RecordValidation stores report as a validation run of storeDir. Only results
// that are not valid become findings.
func (s *JournalService) RecordValidation(ctx context.Context, storeDir string, report integrity.Report) (string, error) {
	run := database.RunRecord{
		Kind:      database.RunValidate,
		StoreDir:  storeDir,
		StartedAt: report.CheckedAt,
		Total:     int64(report.Total),
		Valid:     int64(report.Valid),
		Invalid:   int64(report.Invalid),
		Missing:   int64(report.Missing),
	}

	var findings []database.FindingRecord
	for _, result := range report.Results {
		if result.Valid() {
			continue
		}
		findings = append(findings, database.FindingRecord{
			Filename:        result.Filename,
			Status:          string(result.Status),
			StoredChecksum:  result.StoredChecksum,
			CurrentChecksum: result.CurrentChecksum,
			Detail:          result.Detail,
		})
	}

	id, err := s.repo.RecordRun(ctx, run, findings)
	if err != nil {
		return "", fmt.Errorf("recording validation run: %w", err)
	}
	return id, nil
}

// RecordReconcile stores a reconciliation run of storeDir that pruned removed.
func (s *JournalService) RecordReconcile(ctx context.Context, storeDir string, startedAt time.Time, removed []string) (string, error) {
	run := database.RunRecord{
		Kind:      database.RunReconcile,
		StoreDir:  storeDir,
		StartedAt: startedAt,
		Removed:   int64(len(removed)),
	}

	findings := make([]database.FindingRecord, 0, len(removed))
	for _, name := range removed {
		findings = append(findings, database.FindingRecord{Filename: name, Status: removedStatus})
	}

	id, err := s.repo.RecordRun(ctx, run, findings)
	if err != nil {
		return "", fmt.Errorf("recording reconcile run: %w", err)
	}
	return id, nil
}

// History lists recent runs, newest first. An empty storeDir includes every store.
func (s *JournalService) History(ctx context.Context, storeDir string, limit int) ([]database.RunRecord, error) {
	return s.repo.ListRuns(ctx, storeDir, limit)
}

// Run returns a run and its findings by ID or unambiguous ID prefix.
func (s *JournalService) Run(ctx context.Context, id string) (*RunDetail, error) {
	run, err := s.repo.FindRun(ctx, id)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, err
	}

	findings, err := s.repo.ListFindings(ctx, run.ID)
	if err != nil {
		return nil, err
	}
	return &RunDetail{Run: *run, Findings: findings}, nil
}
