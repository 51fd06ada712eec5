package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	sqldb "github.com/choplin/savemeta/internal/database/sqlc"
)

// DefaultRunLimit is the number of runs ListRuns returns when no limit is given.
const DefaultRunLimit = 20

type JournalRepository struct {
	ctx *Context
}

func NewJournalRepository(dbCtx *Context) *JournalRepository {
	return &JournalRepository{ctx: dbCtx}
}

// RecordRun stores run and its findings in one transaction and returns the
// run ID, generating one when run.ID is empty.
func (r *JournalRepository) RecordRun(ctx context.Context, run RunRecord, findings []FindingRecord) (string, error) {
	queries := queriesFromContext(r.ctx)
	if queries == nil {
		return "", fmt.Errorf("journal repository: missing database context")
	}

	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	params, err := RunInsertParams(run)
	if err != nil {
		return "", err
	}

	tx, err := r.ctx.DB.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	txQueries := queries.WithTx(tx)

	if err := txQueries.InsertRun(ctx, params); err != nil {
		return "", rollback(tx, fmt.Errorf("failed to insert run: %w", err))
	}
	for _, finding := range findings {
		if err := txQueries.InsertFinding(ctx, FindingInsertParams(run.ID, finding)); err != nil {
			return "", rollback(tx, fmt.Errorf("failed to insert finding for %s: %w", finding.Filename, err))
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit run: %w", err)
	}
	return run.ID, nil
}

// ListRuns returns the most recent runs first. An empty storeDir lists runs of
// every store; a limit <= 0 means DefaultRunLimit.
func (r *JournalRepository) ListRuns(ctx context.Context, storeDir string, limit int) ([]RunRecord, error) {
	queries := queriesFromContext(r.ctx)
	if queries == nil {
		return nil, fmt.Errorf("journal repository: missing database context")
	}
	if limit <= 0 {
		limit = DefaultRunLimit
	}

	rows, err := queries.ListRuns(ctx, sqldb.ListRunsParams{StoreDir: storeDir, Limit: int64(limit)})
	if err != nil {
		return nil, err
	}

	result := make([]RunRecord, 0, len(rows))
	for _, row := range rows {
		record, err := RunRecordFromRow(row)
		if err != nil {
			return nil, err
		}
		result = append(result, record)
	}
	return result, nil
}

// FindRun looks a run up by its full ID or an unambiguous prefix of it.
func (r *JournalRepository) FindRun(ctx context.Context, id string) (*RunRecord, error) {
	queries := queriesFromContext(r.ctx)
	if queries == nil {
		return nil, fmt.Errorf("journal repository: missing database context")
	}

	row, err := queries.FindRunByID(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		ids, prefixErr := queries.FindRunIDsByPrefix(ctx, id)
		if prefixErr != nil {
			return nil, prefixErr
		}
		switch len(ids) {
		case 0:
			return nil, fmt.Errorf("run %s: %w", id, ErrNotFound)
		case 1:
			row, err = queries.FindRunByID(ctx, ids[0])
		default:
			return nil, fmt.Errorf("run %s: %w", id, ErrAmbiguous)
		}
	}
	if err != nil {
		return nil, err
	}

	record, err := RunRecordFromRow(row)
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// ListFindings returns the findings of runID ordered by filename.
func (r *JournalRepository) ListFindings(ctx context.Context, runID string) ([]FindingRecord, error) {
	queries := queriesFromContext(r.ctx)
	if queries == nil {
		return nil, fmt.Errorf("journal repository: missing database context")
	}

	rows, err := queries.ListFindingsByRun(ctx, runID)
	if err != nil {
		return nil, err
	}

	result := make([]FindingRecord, 0, len(rows))
	for _, row := range rows {
		result = append(result, FindingRecordFromRow(row))
	}
	return result, nil
}
