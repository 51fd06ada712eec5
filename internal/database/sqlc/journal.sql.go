package sqldb

import (
	"context"
	"database/sql"
)

const insertRun = `INSERT INTO runs (
    id, kind, store_dir, started_at,
    total_count, valid_count, invalid_count, missing_count, removed_count
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

type InsertRunParams struct {
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

func (q *Queries) InsertRun(ctx context.Context, arg InsertRunParams) error {
	_, err := q.db.ExecContext(ctx, insertRun,
		arg.ID,
		arg.Kind,
		arg.StoreDir,
		arg.StartedAt,
		arg.TotalCount,
		arg.ValidCount,
		arg.InvalidCount,
		arg.MissingCount,
		arg.RemovedCount,
	)
	return err
}

const insertFinding = `INSERT INTO findings (
    run_id, filename, status, stored_checksum, current_checksum, detail
) VALUES (?, ?, ?, ?, ?, ?)`

type InsertFindingParams struct {
	RunID           string
	Filename        string
	Status          string
	StoredChecksum  sql.NullString
	CurrentChecksum sql.NullString
	Detail          sql.NullString
}

func (q *Queries) InsertFinding(ctx context.Context, arg InsertFindingParams) error {
	_, err := q.db.ExecContext(ctx, insertFinding,
		arg.RunID,
		arg.Filename,
		arg.Status,
		arg.StoredChecksum,
		arg.CurrentChecksum,
		arg.Detail,
	)
	return err
}

const findRunByID = `SELECT id, kind, store_dir, started_at,
    total_count, valid_count, invalid_count, missing_count, removed_count
FROM runs
WHERE id = ?`

func (q *Queries) FindRunByID(ctx context.Context, id string) (Run, error) {
	row := q.db.QueryRowContext(ctx, findRunByID, id)
	var i Run
	err := row.Scan(
		&i.ID,
		&i.Kind,
		&i.StoreDir,
		&i.StartedAt,
		&i.TotalCount,
		&i.ValidCount,
		&i.InvalidCount,
		&i.MissingCount,
		&i.RemovedCount,
	)
	return i, err
}

const findRunIDsByPrefix = `SELECT id FROM runs WHERE id LIKE ? || '%' ORDER BY id LIMIT 2`

func (q *Queries) FindRunIDsByPrefix(ctx context.Context, prefix string) ([]string, error) {
	rows, err := q.db.QueryContext(ctx, findRunIDsByPrefix, prefix)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		items = append(items, id)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const listRuns = `SELECT id, kind, store_dir, started_at,
    total_count, valid_count, invalid_count, missing_count, removed_count
FROM runs
WHERE (?1 = '' OR store_dir = ?1)
ORDER BY started_at DESC, id DESC
LIMIT ?2`

type ListRunsParams struct {
	StoreDir string
	Limit    int64
}

func (q *Queries) ListRuns(ctx context.Context, arg ListRunsParams) ([]Run, error) {
	rows, err := q.db.QueryContext(ctx, listRuns, arg.StoreDir, arg.Limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Run
	for rows.Next() {
		var i Run
		if err := rows.Scan(
			&i.ID,
			&i.Kind,
			&i.StoreDir,
			&i.StartedAt,
			&i.TotalCount,
			&i.ValidCount,
			&i.InvalidCount,
			&i.MissingCount,
			&i.RemovedCount,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const listFindingsByRun = `SELECT id, run_id, filename, status, stored_checksum, current_checksum, detail
FROM findings
WHERE run_id = ?
ORDER BY filename, id`

func (q *Queries) ListFindingsByRun(ctx context.Context, runID string) ([]Finding, error) {
	rows, err := q.db.QueryContext(ctx, listFindingsByRun, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Finding
	for rows.Next() {
		var i Finding
		if err := rows.Scan(
			&i.ID,
			&i.RunID,
			&i.Filename,
			&i.Status,
			&i.StoredChecksum,
			&i.CurrentChecksum,
			&i.Detail,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
