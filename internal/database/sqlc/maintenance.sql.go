package sqldb

import "context"

const deleteAllFindings = `DELETE FROM findings`

func (q *Queries) DeleteAllFindings(ctx context.Context) error {
	_, err := q.db.ExecContext(ctx, deleteAllFindings)
	return err
}

const deleteAllRuns = `DELETE FROM runs`

func (q *Queries) DeleteAllRuns(ctx context.Context) error {
	_, err := q.db.ExecContext(ctx, deleteAllRuns)
	return err
}
