// source: snapshots.sql

package dbgen

import (
	"context"
)

const createNextSnapshot = `-- name: CreateNextSnapshot :one
INSERT INTO snapshots (id, project_id, version, document)
SELECT $1, $2, COALESCE(MAX(version), 0) + 1, $3
FROM snapshots WHERE project_id = $2
RETURNING id, project_id, version, document, created_at
`

type CreateNextSnapshotParams struct {
	ID        string `json:"id"`
	ProjectID string `json:"project_id"`
	Document  []byte `json:"document"`
}

func (q *Queries) CreateNextSnapshot(ctx context.Context, arg CreateNextSnapshotParams) (Snapshot, error) {
	row := q.db.QueryRow(ctx, createNextSnapshot, arg.ID, arg.ProjectID, arg.Document)
	var i Snapshot
	err := row.Scan(
		&i.ID,
		&i.ProjectID,
		&i.Version,
		&i.Document,
		&i.CreatedAt,
	)
	return i, err
}

const getLatestSnapshot = `-- name: GetLatestSnapshot :one
SELECT id, project_id, version, document, created_at FROM snapshots
WHERE project_id = $1
ORDER BY version DESC
LIMIT 1
`

func (q *Queries) GetLatestSnapshot(ctx context.Context, projectID string) (Snapshot, error) {
	row := q.db.QueryRow(ctx, getLatestSnapshot, projectID)
	var i Snapshot
	err := row.Scan(
		&i.ID,
		&i.ProjectID,
		&i.Version,
		&i.Document,
		&i.CreatedAt,
	)
	return i, err
}
