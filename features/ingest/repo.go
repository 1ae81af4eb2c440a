package ingest

import (
	"context"
	"database/sql"
	"errors"
)

// PostgresStore is the durable Store implementation. Status guards live in
// the WHERE clauses so transitions stay linearizable under concurrent polls.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (r *PostgresStore) Create(ctx context.Context, name string) (*File, error) {
	f := &File{Name: name, Status: StatusProcessing}
	query := `INSERT INTO ingest_files (name, status) VALUES ($1, $2) RETURNING id, created_at`
	if err := r.db.QueryRowContext(ctx, query, name, StatusProcessing).Scan(&f.FileID, &f.CreatedAt); err != nil {
		return nil, err
	}
	return f, nil
}

func (r *PostgresStore) Advance(ctx context.Context, fileID string, chunkCount int) error {
	query := `UPDATE ingest_files
		SET chunk_count = GREATEST(chunk_count, $2), updated_at = NOW()
		WHERE id = $1 AND status = $3`
	res, err := r.db.ExecContext(ctx, query, fileID, chunkCount, StatusProcessing)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return r.missReason(ctx, fileID, "")
	}
	return nil
}

func (r *PostgresStore) Complete(ctx context.Context, fileID string, finalChunkCount int) error {
	query := `UPDATE ingest_files
		SET status = $2, chunk_count = $3, reason = '', updated_at = NOW()
		WHERE id = $1 AND status IN ($4, $2)`
	res, err := r.db.ExecContext(ctx, query, fileID, StatusReady, finalChunkCount, StatusProcessing)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return r.missReason(ctx, fileID, StatusFailed)
	}
	return nil
}

func (r *PostgresStore) Fail(ctx context.Context, fileID, reason string) error {
	query := `UPDATE ingest_files
		SET status = $2, reason = $3, updated_at = NOW()
		WHERE id = $1 AND status IN ($4, $2)`
	res, err := r.db.ExecContext(ctx, query, fileID, StatusFailed, reason, StatusProcessing)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return r.missReason(ctx, fileID, StatusReady)
	}
	return nil
}

// missReason disambiguates a zero-row update: the record is either absent,
// terminal, or in the one terminal state that contradicts the caller.
func (r *PostgresStore) missReason(ctx context.Context, fileID string, conflicting Status) error {
	var status Status
	err := r.db.QueryRowContext(ctx, `SELECT status FROM ingest_files WHERE id = $1`, fileID).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	if conflicting != "" && status == conflicting {
		return ErrConflict
	}
	return ErrTerminal
}

func (r *PostgresStore) Get(ctx context.Context, fileID string) (*File, error) {
	f := &File{}
	query := `SELECT id, name, status, chunk_count, reason, created_at FROM ingest_files WHERE id = $1`
	err := r.db.QueryRowContext(ctx, query, fileID).Scan(&f.FileID, &f.Name, &f.Status, &f.ChunkCount, &f.Reason, &f.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return f, nil
}

func (r *PostgresStore) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM ingest_files`).Scan(&count)
	return count, err
}
