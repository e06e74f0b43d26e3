package store

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// SQLite keeps the state keys in the kv table and mirrors the offers into
// their own table so they can be searched with SQL.
type SQLite struct {
	db *DB
}

func OpenSQLite(path string) (*SQLite, error) {
	db, err := Open(path)
	if err != nil {
		return nil, err
	}
	return &SQLite{db: db}, nil
}

func (s *SQLite) Pool() *sql.DB { return s.db.Pool }

func (s *SQLite) Close() error { return s.db.Close() }

func (s *SQLite) Get(ctx context.Context, key string) (string, bool, error) {
	var v string
	err := s.db.Pool.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ? LIMIT 1;`, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

func (s *SQLite) SetMany(ctx context.Context, pairs map[string]string) error {
	tx, err := s.db.Pool.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if err := setManyTx(ctx, tx, pairs); err != nil {
		return err
	}
	return tx.Commit()
}

func setManyTx(ctx context.Context, tx *sql.Tx, pairs map[string]string) error {
	now := time.Now().UTC().Format(time.RFC3339)
	for k, v := range pairs {
		if _, err := tx.ExecContext(ctx, `
INSERT INTO kv(key, value, updated_at) VALUES(?, ?, ?)
ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at;`,
			k, v, now); err != nil {
			return err
		}
	}
	return nil
}

// Checkpoint folds the WAL back into the main file.
func (s *SQLite) Checkpoint(ctx context.Context) error {
	_, err := s.db.Pool.ExecContext(ctx, `PRAGMA wal_checkpoint(FULL);`)
	return err
}
