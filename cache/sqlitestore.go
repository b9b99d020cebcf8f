package cache

import (
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"

	"modernc.org/sqlite"
)

// SQLiteStore is a Store backed by a single sqlite table, for use by a
// long-running server process where re-freezing the same grammar across
// restarts should be avoided.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (creating if necessary) a cache database file named
// "grammars.db" inside dataDir.
func NewSQLiteStore(dataDir string) (*SQLiteStore, error) {
	path := filepath.Join(dataDir, "grammars.db")

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, wrapDBError(err)
	}

	const schema = `
		CREATE TABLE IF NOT EXISTS frozen_grammars (
			key  TEXT PRIMARY KEY,
			data BLOB NOT NULL
		);
	`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", wrapDBError(err))
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Get(key string) ([]byte, bool, error) {
	row := s.db.QueryRow(`SELECT data FROM frozen_grammars WHERE key = ?`, key)

	var data []byte
	err := row.Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, wrapDBError(err)
	}
	return data, true, nil
}

func (s *SQLiteStore) Put(key string, data []byte) error {
	_, err := s.db.Exec(
		`INSERT INTO frozen_grammars (key, data) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET data = excluded.data`,
		key, data,
	)
	return wrapDBError(err)
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func wrapDBError(err error) error {
	if err == nil {
		return nil
	}
	sqliteErr := &sqlite.Error{}
	if errors.As(err, &sqliteErr) {
		return fmt.Errorf("%s", sqlite.ErrorCodeString[sqliteErr.Code()])
	}
	return err
}
