// Package agentsqlite provides a key/value store backed by a sqlite database. Every store
// shares the same database file and table; rows are partitioned by store name.
package agentsqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
	"github.com/mofumofu/notifyhelper/pkg/agent/storage"
	"github.com/mofumofu/notifyhelper/pkg/agent/types"
)

const dbFileName = "notifyhelper.sqlite"

const createTableQuery = `
CREATE TABLE IF NOT EXISTS keyvalue (
	store TEXT NOT NULL,
	name BLOB NOT NULL,
	value BLOB,
	PRIMARY KEY (store, name)
);`

type sqliteStore struct {
	conn      *sql.DB
	storeName string
}

func dbLocation(rootDirectory string) string {
	return filepath.Join(rootDirectory, dbFileName)
}

// OpenDB opens the sqlite database under rootDirectory and ensures the schema exists.
func OpenDB(ctx context.Context, rootDirectory string) (*sql.DB, error) {
	if err := os.MkdirAll(rootDirectory, 0700); err != nil {
		return nil, fmt.Errorf("creating root directory: %w", err)
	}

	conn, err := sql.Open("sqlite3", dbLocation(rootDirectory))
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	// sqlite only supports one writer
	conn.SetMaxOpenConns(1)

	if _, err := conn.ExecContext(ctx, createTableQuery); err != nil {
		conn.Close()
		return nil, fmt.Errorf("creating keyvalue table: %w", err)
	}

	return conn, nil
}

func NewStore(conn *sql.DB, storeName string) (*sqliteStore, error) {
	if conn == nil {
		return nil, errors.New("sqlite db is nil")
	}

	return &sqliteStore{
		conn:      conn,
		storeName: storeName,
	}, nil
}

// MakeStores creates all the KVStores used by the helper
func MakeStores(conn *sql.DB) (map[storage.Store]types.KVStore, error) {
	stores := make(map[storage.Store]types.KVStore)

	for _, storeName := range storage.AllStores {
		store, err := NewStore(conn, storeName.String())
		if err != nil {
			return nil, fmt.Errorf("failed to create '%s' KVStore: %w", storeName, err)
		}

		stores[storeName] = store
	}

	return stores, nil
}

func (s *sqliteStore) Get(key []byte) (value []byte, err error) {
	if s == nil || s.conn == nil {
		return nil, errors.New("store is nil")
	}

	err = s.conn.QueryRow(`SELECT value FROM keyvalue WHERE store = ? AND name = ?;`, s.storeName, key).Scan(&value)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, nil
	case err != nil:
		return nil, fmt.Errorf("querying %s key: %w", string(key), err)
	}

	return value, nil
}

func (s *sqliteStore) Set(key, value []byte) error {
	if s == nil || s.conn == nil {
		return errors.New("store is nil")
	}

	if len(key) == 0 {
		return errors.New("key is blank")
	}

	if _, err := s.conn.Exec(
		`INSERT INTO keyvalue (store, name, value) VALUES (?, ?, ?)
		ON CONFLICT (store, name) DO UPDATE SET value = excluded.value;`,
		s.storeName, key, value,
	); err != nil {
		return fmt.Errorf("error setting %s key: %w", string(key), err)
	}

	return nil
}

func (s *sqliteStore) Delete(keys ...[]byte) error {
	if s == nil || s.conn == nil {
		return errors.New("store is nil")
	}

	for _, key := range keys {
		if _, err := s.conn.Exec(`DELETE FROM keyvalue WHERE store = ? AND name = ?;`, s.storeName, key); err != nil {
			return fmt.Errorf("error deleting %s key: %w", string(key), err)
		}
	}

	return nil
}

func (s *sqliteStore) ForEach(fn func(k, v []byte) error) error {
	if s == nil || s.conn == nil {
		return errors.New("store is nil")
	}

	rows, err := s.conn.Query(`SELECT name, value FROM keyvalue WHERE store = ? ORDER BY name;`, s.storeName)
	if err != nil {
		return fmt.Errorf("querying keys: %w", err)
	}
	defer rows.Close()

	// Collect first so fn never runs while the single connection is busy
	type kv struct{ k, v []byte }
	pairs := make([]kv, 0)
	for rows.Next() {
		var pair kv
		if err := rows.Scan(&pair.k, &pair.v); err != nil {
			return fmt.Errorf("scanning row: %w", err)
		}
		pairs = append(pairs, pair)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterating rows: %w", err)
	}

	for _, pair := range pairs {
		if err := fn(pair.k, pair.v); err != nil {
			return err
		}
	}

	return nil
}
