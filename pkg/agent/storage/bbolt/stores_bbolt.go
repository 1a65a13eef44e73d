package agentbbolt

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-kit/kit/log"
	"github.com/mofumofu/notifyhelper/pkg/agent/storage"
	"github.com/mofumofu/notifyhelper/pkg/agent/types"
	"go.etcd.io/bbolt"
)

const (
	dbFileName = "notifyhelper.db"

	// DefaultLockTimeout is how long a long-lived process waits for the database file lock.
	DefaultLockTimeout = 30 * time.Second
)

// ErrLocked is returned by OpenDB when another process holds the database file lock
// for longer than the lock timeout.
var ErrLocked = errors.New("bbolt db is locked by another process")

// OpenDB opens (creating if necessary) the bbolt database under rootDirectory. bbolt takes
// an exclusive file lock; lockTimeout bounds the wait for it and must be positive.
func OpenDB(rootDirectory string, lockTimeout time.Duration) (*bbolt.DB, error) {
	if lockTimeout <= 0 {
		return nil, fmt.Errorf("lock timeout must be positive, got %s", lockTimeout)
	}

	if err := os.MkdirAll(rootDirectory, 0700); err != nil {
		return nil, fmt.Errorf("creating root directory: %w", err)
	}

	dbPath := filepath.Join(rootDirectory, dbFileName)
	db, err := bbolt.Open(dbPath, 0600, &bbolt.Options{Timeout: lockTimeout})
	switch {
	case errors.Is(err, bbolt.ErrTimeout):
		return nil, fmt.Errorf("opening %s: %w", dbPath, ErrLocked)
	case err != nil:
		return nil, fmt.Errorf("opening bbolt db: %w", err)
	}

	return db, nil
}

// MakeStores creates all the KVStores used by the helper
func MakeStores(logger log.Logger, db *bbolt.DB) (map[storage.Store]types.KVStore, error) {
	stores := make(map[storage.Store]types.KVStore)

	for _, storeName := range storage.AllStores {
		store, err := NewStore(logger, db, storeName.String())
		if err != nil {
			return nil, fmt.Errorf("failed to create '%s' KVStore: %w", storeName, err)
		}

		stores[storeName] = store
	}

	return stores, nil
}
