package agentbbolt

import (
	"bytes"
	"fmt"
	"testing"
	"time"

	"github.com/go-kit/kit/log"
	"github.com/mofumofu/notifyhelper/pkg/agent/storage"
	"github.com/mofumofu/notifyhelper/pkg/agent/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.etcd.io/bbolt"
)

func setupDB(t *testing.T) *bbolt.DB {
	db, err := OpenDB(t.TempDir(), DefaultLockTimeout)
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, db.Close())
	})

	return db
}

func Test_GetSet(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		sets []map[string]string
		want map[string]string
	}{
		{
			name: "empty",
			sets: []map[string]string{},
			want: map[string]string{},
		},
		{
			name: "single",
			sets: []map[string]string{{"lastDeviceNotification": "one"}},
			want: map[string]string{"lastDeviceNotification": "one"},
		},
		{
			name: "overwrite",
			sets: []map[string]string{
				{"lastDeviceNotification": "one"},
				{"lastDeviceNotification": "two"},
			},
			want: map[string]string{"lastDeviceNotification": "two"},
		},
		{
			name: "multiple",
			sets: []map[string]string{{"one": "1", "two": "2", "three": "3"}},
			want: map[string]string{"one": "1", "two": "2", "three": "3"},
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			store, err := NewStore(log.NewNopLogger(), setupDB(t), tt.name)
			require.NoError(t, err)

			for _, set := range tt.sets {
				for k, v := range set {
					require.NoError(t, store.Set([]byte(k), []byte(v)))
				}
			}

			kvps, err := getKeyValueRows(store)
			require.NoError(t, err)
			assert.Equal(t, tt.want, kvps)

			for k, v := range tt.want {
				got, err := store.Get([]byte(k))
				require.NoError(t, err)
				assert.Equal(t, []byte(v), got)
			}
		})
	}
}

func Test_Delete(t *testing.T) {
	t.Parallel()

	store, err := NewStore(log.NewNopLogger(), setupDB(t), "delete")
	require.NoError(t, err)

	require.NoError(t, store.Set([]byte("k"), []byte("v")))
	require.NoError(t, store.Delete([]byte("k"), []byte("never-set")))

	got, err := store.Get([]byte("k"))
	require.NoError(t, err)
	assert.Nil(t, got)
}

func Test_BlankKey(t *testing.T) {
	t.Parallel()

	store, err := NewStore(log.NewNopLogger(), setupDB(t), "blank")
	require.NoError(t, err)
	require.Error(t, store.Set([]byte(""), []byte("v")))
}

func Test_NilDb(t *testing.T) {
	t.Parallel()

	_, err := NewStore(log.NewNopLogger(), nil, "nil")
	require.ErrorIs(t, err, NoDbError{})

	var store *bboltKeyValueStore
	_, err = store.Get([]byte("k"))
	require.ErrorIs(t, err, NoDbError{})
}

func Test_MakeStores(t *testing.T) {
	t.Parallel()

	stores, err := MakeStores(log.NewNopLogger(), setupDB(t))
	require.NoError(t, err)

	for _, name := range storage.AllStores {
		require.Contains(t, stores, name)
	}

	require.NoError(t, stores[storage.DeviceNotificationsStore].Set([]byte("k"), []byte("v")))
}

func getKeyValueRows(store types.KVStore) (map[string]string, error) {
	results := make(map[string]string)

	if err := store.ForEach(func(k, v []byte) error {
		results[string(k)] = string(v)
		return nil
	}); err != nil {
		return nil, fmt.Errorf("fetching data: %w", err)
	}

	return results, nil
}

func TestOpenDB_Locked(t *testing.T) {
	t.Parallel()

	rootDir := t.TempDir()
	db, err := OpenDB(rootDir, DefaultLockTimeout)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	start := time.Now()
	_, err = OpenDB(rootDir, 100*time.Millisecond)
	require.ErrorIs(t, err, ErrLocked)
	assert.True(t, time.Since(start) < 5*time.Second, "locked open should fail fast")

	require.NoError(t, db.Close())
	again, err := OpenDB(rootDir, 100*time.Millisecond)
	require.NoError(t, err)
	require.NoError(t, again.Close())
}

func TestOpenDB_RequiresTimeout(t *testing.T) {
	t.Parallel()

	_, err := OpenDB(t.TempDir(), 0)
	require.Error(t, err)
}

func TestSet_NilValueLogged(t *testing.T) {
	t.Parallel()

	var logBytes bytes.Buffer
	store, err := NewStore(log.NewLogfmtLogger(&logBytes), setupDB(t), "nilvalue")
	require.NoError(t, err)

	require.NoError(t, store.Set([]byte("k"), nil))
	v, err := store.Get([]byte("k"))
	require.NoError(t, err)
	assert.Nil(t, v)
	assert.Contains(t, logBytes.String(), "ignoring nil value")
	assert.Contains(t, logBytes.String(), "bucket=nilvalue")
}
