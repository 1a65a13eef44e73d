package inmemory

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetSetDelete(t *testing.T) {
	t.Parallel()

	s := NewStore()

	v, err := s.Get([]byte("missing"))
	require.NoError(t, err)
	assert.Nil(t, v, "missing key should return a nil value")

	require.NoError(t, s.Set([]byte("lastDeviceNotification"), []byte(`{"deviceId":"a"}`)))
	require.NoError(t, s.Set([]byte("lastDeviceNotification"), []byte(`{"deviceId":"b"}`)))

	v, err = s.Get([]byte("lastDeviceNotification"))
	require.NoError(t, err)
	assert.Equal(t, `{"deviceId":"b"}`, string(v), "later writes should win")

	require.NoError(t, s.Delete([]byte("lastDeviceNotification"), []byte("missing")))
	v, err = s.Get([]byte("lastDeviceNotification"))
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestSet_BlankKey(t *testing.T) {
	t.Parallel()

	s := NewStore()
	require.Error(t, s.Set([]byte(""), []byte("value")))
}

func TestSet_CopiesValue(t *testing.T) {
	t.Parallel()

	s := NewStore()
	value := []byte("original")
	require.NoError(t, s.Set([]byte("k"), value))
	value[0] = 'X'

	v, err := s.Get([]byte("k"))
	require.NoError(t, err)
	assert.Equal(t, "original", string(v))
}

func TestForEach(t *testing.T) {
	t.Parallel()

	s := NewStore()
	for _, k := range []string{"one", "two", "three"} {
		require.NoError(t, s.Set([]byte(k), []byte(k+"_value")))
	}

	seen := make([]string, 0)
	require.NoError(t, s.ForEach(func(k, v []byte) error {
		seen = append(seen, string(k))
		assert.Equal(t, string(k)+"_value", string(v))
		return nil
	}))
	assert.Equal(t, []string{"one", "two", "three"}, seen, "iteration follows insertion order")

	stop := errors.New("stop")
	count := 0
	err := s.ForEach(func(k, v []byte) error {
		count++
		return stop
	})
	require.ErrorIs(t, err, stop)
	assert.Equal(t, 1, count)
}

func TestNilStore(t *testing.T) {
	t.Parallel()

	var s *inMemoryKeyValueStore
	_, err := s.Get([]byte("k"))
	require.Error(t, err)
	require.Error(t, s.Set([]byte("k"), nil))
	require.Error(t, s.Delete([]byte("k")))
	require.Error(t, s.ForEach(func(k, v []byte) error { return nil }))
}
