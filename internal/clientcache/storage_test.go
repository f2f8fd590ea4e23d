package clientcache

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testStorage(t *testing.T, s Storage) {
	v, err := s.Get("missing")
	require.NoError(t, err)
	assert.Nil(t, v)

	require.NoError(t, s.Put("k", []byte("v1")))
	require.NoError(t, s.Put("k", []byte("v2")))
	v, err = s.Get("k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v2"), v)

	require.NoError(t, s.Delete("k", "missing"))
	v, err = s.Get("k")
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestMemoryStorage(t *testing.T) {
	testStorage(t, NewMemoryStorage())
}

func TestBoltStorage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")
	s, err := OpenBolt(path)
	require.NoError(t, err)
	testStorage(t, s)

	require.NoError(t, s.Put("kept", []byte("yes")))
	require.NoError(t, s.Close())

	s, err = OpenBolt(path)
	require.NoError(t, err)
	defer s.Close()
	v, err := s.Get("kept")
	require.NoError(t, err)
	assert.Equal(t, []byte("yes"), v)
}
