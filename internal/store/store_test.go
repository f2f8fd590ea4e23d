package store

import (
	"context"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofrs/flock"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type record struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(t.TempDir())
	require.NoError(t, err)
	return s
}

func TestReadMissingCollection(t *testing.T) {
	s := newTestStore(t)
	var recs []record
	require.NoError(t, s.Read(context.Background(), "products", &recs))
	assert.Empty(t, recs)
	assert.False(t, s.Exists("products"))
}

func TestWriteFormatsDocument(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	in := []record{{ID: 1, Name: "Хлор <шок> & co"}}
	require.NoError(t, s.Write(ctx, "products", in))
	assert.True(t, s.Exists("products"))

	raw, err := os.ReadFile(s.Path("products"))
	require.NoError(t, err)
	text := string(raw)
	assert.Contains(t, text, "Хлор <шок> & co")
	assert.Contains(t, text, "\n        \"id\": 1")
	assert.NotContains(t, text, `\u`)

	var out []record
	require.NoError(t, s.Read(ctx, "products", &out))
	assert.Equal(t, in, out)

	// no temp files left behind
	entries, err := os.ReadDir(s.Dir())
	require.NoError(t, err)
	for _, e := range entries {
		assert.False(t, strings.HasSuffix(e.Name(), ".tmp"), e.Name())
	}
}

func TestUpdateConcurrentWritersDoNotLoseChanges(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 40; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			var recs []record
			err := s.Update(ctx, "products", &recs, func() error {
				recs = append(recs, record{ID: int64(len(recs) + 1)})
				return nil
			})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	var recs []record
	require.NoError(t, s.Read(ctx, "products", &recs))
	require.Len(t, recs, 40)
	for i, r := range recs {
		assert.Equal(t, int64(i+1), r.ID)
	}
}

func TestUpdateAbortsWithoutWriting(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.Write(ctx, "categories", []record{{ID: 1, Name: "a"}}))

	boom := errors.New("boom")
	var recs []record
	err := s.Update(ctx, "categories", &recs, func() error {
		recs = nil
		return boom
	})
	assert.ErrorIs(t, err, boom)

	recs = nil
	err = s.Update(ctx, "categories", &recs, func() error {
		recs = append(recs, record{ID: 2})
		return ErrSkipWrite
	})
	assert.NoError(t, err)

	var out []record
	require.NoError(t, s.Read(ctx, "categories", &out))
	assert.Equal(t, []record{{ID: 1, Name: "a"}}, out)
}

func TestCorruptDocumentIsStorageFault(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, os.WriteFile(s.Path("settings"), []byte("{not json"), 0o644))

	var m map[string]interface{}
	err := s.Read(context.Background(), "settings", &m)
	assert.ErrorIs(t, err, ErrStorage)
}

func TestLockTimeoutIsStorageFault(t *testing.T) {
	s := newTestStore(t)
	held := flock.New(s.lockPath("products"))
	require.NoError(t, held.Lock())
	defer held.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Millisecond)
	defer cancel()
	err := s.Write(ctx, "products", []record{})
	assert.ErrorIs(t, err, ErrStorage)
	assert.False(t, s.Exists("products"))
}

func TestInvalidCollectionName(t *testing.T) {
	s := newTestStore(t)
	var v []record
	assert.ErrorIs(t, s.Read(context.Background(), "../etc/passwd", &v), ErrStorage)
	assert.ErrorIs(t, s.Write(context.Background(), "", v), ErrStorage)
}
