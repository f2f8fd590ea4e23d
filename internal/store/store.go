// Package store persists named collections as one pretty-printed JSON
// document per collection under a data directory.
package store

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"
	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

var (
	// ErrStorage marks every lock, read, decode or write failure.
	ErrStorage = errors.New("storage fault")
	// ErrSkipWrite may be returned by an Update callback to end the cycle
	// without rewriting the document.
	ErrSkipWrite = errors.New("skip write")
)

// DefaultLockRetry is the poll interval while waiting on the file lock.
const DefaultLockRetry = 20 * time.Millisecond

// documents keep non-ASCII text and <, >, & as-is.
var jsonCodec = jsoniter.Config{
	EscapeHTML:             false,
	SortMapKeys:            true,
	ValidateJsonRawMessage: true,
}.Froze()

// Store is safe for concurrent use. Read-modify-write cycles on one
// collection are serialized in process by a mutex and across processes by
// an advisory lock file next to the document.
type Store struct {
	dir       string
	lockRetry time.Duration

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// Open prepares dir (creating it when missing) as a document directory.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrapf(ErrStorage, "create data dir %s: %v", dir, err)
	}
	return &Store{
		dir:       dir,
		lockRetry: DefaultLockRetry,
		locks:     make(map[string]*sync.Mutex),
	}, nil
}

func (s *Store) Dir() string {
	return s.dir
}

// Path returns the document path of a collection.
func (s *Store) Path(name string) string {
	return filepath.Join(s.dir, name+".json")
}

func (s *Store) lockPath(name string) string {
	return filepath.Join(s.dir, "."+name+".lock")
}

// Exists reports whether the collection document has been written.
func (s *Store) Exists(name string) bool {
	info, err := os.Stat(s.Path(name))
	return err == nil && !info.IsDir()
}

// Read decodes the collection into dest. A missing or empty document leaves
// dest untouched and is not an error.
func (s *Store) Read(ctx context.Context, name string, dest interface{}) error {
	if err := checkName(name); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return errors.Wrapf(ErrStorage, "read %s: %v", name, err)
	}
	return s.read(name, dest)
}

// Write replaces the whole document with v.
func (s *Store) Write(ctx context.Context, name string, v interface{}) error {
	if err := checkName(name); err != nil {
		return err
	}
	unlock, err := s.lock(ctx, name)
	if err != nil {
		return err
	}
	defer unlock()
	return s.write(name, v)
}

// Update runs a read-modify-write cycle under the collection lock: the
// document is decoded into dest, fn mutates dest, and dest is written back.
// An error from fn aborts the cycle with nothing written; ErrSkipWrite
// aborts it silently.
func (s *Store) Update(ctx context.Context, name string, dest interface{}, fn func() error) error {
	if err := checkName(name); err != nil {
		return err
	}
	unlock, err := s.lock(ctx, name)
	if err != nil {
		return err
	}
	defer unlock()

	if err := s.read(name, dest); err != nil {
		return err
	}
	if err := fn(); err != nil {
		if errors.Is(err, ErrSkipWrite) {
			return nil
		}
		return err
	}
	return s.write(name, dest)
}

func (s *Store) collectionMutex(name string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.locks[name]
	if !ok {
		m = &sync.Mutex{}
		s.locks[name] = m
	}
	return m
}

func (s *Store) lock(ctx context.Context, name string) (func(), error) {
	m := s.collectionMutex(name)
	m.Lock()

	fl := flock.New(s.lockPath(name))
	locked, err := fl.TryLockContext(ctx, s.lockRetry)
	if err != nil || !locked {
		m.Unlock()
		if err == nil {
			err = errors.New("lock not acquired")
		}
		return nil, errors.Wrapf(ErrStorage, "lock %s: %v", name, err)
	}
	return func() {
		if err := fl.Unlock(); err != nil {
			zap.L().Warn("release collection lock failed",
				zap.String("namespace", "store"),
				zap.String("collection", name),
				zap.Error(err))
		}
		m.Unlock()
	}, nil
}

func (s *Store) read(name string, dest interface{}) error {
	data, err := os.ReadFile(s.Path(name))
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return errors.Wrapf(ErrStorage, "read %s: %v", name, err)
	}
	if len(data) == 0 {
		return nil
	}
	if err := jsonCodec.Unmarshal(data, dest); err != nil {
		return errors.Wrapf(ErrStorage, "decode %s: %v", name, err)
	}
	return nil
}

func (s *Store) write(name string, v interface{}) error {
	data, err := jsonCodec.MarshalIndent(v, "", "    ")
	if err != nil {
		return errors.Wrapf(ErrStorage, "encode %s: %v", name, err)
	}
	data = append(data, '\n')

	tmp, err := os.CreateTemp(s.dir, "."+name+".*.tmp")
	if err != nil {
		return errors.Wrapf(ErrStorage, "write %s: %v", name, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return errors.Wrapf(ErrStorage, "write %s: %v", name, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return errors.Wrapf(ErrStorage, "sync %s: %v", name, err)
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrapf(ErrStorage, "write %s: %v", name, err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return errors.Wrapf(ErrStorage, "chmod %s: %v", name, err)
	}
	if err := os.Rename(tmpName, s.Path(name)); err != nil {
		return errors.Wrapf(ErrStorage, "replace %s: %v", name, err)
	}
	return nil
}

func checkName(name string) error {
	if name == "" {
		return errors.Wrap(ErrStorage, "empty collection name")
	}
	for _, r := range name {
		if !(r >= 'a' && r <= 'z') && !(r >= '0' && r <= '9') && r != '_' && r != '-' {
			return errors.Wrapf(ErrStorage, "invalid collection name %q", name)
		}
	}
	return nil
}
