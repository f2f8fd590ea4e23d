package clientcache

import (
	"context"
	"sync"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/aquahimiya/catalogd/internal/domain"
)

// CurrentVersion is the cache schema version. Bump it when the record shape
// changes so that clients drop what they have cached.
const CurrentVersion = "3"

const defaultFetchTimeout = 15 * time.Second

type State int

const (
	StateEmpty State = iota
	StateSeeded
	StateSynced
)

func (s State) String() string {
	switch s {
	case StateSeeded:
		return "seeded"
	case StateSynced:
		return "synced"
	default:
		return "empty"
	}
}

// Remote is the authoritative catalog.
type Remote interface {
	FetchProducts(ctx context.Context) ([]domain.Product, error)
	FetchCategories(ctx context.Context) ([]domain.Category, error)
	FetchSettings(ctx context.Context) (map[string]interface{}, error)
}

type Options struct {
	// Version defaults to CurrentVersion.
	Version string
	// Remote may be nil, in which case the cache only ever holds the bundle
	// and local edits.
	Remote       Remote
	FetchTimeout time.Duration
}

// Cache is the client side copy of the catalog. Reads are served from local
// storage; the first read of a load starts a background fetch from Remote.
type Cache struct {
	storage Storage
	remote  Remote
	version string
	timeout time.Duration

	mu         sync.RWMutex
	loaded     bool
	generation uint64 // bumped by Reset
	state      State
	reseeds    int
	products   []domain.Product
	categories []domain.Category
	settings   domain.PublicSettings

	group singleflight.Group
	wg    sync.WaitGroup
}

func New(storage Storage, opts Options) *Cache {
	if opts.Version == "" {
		opts.Version = CurrentVersion
	}
	if opts.FetchTimeout <= 0 {
		opts.FetchTimeout = defaultFetchTimeout
	}
	return &Cache{
		storage: storage,
		remote:  opts.Remote,
		version: opts.Version,
		timeout: opts.FetchTimeout,
	}
}

func (c *Cache) Products() []domain.Product {
	c.access()
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]domain.Product(nil), c.products...)
}

func (c *Cache) Categories() []domain.Category {
	c.access()
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]domain.Category(nil), c.categories...)
}

func (c *Cache) Settings() domain.PublicSettings {
	c.access()
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.settings
}

func (c *Cache) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// Reseeds counts the loads that had to fall back to the bundle.
func (c *Cache) Reseeds() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.reseeds
}

// SetProducts replaces the cached products. Duplicate ids are dropped,
// keeping the first occurrence.
func (c *Cache) SetProducts(products []domain.Product) error {
	c.access()
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.storeProducts(products)
}

func (c *Cache) SetCategories(cats []domain.Category) error {
	c.access()
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.storeCategories(cats)
}

// Reset discards everything cached together with the version marker. The
// next access reseeds and resyncs.
func (c *Cache) Reset() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.storage.Delete(cacheKeys...); err != nil {
		return errors.Wrap(err, "reset cache")
	}
	c.generation++
	c.group.Forget("refresh")
	c.loaded = false
	c.state = StateEmpty
	c.products = nil
	c.categories = nil
	c.settings = domain.PublicSettings{}
	return nil
}

// Refresh fetches the remote catalog and folds it into the cache. Remote
// records replace local ones with the same id; local-only records are kept.
// Concurrent calls share one fetch. Failures leave the cache as it was.
func (c *Cache) Refresh(ctx context.Context) error {
	c.load()
	if c.remote == nil {
		return errors.New("no remote configured")
	}
	_, err, _ := c.group.Do("refresh", func() (interface{}, error) {
		return nil, c.refresh(ctx)
	})
	return err
}

// Wait blocks until background fetches started by reads have finished.
func (c *Cache) Wait() {
	c.wg.Wait()
}

func (c *Cache) access() {
	if first := c.load(); first && c.remote != nil {
		c.wg.Add(1)
		go func() {
			defer c.wg.Done()
			ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
			defer cancel()
			_ = c.Refresh(ctx)
		}()
	}
}

// load fills the in-memory copy from storage once per load. Stale or
// missing entries are reseeded from the bundle. It reports whether this
// call did the loading.
func (c *Cache) load() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.loaded {
		return false
	}
	c.loaded = true
	c.state = StateSeeded

	reseeded := false
	if !c.readKey(KeyProducts, &c.products) {
		reseeded = true
		products, err := BundledProducts()
		if err != nil {
			logger().Error("load bundled products failed", zap.Error(err))
		}
		if err := c.storeProducts(products); err != nil {
			logger().Error("persist bundled products failed", zap.Error(err))
		}
	}
	if !c.readKey(KeyCategories, &c.categories) {
		reseeded = true
		cats, err := BundledCategories()
		if err != nil {
			logger().Error("load bundled categories failed", zap.Error(err))
		}
		if err := c.storeCategories(cats); err != nil {
			logger().Error("persist bundled categories failed", zap.Error(err))
		}
	}
	var stored map[string]interface{}
	if !c.readKey(KeySettings, &stored) {
		reseeded = true
	}
	if err := c.storeSettings(stored); err != nil {
		logger().Error("persist settings failed", zap.Error(err))
	}

	if reseeded {
		c.reseeds++
		logger().Info("cache reseeded from bundle",
			zap.String("version", c.version),
			zap.Int("products", len(c.products)),
			zap.Int("categories", len(c.categories)))
	}
	return true
}

// readKey decodes key into dest when it was written under the current
// version. Anything else is wiped.
func (c *Cache) readKey(key string, dest interface{}) bool {
	raw, err := c.storage.Get(key)
	if err != nil {
		logger().Warn("read cache entry failed", zap.String("key", key), zap.Error(err))
	}
	if decodeEnvelope(raw, c.version, dest) {
		return true
	}
	if raw != nil {
		if err := c.storage.Delete(key); err != nil {
			logger().Warn("wipe stale cache entry failed", zap.String("key", key), zap.Error(err))
		}
	}
	return false
}

func (c *Cache) refresh(ctx context.Context) error {
	c.mu.RLock()
	gen := c.generation
	c.mu.RUnlock()

	// apply stores a fetched result unless Reset ran since the fetch began.
	apply := func(store func() error) error {
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.generation != gen || !c.loaded {
			return nil
		}
		return store()
	}

	var errs error

	products, err := c.remote.FetchProducts(ctx)
	if err == nil {
		err = apply(func() error {
			return c.storeProducts(MergeProducts(products, Overwrite(c.products, products, productID)))
		})
	}
	errs = multierr.Append(errs, errors.Wrap(err, "products"))

	cats, err := c.remote.FetchCategories(ctx)
	if err == nil {
		err = apply(func() error {
			return c.storeCategories(Merge(cats, Overwrite(c.categories, cats, categoryID), categoryID))
		})
	}
	errs = multierr.Append(errs, errors.Wrap(err, "categories"))

	settings, err := c.remote.FetchSettings(ctx)
	if err == nil {
		err = apply(func() error { return c.storeSettings(settings) })
	}
	errs = multierr.Append(errs, errors.Wrap(err, "settings"))

	c.mu.Lock()
	stale := c.generation != gen || !c.loaded
	if !stale {
		c.state = StateSynced
	}
	c.mu.Unlock()

	if stale {
		logger().Info("cache was reset during refresh, result dropped")
		return errs
	}
	if errs != nil {
		logger().Warn("remote refresh failed, keeping cached catalog", zap.Error(errs))
		return errs
	}
	logger().Info("cache synced",
		zap.Int("products", len(products)),
		zap.Int("categories", len(cats)))
	return nil
}

// The store* helpers expect c.mu to be held.

func (c *Cache) storeProducts(products []domain.Product) error {
	clean := DedupeBy(products, productID)
	for i := range clean {
		clean[i].Normalize()
	}
	c.products = clean
	return c.put(KeyProducts, clean)
}

func (c *Cache) storeCategories(cats []domain.Category) error {
	clean := DedupeBy(cats, categoryID)
	c.categories = clean
	return c.put(KeyCategories, clean)
}

// storeSettings lays values over the default public settings.
func (c *Cache) storeSettings(values map[string]interface{}) error {
	merged := domain.DefaultPublicSettings()
	if len(values) > 0 {
		dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
			TagName:          "json",
			WeaklyTypedInput: true,
			Result:           &merged,
		})
		if err != nil {
			return err
		}
		if err := dec.Decode(values); err != nil {
			return errors.Wrap(err, "decode settings")
		}
	}
	c.settings = merged
	return c.put(KeySettings, merged)
}

func (c *Cache) put(key string, data interface{}) error {
	raw, err := encodeEnvelope(c.version, data)
	if err != nil {
		return err
	}
	return errors.Wrapf(c.storage.Put(key, raw), "write cache entry %s", key)
}

func logger() *zap.Logger {
	return zap.L().With(zap.String("namespace", "clientcache"))
}
