package app

import (
	"context"
	"time"
	_ "time/tzdata"

	"github.com/asaskevich/EventBus"
	"github.com/panjf2000/ants/v2"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/aquahimiya/catalogd/config"
	"github.com/aquahimiya/catalogd/internal/auth"
	"github.com/aquahimiya/catalogd/internal/catalog"
	"github.com/aquahimiya/catalogd/internal/store"
)

type Application struct {
	appConfig  *config.AppConfig
	store      *store.Store
	bus        EventBus.Bus
	pool       *ants.Pool
	products   *catalog.ProductRepository
	categories *catalog.CategoryRepository
	settings   *catalog.SettingsRepository
	auth       *auth.Service
}

// Ensure Application implements all interfaces
var (
	_ ConfigProvider     = (*Application)(nil)
	_ RepositoryProvider = (*Application)(nil)
	_ AuthProvider       = (*Application)(nil)
	_ WorkerPoolProvider = (*Application)(nil)
	_ AppContext         = (*Application)(nil)
)

func NewApplication(appConfig *config.AppConfig) *Application {
	return &Application{appConfig: appConfig}
}

func (a *Application) Config() *config.AppConfig {
	return a.appConfig
}

func (a *Application) Products() *catalog.ProductRepository {
	return a.products
}

func (a *Application) Categories() *catalog.CategoryRepository {
	return a.categories
}

func (a *Application) Settings() *catalog.SettingsRepository {
	return a.settings
}

func (a *Application) Auth() *auth.Service {
	return a.auth
}

func (a *Application) WorkerPool() *ants.Pool {
	return a.pool
}

// Bus returns the in-process event bus the repositories publish on.
func (a *Application) Bus() EventBus.Bus {
	return a.bus
}

// Init wires the store, repositories and auth service and seeds the
// documents that must exist before the first request.
func (a *Application) Init() error {
	cfg := a.appConfig
	loc, err := time.LoadLocation(cfg.System.Location)
	if err != nil {
		zap.S().Error("timezone config error")
	} else {
		time.Local = loc
	}

	if err := cfg.InitDirs(); err != nil {
		return errors.Wrap(err, "create work dirs")
	}

	a.store, err = store.Open(cfg.GetDataDir())
	if err != nil {
		return err
	}
	zap.S().Infof("entity store ready at %s", a.store.Dir())

	a.bus = EventBus.New()
	a.subscribeAudit()

	a.products = catalog.NewProductRepository(a.store, a.bus)
	a.categories = catalog.NewCategoryRepository(a.store, a.products, a.bus)
	a.settings = catalog.NewSettingsRepository(a.store, a.bus, catalog.SettingsOptions{
		BootstrapPassword: cfg.Auth.BootstrapPassword,
		MinPasswordLen:    cfg.Auth.MinPasswordLen,
	})
	a.auth = auth.NewService(a.settings, auth.Options{
		BootstrapPassword: cfg.Auth.BootstrapPassword,
		TTL:               cfg.Auth.TokenTTL,
		FailDelay:         cfg.Auth.LoginFailDelay,
	})

	workers := cfg.Web.UploadWorkers
	if workers <= 0 {
		workers = 4
	}
	a.pool, err = ants.NewPool(workers, ants.WithPanicHandler(func(p interface{}) {
		zap.L().Error("worker panic", zap.Any("panic", p))
	}))
	if err != nil {
		return errors.Wrap(err, "create worker pool")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	a.checkSettings(ctx)
	a.checkCollections(ctx)
	a.checkReservedCategories(ctx)
	return nil
}

// subscribeAudit logs every catalog change.
func (a *Application) subscribeAudit() {
	handler := func(ev catalog.Event) {
		zap.L().Info("catalog change",
			zap.String("namespace", "audit"),
			zap.String("topic", ev.Topic),
			zap.String("id", ev.ID),
			zap.String("name", ev.Name),
			zap.Int("affected", ev.Affected))
	}
	for _, topic := range catalog.Topics {
		if err := a.bus.Subscribe(topic, handler); err != nil {
			zap.L().Error("subscribe audit handler failed", zap.String("topic", topic), zap.Error(err))
		}
	}
}

// Release releases application resources
func (a *Application) Release() {
	if a.pool != nil {
		a.pool.Release()
	}
	_ = zap.L().Sync()
}
