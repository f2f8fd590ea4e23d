package app

import (
	"github.com/panjf2000/ants/v2"

	"github.com/aquahimiya/catalogd/config"
	"github.com/aquahimiya/catalogd/internal/auth"
	"github.com/aquahimiya/catalogd/internal/catalog"
)

// ConfigProvider provides application configuration
type ConfigProvider interface {
	Config() *config.AppConfig
}

// RepositoryProvider provides the catalog repositories
type RepositoryProvider interface {
	Products() *catalog.ProductRepository
	Categories() *catalog.CategoryRepository
	Settings() *catalog.SettingsRepository
}

// AuthProvider provides the admin token service
type AuthProvider interface {
	Auth() *auth.Service
}

// WorkerPoolProvider provides the shared goroutine pool
type WorkerPoolProvider interface {
	WorkerPool() *ants.Pool
}

// AppContext combines all provider interfaces for full application context.
// Handlers should depend on this interface, not on *Application.
type AppContext interface {
	ConfigProvider
	RepositoryProvider
	AuthProvider
	WorkerPoolProvider
}
