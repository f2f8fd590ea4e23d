package app

import (
	"context"

	"go.uber.org/zap"

	"github.com/aquahimiya/catalogd/internal/domain"
	"github.com/aquahimiya/catalogd/internal/store"
)

// checkSettings writes the default settings document on a fresh install.
func (a *Application) checkSettings(ctx context.Context) {
	if a.store.Exists(domain.TableSettings) {
		return
	}
	if err := a.settings.EnsureDefaults(ctx); err != nil {
		zap.L().Error("failed to initialize default settings", zap.Error(err))
		return
	}
	zap.L().Info("initialized default settings")
}

// checkCollections creates empty product and category documents so the
// data directory is complete from the start.
func (a *Application) checkCollections(ctx context.Context) {
	for _, name := range []string{domain.TableProducts, domain.TableCategories} {
		if a.store.Exists(name) {
			continue
		}
		if err := a.store.Write(ctx, name, []interface{}{}); err != nil {
			zap.L().Error("failed to initialize collection", zap.String("collection", name), zap.Error(err))
			continue
		}
		zap.L().Info("initialized collection", zap.String("collection", name))
	}
}

// checkReservedCategories removes a persisted "all" category, which older
// data files may contain.
func (a *Application) checkReservedCategories(ctx context.Context) {
	removed := 0
	var cats []domain.Category
	err := a.store.Update(ctx, domain.TableCategories, &cats, func() error {
		kept := cats[:0]
		for _, c := range cats {
			if c.ID == domain.CategoryAll {
				removed++
				continue
			}
			kept = append(kept, c)
		}
		if removed == 0 {
			return store.ErrSkipWrite
		}
		cats = kept
		return nil
	})
	if err != nil {
		zap.L().Error("failed to check reserved categories", zap.Error(err))
		return
	}
	if removed > 0 {
		zap.L().Warn("removed reserved category from data file",
			zap.String("category", domain.CategoryAll),
			zap.Int("count", removed))
	}
}
