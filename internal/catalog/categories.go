package catalog

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/aquahimiya/catalogd/internal/domain"
	"github.com/aquahimiya/catalogd/internal/store"
	"github.com/aquahimiya/catalogd/pkg/common"
)

// CategoryInput is the payload accepted by create and update.
type CategoryInput struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Icon string `json:"icon"`
}

func (in *CategoryInput) normalize() {
	in.ID = strings.TrimSpace(in.ID)
	in.Name = strings.TrimSpace(in.Name)
	in.Icon = strings.TrimSpace(in.Icon)
	if in.Icon == "" {
		in.Icon = domain.DefaultCategoryIcon
	}
}

type CategoryRepository struct {
	store    *store.Store
	products *ProductRepository
	events   Publisher
}

func NewCategoryRepository(st *store.Store, products *ProductRepository, events Publisher) *CategoryRepository {
	return &CategoryRepository{store: st, products: products, events: publisherOrNop(events)}
}

func (r *CategoryRepository) List(ctx context.Context) ([]domain.Category, error) {
	var cats []domain.Category
	if err := r.store.Read(ctx, domain.TableCategories, &cats); err != nil {
		return nil, errors.Wrap(err, "list categories")
	}
	if cats == nil {
		cats = []domain.Category{}
	}
	return cats, nil
}

// Create adds a category whose id is the slug of the supplied id, or of the
// name when no id is given.
func (r *CategoryRepository) Create(ctx context.Context, in CategoryInput) (*domain.Category, error) {
	in.normalize()
	if in.Name == "" {
		return nil, domain.Errorf(domain.ErrValidation, "Name required")
	}
	source := in.Name
	if in.ID != "" {
		source = in.ID
	}
	cat := domain.Category{
		ID:   common.SlugifyWithFallback(source, "category"),
		Name: in.Name,
		Icon: in.Icon,
	}
	if cat.ID == domain.CategoryAll {
		return nil, domain.Errorf(domain.ErrValidation, "Category id %q is reserved", domain.CategoryAll)
	}

	var cats []domain.Category
	err := r.store.Update(ctx, domain.TableCategories, &cats, func() error {
		for _, c := range cats {
			if c.ID == cat.ID {
				return domain.Errorf(domain.ErrValidation, "Category already exists")
			}
		}
		cats = append(cats, cat)
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "create category")
	}
	publish(r.events, Event{Topic: TopicCategoryCreated, ID: cat.ID, Name: cat.Name})
	return &cat, nil
}

// Update renames a category and replaces its icon.
func (r *CategoryRepository) Update(ctx context.Context, in CategoryInput) error {
	in.normalize()
	if in.ID == "" || in.Name == "" {
		return domain.Errorf(domain.ErrValidation, "ID and name required")
	}
	if in.ID == domain.CategoryAll {
		return domain.Errorf(domain.ErrValidation, "Category %q cannot be modified", domain.CategoryAll)
	}

	var cats []domain.Category
	err := r.store.Update(ctx, domain.TableCategories, &cats, func() error {
		for i := range cats {
			if cats[i].ID == in.ID {
				cats[i].Name = in.Name
				cats[i].Icon = in.Icon
				return nil
			}
		}
		return domain.Errorf(domain.ErrNotFound, "Category not found")
	})
	if err != nil {
		return errors.Wrapf(err, "update category %s", in.ID)
	}
	publish(r.events, Event{Topic: TopicCategoryUpdated, ID: in.ID, Name: in.Name})
	return nil
}

// Delete removes a category and moves its products to the uncategorized
// sentinel. Products are never deleted. The two collections are written
// independently: the category goes first, so a failure while moving
// products leaves them pointing at a missing category.
func (r *CategoryRepository) Delete(ctx context.Context, id string) (int, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return 0, domain.Errorf(domain.ErrValidation, "ID required")
	}
	if id == domain.CategoryAll {
		return 0, domain.Errorf(domain.ErrValidation, "Category %q cannot be deleted", domain.CategoryAll)
	}

	var cats []domain.Category
	err := r.store.Update(ctx, domain.TableCategories, &cats, func() error {
		kept := cats[:0]
		for _, c := range cats {
			if c.ID != id {
				kept = append(kept, c)
			}
		}
		if len(kept) == len(cats) {
			return store.ErrSkipWrite
		}
		cats = kept
		return nil
	})
	if err != nil {
		return 0, errors.Wrapf(err, "delete category %s", id)
	}

	moved, err := r.products.ReassignCategory(ctx, id, domain.CategoryUncategorized)
	if err != nil {
		zap.L().Error("category deleted but products were not reassigned",
			zap.String("namespace", "catalog"),
			zap.String("category", id),
			zap.Error(err))
		return 0, err
	}
	publish(r.events, Event{Topic: TopicCategoryDeleted, ID: id, Affected: moved})
	return moved, nil
}
