package catalog

import (
	"context"
	"fmt"
	"strconv"

	"github.com/pkg/errors"

	"github.com/aquahimiya/catalogd/internal/domain"
	"github.com/aquahimiya/catalogd/internal/store"
	"github.com/aquahimiya/catalogd/pkg/common"
)

type ProductRepository struct {
	store  *store.Store
	events Publisher
}

func NewProductRepository(st *store.Store, events Publisher) *ProductRepository {
	return &ProductRepository{store: st, events: publisherOrNop(events)}
}

// List returns every product in stored order.
func (r *ProductRepository) List(ctx context.Context) ([]domain.Product, error) {
	var products []domain.Product
	if err := r.store.Read(ctx, domain.TableProducts, &products); err != nil {
		return nil, errors.Wrap(err, "list products")
	}
	if products == nil {
		products = []domain.Product{}
	}
	for i := range products {
		products[i].Normalize()
	}
	return products, nil
}

func (r *ProductRepository) Get(ctx context.Context, id int64) (*domain.Product, error) {
	products, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range products {
		if products[i].ID == id {
			return &products[i], nil
		}
	}
	return nil, domain.Errorf(domain.ErrNotFound, "Product not found")
}

// Create stores a new product built from a loosely typed payload. The id is
// assigned here; the slug comes from the payload or the name and gets a
// "-<id>" suffix when another product already uses it.
func (r *ProductRepository) Create(ctx context.Context, in map[string]interface{}) (*domain.Product, error) {
	p := domain.NewProduct()
	if err := applyProductFields(p, in); err != nil {
		return nil, err
	}
	if p.Name == "" {
		return nil, domain.Errorf(domain.ErrValidation, "Name required")
	}
	requested, err := toText(in["slug"])
	if err != nil {
		return nil, domain.Errorf(domain.ErrValidation, "Invalid slug")
	}

	var products []domain.Product
	err = r.store.Update(ctx, domain.TableProducts, &products, func() error {
		ids := make([]interface{}, 0, len(products))
		taken := make(map[string]bool, len(products))
		for _, item := range products {
			ids = append(ids, item.ID)
			taken[item.Slug] = true
		}
		p.ID = common.NextID(ids...)

		base := p.Name
		if requested != "" {
			base = requested
		}
		p.Slug = uniqueSlug(common.Slugify(base), p.ID, taken)

		products = append(products, *p)
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "create product")
	}
	publish(r.events, Event{Topic: TopicProductCreated, ID: strconv.FormatInt(p.ID, 10), Name: p.Name})
	return p, nil
}

// Update merges the fields present in the payload over the stored product
// identified by in["id"]. id and slug never change.
func (r *ProductRepository) Update(ctx context.Context, in map[string]interface{}) (*domain.Product, error) {
	id := recordID(in["id"])
	if id == 0 {
		return nil, domain.Errorf(domain.ErrValidation, "ID required")
	}
	return r.modify(ctx, id, TopicProductUpdated, func(p *domain.Product) error {
		if err := applyProductFields(p, in); err != nil {
			return err
		}
		if p.Name == "" {
			return domain.Errorf(domain.ErrValidation, "Name required")
		}
		return nil
	})
}

// ToggleStock flips the inStock flag.
func (r *ProductRepository) ToggleStock(ctx context.Context, id int64) (*domain.Product, error) {
	return r.modify(ctx, id, TopicProductUpdated, func(p *domain.Product) error {
		p.InStock = !p.InStock
		return nil
	})
}

// ToggleFeatured flips the featured flag.
func (r *ProductRepository) ToggleFeatured(ctx context.Context, id int64) (*domain.Product, error) {
	return r.modify(ctx, id, TopicProductUpdated, func(p *domain.Product) error {
		p.Featured = !p.Featured
		return nil
	})
}

func (r *ProductRepository) modify(ctx context.Context, id int64, topic string, fn func(p *domain.Product) error) (*domain.Product, error) {
	var (
		products []domain.Product
		updated  domain.Product
	)
	err := r.store.Update(ctx, domain.TableProducts, &products, func() error {
		for i := range products {
			if products[i].ID != id {
				continue
			}
			p := products[i]
			if err := fn(&p); err != nil {
				return err
			}
			p.ID = products[i].ID
			p.Slug = products[i].Slug
			p.Normalize()
			products[i] = p
			updated = p
			return nil
		}
		return domain.Errorf(domain.ErrNotFound, "Product not found")
	})
	if err != nil {
		return nil, errors.Wrapf(err, "update product %d", id)
	}
	publish(r.events, Event{Topic: topic, ID: strconv.FormatInt(id, 10), Name: updated.Name})
	return &updated, nil
}

// Delete removes the product. Unknown ids are not an error.
func (r *ProductRepository) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return domain.Errorf(domain.ErrValidation, "ID required")
	}
	removed := false
	var products []domain.Product
	err := r.store.Update(ctx, domain.TableProducts, &products, func() error {
		kept := products[:0]
		for _, p := range products {
			if p.ID == id {
				removed = true
				continue
			}
			kept = append(kept, p)
		}
		if !removed {
			return store.ErrSkipWrite
		}
		products = kept
		return nil
	})
	if err != nil {
		return errors.Wrapf(err, "delete product %d", id)
	}
	if removed {
		publish(r.events, Event{Topic: TopicProductDeleted, ID: strconv.FormatInt(id, 10)})
	}
	return nil
}

// ReassignCategory points every product of category from at category to and
// returns how many products changed.
func (r *ProductRepository) ReassignCategory(ctx context.Context, from, to string) (int, error) {
	if from == to {
		return 0, nil
	}
	moved := 0
	var products []domain.Product
	err := r.store.Update(ctx, domain.TableProducts, &products, func() error {
		for i := range products {
			if products[i].Category == from {
				products[i].Category = to
				moved++
			}
		}
		if moved == 0 {
			return store.ErrSkipWrite
		}
		return nil
	})
	if err != nil {
		return 0, errors.Wrapf(err, "reassign category %s", from)
	}
	return moved, nil
}

func uniqueSlug(base string, id int64, taken map[string]bool) string {
	if !taken[base] {
		return base
	}
	slug := fmt.Sprintf("%s-%d", base, id)
	for n := 2; taken[slug]; n++ {
		slug = fmt.Sprintf("%s-%d-%d", base, id, n)
	}
	return slug
}
