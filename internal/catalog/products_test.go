package catalog

import (
	"context"
	"math"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aquahimiya/catalogd/internal/domain"
	"github.com/aquahimiya/catalogd/internal/store"
)

func TestCreateProductAssignsIDAndSlug(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p, err := f.products.Create(ctx, map[string]interface{}{
		"name":     "  Хлор шок ",
		"price":    "1250.50",
		"category": "chemistry",
		"images":   []interface{}{"/a.jpg", "", "  "},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), p.ID)
	assert.Equal(t, "hlor-shok", p.Slug)
	assert.Equal(t, "Хлор шок", p.Name)
	assert.Equal(t, 1250.5, p.Price)
	assert.True(t, p.InStock)
	assert.False(t, p.Featured)
	assert.Nil(t, p.OldPrice)
	assert.Equal(t, []string{"/a.jpg"}, p.Images)
	assert.Equal(t, map[string]string{}, p.Characteristics)

	stored, err := f.products.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, p, stored)
	assert.Equal(t, []string{TopicProductCreated}, f.events.topics())
}

func TestCreateSameNameYieldsDistinctSlugs(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a, err := f.products.Create(ctx, map[string]interface{}{"name": "Pool Brush", "price": 10})
	require.NoError(t, err)
	b, err := f.products.Create(ctx, map[string]interface{}{"name": "Pool Brush", "price": 12})
	require.NoError(t, err)

	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, "pool-brush", a.Slug)
	assert.Equal(t, "pool-brush-2", b.Slug)

	// an explicit slug that collides is disambiguated too
	c, err := f.products.Create(ctx, map[string]interface{}{"name": "Other", "slug": "Pool Brush"})
	require.NoError(t, err)
	assert.Equal(t, "pool-brush-3", c.Slug)
}

func TestCreateProductValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.products.Create(ctx, map[string]interface{}{"name": "  ", "price": 5})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = f.products.Create(ctx, map[string]interface{}{"name": "X", "price": -1})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = f.products.Create(ctx, map[string]interface{}{"name": "X", "price": "cheap"})
	assert.ErrorIs(t, err, domain.ErrValidation)

	for _, v := range []interface{}{"NaN", "Inf", "-Inf", "1e400", math.NaN(), math.Inf(1)} {
		_, err = f.products.Create(ctx, map[string]interface{}{"name": "X", "price": v})
		assert.ErrorIs(t, err, domain.ErrValidation, "price %v", v)
		assert.NotErrorIs(t, err, store.ErrStorage, "price %v", v)

		_, err = f.products.Create(ctx, map[string]interface{}{"name": "X", "oldPrice": v})
		assert.ErrorIs(t, err, domain.ErrValidation, "oldPrice %v", v)
	}

	// nothing was written
	assert.False(t, f.store.Exists(domain.TableProducts))
}

func TestCreateProductCoercesLooseTypes(t *testing.T) {
	f := newFixture(t)
	p, err := f.products.Create(context.Background(), map[string]interface{}{
		"name":            "Test strips",
		"article":         float64(10045),
		"price":           "1 200",
		"oldPrice":        "1500",
		"inStock":         "false",
		"featured":        float64(1),
		"images":          "/one.jpg",
		"characteristics": map[string]interface{}{"Объём": float64(50), "Brand": "AquaDoctor"},
	})
	require.NoError(t, err)
	assert.Equal(t, "10045", p.Article)
	assert.Equal(t, float64(1200), p.Price)
	require.NotNil(t, p.OldPrice)
	assert.Equal(t, float64(1500), *p.OldPrice)
	assert.False(t, p.InStock)
	assert.True(t, p.Featured)
	assert.Equal(t, []string{"/one.jpg"}, p.Images)
	assert.Equal(t, map[string]string{"Объём": "50", "Brand": "AquaDoctor"}, p.Characteristics)
}

func TestUpdateProductMergesSuppliedFields(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	created, err := f.products.Create(ctx, map[string]interface{}{
		"name":        "Chlorine 5kg",
		"price":       100,
		"brand":       "Bayrol",
		"description": "granules",
		"featured":    true,
	})
	require.NoError(t, err)

	updated, err := f.products.Update(ctx, map[string]interface{}{
		"id":    float64(created.ID),
		"name":  "Chlorine 10kg",
		"slug":  "ignored",
		"price": 180,
	})
	require.NoError(t, err)

	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, "chlorine-5kg", updated.Slug)
	assert.Equal(t, "Chlorine 10kg", updated.Name)
	assert.Equal(t, float64(180), updated.Price)
	assert.Equal(t, "Bayrol", updated.Brand)
	assert.Equal(t, "granules", updated.Description)
	assert.True(t, updated.Featured)
}

func TestUpdateProductErrors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.products.Update(ctx, map[string]interface{}{"name": "x"})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = f.products.Update(ctx, map[string]interface{}{"id": 42, "name": "x"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Equal(t, "Product not found", domain.Message(err, ""))

	created, err := f.products.Create(ctx, map[string]interface{}{"name": "Keep"})
	require.NoError(t, err)
	_, err = f.products.Update(ctx, map[string]interface{}{"id": created.ID, "name": ""})
	assert.ErrorIs(t, err, domain.ErrValidation)

	for _, v := range []interface{}{"NaN", "Inf", math.Inf(-1)} {
		_, err = f.products.Update(ctx, map[string]interface{}{"id": created.ID, "price": v})
		assert.ErrorIs(t, err, domain.ErrValidation, "price %v", v)
		_, err = f.products.Update(ctx, map[string]interface{}{"id": created.ID, "oldPrice": v})
		assert.ErrorIs(t, err, domain.ErrValidation, "oldPrice %v", v)
	}

	stored, err := f.products.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Keep", stored.Name)
}

func TestToggleProductFlags(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	created, err := f.products.Create(ctx, map[string]interface{}{"name": "Pump"})
	require.NoError(t, err)

	p, err := f.products.ToggleStock(ctx, created.ID)
	require.NoError(t, err)
	assert.False(t, p.InStock)

	p, err = f.products.ToggleFeatured(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, p.Featured)
	assert.False(t, p.InStock)

	_, err = f.products.ToggleStock(ctx, 999)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDeleteProduct(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a, err := f.products.Create(ctx, map[string]interface{}{"name": "A"})
	require.NoError(t, err)
	b, err := f.products.Create(ctx, map[string]interface{}{"name": "B"})
	require.NoError(t, err)

	require.NoError(t, f.products.Delete(ctx, a.ID))
	require.NoError(t, f.products.Delete(ctx, a.ID))
	assert.ErrorIs(t, f.products.Delete(ctx, 0), domain.ErrValidation)

	list, err := f.products.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, b.ID, list[0].ID)

	// ids keep growing from the current maximum
	c, err := f.products.Create(ctx, map[string]interface{}{"name": "C"})
	require.NoError(t, err)
	assert.Equal(t, b.ID+1, c.ID)
}

func TestListEmptyIsNotNil(t *testing.T) {
	f := newFixture(t)
	list, err := f.products.List(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)
}

func TestListToleratesEmptyCharacteristicsArray(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	doc := `[{"id":1,"slug":"a","name":"A","price":10,"characteristics":[]}]`
	require.NoError(t, os.WriteFile(f.store.Path(domain.TableProducts), []byte(doc), 0o644))

	products, err := f.products.List(ctx)
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, map[string]string{}, products[0].Characteristics)

	created, err := f.products.Create(ctx, map[string]interface{}{"name": "B"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), created.ID)
}
