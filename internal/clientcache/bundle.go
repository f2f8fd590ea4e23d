package clientcache

import (
	"embed"

	"github.com/pkg/errors"

	"github.com/aquahimiya/catalogd/internal/domain"
)

//go:embed bundle/*.json
var bundleFS embed.FS

// BundledProducts is the static catalog shipped with the binary. A cache is
// seeded from it before the first remote fetch.
func BundledProducts() ([]domain.Product, error) {
	var products []domain.Product
	if err := readBundle("bundle/products.json", &products); err != nil {
		return nil, err
	}
	for i := range products {
		products[i].Normalize()
	}
	return DedupeBy(products, productID), nil
}

func BundledCategories() ([]domain.Category, error) {
	var cats []domain.Category
	if err := readBundle("bundle/categories.json", &cats); err != nil {
		return nil, err
	}
	for i := range cats {
		if cats[i].Icon == "" {
			cats[i].Icon = domain.DefaultCategoryIcon
		}
	}
	return DedupeBy(cats, categoryID), nil
}

func readBundle(name string, dest interface{}) error {
	data, err := bundleFS.ReadFile(name)
	if err != nil {
		return errors.Wrapf(err, "read bundle %s", name)
	}
	return errors.Wrapf(jsonCodec.Unmarshal(data, dest), "decode bundle %s", name)
}
