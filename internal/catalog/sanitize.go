package catalog

import (
	"math"
	"strings"

	"github.com/spf13/cast"

	"github.com/aquahimiya/catalogd/internal/domain"
	"github.com/aquahimiya/catalogd/pkg/common"
)

// applyProductFields copies the fields present in in onto p, coercing
// loosely typed JSON values. Keys absent from in leave p unchanged; id and
// slug are never touched here.
func applyProductFields(p *domain.Product, in map[string]interface{}) error {
	strFields := map[string]*string{
		"name":            &p.Name,
		"category":        &p.Category,
		"brand":           &p.Brand,
		"article":         &p.Article,
		"specs":           &p.Specs,
		"description":     &p.Description,
		"fullDescription": &p.FullDescription,
		"unit":            &p.Unit,
	}
	for key, dst := range strFields {
		if v, ok := in[key]; ok {
			s, err := toText(v)
			if err != nil {
				return domain.Errorf(domain.ErrValidation, "Invalid %s", key)
			}
			*dst = s
		}
	}

	if v, ok := in["price"]; ok {
		price, err := toPrice(v)
		if err != nil {
			return domain.Errorf(domain.ErrValidation, "Price must be a non-negative number")
		}
		p.Price = price
	}
	if v, ok := in["oldPrice"]; ok {
		old, err := toOptionalPrice(v)
		if err != nil {
			return domain.Errorf(domain.ErrValidation, "Old price must be a non-negative number")
		}
		p.OldPrice = old
	}
	if v, ok := in["inStock"]; ok {
		p.InStock = toFlag(v, true)
	}
	if v, ok := in["featured"]; ok {
		p.Featured = toFlag(v, false)
	}
	if v, ok := in["images"]; ok {
		p.Images = toImages(v)
	}
	if v, ok := in["characteristics"]; ok {
		chars, err := toCharacteristics(v)
		if err != nil {
			return domain.Errorf(domain.ErrValidation, "Characteristics must be an object of strings")
		}
		p.Characteristics = chars
	}
	p.Normalize()
	return nil
}

func toText(v interface{}) (string, error) {
	if v == nil {
		return "", nil
	}
	s, err := cast.ToStringE(v)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(s), nil
}

func toPrice(v interface{}) (float64, error) {
	if v == nil {
		return 0, nil
	}
	if s, ok := v.(string); ok {
		v = strings.ReplaceAll(strings.TrimSpace(s), " ", "")
		if v == "" {
			return 0, nil
		}
	}
	f, err := cast.ToFloat64E(v)
	if err != nil {
		return 0, err
	}
	if f < 0 || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, domain.ErrValidation
	}
	return f, nil
}

// toOptionalPrice treats empty and zero values as "no old price".
func toOptionalPrice(v interface{}) (*float64, error) {
	f, err := toPrice(v)
	if err != nil {
		return nil, err
	}
	if f == 0 {
		return nil, nil
	}
	return &f, nil
}

func toFlag(v interface{}, def bool) bool {
	switch val := v.(type) {
	case nil:
		return def
	case bool:
		return val
	case float64:
		return val != 0
	case string:
		if strings.TrimSpace(val) == "" {
			return false
		}
	}
	b, err := cast.ToBoolE(v)
	if err != nil {
		return def
	}
	return b
}

func toImages(v interface{}) []string {
	if s, ok := v.(string); ok {
		v = []string{s}
	}
	items, err := cast.ToStringSliceE(v)
	if err != nil {
		return []string{}
	}
	images := make([]string, 0, len(items))
	for _, item := range items {
		if item = strings.TrimSpace(item); item != "" {
			images = append(images, item)
		}
	}
	return images
}

func toCharacteristics(v interface{}) (map[string]string, error) {
	switch val := v.(type) {
	case nil:
		return map[string]string{}, nil
	case []interface{}:
		// clients may send [] for an empty object
		if len(val) == 0 {
			return map[string]string{}, nil
		}
		return nil, domain.ErrValidation
	}
	m, err := cast.ToStringMapE(v)
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(m))
	for k, raw := range m {
		s, err := toText(raw)
		if err != nil {
			return nil, err
		}
		if k = strings.TrimSpace(k); k != "" {
			out[k] = s
		}
	}
	return out, nil
}

// recordID extracts a positive numeric id from a payload value.
func recordID(v interface{}) int64 {
	if id := common.ParseID(v); id > 0 {
		return id
	}
	return 0
}
