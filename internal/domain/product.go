package domain

import (
	"bytes"

	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
	"github.com/spf13/cast"
)

// Product is a catalog item. ID and Slug are assigned by the server on
// create and never change afterwards.
type Product struct {
	ID              int64             `json:"id"`
	Slug            string            `json:"slug"`
	Name            string            `json:"name"`
	Category        string            `json:"category"` // Category.ID, may dangle
	Brand           string            `json:"brand"`
	Article         string            `json:"article"`
	Specs           string            `json:"specs"`
	Description     string            `json:"description"`
	FullDescription string            `json:"fullDescription"`
	Price           float64           `json:"price"`
	OldPrice        *float64          `json:"oldPrice"`
	Unit            string            `json:"unit"`
	InStock         bool              `json:"inStock"`
	Featured        bool              `json:"featured"`
	Images          []string          `json:"images"`
	Characteristics map[string]string `json:"characteristics"`
}

// NewProduct returns a product carrying the field defaults used for creates.
func NewProduct() *Product {
	return &Product{
		InStock:         true,
		Images:          []string{},
		Characteristics: map[string]string{},
	}
}

// Normalize replaces nil collections so they encode as [] and {}.
func (p *Product) Normalize() {
	if p.Images == nil {
		p.Images = []string{}
	}
	if p.Characteristics == nil {
		p.Characteristics = map[string]string{}
	}
}

// UnmarshalJSON accepts characteristics written as an empty array
// or with non-string values, so one odd record does not spoil the document.
func (p *Product) UnmarshalJSON(data []byte) error {
	type plain Product
	aux := struct {
		*plain
		Characteristics jsoniter.RawMessage `json:"characteristics"`
	}{plain: (*plain)(p)}
	if err := jsoniter.ConfigCompatibleWithStandardLibrary.Unmarshal(data, &aux); err != nil {
		return err
	}
	chars, err := decodeCharacteristics(aux.Characteristics)
	if err != nil {
		return err
	}
	p.Characteristics = chars
	return nil
}

func decodeCharacteristics(raw []byte) (map[string]string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}
	if raw[0] == '[' {
		var items []interface{}
		if err := jsoniter.Unmarshal(raw, &items); err != nil || len(items) > 0 {
			return nil, errors.New("characteristics: expected an object")
		}
		return map[string]string{}, nil
	}
	var values map[string]interface{}
	if err := jsoniter.Unmarshal(raw, &values); err != nil {
		return nil, errors.Wrap(err, "characteristics")
	}
	out := make(map[string]string, len(values))
	for k, v := range values {
		if v == nil {
			out[k] = ""
			continue
		}
		s, err := cast.ToStringE(v)
		if err != nil {
			return nil, errors.Wrapf(err, "characteristics %q", k)
		}
		out[k] = s
	}
	return out, nil
}
