package domain

import (
	"testing"

	jsoniter "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProductDecodesLooseCharacteristics(t *testing.T) {
	var products []Product
	err := jsoniter.Unmarshal([]byte(`[
		{"id":1,"name":"A","price":5,"characteristics":[]},
		{"id":2,"name":"B","characteristics":{"Вес":"5 кг","Объём":50,"Note":null}},
		{"id":3,"name":"C"}
	]`), &products)
	require.NoError(t, err)
	require.Len(t, products, 3)

	assert.Equal(t, "A", products[0].Name)
	assert.Equal(t, float64(5), products[0].Price)
	assert.Equal(t, map[string]string{}, products[0].Characteristics)
	assert.Equal(t, map[string]string{"Вес": "5 кг", "Объём": "50", "Note": ""}, products[1].Characteristics)
	assert.Nil(t, products[2].Characteristics)
}

func TestProductRejectsNonEmptyCharacteristicsArray(t *testing.T) {
	var p Product
	assert.Error(t, jsoniter.Unmarshal([]byte(`{"id":1,"characteristics":["x"]}`), &p))
}

func TestProductEncodingUnchanged(t *testing.T) {
	p := NewProduct()
	p.ID = 4
	p.Name = "D"
	data, err := jsoniter.Marshal(p)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"characteristics":{}`)

	var back Product
	require.NoError(t, jsoniter.Unmarshal(data, &back))
	assert.Equal(t, *p, back)
}
