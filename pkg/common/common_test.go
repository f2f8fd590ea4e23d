package common

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextID(t *testing.T) {
	assert.Equal(t, int64(1), NextID())
	assert.Equal(t, int64(6), NextID(5, 2))
	assert.Equal(t, int64(6), NextID(int64(5), float64(2)))
	assert.Equal(t, int64(8), NextID("7", "abc", nil))
	assert.Equal(t, int64(1), NextID("x", -3))
}

func TestSlugify(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Hello World", "hello-world"},
		{"  --Chlorine  Tablets 200g--  ", "chlorine-tablets-200g"},
		{"Хлор шок", "hlor-shok"},
		{"Щётка для бассейна", "shchyotka-dlya-basseyna"},
		{"Объём", "obyom"},
		{"Crème brûlée", "creme-brulee"},
		{"Үй өңү", "uy-onu"},
		{"pH-минус 5 кг", "ph-minus-5-kg"},
		{"a__b!!c", "a-b-c"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Slugify(tt.in))
		})
	}
}

func TestSlugifyFallback(t *testing.T) {
	got := Slugify("!!!")
	assert.True(t, strings.HasPrefix(got, "product-"), got)

	got = SlugifyWithFallback("", "category")
	assert.True(t, strings.HasPrefix(got, "category-"), got)
}

func TestRandomHex(t *testing.T) {
	a, err := RandomHex(32)
	require.NoError(t, err)
	b, err := RandomHex(32)
	require.NoError(t, err)
	assert.Len(t, a, 64)
	assert.NotEqual(t, a, b)
}

func TestDigitsOnly(t *testing.T) {
	assert.Equal(t, "996555123456", DigitsOnly("+996 (555) 12-34-56"))
	assert.Equal(t, "", DigitsOnly("n/a"))
}

func TestUUIDBase36Unique(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		id := UUIDBase36()
		assert.False(t, seen[id])
		seen[id] = true
	}
}

func TestParseID(t *testing.T) {
	assert.Equal(t, int64(12), ParseID(" 12 "))
	assert.Equal(t, int64(3), ParseID(float64(3)))
	assert.Equal(t, int64(0), ParseID("3.5x"))
	assert.Equal(t, int64(0), ParseID(nil))
	assert.Equal(t, int64(0), ParseID(map[string]string{}))
}
