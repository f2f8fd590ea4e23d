package adminapi

import (
	"math"
	"strings"
	"unicode/utf8"

	"github.com/labstack/echo/v4"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/aquahimiya/catalogd/internal/domain"
	"github.com/aquahimiya/catalogd/internal/webserver"
)

const (
	searchMinQuery = 2
	searchLimit    = 6
	currencySuffix = " сом"
)

type searchHit struct {
	Slug  string `json:"slug"`
	Name  string `json:"name"`
	Price string `json:"price"`
}

func registerSearchRoutes() {
	webserver.ApiGET("/search", searchProducts)
}

// searchProducts serves storefront autocompletion: a case-insensitive
// substring match on name, article and brand.
func searchProducts(c echo.Context) error {
	q := strings.TrimSpace(c.QueryParam("q"))
	if utf8.RuneCountInString(q) < searchMinQuery {
		return ok(c, []searchHit{})
	}
	products, err := GetAppContext(c).Products().List(c.Request().Context())
	if err != nil {
		return failWithError(c, err, "Failed to search products")
	}
	return ok(c, matchProducts(products, q, searchLimit))
}

func matchProducts(products []domain.Product, q string, limit int) []searchHit {
	fold := cases.Fold()
	needle := fold.String(q)
	hits := make([]searchHit, 0, limit)
	for _, p := range products {
		if len(hits) == limit {
			break
		}
		if strings.Contains(fold.String(p.Name), needle) ||
			strings.Contains(fold.String(p.Article), needle) ||
			strings.Contains(fold.String(p.Brand), needle) {
			hits = append(hits, searchHit{Slug: p.Slug, Name: p.Name, Price: formatPrice(p.Price)})
		}
	}
	return hits
}

// formatPrice renders a whole-som price with space-grouped thousands,
// e.g. "1 234 сом".
func formatPrice(price float64) string {
	p := message.NewPrinter(language.English)
	grouped := p.Sprintf("%d", int64(math.Round(price)))
	return strings.ReplaceAll(grouped, ",", " ") + currencySuffix
}
