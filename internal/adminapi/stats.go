package adminapi

import (
	"github.com/labstack/echo/v4"
	"github.com/montanaflynn/stats"

	"github.com/aquahimiya/catalogd/internal/domain"
	"github.com/aquahimiya/catalogd/internal/webserver"
)

type priceSummary struct {
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
}

type catalogStats struct {
	Products      int            `json:"products"`
	InStock       int            `json:"inStock"`
	OutOfStock    int            `json:"outOfStock"`
	Featured      int            `json:"featured"`
	Categories    int            `json:"categories"`
	Uncategorized int            `json:"uncategorized"`
	PerCategory   map[string]int `json:"perCategory"`
	Price         priceSummary   `json:"price"`
}

func registerStatsRoutes() {
	webserver.ApiGET("/stats", getStats, requireAdmin)
}

// getStats feeds the back office dashboard.
func getStats(c echo.Context) error {
	ctx := c.Request().Context()
	appCtx := GetAppContext(c)
	products, err := appCtx.Products().List(ctx)
	if err != nil {
		return failWithError(c, err, "Failed to query products")
	}
	cats, err := appCtx.Categories().List(ctx)
	if err != nil {
		return failWithError(c, err, "Failed to query categories")
	}
	return ok(c, summarize(products, cats))
}

func summarize(products []domain.Product, cats []domain.Category) catalogStats {
	known := make(map[string]bool, len(cats))
	for _, cat := range cats {
		known[cat.ID] = true
	}

	st := catalogStats{
		Products:    len(products),
		Categories:  len(cats),
		PerCategory: make(map[string]int),
	}
	prices := make(stats.Float64Data, 0, len(products))
	for _, p := range products {
		if p.InStock {
			st.InStock++
		} else {
			st.OutOfStock++
		}
		if p.Featured {
			st.Featured++
		}
		if p.Category == "" || p.Category == domain.CategoryUncategorized || !known[p.Category] {
			st.Uncategorized++
		} else {
			st.PerCategory[p.Category]++
		}
		if p.Price > 0 {
			prices = append(prices, p.Price)
		}
	}

	if len(prices) > 0 {
		st.Price.Min, _ = prices.Min()
		st.Price.Max, _ = prices.Max()
		mean, _ := prices.Mean()
		st.Price.Mean, _ = stats.Round(mean, 2)
		st.Price.Median, _ = prices.Median()
	}
	return st
}
