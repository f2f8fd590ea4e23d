package adminapi

import (
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/labstack/echo/v4"

	"github.com/aquahimiya/catalogd/internal/domain"
)

// utf8BOM lets spreadsheet tools detect the encoding of Cyrillic text.
const utf8BOM = "\xEF\xBB\xBF"

type productCSVRow struct {
	ID          int64  `csv:"id"`
	Slug        string `csv:"slug"`
	Name        string `csv:"name"`
	Category    string `csv:"category"`
	Brand       string `csv:"brand"`
	Article     string `csv:"article"`
	Unit        string `csv:"unit"`
	Price       string `csv:"price"`
	OldPrice    string `csv:"old_price"`
	InStock     bool   `csv:"in_stock"`
	Featured    bool   `csv:"featured"`
	Specs       string `csv:"specs"`
	Description string `csv:"description"`
	Images      string `csv:"images"`
	Attributes  string `csv:"characteristics"`
}

func exportProducts(c echo.Context) error {
	products, err := GetAppContext(c).Products().List(c.Request().Context())
	if err != nil {
		return failWithError(c, err, "Failed to query products")
	}
	data, err := gocsv.MarshalBytes(productRows(products))
	if err != nil {
		return fail(c, http.StatusInternalServerError, "EXPORT_ERROR", "Failed to export products", err.Error())
	}
	filename := fmt.Sprintf("products-%s.csv", time.Now().Format("20060102"))
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", filename))
	return c.Blob(http.StatusOK, "text/csv; charset=utf-8", append([]byte(utf8BOM), data...))
}

func productRows(products []domain.Product) []*productCSVRow {
	rows := make([]*productCSVRow, 0, len(products))
	for _, p := range products {
		row := &productCSVRow{
			ID:          p.ID,
			Slug:        p.Slug,
			Name:        p.Name,
			Category:    p.Category,
			Brand:       p.Brand,
			Article:     p.Article,
			Unit:        p.Unit,
			Price:       formatNumber(p.Price),
			InStock:     p.InStock,
			Featured:    p.Featured,
			Specs:       p.Specs,
			Description: p.Description,
			Images:      strings.Join(p.Images, "|"),
			Attributes:  joinCharacteristics(p.Characteristics),
		}
		if p.OldPrice != nil {
			row.OldPrice = formatNumber(*p.OldPrice)
		}
		rows = append(rows, row)
	}
	return rows
}

func formatNumber(f float64) string {
	return strings.TrimSuffix(strings.TrimRight(fmt.Sprintf("%.2f", f), "0"), ".")
}

func joinCharacteristics(m map[string]string) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+m[k])
	}
	return strings.Join(parts, "; ")
}
