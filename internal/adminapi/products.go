package adminapi

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/aquahimiya/catalogd/internal/webserver"
)

// registerProductRoutes registers product CRUD endpoints. Reads are public;
// every write requires the admin token.
func registerProductRoutes() {
	webserver.ApiGET("/products", listProducts)
	webserver.ApiPOST("/products", createProduct, requireAdmin)
	webserver.ApiPUT("/products", updateProduct, requireAdmin)
	webserver.ApiDELETE("/products", deleteProduct, requireAdmin)
	webserver.ApiPOST("/products/:id/toggle-stock", toggleProductStock, requireAdmin)
	webserver.ApiPOST("/products/:id/toggle-featured", toggleProductFeatured, requireAdmin)
	webserver.ApiGET("/products/export", exportProducts, requireAdmin)
}

func listProducts(c echo.Context) error {
	products, err := GetAppContext(c).Products().List(c.Request().Context())
	if err != nil {
		return failWithError(c, err, "Failed to query products")
	}
	return ok(c, products)
}

func createProduct(c echo.Context) error {
	body, err := bindBody(c)
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse product", err.Error())
	}
	p, err := GetAppContext(c).Products().Create(c.Request().Context(), body)
	if err != nil {
		return failWithError(c, err, "Failed to create product")
	}
	return ok(c, p)
}

func updateProduct(c echo.Context) error {
	body, err := bindBody(c)
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse product", err.Error())
	}
	if _, err := GetAppContext(c).Products().Update(c.Request().Context(), body); err != nil {
		return failWithError(c, err, "Failed to update product")
	}
	return ok(c, nil)
}

func deleteProduct(c echo.Context) error {
	body, err := bindBody(c)
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse request", err.Error())
	}
	id := bodyOrQueryID(c, body)
	if err := GetAppContext(c).Products().Delete(c.Request().Context(), id); err != nil {
		return failWithError(c, err, "Failed to delete product")
	}
	return ok(c, nil)
}

func toggleProductStock(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid product ID", nil)
	}
	p, err := GetAppContext(c).Products().ToggleStock(c.Request().Context(), id)
	if err != nil {
		return failWithError(c, err, "Failed to update product")
	}
	return ok(c, p)
}

func toggleProductFeatured(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid product ID", nil)
	}
	p, err := GetAppContext(c).Products().ToggleFeatured(c.Request().Context(), id)
	if err != nil {
		return failWithError(c, err, "Failed to update product")
	}
	return ok(c, p)
}
