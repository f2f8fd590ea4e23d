package adminapi

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/spf13/cast"

	"github.com/aquahimiya/catalogd/internal/catalog"
	"github.com/aquahimiya/catalogd/internal/webserver"
)

type categoryPayload struct {
	ID   string `json:"id" validate:"omitempty,max=100"`
	Name string `json:"name" validate:"omitempty,max=200"`
	Icon string `json:"icon" validate:"omitempty,max=32"`
}

func (p categoryPayload) input() catalog.CategoryInput {
	return catalog.CategoryInput{ID: p.ID, Name: p.Name, Icon: p.Icon}
}

func registerCategoryRoutes() {
	webserver.ApiGET("/categories", listCategories)
	webserver.ApiPOST("/categories", createCategory, requireAdmin)
	webserver.ApiPUT("/categories", updateCategory, requireAdmin)
	webserver.ApiDELETE("/categories", deleteCategory, requireAdmin)
}

func listCategories(c echo.Context) error {
	cats, err := GetAppContext(c).Categories().List(c.Request().Context())
	if err != nil {
		return failWithError(c, err, "Failed to query categories")
	}
	return ok(c, cats)
}

func createCategory(c echo.Context) error {
	var payload categoryPayload
	if err := decodeBody(c, &payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse category", err.Error())
	}
	if err := c.Validate(&payload); err != nil {
		return handleValidationError(c, err)
	}
	cat, err := GetAppContext(c).Categories().Create(c.Request().Context(), payload.input())
	if err != nil {
		return failWithError(c, err, "Failed to create category")
	}
	return ok(c, cat)
}

func updateCategory(c echo.Context) error {
	var payload categoryPayload
	if err := decodeBody(c, &payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse category", err.Error())
	}
	if err := c.Validate(&payload); err != nil {
		return handleValidationError(c, err)
	}
	if err := GetAppContext(c).Categories().Update(c.Request().Context(), payload.input()); err != nil {
		return failWithError(c, err, "Failed to update category")
	}
	return ok(c, nil)
}

func deleteCategory(c echo.Context) error {
	body, err := bindBody(c)
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse request", err.Error())
	}
	id := strings.TrimSpace(cast.ToString(body["id"]))
	if id == "" {
		id = strings.TrimSpace(c.QueryParam("id"))
	}
	if _, err := GetAppContext(c).Categories().Delete(c.Request().Context(), id); err != nil {
		return failWithError(c, err, "Failed to delete category")
	}
	return ok(c, nil)
}
