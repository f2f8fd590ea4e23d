package adminapi

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/aquahimiya/catalogd/internal/webserver"
)

func registerSettingsRoutes() {
	webserver.ApiGET("/settings", getSettings)
	webserver.ApiPOST("/settings", saveSettings, requireAdmin)
}

// getSettings returns the public settings only.
func getSettings(c echo.Context) error {
	settings, err := GetAppContext(c).Settings().Public(c.Request().Context())
	if err != nil {
		return failWithError(c, err, "Failed to load settings")
	}
	return ok(c, settings)
}

func saveSettings(c echo.Context) error {
	body, err := bindBody(c)
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse settings", err.Error())
	}
	settings, err := GetAppContext(c).Settings().Save(c.Request().Context(), body)
	if err != nil {
		return failWithError(c, err, "Failed to save settings")
	}
	return ok(c, settings)
}
