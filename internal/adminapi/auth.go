package adminapi

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/aquahimiya/catalogd/internal/webserver"
)

type authPayload struct {
	Action   string `json:"action" validate:"omitempty,oneof=login logout"`
	Password string `json:"password" validate:"omitempty,max=256"`
}

func registerAuthRoutes() {
	webserver.ApiGET("/auth", authStatus)
	webserver.ApiPOST("/auth", authAction)
}

func authStatus(c echo.Context) error {
	return ok(c, map[string]interface{}{"admin": isAdmin(c)})
}

// authAction logs in (the default action) or logs out.
func authAction(c echo.Context) error {
	var payload authPayload
	if err := decodeBody(c, &payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse request", err.Error())
	}
	if err := c.Validate(&payload); err != nil {
		return handleValidationError(c, err)
	}

	svc := GetAppContext(c).Auth()
	if payload.Action == "logout" {
		if err := svc.Logout(c.Request().Context()); err != nil {
			return failWithError(c, err, "Failed to log out")
		}
		return ok(c, map[string]interface{}{"admin": false})
	}

	token, err := svc.Login(c.Request().Context(), payload.Password)
	if err != nil {
		return failWithError(c, err, "Failed to log in")
	}
	return ok(c, map[string]interface{}{"admin": true, "token": token.Token})
}
