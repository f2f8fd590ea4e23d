package adminapi

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	jsoniter "github.com/json-iterator/go"
	"github.com/labstack/echo/v4"
	"github.com/mitchellh/mapstructure"
	"go.uber.org/zap"

	"github.com/aquahimiya/catalogd/internal/app"
	"github.com/aquahimiya/catalogd/internal/domain"
	"github.com/aquahimiya/catalogd/internal/store"
	"github.com/aquahimiya/catalogd/internal/webserver"
	"github.com/aquahimiya/catalogd/pkg/common"
)

// AdminTokenHeader carries the admin bearer token.
const AdminTokenHeader = "X-Admin-Token"

var jsonAPI = jsoniter.Config{
	EscapeHTML:             false,
	ValidateJsonRawMessage: true,
}.Froze()

// Init registers every catalog route on the global web server.
func Init() {
	registerProductRoutes()
	registerCategoryRoutes()
	registerSettingsRoutes()
	registerAuthRoutes()
	registerUploadRoutes()
	registerSearchRoutes()
	registerStatsRoutes()
}

// GetAppContext returns the application bound to the request.
func GetAppContext(c echo.Context) app.AppContext {
	return webserver.GetAppContext(c).(app.AppContext)
}

func ok(c echo.Context, data interface{}) error {
	return c.JSON(http.StatusOK, webserver.SuccessResponse{OK: true, Data: data})
}

func fail(c echo.Context, status int, code, msg string, detail interface{}) error {
	return c.JSON(status, webserver.ErrorResponse{OK: false, Error: msg, Code: code, Detail: detail})
}

// failWithError maps repository and storage errors to API failures.
func failWithError(c echo.Context, err error, fallback string) error {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", domain.Message(err, fallback), nil)
	case errors.Is(err, domain.ErrNotFound):
		return fail(c, http.StatusNotFound, "NOT_FOUND", domain.Message(err, "Not found"), nil)
	case errors.Is(err, domain.ErrUnauthorized):
		return fail(c, http.StatusUnauthorized, "UNAUTHORIZED", domain.Message(err, "Unauthorized"), nil)
	case errors.Is(err, store.ErrStorage):
		zap.L().Error(fallback, zap.String("namespace", "adminapi"), zap.Error(err))
		return fail(c, http.StatusInternalServerError, "STORAGE_ERROR", fallback, nil)
	default:
		zap.L().Error(fallback, zap.String("namespace", "adminapi"), zap.Error(err))
		return fail(c, http.StatusInternalServerError, "INTERNAL_ERROR", fallback, nil)
	}
}

func handleValidationError(c echo.Context, err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			fields[fe.Field()] = fe.Tag()
		}
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request parameters", fields)
	}
	return fail(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error(), nil)
}

// isAdmin reports whether the request carries the current admin token.
func isAdmin(c echo.Context) bool {
	token := strings.TrimSpace(c.Request().Header.Get(AdminTokenHeader))
	if token == "" {
		return false
	}
	return GetAppContext(c).Auth().Validate(c.Request().Context(), token)
}

// requireAdmin rejects the request before the handler runs unless it
// carries a valid admin token.
func requireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if !isAdmin(c) {
			return fail(c, http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized", nil)
		}
		return next(c)
	}
}

// bindBody decodes a JSON object body. An empty body yields an empty map.
func bindBody(c echo.Context) (map[string]interface{}, error) {
	body := map[string]interface{}{}
	if c.Request().Body == nil {
		return body, nil
	}
	data, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return body, nil
	}
	if err := jsonAPI.Unmarshal(data, &body); err != nil {
		return nil, err
	}
	return body, nil
}

// decodeBody binds the JSON body into a payload struct, accepting loosely
// typed values, and validates it.
func decodeBody(c echo.Context, payload interface{}) error {
	body, err := bindBody(c)
	if err != nil {
		return err
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: true,
		Result:           payload,
	})
	if err != nil {
		return err
	}
	return dec.Decode(body)
}

func parseIDParam(c echo.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.New("invalid id")
	}
	return id, nil
}

// bodyOrQueryID reads a numeric id from the body, falling back to ?id=.
func bodyOrQueryID(c echo.Context, body map[string]interface{}) int64 {
	if id := common.ParseID(body["id"]); id > 0 {
		return id
	}
	if id := common.ParseID(c.QueryParam("id")); id > 0 {
		return id
	}
	return 0
}
