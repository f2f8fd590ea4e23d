package webserver

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	jsoniter "github.com/json-iterator/go"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/aquahimiya/catalogd/config"
)

const appContextKey = "appCtx"

var server *AdminServer

var jsonAPI = jsoniter.Config{
	EscapeHTML:             false,
	SortMapKeys:            true,
	ValidateJsonRawMessage: true,
}.Froze()

// AdminServer hosts the catalog API and the uploaded files.
type AdminServer struct {
	root   *echo.Echo
	api    *echo.Group
	appCtx interface{}
	config *config.AppConfig
}

// Init builds the global server. appCtx is handed to every request and read
// back with GetAppContext.
func Init(appCtx interface{}, cfg *config.AppConfig) {
	server = NewAdminServer(appCtx, cfg)
}

func NewAdminServer(appCtx interface{}, cfg *config.AppConfig) *AdminServer {
	s := &AdminServer{appCtx: appCtx, config: cfg}
	s.root = echo.New()
	s.root.HideBanner = true
	s.root.HidePort = true
	s.root.Debug = cfg.System.Debug
	s.root.JSONSerializer = jsonSerializer{}
	s.root.Validator = &customValidator{validator: validator.New()}
	s.root.HTTPErrorHandler = s.httpErrorHandler

	s.root.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		LogErrorFunc: func(c echo.Context, err error, stack []byte) error {
			zap.L().Error("handler panic",
				zap.String("namespace", "webserver"),
				zap.String("path", c.Path()),
				zap.Error(err),
				zap.ByteString("stack", stack))
			return err
		},
	}))
	s.root.Use(accessLog())
	s.root.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     cfg.Web.AllowOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{echo.HeaderContentType, "X-Admin-Token"},
		AllowCredentials: true,
	}))
	s.root.Use(middleware.SecureWithConfig(middleware.SecureConfig{
		XSSProtection:      "1; mode=block",
		ContentTypeNosniff: "nosniff",
		XFrameOptions:      "SAMEORIGIN",
	}))
	if cfg.Web.BodyLimit != "" {
		s.root.Use(middleware.BodyLimit(cfg.Web.BodyLimit))
	}
	s.root.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Set(appContextKey, s.appCtx)
			return next(c)
		}
	})

	s.root.Static("/uploads", cfg.GetUploadsDir())
	s.api = s.root.Group("")
	return s
}

// GetAppContext returns the application context injected into c.
func GetAppContext(c echo.Context) interface{} {
	return c.Get(appContextKey)
}

func ApiGET(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) {
	server.api.GET(path, h, m...)
}

func ApiPOST(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) {
	server.api.POST(path, h, m...)
}

func ApiPUT(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) {
	server.api.PUT(path, h, m...)
}

func ApiDELETE(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) {
	server.api.DELETE(path, h, m...)
}

// Handler exposes the global server for tests and embedding.
func Handler() http.Handler {
	return server.root
}

// Start serves until Shutdown is called.
func Start() error {
	addr := fmt.Sprintf("%s:%d", server.config.Web.Host, server.config.Web.Port)
	zap.S().Infof("catalog api listening on %s", addr)
	err := server.root.Start(addr)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func Shutdown(ctx context.Context) error {
	if server == nil {
		return nil
	}
	return server.root.Shutdown(ctx)
}

func (s *AdminServer) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status := http.StatusInternalServerError
	resp := ErrorResponse{Error: "Internal server error", Code: "INTERNAL_ERROR"}

	var he *echo.HTTPError
	if errors.As(err, &he) {
		status = he.Code
		switch status {
		case http.StatusNotFound:
			resp.Error, resp.Code = "Not found", "NOT_FOUND"
		case http.StatusMethodNotAllowed:
			resp.Error, resp.Code = "Method not allowed", "METHOD_NOT_ALLOWED"
		case http.StatusUnauthorized:
			resp.Error, resp.Code = "Unauthorized", "UNAUTHORIZED"
		case http.StatusRequestEntityTooLarge:
			resp.Error, resp.Code = "Request entity too large", "PAYLOAD_TOO_LARGE"
		default:
			resp.Error, resp.Code = fmt.Sprint(he.Message), strings.ToUpper(strings.ReplaceAll(http.StatusText(status), " ", "_"))
		}
	}
	if status >= http.StatusInternalServerError {
		zap.L().Error("request failed",
			zap.String("namespace", "webserver"),
			zap.String("method", c.Request().Method),
			zap.String("uri", c.Request().RequestURI),
			zap.Error(err))
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(status)
	} else {
		err = c.JSON(status, resp)
	}
	if err != nil {
		zap.L().Error("write error response failed", zap.String("namespace", "webserver"), zap.Error(err))
	}
}

func accessLog() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}
			req := c.Request()
			res := c.Response()
			zap.L().Debug("http request",
				zap.String("namespace", "webserver"),
				zap.String("method", req.Method),
				zap.String("uri", req.RequestURI),
				zap.Int("status", res.Status),
				zap.Int64("size", res.Size),
				zap.String("remote", c.RealIP()),
				zap.Duration("latency", time.Since(start)))
			return nil
		}
	}
}

type customValidator struct {
	validator *validator.Validate
}

func (cv *customValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}

// jsonSerializer keeps non-ASCII text unescaped in responses.
type jsonSerializer struct{}

func (jsonSerializer) Serialize(c echo.Context, i interface{}, indent string) error {
	enc := jsonAPI.NewEncoder(c.Response())
	if indent != "" {
		enc.SetIndent("", indent)
	}
	return enc.Encode(i)
}

func (jsonSerializer) Deserialize(c echo.Context, i interface{}) error {
	err := jsonAPI.NewDecoder(c.Request().Body).Decode(i)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid JSON body").SetInternal(err)
	}
	return nil
}
