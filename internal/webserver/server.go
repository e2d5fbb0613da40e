package webserver

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	echoSwagger "github.com/swaggo/echo-swagger"
	"go.uber.org/zap"

	_ "github.com/nijsci/labcatalog/docs"
	"github.com/nijsci/labcatalog/internal/app"
)

const (
	// AppContextKey is where the application context is stored on each request
	AppContextKey = "appctx"
	apiPrefix     = "/api"
)

var server *WebServer

// WebServer is the HTTP front of the catalog: public storefront routes and
// admin routes behind a JWT guard share the /api prefix.
type WebServer struct {
	root   *echo.Echo
	api    *echo.Group
	guard  echo.MiddlewareFunc
	appCtx app.AppContext
}

type requestValidator struct {
	validator *validator.Validate
}

func (v *requestValidator) Validate(i interface{}) error {
	return v.validator.Struct(i)
}

// Init builds the global server for appCtx. Routes are registered afterwards
// through the ApiXXX and PubXXX helpers.
func Init(appCtx app.AppContext) {
	server = NewWebServer(appCtx)
}

func NewWebServer(appCtx app.AppContext) *WebServer {
	cfg := appCtx.Config()
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Logger.SetLevel(log.OFF)
	e.Validator = &requestValidator{validator: validator.New()}
	e.HTTPErrorHandler = errorHandler

	e.Use(middleware.Recover())
	e.Use(requestLogger())
	if cfg.Web.BodyMax != "" {
		e.Use(middleware.BodyLimit(cfg.Web.BodyMax))
	}
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Set(AppContextKey, appCtx)
			return next(c)
		}
	})

	if cfg.Media.Provider == "local" && cfg.Media.LocalDir != "" {
		e.Static(cfg.Media.PublicURL, cfg.Media.LocalDir)
	}

	e.GET("/swagger/*", echoSwagger.WrapHandler)

	if cfg.Auth.EnsureSecret() {
		zap.S().Warn("auth.secret is not set, using a random key; admin sessions end on restart")
	}

	s := &WebServer{
		root:   e,
		api:    e.Group(apiPrefix),
		appCtx: appCtx,
	}
	jwtGuard := echojwt.WithConfig(jwtConfig(cfg.Auth.Secret))
	s.guard = func(next echo.HandlerFunc) echo.HandlerFunc {
		return jwtGuard(s.activeAdmin(next))
	}
	return s
}

// requestLogger writes one zap line per request.
func requestLogger() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRemoteIP:  true,
		LogError:     true,
		HandleError:  true,
		LogUserAgent: false,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			fields := []zap.Field{
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
				zap.String("ip", v.RemoteIP),
			}
			if v.Error != nil {
				zap.L().Warn("http request", append(fields, zap.Error(v.Error))...)
				return nil
			}
			zap.L().Debug("http request", fields...)
			return nil
		},
	})
}

// errorHandler renders framework errors (unknown route, bad method, body
// too large) in the JSON failure envelope.
func errorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	status := http.StatusInternalServerError
	msg := "Internal server error"
	if he, ok := err.(*echo.HTTPError); ok {
		status = he.Code
		msg = fmt.Sprint(he.Message)
	} else {
		zap.L().Error("unhandled error", zap.String("uri", c.Request().RequestURI), zap.Error(err))
	}
	_ = c.JSON(status, map[string]interface{}{
		"success": false,
		"error":   msg,
		"code":    strings.ToUpper(strings.ReplaceAll(http.StatusText(status), " ", "_")),
	})
}

// Handler exposes the router, mainly for tests.
func Handler() http.Handler {
	return server.root
}

// Listen serves on the configured address until the server is shut down.
func Listen() error {
	cfg := server.appCtx.Config()
	addr := fmt.Sprintf("%s:%d", cfg.Web.Host, cfg.Web.Port)
	zap.S().Infof("Catalog web server listening on %s", addr)
	err := server.root.Start(addr)
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown stops the server gracefully.
func Shutdown(timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return server.root.Shutdown(ctx)
}

// ApiGET registers an admin-only GET route
func ApiGET(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) {
	server.api.GET(path, h, append([]echo.MiddlewareFunc{server.guard}, m...)...)
}

// ApiPOST registers an admin-only POST route
func ApiPOST(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) {
	server.api.POST(path, h, append([]echo.MiddlewareFunc{server.guard}, m...)...)
}

// ApiPUT registers an admin-only PUT route
func ApiPUT(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) {
	server.api.PUT(path, h, append([]echo.MiddlewareFunc{server.guard}, m...)...)
}

// ApiDELETE registers an admin-only DELETE route
func ApiDELETE(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) {
	server.api.DELETE(path, h, append([]echo.MiddlewareFunc{server.guard}, m...)...)
}

// PubGET registers a public GET route
func PubGET(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) {
	server.api.GET(path, h, m...)
}

// PubPOST registers a public POST route
func PubPOST(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) {
	server.api.POST(path, h, m...)
}
