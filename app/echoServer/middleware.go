package echoServer

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/hgarciaospina/library-management/app/echoServer/jwtx"
)

const ctxKeyStaff = "staff"

func RegisterMiddlewares(e *echo.Echo, log *slog.Logger, timeout time.Duration) {
	e.Use(middleware.Recover())

	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: func() string { return uuid.NewString() },
	}))

	e.Use(Slog(log))

	if timeout > 0 {
		e.Use(middleware.ContextTimeout(timeout))
	}
}

func Slog(log *slog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			lat := time.Since(start).Milliseconds()

			rid := c.Response().Header().Get(echo.HeaderXRequestID)
			attrs := []any{
				"method", c.Request().Method,
				"path", c.Path(),
				"status", c.Response().Status,
				"latency_ms", lat,
				"req_id", rid,
				"ip", c.RealIP(),
				"ua", c.Request().UserAgent(),
			}
			if staff, ok := c.Get(ctxKeyStaff).(string); ok {
				attrs = append(attrs, "staff", staff)
			}
			log.Info("http", attrs...)
			return err
		}
	}
}

// StaffAuth requires a bearer HS256 staff token. With an empty secret it
// returns no middleware and writes are open.
func StaffAuth(secret string, log *slog.Logger) []echo.MiddlewareFunc {
	if secret == "" {
		return nil
	}
	unauthorized := func(c echo.Context) error {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "unauthorized"})
	}
	return []echo.MiddlewareFunc{
		echojwt.WithConfig(echojwt.Config{
			SigningKey:    []byte(secret),
			SigningMethod: echojwt.AlgorithmHS256,
			NewClaimsFunc: func(echo.Context) jwt.Claims { return jwt.MapClaims{} },
			ErrorHandler: func(c echo.Context, err error) error {
				log.Warn("auth rejected", "err", err, "path", c.Path(), "ip", c.RealIP())
				return unauthorized(c)
			},
		}),
		func(next echo.HandlerFunc) echo.HandlerFunc {
			return func(c echo.Context) error {
				staff, err := jwtx.StaffFromContext(c)
				if err != nil {
					log.Warn("auth rejected", "err", err, "path", c.Path(), "ip", c.RealIP())
					return unauthorized(c)
				}
				c.Set(ctxKeyStaff, staff)
				return next(c)
			}
		},
	}
}
