package echoServer

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	bookctrl "github.com/hgarciaospina/library-management/app/echoServer/controller/book"
	libraryctrl "github.com/hgarciaospina/library-management/app/echoServer/controller/library"
	loanctrl "github.com/hgarciaospina/library-management/app/echoServer/controller/loan"
	memberctrl "github.com/hgarciaospina/library-management/app/echoServer/controller/member"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

type C struct {
	Loan    *loanctrl.Controller
	Library *libraryctrl.Controller
	Book    *bookctrl.Controller
	Member  *memberctrl.Controller
	Store   Pinger
	Log     *slog.Logger

	JWTSecret string
}

// New builds an echo instance serving the routes of c with the
// json-iterator serializer. Middleware is added by the caller.
func New(c C) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.JSONSerializer = JSONSerializer{}
	Register(e, c)
	return e
}

func Register(e *echo.Echo, c C) {
	e.GET("/health", func(ctx echo.Context) error {
		if err := c.Store.Ping(ctx.Request().Context()); err != nil {
			c.Log.Warn("health check failed", "err", err)
			return ctx.JSON(http.StatusServiceUnavailable, echo.Map{"status": "unavailable"})
		}
		return ctx.JSON(http.StatusOK, echo.Map{
			"status":  "ok",
			"message": "Service is healthy and connected",
		})
	})

	v1 := e.Group("/v1")
	auth := StaffAuth(c.JWTSecret, c.Log)

	// Loans
	v1.GET("/loans", c.Loan.List)
	v1.GET("/loans/:id", c.Loan.Detail)
	v1.POST("/loans", c.Loan.Create, auth...)
	v1.PUT("/loans/:id", c.Loan.Update, auth...)
	v1.DELETE("/loans/:id", c.Loan.Delete, auth...)

	// Libraries
	v1.GET("/libraries", c.Library.List)
	v1.GET("/libraries/:id", c.Library.Detail)
	v1.GET("/libraries/:id/loans", c.Loan.ByLibrary)
	v1.POST("/libraries", c.Library.Create, auth...)
	v1.PUT("/libraries/:id", c.Library.Update, auth...)
	v1.DELETE("/libraries/:id", c.Library.Delete, auth...)

	// Books
	v1.GET("/books", c.Book.List)
	v1.GET("/books/:id", c.Book.Detail)
	v1.GET("/books/:id/loans", c.Loan.ByBook)
	v1.POST("/books", c.Book.Create, auth...)
	v1.PUT("/books/:id", c.Book.Update, auth...)
	v1.DELETE("/books/:id", c.Book.Delete, auth...)

	// Members
	v1.GET("/members", c.Member.List)
	v1.GET("/members/:id", c.Member.Detail)
	v1.GET("/members/:id/loans", c.Loan.ByMember)
	v1.POST("/members", c.Member.Create, auth...)
	v1.PUT("/members/:id", c.Member.Update, auth...)
	v1.DELETE("/members/:id", c.Member.Delete, auth...)
}
