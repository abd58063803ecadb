// Package controller holds helpers shared by the resource controllers.
package controller

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/hgarciaospina/library-management/util/errs"
)

// Fail writes the response for a service error. Unexpected failures are
// logged with the request id; their details never reach the client.
func Fail(c echo.Context, log *slog.Logger, op string, err error) error {
	switch errs.Code(err) {
	case errs.CodeNotFound:
		return c.JSON(http.StatusNotFound, echo.Map{"message": err.Error()})
	case errs.CodeConflict:
		return c.JSON(http.StatusConflict, echo.Map{"message": err.Error()})
	case errs.CodeValidation:
		var ve *errs.ValidationError
		if errors.As(err, &ve) {
			return c.JSON(http.StatusBadRequest, echo.Map{
				"message": "validation error",
				"errors":  ve.Fields,
			})
		}
	}

	rid := c.Response().Header().Get(echo.HeaderXRequestID)
	if errs.IsTransient(err) {
		log.Warn(op+" unavailable", "err", err, "req_id", rid, "path", c.Path())
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"message": "temporarily unavailable, retry later"})
	}
	log.Error(op+" failed",
		"err", err,
		"req_id", rid,
		"path", c.Path(),
		"method", c.Request().Method,
	)
	return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
}

// BadBody answers a request whose body could not be bound.
func BadBody(c echo.Context, log *slog.Logger, err error) error {
	log.Warn("bind failed", "path", c.Path(), "err", err)
	return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid JSON"})
}

// PathID parses a positive integer path parameter.
func PathID(c echo.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, errs.Invalid(name, "must be a positive integer")
	}
	return id, nil
}

// QueryID parses an optional positive integer query parameter; absent is 0.
func QueryID(c echo.Context, name string) (int64, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return 0, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, errs.Invalid(name, "must be a positive integer")
	}
	return id, nil
}

// QueryBool parses an optional boolean query parameter; absent is false.
func QueryBool(c echo.Context, name string) (bool, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return false, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, errs.Invalid(name, "must be true or false")
	}
	return v, nil
}
