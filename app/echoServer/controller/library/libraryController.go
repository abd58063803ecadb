package library

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/hgarciaospina/library-management/app/echoServer/controller"
	"github.com/hgarciaospina/library-management/model"
	librarysvc "github.com/hgarciaospina/library-management/service/library"
)

type Controller struct {
	Svc librarysvc.Service
	Log *slog.Logger
}

// POST /v1/libraries
// @Summary      Create a library
// @Tags         libraries
// @Accept       json
// @Produce      json
// @Param        payload  body  model.CreateLibraryReq  true  "library"
// @Success      201  {object}  model.Library
// @Failure      400  {object}  map[string]any
// @Security     BearerAuth
// @Router       /v1/libraries [post]
func (h *Controller) Create(c echo.Context) error {
	var req model.CreateLibraryReq
	if err := c.Bind(&req); err != nil {
		return controller.BadBody(c, h.Log, err)
	}
	l, err := h.Svc.Create(c.Request().Context(), req)
	if err != nil {
		return controller.Fail(c, h.Log, "library create", err)
	}
	return c.JSON(http.StatusCreated, l)
}

// GET /v1/libraries
func (h *Controller) List(c echo.Context) error {
	rows, err := h.Svc.List(c.Request().Context())
	if err != nil {
		return controller.Fail(c, h.Log, "library list", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"data": rows})
}

// GET /v1/libraries/:id
func (h *Controller) Detail(c echo.Context) error {
	id, err := controller.PathID(c, "id")
	if err != nil {
		return controller.Fail(c, h.Log, "library detail", err)
	}
	l, err := h.Svc.Get(c.Request().Context(), id)
	if err != nil {
		return controller.Fail(c, h.Log, "library detail", err)
	}
	return c.JSON(http.StatusOK, l)
}

// PUT /v1/libraries/:id
func (h *Controller) Update(c echo.Context) error {
	id, err := controller.PathID(c, "id")
	if err != nil {
		return controller.Fail(c, h.Log, "library update", err)
	}
	var req model.UpdateLibraryReq
	if err := c.Bind(&req); err != nil {
		return controller.BadBody(c, h.Log, err)
	}
	req.ID = id
	l, err := h.Svc.Update(c.Request().Context(), req)
	if err != nil {
		return controller.Fail(c, h.Log, "library update", err)
	}
	return c.JSON(http.StatusOK, l)
}

// DELETE /v1/libraries/:id
// @Summary      Delete a library
// @Description  Removes its books, members and loan history; refused while loans are active
// @Tags         libraries
// @Param        id  path  int  true  "library id"
// @Success      204
// @Failure      404  {object}  map[string]any
// @Failure      409  {object}  map[string]any
// @Security     BearerAuth
// @Router       /v1/libraries/{id} [delete]
func (h *Controller) Delete(c echo.Context) error {
	id, err := controller.PathID(c, "id")
	if err != nil {
		return controller.Fail(c, h.Log, "library delete", err)
	}
	if err := h.Svc.Delete(c.Request().Context(), id); err != nil {
		return controller.Fail(c, h.Log, "library delete", err)
	}
	return c.NoContent(http.StatusNoContent)
}
