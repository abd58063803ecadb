package book

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/hgarciaospina/library-management/app/echoServer/controller"
	"github.com/hgarciaospina/library-management/model"
	booksvc "github.com/hgarciaospina/library-management/service/book"
)

type Controller struct {
	Svc booksvc.Service
	Log *slog.Logger
}

// POST /v1/books
// @Summary      Add a book
// @Tags         books
// @Accept       json
// @Produce      json
// @Param        payload  body  model.CreateBookReq  true  "book"
// @Success      201  {object}  model.Book
// @Failure      400  {object}  map[string]any
// @Failure      404  {object}  map[string]any "library not found"
// @Security     BearerAuth
// @Router       /v1/books [post]
func (h *Controller) Create(c echo.Context) error {
	var req model.CreateBookReq
	if err := c.Bind(&req); err != nil {
		return controller.BadBody(c, h.Log, err)
	}
	b, err := h.Svc.Create(c.Request().Context(), req)
	if err != nil {
		return controller.Fail(c, h.Log, "book create", err)
	}
	return c.JSON(http.StatusCreated, b)
}

// GET /v1/books?library_id=
func (h *Controller) List(c echo.Context) error {
	libraryID, err := controller.QueryID(c, "library_id")
	if err != nil {
		return controller.Fail(c, h.Log, "book list", err)
	}
	rows, err := h.Svc.List(c.Request().Context(), libraryID)
	if err != nil {
		return controller.Fail(c, h.Log, "book list", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"data": rows})
}

// GET /v1/books/:id
func (h *Controller) Detail(c echo.Context) error {
	id, err := controller.PathID(c, "id")
	if err != nil {
		return controller.Fail(c, h.Log, "book detail", err)
	}
	row, err := h.Svc.Get(c.Request().Context(), id)
	if err != nil {
		return controller.Fail(c, h.Log, "book detail", err)
	}
	return c.JSON(http.StatusOK, row)
}

// PUT /v1/books/:id
// @Summary      Edit a book
// @Description  is_available is managed by loans and ignored here
// @Tags         books
// @Accept       json
// @Produce      json
// @Param        id       path  int                  true  "book id"
// @Param        payload  body  model.UpdateBookReq  true  "book"
// @Success      200  {object}  model.Book
// @Failure      409  {object}  map[string]any "book has loans; its library cannot change"
// @Security     BearerAuth
// @Router       /v1/books/{id} [put]
func (h *Controller) Update(c echo.Context) error {
	id, err := controller.PathID(c, "id")
	if err != nil {
		return controller.Fail(c, h.Log, "book update", err)
	}
	var req model.UpdateBookReq
	if err := c.Bind(&req); err != nil {
		return controller.BadBody(c, h.Log, err)
	}
	req.ID = id
	b, err := h.Svc.Update(c.Request().Context(), req)
	if err != nil {
		return controller.Fail(c, h.Log, "book update", err)
	}
	return c.JSON(http.StatusOK, b)
}

// DELETE /v1/books/:id
func (h *Controller) Delete(c echo.Context) error {
	id, err := controller.PathID(c, "id")
	if err != nil {
		return controller.Fail(c, h.Log, "book delete", err)
	}
	if err := h.Svc.Delete(c.Request().Context(), id); err != nil {
		return controller.Fail(c, h.Log, "book delete", err)
	}
	return c.NoContent(http.StatusNoContent)
}
