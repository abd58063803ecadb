package member

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/hgarciaospina/library-management/app/echoServer/controller"
	"github.com/hgarciaospina/library-management/model"
	membersvc "github.com/hgarciaospina/library-management/service/member"
)

type Controller struct {
	Svc membersvc.Service
	Log *slog.Logger
}

// POST /v1/members
// @Summary      Register a member
// @Description  registration_date defaults to now
// @Tags         members
// @Accept       json
// @Produce      json
// @Param        payload  body  model.CreateMemberReq  true  "member"
// @Success      201  {object}  model.Member
// @Failure      400  {object}  map[string]any
// @Failure      404  {object}  map[string]any "library not found"
// @Security     BearerAuth
// @Router       /v1/members [post]
func (h *Controller) Create(c echo.Context) error {
	var req model.CreateMemberReq
	if err := c.Bind(&req); err != nil {
		return controller.BadBody(c, h.Log, err)
	}
	m, err := h.Svc.Create(c.Request().Context(), req)
	if err != nil {
		return controller.Fail(c, h.Log, "member create", err)
	}
	return c.JSON(http.StatusCreated, m)
}

// GET /v1/members?library_id=
func (h *Controller) List(c echo.Context) error {
	libraryID, err := controller.QueryID(c, "library_id")
	if err != nil {
		return controller.Fail(c, h.Log, "member list", err)
	}
	rows, err := h.Svc.List(c.Request().Context(), libraryID)
	if err != nil {
		return controller.Fail(c, h.Log, "member list", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"data": rows})
}

// GET /v1/members/:id
func (h *Controller) Detail(c echo.Context) error {
	id, err := controller.PathID(c, "id")
	if err != nil {
		return controller.Fail(c, h.Log, "member detail", err)
	}
	row, err := h.Svc.Get(c.Request().Context(), id)
	if err != nil {
		return controller.Fail(c, h.Log, "member detail", err)
	}
	return c.JSON(http.StatusOK, row)
}

// PUT /v1/members/:id
// @Summary      Edit a member
// @Tags         members
// @Accept       json
// @Produce      json
// @Param        id       path  int                  true  "member id"
// @Param        payload  body  model.UpdateMemberReq  true  "member"
// @Success      200  {object}  model.Member
// @Failure      404  {object}  map[string]any
// @Security     BearerAuth
// @Router       /v1/members/{id} [put]
func (h *Controller) Update(c echo.Context) error {
	id, err := controller.PathID(c, "id")
	if err != nil {
		return controller.Fail(c, h.Log, "member update", err)
	}
	var req model.UpdateMemberReq
	if err := c.Bind(&req); err != nil {
		return controller.BadBody(c, h.Log, err)
	}
	req.ID = id
	m, err := h.Svc.Update(c.Request().Context(), req)
	if err != nil {
		return controller.Fail(c, h.Log, "member update", err)
	}
	return c.JSON(http.StatusOK, m)
}

// DELETE /v1/members/:id
func (h *Controller) Delete(c echo.Context) error {
	id, err := controller.PathID(c, "id")
	if err != nil {
		return controller.Fail(c, h.Log, "member delete", err)
	}
	if err := h.Svc.Delete(c.Request().Context(), id); err != nil {
		return controller.Fail(c, h.Log, "member delete", err)
	}
	return c.NoContent(http.StatusNoContent)
}
