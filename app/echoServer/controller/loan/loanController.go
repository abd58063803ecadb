package loan

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/hgarciaospina/library-management/app/echoServer/controller"
	"github.com/hgarciaospina/library-management/model"
	"github.com/hgarciaospina/library-management/service/listing"
	loansvc "github.com/hgarciaospina/library-management/service/loan"
)

type Controller struct {
	Svc     loansvc.Service
	Listing listing.Service
	Log     *slog.Logger
}

// List loans
// @Summary      List loans
// @Description  Active loans first, then due date descending, member last and first name, return date
// @Tags         loans
// @Produce      json
// @Param        library_id  query  int   false  "book's library"
// @Param        book_id     query  int   false  "book"
// @Param        member_id   query  int   false  "member"
// @Param        active      query  bool  false  "only unreturned loans"
// @Success      200  {object}  map[string]any
// @Failure      400  {object}  map[string]any
// @Router       /v1/loans [get]
func (h *Controller) List(c echo.Context) error {
	f, err := filterFromQuery(c)
	if err != nil {
		return controller.Fail(c, h.Log, "loan list", err)
	}

	var rows []model.LoanDetails
	if f == (model.LoanFilter{}) {
		rows, err = h.Listing.ListAllWithDetails(c.Request().Context())
	} else {
		rows, err = h.Listing.List(c.Request().Context(), f)
	}
	if err != nil {
		return controller.Fail(c, h.Log, "loan list", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"data": rows})
}

func filterFromQuery(c echo.Context) (model.LoanFilter, error) {
	var (
		f   model.LoanFilter
		err error
	)
	if f.LibraryID, err = controller.QueryID(c, "library_id"); err != nil {
		return f, err
	}
	if f.BookID, err = controller.QueryID(c, "book_id"); err != nil {
		return f, err
	}
	if f.MemberID, err = controller.QueryID(c, "member_id"); err != nil {
		return f, err
	}
	f.ActiveOnly, err = controller.QueryBool(c, "active")
	return f, err
}

// Detail
// @Summary      Loan detail
// @Tags         loans
// @Produce      json
// @Param        id   path  int  true  "loan id"
// @Success      200  {object}  model.LoanDetails
// @Failure      404  {object}  map[string]any
// @Router       /v1/loans/{id} [get]
func (h *Controller) Detail(c echo.Context) error {
	id, err := controller.PathID(c, "id")
	if err != nil {
		return controller.Fail(c, h.Log, "loan detail", err)
	}
	row, err := h.Svc.GetLoanWithDetails(c.Request().Context(), id)
	if err != nil {
		return controller.Fail(c, h.Log, "loan detail", err)
	}
	return c.JSON(http.StatusOK, row)
}

// Create
// @Summary      Lend a book
// @Description  Creates an active loan and marks the book unavailable
// @Tags         loans
// @Accept       json
// @Produce      json
// @Param        payload  body  model.CreateLoanReq  true  "loan"
// @Success      201  {object}  model.LoanDetails
// @Failure      400  {object}  map[string]any
// @Failure      404  {object}  map[string]any
// @Failure      409  {object}  map[string]any "book already on loan"
// @Security     BearerAuth
// @Router       /v1/loans [post]
func (h *Controller) Create(c echo.Context) error {
	var req model.CreateLoanReq
	if err := c.Bind(&req); err != nil {
		return controller.BadBody(c, h.Log, err)
	}
	out, err := h.Svc.CreateLoan(c.Request().Context(), req)
	if err != nil {
		return controller.Fail(c, h.Log, "loan create", err)
	}
	return c.JSON(http.StatusCreated, out)
}

// Update
// @Summary      Update a loan
// @Description  Setting return_date records a return; clearing it re-opens the loan
// @Tags         loans
// @Accept       json
// @Produce      json
// @Param        id       path  int                  true  "loan id"
// @Param        payload  body  model.UpdateLoanReq  true  "loan"
// @Success      200  {object}  model.Loan
// @Failure      400  {object}  map[string]any
// @Failure      404  {object}  map[string]any
// @Failure      409  {object}  map[string]any
// @Security     BearerAuth
// @Router       /v1/loans/{id} [put]
func (h *Controller) Update(c echo.Context) error {
	id, err := controller.PathID(c, "id")
	if err != nil {
		return controller.Fail(c, h.Log, "loan update", err)
	}
	var req model.UpdateLoanReq
	if err := c.Bind(&req); err != nil {
		return controller.BadBody(c, h.Log, err)
	}
	req.ID = id

	out, err := h.Svc.UpdateLoan(c.Request().Context(), req)
	if err != nil {
		return controller.Fail(c, h.Log, "loan update", err)
	}
	return c.JSON(http.StatusOK, out)
}

// Delete
// @Summary      Delete a loan
// @Tags         loans
// @Param        id  path  int  true  "loan id"
// @Success      204
// @Failure      404  {object}  map[string]any
// @Security     BearerAuth
// @Router       /v1/loans/{id} [delete]
func (h *Controller) Delete(c echo.Context) error {
	id, err := controller.PathID(c, "id")
	if err != nil {
		return controller.Fail(c, h.Log, "loan delete", err)
	}
	if err := h.Svc.DeleteLoan(c.Request().Context(), id); err != nil {
		return controller.Fail(c, h.Log, "loan delete", err)
	}
	return c.NoContent(http.StatusNoContent)
}

// ByLibrary
// @Summary      Loans of a library
// @Tags         loans
// @Produce      json
// @Param        id  path  int  true  "library id"
// @Success      200  {object}  map[string]any
// @Failure      404  {object}  map[string]any
// @Router       /v1/libraries/{id}/loans [get]
func (h *Controller) ByLibrary(c echo.Context) error {
	id, err := controller.PathID(c, "id")
	if err != nil {
		return controller.Fail(c, h.Log, "library loans", err)
	}
	name, err := h.Listing.LibraryName(c.Request().Context(), id)
	if err != nil {
		return controller.Fail(c, h.Log, "library loans", err)
	}
	rows, err := h.Listing.ListByLibrary(c.Request().Context(), id)
	if err != nil {
		return controller.Fail(c, h.Log, "library loans", err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"library_id":   id,
		"library_name": name,
		"data":         rows,
	})
}

// GET /v1/books/:id/loans
func (h *Controller) ByBook(c echo.Context) error {
	id, err := controller.PathID(c, "id")
	if err != nil {
		return controller.Fail(c, h.Log, "book loans", err)
	}
	rows, err := h.Svc.GetLoansByBook(c.Request().Context(), id)
	if err != nil {
		return controller.Fail(c, h.Log, "book loans", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"data": rows})
}

// GET /v1/members/:id/loans
func (h *Controller) ByMember(c echo.Context) error {
	id, err := controller.PathID(c, "id")
	if err != nil {
		return controller.Fail(c, h.Log, "member loans", err)
	}
	rows, err := h.Svc.GetLoansByMember(c.Request().Context(), id)
	if err != nil {
		return controller.Fail(c, h.Log, "member loans", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"data": rows})
}
