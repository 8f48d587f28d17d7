package loan

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	ls "github.com/XuanHung225/library-management/service/loan"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

type Controller struct {
	Svc ls.Service
	V   *validator.Validate
	Log *slog.Logger
	Loc *time.Location
}

// POST /v1/loans
// @Summary      Request a loan
// @Tags         loans
// @Accept       json
// @Produce      json
// @Param        payload  body  CreateLoanReq  true  "Loan request"
// @Success      201  {object}  map[string]any
// @Failure      422  {object}  map[string]any "business rule violation"
// @Security     BearerAuth
// @Router       /v1/loans [post]
func (h *Controller) Create(c echo.Context) error {
	var req CreateLoanReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid JSON"})
	}
	if err := h.V.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "validation error", "errors": err.Error()})
	}
	uid, _ := c.Get("user_id").(int64)

	due, err := time.ParseInLocation("2006-01-02", req.DueDate, h.Loc)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid due_date"})
	}

	id, err := h.Svc.Create(c.Request().Context(), uid, req.BookID, due, req.Note)
	if err != nil {
		h.Log.Error("loan create", "err", err)
		switch ls.Code(err) {
		case ls.ErrBookNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"message": "book not found"})
		case ls.ErrNoCopies:
			return c.JSON(http.StatusUnprocessableEntity, echo.Map{"message": "no copies available"})
		case ls.ErrLoanLimit:
			return c.JSON(http.StatusUnprocessableEntity, echo.Map{"message": "loan limit reached"})
		case ls.ErrDuplicateLoan:
			return c.JSON(http.StatusUnprocessableEntity, echo.Map{"message": "you already have an active loan for this book"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
		}
	}

	return c.JSON(http.StatusCreated, echo.Map{"loan_id": id, "status": "pending"})
}

// PUT /v1/loans/:id/approve, body carries the approve/reject decision
func (h *Controller) Decide(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	var req DecideReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid JSON"})
	}
	if err := h.V.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "validation error", "errors": err.Error()})
	}
	uid, _ := c.Get("user_id").(int64)

	if err := h.Svc.Decide(c.Request().Context(), uid, id, req.Action, req.Note); err != nil {
		h.Log.Error("loan decide", "err", err, "loan_id", id, "action", req.Action)
		switch ls.Code(err) {
		case ls.ErrLoanNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"message": "loan not found"})
		case ls.ErrNotPending:
			return c.JSON(http.StatusBadRequest, echo.Map{"message": "loan is not pending"})
		case ls.ErrNoCopies:
			return c.JSON(http.StatusBadRequest, echo.Map{"message": "no copies left, cannot approve"})
		case ls.ErrBadAction:
			return c.JSON(http.StatusBadRequest, echo.Map{"message": "action must be approve or reject"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
		}
	}
	if req.Action == "approve" {
		return c.JSON(http.StatusOK, echo.Map{"message": "loan approved"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "loan rejected"})
}

// PUT /v1/loans/:id/confirm-pickup
func (h *Controller) ConfirmPickup(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	var req NoteReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid JSON"})
	}
	uid, _ := c.Get("user_id").(int64)

	if err := h.Svc.ConfirmPickup(c.Request().Context(), uid, id, req.Note); err != nil {
		h.Log.Error("confirm pickup", "err", err, "loan_id", id)
		switch ls.Code(err) {
		case ls.ErrLoanNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"message": "loan not found"})
		case ls.ErrNotApproved:
			return c.JSON(http.StatusBadRequest, echo.Map{"message": "loan is not approved"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
		}
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "pickup confirmed, loan is now borrowed"})
}

// PUT /v1/loans/:id/reject-if-not-picked-up
func (h *Controller) RejectIfNotPickedUp(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	uid, _ := c.Get("user_id").(int64)

	if err := h.Svc.RejectIfNotPickedUp(c.Request().Context(), uid, id); err != nil {
		h.Log.Error("reject not picked up", "err", err, "loan_id", id)
		switch ls.Code(err) {
		case ls.ErrLoanNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"message": "loan not found"})
		case ls.ErrNotApproved:
			return c.JSON(http.StatusBadRequest, echo.Map{"message": "loan is not approved"})
		case ls.ErrNotOverdue:
			return c.JSON(http.StatusBadRequest, echo.Map{"message": "pickup deadline has not passed yet"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
		}
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "loan rejected: not picked up by due date"})
}

// PUT /v1/loans/return
// @Summary      Return a borrowed book
// @Tags         loans
// @Accept       json
// @Produce      json
// @Param        payload  body  ReturnReq  true  "Loan to return"
// @Success      200  {object}  map[string]any "message plus optional fine warning"
// @Security     BearerAuth
// @Router       /v1/loans/return [put]
func (h *Controller) Return(c echo.Context) error {
	var req ReturnReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid JSON"})
	}
	if err := h.V.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "validation error", "errors": err.Error()})
	}
	uid, _ := c.Get("user_id").(int64)

	res, err := h.Svc.Return(c.Request().Context(), uid, req.LoanID)
	if err != nil {
		h.Log.Error("loan return", "err", err, "loan_id", req.LoanID)
		switch ls.Code(err) {
		case ls.ErrLoanNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"message": "loan not found"})
		case ls.ErrAlreadyReturned:
			return c.JSON(http.StatusConflict, echo.Map{"message": "book was already returned"})
		case ls.ErrNotReturnable:
			return c.JSON(http.StatusConflict, echo.Map{"message": "loan is not in a returnable state"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
		}
	}

	out := echo.Map{"message": res.Message}
	if res.Warning != "" {
		out["warning"] = res.Warning
	}
	return c.JSON(http.StatusOK, out)
}

// PUT /v1/loans/:id/lost
func (h *Controller) MarkLost(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	var req NoteReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid JSON"})
	}
	uid, _ := c.Get("user_id").(int64)

	fine, err := h.Svc.MarkLost(c.Request().Context(), uid, id, req.Note)
	if err != nil {
		h.Log.Error("mark lost", "err", err, "loan_id", id)
		switch ls.Code(err) {
		case ls.ErrLoanNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"message": "loan not found"})
		case ls.ErrAlreadyLost:
			return c.JSON(http.StatusConflict, echo.Map{"message": "loan already marked lost"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
		}
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "loan marked as lost", "fine": fine})
}

// DELETE /v1/loans/:id
func (h *Controller) Delete(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	uid, _ := c.Get("user_id").(int64)

	if err := h.Svc.Delete(c.Request().Context(), uid, id); err != nil {
		h.Log.Error("loan delete", "err", err, "loan_id", id)
		switch ls.Code(err) {
		case ls.ErrLoanNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"message": "loan not found"})
		case ls.ErrNotOwner:
			return c.JSON(http.StatusForbidden, echo.Map{"message": "forbidden"})
		case ls.ErrNotDeletable:
			return c.JSON(http.StatusBadRequest, echo.Map{"message": "only pending or rejected loans can be deleted"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
		}
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "loan request deleted"})
}

// GET /v1/loans (staff)
func (h *Controller) ListAll(c echo.Context) error {
	rows, err := h.Svc.ListAll(c.Request().Context())
	if err != nil {
		h.Log.Error("loan list", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"data": rows})
}

// GET /v1/loans/my
func (h *Controller) ListMine(c echo.Context) error {
	uid, _ := c.Get("user_id").(int64)
	rows, err := h.Svc.ListMine(c.Request().Context(), uid)
	if err != nil {
		h.Log.Error("loan history", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"data": rows})
}

func parseID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, echo.ErrBadRequest
	}
	return id, nil
}
