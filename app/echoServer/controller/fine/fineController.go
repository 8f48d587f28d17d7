package fine

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	fs "github.com/XuanHung225/library-management/service/fine"

	"github.com/labstack/echo/v4"
)

type Controller struct {
	Svc fs.Service
	Log *slog.Logger
}

// GET /v1/fines/my
func (h *Controller) My(c echo.Context) error {
	uid, _ := c.Get("user_id").(int64)
	fines, err := h.Svc.MyFines(c.Request().Context(), uid)
	if err != nil {
		h.Log.Error("my fines", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"data": fines})
}

// GET /v1/fines (staff)
func (h *Controller) All(c echo.Context) error {
	fines, err := h.Svc.AllFines(c.Request().Context())
	if err != nil {
		h.Log.Error("all fines", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"data": fines})
}

// PATCH /v1/fines/:id/pay (staff)
func (h *Controller) Pay(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}

	if err := h.Svc.MarkPaid(c.Request().Context(), id); err != nil {
		if errors.Is(err, fs.ErrNotFoundOrPaid) {
			return c.JSON(http.StatusConflict, echo.Map{"message": "fine not found or already paid"})
		}
		h.Log.Error("fine pay", "err", err, "fine_id", id)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "fine marked as paid"})
}
