package admin

import (
	"log/slog"
	"net/http"
	"strconv"

	logrepo "github.com/XuanHung225/library-management/repository/log"
	logsvc "github.com/XuanHung225/library-management/service/log"
	statssvc "github.com/XuanHung225/library-management/service/stats"

	"github.com/labstack/echo/v4"
)

type Controller struct {
	Logs  logsvc.Service
	Stats statssvc.Service
	Log   *slog.Logger
}

// GET /v1/logs (admin)
func (h *Controller) ListLogs(c echo.Context) error {
	f := logrepo.Filter{
		Action: c.QueryParam("action"),
		Entity: c.QueryParam("entity"),
	}
	if s := c.QueryParam("user_id"); s != "" {
		if v, err := strconv.ParseInt(s, 10, 64); err == nil && v > 0 {
			f.UserID = v
		}
	}
	if s := c.QueryParam("limit"); s != "" {
		if v, err := strconv.ParseUint(s, 10, 32); err == nil {
			f.Limit = uint(v)
		}
	}

	entries, err := h.Logs.List(c.Request().Context(), f)
	if err != nil {
		h.Log.Error("log list", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"data": entries})
}

// GET /v1/stats (staff)
func (h *Controller) Overview(c echo.Context) error {
	s, err := h.Stats.Overview(c.Request().Context())
	if err != nil {
		h.Log.Error("stats", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	return c.JSON(http.StatusOK, s)
}
