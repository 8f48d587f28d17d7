package user

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/XuanHung225/library-management/app/echoServer/jwtx"
	"github.com/XuanHung225/library-management/model"
	usersvc "github.com/XuanHung225/library-management/service/user"
)

type Controller struct {
	Svc usersvc.Service
	V   *validator.Validate
	Log *slog.Logger
}

func (h *Controller) actor(c echo.Context) (int64, model.Role, error) {
	uid, err := jwtx.UserIDFromContext(c)
	if err != nil {
		return 0, "", err
	}
	role, err := jwtx.RoleFromContext(c)
	if err != nil {
		return 0, "", err
	}
	return uid, role, nil
}

func pathID(c echo.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	return id, err == nil && id > 0
}

func (h *Controller) fail(c echo.Context, op string, err error, id int64) error {
	switch {
	case errors.Is(err, usersvc.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"message": "user not found"})
	case errors.Is(err, usersvc.ErrForbidden):
		return c.JSON(http.StatusForbidden, echo.Map{"message": "forbidden"})
	case errors.Is(err, usersvc.ErrSelfChange):
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "cannot apply this change to your own account"})
	case errors.Is(err, usersvc.ErrBadRole):
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid role"})
	case errors.Is(err, usersvc.ErrEmailTaken):
		return c.JSON(http.StatusConflict, echo.Map{"message": "email already registered"})
	case errors.Is(err, usersvc.ErrUsernameTaken):
		return c.JSON(http.StatusConflict, echo.Map{"message": "username already taken"})
	default:
		h.Log.Error(op, "err", err, "user_id", id)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
}

// GET /v1/users (staff)
func (h *Controller) List(c echo.Context) error {
	_, role, err := h.actor(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "unauthorized"})
	}
	rows, err := h.Svc.List(c.Request().Context(), role)
	if err != nil {
		return h.fail(c, "user list", err, 0)
	}
	return c.JSON(http.StatusOK, echo.Map{"data": rows})
}

// GET /v1/users/:id (staff)
func (h *Controller) Get(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	_, role, err := h.actor(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "unauthorized"})
	}
	u, err := h.Svc.Get(c.Request().Context(), role, id)
	if err != nil {
		return h.fail(c, "user get", err, id)
	}
	return c.JSON(http.StatusOK, echo.Map{"user": u})
}

// PUT /v1/users/:id/role (staff)
func (h *Controller) UpdateRole(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	uid, role, err := h.actor(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "unauthorized"})
	}
	var req RoleReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid json"})
	}
	if err := h.V.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "validation error", "errors": err.Error()})
	}
	if err := h.Svc.UpdateRole(c.Request().Context(), uid, role, id, req.Role); err != nil {
		return h.fail(c, "user update role", err, id)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "role updated"})
}

// PUT /v1/users/:id/active (staff)
func (h *Controller) SetActive(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	uid, role, err := h.actor(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "unauthorized"})
	}
	var req ActiveReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid json"})
	}
	if err := h.V.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "validation error", "errors": err.Error()})
	}
	if err := h.Svc.SetActive(c.Request().Context(), uid, role, id, *req.IsActive); err != nil {
		return h.fail(c, "user set active", err, id)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "account status updated"})
}

// DELETE /v1/users/:id (staff)
func (h *Controller) Delete(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	uid, role, err := h.actor(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "unauthorized"})
	}
	if err := h.Svc.Delete(c.Request().Context(), uid, role, id); err != nil {
		return h.fail(c, "user delete", err, id)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "user deleted"})
}

// POST /v1/users (admin)
func (h *Controller) Create(c echo.Context) error {
	uid, _, err := h.actor(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "unauthorized"})
	}
	var req model.CreateUserReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid json"})
	}
	if err := h.V.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "validation error", "errors": err.Error()})
	}
	u, err := h.Svc.Create(c.Request().Context(), uid, req)
	if err != nil {
		return h.fail(c, "user create", err, 0)
	}
	return c.JSON(http.StatusCreated, echo.Map{"user": u})
}

// PUT /v1/users/:id/profile
func (h *Controller) UpdateProfile(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	uid, _, err := h.actor(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "unauthorized"})
	}
	var req model.UpdateProfileReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid json"})
	}
	if err := h.V.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "validation error", "errors": err.Error()})
	}
	if err := h.Svc.UpdateProfile(c.Request().Context(), uid, id, req); err != nil {
		return h.fail(c, "user update profile", err, id)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "profile updated"})
}
