package auth

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/XuanHung225/library-management/app/echoServer/jwtx"
	"github.com/XuanHung225/library-management/model"
	authsvc "github.com/XuanHung225/library-management/service/auth"
)

type Controller struct {
	Svc authsvc.Service
	V   *validator.Validate
	Log *slog.Logger
}

// Register a new user
// @Summary      Register user
// @Description  Register a new reader account, returns the user and a JWT
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        payload  body  model.RegisterReq  true  "Register payload"
// @Success      201  {object}  map[string]any
// @Failure      400  {object}  map[string]any
// @Failure      409  {object}  map[string]any "email/username already taken"
// @Failure      500  {object}  map[string]any
// @Router       /v1/users/register [post]
func (ct *Controller) Register(c echo.Context) error {
	var req model.RegisterReq

	if err := c.Bind(&req); err != nil {
		if ct.Log != nil {
			ct.Log.Warn("bind failed", "path", c.Path(), "err", err)
		}
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	if err := ct.V.Struct(req); err != nil {
		if ct.Log != nil {
			ct.Log.Warn("validation failed", "path", c.Path(), "err", err)
		}
		return echo.NewHTTPError(http.StatusBadRequest, "validation error")
	}

	u, token, err := ct.Svc.Register(c.Request().Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, authsvc.ErrEmailTaken):
			return echo.NewHTTPError(http.StatusConflict, "email already registered")
		case errors.Is(err, authsvc.ErrUsernameTaken):
			return echo.NewHTTPError(http.StatusConflict, "username already taken")
		case errors.Is(err, authsvc.ErrBadInput):
			return echo.NewHTTPError(http.StatusBadRequest, "bad input")
		default:
			if ct.Log != nil {
				rid := c.Response().Header().Get(echo.HeaderXRequestID)
				ct.Log.Error("register failed",
					"err", err,
					"req_id", rid,
					"path", c.Path(),
					"method", c.Request().Method,
				)
			}
			return echo.NewHTTPError(http.StatusInternalServerError, "register failed")
		}
	}

	return c.JSON(http.StatusCreated, echo.Map{
		"message": "registered",
		"user":    u,
		"token":   token,
	})
}

// Login
// @Summary      Login
// @Description  Login with email + password, returns JWT
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        payload  body  model.LoginReq  true  "Login payload"
// @Success      200  {object}  map[string]any
// @Failure      400  {object}  map[string]any
// @Failure      401  {object}  map[string]any
// @Failure      403  {object}  map[string]any "account deactivated"
// @Failure      500  {object}  map[string]any
// @Router       /v1/users/login [post]
func (ct *Controller) Login(c echo.Context) error {
	var req model.LoginReq

	if err := c.Bind(&req); err != nil {
		if ct.Log != nil {
			ct.Log.Warn("bind failed", "path", c.Path(), "err", err)
		}
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	if err := ct.V.Struct(req); err != nil {
		if ct.Log != nil {
			ct.Log.Warn("validation failed", "path", c.Path(), "err", err)
		}
		return echo.NewHTTPError(http.StatusBadRequest, "validation error")
	}

	u, token, err := ct.Svc.Login(c.Request().Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, authsvc.ErrInvalidCreds):
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid email or password")
		case errors.Is(err, authsvc.ErrDeactivated):
			return echo.NewHTTPError(http.StatusForbidden, "account deactivated")
		default:
			if ct.Log != nil {
				rid := c.Response().Header().Get(echo.HeaderXRequestID)
				ct.Log.Error("login failed",
					"err", err,
					"req_id", rid,
					"path", c.Path(),
					"method", c.Request().Method,
				)
			}
			return echo.NewHTTPError(http.StatusInternalServerError, "login failed")
		}
	}

	return c.JSON(http.StatusOK, echo.Map{
		"message": "login success",
		"role":    u.Role,
		"token":   token,
	})
}

// Logout
// @Summary      Logout
// @Description  Revoke the presented token until it expires
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  map[string]any
// @Failure      500  {object}  map[string]any
// @Router       /v1/users/logout [post]
func (ct *Controller) Logout(c echo.Context) error {
	raw := c.Request().Header.Get(echo.HeaderAuthorization)
	if err := ct.Svc.Logout(c.Request().Context(), raw); err != nil {
		if ct.Log != nil {
			ct.Log.Error("logout failed", "err", err, "path", c.Path())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "logout failed")
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "logged out"})
}

// Me
// @Summary      Current user
// @Description  Profile of the authenticated user
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  map[string]any
// @Failure      401  {object}  map[string]any
// @Failure      500  {object}  map[string]any
// @Router       /v1/users/me [get]
func (ct *Controller) Me(c echo.Context) error {
	uid, err := jwtx.UserIDFromContext(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	u, err := ct.Svc.Me(c.Request().Context(), uid)
	if err != nil {
		if errors.Is(err, authsvc.ErrInvalidCreds) {
			return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
		}
		if ct.Log != nil {
			ct.Log.Error("me failed", "err", err, "path", c.Path())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "lookup failed")
	}
	return c.JSON(http.StatusOK, echo.Map{"user": u})
}

// Change password
// @Summary      Change password
// @Description  Replace the authenticated user's password after checking the current one
// @Tags         auth
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body  model.ChangePasswordReq  true  "Change password payload"
// @Success      200  {object}  map[string]any
// @Failure      400  {object}  map[string]any
// @Failure      401  {object}  map[string]any "current password wrong"
// @Failure      500  {object}  map[string]any
// @Router       /v1/users/change-password [post]
func (ct *Controller) ChangePassword(c echo.Context) error {
	uid, err := jwtx.UserIDFromContext(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	var req model.ChangePasswordReq
	if err := c.Bind(&req); err != nil {
		if ct.Log != nil {
			ct.Log.Warn("bind failed", "path", c.Path(), "err", err)
		}
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if err := ct.V.Struct(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "validation error")
	}

	if err := ct.Svc.ChangePassword(c.Request().Context(), uid, req); err != nil {
		switch {
		case errors.Is(err, authsvc.ErrInvalidCreds):
			return echo.NewHTTPError(http.StatusUnauthorized, "current password is incorrect")
		case errors.Is(err, authsvc.ErrBadInput):
			return echo.NewHTTPError(http.StatusBadRequest, "bad input")
		default:
			if ct.Log != nil {
				ct.Log.Error("change password failed", "err", err, "path", c.Path())
			}
			return echo.NewHTTPError(http.StatusInternalServerError, "change password failed")
		}
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "password changed"})
}
