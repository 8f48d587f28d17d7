// app/echoServer/middleware.go
package echoServer

import (
	"log/slog"
	"net/http"
	"time"

	jwtutil "github.com/XuanHung225/library-management/util/jwt"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/XuanHung225/library-management/model"
)

// Revoked checks bearer tokens against the revocation store.
type Revoked interface {
	IsRevoked(token string) (bool, error)
}

func RegisterMiddlewares(e *echo.Echo) {
	e.Use(middleware.Recover())

	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: func() string { return uuid.NewString() },
	}))

	e.Use(Slog())
}

func Slog() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			lat := time.Since(start).Milliseconds()

			rid := c.Response().Header().Get(echo.HeaderXRequestID)
			slog.Info("http",
				"method", c.Request().Method,
				"path", c.Path(),
				"status", c.Response().Status,
				"latency_ms", lat,
				"req_id", rid,
				"ip", c.RealIP(),
			)
			return err
		}
	}
}

// Claims runs after the echo-jwt middleware: it rejects revoked tokens and
// lifts sub/role out of the verified claims into typed context values.
func Claims(rev Revoked) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw := jwtutil.StripBearer(c.Request().Header.Get("Authorization"))
			if raw == "" {
				return c.JSON(http.StatusUnauthorized, echo.Map{"message": "unauthorized"})
			}
			if rev != nil {
				revoked, err := rev.IsRevoked(raw)
				if err != nil {
					c.Logger().Errorf("revocation check failed: %v", err)
					return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
				}
				if revoked {
					return c.JSON(http.StatusUnauthorized, echo.Map{"message": "token revoked"})
				}
			}

			tok, ok := c.Get("user").(*jwt.Token)
			if !ok || tok == nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"message": "unauthorized"})
			}
			claims, ok := tok.Claims.(jwt.MapClaims)
			if !ok {
				return c.JSON(http.StatusUnauthorized, echo.Map{"message": "unauthorized"})
			}

			sub, ok := claims["sub"].(float64)
			if !ok {
				return c.JSON(http.StatusUnauthorized, echo.Map{"message": "unauthorized"})
			}
			roleStr, _ := claims["role"].(string)
			role, ok := model.ParseRole(roleStr)
			if !ok {
				return c.JSON(http.StatusUnauthorized, echo.Map{"message": "unauthorized"})
			}

			c.Set("user_id", int64(sub))
			c.Set("role", role)
			return next(c)
		}
	}
}

// RequireRole gates a route group to the given roles; Claims must run first.
func RequireRole(roles ...model.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, _ := c.Get("role").(model.Role)
			for _, r := range roles {
				if role == r {
					return next(c)
				}
			}
			return c.JSON(http.StatusForbidden, echo.Map{"message": "forbidden"})
		}
	}
}
