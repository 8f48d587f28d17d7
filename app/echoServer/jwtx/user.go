// app/echoServer/jwtx/user.go
package jwtx

import (
	"errors"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/XuanHung225/library-management/model"
)

// Claims lives between the echo-jwt middleware (which stores the parsed
// token under "user") and handlers, which want typed values.

func UserIDFromContext(c echo.Context) (int64, error) {
	if id, ok := c.Get("user_id").(int64); ok && id > 0 {
		return id, nil
	}
	claims, err := mapClaims(c)
	if err != nil {
		return 0, err
	}
	if f, ok := claims["sub"].(float64); ok {
		return int64(f), nil
	}
	return 0, errors.New("sub missing in claims")
}

func RoleFromContext(c echo.Context) (model.Role, error) {
	if r, ok := c.Get("role").(model.Role); ok {
		return r, nil
	}
	claims, err := mapClaims(c)
	if err != nil {
		return "", err
	}
	s, _ := claims["role"].(string)
	role, ok := model.ParseRole(s)
	if !ok {
		return "", errors.New("unknown role in claims")
	}
	return role, nil
}

func mapClaims(c echo.Context) (jwt.MapClaims, error) {
	tok, ok := c.Get("user").(*jwt.Token)
	if !ok || tok == nil {
		return nil, errors.New("no jwt token in context")
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("invalid jwt claims")
	}
	return claims, nil
}
