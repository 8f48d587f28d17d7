package echoServer

import (
	"github.com/golang-jwt/jwt/v5"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"

	"github.com/XuanHung225/library-management/app/echoServer/controller/admin"
	"github.com/XuanHung225/library-management/app/echoServer/controller/auth"
	"github.com/XuanHung225/library-management/app/echoServer/controller/book"
	"github.com/XuanHung225/library-management/app/echoServer/controller/fine"
	"github.com/XuanHung225/library-management/app/echoServer/controller/loan"
	"github.com/XuanHung225/library-management/app/echoServer/controller/user"
	"github.com/XuanHung225/library-management/model"
)

type C struct {
	Auth      *auth.Controller
	Book      *book.Controller
	Loan      *loan.Controller
	Fine      *fine.Controller
	Admin     *admin.Controller
	User      *user.Controller
	Revoker   Revoked
	JWTSecret string
}

func Register(e *echo.Echo, c C) {
	// Public
	pub := e.Group("/v1")
	pub.POST("/users/register", c.Auth.Register)
	pub.POST("/users/login", c.Auth.Login)

	// Authenticated
	authed := e.Group("/v1")
	authed.Use(echojwt.WithConfig(echojwt.Config{
		SigningKey:    []byte(c.JWTSecret),
		NewClaimsFunc: func(c echo.Context) jwt.Claims { return jwt.MapClaims{} },
		TokenLookup:   "header:Authorization",
	}))
	authed.Use(Claims(c.Revoker))

	staff := RequireRole(model.RoleLibrarian, model.RoleAdmin)

	authed.POST("/users/logout", c.Auth.Logout)
	authed.GET("/users/me", c.Auth.Me)
	authed.POST("/users/change-password", c.Auth.ChangePassword)

	// Account administration; creation stays admin-only
	authed.GET("/users", c.User.List, staff)
	authed.GET("/users/:id", c.User.Get, staff)
	authed.PUT("/users/:id/role", c.User.UpdateRole, staff)
	authed.PUT("/users/:id/active", c.User.SetActive, staff)
	authed.DELETE("/users/:id", c.User.Delete, staff)
	authed.POST("/users", c.User.Create, RequireRole(model.RoleAdmin))
	authed.PUT("/users/:id/profile", c.User.UpdateProfile)

	// Books: browsing for everyone, catalog management for staff
	authed.GET("/books", c.Book.List)
	authed.GET("/books/categories", c.Book.Categories)
	authed.POST("/books/categories", c.Book.CreateCategory, staff)
	authed.GET("/books/:id", c.Book.Detail)
	authed.POST("/books", c.Book.Create, staff)
	authed.PUT("/books/:id", c.Book.Update, staff)
	authed.DELETE("/books/:id", c.Book.Delete, staff)

	// Loans
	authed.POST("/loans", c.Loan.Create)
	authed.GET("/loans/my", c.Loan.ListMine)
	authed.PUT("/loans/return", c.Loan.Return)
	authed.DELETE("/loans/:id", c.Loan.Delete)
	authed.GET("/loans", c.Loan.ListAll, staff)
	authed.PUT("/loans/:id/approve", c.Loan.Decide, staff)
	authed.PUT("/loans/:id/confirm-pickup", c.Loan.ConfirmPickup, staff)
	authed.PUT("/loans/:id/reject-if-not-picked-up", c.Loan.RejectIfNotPickedUp, staff)
	authed.PUT("/loans/:id/lost", c.Loan.MarkLost, staff)

	// Fines
	authed.GET("/fines/my", c.Fine.My)
	authed.GET("/fines", c.Fine.All, staff)
	authed.PATCH("/fines/:id/pay", c.Fine.Pay, staff)

	// Audit + stats
	authed.GET("/logs", c.Admin.ListLogs, RequireRole(model.RoleAdmin))
	authed.GET("/stats", c.Admin.Overview, staff)
}
