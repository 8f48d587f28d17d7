package book

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	booksvc "github.com/XuanHung225/library-management/service/book"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

type Controller struct {
	Svc booksvc.Service
	V   *validator.Validate
	Log *slog.Logger
}

// POST /v1/books (staff)
func (h *Controller) Create(c echo.Context) error {
	var req BookReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid json"})
	}
	if err := h.V.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "validation error", "errors": err.Error()})
	}
	id, err := h.Svc.Create(c.Request().Context(), req.Title, req.Author, req.TotalQuantity, req.CategoryID)
	if err != nil {
		if errors.Is(err, booksvc.ErrBadInput) {
			return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid payload"})
		}
		h.Log.Error("book create", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"id": id})
}

// PUT /v1/books/:id (staff)
func (h *Controller) Update(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	var req BookReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid json"})
	}
	if err := h.V.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "validation error", "errors": err.Error()})
	}
	if err := h.Svc.Update(c.Request().Context(), id, req.Title, req.Author, req.TotalQuantity, req.CategoryID); err != nil {
		switch {
		case errors.Is(err, booksvc.ErrNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"message": "book not found"})
		case errors.Is(err, booksvc.ErrBadInput):
			return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid payload"})
		case errors.Is(err, booksvc.ErrCopiesOut):
			return c.JSON(http.StatusConflict, echo.Map{"message": "cannot shrink total below checked-out copies"})
		default:
			h.Log.Error("book update", "err", err, "book_id", id)
			return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
		}
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "book updated"})
}

// DELETE /v1/books/:id (staff)
func (h *Controller) Delete(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	if err := h.Svc.Delete(c.Request().Context(), id); err != nil {
		if errors.Is(err, booksvc.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "book not found"})
		}
		h.Log.Error("book delete", "err", err, "book_id", id)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "book deleted"})
}

// GET /v1/books
func (h *Controller) List(c echo.Context) error {
	rows, err := h.Svc.List(c.Request().Context())
	if err != nil {
		h.Log.Error("book list", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"data": rows})
}

// GET /v1/books/:id
func (h *Controller) Detail(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	row, err := h.Svc.Detail(c.Request().Context(), id)
	if err != nil {
		h.Log.Error("book detail", "err", err, "book_id", id)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	if row == nil {
		return c.JSON(http.StatusNotFound, echo.Map{"message": "not found"})
	}
	return c.JSON(http.StatusOK, row)
}

// GET /v1/books/categories
func (h *Controller) Categories(c echo.Context) error {
	rows, err := h.Svc.Categories(c.Request().Context())
	if err != nil {
		h.Log.Error("category list", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"data": rows})
}

// POST /v1/books/categories (staff)
func (h *Controller) CreateCategory(c echo.Context) error {
	var req CategoryReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid json"})
	}
	if err := h.V.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "validation error", "errors": err.Error()})
	}
	id, err := h.Svc.CreateCategory(c.Request().Context(), req.Name)
	if err != nil {
		if errors.Is(err, booksvc.ErrBadInput) {
			return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid payload"})
		}
		h.Log.Error("category create", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"id": id})
}
