package booksvc

import (
	"context"
	"errors"

	"github.com/XuanHung225/library-management/model"
)

var (
	ErrBadInput  = errors.New("invalid payload")
	ErrNotFound  = errors.New("book not found")
	ErrCopiesOut = errors.New("cannot shrink total below checked-out copies")
)

type Repo interface {
	CreateBook(ctx context.Context, title, author string, total int64, categoryID *int64) (int64, error)
	UpdateBook(ctx context.Context, id int64, title, author string, total int64, categoryID *int64) (bool, error)
	SoftDelete(ctx context.Context, id int64) (bool, error)
	List(ctx context.Context) ([]model.Book, error)
	Detail(ctx context.Context, id int64) (*model.Book, error)
	ListCategories(ctx context.Context) ([]model.Category, error)
	CreateCategory(ctx context.Context, name string) (int64, error)
}

type Service interface {
	Create(ctx context.Context, title, author string, total int64, categoryID *int64) (int64, error)
	Update(ctx context.Context, id int64, title, author string, total int64, categoryID *int64) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context) ([]model.Book, error)
	Detail(ctx context.Context, id int64) (*model.Book, error)
	Categories(ctx context.Context) ([]model.Category, error)
	CreateCategory(ctx context.Context, name string) (int64, error)
}

type service struct{ r Repo }

func New(r Repo) Service { return &service{r: r} }

func (s *service) Create(ctx context.Context, title, author string, total int64, categoryID *int64) (int64, error) {
	if title == "" || author == "" || total < 0 {
		return 0, ErrBadInput
	}
	return s.r.CreateBook(ctx, title, author, total, categoryID)
}

func (s *service) Update(ctx context.Context, id int64, title, author string, total int64, categoryID *int64) error {
	if title == "" || author == "" || total < 0 {
		return ErrBadInput
	}
	b, err := s.r.Detail(ctx, id)
	if err != nil {
		return err
	}
	if b == nil {
		return ErrNotFound
	}
	ok, err := s.r.UpdateBook(ctx, id, title, author, total, categoryID)
	if err != nil {
		return err
	}
	if !ok {
		// The row exists, so the guard that failed is the availability bound.
		return ErrCopiesOut
	}
	return nil
}

func (s *service) Delete(ctx context.Context, id int64) error {
	ok, err := s.r.SoftDelete(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}

func (s *service) List(ctx context.Context) ([]model.Book, error) { return s.r.List(ctx) }
func (s *service) Detail(ctx context.Context, id int64) (*model.Book, error) {
	return s.r.Detail(ctx, id)
}

func (s *service) Categories(ctx context.Context) ([]model.Category, error) {
	return s.r.ListCategories(ctx)
}

func (s *service) CreateCategory(ctx context.Context, name string) (int64, error) {
	if name == "" {
		return 0, ErrBadInput
	}
	return s.r.CreateCategory(ctx, name)
}
