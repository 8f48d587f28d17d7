package bookrepo

import (
	"context"
	"database/sql"
	"errors"

	"github.com/XuanHung225/library-management/model"
)

type Repo interface {
	CreateBook(ctx context.Context, title, author string, total int64, categoryID *int64) (int64, error)
	// UpdateBook rewrites title/author/category/total; available shifts by
	// the same delta as total so checked-out copies stay accounted for.
	UpdateBook(ctx context.Context, id int64, title, author string, total int64, categoryID *int64) (bool, error)
	SoftDelete(ctx context.Context, id int64) (bool, error)
	List(ctx context.Context) ([]model.Book, error)
	Detail(ctx context.Context, id int64) (*model.Book, error)

	ListCategories(ctx context.Context) ([]model.Category, error)
	CreateCategory(ctx context.Context, name string) (int64, error)
}

type repo struct{ db *sql.DB }

func New(db *sql.DB) Repo { return &repo{db} }

func (r *repo) CreateBook(ctx context.Context, title, author string, total int64, categoryID *int64) (int64, error) {
	if total < 0 {
		return 0, errors.New("total must be >= 0")
	}
	const q = `
		INSERT INTO books (title, author, total_quantity, available_quantity, category_id)
		VALUES ($1, $2, $3, $3, $4)
		RETURNING id`
	var id int64
	if err := r.db.QueryRowContext(ctx, q, title, author, total, categoryID).Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}

func (r *repo) UpdateBook(ctx context.Context, id int64, title, author string, total int64, categoryID *int64) (bool, error) {
	// The guard keeps 0 <= available <= total even when copies are out on
	// loan: shrinking total below the checked-out count is refused.
	const q = `
		UPDATE books
		SET title = $2,
		    author = $3,
		    available_quantity = available_quantity + ($4 - total_quantity),
		    total_quantity = $4,
		    category_id = $5
		WHERE id = $1
		  AND deleted_at IS NULL
		  AND available_quantity + ($4 - total_quantity) >= 0`
	res, err := r.db.ExecContext(ctx, q, id, title, author, total, categoryID)
	if err != nil {
		return false, err
	}
	aff, err := res.RowsAffected()
	return aff > 0, err
}

func (r *repo) SoftDelete(ctx context.Context, id int64) (bool, error) {
	const q = `
		UPDATE books
		SET deleted_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL`
	res, err := r.db.ExecContext(ctx, q, id)
	if err != nil {
		return false, err
	}
	aff, err := res.RowsAffected()
	return aff > 0, err
}

func (r *repo) List(ctx context.Context) ([]model.Book, error) {
	const q = `
		SELECT id, title, author, total_quantity, available_quantity, category_id, created_at
		FROM books
		WHERE deleted_at IS NULL
		ORDER BY id DESC`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Book
	for rows.Next() {
		var b model.Book
		if err := rows.Scan(&b.ID, &b.Title, &b.Author, &b.TotalQuantity, &b.AvailableQuantity, &b.CategoryID, &b.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *repo) Detail(ctx context.Context, id int64) (*model.Book, error) {
	const q = `
		SELECT id, title, author, total_quantity, available_quantity, category_id, created_at
		FROM books
		WHERE id = $1 AND deleted_at IS NULL`
	var b model.Book
	err := r.db.QueryRowContext(ctx, q, id).Scan(&b.ID, &b.Title, &b.Author, &b.TotalQuantity, &b.AvailableQuantity, &b.CategoryID, &b.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *repo) ListCategories(ctx context.Context) ([]model.Category, error) {
	const q = `
		SELECT id, name
		FROM categories
		ORDER BY name`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Category
	for rows.Next() {
		var c model.Category
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *repo) CreateCategory(ctx context.Context, name string) (int64, error) {
	const q = `
		INSERT INTO categories (name)
		VALUES ($1)
		RETURNING id`
	var id int64
	if err := r.db.QueryRowContext(ctx, q, name).Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}
