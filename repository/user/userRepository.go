package userrepo

import (
	"context"
	"database/sql"
	"errors"

	"github.com/XuanHung225/library-management/model"
)

type Repo interface {
	Create(ctx context.Context, u *model.User) error
	ByEmail(ctx context.Context, email string) (*model.User, error)
	ByID(ctx context.Context, id int64) (*model.User, error)
	// List returns non-deleted users, optionally narrowed to one role.
	List(ctx context.Context, roleFilter model.Role) ([]model.User, error)
	UpdateRole(ctx context.Context, id int64, role model.Role) (bool, error)
	SetActive(ctx context.Context, id int64, active bool) (bool, error)
	UpdateProfile(ctx context.Context, id int64, p model.UpdateProfileReq) (bool, error)
	UpdatePassword(ctx context.Context, id int64, passwordHash string) (bool, error)
	// SoftDelete also deactivates, so the account cannot log in again even if
	// a stale session survives.
	SoftDelete(ctx context.Context, id int64) (bool, error)
}

type repo struct{ db *sql.DB }

func New(db *sql.DB) Repo { return &repo{db} }

const userColumns = `id, full_name, email, username, password_hash, role, is_active, phone, address, created_at`

func scanUser(row *sql.Row) (*model.User, error) {
	u := &model.User{}
	err := row.Scan(
		&u.ID, &u.FullName, &u.Email, &u.Username, &u.PasswordHash,
		&u.Role, &u.IsActive, &u.Phone, &u.Address, &u.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

func (r *repo) Create(ctx context.Context, u *model.User) error {
	return r.db.QueryRowContext(ctx, `
		INSERT INTO users(full_name, email, username, password_hash, role, is_active)
		VALUES ($1,$2,$3,$4,$5,TRUE)
		RETURNING id, created_at`,
		u.FullName, u.Email, u.Username, u.PasswordHash, u.Role,
	).Scan(&u.ID, &u.CreatedAt)
}

func (r *repo) ByEmail(ctx context.Context, email string) (*model.User, error) {
	return scanUser(r.db.QueryRowContext(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE lower(email) = lower($1) AND deleted_at IS NULL`,
		email,
	))
}

func (r *repo) ByID(ctx context.Context, id int64) (*model.User, error) {
	return scanUser(r.db.QueryRowContext(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE id = $1 AND deleted_at IS NULL`,
		id,
	))
}

func (r *repo) List(ctx context.Context, roleFilter model.Role) ([]model.User, error) {
	const q = `
		SELECT ` + userColumns + `
		FROM users
		WHERE deleted_at IS NULL
		  AND ($1 = '' OR role = $1)
		ORDER BY created_at DESC, id DESC`
	rows, err := r.db.QueryContext(ctx, q, string(roleFilter))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.User
	for rows.Next() {
		var u model.User
		if err := rows.Scan(
			&u.ID, &u.FullName, &u.Email, &u.Username, &u.PasswordHash,
			&u.Role, &u.IsActive, &u.Phone, &u.Address, &u.CreatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (r *repo) UpdateRole(ctx context.Context, id int64, role model.Role) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE users
		SET role = $2
		WHERE id = $1 AND deleted_at IS NULL`,
		id, role,
	)
	if err != nil {
		return false, err
	}
	aff, err := res.RowsAffected()
	return aff > 0, err
}

func (r *repo) SetActive(ctx context.Context, id int64, active bool) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE users
		SET is_active = $2
		WHERE id = $1 AND deleted_at IS NULL`,
		id, active,
	)
	if err != nil {
		return false, err
	}
	aff, err := res.RowsAffected()
	return aff > 0, err
}

func (r *repo) UpdateProfile(ctx context.Context, id int64, p model.UpdateProfileReq) (bool, error) {
	// COALESCE keeps columns untouched when the field was omitted.
	res, err := r.db.ExecContext(ctx, `
		UPDATE users
		SET full_name = COALESCE($2, full_name),
		    phone     = COALESCE($3, phone),
		    address   = COALESCE($4, address)
		WHERE id = $1 AND deleted_at IS NULL`,
		id, p.FullName, p.Phone, p.Address,
	)
	if err != nil {
		return false, err
	}
	aff, err := res.RowsAffected()
	return aff > 0, err
}

func (r *repo) UpdatePassword(ctx context.Context, id int64, passwordHash string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE users
		SET password_hash = $2
		WHERE id = $1 AND deleted_at IS NULL`,
		id, passwordHash,
	)
	if err != nil {
		return false, err
	}
	aff, err := res.RowsAffected()
	return aff > 0, err
}

func (r *repo) SoftDelete(ctx context.Context, id int64) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE users
		SET deleted_at = NOW(),
		    is_active = FALSE
		WHERE id = $1 AND deleted_at IS NULL`,
		id,
	)
	if err != nil {
		return false, err
	}
	aff, err := res.RowsAffected()
	return aff > 0, err
}
