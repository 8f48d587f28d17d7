// repository/fine/repo.go
package finerepo

import (
	"context"
	"database/sql"

	"github.com/XuanHung225/library-management/model"
)

// StaffRow is a fine joined with the borrower for the staff listing.
type StaffRow struct {
	model.Fine
	Username string `json:"username"`
	FullName string `json:"full_name"`
}

type Repo interface {
	ListByUser(ctx context.Context, userID int64) ([]model.Fine, error)
	ListAll(ctx context.Context) ([]StaffRow, error)
	// MarkPaid flips the paid flag; false means no unpaid fine with that id.
	MarkPaid(ctx context.Context, fineID int64) (bool, error)
}

type repo struct{ db *sql.DB }

func New(db *sql.DB) Repo { return &repo{db: db} }

func (r *repo) ListByUser(ctx context.Context, userID int64) ([]model.Fine, error) {
	const q = `
		SELECT id, user_id, loan_id, amount, reason, is_paid, issued_at, paid_at
		FROM fines
		WHERE user_id = $1 AND deleted_at IS NULL
		ORDER BY issued_at DESC`
	rows, err := r.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Fine
	for rows.Next() {
		var f model.Fine
		if err := rows.Scan(&f.ID, &f.UserID, &f.LoanID, &f.Amount, &f.Reason, &f.IsPaid, &f.IssuedAt, &f.PaidAt); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

func (r *repo) ListAll(ctx context.Context) ([]StaffRow, error) {
	const q = `
		SELECT f.id, f.user_id, f.loan_id, f.amount, f.reason, f.is_paid, f.issued_at, f.paid_at,
		       u.username, u.full_name
		FROM fines f
		LEFT JOIN users u ON u.id = f.user_id
		WHERE f.deleted_at IS NULL
		ORDER BY f.issued_at DESC`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []StaffRow
	for rows.Next() {
		var f StaffRow
		if err := rows.Scan(&f.ID, &f.UserID, &f.LoanID, &f.Amount, &f.Reason, &f.IsPaid, &f.IssuedAt, &f.PaidAt, &f.Username, &f.FullName); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

func (r *repo) MarkPaid(ctx context.Context, fineID int64) (bool, error) {
	// Conditioned on is_paid so a concurrent double-payment loses cleanly.
	const q = `
		UPDATE fines
		SET is_paid = TRUE,
		    paid_at = NOW()
		WHERE id = $1
		  AND is_paid = FALSE
		  AND deleted_at IS NULL`
	res, err := r.db.ExecContext(ctx, q, fineID)
	if err != nil {
		return false, err
	}
	aff, err := res.RowsAffected()
	return aff > 0, err
}
