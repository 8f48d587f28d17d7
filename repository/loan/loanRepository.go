// repository/loan/repo.go
package loanrepo

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/XuanHung225/library-management/model"
)

// HistoryRow is a loan joined with its book (and borrower, on the staff
// listing) for read surfaces.
type HistoryRow struct {
	LoanID        int64      `json:"loan_id"`
	BookID        int64      `json:"book_id"`
	Title         string     `json:"title"`
	Author        string     `json:"author"`
	UserID        int64      `json:"user_id"`
	UserName      string     `json:"user_name,omitempty"`
	Status        string     `json:"status"`
	StatusDisplay string     `json:"status_display"`
	LoanDate      *time.Time `json:"loan_date,omitempty"`
	DueDate       time.Time  `json:"due_date"`
	ReturnDate    *time.Time `json:"return_date,omitempty"`
	Note          *string    `json:"note,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

type Repo interface {
	// Books
	BookAvailability(ctx context.Context, bookID int64) (available int64, err error)
	AdjustAvailability(ctx context.Context, tx *sql.Tx, bookID, delta int64) (bool, error)

	// Loans
	CountActiveLoans(ctx context.Context, userID int64) (int64, error)
	HasActiveLoanForBook(ctx context.Context, userID, bookID int64) (bool, error)
	InsertLoan(ctx context.Context, userID, bookID int64, due time.Time, note *string) (int64, error)
	GetLoanByID(ctx context.Context, loanID int64) (*model.Loan, error)
	GetLoanForUpdate(ctx context.Context, tx *sql.Tx, loanID int64) (*model.Loan, error)
	UpdateStatusNoteIf(ctx context.Context, tx *sql.Tx, loanID int64, from, to model.LoanStatus, note *string) (bool, error)
	ConfirmPickup(ctx context.Context, tx *sql.Tx, loanID int64, note *string) (bool, error)
	MarkReturned(ctx context.Context, tx *sql.Tx, loanID int64) (bool, error)
	MarkLost(ctx context.Context, tx *sql.Tx, loanID int64, note *string) (bool, error)
	SoftDeleteLoan(ctx context.Context, loanID int64) error
	ListAll(ctx context.Context) ([]HistoryRow, error)
	ListByUser(ctx context.Context, userID int64) ([]HistoryRow, error)
	ListApprovedPastDue(ctx context.Context, cutoff time.Time) ([]int64, error)

	// Fines
	InsertFine(ctx context.Context, tx *sql.Tx, userID, loanID, amount int64, reason string) error
}

type repo struct {
	db *sql.DB
}

func New(db *sql.DB) Repo { return &repo{db: db} }

// Books

func (r *repo) BookAvailability(ctx context.Context, bookID int64) (int64, error) {
	const q = `
		SELECT available_quantity
		FROM books
		WHERE id = $1 AND deleted_at IS NULL`
	var avail int64
	err := r.db.QueryRowContext(ctx, q, bookID).Scan(&avail)
	return avail, err
}

// AdjustAvailability applies a relative delta with the bounds guard in the
// statement itself; the losing side of a race sees zero affected rows.
func (r *repo) AdjustAvailability(ctx context.Context, tx *sql.Tx, bookID, delta int64) (bool, error) {
	const q = `
		UPDATE books
		SET available_quantity = available_quantity + $2
		WHERE id = $1
		  AND deleted_at IS NULL
		  AND available_quantity + $2 >= 0
		  AND available_quantity + $2 <= total_quantity`
	res, err := tx.ExecContext(ctx, q, bookID, delta)
	if err != nil {
		return false, err
	}
	aff, err := res.RowsAffected()
	return aff > 0, err
}

// Loans

func (r *repo) CountActiveLoans(ctx context.Context, userID int64) (int64, error) {
	const q = `
		SELECT COUNT(*)
		FROM loans
		WHERE user_id = $1
		  AND status IN ('pending','approved','borrowed')
		  AND deleted_at IS NULL`
	var n int64
	err := r.db.QueryRowContext(ctx, q, userID).Scan(&n)
	return n, err
}

func (r *repo) HasActiveLoanForBook(ctx context.Context, userID, bookID int64) (bool, error) {
	const q = `
		SELECT EXISTS (
			SELECT 1
			FROM loans
			WHERE user_id = $1
			  AND book_id = $2
			  AND status IN ('pending','approved','borrowed')
			  AND deleted_at IS NULL
		)`
	var exists bool
	err := r.db.QueryRowContext(ctx, q, userID, bookID).Scan(&exists)
	return exists, err
}

func (r *repo) InsertLoan(ctx context.Context, userID, bookID int64, due time.Time, note *string) (int64, error) {
	// loan_date stays NULL until pickup is confirmed
	const q = `
		INSERT INTO loans (user_id, book_id, status, loan_date, due_date, note)
		VALUES ($1, $2, 'pending', NULL, $3, $4)
		RETURNING id`
	var id int64
	if err := r.db.QueryRowContext(ctx, q, userID, bookID, due, note).Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}

const loanColumns = `id, user_id, book_id, status, loan_date, due_date, return_date, note, created_at`

func scanLoan(row *sql.Row) (*model.Loan, error) {
	l := &model.Loan{}
	err := row.Scan(
		&l.ID, &l.UserID, &l.BookID, &l.Status,
		&l.LoanDate, &l.DueDate, &l.ReturnDate, &l.Note, &l.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return l, nil
}

func (r *repo) GetLoanByID(ctx context.Context, loanID int64) (*model.Loan, error) {
	const q = `
		SELECT ` + loanColumns + `
		FROM loans
		WHERE id = $1 AND deleted_at IS NULL`
	return scanLoan(r.db.QueryRowContext(ctx, q, loanID))
}

func (r *repo) GetLoanForUpdate(ctx context.Context, tx *sql.Tx, loanID int64) (*model.Loan, error) {
	const q = `
		SELECT ` + loanColumns + `
		FROM loans
		WHERE id = $1 AND deleted_at IS NULL
		FOR UPDATE`
	return scanLoan(tx.QueryRowContext(ctx, q, loanID))
}

func (r *repo) UpdateStatusNoteIf(ctx context.Context, tx *sql.Tx, loanID int64, from, to model.LoanStatus, note *string) (bool, error) {
	const q = `
		UPDATE loans
		SET status = $3,
		    note = COALESCE($4, note)
		WHERE id = $1
		  AND status = $2
		  AND deleted_at IS NULL`
	res, err := tx.ExecContext(ctx, q, loanID, from, to, note)
	if err != nil {
		return false, err
	}
	aff, err := res.RowsAffected()
	return aff > 0, err
}

func (r *repo) ConfirmPickup(ctx context.Context, tx *sql.Tx, loanID int64, note *string) (bool, error) {
	const q = `
		UPDATE loans
		SET status = 'borrowed',
		    loan_date = NOW(),
		    note = COALESCE($2, note)
		WHERE id = $1
		  AND status = 'approved'
		  AND deleted_at IS NULL`
	res, err := tx.ExecContext(ctx, q, loanID, note)
	if err != nil {
		return false, err
	}
	aff, err := res.RowsAffected()
	return aff > 0, err
}

func (r *repo) MarkReturned(ctx context.Context, tx *sql.Tx, loanID int64) (bool, error) {
	// Only approved/borrowed loans ever took a copy out of the pool, so only
	// those are returnable.
	const q = `
		UPDATE loans
		SET status = 'returned',
		    return_date = NOW()
		WHERE id = $1
		  AND status IN ('approved','borrowed')
		  AND deleted_at IS NULL`
	res, err := tx.ExecContext(ctx, q, loanID)
	if err != nil {
		return false, err
	}
	aff, err := res.RowsAffected()
	return aff > 0, err
}

func (r *repo) MarkLost(ctx context.Context, tx *sql.Tx, loanID int64, note *string) (bool, error) {
	const q = `
		UPDATE loans
		SET status = 'lost',
		    note = COALESCE($2, note)
		WHERE id = $1
		  AND status <> 'lost'
		  AND deleted_at IS NULL`
	res, err := tx.ExecContext(ctx, q, loanID, note)
	if err != nil {
		return false, err
	}
	aff, err := res.RowsAffected()
	return aff > 0, err
}

func (r *repo) SoftDeleteLoan(ctx context.Context, loanID int64) error {
	const q = `
		UPDATE loans
		SET deleted_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL`
	_, err := r.db.ExecContext(ctx, q, loanID)
	return err
}

func (r *repo) ListAll(ctx context.Context) ([]HistoryRow, error) {
	const q = `
		SELECT
			l.id          AS loan_id,
			l.book_id     AS book_id,
			b.title       AS title,
			b.author      AS author,
			u.id          AS user_id,
			u.full_name   AS user_name,
			l.status      AS status,
			l.loan_date   AS loan_date,
			l.due_date    AS due_date,
			l.return_date AS return_date,
			l.note        AS note,
			l.created_at  AS created_at
		FROM loans l
		JOIN books b ON b.id = l.book_id
		JOIN users u ON u.id = l.user_id
		WHERE l.deleted_at IS NULL
		ORDER BY l.created_at DESC, l.id DESC`
	return r.listRows(ctx, q)
}

func (r *repo) ListByUser(ctx context.Context, userID int64) ([]HistoryRow, error) {
	const q = `
		SELECT
			l.id          AS loan_id,
			l.book_id     AS book_id,
			b.title       AS title,
			b.author      AS author,
			u.id          AS user_id,
			u.full_name   AS user_name,
			l.status      AS status,
			l.loan_date   AS loan_date,
			l.due_date    AS due_date,
			l.return_date AS return_date,
			l.note        AS note,
			l.created_at  AS created_at
		FROM loans l
		JOIN books b ON b.id = l.book_id
		JOIN users u ON u.id = l.user_id
		WHERE l.user_id = $1 AND l.deleted_at IS NULL
		ORDER BY l.created_at DESC, l.id DESC`
	return r.listRows(ctx, q, userID)
}

func (r *repo) listRows(ctx context.Context, q string, args ...any) ([]HistoryRow, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []HistoryRow
	for rows.Next() {
		var h HistoryRow
		if err := rows.Scan(
			&h.LoanID, &h.BookID, &h.Title, &h.Author, &h.UserID, &h.UserName,
			&h.Status, &h.LoanDate, &h.DueDate, &h.ReturnDate, &h.Note, &h.CreatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

func (r *repo) ListApprovedPastDue(ctx context.Context, cutoff time.Time) ([]int64, error) {
	const q = `
		SELECT id
		FROM loans
		WHERE status = 'approved'
		  AND due_date < $1
		  AND deleted_at IS NULL
		ORDER BY id`
	rows, err := r.db.QueryContext(ctx, q, cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Fines

func (r *repo) InsertFine(ctx context.Context, tx *sql.Tx, userID, loanID, amount int64, reason string) error {
	const q = `
		INSERT INTO fines (user_id, loan_id, amount, reason, is_paid, issued_at)
		VALUES ($1, $2, $3, $4, FALSE, NOW())`
	_, err := tx.ExecContext(ctx, q, userID, loanID, amount, reason)
	return err
}
