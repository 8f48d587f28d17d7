// model/loan.go
package model

import "time"

type LoanStatus string

const (
	LoanPending  LoanStatus = "pending"
	LoanApproved LoanStatus = "approved"
	LoanBorrowed LoanStatus = "borrowed"
	LoanReturned LoanStatus = "returned"
	LoanRejected LoanStatus = "rejected"
	LoanLost     LoanStatus = "lost"
)

// StatusOverdue is a display-only annotation for borrowed loans past their
// due date. It is never persisted.
const StatusOverdue = "overdue"

type Loan struct {
	ID         int64      `json:"id"`
	UserID     int64      `json:"user_id"`
	BookID     int64      `json:"book_id"`
	Status     LoanStatus `json:"status"`
	LoanDate   *time.Time `json:"loan_date,omitempty"`   // set at pickup confirmation
	DueDate    time.Time  `json:"due_date"`              // promised return date
	ReturnDate *time.Time `json:"return_date,omitempty"` // set at return
	Note       *string    `json:"note,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	DeletedAt  *time.Time `json:"-"`
}

// Active reports whether the loan counts toward the per-user loan cap.
func (s LoanStatus) Active() bool {
	return s == LoanPending || s == LoanApproved || s == LoanBorrowed
}
