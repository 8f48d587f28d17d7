// model/fine.go
package model

import "time"

type Fine struct {
	ID       int64      `json:"id"`
	UserID   int64      `json:"user_id"`
	LoanID   int64      `json:"loan_id"`
	Amount   int64      `json:"amount"` // minor currency units
	Reason   string     `json:"reason"`
	IsPaid   bool       `json:"is_paid"`
	IssuedAt time.Time  `json:"issued_at"`
	PaidAt   *time.Time `json:"paid_at,omitempty"`
}
