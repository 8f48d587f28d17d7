package loan

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	loanrepo "github.com/XuanHung225/library-management/repository/loan"
	logsvc "github.com/XuanHung225/library-management/service/log"

	"github.com/XuanHung225/library-management/model"
)

// errors used by controllers

type ErrCode string

const (
	ErrBookNotFound    ErrCode = "BOOK_NOT_FOUND"
	ErrNoCopies        ErrCode = "NO_COPIES"
	ErrLoanLimit       ErrCode = "LOAN_LIMIT"
	ErrDuplicateLoan   ErrCode = "DUPLICATE_LOAN"
	ErrLoanNotFound    ErrCode = "LOAN_NOT_FOUND"
	ErrNotPending      ErrCode = "NOT_PENDING"
	ErrNotApproved     ErrCode = "NOT_APPROVED"
	ErrAlreadyReturned ErrCode = "ALREADY_RETURNED"
	ErrNotReturnable   ErrCode = "NOT_RETURNABLE"
	ErrAlreadyLost     ErrCode = "ALREADY_LOST"
	ErrNotOverdue      ErrCode = "NOT_OVERDUE"
	ErrNotOwner        ErrCode = "NOT_OWNER"
	ErrNotDeletable    ErrCode = "NOT_DELETABLE"
	ErrBadAction       ErrCode = "BAD_ACTION"
)

type codedError struct{ code ErrCode }

func (e codedError) Error() string { return string(e.code) }
func (e codedError) Code() ErrCode { return e.code }
func makeErr(c ErrCode) error      { return codedError{code: c} }

// Code extracts error code
func Code(err error) ErrCode {
	var ce interface{ Code() ErrCode }
	if errors.As(err, &ce) {
		return ce.Code()
	}
	return ""
}

// dto

type ReturnResult struct {
	Message string
	// Warning carries a human-readable fine notice when a fine was issued.
	Warning    string
	FineAmount int64
	DaysLate   int
}

// HistoryRow = repository shape
type HistoryRow = loanrepo.HistoryRow

type Repo interface {
	BookAvailability(ctx context.Context, bookID int64) (int64, error)
	AdjustAvailability(ctx context.Context, tx *sql.Tx, bookID, delta int64) (bool, error)

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

	InsertFine(ctx context.Context, tx *sql.Tx, userID, loanID, amount int64, reason string) error
}

// Policy is the business configuration the lifecycle runs under.
type Policy struct {
	FinePerDay int64 // minor units per day late
	LostFine   int64 // flat minor-unit penalty for a lost copy
	LoanLimit  int64 // max simultaneous active loans per user
	Loc        *time.Location
}

type Service interface {
	// Create: place a pending borrow request. Availability is not deducted
	// until a librarian approves.
	Create(ctx context.Context, userID, bookID int64, due time.Time, note *string) (int64, error)

	// Decide: approve or reject a pending request. Approval deducts one copy
	// in the same transaction.
	Decide(ctx context.Context, actorID, loanID int64, action string, note *string) error

	// ConfirmPickup: the borrower collected the copy; the clock starts.
	ConfirmPickup(ctx context.Context, actorID, loanID int64, note *string) error

	// RejectIfNotPickedUp: cancel an approved loan whose borrower never
	// showed up, once the due date has passed.
	RejectIfNotPickedUp(ctx context.Context, actorID, loanID int64) error

	// Return: close the loan, restore the copy, and fine if overdue, all in
	// one transaction.
	Return(ctx context.Context, actorID, loanID int64) (*ReturnResult, error)

	// MarkLost: terminal; fixed fine, the copy never returns to the pool.
	MarkLost(ctx context.Context, actorID, loanID int64, note *string) (int64, error)

	// Delete: borrower withdraws a pending or rejected request.
	Delete(ctx context.Context, userID, loanID int64) error

	ListAll(ctx context.Context) ([]HistoryRow, error)
	ListMine(ctx context.Context, userID int64) ([]HistoryRow, error)

	// SweepPickupDeadlines runs RejectIfNotPickedUp over every approved loan
	// past due. Meant for an external scheduler; never started implicitly.
	SweepPickupDeadlines(ctx context.Context, actorID int64) (int, error)
}

// ----- Service implementation -----

type service struct {
	db     *sql.DB
	r      Repo
	logs   logsvc.Service
	policy Policy
}

func New(db *sql.DB, r Repo, logs logsvc.Service, p Policy) Service {
	if p.Loc == nil {
		p.Loc = time.UTC
	}
	return &service{db: db, r: r, logs: logs, policy: p}
}

func (s *service) Create(ctx context.Context, userID, bookID int64, due time.Time, note *string) (int64, error) {
	avail, err := s.r.BookAvailability(ctx, bookID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, makeErr(ErrBookNotFound)
		}
		return 0, err
	}
	if avail <= 0 {
		return 0, makeErr(ErrNoCopies)
	}

	active, err := s.r.CountActiveLoans(ctx, userID)
	if err != nil {
		return 0, err
	}
	if active >= s.policy.LoanLimit {
		return 0, makeErr(ErrLoanLimit)
	}

	dup, err := s.r.HasActiveLoanForBook(ctx, userID, bookID)
	if err != nil {
		return 0, err
	}
	if dup {
		return 0, makeErr(ErrDuplicateLoan)
	}

	id, err := s.r.InsertLoan(ctx, userID, bookID, due, note)
	if err != nil {
		return 0, err
	}

	s.logs.Action(ctx, &userID, "create_loan", "loan", &id,
		fmt.Sprintf("requested book_id=%d due=%s", bookID, due.Format("2006-01-02")))
	return id, nil
}

func (s *service) Decide(ctx context.Context, actorID, loanID int64, action string, note *string) (err error) {
	if action != "approve" && action != "reject" {
		return makeErr(ErrBadAction)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	l, err := s.r.GetLoanForUpdate(ctx, tx, loanID)
	if err != nil {
		return err
	}
	if l == nil {
		return makeErr(ErrLoanNotFound)
	}
	if l.Status != model.LoanPending {
		return makeErr(ErrNotPending)
	}

	if action == "approve" {
		ok, uerr := s.r.UpdateStatusNoteIf(ctx, tx, loanID, model.LoanPending, model.LoanApproved, note)
		if uerr != nil {
			return uerr
		}
		if !ok {
			return makeErr(ErrNotPending)
		}
		// Availability is re-checked at the point of decrement: the book may
		// have run out between request and approval.
		ok, uerr = s.r.AdjustAvailability(ctx, tx, l.BookID, -1)
		if uerr != nil {
			return uerr
		}
		if !ok {
			return makeErr(ErrNoCopies)
		}
	} else {
		ok, uerr := s.r.UpdateStatusNoteIf(ctx, tx, loanID, model.LoanPending, model.LoanRejected, note)
		if uerr != nil {
			return uerr
		}
		if !ok {
			return makeErr(ErrNotPending)
		}
	}

	if err = tx.Commit(); err != nil {
		return err
	}

	s.logs.Action(ctx, &actorID, action+"_loan", "loan", &loanID, "decision on borrow request")
	return nil
}

func (s *service) ConfirmPickup(ctx context.Context, actorID, loanID int64, note *string) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	l, err := s.r.GetLoanForUpdate(ctx, tx, loanID)
	if err != nil {
		return err
	}
	if l == nil {
		return makeErr(ErrLoanNotFound)
	}
	if l.Status != model.LoanApproved {
		return makeErr(ErrNotApproved)
	}

	ok, err := s.r.ConfirmPickup(ctx, tx, loanID, note)
	if err != nil {
		return err
	}
	if !ok {
		return makeErr(ErrNotApproved)
	}

	if err = tx.Commit(); err != nil {
		return err
	}

	s.logs.Action(ctx, &actorID, "confirm_pickup", "loan", &loanID, "book handed over, loan clock started")
	return nil
}

func (s *service) RejectIfNotPickedUp(ctx context.Context, actorID, loanID int64) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	l, err := s.r.GetLoanForUpdate(ctx, tx, loanID)
	if err != nil {
		return err
	}
	if l == nil {
		return makeErr(ErrLoanNotFound)
	}
	if l.Status != model.LoanApproved {
		return makeErr(ErrNotApproved)
	}
	// Policy quirk carried over from the original system: the pickup deadline
	// is the loan's due date, the same field the return deadline uses.
	if !pastDue(time.Now(), l.DueDate, s.policy.Loc) {
		return makeErr(ErrNotOverdue)
	}

	appended := "rejected: not picked up by due date"
	if l.Note != nil && *l.Note != "" {
		appended = *l.Note + " | " + appended
	}
	ok, err := s.r.UpdateStatusNoteIf(ctx, tx, loanID, model.LoanApproved, model.LoanRejected, &appended)
	if err != nil {
		return err
	}
	if !ok {
		return makeErr(ErrNotApproved)
	}

	if err = tx.Commit(); err != nil {
		return err
	}

	// The scheduler sweep has no acting user; log those without an actor so
	// the audit row carries no bogus user reference.
	var actor *int64
	if actorID > 0 {
		actor = &actorID
	}
	s.logs.Action(ctx, actor, "reject_not_picked_up", "loan", &loanID, "approved loan expired unclaimed")
	return nil
}

func (s *service) Return(ctx context.Context, actorID, loanID int64) (res *ReturnResult, err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	l, err := s.r.GetLoanForUpdate(ctx, tx, loanID)
	if err != nil {
		return nil, err
	}
	if l == nil {
		return nil, makeErr(ErrLoanNotFound)
	}
	switch l.Status {
	case model.LoanReturned:
		return nil, makeErr(ErrAlreadyReturned)
	case model.LoanApproved, model.LoanBorrowed:
		// returnable
	default:
		return nil, makeErr(ErrNotReturnable)
	}

	ok, err := s.r.MarkReturned(ctx, tx, loanID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, makeErr(ErrAlreadyReturned)
	}

	ok, err = s.r.AdjustAvailability(ctx, tx, l.BookID, +1)
	if err != nil {
		return nil, err
	}
	if !ok {
		// available would exceed total: the counter is corrupt, refuse to
		// make it worse.
		return nil, fmt.Errorf("book %d availability counter out of bounds", l.BookID)
	}

	res = &ReturnResult{Message: "book returned"}
	if days := daysLate(time.Now(), l.DueDate, s.policy.Loc); days > 0 {
		amount := int64(days) * s.policy.FinePerDay
		reason := fmt.Sprintf("overdue %d days (due %s)", days, l.DueDate.In(s.policy.Loc).Format("2006-01-02"))
		if err = s.r.InsertFine(ctx, tx, l.UserID, l.ID, amount, reason); err != nil {
			return nil, err
		}
		res.Warning = fmt.Sprintf("fine issued: %d (%d days late)", amount, days)
		res.FineAmount = amount
		res.DaysLate = days
	}

	if err = tx.Commit(); err != nil {
		return nil, err
	}

	detail := "returned on time"
	if res.Warning != "" {
		detail = res.Warning
	}
	s.logs.Action(ctx, &actorID, "return_book", "loan", &loanID, detail)
	return res, nil
}

func (s *service) MarkLost(ctx context.Context, actorID, loanID int64, note *string) (fine int64, err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	l, err := s.r.GetLoanForUpdate(ctx, tx, loanID)
	if err != nil {
		return 0, err
	}
	if l == nil {
		return 0, makeErr(ErrLoanNotFound)
	}
	if l.Status == model.LoanLost {
		return 0, makeErr(ErrAlreadyLost)
	}

	ok, err := s.r.MarkLost(ctx, tx, loanID, note)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, makeErr(ErrAlreadyLost)
	}

	// The copy never comes back: availability stays down.
	if err = s.r.InsertFine(ctx, tx, l.UserID, l.ID, s.policy.LostFine, "lost item"); err != nil {
		return 0, err
	}

	if err = tx.Commit(); err != nil {
		return 0, err
	}

	s.logs.Action(ctx, &actorID, "mark_lost", "loan", &loanID,
		fmt.Sprintf("lost item, fined %d", s.policy.LostFine))
	return s.policy.LostFine, nil
}

func (s *service) Delete(ctx context.Context, userID, loanID int64) error {
	l, err := s.r.GetLoanByID(ctx, loanID)
	if err != nil {
		return err
	}
	if l == nil {
		return makeErr(ErrLoanNotFound)
	}
	if l.UserID != userID {
		return makeErr(ErrNotOwner)
	}
	if l.Status != model.LoanPending && l.Status != model.LoanRejected {
		return makeErr(ErrNotDeletable)
	}
	if err := s.r.SoftDeleteLoan(ctx, loanID); err != nil {
		return err
	}
	s.logs.Action(ctx, &userID, "delete_loan", "loan", &loanID, "borrow request withdrawn")
	return nil
}

func (s *service) ListAll(ctx context.Context) ([]HistoryRow, error) {
	rows, err := s.r.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	s.annotate(rows)
	return rows, nil
}

func (s *service) ListMine(ctx context.Context, userID int64) ([]HistoryRow, error) {
	rows, err := s.r.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	s.annotate(rows)
	return rows, nil
}

// annotate sets the display status, flagging borrowed loans past due.
func (s *service) annotate(rows []HistoryRow) {
	now := time.Now()
	for i := range rows {
		rows[i].StatusDisplay = rows[i].Status
		if rows[i].Status == string(model.LoanBorrowed) && pastDue(now, rows[i].DueDate, s.policy.Loc) {
			rows[i].StatusDisplay = model.StatusOverdue
		}
	}
}

func (s *service) SweepPickupDeadlines(ctx context.Context, actorID int64) (int, error) {
	ids, err := s.r.ListApprovedPastDue(ctx, dateOnly(time.Now(), s.policy.Loc))
	if err != nil {
		return 0, err
	}
	swept := 0
	for _, id := range ids {
		if err := s.RejectIfNotPickedUp(ctx, actorID, id); err != nil {
			// Concurrent state changes lose the candidacy; skip, don't fail
			// the sweep.
			if Code(err) != "" {
				continue
			}
			return swept, err
		}
		swept++
	}
	return swept, nil
}
