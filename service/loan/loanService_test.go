package loan

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/XuanHung225/library-management/model"
	logrepo "github.com/XuanHung225/library-management/repository/log"
)

// The lifecycle methods open real *sql.Tx handles and pass them down to the
// repository. A stub driver gives the pool something to hand out so the
// service can be unit-tested against a mocked repository.

type stubDriver struct{}

func (stubDriver) Open(string) (driver.Conn, error) { return stubConn{}, nil }

type stubConn struct{}

func (stubConn) Prepare(string) (driver.Stmt, error) { return nil, errors.New("not supported") }
func (stubConn) Close() error                        { return nil }
func (stubConn) Begin() (driver.Tx, error)           { return stubTx{}, nil }

type stubTx struct{}

func (stubTx) Commit() error   { return nil }
func (stubTx) Rollback() error { return nil }

func init() { sql.Register("loansvc_stub", stubDriver{}) }

func testDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("loansvc_stub", "")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// --- mocks ---

type repoMock struct {
	bookAvailabilityFn     func(ctx context.Context, bookID int64) (int64, error)
	adjustAvailabilityFn   func(ctx context.Context, tx *sql.Tx, bookID, delta int64) (bool, error)
	countActiveLoansFn     func(ctx context.Context, userID int64) (int64, error)
	hasActiveLoanForBookFn func(ctx context.Context, userID, bookID int64) (bool, error)
	insertLoanFn           func(ctx context.Context, userID, bookID int64, due time.Time, note *string) (int64, error)
	getLoanByIDFn          func(ctx context.Context, loanID int64) (*model.Loan, error)
	getLoanForUpdateFn     func(ctx context.Context, tx *sql.Tx, loanID int64) (*model.Loan, error)
	updateStatusNoteIfFn   func(ctx context.Context, tx *sql.Tx, loanID int64, from, to model.LoanStatus, note *string) (bool, error)
	confirmPickupFn        func(ctx context.Context, tx *sql.Tx, loanID int64, note *string) (bool, error)
	markReturnedFn         func(ctx context.Context, tx *sql.Tx, loanID int64) (bool, error)
	markLostFn             func(ctx context.Context, tx *sql.Tx, loanID int64, note *string) (bool, error)
	softDeleteLoanFn       func(ctx context.Context, loanID int64) error
	listAllFn              func(ctx context.Context) ([]HistoryRow, error)
	listByUserFn           func(ctx context.Context, userID int64) ([]HistoryRow, error)
	listApprovedPastDueFn  func(ctx context.Context, cutoff time.Time) ([]int64, error)
	insertFineFn           func(ctx context.Context, tx *sql.Tx, userID, loanID, amount int64, reason string) error

	adjusted []int64 // deltas, in call order
	fines    []int64 // amounts, in call order
}

var _ Repo = (*repoMock)(nil)

func (m *repoMock) BookAvailability(ctx context.Context, bookID int64) (int64, error) {
	if m.bookAvailabilityFn == nil {
		return 1, nil
	}
	return m.bookAvailabilityFn(ctx, bookID)
}

func (m *repoMock) AdjustAvailability(ctx context.Context, tx *sql.Tx, bookID, delta int64) (bool, error) {
	m.adjusted = append(m.adjusted, delta)
	if m.adjustAvailabilityFn == nil {
		return true, nil
	}
	return m.adjustAvailabilityFn(ctx, tx, bookID, delta)
}

func (m *repoMock) CountActiveLoans(ctx context.Context, userID int64) (int64, error) {
	if m.countActiveLoansFn == nil {
		return 0, nil
	}
	return m.countActiveLoansFn(ctx, userID)
}

func (m *repoMock) HasActiveLoanForBook(ctx context.Context, userID, bookID int64) (bool, error) {
	if m.hasActiveLoanForBookFn == nil {
		return false, nil
	}
	return m.hasActiveLoanForBookFn(ctx, userID, bookID)
}

func (m *repoMock) InsertLoan(ctx context.Context, userID, bookID int64, due time.Time, note *string) (int64, error) {
	if m.insertLoanFn == nil {
		return 1, nil
	}
	return m.insertLoanFn(ctx, userID, bookID, due, note)
}

func (m *repoMock) GetLoanByID(ctx context.Context, loanID int64) (*model.Loan, error) {
	if m.getLoanByIDFn == nil {
		return nil, nil
	}
	return m.getLoanByIDFn(ctx, loanID)
}

func (m *repoMock) GetLoanForUpdate(ctx context.Context, tx *sql.Tx, loanID int64) (*model.Loan, error) {
	if m.getLoanForUpdateFn == nil {
		return nil, nil
	}
	return m.getLoanForUpdateFn(ctx, tx, loanID)
}

func (m *repoMock) UpdateStatusNoteIf(ctx context.Context, tx *sql.Tx, loanID int64, from, to model.LoanStatus, note *string) (bool, error) {
	if m.updateStatusNoteIfFn == nil {
		return true, nil
	}
	return m.updateStatusNoteIfFn(ctx, tx, loanID, from, to, note)
}

func (m *repoMock) ConfirmPickup(ctx context.Context, tx *sql.Tx, loanID int64, note *string) (bool, error) {
	if m.confirmPickupFn == nil {
		return true, nil
	}
	return m.confirmPickupFn(ctx, tx, loanID, note)
}

func (m *repoMock) MarkReturned(ctx context.Context, tx *sql.Tx, loanID int64) (bool, error) {
	if m.markReturnedFn == nil {
		return true, nil
	}
	return m.markReturnedFn(ctx, tx, loanID)
}

func (m *repoMock) MarkLost(ctx context.Context, tx *sql.Tx, loanID int64, note *string) (bool, error) {
	if m.markLostFn == nil {
		return true, nil
	}
	return m.markLostFn(ctx, tx, loanID, note)
}

func (m *repoMock) SoftDeleteLoan(ctx context.Context, loanID int64) error {
	if m.softDeleteLoanFn == nil {
		return nil
	}
	return m.softDeleteLoanFn(ctx, loanID)
}

func (m *repoMock) ListAll(ctx context.Context) ([]HistoryRow, error) {
	if m.listAllFn == nil {
		return nil, nil
	}
	return m.listAllFn(ctx)
}

func (m *repoMock) ListByUser(ctx context.Context, userID int64) ([]HistoryRow, error) {
	if m.listByUserFn == nil {
		return nil, nil
	}
	return m.listByUserFn(ctx, userID)
}

func (m *repoMock) ListApprovedPastDue(ctx context.Context, cutoff time.Time) ([]int64, error) {
	if m.listApprovedPastDueFn == nil {
		return nil, nil
	}
	return m.listApprovedPastDueFn(ctx, cutoff)
}

func (m *repoMock) InsertFine(ctx context.Context, tx *sql.Tx, userID, loanID, amount int64, reason string) error {
	m.fines = append(m.fines, amount)
	if m.insertFineFn == nil {
		return nil
	}
	return m.insertFineFn(ctx, tx, userID, loanID, amount, reason)
}

type logMock struct {
	actions []string
	actors  []*int64 // userID per action, in call order
}

func (m *logMock) Action(ctx context.Context, userID *int64, action, entity string, entityID *int64, detail string) {
	m.actions = append(m.actions, action)
	m.actors = append(m.actors, userID)
}

func (m *logMock) List(ctx context.Context, f logrepo.Filter) ([]model.LogEntry, error) {
	return nil, nil
}

func testPolicy() Policy {
	return Policy{FinePerDay: 5000, LostFine: 100000, LoanLimit: 5, Loc: ict}
}

func newService(t *testing.T, m *repoMock) (Service, *logMock) {
	t.Helper()
	lm := &logMock{}
	return New(testDB(t), m, lm, testPolicy()), lm
}

// --- Create ---

func TestCreate_Success(t *testing.T) {
	m := &repoMock{
		bookAvailabilityFn: func(ctx context.Context, bookID int64) (int64, error) { return 2, nil },
		insertLoanFn: func(ctx context.Context, userID, bookID int64, due time.Time, note *string) (int64, error) {
			require.Equal(t, int64(7), userID)
			require.Equal(t, int64(3), bookID)
			return 11, nil
		},
	}
	svc, lm := newService(t, m)

	id, err := svc.Create(context.Background(), 7, 3, time.Now().AddDate(0, 0, 7), nil)
	require.NoError(t, err)
	require.Equal(t, int64(11), id)
	require.Empty(t, m.adjusted, "availability must not move before approval")
	require.Equal(t, []string{"create_loan"}, lm.actions)
}

func TestCreate_BookNotFound(t *testing.T) {
	m := &repoMock{
		bookAvailabilityFn: func(ctx context.Context, bookID int64) (int64, error) {
			return 0, sql.ErrNoRows
		},
	}
	svc, _ := newService(t, m)

	_, err := svc.Create(context.Background(), 7, 99, time.Now(), nil)
	require.Equal(t, ErrBookNotFound, Code(err))
}

func TestCreate_NoCopies(t *testing.T) {
	m := &repoMock{
		bookAvailabilityFn: func(ctx context.Context, bookID int64) (int64, error) { return 0, nil },
	}
	svc, _ := newService(t, m)

	_, err := svc.Create(context.Background(), 7, 3, time.Now(), nil)
	require.Equal(t, ErrNoCopies, Code(err))
}

func TestCreate_LoanLimit(t *testing.T) {
	m := &repoMock{
		countActiveLoansFn: func(ctx context.Context, userID int64) (int64, error) { return 5, nil },
	}
	svc, _ := newService(t, m)

	_, err := svc.Create(context.Background(), 7, 3, time.Now(), nil)
	require.Equal(t, ErrLoanLimit, Code(err))
}

func TestCreate_DuplicateLoan(t *testing.T) {
	m := &repoMock{
		hasActiveLoanForBookFn: func(ctx context.Context, userID, bookID int64) (bool, error) {
			return true, nil
		},
	}
	svc, _ := newService(t, m)

	_, err := svc.Create(context.Background(), 7, 3, time.Now(), nil)
	require.Equal(t, ErrDuplicateLoan, Code(err))
}

// --- Decide ---

func pendingLoan(id int64) *model.Loan {
	return &model.Loan{ID: id, UserID: 7, BookID: 3, Status: model.LoanPending,
		DueDate: time.Now().AddDate(0, 0, 7)}
}

func TestDecide_BadAction(t *testing.T) {
	svc, _ := newService(t, &repoMock{})
	err := svc.Decide(context.Background(), 1, 11, "maybe", nil)
	require.Equal(t, ErrBadAction, Code(err))
}

func TestDecide_Approve(t *testing.T) {
	var from, to model.LoanStatus
	m := &repoMock{
		getLoanForUpdateFn: func(ctx context.Context, tx *sql.Tx, loanID int64) (*model.Loan, error) {
			return pendingLoan(loanID), nil
		},
		updateStatusNoteIfFn: func(ctx context.Context, tx *sql.Tx, loanID int64, f, tt model.LoanStatus, note *string) (bool, error) {
			from, to = f, tt
			return true, nil
		},
	}
	svc, lm := newService(t, m)

	require.NoError(t, svc.Decide(context.Background(), 1, 11, "approve", nil))
	require.Equal(t, model.LoanPending, from)
	require.Equal(t, model.LoanApproved, to)
	require.Equal(t, []int64{-1}, m.adjusted, "approval deducts exactly one copy")
	require.Equal(t, []string{"approve_loan"}, lm.actions)
}

func TestDecide_Approve_CopiesRanOut(t *testing.T) {
	m := &repoMock{
		getLoanForUpdateFn: func(ctx context.Context, tx *sql.Tx, loanID int64) (*model.Loan, error) {
			return pendingLoan(loanID), nil
		},
		// The guarded decrement loses the race: someone took the last copy
		// after the request was placed.
		adjustAvailabilityFn: func(ctx context.Context, tx *sql.Tx, bookID, delta int64) (bool, error) {
			return false, nil
		},
	}
	svc, lm := newService(t, m)

	err := svc.Decide(context.Background(), 1, 11, "approve", nil)
	require.Equal(t, ErrNoCopies, Code(err))
	require.Empty(t, lm.actions)
}

func TestDecide_Reject(t *testing.T) {
	m := &repoMock{
		getLoanForUpdateFn: func(ctx context.Context, tx *sql.Tx, loanID int64) (*model.Loan, error) {
			return pendingLoan(loanID), nil
		},
	}
	svc, _ := newService(t, m)

	require.NoError(t, svc.Decide(context.Background(), 1, 11, "reject", nil))
	require.Empty(t, m.adjusted, "rejection must not touch availability")
}

func TestDecide_NotPending(t *testing.T) {
	m := &repoMock{
		getLoanForUpdateFn: func(ctx context.Context, tx *sql.Tx, loanID int64) (*model.Loan, error) {
			l := pendingLoan(loanID)
			l.Status = model.LoanBorrowed
			return l, nil
		},
	}
	svc, _ := newService(t, m)

	err := svc.Decide(context.Background(), 1, 11, "approve", nil)
	require.Equal(t, ErrNotPending, Code(err))
}

func TestDecide_NotFound(t *testing.T) {
	svc, _ := newService(t, &repoMock{})
	err := svc.Decide(context.Background(), 1, 11, "approve", nil)
	require.Equal(t, ErrLoanNotFound, Code(err))
}

// --- ConfirmPickup ---

func TestConfirmPickup(t *testing.T) {
	m := &repoMock{
		getLoanForUpdateFn: func(ctx context.Context, tx *sql.Tx, loanID int64) (*model.Loan, error) {
			l := pendingLoan(loanID)
			l.Status = model.LoanApproved
			return l, nil
		},
	}
	svc, lm := newService(t, m)

	require.NoError(t, svc.ConfirmPickup(context.Background(), 1, 11, nil))
	require.Equal(t, []string{"confirm_pickup"}, lm.actions)
}

func TestConfirmPickup_NotApproved(t *testing.T) {
	m := &repoMock{
		getLoanForUpdateFn: func(ctx context.Context, tx *sql.Tx, loanID int64) (*model.Loan, error) {
			return pendingLoan(loanID), nil
		},
	}
	svc, _ := newService(t, m)

	err := svc.ConfirmPickup(context.Background(), 1, 11, nil)
	require.Equal(t, ErrNotApproved, Code(err))
}

// --- Return ---

func borrowedLoan(id int64, due time.Time) *model.Loan {
	now := time.Now()
	return &model.Loan{ID: id, UserID: 7, BookID: 3, Status: model.LoanBorrowed,
		LoanDate: &now, DueDate: due}
}

func TestReturn_OnTime(t *testing.T) {
	m := &repoMock{
		getLoanForUpdateFn: func(ctx context.Context, tx *sql.Tx, loanID int64) (*model.Loan, error) {
			return borrowedLoan(loanID, time.Now().AddDate(0, 0, 2)), nil
		},
	}
	svc, lm := newService(t, m)

	res, err := svc.Return(context.Background(), 1, 11)
	require.NoError(t, err)
	require.Empty(t, res.Warning)
	require.Zero(t, res.FineAmount)
	require.Equal(t, []int64{1}, m.adjusted, "return restores one copy")
	require.Empty(t, m.fines)
	require.Equal(t, []string{"return_book"}, lm.actions)
}

func TestReturn_ThreeDaysLate(t *testing.T) {
	m := &repoMock{
		getLoanForUpdateFn: func(ctx context.Context, tx *sql.Tx, loanID int64) (*model.Loan, error) {
			return borrowedLoan(loanID, time.Now().AddDate(0, 0, -3)), nil
		},
	}
	svc, _ := newService(t, m)

	res, err := svc.Return(context.Background(), 1, 11)
	require.NoError(t, err)
	require.Equal(t, 3, res.DaysLate)
	require.Equal(t, int64(15000), res.FineAmount)
	require.NotEmpty(t, res.Warning)
	require.Equal(t, []int64{15000}, m.fines)
	require.Equal(t, []int64{1}, m.adjusted)
}

func TestReturn_FromApproved(t *testing.T) {
	// A borrower can hand the copy back at the desk before pickup was ever
	// confirmed; the copy still goes back to the pool.
	m := &repoMock{
		getLoanForUpdateFn: func(ctx context.Context, tx *sql.Tx, loanID int64) (*model.Loan, error) {
			l := pendingLoan(loanID)
			l.Status = model.LoanApproved
			return l, nil
		},
	}
	svc, _ := newService(t, m)

	_, err := svc.Return(context.Background(), 1, 11)
	require.NoError(t, err)
	require.Equal(t, []int64{1}, m.adjusted)
}

func TestReturn_AlreadyReturned(t *testing.T) {
	m := &repoMock{
		getLoanForUpdateFn: func(ctx context.Context, tx *sql.Tx, loanID int64) (*model.Loan, error) {
			l := pendingLoan(loanID)
			l.Status = model.LoanReturned
			return l, nil
		},
	}
	svc, _ := newService(t, m)

	_, err := svc.Return(context.Background(), 1, 11)
	require.Equal(t, ErrAlreadyReturned, Code(err))
}

func TestReturn_NotReturnable(t *testing.T) {
	for _, st := range []model.LoanStatus{model.LoanPending, model.LoanRejected, model.LoanLost} {
		t.Run(string(st), func(t *testing.T) {
			m := &repoMock{
				getLoanForUpdateFn: func(ctx context.Context, tx *sql.Tx, loanID int64) (*model.Loan, error) {
					l := pendingLoan(loanID)
					l.Status = st
					return l, nil
				},
			}
			svc, _ := newService(t, m)

			_, err := svc.Return(context.Background(), 1, 11)
			require.Equal(t, ErrNotReturnable, Code(err))
			require.Empty(t, m.adjusted)
		})
	}
}

// --- MarkLost ---

func TestMarkLost(t *testing.T) {
	m := &repoMock{
		getLoanForUpdateFn: func(ctx context.Context, tx *sql.Tx, loanID int64) (*model.Loan, error) {
			return borrowedLoan(loanID, time.Now().AddDate(0, 0, -10)), nil
		},
	}
	svc, lm := newService(t, m)

	fine, err := svc.MarkLost(context.Background(), 1, 11, nil)
	require.NoError(t, err)
	require.Equal(t, int64(100000), fine, "lost fine is flat, not per-day")
	require.Equal(t, []int64{100000}, m.fines)
	require.Empty(t, m.adjusted, "a lost copy never returns to the pool")
	require.Equal(t, []string{"mark_lost"}, lm.actions)
}

func TestMarkLost_AlreadyLost(t *testing.T) {
	m := &repoMock{
		getLoanForUpdateFn: func(ctx context.Context, tx *sql.Tx, loanID int64) (*model.Loan, error) {
			l := pendingLoan(loanID)
			l.Status = model.LoanLost
			return l, nil
		},
	}
	svc, _ := newService(t, m)

	_, err := svc.MarkLost(context.Background(), 1, 11, nil)
	require.Equal(t, ErrAlreadyLost, Code(err))
	require.Empty(t, m.fines)
}

// --- RejectIfNotPickedUp ---

func TestRejectIfNotPickedUp(t *testing.T) {
	note := "shelf B"
	var gotNote *string
	m := &repoMock{
		getLoanForUpdateFn: func(ctx context.Context, tx *sql.Tx, loanID int64) (*model.Loan, error) {
			l := pendingLoan(loanID)
			l.Status = model.LoanApproved
			l.DueDate = time.Now().AddDate(0, 0, -1)
			l.Note = &note
			return l, nil
		},
		updateStatusNoteIfFn: func(ctx context.Context, tx *sql.Tx, loanID int64, from, to model.LoanStatus, n *string) (bool, error) {
			require.Equal(t, model.LoanApproved, from)
			require.Equal(t, model.LoanRejected, to)
			gotNote = n
			return true, nil
		},
	}
	svc, _ := newService(t, m)

	require.NoError(t, svc.RejectIfNotPickedUp(context.Background(), 1, 11))
	require.NotNil(t, gotNote)
	require.Equal(t, "shelf B | rejected: not picked up by due date", *gotNote)
	require.Empty(t, m.adjusted, "the reserved copy is not released")
}

func TestRejectIfNotPickedUp_NotYetDue(t *testing.T) {
	m := &repoMock{
		getLoanForUpdateFn: func(ctx context.Context, tx *sql.Tx, loanID int64) (*model.Loan, error) {
			l := pendingLoan(loanID)
			l.Status = model.LoanApproved
			l.DueDate = time.Now().AddDate(0, 0, 1)
			return l, nil
		},
	}
	svc, _ := newService(t, m)

	err := svc.RejectIfNotPickedUp(context.Background(), 1, 11)
	require.Equal(t, ErrNotOverdue, Code(err))
}

func TestRejectIfNotPickedUp_NotApproved(t *testing.T) {
	m := &repoMock{
		getLoanForUpdateFn: func(ctx context.Context, tx *sql.Tx, loanID int64) (*model.Loan, error) {
			l := borrowedLoan(loanID, time.Now().AddDate(0, 0, -1))
			return l, nil
		},
	}
	svc, _ := newService(t, m)

	err := svc.RejectIfNotPickedUp(context.Background(), 1, 11)
	require.Equal(t, ErrNotApproved, Code(err))
}

// --- Delete ---

func TestDelete_OwnerAndStatus(t *testing.T) {
	loan := pendingLoan(11)
	m := &repoMock{
		getLoanByIDFn: func(ctx context.Context, loanID int64) (*model.Loan, error) {
			return loan, nil
		},
	}
	svc, _ := newService(t, m)

	require.Equal(t, ErrNotOwner, Code(svc.Delete(context.Background(), 8, 11)))

	loan.Status = model.LoanBorrowed
	require.Equal(t, ErrNotDeletable, Code(svc.Delete(context.Background(), 7, 11)))

	loan.Status = model.LoanRejected
	require.NoError(t, svc.Delete(context.Background(), 7, 11))
}

// --- listings ---

func TestListMine_OverdueAnnotation(t *testing.T) {
	m := &repoMock{
		listByUserFn: func(ctx context.Context, userID int64) ([]HistoryRow, error) {
			return []HistoryRow{
				{LoanID: 1, Status: string(model.LoanBorrowed), DueDate: time.Now().AddDate(0, 0, -2)},
				{LoanID: 2, Status: string(model.LoanBorrowed), DueDate: time.Now().AddDate(0, 0, 2)},
				{LoanID: 3, Status: string(model.LoanReturned), DueDate: time.Now().AddDate(0, 0, -2)},
			}, nil
		},
	}
	svc, _ := newService(t, m)

	rows, err := svc.ListMine(context.Background(), 7)
	require.NoError(t, err)
	require.Equal(t, model.StatusOverdue, rows[0].StatusDisplay)
	require.Equal(t, string(model.LoanBorrowed), rows[1].StatusDisplay)
	require.Equal(t, string(model.LoanReturned), rows[2].StatusDisplay, "only borrowed loans show overdue")
}

// --- sweep ---

func TestSweepPickupDeadlines(t *testing.T) {
	states := map[int64]model.LoanStatus{
		21: model.LoanApproved,
		22: model.LoanBorrowed, // changed state since the candidate list was built
		23: model.LoanApproved,
	}
	m := &repoMock{
		listApprovedPastDueFn: func(ctx context.Context, cutoff time.Time) ([]int64, error) {
			return []int64{21, 22, 23}, nil
		},
		getLoanForUpdateFn: func(ctx context.Context, tx *sql.Tx, loanID int64) (*model.Loan, error) {
			l := pendingLoan(loanID)
			l.Status = states[loanID]
			l.DueDate = time.Now().AddDate(0, 0, -1)
			return l, nil
		},
	}
	svc, _ := newService(t, m)

	n, err := svc.SweepPickupDeadlines(context.Background(), 0)
	require.NoError(t, err)
	require.Equal(t, 2, n, "the loan that changed state is skipped, not fatal")
}

func TestSweepPickupDeadlines_LogsWithoutActor(t *testing.T) {
	m := &repoMock{
		listApprovedPastDueFn: func(ctx context.Context, cutoff time.Time) ([]int64, error) {
			return []int64{21}, nil
		},
		getLoanForUpdateFn: func(ctx context.Context, tx *sql.Tx, loanID int64) (*model.Loan, error) {
			l := pendingLoan(loanID)
			l.Status = model.LoanApproved
			l.DueDate = time.Now().AddDate(0, 0, -1)
			return l, nil
		},
	}
	svc, lm := newService(t, m)

	n, err := svc.SweepPickupDeadlines(context.Background(), 0)
	require.NoError(t, err)
	require.Equal(t, 1, n)
	require.Len(t, lm.actors, 1)
	require.Nil(t, lm.actors[0], "scheduler sweep must not attribute the action to a user")
}

func TestRejectIfNotPickedUp_LogsStaffActor(t *testing.T) {
	m := &repoMock{
		getLoanForUpdateFn: func(ctx context.Context, tx *sql.Tx, loanID int64) (*model.Loan, error) {
			l := pendingLoan(loanID)
			l.Status = model.LoanApproved
			l.DueDate = time.Now().AddDate(0, 0, -1)
			return l, nil
		},
	}
	svc, lm := newService(t, m)

	require.NoError(t, svc.RejectIfNotPickedUp(context.Background(), 42, 11))
	require.Len(t, lm.actors, 1)
	require.NotNil(t, lm.actors[0])
	require.Equal(t, int64(42), *lm.actors[0])
}

// --- full lifecycle ---

// Walks one loan from request to a late return against a stateful mock,
// checking the availability counter and the fine at each step.
func TestLoanLifecycle_LateReturn(t *testing.T) {
	avail := int64(3)
	var cur *model.Loan

	m := &repoMock{}
	m.bookAvailabilityFn = func(ctx context.Context, bookID int64) (int64, error) { return avail, nil }
	m.adjustAvailabilityFn = func(ctx context.Context, tx *sql.Tx, bookID, delta int64) (bool, error) {
		if avail+delta < 0 || avail+delta > 3 {
			return false, nil
		}
		avail += delta
		return true, nil
	}
	m.insertLoanFn = func(ctx context.Context, userID, bookID int64, due time.Time, note *string) (int64, error) {
		cur = &model.Loan{ID: 11, UserID: userID, BookID: bookID, Status: model.LoanPending, DueDate: due}
		return cur.ID, nil
	}
	m.getLoanForUpdateFn = func(ctx context.Context, tx *sql.Tx, loanID int64) (*model.Loan, error) {
		return cur, nil
	}
	m.updateStatusNoteIfFn = func(ctx context.Context, tx *sql.Tx, loanID int64, from, to model.LoanStatus, note *string) (bool, error) {
		if cur == nil || cur.Status != from {
			return false, nil
		}
		cur.Status = to
		return true, nil
	}
	m.confirmPickupFn = func(ctx context.Context, tx *sql.Tx, loanID int64, note *string) (bool, error) {
		if cur.Status != model.LoanApproved {
			return false, nil
		}
		now := time.Now()
		cur.Status = model.LoanBorrowed
		cur.LoanDate = &now
		return true, nil
	}
	m.markReturnedFn = func(ctx context.Context, tx *sql.Tx, loanID int64) (bool, error) {
		cur.Status = model.LoanReturned
		return true, nil
	}
	svc, lm := newService(t, m)
	ctx := context.Background()

	// reader 7 asks for book 3
	id, err := svc.Create(ctx, 7, 3, time.Now().AddDate(0, 0, 7), nil)
	require.NoError(t, err)
	require.Equal(t, int64(3), avail, "request alone does not reserve a copy")

	// librarian 42 approves: one copy is reserved
	require.NoError(t, svc.Decide(ctx, 42, id, "approve", nil))
	require.Equal(t, int64(2), avail)

	require.NoError(t, svc.ConfirmPickup(ctx, 42, id, nil))
	require.Equal(t, model.LoanBorrowed, cur.Status)

	// two days past due at the desk
	cur.DueDate = time.Now().AddDate(0, 0, -2)
	res, err := svc.Return(ctx, 42, id)
	require.NoError(t, err)
	require.Equal(t, model.LoanReturned, cur.Status)
	require.Equal(t, int64(3), avail, "the copy goes back to the pool")
	require.Equal(t, 2, res.DaysLate)
	require.Equal(t, int64(10000), res.FineAmount)
	require.Equal(t, []int64{10000}, m.fines, "exactly one overdue fine")
	require.Equal(t, []int64{-1, 1}, m.adjusted)
	require.Equal(t, []string{"create_loan", "approve_loan", "confirm_pickup", "return_book"}, lm.actions)
}
