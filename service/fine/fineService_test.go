package finesvc_test

import (
	"context"
	"errors"
	"testing"

	"github.com/XuanHung225/library-management/model"
	finerepo "github.com/XuanHung225/library-management/repository/fine"
	finesvc "github.com/XuanHung225/library-management/service/fine"
)

type repoMock struct {
	listByUserFn func(ctx context.Context, userID int64) ([]model.Fine, error)
	listAllFn    func(ctx context.Context) ([]finerepo.StaffRow, error)
	markPaidFn   func(ctx context.Context, fineID int64) (bool, error)
}

func (m *repoMock) ListByUser(ctx context.Context, userID int64) ([]model.Fine, error) {
	return m.listByUserFn(ctx, userID)
}
func (m *repoMock) ListAll(ctx context.Context) ([]finerepo.StaffRow, error) {
	return m.listAllFn(ctx)
}
func (m *repoMock) MarkPaid(ctx context.Context, fineID int64) (bool, error) {
	return m.markPaidFn(ctx, fineID)
}

func TestMarkPaid_OnceOnly(t *testing.T) {
	paid := map[int64]bool{}
	m := &repoMock{
		markPaidFn: func(ctx context.Context, fineID int64) (bool, error) {
			if paid[fineID] {
				return false, nil
			}
			paid[fineID] = true
			return true, nil
		},
	}
	s := finesvc.New(m)

	if err := s.MarkPaid(context.Background(), 5); err != nil {
		t.Fatalf("first payment: %v", err)
	}
	// The conditional update makes a second payment a no-op, not a double pay.
	if err := s.MarkPaid(context.Background(), 5); !errors.Is(err, finesvc.ErrNotFoundOrPaid) {
		t.Fatalf("second payment: got %v; want ErrNotFoundOrPaid", err)
	}
}

func TestMarkPaid_Missing(t *testing.T) {
	m := &repoMock{
		markPaidFn: func(ctx context.Context, fineID int64) (bool, error) { return false, nil },
	}
	s := finesvc.New(m)

	if err := s.MarkPaid(context.Background(), 99); !errors.Is(err, finesvc.ErrNotFoundOrPaid) {
		t.Fatalf("got %v; want ErrNotFoundOrPaid", err)
	}
}

func TestListPassThroughs(t *testing.T) {
	m := &repoMock{
		listByUserFn: func(ctx context.Context, userID int64) ([]model.Fine, error) {
			return []model.Fine{{ID: 1, UserID: userID, Amount: 15000}}, nil
		},
		listAllFn: func(ctx context.Context) ([]finerepo.StaffRow, error) {
			return []finerepo.StaffRow{{}}, nil
		},
	}
	s := finesvc.New(m)

	mine, err := s.MyFines(context.Background(), 7)
	if err != nil || len(mine) != 1 || mine[0].Amount != 15000 {
		t.Fatalf("MyFines got %v %v", mine, err)
	}
	all, err := s.AllFines(context.Background())
	if err != nil || len(all) != 1 {
		t.Fatalf("AllFines got %v %v", all, err)
	}
}
