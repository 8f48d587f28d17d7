package finesvc

import (
	"context"
	"errors"

	finerepo "github.com/XuanHung225/library-management/repository/fine"

	"github.com/XuanHung225/library-management/model"
)

// ErrNotFoundOrPaid covers both cases the conditional update cannot tell
// apart: no such fine, or a concurrent payment won the race.
var ErrNotFoundOrPaid = errors.New("fine not found or already paid")

type Repo interface {
	ListByUser(ctx context.Context, userID int64) ([]model.Fine, error)
	ListAll(ctx context.Context) ([]finerepo.StaffRow, error)
	MarkPaid(ctx context.Context, fineID int64) (bool, error)
}

type Service interface {
	MyFines(ctx context.Context, userID int64) ([]model.Fine, error)
	AllFines(ctx context.Context) ([]finerepo.StaffRow, error)
	MarkPaid(ctx context.Context, fineID int64) error
}

type service struct{ r Repo }

func New(r Repo) Service { return &service{r: r} }

func (s *service) MyFines(ctx context.Context, userID int64) ([]model.Fine, error) {
	return s.r.ListByUser(ctx, userID)
}

func (s *service) AllFines(ctx context.Context) ([]finerepo.StaffRow, error) {
	return s.r.ListAll(ctx)
}

func (s *service) MarkPaid(ctx context.Context, fineID int64) error {
	updated, err := s.r.MarkPaid(ctx, fineID)
	if err != nil {
		return err
	}
	if !updated {
		return ErrNotFoundOrPaid
	}
	return nil
}
