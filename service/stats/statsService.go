package statssvc

import (
	"context"

	logrepo "github.com/XuanHung225/library-management/repository/log"
)

type Repo interface {
	Stats(ctx context.Context) (*logrepo.Stats, error)
}

type Service interface {
	Overview(ctx context.Context) (*logrepo.Stats, error)
}

type service struct{ r Repo }

func New(r Repo) Service { return &service{r: r} }

func (s *service) Overview(ctx context.Context) (*logrepo.Stats, error) {
	return s.r.Stats(ctx)
}
