package logsvc

import (
	"context"
	"log/slog"

	logrepo "github.com/XuanHung225/library-management/repository/log"

	"github.com/XuanHung225/library-management/model"
)

type Repo interface {
	Insert(ctx context.Context, e *model.LogEntry) error
	List(ctx context.Context, f logrepo.Filter) ([]model.LogEntry, error)
}

// Service is the activity log. Action is best-effort by contract: it never
// returns an error, so callers cannot accidentally couple business
// transactions to audit writes.
type Service interface {
	Action(ctx context.Context, userID *int64, action, entity string, entityID *int64, detail string)
	List(ctx context.Context, f logrepo.Filter) ([]model.LogEntry, error)
}

type service struct {
	r   Repo
	log *slog.Logger
}

func New(r Repo, log *slog.Logger) Service {
	if log == nil {
		log = slog.Default()
	}
	return &service{r: r, log: log}
}

func (s *service) Action(ctx context.Context, userID *int64, action, entity string, entityID *int64, detail string) {
	e := &model.LogEntry{
		UserID:   userID,
		Action:   action,
		Entity:   entity,
		EntityID: entityID,
		Detail:   detail,
	}
	if err := s.r.Insert(ctx, e); err != nil {
		s.log.Warn("activity log write failed", "action", action, "entity", entity, "err", err)
	}
}

func (s *service) List(ctx context.Context, f logrepo.Filter) ([]model.LogEntry, error) {
	return s.r.List(ctx, f)
}
