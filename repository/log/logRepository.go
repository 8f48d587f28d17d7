// repository/log/repo.go
//
// Read-heavy admin surface: SQL is built with goqu and executed through sqlx
// so filter combinations stay out of hand-written string concatenation.
package logrepo

import (
	"context"
	"database/sql"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/jmoiron/sqlx"

	"github.com/XuanHung225/library-management/model"
)

var dialect = goqu.Dialect("postgres")

// Filter narrows the activity-log listing. Zero values mean "no filter".
type Filter struct {
	UserID   int64
	Action   string
	Entity   string
	EntityID int64
	Limit    uint
}

// Stats are the headline counts for the admin dashboard.
type Stats struct {
	TotalBooks      int64 `json:"total_books" db:"total_books"`
	TotalUsers      int64 `json:"total_users" db:"total_users"`
	ActiveLoans     int64 `json:"active_loans" db:"active_loans"`
	UnpaidFineTotal int64 `json:"unpaid_fine_total" db:"unpaid_fine_total"`
}

type Repo interface {
	Insert(ctx context.Context, e *model.LogEntry) error
	List(ctx context.Context, f Filter) ([]model.LogEntry, error)
	Stats(ctx context.Context) (*Stats, error)
}

type repo struct{ db *sqlx.DB }

func New(db *sql.DB) Repo { return &repo{db: sqlx.NewDb(db, "pgx")} }

func (r *repo) Insert(ctx context.Context, e *model.LogEntry) error {
	q, args, err := dialect.
		Insert("logs").
		Cols("user_id", "action", "entity", "entity_id", "detail").
		Vals(goqu.Vals{e.UserID, e.Action, e.Entity, e.EntityID, e.Detail}).
		Prepared(true).
		ToSQL()
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, q, args...)
	return err
}

func (r *repo) List(ctx context.Context, f Filter) ([]model.LogEntry, error) {
	stmt := dialect.
		From("logs").
		Select("id", "user_id", "action", "entity", "entity_id", "detail", "created_at").
		Order(goqu.I("created_at").Desc(), goqu.I("id").Desc())

	if f.UserID > 0 {
		stmt = stmt.Where(goqu.Ex{"user_id": f.UserID})
	}
	if f.Action != "" {
		stmt = stmt.Where(goqu.Ex{"action": f.Action})
	}
	if f.Entity != "" {
		stmt = stmt.Where(goqu.Ex{"entity": f.Entity})
	}
	if f.EntityID > 0 {
		stmt = stmt.Where(goqu.Ex{"entity_id": f.EntityID})
	}
	limit := f.Limit
	if limit == 0 || limit > 500 {
		limit = 100
	}
	stmt = stmt.Limit(limit)

	q, args, err := stmt.Prepared(true).ToSQL()
	if err != nil {
		return nil, err
	}

	var out []model.LogEntry
	if err := r.db.SelectContext(ctx, &out, q, args...); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *repo) Stats(ctx context.Context) (*Stats, error) {
	q, args, err := dialect.
		Select(
			dialect.From("books").Select(goqu.COUNT("*")).Where(goqu.C("deleted_at").IsNull()).As("total_books"),
			dialect.From("users").Select(goqu.COUNT("*")).Where(goqu.C("deleted_at").IsNull()).As("total_users"),
			dialect.From("loans").Select(goqu.COUNT("*")).
				Where(goqu.C("deleted_at").IsNull(), goqu.C("status").In("pending", "approved", "borrowed")).
				As("active_loans"),
			dialect.From("fines").Select(goqu.COALESCE(goqu.SUM("amount"), 0)).
				Where(goqu.C("deleted_at").IsNull(), goqu.C("is_paid").IsFalse()).
				As("unpaid_fine_total"),
		).
		Prepared(true).
		ToSQL()
	if err != nil {
		return nil, err
	}

	var s Stats
	if err := r.db.GetContext(ctx, &s, q, args...); err != nil {
		return nil, err
	}
	return &s, nil
}
