package usersvc

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"

	userrepo "github.com/XuanHung225/library-management/repository/user"
	logsvc "github.com/XuanHung225/library-management/service/log"
	"github.com/XuanHung225/library-management/util/hash"

	"github.com/XuanHung225/library-management/model"
)

var (
	ErrNotFound      = errors.New("user not found")
	ErrForbidden     = errors.New("insufficient privileges for target account")
	ErrSelfChange    = errors.New("cannot apply this change to your own account")
	ErrBadRole       = errors.New("invalid role")
	ErrEmailTaken    = errors.New("email already registered")
	ErrUsernameTaken = errors.New("username already taken")
)

// Service is the staff-facing account administration surface plus the
// self-service profile update.
type Service interface {
	// List shows every account to an admin; a librarian sees readers only.
	List(ctx context.Context, actorRole model.Role) ([]model.User, error)
	Get(ctx context.Context, actorRole model.Role, id int64) (*model.User, error)
	UpdateRole(ctx context.Context, actorID int64, actorRole model.Role, id int64, newRole string) error
	SetActive(ctx context.Context, actorID int64, actorRole model.Role, id int64, active bool) error
	Delete(ctx context.Context, actorID int64, actorRole model.Role, id int64) error
	Create(ctx context.Context, actorID int64, req model.CreateUserReq) (*model.User, error)
	// UpdateProfile is self-service: only the account owner may edit.
	UpdateProfile(ctx context.Context, actorID, id int64, req model.UpdateProfileReq) error
}

type service struct {
	ur   userrepo.Repo
	logs logsvc.Service
}

func New(ur userrepo.Repo, logs logsvc.Service) Service {
	return &service{ur: ur, logs: logs}
}

// canManage is the staff hierarchy: an admin may act on any account, a
// librarian only on readers.
func canManage(actor, target model.Role) bool {
	if actor == model.RoleAdmin {
		return true
	}
	if actor == model.RoleLibrarian {
		return target == model.RoleUser
	}
	return false
}

func (s *service) List(ctx context.Context, actorRole model.Role) ([]model.User, error) {
	filter := model.Role("")
	if actorRole == model.RoleLibrarian {
		filter = model.RoleUser
	}
	return s.ur.List(ctx, filter)
}

func (s *service) Get(ctx context.Context, actorRole model.Role, id int64) (*model.User, error) {
	u, err := s.ur.ByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrNotFound
	}
	if !canManage(actorRole, u.Role) {
		return nil, ErrForbidden
	}
	return u, nil
}

func (s *service) UpdateRole(ctx context.Context, actorID int64, actorRole model.Role, id int64, newRole string) error {
	if actorID == id {
		return ErrSelfChange
	}
	role, ok := model.ParseRole(newRole)
	if !ok {
		return ErrBadRole
	}
	// A librarian may only hand out the reader role.
	if actorRole == model.RoleLibrarian && role != model.RoleUser {
		return ErrForbidden
	}

	target, err := s.ur.ByID(ctx, id)
	if err != nil {
		return err
	}
	if target == nil {
		return ErrNotFound
	}
	if !canManage(actorRole, target.Role) {
		return ErrForbidden
	}

	ok, err = s.ur.UpdateRole(ctx, id, role)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}

	s.logs.Action(ctx, &actorID, "update_role", "user", &id,
		fmt.Sprintf("role changed to %s", role))
	return nil
}

func (s *service) SetActive(ctx context.Context, actorID int64, actorRole model.Role, id int64, active bool) error {
	// Locking yourself out is a support ticket, not a feature.
	if actorID == id && !active {
		return ErrSelfChange
	}

	target, err := s.ur.ByID(ctx, id)
	if err != nil {
		return err
	}
	if target == nil {
		return ErrNotFound
	}
	if !canManage(actorRole, target.Role) {
		return ErrForbidden
	}

	ok, err := s.ur.SetActive(ctx, id, active)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}

	s.logs.Action(ctx, &actorID, "set_active", "user", &id,
		fmt.Sprintf("is_active set to %t", active))
	return nil
}

func (s *service) Delete(ctx context.Context, actorID int64, actorRole model.Role, id int64) error {
	if actorID == id {
		return ErrSelfChange
	}

	target, err := s.ur.ByID(ctx, id)
	if err != nil {
		return err
	}
	if target == nil {
		return ErrNotFound
	}
	// Admin accounts are never deleted through the API, not even by another
	// admin.
	if target.Role == model.RoleAdmin {
		return ErrForbidden
	}
	if !canManage(actorRole, target.Role) {
		return ErrForbidden
	}

	ok, err := s.ur.SoftDelete(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}

	s.logs.Action(ctx, &actorID, "delete_user", "user", &id, "account soft-deleted")
	return nil
}

func (s *service) Create(ctx context.Context, actorID int64, req model.CreateUserReq) (*model.User, error) {
	role, ok := model.ParseRole(req.Role)
	if !ok || role == model.RoleAdmin {
		return nil, ErrBadRole
	}

	hashed, err := hash.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	u := &model.User{
		FullName:     strings.TrimSpace(req.FullName),
		Email:        strings.TrimSpace(strings.ToLower(req.Email)),
		Username:     strings.TrimSpace(req.Username),
		PasswordHash: hashed,
		Role:         role,
		IsActive:     true,
	}
	if err := s.ur.Create(ctx, u); err != nil {
		if derr := mapDuplicateErr(err); derr != nil {
			return nil, derr
		}
		return nil, err
	}

	s.logs.Action(ctx, &actorID, "create_user", "user", &u.ID,
		fmt.Sprintf("provisioned %s with role %s", u.Username, u.Role))
	return u, nil
}

func (s *service) UpdateProfile(ctx context.Context, actorID, id int64, req model.UpdateProfileReq) error {
	if actorID != id {
		return ErrForbidden
	}
	ok, err := s.ur.UpdateProfile(ctx, id, req)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}

func mapDuplicateErr(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
		cn := strings.ToLower(pgErr.ConstraintName)
		msg := strings.ToLower(pgErr.Message)

		if strings.Contains(cn, "users_email") || strings.Contains(msg, "email") {
			return ErrEmailTaken
		}
		if strings.Contains(cn, "users_username") || strings.Contains(msg, "username") {
			return ErrUsernameTaken
		}
	}
	return nil
}
