package authsvc

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"

	userrepo "github.com/XuanHung225/library-management/repository/user"
	"github.com/XuanHung225/library-management/util/hash"
	jwtutil "github.com/XuanHung225/library-management/util/jwt"

	"github.com/XuanHung225/library-management/model"
)

var (
	ErrEmailTaken    = errors.New("email already registered")
	ErrUsernameTaken = errors.New("username already taken")
	ErrBadInput      = errors.New("bad input")
	ErrInvalidCreds  = errors.New("invalid credentials")
	ErrDeactivated   = errors.New("account deactivated")
)

// Revoker is the token blocklist. Satisfied by util/revoke.Store.
type Revoker interface {
	Revoke(token string, ttl time.Duration) error
	IsRevoked(token string) (bool, error)
}

type Service interface {
	Register(ctx context.Context, req model.RegisterReq) (*model.User, string, error)
	Login(ctx context.Context, req model.LoginReq) (*model.User, string, error)
	// Logout revokes the presented token until its natural expiry.
	Logout(ctx context.Context, rawToken string) error
	Me(ctx context.Context, userID int64) (*model.User, error)
	// ChangePassword verifies the current password before storing a new hash.
	ChangePassword(ctx context.Context, userID int64, req model.ChangePasswordReq) error
}

type service struct {
	ur      userrepo.Repo
	secret  string
	revoker Revoker
}

func New(ur userrepo.Repo, secret string, revoker Revoker) Service {
	return &service{ur: ur, secret: secret, revoker: revoker}
}

func (s *service) Register(ctx context.Context, req model.RegisterReq) (*model.User, string, error) {
	email := strings.TrimSpace(strings.ToLower(req.Email))
	username := strings.TrimSpace(req.Username)
	if email == "" || username == "" || len(req.Password) < 6 {
		return nil, "", ErrBadInput
	}

	hashed, err := hash.HashPassword(req.Password)
	if err != nil {
		return nil, "", err
	}

	u := &model.User{
		FullName:     strings.TrimSpace(req.FullName),
		Email:        email,
		Username:     username,
		PasswordHash: hashed,
		Role:         model.RoleUser,
		IsActive:     true,
	}

	if err := s.ur.Create(ctx, u); err != nil {
		if derr := mapDuplicateErr(err); derr != nil {
			return nil, "", derr
		}
		return nil, "", err
	}

	token, err := jwtutil.Issue(s.secret, u.ID, string(u.Role), 24)
	if err != nil {
		return nil, "", err
	}
	return u, token, nil
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
		return ErrBadInput
	}
	return nil
}

func (s *service) Login(ctx context.Context, req model.LoginReq) (*model.User, string, error) {
	u, err := s.ur.ByEmail(ctx, req.Email)
	if err != nil {
		return nil, "", err
	}
	if u == nil || !hash.Check(u.PasswordHash, req.Password) {
		return nil, "", ErrInvalidCreds
	}
	if !u.IsActive {
		return nil, "", ErrDeactivated
	}
	token, err := jwtutil.Issue(s.secret, u.ID, string(u.Role), 24)
	if err != nil {
		return nil, "", err
	}
	return u, token, nil
}

func (s *service) Logout(ctx context.Context, rawToken string) error {
	claims, err := jwtutil.ParseAuth(rawToken, s.secret)
	if err != nil {
		// Invalid or already-expired tokens need no blocklist entry.
		return nil
	}
	ttl := time.Until(jwtutil.Expiry(claims))
	return s.revoker.Revoke(jwtutil.StripBearer(rawToken), ttl)
}

func (s *service) ChangePassword(ctx context.Context, userID int64, req model.ChangePasswordReq) error {
	if len(req.NewPassword) < 6 {
		return ErrBadInput
	}

	u, err := s.ur.ByID(ctx, userID)
	if err != nil {
		return err
	}
	if u == nil || !hash.Check(u.PasswordHash, req.CurrentPassword) {
		return ErrInvalidCreds
	}

	hashed, err := hash.HashPassword(req.NewPassword)
	if err != nil {
		return err
	}
	ok, err := s.ur.UpdatePassword(ctx, userID, hashed)
	if err != nil {
		return err
	}
	if !ok {
		return ErrInvalidCreds
	}
	return nil
}

func (s *service) Me(ctx context.Context, userID int64) (*model.User, error) {
	u, err := s.ur.ByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrInvalidCreds
	}
	return u, nil
}
