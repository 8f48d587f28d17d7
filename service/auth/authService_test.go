package authsvc

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"

	"github.com/XuanHung225/library-management/model"
	userrepo "github.com/XuanHung225/library-management/repository/user"
	"github.com/XuanHung225/library-management/util/hash"
	jwtutil "github.com/XuanHung225/library-management/util/jwt"
)

type mockRepo struct {
	createFn         func(ctx context.Context, u *model.User) error
	byEmailFn        func(ctx context.Context, email string) (*model.User, error)
	byIDFn           func(ctx context.Context, id int64) (*model.User, error)
	updatePasswordFn func(ctx context.Context, id int64, passwordHash string) (bool, error)
}

var _ userrepo.Repo = (*mockRepo)(nil)

func (m *mockRepo) Create(ctx context.Context, u *model.User) error {
	if m.createFn == nil {
		return nil
	}
	return m.createFn(ctx, u)
}

func (m *mockRepo) ByEmail(ctx context.Context, email string) (*model.User, error) {
	if m.byEmailFn == nil {
		return nil, nil
	}
	return m.byEmailFn(ctx, email)
}

func (m *mockRepo) ByID(ctx context.Context, id int64) (*model.User, error) {
	if m.byIDFn == nil {
		return nil, nil
	}
	return m.byIDFn(ctx, id)
}

func (m *mockRepo) UpdatePassword(ctx context.Context, id int64, passwordHash string) (bool, error) {
	if m.updatePasswordFn == nil {
		return true, nil
	}
	return m.updatePasswordFn(ctx, id, passwordHash)
}

func (m *mockRepo) List(ctx context.Context, roleFilter model.Role) ([]model.User, error) {
	return nil, nil
}

func (m *mockRepo) UpdateRole(ctx context.Context, id int64, role model.Role) (bool, error) {
	return true, nil
}

func (m *mockRepo) SetActive(ctx context.Context, id int64, active bool) (bool, error) {
	return true, nil
}

func (m *mockRepo) UpdateProfile(ctx context.Context, id int64, p model.UpdateProfileReq) (bool, error) {
	return true, nil
}

func (m *mockRepo) SoftDelete(ctx context.Context, id int64) (bool, error) {
	return true, nil
}

type mockRevoker struct {
	revoked map[string]time.Duration
}

func newMockRevoker() *mockRevoker {
	return &mockRevoker{revoked: map[string]time.Duration{}}
}

func (m *mockRevoker) Revoke(token string, ttl time.Duration) error {
	m.revoked[token] = ttl
	return nil
}

func (m *mockRevoker) IsRevoked(token string) (bool, error) {
	_, ok := m.revoked[token]
	return ok, nil
}

func mustHash(t *testing.T, plain string) string {
	t.Helper()

	h, err := hash.HashPassword(plain)
	require.NoError(t, err)
	return h
}

// --- tests ---

func TestRegister_Success(t *testing.T) {
	ctx := context.Background()
	m := &mockRepo{
		createFn: func(ctx context.Context, u *model.User) error {
			u.ID = 42
			return nil
		},
	}
	svc := New(m, "test-secret", newMockRevoker())

	req := model.RegisterReq{
		FullName: "Nguyen Van A",
		Email:    "USER@Example.COM",
		Username: "nguyenvana",
		Password: "supersecret",
	}

	u, tok, err := svc.Register(ctx, req)
	require.NoError(t, err)
	require.NotNil(t, u)
	require.NotEmpty(t, tok)
	require.Equal(t, int64(42), u.ID)
	require.Equal(t, "user@example.com", u.Email)
	require.Equal(t, "nguyenvana", u.Username)
	require.Equal(t, model.RoleUser, u.Role)
	require.True(t, u.IsActive)
	require.NotEmpty(t, u.PasswordHash)
}

func TestRegister_BadInput(t *testing.T) {
	ctx := context.Background()
	svc := New(&mockRepo{}, "test-secret", newMockRevoker())

	_, _, err := svc.Register(ctx, model.RegisterReq{
		Email:    " ",
		Username: "u",
		Password: "123",
	})
	require.ErrorIs(t, err, ErrBadInput)
}

func TestRegister_DuplicateMapping(t *testing.T) {
	ctx := context.Background()

	cases := []struct {
		name       string
		constraint string
		want       error
	}{
		{"email", "users_email_key", ErrEmailTaken},
		{"username", "users_username_key", ErrUsernameTaken},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			m := &mockRepo{
				createFn: func(ctx context.Context, u *model.User) error {
					return &pgconn.PgError{
						Code:           pgerrcode.UniqueViolation,
						ConstraintName: tc.constraint,
					}
				},
			}
			svc := New(m, "test-secret", newMockRevoker())

			_, _, err := svc.Register(ctx, model.RegisterReq{
				FullName: "X",
				Email:    "taken@example.com",
				Username: "taken",
				Password: "123456",
			})
			require.ErrorIs(t, err, tc.want)
		})
	}
}

func TestRegister_CreateError(t *testing.T) {
	ctx := context.Background()
	m := &mockRepo{
		createFn: func(ctx context.Context, u *model.User) error {
			return errors.New("db down")
		},
	}
	svc := New(m, "test-secret", newMockRevoker())

	_, _, err := svc.Register(ctx, model.RegisterReq{
		FullName: "X",
		Email:    "ok@example.com",
		Username: "ok",
		Password: "123456",
	})
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrEmailTaken)
	require.NotErrorIs(t, err, ErrUsernameTaken)
}

func TestLogin_Success(t *testing.T) {
	ctx := context.Background()
	pw := "supersecret"
	hashed := mustHash(t, pw)

	m := &mockRepo{
		byEmailFn: func(ctx context.Context, email string) (*model.User, error) {
			return &model.User{
				ID:           7,
				Email:        "user@example.com",
				Username:     "nguyenvana",
				PasswordHash: hashed,
				Role:         model.RoleUser,
				IsActive:     true,
			}, nil
		},
	}
	svc := New(m, "test-secret", newMockRevoker())

	u, tok, err := svc.Login(ctx, model.LoginReq{
		Email:    "User@Example.com",
		Password: pw,
	})
	require.NoError(t, err)
	require.NotNil(t, u)
	require.NotEmpty(t, tok)
	require.Equal(t, int64(7), u.ID)
}

func TestLogin_UserNotFound(t *testing.T) {
	ctx := context.Background()
	m := &mockRepo{
		byEmailFn: func(ctx context.Context, email string) (*model.User, error) {
			return nil, nil
		},
	}
	svc := New(m, "test-secret", newMockRevoker())

	_, _, err := svc.Login(ctx, model.LoginReq{
		Email:    "missing@example.com",
		Password: "whatever",
	})
	require.ErrorIs(t, err, ErrInvalidCreds)
}

func TestLogin_WrongPassword(t *testing.T) {
	ctx := context.Background()

	hashed := mustHash(t, "correct-password")

	m := &mockRepo{
		byEmailFn: func(ctx context.Context, email string) (*model.User, error) {
			return &model.User{
				ID:           101,
				Email:        "user@example.com",
				PasswordHash: hashed,
				Role:         model.RoleUser,
				IsActive:     true,
			}, nil
		},
	}
	svc := New(m, "test-secret", newMockRevoker())

	_, _, err := svc.Login(ctx, model.LoginReq{
		Email:    "user@example.com",
		Password: "wrong-password",
	})
	require.ErrorIs(t, err, ErrInvalidCreds)
}

func TestLogin_Deactivated(t *testing.T) {
	ctx := context.Background()
	pw := "supersecret"
	hashed := mustHash(t, pw)

	m := &mockRepo{
		byEmailFn: func(ctx context.Context, email string) (*model.User, error) {
			return &model.User{
				ID:           5,
				Email:        "user@example.com",
				PasswordHash: hashed,
				Role:         model.RoleUser,
				IsActive:     false,
			}, nil
		},
	}
	svc := New(m, "test-secret", newMockRevoker())

	_, _, err := svc.Login(ctx, model.LoginReq{Email: "user@example.com", Password: pw})
	require.ErrorIs(t, err, ErrDeactivated)
}

func TestLogout_RevokesUntilExpiry(t *testing.T) {
	ctx := context.Background()
	rev := newMockRevoker()
	svc := New(&mockRepo{}, "test-secret", rev)

	tok, err := jwtutil.Issue("test-secret", 7, "user", 24)
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, "Bearer "+tok))

	ttl, ok := rev.revoked[tok]
	require.True(t, ok, "token should be in the blocklist")
	require.Greater(t, ttl, 23*time.Hour)
	require.LessOrEqual(t, ttl, 24*time.Hour)
}

func TestLogout_InvalidTokenIsNoop(t *testing.T) {
	ctx := context.Background()
	rev := newMockRevoker()
	svc := New(&mockRepo{}, "test-secret", rev)

	require.NoError(t, svc.Logout(ctx, "Bearer not-a-jwt"))
	require.Empty(t, rev.revoked)
}

func TestChangePassword(t *testing.T) {
	ctx := context.Background()
	hashed := mustHash(t, "old-password")

	var storedHash string
	m := &mockRepo{
		byIDFn: func(ctx context.Context, id int64) (*model.User, error) {
			return &model.User{ID: 7, PasswordHash: hashed}, nil
		},
		updatePasswordFn: func(ctx context.Context, id int64, passwordHash string) (bool, error) {
			storedHash = passwordHash
			return true, nil
		},
	}
	svc := New(m, "test-secret", newMockRevoker())

	err := svc.ChangePassword(ctx, 7, model.ChangePasswordReq{
		CurrentPassword: "old-password",
		NewPassword:     "new-password",
	})
	require.NoError(t, err)
	require.NotEmpty(t, storedHash)
	require.True(t, hash.Check(storedHash, "new-password"))
}

func TestChangePassword_WrongCurrent(t *testing.T) {
	ctx := context.Background()
	hashed := mustHash(t, "old-password")

	m := &mockRepo{
		byIDFn: func(ctx context.Context, id int64) (*model.User, error) {
			return &model.User{ID: 7, PasswordHash: hashed}, nil
		},
	}
	svc := New(m, "test-secret", newMockRevoker())

	err := svc.ChangePassword(ctx, 7, model.ChangePasswordReq{
		CurrentPassword: "guess",
		NewPassword:     "new-password",
	})
	require.ErrorIs(t, err, ErrInvalidCreds)
}

func TestChangePassword_TooShort(t *testing.T) {
	svc := New(&mockRepo{}, "test-secret", newMockRevoker())

	err := svc.ChangePassword(context.Background(), 7, model.ChangePasswordReq{
		CurrentPassword: "old-password",
		NewPassword:     "123",
	})
	require.ErrorIs(t, err, ErrBadInput)
}

func TestMe(t *testing.T) {
	ctx := context.Background()
	m := &mockRepo{
		byIDFn: func(ctx context.Context, id int64) (*model.User, error) {
			if id != 7 {
				return nil, nil
			}
			return &model.User{ID: 7, Username: "nguyenvana"}, nil
		},
	}
	svc := New(m, "test-secret", newMockRevoker())

	u, err := svc.Me(ctx, 7)
	require.NoError(t, err)
	require.Equal(t, "nguyenvana", u.Username)

	_, err = svc.Me(ctx, 8)
	require.ErrorIs(t, err, ErrInvalidCreds)
}
