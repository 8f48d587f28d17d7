package revoke

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open("")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestRevokeAndCheck(t *testing.T) {
	s := openTestStore(t)

	revoked, err := s.IsRevoked("some-token")
	require.NoError(t, err)
	require.False(t, revoked)

	require.NoError(t, s.Revoke("some-token", time.Hour))

	revoked, err = s.IsRevoked("some-token")
	require.NoError(t, err)
	require.True(t, revoked)

	// Other tokens are unaffected.
	revoked, err = s.IsRevoked("another-token")
	require.NoError(t, err)
	require.False(t, revoked)
}

func TestRevokeExpiredTokenIsNoop(t *testing.T) {
	s := openTestStore(t)

	require.NoError(t, s.Revoke("stale", -time.Minute))

	revoked, err := s.IsRevoked("stale")
	require.NoError(t, err)
	require.False(t, revoked)
}
