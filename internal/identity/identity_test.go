package identity

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signed(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return tok
}

func TestResolveUsesTokenSubject(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, time.October, 17, 9, 0, 0, 0, time.UTC)
	tok := signed(t, jwt.MapClaims{"sub": "user-42", "exp": now.Add(time.Hour).Unix()})
	id, err := Resolve("Bearer "+tok, "", now)
	require.NoError(t, err)
	assert.Equal(t, "user-42", id.UserID)
	assert.Equal(t, tok, id.Token)
	assert.Equal(t, now.Add(time.Hour).Unix(), id.ExpiresAt.Unix())
}

func TestResolveFallsBackToConfiguredUser(t *testing.T) {
	t.Parallel()

	id, err := Resolve("", "000001", time.Now())
	require.NoError(t, err)
	assert.Equal(t, Identity{UserID: "000001"}, id)
}

func TestResolveRequiresSomeIdentity(t *testing.T) {
	t.Parallel()

	_, err := Resolve("  ", "", time.Now())
	assert.ErrorIs(t, err, ErrMissingIdentity)
}

func TestResolveRejectsBadTokens(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, time.October, 17, 9, 0, 0, 0, time.UTC)
	cases := map[string]struct {
		token  string
		userID string
	}{
		"garbage":    {token: "not-a-jwt"},
		"no subject": {token: signed(t, jwt.MapClaims{"exp": now.Add(time.Hour).Unix()})},
		"expired":    {token: signed(t, jwt.MapClaims{"sub": "u", "exp": now.Add(-time.Minute).Unix()})},
		"mismatch":   {token: signed(t, jwt.MapClaims{"sub": "u"}), userID: "other"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Resolve(tc.token, tc.userID, now)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}
