package auth_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"detention/internal/auth"
)

func TestIssueAndParse(t *testing.T) {
	pair, err := auth.Issue("staff-1", auth.RoleWarden, "detention-api", "test-key", time.Minute, time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)
	assert.True(t, pair.RefreshExp.After(pair.AccessExp))

	claims, err := auth.Parse(pair.AccessToken, "test-key", "detention-api")
	require.NoError(t, err)
	assert.Equal(t, "staff-1", claims.Subject)
	assert.Equal(t, auth.RoleWarden, claims.Role)
}

func TestParse_WrongKey(t *testing.T) {
	pair, err := auth.Issue("staff-1", auth.RoleStaff, "detention-api", "test-key", time.Minute, time.Hour)
	require.NoError(t, err)

	_, err = auth.Parse(pair.AccessToken, "other-key", "detention-api")
	assert.Error(t, err)
}

func TestParse_IssuerMismatch(t *testing.T) {
	pair, err := auth.Issue("staff-1", auth.RoleStaff, "some-other-service", "test-key", time.Minute, time.Hour)
	require.NoError(t, err)

	_, err = auth.Parse(pair.AccessToken, "test-key", "detention-api")
	assert.Error(t, err)
}

func TestParse_ExpiredToken(t *testing.T) {
	pair, err := auth.Issue("staff-1", auth.RoleStaff, "detention-api", "test-key", -time.Minute, time.Hour)
	require.NoError(t, err)

	_, err = auth.Parse(pair.AccessToken, "test-key", "detention-api")
	assert.Error(t, err)
}

func TestPasswordHashing(t *testing.T) {
	hash, err := auth.HashPassword("s3cret")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret", hash)

	assert.True(t, auth.CheckPassword(hash, "s3cret"))
	assert.False(t, auth.CheckPassword(hash, "wrong"))
}
