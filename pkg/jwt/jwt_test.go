package jwt

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zadic42/Role-based-Auth/internal/domain"
)

func newTestService(t *testing.T) *TokenService {
	t.Helper()
	svc, err := NewTokenService([]byte("test-secret"), "auth-test", 24*time.Hour, 7*24*time.Hour, 15*time.Minute)
	require.NoError(t, err)
	return svc
}

func testUser() *domain.User {
	return &domain.User{
		ID:    uuid.New(),
		Name:  "Sam",
		Email: "sam@example.com",
		Role:  domain.RoleUser,
	}
}

func TestNewTokenServiceRequiresSecret(t *testing.T) {
	_, err := NewTokenService(nil, "auth-test", time.Hour, time.Hour, time.Hour)
	assert.Error(t, err)
}

func TestSessionTokenRoundTrip(t *testing.T) {
	svc := newTestService(t)
	user := testUser()

	token, expiresAt, err := svc.IssueSession(user, false, 0)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(24*time.Hour), expiresAt, 5*time.Second)

	claims, err := svc.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID.String(), claims.UserID)
	assert.Equal(t, user.Email, claims.Email)
	assert.Equal(t, domain.ScopeSession, claims.Scope)
	assert.False(t, claims.IsOAuth)
}

func TestSessionTokenTTLOverride(t *testing.T) {
	svc := newTestService(t)

	_, expiresAt, err := svc.IssueSession(testUser(), true, 7*24*time.Hour)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(7*24*time.Hour), expiresAt, 5*time.Second)
}

func TestScopeEnforcement(t *testing.T) {
	svc := newTestService(t)
	user := testUser()

	tempToken, _, err := svc.IssueMFAPending(user, false, 5*time.Minute)
	require.NoError(t, err)

	claims, err := svc.VerifyScope(tempToken, domain.ScopeMFAPending)
	require.NoError(t, err)
	assert.Equal(t, domain.ScopeMFAPending, claims.Scope)

	// The wrong scope is as invalid as a garbage token.
	_, err = svc.VerifyScope(tempToken, domain.ScopeSession)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestAdminToken(t *testing.T) {
	svc := newTestService(t)

	token, expiresAt, err := svc.IssueAdmin("root@example.com")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), expiresAt, 5*time.Second)

	claims, err := svc.VerifyScope(token, domain.ScopeAdmin)
	require.NoError(t, err)
	assert.Equal(t, "admin", claims.UserID)
	assert.Equal(t, domain.RoleAdmin, claims.Role)
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	svc, err := NewTokenService([]byte("test-secret"), "auth-test", -time.Minute, time.Hour, time.Hour)
	require.NoError(t, err)

	token, _, err := svc.IssueSession(testUser(), false, 0)
	require.NoError(t, err)

	_, err = svc.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyRejectsForeignSignature(t *testing.T) {
	svc := newTestService(t)
	other, err := NewTokenService([]byte("other-secret"), "auth-test", time.Hour, time.Hour, time.Hour)
	require.NoError(t, err)

	token, _, err := other.IssueSession(testUser(), false, 0)
	require.NoError(t, err)

	_, err = svc.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyRejectsGarbage(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.Verify("not.a.token")
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = svc.Verify("")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
