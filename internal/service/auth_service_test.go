package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zadic42/Role-based-Auth/internal/config"
	"github.com/zadic42/Role-based-Auth/internal/domain"
	"github.com/zadic42/Role-based-Auth/internal/repository/memory"
	"github.com/zadic42/Role-based-Auth/pkg/hash"
	"github.com/zadic42/Role-based-Auth/pkg/jwt"
)

type memoryRevoker struct {
	mu      sync.Mutex
	revoked map[string]bool
}

func newMemoryRevoker() *memoryRevoker {
	return &memoryRevoker{revoked: make(map[string]bool)}
}

func (r *memoryRevoker) Revoke(ctx context.Context, token string, expiresAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.revoked[token] = true
	return nil
}

func (r *memoryRevoker) IsRevoked(ctx context.Context, token string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.revoked[token], nil
}

type authFixture struct {
	users   *memory.UserRepository
	audit   *memory.AuditRepository
	tokens  *jwt.TokenService
	revoker *memoryRevoker
	svc     *AuthService
	cfg     *config.Config
}

func testConfig() *config.Config {
	return &config.Config{
		JWT: config.JWTConfig{
			Secret:           "test-secret",
			Issuer:           "auth-test",
			SessionExpiry:    24 * time.Hour,
			MFASessionExpiry: 7 * 24 * time.Hour,
			AdminExpiry:      15 * time.Minute,
		},
		Auth: config.AuthConfig{
			MaxFailedLogins: 5,
			LockDuration:    30 * time.Minute,
			AdminEmail:      "root@example.com",
			AdminPassword:   "root-password",
		},
		MFA: config.MFAConfig{
			LoginCodeTTL:    5 * time.Minute,
			ManageCodeTTL:   15 * time.Minute,
			MaxCodeAttempts: 5,
		},
	}
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	cfg := testConfig()

	users := memory.NewUserRepository()
	auditRepo := memory.NewAuditRepository()
	tokens, err := jwt.NewTokenService([]byte(cfg.JWT.Secret), cfg.JWT.Issuer,
		cfg.JWT.SessionExpiry, cfg.JWT.MFASessionExpiry, cfg.JWT.AdminExpiry)
	require.NoError(t, err)

	recorder := NewAuditRecorder(auditRepo)
	mfa := NewMFAService(users, nil, cfg.MFA.MaxCodeAttempts)
	lockout := NewLockoutTracker(users, cfg.Auth.MaxFailedLogins, cfg.Auth.LockDuration)
	revoker := newMemoryRevoker()

	return &authFixture{
		users:   users,
		audit:   auditRepo,
		tokens:  tokens,
		revoker: revoker,
		svc:     NewAuthService(users, recorder, mfa, lockout, tokens, revoker, cfg),
		cfg:     cfg,
	}
}

func (f *authFixture) signup(t *testing.T, name, email, password string) *domain.User {
	t.Helper()
	resp, err := f.svc.Signup(context.Background(), SignupRequest{
		Name:     name,
		Email:    email,
		Password: password,
	}, RequestMeta{IP: "10.0.0.1"})
	require.NoError(t, err)
	require.NotEmpty(t, resp.Token)

	user, err := f.users.GetByEmail(context.Background(), email)
	require.NoError(t, err)
	return user
}

func (f *authFixture) enableMFA(t *testing.T, user *domain.User) {
	t.Helper()
	require.NoError(t, f.users.SetMFAEnabled(context.Background(), user.ID, true))
}

func (f *authFixture) pendingCode(t *testing.T, user *domain.User) string {
	t.Helper()
	stored := reload(t, f.users, user.ID)
	require.NotNil(t, stored.MFACode)
	return *stored.MFACode
}

func (f *authFixture) auditActions(status domain.AuditStatus) []string {
	var actions []string
	for _, e := range f.audit.Entries() {
		if e.Status == status {
			actions = append(actions, e.Action)
		}
	}
	return actions
}

func TestSignupThenLogin(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	f.signup(t, "Sam", "sam@example.com", "hunter22")

	resp, err := f.svc.Login(ctx, LoginRequest{Email: "sam@example.com", Password: "hunter22"}, RequestMeta{})
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.False(t, resp.MFARequired)
	require.NotEmpty(t, resp.Token)

	claims, err := f.tokens.VerifyScope(resp.Token, domain.ScopeSession)
	require.NoError(t, err)
	assert.Equal(t, "sam@example.com", claims.Email)

	user := reload(t, f.users, reloadByEmail(t, f.users, "sam@example.com").ID)
	assert.NotNil(t, user.LastLoginAt)
}

func TestSignupNormalizesEmail(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	f.signup(t, "Sam", "  Sam@Example.COM ", "hunter22")

	// The stored address is lowercased and trimmed; login matches any
	// casing of the same address.
	_, err := f.users.GetByEmail(ctx, "sam@example.com")
	require.NoError(t, err)

	resp, err := f.svc.Login(ctx, LoginRequest{Email: "SAM@example.com", Password: "hunter22"}, RequestMeta{})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Token)
}

func TestSignupRejectsAdminRole(t *testing.T) {
	f := newAuthFixture(t)

	_, err := f.svc.Signup(context.Background(), SignupRequest{
		Name:     "Mallory",
		Email:    "mallory@example.com",
		Password: "hunter22",
		Role:     "admin",
	}, RequestMeta{})
	assert.ErrorIs(t, err, ErrAdminSignup)
}

func TestSignupDuplicateEmail(t *testing.T) {
	f := newAuthFixture(t)

	f.signup(t, "Sam", "sam@example.com", "hunter22")
	_, err := f.svc.Signup(context.Background(), SignupRequest{
		Name:     "Other",
		Email:    "sam@example.com",
		Password: "different",
	}, RequestMeta{})
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	f.signup(t, "Sam", "sam@example.com", "hunter22")

	_, unknownErr := f.svc.Login(ctx, LoginRequest{Email: "ghost@example.com", Password: "whatever"}, RequestMeta{})
	_, wrongErr := f.svc.Login(ctx, LoginRequest{Email: "sam@example.com", Password: "wrong"}, RequestMeta{})

	assert.ErrorIs(t, unknownErr, ErrInvalidCredentials)
	assert.ErrorIs(t, wrongErr, ErrInvalidCredentials)
	assert.Equal(t, unknownErr.Error(), wrongErr.Error())
}

func TestLoginLockoutAfterRepeatedFailures(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	f.signup(t, "Sam", "sam@example.com", "hunter22")

	for i := 0; i < 5; i++ {
		_, err := f.svc.Login(ctx, LoginRequest{Email: "sam@example.com", Password: "wrong"}, RequestMeta{})
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	}

	// The fifth failure locked the account; the right password is now
	// rejected with the lock expiry attached.
	_, err := f.svc.Login(ctx, LoginRequest{Email: "sam@example.com", Password: "hunter22"}, RequestMeta{})
	var flowErr *FlowError
	require.ErrorAs(t, err, &flowErr)
	assert.Equal(t, 403, flowErr.Status)
	require.NotNil(t, flowErr.LockedUntil)
	assert.WithinDuration(t, time.Now().Add(30*time.Minute), *flowErr.LockedUntil, 5*time.Second)

	assert.Contains(t, f.auditActions(domain.AuditFailure), domain.ActionAccountLocked)
}

func TestLoginAfterLockExpiry(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	user := f.signup(t, "Sam", "sam@example.com", "hunter22")

	for i := 0; i < 5; i++ {
		_, _ = f.svc.Login(ctx, LoginRequest{Email: "sam@example.com", Password: "wrong"}, RequestMeta{})
	}

	// Simulate the lock window passing.
	stored := reload(t, f.users, user.ID)
	past := time.Now().Add(-time.Minute)
	stored.LockedUntil = &past
	require.NoError(t, f.users.Update(ctx, stored))

	resp, err := f.svc.Login(ctx, LoginRequest{Email: "sam@example.com", Password: "hunter22"}, RequestMeta{})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Token)

	// Success cleared the failure counter.
	stored = reload(t, f.users, user.ID)
	assert.Zero(t, stored.LoginAttempts)
	assert.Nil(t, stored.LockedUntil)
}

func TestLoginWithMFAHandsOffToChallenge(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	user := f.signup(t, "Sam", "sam@example.com", "hunter22")
	f.enableMFA(t, user)

	resp, err := f.svc.Login(ctx, LoginRequest{Email: "sam@example.com", Password: "hunter22"}, RequestMeta{})
	require.NoError(t, err)
	assert.True(t, resp.MFARequired)
	assert.Empty(t, resp.Token)
	require.NotEmpty(t, resp.TempToken)
	require.NotNil(t, resp.ExpiresAt)

	// The temp token is scoped to the MFA step and cannot open a
	// session route.
	_, err = f.tokens.VerifyScope(resp.TempToken, domain.ScopeSession)
	assert.Error(t, err)
	claims, err := f.tokens.VerifyScope(resp.TempToken, domain.ScopeMFAPending)
	require.NoError(t, err)
	assert.Equal(t, user.ID.String(), claims.UserID)
}

func TestVerifyMFACompletesLogin(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	user := f.signup(t, "Sam", "sam@example.com", "hunter22")
	f.enableMFA(t, user)

	login, err := f.svc.Login(ctx, LoginRequest{Email: "sam@example.com", Password: "hunter22"}, RequestMeta{})
	require.NoError(t, err)

	code := f.pendingCode(t, user)
	resp, err := f.svc.VerifyMFA(ctx, VerifyMFARequest{Code: code, TempToken: login.TempToken}, RequestMeta{})
	require.NoError(t, err)
	require.NotEmpty(t, resp.Token)

	claims, err := f.tokens.VerifyScope(resp.Token, domain.ScopeSession)
	require.NoError(t, err)
	assert.Equal(t, user.ID.String(), claims.UserID)

	// The code was consumed; replaying it fails.
	_, err = f.svc.VerifyMFA(ctx, VerifyMFARequest{Code: code, TempToken: login.TempToken}, RequestMeta{})
	assert.ErrorIs(t, err, ErrNoMFACode)
}

func TestVerifyMFAWrongCodeThenCorrect(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	user := f.signup(t, "Sam", "sam@example.com", "hunter22")
	f.enableMFA(t, user)

	login, err := f.svc.Login(ctx, LoginRequest{Email: "sam@example.com", Password: "hunter22"}, RequestMeta{})
	require.NoError(t, err)

	_, err = f.svc.VerifyMFA(ctx, VerifyMFARequest{Code: "000000", TempToken: login.TempToken}, RequestMeta{})
	assert.ErrorIs(t, err, ErrInvalidCode)

	code := f.pendingCode(t, user)
	resp, err := f.svc.VerifyMFA(ctx, VerifyMFARequest{Code: code, TempToken: login.TempToken}, RequestMeta{})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Token)
}

func TestVerifyMFARejectsNonTempTokens(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	user := f.signup(t, "Sam", "sam@example.com", "hunter22")
	sessionToken, _, err := f.tokens.IssueSession(user, false, 0)
	require.NoError(t, err)

	_, err = f.svc.VerifyMFA(ctx, VerifyMFARequest{Code: "123456", TempToken: sessionToken}, RequestMeta{})
	assert.ErrorIs(t, err, ErrInvalidTempToken)

	_, err = f.svc.VerifyMFA(ctx, VerifyMFARequest{Code: "123456", TempToken: "not-a-token"}, RequestMeta{})
	assert.ErrorIs(t, err, ErrInvalidTempToken)
}

func TestResendMFAInvalidatesPreviousHandoff(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	user := f.signup(t, "Sam", "sam@example.com", "hunter22")
	f.enableMFA(t, user)

	login, err := f.svc.Login(ctx, LoginRequest{Email: "sam@example.com", Password: "hunter22"}, RequestMeta{})
	require.NoError(t, err)
	oldCode := f.pendingCode(t, user)

	resend, err := f.svc.ResendMFA(ctx, ResendMFARequest{TempToken: login.TempToken}, RequestMeta{})
	require.NoError(t, err)
	require.NotEmpty(t, resend.TempToken)
	assert.NotEqual(t, login.TempToken, resend.TempToken)

	// The superseded temp token is withdrawn outright.
	_, err = f.svc.VerifyMFA(ctx, VerifyMFARequest{Code: oldCode, TempToken: login.TempToken}, RequestMeta{})
	assert.ErrorIs(t, err, ErrInvalidTempToken)

	newCode := f.pendingCode(t, user)
	resp, err := f.svc.VerifyMFA(ctx, VerifyMFARequest{Code: newCode, TempToken: resend.TempToken}, RequestMeta{})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Token)
}

func TestMFAGuessesDoNotFeedLockout(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	user := f.signup(t, "Sam", "sam@example.com", "hunter22")
	f.enableMFA(t, user)

	login, err := f.svc.Login(ctx, LoginRequest{Email: "sam@example.com", Password: "hunter22"}, RequestMeta{})
	require.NoError(t, err)

	for i := 0; i < 4; i++ {
		_, err = f.svc.VerifyMFA(ctx, VerifyMFARequest{Code: "000000", TempToken: login.TempToken}, RequestMeta{})
		assert.ErrorIs(t, err, ErrInvalidCode)
	}

	stored := reload(t, f.users, user.ID)
	assert.Zero(t, stored.LoginAttempts)
	assert.Nil(t, stored.LockedUntil)
}

func TestAdminLogin(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	_, err := f.svc.AdminLogin(ctx, LoginRequest{Email: "root@example.com", Password: "wrong"}, RequestMeta{})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	resp, err := f.svc.AdminLogin(ctx, LoginRequest{Email: "root@example.com", Password: "root-password"}, RequestMeta{})
	require.NoError(t, err)
	require.NotEmpty(t, resp.Token)
	assert.Equal(t, "admin", resp.User.ID)

	claims, err := f.tokens.VerifyScope(resp.Token, domain.ScopeAdmin)
	require.NoError(t, err)
	assert.Equal(t, "admin", claims.UserID)
}

func TestAdminLoginDisabledWithoutCredentials(t *testing.T) {
	f := newAuthFixture(t)
	f.cfg.Auth.AdminEmail = ""
	f.cfg.Auth.AdminPassword = ""

	_, err := f.svc.AdminLogin(context.Background(), LoginRequest{Email: "", Password: ""}, RequestMeta{})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLoginOAuthOnlyAccountHasNoPassword(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	googleID := "google-123"
	user := &domain.User{
		ID:       uuid.New(),
		Name:     "Remote",
		Email:    "remote@example.com",
		GoogleID: &googleID,
		Role:     domain.RoleUser,
	}
	require.NoError(t, f.users.Create(ctx, user))

	_, err := f.svc.Login(ctx, LoginRequest{Email: "remote@example.com", Password: "anything"}, RequestMeta{})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func reloadByEmail(t *testing.T, users *memory.UserRepository, email string) *domain.User {
	t.Helper()
	user, err := users.GetByEmail(context.Background(), email)
	require.NoError(t, err)
	return user
}

// Verify the password hashing round trip the login path relies on.
func TestPasswordHashRoundTrip(t *testing.T) {
	hashed, err := hash.Password("hunter22")
	require.NoError(t, err)

	ok, err := hash.Verify("hunter22", hashed)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = hash.Verify("wrong", hashed)
	require.NoError(t, err)
	assert.False(t, ok)
}
