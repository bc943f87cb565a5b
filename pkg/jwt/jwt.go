package jwt

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/zadic42/Role-based-Auth/internal/domain"
)

var (
	ErrInvalidSigningMethod = errors.New("unexpected signing method")
	// ErrInvalidToken covers malformed, expired and badly signed
	// tokens alike; callers must not tell the client which it was.
	ErrInvalidToken = errors.New("invalid or expired token")
)

// TokenService mints and verifies the three token kinds the flows
// need: long-lived session tokens, short MFA-pending tokens whose TTL
// always equals the code window, and the bootstrap admin token.
type TokenService struct {
	secret        []byte
	issuer        string
	sessionExpiry time.Duration
	mfaExpiry     time.Duration
	adminExpiry   time.Duration
}

func NewTokenService(secret []byte, issuer string, sessionExpiry, mfaExpiry, adminExpiry time.Duration) (*TokenService, error) {
	if len(secret) == 0 {
		return nil, errors.New("jwt: signing secret is required")
	}
	return &TokenService{
		secret:        secret,
		issuer:        issuer,
		sessionExpiry: sessionExpiry,
		mfaExpiry:     mfaExpiry,
		adminExpiry:   adminExpiry,
	}, nil
}

// IssueSession mints a full session token. ttl overrides the default
// session lifetime when non-zero (the post-MFA session is longer).
func (s *TokenService) IssueSession(user *domain.User, isOAuth bool, ttl time.Duration) (string, time.Time, error) {
	if ttl == 0 {
		ttl = s.sessionExpiry
	}
	return s.sign(domain.Claims{
		UserID:  user.ID.String(),
		Role:    user.Role,
		Email:   user.Email,
		Name:    user.Name,
		Scope:   domain.ScopeSession,
		IsOAuth: isOAuth,
	}, ttl)
}

// IssueMFAPending mints the temporary token that authorizes only the
// verify/resend step. ttl must match the code's validity window.
func (s *TokenService) IssueMFAPending(user *domain.User, isOAuth bool, ttl time.Duration) (string, time.Time, error) {
	if ttl == 0 {
		ttl = s.mfaExpiry
	}
	return s.sign(domain.Claims{
		UserID:  user.ID.String(),
		Role:    user.Role,
		Email:   user.Email,
		Name:    user.Name,
		Scope:   domain.ScopeMFAPending,
		IsOAuth: isOAuth,
	}, ttl)
}

// IssueAdmin mints the bootstrap admin token.
func (s *TokenService) IssueAdmin(email string) (string, time.Time, error) {
	return s.sign(domain.Claims{
		UserID: "admin",
		Role:   domain.RoleAdmin,
		Email:  email,
		Scope:  domain.ScopeAdmin,
	}, s.adminExpiry)
}

func (s *TokenService) sign(claims domain.Claims, ttl time.Duration) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(ttl)
	claims.RegisteredClaims = jwt.RegisteredClaims{
		Issuer:    s.issuer,
		Subject:   claims.UserID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// Verify decodes and validates a token of any scope.
func (s *TokenService) Verify(tokenString string) (*domain.Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &domain.Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidSigningMethod
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*domain.Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// VerifyScope validates a token and additionally requires a specific
// scope; a valid token of the wrong scope is still ErrInvalidToken.
func (s *TokenService) VerifyScope(tokenString string, scope domain.TokenScope) (*domain.Claims, error) {
	claims, err := s.Verify(tokenString)
	if err != nil {
		return nil, err
	}
	if claims.Scope != scope {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
