package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/zadic42/Role-based-Auth/internal/config"
	"github.com/zadic42/Role-based-Auth/internal/domain"
	"github.com/zadic42/Role-based-Auth/internal/repository"
)

const (
	userinfoEndpoint = "https://www.googleapis.com/oauth2/v2/userinfo"
	stateTTL         = 10 * time.Minute
)

var ErrOAuthStateMismatch = errors.New("oauth state mismatch")

// StateStore holds single-use OAuth state values across the redirect
// round-trip. Backed by Redis so multiple instances share it.
type StateStore interface {
	Put(ctx context.Context, state string) error
	Take(ctx context.Context, state string) (bool, error)
}

type redisStateStore struct {
	redis *redis.Client
}

func NewRedisStateStore(redisClient *redis.Client) StateStore {
	return &redisStateStore{redis: redisClient}
}

func (s *redisStateStore) Put(ctx context.Context, state string) error {
	return s.redis.Set(ctx, "oauth:state:"+state, "1", stateTTL).Err()
}

func (s *redisStateStore) Take(ctx context.Context, state string) (bool, error) {
	n, err := s.redis.Del(ctx, "oauth:state:"+state).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// googleProfile is the slice of the userinfo response the flow needs.
type googleProfile struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// OAuthService runs the Google login flow. Once a verified
// email/name pair is in hand the outcome is the same as a local login:
// an existing record is matched (linking the Google identity on first
// contact), or a fresh one is created, and the MFA branch is identical.
type OAuthService struct {
	users  repository.UserRepository
	audit  *AuditRecorder
	mfa    *MFAService
	tokens sessionTokenIssuer
	states StateStore
	oauth  *oauth2.Config
	cfg    *config.Config
}

// sessionTokenIssuer is the slice of the token service this flow uses.
type sessionTokenIssuer interface {
	IssueSession(user *domain.User, isOAuth bool, ttl time.Duration) (string, time.Time, error)
	IssueMFAPending(user *domain.User, isOAuth bool, ttl time.Duration) (string, time.Time, error)
}

func NewOAuthService(
	users repository.UserRepository,
	audit *AuditRecorder,
	mfa *MFAService,
	tokens sessionTokenIssuer,
	states StateStore,
	cfg *config.Config,
) *OAuthService {
	return &OAuthService{
		users:  users,
		audit:  audit,
		mfa:    mfa,
		tokens: tokens,
		states: states,
		oauth: &oauth2.Config{
			ClientID:     cfg.OAuth.GoogleClientID,
			ClientSecret: cfg.OAuth.GoogleClientSecret,
			RedirectURL:  cfg.OAuth.RedirectURL,
			Scopes:       []string{"profile", "email"},
			Endpoint:     google.Endpoint,
		},
		cfg: cfg,
	}
}

// AuthURL mints a single-use state value and returns the Google
// consent URL to redirect the browser to.
func (s *OAuthService) AuthURL(ctx context.Context) (string, error) {
	buf := make([]byte, 24)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	state := base64.RawURLEncoding.EncodeToString(buf)

	if err := s.states.Put(ctx, state); err != nil {
		return "", fmt.Errorf("failed to store oauth state: %w", err)
	}

	return s.oauth.AuthCodeURL(state), nil
}

// OAuthLoginResult tells the handler where to send the browser next.
type OAuthLoginResult struct {
	MFARequired bool
	Token       string
	TempToken   string
	ExpiresAt   time.Time
}

// HandleCallback consumes the state, exchanges the authorization code,
// resolves the profile to a user record and finishes like a login.
func (s *OAuthService) HandleCallback(ctx context.Context, state, code string, meta RequestMeta) (*OAuthLoginResult, error) {
	ok, err := s.states.Take(ctx, state)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrOAuthStateMismatch
	}

	token, err := s.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange authorization code: %w", err)
	}

	profile, err := s.fetchProfile(ctx, token)
	if err != nil {
		return nil, err
	}

	user, err := s.findOrCreateUser(ctx, profile)
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, user.ID.String(), user.Email, domain.ActionOAuthLogin, "Google OAuth login successful", meta, domain.AuditSuccess)

	if user.MFAEnabled {
		window := s.cfg.MFA.LoginCodeTTL
		challenge, err := s.mfa.IssueCode(ctx, user, window)
		if err != nil {
			return nil, err
		}
		tempToken, _, err := s.tokens.IssueMFAPending(user, true, window)
		if err != nil {
			return nil, err
		}
		return &OAuthLoginResult{
			MFARequired: true,
			TempToken:   tempToken,
			ExpiresAt:   challenge.ExpiresAt,
		}, nil
	}

	sessionToken, _, err := s.tokens.IssueSession(user, true, 0)
	if err != nil {
		return nil, err
	}

	return &OAuthLoginResult{Token: sessionToken}, nil
}

func (s *OAuthService) fetchProfile(ctx context.Context, token *oauth2.Token) (*googleProfile, error) {
	client := s.oauth.Client(ctx, token)
	resp, err := client.Get(userinfoEndpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch userinfo: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("userinfo request failed with status %d", resp.StatusCode)
	}

	var profile googleProfile
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return nil, fmt.Errorf("failed to decode userinfo: %w", err)
	}
	if profile.Email == "" {
		return nil, errors.New("userinfo response missing email")
	}

	return &profile, nil
}

func (s *OAuthService) findOrCreateUser(ctx context.Context, profile *googleProfile) (*domain.User, error) {
	email := domain.NormalizeEmail(profile.Email)

	user, err := s.users.GetByEmail(ctx, email)
	if err == nil {
		// First Google login on a local account links the identity;
		// an already linked one is left untouched.
		if user.GoogleID == nil {
			if err := s.users.LinkGoogleID(ctx, user.ID, profile.ID); err != nil {
				return nil, err
			}
			googleID := profile.ID
			user.GoogleID = &googleID
		}
		log.Printf("[OAUTH] Google login for existing user: %s", user.Email)
		return user, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	googleID := profile.ID
	now := time.Now()
	user = &domain.User{
		ID:          uuid.New(),
		Name:        profile.Name,
		Email:       email,
		GoogleID:    &googleID,
		Role:        domain.RoleUser,
		Permissions: domain.StringList{string(domain.PermissionRead)},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	log.Printf("[OAUTH] New user created via Google OAuth: %s", user.Email)
	return user, nil
}
