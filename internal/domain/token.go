package domain

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenScope restricts what a bearer token is good for.
type TokenScope string

const (
	// ScopeSession is a full session token.
	ScopeSession TokenScope = "session"
	// ScopeMFAPending authorizes only the MFA verify/resend step for
	// one specific user. It is never accepted on session routes.
	ScopeMFAPending TokenScope = "mfa_pending"
	// ScopeAdmin is the short-lived bootstrap admin token.
	ScopeAdmin TokenScope = "admin"
)

type Claims struct {
	jwt.RegisteredClaims
	UserID  string     `json:"uid"`
	Role    Role       `json:"role"`
	Email   string     `json:"email,omitempty"`
	Name    string     `json:"name,omitempty"`
	Scope   TokenScope `json:"scope"`
	IsOAuth bool       `json:"isOAuth,omitempty"`
}

// IdentityKind discriminates the two ways a request can be
// authenticated.
type IdentityKind string

const (
	IdentityBootstrapAdmin IdentityKind = "bootstrap_admin"
	IdentityStoredUser     IdentityKind = "stored_user"
)

// Identity is resolved once by the auth middleware so downstream
// handlers never compare magic user-id strings.
type Identity struct {
	Kind   IdentityKind
	Claims *Claims
	// User is populated for stored users only.
	User *User
}

func (i *Identity) IsAdmin() bool {
	return i.Kind == IdentityBootstrapAdmin || (i.User != nil && i.User.Role == RoleAdmin)
}

// UserID returns the stored user's id, or uuid.Nil for the bootstrap
// admin.
func (i *Identity) UserID() uuid.UUID {
	if i.User != nil {
		return i.User.ID
	}
	return uuid.Nil
}
