package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenKind tags every signed token with the operation it authorizes.
type TokenKind string

const (
	// TokenKindAccess is the short-lived bearer credential sent with each request
	TokenKindAccess TokenKind = "access"
	// TokenKindRefresh is the long-lived credential exchanged for a new pair
	TokenKindRefresh TokenKind = "refresh"
	// TokenKindInvitation authorizes registration under a specific role
	TokenKindInvitation TokenKind = "invitation"
)

// JWTClaims are the claims carried by every token this system signs.
type JWTClaims struct {
	jwt.RegisteredClaims
	UID      string    `json:"uid,omitempty"`
	UserRole string    `json:"role,omitempty"`
	Kind     TokenKind `json:"kind,omitempty"`
}

// AccountID returns the subject account id
func (c *JWTClaims) AccountID() string {
	if c.UID != "" {
		return c.UID
	}
	return c.RegisteredClaims.Subject
}

// Role returns the embedded role
func (c *JWTClaims) Role() string {
	return c.UserRole
}

// TokenKind returns the embedded kind
func (c *JWTClaims) TokenKind() TokenKind {
	return c.Kind
}

// HasRole checks if the claims carry a specific role
func (c *JWTClaims) HasRole(role string) bool {
	return c.UserRole == role
}

// IsAtLeast checks the claims' role against a minimum required role
func (c *JWTClaims) IsAtLeast(minRole string) bool {
	return RoleIsAtLeast(AccountRole(c.UserRole), AccountRole(minRole))
}

// Expires returns the expiration time
func (c *JWTClaims) Expires() time.Time {
	if c.RegisteredClaims.ExpiresAt != nil {
		return c.RegisteredClaims.ExpiresAt.Time
	}
	return time.Time{}
}

// IssuedAt returns the issued at time
func (c *JWTClaims) IssuedAt() time.Time {
	if c.RegisteredClaims.IssuedAt != nil {
		return c.RegisteredClaims.IssuedAt.Time
	}
	return time.Time{}
}

func ensureTokenID(claims *jwt.RegisteredClaims) {
	if claims.ID == "" {
		claims.ID = uuid.New().String()
	}
}
