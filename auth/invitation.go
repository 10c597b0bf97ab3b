package auth

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/goliatone/go-errors"
)

// Invitation is the result of issuing a registration invitation: the signed
// token, a deep link embedding it, and the remaining validity window.
type Invitation struct {
	Token     string        `json:"token"`
	Link      string        `json:"invitationLink"`
	ExpiresIn time.Duration `json:"expiresIn"`
}

// InvitationIssuer mints and validates the stateless, role-carrying tokens
// that gate registration. Tokens are never persisted; validity is entirely
// signature plus expiry, so an invitation cannot be revoked before it lapses.
type InvitationIssuer struct {
	tokens   TokenService
	ttl      time.Duration
	baseURL  string
	issuer   string
	audience jwt.ClaimStrings
	logger   Logger
}

// NewInvitationIssuer creates an InvitationIssuer from the shared config.
func NewInvitationIssuer(tokens TokenService, cfg Config) *InvitationIssuer {
	return &InvitationIssuer{
		tokens:   tokens,
		ttl:      cfg.GetInvitationTTL(),
		baseURL:  strings.TrimRight(cfg.GetAppBaseURL(), "/"),
		issuer:   cfg.GetIssuer(),
		audience: cfg.GetAudience(),
		logger:   defLogger{},
	}
}

func (i *InvitationIssuer) WithLogger(logger Logger) *InvitationIssuer {
	i.logger = logger
	return i
}

// Issue mints an invitation for the given role. Only admins may issue;
// callers pass the role resolved by the authorization gate.
func (i *InvitationIssuer) Issue(role AccountRole, callerRole AccountRole) (*Invitation, error) {
	if callerRole != RoleAdmin {
		return nil, ErrForbidden
	}

	if role == "" {
		return nil, errors.New("role is required", errors.CategoryValidation).
			WithCode(errors.CodeBadRequest)
	}

	if _, ok := ParseRole(role); !ok {
		return nil, errors.New("unknown role", errors.CategoryValidation).
			WithCode(errors.CodeBadRequest).
			WithMetadata(map[string]any{"role": role})
	}

	now := time.Now()
	claims := &JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    i.issuer,
			Audience:  i.audience,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
		UserRole: role,
		Kind:     TokenKindInvitation,
	}
	ensureTokenID(&claims.RegisteredClaims)

	token, err := i.tokens.SignClaims(claims)
	if err != nil {
		i.logger.Error("invitation sign failed: %v", err)
		return nil, err
	}

	return &Invitation{
		Token:     token,
		Link:      fmt.Sprintf("%s/register?invitation=%s", i.baseURL, url.QueryEscape(token)),
		ExpiresIn: i.ttl,
	}, nil
}

// Validate checks an invitation token and returns the embedded role.
// Read-only: the token stays valid until expiry, so responses carrying the
// result must not be cached downstream.
func (i *InvitationIssuer) Validate(token string) (AccountRole, error) {
	claims, err := i.tokens.Validate(token, TokenKindInvitation)
	if err != nil {
		return "", err
	}

	role, ok := ParseRole(claims.UserRole)
	if !ok {
		return "", ErrTokenMalformed
	}

	return role, nil
}
