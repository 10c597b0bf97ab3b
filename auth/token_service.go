package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/goliatone/go-errors"
)

// TokenService mints and validates the signed, time-bounded tokens used for
// sessions and invitations. A single server-held secret signs every kind.
type TokenService interface {
	SignClaims(claims *JWTClaims) (string, error)
	MintToken(identity Identity, kind TokenKind, opts ...MintOption) (string, time.Time, error)
	Validate(raw string, want TokenKind) (*JWTClaims, error)
}

// MintOption overrides token defaults, mostly so tests can move the clock.
type MintOption func(*mintOptions)

type mintOptions struct {
	issuedAt time.Time
	ttl      time.Duration
}

// WithIssuedAt overrides the issuance time.
func WithIssuedAt(t time.Time) MintOption {
	return func(o *mintOptions) { o.issuedAt = t }
}

// WithTTL overrides the kind's default expiration window.
func WithTTL(d time.Duration) MintOption {
	return func(o *mintOptions) { o.ttl = d }
}

// TokenServiceImpl implements the TokenService interface
type TokenServiceImpl struct {
	signingKey []byte
	issuer     string
	audience   jwt.ClaimStrings
	accessTTL  time.Duration
	refreshTTL time.Duration
	inviteTTL  time.Duration
	logger     Logger
}

// NewTokenService creates a new TokenService instance
func NewTokenService(cfg Config, logger Logger) *TokenServiceImpl {
	if logger == nil {
		logger = defLogger{}
	}
	return &TokenServiceImpl{
		signingKey: []byte(cfg.GetSigningKey()),
		issuer:     cfg.GetIssuer(),
		audience:   cfg.GetAudience(),
		accessTTL:  cfg.GetAccessTokenTTL(),
		refreshTTL: cfg.GetRefreshTokenTTL(),
		inviteTTL:  cfg.GetInvitationTTL(),
		logger:     logger,
	}
}

var _ TokenService = (*TokenServiceImpl)(nil)

func (ts *TokenServiceImpl) kindTTL(kind TokenKind) time.Duration {
	switch kind {
	case TokenKindRefresh:
		return ts.refreshTTL
	case TokenKindInvitation:
		return ts.inviteTTL
	default:
		return ts.accessTTL
	}
}

// MintToken creates a signed token of the given kind bound to the identity's
// id and role.
func (ts *TokenServiceImpl) MintToken(identity Identity, kind TokenKind, opts ...MintOption) (string, time.Time, error) {
	if identity == nil {
		return "", time.Time{}, errors.New("identity is required", errors.CategoryBadInput)
	}

	options := mintOptions{ttl: ts.kindTTL(kind)}
	for _, opt := range opts {
		opt(&options)
	}

	issuedAt := options.issuedAt
	if issuedAt.IsZero() {
		issuedAt = time.Now()
	}
	expiresAt := issuedAt.Add(options.ttl)

	var aud jwt.ClaimStrings
	if len(ts.audience) > 0 {
		aud = make(jwt.ClaimStrings, len(ts.audience))
		copy(aud, ts.audience)
	}

	claims := &JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    ts.issuer,
			Subject:   identity.ID(),
			Audience:  aud,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		UID:      identity.ID(),
		UserRole: identity.Role(),
		Kind:     kind,
	}

	ensureTokenID(&claims.RegisteredClaims)

	token, err := ts.SignClaims(claims)
	if err != nil {
		return "", time.Time{}, err
	}

	return token, expiresAt, nil
}

// SignClaims signs arbitrary JWT claims using the configured signing key.
func (ts *TokenServiceImpl) SignClaims(claims *JWTClaims) (string, error) {
	if claims == nil {
		return "", errors.New("claims must not be nil", errors.CategoryInternal)
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signedString, err := token.SignedString(ts.signingKey)
	if err != nil {
		return "", errors.Wrap(err, errors.CategoryInternal, "failed to sign JWT")
	}

	return signedString, nil
}

// Validate parses and validates a token string, checking signature, expiry,
// and the embedded kind. Failures map to the closed token error taxonomy,
// never to raw jwt parser errors.
func (ts *TokenServiceImpl) Validate(raw string, want TokenKind) (*JWTClaims, error) {
	if raw == "" {
		return nil, ErrTokenMalformed
	}

	parserOptions := make([]jwt.ParserOption, 0, 2)
	if ts.issuer != "" {
		parserOptions = append(parserOptions, jwt.WithIssuer(ts.issuer))
	}
	if len(ts.audience) > 0 {
		parserOptions = append(parserOptions, jwt.WithAudience(ts.audience...))
	}

	token, err := jwt.ParseWithClaims(raw, &JWTClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			ts.logger.Error("TokenService validate encountered unexpected signing method: %v", t.Header["alg"])
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return ts.signingKey, nil
	}, parserOptions...)

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, errors.Wrap(err, ErrTokenMalformed.Category, ErrTokenMalformed.Message).
			WithTextCode(ErrTokenMalformed.TextCode).
			WithCode(errors.CodeUnauthorized)
	}

	claims, ok := token.Claims.(*JWTClaims)
	if !ok || !token.Valid {
		ts.logger.Error("TokenService validate could not decode claims")
		return nil, ErrTokenMalformed
	}

	if claims.Kind != want {
		return nil, ErrWrongTokenKind
	}

	return claims, nil
}
