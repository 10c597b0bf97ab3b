package authware

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
)

var (
	defaultTokenLookup = "header:" + fiber.HeaderAuthorization

	// ErrTokenMissingOrMalformed is returned when no extractor finds a token.
	ErrTokenMissingOrMalformed = errors.New("missing or malformed token")
)

// TokenValidator validates raw access tokens without an import cycle back
// into the auth package. It mirrors the token service's Validate method.
type TokenValidator interface {
	ValidateAccess(raw string) (AuthClaims, error)
}

// AuthClaims is the structured-claims surface the middleware needs. It
// mirrors the auth package's JWT claims.
type AuthClaims interface {
	AccountID() string
	Role() string
	HasRole(role string) bool
	IsAtLeast(minRole string) bool
}

type Config struct {
	// Filter skips the middleware when it returns true
	Filter         func(*fiber.Ctx) bool
	SuccessHandler fiber.Handler
	ErrorHandler   func(*fiber.Ctx, error) error

	// TokenValidator is required
	TokenValidator TokenValidator

	// ContextKey is the locals key validated claims are stored under
	ContextKey string

	// TokenLookup is a comma-separated list of extraction sources, tried in
	// order: "cookie:auth_token,header:Authorization"
	TokenLookup string
	AuthScheme  string

	// RequiredRole demands an exact role match
	RequiredRole string
	// MinimumRole demands at least this role in the hierarchy
	MinimumRole string
}

// New returns the authentication middleware. Extraction failures and
// validation failures both go through the ErrorHandler so the caller
// controls the response shape.
func New(config ...Config) fiber.Handler {
	cfg := configDefault(config...)
	extractors := buildExtractors(cfg.TokenLookup, cfg.AuthScheme)

	return func(c *fiber.Ctx) error {
		if cfg.Filter != nil && cfg.Filter(c) {
			return c.Next()
		}

		raw, err := extractToken(c, extractors)
		if err != nil {
			return cfg.ErrorHandler(c, err)
		}

		claims, err := cfg.TokenValidator.ValidateAccess(raw)
		if err != nil {
			return cfg.ErrorHandler(c, err)
		}

		if err := checkAuthorization(claims, cfg); err != nil {
			return cfg.ErrorHandler(c, err)
		}

		c.Locals(cfg.ContextKey, claims)

		return cfg.SuccessHandler(c)
	}
}

// ErrInsufficientRole is returned when valid claims fail the role check.
var ErrInsufficientRole = errors.New("insufficient role")

func checkAuthorization(claims AuthClaims, cfg Config) error {
	if cfg.RequiredRole != "" && !claims.HasRole(cfg.RequiredRole) {
		return fmt.Errorf("%w: required role %q", ErrInsufficientRole, cfg.RequiredRole)
	}

	if cfg.MinimumRole != "" && !claims.IsAtLeast(cfg.MinimumRole) {
		return fmt.Errorf("%w: minimum role %q", ErrInsufficientRole, cfg.MinimumRole)
	}

	return nil
}

func configDefault(config ...Config) (cfg Config) {
	if len(config) > 0 {
		cfg = config[0]
	}

	if cfg.SuccessHandler == nil {
		cfg.SuccessHandler = func(c *fiber.Ctx) error {
			return c.Next()
		}
	}

	if cfg.ErrorHandler == nil {
		cfg.ErrorHandler = func(c *fiber.Ctx, err error) error {
			if errors.Is(err, ErrInsufficientRole) {
				return c.Status(fiber.StatusForbidden).SendString(err.Error())
			}
			return c.Status(fiber.StatusUnauthorized).SendString("invalid or expired token")
		}
	}

	if cfg.TokenValidator == nil {
		panic("AUTHWARE: middleware configuration: TokenValidator is required.")
	}

	if cfg.ContextKey == "" {
		cfg.ContextKey = "auth_claims"
	}

	if cfg.TokenLookup == "" {
		cfg.TokenLookup = defaultTokenLookup
	}

	if cfg.AuthScheme == "" {
		cfg.AuthScheme = "Bearer"
	}

	return cfg
}

type tokenExtractor func(c *fiber.Ctx) (string, error)

func extractToken(c *fiber.Ctx, extractors []tokenExtractor) (string, error) {
	var raw string
	var err error

	for _, extractor := range extractors {
		raw, err = extractor(c)
		if raw != "" && err == nil {
			break
		}
	}

	return raw, err
}

func buildExtractors(tokenLookup string, authScheme string) []tokenExtractor {
	extractors := make([]tokenExtractor, 0)

	// cookie:auth_token,header:Authorization,query:token
	for _, rootPart := range strings.Split(tokenLookup, ",") {
		parts := strings.Split(strings.TrimSpace(rootPart), ":")
		if len(parts) != 2 {
			continue
		}

		source := strings.TrimSpace(parts[0])
		name := strings.TrimSpace(parts[1])

		switch source {
		case "header":
			extractors = append(extractors, tokenFromHeader(name, authScheme))
		case "cookie":
			extractors = append(extractors, tokenFromCookie(name))
		case "query":
			extractors = append(extractors, tokenFromQuery(name))
		}
	}

	return extractors
}

// tokenFromHeader extracts a scheme-prefixed token from the request header.
func tokenFromHeader(header string, authScheme string) tokenExtractor {
	return func(c *fiber.Ctx) (string, error) {
		a := c.Get(header)
		l := len(authScheme)
		if l == 0 {
			return "", ErrTokenMissingOrMalformed
		}
		if len(a) > l+1 && strings.EqualFold(a[:l], authScheme) {
			return strings.TrimSpace(a[l:]), nil
		}
		return "", ErrTokenMissingOrMalformed
	}
}

// tokenFromCookie extracts the token from the named cookie.
func tokenFromCookie(name string) tokenExtractor {
	return func(c *fiber.Ctx) (string, error) {
		token := c.Cookies(name)
		if token == "" {
			return "", ErrTokenMissingOrMalformed
		}
		return token, nil
	}
}

// tokenFromQuery extracts the token from the query string.
func tokenFromQuery(param string) tokenExtractor {
	return func(c *fiber.Ctx) (string, error) {
		token := c.Query(param)
		if token == "" {
			return "", ErrTokenMissingOrMalformed
		}
		return token, nil
	}
}
