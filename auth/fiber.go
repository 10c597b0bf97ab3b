package auth

import (
	stderrors "errors"

	"github.com/gofiber/fiber/v2"
	goerrors "github.com/goliatone/go-errors"

	"github.com/jaypops/Thrillway-Global-Concept-Backend/middleware/authware"
)

type accessValidator struct {
	tokens TokenService
}

func (v accessValidator) ValidateAccess(raw string) (authware.AuthClaims, error) {
	claims, err := v.tokens.Validate(raw, TokenKindAccess)
	if err != nil {
		return nil, err
	}
	return claims, nil
}

// Protected builds the authentication middleware: access token from the
// auth cookie, bearer header as fallback, claims stored under
// ClaimsContextKey on success.
func Protected(tokens TokenService, cfg Config) fiber.Handler {
	return authware.New(authware.Config{
		TokenValidator: accessValidator{tokens: tokens},
		ContextKey:     ClaimsContextKey,
		TokenLookup:    "cookie:" + cfg.GetAuthCookieName() + ",header:" + fiber.HeaderAuthorization,
		ErrorHandler:   WriteAuthError,
	})
}

// AdminOnly gates a route to admin callers. It assumes Protected already
// ran; missing claims fail as unauthenticated, not forbidden.
func AdminOnly() fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims, err := ClaimsFromCtx(c)
		if err != nil {
			return WriteAuthError(c, err)
		}

		if !claims.IsAtLeast(RoleAdmin) {
			return WriteAuthError(c, ErrForbidden)
		}

		return c.Next()
	}
}

// WriteAuthError renders middleware failures in the standard envelope. The
// code field lets clients tell an expired access token, worth a refresh
// attempt, from one that is simply invalid.
func WriteAuthError(c *fiber.Ctx, err error) error {
	status := fiber.StatusUnauthorized
	code := TextCodeTokenMalformed

	switch {
	case err == authware.ErrTokenMissingOrMalformed:
		// keep the malformed code
	case stderrors.Is(err, authware.ErrInsufficientRole):
		status = fiber.StatusForbidden
		code = TextCodeForbidden
	default:
		var rich *goerrors.Error
		if goerrors.As(err, &rich) {
			status = StatusForError(err)
			if rich.TextCode != "" {
				code = rich.TextCode
			}
		}
	}

	message := err.Error()
	if err == authware.ErrTokenMissingOrMalformed {
		message = ErrTokenMalformed.Message
	}

	return c.Status(status).JSON(fiber.Map{
		"success": false,
		"message": message,
		"code":    code,
	})
}
