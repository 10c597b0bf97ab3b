package auth

import (
	"github.com/gofiber/fiber/v2"
)

// ClaimsContextKey is the fiber locals key the auth middleware stores the
// validated access claims under.
const ClaimsContextKey = "auth_claims"

// SetClaims attaches validated claims to the request context.
func SetClaims(c *fiber.Ctx, claims *JWTClaims) {
	c.Locals(ClaimsContextKey, claims)
}

// ClaimsFromCtx retrieves the validated claims set by the auth middleware.
func ClaimsFromCtx(c *fiber.Ctx) (*JWTClaims, error) {
	val := c.Locals(ClaimsContextKey)
	if val == nil {
		return nil, ErrTokenMalformed
	}

	claims, ok := val.(*JWTClaims)
	if !ok || claims == nil {
		return nil, ErrTokenMalformed
	}

	return claims, nil
}

// RoleFromCtx returns the caller's role, empty when unauthenticated.
func RoleFromCtx(c *fiber.Ctx) AccountRole {
	claims, err := ClaimsFromCtx(c)
	if err != nil {
		return ""
	}
	return AccountRole(claims.Role())
}
