package auth

import (
	"time"

	"github.com/gofiber/fiber/v2"
)

// CookieWriter writes and clears the auth cookie pair. Both cookies are
// httpOnly and scoped to the whole site; the secure flag follows the
// deployment mode.
type CookieWriter struct {
	authName    string
	refreshName string
	secure      bool
}

func NewCookieWriter(cfg Config) *CookieWriter {
	return &CookieWriter{
		authName:    cfg.GetAuthCookieName(),
		refreshName: cfg.GetRefreshCookieName(),
		secure:      cfg.GetSecureCookies(),
	}
}

// SetTokenPair writes both cookies, each expiring with its token.
func (w *CookieWriter) SetTokenPair(c *fiber.Ctx, pair *TokenPair) {
	w.set(c, w.authName, pair.AccessToken, pair.AccessExpiresAt)
	w.set(c, w.refreshName, pair.RefreshToken, pair.RefreshExpiresAt)
}

// Clear expires both cookies.
func (w *CookieWriter) Clear(c *fiber.Ctx) {
	expired := time.Now().Add(-time.Hour * (24 * 365))
	w.set(c, w.authName, "", expired)
	w.set(c, w.refreshName, "", expired)
}

// AccessToken reads the access token cookie.
func (w *CookieWriter) AccessToken(c *fiber.Ctx) string {
	return c.Cookies(w.authName)
}

// RefreshToken reads the refresh token cookie.
func (w *CookieWriter) RefreshToken(c *fiber.Ctx) string {
	return c.Cookies(w.refreshName)
}

func (w *CookieWriter) set(c *fiber.Ctx, name, val string, expires time.Time) {
	c.Cookie(&fiber.Cookie{
		Name:     name,
		Value:    val,
		Expires:  expires,
		Path:     "/",
		HTTPOnly: true,
		Secure:   w.secure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}
