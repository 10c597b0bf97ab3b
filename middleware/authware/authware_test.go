package authware_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jaypops/Thrillway-Global-Concept-Backend/middleware/authware"
)

type stubClaims struct {
	accountID string
	role      string
}

func (s stubClaims) AccountID() string { return s.accountID }
func (s stubClaims) Role() string      { return s.role }
func (s stubClaims) HasRole(role string) bool {
	return s.role == role
}
func (s stubClaims) IsAtLeast(minRole string) bool {
	if s.role == "admin" {
		return true
	}
	return s.role == minRole
}

type stubValidator struct {
	claims map[string]authware.AuthClaims
	err    error
}

func (v stubValidator) ValidateAccess(raw string) (authware.AuthClaims, error) {
	if v.err != nil {
		return nil, v.err
	}
	if claims, ok := v.claims[raw]; ok {
		return claims, nil
	}
	return nil, errors.New("invalid token")
}

func newApp(cfg authware.Config) *fiber.App {
	app := fiber.New()
	app.Use(authware.New(cfg))
	app.Get("/protected", func(c *fiber.Ctx) error {
		claims, ok := c.Locals("auth_claims").(authware.AuthClaims)
		if !ok {
			return c.SendStatus(fiber.StatusInternalServerError)
		}
		return c.SendString(claims.AccountID())
	})
	return app
}

func validatorWith(token string, claims authware.AuthClaims) stubValidator {
	return stubValidator{claims: map[string]authware.AuthClaims{token: claims}}
}

func TestMissingToken(t *testing.T) {
	app := newApp(authware.Config{
		TokenValidator: validatorWith("good", stubClaims{accountID: "u1", role: "fieldAgent"}),
	})

	req := httptest.NewRequest(fiber.MethodGet, "/protected", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestBearerHeader(t *testing.T) {
	app := newApp(authware.Config{
		TokenValidator: validatorWith("good", stubClaims{accountID: "u1", role: "fieldAgent"}),
	})

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{name: "valid bearer", header: "Bearer good", want: fiber.StatusOK},
		{name: "case insensitive scheme", header: "bearer good", want: fiber.StatusOK},
		{name: "wrong token", header: "Bearer bad", want: fiber.StatusUnauthorized},
		{name: "no scheme", header: "good", want: fiber.StatusUnauthorized},
		{name: "empty", header: "", want: fiber.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(fiber.MethodGet, "/protected", nil)
			if tt.header != "" {
				req.Header.Set(fiber.HeaderAuthorization, tt.header)
			}

			resp, err := app.Test(req, -1)
			require.NoError(t, err)
			assert.Equal(t, tt.want, resp.StatusCode)
		})
	}
}

func TestCookieThenHeaderOrder(t *testing.T) {
	app := newApp(authware.Config{
		TokenValidator: validatorWith("good", stubClaims{accountID: "u1", role: "fieldAgent"}),
		TokenLookup:    "cookie:auth_token,header:Authorization",
	})

	// cookie only
	req := httptest.NewRequest(fiber.MethodGet, "/protected", nil)
	req.AddCookie(&http.Cookie{Name: "auth_token", Value: "good"})
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	// header fallback when the cookie is absent
	req = httptest.NewRequest(fiber.MethodGet, "/protected", nil)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer good")
	resp, err = app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestMinimumRole(t *testing.T) {
	validator := stubValidator{claims: map[string]authware.AuthClaims{
		"agent": stubClaims{accountID: "u1", role: "fieldAgent"},
		"boss":  stubClaims{accountID: "u2", role: "admin"},
	}}

	app := newApp(authware.Config{
		TokenValidator: validator,
		MinimumRole:    "admin",
	})

	req := httptest.NewRequest(fiber.MethodGet, "/protected", nil)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer agent")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	req = httptest.NewRequest(fiber.MethodGet, "/protected", nil)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer boss")
	resp, err = app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestFilterSkipsMiddleware(t *testing.T) {
	app := fiber.New()
	app.Use(authware.New(authware.Config{
		TokenValidator: validatorWith("good", stubClaims{accountID: "u1", role: "fieldAgent"}),
		Filter: func(c *fiber.Ctx) bool {
			return c.Path() == "/open"
		},
	}))
	app.Get("/open", func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})

	req := httptest.NewRequest(fiber.MethodGet, "/open", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestClaimsStoredInLocals(t *testing.T) {
	app := newApp(authware.Config{
		TokenValidator: validatorWith("good", stubClaims{accountID: "u42", role: "fieldAgent"}),
	})

	req := httptest.NewRequest(fiber.MethodGet, "/protected", nil)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer good")

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	buf := make([]byte, 8)
	n, _ := resp.Body.Read(buf)
	assert.Equal(t, "u42", string(buf[:n]))
}
