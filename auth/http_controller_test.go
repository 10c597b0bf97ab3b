package auth_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jaypops/Thrillway-Global-Concept-Backend/auth"
)

type testApp struct {
	app    *fiber.App
	repo   auth.RepositoryManager
	tokens *auth.TokenServiceImpl
	cfg    *testConfig
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	cfg := newTestConfig()
	repo := setupRepo(t)
	tokens := auth.NewTokenService(cfg, nil)
	provider := auth.NewAuthenticator(repo)
	sessions := auth.NewSessionIssuer(provider, tokens, repo, cfg)
	invitations := auth.NewInvitationIssuer(tokens, cfg)

	app := fiber.New()
	controller := auth.NewHTTPController(sessions, invitations, repo, cfg)
	controller.RegisterRoutes(app, auth.Protected(tokens, cfg), auth.AdminOnly())

	return &testApp{app: app, repo: repo, tokens: tokens, cfg: cfg}
}

func (ta *testApp) request(t *testing.T, method, path string, body any, cookies ...*http.Cookie) *http.Response {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, cookie := range cookies {
		req.AddCookie(cookie)
	}

	resp, err := ta.app.Test(req, -1)
	require.NoError(t, err)

	return resp
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body
}

func cookieByName(resp *http.Response, name string) *http.Cookie {
	for _, cookie := range resp.Cookies() {
		if cookie.Name == name {
			return cookie
		}
	}
	return nil
}

func registerPayload(username, email string) map[string]any {
	return map[string]any{
		"name":             "Test Person",
		"username":         username,
		"email":            email,
		"telephone":        "+2348031234567",
		"emergencyContact": "+2348031234568",
		"address":          "12 Test Street",
		"startDate":        "2024-01-15",
		"password":         "a-strong-password",
	}
}

func (ta *testApp) login(t *testing.T, username, password string) (*http.Cookie, *http.Cookie) {
	t.Helper()

	resp := ta.request(t, fiber.MethodPost, "/account/login", map[string]any{
		"username": username,
		"password": password,
	})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	access := cookieByName(resp, "auth_token")
	refresh := cookieByName(resp, "refresh_token")
	require.NotNil(t, access)
	require.NotNil(t, refresh)

	return access, refresh
}

func (ta *testApp) seedAdmin(t *testing.T) *http.Cookie {
	t.Helper()

	account := testAccount("boss", "boss@example.com", "a-strong-password")
	account.Role = auth.RoleAdmin
	_, err := ta.repo.Accounts().Register(context.Background(), account)
	require.NoError(t, err)

	access, _ := ta.login(t, "boss", "a-strong-password")
	return access
}

func TestRegisterAndLoginFlow(t *testing.T) {
	ta := newTestApp(t)

	resp := ta.request(t, fiber.MethodPost, "/account/register", registerPayload("jdoe", "jdoe@example.com"))
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.Equal(t, true, body["success"])

	account, ok := body["account"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "fieldAgent", account["role"])
	assert.NotContains(t, account, "password")
	assert.NotContains(t, account, "passwordHash")

	access, refresh := ta.login(t, "jdoe", "a-strong-password")
	assert.True(t, access.HttpOnly)
	assert.True(t, refresh.HttpOnly)
	assert.Equal(t, "/", access.Path)

	resp = ta.request(t, fiber.MethodGet, "/account/current", nil, access)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	body = decodeBody(t, resp)
	current, ok := body["account"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "jdoe", current["username"])
}

func TestRegisterValidation(t *testing.T) {
	ta := newTestApp(t)

	tests := []struct {
		name   string
		mutate func(map[string]any)
	}{
		{name: "missing name", mutate: func(p map[string]any) { delete(p, "name") }},
		{name: "missing password", mutate: func(p map[string]any) { delete(p, "password") }},
		{name: "bad email", mutate: func(p map[string]any) { p["email"] = "not-an-email" }},
		{name: "bad telephone", mutate: func(p map[string]any) { p["telephone"] = "12" }},
		{name: "missing address", mutate: func(p map[string]any) { delete(p, "address") }},
		{name: "missing start date", mutate: func(p map[string]any) { delete(p, "startDate") }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payload := registerPayload("jdoe", "jdoe@example.com")
			tt.mutate(payload)

			resp := ta.request(t, fiber.MethodPost, "/account/register", payload)
			assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

			body := decodeBody(t, resp)
			assert.Equal(t, false, body["success"])

			// nothing partial persisted
			_, err := ta.repo.Accounts().GetByIdentifier(context.Background(), "jdoe")
			assert.Error(t, err)
		})
	}
}

func TestRegisterConflict(t *testing.T) {
	ta := newTestApp(t)

	resp := ta.request(t, fiber.MethodPost, "/account/register", registerPayload("jdoe", "jdoe@example.com"))
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	resp = ta.request(t, fiber.MethodPost, "/account/register", registerPayload("jdoe", "other@example.com"))
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)
}

func TestRegisterRoleElevationNeedsInvitation(t *testing.T) {
	ta := newTestApp(t)

	payload := registerPayload("wannabe", "wannabe@example.com")
	payload["role"] = "admin"

	resp := ta.request(t, fiber.MethodPost, "/account/register", payload)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}

func TestInvitationFlow(t *testing.T) {
	ta := newTestApp(t)
	adminCookie := ta.seedAdmin(t)

	// field agents may not issue invitations
	resp := ta.request(t, fiber.MethodPost, "/account/register", registerPayload("agent", "agent@example.com"))
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	agentCookie, _ := ta.login(t, "agent", "a-strong-password")

	resp = ta.request(t, fiber.MethodPost, "/account/invite",
		map[string]any{"role": "admin"}, agentCookie)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	// admins may
	resp = ta.request(t, fiber.MethodPost, "/account/invite",
		map[string]any{"role": "admin"}, adminCookie)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	link, ok := body["invitationLink"].(string)
	require.True(t, ok)

	token := link[len("http://localhost:3000/register?invitation="):]

	resp = ta.request(t, fiber.MethodGet, "/account/invite/validate?token="+token, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "no-store", resp.Header.Get("Cache-Control"))

	body = decodeBody(t, resp)
	assert.Equal(t, "admin", body["role"])

	// an invited registration lands with the elevated role
	payload := registerPayload("newadmin", "newadmin@example.com")
	payload["role"] = "admin"
	payload["invitationToken"] = token

	resp = ta.request(t, fiber.MethodPost, "/account/register", payload)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	body = decodeBody(t, resp)
	account := body["account"].(map[string]any)
	assert.Equal(t, "admin", account["role"])
}

func TestInviteValidateRejectsBadTokens(t *testing.T) {
	ta := newTestApp(t)

	resp := ta.request(t, fiber.MethodGet, "/account/invite/validate?token=garbage", nil)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	resp = ta.request(t, fiber.MethodGet, "/account/invite/validate", nil)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestLoginUniformError(t *testing.T) {
	ta := newTestApp(t)

	resp := ta.request(t, fiber.MethodPost, "/account/register", registerPayload("jdoe", "jdoe@example.com"))
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	wrongPassword := ta.request(t, fiber.MethodPost, "/account/login", map[string]any{
		"username": "jdoe", "password": "nope",
	})
	unknownUser := ta.request(t, fiber.MethodPost, "/account/login", map[string]any{
		"username": "ghost", "password": "nope",
	})

	assert.Equal(t, fiber.StatusUnauthorized, wrongPassword.StatusCode)
	assert.Equal(t, fiber.StatusUnauthorized, unknownUser.StatusCode)

	a := decodeBody(t, wrongPassword)
	b := decodeBody(t, unknownUser)
	assert.Equal(t, a["message"], b["message"])
}

func TestProtectedRouteRequiresToken(t *testing.T) {
	ta := newTestApp(t)

	resp := ta.request(t, fiber.MethodGet, "/account/current", nil)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestProtectedRouteAcceptsBearerHeader(t *testing.T) {
	ta := newTestApp(t)

	resp := ta.request(t, fiber.MethodPost, "/account/register", registerPayload("jdoe", "jdoe@example.com"))
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	access, _ := ta.login(t, "jdoe", "a-strong-password")

	req := httptest.NewRequest(fiber.MethodGet, "/account/current", nil)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer "+access.Value)

	result, err := ta.app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, result.StatusCode)
}

func TestFieldAgentCannotReachAdminRoutes(t *testing.T) {
	ta := newTestApp(t)

	resp := ta.request(t, fiber.MethodPost, "/account/register", registerPayload("agent", "agent@example.com"))
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	agentCookie, _ := ta.login(t, "agent", "a-strong-password")

	resp = ta.request(t, fiber.MethodGet, "/account/", nil, agentCookie)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	// authenticated-only routes still work for the agent
	resp = ta.request(t, fiber.MethodGet, "/auth/account/verify", nil, agentCookie)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.Equal(t, "agent", body["username"])
	assert.Equal(t, "fieldAgent", body["role"])
}

func TestExpiredAccessThenRefreshThenRetry(t *testing.T) {
	ta := newTestApp(t)

	resp := ta.request(t, fiber.MethodPost, "/account/register", registerPayload("jdoe", "jdoe@example.com"))
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	_, refresh := ta.login(t, "jdoe", "a-strong-password")

	record, err := ta.repo.Accounts().GetByIdentifier(context.Background(), "jdoe")
	require.NoError(t, err)

	expiredAccess, _, err := ta.tokens.MintToken(auth.IdentityFromAccount(record), auth.TokenKindAccess,
		auth.WithIssuedAt(time.Now().Add(-2*time.Hour)),
		auth.WithTTL(time.Hour),
	)
	require.NoError(t, err)

	staleCookie := &http.Cookie{Name: "auth_token", Value: expiredAccess}

	// the expired code tells the client a refresh is worth trying
	resp = ta.request(t, fiber.MethodGet, "/account/current", nil, staleCookie)
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Equal(t, "token_expired", body["code"])

	resp = ta.request(t, fiber.MethodPost, "/account/refresh-token", nil, refresh)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	freshAccess := cookieByName(resp, "auth_token")
	require.NotNil(t, freshAccess)
	require.NotEmpty(t, freshAccess.Value)

	resp = ta.request(t, fiber.MethodGet, "/account/current", nil, freshAccess)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestRefreshWithoutCookie(t *testing.T) {
	ta := newTestApp(t)

	resp := ta.request(t, fiber.MethodPost, "/account/refresh-token", nil)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestRefreshReplayFails(t *testing.T) {
	ta := newTestApp(t)

	resp := ta.request(t, fiber.MethodPost, "/account/register", registerPayload("jdoe", "jdoe@example.com"))
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	_, refresh := ta.login(t, "jdoe", "a-strong-password")

	resp = ta.request(t, fiber.MethodPost, "/account/refresh-token", nil, refresh)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp = ta.request(t, fiber.MethodPost, "/account/refresh-token", nil, refresh)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestLogoutAlwaysSucceeds(t *testing.T) {
	ta := newTestApp(t)

	resp := ta.request(t, fiber.MethodPost, "/account/register", registerPayload("jdoe", "jdoe@example.com"))
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	access, refresh := ta.login(t, "jdoe", "a-strong-password")

	resp = ta.request(t, fiber.MethodPost, "/account/logout", nil, access, refresh)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	cleared := cookieByName(resp, "refresh_token")
	require.NotNil(t, cleared)
	assert.Empty(t, cleared.Value)

	// without any session state it is still a 200
	resp = ta.request(t, fiber.MethodPost, "/account/logout", nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestAdminAccountManagement(t *testing.T) {
	ta := newTestApp(t)
	adminCookie := ta.seedAdmin(t)

	resp := ta.request(t, fiber.MethodPost, "/account/register", registerPayload("agent", "agent@example.com"))
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	resp = ta.request(t, fiber.MethodGet, "/account/", nil, adminCookie)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	accounts, ok := body["accounts"].([]any)
	require.True(t, ok)
	assert.Len(t, accounts, 2)

	record, err := ta.repo.Accounts().GetByIdentifier(context.Background(), "agent")
	require.NoError(t, err)

	resp = ta.request(t, fiber.MethodDelete, fmt.Sprintf("/account/%s", record.ID), nil, adminCookie)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp = ta.request(t, fiber.MethodDelete, fmt.Sprintf("/account/%s", record.ID), nil, adminCookie)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	resp = ta.request(t, fiber.MethodDelete, "/account/not-a-uuid", nil, adminCookie)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}
