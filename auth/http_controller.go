package auth

import (
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/gofiber/fiber/v2"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
	"github.com/google/uuid"
	"github.com/nyaruka/phonenumbers"
)

// DefaultPhoneRegion is the region used to parse telephone numbers that
// carry no country prefix.
var DefaultPhoneRegion = "NG"

// HTTPController exposes the account and session lifecycle as a JSON API.
type HTTPController struct {
	Debug       bool
	Logger      Logger
	sessions    SessionManager
	invitations *InvitationIssuer
	repo        RepositoryManager
	cookies     *CookieWriter
}

func NewHTTPController(sessions SessionManager, invitations *InvitationIssuer, repo RepositoryManager, cfg Config) *HTTPController {
	return &HTTPController{
		Debug:       cfg.GetDebug(),
		Logger:      defLogger{},
		sessions:    sessions,
		invitations: invitations,
		repo:        repo,
		cookies:     NewCookieWriter(cfg),
	}
}

func (a *HTTPController) WithLogger(logger Logger) *HTTPController {
	a.Logger = logger
	return a
}

// RegisterRoutes mounts the account routes. The authenticated and admin
// middlewares come from the caller so transport concerns stay out of the
// controller.
func (a *HTTPController) RegisterRoutes(app fiber.Router, authenticated fiber.Handler, adminOnly fiber.Handler) {
	account := app.Group("/account")

	account.Post("/invite", authenticated, adminOnly, a.Invite)
	account.Get("/invite/validate", a.InviteValidate)
	account.Post("/register", a.Register)
	account.Post("/login", a.Login)
	account.Post("/logout", a.Logout)
	account.Post("/refresh-token", a.RefreshToken)
	account.Get("/current", authenticated, a.Current)
	account.Get("/", authenticated, adminOnly, a.ListAccounts)
	account.Delete("/:id", authenticated, adminOnly, a.DeleteAccount)

	app.Get("/auth/account/verify", authenticated, a.Verify)
}

// InvitePayload is the invite request body
type InvitePayload struct {
	Role string `json:"role" form:"role"`
}

// Validate will validate the payload
func (r InvitePayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Role, validation.Required, validation.In(RoleFieldAgent, RoleAdmin)),
	)
}

func (a *HTTPController) Invite(c *fiber.Ctx) error {
	payload := new(InvitePayload)
	if err := c.BodyParser(payload); err != nil {
		a.Logger.Error("invite parse payload: %v", err)
		return a.writeError(c, goerrors.Wrap(err, goerrors.CategoryBadInput, "failed to parse body").
			WithCode(goerrors.CodeBadRequest))
	}

	if err := payload.Validate(); err != nil {
		a.Logger.Error("invite validate payload: %v", err)
		return a.writeError(c, err)
	}

	invitation, err := a.invitations.Issue(AccountRole(payload.Role), RoleFromCtx(c))
	if err != nil {
		a.Logger.Error("invite issue: %v", err)
		return a.writeError(c, err)
	}

	if a.Debug {
		fmt.Println(print.MaybePrettyJSON(invitation))
	}

	return c.JSON(fiber.Map{
		"success":        true,
		"invitationLink": invitation.Link,
		"expiresIn":      invitation.ExpiresIn.String(),
	})
}

// InviteValidate checks an invitation token and reports the role it
// carries. The token stays valid until expiry, so the response must not be
// cached anywhere downstream.
func (a *HTTPController) InviteValidate(c *fiber.Ctx) error {
	c.Set(fiber.HeaderCacheControl, "no-store")

	role, err := a.invitations.Validate(c.Query("token"))
	if err != nil {
		return a.writeError(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"role":    role,
	})
}

// RegisterPayload is the registration request body
type RegisterPayload struct {
	Name             string   `json:"name" form:"name"`
	Username         string   `json:"username" form:"username"`
	Email            string   `json:"email" form:"email"`
	Telephone        string   `json:"telephone" form:"telephone"`
	EmergencyContact string   `json:"emergencyContact" form:"emergencyContact"`
	Address          string   `json:"address" form:"address"`
	StartDate        string   `json:"startDate" form:"startDate"`
	Images           []string `json:"images" form:"images"`
	Password         string   `json:"password" form:"password"`
	Role             string   `json:"role" form:"role"`
	InvitationToken  string   `json:"invitationToken" form:"invitationToken"`
}

// Validate will validate the payload
func (r RegisterPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.Username, validation.Required, validation.Length(3, 100)),
		validation.Field(&r.Email, validation.Required, validation.Length(6, 100), is.Email),
		validation.Field(&r.Telephone, validation.Required, validation.By(ValidatePhoneNumber)),
		validation.Field(&r.EmergencyContact, validation.Required, validation.By(ValidatePhoneNumber)),
		validation.Field(&r.Address, validation.Required, validation.Length(1, 500)),
		validation.Field(&r.StartDate, validation.Required),
		validation.Field(&r.Password, validation.Required, validation.Length(8, 100)),
		validation.Field(&r.Role, validation.In(RoleFieldAgent, RoleAdmin)),
	)
}

// Register creates an account. The role defaults to the least privileged;
// anything above that must come through a validated invitation whose
// embedded role covers the request.
func (a *HTTPController) Register(c *fiber.Ctx) error {
	payload := new(RegisterPayload)
	if err := c.BodyParser(payload); err != nil {
		a.Logger.Error("register parse payload: %v", err)
		return a.writeError(c, goerrors.Wrap(err, goerrors.CategoryBadInput, "failed to parse body").
			WithCode(goerrors.CodeBadRequest))
	}

	if err := payload.Validate(); err != nil {
		a.Logger.Error("register validate payload: %v", err)
		return a.writeError(c, err)
	}

	role := DefaultRole()
	if payload.InvitationToken != "" {
		invitedRole, err := a.invitations.Validate(payload.InvitationToken)
		if err != nil {
			a.Logger.Error("register invitation validate: %v", err)
			return a.writeError(c, err)
		}
		role = invitedRole
	}

	if payload.Role != "" && payload.Role != role {
		if !RoleIsAtLeast(role, AccountRole(payload.Role)) {
			return a.writeError(c, ErrForbidden)
		}
		role = AccountRole(payload.Role)
	}

	hash, err := HashPassword(payload.Password)
	if err != nil {
		return a.writeError(c, err)
	}

	account := &Account{
		Name:             payload.Name,
		Username:         payload.Username,
		Email:            payload.Email,
		Telephone:        payload.Telephone,
		EmergencyContact: payload.EmergencyContact,
		Address:          payload.Address,
		StartDate:        payload.StartDate,
		Images:           payload.Images,
		Role:             role,
		PasswordHash:     hash,
	}

	record, err := a.repo.Accounts().Register(c.Context(), account)
	if err != nil {
		a.Logger.Error("register create account: %v", err)
		return a.writeError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": "Account created successfully",
		"account": record,
	})
}

// LoginPayload is the login request body
type LoginPayload struct {
	Username string `json:"username" form:"username"`
	Password string `json:"password" form:"password"`
}

// Validate will validate the payload
func (r LoginPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Username, validation.Required),
		validation.Field(&r.Password, validation.Required),
	)
}

func (a *HTTPController) Login(c *fiber.Ctx) error {
	payload := new(LoginPayload)
	if err := c.BodyParser(payload); err != nil {
		a.Logger.Error("login parse payload: %v", err)
		return a.writeError(c, goerrors.Wrap(err, goerrors.CategoryBadInput, "failed to parse body").
			WithCode(goerrors.CodeBadRequest))
	}

	if err := payload.Validate(); err != nil {
		return a.writeError(c, err)
	}

	pair, identity, err := a.sessions.Login(c.Context(), payload.Username, payload.Password)
	if err != nil {
		return a.writeError(c, err)
	}

	account, err := a.accountForIdentity(c, identity)
	if err != nil {
		return a.writeError(c, err)
	}

	a.cookies.SetTokenPair(c, pair)

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Login successful",
		"account": account,
	})
}

// Logout revokes the session behind the refresh cookie and clears both
// cookies. Always 200, even without a live session.
func (a *HTTPController) Logout(c *fiber.Ctx) error {
	access := a.cookies.AccessToken(c)
	refresh := a.cookies.RefreshToken(c)

	if err := a.sessions.Logout(c.Context(), access, refresh); err != nil {
		a.Logger.Warn("logout revoke: %v", err)
	}

	a.cookies.Clear(c)

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Logged out successfully",
	})
}

func (a *HTTPController) RefreshToken(c *fiber.Ctx) error {
	refresh := a.cookies.RefreshToken(c)
	if refresh == "" {
		return a.writeError(c, ErrTokenMalformed)
	}

	pair, err := a.sessions.Refresh(c.Context(), refresh)
	if err != nil {
		a.cookies.Clear(c)
		return a.writeError(c, err)
	}

	a.cookies.SetTokenPair(c, pair)

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Token refreshed",
	})
}

// Current returns the caller's own profile, secret excluded.
func (a *HTTPController) Current(c *fiber.Ctx) error {
	claims, err := ClaimsFromCtx(c)
	if err != nil {
		return a.writeError(c, err)
	}

	account, err := a.accountByID(c, claims.AccountID())
	if err != nil {
		return a.writeError(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"account": account,
	})
}

// Verify reports the resolved identity behind the presented access token.
// Collaborating services call it to check that a session is still good.
func (a *HTTPController) Verify(c *fiber.Ctx) error {
	claims, err := ClaimsFromCtx(c)
	if err != nil {
		return a.writeError(c, err)
	}

	account, err := a.accountByID(c, claims.AccountID())
	if err != nil {
		return a.writeError(c, err)
	}

	return c.JSON(fiber.Map{
		"success":  true,
		"id":       account.ID,
		"username": account.Username,
		"email":    account.Email,
		"role":     account.Role,
	})
}

func (a *HTTPController) ListAccounts(c *fiber.Ctx) error {
	records, err := a.repo.Accounts().List(c.Context())
	if err != nil {
		a.Logger.Error("account list: %v", err)
		return a.writeError(c, err)
	}

	return c.JSON(fiber.Map{
		"success":  true,
		"accounts": records,
	})
}

func (a *HTTPController) DeleteAccount(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return a.writeError(c, goerrors.New("invalid account id", goerrors.CategoryBadInput).
			WithCode(goerrors.CodeBadRequest))
	}

	if err := a.repo.Accounts().DeleteByID(c.Context(), id); err != nil {
		a.Logger.Error("account delete: %v", err)
		return a.writeError(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Account deleted successfully",
	})
}

func (a *HTTPController) accountForIdentity(c *fiber.Ctx, identity Identity) (*Account, error) {
	return a.accountByID(c, identity.ID())
}

func (a *HTTPController) accountByID(c *fiber.Ctx, id string) (*Account, error) {
	accountID, err := uuid.Parse(id)
	if err != nil {
		return nil, ErrAccountNotFound
	}
	return a.repo.Accounts().GetByAccountID(c.Context(), accountID)
}

// writeError maps an error to the JSON envelope and HTTP status. Internal
// detail is withheld outside debug mode.
func (a *HTTPController) writeError(c *fiber.Ctx, err error) error {
	status := StatusForError(err)

	message := err.Error()
	if status == fiber.StatusInternalServerError && !a.Debug {
		message = "internal server error"
	}

	body := fiber.Map{
		"success": false,
		"message": message,
	}

	var verrs validation.Errors
	if goerrors.As(err, &verrs) {
		body["errors"] = verrs
	}

	return c.Status(status).JSON(body)
}

// StatusForError maps the closed error taxonomy to HTTP status codes.
func StatusForError(err error) int {
	var verrs validation.Errors
	if goerrors.As(err, &verrs) {
		return fiber.StatusBadRequest
	}

	var rich *goerrors.Error
	if !goerrors.As(err, &rich) {
		return fiber.StatusInternalServerError
	}

	switch rich.Category {
	case goerrors.CategoryAuth:
		return fiber.StatusUnauthorized
	case goerrors.CategoryAuthz:
		return fiber.StatusForbidden
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return fiber.StatusBadRequest
	case goerrors.CategoryConflict:
		return fiber.StatusConflict
	case goerrors.CategoryNotFound:
		return fiber.StatusNotFound
	default:
		return fiber.StatusInternalServerError
	}
}

// ValidatePhoneNumber checks that a value parses as a dialable phone number.
func ValidatePhoneNumber(value any) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}

	num, err := phonenumbers.Parse(s, DefaultPhoneRegion)
	if err != nil {
		return fmt.Errorf("must be a valid phone number")
	}

	if !phonenumbers.IsValidNumber(num) {
		return fmt.Errorf("must be a valid phone number")
	}

	return nil
}
