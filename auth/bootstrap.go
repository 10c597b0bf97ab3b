package auth

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/uptrace/bun"
)

// EnsureAdminMessage seeds the default admin account at startup.
type EnsureAdminMessage struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (e EnsureAdminMessage) Type() string { return "account.ensure_admin" }

// EnsureAdminHandler creates the default admin unless one already exists.
// Without configured credentials it does nothing, so a deployment can opt
// out entirely.
type EnsureAdminHandler struct {
	Repo   RepositoryManager
	Logger Logger
}

func (h *EnsureAdminHandler) Execute(ctx context.Context, event EnsureAdminMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during admin bootstrap",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *EnsureAdminHandler) execute(ctx context.Context, event EnsureAdminMessage) error {
	logger := h.Logger
	if logger == nil {
		logger = defLogger{}
	}

	if event.Username == "" || event.Password == "" {
		logger.Warn("admin credentials not configured, skipping bootstrap")
		return nil
	}

	email := event.Email
	if email == "" {
		email = "admin@thrillway.com"
	}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	if existing, err := h.Repo.Accounts().GetByIdentifier(ctx, event.Username); err == nil && existing != nil {
		logger.Info("default admin account already exists")
		return nil
	}

	hash, err := HashPassword(event.Password)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash admin password")
	}

	account := &Account{
		Name:             "Default Admin",
		Username:         event.Username,
		Email:            email,
		Telephone:        "0000000000",
		EmergencyContact: "0000000000",
		Address:          "Head Office",
		StartDate:        time.Now().Format(time.RFC3339),
		Images:           []string{},
		Role:             RoleAdmin,
		PasswordHash:     hash,
	}

	// deterministic id so repeated bootstraps converge on the same row
	if id, err := hashid.NewUUID(email); err == nil {
		account.ID = id
	}

	err = h.Repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		_, err := h.Repo.Accounts().RegisterTx(ctx, tx, account)
		return err
	})

	if err != nil {
		if hasTextCode(err, TextCodeAccountExists) {
			logger.Info("default admin account already exists")
			return nil
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "admin bootstrap failed")
	}

	logger.Info("default admin account created successfully")
	return nil
}
