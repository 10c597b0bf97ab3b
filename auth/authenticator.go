package auth

import (
	"context"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

// timingDummyHash keeps the unknown-handle path doing the same bcrypt work
// as the wrong-password path. Hash of a random throwaway value.
const timingDummyHash = "$2a$13$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

// Authenticator verifies credentials against the account store and resolves
// stored accounts into identities.
type Authenticator struct {
	repo   RepositoryManager
	logger Logger
}

// NewAuthenticator returns a new Authenticator
func NewAuthenticator(repo RepositoryManager) *Authenticator {
	return &Authenticator{
		repo:   repo,
		logger: defLogger{},
	}
}

func (a *Authenticator) WithLogger(logger Logger) *Authenticator {
	a.logger = logger
	return a
}

var _ IdentityProvider = (*Authenticator)(nil)

// VerifyIdentity finds the account and compares the secret. The failure is
// ErrInvalidCredentials whether the handle is unknown or the password is
// wrong; the response never reveals which.
func (a *Authenticator) VerifyIdentity(ctx context.Context, identifier, password string) (Identity, error) {
	account, err := a.repo.Accounts().GetByIdentifier(ctx, identifier)
	if err != nil {
		if hasTextCode(err, TextCodeAccountNotFound) {
			// burn the same bcrypt work as the wrong-password path
			_ = ComparePasswordAndHash(password, timingDummyHash)
			return nil, ErrInvalidCredentials
		}
		a.logger.Error("VerifyIdentity account lookup error: %v", err)
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve account during verification")
	}

	if err := ComparePasswordAndHash(password, account.PasswordHash); err != nil {
		if IsInvalidCredentialsError(err) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	return IdentityFromAccount(account), nil
}

// FindIdentityByID resolves an account id to its identity.
func (a *Authenticator) FindIdentityByID(ctx context.Context, id string) (Identity, error) {
	accountID, err := uuid.Parse(id)
	if err != nil {
		return nil, ErrAccountNotFound
	}

	account, err := a.repo.Accounts().GetByAccountID(ctx, accountID)
	if err != nil {
		return nil, err
	}

	return IdentityFromAccount(account), nil
}
