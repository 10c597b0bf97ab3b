package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// HashToken digests a refresh token for storage. Only the digest is
// persisted; a leaked database does not yield replayable tokens.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// SessionIssuer is the dual-token lifecycle: a login mints an access and a
// refresh token and persists the refresh digest, a refresh rotates the pair
// exactly once, a logout revokes the record.
type SessionIssuer struct {
	provider IdentityProvider
	tokens   TokenService
	repo     RepositoryManager
	cap      int
	logger   Logger
}

// NewSessionIssuer creates a SessionIssuer wired to the identity provider,
// token service, and session store.
func NewSessionIssuer(provider IdentityProvider, tokens TokenService, repo RepositoryManager, cfg Config) *SessionIssuer {
	cap := cfg.GetSessionCap()
	if cap <= 0 {
		cap = SessionCap
	}
	return &SessionIssuer{
		provider: provider,
		tokens:   tokens,
		repo:     repo,
		cap:      cap,
		logger:   defLogger{},
	}
}

func (s *SessionIssuer) WithLogger(logger Logger) *SessionIssuer {
	s.logger = logger
	return s
}

var _ SessionManager = (*SessionIssuer)(nil)

// Login verifies credentials, mints a token pair, and persists the refresh
// digest. Inserting past the per-account cap evicts the oldest records in
// the same transaction, so a cap of five holds even under concurrent logins.
func (s *SessionIssuer) Login(ctx context.Context, identifier, password string) (*TokenPair, Identity, error) {
	identity, err := s.provider.VerifyIdentity(ctx, identifier, password)
	if err != nil {
		loginsTotal.WithLabelValues(metricResultFailure).Inc()
		return nil, nil, err
	}

	pair, record, err := s.mintPair(identity)
	if err != nil {
		loginsTotal.WithLabelValues(metricResultFailure).Inc()
		return nil, nil, err
	}

	err = s.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := s.repo.Sessions().InsertTx(ctx, tx, record); err != nil {
			return err
		}
		evicted, err := s.repo.Sessions().EvictOverCapTx(ctx, tx, record.AccountID, s.cap)
		if err != nil {
			return err
		}
		if evicted > 0 {
			sessionEvictionsTotal.Add(float64(evicted))
			s.logger.Debug("evicted %d session(s) for account %s", evicted, record.AccountID)
		}
		return nil
	})
	if err != nil {
		loginsTotal.WithLabelValues(metricResultFailure).Inc()
		return nil, nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to persist session")
	}

	loginsTotal.WithLabelValues(metricResultSuccess).Inc()
	return pair, identity, nil
}

// Refresh validates the presented refresh token and rotates it for a fresh
// pair. Rotation is delete-then-insert inside one transaction; of two
// concurrent refreshes with the same token exactly one wins, the loser sees
// zero rows deleted and gets ErrSessionNotFound.
func (s *SessionIssuer) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	claims, err := s.tokens.Validate(refreshToken, TokenKindRefresh)
	if err != nil {
		if IsTokenExpiredError(err) {
			// the record is dead weight once the token lapsed
			if _, delErr := s.repo.Sessions().DeleteByTokenHash(ctx, HashToken(refreshToken)); delErr != nil {
				s.logger.Warn("failed to purge expired session record: %v", delErr)
			}
		}
		refreshesTotal.WithLabelValues(metricResultFailure).Inc()
		return nil, err
	}

	accountID, err := uuid.Parse(claims.AccountID())
	if err != nil {
		refreshesTotal.WithLabelValues(metricResultFailure).Inc()
		return nil, ErrTokenMalformed
	}

	// the new pair is minted from the claims, not a fresh account lookup,
	// so a session outlives changes to the account row
	identity := accountIdentity{
		id:   claims.AccountID(),
		role: claims.Role(),
	}

	pair, record, err := s.mintPair(identity)
	if err != nil {
		refreshesTotal.WithLabelValues(metricResultFailure).Inc()
		return nil, err
	}

	err = s.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		deleted, err := s.repo.Sessions().DeleteByTokenHashTx(ctx, tx, HashToken(refreshToken))
		if err != nil {
			return err
		}
		if deleted == 0 {
			return ErrSessionNotFound
		}

		if err := s.repo.Sessions().InsertTx(ctx, tx, record); err != nil {
			return err
		}

		evicted, err := s.repo.Sessions().EvictOverCapTx(ctx, tx, accountID, s.cap)
		if err != nil {
			return err
		}
		if evicted > 0 {
			sessionEvictionsTotal.Add(float64(evicted))
		}
		return nil
	})
	if err != nil {
		refreshesTotal.WithLabelValues(metricResultFailure).Inc()
		if IsSessionNotFoundError(err) {
			return nil, ErrSessionNotFound
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to rotate session")
	}

	refreshesTotal.WithLabelValues(metricResultSuccess).Inc()
	return pair, nil
}

// Logout revokes the session record behind the refresh token. Best effort
// and idempotent: an absent, expired, or garbled token still logs out, the
// client's cookies are cleared either way.
func (s *SessionIssuer) Logout(ctx context.Context, accessToken, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}

	if _, err := s.repo.Sessions().DeleteByTokenHash(ctx, HashToken(refreshToken)); err != nil {
		s.logger.Warn("logout could not revoke session record: %v", err)
	}

	return nil
}

func (s *SessionIssuer) mintPair(identity Identity) (*TokenPair, *SessionRecord, error) {
	access, accessExp, err := s.tokens.MintToken(identity, TokenKindAccess)
	if err != nil {
		return nil, nil, err
	}

	refresh, refreshExp, err := s.tokens.MintToken(identity, TokenKindRefresh)
	if err != nil {
		return nil, nil, err
	}

	accountID, err := uuid.Parse(identity.ID())
	if err != nil {
		return nil, nil, goerrors.Wrap(err, goerrors.CategoryInternal, "identity id is not a uuid")
	}

	pair := &TokenPair{
		AccessToken:      access,
		AccessExpiresAt:  accessExp,
		RefreshToken:     refresh,
		RefreshExpiresAt: refreshExp,
	}

	record := &SessionRecord{
		AccountID: accountID,
		TokenHash: HashToken(refresh),
		CreatedAt: time.Now(),
	}

	return pair, record, nil
}
