package auth

import (
	"context"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// SessionCap is the number of live session records an account may hold.
// Inserting past the cap evicts the oldest excess, by insertion time.
var SessionCap = 5

// Sessions persists one record per live refresh token. Reads never reorder
// records; eviction order is insertion order, not last use.
type Sessions interface {
	Insert(ctx context.Context, record *SessionRecord) error
	InsertTx(ctx context.Context, tx bun.IDB, record *SessionRecord) error
	EvictOverCapTx(ctx context.Context, tx bun.IDB, accountID uuid.UUID, cap int) (int64, error)
	DeleteByTokenHash(ctx context.Context, tokenHash string) (int64, error)
	DeleteByTokenHashTx(ctx context.Context, tx bun.IDB, tokenHash string) (int64, error)
	ExistsByTokenHash(ctx context.Context, tokenHash string) (bool, error)
	ListByAccount(ctx context.Context, accountID uuid.UUID) ([]*SessionRecord, error)
	CountByAccount(ctx context.Context, accountID uuid.UUID) (int, error)
}

type sessions struct {
	db *bun.DB
}

var _ Sessions = (*sessions)(nil)

func NewSessionsRepository(db *bun.DB) Sessions {
	return &sessions{db: db}
}

func (s *sessions) Insert(ctx context.Context, record *SessionRecord) error {
	return s.InsertTx(ctx, s.db, record)
}

func (s *sessions) InsertTx(ctx context.Context, tx bun.IDB, record *SessionRecord) error {
	_, err := tx.NewInsert().
		Model(record).
		Exec(ctx)

	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "session insert failed")
	}

	return nil
}

// EvictOverCapTx deletes every record for the account except the cap most
// recent ones. Ties on created_at fall back to the autoincrement id, so the
// order is strict insertion order.
func (s *sessions) EvictOverCapTx(ctx context.Context, tx bun.IDB, accountID uuid.UUID, cap int) (int64, error) {
	keep := tx.NewSelect().
		Model((*SessionRecord)(nil)).
		Column("id").
		Where("account_id = ?", accountID).
		OrderExpr("created_at DESC, id DESC").
		Limit(cap)

	res, err := tx.NewDelete().
		Model((*SessionRecord)(nil)).
		Where("account_id = ?", accountID).
		Where("id NOT IN (?)", keep).
		Exec(ctx)

	if err != nil {
		return 0, goerrors.Wrap(err, goerrors.CategoryInternal, "session eviction failed")
	}

	evicted, err := res.RowsAffected()
	if err != nil {
		return 0, goerrors.Wrap(err, goerrors.CategoryInternal, "session eviction failed")
	}

	return evicted, nil
}

// DeleteByTokenHash revokes the matching record. Deleting an absent record
// is not an error; callers inspect the affected count when they need
// exactly-once semantics.
func (s *sessions) DeleteByTokenHash(ctx context.Context, tokenHash string) (int64, error) {
	return s.DeleteByTokenHashTx(ctx, s.db, tokenHash)
}

func (s *sessions) DeleteByTokenHashTx(ctx context.Context, tx bun.IDB, tokenHash string) (int64, error) {
	res, err := tx.NewDelete().
		Model((*SessionRecord)(nil)).
		Where("token_hash = ?", tokenHash).
		Exec(ctx)

	if err != nil {
		return 0, goerrors.Wrap(err, goerrors.CategoryInternal, "session delete failed")
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return 0, goerrors.Wrap(err, goerrors.CategoryInternal, "session delete failed")
	}

	return affected, nil
}

func (s *sessions) ExistsByTokenHash(ctx context.Context, tokenHash string) (bool, error) {
	count, err := s.db.NewSelect().
		Model((*SessionRecord)(nil)).
		Where("token_hash = ?", tokenHash).
		Count(ctx)

	if err != nil {
		return false, goerrors.Wrap(err, goerrors.CategoryInternal, "session lookup failed")
	}

	return count > 0, nil
}

func (s *sessions) ListByAccount(ctx context.Context, accountID uuid.UUID) ([]*SessionRecord, error) {
	var records []*SessionRecord
	err := s.db.NewSelect().
		Model(&records).
		Where("account_id = ?", accountID).
		OrderExpr("created_at ASC, id ASC").
		Scan(ctx)

	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "session list failed")
	}

	return records, nil
}

func (s *sessions) CountByAccount(ctx context.Context, accountID uuid.UUID) (int, error) {
	count, err := s.db.NewSelect().
		Model((*SessionRecord)(nil)).
		Where("account_id = ?", accountID).
		Count(ctx)

	if err != nil {
		return 0, goerrors.Wrap(err, goerrors.CategoryInternal, "session count failed")
	}

	return count, nil
}
