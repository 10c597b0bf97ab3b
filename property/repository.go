package property

import (
	"context"
	"strings"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Properties is the listing store.
type Properties interface {
	Create(ctx context.Context, record *Property) (*Property, error)
	List(ctx context.Context) ([]*Property, error)
	GetByPropertyID(ctx context.Context, id uuid.UUID) (*Property, error)
	Patch(ctx context.Context, record *Property) (*Property, error)
	DeleteByID(ctx context.Context, id uuid.UUID) error
	DeleteAll(ctx context.Context) (int64, error)
}

type properties struct {
	repository.Repository[*Property]
	db *bun.DB
}

var _ Properties = (*properties)(nil)

func NewRepository(db *bun.DB) Properties {
	repo := repository.NewRepository[*Property](db, repository.ModelHandlers[*Property]{
		NewRecord: func() *Property { return &Property{} },
		GetID: func(p *Property) uuid.UUID {
			if p == nil {
				return uuid.Nil
			}
			return p.ID
		},
		SetID: func(p *Property, id uuid.UUID) {
			if p != nil {
				p.ID = id
			}
		},
		GetIdentifier: func() string {
			return "id"
		},
	})

	return &properties{
		Repository: repo,
		db:         db,
	}
}

func (p *properties) Create(ctx context.Context, record *Property) (*Property, error) {
	prepareDefaults(record)

	created, err := p.Repository.CreateTx(ctx, p.db, record)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "could not create property")
	}

	return created, nil
}

func (p *properties) List(ctx context.Context) ([]*Property, error) {
	var records []*Property
	err := p.db.NewSelect().
		Model(&records).
		OrderExpr("created_at DESC").
		Scan(ctx)

	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "property list failed")
	}

	return records, nil
}

func (p *properties) GetByPropertyID(ctx context.Context, id uuid.UUID) (*Property, error) {
	record := &Property{}
	err := p.db.NewSelect().
		Model(record).
		Where("?TableAlias.id = ?", id).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if isNoRows(err) {
			return nil, ErrPropertyNotFound
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "property lookup failed")
	}

	return record, nil
}

// Patch persists an already-merged record. The controller owns the merge so
// absent fields in a request never clobber stored values.
func (p *properties) Patch(ctx context.Context, record *Property) (*Property, error) {
	updated, err := p.Repository.UpdateTx(ctx, p.db, record)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, ErrPropertyNotFound
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "property update failed")
	}

	return updated, nil
}

func (p *properties) DeleteByID(ctx context.Context, id uuid.UUID) error {
	res, err := p.db.NewDelete().
		Model((*Property)(nil)).
		Where("id = ?", id).
		Exec(ctx)

	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "property delete failed")
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "property delete failed")
	}

	if affected == 0 {
		return ErrPropertyNotFound
	}

	return nil
}

// DeleteAll wipes every listing. Admin only, guarded at the route.
func (p *properties) DeleteAll(ctx context.Context) (int64, error) {
	res, err := p.db.NewDelete().
		Model((*Property)(nil)).
		Where("1 = 1").
		Exec(ctx)

	if err != nil {
		return 0, goerrors.Wrap(err, goerrors.CategoryInternal, "property delete failed")
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return 0, goerrors.Wrap(err, goerrors.CategoryInternal, "property delete failed")
	}

	return affected, nil
}

func prepareDefaults(record *Property) {
	if record == nil {
		return
	}

	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}

	if record.Images == nil {
		record.Images = []string{}
	}

	if record.Documents == nil {
		record.Documents = []string{}
	}
}

func isNoRows(err error) bool {
	if err == nil {
		return false
	}
	return repository.IsRecordNotFound(err) ||
		strings.Contains(err.Error(), "no rows in result set")
}
