package persistence

import (
	"context"
	"database/sql"

	"github.com/mrops-br/product-catalog-api/internal/domain"
)

// UnitOfWork is one persistence scope: a session and the repositories bound to it.
type UnitOfWork struct {
	session  *Session
	products *Repository[*domain.Product]
}

// NewUnitOfWork opens a scope over db.
func NewUnitOfWork(db *sql.DB, dialect Dialect, opts ...SessionOption) (*UnitOfWork, error) {
	session, err := NewSession(db, dialect, opts...)
	if err != nil {
		return nil, err
	}
	products, err := NewRepository(session, ProductTable())
	if err != nil {
		return nil, err
	}
	return &UnitOfWork{session: session, products: products}, nil
}

// Products returns the product repository of this scope.
func (u *UnitOfWork) Products() domain.ProductRepository {
	return u.products
}

func (u *UnitOfWork) BeginTransaction(ctx context.Context) error {
	return u.session.BeginTransaction(ctx)
}

func (u *UnitOfWork) CommitTransaction(ctx context.Context) error {
	return u.session.CommitTransaction(ctx)
}

func (u *UnitOfWork) RollbackTransaction(ctx context.Context) error {
	return u.session.RollbackTransaction(ctx)
}

func (u *UnitOfWork) ExecuteTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return u.session.ExecuteTransaction(ctx, fn)
}

func (u *UnitOfWork) SaveChanges(ctx context.Context) (int, error) {
	return u.session.SaveChanges(ctx)
}

// Close ends the scope. It is safe to call more than once.
func (u *UnitOfWork) Close() error {
	return u.session.Close()
}

// UnitOfWorkFactory opens a unit of work per logical operation over a shared pool.
type UnitOfWorkFactory struct {
	db      *sql.DB
	dialect Dialect
	opts    []SessionOption
}

// NewUnitOfWorkFactory creates a factory. The database handle is required.
func NewUnitOfWorkFactory(db *sql.DB, dialect Dialect, opts ...SessionOption) (*UnitOfWorkFactory, error) {
	if db == nil {
		return nil, domain.ErrNilDatabase
	}
	return &UnitOfWorkFactory{db: db, dialect: dialect, opts: opts}, nil
}

// New opens a unit of work. Callers close it when the operation ends.
func (f *UnitOfWorkFactory) New(ctx context.Context) (domain.UnitOfWork, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return NewUnitOfWork(f.db, f.dialect, f.opts...)
}
