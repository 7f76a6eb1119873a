package domain

import (
	"context"
	"errors"

	"github.com/samber/lo"
	"github.com/samber/mo"

	"github.com/mrops-br/product-catalog-api/internal/domain/specification"
)

var (
	ErrProductNotFound           = errors.New("product not found")
	ErrEntityNotFound            = errors.New("entity not found")
	ErrEntityNotIdentifiable     = errors.New("entity has no identifier")
	ErrEntityExists              = errors.New("entity already exists")
	ErrTransactionActive         = errors.New("a transaction is already active")
	ErrNoActiveTransaction       = errors.New("no active transaction")
	ErrSessionClosed             = errors.New("persistence session is closed")
	ErrUnknownInclude            = errors.New("unknown include path")
	ErrNilDatabase               = errors.New("database is required")
	ErrUnsupportedDatabaseDriver = errors.New("unsupported database driver")
)

// Transactional is the transaction control shared by repositories and the unit of work.
type Transactional interface {
	// BeginTransaction starts a transaction. Only one may be active at a time.
	BeginTransaction(ctx context.Context) error
	// CommitTransaction flushes staged changes and commits. The transaction
	// handle is released whatever the outcome.
	CommitTransaction(ctx context.Context) error
	// RollbackTransaction rolls back the active transaction, if any, and
	// releases its handle.
	RollbackTransaction(ctx context.Context) error
	// ExecuteTransaction runs fn inside a transaction, committing when fn
	// succeeds and rolling back when it fails or panics.
	ExecuteTransaction(ctx context.Context, fn func(ctx context.Context) error) error
	// SaveChanges flushes staged changes and returns the affected row count.
	SaveChanges(ctx context.Context) (int, error)
}

// Repository is the generic specification-driven store of one entity type.
type Repository[T Entity] interface {
	Transactional

	Add(entity T) (T, error)
	AddRange(entities []T) error
	Update(entity T) (T, error)
	UpdateRange(entities []T) error
	Delete(entity T) (T, error)
	DeleteRange(entities []T) error

	List(ctx context.Context, spec specification.Specification[T]) ([]T, error)
	FirstOrDefault(ctx context.Context, spec specification.Specification[T]) (mo.Option[T], error)
	Count(ctx context.Context, spec specification.Specification[T]) (int, error)
	Any(ctx context.Context, spec specification.Specification[T]) (bool, error)
	ListWithTotalCount(ctx context.Context, spec specification.Specification[T]) ([]T, int, error)
}

// ProductRepository defines the contract for product storage
type ProductRepository interface {
	Repository[*Product]
}

// UnitOfWork groups the repositories of one persistence scope behind a single transaction.
type UnitOfWork interface {
	Transactional

	Products() ProductRepository

	// Close releases the transaction handle and discards staged changes.
	// It is safe to call more than once.
	Close() error
}

// UnitOfWorkFactory opens a unit of work per logical operation.
type UnitOfWorkFactory interface {
	New(ctx context.Context) (UnitOfWork, error)
}

// ExecuteTransactionResult is the value-returning form of Transactional.ExecuteTransaction.
func ExecuteTransactionResult[R any](ctx context.Context, tx Transactional, fn func(ctx context.Context) (R, error)) (R, error) {
	var result R
	err := tx.ExecuteTransaction(ctx, func(ctx context.Context) error {
		var err error
		result, err = fn(ctx)
		return err
	})
	if err != nil {
		var zero R
		return zero, err
	}
	return result, nil
}

// ListProjected materializes every match of spec and projects it.
func ListProjected[T Entity, R any](ctx context.Context, repo Repository[T], spec specification.Specification[T], project func(T) R) ([]R, error) {
	items, err := repo.List(ctx, spec)
	if err != nil {
		return nil, err
	}
	return lo.Map(items, func(item T, _ int) R { return project(item) }), nil
}

// ListWithTotalCountProjected returns the projected page and the unpaged total.
func ListWithTotalCountProjected[T Entity, R any](ctx context.Context, repo Repository[T], spec specification.Specification[T], project func(T) R) ([]R, int, error) {
	items, total, err := repo.ListWithTotalCount(ctx, spec)
	if err != nil {
		return nil, 0, err
	}
	return lo.Map(items, func(item T, _ int) R { return project(item) }), total, nil
}
