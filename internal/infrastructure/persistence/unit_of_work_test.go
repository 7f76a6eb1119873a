package persistence

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrops-br/product-catalog-api/internal/domain"
	"github.com/mrops-br/product-catalog-api/internal/domain/specification"
)

func countProducts(t *testing.T, uow domain.UnitOfWork) int {
	t.Helper()
	n, err := uow.Products().Count(t.Context(), specification.New[*domain.Product]())
	require.NoError(t, err)
	return n
}

func TestUnitOfWorkFactory_RequiresDatabase(t *testing.T) {
	_, err := NewUnitOfWorkFactory(nil, DialectSQLite)
	assert.ErrorIs(t, err, domain.ErrNilDatabase)

	_, err = NewUnitOfWork(nil, DialectSQLite)
	assert.ErrorIs(t, err, domain.ErrNilDatabase)
}

func TestUnitOfWorkFactory_IndependentScopes(t *testing.T) {
	db := newTestDB(t)
	factory, err := NewUnitOfWorkFactory(db, DialectSQLite, WithClock(fixedClock))
	require.NoError(t, err)

	first, err := factory.New(t.Context())
	require.NoError(t, err)
	defer first.Close()
	second, err := factory.New(t.Context())
	require.NoError(t, err)
	defer second.Close()

	require.NoError(t, first.BeginTransaction(t.Context()))
	assert.NoError(t, second.RollbackTransaction(t.Context()))
	require.NoError(t, first.RollbackTransaction(t.Context()))
}

func TestUnitOfWork_CommitTransaction(t *testing.T) {
	db := newTestDB(t)
	uow := newTestUnitOfWork(t, db)

	require.NoError(t, uow.BeginTransaction(t.Context()))
	_, err := uow.Products().Add(newProduct("Binder", "5.00", 3))
	require.NoError(t, err)
	require.NoError(t, uow.CommitTransaction(t.Context()))

	assert.Equal(t, 1, countProducts(t, newTestUnitOfWork(t, db)))

	// The handle is released, so a new transaction can start.
	require.NoError(t, uow.BeginTransaction(t.Context()))
	require.NoError(t, uow.RollbackTransaction(t.Context()))
}

func TestUnitOfWork_SaveInsideTransactionThenRollback(t *testing.T) {
	db := newTestDB(t)
	uow := newTestUnitOfWork(t, db)

	require.NoError(t, uow.BeginTransaction(t.Context()))
	_, err := uow.Products().Add(newProduct("Binder", "5.00", 3))
	require.NoError(t, err)

	n, err := uow.SaveChanges(t.Context())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 1, countProducts(t, uow))

	require.NoError(t, uow.RollbackTransaction(t.Context()))
	assert.Equal(t, 0, countProducts(t, uow))
}

func TestUnitOfWork_BeginTwice(t *testing.T) {
	db := newTestDB(t)
	uow := newTestUnitOfWork(t, db)

	require.NoError(t, uow.BeginTransaction(t.Context()))
	assert.ErrorIs(t, uow.BeginTransaction(t.Context()), domain.ErrTransactionActive)
	require.NoError(t, uow.RollbackTransaction(t.Context()))
}

func TestUnitOfWork_CommitWithoutTransaction(t *testing.T) {
	uow := newTestUnitOfWork(t, newTestDB(t))

	assert.ErrorIs(t, uow.CommitTransaction(t.Context()), domain.ErrNoActiveTransaction)
}

func TestUnitOfWork_RollbackWithoutTransactionIsNoop(t *testing.T) {
	uow := newTestUnitOfWork(t, newTestDB(t))

	assert.NoError(t, uow.RollbackTransaction(t.Context()))
}

func TestUnitOfWork_FailedCommitReleasesHandle(t *testing.T) {
	db := newTestDB(t)
	uow := newTestUnitOfWork(t, db)

	require.NoError(t, uow.BeginTransaction(t.Context()))
	_, err := uow.Products().Add(newProduct("Kept", "1", 1))
	require.NoError(t, err)
	_, err = uow.Products().Update(newProduct("Missing", "1", 1))
	require.NoError(t, err)

	assert.ErrorIs(t, uow.CommitTransaction(t.Context()), domain.ErrEntityNotFound)
	assert.Equal(t, 0, countProducts(t, uow))

	require.NoError(t, uow.BeginTransaction(t.Context()))
	require.NoError(t, uow.RollbackTransaction(t.Context()))
}

func TestUnitOfWork_ExecuteTransactionCommits(t *testing.T) {
	db := newTestDB(t)
	uow := newTestUnitOfWork(t, db)

	err := uow.ExecuteTransaction(t.Context(), func(ctx context.Context) error {
		_, err := uow.Products().Add(newProduct("Lamp", "25.00", 2))
		return err
	})
	require.NoError(t, err)

	assert.Equal(t, 1, countProducts(t, newTestUnitOfWork(t, db)))
}

func TestUnitOfWork_ExecuteTransactionRollsBackOnError(t *testing.T) {
	db := newTestDB(t)
	uow := newTestUnitOfWork(t, db)
	boom := errors.New("boom")

	err := uow.ExecuteTransaction(t.Context(), func(ctx context.Context) error {
		if _, err := uow.Products().Add(newProduct("Lamp", "25.00", 2)); err != nil {
			return err
		}
		if _, err := uow.SaveChanges(ctx); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	assert.Equal(t, 0, countProducts(t, newTestUnitOfWork(t, db)))
}

func TestUnitOfWork_RollbackDetachesTrackedEntities(t *testing.T) {
	db := newTestDB(t)
	product := newProduct("Lamp", "25.00", 2)
	seedProducts(t, db, product)

	uow := newTestUnitOfWork(t, db)
	live := byID(product.GetID()).Where(specification.Eq(domain.ProductFieldIsDeleted, false))
	boom := errors.New("boom")

	err := uow.ExecuteTransaction(t.Context(), func(ctx context.Context) error {
		found, err := uow.Products().FirstOrDefault(ctx, live)
		if err != nil {
			return err
		}
		tracked := found.MustGet()
		if err := tracked.SoftDelete(); err != nil {
			return err
		}
		tracked.Name = "Renamed"
		if _, err := uow.Products().Update(tracked); err != nil {
			return err
		}
		if _, err := uow.SaveChanges(ctx); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	found, err := uow.Products().FirstOrDefault(t.Context(), live)
	require.NoError(t, err)
	reread := found.MustGet()
	assert.Equal(t, "Lamp", reread.Name)
	assert.False(t, reread.IsDeleted())
}

func TestUnitOfWork_FailedCommitDetachesTrackedEntities(t *testing.T) {
	db := newTestDB(t)
	product := newProduct("Desk", "80.00", 1)
	seedProducts(t, db, product)

	uow := newTestUnitOfWork(t, db)
	require.NoError(t, uow.BeginTransaction(t.Context()))

	found, err := uow.Products().FirstOrDefault(t.Context(), byID(product.GetID()))
	require.NoError(t, err)
	tracked := found.MustGet()
	tracked.Stock = 40
	_, err = uow.Products().Update(tracked)
	require.NoError(t, err)
	_, err = uow.Products().Update(newProduct("Missing", "1", 1))
	require.NoError(t, err)

	require.ErrorIs(t, uow.CommitTransaction(t.Context()), domain.ErrEntityNotFound)

	found, err = uow.Products().FirstOrDefault(t.Context(), byID(product.GetID()))
	require.NoError(t, err)
	assert.NotSame(t, tracked, found.MustGet())
	assert.Equal(t, 1, found.MustGet().Stock)
}

func TestUnitOfWork_ExecuteTransactionRollsBackOnPanic(t *testing.T) {
	db := newTestDB(t)
	uow := newTestUnitOfWork(t, db)

	assert.PanicsWithValue(t, "kaboom", func() {
		_ = uow.ExecuteTransaction(t.Context(), func(ctx context.Context) error {
			_, _ = uow.Products().Add(newProduct("Lamp", "25.00", 2))
			_, _ = uow.SaveChanges(ctx)
			panic("kaboom")
		})
	})

	assert.Equal(t, 0, countProducts(t, newTestUnitOfWork(t, db)))

	require.NoError(t, uow.BeginTransaction(t.Context()))
	require.NoError(t, uow.RollbackTransaction(t.Context()))
}

func TestExecuteTransactionResult(t *testing.T) {
	db := newTestDB(t)
	uow := newTestUnitOfWork(t, db)

	id, err := domain.ExecuteTransactionResult(t.Context(), uow, func(ctx context.Context) (string, error) {
		p, err := uow.Products().Add(newProduct("Chair", "80.00", 1))
		if err != nil {
			return "", err
		}
		return p.GetID().String(), nil
	})
	require.NoError(t, err)
	assert.NotEmpty(t, id)
	assert.Equal(t, 1, countProducts(t, newTestUnitOfWork(t, db)))

	boom := errors.New("boom")
	value, err := domain.ExecuteTransactionResult(t.Context(), uow, func(ctx context.Context) (int, error) {
		return 42, boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Zero(t, value)
}

func TestRepository_TransactionHelpers(t *testing.T) {
	db := newTestDB(t)
	repo := newTestUnitOfWork(t, db).Products()

	require.NoError(t, repo.BeginTransaction(t.Context()))
	_, err := repo.Add(newProduct("Desk", "150.00", 1))
	require.NoError(t, err)
	require.NoError(t, repo.CommitTransaction(t.Context()))

	err = repo.ExecuteTransaction(t.Context(), func(ctx context.Context) error {
		_, err := repo.Add(newProduct("Shelf", "60.00", 1))
		return err
	})
	require.NoError(t, err)

	n, err := repo.Count(t.Context(), specification.New[*domain.Product]())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestUnitOfWork_Close(t *testing.T) {
	db := newTestDB(t)
	uow := newTestUnitOfWork(t, db)

	require.NoError(t, uow.BeginTransaction(t.Context()))
	_, err := uow.Products().Add(newProduct("Discarded", "1", 1))
	require.NoError(t, err)

	require.NoError(t, uow.Close())
	require.NoError(t, uow.Close())

	assert.ErrorIs(t, uow.BeginTransaction(t.Context()), domain.ErrSessionClosed)
	_, err = uow.SaveChanges(t.Context())
	assert.ErrorIs(t, err, domain.ErrSessionClosed)
	_, err = uow.Products().List(t.Context(), specification.New[*domain.Product]())
	assert.ErrorIs(t, err, domain.ErrSessionClosed)
	_, err = uow.Products().Count(t.Context(), specification.New[*domain.Product]())
	assert.ErrorIs(t, err, domain.ErrSessionClosed)
	_, err = uow.Products().Any(t.Context(), specification.New[*domain.Product]())
	assert.ErrorIs(t, err, domain.ErrSessionClosed)

	assert.Equal(t, 0, countProducts(t, newTestUnitOfWork(t, db)))
}
