package persistence

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"github.com/samber/mo"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/mrops-br/product-catalog-api/internal/domain"
	"github.com/mrops-br/product-catalog-api/internal/domain/specification"
)

// Repository is the generic specification-driven store of one entity type.
// Writes are staged on the session and reach the database on the next
// SaveChanges or CommitTransaction.
type Repository[T domain.Entity] struct {
	session *Session
	table   Table[T]
	tracked map[uuid.UUID]T
}

// NewRepository binds table to session.
func NewRepository[T domain.Entity](session *Session, table Table[T]) (*Repository[T], error) {
	if session == nil {
		return nil, domain.ErrNilDatabase
	}
	r := &Repository[T]{
		session: session,
		table:   table,
		tracked: make(map[uuid.UUID]T),
	}
	session.onDiscard(func() { clear(r.tracked) })
	return r, nil
}

// Add stages an insert. The identifier must already be assigned.
func (r *Repository[T]) Add(entity T) (T, error) {
	if err := r.stage(changeInsert, entity); err != nil {
		var zero T
		return zero, err
	}
	return entity, nil
}

// AddRange stages an insert per entity. Nothing is staged when any entity is unidentifiable.
func (r *Repository[T]) AddRange(entities []T) error {
	return r.stageRange(changeInsert, entities)
}

// Update stages a full-row update of entity.
func (r *Repository[T]) Update(entity T) (T, error) {
	if err := r.stage(changeUpdate, entity); err != nil {
		var zero T
		return zero, err
	}
	return entity, nil
}

func (r *Repository[T]) UpdateRange(entities []T) error {
	return r.stageRange(changeUpdate, entities)
}

// Delete stages the physical removal of entity.
func (r *Repository[T]) Delete(entity T) (T, error) {
	if err := r.stage(changeDelete, entity); err != nil {
		var zero T
		return zero, err
	}
	return entity, nil
}

func (r *Repository[T]) DeleteRange(entities []T) error {
	return r.stageRange(changeDelete, entities)
}

func (r *Repository[T]) stageRange(kind changeKind, entities []T) error {
	if err := r.session.ensureOpen(); err != nil {
		return err
	}
	if _, found := lo.Find(entities, func(e T) bool { return identify(e) != nil }); found {
		return domain.ErrEntityNotIdentifiable
	}
	for _, e := range entities {
		if err := r.stage(kind, e); err != nil {
			return err
		}
	}
	return nil
}

func (r *Repository[T]) stage(kind changeKind, entity T) error {
	if err := r.session.ensureOpen(); err != nil {
		return err
	}
	if err := identify(entity); err != nil {
		return err
	}

	dialect := r.session.dialect
	r.session.stage(change{
		kind:   kind,
		entity: entity,
		apply: func(ctx context.Context, q Querier) (int64, error) {
			query, args := r.table.statement(kind, entity)
			res, err := q.ExecContext(ctx, dialect.Rebind(query), args...)
			if err != nil {
				if kind == changeInsert && dialect.IsUniqueViolation(err) {
					return 0, errors.Wrapf(domain.ErrEntityExists, "%s %s", r.table.Name, entity.GetID())
				}
				return 0, errors.Wrapf(err, "%s %s", kind, r.table.Name)
			}
			n, err := res.RowsAffected()
			return n, errors.Wrap(err, "rows affected")
		},
	})

	if kind == changeDelete {
		delete(r.tracked, entity.GetID())
	} else {
		r.tracked[entity.GetID()] = entity
	}
	return nil
}

func identify[T domain.Entity](entity T) error {
	if lo.IsNil(entity) || entity.GetID() == uuid.Nil {
		return domain.ErrEntityNotIdentifiable
	}
	return nil
}

// List returns every entity matching spec.
func (r *Repository[T]) List(ctx context.Context, spec specification.Specification[T]) ([]T, error) {
	ctx, span := r.startSpan(ctx, "Repository.List")
	defer span.End()

	items, err := r.load(ctx, Evaluate(r.table.baseQuery(), spec, false))
	if err != nil {
		return nil, r.fail(ctx, span, "Failed to list entities", err)
	}

	span.SetAttributes(attribute.Int("db.rows", len(items)))
	span.SetStatus(codes.Ok, "Entities listed")
	return items, nil
}

// FirstOrDefault returns the first match, or mo.None when nothing matches.
func (r *Repository[T]) FirstOrDefault(ctx context.Context, spec specification.Specification[T]) (mo.Option[T], error) {
	ctx, span := r.startSpan(ctx, "Repository.FirstOrDefault")
	defer span.End()

	q := Evaluate(r.table.baseQuery(), spec, false)
	if take, ok := q.TakeValue(); !ok || take > 1 {
		q = q.Take(1)
	}

	items, err := r.load(ctx, q)
	if err != nil {
		return mo.None[T](), r.fail(ctx, span, "Failed to read entity", err)
	}

	span.SetAttributes(attribute.Bool("db.found", len(items) > 0))
	span.SetStatus(codes.Ok, "Entity read")
	if len(items) == 0 {
		return mo.None[T](), nil
	}
	return mo.Some(items[0]), nil
}

// Count returns the number of matches. Paging in spec is ignored.
func (r *Repository[T]) Count(ctx context.Context, spec specification.Specification[T]) (int, error) {
	if err := r.session.ensureOpen(); err != nil {
		return 0, err
	}
	ctx, span := r.startSpan(ctx, "Repository.Count")
	defer span.End()

	query, args := Evaluate(r.table.baseQuery(), spec, true).ToCount(r.session.dialect)

	var count int
	if err := r.querier().QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, r.fail(ctx, span, "Failed to count entities", errors.Wrapf(err, "count %s", r.table.Name))
	}

	span.SetAttributes(attribute.Int("db.count", count))
	span.SetStatus(codes.Ok, "Entities counted")
	return count, nil
}

// Any reports whether anything matches. Paging in spec is ignored.
func (r *Repository[T]) Any(ctx context.Context, spec specification.Specification[T]) (bool, error) {
	if err := r.session.ensureOpen(); err != nil {
		return false, err
	}
	ctx, span := r.startSpan(ctx, "Repository.Any")
	defer span.End()

	query, args := Evaluate(r.table.baseQuery(), spec, true).ToExists(r.session.dialect)

	var one int
	err := r.querier().QueryRowContext(ctx, query, args...).Scan(&one)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return false, nil
	case err != nil:
		return false, r.fail(ctx, span, "Failed to check entities", errors.Wrapf(err, "exists %s", r.table.Name))
	}

	span.SetStatus(codes.Ok, "Entities checked")
	return true, nil
}

// ListWithTotalCount returns the requested page together with the number of
// matches without paging. The two reads are independent and may observe
// different states unless a transaction is active.
func (r *Repository[T]) ListWithTotalCount(ctx context.Context, spec specification.Specification[T]) ([]T, int, error) {
	items, err := r.List(ctx, spec)
	if err != nil {
		return nil, 0, err
	}
	total, err := r.Count(ctx, spec)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (r *Repository[T]) BeginTransaction(ctx context.Context) error {
	return r.session.BeginTransaction(ctx)
}

func (r *Repository[T]) CommitTransaction(ctx context.Context) error {
	return r.session.CommitTransaction(ctx)
}

func (r *Repository[T]) RollbackTransaction(ctx context.Context) error {
	return r.session.RollbackTransaction(ctx)
}

func (r *Repository[T]) ExecuteTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.session.ExecuteTransaction(ctx, fn)
}

func (r *Repository[T]) SaveChanges(ctx context.Context) (int, error) {
	return r.session.SaveChanges(ctx)
}

func (r *Repository[T]) querier() Querier {
	return r.session.querier()
}

// load runs q and its includes. Without split-query, and outside an explicit
// transaction, the root query and every include share one read transaction.
func (r *Repository[T]) load(ctx context.Context, q Query[T]) ([]T, error) {
	if err := r.session.ensureOpen(); err != nil {
		return nil, err
	}
	loaders, err := r.table.relations(q.Includes())
	if err != nil {
		return nil, err
	}

	if len(loaders) == 0 || q.IsSplitQuery() || r.session.inTransaction() {
		return r.fetch(ctx, r.querier(), q, loaders)
	}

	var items []T
	err = r.session.readSnapshot(ctx, func(tx Querier) error {
		var err error
		items, err = r.fetch(ctx, tx, q, loaders)
		return err
	})
	return items, err
}

func (r *Repository[T]) fetch(ctx context.Context, qr Querier, q Query[T], loaders []RelationLoader[T]) ([]T, error) {
	query, args := q.ToSelect(r.session.dialect)

	rows, err := qr.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrapf(err, "query %s", r.table.Name)
	}
	defer rows.Close()

	items := make([]T, 0)
	for rows.Next() {
		item, err := r.table.Scan(rows)
		if err != nil {
			return nil, errors.Wrapf(err, "scan %s", r.table.Name)
		}
		if !q.IsNoTracking() {
			item = r.track(item)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrapf(err, "iterate %s", r.table.Name)
	}
	// Single-connection drivers need the cursor closed before the next statement.
	_ = rows.Close()

	for _, loadRelation := range loaders {
		if err := loadRelation(ctx, qr, r.session.dialect, items); err != nil {
			return nil, errors.Wrapf(err, "include on %s", r.table.Name)
		}
	}
	return items, nil
}

// track returns the instance already tracked under the same identifier, or
// starts tracking item.
func (r *Repository[T]) track(item T) T {
	if existing, ok := r.tracked[item.GetID()]; ok {
		return existing
	}
	r.tracked[item.GetID()] = item
	return item
}

func (r *Repository[T]) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return r.session.tracer.Start(ctx, name, trace.WithAttributes(
		attribute.String("db.system", string(r.session.dialect)),
		attribute.String("db.sql.table", r.table.Name),
	))
}

func (r *Repository[T]) fail(ctx context.Context, span trace.Span, msg string, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, msg)
	r.session.logger.ErrorContext(ctx, msg,
		slog.String("table", r.table.Name),
		slog.String("error", err.Error()),
	)
	return err
}
