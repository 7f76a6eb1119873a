package persistence

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/mrops-br/product-catalog-api/internal/domain"
)

type changeKind int

const (
	changeInsert changeKind = iota + 1
	changeUpdate
	changeDelete
)

func (k changeKind) String() string {
	switch k {
	case changeInsert:
		return "insert"
	case changeUpdate:
		return "update"
	default:
		return "delete"
	}
}

// change is one staged write waiting for the next flush.
type change struct {
	kind   changeKind
	entity domain.Entity
	apply  func(ctx context.Context, q Querier) (int64, error)
}

// Session is the store context shared by every repository of a unit of work.
// It holds the staged changes and at most one open transaction. A session
// belongs to a single logical operation and must not be used concurrently.
type Session struct {
	db      *sql.DB
	dialect Dialect
	clock   func() time.Time
	tracer  trace.Tracer
	logger  *slog.Logger

	tx      *sql.Tx
	pending []change
	closed  bool

	// resets clear the repositories' identity maps when in-memory state can
	// no longer be trusted to match the database.
	resets []func()
}

// SessionOption customizes a session.
type SessionOption func(*Session)

// WithClock sets the time source used for audit stamps.
func WithClock(clock func() time.Time) SessionOption {
	return func(s *Session) { s.clock = clock }
}

func WithTracer(tracer trace.Tracer) SessionOption {
	return func(s *Session) { s.tracer = tracer }
}

func WithLogger(logger *slog.Logger) SessionOption {
	return func(s *Session) { s.logger = logger }
}

// NewSession creates a session over a pooled database handle.
func NewSession(db *sql.DB, dialect Dialect, opts ...SessionOption) (*Session, error) {
	if db == nil {
		return nil, domain.ErrNilDatabase
	}
	s := &Session{
		db:      db,
		dialect: dialect,
		clock:   time.Now,
		tracer:  noop.NewTracerProvider().Tracer(""),
		logger:  slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Dialect returns the SQL dialect of the session's database.
func (s *Session) Dialect() Dialect { return s.dialect }

func (s *Session) ensureOpen() error {
	if s.closed {
		return domain.ErrSessionClosed
	}
	return nil
}

// querier returns the active transaction or the pool.
func (s *Session) querier() Querier {
	if s.tx != nil {
		return s.tx
	}
	return s.db
}

func (s *Session) inTransaction() bool { return s.tx != nil }

func (s *Session) stage(c change) {
	s.pending = append(s.pending, c)
}

// onDiscard registers fn to run whenever staged or saved work is thrown away.
func (s *Session) onDiscard(fn func()) {
	s.resets = append(s.resets, fn)
}

// discard drops staged changes and every tracked instance. Entities changed in
// memory before a rollback must be reread, not served from the identity map.
func (s *Session) discard() {
	s.pending = nil
	for _, reset := range s.resets {
		reset()
	}
}

// BeginTransaction opens a transaction. Reads and flushes use it until it is
// committed or rolled back.
func (s *Session) BeginTransaction(ctx context.Context) error {
	if err := s.ensureOpen(); err != nil {
		return err
	}
	if s.tx != nil {
		return domain.ErrTransactionActive
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin transaction")
	}
	s.tx = tx

	s.logger.DebugContext(ctx, "Transaction started")
	return nil
}

// CommitTransaction flushes staged changes into the active transaction and
// commits it. The handle is released on every path; a failed flush or commit
// leaves the transaction rolled back and the staged changes discarded.
func (s *Session) CommitTransaction(ctx context.Context) (err error) {
	if err := s.ensureOpen(); err != nil {
		return err
	}
	if s.tx == nil {
		return domain.ErrNoActiveTransaction
	}

	ctx, span := s.tracer.Start(ctx, "Session.CommitTransaction")
	defer span.End()
	defer func() {
		if err != nil {
			s.discard()
		}
		s.release()
	}()

	if _, err := s.flushPending(ctx, s.tx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to flush changes")
		return err
	}

	if err := s.tx.Commit(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to commit transaction")
		s.logger.ErrorContext(ctx, "Failed to commit transaction",
			slog.String("error", err.Error()),
		)
		return errors.Wrap(err, "commit transaction")
	}

	s.logger.DebugContext(ctx, "Transaction committed")
	span.SetStatus(codes.Ok, "Transaction committed")
	return nil
}

// RollbackTransaction rolls back the active transaction and discards staged
// changes. Without an active transaction it does nothing.
func (s *Session) RollbackTransaction(ctx context.Context) error {
	if s.tx == nil {
		return nil
	}

	err := s.tx.Rollback()
	s.tx = nil
	s.discard()

	if err != nil && !errors.Is(err, sql.ErrTxDone) {
		return errors.Wrap(err, "rollback transaction")
	}

	s.logger.DebugContext(ctx, "Transaction rolled back")
	return nil
}

// ExecuteTransaction runs fn inside a new transaction. It commits when fn
// returns nil. When fn fails the transaction is rolled back and fn's error is
// returned; when fn panics it is rolled back and the panic continues.
func (s *Session) ExecuteTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := s.BeginTransaction(ctx); err != nil {
		return err
	}

	defer func() {
		if r := recover(); r != nil {
			_ = s.RollbackTransaction(ctx)
			panic(r)
		}
	}()

	if err := fn(ctx); err != nil {
		if rbErr := s.RollbackTransaction(ctx); rbErr != nil {
			s.logger.WarnContext(ctx, "Failed to roll back transaction",
				slog.String("error", rbErr.Error()),
			)
		}
		return err
	}

	return s.CommitTransaction(ctx)
}

// SaveChanges flushes staged changes and returns the number of affected rows.
// Inside a transaction the changes become visible on commit; otherwise they
// are written in an implicit transaction of their own, and a failure there
// discards the staged changes and the tracked instances.
func (s *Session) SaveChanges(ctx context.Context) (int, error) {
	if err := s.ensureOpen(); err != nil {
		return 0, err
	}
	if len(s.pending) == 0 {
		return 0, nil
	}

	ctx, span := s.tracer.Start(ctx, "Session.SaveChanges")
	defer span.End()

	span.SetAttributes(attribute.Int("db.pending_changes", len(s.pending)))

	if s.tx != nil {
		n, err := s.flushPending(ctx, s.tx)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "Failed to save changes")
			return 0, err
		}
		span.SetStatus(codes.Ok, "Changes saved")
		return n, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, errors.Wrap(err, "begin transaction")
	}
	n, err := s.flushPending(ctx, tx)
	if err != nil {
		_ = tx.Rollback()
		s.discard()
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to save changes")
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		s.discard()
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to commit changes")
		return 0, errors.Wrap(err, "commit transaction")
	}

	span.SetStatus(codes.Ok, "Changes saved")
	return n, nil
}

// flushPending writes staged changes in staging order. Auditable entities are
// stamped with the session clock and the acting user right before their
// write. The staged list is cleared only when every write succeeded.
func (s *Session) flushPending(ctx context.Context, q Querier) (int, error) {
	now := s.clock().UTC()
	actor := domain.ActorFromContext(ctx)

	total := 0
	for _, c := range s.pending {
		if audited, ok := c.entity.(domain.Auditable); ok {
			switch c.kind {
			case changeInsert:
				audited.MarkCreated(now, actor)
			case changeUpdate:
				audited.MarkUpdated(now, actor)
			}
		}

		n, err := c.apply(ctx, q)
		if err != nil {
			s.logger.ErrorContext(ctx, "Failed to write change",
				slog.String("operation", c.kind.String()),
				slog.String("entity_id", c.entity.GetID().String()),
				slog.String("error", err.Error()),
			)
			return 0, err
		}
		if n == 0 && c.kind != changeInsert {
			return 0, errors.Wrapf(domain.ErrEntityNotFound, "%s %s", c.kind, c.entity.GetID())
		}
		total += int(n)
	}

	s.logger.DebugContext(ctx, "Changes flushed",
		slog.Int("changes", len(s.pending)),
		slog.Int("rows_affected", total),
	)

	s.pending = nil
	return total, nil
}

// readSnapshot runs fn inside a transaction so that several statements see
// one consistent state.
func (s *Session) readSnapshot(ctx context.Context, fn func(q Querier) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin read transaction")
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return errors.Wrap(tx.Commit(), "commit read transaction")
}

// release drops the transaction handle, rolling back anything not committed,
// together with the changes staged for it.
func (s *Session) release() {
	if s.tx == nil {
		return
	}
	_ = s.tx.Rollback()
	s.tx = nil
	s.pending = nil
}

// Close releases the transaction handle and discards staged changes. The
// pooled database stays open. Close may be called more than once.
func (s *Session) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	s.discard()
	s.release()
	return nil
}
