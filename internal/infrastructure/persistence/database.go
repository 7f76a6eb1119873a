package persistence

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pkg/errors"

	"github.com/mrops-br/product-catalog-api/internal/infrastructure/config"
)

// Open connects to the configured database and waits until it answers a ping,
// retrying with exponential backoff up to the configured connect timeout.
func Open(ctx context.Context, cfg config.DatabaseConfig, logger *slog.Logger) (*sql.DB, Dialect, error) {
	dialect, err := ParseDialect(cfg.Driver)
	if err != nil {
		return nil, "", errors.Wrapf(err, "driver %q", cfg.Driver)
	}

	dsn, err := normalizeDSN(dialect, cfg.DSN)
	if err != nil {
		return nil, "", err
	}

	db, err := sql.Open(dialect.DriverName(), dsn)
	if err != nil {
		return nil, "", errors.Wrap(err, "open database")
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	policy := backoff.NewExponentialBackOff()
	policy.MaxElapsedTime = cfg.ConnectTimeout

	ping := func() error {
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		return db.PingContext(pingCtx)
	}
	notify := func(err error, next time.Duration) {
		logger.WarnContext(ctx, "Database not reachable, retrying",
			slog.String("driver", string(dialect)),
			slog.String("retry_in", next.String()),
			slog.String("error", err.Error()),
		)
	}

	if err := backoff.RetryNotify(ping, backoff.WithContext(policy, ctx), notify); err != nil {
		_ = db.Close()
		return nil, "", errors.Wrap(err, "ping database")
	}

	logger.InfoContext(ctx, "Database connected",
		slog.String("driver", string(dialect)),
		slog.Int("max_open_conns", cfg.MaxOpenConns),
	)
	return db, dialect, nil
}

// normalizeDSN enforces driver settings the mapping relies on. MySQL must
// parse DATETIME columns into time.Time and report matched rows, not changed
// rows, from an UPDATE.
func normalizeDSN(dialect Dialect, dsn string) (string, error) {
	if dialect != DialectMySQL {
		return dsn, nil
	}
	mc, err := mysql.ParseDSN(dsn)
	if err != nil {
		return "", errors.Wrap(err, "parse mysql dsn")
	}
	mc.ParseTime = true
	mc.ClientFoundRows = true
	mc.Loc = time.UTC
	return mc.FormatDSN(), nil
}
