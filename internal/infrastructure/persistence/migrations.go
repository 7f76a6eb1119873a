package persistence

import (
	"context"
	"database/sql"
	"embed"
	"io/fs"
	"log/slog"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/pkg/errors"
)

//go:embed migrations/*/*.sql
var migrationsFS embed.FS

const migrationsTable = "schema_migrations"

// Migrate applies the embedded migrations of dialect that are not yet
// recorded in schema_migrations, in file name order. Each migration runs in
// its own transaction. It returns the names of the applied migrations.
func Migrate(ctx context.Context, db *sql.DB, dialect Dialect, logger *slog.Logger) ([]string, error) {
	if db == nil {
		return nil, errors.New("migrate: database is required")
	}

	_, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS `+migrationsTable+` (
		name VARCHAR(255) NOT NULL PRIMARY KEY,
		applied_at TIMESTAMP NOT NULL
	)`)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create migrations table")
	}

	applied, err := appliedMigrations(ctx, db)
	if err != nil {
		return nil, err
	}

	dir := path.Join("migrations", string(dialect))
	entries, err := fs.ReadDir(migrationsFS, dir)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read migrations for %s", dialect)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	var done []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".sql") || applied[name] {
			continue
		}

		script, err := fs.ReadFile(migrationsFS, path.Join(dir, name))
		if err != nil {
			return done, errors.Wrapf(err, "failed to read migration %s", name)
		}
		if err := applyMigration(ctx, db, dialect, name, string(script)); err != nil {
			return done, err
		}

		logger.InfoContext(ctx, "Migration applied",
			slog.String("migration", name),
			slog.String("dialect", string(dialect)),
		)
		done = append(done, name)
	}

	return done, nil
}

func appliedMigrations(ctx context.Context, db *sql.DB) (map[string]bool, error) {
	rows, err := db.QueryContext(ctx, `SELECT name FROM `+migrationsTable)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query migrations")
	}
	defer rows.Close()

	applied := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, errors.Wrap(err, "failed to scan migration name")
		}
		applied[name] = true
	}
	return applied, errors.Wrap(rows.Err(), "error iterating migrations")
}

func applyMigration(ctx context.Context, db *sql.DB, dialect Dialect, name, script string) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrapf(err, "failed to begin transaction for migration %s", name)
	}
	defer func() { _ = tx.Rollback() }()

	for _, stmt := range splitStatements(script) {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return errors.Wrapf(err, "failed to apply migration %s", name)
		}
	}

	record := dialect.Rebind(`INSERT INTO ` + migrationsTable + ` (name, applied_at) VALUES (?, ?)`)
	if _, err := tx.ExecContext(ctx, record, name, time.Now().UTC()); err != nil {
		return errors.Wrapf(err, "failed to record migration %s", name)
	}

	return errors.Wrapf(tx.Commit(), "failed to commit migration %s", name)
}

// splitStatements cuts a script on semicolons so that drivers without
// multi-statement support can run it.
func splitStatements(script string) []string {
	var out []string
	for _, stmt := range strings.Split(script, ";") {
		if stmt = strings.TrimSpace(stmt); stmt != "" {
			out = append(out, stmt)
		}
	}
	return out
}
