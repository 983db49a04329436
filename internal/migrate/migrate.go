// Package migrate applies the embedded SQL schema for the SQL store backends.
//
// Each file is applied at most once and recorded in schema_migrations.
package migrate

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
	"time"

	_ "github.com/lib/pq"
)

const migrationTable = "schema_migrations"

//go:embed postgres/*.sql sqlite/*.sql
var migrationFS embed.FS

// Dialect describes the SQL differences between backends.
type Dialect struct {
	// Root is the directory inside the embedded FS holding the dialect's files.
	Root string
	// Placeholder renders the n-th (1-based) bind parameter.
	Placeholder func(n int) string
}

// Postgres is the dialect for the lib/pq and pgx backends.
var Postgres = Dialect{
	Root:        "postgres",
	Placeholder: func(n int) string { return fmt.Sprintf("$%d", n) },
}

// SQLite is the dialect for modernc.org/sqlite.
var SQLite = Dialect{
	Root:        "sqlite",
	Placeholder: func(int) string { return "?" },
}

// ApplyPostgres opens databaseURL with lib/pq and applies the postgres migrations.
func ApplyPostgres(ctx context.Context, databaseURL string) ([]string, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return Apply(ctx, db, Postgres)
}

// Apply runs every pending migration of the dialect against db and returns
// the names of the files it applied.
func Apply(ctx context.Context, db *sql.DB, d Dialect) ([]string, error) {
	if db == nil {
		return nil, fmt.Errorf("sql db is required")
	}

	files, err := Files(d)
	if err != nil {
		return nil, err
	}

	createSQL := fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %s (
    name       TEXT PRIMARY KEY,
    applied_at BIGINT NOT NULL
)`, migrationTable)
	if _, err := db.ExecContext(ctx, createSQL); err != nil {
		return nil, fmt.Errorf("ensure migration table: %w", err)
	}

	var applied []string
	for _, name := range files {
		done, err := isApplied(ctx, db, d, name)
		if err != nil {
			return applied, fmt.Errorf("check migration %s: %w", name, err)
		}
		if done {
			continue
		}

		content, err := fs.ReadFile(migrationFS, path.Join(d.Root, name))
		if err != nil {
			return applied, fmt.Errorf("read migration %s: %w", name, err)
		}

		if err := applyOne(ctx, db, d, name, string(content)); err != nil {
			return applied, err
		}
		applied = append(applied, name)
	}

	return applied, nil
}

// Files lists the dialect's migration files in apply order.
func Files(d Dialect) ([]string, error) {
	entries, err := fs.ReadDir(migrationFS, d.Root)
	if err != nil {
		return nil, fmt.Errorf("read migrations dir: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".up.sql") {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

func applyOne(ctx context.Context, db *sql.DB, d Dialect, name, content string) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin migration %s: %w", name, err)
	}

	for _, stmt := range splitStatements(content) {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("exec migration %s: %w", name, err)
		}
	}

	insertSQL := fmt.Sprintf("INSERT INTO %s (name, applied_at) VALUES (%s, %s)",
		migrationTable, d.Placeholder(1), d.Placeholder(2))
	if _, err := tx.ExecContext(ctx, insertSQL, name, time.Now().Unix()); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("record migration %s: %w", name, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit migration %s: %w", name, err)
	}
	return nil
}

func isApplied(ctx context.Context, db *sql.DB, d Dialect, name string) (bool, error) {
	query := fmt.Sprintf("SELECT COUNT(1) FROM %s WHERE name = %s", migrationTable, d.Placeholder(1))

	var count int
	if err := db.QueryRowContext(ctx, query, name).Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}

// splitStatements splits a migration file on semicolons.
// Migration files must not contain semicolons inside string literals.
func splitStatements(content string) []string {
	var out []string
	for _, part := range strings.Split(content, ";") {
		if stmt := strings.TrimSpace(part); stmt != "" {
			out = append(out, stmt)
		}
	}
	return out
}
