// Package migrations embeds the schema files for both databases and
// applies them at startup. Every file is idempotent, so reapplying on
// every boot is safe.
package migrations

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

//go:embed postgres/*.sql clickhouse/*.sql
var schemaFS embed.FS

// PgExecutor is the subset of pgxpool.Pool needed to apply schema.
type PgExecutor interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// CHExecutor is the subset of the ClickHouse connection needed to
// apply schema.
type CHExecutor interface {
	Exec(ctx context.Context, query string, args ...any) error
}

// RunPostgresMigrations applies the embedded PostgreSQL schema.
func RunPostgresMigrations(ctx context.Context, db PgExecutor) error {
	return apply(ctx, "postgres", func(ctx context.Context, stmt string) error {
		_, err := db.Exec(ctx, stmt)
		return err
	})
}

// RunClickhouseMigrations applies the embedded ClickHouse schema.
// ClickHouse executes one statement per call, so each file holds a
// single statement.
func RunClickhouseMigrations(ctx context.Context, db CHExecutor) error {
	return apply(ctx, "clickhouse", func(ctx context.Context, stmt string) error {
		return db.Exec(ctx, stmt)
	})
}

// apply runs every .sql file under dir in lexical order.
func apply(ctx context.Context, dir string, exec func(context.Context, string) error) error {
	entries, err := fs.ReadDir(schemaFS, dir)
	if err != nil {
		return fmt.Errorf("read embedded %s migrations: %w", dir, err)
	}

	var files []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".sql") {
			files = append(files, entry.Name())
		}
	}
	sort.Strings(files)

	for _, file := range files {
		data, err := fs.ReadFile(schemaFS, dir+"/"+file)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", file, err)
		}
		stmt := strings.TrimSpace(string(data))
		if stmt == "" {
			continue
		}
		if err := exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply migration %s/%s: %w", dir, file, err)
		}
	}
	return nil
}
