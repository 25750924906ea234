package migrations

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"regexp"
	"strings"

	"github.com/pressly/goose/v3"
)

//go:embed sql/*.sql
var embedded embed.FS

const dir = "sql"

var fileName = regexp.MustCompile(`^(\d{14})_[a-z0-9_]+\.sql$`)

// FS expone las migraciones embebidas (tests y validate).
func FS() fs.FS {
	return embedded
}

// Run ejecuta un comando de goose (up, down, status, version...) sobre las
// migraciones embebidas.
func Run(ctx context.Context, db *sql.DB, command string, args ...string) error {
	if db == nil {
		return fmt.Errorf("db is required")
	}

	goose.SetBaseFS(embedded)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}

	if err := goose.RunContext(ctx, command, db, dir, args...); err != nil {
		return fmt.Errorf("goose %s: %w", command, err)
	}
	return nil
}

// Up aplica todas las migraciones pendientes.
func Up(ctx context.Context, db *sql.DB) error {
	return Run(ctx, db, "up")
}

// Validate chequea nombres de archivo, versiones únicas y anotaciones de goose.
func Validate(fsys fs.FS) error {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return fmt.Errorf("read migrations: %w", err)
	}

	seen := map[string]string{}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}
		name := entry.Name()

		match := fileName.FindStringSubmatch(name)
		if match == nil {
			return fmt.Errorf("invalid migration filename %q (expected YYYYMMDDHHMMSS_name.sql)", name)
		}
		if previous, ok := seen[match[1]]; ok {
			return fmt.Errorf("duplicate migration version %s in %q and %q", match[1], previous, name)
		}
		seen[match[1]] = name

		content, err := fs.ReadFile(fsys, dir+"/"+name)
		if err != nil {
			return fmt.Errorf("read %q: %w", name, err)
		}
		for _, annotation := range []string{"-- +goose Up", "-- +goose Down"} {
			if !strings.Contains(string(content), annotation) {
				return fmt.Errorf("migration %q missing %q", name, annotation)
			}
		}
	}

	if len(seen) == 0 {
		return fmt.Errorf("no migrations found")
	}
	return nil
}
