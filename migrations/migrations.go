// Package migrations содержит схему PostgreSQL движка.
package migrations

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
)

//go:embed *.sql
var files embed.FS

// Apply выполняет все .sql файлы по порядку имён в одной транзакции.
// Запросы идемпотентны, повторный вызов безопасен.
func Apply(ctx context.Context, db *sql.DB) ([]string, error) {
	entries, err := fs.ReadDir(files, ".")
	if err != nil {
		return nil, err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	applied := make([]string, 0, len(entries))
	for _, e := range entries {
		script, err := files.ReadFile(e.Name())
		if err != nil {
			return nil, err
		}
		if _, err := tx.ExecContext(ctx, string(script)); err != nil {
			return nil, fmt.Errorf("apply %s: %w", e.Name(), err)
		}
		applied = append(applied, e.Name())
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return applied, nil
}
