package db

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"sort"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/gyeh/drgref/internal/model"
	embedsql "github.com/gyeh/drgref/internal/sql"
)

type migration struct {
	name string
	ddl  string
}

// migrations returns the embedded SQL migrations sorted by filename.
func migrations() ([]migration, error) {
	entries, err := fs.ReadDir(embedsql.Migrations, "migrations")
	if err != nil {
		return nil, fmt.Errorf("read migrations dir: %w", err)
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	var out []migration
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		data, err := fs.ReadFile(embedsql.Migrations, "migrations/"+name)
		if err != nil {
			return nil, fmt.Errorf("read migration %s: %w", name, err)
		}
		out = append(out, migration{name: name, ddl: string(data)})
	}
	return out, nil
}

func apply(ctx context.Context, exec func(context.Context, string) error, log zerolog.Logger) error {
	ms, err := migrations()
	if err != nil {
		return err
	}
	for _, m := range ms {
		log.Info().Str("migration", m.name).Msg("applying migration")
		if err := exec(ctx, m.ddl); err != nil {
			return fmt.Errorf("execute migration %s: %w", m.name, err)
		}
	}
	log.Info().Int("count", len(ms)).Msg("all migrations applied")
	return nil
}

// ApplyMigrations runs all embedded SQL migrations against Postgres.
// All DDL uses IF NOT EXISTS so migrations are idempotent.
func ApplyMigrations(ctx context.Context, pool *pgxpool.Pool, log zerolog.Logger) error {
	return apply(ctx, func(ctx context.Context, ddl string) error {
		_, err := pool.Exec(ctx, ddl)
		return err
	}, log)
}

// ApplySQLiteMigrations runs the same migrations against a SQLite handle.
func ApplySQLiteMigrations(ctx context.Context, db *sql.DB, log zerolog.Logger) error {
	return apply(ctx, func(ctx context.Context, ddl string) error {
		_, err := db.ExecContext(ctx, ddl)
		return err
	}, log)
}

// AutoMigrate creates the reference tables on MySQL from the typed models.
func AutoMigrate(ctx context.Context, gdb *gorm.DB, log zerolog.Logger) error {
	models := model.GormModels()
	if err := gdb.WithContext(ctx).AutoMigrate(models...); err != nil {
		return fmt.Errorf("automigrate: %w", err)
	}
	log.Info().Int("tables", len(models)).Msg("automigrate complete")
	return nil
}
