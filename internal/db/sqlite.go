package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/gyeh/drgref/internal/model"
)

// OpenSQLite opens the reference database file. A read-only handle requires
// the file to exist; a writable one creates it.
func OpenSQLite(ctx context.Context, path string, readOnly bool, maxConns int) (*sql.DB, error) {
	dsn := path
	if readOnly {
		if _, err := os.Stat(path); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("reference database %s does not exist", path)
			}
			return nil, fmt.Errorf("stat %s: %w", path, err)
		}
		// URI parameters are only honoured with the file: prefix.
		dsn = "file:" + path + "?mode=ro&_pragma=query_only(1)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	if maxConns > 0 {
		db.SetMaxOpenConns(maxConns)
	}
	if !readOnly {
		// SQLite serializes writers; one connection avoids SQLITE_BUSY.
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite %s: %w", path, err)
	}
	return db, nil
}

// InsertRecords writes recs into a writable SQLite database in one
// transaction. Existing rows with the same key are replaced.
func InsertRecords(ctx context.Context, db *sql.DB, recs []model.Record) (err error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin insert tx: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback() //nolint:errcheck
		}
	}()

	stmts := make(map[*model.Entity]*sql.Stmt)
	for _, r := range recs {
		stmt, ok := stmts[r.Entity]
		if !ok {
			stmt, err = tx.PrepareContext(ctx, insertSQL(r.Entity))
			if err != nil {
				return fmt.Errorf("prepare insert %s: %w", r.Entity, err)
			}
			defer stmt.Close()
			stmts[r.Entity] = stmt
		}
		if _, err = stmt.ExecContext(ctx, r.Ordered()...); err != nil {
			return fmt.Errorf("insert %s %v: %w", r.Entity, r.KeyValues(), err)
		}
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit insert tx: %w", err)
	}
	return nil
}

func insertSQL(e *model.Entity) string {
	cols := make([]string, len(e.Columns))
	marks := make([]string, len(e.Columns))
	for i, c := range e.Columns {
		cols[i] = `"` + c.Name + `"`
		marks[i] = "?"
	}
	return fmt.Sprintf(`INSERT OR REPLACE INTO "%s" (%s) VALUES (%s)`,
		e.Table, strings.Join(cols, ", "), strings.Join(marks, ", "))
}
