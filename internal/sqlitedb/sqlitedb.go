// Package sqlitedb opens the embedded SQLite database used for local
// session state and the standalone order store, and applies migrations.
package sqlitedb

import (
	"context"
	"database/sql"
	"fmt"
	"sort"

	"github.com/Masterminds/semver/v3"
	_ "modernc.org/sqlite"
)

const DriverName = "sqlite"

// Migration is one forward-only schema step of a component.
type Migration struct {
	Version string
	Up      string
}

// Open opens path (":memory:" for tests) with a single writer connection.
func Open(path string) (*sql.DB, error) {
	db, err := sql.Open(DriverName, path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}
	return db, nil
}

const schemaVersionDDL = `
CREATE TABLE IF NOT EXISTS schema_version (
    component TEXT NOT NULL,
    version TEXT NOT NULL,
    applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    PRIMARY KEY (component, version)
)`

// Migrate applies the migrations of component that are not recorded yet,
// in semantic version order.
func Migrate(ctx context.Context, db *sql.DB, component string, migrations []Migration) error {
	if _, err := db.ExecContext(ctx, schemaVersionDDL); err != nil {
		return fmt.Errorf("create schema_version: %w", err)
	}

	applied, err := appliedVersions(ctx, db, component)
	if err != nil {
		return err
	}

	type step struct {
		v *semver.Version
		m Migration
	}
	steps := make([]step, 0, len(migrations))
	for _, m := range migrations {
		v, err := semver.NewVersion(m.Version)
		if err != nil {
			return fmt.Errorf("migration %s/%s: %w", component, m.Version, err)
		}
		steps = append(steps, step{v: v, m: m})
	}
	sort.Slice(steps, func(i, j int) bool { return steps[i].v.LessThan(steps[j].v) })

	for _, s := range steps {
		if applied[s.v.String()] {
			continue
		}
		if err := apply(ctx, db, component, s.v.String(), s.m.Up); err != nil {
			return fmt.Errorf("migration %s/%s: %w", component, s.v, err)
		}
	}
	return nil
}

func appliedVersions(ctx context.Context, db *sql.DB, component string) (map[string]bool, error) {
	rows, err := db.QueryContext(ctx, `SELECT version FROM schema_version WHERE component = ?`, component)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[string]bool{}
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		if v, err := semver.NewVersion(raw); err == nil {
			out[v.String()] = true
		}
	}
	return out, rows.Err()
}

func apply(ctx context.Context, db *sql.DB, component, version, up string) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, up); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO schema_version (component, version) VALUES (?, ?)`, component, version); err != nil {
		return err
	}
	return tx.Commit()
}
