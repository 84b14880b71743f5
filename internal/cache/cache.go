// Package cache persists the last reconciled snapshot in a local SQLite
// database so the console can render the previous generation immediately at
// startup, before the first fetch completes. The cache is never authoritative
// and every failure here is non-fatal.
package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/itellico/joi-console/internal/model"
)

var ErrEmpty = errors.New("cache: no snapshot stored")

type Cache struct {
	path string
}

func Open(path string) (*Cache, error) {
	if path == "" {
		return nil, errors.New("cache: missing path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	return &Cache{path: path}, nil
}

func (c *Cache) open(ctx context.Context) (*sql.DB, error) {
	db, err := sql.Open("sqlite", c.path)
	if err != nil {
		return nil, err
	}
	if err := migrate(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func migrate(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS cache_meta (
			k TEXT PRIMARY KEY,
			v TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS tasks (
			id TEXT PRIMARY KEY,
			list TEXT NOT NULL,
			project_id TEXT NOT NULL,
			area_id TEXT NOT NULL,
			json TEXT NOT NULL,
			updated_at_unixms INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_tasks_list ON tasks(list);`,
		`CREATE INDEX IF NOT EXISTS idx_tasks_project ON tasks(project_id);`,
		`CREATE TABLE IF NOT EXISTS projects (
			id TEXT PRIMARY KEY,
			area_id TEXT NOT NULL,
			json TEXT NOT NULL,
			updated_at_unixms INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS areas (
			id TEXT PRIMARY KEY,
			json TEXT NOT NULL,
			updated_at_unixms INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS headings (
			id TEXT PRIMARY KEY,
			project_id TEXT NOT NULL,
			json TEXT NOT NULL,
			updated_at_unixms INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS completed (
			id TEXT PRIMARY KEY,
			completed_at_unixms INTEGER NOT NULL,
			json TEXT NOT NULL,
			updated_at_unixms INTEGER NOT NULL
		);`,
	}
	for _, st := range stmts {
		if _, err := db.ExecContext(ctx, st); err != nil {
			return err
		}
	}
	return nil
}

// Save replaces the cached snapshot in one transaction (delete-and-rebuild;
// the table is small and the write path is off the hot loop).
func (c *Cache) Save(ctx context.Context, snap model.Snapshot) error {
	db, err := c.open(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, t := range []string{"tasks", "projects", "areas", "headings", "completed"} {
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+t); err != nil {
			return err
		}
	}

	nowMs := time.Now().UTC().UnixMilli()

	for _, t := range snap.Tasks {
		if t.Completing {
			continue
		}
		raw, _ := json.Marshal(t)
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO tasks(id, list, project_id, area_id, json, updated_at_unixms) VALUES(?, ?, ?, ?, ?, ?)`,
			t.ID, string(t.List), t.ProjectID, t.AreaID, string(raw), nowMs); err != nil {
			return err
		}
	}
	for _, p := range snap.Projects {
		raw, _ := json.Marshal(p)
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO projects(id, area_id, json, updated_at_unixms) VALUES(?, ?, ?, ?)`,
			p.ID, p.AreaID, string(raw), nowMs); err != nil {
			return err
		}
	}
	for _, a := range snap.Areas {
		raw, _ := json.Marshal(a)
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO areas(id, json, updated_at_unixms) VALUES(?, ?, ?)`,
			a.ID, string(raw), nowMs); err != nil {
			return err
		}
	}
	for _, h := range snap.Headings {
		raw, _ := json.Marshal(h)
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO headings(id, project_id, json, updated_at_unixms) VALUES(?, ?, ?, ?)`,
			h.ID, h.ProjectID, string(raw), nowMs); err != nil {
			return err
		}
	}
	for _, e := range snap.Completed {
		if e.Uncompleting {
			continue
		}
		raw, _ := json.Marshal(e)
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO completed(id, completed_at_unixms, json, updated_at_unixms) VALUES(?, ?, ?, ?)`,
			e.ID, e.CompletedAt.UTC().UnixMilli(), string(raw), nowMs); err != nil {
			return err
		}
	}

	meta, _ := json.Marshal(snap.FetchedAt)
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO cache_meta(k, v) VALUES('fetched_at', ?) ON CONFLICT(k) DO UPDATE SET v=excluded.v`,
		string(meta)); err != nil {
		return err
	}
	tags, _ := json.Marshal(snap.Tags)
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO cache_meta(k, v) VALUES('tags', ?) ON CONFLICT(k) DO UPDATE SET v=excluded.v`,
		string(tags)); err != nil {
		return err
	}

	return tx.Commit()
}

// Load returns the stored snapshot, or ErrEmpty when nothing was saved yet.
func (c *Cache) Load(ctx context.Context) (model.Snapshot, error) {
	db, err := c.open(ctx)
	if err != nil {
		return model.Snapshot{}, err
	}
	defer db.Close()

	var snap model.Snapshot

	if err := loadRows(ctx, db, `SELECT json FROM tasks ORDER BY rowid`, &snap.Tasks); err != nil {
		return model.Snapshot{}, err
	}
	if err := loadRows(ctx, db, `SELECT json FROM projects ORDER BY rowid`, &snap.Projects); err != nil {
		return model.Snapshot{}, err
	}
	if err := loadRows(ctx, db, `SELECT json FROM areas ORDER BY rowid`, &snap.Areas); err != nil {
		return model.Snapshot{}, err
	}
	if err := loadRows(ctx, db, `SELECT json FROM headings ORDER BY rowid`, &snap.Headings); err != nil {
		return model.Snapshot{}, err
	}
	if err := loadRows(ctx, db, `SELECT json FROM completed ORDER BY completed_at_unixms DESC`, &snap.Completed); err != nil {
		return model.Snapshot{}, err
	}

	var fetchedAt string
	err = db.QueryRowContext(ctx, `SELECT v FROM cache_meta WHERE k='fetched_at'`).Scan(&fetchedAt)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return model.Snapshot{}, ErrEmpty
	case err != nil:
		return model.Snapshot{}, err
	}
	_ = json.Unmarshal([]byte(fetchedAt), &snap.FetchedAt)

	var tags string
	if err := db.QueryRowContext(ctx, `SELECT v FROM cache_meta WHERE k='tags'`).Scan(&tags); err == nil {
		_ = json.Unmarshal([]byte(tags), &snap.Tags)
	}

	return snap, nil
}

func loadRows[T any](ctx context.Context, db *sql.DB, query string, out *[]T) error {
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return err
		}
		var v T
		if err := json.Unmarshal([]byte(raw), &v); err != nil {
			// Skip rows written by an older build rather than failing the
			// whole preload.
			continue
		}
		*out = append(*out, v)
	}
	return rows.Err()
}
