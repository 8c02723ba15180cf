/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"

	applog "logostyler/internal/log"
	"logostyler/internal/version"

	// Pure-Go SQLite driver (CGO-free)
	_ "modernc.org/sqlite"
)

const (
	// CatalogDirName holds catalog data under the output directory.
	CatalogDirName  = ".logostyler"
	CatalogFileName = "catalog.sqlite"

	// schemaVersion tracks the catalog schema. Bump it together with a new
	// step in runMigrations.
	schemaVersion = 2
)

// Driver selects the catalog database.
type Driver string

const (
	DriverSQLite   Driver = "sqlite"
	DriverPostgres Driver = "postgres"
)

// ParseDriver accepts "sqlite" (default), "postgres", "postgresql" and "pgx".
func ParseDriver(s string) (Driver, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "sqlite", "sqlite3":
		return DriverSQLite, nil
	case "postgres", "postgresql", "pgx", "pg":
		return DriverPostgres, nil
	}
	return "", fmt.Errorf("unknown catalog driver %q", s)
}

// ErrNotFound is returned when no matching row exists.
var ErrNotFound = errors.New("not found")

// Generation is one recorded logo generation.
type Generation struct {
	ID         int64
	Preset     string
	ConfigHash string
	SVGPath    string
	PNGPath    string
	PDFPath    string
	PNGWidth   int
	CreatedAt  time.Time
}

// Files returns the non-empty output paths of g.
func (g Generation) Files() []string {
	var out []string
	for _, p := range []string{g.SVGPath, g.PNGPath, g.PDFPath} {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Thumbnail is a small PNG preview of a generation.
type Thumbnail struct {
	Width  int
	Height int
	PNG    []byte
}

// Catalog records generations. Methods are safe for concurrent use; writes
// are serialized by the database handle.
type Catalog struct {
	db     *sql.DB
	driver Driver
	log    *slog.Logger
}

// Options configure OpenCatalog.
type Options struct {
	Driver    Driver
	OutputDir string // SQLite: the catalog lives under <OutputDir>/.logostyler
	DSN       string // Postgres connection string
	Password  string // Postgres password, overrides the DSN's
}

// CatalogPath returns the SQLite catalog file for an output directory.
func CatalogPath(outputDir string) string {
	return filepath.Join(outputDir, CatalogDirName, CatalogFileName)
}

// OpenCatalog opens (and creates or migrates) the catalog.
func OpenCatalog(ctx context.Context, opt Options) (*Catalog, error) {
	l := applog.WithOperation(applog.WithComponent("storage"), "catalog_open").With(slog.String("driver", string(opt.Driver)))
	var (
		db  *sql.DB
		err error
	)
	switch opt.Driver {
	case DriverSQLite, "":
		opt.Driver = DriverSQLite
		db, err = openSQLite(ctx, opt.OutputDir)
	case DriverPostgres:
		db, err = openPostgres(ctx, opt.DSN, opt.Password)
	default:
		err = fmt.Errorf("unknown catalog driver %q", opt.Driver)
	}
	if err != nil {
		l.Error("open failed", slog.Any("err", err))
		return nil, err
	}
	c := &Catalog{db: db, driver: opt.Driver, log: applog.WithComponent("storage")}
	if err := c.ensureVersion(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := c.ensureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := c.runMigrations(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	l.Debug("catalog ready")
	return c, nil
}

func openSQLite(ctx context.Context, outputDir string) (*sql.DB, error) {
	if strings.TrimSpace(outputDir) == "" {
		return nil, errors.New("output directory is required")
	}
	path := CatalogPath(outputDir)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create %s dir: %w", CatalogDirName, err)
	}
	dsn := fmt.Sprintf("file:%s?cache=shared&_pragma=busy_timeout(5000)", filepath.ToSlash(path))
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL;"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable WAL: %w", err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys=ON;"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	return db, nil
}

func openPostgres(ctx context.Context, dsn, password string) (*sql.DB, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, errors.New("postgres DSN is required")
	}
	cfg, err := pgx.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if password != "" {
		cfg.Password = password
	}
	db := stdlib.OpenDB(*cfg)
	pctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

// Close releases the database handle.
func (c *Catalog) Close() error { return c.db.Close() }

// Driver reports the backing database.
func (c *Catalog) Driver() Driver { return c.driver }

// rebind rewrites ? placeholders to $n for Postgres.
func (c *Catalog) rebind(q string) string {
	if c.driver != DriverPostgres {
		return q
	}
	var b strings.Builder
	n := 0
	for i := 0; i < len(q); i++ {
		if q[i] == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteByte(q[i])
	}
	return b.String()
}

func (c *Catalog) exec(ctx context.Context, q string, args ...any) error {
	_, err := c.db.ExecContext(ctx, c.rebind(q), args...)
	return err
}

func (c *Catalog) ensureVersion(ctx context.Context) error {
	ddl := `CREATE TABLE IF NOT EXISTS version (
		id         INTEGER PRIMARY KEY CHECK(id=1),
		schema     INTEGER NOT NULL,
		app        TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`
	if err := c.exec(ctx, ddl); err != nil {
		return fmt.Errorf("create version table: %w", err)
	}
	now := time.Now().UTC().Format(time.RFC3339)
	var cur int
	err := c.db.QueryRowContext(ctx, `SELECT schema FROM version WHERE id=1`).Scan(&cur)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		if err := c.exec(ctx, `INSERT INTO version (id, schema, app, created_at, updated_at) VALUES (1, ?, ?, ?, ?)`, schemaVersion, version.String(), now, now); err != nil {
			return fmt.Errorf("insert version: %w", err)
		}
	case err != nil:
		return fmt.Errorf("read version: %w", err)
	default:
		if err := c.exec(ctx, `UPDATE version SET app=?, updated_at=? WHERE id=1`, version.String(), now); err != nil {
			return fmt.Errorf("update version: %w", err)
		}
	}
	return nil
}

func (c *Catalog) ensureSchema(ctx context.Context) error {
	idCol, blob := "INTEGER PRIMARY KEY", "BLOB"
	if c.driver == DriverPostgres {
		idCol, blob = "BIGSERIAL PRIMARY KEY", "BYTEA"
	}
	ddl := []string{
		`CREATE TABLE IF NOT EXISTS generations (
			id          ` + idCol + `,
			preset      TEXT    NOT NULL,
			config_hash TEXT    NOT NULL,
			svg_path    TEXT    NOT NULL DEFAULT '',
			png_path    TEXT    NOT NULL DEFAULT '',
			pdf_path    TEXT    NOT NULL DEFAULT '',
			png_width   INTEGER NOT NULL DEFAULT 0,
			created_at  TEXT    NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS thumbnails (
			generation_id BIGINT  PRIMARY KEY REFERENCES generations(id) ON DELETE CASCADE,
			w             INTEGER NOT NULL,
			h             INTEGER NOT NULL,
			png           ` + blob + ` NOT NULL
		)`,
	}
	for _, q := range ddl {
		if err := c.exec(ctx, q); err != nil {
			return fmt.Errorf("create table: %w", err)
		}
	}
	return nil
}

// runMigrations applies incremental steps up to schemaVersion.
func (c *Catalog) runMigrations(ctx context.Context) error {
	var cur int
	if err := c.db.QueryRowContext(ctx, `SELECT schema FROM version WHERE id=1`).Scan(&cur); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if cur > schemaVersion {
		c.log.Warn("catalog schema is newer than this build", slog.Int("schema", cur), slog.Int("supported", schemaVersion))
		return nil
	}
	for cur < schemaVersion {
		next := cur + 1
		var stmts []string
		switch next {
		case 2:
			stmts = []string{
				`CREATE INDEX IF NOT EXISTS idx_generations_preset ON generations(preset, created_at)`,
			}
		}
		tx, err := c.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin migration %d: %w", next, err)
		}
		for _, q := range stmts {
			if _, err := tx.ExecContext(ctx, c.rebind(q)); err != nil {
				_ = tx.Rollback()
				return fmt.Errorf("migration %d stmt failed: %w", next, err)
			}
		}
		if _, err := tx.ExecContext(ctx, c.rebind(`UPDATE version SET schema=?, updated_at=? WHERE id=1`), next, time.Now().UTC().Format(time.RFC3339)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d update version: %w", next, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("migration %d commit: %w", next, err)
		}
		cur = next
	}
	return nil
}

// Record stores g (ID and CreatedAt are assigned) and an optional thumbnail.
func (c *Catalog) Record(ctx context.Context, g Generation, thumb *Thumbnail) (int64, error) {
	if strings.TrimSpace(g.Preset) == "" {
		return 0, errors.New("preset name is required")
	}
	if g.CreatedAt.IsZero() {
		g.CreatedAt = time.Now()
	}
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin record: %w", err)
	}
	var id int64
	err = tx.QueryRowContext(ctx, c.rebind(`INSERT INTO generations (preset, config_hash, svg_path, png_path, pdf_path, png_width, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?) RETURNING id`),
		g.Preset, g.ConfigHash, g.SVGPath, g.PNGPath, g.PDFPath, g.PNGWidth, formatTime(g.CreatedAt)).Scan(&id)
	if err != nil {
		_ = tx.Rollback()
		return 0, fmt.Errorf("insert generation: %w", err)
	}
	if thumb != nil && len(thumb.PNG) > 0 {
		if _, err := tx.ExecContext(ctx, c.rebind(`INSERT INTO thumbnails (generation_id, w, h, png) VALUES (?, ?, ?, ?)`),
			id, thumb.Width, thumb.Height, thumb.PNG); err != nil {
			_ = tx.Rollback()
			return 0, fmt.Errorf("insert thumbnail: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit record: %w", err)
	}
	c.log.Debug("generation recorded", slog.String("preset", g.Preset), slog.Int64("id", id))
	return id, nil
}

const selectGeneration = `SELECT id, preset, config_hash, svg_path, png_path, pdf_path, png_width, created_at FROM generations`

type scanner interface{ Scan(dest ...any) error }

func scanGeneration(s scanner) (Generation, error) {
	var (
		g  Generation
		ts string
	)
	if err := s.Scan(&g.ID, &g.Preset, &g.ConfigHash, &g.SVGPath, &g.PNGPath, &g.PDFPath, &g.PNGWidth, &ts); err != nil {
		return Generation{}, err
	}
	t, err := time.Parse(time.RFC3339Nano, ts)
	if err != nil {
		return Generation{}, fmt.Errorf("generation %d created_at %q: %w", g.ID, ts, err)
	}
	g.CreatedAt = t
	return g, nil
}

// Latest returns the most recent generation of preset, or ErrNotFound.
func (c *Catalog) Latest(ctx context.Context, preset string) (Generation, error) {
	row := c.db.QueryRowContext(ctx, c.rebind(selectGeneration+` WHERE preset = ? ORDER BY created_at DESC, id DESC LIMIT 1`), preset)
	g, err := scanGeneration(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Generation{}, fmt.Errorf("preset %q: %w", preset, ErrNotFound)
	}
	if err != nil {
		return Generation{}, fmt.Errorf("latest generation: %w", err)
	}
	return g, nil
}

// List returns up to limit generations, newest first. limit <= 0 means 50.
func (c *Catalog) List(ctx context.Context, limit int) ([]Generation, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := c.db.QueryContext(ctx, c.rebind(selectGeneration+` ORDER BY created_at DESC, id DESC LIMIT ?`), limit)
	if err != nil {
		return nil, fmt.Errorf("list generations: %w", err)
	}
	defer func() { _ = rows.Close() }()
	var out []Generation
	for rows.Next() {
		g, err := scanGeneration(rows)
		if err != nil {
			return nil, fmt.Errorf("scan generation: %w", err)
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

// Thumbnail returns the preview stored with generation id, or ErrNotFound.
func (c *Catalog) Thumbnail(ctx context.Context, id int64) (Thumbnail, error) {
	var t Thumbnail
	err := c.db.QueryRowContext(ctx, c.rebind(`SELECT w, h, png FROM thumbnails WHERE generation_id = ?`), id).Scan(&t.Width, &t.Height, &t.PNG)
	if errors.Is(err, sql.ErrNoRows) {
		return Thumbnail{}, fmt.Errorf("thumbnail %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return Thumbnail{}, fmt.Errorf("read thumbnail: %w", err)
	}
	return t, nil
}

// formatTime uses a fixed-width UTC layout so text ordering matches time order.
func formatTime(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000000000Z07:00")
}
