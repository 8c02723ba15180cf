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
	"os"
	"path/filepath"
	"testing"
	"time"
)

func openTestCatalog(t *testing.T) (*Catalog, string) {
	t.Helper()
	dir := t.TempDir()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	c, err := OpenCatalog(ctx, Options{Driver: DriverSQLite, OutputDir: dir})
	if err != nil {
		t.Fatalf("OpenCatalog: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c, dir
}

func TestCatalogRecordAndLatest(t *testing.T) {
	c, dir := openTestCatalog(t)
	ctx := context.Background()
	if _, err := os.Stat(CatalogPath(dir)); err != nil {
		t.Fatalf("catalog file missing: %v", err)
	}

	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	first := Generation{Preset: "it-en", ConfigHash: "aaa", SVGPath: "it-en.svg", PNGWidth: 600, CreatedAt: base}
	second := Generation{Preset: "it-en", ConfigHash: "bbb", SVGPath: "it-en.svg", PNGPath: "it-en.png", PNGWidth: 1200, CreatedAt: base.Add(time.Minute)}
	other := Generation{Preset: "de-fr", ConfigHash: "ccc", CreatedAt: base.Add(2 * time.Minute)}
	for _, g := range []Generation{first, second, other} {
		if _, err := c.Record(ctx, g, nil); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}

	got, err := c.Latest(ctx, "it-en")
	if err != nil {
		t.Fatalf("Latest: %v", err)
	}
	if got.ConfigHash != "bbb" || got.PNGWidth != 1200 || !got.CreatedAt.Equal(second.CreatedAt) {
		t.Fatalf("unexpected latest: %+v", got)
	}
	if len(got.Files()) != 2 {
		t.Fatalf("Files() = %v", got.Files())
	}

	if _, err := c.Latest(ctx, "es-pt"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	list, err := c.List(ctx, 2)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 2 || list[0].Preset != "de-fr" || list[1].ConfigHash != "bbb" {
		t.Fatalf("unexpected list order: %+v", list)
	}
}

func TestCatalogThumbnail(t *testing.T) {
	c, _ := openTestCatalog(t)
	ctx := context.Background()
	png := []byte{0x89, 'P', 'N', 'G', 1, 2, 3}
	id, err := c.Record(ctx, Generation{Preset: "x", ConfigHash: "h"}, &Thumbnail{Width: 16, Height: 12, PNG: png})
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	th, err := c.Thumbnail(ctx, id)
	if err != nil {
		t.Fatalf("Thumbnail: %v", err)
	}
	if th.Width != 16 || th.Height != 12 || string(th.PNG) != string(png) {
		t.Fatalf("unexpected thumbnail: %+v", th)
	}
	noThumb, err := c.Record(ctx, Generation{Preset: "x", ConfigHash: "h2"}, nil)
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	if _, err := c.Thumbnail(ctx, noThumb); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCatalogRejectsEmptyPreset(t *testing.T) {
	c, _ := openTestCatalog(t)
	if _, err := c.Record(context.Background(), Generation{}, nil); err == nil {
		t.Fatalf("expected error for empty preset")
	}
}

func TestCatalogReopenKeepsRows(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	c, err := OpenCatalog(ctx, Options{OutputDir: dir})
	if err != nil {
		t.Fatalf("OpenCatalog: %v", err)
	}
	if _, err := c.Record(ctx, Generation{Preset: "it-en", ConfigHash: "h"}, nil); err != nil {
		t.Fatalf("Record: %v", err)
	}
	_ = c.Close()
	c2, err := OpenCatalog(ctx, Options{OutputDir: dir})
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer c2.Close()
	if _, err := c2.Latest(ctx, "it-en"); err != nil {
		t.Fatalf("Latest after reopen: %v", err)
	}
}

func TestCatalogMigratesV1(t *testing.T) {
	dir := t.TempDir()
	path := CatalogPath(dir)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	dsn := fmt.Sprintf("file:%s?cache=shared&_pragma=busy_timeout(2000)", filepath.ToSlash(path))
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	stmts := []string{
		`CREATE TABLE version (id INTEGER PRIMARY KEY CHECK(id=1), schema INTEGER NOT NULL, app TEXT, created_at TEXT NOT NULL, updated_at TEXT NOT NULL);`,
		`INSERT INTO version VALUES (1, 1, 'test', '2024-01-01T00:00:00Z', '2024-01-01T00:00:00Z');`,
		`CREATE TABLE generations (id INTEGER PRIMARY KEY, preset TEXT NOT NULL, config_hash TEXT NOT NULL, svg_path TEXT NOT NULL DEFAULT '', png_path TEXT NOT NULL DEFAULT '', pdf_path TEXT NOT NULL DEFAULT '', png_width INTEGER NOT NULL DEFAULT 0, created_at TEXT NOT NULL);`,
		`INSERT INTO generations (preset, config_hash, created_at) VALUES ('old', 'h', '2024-01-01T00:00:00.000000000Z');`,
	}
	for _, q := range stmts {
		if _, err := db.ExecContext(ctx, q); err != nil {
			t.Fatalf("seed v1: %v (q=%s)", err, q)
		}
	}
	_ = db.Close()

	c, err := OpenCatalog(ctx, Options{OutputDir: dir})
	if err != nil {
		t.Fatalf("OpenCatalog: %v", err)
	}
	defer c.Close()
	var schema int
	if err := c.db.QueryRowContext(ctx, `SELECT schema FROM version WHERE id=1`).Scan(&schema); err != nil {
		t.Fatalf("read schema: %v", err)
	}
	if schema != schemaVersion {
		t.Fatalf("schema = %d, want %d", schema, schemaVersion)
	}
	var cnt int
	if err := c.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sqlite_master WHERE type='index' AND name='idx_generations_preset'`).Scan(&cnt); err != nil {
		t.Fatalf("query index: %v", err)
	}
	if cnt != 1 {
		t.Fatalf("expected preset index after migration")
	}
	if g, err := c.Latest(ctx, "old"); err != nil || g.ConfigHash != "h" {
		t.Fatalf("old row not readable: %+v %v", g, err)
	}
}

func TestRebind(t *testing.T) {
	pg := &Catalog{driver: DriverPostgres}
	if got := pg.rebind(`SELECT a FROM t WHERE x = ? AND y = ?`); got != `SELECT a FROM t WHERE x = $1 AND y = $2` {
		t.Fatalf("rebind = %q", got)
	}
	lite := &Catalog{driver: DriverSQLite}
	if got := lite.rebind(`x = ?`); got != `x = ?` {
		t.Fatalf("sqlite rebind changed query: %q", got)
	}
}

func TestParseDriver(t *testing.T) {
	for in, want := range map[string]Driver{"": DriverSQLite, "SQLite": DriverSQLite, "pgx": DriverPostgres, "postgresql": DriverPostgres} {
		got, err := ParseDriver(in)
		if err != nil || got != want {
			t.Fatalf("ParseDriver(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParseDriver("mysql"); err == nil {
		t.Fatalf("expected error for mysql")
	}
}

// TestCatalogPostgres runs against a live server when LSY_TEST_PG_DSN is set.
func TestCatalogPostgres(t *testing.T) {
	dsn := os.Getenv("LSY_TEST_PG_DSN")
	if dsn == "" {
		t.Skip("LSY_TEST_PG_DSN not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	c, err := OpenCatalog(ctx, Options{Driver: DriverPostgres, DSN: dsn})
	if err != nil {
		t.Skipf("postgres not available: %v", err)
	}
	defer c.Close()
	preset := fmt.Sprintf("test-%d", time.Now().UnixNano())
	id, err := c.Record(ctx, Generation{Preset: preset, ConfigHash: "h"}, &Thumbnail{Width: 1, Height: 1, PNG: []byte{1}})
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	if g, err := c.Latest(ctx, preset); err != nil || g.ID != id {
		t.Fatalf("Latest: %+v %v", g, err)
	}
	if _, err := c.Thumbnail(ctx, id); err != nil {
		t.Fatalf("Thumbnail: %v", err)
	}
}
