/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type memSecrets map[string]string

func (m memSecrets) Get(service, key string) (string, error) { return m[service+"/"+key], nil }
func (m memSecrets) Set(service, key, value string) error {
	m[service+"/"+key] = value
	return nil
}
func (m memSecrets) Delete(service, key string) error {
	delete(m, service+"/"+key)
	return nil
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(p, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return p
}

func TestLoadFileMissingGivesDefaults(t *testing.T) {
	cfg, err := LoadFile(filepath.Join(t.TempDir(), "none.yaml"))
	if err != nil {
		t.Fatalf("LoadFile() error: %v", err)
	}
	if cfg.Render.PNGWidth != 600 || !cfg.Render.PNG || !cfg.Render.PDF {
		t.Fatalf("unexpected render defaults: %#v", cfg.Render)
	}
	if cfg.Leaves.Top != "m284.59,97c" {
		t.Fatalf("Leaves.Top = %q", cfg.Leaves.Top)
	}
}

func TestLoadFilePartialKeepsDefaults(t *testing.T) {
	p := writeConfig(t, "render:\n  png_width: 1200\npaths:\n  flags_dir: /srv/flags\nlogging:\n  level: DEBUG\n")
	cfg, err := LoadFile(p)
	if err != nil {
		t.Fatalf("LoadFile() error: %v", err)
	}
	if cfg.Render.PNGWidth != 1200 {
		t.Fatalf("PNGWidth = %d, want 1200", cfg.Render.PNGWidth)
	}
	if !cfg.Render.PNG || !cfg.Render.PDF || !cfg.Catalog.Enabled {
		t.Fatalf("booleans missing from the file must keep their defaults: %#v", cfg)
	}
	if cfg.Paths.FlagsDir != "/srv/flags" || cfg.Paths.PresetsFile != "presets.json" {
		t.Fatalf("paths not merged correctly: %#v", cfg.Paths)
	}
	if cfg.Logging.Level != "debug" {
		t.Fatalf("Logging.Level = %q, want debug", cfg.Logging.Level)
	}
}

func TestLoadFileMalformed(t *testing.T) {
	p := writeConfig(t, "render: [1, 2")
	if _, err := LoadFile(p); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestMergeIncludesLogging(t *testing.T) {
	dst := Defaults()
	src := Defaults()
	src.Logging.Level = "debug"
	src.Logging.Format = "json"
	src.Logging.Source = true
	src.Logging.File = "/tmp/lsy.log"
	mergeInto(&dst, &src)
	if dst.Logging.Level != "debug" || dst.Logging.Format != "json" || !dst.Logging.Source || dst.Logging.File != "/tmp/lsy.log" {
		t.Fatalf("logging fields not merged correctly: %#v", dst.Logging)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv(EnvOutputDir, "/out")
	t.Setenv(EnvPNGWidth, "900")
	t.Setenv(EnvWorkers, "2")
	t.Setenv(EnvCatalogEnabled, "false")
	t.Setenv(EnvLogSource, "true")
	t.Setenv(EnvLogFormat, "JSON")
	cfg, err := LoadFile(filepath.Join(t.TempDir(), "none.yaml"))
	if err != nil {
		t.Fatalf("LoadFile() error: %v", err)
	}
	if cfg.Paths.OutputDir != "/out" || cfg.Render.PNGWidth != 900 || cfg.Render.Workers != 2 {
		t.Fatalf("env overrides not applied: %#v", cfg)
	}
	if cfg.Catalog.Enabled {
		t.Fatalf("Catalog.Enabled should be false from env")
	}
	if !cfg.Logging.Source || cfg.Logging.Format != "json" {
		t.Fatalf("env overrides not applied to logging: %#v", cfg.Logging)
	}
	if name, ok := EnvOverrideFor("render.png_width"); !ok || name != EnvPNGWidth {
		t.Fatalf("EnvOverrideFor(render.png_width) = %q, %v", name, ok)
	}
	if _, ok := EnvOverrideFor("paths.flags_dir"); ok {
		t.Fatalf("paths.flags_dir is not overridden")
	}
	if _, ok := EnvOverrideFor("nope"); ok {
		t.Fatalf("unknown key reported as overridden")
	}
}

func TestEnvOverrideInvalidNumber(t *testing.T) {
	t.Setenv(EnvPNGWidth, "wide")
	if _, err := LoadFile(filepath.Join(t.TempDir(), "none.yaml")); err == nil {
		t.Fatalf("expected error for non-numeric %s", EnvPNGWidth)
	}
}

func TestValidate(t *testing.T) {
	cfg := Defaults()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults invalid: %v", err)
	}
	cfg.Render.PNGWidth = 0
	cfg.Catalog.Driver = "mysql"
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected validation error")
	}
	cfg = Defaults()
	cfg.Catalog.Driver = "postgres"
	if err := cfg.Validate(); err == nil {
		t.Fatalf("postgres without dsn should fail")
	}
}

func TestSaveLoadRoundTripKeepsPasswordOffDisk(t *testing.T) {
	old := secretStore
	secrets := memSecrets{}
	secretStore = secrets
	t.Cleanup(func() { secretStore = old })

	path := filepath.Join(t.TempDir(), "sub", "config.yaml")
	t.Setenv(EnvConfigFile, path)

	cfg := Defaults()
	cfg.Catalog.Driver = "postgres"
	cfg.Catalog.DSN = "postgres://lsy@db/logos"
	if err := Save(cfg, "s3cret"); err != nil {
		t.Fatalf("Save() error: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read saved config: %v", err)
	}
	if string(data) == "" || strings.Contains(string(data), "s3cret") {
		t.Fatalf("password leaked into config file:\n%s", data)
	}
	got, pw, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if got.Catalog.DSN != cfg.Catalog.DSN || pw != "s3cret" {
		t.Fatalf("round trip mismatch: %#v pw=%q", got.Catalog, pw)
	}
	if err := ForgetPassword(); err != nil {
		t.Fatalf("ForgetPassword() error: %v", err)
	}
	if _, pw, _ = Load(); pw != "" {
		t.Fatalf("password still present after ForgetPassword")
	}
}

func TestCatalogPasswordMissingIsEmpty(t *testing.T) {
	old := secretStore
	secretStore = memSecrets{}
	t.Cleanup(func() { secretStore = old })
	pw, err := CatalogPassword()
	if err != nil || pw != "" {
		t.Fatalf("CatalogPassword() = %q, %v; want empty, nil", pw, err)
	}
}
