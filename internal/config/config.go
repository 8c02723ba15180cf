/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// AppConfig is the user-editable configuration persisted to a YAML file in the user scope.
// Environment variables are read-only overrides applied at load time.
//
// config_version: bump when the structure changes in a backward-incompatible way.

type PathsConfig struct {
	FlagsDir     string `yaml:"flags_dir"`
	PresetsFile  string `yaml:"presets_file"`
	OutputDir    string `yaml:"output_dir"`
	TemplateFile string `yaml:"template_file"` // empty: built-in leaf template
}

type RenderConfig struct {
	PNGWidth       int  `yaml:"png_width"`
	Workers        int  `yaml:"workers"`
	PDF            bool `yaml:"pdf"`
	PNG            bool `yaml:"png"`
	ThumbnailWidth int  `yaml:"thumbnail_width"`
}

// LeavesConfig holds the path-data prefixes that locate each leaf in the template.
type LeavesConfig struct {
	Left  string `yaml:"left"`
	Top   string `yaml:"top"`
	Right string `yaml:"right"`
}

type CatalogConfig struct {
	Enabled bool   `yaml:"enabled"`
	Driver  string `yaml:"driver"` // "sqlite" | "postgres"
	DSN     string `yaml:"dsn"`
	// The Postgres password is not stored on disk; it lives in the OS keychain.
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Source bool   `yaml:"source"`
	File   string `yaml:"file"`
}

type AppConfig struct {
	ConfigVersion int           `yaml:"config_version"`
	Paths         PathsConfig   `yaml:"paths"`
	Render        RenderConfig  `yaml:"render"`
	Leaves        LeavesConfig  `yaml:"leaves"`
	Catalog       CatalogConfig `yaml:"catalog"`
	Logging       LoggingConfig `yaml:"logging"`
}

// Defaults returns the application defaults.
func Defaults() AppConfig {
	return AppConfig{
		ConfigVersion: 1,
		Paths:         PathsConfig{FlagsDir: "flags", PresetsFile: "presets.json", OutputDir: "output"},
		Render:        RenderConfig{PNGWidth: 600, Workers: 4, PDF: true, PNG: true, ThumbnailWidth: 160},
		Leaves:        LeavesConfig{Left: "m92.66,263.59c", Top: "m284.59,97c", Right: "m465.83,320.23c"},
		Catalog:       CatalogConfig{Enabled: true, Driver: "sqlite"},
		Logging:       LoggingConfig{Level: "info", Format: "console"},
	}
}

// EnvPrefix is prepended to every override variable.
const EnvPrefix = "LSY"

// Env var names used as overrides.
const (
	EnvConfigFile     = "LSY_CONFIG"
	EnvFlagsDir       = "LSY_FLAGS_DIR"
	EnvPresetsFile    = "LSY_PRESETS_FILE"
	EnvOutputDir      = "LSY_OUTPUT_DIR"
	EnvTemplateFile   = "LSY_TEMPLATE_FILE"
	EnvPNGWidth       = "LSY_PNG_WIDTH"
	EnvWorkers        = "LSY_WORKERS"
	EnvCatalogEnabled = "LSY_CATALOG_ENABLED"
	EnvCatalogDriver  = "LSY_CATALOG_DRIVER"
	EnvCatalogDSN     = "LSY_CATALOG_DSN"
	EnvLogLevel       = "LSY_LOG_LEVEL"
	EnvLogFormat      = "LSY_LOG_FORMAT"
	EnvLogSource      = "LSY_LOG_SOURCE"
	EnvLogFile        = "LSY_LOG_FILE"
)

// envOverrides is filled by envconfig; nil or empty fields are not set.
type envOverrides struct {
	FlagsDir       string `envconfig:"FLAGS_DIR"`
	PresetsFile    string `envconfig:"PRESETS_FILE"`
	OutputDir      string `envconfig:"OUTPUT_DIR"`
	TemplateFile   string `envconfig:"TEMPLATE_FILE"`
	PNGWidth       *int   `envconfig:"PNG_WIDTH"`
	Workers        *int   `envconfig:"WORKERS"`
	CatalogEnabled *bool  `envconfig:"CATALOG_ENABLED"`
	CatalogDriver  string `envconfig:"CATALOG_DRIVER"`
	CatalogDSN     string `envconfig:"CATALOG_DSN"`
	LogLevel       string `envconfig:"LOG_LEVEL"`
	LogFormat      string `envconfig:"LOG_FORMAT"`
	LogSource      *bool  `envconfig:"LOG_SOURCE"`
	LogFile        string `envconfig:"LOG_FILE"`
}

// envKeys maps dotted config keys to their override variables.
var envKeys = map[string]string{
	"paths.flags_dir":     EnvFlagsDir,
	"paths.presets_file":  EnvPresetsFile,
	"paths.output_dir":    EnvOutputDir,
	"paths.template_file": EnvTemplateFile,
	"render.png_width":    EnvPNGWidth,
	"render.workers":      EnvWorkers,
	"catalog.enabled":     EnvCatalogEnabled,
	"catalog.driver":      EnvCatalogDriver,
	"catalog.dsn":         EnvCatalogDSN,
	"logging.level":       EnvLogLevel,
	"logging.format":      EnvLogFormat,
	"logging.source":      EnvLogSource,
	"logging.file":        EnvLogFile,
}

// Service/keys for OS keyring.
const (
	keyringService  = "logostyler"
	keyringPassword = "catalog_password"
)

// secretStore abstracts the keyring, so we can stub it in tests.
var secretStore SecretStore = osKeyring{}

type SecretStore interface {
	Get(service, key string) (string, error)
	Set(service, key, value string) error
	Delete(service, key string) error
}

// osKeyring implements SecretStore with the functions from keyring_real.go.
type osKeyring struct{}

func (osKeyring) Get(service, key string) (string, error) { return keyringGet(service, key) }
func (osKeyring) Set(service, key, value string) error    { return keyringSet(service, key, value) }
func (osKeyring) Delete(service, key string) error        { return keyringDelete(service, key) }

// ConfigPath returns the per-user config file path. LSY_CONFIG overrides it.
func ConfigPath() (string, error) {
	if p := strings.TrimSpace(os.Getenv(EnvConfigFile)); p != "" {
		return p, nil
	}
	var base string
	switch runtime.GOOS {
	case "windows":
		base = os.Getenv("AppData")
		if base == "" {
			base = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		base = filepath.Join(base, "LogoStyler")
	case "darwin":
		base = filepath.Join(os.Getenv("HOME"), "Library", "Application Support", "LogoStyler")
	default:
		base = filepath.Join(os.Getenv("HOME"), ".config", "logostyler")
	}
	if base == "" {
		return "", errors.New("cannot resolve config directory")
	}
	return filepath.Join(base, "config.yaml"), nil
}

// Load reads the user config file (if present), applies defaults and merges environment overrides.
// The catalog password comes from the keyring and is returned separately.
func Load() (AppConfig, string, error) {
	path, err := ConfigPath()
	if err != nil {
		return Defaults(), "", err
	}
	cfg, err := LoadFile(path)
	if err != nil {
		return cfg, "", err
	}
	pw, _ := secretStore.Get(keyringService, keyringPassword)
	return cfg, pw, nil
}

// LoadFile is Load for an explicit path without the keyring lookup. A
// missing file yields the defaults; a malformed one is an error.
func LoadFile(path string) (AppConfig, error) {
	cfg := Defaults()
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		// decode over defaults so keys missing from the file keep their default
		fileCfg := Defaults()
		if err := yaml.Unmarshal(data, &fileCfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", path, err)
		}
		mergeInto(&cfg, &fileCfg)
	case !errors.Is(err, os.ErrNotExist):
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := applyEnvOverrides(&cfg); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

// Save writes the user config YAML and persists the catalog password into the OS keyring (if non-empty).
func Save(cfg AppConfig, password string) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	if err := SaveFile(cfg, path); err != nil {
		return err
	}
	if password != "" {
		if err := secretStore.Set(keyringService, keyringPassword, password); err != nil {
			return fmt.Errorf("store catalog password: %w", err)
		}
	}
	return nil
}

// SaveFile writes cfg as YAML to path.
func SaveFile(cfg AppConfig, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

// CatalogPassword reads the catalog password from the keyring. A missing
// entry yields an empty password.
func CatalogPassword() (string, error) {
	pw, err := secretStore.Get(keyringService, keyringPassword)
	if errors.Is(err, errSecretNotFound) {
		return "", nil
	}
	return pw, err
}

// ForgetPassword removes the catalog password from the keyring.
func ForgetPassword() error { return secretStore.Delete(keyringService, keyringPassword) }

// Validate checks values that would otherwise fail deep inside a run.
func (c AppConfig) Validate() error {
	var errs []error
	if c.Render.PNGWidth <= 0 {
		errs = append(errs, fmt.Errorf("render.png_width must be positive, got %d", c.Render.PNGWidth))
	}
	if c.Render.Workers < 1 {
		errs = append(errs, fmt.Errorf("render.workers must be at least 1, got %d", c.Render.Workers))
	}
	switch c.Catalog.Driver {
	case "sqlite", "postgres":
	default:
		errs = append(errs, fmt.Errorf("catalog.driver %q is not sqlite or postgres", c.Catalog.Driver))
	}
	if c.Catalog.Enabled && c.Catalog.Driver == "postgres" && strings.TrimSpace(c.Catalog.DSN) == "" {
		errs = append(errs, errors.New("catalog.dsn is required for the postgres driver"))
	}
	return errors.Join(errs...)
}

func mergeInto(dst *AppConfig, src *AppConfig) {
	if src.ConfigVersion != 0 {
		dst.ConfigVersion = src.ConfigVersion
	}
	setString(&dst.Paths.FlagsDir, src.Paths.FlagsDir)
	setString(&dst.Paths.PresetsFile, src.Paths.PresetsFile)
	setString(&dst.Paths.OutputDir, src.Paths.OutputDir)
	setString(&dst.Paths.TemplateFile, src.Paths.TemplateFile)
	if src.Render.PNGWidth != 0 {
		dst.Render.PNGWidth = src.Render.PNGWidth
	}
	if src.Render.Workers != 0 {
		dst.Render.Workers = src.Render.Workers
	}
	if src.Render.ThumbnailWidth != 0 {
		dst.Render.ThumbnailWidth = src.Render.ThumbnailWidth
	}
	// booleans: copy directly from src (file) so user preferences persist
	dst.Render.PDF = src.Render.PDF
	dst.Render.PNG = src.Render.PNG
	dst.Catalog.Enabled = src.Catalog.Enabled
	setString(&dst.Leaves.Left, src.Leaves.Left)
	setString(&dst.Leaves.Top, src.Leaves.Top)
	setString(&dst.Leaves.Right, src.Leaves.Right)
	if v := strings.ToLower(strings.TrimSpace(src.Catalog.Driver)); v != "" {
		dst.Catalog.Driver = v
	}
	setString(&dst.Catalog.DSN, src.Catalog.DSN)
	if v := strings.ToLower(strings.TrimSpace(src.Logging.Level)); v != "" {
		dst.Logging.Level = v
	}
	if v := strings.ToLower(strings.TrimSpace(src.Logging.Format)); v != "" {
		dst.Logging.Format = v
	}
	dst.Logging.Source = src.Logging.Source
	setString(&dst.Logging.File, src.Logging.File)
}

func setString(dst *string, v string) {
	if v = strings.TrimSpace(v); v != "" {
		*dst = v
	}
}

func applyEnvOverrides(cfg *AppConfig) error {
	var env envOverrides
	if err := envconfig.Process(EnvPrefix, &env); err != nil {
		return fmt.Errorf("env overrides: %w", err)
	}
	setString(&cfg.Paths.FlagsDir, env.FlagsDir)
	setString(&cfg.Paths.PresetsFile, env.PresetsFile)
	setString(&cfg.Paths.OutputDir, env.OutputDir)
	setString(&cfg.Paths.TemplateFile, env.TemplateFile)
	if env.PNGWidth != nil {
		cfg.Render.PNGWidth = *env.PNGWidth
	}
	if env.Workers != nil {
		cfg.Render.Workers = *env.Workers
	}
	if env.CatalogEnabled != nil {
		cfg.Catalog.Enabled = *env.CatalogEnabled
	}
	if v := strings.ToLower(strings.TrimSpace(env.CatalogDriver)); v != "" {
		cfg.Catalog.Driver = v
	}
	setString(&cfg.Catalog.DSN, env.CatalogDSN)
	if v := strings.ToLower(strings.TrimSpace(env.LogLevel)); v != "" {
		cfg.Logging.Level = v
	}
	if v := strings.ToLower(strings.TrimSpace(env.LogFormat)); v != "" {
		cfg.Logging.Format = v
	}
	if env.LogSource != nil {
		cfg.Logging.Source = *env.LogSource
	}
	setString(&cfg.Logging.File, env.LogFile)
	return nil
}

// EnvOverrideFor returns the env var name if the field is overridden by environment variables.
func EnvOverrideFor(key string) (string, bool) {
	name, ok := envKeys[key]
	if !ok {
		return "", false
	}
	if v, set := os.LookupEnv(name); set && strings.TrimSpace(v) != "" {
		return name, true
	}
	return "", false
}
