/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"logostyler/internal/compose"
	"logostyler/internal/config"
	"logostyler/internal/crash"
	"logostyler/internal/flags"
	applog "logostyler/internal/log"
	"logostyler/internal/palette"
	"logostyler/internal/planner"
	"logostyler/internal/storage"
	"logostyler/internal/version"
)

// Exit codes.
const (
	exitOK      = 0
	exitFailure = 1
	exitUsage   = 2
)

// errUsage marks errors caused by bad arguments.
var errUsage = errors.New("usage")

func usage(w io.Writer) {
	_, _ = fmt.Fprintln(w, "logostyler: style the leaves of a logo with national colours")
	_, _ = fmt.Fprintf(w, "Version: %s\n", version.String())
	_, _ = fmt.Fprintln(w)
	_, _ = fmt.Fprintln(w, "Usage:")
	_, _ = fmt.Fprintln(w, "  logostyler version                         Show version")
	_, _ = fmt.Fprintln(w, "  logostyler generate -o <base> [options]    Write <base>.svg/.png/.pdf for one logo")
	_, _ = fmt.Fprintln(w, "  logostyler generate-all [-o <dir>]         Generate every preset in presets.json")
	_, _ = fmt.Fprintln(w, "  logostyler bundle -s <src> -o <out>        Build .imageset folders from generated logos")
	_, _ = fmt.Fprintln(w, "  logostyler palette check|list              Check or list the country tables")
	_, _ = fmt.Fprintln(w, "  logostyler catalog list [--limit N]        Show recent generations")
	_, _ = fmt.Fprintln(w, "  logostyler ui                              Launch desktop UI (build with -tags fyne)")
	_, _ = fmt.Fprintln(w)
	_, _ = fmt.Fprintln(w, "Run 'logostyler <command> -h' for command options.")
}

func main() {
	cfg, err := loadConfig()
	if err != nil {
		_, _ = fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(exitUsage)
	}
	applog.Init(applog.Options{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		AddSource: cfg.Logging.Source,
		File:      cfg.Logging.File,
	})
	code := func() int {
		cmd := ""
		if len(os.Args) > 1 {
			cmd = os.Args[1]
		}
		defer crash.Recover(crash.Info{Dir: crashDir(cfg), Command: cmd, Args: os.Args[min(2, len(os.Args)):]})
		return run(cfg, os.Args[1:], os.Stdout, os.Stderr)
	}()
	os.Exit(code)
}

func loadConfig() (config.AppConfig, error) {
	path, err := config.ConfigPath()
	if err != nil {
		return config.Defaults(), err
	}
	return config.LoadFile(path)
}

func crashDir(cfg config.AppConfig) string {
	return filepath.Join(cfg.Paths.OutputDir, storage.CatalogDirName, "crash")
}

// run dispatches a command and returns the process exit code.
func run(cfg config.AppConfig, args []string, stdout, stderr io.Writer) int {
	l := applog.WithComponent("cli")
	l.Debug("start", slog.Int("args", len(args)))
	if len(args) == 0 {
		usage(stderr)
		return exitUsage
	}
	a := &cli{cfg: cfg, stdout: stdout, stderr: stderr, log: l}
	var err error
	switch args[0] {
	case "version", "--version", "-v":
		_, _ = fmt.Fprintln(stdout, "logostyler", version.String())
		return exitOK
	case "help", "-h", "--help":
		usage(stdout)
		return exitOK
	case "generate":
		err = a.generate(args[1:])
	case "generate-all":
		err = a.generateAll(args[1:])
	case "bundle":
		err = a.bundle(args[1:])
	case "palette":
		err = a.palette(args[1:])
	case "catalog":
		err = a.catalog(args[1:])
	case "ui":
		err = a.ui(args[1:])
	default:
		_, _ = fmt.Fprintf(stderr, "unknown command %q\n\n", args[0])
		usage(stderr)
		return exitUsage
	}
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, flag.ErrHelp):
		return exitOK
	case errors.Is(err, errUsage), errors.Is(err, planner.ErrInvalidConfig):
		_, _ = fmt.Fprintln(stderr, "Error:", err)
		return exitUsage
	default:
		l.Error("command failed", slog.String("cmd", args[0]), slog.Any("err", err))
		_, _ = fmt.Fprintln(stderr, "Error:", err)
		return exitFailure
	}
}

// cli carries the loaded configuration into the commands.
type cli struct {
	cfg    config.AppConfig
	stdout io.Writer
	stderr io.Writer
	log    *slog.Logger
}

func (a *cli) flagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	return fs
}

// parse wraps flag errors as usage errors.
func parse(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return err
		}
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	if fs.NArg() > 0 {
		return fmt.Errorf("%w: unexpected arguments %v", errUsage, fs.Args())
	}
	return nil
}

func usageErr(format string, args ...any) error {
	return fmt.Errorf("%w: %s", errUsage, fmt.Sprintf(format, args...))
}

// composer builds the composition pipeline from the configuration.
func (a *cli) composer() (*compose.Composer, error) {
	tpl := compose.DefaultTemplate()
	if p := a.cfg.Paths.TemplateFile; p != "" {
		f, err := os.Open(p)
		if err != nil {
			return nil, fmt.Errorf("open template: %w", err)
		}
		defer func() { _ = f.Close() }()
		if tpl, err = compose.LoadTemplate(f); err != nil {
			return nil, err
		}
	}
	p := planner.New(palette.Default(), flags.DirStore(a.cfg.Paths.FlagsDir))
	c := compose.New(tpl, p)
	for role, prefix := range map[planner.Role]string{
		planner.Left:  a.cfg.Leaves.Left,
		planner.Top:   a.cfg.Leaves.Top,
		planner.Right: a.cfg.Leaves.Right,
	} {
		if prefix != "" {
			c.Selectors[role] = compose.Selector{Prefix: prefix}
		}
	}
	c.Workers = a.cfg.Render.Workers
	return c, nil
}
