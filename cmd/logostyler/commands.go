/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"

	"logostyler/internal/bundle"
	"logostyler/internal/compose"
	"logostyler/internal/config"
	"logostyler/internal/export"
	"logostyler/internal/gradient"
	applog "logostyler/internal/log"
	"logostyler/internal/palette"
	"logostyler/internal/planner"
	"logostyler/internal/storage"
	"logostyler/internal/ui"
)

// leafFlags are the per-leaf options of generate.
type leafFlags struct {
	role       planner.Role
	country    string
	fillType   string
	direction  string
	transition float64
	zoom       float64
	panX       float64
	panY       float64
}

func (lf *leafFlags) register(fs *flag.FlagSet) {
	p := string(lf.role) + "-"
	name := lf.role.Title()
	fs.StringVar(&lf.country, p+"country", "", name+" leaf country name or code (e.g. \"Italy\" or \"it\")")
	fs.StringVar(&lf.fillType, p+"fill-type", string(planner.StrategyGradient), name+" leaf fill: gradient|flag-svg")
	fs.StringVar(&lf.direction, p+"direction", string(gradient.Horizontal), name+" leaf gradient direction: horizontal|vertical")
	fs.Float64Var(&lf.transition, p+"transition", export.DefaultTransition, name+" leaf gradient transition softness (0-100)")
	fs.Float64Var(&lf.zoom, p+"zoom", export.DefaultZoom, name+" leaf flag zoom (25-400)")
	fs.Float64Var(&lf.panX, p+"pan-x", 0, name+" leaf flag horizontal pan (-100 to 100)")
	fs.Float64Var(&lf.panY, p+"pan-y", 0, name+" leaf flag vertical pan (-100 to 100)")
}

// apply overrides base with the flags that were set explicitly.
func (lf *leafFlags) apply(base planner.LeafFillConfig, set map[string]bool) (planner.LeafFillConfig, bool, error) {
	p := string(lf.role) + "-"
	touched := false
	for name := range set {
		if strings.HasPrefix(name, p) {
			touched = true
		}
	}
	if !touched {
		return base, false, nil
	}
	cfg := base
	if set[p+"country"] {
		cfg.Country = strings.TrimSpace(lf.country)
	}
	if set[p+"fill-type"] {
		s, err := planner.ParseStrategy(lf.fillType)
		if err != nil {
			return cfg, true, fmt.Errorf("--%sfill-type: %w", p, err)
		}
		cfg.Strategy = s
	}
	if set[p+"direction"] {
		d, err := gradient.ParseDirection(lf.direction)
		if err != nil {
			return cfg, true, usageErr("--%sdirection: %v", p, err)
		}
		cfg.Direction = d
	}
	if set[p+"transition"] {
		cfg.Transition = lf.transition
	}
	if set[p+"zoom"] {
		cfg.Zoom = lf.zoom
	}
	if set[p+"pan-x"] {
		cfg.PanX = lf.panX
	}
	if set[p+"pan-y"] {
		cfg.PanY = lf.panY
	}
	if cfg.Country == "" {
		return cfg, true, usageErr("--%scountry is required when other %s options are given", p, lf.role)
	}
	return cfg, true, nil
}

func (a *cli) generate(args []string) error {
	fs := a.flagSet("generate")
	var out, presetName, presetsFile string
	fs.StringVar(&out, "o", "", "output path without extension")
	fs.StringVar(&out, "output", "", "output path without extension")
	fs.StringVar(&presetName, "preset", "", "start from a named preset")
	fs.StringVar(&presetsFile, "presets", a.cfg.Paths.PresetsFile, "presets file")
	pngWidth := fs.Int("png-width", a.cfg.Render.PNGWidth, "PNG width in pixels")
	noPNG := fs.Bool("no-png", !a.cfg.Render.PNG, "skip the PNG file")
	noPDF := fs.Bool("no-pdf", !a.cfg.Render.PDF, "skip the PDF file")
	leaves := make([]*leafFlags, 0, len(planner.Roles))
	for _, r := range planner.Roles {
		lf := &leafFlags{role: r}
		lf.register(fs)
		leaves = append(leaves, lf)
	}
	if err := parse(fs, args); err != nil {
		return err
	}
	if out == "" {
		return usageErr("generate requires -o <base>")
	}
	if *pngWidth <= 0 {
		return usageErr("--png-width must be positive")
	}
	set := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })

	req := compose.Request{Leaves: map[planner.Role]planner.LeafFillConfig{}}
	if presetName != "" {
		ps, err := export.LoadPresetsFile(presetsFile)
		if err != nil {
			return err
		}
		p, ok := ps.Get(presetName)
		if !ok {
			return usageErr("preset %q not found in %s", presetName, presetsFile)
		}
		if req, err = p.Request(); err != nil {
			return err
		}
	}
	pal := palette.Default()
	for _, lf := range leaves {
		base, ok := req.Leaves[lf.role]
		if !ok {
			base = planner.DefaultConfig(lf.role, "")
		}
		cfg, touched, err := lf.apply(base, set)
		if err != nil {
			return err
		}
		if touched {
			req.Leaves[lf.role] = cfg
		}
	}
	if len(req.Leaves) == 0 {
		return usageErr("at least one leaf must be configured; use --left-country, --top-country or --right-country")
	}
	for _, role := range planner.Roles {
		cfg, ok := req.Leaves[role]
		if !ok {
			continue
		}
		if err := cfg.Validate(); err != nil {
			return err
		}
		if _, err := pal.Resolve(cfg.Country); err != nil {
			return usageErr("--%s-country %q: %v", role, cfg.Country, err)
		}
	}

	c, err := a.composer()
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	logo, err := c.Compose(ctx, req)
	if err != nil {
		return err
	}
	opt := export.Options{PNG: !*noPNG, PDF: !*noPDF, PNGWidth: *pngWidth}
	files, _, err := export.Generate(logo, out, opt)
	if err != nil {
		return err
	}
	for _, f := range files.Paths() {
		_, _ = fmt.Fprintln(a.stdout, "wrote", f)
	}
	if lerr := logo.Err(); lerr != nil {
		return fmt.Errorf("some leaves were not styled: %w", lerr)
	}
	return nil
}

func (a *cli) generateAll(args []string) error {
	fs := a.flagSet("generate-all")
	var outDir string
	fs.StringVar(&outDir, "o", a.cfg.Paths.OutputDir, "output directory")
	fs.StringVar(&outDir, "output", a.cfg.Paths.OutputDir, "output directory")
	presetsFile := fs.String("presets", a.cfg.Paths.PresetsFile, "presets file")
	pngWidth := fs.Int("png-width", a.cfg.Render.PNGWidth, "PNG width in pixels")
	workers := fs.Int("workers", a.cfg.Render.Workers, "presets generated in parallel")
	force := fs.Bool("force", false, "regenerate presets the catalog reports as unchanged")
	noCatalog := fs.Bool("no-catalog", !a.cfg.Catalog.Enabled, "do not record generations")
	if err := parse(fs, args); err != nil {
		return err
	}
	if *pngWidth <= 0 || *workers <= 0 {
		return usageErr("--png-width and --workers must be positive")
	}
	ps, err := export.LoadPresetsFile(*presetsFile)
	if err != nil {
		return err
	}
	c, err := a.composer()
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	opt := export.BatchOptions{
		Options: export.Options{
			PNG:            a.cfg.Render.PNG,
			PDF:            a.cfg.Render.PDF,
			PNGWidth:       *pngWidth,
			ThumbnailWidth: a.cfg.Render.ThumbnailWidth,
		},
		Workers: *workers,
		Force:   *force,
	}
	if !*noCatalog {
		cat, err := a.openCatalog(ctx, outDir)
		if err != nil {
			return err
		}
		defer func() { _ = cat.Close() }()
		opt.Catalog = cat
	}

	start := time.Now()
	ctx = applog.ContextWithRun(ctx, uuid.NewString()[:8])
	results, err := export.BatchGenerate(ctx, c, ps, outDir, opt)
	if err != nil {
		return err
	}
	failed := 0
	for _, r := range results {
		switch {
		case r.Err != nil:
			failed++
			_, _ = fmt.Fprintf(a.stderr, "%s: %v\n", r.Preset, r.Err)
		case r.Skipped:
			_, _ = fmt.Fprintf(a.stdout, "%s: unchanged\n", r.Preset)
		default:
			_, _ = fmt.Fprintf(a.stdout, "%s: %s\n", r.Preset, strings.Join(r.Files.Paths(), ", "))
			for _, is := range r.Issues {
				_, _ = fmt.Fprintf(a.stderr, "%s: %v\n", r.Preset, is)
			}
		}
	}
	_, _ = fmt.Fprintf(a.stdout, "%d presets in %s\n", len(results), time.Since(start).Round(time.Millisecond))
	if failed > 0 {
		return fmt.Errorf("%d of %d presets failed", failed, len(results))
	}
	return nil
}

func (a *cli) openCatalog(ctx context.Context, outDir string) (*storage.Catalog, error) {
	drv, err := storage.ParseDriver(a.cfg.Catalog.Driver)
	if err != nil {
		return nil, err
	}
	opt := storage.Options{Driver: drv, OutputDir: outDir, DSN: a.cfg.Catalog.DSN}
	if drv == storage.DriverPostgres {
		if opt.Password, err = config.CatalogPassword(); err != nil {
			a.log.Warn("catalog password unavailable", "err", err)
		}
	}
	return storage.OpenCatalog(ctx, opt)
}

func (a *cli) bundle(args []string) error {
	fs := a.flagSet("bundle")
	var src, out string
	fs.StringVar(&src, "s", a.cfg.Paths.OutputDir, "source directory with <pair>.svg/.pdf/.png files")
	fs.StringVar(&src, "source", a.cfg.Paths.OutputDir, "source directory")
	fs.StringVar(&out, "o", "", "output directory for .imageset folders")
	fs.StringVar(&out, "output", "", "output directory")
	suffix := fs.String("raster-suffix", bundle.DefaultRasterSuffix, "suffix of raster imagesets next to vector ones")
	clean := fs.Bool("clean", false, "delete the output directory first")
	zipPath := fs.String("zip", "", "also write the catalog to this zip file")
	if err := parse(fs, args); err != nil {
		return err
	}
	if out == "" {
		return usageErr("bundle requires -o <out>")
	}
	rep, err := bundle.Build(bundle.Options{Source: src, Output: out, RasterSuffix: *suffix, Clean: *clean})
	if err != nil {
		return err
	}
	for _, s := range rep.Imagesets {
		kind := "raster"
		if s.Vector {
			kind = "vector"
		}
		_, _ = fmt.Fprintf(a.stdout, "%s\t%s\t%s\n", s.Name, kind, filepath.Base(s.Source))
	}
	if *zipPath != "" {
		n, err := bundle.Zip(out, *zipPath)
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintf(a.stdout, "archived %d files to %s\n", n, *zipPath)
	}
	return nil
}

func (a *cli) palette(args []string) error {
	if len(args) == 0 {
		return usageErr("palette requires check or list")
	}
	pal := palette.Default()
	switch args[0] {
	case "list":
		tw := tabwriter.NewWriter(a.stdout, 0, 4, 2, ' ', 0)
		for _, name := range pal.Names() {
			e, err := pal.Resolve(name)
			if err != nil {
				continue
			}
			_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\n", e.Code, e.Name, strings.Join(e.Colors, " "))
		}
		return tw.Flush()
	case "check":
		rep := pal.Check()
		printList := func(title string, items []string) {
			if len(items) == 0 {
				return
			}
			_, _ = fmt.Fprintf(a.stdout, "%s (%d):\n", title, len(items))
			for _, it := range items {
				_, _ = fmt.Fprintf(a.stdout, "  %s\n", it)
			}
		}
		printList("countries with colours but no code", rep.MissingCodes)
		printList("countries with a code but no colours", rep.MissingColors)
		printList("invalid colours", rep.InvalidColors)
		printList("codes used twice", rep.DuplicateCode)
		if !rep.OK() {
			return fmt.Errorf("palette tables are inconsistent")
		}
		_, _ = fmt.Fprintf(a.stdout, "palette OK: %d countries\n", len(pal.Names()))
		return nil
	}
	return usageErr("unknown palette command %q", args[0])
}

func (a *cli) catalog(args []string) error {
	if len(args) == 0 || args[0] != "list" {
		return usageErr("catalog requires list")
	}
	fs := a.flagSet("catalog list")
	var outDir string
	fs.StringVar(&outDir, "o", a.cfg.Paths.OutputDir, "output directory holding the catalog")
	limit := fs.Int("limit", 20, "number of generations to show")
	if err := parse(fs, args[1:]); err != nil {
		return err
	}
	ctx := context.Background()
	cat, err := a.openCatalog(ctx, outDir)
	if err != nil {
		return err
	}
	defer func() { _ = cat.Close() }()
	gens, err := cat.List(ctx, *limit)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(a.stdout, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "ID\tPRESET\tCREATED\tPNG WIDTH\tFILES")
	for _, g := range gens {
		_, _ = fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%s\n", g.ID, g.Preset, g.CreatedAt.Local().Format(time.DateTime), g.PNGWidth, strings.Join(g.Files(), ", "))
	}
	return tw.Flush()
}

func (a *cli) ui(args []string) error {
	fs := a.flagSet("ui")
	presetsFile := fs.String("presets", a.cfg.Paths.PresetsFile, "presets offered in the editor")
	if err := parse(fs, args); err != nil {
		return err
	}
	c, err := a.composer()
	if err != nil {
		return err
	}
	d := ui.Deps{
		Composer:  c,
		Palette:   palette.Default(),
		OutputDir: a.cfg.Paths.OutputDir,
		CrashDir:  crashDir(a.cfg),
	}
	if ps, err := export.LoadPresetsFile(*presetsFile); err == nil {
		d.Presets = ps
	} else if !errors.Is(err, os.ErrNotExist) {
		a.log.Warn("presets not loaded", "path", *presetsFile, "err", err)
	}
	return ui.Run(d)
}
