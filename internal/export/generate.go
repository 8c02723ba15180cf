/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"logostyler/internal/compose"
	applog "logostyler/internal/log"
	"logostyler/internal/storage"
)

// Options selects the formats written next to the SVG.
type Options struct {
	PNG            bool
	PDF            bool
	PNGWidth       int
	ThumbnailWidth int
}

// DefaultOptions writes every format at the default raster width.
func DefaultOptions() Options {
	return Options{PNG: true, PDF: true, PNGWidth: DefaultPNGWidth, ThumbnailWidth: 160}
}

// Files lists what Generate wrote. Empty paths were not requested.
type Files struct {
	SVG string
	PNG string
	PDF string
}

// Paths returns the non-empty file paths.
func (f Files) Paths() []string {
	var out []string
	for _, p := range []string{f.SVG, f.PNG, f.PDF} {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// BasePath strips a trailing extension from an output path, so that
// "out/logo.svg" and "out/logo" both yield "out/logo".
func BasePath(p string) string {
	return strings.TrimSuffix(p, filepath.Ext(p))
}

// Generate writes <base>.svg and, when enabled, <base>.png and <base>.pdf.
// The returned image is the PNG raster, or nil when no raster was needed.
func Generate(logo *compose.Logo, base string, opt Options) (Files, *image.RGBA, error) {
	base = BasePath(base)
	var files Files
	if err := os.MkdirAll(filepath.Dir(base), 0o755); err != nil {
		return files, nil, fmt.Errorf("ensure out dir: %w", err)
	}
	files.SVG = base + ".svg"
	if err := WriteSVG(logo, files.SVG); err != nil {
		return files, nil, err
	}
	var img *image.RGBA
	if opt.PNG || opt.PDF {
		var err error
		if img, err = RenderPNG(logo, opt.PNGWidth); err != nil {
			return files, nil, err
		}
	}
	if opt.PNG {
		files.PNG = base + ".png"
		if err := WritePNG(img, files.PNG); err != nil {
			return files, img, err
		}
	}
	if opt.PDF {
		files.PDF = base + ".pdf"
		pdfImg := image.Image(img)
		if w, _ := logo.Template.Size(); float64(opt.PNGWidth) < 2*w {
			// low-resolution PNG; rasterize again for print
			pdfImg = nil
		}
		if err := WritePDF(logo, pdfImg, files.PDF, PDFOptions{Title: filepath.Base(base)}); err != nil {
			return files, img, err
		}
	}
	return files, img, nil
}

// Catalog is the part of storage.Catalog used by bulk generation.
type Catalog interface {
	Latest(ctx context.Context, preset string) (storage.Generation, error)
	Record(ctx context.Context, g storage.Generation, thumb *storage.Thumbnail) (int64, error)
}

// BatchOptions configure BatchGenerate.
type BatchOptions struct {
	Options
	Workers int
	Force   bool    // regenerate even when the catalog says nothing changed
	Catalog Catalog // optional
	Logger  *slog.Logger
}

// BatchResult is the outcome for one preset.
type BatchResult struct {
	Preset       string
	Files        Files
	Skipped      bool
	GenerationID int64
	Issues       []compose.LeafIssue
	Err          error
}

// BatchGenerate composes and writes every preset into outDir/<name>.*.
// Results are returned in preset name order; a failing preset does not stop
// the others. The returned error is non-nil only for setup failures or a
// cancelled context.
func BatchGenerate(ctx context.Context, c *compose.Composer, presets *Presets, outDir string, opt BatchOptions) ([]BatchResult, error) {
	if c == nil || presets == nil {
		return nil, errors.New("composer and presets are required")
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure out dir: %w", err)
	}
	log := opt.Logger
	if log == nil {
		log = applog.WithComponent("export")
	}
	log = applog.WithOperation(log, "generate_all")

	names := presets.Names()
	log.InfoContext(ctx, "generating presets", "presets", len(names), "workers", max(1, opt.Workers), "force", opt.Force)
	results := make([]BatchResult, len(names))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, opt.Workers))
	for i, name := range names {
		p, _ := presets.Get(name)
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = generatePreset(applog.ContextWithPreset(gctx, name), c, p, outDir, opt, log)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, ctx.Err()
}

func generatePreset(ctx context.Context, c *compose.Composer, p Preset, outDir string, opt BatchOptions, log *slog.Logger) BatchResult {
	res := BatchResult{Preset: p.Name}
	req, err := p.Request()
	if err != nil {
		res.Err = err
		return res
	}
	hash := ConfigHash(req, opt.Options)
	base := filepath.Join(outDir, p.Name)

	if !opt.Force && opt.Catalog != nil && upToDate(ctx, opt.Catalog, p.Name, hash, base, opt.Options) {
		res.Skipped = true
		res.Files = expectedFiles(base, opt.Options)
		log.InfoContext(ctx, "preset unchanged; skipped")
		return res
	}

	start := time.Now()
	logo, err := c.Compose(ctx, req)
	if err != nil {
		res.Err = fmt.Errorf("compose %s: %w", p.Name, err)
		return res
	}
	res.Issues = logo.Issues
	for _, is := range logo.Issues {
		log.WarnContext(ctx, "leaf not styled", "role", is.Role, "err", is.Err)
	}
	files, img, err := Generate(logo, base, opt.Options)
	res.Files = files
	if err != nil {
		res.Err = fmt.Errorf("write %s: %w", p.Name, err)
		return res
	}
	log.InfoContext(ctx, "preset generated", "files", len(files.Paths()), "dur_ms", time.Since(start).Milliseconds())

	if opt.Catalog == nil {
		return res
	}
	var thumb *storage.Thumbnail
	if img != nil {
		t := Thumbnail(img, opt.ThumbnailWidth)
		if data, err := EncodePNG(t); err == nil {
			thumb = &storage.Thumbnail{Width: t.Bounds().Dx(), Height: t.Bounds().Dy(), PNG: data}
		}
	}
	id, err := opt.Catalog.Record(ctx, storage.Generation{
		Preset:     p.Name,
		ConfigHash: hash,
		SVGPath:    files.SVG,
		PNGPath:    files.PNG,
		PDFPath:    files.PDF,
		PNGWidth:   opt.PNGWidth,
	}, thumb)
	if err != nil {
		// the files are written; the preset is regenerated next time
		log.WarnContext(ctx, "catalog record failed", "err", err)
		return res
	}
	res.GenerationID = id
	return res
}

func expectedFiles(base string, opt Options) Files {
	f := Files{SVG: base + ".svg"}
	if opt.PNG {
		f.PNG = base + ".png"
	}
	if opt.PDF {
		f.PDF = base + ".pdf"
	}
	return f
}

func upToDate(ctx context.Context, cat Catalog, preset, hash, base string, opt Options) bool {
	latest, err := cat.Latest(ctx, preset)
	if err != nil || latest.ConfigHash != hash {
		return false
	}
	want := expectedFiles(base, opt)
	if latest.SVGPath != want.SVG || latest.PNGPath != want.PNG || latest.PDFPath != want.PDF {
		return false
	}
	for _, f := range want.Paths() {
		if _, err := os.Stat(f); err != nil {
			return false
		}
	}
	return true
}
