/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package bundle turns generated logos into an asset catalog of .imageset
// folders, one per language-pair logo.
package bundle

import (
	"archive/zip"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	applog "logostyler/internal/log"
)

// DefaultRasterSuffix names the raster imageset created next to a vector one.
const DefaultRasterSuffix = "-raster"

// ContentsFile is the manifest written into every imageset.
const ContentsFile = "Contents.json"

var pairPattern = regexp.MustCompile(`^[a-z]{2,3}-[a-z]{2,3}$`)

// IsLanguagePair reports whether base looks like "en-pl".
func IsLanguagePair(base string) bool { return pairPattern.MatchString(base) }

// Options configure Build.
type Options struct {
	Source       string
	Output       string
	RasterSuffix string
	Clean        bool // remove Output before building
	Logger       *slog.Logger
}

// Imageset is one folder written by Build.
type Imageset struct {
	Name   string
	Dir    string
	Source string
	Vector bool
}

// Report summarizes a Build run.
type Report struct {
	Imagesets []Imageset
	Skipped   []string // file names ignored because they are not language pairs
}

type contentsImage struct {
	Idiom    string `json:"idiom"`
	Filename string `json:"filename"`
}

type contentsInfo struct {
	Author  string `json:"author"`
	Version int    `json:"version"`
}

type contentsProps struct {
	PreservesVector bool `json:"preserves-vector-representation"`
}

type contents struct {
	Images     []contentsImage `json:"images"`
	Info       contentsInfo    `json:"info"`
	Properties *contentsProps  `json:"properties,omitempty"`
}

// Build scans opt.Source for <pair>.svg, <pair>.pdf and <pair>.png files.
// A vector file (SVG preferred over PDF) becomes <pair>.imageset; a PNG next
// to it becomes <pair><suffix>.imageset; a lone PNG becomes <pair>.imageset.
func Build(opt Options) (Report, error) {
	var rep Report
	if strings.TrimSpace(opt.Source) == "" || strings.TrimSpace(opt.Output) == "" {
		return rep, errors.New("source and output are required")
	}
	if opt.RasterSuffix == "" {
		opt.RasterSuffix = DefaultRasterSuffix
	}
	l := opt.Logger
	if l == nil {
		l = applog.WithComponent("bundle")
	}
	l = applog.WithOperation(l, "build").With(slog.String("source", opt.Source))

	entries, err := os.ReadDir(opt.Source)
	if err != nil {
		return rep, fmt.Errorf("read source: %w", err)
	}
	if opt.Clean {
		if err := os.RemoveAll(opt.Output); err != nil {
			return rep, fmt.Errorf("clean output: %w", err)
		}
	}
	if err := os.MkdirAll(opt.Output, 0o755); err != nil {
		return rep, fmt.Errorf("ensure output: %w", err)
	}

	type assets struct{ svg, pdf, png string }
	pairs := map[string]*assets{}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		ext := strings.ToLower(filepath.Ext(name))
		base := strings.TrimSuffix(name, filepath.Ext(name))
		if !IsLanguagePair(base) {
			rep.Skipped = append(rep.Skipped, name)
			continue
		}
		a := pairs[base]
		if a == nil {
			a = &assets{}
			pairs[base] = a
		}
		p := filepath.Join(opt.Source, name)
		switch ext {
		case ".svg":
			a.svg = p
		case ".pdf":
			a.pdf = p
		case ".png":
			a.png = p
		default:
			rep.Skipped = append(rep.Skipped, name)
		}
	}

	names := make([]string, 0, len(pairs))
	for n := range pairs {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, base := range names {
		a := pairs[base]
		vector := a.svg
		if vector == "" {
			vector = a.pdf
		}
		var sets []Imageset
		switch {
		case vector != "":
			sets = append(sets, Imageset{Name: base, Source: vector, Vector: true})
			if a.png != "" {
				sets = append(sets, Imageset{Name: base + opt.RasterSuffix, Source: a.png})
			}
		case a.png != "":
			sets = append(sets, Imageset{Name: base, Source: a.png})
		default:
			l.Debug("no usable assets", slog.String("pair", base))
			continue
		}
		for _, s := range sets {
			s.Dir = filepath.Join(opt.Output, s.Name+".imageset")
			if err := writeImageset(s); err != nil {
				return rep, fmt.Errorf("imageset %s: %w", s.Name, err)
			}
			l.Debug("imageset written", slog.String("name", s.Name), slog.Bool("vector", s.Vector))
			rep.Imagesets = append(rep.Imagesets, s)
		}
	}
	l.Info("asset catalog built", slog.Int("imagesets", len(rep.Imagesets)), slog.Int("skipped", len(rep.Skipped)))
	return rep, nil
}

func writeImageset(s Imageset) error {
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return err
	}
	filename := filepath.Base(s.Source)
	if err := copyFile(s.Source, filepath.Join(s.Dir, filename)); err != nil {
		return err
	}
	c := contents{
		Images: []contentsImage{{Idiom: "universal", Filename: filename}},
		Info:   contentsInfo{Author: "xcode", Version: 1},
	}
	if s.Vector {
		c.Properties = &contentsProps{PreservesVector: true}
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(s.Dir, ContentsFile), append(data, '\n'), 0o644)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()
	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}

// Zip archives dir into destZip with forward-slash names relative to dir's
// parent, so the archive unpacks into a folder named like dir. It returns
// the number of files added.
func Zip(dir, destZip string) (int, error) {
	l := applog.WithOperation(applog.WithComponent("bundle"), "zip")
	if err := os.MkdirAll(filepath.Dir(destZip), 0o755); err != nil {
		return 0, fmt.Errorf("ensure zip dir: %w", err)
	}
	_ = os.Remove(destZip)
	zf, err := os.Create(destZip)
	if err != nil {
		return 0, fmt.Errorf("create zip: %w", err)
	}
	zw := zip.NewWriter(zf)

	root := filepath.Dir(filepath.Clean(dir))
	added := 0
	walkErr := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		hdr, err := zip.FileInfoHeader(info)
		if err != nil {
			return err
		}
		hdr.Name = filepath.ToSlash(rel)
		hdr.Method = zip.Deflate
		hdr.Modified = time.Unix(0, 0).UTC()
		fw, err := zw.CreateHeader(hdr)
		if err != nil {
			return err
		}
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer func() { _ = f.Close() }()
		if _, err := io.Copy(fw, f); err != nil {
			return err
		}
		added++
		return nil
	})
	closeErr := errors.Join(zw.Close(), zf.Close())
	if walkErr != nil {
		l.Error("zip build failed", slog.Any("err", walkErr))
		return added, fmt.Errorf("build zip: %w", walkErr)
	}
	if closeErr != nil {
		return added, fmt.Errorf("close zip: %w", closeErr)
	}
	l.Info("asset catalog archived", slog.Int("files", added), slog.String("zip", destZip))
	return added, nil
}
