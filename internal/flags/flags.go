/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package flags provides national flag artwork keyed by ISO code.
package flags

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	jxml "github.com/jphsd/xml"
)

// ErrAssetUnavailable is returned when no artwork exists for a code.
var ErrAssetUnavailable = errors.New("flag asset unavailable")

// Artwork is one flag SVG with its intrinsic size.
type Artwork struct {
	Code   string
	Data   []byte
	Width  float64
	Height float64
}

// Aspect returns width/height, or 1 for a degenerate height.
func (a Artwork) Aspect() float64 {
	if a.Height <= 0 {
		return 1
	}
	return a.Width / a.Height
}

// ImageRef is the file name the artwork is published under.
func (a Artwork) ImageRef() string { return a.Code + ".svg" }

// Store looks up flag artwork. Implementations must be safe for concurrent reads.
type Store interface {
	Lookup(code string) (Artwork, error)
}

type fsStore struct{ fsys fs.FS }

// NewFSStore serves "<code>.svg" files from fsys.
func NewFSStore(fsys fs.FS) Store { return fsStore{fsys: fsys} }

// DirStore serves "<code>.svg" files from a directory on disk.
func DirStore(dir string) Store { return fsStore{fsys: os.DirFS(dir)} }

func (s fsStore) Lookup(code string) (Artwork, error) {
	code = strings.ToLower(strings.TrimSpace(code))
	if code == "" || strings.ContainsAny(code, `/\.`) {
		return Artwork{}, fmt.Errorf("flag %q: %w", code, ErrAssetUnavailable)
	}
	data, err := fs.ReadFile(s.fsys, code+".svg")
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Artwork{}, fmt.Errorf("flag %q: %w", code, ErrAssetUnavailable)
		}
		return Artwork{}, fmt.Errorf("read flag %q: %w", code, err)
	}
	return Parse(code, data)
}

// Parse reads the intrinsic size of flag artwork. width/height attributes win
// (unitless or px); otherwise the viewBox is used, defaulting to 0 0 100 100.
func Parse(code string, data []byte) (Artwork, error) {
	root, err := rootElement(data)
	if err != nil {
		return Artwork{}, fmt.Errorf("parse flag %q: %w", code, err)
	}
	vbW, vbH := 100.0, 100.0
	if vb, ok := root.Attributes["viewBox"]; ok {
		f := strings.FieldsFunc(vb, func(r rune) bool { return r == ' ' || r == ',' || r == '\t' || r == '\n' })
		if len(f) == 4 {
			w, errW := strconv.ParseFloat(f[2], 64)
			h, errH := strconv.ParseFloat(f[3], 64)
			if errW == nil && errH == nil {
				vbW, vbH = w, h
			}
		}
	}
	wAttr, hAttr := root.Attributes["width"], root.Attributes["height"]
	w, err := length(wAttr, vbW)
	if err != nil {
		return Artwork{}, fmt.Errorf("flag %q width: %w", code, err)
	}
	h, err := length(hAttr, vbH)
	if err != nil {
		return Artwork{}, fmt.Errorf("flag %q height: %w", code, err)
	}
	if w <= 0 || h <= 0 {
		return Artwork{}, fmt.Errorf("flag %q: non-positive size %gx%g", code, w, h)
	}
	return Artwork{Code: code, Data: data, Width: w, Height: h}, nil
}

// rootElement parses data into a DOM and returns its <svg> root.
func rootElement(data []byte) (*jxml.Element, error) {
	root, err := jxml.NewXMLDecoder(bytes.NewReader(data)).BuildDOM()
	if err != nil {
		return nil, err
	}
	if root == nil {
		return nil, errors.New("no root element")
	}
	if root.Name.Local != "svg" {
		return nil, fmt.Errorf("root element is <%s>, want <svg>", root.Name.Local)
	}
	return root, nil
}

func length(v string, fallback float64) (float64, error) {
	v = strings.TrimSpace(v)
	if v == "" || strings.HasSuffix(v, "%") {
		return fallback, nil
	}
	return strconv.ParseFloat(strings.TrimSuffix(v, "px"), 64)
}

// MapStore is an in-memory Store, used by tests and the desktop preview.
type MapStore map[string][]byte

func (m MapStore) Lookup(code string) (Artwork, error) {
	code = strings.ToLower(strings.TrimSpace(code))
	data, ok := m[code]
	if !ok {
		return Artwork{}, fmt.Errorf("flag %q: %w", code, ErrAssetUnavailable)
	}
	return Parse(code, data)
}
