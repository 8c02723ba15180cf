/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package palette holds the country tables that drive leaf fills: an ordered
// list of flag colours per country name and the ISO code used to key flag
// artwork. The two tables are kept separately and may drift; Resolve surfaces
// that drift instead of repairing it.
package palette

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/lucasb-eyer/go-colorful"
	"gopkg.in/yaml.v3"
)

//go:embed countries.yaml
var countriesYAML []byte

var (
	// ErrCountryNotFound means neither table knows the requested country.
	ErrCountryNotFound = errors.New("country not found")
	// ErrPaletteIncomplete means the country is present in one table only.
	ErrPaletteIncomplete = errors.New("palette incomplete")
)

// Entry is a fully resolved country.
type Entry struct {
	Name   string
	Code   string
	Colors []string
}

// Palette is read-only after Load and safe for concurrent use.
type Palette struct {
	colors map[string][]string
	codes  map[string]string
	// lower-cased name and code lookups
	byFold map[string]string
	byCode map[string]string
}

type tables struct {
	Colors map[string][]string `yaml:"colors"`
	Codes  map[string]string   `yaml:"codes"`
}

// Load decodes the YAML tables from r.
func Load(r io.Reader) (*Palette, error) {
	var t tables
	dec := yaml.NewDecoder(r)
	if err := dec.Decode(&t); err != nil {
		return nil, fmt.Errorf("decode palette: %w", err)
	}
	return New(t.Colors, t.Codes), nil
}

// New builds a palette from in-memory tables. The maps are copied.
func New(colors map[string][]string, codes map[string]string) *Palette {
	p := &Palette{
		colors: make(map[string][]string, len(colors)),
		codes:  make(map[string]string, len(codes)),
		byFold: make(map[string]string),
		byCode: make(map[string]string),
	}
	for name, cs := range colors {
		p.colors[name] = append([]string(nil), cs...)
		p.byFold[strings.ToLower(name)] = name
	}
	for name, code := range codes {
		p.codes[name] = code
		p.byFold[strings.ToLower(name)] = name
		p.byCode[strings.ToLower(code)] = name
	}
	return p
}

var defaultPalette = sync.OnceValue(func() *Palette {
	p, err := Load(bytes.NewReader(countriesYAML))
	if err != nil {
		panic(fmt.Sprintf("embedded palette: %v", err))
	}
	return p
})

// Default returns the embedded country tables.
func Default() *Palette { return defaultPalette() }

// Resolve looks up a country by name (case-insensitive) or by ISO code and
// returns its colours and code. A country known to only one table yields
// ErrPaletteIncomplete.
func (p *Palette) Resolve(query string) (Entry, error) {
	q := strings.ToLower(strings.TrimSpace(query))
	name, ok := p.byFold[q]
	if !ok {
		name, ok = p.byCode[q]
	}
	if !ok {
		return Entry{}, fmt.Errorf("%q: %w", query, ErrCountryNotFound)
	}
	colors, hasColors := p.colors[name]
	code, hasCode := p.codes[name]
	switch {
	case !hasColors:
		return Entry{}, fmt.Errorf("%q has a code but no colors: %w", name, ErrPaletteIncomplete)
	case !hasCode:
		return Entry{}, fmt.Errorf("%q has colors but no code: %w", name, ErrPaletteIncomplete)
	case len(colors) == 0:
		return Entry{}, fmt.Errorf("%q has an empty color list: %w", name, ErrPaletteIncomplete)
	}
	return Entry{Name: name, Code: code, Colors: append([]string(nil), colors...)}, nil
}

// NameForCode returns the country name registered for an ISO code.
func (p *Palette) NameForCode(code string) (string, bool) {
	n, ok := p.byCode[strings.ToLower(strings.TrimSpace(code))]
	return n, ok
}

// Names returns the sorted names of every country present in both tables.
func (p *Palette) Names() []string {
	out := make([]string, 0, len(p.colors))
	for name := range p.colors {
		if _, ok := p.codes[name]; ok {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

// Report lists the inconsistencies found by Check.
type Report struct {
	MissingCodes  []string // in the colour table only
	MissingColors []string // in the code table only
	InvalidColors []string // "Name: value" for unparsable hex colours
	DuplicateCode []string // codes claimed by more than one name
}

// OK reports whether the tables are consistent.
func (r Report) OK() bool {
	return len(r.MissingCodes) == 0 && len(r.MissingColors) == 0 &&
		len(r.InvalidColors) == 0 && len(r.DuplicateCode) == 0
}

// Check cross-validates the two tables.
func (p *Palette) Check() Report {
	var r Report
	for name, cs := range p.colors {
		if _, ok := p.codes[name]; !ok {
			r.MissingCodes = append(r.MissingCodes, name)
		}
		for _, c := range cs {
			if _, err := colorful.Hex(c); err != nil {
				r.InvalidColors = append(r.InvalidColors, name+": "+c)
			}
		}
	}
	seen := map[string]string{}
	for name, code := range p.codes {
		if _, ok := p.colors[name]; !ok {
			r.MissingColors = append(r.MissingColors, name)
		}
		k := strings.ToLower(code)
		if other, dup := seen[k]; dup {
			a, b := other, name
			if b < a {
				a, b = b, a
			}
			r.DuplicateCode = append(r.DuplicateCode, fmt.Sprintf("%s: %s, %s", code, a, b))
		}
		seen[k] = name
	}
	sort.Strings(r.MissingCodes)
	sort.Strings(r.MissingColors)
	sort.Strings(r.InvalidColors)
	sort.Strings(r.DuplicateCode)
	return r
}

// Swatch converts a palette colour to a colorful.Color, used by previews.
func Swatch(hex string) (colorful.Color, error) {
	c, err := colorful.Hex(hex)
	if err != nil {
		return colorful.Color{}, fmt.Errorf("color %q: %w", hex, err)
	}
	return c, nil
}
