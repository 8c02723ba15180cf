/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"crypto/sha256"
	_ "embed"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"logostyler/internal/compose"
	"logostyler/internal/gradient"
	"logostyler/internal/planner"
)

//go:embed presets.schema.json
var presetsSchema []byte

// ErrInvalidPresets wraps every schema or value problem in a presets file.
var ErrInvalidPresets = errors.New("invalid presets")

// Leaf defaults applied to preset entries that omit them.
const (
	DefaultTransition = 20.0
	DefaultZoom       = 100.0
)

// LeafPreset is one leaf entry of presets.json.
type LeafPreset struct {
	Country    string   `json:"country"`
	FillType   string   `json:"fill_type,omitempty"`
	Direction  string   `json:"direction,omitempty"`
	Transition *float64 `json:"transition,omitempty"`
	Zoom       *float64 `json:"zoom,omitempty"`
	PanX       float64  `json:"pan_x,omitempty"`
	PanY       float64  `json:"pan_y,omitempty"`
}

// Config converts the entry into validated leaf settings for role.
func (lp LeafPreset) Config(role planner.Role) (planner.LeafFillConfig, error) {
	cfg := planner.DefaultConfig(role, strings.TrimSpace(lp.Country))
	strategy, err := planner.ParseStrategy(lp.FillType)
	if err != nil {
		return cfg, err
	}
	dir, err := gradient.ParseDirection(lp.Direction)
	if err != nil {
		return cfg, fmt.Errorf("%s: %w", role, err)
	}
	cfg.Strategy = strategy
	cfg.Direction = dir
	cfg.Transition = DefaultTransition
	if lp.Transition != nil {
		cfg.Transition = *lp.Transition
	}
	cfg.Zoom = DefaultZoom
	if lp.Zoom != nil {
		cfg.Zoom = *lp.Zoom
	}
	cfg.PanX, cfg.PanY = lp.PanX, lp.PanY
	return cfg, cfg.Validate()
}

// Preset is a named set of leaf entries.
type Preset struct {
	Name  string      `json:"-"`
	Left  *LeafPreset `json:"left,omitempty"`
	Top   *LeafPreset `json:"top,omitempty"`
	Right *LeafPreset `json:"right,omitempty"`
}

// Leaf returns the entry for role, or nil.
func (p Preset) Leaf(role planner.Role) *LeafPreset {
	switch role {
	case planner.Left:
		return p.Left
	case planner.Top:
		return p.Top
	case planner.Right:
		return p.Right
	}
	return nil
}

// Request converts the preset into a composer request.
func (p Preset) Request() (compose.Request, error) {
	req := compose.Request{Leaves: map[planner.Role]planner.LeafFillConfig{}}
	var errs []error
	for _, role := range planner.Roles {
		lp := p.Leaf(role)
		if lp == nil {
			continue
		}
		cfg, err := lp.Config(role)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		req.Leaves[role] = cfg
	}
	if err := errors.Join(errs...); err != nil {
		return req, fmt.Errorf("preset %s: %w", p.Name, err)
	}
	return req, nil
}

// ConfigHash identifies the resolved request plus output settings. Two runs
// with the same hash produce the same files.
func ConfigHash(req compose.Request, opt Options) string {
	var leaves []planner.LeafFillConfig
	for _, role := range planner.Roles {
		if cfg, ok := req.Leaves[role]; ok {
			leaves = append(leaves, cfg)
		}
	}
	data, _ := json.Marshal(struct {
		Leaves   []planner.LeafFillConfig
		PNG, PDF bool
		PNGWidth int
	}{leaves, opt.PNG, opt.PDF, opt.PNGWidth})
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:16])
}

// Presets is a validated presets file.
type Presets struct {
	byName map[string]Preset
}

// ParsePresets validates data against the embedded schema and decodes it.
func ParsePresets(data []byte) (*Presets, error) {
	res, err := gojsonschema.Validate(gojsonschema.NewBytesLoader(presetsSchema), gojsonschema.NewBytesLoader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPresets, err)
	}
	if !res.Valid() {
		msgs := make([]string, 0, len(res.Errors()))
		for _, e := range res.Errors() {
			msgs = append(msgs, e.String())
		}
		sort.Strings(msgs)
		return nil, fmt.Errorf("%w: %s", ErrInvalidPresets, strings.Join(msgs, "; "))
	}
	raw := map[string]Preset{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPresets, err)
	}
	out := &Presets{byName: make(map[string]Preset, len(raw))}
	for name, p := range raw {
		p.Name = name
		if _, err := p.Request(); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidPresets, err)
		}
		out.byName[name] = p
	}
	return out, nil
}

// LoadPresetsFile reads and validates a presets file.
func LoadPresetsFile(path string) (*Presets, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read presets: %w", err)
	}
	return ParsePresets(data)
}

// Names returns preset names in sorted order.
func (ps *Presets) Names() []string {
	names := make([]string, 0, len(ps.byName))
	for n := range ps.byName {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Get returns the named preset.
func (ps *Presets) Get(name string) (Preset, bool) {
	p, ok := ps.byName[name]
	return p, ok
}

// Len reports the number of presets.
func (ps *Presets) Len() int { return len(ps.byName) }
