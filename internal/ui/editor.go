/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package ui

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"sync"
	"time"

	"logostyler/internal/compose"
	"logostyler/internal/export"
	applog "logostyler/internal/log"
	"logostyler/internal/palette"
	"logostyler/internal/planner"
	"logostyler/internal/undo"
)

// Preview and save sizes used by the desktop editor.
const (
	PreviewWidth = 400
	SaveWidth    = 1200
)

// ErrNothingEnabled is returned by Render when no leaf is enabled with a country.
var ErrNothingEnabled = errors.New("enable a leaf to see a preview")

// Deps are the services the editor works with.
type Deps struct {
	Composer  *compose.Composer
	Palette   *palette.Palette
	Presets   *export.Presets // optional
	OutputDir string
	CrashDir  string
	Logger    *slog.Logger
}

// Editor holds the per-leaf settings behind the desktop window. It has no
// widget dependencies so it can be driven headless. Safe for concurrent use.
type Editor struct {
	deps    Deps
	log     *slog.Logger
	history *undo.Manager
	now     func() time.Time

	mu      sync.Mutex
	leaves  map[planner.Role]planner.LeafFillConfig
	enabled map[planner.Role]bool
}

// NewEditor starts with every leaf disabled at default settings.
func NewEditor(d Deps) *Editor {
	l := d.Logger
	if l == nil {
		l = applog.WithComponent("ui")
	}
	e := &Editor{
		deps:    d,
		log:     l,
		history: undo.NewManager(undo.Config{MaxPerRole: 50, MinInterval: 300 * time.Millisecond}),
		now:     time.Now,
		leaves:  map[planner.Role]planner.LeafFillConfig{},
		enabled: map[planner.Role]bool{},
	}
	for _, r := range planner.Roles {
		e.leaves[r] = planner.DefaultConfig(r, "")
	}
	return e
}

// Leaf returns the settings of role and whether it is enabled.
func (e *Editor) Leaf(role planner.Role) (planner.LeafFillConfig, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.leaves[role], e.enabled[role]
}

// SetEnabled toggles a leaf without touching its settings.
func (e *Editor) SetEnabled(role planner.Role, on bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.enabled[role] = on
}

// Update applies fn to a copy of role's settings. Invalid results are
// rejected and leave the editor unchanged; accepted ones are undoable.
func (e *Editor) Update(role planner.Role, fn func(*planner.LeafFillConfig)) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	prev := e.leaves[role]
	next := prev
	fn(&next)
	next.Role = role
	if next == prev {
		return nil
	}
	if next.Country != "" {
		if err := next.Validate(); err != nil {
			return err
		}
	}
	e.history.Push(undo.Snapshot{Role: role, Config: prev, TS: e.now()})
	e.leaves[role] = next
	return nil
}

// Undo restores role's previous settings. It reports false when there is nothing to undo.
func (e *Editor) Undo(role planner.Role) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	cfg, ok := e.history.Undo(role, e.leaves[role])
	if ok {
		e.leaves[role] = cfg
	}
	return ok
}

// Redo reapplies the last undone change of role.
func (e *Editor) Redo(role planner.Role) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	cfg, ok := e.history.Redo(role, e.leaves[role])
	if ok {
		e.leaves[role] = cfg
	}
	return ok
}

func (e *Editor) CanUndo(role planner.Role) bool { return e.history.CanUndo(role) }
func (e *Editor) CanRedo(role planner.Role) bool { return e.history.CanRedo(role) }

// ApplyPreset loads a preset: its leaves become enabled with the preset's
// settings and the others are disabled. Each change is undoable per leaf.
func (e *Editor) ApplyPreset(p export.Preset) error {
	req, err := p.Request()
	if err != nil {
		return err
	}
	for _, role := range planner.Roles {
		cfg, ok := req.Leaves[role]
		if ok {
			if err := e.Update(role, func(c *planner.LeafFillConfig) { *c = cfg }); err != nil {
				return err
			}
		}
		e.SetEnabled(role, ok)
	}
	return nil
}

// Request returns the enabled leaves that have a country.
func (e *Editor) Request() compose.Request {
	e.mu.Lock()
	defer e.mu.Unlock()
	req := compose.Request{Leaves: map[planner.Role]planner.LeafFillConfig{}}
	for _, r := range planner.Roles {
		if e.enabled[r] && e.leaves[r].Country != "" {
			req.Leaves[r] = e.leaves[r]
		}
	}
	return req
}

// Compose styles the template with the current settings.
func (e *Editor) Compose(ctx context.Context) (*compose.Logo, error) {
	req := e.Request()
	if len(req.Leaves) == 0 {
		return nil, ErrNothingEnabled
	}
	logo, err := e.deps.Composer.Compose(ctx, req)
	if err != nil {
		return nil, err
	}
	for _, is := range logo.Issues {
		e.log.Warn("leaf not styled", "role", is.Role, "err", is.Err)
	}
	return logo, nil
}

// Render composes and rasterizes the current settings at width pixels.
func (e *Editor) Render(ctx context.Context, width int) (*compose.Logo, *image.RGBA, error) {
	logo, err := e.Compose(ctx)
	if err != nil {
		return nil, nil, err
	}
	img, err := export.RenderPNG(logo, width)
	if err != nil {
		return logo, nil, fmt.Errorf("render preview: %w", err)
	}
	return logo, img, nil
}

// Save writes <base>.svg and <base>.png at SaveWidth.
func (e *Editor) Save(ctx context.Context, base string) (export.Files, error) {
	logo, err := e.Compose(ctx)
	if err != nil {
		return export.Files{}, err
	}
	files, _, err := export.Generate(logo, base, export.Options{PNG: true, PNGWidth: SaveWidth})
	if err != nil {
		return files, err
	}
	e.log.Info("logo saved", "svg", files.SVG, "png", files.PNG)
	return files, nil
}
