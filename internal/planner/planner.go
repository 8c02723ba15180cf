/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package planner decides how each logo leaf is filled: a banded gradient of
// the country's colours or the flag artwork scaled to cover the leaf.
package planner

import (
	"fmt"
	"log/slog"

	"logostyler/internal/flags"
	"logostyler/internal/gradient"
	applog "logostyler/internal/log"
	"logostyler/internal/palette"
	"logostyler/internal/vector"
)

// Resolver maps a country name or code to its palette entry.
type Resolver interface {
	Resolve(country string) (palette.Entry, error)
}

// Fill is the planned fill of one leaf: GradientFill or PatternFill.
type Fill interface {
	isFill()
	// Country returns the resolved palette entry the fill was planned for.
	Country() palette.Entry
}

// GradientFill is a linear gradient along Direction.
type GradientFill struct {
	Entry     palette.Entry
	Stops     []gradient.Stop
	Direction gradient.Direction
}

func (GradientFill) isFill()                  {}
func (g GradientFill) Country() palette.Entry { return g.Entry }

// PatternFill places flag artwork as a single user-space pattern tile.
type PatternFill struct {
	Entry     palette.Entry
	ImageRef  string
	Artwork   flags.Artwork
	Placement vector.Rect // tile in the template's user space
	BBox      vector.Rect // the leaf's bounding box
}

func (PatternFill) isFill()                  {}
func (p PatternFill) Country() palette.Entry { return p.Entry }

// Planner is stateless apart from its read-only collaborators and is safe
// for concurrent use.
type Planner struct {
	Palette Resolver
	Flags   flags.Store
	Logger  *slog.Logger
}

// New returns a planner. A nil store disables flag patterns.
func New(pal Resolver, store flags.Store) *Planner {
	return &Planner{Palette: pal, Flags: store, Logger: applog.WithComponent("planner")}
}

// PlanFill computes the fill for the leaf whose path data is pathData.
// Palette errors are returned unchanged in kind; flag failures fall back to
// the gradient and are only logged.
func (p *Planner) PlanFill(pathData string, cfg LeafFillConfig) (Fill, error) {
	entry, err := p.Palette.Resolve(cfg.Country)
	if err != nil {
		return nil, fmt.Errorf("%s leaf: %w", cfg.Role, err)
	}
	if cfg.Strategy == StrategyFlag {
		pf, err := p.planPattern(pathData, cfg, entry)
		if err == nil {
			return pf, nil
		}
		p.logger().Warn("flag pattern failed, using gradient",
			slog.String("role", string(cfg.Role)),
			slog.String("country", entry.Name),
			slog.String("code", entry.Code),
			slog.String("reason", err.Error()))
	}
	return planGradient(cfg, entry)
}

func planGradient(cfg LeafFillConfig, entry palette.Entry) (GradientFill, error) {
	stops, err := gradient.BuildStops(entry.Colors, cfg.Transition)
	if err != nil {
		return GradientFill{}, fmt.Errorf("%s leaf %s: %w", cfg.Role, entry.Name, err)
	}
	dir := cfg.Direction
	if dir == "" {
		dir = gradient.Horizontal
	}
	return GradientFill{Entry: entry, Stops: stops, Direction: dir}, nil
}

func (p *Planner) planPattern(pathData string, cfg LeafFillConfig, entry palette.Entry) (PatternFill, error) {
	if p.Flags == nil {
		return PatternFill{}, flags.ErrAssetUnavailable
	}
	art, err := p.Flags.Lookup(entry.Code)
	if err != nil {
		return PatternFill{}, err
	}
	bbox := vector.ComputeBoundingBox(pathData)
	if bbox.IsUnknown() {
		p.logger().Warn("leaf bounds unknown, placing flag on the unit box",
			slog.String("role", string(cfg.Role)),
			slog.String("code", entry.Code))
	}
	place, err := CoverPlacement(bbox, art.Aspect(), cfg.Zoom, cfg.PanX, cfg.PanY)
	if err != nil {
		return PatternFill{}, err
	}
	return PatternFill{
		Entry:     entry,
		ImageRef:  art.ImageRef(),
		Artwork:   art,
		Placement: place,
		BBox:      bbox,
	}, nil
}

// CoverPlacement sizes an image of the given aspect so it covers bbox, scales
// it by zoom percent around the bbox centre and shifts it by pan percent of
// half the overhang. A positive pan moves the image towards negative x/y.
func CoverPlacement(bbox vector.Rect, aspect, zoom, panX, panY float64) (vector.Rect, error) {
	if !bbox.Positive() {
		return vector.Rect{}, fmt.Errorf("leaf bounds %v are empty", bbox)
	}
	if aspect <= 0 {
		return vector.Rect{}, fmt.Errorf("flag aspect %g is not positive", aspect)
	}
	if zoom <= 0 {
		return vector.Rect{}, fmt.Errorf("zoom %g is not positive", zoom)
	}
	var w, h float64
	if bbox.Aspect() > aspect {
		w, h = bbox.W, bbox.W/aspect
	} else {
		w, h = bbox.H*aspect, bbox.H
	}
	w *= zoom / 100
	h *= zoom / 100
	x := bbox.X + (bbox.W-w)/2
	y := bbox.Y + (bbox.H-h)/2
	x -= panX / 100 * max(0, w-bbox.W) / 2
	y -= panY / 100 * max(0, h-bbox.H) / 2
	return vector.Rect{X: x, Y: y, W: w, H: h}, nil
}

func (p *Planner) logger() *slog.Logger {
	if p.Logger != nil {
		return p.Logger
	}
	return applog.WithComponent("planner")
}
