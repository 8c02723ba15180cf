/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package compose applies planned leaf fills to the logo template and
// serializes the result as SVG.
package compose

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	applog "logostyler/internal/log"
	"logostyler/internal/planner"
)

var (
	// ErrNoLeaves is returned when a request configures no leaf at all.
	ErrNoLeaves = errors.New("no leaves configured")
	// ErrLeafNotFound means a role's selector matched no unclaimed path.
	ErrLeafNotFound = errors.New("leaf path not found")
)

// FillPlanner is the part of planner.Planner the composer needs.
type FillPlanner interface {
	PlanFill(pathData string, cfg planner.LeafFillConfig) (planner.Fill, error)
}

// Request lists the leaves to style. Roles without an entry stay as drawn in
// the template.
type Request struct {
	Leaves map[planner.Role]planner.LeafFillConfig
}

// LeafResult is one styled leaf.
type LeafResult struct {
	Role      planner.Role
	PathIndex int
	PathData  string
	Config    planner.LeafFillConfig
	Fill      planner.Fill
	FillID    string // id of the gradient or pattern definition
}

// LeafIssue records a leaf that could not be styled.
type LeafIssue struct {
	Role planner.Role
	Err  error
}

func (i LeafIssue) Error() string { return fmt.Sprintf("%s leaf: %v", i.Role, i.Err) }
func (i LeafIssue) Unwrap() error { return i.Err }

// Logo is the result of one composition.
type Logo struct {
	Template *Template
	Leaves   []LeafResult
	Issues   []LeafIssue
	SVG      []byte
	Width    float64
	Height   float64
}

// Err joins all leaf issues, or returns nil.
func (l *Logo) Err() error {
	if len(l.Issues) == 0 {
		return nil
	}
	errs := make([]error, len(l.Issues))
	for i, is := range l.Issues {
		errs[i] = is
	}
	return errors.Join(errs...)
}

// Leaf returns the styled result for role.
func (l *Logo) Leaf(role planner.Role) (LeafResult, bool) {
	for _, r := range l.Leaves {
		if r.Role == role {
			return r, true
		}
	}
	return LeafResult{}, false
}

// Composer styles the template. Fields are read-only during Compose, so one
// Composer can serve concurrent calls.
type Composer struct {
	Template  *Template
	Planner   FillPlanner
	Selectors Selectors
	IDs       IDSource
	Workers   int
	Logger    *slog.Logger
}

// New returns a composer over tpl with the default selectors.
func New(tpl *Template, p FillPlanner) *Composer {
	return &Composer{
		Template:  tpl,
		Planner:   p,
		Selectors: DefaultSelectors(),
		IDs:       UUIDSource{},
		Workers:   3,
		Logger:    applog.WithComponent("compose"),
	}
}

type job struct {
	role planner.Role
	cfg  planner.LeafFillConfig
	path TemplatePath
	fill planner.Fill
	err  error
}

// Compose resolves the configured leaves in Left, Top, Right order, plans
// their fills concurrently and renders the SVG. Per-leaf failures are
// reported in Logo.Issues and never abort sibling leaves; only an empty
// request or a cancelled context fails the call.
func (c *Composer) Compose(ctx context.Context, req Request) (*Logo, error) {
	if len(req.Leaves) == 0 {
		return nil, ErrNoLeaves
	}
	log := applog.WithOperation(c.logger(), "compose")
	logo := &Logo{Template: c.Template}
	logo.Width, logo.Height = c.Template.Size()

	claimed := claimedSet{}
	var jobs []*job
	for _, role := range planner.Roles {
		cfg, ok := req.Leaves[role]
		if !ok {
			continue
		}
		cfg.Role = role
		sel, ok := c.Selectors[role]
		if !ok {
			logo.Issues = append(logo.Issues, LeafIssue{Role: role, Err: fmt.Errorf("no selector: %w", ErrLeafNotFound)})
			continue
		}
		idx, found := c.Template.find(sel, claimed)
		if !found {
			logo.Issues = append(logo.Issues, LeafIssue{Role: role, Err: ErrLeafNotFound})
			continue
		}
		claimed.claim(idx)
		jobs = append(jobs, &job{role: role, cfg: cfg, path: c.Template.Paths[idx]})
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, c.Workers))
	for _, j := range jobs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			j.fill, j.err = c.Planner.PlanFill(j.path.D, j.cfg)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	ids := c.IDs
	if ids == nil {
		ids = UUIDSource{}
	}
	for _, j := range jobs {
		if j.err != nil {
			logo.Issues = append(logo.Issues, LeafIssue{Role: j.role, Err: j.err})
			log.WarnContext(ctx, "leaf left unstyled", slog.String("role", string(j.role)), slog.String("err", j.err.Error()))
			continue
		}
		logo.Leaves = append(logo.Leaves, LeafResult{
			Role:      j.role,
			PathIndex: j.path.Index,
			PathData:  j.path.D,
			Config:    j.cfg,
			Fill:      j.fill,
			FillID:    fillID(ids, j.role, j.fill),
		})
	}

	var buf bytes.Buffer
	if err := writeSVG(&buf, c.Template, logo.Leaves, modeFull); err != nil {
		return nil, fmt.Errorf("render svg: %w", err)
	}
	logo.SVG = buf.Bytes()
	log.DebugContext(ctx, "composed", slog.Int("styled", len(logo.Leaves)), slog.Int("issues", len(logo.Issues)))
	return logo, nil
}

// RasterSVG renders the logo for rasterizers without pattern support: leaves
// with a flag pattern are left unfilled so the caller can composite the flag
// through MaskSVG.
func (l *Logo) RasterSVG() ([]byte, error) {
	var buf bytes.Buffer
	if err := writeSVG(&buf, l.Template, l.Leaves, modeRaster); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// MaskSVG renders only the path of leaf r, opaque on transparent.
func (l *Logo) MaskSVG(r LeafResult) ([]byte, error) {
	if r.PathIndex < 0 || r.PathIndex >= len(l.Template.Paths) {
		return nil, fmt.Errorf("%s leaf: path %d: %w", r.Role, r.PathIndex, ErrLeafNotFound)
	}
	var buf bytes.Buffer
	if err := writeMask(&buf, l.Template, l.Template.Paths[r.PathIndex]); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func fillID(ids IDSource, role planner.Role, f planner.Fill) string {
	base := fmt.Sprintf("%s-%s-%s", f.Country().Code, role, ids.Hex(4))
	switch v := f.(type) {
	case planner.PatternFill:
		return "pattern-" + base
	case planner.GradientFill:
		return fmt.Sprintf("%s-%s-gradient-%s", base, v.Direction, ids.Hex(6))
	}
	return base
}

func (c *Composer) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return applog.WithComponent("compose")
}
