/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package planner

import (
	"errors"
	"fmt"
	"strings"

	"logostyler/internal/gradient"
)

// ErrInvalidConfig reports leaf settings outside their accepted ranges.
var ErrInvalidConfig = errors.New("invalid leaf config")

// Role identifies one of the three template leaves.
type Role string

const (
	Left  Role = "left"
	Top   Role = "top"
	Right Role = "right"
)

// Roles lists the leaves in composition order.
var Roles = []Role{Left, Top, Right}

// ParseRole accepts a role name case-insensitively.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Roles {
		if r == known {
			return r, nil
		}
	}
	return "", fmt.Errorf("unknown leaf %q: %w", s, ErrInvalidConfig)
}

// Title is the display form used in messages, e.g. "Left".
func (r Role) Title() string {
	if r == "" {
		return ""
	}
	return strings.ToUpper(string(r[:1])) + string(r[1:])
}

// Strategy selects how a leaf is filled.
type Strategy string

const (
	StrategyGradient Strategy = "gradient"
	StrategyFlag     Strategy = "flag-svg"
)

// ParseStrategy accepts "gradient", "flag-svg", "flag-pattern" and "flag".
func ParseStrategy(s string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "gradient":
		return StrategyGradient, nil
	case "flag-svg", "flag-pattern", "flag":
		return StrategyFlag, nil
	}
	return "", fmt.Errorf("unknown fill type %q: %w", s, ErrInvalidConfig)
}

// Setting limits shared by the CLI, presets and the desktop sliders.
const (
	MinZoom = 25.0
	MaxZoom = 400.0
	MinPan  = -100.0
	MaxPan  = 100.0
)

// LeafFillConfig is one leaf's styling request. It is a value type and is
// never modified by the planner.
type LeafFillConfig struct {
	Role       Role
	Country    string
	Strategy   Strategy
	Direction  gradient.Direction
	Transition float64
	Zoom       float64
	PanX       float64
	PanY       float64
}

// DefaultConfig returns the settings a new leaf starts with.
func DefaultConfig(role Role, country string) LeafFillConfig {
	return LeafFillConfig{
		Role:       role,
		Country:    country,
		Strategy:   StrategyGradient,
		Direction:  gradient.Horizontal,
		Transition: 20,
		Zoom:       100,
	}
}

// Validate checks ranges and enumerations.
func (c LeafFillConfig) Validate() error {
	var errs []error
	if _, err := ParseRole(string(c.Role)); err != nil {
		errs = append(errs, err)
	}
	if strings.TrimSpace(c.Country) == "" {
		errs = append(errs, fmt.Errorf("%s: country is required: %w", c.Role, ErrInvalidConfig))
	}
	if c.Strategy != StrategyGradient && c.Strategy != StrategyFlag {
		errs = append(errs, fmt.Errorf("%s: unknown fill type %q: %w", c.Role, c.Strategy, ErrInvalidConfig))
	}
	if c.Direction != gradient.Horizontal && c.Direction != gradient.Vertical {
		errs = append(errs, fmt.Errorf("%s: unknown direction %q: %w", c.Role, c.Direction, ErrInvalidConfig))
	}
	if c.Transition < 0 || c.Transition > 100 {
		errs = append(errs, fmt.Errorf("%s: transition %g outside 0..100: %w", c.Role, c.Transition, ErrInvalidConfig))
	}
	if c.Zoom < MinZoom || c.Zoom > MaxZoom {
		errs = append(errs, fmt.Errorf("%s: zoom %g outside %g..%g: %w", c.Role, c.Zoom, MinZoom, MaxZoom, ErrInvalidConfig))
	}
	if c.PanX < MinPan || c.PanX > MaxPan || c.PanY < MinPan || c.PanY > MaxPan {
		errs = append(errs, fmt.Errorf("%s: pan (%g,%g) outside %g..%g: %w", c.Role, c.PanX, c.PanY, MinPan, MaxPan, ErrInvalidConfig))
	}
	return errors.Join(errs...)
}
