/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package gradient synthesizes linear-gradient stops that give every input
// colour a flat plateau, with soft transitions centred on the band boundaries.
package gradient

import (
	"errors"
	"fmt"
)

// DefaultTransition is the transition softness used when none is configured.
const DefaultTransition = 10.0

// ErrNoColors is returned when BuildStops is called without colours.
var ErrNoColors = errors.New("gradient: at least one color is required")

// Stop is one gradient stop. Offset is a percentage in [0, 100].
type Stop struct {
	Offset float64
	Color  string
}

// OffsetAttr formats the offset for an SVG offset attribute, e.g. "36.67%".
func (s Stop) OffsetAttr() string { return fmt.Sprintf("%.2f%%", s.Offset) }

// Band is the plateau of one colour: the range where it is drawn unblended.
type Band struct {
	Start, End float64
}

// Collapsed reports whether the transitions ate the whole plateau.
func (b Band) Collapsed() bool { return b.Start >= b.End }

// Bands divides [0, 100] into n equal bands and shrinks each by half of the
// transition zone on the inner sides. The first band starts at 0 and the last
// ends at 100.
func Bands(n int, transitionPercent float64) []Band {
	if n <= 0 {
		return nil
	}
	width := 100.0 / float64(n)
	transition := width * transitionPercent / 100.0
	out := make([]Band, n)
	for i := range out {
		start := float64(i)*width + transition/2
		end := float64(i+1)*width - transition/2
		if i == 0 {
			start = 0
		}
		if i == n-1 {
			end = 100
		}
		out[i] = Band{Start: start, End: end}
	}
	return out
}

// BuildStops returns the stops of a gradient showing colors in order. A single
// colour yields one stop at 0. A band whose plateau collapsed is reduced to one
// stop at its centre so offsets never run backwards.
func BuildStops(colors []string, transitionPercent float64) ([]Stop, error) {
	if len(colors) == 0 {
		return nil, ErrNoColors
	}
	if len(colors) == 1 {
		return []Stop{{Offset: 0, Color: colors[0]}}, nil
	}
	width := 100.0 / float64(len(colors))
	bands := Bands(len(colors), transitionPercent)
	stops := make([]Stop, 0, 2*len(colors))
	for i, b := range bands {
		c := colors[i]
		if b.Collapsed() {
			stops = append(stops, Stop{Offset: float64(i)*width + width/2, Color: c})
			continue
		}
		stops = append(stops, Stop{Offset: b.Start, Color: c}, Stop{Offset: b.End, Color: c})
	}
	return stops, nil
}
