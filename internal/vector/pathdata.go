/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package vector

import (
	"regexp"
	"strconv"
)

var (
	commandRe = regexp.MustCompile(`([mMlLhHvVcCsSqQtTaAzZ])([^mMlLhHvVcCsSqQtTaAzZ]*)`)
	// numberRe also splits compact runs such as "4.26.47" into 4.26 and .47.
	numberRe = regexp.MustCompile(`[-+]?\d*\.?\d+(?:[eE][-+]?\d+)?`)
)

// PathCommand is one instruction of SVG path data.
type PathCommand struct {
	Letter   byte // upper-case command letter
	Relative bool
	Params   []float64
}

// Arity returns the number of parameters one repetition of a command consumes.
func Arity(letter byte) int {
	switch upper(letter) {
	case 'M', 'L', 'T':
		return 2
	case 'H', 'V':
		return 1
	case 'C':
		return 6
	case 'S', 'Q':
		return 4
	case 'A':
		return 7
	default:
		return 0
	}
}

// ParsePathData splits d into commands. Text before the first command letter
// and numbers that do not fit a float64 are dropped.
func ParsePathData(d string) []PathCommand {
	matches := commandRe.FindAllStringSubmatch(d, -1)
	out := make([]PathCommand, 0, len(matches))
	for _, m := range matches {
		letter := m[1][0]
		pc := PathCommand{Letter: upper(letter), Relative: letter >= 'a'}
		for _, num := range numberRe.FindAllString(m[2], -1) {
			v, err := strconv.ParseFloat(num, 64)
			if err != nil {
				continue
			}
			pc.Params = append(pc.Params, v)
		}
		out = append(out, pc)
	}
	return out
}

func upper(b byte) byte {
	if b >= 'a' && b <= 'z' {
		return b - ('a' - 'A')
	}
	return b
}

// cursor tracks the current point and the start of the current subpath.
type cursor struct {
	cur     Pt
	start   Pt
	started bool
}

func (c *cursor) resolve(rel bool, x, y float64) Pt {
	if rel {
		return Pt{c.cur.X + x, c.cur.Y + y}
	}
	return Pt{x, y}
}

// TracePath converts path data into an absolute Path. After each command the
// cursor sits on the last on-curve point drawn. A command whose parameters run
// out mid-repetition stops there; parsing continues with the next command.
func TracePath(d string) Path {
	var p Path
	var c cursor
	for _, cmd := range ParsePathData(d) {
		c.apply(&p, cmd)
	}
	return p
}

func (c *cursor) apply(p *Path, cmd PathCommand) {
	letter, rel, params := cmd.Letter, cmd.Relative, cmd.Params
	switch letter {
	case 'Z':
		p.Close()
		c.cur = c.start
		return
	case 'M':
		if len(params) < 2 {
			return
		}
		// A leading moveto has no prior point to be relative to.
		pt := Pt{params[0], params[1]}
		if rel && c.started {
			pt = c.resolve(true, params[0], params[1])
		}
		p.MoveTo(pt)
		c.cur, c.start, c.started = pt, pt, true
		params = params[2:]
		letter = 'L'
	}

	n := Arity(letter)
	if n == 0 {
		return
	}
	for len(params) >= n {
		g := params[:n]
		params = params[n:]
		var end Pt
		switch letter {
		case 'L':
			end = c.resolve(rel, g[0], g[1])
			p.LineTo(end)
		case 'H':
			end = Pt{g[0], c.cur.Y}
			if rel {
				end.X += c.cur.X
			}
			p.LineTo(end)
		case 'V':
			end = Pt{c.cur.X, g[0]}
			if rel {
				end.Y += c.cur.Y
			}
			p.LineTo(end)
		case 'C':
			c1 := c.resolve(rel, g[0], g[1])
			c2 := c.resolve(rel, g[2], g[3])
			end = c.resolve(rel, g[4], g[5])
			p.CubicTo(c1, c2, end)
		case 'S':
			c2 := c.resolve(rel, g[0], g[1])
			end = c.resolve(rel, g[2], g[3])
			p.SmoothCubicTo(c2, end)
		case 'Q':
			c1 := c.resolve(rel, g[0], g[1])
			end = c.resolve(rel, g[2], g[3])
			p.QuadTo(c1, end)
		case 'T':
			end = c.resolve(rel, g[0], g[1])
			p.SmoothQuadTo(end)
		case 'A':
			end = c.resolve(rel, g[5], g[6])
			p.ArcTo(end)
		}
		c.cur = end
		c.started = true
	}
}
