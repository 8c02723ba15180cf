/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package vector

// Absolute path commands as traced from SVG path data.

type PathOp uint8

const (
	MoveTo PathOp = iota
	LineTo
	QuadTo        // quadratic bezier (cx, cy, x, y)
	CubicTo       // cubic bezier (cx1, cy1, cx2, cy2, x, y)
	SmoothCubicTo // smooth cubic with the given second control point (cx2, cy2, x, y)
	SmoothQuadTo  // smooth quadratic, endpoint only (x, y)
	ArcTo         // elliptical arc, endpoint only (x, y)
	Close
)

// points returns how many (x, y) pairs of Data an op uses.
func (op PathOp) points() int {
	switch op {
	case MoveTo, LineTo, SmoothQuadTo, ArcTo:
		return 1
	case QuadTo, SmoothCubicTo:
		return 2
	case CubicTo:
		return 3
	default:
		return 0
	}
}

type PathCmd struct {
	Op   PathOp
	Data [6]float64 // enough for cubic; unused slots are zero
}

type Path struct{ Cmds []PathCmd }

func (p *Path) MoveTo(pt Pt) { p.Cmds = append(p.Cmds, PathCmd{Op: MoveTo, Data: [6]float64{pt.X, pt.Y}}) }
func (p *Path) LineTo(pt Pt) { p.Cmds = append(p.Cmds, PathCmd{Op: LineTo, Data: [6]float64{pt.X, pt.Y}}) }
func (p *Path) QuadTo(c, pt Pt) {
	p.Cmds = append(p.Cmds, PathCmd{Op: QuadTo, Data: [6]float64{c.X, c.Y, pt.X, pt.Y}})
}
func (p *Path) CubicTo(c1, c2, pt Pt) {
	p.Cmds = append(p.Cmds, PathCmd{Op: CubicTo, Data: [6]float64{c1.X, c1.Y, c2.X, c2.Y, pt.X, pt.Y}})
}
func (p *Path) SmoothCubicTo(c2, pt Pt) {
	p.Cmds = append(p.Cmds, PathCmd{Op: SmoothCubicTo, Data: [6]float64{c2.X, c2.Y, pt.X, pt.Y}})
}
func (p *Path) SmoothQuadTo(pt Pt) {
	p.Cmds = append(p.Cmds, PathCmd{Op: SmoothQuadTo, Data: [6]float64{pt.X, pt.Y}})
}
func (p *Path) ArcTo(pt Pt) { p.Cmds = append(p.Cmds, PathCmd{Op: ArcTo, Data: [6]float64{pt.X, pt.Y}}) }
func (p *Path) Close()      { p.Cmds = append(p.Cmds, PathCmd{Op: Close}) }

// Points returns every vertex recorded by the path, control points included,
// in command order.
func (p *Path) Points() []Pt {
	var out []Pt
	for _, c := range p.Cmds {
		for i := 0; i < c.Op.points(); i++ {
			out = append(out, Pt{c.Data[2*i], c.Data[2*i+1]})
		}
	}
	return out
}

// Bounds returns the control-polygon bounding box of the path: every vertex,
// including curve control points, is enclosed. This over-estimates curved
// segments but never under-estimates them. ok is false for a path without points.
func (p *Path) Bounds() (r Rect, ok bool) {
	pts := p.Points()
	if len(pts) == 0 {
		return Rect{}, false
	}
	minX, minY := pts[0].X, pts[0].Y
	maxX, maxY := minX, minY
	for _, pt := range pts[1:] {
		if pt.X < minX {
			minX = pt.X
		}
		if pt.Y < minY {
			minY = pt.Y
		}
		if pt.X > maxX {
			maxX = pt.X
		}
		if pt.Y > maxY {
			maxY = pt.Y
		}
	}
	return Rect{X: minX, Y: minY, W: maxX - minX, H: maxY - minY}, true
}
