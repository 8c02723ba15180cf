/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package compose

import (
	"encoding/base64"
	"encoding/xml"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	svg "github.com/ajstarks/svgo"

	"logostyler/internal/planner"
)

type renderMode int

const (
	modeFull   renderMode = iota
	modeRaster            // pattern leaves unfilled, no pattern definitions
)

// writeSVG serializes the template with the styled leaves. Styled paths lose
// their class and reference their definition; the remaining paths keep their
// class and repeat its fill as an attribute, since not every rasterizer reads
// <style>.
func writeSVG(w io.Writer, t *Template, leaves []LeafResult, mode renderMode) error {
	ew := &errWriter{w: w}
	canvas := svg.New(ew)

	rootAttrs := []string{attrString("viewBox", viewBoxString(t))}
	for _, a := range t.Root {
		rootAttrs = append(rootAttrs, attrString(a.Name.Local, a.Value))
	}
	canvas.Start(int(math.Ceil(t.ViewBox.W)), int(math.Ceil(t.ViewBox.H)), rootAttrs...)

	canvas.Def()
	if t.Style != "" {
		canvas.Style("text/css", t.Style)
	}
	byPath := make(map[int]LeafResult, len(leaves))
	for _, l := range leaves {
		byPath[l.PathIndex] = l
		switch f := l.Fill.(type) {
		case planner.GradientFill:
			writeGradient(canvas.Writer, l.FillID, f)
		case planner.PatternFill:
			if mode == modeFull {
				writePattern(canvas.Writer, l.FillID, f)
			}
		}
	}
	canvas.DefEnd()

	layer := []string{attrString("id", t.LayerID)}
	for _, a := range t.Layer {
		layer = append(layer, attrString(a.Name.Local, a.Value))
	}
	canvas.Group(layer...)
	for _, p := range t.Paths {
		canvas.Path(p.D, pathAttrs(t, p, byPath, mode)...)
	}
	canvas.Gend()
	canvas.End()
	return ew.err
}

// writeMask draws a single template path in opaque black on a transparent
// canvas of the template's size.
func writeMask(w io.Writer, t *Template, p TemplatePath) error {
	ew := &errWriter{w: w}
	canvas := svg.New(ew)
	canvas.Start(int(math.Ceil(t.ViewBox.W)), int(math.Ceil(t.ViewBox.H)), attrString("viewBox", viewBoxString(t)))
	canvas.Path(p.D, attrString("fill", "#000000"))
	canvas.End()
	return ew.err
}

func pathAttrs(t *Template, p TemplatePath, styled map[int]LeafResult, mode renderMode) []string {
	var out []string
	if p.ID != "" {
		out = append(out, attrString("id", p.ID))
	}
	if l, ok := styled[p.Index]; ok {
		fill := "url(#" + l.FillID + ")"
		if _, pattern := l.Fill.(planner.PatternFill); pattern && mode == modeRaster {
			fill = "none"
		}
		out = append(out, attrString("fill", fill))
	} else {
		if p.Class != "" {
			out = append(out, attrString("class", p.Class))
		}
		if fill, ok := t.FillFor(p); ok && !hasAttr(p.Attrs, "fill") {
			out = append(out, attrString("fill", fill))
		}
	}
	for _, a := range p.Attrs {
		if _, styledPath := styled[p.Index]; styledPath && a.Name.Local == "fill" {
			continue
		}
		out = append(out, attrString(a.Name.Local, a.Value))
	}
	return out
}

func writeGradient(w io.Writer, id string, g planner.GradientFill) {
	x1, y1, x2, y2 := g.Direction.Vector()
	fmt.Fprintf(w, "<linearGradient id=%q x1=%q y1=%q x2=%q y2=%q>\n", id, x1, y1, x2, y2)
	for _, s := range g.Stops {
		fmt.Fprintf(w, "<stop offset=%q stop-color=%q/>\n", s.OffsetAttr(), s.Color)
	}
	fmt.Fprint(w, "</linearGradient>\n")
}

func writePattern(w io.Writer, id string, p planner.PatternFill) {
	r := p.Placement
	fmt.Fprintf(w, "<pattern id=%q patternUnits=\"userSpaceOnUse\" x=\"%s\" y=\"%s\" width=\"%s\" height=\"%s\">\n",
		id, num(r.X), num(r.Y), num(r.W), num(r.H))
	fmt.Fprintf(w, "<image x=\"0\" y=\"0\" width=\"%s\" height=\"%s\" preserveAspectRatio=\"none\" xlink:href=\"%s\"/>\n",
		num(r.W), num(r.H), DataURI(p.Artwork.Data))
	fmt.Fprint(w, "</pattern>\n")
}

// DataURI embeds SVG artwork as a base64 data URI.
func DataURI(svgData []byte) string {
	return "data:image/svg+xml;base64," + base64.StdEncoding.EncodeToString(svgData)
}

func viewBoxString(t *Template) string {
	r := t.ViewBox
	return strings.Join([]string{num(r.X), num(r.Y), num(r.W), num(r.H)}, " ")
}

func num(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }

func attrString(name, value string) string {
	var b strings.Builder
	_ = xml.EscapeText(&b, []byte(value))
	return name + `="` + b.String() + `"`
}

func hasAttr(attrs []xml.Attr, name string) bool {
	for _, a := range attrs {
		if a.Name.Local == name {
			return true
		}
	}
	return false
}

// errWriter keeps the first write error; svgo does not report them.
type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) Write(p []byte) (int, error) {
	if e.err != nil {
		return 0, e.err
	}
	n, err := e.w.Write(p)
	e.err = err
	return n, err
}
