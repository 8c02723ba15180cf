/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package compose

import (
	"bytes"
	_ "embed"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	jxml "github.com/jphsd/xml"

	"logostyler/internal/vector"
)

//go:embed leaf_template.svg
var defaultTemplateSVG []byte

// DefaultLayerID is the group that holds the leaf paths.
const DefaultLayerID = "Layer_1-2"

// ErrTemplate reports a template that cannot host the leaves.
var ErrTemplate = errors.New("invalid logo template")

// TemplatePath is one <path> of the layer group.
type TemplatePath struct {
	Index int
	ID    string
	Class string
	D     string
	Attrs []xml.Attr // remaining attributes in document order
}

// Template is the parsed logo. It is never modified after parsing, so one
// value can back any number of concurrent compositions.
type Template struct {
	ViewBox vector.Rect
	Root    []xml.Attr // root attributes except namespaces, size and viewBox
	Style   string
	Classes map[string]string // class name -> fill colour
	LayerID string
	Layer   []xml.Attr // layer group attributes except id
	Paths   []TemplatePath
}

// DefaultTemplate parses the embedded three-leaf logo.
func DefaultTemplate() *Template {
	t, err := LoadTemplate(bytes.NewReader(defaultTemplateSVG))
	if err != nil {
		panic(fmt.Sprintf("embedded template: %v", err))
	}
	return t
}

// DefaultTemplateSVG returns the raw embedded template.
func DefaultTemplateSVG() []byte { return append([]byte(nil), defaultTemplateSVG...) }

// LoadTemplate parses an SVG whose leaves live in the DefaultLayerID group.
func LoadTemplate(r io.Reader) (*Template, error) {
	return LoadTemplateLayer(r, DefaultLayerID)
}

// LoadTemplateLayer parses an SVG whose leaves live in the group with layerID.
// Only direct <path> children of that group are considered.
func LoadTemplateLayer(r io.Reader, layerID string) (*Template, error) {
	tr := &templateReader{t: &Template{LayerID: layerID, Classes: map[string]string{}}, layerDepth: -1}
	dec := jxml.NewXMLDecoder(r)
	dec.StartElement = tr.start
	dec.EndElement = tr.end
	dec.CharData = tr.charData
	if err := dec.Process(); err != nil {
		if errors.Is(err, ErrTemplate) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrTemplate, err)
	}
	return tr.finish()
}

// templateReader collects the template while the decoder walks the document.
type templateReader struct {
	t          *Template
	depth      int
	layerDepth int // -1 before the layer group, -2 after it
	inStyle    bool
	sawRoot    bool
	style      strings.Builder
	width      float64
	height     float64
	haveVB     bool
}

func (tr *templateReader) start(el xml.StartElement) error {
	tr.depth++
	t := tr.t
	switch {
	case !tr.sawRoot:
		if el.Name.Local != "svg" {
			return fmt.Errorf("%w: root element is <%s>", ErrTemplate, el.Name.Local)
		}
		tr.sawRoot = true
		return tr.root(el)
	case el.Name.Local == "style":
		tr.inStyle = true
	case el.Name.Local == "g" && tr.layerDepth == -1 && attr(el, "id") == t.LayerID:
		tr.layerDepth = tr.depth
		for _, a := range el.Attr {
			if a.Name.Space == "" && a.Name.Local != "id" {
				t.Layer = append(t.Layer, a)
			}
		}
	case el.Name.Local == "path" && tr.layerDepth >= 0 && tr.depth == tr.layerDepth+1:
		p := TemplatePath{Index: len(t.Paths)}
		for _, a := range el.Attr {
			switch {
			case a.Name.Space != "":
			case a.Name.Local == "d":
				p.D = a.Value
			case a.Name.Local == "class":
				p.Class = a.Value
			case a.Name.Local == "id":
				p.ID = a.Value
			default:
				p.Attrs = append(p.Attrs, a)
			}
		}
		t.Paths = append(t.Paths, p)
	}
	return nil
}

func (tr *templateReader) root(el xml.StartElement) error {
	for _, a := range el.Attr {
		switch {
		case a.Name.Space == "xmlns" || (a.Name.Space == "" && a.Name.Local == "xmlns"):
		case a.Name.Local == "viewBox":
			vb, err := parseViewBox(a.Value)
			if err != nil {
				return fmt.Errorf("%w: %v", ErrTemplate, err)
			}
			tr.t.ViewBox, tr.haveVB = vb, true
		case a.Name.Local == "width":
			tr.width = parseLength(a.Value)
		case a.Name.Local == "height":
			tr.height = parseLength(a.Value)
		case a.Name.Space == "":
			tr.t.Root = append(tr.t.Root, a)
		}
	}
	return nil
}

func (tr *templateReader) end(el xml.EndElement) error {
	if el.Name.Local == "style" {
		tr.inStyle = false
	}
	if tr.depth == tr.layerDepth {
		tr.layerDepth = -2 // first matching group only
	}
	tr.depth--
	return nil
}

func (tr *templateReader) charData(cd xml.CharData) error {
	if tr.inStyle {
		tr.style.Write(cd)
	}
	return nil
}

func (tr *templateReader) finish() (*Template, error) {
	t := tr.t
	if !tr.sawRoot {
		return nil, fmt.Errorf("%w: empty document", ErrTemplate)
	}
	if tr.layerDepth == -1 {
		return nil, fmt.Errorf("%w: layer group %q not found", ErrTemplate, t.LayerID)
	}
	if !tr.haveVB {
		if tr.width <= 0 || tr.height <= 0 {
			return nil, fmt.Errorf("%w: no viewBox and no usable width/height", ErrTemplate)
		}
		t.ViewBox = vector.R(0, 0, tr.width, tr.height)
	}
	t.Style = strings.TrimSpace(tr.style.String())
	t.Classes = parseClassFills(t.Style)
	return t, nil
}

// parseLength reads a plain or px length; anything else is 0.
func parseLength(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSuffix(strings.TrimSpace(s), "px"), 64)
	if err != nil {
		return 0
	}
	return v
}

func attr(el xml.StartElement, name string) string {
	for _, a := range el.Attr {
		if a.Name.Local == name {
			return a.Value
		}
	}
	return ""
}

func parseViewBox(s string) (vector.Rect, error) {
	f := strings.FieldsFunc(s, func(r rune) bool { return r == ' ' || r == ',' || r == '\t' || r == '\n' || r == '\r' })
	if len(f) != 4 {
		return vector.Rect{}, fmt.Errorf("viewBox %q needs four numbers", s)
	}
	var v [4]float64
	for i, field := range f {
		n, err := strconv.ParseFloat(field, 64)
		if err != nil {
			return vector.Rect{}, fmt.Errorf("viewBox %q: %w", s, err)
		}
		v[i] = n
	}
	if v[2] <= 0 || v[3] <= 0 {
		return vector.Rect{}, fmt.Errorf("viewBox %q has no area", s)
	}
	return vector.R(v[0], v[1], v[2], v[3]), nil
}

var cssRule = regexp.MustCompile(`([^{}]+)\{([^{}]*)\}`)

// parseClassFills extracts "fill" declarations of simple class selectors.
// Later rules win, as in CSS.
func parseClassFills(css string) map[string]string {
	out := map[string]string{}
	for _, m := range cssRule.FindAllStringSubmatch(css, -1) {
		var fill string
		for _, decl := range strings.Split(m[2], ";") {
			k, v, ok := strings.Cut(decl, ":")
			if ok && strings.TrimSpace(k) == "fill" {
				fill = strings.TrimSpace(v)
			}
		}
		if fill == "" {
			continue
		}
		for _, sel := range strings.Split(m[1], ",") {
			sel = strings.TrimSpace(sel)
			if strings.HasPrefix(sel, ".") && !strings.ContainsAny(sel[1:], " .#:>[") {
				out[sel[1:]] = fill
			}
		}
	}
	return out
}

// FillFor returns the fill a path gets from its class, if any.
func (t *Template) FillFor(p TemplatePath) (string, bool) {
	for _, c := range strings.Fields(p.Class) {
		if f, ok := t.Classes[c]; ok {
			return f, true
		}
	}
	return "", false
}

// Size is the viewBox size of the template.
func (t *Template) Size() (w, h float64) { return t.ViewBox.W, t.ViewBox.H }
