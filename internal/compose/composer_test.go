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
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"

	jxml "github.com/jphsd/xml"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"logostyler/internal/flags"
	"logostyler/internal/gradient"
	"logostyler/internal/palette"
	"logostyler/internal/planner"
	"logostyler/internal/vector"
)

type seqIDs struct {
	mu sync.Mutex
	n  int
}

func (s *seqIDs) Hex(n int) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.n++
	return fmt.Sprintf("%0*x", n, s.n)
}

func quietLogger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func newComposer(store flags.Store) *Composer {
	p := planner.New(palette.Default(), store)
	p.Logger = quietLogger()
	c := New(DefaultTemplate(), p)
	c.IDs = &seqIDs{}
	c.Logger = quietLogger()
	return c
}

func leaves(cfgs ...planner.LeafFillConfig) Request {
	r := Request{Leaves: map[planner.Role]planner.LeafFillConfig{}}
	for _, c := range cfgs {
		r.Leaves[c.Role] = c
	}
	return r
}

// pathByD returns the attributes of the composed path whose data starts with prefix.
func pathByD(t *testing.T, doc []byte, prefix string) map[string]string {
	t.Helper()
	root, err := jxml.NewXMLDecoder(bytes.NewReader(doc)).BuildDOM()
	require.NoError(t, err)
	require.NotNil(t, root)
	var walk func(e *jxml.Element) map[string]string
	walk = func(e *jxml.Element) map[string]string {
		if e.Type == jxml.Node && e.Name.Local == "path" && strings.HasPrefix(e.Attributes["d"], prefix) {
			return e.Attributes
		}
		for _, c := range e.Children {
			if m := walk(c); m != nil {
				return m
			}
		}
		return nil
	}
	m := walk(root)
	if m == nil {
		t.Fatalf("no path starting with %q", prefix)
	}
	return m
}

func TestDefaultTemplate(t *testing.T) {
	tpl := DefaultTemplate()
	assert.Len(t, tpl.Paths, 8)
	w, h := tpl.Size()
	assert.Equal(t, 640.0, w)
	assert.Equal(t, 510.0, h)
	assert.Equal(t, "#088180", tpl.Classes["cls-1"])
	assert.Equal(t, "#fff", tpl.Classes["cls-2"])
	assert.Equal(t, DefaultLayerID, tpl.LayerID)
	for role, sel := range DefaultSelectors() {
		_, ok := tpl.find(sel, claimedSet{})
		assert.True(t, ok, "selector for %s", role)
	}
}

func TestComposeGradientLeaf(t *testing.T) {
	c := newComposer(nil)
	cfg := planner.DefaultConfig(planner.Left, "Italy")
	logo, err := c.Compose(context.Background(), leaves(cfg))
	require.NoError(t, err)
	require.Empty(t, logo.Issues)
	require.Len(t, logo.Leaves, 1)

	l := logo.Leaves[0]
	assert.Equal(t, "it-left-0001-horizontal-gradient-000002", l.FillID)
	assert.Equal(t, 3, l.PathIndex)

	svgText := string(logo.SVG)
	assert.Contains(t, svgText, `viewBox="0 0 640 510"`)
	assert.Contains(t, svgText, `<linearGradient id="it-left-0001-horizontal-gradient-000002" x1="0%" y1="0%" x2="100%" y2="0%">`)
	assert.Contains(t, svgText, `<stop offset="30.00%" stop-color="#009246"/>`)

	left := pathByD(t, logo.SVG, "m92.66,263.59c")
	assert.Equal(t, "url(#"+l.FillID+")", left["fill"])
	_, hasClass := left["class"]
	assert.False(t, hasClass, "styled leaf keeps its class")

	top := pathByD(t, logo.SVG, "m284.59,97c")
	assert.Equal(t, "cls-2", top["class"])
	assert.Equal(t, "#fff", top["fill"])
	assert.Equal(t, "#088180", pathByD(t, logo.SVG, "m200.76,164.31")["fill"])
}

func TestComposeOutputIsATemplateAgain(t *testing.T) {
	c := newComposer(nil)
	logo, err := c.Compose(context.Background(), leaves(
		planner.DefaultConfig(planner.Left, "Germany"),
		planner.DefaultConfig(planner.Top, "France"),
		planner.DefaultConfig(planner.Right, "Ireland"),
	))
	require.NoError(t, err)
	require.Len(t, logo.Leaves, 3)
	again, err := LoadTemplate(bytes.NewReader(logo.SVG))
	require.NoError(t, err)
	assert.Len(t, again.Paths, 8)
	assert.Equal(t, DefaultTemplate().ViewBox, again.ViewBox)
	for i, p := range again.Paths {
		assert.Equal(t, DefaultTemplate().Paths[i].D, p.D)
	}
}

func TestComposePatternLeaf(t *testing.T) {
	art := []byte(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 3 2"/>`)
	c := newComposer(flags.MapStore{"it": art})
	cfg := planner.DefaultConfig(planner.Top, "Italy")
	cfg.Strategy = planner.StrategyFlag
	logo, err := c.Compose(context.Background(), leaves(cfg))
	require.NoError(t, err)
	require.Len(t, logo.Leaves, 1)
	assert.Equal(t, "pattern-it-top-0001", logo.Leaves[0].FillID)

	s := string(logo.SVG)
	assert.Contains(t, s, `<pattern id="pattern-it-top-0001" patternUnits="userSpaceOnUse"`)
	assert.Contains(t, s, `xlink:href="`+DataURI(art)+`"`)
	assert.Contains(t, s, `xmlns:xlink="http://www.w3.org/1999/xlink"`)
	assert.Equal(t, "url(#pattern-it-top-0001)", pathByD(t, logo.SVG, "m284.59,97c")["fill"])
}

func TestComposeMissingFlagFallsBack(t *testing.T) {
	c := newComposer(flags.MapStore{})
	cfg := planner.DefaultConfig(planner.Right, "Italy")
	cfg.Strategy = planner.StrategyFlag
	cfg.Direction = gradient.Vertical
	logo, err := c.Compose(context.Background(), leaves(cfg))
	require.NoError(t, err)
	require.Len(t, logo.Leaves, 1)
	assert.Equal(t, "it-right-0001-vertical-gradient-000002", logo.Leaves[0].FillID)
	assert.NotContains(t, string(logo.SVG), "<pattern")
}

func TestComposeNoLeaves(t *testing.T) {
	_, err := newComposer(nil).Compose(context.Background(), Request{})
	if !errors.Is(err, ErrNoLeaves) {
		t.Fatalf("expected ErrNoLeaves, got %v", err)
	}
}

func TestComposeUnknownCountryLeavesSiblings(t *testing.T) {
	c := newComposer(nil)
	logo, err := c.Compose(context.Background(), leaves(
		planner.DefaultConfig(planner.Left, "Atlantis"),
		planner.DefaultConfig(planner.Right, "Italy"),
	))
	require.NoError(t, err)
	require.Len(t, logo.Issues, 1)
	assert.Equal(t, planner.Left, logo.Issues[0].Role)
	assert.ErrorIs(t, logo.Err(), palette.ErrCountryNotFound)

	_, ok := logo.Leaf(planner.Right)
	assert.True(t, ok)
	left := pathByD(t, logo.SVG, "m92.66,263.59c")
	assert.Equal(t, "cls-2", left["class"])
}

func TestClaimedSetPreventsDoubleStyling(t *testing.T) {
	c := newComposer(nil)
	c.Selectors = Selectors{
		planner.Left:  {Prefix: "m92.66,263.59c"},
		planner.Top:   {Prefix: "m92.66,263.59c"},
		planner.Right: {Prefix: "m"},
	}
	logo, err := c.Compose(context.Background(), leaves(
		planner.DefaultConfig(planner.Left, "Italy"),
		planner.DefaultConfig(planner.Top, "France"),
		planner.DefaultConfig(planner.Right, "Spain"),
	))
	require.NoError(t, err)
	require.Len(t, logo.Issues, 1)
	assert.Equal(t, planner.Top, logo.Issues[0].Role)
	assert.ErrorIs(t, logo.Issues[0], ErrLeafNotFound)

	right, ok := logo.Leaf(planner.Right)
	require.True(t, ok)
	left, _ := logo.Leaf(planner.Left)
	assert.NotEqual(t, left.PathIndex, right.PathIndex)
	assert.Equal(t, 0, right.PathIndex)
}

func TestComposeSelectorByID(t *testing.T) {
	tpl, err := LoadTemplate(strings.NewReader(`<svg xmlns="http://www.w3.org/2000/svg" width="100" height="50">
<style>.x { fill: red }</style>
<g id="Layer_1-2"><path id="leaf" d="M0,0 L10,0 L10,10 Z" fill="#123456" stroke="black"/></g></svg>`))
	require.NoError(t, err)
	p := planner.New(palette.Default(), nil)
	p.Logger = quietLogger()
	c := New(tpl, p)
	c.IDs = &seqIDs{}
	c.Selectors = Selectors{planner.Left: {ID: "leaf"}}
	logo, err := c.Compose(context.Background(), leaves(planner.DefaultConfig(planner.Left, "Japan")))
	require.NoError(t, err)
	require.Empty(t, logo.Issues)
	attrs := pathByD(t, logo.SVG, "M0,0")
	assert.Equal(t, "url(#jp-left-0001-horizontal-gradient-000002)", attrs["fill"])
	assert.Equal(t, "black", attrs["stroke"])
	assert.Equal(t, "leaf", attrs["id"])
	assert.Contains(t, string(logo.SVG), `viewBox="0 0 100 50"`)
}

func TestComposeCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := newComposer(nil).Compose(ctx, leaves(planner.DefaultConfig(planner.Left, "Italy")))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLoadTemplateErrors(t *testing.T) {
	cases := map[string]string{
		"not svg":   `<html/>`,
		"no layer":  `<svg viewBox="0 0 10 10"><g id="other"/></svg>`,
		"no size":   `<svg><g id="Layer_1-2"/></svg>`,
		"bad vb":    `<svg viewBox="0 0 0 10"><g id="Layer_1-2"/></svg>`,
		"truncated": `<svg viewBox="0 0 10 10"><g id="Layer_1-2">`,
		"empty":     ``,
	}
	for name, doc := range cases {
		if _, err := LoadTemplate(strings.NewReader(doc)); !errors.Is(err, ErrTemplate) {
			t.Fatalf("%s: expected ErrTemplate, got %v", name, err)
		}
	}
}

func TestLoadTemplateLayerStructure(t *testing.T) {
	doc := `<?xml version="1.0"?>
<!-- exported -->
<svg xmlns="http://www.w3.org/2000/svg" xmlns:xlink="http://www.w3.org/1999/xlink" width="200px" height="100" data-name="logo">
  <defs><style>.a{fill:#111;}</style></defs>
  <path d="M0,0 L1,1"/>
  <g id="leaves" opacity="0.9">
    <path id="p1" class="a" d="M1,1 L2,2" stroke="none"/>
    <g><path d="M9,9 L8,8"/></g>
    <path d="M3,3 L4,4"/>
  </g>
  <g id="leaves"><path d="M5,5 L6,6"/></g>
</svg>`
	tpl, err := LoadTemplateLayer(strings.NewReader(doc), "leaves")
	require.NoError(t, err)
	assert.Equal(t, vector.R(0, 0, 200, 100), tpl.ViewBox)
	require.Len(t, tpl.Paths, 2, "only direct children of the first layer group")
	assert.Equal(t, "p1", tpl.Paths[0].ID)
	assert.Equal(t, "a", tpl.Paths[0].Class)
	assert.Equal(t, "M3,3 L4,4", tpl.Paths[1].D)
	require.Len(t, tpl.Paths[0].Attrs, 1)
	assert.Equal(t, "stroke", tpl.Paths[0].Attrs[0].Name.Local)
	require.Len(t, tpl.Layer, 1)
	assert.Equal(t, "opacity", tpl.Layer[0].Name.Local)
	require.Len(t, tpl.Root, 1)
	assert.Equal(t, "data-name", tpl.Root[0].Name.Local)
	fill, ok := tpl.FillFor(tpl.Paths[0])
	assert.True(t, ok)
	assert.Equal(t, "#111", fill)
}

func TestParseClassFills(t *testing.T) {
	got := parseClassFills(`.a { fill: #111; } .a, .b { stroke-width: 0px; } .b{fill:#222} g .c { fill: red } .a { fill: #333 }`)
	assert.Equal(t, map[string]string{"a": "#333", "b": "#222"}, got)
}

func TestUUIDSource(t *testing.T) {
	var s UUIDSource
	a, b := s.Hex(6), s.Hex(6)
	assert.Len(t, a, 6)
	assert.NotEqual(t, a, b)
	assert.Len(t, s.Hex(64), 32)
}

func TestRasterAndMaskDocuments(t *testing.T) {
	art := []byte(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 3 2"/>`)
	c := newComposer(flags.MapStore{"it": art})
	flag := planner.DefaultConfig(planner.Top, "Italy")
	flag.Strategy = planner.StrategyFlag
	logo, err := c.Compose(context.Background(), leaves(flag, planner.DefaultConfig(planner.Left, "France")))
	require.NoError(t, err)

	raster, err := logo.RasterSVG()
	require.NoError(t, err)
	assert.NotContains(t, string(raster), "<pattern")
	assert.Contains(t, string(raster), "<linearGradient")
	assert.Equal(t, "none", pathByD(t, raster, "m284.59,97c")["fill"])

	top, ok := logo.Leaf(planner.Top)
	require.True(t, ok)
	mask, err := logo.MaskSVG(top)
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(string(mask), "<path"))
	assert.Equal(t, "#000000", pathByD(t, mask, "m284.59,97c")["fill"])

	_, err = logo.MaskSVG(LeafResult{Role: planner.Top, PathIndex: 42})
	assert.ErrorIs(t, err, ErrLeafNotFound)
}
