/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"math"
	"os"
	"path/filepath"

	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
	"golang.org/x/image/draw"

	"logostyler/internal/compose"
	"logostyler/internal/planner"
	"logostyler/internal/vector"
)

// DefaultPNGWidth is the raster width used when none is configured.
const DefaultPNGWidth = 600

// maxTilesPerAxis bounds pattern tiling for very small zoom values.
const maxTilesPerAxis = 64

// RenderPNG rasterizes the logo at the given pixel width on a transparent
// background. Gradient and plain leaves are drawn by oksvg; flag pattern
// leaves are composited by drawing the flag artwork through the leaf's mask.
func RenderPNG(logo *compose.Logo, width int) (*image.RGBA, error) {
	if logo == nil || logo.Template == nil {
		return nil, fmt.Errorf("logo is nil")
	}
	if width <= 0 {
		width = DefaultPNGWidth
	}
	vb := logo.Template.ViewBox
	scale := float64(width) / vb.W
	height := max(1, int(math.Round(vb.H*scale)))

	doc, err := logo.RasterSVG()
	if err != nil {
		return nil, fmt.Errorf("raster document: %w", err)
	}
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	if err := drawSVG(img, doc, 0, 0, float64(width), float64(height)); err != nil {
		return nil, fmt.Errorf("draw logo: %w", err)
	}

	// user space -> pixels
	toPx := vector.Scale(scale, scale).Mul(vector.Translate(-vb.X, -vb.Y))
	for _, leaf := range logo.Leaves {
		pf, ok := leaf.Fill.(planner.PatternFill)
		if !ok {
			continue
		}
		if err := compositePattern(img, logo, leaf, pf, toPx); err != nil {
			return nil, fmt.Errorf("%s leaf pattern: %w", leaf.Role, err)
		}
	}
	return img, nil
}

func compositePattern(dst *image.RGBA, logo *compose.Logo, leaf compose.LeafResult, pf planner.PatternFill, toPx vector.Affine2D) error {
	maskDoc, err := logo.MaskSVG(leaf)
	if err != nil {
		return err
	}
	b := dst.Bounds()
	mask := image.NewRGBA(b)
	if err := drawSVG(mask, maskDoc, 0, 0, float64(b.Dx()), float64(b.Dy())); err != nil {
		return fmt.Errorf("draw mask: %w", err)
	}

	tile := toPx.ApplyRect(pf.Placement)
	area := toPx.ApplyRect(pf.BBox)
	if tile.W <= 0 || tile.H <= 0 {
		return fmt.Errorf("empty pattern tile %v", tile)
	}
	layer := image.NewRGBA(b)
	x0 := tile.X - math.Ceil((tile.X-area.X)/tile.W)*tile.W
	y0 := tile.Y - math.Ceil((tile.Y-area.Y)/tile.H)*tile.H
	nx := min(maxTilesPerAxis, int(math.Ceil((area.X+area.W-x0)/tile.W)))
	ny := min(maxTilesPerAxis, int(math.Ceil((area.Y+area.H-y0)/tile.H)))
	for i := 0; i < nx; i++ {
		for j := 0; j < ny; j++ {
			x := x0 + float64(i)*tile.W
			y := y0 + float64(j)*tile.H
			if err := drawSVG(layer, pf.Artwork.Data, x, y, tile.W, tile.H); err != nil {
				return fmt.Errorf("draw flag %s: %w", pf.ImageRef, err)
			}
		}
	}
	draw.DrawMask(dst, b, layer, b.Min, mask, b.Min, draw.Over)
	return nil
}

// drawSVG renders data into dst, mapping its viewBox onto the target rect.
func drawSVG(dst *image.RGBA, data []byte, x, y, w, h float64) error {
	icon, err := oksvg.ReadIconStream(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("parse svg: %w", err)
	}
	icon.SetTarget(x, y, w, h)
	b := dst.Bounds()
	scanner := rasterx.NewScannerGV(b.Dx(), b.Dy(), dst, b)
	raster := rasterx.NewDasher(b.Dx(), b.Dy(), scanner)
	icon.Draw(raster, 1.0)
	return nil
}

// Thumbnail scales img to width pixels keeping its aspect ratio.
func Thumbnail(img image.Image, width int) *image.RGBA {
	sb := img.Bounds()
	if width <= 0 || sb.Dx() == 0 {
		width = max(1, sb.Dx())
	}
	height := max(1, int(math.Round(float64(sb.Dy())*float64(width)/float64(max(1, sb.Dx())))))
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, sb, draw.Over, nil)
	return dst
}

// EncodePNG encodes img with the default compression.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// WritePNG encodes img to path, creating parent directories.
func WritePNG(img image.Image, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("ensure out dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create png: %w", err)
	}
	if err := png.Encode(f, img); err != nil {
		_ = f.Close()
		return fmt.Errorf("encode png: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close png: %w", err)
	}
	return nil
}
