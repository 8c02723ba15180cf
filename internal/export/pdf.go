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
	"os"
	"path/filepath"

	"github.com/jung-kurt/gofpdf"

	"logostyler/internal/compose"
	"logostyler/internal/version"
)

// PDFOptions controls PDF export. Units are points; the page has the
// template's size with the origin at the top left.
type PDFOptions struct {
	Title string
	// RasterWidth is the pixel width of the embedded image. Zero means twice
	// the template width.
	RasterWidth int
}

// WritePDF writes a single-page PDF containing the rendered logo. When img is
// nil the logo is rasterized at opt.RasterWidth.
func WritePDF(logo *compose.Logo, img image.Image, path string, opt PDFOptions) error {
	if logo == nil || logo.Template == nil {
		return fmt.Errorf("logo is nil")
	}
	w, h := logo.Template.Size()
	if img == nil {
		rw := opt.RasterWidth
		if rw <= 0 {
			rw = int(2 * w)
		}
		rgba, err := RenderPNG(logo, rw)
		if err != nil {
			return err
		}
		img = rgba
	}
	data, err := EncodePNG(img)
	if err != nil {
		return err
	}

	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		UnitStr: "pt",
		Size:    gofpdf.SizeType{Wd: w, Ht: h},
	})
	if opt.Title != "" {
		pdf.SetTitle(opt.Title, true)
	}
	pdf.SetCreator("logostyler "+version.String(), true)
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()

	const imgName = "logo"
	imgOpt := gofpdf.ImageOptions{ImageType: "PNG", ReadDpi: false}
	pdf.RegisterImageOptionsReader(imgName, imgOpt, bytes.NewReader(data))
	pdf.ImageOptions(imgName, 0, 0, w, h, false, imgOpt, 0, "")
	if err := pdf.Error(); err != nil {
		return fmt.Errorf("build pdf: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("ensure out dir: %w", err)
	}
	if err := pdf.OutputFileAndClose(path); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}
