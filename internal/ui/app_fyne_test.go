//go:build fyne

/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// These tests validate the Fyne-based widgets. They are gated behind the
// "fyne" build tag so CI (which is headless) does not need Fyne or a display.
// To run locally:
//
//	go test -tags fyne ./internal/ui
package ui

import (
	"image"
	"testing"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/test"
)

func TestLogoPreview_Defaults(t *testing.T) {
	test.NewTempApp(t)
	p := NewLogoPreview()
	if p.message != ErrNothingEnabled.Error() {
		t.Fatalf("unexpected default message %q", p.message)
	}
	sz := p.PreferredSize()
	if sz.Width != PreviewWidth || sz.Height != PreviewWidth {
		t.Fatalf("unexpected PreferredSize: %v", sz)
	}
}

func TestLogoPreview_ImageAndMessage(t *testing.T) {
	test.NewTempApp(t)
	p := NewLogoPreview()
	r, ok := test.WidgetRenderer(p).(*logoPreviewRenderer)
	if !ok {
		t.Fatalf("expected logoPreviewRenderer")
	}
	r.Layout(fyne.NewSize(500, 300))
	if !r.img.Hidden || r.txt.Hidden {
		t.Fatalf("message should be visible before any render")
	}
	if r.img.Size().Width != 484 || r.img.Size().Height != 284 {
		t.Fatalf("unexpected image size %v", r.img.Size())
	}

	p.SetImage(image.NewRGBA(image.Rect(0, 0, 10, 10)))
	if r.img.Hidden || !r.txt.Hidden {
		t.Fatalf("image should replace the message")
	}
	p.SetMessage("boom")
	if !r.img.Hidden || r.txt.Text != "boom" {
		t.Fatalf("message should replace the image")
	}
}

func TestSliderText(t *testing.T) {
	if got := sliderText(42.4, "%"); got != "42%" {
		t.Fatalf("sliderText = %q", got)
	}
	if got := sliderText(-7.6, "%"); got != "-8%" {
		t.Fatalf("sliderText = %q", got)
	}
}
