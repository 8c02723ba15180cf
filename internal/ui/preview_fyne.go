//go:build fyne

/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package ui

import (
	"fmt"
	"image"
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/widget"
)

// LogoPreview shows the latest rendered logo, or a message when there is none.
type LogoPreview struct {
	widget.BaseWidget
	img     image.Image
	message string
}

func NewLogoPreview() *LogoPreview {
	p := &LogoPreview{message: ErrNothingEnabled.Error()}
	p.ExtendBaseWidget(p)
	return p
}

// SetImage replaces the preview image and clears the message.
func (p *LogoPreview) SetImage(img image.Image) {
	p.img = img
	p.message = ""
	p.Refresh()
}

// SetMessage hides the image and shows msg instead.
func (p *LogoPreview) SetMessage(msg string) {
	p.img = nil
	p.message = msg
	p.Refresh()
}

// PreferredSize fits the default preview raster.
func (p *LogoPreview) PreferredSize() fyne.Size { return fyne.NewSize(PreviewWidth, PreviewWidth) }

func (p *LogoPreview) CreateRenderer() fyne.WidgetRenderer {
	bg := canvas.NewRectangle(color.NRGBA{R: 0xf2, G: 0xf2, B: 0xf2, A: 0xff})
	img := canvas.NewImageFromImage(nil)
	img.FillMode = canvas.ImageFillContain
	img.ScaleMode = canvas.ImageScaleSmooth
	txt := canvas.NewText(p.message, color.NRGBA{A: 0xb0})
	txt.Alignment = fyne.TextAlignCenter
	r := &logoPreviewRenderer{p: p, bg: bg, img: img, txt: txt}
	r.objects = []fyne.CanvasObject{bg, img, txt}
	r.sync()
	return r
}

type logoPreviewRenderer struct {
	p       *LogoPreview
	bg      *canvas.Rectangle
	img     *canvas.Image
	txt     *canvas.Text
	objects []fyne.CanvasObject
}

func (r *logoPreviewRenderer) Destroy()                     {}
func (r *logoPreviewRenderer) Objects() []fyne.CanvasObject { return r.objects }
func (r *logoPreviewRenderer) MinSize() fyne.Size           { return fyne.NewSize(200, 200) }

func (r *logoPreviewRenderer) Refresh() {
	r.sync()
	r.Layout(r.p.Size())
	canvas.Refresh(r.p)
}

func (r *logoPreviewRenderer) sync() {
	r.img.Image = r.p.img
	r.img.Hidden = r.p.img == nil
	r.txt.Text = r.p.message
	r.txt.Hidden = r.p.message == ""
	r.img.Refresh()
	r.txt.Refresh()
}

func (r *logoPreviewRenderer) Layout(size fyne.Size) {
	r.bg.Resize(size)
	r.bg.Move(fyne.NewPos(0, 0))
	pad := float32(8)
	r.img.Resize(fyne.NewSize(max(0, size.Width-2*pad), max(0, size.Height-2*pad)))
	r.img.Move(fyne.NewPos(pad, pad))
	ts := r.txt.MinSize()
	r.txt.Resize(fyne.NewSize(size.Width, ts.Height))
	r.txt.Move(fyne.NewPos(0, (size.Height-ts.Height)/2))
}

// sliderText formats a slider value for its label.
func sliderText(v float64, suffix string) string {
	return fmt.Sprintf("%.0f%s", v, suffix)
}
