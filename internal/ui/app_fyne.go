//go:build fyne && cgo

/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package ui

import (
	"context"
	"fmt"
	"image/color"
	"log/slog"
	"path/filepath"
	"sync/atomic"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	fstorage "fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"logostyler/internal/crash"
	"logostyler/internal/gradient"
	applog "logostyler/internal/log"
	"logostyler/internal/palette"
	"logostyler/internal/planner"
	"logostyler/internal/version"
)

// Run starts the desktop editor.
func Run(d Deps) error {
	defer crash.Recover(crash.Info{Dir: d.CrashDir, Command: "ui"})
	l := applog.WithComponent("ui")
	l.Info("starting UI")

	ed := NewEditor(d)
	fyneApp := app.NewWithID("logostyler")
	w := fyneApp.NewWindow("Logo Styler " + version.String())
	prefs := fyneApp.Preferences()
	winW := max(prefs.IntWithFallback("window.width", 900), 650)
	winH := max(prefs.IntWithFallback("window.height", 650), 550)
	w.Resize(fyne.NewSize(float32(winW), float32(winH)))

	status := widget.NewLabel("Ready")
	preview := NewLogoPreview()
	saveBtn := widget.NewButtonWithIcon("Save As…", theme.DocumentSaveIcon(), nil)
	saveBtn.Disable()

	// renders run off the UI goroutine; only the newest result is shown
	var renderSeq atomic.Int64
	refresh := func() {
		seq := renderSeq.Add(1)
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			logo, img, err := ed.Render(ctx, PreviewWidth)
			fyne.Do(func() {
				if renderSeq.Load() != seq {
					return
				}
				if err != nil {
					preview.SetMessage(err.Error())
					saveBtn.Disable()
					return
				}
				preview.SetImage(img)
				saveBtn.Enable()
				if lerr := logo.Err(); lerr != nil {
					status.SetText(lerr.Error())
				} else {
					status.SetText("Ready")
				}
			})
		}()
	}

	pal := d.Palette
	if pal == nil {
		pal = palette.Default()
	}
	var panels []*leafPanel
	var leafCards []fyne.CanvasObject
	for _, role := range planner.Roles {
		lp := newLeafPanel(ed, role, pal, refresh, status)
		panels = append(panels, lp)
		leafCards = append(leafCards, lp.card)
	}

	var top fyne.CanvasObject = widget.NewLabel("")
	if d.Presets != nil && d.Presets.Len() > 0 {
		presetSel := widget.NewSelect(d.Presets.Names(), func(name string) {
			p, ok := d.Presets.Get(name)
			if !ok {
				return
			}
			if err := ed.ApplyPreset(p); err != nil {
				dialog.ShowError(err, w)
				return
			}
			l.Info("preset applied", slog.String("preset", name))
			for _, lp := range panels {
				lp.sync()
			}
			refresh()
		})
		presetSel.PlaceHolder = "Load preset…"
		top = container.NewBorder(nil, nil, widget.NewLabel("Preset"), nil, presetSel)
	}

	saveBtn.OnTapped = func() {
		fd := dialog.NewFileSave(func(uc fyne.URIWriteCloser, err error) {
			if err != nil {
				dialog.ShowError(err, w)
				return
			}
			if uc == nil {
				return
			}
			path := uc.URI().Path()
			_ = uc.Close()
			files, err := ed.Save(context.Background(), path)
			if err != nil {
				l.Error("save failed", slog.Any("err", err))
				dialog.ShowError(err, w)
				return
			}
			dialog.ShowInformation("Saved", fmt.Sprintf("Successfully saved:\n%s\n%s", files.SVG, files.PNG), w)
		}, w)
		fd.SetFileName("logo.svg")
		if d.OutputDir != "" {
			if abs, err := filepath.Abs(d.OutputDir); err == nil {
				if lister, err := fstorage.ListerForURI(fstorage.NewFileURI(abs)); err == nil {
					fd.SetLocation(lister)
				}
			}
		}
		fd.Show()
	}

	controls := container.NewVScroll(container.NewVBox(append([]fyne.CanvasObject{top}, leafCards...)...))
	right := container.NewBorder(nil, container.NewBorder(nil, nil, nil, saveBtn, status), nil, nil,
		widget.NewCard("Live Preview", "", preview))
	split := container.NewHSplit(controls, right)
	split.Offset = 0.4
	w.SetContent(split)

	w.SetCloseIntercept(func() {
		sz := w.Canvas().Size()
		prefs.SetInt("window.width", int(sz.Width))
		prefs.SetInt("window.height", int(sz.Height))
		w.Close()
	})

	refresh()
	w.ShowAndRun()
	return nil
}

// leafPanel holds the controls of one leaf.
type leafPanel struct {
	ed      *Editor
	pal     *palette.Palette
	role    planner.Role
	card    *widget.Card
	enabled *widget.Check
	country *widget.Select
	fill    *widget.RadioGroup
	dir     *widget.RadioGroup
	sliders map[string]*widget.Slider
	labels  map[string]*widget.Label
	swatch  *fyne.Container
	grad    *fyne.Container
	flag    *fyne.Container
	undoBtn *widget.Button
	redoBtn *widget.Button
	syncing bool
}

var sliderSpecs = []struct {
	key      string
	title    string
	min, max float64
}{
	{"transition", "Transition", 1, 99},
	{"zoom", "Zoom", planner.MinZoom, planner.MaxZoom},
	{"pan_x", "Pan X", planner.MinPan, planner.MaxPan},
	{"pan_y", "Pan Y", planner.MinPan, planner.MaxPan},
}

func newLeafPanel(ed *Editor, role planner.Role, pal *palette.Palette, refresh func(), status *widget.Label) *leafPanel {
	lp := &leafPanel{ed: ed, pal: pal, role: role, sliders: map[string]*widget.Slider{}, labels: map[string]*widget.Label{}}
	update := func(fn func(*planner.LeafFillConfig)) {
		if lp.syncing {
			return
		}
		if err := ed.Update(role, fn); err != nil {
			status.SetText(err.Error())
			return
		}
		lp.sync()
		refresh()
	}

	lp.enabled = widget.NewCheck("Enabled", func(on bool) {
		if lp.syncing {
			return
		}
		ed.SetEnabled(role, on)
		lp.sync()
		refresh()
	})
	lp.country = widget.NewSelect(pal.Names(), func(name string) {
		update(func(c *planner.LeafFillConfig) { c.Country = name })
	})
	lp.country.PlaceHolder = "Country"
	lp.fill = widget.NewRadioGroup([]string{string(planner.StrategyGradient), string(planner.StrategyFlag)}, func(s string) {
		update(func(c *planner.LeafFillConfig) { c.Strategy = planner.Strategy(s) })
	})
	lp.fill.Horizontal = true
	lp.fill.Required = true
	lp.dir = widget.NewRadioGroup([]string{string(gradient.Horizontal), string(gradient.Vertical)}, func(s string) {
		update(func(c *planner.LeafFillConfig) { c.Direction = gradient.Direction(s) })
	})
	lp.dir.Horizontal = true
	lp.dir.Required = true

	rows := map[string]fyne.CanvasObject{}
	for _, ss := range sliderSpecs {
		s := widget.NewSlider(ss.min, ss.max)
		s.Step = 1
		lbl := widget.NewLabel("")
		key := ss.key
		s.OnChanged = func(v float64) {
			lbl.SetText(sliderText(v, "%"))
			update(func(c *planner.LeafFillConfig) { setSlider(c, key, v) })
		}
		lp.sliders[key] = s
		lp.labels[key] = lbl
		rows[key] = container.NewBorder(nil, nil, widget.NewLabel(ss.title), lbl, s)
	}
	lp.grad = container.NewVBox(lp.dir, rows["transition"])
	lp.flag = container.NewVBox(rows["zoom"], rows["pan_x"], rows["pan_y"])
	lp.swatch = container.NewHBox()

	lp.undoBtn = widget.NewButtonWithIcon("", theme.ContentUndoIcon(), func() {
		if ed.Undo(role) {
			lp.sync()
			refresh()
		}
	})
	lp.redoBtn = widget.NewButtonWithIcon("", theme.ContentRedoIcon(), func() {
		if ed.Redo(role) {
			lp.sync()
			refresh()
		}
	})

	header := container.NewBorder(nil, nil, lp.enabled, container.NewHBox(lp.undoBtn, lp.redoBtn))
	body := container.NewVBox(header,
		container.NewBorder(nil, nil, nil, lp.swatch, lp.country),
		lp.fill, lp.grad, lp.flag)
	lp.card = widget.NewCard(role.Title()+" Leaf", "", body)
	lp.sync()
	return lp
}

func setSlider(c *planner.LeafFillConfig, key string, v float64) {
	switch key {
	case "transition":
		c.Transition = v
	case "zoom":
		c.Zoom = v
	case "pan_x":
		c.PanX = v
	case "pan_y":
		c.PanY = v
	}
}

// sync copies the editor state into the widgets.
func (lp *leafPanel) sync() {
	lp.syncing = true
	defer func() { lp.syncing = false }()
	cfg, on := lp.ed.Leaf(lp.role)
	lp.enabled.SetChecked(on)
	if cfg.Country != "" {
		lp.country.SetSelected(cfg.Country)
	} else {
		lp.country.ClearSelected()
	}
	lp.fill.SetSelected(string(cfg.Strategy))
	lp.dir.SetSelected(string(cfg.Direction))
	for key, v := range map[string]float64{"transition": cfg.Transition, "zoom": cfg.Zoom, "pan_x": cfg.PanX, "pan_y": cfg.PanY} {
		lp.sliders[key].SetValue(v)
		lp.labels[key].SetText(sliderText(v, "%"))
	}

	lp.swatch.Objects = nil
	if entry, err := lp.pal.Resolve(cfg.Country); err == nil {
		for _, hex := range entry.Colors {
			c, err := palette.Swatch(hex)
			if err != nil {
				continue
			}
			r := canvas.NewRectangle(color.Color(c))
			r.SetMinSize(fyne.NewSize(14, 14))
			r.StrokeColor = theme.Color(theme.ColorNameSeparator)
			r.StrokeWidth = 1
			lp.swatch.Objects = append(lp.swatch.Objects, r)
		}
	}
	lp.swatch.Refresh()

	isFlag := cfg.Strategy == planner.StrategyFlag
	setShown(lp.grad, !isFlag)
	setShown(lp.flag, isFlag)
	for _, w := range []fyne.Disableable{lp.country, lp.fill, lp.dir} {
		setEnabled(w, on)
	}
	for _, s := range lp.sliders {
		setEnabled(s, on)
	}
	setEnabled(lp.undoBtn, lp.ed.CanUndo(lp.role))
	setEnabled(lp.redoBtn, lp.ed.CanRedo(lp.role))
}

func setShown(o fyne.CanvasObject, shown bool) {
	if shown {
		o.Show()
	} else {
		o.Hide()
	}
}

func setEnabled(w fyne.Disableable, on bool) {
	if on {
		w.Enable()
	} else {
		w.Disable()
	}
}
