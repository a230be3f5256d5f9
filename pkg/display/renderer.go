// Package display renders the message log onto the e-paper panel.
//
// A Renderer owns one Bitmap. Every redraw clears it, writes one text line
// per log entry from the top down and pushes the whole frame to a Panel.
// The device Panel lives in epd.go and is only built with TinyGo.
package display

import (
	"errors"
	"fmt"
	"image/color"
	"iter"

	"tinygo.org/x/drivers"
	"tinygo.org/x/tinyfont"
)

var (
	ErrInit    = errors.New("e-Paper initialization error")
	ErrPresent = errors.New("e-Paper refresh failed")
)

// Panel pushes a finished bitmap to the glass.
type Panel interface {
	Present(b *Bitmap) error
}

// Layout positions the text lines. Step 0 uses the font line height.
type Layout struct {
	X    int16
	Y    int16
	Step int16
}

// Renderer draws message lines into a bitmap and presents it.
type Renderer struct {
	panel  Panel
	bitmap *Bitmap
	font   tinyfont.Fonter
	layout Layout
	ascent int16

	drawLine func(d drivers.Displayer, font tinyfont.Fonter, x, y int16, s string, c color.RGBA)
}

// NewRenderer creates a renderer over panel using the TomThumb font.
func NewRenderer(panel Panel, bitmap *Bitmap, layout Layout) *Renderer {
	return NewRendererWithFont(panel, bitmap, layout, &tinyfont.TomThumb)
}

// NewRendererWithFont creates a renderer with an explicit font.
func NewRendererWithFont(panel Panel, bitmap *Bitmap, layout Layout, font tinyfont.Fonter) *Renderer {
	lineHeight := int16(font.GetYAdvance())
	if layout.Step <= 0 {
		layout.Step = lineHeight
	}
	return &Renderer{
		panel:    panel,
		bitmap:   bitmap,
		font:     font,
		layout:   layout,
		ascent:   lineHeight - 1,
		drawLine: tinyfont.WriteLine,
	}
}

// Render clears the bitmap, draws entries oldest first and presents it.
func (r *Renderer) Render(entries iter.Seq[string]) error {
	r.bitmap.Clear()

	top := r.layout.Y
	for msg := range entries {
		// tinyfont positions text by its baseline.
		r.drawLine(r.bitmap, r.font, r.layout.X, top+r.ascent, msg, Colored)
		top += r.layout.Step
	}

	return r.present()
}

// Blank clears the bitmap and presents the empty frame.
func (r *Renderer) Blank() error {
	r.bitmap.Clear()
	return r.present()
}

// Bitmap returns the frame buffer the renderer draws into.
func (r *Renderer) Bitmap() *Bitmap {
	return r.bitmap
}

// Layout returns the effective layout, with Step resolved.
func (r *Renderer) Layout() Layout {
	return r.layout
}

func (r *Renderer) present() error {
	if err := r.panel.Present(r.bitmap); err != nil {
		return fmt.Errorf("%w: %w", ErrPresent, err)
	}
	return nil
}
