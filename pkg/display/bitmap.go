package display

import "image/color"

// Pixel colors as seen by the e-paper: colored is ink, uncolored is paper.
var (
	Colored   = color.RGBA{0, 0, 0, 255}
	Uncolored = color.RGBA{255, 255, 255, 255}
)

// GlassWidth is the visible width of the 2.13" panel. Panel RAM rows are
// byte aligned, so the bitmap is usually wider than the glass.
const GlassWidth = 122

// panelWidths returns the visible width and the byte-aligned RAM width the
// driver is configured with for a bitmap of width w.
func panelWidths(w int16) (glass, logical int16) {
	logical = (w + 7) / 8 * 8
	return min(w, GlassWidth), logical
}

// Bitmap is a 1-bit frame buffer laid out like the panel's RAM:
// rows of width/8 bytes, MSB is the leftmost pixel, a set bit is uncolored.
// It implements drivers.Displayer so fonts can draw straight into it.
type Bitmap struct {
	width  int16
	height int16
	stride int16
	buf    []byte
}

// NewBitmap allocates a blank bitmap. Width is rounded up to a whole byte.
func NewBitmap(width, height int16) *Bitmap {
	stride := (width + 7) / 8
	b := &Bitmap{
		width:  width,
		height: height,
		stride: stride,
		buf:    make([]byte, int(stride)*int(height)),
	}
	b.Clear()
	return b
}

// Size implements drivers.Displayer.
func (b *Bitmap) Size() (x, y int16) {
	return b.width, b.height
}

// SetPixel implements drivers.Displayer. Pixels outside the bitmap are
// dropped. Any color darker than mid grey is ink.
func (b *Bitmap) SetPixel(x, y int16, c color.RGBA) {
	if x < 0 || y < 0 || x >= b.width || y >= b.height {
		return
	}
	idx := int(y)*int(b.stride) + int(x/8)
	mask := byte(0x80) >> uint(x%8)
	if isInk(c) {
		b.buf[idx] &^= mask
	} else {
		b.buf[idx] |= mask
	}
}

// Display implements drivers.Displayer. Pushing to the glass is done by a
// Panel, so this is a no-op.
func (b *Bitmap) Display() error {
	return nil
}

// Colored reports whether the pixel at x, y carries ink.
func (b *Bitmap) Colored(x, y int16) bool {
	if x < 0 || y < 0 || x >= b.width || y >= b.height {
		return false
	}
	idx := int(y)*int(b.stride) + int(x/8)
	return b.buf[idx]&(byte(0x80)>>uint(x%8)) == 0
}

// Clear resets every pixel to uncolored.
func (b *Bitmap) Clear() {
	for i := range b.buf {
		b.buf[i] = 0xFF
	}
}

// Blank reports whether no pixel carries ink.
func (b *Bitmap) Blank() bool {
	for _, v := range b.buf {
		if v != 0xFF {
			return false
		}
	}
	return true
}

// Buffer returns the raw frame buffer. Callers must not keep it across
// redraws.
func (b *Bitmap) Buffer() []byte {
	return b.buf
}

func isInk(c color.RGBA) bool {
	// Rec. 601 luma, integer form.
	luma := (299*uint32(c.R) + 587*uint32(c.G) + 114*uint32(c.B)) / 1000
	return luma < 128
}
