//go:build tinygo

package display

import (
	"fmt"
	"machine"

	"tinygo.org/x/drivers/waveshare-epd/epd2in13"
)

// EPDPins wires the Waveshare 2.13" e-paper module.
type EPDPins struct {
	SCK, SDO  machine.Pin
	CS, DC    machine.Pin
	RST, Busy machine.Pin
}

// EPD is the Panel backed by the 2.13" e-paper.
type EPD struct {
	dev    epd2in13.Device
	width  int16
	height int16
}

// NewEPD configures the SPI bus and the panel, performs a full refresh to
// white and returns the panel. An error here is fatal for startup.
func NewEPD(spi *machine.SPI, pins EPDPins, width, height int16) (*EPD, error) {
	if err := spi.Configure(machine.SPIConfig{
		Frequency: 4000000,
		SCK:       pins.SCK,
		SDO:       pins.SDO,
	}); err != nil {
		return nil, fmt.Errorf("%w: spi: %w", ErrInit, err)
	}

	glass, logical := panelWidths(width)
	dev := epd2in13.New(spi, pins.CS, pins.DC, pins.RST, pins.Busy)
	// Configure loads the full-refresh waveform; partial refresh is never used.
	dev.Configure(epd2in13.Config{
		Width:        glass,
		LogicalWidth: logical,
		Height:       height,
	})

	dev.ClearBuffer()
	dev.ClearDisplay()
	dev.WaitUntilIdle()

	return &EPD{
		dev:    dev,
		width:  glass,
		height: height,
	}, nil
}

// Present copies the bitmap into the driver buffer and refreshes the glass.
// It blocks until the panel reports idle.
func (e *EPD) Present(b *Bitmap) error {
	w, h := b.Size()
	if w > e.width {
		w = e.width
	}
	if h > e.height {
		h = e.height
	}
	for y := int16(0); y < h; y++ {
		for x := int16(0); x < w; x++ {
			if b.Colored(x, y) {
				e.dev.SetPixel(x, y, Colored)
			} else {
				e.dev.SetPixel(x, y, Uncolored)
			}
		}
	}
	if err := e.dev.Display(); err != nil {
		return err
	}
	e.dev.WaitUntilIdle()
	return nil
}

