// Package config holds the compiled-in settings of the results display.
// There are no runtime setters; the binary layout exists so the settings can
// be reported over the link.
package config

import (
	"encoding/binary"
	"errors"
	"fmt"
	"time"
)

// CurrentVersion is the config layout version reported over the link.
// Bump this when the binary layout changes.
const CurrentVersion uint16 = 1

// Size is the encoded size of Config in bytes.
const Size = 36

// Config is the full set of firmware constants.
// Layout:
//
//	[0-1]:   Version (uint16)
//	[2]:     LogCapacity (uint8)
//	[3]:     LineStep (uint8, 0 = font line height)
//	[4-5]:   LineX (int16)
//	[6-7]:   LineY (int16)
//	[8-9]:   Width (uint16)
//	[10-11]: Height (uint16)
//	[12-13]: EndOfTestDelayMs (uint16)
//	[14-17]: LED red, LED green, button execute, button mode pins
//	[18-23]: e-paper SCK, SDO, CS, DC, RST, BUSY pins
//	[24-25]: link TX, RX pins
//	[26-27]: Reserved
//	[28-31]: LinkBaud (uint32)
//	[32-35]: JournalBytes (uint32)
type Config struct {
	Version     uint16
	LogCapacity uint8 // Messages kept on screen
	LineStep    uint8 // Vertical distance between text lines
	LineX       int16 // Left edge of every text line
	LineY       int16 // Top of the first text line

	Width  uint16 // Bitmap width in pixels, multiple of 8
	Height uint16 // Bitmap height in pixels

	EndOfTestDelayMs uint16

	PinLEDRed    uint8
	PinLEDGreen  uint8
	PinExecute   uint8
	PinMode      uint8
	PinEPDSCK    uint8
	PinEPDSDO    uint8
	PinEPDCS     uint8
	PinEPDDC     uint8
	PinEPDRST    uint8
	PinEPDBusy   uint8
	PinLinkTX    uint8
	PinLinkRX    uint8
	Reserved     uint16
	LinkBaud     uint32
	JournalBytes uint32
}

// Errors
var (
	ErrInvalidSize = errors.New("invalid config size")
	ErrInvalid     = errors.New("invalid config")
)

// Default returns the settings the firmware is built with.
// Pins follow the Waveshare Pico-ePaper-2.13 wiring.
func Default() Config {
	return Config{
		Version:          CurrentVersion,
		LogCapacity:      5,
		LineStep:         0,
		LineX:            5,
		LineY:            5,
		Width:            128,
		Height:           250,
		EndOfTestDelayMs: 3000,
		PinLEDRed:        14,
		PinLEDGreen:      15,
		PinExecute:       20,
		PinMode:          21,
		PinEPDSCK:        10,
		PinEPDSDO:        11,
		PinEPDCS:         9,
		PinEPDDC:         8,
		PinEPDRST:        12,
		PinEPDBusy:       13,
		PinLinkTX:        0,
		PinLinkRX:        1,
		LinkBaud:         115200,
		JournalBytes:     8 * 1024,
	}
}

// EndOfTestDelay is the pause before the screen is wiped after an
// "end of test:" message.
func (c *Config) EndOfTestDelay() time.Duration {
	return time.Duration(c.EndOfTestDelayMs) * time.Millisecond
}

// Validate checks the settings for values the firmware cannot run with.
func (c *Config) Validate() error {
	if c.LogCapacity == 0 {
		return fmt.Errorf("%w: log capacity must be at least 1", ErrInvalid)
	}
	if c.Width == 0 || c.Height == 0 {
		return fmt.Errorf("%w: bitmap size %dx%d", ErrInvalid, c.Width, c.Height)
	}
	if c.Width%8 != 0 {
		return fmt.Errorf("%w: bitmap width %d not byte aligned", ErrInvalid, c.Width)
	}
	if c.LineX < 0 || c.LineY < 0 || int(c.LineY) >= int(c.Height) {
		return fmt.Errorf("%w: text origin (%d,%d) outside bitmap", ErrInvalid, c.LineX, c.LineY)
	}
	if c.LinkBaud == 0 {
		return fmt.Errorf("%w: link baud rate is zero", ErrInvalid)
	}

	seen := make(map[uint8]string)
	for _, p := range []struct {
		name string
		pin  uint8
	}{
		{"led red", c.PinLEDRed},
		{"led green", c.PinLEDGreen},
		{"button execute", c.PinExecute},
		{"button mode", c.PinMode},
		{"epd sck", c.PinEPDSCK},
		{"epd sdo", c.PinEPDSDO},
		{"epd cs", c.PinEPDCS},
		{"epd dc", c.PinEPDDC},
		{"epd rst", c.PinEPDRST},
		{"epd busy", c.PinEPDBusy},
		{"link tx", c.PinLinkTX},
		{"link rx", c.PinLinkRX},
	} {
		if other, dup := seen[p.pin]; dup {
			return fmt.Errorf("%w: pin %d used by %s and %s", ErrInvalid, p.pin, other, p.name)
		}
		seen[p.pin] = p.name
	}
	return nil
}

// MarshalBinary implements encoding.BinaryMarshaler for Config.
func (c *Config) MarshalBinary() ([]byte, error) {
	buf := make([]byte, Size)
	binary.LittleEndian.PutUint16(buf[0:], c.Version)
	buf[2] = c.LogCapacity
	buf[3] = c.LineStep
	binary.LittleEndian.PutUint16(buf[4:], uint16(c.LineX))
	binary.LittleEndian.PutUint16(buf[6:], uint16(c.LineY))
	binary.LittleEndian.PutUint16(buf[8:], c.Width)
	binary.LittleEndian.PutUint16(buf[10:], c.Height)
	binary.LittleEndian.PutUint16(buf[12:], c.EndOfTestDelayMs)
	buf[14] = c.PinLEDRed
	buf[15] = c.PinLEDGreen
	buf[16] = c.PinExecute
	buf[17] = c.PinMode
	buf[18] = c.PinEPDSCK
	buf[19] = c.PinEPDSDO
	buf[20] = c.PinEPDCS
	buf[21] = c.PinEPDDC
	buf[22] = c.PinEPDRST
	buf[23] = c.PinEPDBusy
	buf[24] = c.PinLinkTX
	buf[25] = c.PinLinkRX
	binary.LittleEndian.PutUint16(buf[26:], c.Reserved)
	binary.LittleEndian.PutUint32(buf[28:], c.LinkBaud)
	binary.LittleEndian.PutUint32(buf[32:], c.JournalBytes)
	return buf, nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler for Config.
func (c *Config) UnmarshalBinary(data []byte) error {
	if len(data) < Size {
		return ErrInvalidSize
	}

	c.Version = binary.LittleEndian.Uint16(data[0:])
	c.LogCapacity = data[2]
	c.LineStep = data[3]
	c.LineX = int16(binary.LittleEndian.Uint16(data[4:]))
	c.LineY = int16(binary.LittleEndian.Uint16(data[6:]))
	c.Width = binary.LittleEndian.Uint16(data[8:])
	c.Height = binary.LittleEndian.Uint16(data[10:])
	c.EndOfTestDelayMs = binary.LittleEndian.Uint16(data[12:])
	c.PinLEDRed = data[14]
	c.PinLEDGreen = data[15]
	c.PinExecute = data[16]
	c.PinMode = data[17]
	c.PinEPDSCK = data[18]
	c.PinEPDSDO = data[19]
	c.PinEPDCS = data[20]
	c.PinEPDDC = data[21]
	c.PinEPDRST = data[22]
	c.PinEPDBusy = data[23]
	c.PinLinkTX = data[24]
	c.PinLinkRX = data[25]
	c.Reserved = binary.LittleEndian.Uint16(data[26:])
	c.LinkBaud = binary.LittleEndian.Uint32(data[28:])
	c.JournalBytes = binary.LittleEndian.Uint32(data[32:])
	return nil
}
