package config

import (
	"errors"
	"testing"
	"time"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Default config invalid: %v", err)
	}
	if cfg.LogCapacity != 5 {
		t.Errorf("LogCapacity: expected 5, got %d", cfg.LogCapacity)
	}
	if cfg.EndOfTestDelay() != 3000*time.Millisecond {
		t.Errorf("EndOfTestDelay: expected 3s, got %v", cfg.EndOfTestDelay())
	}
}

func TestConfigMarshalUnmarshal(t *testing.T) {
	original := Default()
	original.LineX = -3
	original.LineStep = 9
	original.Reserved = 0xABCD
	original.JournalBytes = 0x01020304

	// Marshal
	data, err := original.MarshalBinary()
	if err != nil {
		t.Fatalf("MarshalBinary failed: %v", err)
	}

	if len(data) != Size {
		t.Errorf("Expected %d bytes, got %d", Size, len(data))
	}

	// Unmarshal
	var decoded Config
	if err := decoded.UnmarshalBinary(data); err != nil {
		t.Fatalf("UnmarshalBinary failed: %v", err)
	}

	if decoded != original {
		t.Errorf("round trip mismatch:\nexpected %+v\ngot      %+v", original, decoded)
	}
}

func TestUnmarshalShort(t *testing.T) {
	var c Config
	if err := c.UnmarshalBinary(make([]byte, Size-1)); err != ErrInvalidSize {
		t.Errorf("Expected ErrInvalidSize, got %v", err)
	}
}

func TestValidateRejects(t *testing.T) {
	cases := map[string]func(c *Config){
		"zero capacity":   func(c *Config) { c.LogCapacity = 0 },
		"zero width":      func(c *Config) { c.Width = 0 },
		"unaligned width": func(c *Config) { c.Width = 122 },
		"origin below":    func(c *Config) { c.LineY = int16(c.Height) },
		"negative x":      func(c *Config) { c.LineX = -1 },
		"zero baud":       func(c *Config) { c.LinkBaud = 0 },
		"pin clash":       func(c *Config) { c.PinLEDGreen = c.PinEPDCS },
	}

	for name, mutate := range cases {
		cfg := Default()
		mutate(&cfg)
		if err := cfg.Validate(); !errors.Is(err, ErrInvalid) {
			t.Errorf("%s: expected ErrInvalid, got %v", name, err)
		}
	}
}
