//go:build tinygo

package main

import (
	"log/slog"
	"machine"
	"time"

	"github.com/tuffrabit/tinygo-epaper-results/pkg/buttons"
	"github.com/tuffrabit/tinygo-epaper-results/pkg/config"
	"github.com/tuffrabit/tinygo-epaper-results/pkg/controller"
	"github.com/tuffrabit/tinygo-epaper-results/pkg/display"
	"github.com/tuffrabit/tinygo-epaper-results/pkg/journal"
	"github.com/tuffrabit/tinygo-epaper-results/pkg/protocol"
	"github.com/tuffrabit/tinygo-epaper-results/pkg/status"
	"github.com/tuffrabit/tinygo-epaper-results/serial"
)

// MAIN THREAD DUTIES
//
// Bring up the LEDs, buttons and e-paper, show "Ready..." and then serve the
// link bindings forever. Every request runs to completion on this goroutine.

func main() {
	// Allow USB CDC to enumerate before we print.
	time.Sleep(2 * time.Second)
	println("boot")

	logger := slog.New(slog.NewTextHandler(machine.Serial, nil))
	slog.SetDefault(logger)

	cfg := config.Default()
	if err := cfg.Validate(); err != nil {
		logger.Error("config", "err", err)
		halt()
	}

	red := outputPin(cfg.PinLEDRed)
	green := outputPin(cfg.PinLEDGreen)
	signaler := status.NewSignaler(red, green)

	panel := buttons.NewPanel(inputPin(cfg.PinExecute), inputPin(cfg.PinMode))

	epd, err := display.NewEPD(machine.SPI1, display.EPDPins{
		SCK:  machine.Pin(cfg.PinEPDSCK),
		SDO:  machine.Pin(cfg.PinEPDSDO),
		CS:   machine.Pin(cfg.PinEPDCS),
		DC:   machine.Pin(cfg.PinEPDDC),
		RST:  machine.Pin(cfg.PinEPDRST),
		Busy: machine.Pin(cfg.PinEPDBusy),
	}, int16(cfg.Width), int16(cfg.Height))
	if err != nil {
		logger.Error(display.ErrInit.Error(), "err", err)
		halt()
	}

	renderer := display.NewRenderer(epd, display.NewBitmap(int16(cfg.Width), int16(cfg.Height)), display.Layout{
		X:    cfg.LineX,
		Y:    cfg.LineY,
		Step: int16(cfg.LineStep),
	})

	opts := controller.Options{
		Capacity:       int(cfg.LogCapacity),
		EndOfTestDelay: cfg.EndOfTestDelay(),
		Logger:         logger,
	}
	var results protocol.Results
	if j, err := journal.NewMemory(int(cfg.JournalBytes)); err != nil {
		logger.Warn("journal unavailable", "err", err)
	} else {
		opts.Journal = j
		results = j
	}

	ctrl := controller.New(renderer, signaler, panel, opts)
	ctrl.DisplayMessage("Ready...")

	link := serial.NewLink(newUARTLink(cfg), protocol.NewHandler(ctrl, results, cfg), logger)
	for {
		if err := link.Handle(); err != nil {
			logger.Error("link", "err", err)
			time.Sleep(100 * time.Millisecond)
		}
	}
}

func outputPin(n uint8) machine.Pin {
	p := machine.Pin(n)
	p.Configure(machine.PinConfig{Mode: machine.PinOutput})
	p.Low()
	return p
}

func inputPin(n uint8) machine.Pin {
	p := machine.Pin(n)
	p.Configure(machine.PinConfig{Mode: machine.PinInputPullup})
	return p
}

// halt parks the firmware without serving the link.
func halt() {
	select {}
}
