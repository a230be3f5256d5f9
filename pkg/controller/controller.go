// Package controller ties the message log, the status LEDs, the renderer and
// the buttons together behind the two link bindings.
package controller

import (
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/tuffrabit/tinygo-epaper-results/pkg/buttons"
	"github.com/tuffrabit/tinygo-epaper-results/pkg/display"
	"github.com/tuffrabit/tinygo-epaper-results/pkg/msglog"
	"github.com/tuffrabit/tinygo-epaper-results/pkg/status"
)

// EndOfTestPrefix marks the last message of a test session.
const EndOfTestPrefix = "end of test:"

// DefaultEndOfTestDelay is how long the final screen stays up before it is
// wiped.
const DefaultEndOfTestDelay = 3000 * time.Millisecond

// Journal records every displayed message.
type Journal interface {
	Append(line string) error
}

// Options tune a Controller. Zero values select the defaults.
type Options struct {
	Capacity       int
	EndOfTestDelay time.Duration
	Journal        Journal
	Logger         *slog.Logger
}

// Controller owns all display state. It is driven from a single goroutine.
type Controller struct {
	log      *msglog.Log
	signaler *status.Signaler
	renderer *display.Renderer
	buttons  *buttons.Panel
	journal  Journal
	logger   *slog.Logger
	endDelay time.Duration
	sleep    func(time.Duration)
}

// New creates the controller with an empty log.
func New(renderer *display.Renderer, signaler *status.Signaler, panel *buttons.Panel, opts Options) *Controller {
	if opts.EndOfTestDelay <= 0 {
		opts.EndOfTestDelay = DefaultEndOfTestDelay
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Controller{
		log:      msglog.New(opts.Capacity),
		signaler: signaler,
		renderer: renderer,
		buttons:  panel,
		journal:  opts.Journal,
		logger:   opts.Logger,
		endDelay: opts.EndOfTestDelay,
		sleep:    time.Sleep,
	}
}

// DisplayMessage updates the LEDs, admits message into the log and redraws
// the screen. An "end of test:" message additionally holds the screen for the
// end-of-test delay, then wipes it and turns both LEDs off. The log keeps its
// entries across that wipe.
//
// Panel errors are returned after the LED and log state has been updated.
func (c *Controller) DisplayMessage(message string) error {
	c.logger.Info("Display : " + message)

	c.signaler.Signal(message)
	c.log.Admit(message)

	if c.journal != nil {
		if err := c.journal.Append(message); err != nil {
			c.logger.Warn("journal append failed", "err", err)
		}
	}

	var errs []error
	if err := c.renderer.Render(c.log.Entries()); err != nil {
		c.logger.Error("render failed", "err", err)
		errs = append(errs, err)
	}

	if strings.HasPrefix(message, EndOfTestPrefix) {
		c.sleep(c.endDelay)
		if err := c.renderer.Blank(); err != nil {
			c.logger.Error("blank failed", "err", err)
			errs = append(errs, err)
		}
		c.signaler.Off()
	}

	return errors.Join(errs...)
}

// Buttons samples the execute and mode buttons.
func (c *Controller) Buttons() buttons.State {
	return c.buttons.Query()
}

// Log returns the messages currently retained, oldest first.
func (c *Controller) Log() []string {
	return c.log.Snapshot()
}

// LedState returns the current LED state.
func (c *Controller) LedState() status.LedState {
	return c.signaler.State()
}
