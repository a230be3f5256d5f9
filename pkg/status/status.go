// Package status drives the red/green status LED pair from message text.
package status

import "strings"

// Message prefixes that change the LED state. "Succes" is matched literally,
// so both "Succes" and "Success" light the green LED.
const (
	PrefixError   = "Error"
	PrefixSuccess = "Succes"
)

// LedState is the exclusive state of the LED pair.
type LedState uint8

const (
	Neither LedState = iota
	RedOn
	GreenOn
)

func (s LedState) String() string {
	switch s {
	case RedOn:
		return "red"
	case GreenOn:
		return "green"
	default:
		return "off"
	}
}

// OutputPin is a digital output. High turns the LED on.
type OutputPin interface {
	Set(high bool)
}

// Signaler owns the two LED outputs.
type Signaler struct {
	red   OutputPin
	green OutputPin
	state LedState
}

// NewSignaler drives both LEDs low and returns a signaler in the Neither state.
func NewSignaler(red, green OutputPin) *Signaler {
	s := &Signaler{red: red, green: green}
	s.Off()
	return s
}

// Signal classifies message by prefix and updates the LEDs.
// Unrecognized prefixes leave the current state untouched.
func (s *Signaler) Signal(message string) LedState {
	switch {
	case strings.HasPrefix(message, PrefixError):
		s.apply(RedOn)
	case strings.HasPrefix(message, PrefixSuccess):
		s.apply(GreenOn)
	}
	return s.state
}

// Off forces both LEDs low.
func (s *Signaler) Off() {
	s.apply(Neither)
}

// State returns the current LED state.
func (s *Signaler) State() LedState {
	return s.state
}

func (s *Signaler) apply(state LedState) {
	s.red.Set(state == RedOn)
	s.green.Set(state == GreenOn)
	s.state = state
}
