// Package buttons reports the level of the execute and mode push buttons.
// Both buttons pull their pin low when active.
package buttons

import "encoding/json"

const (
	Pressed   = "pressed"
	Released  = "released"
	Traction  = "traction"
	Direction = "direction"
)

// InputPin is a digital input. Get returns true for a high level.
type InputPin interface {
	Get() bool
}

// State is the result of a button query.
type State struct {
	Execute string `json:"execute"`
	Mode    string `json:"mode"`
}

// MarshalBinary encodes the state as the JSON object sent over the link.
func (s State) MarshalBinary() ([]byte, error) {
	return json.Marshal(s)
}

// UnmarshalBinary decodes a JSON object produced by MarshalBinary.
func (s *State) UnmarshalBinary(data []byte) error {
	return json.Unmarshal(data, s)
}

// Panel reads the two buttons on demand. Nothing is cached.
type Panel struct {
	execute InputPin
	mode    InputPin
}

// NewPanel creates a button panel over the execute and mode pins.
func NewPanel(execute, mode InputPin) *Panel {
	return &Panel{execute: execute, mode: mode}
}

// Query samples both pins.
func (p *Panel) Query() State {
	s := State{Execute: Released, Mode: Direction}
	if !p.execute.Get() {
		s.Execute = Pressed
	}
	if !p.mode.Get() {
		s.Mode = Traction
	}
	return s
}
