package protocol

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"strings"

	"github.com/tuffrabit/tinygo-epaper-results/pkg/buttons"
	"github.com/tuffrabit/tinygo-epaper-results/pkg/config"
)

// RemoteError is a non-OK status returned by the board.
type RemoteError struct {
	Cmd    uint8
	Status uint8
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("%s: %s", CommandName(e.Cmd), StatusName(e.Status))
}

// Client calls bindings on the board over a link. It is the runner side of
// the protocol and is not safe for concurrent use.
type Client struct {
	rw io.ReadWriter
}

// NewClient creates a client over rw.
func NewClient(rw io.ReadWriter) *Client {
	return &Client{rw: rw}
}

// Call sends one command and waits for its response. A non-OK status is
// returned as *RemoteError together with the response.
func (c *Client) Call(cmd uint8, payload []byte) (*Response, error) {
	if err := WriteFrame(c.rw, &Frame{Cmd: cmd, Payload: payload}); err != nil {
		return nil, err
	}
	resp, err := ReadResponse(c.rw)
	if err != nil {
		return nil, err
	}
	if resp.Status != StatusOK {
		return resp, &RemoteError{Cmd: cmd, Status: resp.Status}
	}
	return resp, nil
}

// CallByName calls a binding by its RPC name.
func (c *Client) CallByName(name string, payload []byte) (*Response, error) {
	cmd, ok := Bindings[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCall, name)
	}
	return c.Call(cmd, payload)
}

// Ping echoes payload through the board.
func (c *Client) Ping(payload []byte) ([]byte, error) {
	resp, err := c.Call(CmdPing, payload)
	if err != nil {
		return nil, err
	}
	return resp.Payload, nil
}

// DisplayMessage shows message on the board.
func (c *Client) DisplayMessage(message string) error {
	_, err := c.Call(CmdDisplayMessage, []byte(message))
	return err
}

// GetButtons reads the execute and mode buttons.
func (c *Client) GetButtons() (buttons.State, error) {
	var s buttons.State
	resp, err := c.Call(CmdGetButtons, nil)
	if err != nil {
		return s, err
	}
	err = s.UnmarshalBinary(resp.Payload)
	return s, err
}

// GetLog returns the messages currently on screen, oldest first.
func (c *Client) GetLog() ([]string, error) {
	resp, err := c.Call(CmdGetLog, nil)
	if err != nil {
		return nil, err
	}
	return decodeLog(resp.Payload)
}

// GetResults returns the session transcript.
func (c *Client) GetResults() ([]string, error) {
	resp, err := c.Call(CmdGetResults, nil)
	if err != nil {
		return nil, err
	}
	if len(resp.Payload) == 0 {
		return []string{}, nil
	}
	return strings.Split(strings.TrimSuffix(string(resp.Payload), "\n"), "\n"), nil
}

// GetConfig returns the board's compiled-in settings.
func (c *Client) GetConfig() (config.Config, error) {
	var cfg config.Config
	resp, err := c.Call(CmdGetConfig, nil)
	if err != nil {
		return cfg, err
	}
	err = cfg.UnmarshalBinary(resp.Payload)
	return cfg, err
}

func decodeLog(payload []byte) ([]string, error) {
	if len(payload) < 1 {
		return nil, ErrInvalidFrame
	}
	r := bytes.NewReader(payload[1:])
	entries := make([]string, 0, payload[0])
	for i := 0; i < int(payload[0]); i++ {
		var n uint16
		if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
			return nil, ErrInvalidFrame
		}
		text := make([]byte, n)
		if _, err := io.ReadFull(r, text); err != nil {
			return nil, ErrInvalidFrame
		}
		entries = append(entries, string(text))
	}
	return entries, nil
}
