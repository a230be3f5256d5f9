// Package protocol implements the binary link protocol between the test
// runner and the display board. Each RPC binding maps to one command code.
//
// Frame format:
//
//	[SYNC:1][CMD:1][LEN:2][PAYLOAD:LEN][CRC:2]
//	- SYNC: 0xAA (frame start marker)
//	- CMD: Command byte
//	- LEN: Payload length (uint16, little-endian)
//	- PAYLOAD: Variable length data
//	- CRC: CRC16-CCITT of [CMD][LEN][PAYLOAD]
//
// Response format is identical, with a status byte in place of CMD.
package protocol

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"unicode/utf8"

	"github.com/tuffrabit/tinygo-epaper-results/pkg/buttons"
	"github.com/tuffrabit/tinygo-epaper-results/pkg/config"
)

const (
	SyncByte = 0xAA

	// MaxPayload bounds a single frame.
	MaxPayload = 4096

	// Command codes (runner → board)
	CmdPing           = 0x08
	CmdGetVersion     = 0x10
	CmdDiscover       = 0x11
	CmdDisplayMessage = 0x20
	CmdGetButtons     = 0x21
	CmdGetLog         = 0x22
	CmdGetResults     = 0x23
	CmdGetConfig      = 0x24

	// Response status codes (board → runner)
	StatusOK          = 0x00
	StatusError       = 0x01
	StatusInvalidCmd  = 0x02
	StatusInvalidData = 0x03
	StatusNotFound    = 0x04
	StatusCRCError    = 0x07

	// DiscoverReply identifies the board to a scanning host.
	DiscoverReply = "epdresults"

	FirmwareMajor = 0
	FirmwareMinor = 1
)

// Bindings maps RPC binding names to command codes.
var Bindings = map[string]uint8{
	"ping":           CmdPing,
	"get_version":    CmdGetVersion,
	"discover":       CmdDiscover,
	"displaymessage": CmdDisplayMessage,
	"get_buttons":    CmdGetButtons,
	"get_log":        CmdGetLog,
	"get_results":    CmdGetResults,
	"get_config":     CmdGetConfig,
}

var (
	ErrInvalidFrame = errors.New("invalid frame")
	ErrCRCMismatch  = errors.New("CRC mismatch")
	ErrUnknownCall  = errors.New("unknown binding")
)

// Display is the board side of the displaymessage and get_buttons bindings.
type Display interface {
	DisplayMessage(message string) error
	Buttons() buttons.State
	Log() []string
}

// Results serves the session transcript.
type Results interface {
	Text() ([]byte, error)
}

// Handler processes protocol commands.
type Handler struct {
	display Display
	results Results
	cfg     config.Config
}

// NewHandler creates a new protocol handler. results may be nil, in which
// case get_results answers StatusNotFound.
func NewHandler(d Display, results Results, cfg config.Config) *Handler {
	return &Handler{
		display: d,
		results: results,
		cfg:     cfg,
	}
}

// Frame represents a protocol frame.
type Frame struct {
	Cmd     uint8
	Payload []byte
}

// Response represents a protocol response.
type Response struct {
	Status  uint8
	Payload []byte
}

// ReadFrame reads and validates a request frame from the reader.
func ReadFrame(r io.Reader) (*Frame, error) {
	cmd, payload, err := readPacket(r)
	if err != nil {
		return nil, err
	}
	return &Frame{Cmd: cmd, Payload: payload}, nil
}

// ReadResponse reads and validates a response frame from the reader.
func ReadResponse(r io.Reader) (*Response, error) {
	status, payload, err := readPacket(r)
	if err != nil {
		return nil, err
	}
	return &Response{Status: status, Payload: payload}, nil
}

// WriteResponse writes a response frame to the writer.
func WriteResponse(w io.Writer, resp *Response) error {
	return writePacket(w, resp.Status, resp.Payload)
}

// WriteFrame writes a request frame.
func WriteFrame(w io.Writer, frame *Frame) error {
	return writePacket(w, frame.Cmd, frame.Payload)
}

func readPacket(r io.Reader) (uint8, []byte, error) {
	// Read sync byte
	sync := make([]byte, 1)
	if _, err := io.ReadFull(r, sync); err != nil {
		return 0, nil, err
	}
	if sync[0] != SyncByte {
		return 0, nil, ErrInvalidFrame
	}

	// Read header (code + len)
	header := make([]byte, 3)
	if _, err := io.ReadFull(r, header); err != nil {
		return 0, nil, err
	}

	code := header[0]
	length := binary.LittleEndian.Uint16(header[1:])

	if length > MaxPayload {
		return 0, nil, ErrInvalidFrame
	}

	var payload []byte
	if length > 0 {
		payload = make([]byte, length)
		if _, err := io.ReadFull(r, payload); err != nil {
			return 0, nil, err
		}
	}

	crcBytes := make([]byte, 2)
	if _, err := io.ReadFull(r, crcBytes); err != nil {
		return 0, nil, err
	}
	receivedCRC := binary.LittleEndian.Uint16(crcBytes)

	if receivedCRC != calcCRC(append(header, payload...)) {
		return 0, nil, ErrCRCMismatch
	}

	return code, payload, nil
}

func writePacket(w io.Writer, code uint8, payload []byte) error {
	if len(payload) > MaxPayload {
		return ErrInvalidFrame
	}
	payloadLen := uint16(len(payload))
	frameLen := 1 + 1 + 2 + int(payloadLen) + 2 // sync + code + len + payload + crc

	buf := make([]byte, 0, frameLen)
	buf = append(buf, SyncByte)
	buf = append(buf, code)
	buf = binary.LittleEndian.AppendUint16(buf, payloadLen)
	buf = append(buf, payload...)

	// CRC of code + len + payload
	buf = binary.LittleEndian.AppendUint16(buf, calcCRC(buf[1:]))

	_, err := w.Write(buf)
	return err
}

// Handle processes a command frame and returns a response.
func (h *Handler) Handle(frame *Frame) *Response {
	switch frame.Cmd {
	case CmdPing:
		return h.handlePing(frame.Payload)
	case CmdGetVersion:
		return h.handleGetVersion()
	case CmdDiscover:
		return &Response{Status: StatusOK, Payload: []byte(DiscoverReply)}
	case CmdDisplayMessage:
		return h.handleDisplayMessage(frame.Payload)
	case CmdGetButtons:
		return h.handleGetButtons()
	case CmdGetLog:
		return h.handleGetLog()
	case CmdGetResults:
		return h.handleGetResults()
	case CmdGetConfig:
		return h.handleGetConfig()
	default:
		return &Response{Status: StatusInvalidCmd}
	}
}

// handlePing responds with the same payload (echo).
func (h *Handler) handlePing(payload []byte) *Response {
	return &Response{
		Status:  StatusOK,
		Payload: payload,
	}
}

// handleGetVersion returns firmware and config version info.
// Response: [FirmwareVersionMajor:1][FirmwareVersionMinor:1][ConfigVersion:2]
func (h *Handler) handleGetVersion() *Response {
	payload := make([]byte, 4)
	payload[0] = FirmwareMajor
	payload[1] = FirmwareMinor
	binary.LittleEndian.PutUint16(payload[2:], config.CurrentVersion)

	return &Response{
		Status:  StatusOK,
		Payload: payload,
	}
}

// handleDisplayMessage shows one message.
// Payload: UTF-8 text, may be empty.
// The log and LEDs are updated even when the panel refresh fails; the
// failure is reported as StatusError.
func (h *Handler) handleDisplayMessage(payload []byte) *Response {
	if !utf8.Valid(payload) {
		return &Response{Status: StatusInvalidData}
	}
	if err := h.display.DisplayMessage(string(payload)); err != nil {
		return &Response{Status: StatusError}
	}
	return &Response{Status: StatusOK}
}

// handleGetButtons returns the button levels.
// Response: {"execute":"pressed|released","mode":"traction|direction"}
func (h *Handler) handleGetButtons() *Response {
	data, err := h.display.Buttons().MarshalBinary()
	if err != nil {
		return &Response{Status: StatusError}
	}
	return &Response{
		Status:  StatusOK,
		Payload: data,
	}
}

// handleGetLog returns the messages currently on screen, oldest first.
// Response: [Count:1]([Len:2][Text:Len])*
func (h *Handler) handleGetLog() *Response {
	entries := h.display.Log()

	payload := []byte{uint8(len(entries))}
	for _, e := range entries {
		if len(payload)+2+len(e) > MaxPayload {
			return &Response{Status: StatusError}
		}
		payload = binary.LittleEndian.AppendUint16(payload, uint16(len(e)))
		payload = append(payload, e...)
	}

	return &Response{
		Status:  StatusOK,
		Payload: payload,
	}
}

// handleGetResults returns the session transcript, one message per line.
// Only the most recent MaxPayload bytes are sent.
func (h *Handler) handleGetResults() *Response {
	if h.results == nil {
		return &Response{Status: StatusNotFound}
	}
	text, err := h.results.Text()
	if err != nil {
		return &Response{Status: StatusError}
	}
	if len(text) > MaxPayload {
		text = text[len(text)-MaxPayload:]
		// Drop the partial first line, unless the newest line alone fills
		// the frame.
		if i := bytes.IndexByte(text, '\n'); i >= 0 && i < len(text)-1 {
			text = text[i+1:]
		}
	}
	return &Response{
		Status:  StatusOK,
		Payload: text,
	}
}

// handleGetConfig returns the compiled-in settings.
// Response: [Config:config.Size bytes]
func (h *Handler) handleGetConfig() *Response {
	data, err := h.cfg.MarshalBinary()
	if err != nil {
		return &Response{Status: StatusError}
	}
	return &Response{
		Status:  StatusOK,
		Payload: data,
	}
}

// calcCRC calculates CRC16-CCITT.
// Polynomial: 0x1021, Initial: 0xFFFF
func calcCRC(data []byte) uint16 {
	var crc uint16 = 0xFFFF

	for _, b := range data {
		crc ^= uint16(b) << 8
		for i := 0; i < 8; i++ {
			if crc&0x8000 != 0 {
				crc = (crc << 1) ^ 0x1021
			} else {
				crc <<= 1
			}
		}
	}

	return crc
}
