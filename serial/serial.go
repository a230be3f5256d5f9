// Package serial serves the link bindings over a byte stream.
package serial

import (
	"errors"
	"io"
	"log/slog"

	"github.com/tuffrabit/tinygo-epaper-results/pkg/protocol"
)

// Handler answers one request frame.
type Handler interface {
	Handle(frame *protocol.Frame) *protocol.Response
}

// Link reads request frames, runs each to completion and writes the reply
// before reading the next one.
type Link struct {
	rw      io.ReadWriter
	handler Handler
	logger  *slog.Logger
}

func NewLink(rw io.ReadWriter, handler Handler, logger *slog.Logger) *Link {
	if logger == nil {
		logger = slog.Default()
	}
	return &Link{
		rw:      rw,
		handler: handler,
		logger:  logger,
	}
}

// Handle serves requests until the stream ends. It returns nil on EOF and
// the underlying error for any other read or write failure.
func (l *Link) Handle() error {
	for {
		err := l.serveOne()
		if err == nil {
			continue
		}
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil
		}
		return err
	}
}

func (l *Link) serveOne() error {
	frame, err := protocol.ReadFrame(l.rw)
	switch {
	case err == nil:
	case errors.Is(err, protocol.ErrCRCMismatch):
		l.logger.Warn("link frame dropped", "err", err)
		return l.reply(&protocol.Response{Status: protocol.StatusCRCError})
	case errors.Is(err, protocol.ErrInvalidFrame):
		// Out of sync; skip bytes until the next sync marker.
		return nil
	default:
		return err
	}

	if frame.Cmd == protocol.CmdDisplayMessage {
		l.logger.Info("Message received via RPC : " + string(frame.Payload))
	}
	l.logger.Debug("link rx", "frame", protocol.FormatFrame(frame))

	return l.reply(l.handler.Handle(frame))
}

func (l *Link) reply(resp *protocol.Response) error {
	l.logger.Debug("link tx", "resp", protocol.FormatResponse(resp))
	return protocol.WriteResponse(l.rw, resp)
}
