//go:build tinygo

package main

import (
	"context"
	"machine"

	"github.com/jangala-dev/tinygo-uartx/uartx"

	"github.com/tuffrabit/tinygo-epaper-results/pkg/config"
)

// uartLink adapts the interrupt-driven UART to io.ReadWriter for the
// protocol. Reads block until at least one byte arrives.
type uartLink struct {
	u *uartx.UART
}

func newUARTLink(cfg config.Config) *uartLink {
	u := uartx.UART0
	_ = u.Configure(uartx.UARTConfig{
		BaudRate: cfg.LinkBaud,
		TX:       machine.Pin(cfg.PinLinkTX),
		RX:       machine.Pin(cfg.PinLinkRX),
	})
	return &uartLink{u: u}
}

func (l *uartLink) Read(p []byte) (int, error) {
	return l.u.RecvSomeContext(context.Background(), p)
}

func (l *uartLink) Write(p []byte) (int, error) {
	return l.u.Write(p)
}
