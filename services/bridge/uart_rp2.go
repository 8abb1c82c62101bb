//go:build rp2040 || rp2350

// bridge/uart_rp2.go
//
// UART uplink dialler for the RP2 targets. The link goes over UART0 with the
// pins and baud taken from the bridge config.
package bridge

import (
	"context"
	"io"
	"time"

	"machine"

	uartx "github.com/jangala-dev/tinygo-uartx/uartx"
)

func init() {
	UARTDial = dialUART
}

func dialUART(ctx context.Context, u UARTConfig) (io.ReadWriteCloser, error) {
	hw := uartx.UART0
	if err := hw.Configure(uartx.UARTConfig{
		BaudRate: uint32(u.Baud),
		TX:       machine.Pin(u.TxPin),
		RX:       machine.Pin(u.RxPin),
	}); err != nil {
		return nil, err
	}
	return &uartLink{
		u:           hw,
		ctx:         ctx,
		readTimeout: time.Duration(u.ReadTimeoutMS) * time.Millisecond,
	}, nil
}

// uartLink adapts uartx to the stream interface the framing reads from.
type uartLink struct {
	u           *uartx.UART
	ctx         context.Context
	readTimeout time.Duration
}

func (l *uartLink) Read(p []byte) (int, error) {
	ctx := l.ctx
	if l.readTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.readTimeout)
		defer cancel()
	}
	return l.u.RecvSomeContext(ctx, p)
}

func (l *uartLink) Write(p []byte) (int, error) { return l.u.Write(p) }

// Close leaves the hardware configured; the next dial reprograms it.
func (l *uartLink) Close() error { return nil }
