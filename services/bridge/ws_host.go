//go:build !rp2040 && !rp2350

// bridge/ws_host.go
//
// Websocket uplink for hosted platforms. The message-oriented websocket is
// presented as a byte stream so the link framing stays transport-agnostic.
package bridge

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/gorilla/websocket"
)

func init() {
	RegisterTransport("ws", newWSTransport)
}

func newWSTransport(cfg TransportConfig) (Transport, error) {
	if cfg.WS == nil || cfg.WS.URL == "" {
		return nil, errors.New("ws transport requires a url")
	}
	return &wsTransport{cfg: *cfg.WS}, nil
}

type wsTransport struct{ cfg WSConfig }

func (t *wsTransport) Open(ctx context.Context) (io.ReadWriteCloser, error) {
	d := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	if t.cfg.HandshakeTimeout > 0 {
		d.HandshakeTimeout = time.Duration(t.cfg.HandshakeTimeout) * time.Millisecond
	}
	c, _, err := d.DialContext(ctx, t.cfg.URL, nil)
	if err != nil {
		return nil, err
	}
	return &wsConn{c: c}, nil
}

func (t *wsTransport) String() string { return "ws" }

// wsConn adapts one websocket connection to io.ReadWriteCloser. Each Write
// is sent as one binary message; Read drains messages in arrival order.
type wsConn struct {
	c *websocket.Conn
	r io.Reader
}

func (w *wsConn) Read(p []byte) (int, error) {
	for {
		if w.r == nil {
			_, r, err := w.c.NextReader()
			if err != nil {
				if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					return 0, io.EOF
				}
				return 0, err
			}
			w.r = r
		}
		n, err := w.r.Read(p)
		if err == io.EOF {
			w.r = nil
			if n > 0 {
				return n, nil
			}
			continue
		}
		return n, err
	}
}

func (w *wsConn) Write(p []byte) (int, error) {
	if err := w.c.WriteMessage(websocket.BinaryMessage, p); err != nil {
		return 0, err
	}
	return len(p), nil
}

func (w *wsConn) Close() error {
	_ = w.c.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	return w.c.Close()
}
