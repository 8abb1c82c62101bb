// bridge/bridge_test.go
package bridge

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"reflect"
	"testing"
	"time"

	"envcode-go/bus"
)

func TestBridge_EstablishesUARTLinkAndReportsState(t *testing.T) {
	b := bus.NewBus(16)
	conn := b.NewConnection("bridge_test")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go Start(ctx, conn)

	// Subscribe to bridge/state (retained) and verify initial status.
	stateSub := conn.Subscribe(bus.Topic{"bridge", "state"})
	defer conn.Unsubscribe(stateSub)

	first := nextStatePayload(t, stateSub, 500*time.Millisecond)
	assertLevelStatus(t, first, "idle", "awaiting_config")

	// Inject a UART dialler that returns a net.Pipe; keep the remote end to simulate link loss.
	prevDial := UARTDial
	defer func() { UARTDial = prevDial }()
	var remote io.ReadWriteCloser
	UARTDial = func(ctx context.Context, _ UARTConfig) (io.ReadWriteCloser, error) {
		lc, rc := net.Pipe()
		remote = rc
		// Remote peer loop: respond to ping frames; ignore others.
		go remotePeer(rc, nil)
		return lc, nil
	}

	// Publish a valid UART config.
	cfg := `{"transport":{"type":"uart","uart":{"baud":115200,"rx_pin":1,"tx_pin":0}}}`
	conn.Publish(conn.NewMessage(bus.Topic{"config", "bridge"}, cfg, false))

	up := nextStatePayload(t, stateSub, time.Second)
	assertLevelStatus(t, up, "up", "link_established")

	// Close the remote to force link loss; expect degraded state.
	if remote != nil {
		_ = remote.Close()
	}

	degraded := nextStatePayload(t, stateSub, time.Second)
	assertLevelStatus(t, degraded, "degraded", "link_lost_retrying")
}

func TestBridge_UnknownTransportYieldsErrorState(t *testing.T) {
	b := bus.NewBus(8)
	conn := b.NewConnection("bridge_test_bad")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go Start(ctx, conn)

	stateSub := conn.Subscribe(bus.Topic{"bridge", "state"})
	defer conn.Unsubscribe(stateSub)

	_ = nextStatePayload(t, stateSub, 500*time.Millisecond) // initial awaiting_config

	// Publish a config with an unknown transport type.
	cfg := `{"transport":{"type":"bogus"}}`
	conn.Publish(conn.NewMessage(bus.Topic{"config", "bridge"}, cfg, false))

	errState := nextStatePayload(t, stateSub, time.Second)
	assertLevelStatus(t, errState, "error", "transport_init_failed")
}

func TestBridge_ForwardsMatchingPublications(t *testing.T) {
	b := bus.NewBus(32)
	conn := b.NewConnection("bridge_fwd")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go Start(ctx, conn)

	stateSub := conn.Subscribe(bus.Topic{"bridge", "state"})
	defer conn.Unsubscribe(stateSub)
	_ = nextStatePayload(t, stateSub, 500*time.Millisecond) // awaiting_config

	prevDial := UARTDial
	defer func() { UARTDial = prevDial }()
	pubs := make(chan wireMsg, 8)
	var remote io.ReadWriteCloser
	UARTDial = func(ctx context.Context, _ UARTConfig) (io.ReadWriteCloser, error) {
		lc, rc := net.Pipe()
		remote = rc
		go remotePeer(rc, pubs)
		return lc, nil
	}

	cfg := `{
		"transport":{"type":"uart","uart":{"baud":115200,"rx_pin":1,"tx_pin":0}},
		"forward":["hal/capability/#","humidistat/state"],
		"remote_prefix":"pico"
	}`
	conn.Publish(conn.NewMessage(bus.Topic{"config", "bridge"}, cfg, false))

	up := nextStatePayload(t, stateSub, time.Second)
	assertLevelStatus(t, up, "up", "link_established")
	time.Sleep(50 * time.Millisecond) // let forward subscriptions attach

	pub := b.NewConnection("producer")
	pub.Publish(pub.NewMessage(
		bus.Topic{"hal", "capability", "humidity", 0, "value"},
		map[string]any{"q2210_rh": 67318}, false))

	select {
	case wm := <-pubs:
		if wm.Topic != "hal/capability/humidity/0/value" {
			t.Fatalf("forwarded topic = %q", wm.Topic)
		}
		var body map[string]any
		if err := json.Unmarshal(wm.Payload, &body); err != nil {
			t.Fatalf("forwarded payload: %v", err)
		}
		if body["q2210_rh"] != float64(67318) {
			t.Fatalf("forwarded payload = %v", body)
		}
	case <-time.After(time.Second):
		t.Fatal("no forwarded frame")
	}

	// A topic outside the allow-list stays local.
	pub.Publish(pub.NewMessage(bus.Topic{"config", "hal"}, map[string]any{"version": 1}, false))
	select {
	case wm := <-pubs:
		t.Fatalf("unexpected forward of %q", wm.Topic)
	case <-time.After(150 * time.Millisecond):
	}

	// Inbound pub frames surface under the remote prefix.
	inSub := conn.Subscribe(bus.Topic{"pico", "cmd", "mist"})
	defer conn.Unsubscribe(inSub)

	body, _ := json.Marshal(wireMsg{Topic: "cmd/mist", Payload: json.RawMessage(`{"level":1}`)})
	writeFrame(t, remote, Frame{Type: framePub, Payload: body})

	select {
	case m := <-inSub.Channel():
		mm, _ := m.Payload.(map[string]any)
		if mm == nil || mm["level"] != float64(1) {
			t.Fatalf("inbound payload = %v", m.Payload)
		}
	case <-time.After(time.Second):
		t.Fatal("inbound pub not republished")
	}
}

func TestTopicStringRoundTrip(t *testing.T) {
	top := bus.Topic{"hal", "capability", "temperature", 3, "value"}
	s := topicString(top)
	if s != "hal/capability/temperature/3/value" {
		t.Fatalf("topicString = %q", s)
	}
	if got := parseTopic(s); !reflect.DeepEqual(got, top) {
		t.Fatalf("parseTopic(%q) = %#v, want %#v", s, got, top)
	}
	if got := parseTopic("hal/capability/#"); !reflect.DeepEqual(got, bus.Topic{"hal", "capability", "#"}) {
		t.Fatalf("wildcard parse = %#v", got)
	}
}

// -----------------------------------------------------------------------------
// Helpers
// -----------------------------------------------------------------------------

// remotePeer minimally services the framing used by the bridge: it replies
// PONG to PING and decodes pub frames into pubs when non-nil. It exits on
// read/write error.
func remotePeer(c io.ReadWriteCloser, pubs chan<- wireMsg) {
	defer c.Close()
	hdr := make([]byte, 3)
	for {
		if _, err := io.ReadFull(c, hdr); err != nil {
			return
		}
		typ := hdr[0]
		n := int(hdr[1])<<8 | int(hdr[2])
		buf := make([]byte, n)
		if n > 0 {
			if _, err := io.ReadFull(c, buf); err != nil {
				return
			}
		}
		switch typ {
		case framePing:
			if _, err := c.Write([]byte{framePong, 0x00, 0x00}); err != nil {
				return
			}
		case framePub:
			if pubs != nil {
				var wm wireMsg
				if json.Unmarshal(buf, &wm) == nil {
					select {
					case pubs <- wm:
					default:
					}
				}
			}
		}
	}
}

func writeFrame(t *testing.T, w io.Writer, f Frame) {
	t.Helper()
	hdr := []byte{f.Type, byte(len(f.Payload) >> 8), byte(len(f.Payload))}
	if _, err := w.Write(hdr); err != nil {
		t.Fatalf("write frame header: %v", err)
	}
	if len(f.Payload) > 0 {
		if _, err := w.Write(f.Payload); err != nil {
			t.Fatalf("write frame body: %v", err)
		}
	}
}

func nextStatePayload(t *testing.T, sub *bus.Subscription, d time.Duration) map[string]any {
	t.Helper()
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case m := <-sub.Channel():
		p, ok := m.Payload.(map[string]any)
		if !ok {
			t.Fatalf("state payload type: got %T, want map[string]any", m.Payload)
		}
		return p
	case <-timer.C:
		t.Fatalf("timeout waiting for bridge/state")
		return nil
	}
}

func assertLevelStatus(t *testing.T, payload map[string]any, wantLevel, wantStatus string) {
	t.Helper()
	gotLevel, _ := payload["level"].(string)
	gotStatus, _ := payload["status"].(string)
	if gotLevel != wantLevel || gotStatus != wantStatus {
		t.Fatalf("unexpected state: level=%q status=%q, want level=%q status=%q (payload=%v)",
			gotLevel, gotStatus, wantLevel, wantStatus, payload)
	}
}
