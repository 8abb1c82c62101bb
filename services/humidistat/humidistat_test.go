package humidistat

import (
	"context"
	"testing"
	"time"

	"envcode-go/bus"
	"envcode-go/types"
)

func TestDecideHysteresis(t *testing.T) {
	const target, band = 550, 40 // 55.0 +/- 2.0 %RH
	cases := []struct {
		name string
		on   bool
		rh   int
		want bool
	}{
		{"dry turns on", false, 500, true},
		{"at low threshold turns on", false, 530, true},
		{"inside band holds off", false, 549, false},
		{"inside band holds on", true, 560, true},
		{"at high threshold turns off", true, 570, false},
		{"wet turns off", true, 620, false},
		{"inside band keeps prior on", true, 551, true},
	}
	for _, c := range cases {
		if got := decide(c.on, c.rh, target, band); got != c.want {
			t.Errorf("%s: decide(%v, %d) = %v, want %v", c.name, c.on, c.rh, got, c.want)
		}
	}
}

func TestRhDeciFromQ2210(t *testing.T) {
	cases := []struct {
		q    uint32
		want int
	}{
		{0, 0},
		{1024, 10},     // 1.0 %RH
		{51200, 500},   // 50.0 %RH
		{67318, 657},   // datasheet example, 65.74 rounds to 65.7
		{102400, 1000}, // clamp ceiling, 100.0 %RH
	}
	for _, c := range cases {
		if got := rhDeciFromQ2210(c.q); got != c.want {
			t.Errorf("rhDeciFromQ2210(%d) = %d, want %d", c.q, got, c.want)
		}
	}
}

// fakeSwitch replies to gpio set requests and records commanded levels.
func fakeSwitch(ctx context.Context, conn *bus.Connection, id int, levels chan<- int) {
	sub := conn.Subscribe(bus.Topic{"hal", "capability", "gpio", id, "control", "set"})
	go func() {
		defer conn.Unsubscribe(sub)
		for {
			select {
			case <-ctx.Done():
				return
			case m := <-sub.Channel():
				if mm, _ := m.Payload.(map[string]any); mm != nil {
					if lvl, ok := mm["level"].(int); ok {
						select {
						case levels <- lvl:
						default:
						}
					}
				}
				conn.Reply(m, map[string]any{"ok": true}, false)
			}
		}
	}()
}

func rhValue(q uint32) types.HumidityValue {
	return types.HumidityValue{Q2210RH: q}
}

func awaitLevel(t *testing.T, levels <-chan int, want int) {
	t.Helper()
	select {
	case got := <-levels:
		if got != want {
			t.Fatalf("switch level = %d, want %d", got, want)
		}
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for switch level %d", want)
	}
}

func TestRun_HysteresisSwitching(t *testing.T) {
	b := bus.NewBus(128)
	ctl := b.NewConnection("humidistat")
	hal := b.NewConnection("hal_fake")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	levels := make(chan int, 8)
	fakeSwitch(ctx, hal, 5, levels)

	go Run(ctx, ctl)

	pub := b.NewConnection("pub")
	pub.Publish(pub.NewMessage(bus.Topic{"config", "humidistat"}, map[string]any{
		"target_deci_pct": 550,
		"band_deci_pct":   40,
		"switch_id":       5,
		"humidity_id":     0,
		"stale_ms":        60000,
		"min_hold_ms":     1,
	}, true))

	valTopic := bus.Topic{"hal", "capability", "humidity", 0, "value"}

	// 50.0 %RH, below the band: on.
	time.Sleep(20 * time.Millisecond)
	pub.Publish(pub.NewMessage(valTopic, rhValue(51200), false))
	awaitLevel(t, levels, 1)

	// 56.0 %RH, inside the band: hold (no new command).
	pub.Publish(pub.NewMessage(valTopic, rhValue(57344), false))
	select {
	case lvl := <-levels:
		t.Fatalf("unexpected switch command %d inside hysteresis band", lvl)
	case <-time.After(100 * time.Millisecond):
	}

	// 58.0 %RH, above the band: off.
	pub.Publish(pub.NewMessage(valTopic, rhValue(59392), false))
	awaitLevel(t, levels, 0)
}

func TestRun_TankEmptyInhibits(t *testing.T) {
	b := bus.NewBus(128)
	ctl := b.NewConnection("humidistat")
	hal := b.NewConnection("hal_fake")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	levels := make(chan int, 8)
	fakeSwitch(ctx, hal, 5, levels)

	go Run(ctx, ctl)

	pub := b.NewConnection("pub")
	pub.Publish(pub.NewMessage(bus.Topic{"config", "humidistat"}, map[string]any{
		"target_deci_pct": 550,
		"switch_id":       5,
		"humidity_id":     0,
		"tank_low_id":     3,
		"stale_ms":        60000,
		"min_hold_ms":     1,
	}, true))

	valTopic := bus.Topic{"hal", "capability", "humidity", 0, "value"}
	evTopic := bus.Topic{"hal", "capability", "gpio", 3, "event"}

	// Dry air turns the output on.
	time.Sleep(20 * time.Millisecond)
	pub.Publish(pub.NewMessage(valTopic, rhValue(40960), false)) // 40 %RH
	awaitLevel(t, levels, 1)

	// Tank runs empty: forced off.
	pub.Publish(pub.NewMessage(evTopic, map[string]any{"edge": "falling", "level": 0}, false))
	awaitLevel(t, levels, 0)

	// Still dry, but inhibited: no further on command.
	pub.Publish(pub.NewMessage(valTopic, rhValue(40960), false))
	select {
	case lvl := <-levels:
		t.Fatalf("unexpected switch command %d while tank empty", lvl)
	case <-time.After(100 * time.Millisecond):
	}

	// Tank refilled: control resumes.
	pub.Publish(pub.NewMessage(evTopic, map[string]any{"edge": "rising", "level": 1}, false))
	time.Sleep(20 * time.Millisecond)
	pub.Publish(pub.NewMessage(valTopic, rhValue(40960), false))
	awaitLevel(t, levels, 1)
}
