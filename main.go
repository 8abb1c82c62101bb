//go:build !rp2040 && !rp2350

// Host-side smoke run: brings up the bus and the HAL over the fake
// platform factories, configures a GPIO pair, and exercises controls and
// IRQ events without any hardware attached.
package main

import (
	"context"
	"fmt"
	"time"

	"envcode-go/bus"
	"envcode-go/services/hal"
	"envcode-go/services/hal/platform"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	b := bus.NewBus(4)
	halConn := b.NewConnection("hal")
	uiConn := b.NewConnection("ui")

	mon := uiConn.Subscribe(bus.T("hal", "#"))
	go func() {
		for m := range mon.Channel() {
			fmt.Printf("<- %v %+v\n", m.Topic, m.Payload)
		}
	}()

	pins := platform.DefaultPinFactory().(*platform.HostPinFactory)
	go hal.Run(ctx, halConn, platform.DefaultI2CFactory(), pins)

	cfg := map[string]any{
		"devices": []any{
			map[string]any{
				"id":   "mist_en",
				"type": "gpio",
				"params": map[string]any{
					"pin":  15,
					"mode": "output",
				},
			},
			map[string]any{
				"id":   "tank_low",
				"type": "gpio",
				"params": map[string]any{
					"pin":  14,
					"mode": "input",
					"pull": "up",
					"irq":  map[string]any{"edge": "both"},
				},
			},
		},
	}
	uiConn.Publish(uiConn.NewMessage(bus.T("config", "hal"), cfg, true))
	time.Sleep(100 * time.Millisecond)

	set := bus.T("hal", "capability", "gpio", 0, "control", "set")
	for _, level := range []int{1, 0, 1} {
		if _, err := uiConn.RequestWait(ctx, uiConn.NewMessage(set, map[string]any{"level": level}, false)); err != nil {
			fmt.Println("set error:", err)
		}
	}

	// Flip the input pin to fire edge events through the IRQ path.
	if p, ok := pins.Get(14); ok {
		p.Set(true)
		p.Set(false)
	}

	time.Sleep(300 * time.Millisecond)
}
