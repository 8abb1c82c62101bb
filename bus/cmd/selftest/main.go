//go:build rp2040 || rp2350

// On-device bus exercise using the firmware's own traffic shapes: retained
// device profiles, capability value fan-out, control request/reply, and
// queue-overflow behaviour. Flash to a Pico and watch the serial console;
// the LED stays solid when every check passes and blinks on failure.
package main

import (
	"context"
	"time"

	"envcode-go/bus"
	"envcode-go/types"
	"envcode-go/x/strconvx"

	"machine"
)

const (
	recvWait  = 200 * time.Millisecond
	quietWait = 60 * time.Millisecond
)

func recv(sub *bus.Subscription, d time.Duration) (*bus.Message, bool) {
	select {
	case m := <-sub.Channel():
		return m, true
	case <-time.After(d):
		return nil, false
	}
}

// quiet reports whether nothing arrives on sub within d.
func quiet(sub *bus.Subscription, d time.Duration) bool {
	_, got := recv(sub, d)
	return !got
}

func humidityTopic(id int) bus.Topic {
	return bus.T("hal", "capability", string(types.KindHumidity), id, "value")
}

// checkRetainedProfile mirrors the config service: a retained per-service
// profile must reach a subscriber that connects afterwards, and a nil
// retained publish must clear it.
func checkRetainedProfile() bool {
	b := bus.NewBus(4)
	cfg := b.NewConnection("config")
	late := b.NewConnection("humidistat")

	cfg.Publish(b.NewMessage(bus.T("config", "humidistat"),
		map[string]any{"target_rh_pct": 55.0, "hysteresis_pct": 4.0}, true))

	sub := late.Subscribe(bus.T("config", "humidistat"))
	m, got := recv(sub, recvWait)
	if !got {
		println("  no retained profile delivered")
		return false
	}
	p, ok := m.Payload.(map[string]any)
	if !ok || p["target_rh_pct"] != 55.0 {
		println("  wrong profile payload")
		return false
	}
	late.Unsubscribe(sub)

	cfg.Publish(b.NewMessage(bus.T("config", "humidistat"), nil, true))
	sub2 := late.Subscribe(bus.T("config", "humidistat"))
	if !quiet(sub2, quietWait) {
		println("  cleared profile still delivered")
		return false
	}
	return true
}

// checkValueFanout publishes one humidity reading the way the HAL does and
// verifies the wildcard patterns the services subscribe with.
func checkValueFanout() bool {
	b := bus.NewBus(8)
	hal := b.NewConnection("hal")
	mon := b.NewConnection("monitor")

	anyValue := mon.Subscribe(bus.T("hal", "capability", "+", "+", "value"))
	all := mon.Subscribe(bus.T("hal", "#"))
	tempOnly := mon.Subscribe(bus.T("hal", "capability", string(types.KindTemperature), "+", "value"))

	hal.Publish(b.NewMessage(humidityTopic(0), types.HumidityValue{Q2210RH: 56320}, false))

	for _, sub := range []*bus.Subscription{anyValue, all} {
		m, got := recv(sub, recvWait)
		if !got {
			println("  wildcard subscriber missed the reading")
			return false
		}
		v, ok := m.Payload.(types.HumidityValue)
		if !ok || v.Q2210RH != 56320 {
			println("  wrong reading payload")
			return false
		}
	}
	if !quiet(tempOnly, quietWait) {
		println("  humidity reading leaked to the temperature pattern")
		return false
	}
	return true
}

// checkCapabilityState covers the retained link status the HAL keeps per
// capability.
func checkCapabilityState() bool {
	b := bus.NewBus(4)
	hal := b.NewConnection("hal")
	mon := b.NewConnection("monitor")

	hal.Publish(b.NewMessage(
		bus.T("hal", "capability", string(types.KindHumidity), 0, "state"),
		types.CapabilityStatus{Link: types.LinkUp, TS: 1}, true))

	sub := mon.Subscribe(bus.T("hal", "capability", "+", "+", "state"))
	m, got := recv(sub, recvWait)
	if !got {
		println("  no retained state delivered")
		return false
	}
	st, ok := m.Payload.(types.CapabilityStatus)
	if !ok || st.Link != types.LinkUp {
		println("  wrong state payload")
		return false
	}
	return true
}

// checkControlRoundTrip drives a switch control the way the humidistat
// does: RequestWait on the capability's control topic, served by a
// responder replying on the request's reply topic.
func checkControlRoundTrip() bool {
	b := bus.NewBus(8)
	hal := b.NewConnection("hal")
	hum := b.NewConnection("humidistat")

	ctl := bus.T("hal", "capability", string(types.KindGPIO), 15, "control", "set")
	served := hal.Subscribe(ctl)

	done := make(chan bool, 1)
	go func() {
		m, got := recv(served, recvWait)
		if !got {
			done <- false
			return
		}
		p, _ := m.Payload.(map[string]any)
		if p == nil || p["value"] != 1 {
			done <- false
			return
		}
		hal.Reply(m, types.OKReply{OK: true}, false)
		done <- true
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	req := b.NewMessage(ctl, map[string]any{"value": 1}, false)
	reply, err := hum.RequestWait(ctx, req)
	if err != nil {
		println("  control request timed out")
		return false
	}
	rep, isOK := reply.Payload.(types.OKReply)
	if !isOK || !rep.OK {
		println("  wrong control reply")
		return false
	}
	return <-done
}

// checkRequestTimeout: a control request against an absent capability must
// come back as an error, not hang.
func checkRequestTimeout() bool {
	b := bus.NewBus(4)
	hum := b.NewConnection("humidistat")

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	req := b.NewMessage(bus.T("hal", "capability", string(types.KindGPIO), 9, "control", "set"), nil, false)
	if _, err := hum.RequestWait(ctx, req); err == nil {
		println("  expected timeout error")
		return false
	}
	return true
}

// checkOverflowDropsOldest: a slow consumer must lose the oldest readings,
// never the newest, and must never block the publisher.
func checkOverflowDropsOldest() bool {
	b := bus.NewBus(2)
	hal := b.NewConnection("hal")
	mon := b.NewConnection("monitor")

	sub := mon.Subscribe(humidityTopic(0))
	for i := uint32(1); i <= 4; i++ {
		hal.Publish(b.NewMessage(humidityTopic(0), types.HumidityValue{Q2210RH: i}, false))
	}

	for _, want := range []uint32{3, 4} {
		m, got := recv(sub, recvWait)
		if !got {
			println("  reading missing after overflow")
			return false
		}
		v, ok := m.Payload.(types.HumidityValue)
		if !ok || v.Q2210RH != want {
			println("  kept the wrong readings")
			return false
		}
	}
	return quiet(sub, quietWait)
}

// checkTopicTokens: topic tokens are strings and integers only; anything
// else must panic in T rather than corrupt the trie.
func checkTopicTokens() (ok bool) {
	defer func() {
		ok = recover() != nil
	}()
	_ = bus.T(3.14)
	return false
}

type check struct {
	name string
	fn   func() bool
}

func main() {
	// Let USB CDC enumerate before the first line.
	time.Sleep(250 * time.Millisecond)

	led := machine.LED
	led.Configure(machine.PinConfig{Mode: machine.PinOutput})
	led.High()

	checks := []check{
		{"retained_profile", checkRetainedProfile},
		{"value_fanout", checkValueFanout},
		{"capability_state", checkCapabilityState},
		{"control_round_trip", checkControlRoundTrip},
		{"request_timeout", checkRequestTimeout},
		{"overflow_drops_oldest", checkOverflowDropsOldest},
		{"topic_tokens", checkTopicTokens},
	}

	println("== bus selftest ==")
	failed := 0
	for _, c := range checks {
		if c.fn() {
			println("[pass]", c.name)
		} else {
			println("[FAIL]", c.name)
			failed++
		}
		time.Sleep(10 * time.Millisecond)
	}
	println("== " + strconvx.Itoa(len(checks)-failed) + "/" + strconvx.Itoa(len(checks)) + " passed ==")

	if failed == 0 {
		for {
			led.High()
			time.Sleep(2 * time.Second)
		}
	}
	for {
		led.High()
		time.Sleep(250 * time.Millisecond)
		led.Low()
		time.Sleep(250 * time.Millisecond)
	}
}
