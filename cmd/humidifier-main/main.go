//go:build rp2040 || rp2350

// Humidifier firmware entry point for Raspberry Pi Pico / Pico 2.
//
// Wires the message bus, loads the embedded "humidifier-pico" profile,
// starts the HAL on the on-chip I²C and GPIO, and runs the humidistat,
// heartbeat and UART bridge services on top.
package main

import (
	"context"
	"runtime"
	"time"

	"envcode-go/bus"
	"envcode-go/services/bridge"
	"envcode-go/services/config"
	"envcode-go/services/hal"
	"envcode-go/services/hal/platform"
	"envcode-go/services/heartbeat"
	"envcode-go/services/humidistat"
)

func main() {
	// Allow USB CDC to enumerate before we print.
	time.Sleep(3 * time.Second)
	println("[main] humidifier boot")

	ctx := context.Background()
	b := bus.NewBus(4)

	halConn := b.NewConnection("hal")
	humConn := b.NewConnection("humidistat")
	brConn := b.NewConnection("bridge")
	hbConn := b.NewConnection("heartbeat")
	cfgConn := b.NewConnection("config")

	println("[main] starting hal …")
	go hal.Run(ctx, halConn, platform.DefaultI2CFactory(), platform.DefaultPinFactory())

	println("[main] starting humidistat …")
	go humidistat.Run(ctx, humConn)

	println("[main] starting bridge …")
	go bridge.Start(ctx, brConn)

	println("[main] starting heartbeat …")
	var hb heartbeat.Service
	if err := hb.Start(ctx, hbConn); err != nil {
		println("[main] heartbeat start error:", err.Error())
	}

	// Config goes out last so every subscriber already listens on config/*.
	println("[main] publishing device profile …")
	config.NewConfigService().Start(config.WithDevice(ctx, "humidifier-pico"), cfgConn)

	for {
		time.Sleep(30 * time.Second)
		printMem()
	}
}

// printMem prints a compact snapshot of TinyGo runtime memory stats.
// Uses builtin println to avoid fmt overhead/allocations.
func printMem() {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)

	println(
		"[mem]",
		"alloc:", uint32(ms.Alloc),
		"heapInuse:", uint32(ms.HeapInuse),
		"heapSys:", uint32(ms.HeapSys),
		"mallocs:", uint32(ms.Mallocs),
		"frees:", uint32(ms.Frees),
	)
}
