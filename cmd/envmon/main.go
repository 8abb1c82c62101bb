//go:build linux && !(rp2040 || rp2350)

// Environment monitor for Linux hosts (Raspberry Pi and similar).
//
// Runs the same service stack as the Pico firmware against real /dev/i2c-*
// adapters via periph.io, using the embedded "envmon-host" profile, and
// logs every capability value that the HAL publishes.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	logger "github.com/d2r2/go-logger"

	"envcode-go/bus"
	"envcode-go/services/bridge"
	"envcode-go/services/config"
	"envcode-go/services/hal"
	"envcode-go/services/hal/platform"
	"envcode-go/services/heartbeat"
	"envcode-go/types"
	"envcode-go/x/timex"
)

var lg = logger.NewPackageLogger("envmon",
	logger.InfoLevel,
	// logger.DebugLevel,
)

func main() {
	defer logger.FinalizeLogger()

	device := "envmon-host"
	if len(os.Args) > 1 {
		device = os.Args[1]
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	i2cs, err := platform.PeriphI2CFactory()
	if err != nil {
		lg.Fatal(err)
	}

	b := bus.NewBus(8)
	halConn := b.NewConnection("hal")
	brConn := b.NewConnection("bridge")
	hbConn := b.NewConnection("heartbeat")
	cfgConn := b.NewConnection("config")
	monConn := b.NewConnection("envmon")

	values := monConn.Subscribe(bus.T("hal", "capability", "+", "+", "value"))
	states := monConn.Subscribe(bus.T("hal", "capability", "+", "+", "state"))

	go hal.Run(ctx, halConn, i2cs, platform.DefaultPinFactory())
	go bridge.Start(ctx, brConn)

	var hb heartbeat.Service
	if err := hb.Start(ctx, hbConn); err != nil {
		lg.Fatal(err)
	}

	lg.Infof("publishing %q profile", device)
	config.NewConfigService().Start(config.WithDevice(ctx, device), cfgConn)

	for {
		select {
		case m := <-values.Channel():
			switch v := m.Payload.(type) {
			case types.TemperatureValue:
				lg.Infof("temperature %.2f degC", v.Celsius())
			case types.HumidityValue:
				lg.Infof("humidity %.1f %%RH", v.Percent())
			case types.PressureValue:
				lg.Infof("pressure %.1f hPa", v.Pascals()/100)
			default:
				lg.Infof("value %v = %v (t=%d)", m.Topic, m.Payload, timex.NowMs())
			}
		case m := <-states.Channel():
			lg.Infof("state %v = %+v", m.Topic, m.Payload)
		case <-sig:
			lg.Notify("shutting down")
			cancel()
			return
		case <-ctx.Done():
			return
		}
	}
}
