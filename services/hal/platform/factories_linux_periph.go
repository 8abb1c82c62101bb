// services/hal/platform/factories_linux_periph.go
//go:build linux && !(rp2040 || rp2350)

package platform

import (
	"envcode-go/services/hal"

	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"

	"tinygo.org/x/drivers"
)

// PeriphI2CFactory opens real Linux I²C adapters through periph.io and
// exposes them as "i2c0", "i2c1", ... in registry order. The periph bus's
// Tx signature matches the driver transaction contract directly.
func PeriphI2CFactory() (hal.I2CBusFactory, error) {
	if _, err := host.Init(); err != nil {
		return nil, err
	}
	buses := make(map[string]drivers.I2C)
	for i, ref := range i2creg.All() {
		b, err := ref.Open()
		if err != nil {
			continue
		}
		if i == 0 {
			// First registered adapter doubles as the default bus id.
			buses["i2c0"] = b
		}
		buses[ref.Name] = b
	}
	if len(buses) == 0 {
		// Fall back to the registry default, surfacing its error.
		b, err := i2creg.Open("")
		if err != nil {
			return nil, err
		}
		buses["i2c0"] = b
	}
	return &hostI2CFactory{buses: buses}, nil
}
