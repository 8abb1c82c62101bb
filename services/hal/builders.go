// services/hal/builders.go
package hal

import (
	"time"

	"envcode-go/errcode"
)

const defaultSamplePeriod = 2 * time.Second

func init() {
	RegisterBuilder("bme280", bme280Builder{})
	RegisterBuilder("gpio", gpioBuilder{})
}

// bme280Builder attaches a BME280 to its configured I2C bus and schedules
// periodic sampling through the shared per-bus worker.
type bme280Builder struct{}

type bme280Params struct {
	Addr     int `json:"addr,omitempty"`
	PeriodMS int `json:"period_ms,omitempty"`
}

func (bme280Builder) Build(in BuildInput) (BuildOutput, error) {
	if in.BusRef.Type != "i2c" || in.BusRef.ID == "" {
		return BuildOutput{}, &errcode.E{C: errcode.UnknownBus, Op: "hal.build.bme280", Msg: "i2c bus_ref required"}
	}
	i2c, ok := in.Buses.ByID(in.BusRef.ID)
	if !ok {
		return BuildOutput{}, &errcode.E{C: errcode.UnknownBus, Op: "hal.build.bme280", Msg: in.BusRef.ID}
	}

	var p bme280Params
	if in.ParamsJSON != nil {
		if err := decodeJSON(in.ParamsJSON, &p); err != nil {
			return BuildOutput{}, &errcode.E{C: errcode.InvalidParams, Op: "hal.build.bme280", Err: err}
		}
	}

	ad, err := NewBME280Adaptor(in.DeviceID, i2c, uint16(p.Addr))
	if err != nil {
		return BuildOutput{}, err
	}

	every := defaultSamplePeriod
	if p.PeriodMS > 0 {
		every = time.Duration(p.PeriodMS) * time.Millisecond
	}
	return BuildOutput{Adaptor: ad, BusID: in.BusRef.ID, SampleEvery: every}, nil
}

// gpioBuilder configures a pin per params and, for IRQ inputs, asks the
// service to register the watch with the IRQ worker.
type gpioBuilder struct{}

func (gpioBuilder) Build(in BuildInput) (BuildOutput, error) {
	var p GPIOParams
	if err := decodeJSON(in.ParamsJSON, &p); err != nil {
		return BuildOutput{}, &errcode.E{C: errcode.InvalidParams, Op: "hal.build.gpio", Err: err}
	}
	pin, ok := in.Pins.ByNumber(p.Pin)
	if !ok {
		return BuildOutput{}, &errcode.E{C: errcode.UnknownPin, Op: "hal.build.gpio"}
	}

	switch p.Mode {
	case "input":
		if err := pin.ConfigureInput(parsePull(p.Pull)); err != nil {
			return BuildOutput{}, err
		}
	default:
		initial := false
		if p.Initial != nil {
			initial = *p.Initial
		}
		if p.Invert {
			initial = !initial
		}
		if err := pin.ConfigureOutput(initial); err != nil {
			return BuildOutput{}, err
		}
	}

	out := BuildOutput{Adaptor: NewGPIOAdaptor(in.DeviceID, pin, p)}

	if p.Mode == "input" && p.IRQ != nil {
		irqPin, ok := pin.(IRQPin)
		if !ok {
			return BuildOutput{}, &errcode.E{C: errcode.Unsupported, Op: "hal.build.gpio", Msg: "pin has no irq"}
		}
		out.IRQ = &IRQRequest{
			DevID:      in.DeviceID,
			Pin:        irqPin,
			Edge:       ParseEdge(p.IRQ.Edge),
			DebounceMS: p.IRQ.DebounceMS,
			Invert:     p.Invert,
		}
	}
	return out, nil
}
