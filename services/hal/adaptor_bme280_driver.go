// services/hal/adaptor_bme280_driver.go
package hal

import (
	"context"
	"time"

	"envcode-go/drivers/bme280"
	"envcode-go/types"
	"envcode-go/x/timex"

	"tinygo.org/x/drivers"
)

// collectBudget bounds one Collect's status polling; a chip still converting
// after this reports ErrNotReady and the worker retries after its backoff.
const collectBudget = 100 * time.Millisecond

type bme280Adaptor struct {
	id  string
	dev bme280.Device
}

// NewBME280Adaptor opens a BME280 session on the given bus. The Configure
// error surfaces unknown/absent chips (bme280.ErrBadChipID) at build time
// rather than on first measurement.
func NewBME280Adaptor(id string, bus drivers.I2C, addr uint16) (Adaptor, error) {
	if addr == 0 {
		addr = bme280.Address
	}
	dev := bme280.New(bus)
	if err := dev.Configure(bme280.Config{Address: addr}); err != nil {
		return nil, err
	}
	return &bme280Adaptor{id: id, dev: dev}, nil
}

func (a *bme280Adaptor) ID() string { return a.id }

func (a *bme280Adaptor) Capabilities() []CapInfo {
	return []CapInfo{
		{Kind: string(types.KindTemperature), Info: map[string]any{"unit": "centi_c", "schema_version": 1, "driver": "bme280"}},
		{Kind: string(types.KindHumidity), Info: map[string]any{"unit": "q2210_rh", "schema_version": 1, "driver": "bme280"}},
		{Kind: string(types.KindPressure), Info: map[string]any{"unit": "q248_pa", "schema_version": 1, "driver": "bme280"}},
	}
}

func (a *bme280Adaptor) Trigger(ctx context.Context) (time.Duration, error) {
	return a.dev.Trigger()
}

func (a *bme280Adaptor) Collect(ctx context.Context) (Sample, error) {
	rd, err := a.dev.ReadMeasurements(collectBudget)
	if err != nil {
		if err == bme280.ErrTimeout {
			return nil, ErrNotReady
		}
		return nil, err
	}
	// Temperature first: it refreshes the fine-temperature term the other
	// two compensations consume.
	t := a.dev.Temperature(rd)
	p := a.dev.Pressure(rd)
	h := a.dev.Humidity(rd)
	ts := timex.NowMs()
	return Sample{
		{Kind: string(types.KindTemperature), Payload: types.TemperatureValue{CentiC: t}, TsMs: ts},
		{Kind: string(types.KindHumidity), Payload: types.HumidityValue{Q2210RH: h}, TsMs: ts},
		{Kind: string(types.KindPressure), Payload: types.PressureValue{Q248Pa: p}, TsMs: ts},
	}, nil
}

func (a *bme280Adaptor) Control(kind, method string, payload any) (any, error) {
	// No device-specific controls for the BME280 in this pass.
	return nil, ErrUnsupported
}
