package types

// ------------------------
// Environment (temperature / humidity / pressure)
// ------------------------

// EnvInfo appears as Info.Detail for each env capability (retained).
type EnvInfo struct {
	Sensor string `json:"sensor"` // "bme280", ...
	Addr   uint16 `json:"addr"`   // I2C address
	Bus    string `json:"bus"`    // "i2c0", ...
}

// Value payloads carry the driver's native fixed-point outputs; conversion
// to floats is presentation, not measurement.

type TemperatureValue struct {
	// Hundredths of °C (e.g. 2315 => 23.15°C).
	CentiC int32 `json:"centi_c"`
}

// Celsius converts to degrees C for display.
func (v TemperatureValue) Celsius() float32 { return float32(v.CentiC) / 100 }

type PressureValue struct {
	// Q24.8 Pascals (divide by 256 for whole Pa).
	Q248Pa uint32 `json:"q248_pa"`
}

// Pascals converts to whole Pa for display.
func (v PressureValue) Pascals() float32 { return float32(v.Q248Pa) / 256 }

type HumidityValue struct {
	// Q22.10 %RH (divide by 1024 for whole percent).
	Q2210RH uint32 `json:"q2210_rh"`
}

// Percent converts to %RH for display.
func (v HumidityValue) Percent() float32 { return float32(v.Q2210RH) / 1024 }
