package bme280

// Compensation follows the manufacturer's reference fixed-point pipelines.
// The operation order and the 32/64-bit intermediate widths are
// load-bearing: shifts and multiplies do not commute under integer
// truncation, so each line mirrors the reference exactly.

// TemperatureInvalid is the Temperature result for an absent reading. It
// sits far outside the chip's operating range (-327.68 degC).
const TemperatureInvalid = -32768

// humidityMax is 100 %RH in the pre-shift fixed-point domain; the
// intermediate term is clamped here before the final shift.
const humidityMax = 419430400

// Temperature converts a raw temperature code to hundredths of a degree
// Celsius. It also refreshes the fine-temperature term consumed by
// Pressure and Humidity: for each reading, call Temperature before either
// of the other two. A nil reading yields TemperatureInvalid and leaves the
// fine-temperature term untouched.
func (d *Device) Temperature(rd *RawReading) int32 {
	if rd == nil {
		return TemperatureInvalid
	}
	adcT := int32(rd.Temperature)

	var1 := (((adcT >> 3) - (int32(d.cal.T1) << 1)) * int32(d.cal.T2)) >> 11
	var2 := (((((adcT >> 4) - int32(d.cal.T1)) * ((adcT >> 4) - int32(d.cal.T1))) >> 12) * int32(d.cal.T3)) >> 14
	d.tFine = var1 + var2
	return (d.tFine*5 + 128) >> 8
}

// Pressure converts a raw pressure code to Pascals in unsigned Q24.8
// fixed point (divide by 256 for whole Pascals). Requires the
// fine-temperature term from a preceding Temperature call on the same
// reading. A nil reading yields 0, as does the reference algorithm's
// divide-by-zero guard.
func (d *Device) Pressure(rd *RawReading) uint32 {
	if rd == nil {
		return 0
	}
	adcP := int64(rd.Pressure)

	var1 := int64(d.tFine) - 128000
	var2 := var1 * var1 * int64(d.cal.P6)
	var2 = var2 + ((var1 * int64(d.cal.P5)) << 17)
	var2 = var2 + (int64(d.cal.P4) << 35)
	var1 = ((var1 * var1 * int64(d.cal.P3)) >> 8) + ((var1 * int64(d.cal.P2)) << 12)
	var1 = (((int64(1) << 47) + var1) * int64(d.cal.P1)) >> 33
	if var1 == 0 {
		return 0
	}
	p := 1048576 - adcP
	p = ((p << 31) - var2) * 3125 / var1
	var1 = (int64(d.cal.P9) * (p >> 13) * (p >> 13)) >> 25
	var2 = (int64(d.cal.P8) * p) >> 19
	p = ((p + var1 + var2) >> 8) + (int64(d.cal.P7) << 4)
	return uint32(p)
}

// Humidity converts a raw humidity code to %RH in unsigned Q22.10 fixed
// point (divide by 1024 for whole percent). Requires the fine-temperature
// term from a preceding Temperature call on the same reading. The
// intermediate term is clamped to [0, humidityMax] (0..100 %RH) before the
// final shift. A nil reading yields 0.
func (d *Device) Humidity(rd *RawReading) uint32 {
	if rd == nil {
		return 0
	}
	adcH := int32(rd.Humidity)

	h := d.tFine - 76800
	h = ((((adcH << 14) - (int32(d.cal.H4) << 20) - (int32(d.cal.H5) * h)) + 16384) >> 15) *
		(((((((h*int32(d.cal.H6))>>10)*(((h*int32(d.cal.H3))>>11)+32768))>>10)+2097152)*int32(d.cal.H2) + 8192) >> 14)
	h = h - (((((h >> 15) * (h >> 15)) >> 7) * int32(d.cal.H1)) >> 4)
	if h < 0 {
		h = 0
	}
	if h > humidityMax {
		h = humidityMax
	}
	return uint32(h >> 12)
}
