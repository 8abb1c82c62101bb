package bme280

import "testing"

// Bosch datasheet worked-example coefficients (section 4.2.3 of the BME280
// data sheet shares the T/P example with the BMP280), completed with a
// plausible humidity trim set.
var datasheetCal = Calibration{
	T1: 27504, T2: 26435, T3: -1000,
	P1: 36477, P2: -10685, P3: 3024, P4: 2855, P5: 140, P6: -7,
	P7: 15500, P8: -14600, P9: 6000,
	H1: 75, H2: 360, H3: 0, H4: 325, H5: 50, H6: 30,
}

// Datasheet raw ADC codes: 25.08 degC and 100653 Pa.
var datasheetReading = RawReading{
	Pressure:    415148,
	Temperature: 519888,
	Humidity:    32768,
}

func datasheetDevice() *Device {
	d := New(nil)
	d.cal = datasheetCal
	return &d
}

func TestCompensateDatasheetExample(t *testing.T) {
	d := datasheetDevice()
	rd := datasheetReading

	if got := d.Temperature(&rd); got != 2508 {
		t.Fatalf("Temperature = %d centi-degC, want 2508 (25.08 degC)", got)
	}
	if d.tFine != 128422 {
		t.Fatalf("fine-temperature term = %d, want 128422", d.tFine)
	}
	if got := d.Pressure(&rd); got != 25767233 {
		t.Fatalf("Pressure = %d, want 25767233 (100653.25 Pa)", got)
	}
	// Reference-pipeline output for the humidity trim set above at
	// t_fine=128422, adc=32768: 67318/1024 = 65.74 %RH.
	if got := d.Humidity(&rd); got != 67318 {
		t.Fatalf("Humidity = %d, want 67318 (65.74 %%RH)", got)
	}
}

func TestCompensateOrdering(t *testing.T) {
	d := datasheetDevice()
	rd := datasheetReading

	// Temperature first, as the contract requires.
	d.Temperature(&rd)
	wantP := d.Pressure(&rd)
	wantH := d.Humidity(&rd)
	if wantP != 25767233 || wantH != 67318 {
		t.Fatalf("baseline P/H = %d/%d, want 25767233/67318", wantP, wantH)
	}

	// A temperature call for a different reading leaves a stale
	// fine-temperature term behind; the same raw pressure/humidity codes
	// now compensate to different outputs.
	other := RawReading{Temperature: 400000}
	d.Temperature(&other)
	if d.tFine != -64736 {
		t.Fatalf("stale fine-temperature term = %d, want -64736", d.tFine)
	}
	if got := d.Pressure(&rd); got == wantP {
		t.Fatalf("Pressure ignored the fine-temperature term: got %d twice", got)
	} else if got != 24298573 {
		t.Fatalf("stale-order Pressure = %d, want 24298573", got)
	}
	if got := d.Humidity(&rd); got == wantH {
		t.Fatalf("Humidity ignored the fine-temperature term: got %d twice", got)
	} else if got != 64739 {
		t.Fatalf("stale-order Humidity = %d, want 64739", got)
	}
}

func TestCompensateNilReading(t *testing.T) {
	d := datasheetDevice()

	if got := d.Temperature(nil); got != TemperatureInvalid {
		t.Errorf("Temperature(nil) = %d, want %d", got, TemperatureInvalid)
	}
	if got := d.Pressure(nil); got != 0 {
		t.Errorf("Pressure(nil) = %d, want 0", got)
	}
	if got := d.Humidity(nil); got != 0 {
		t.Errorf("Humidity(nil) = %d, want 0", got)
	}

	// A nil reading must not disturb the fine-temperature term.
	rd := datasheetReading
	d.Temperature(&rd)
	d.Temperature(nil)
	if d.tFine != 128422 {
		t.Errorf("fine-temperature term after nil call = %d, want 128422", d.tFine)
	}
}

func TestCompensatePressureZeroGuard(t *testing.T) {
	// An all-zero trim set drives the reference pipeline's divisor to zero;
	// the guard returns 0 instead of faulting.
	d := New(nil)
	d.tFine = 128422
	rd := datasheetReading
	if got := d.Pressure(&rd); got != 0 {
		t.Fatalf("Pressure with zero divisor = %d, want 0", got)
	}
}

func TestCompensateHumidityClamp(t *testing.T) {
	// With this trim set and t_fine pinned at 76800 the pre-shift
	// intermediate reaches 838860800, twice the 100 %RH ceiling; the clamp
	// caps the result at exactly humidityMax>>12.
	d := New(nil)
	d.cal = Calibration{H2: 400}
	d.tFine = 76800
	rd := RawReading{Humidity: 32768}

	want := uint32(humidityMax >> 12) // 102400, i.e. 100.0 %RH
	if got := d.Humidity(&rd); got != want {
		t.Fatalf("clamped Humidity = %d, want %d", got, want)
	}
}
