// Package bme280 provides a driver for the Bosch BME280 combined
// temperature/humidity/pressure sensor on an I2C bus.
//
// One session per device:
//
//	d := bme280.New(bus)
//	err := d.Configure()      // identify, reset, capture calibration
//	rd, err := d.Read()       // forced conversion, poll until ready
//	t := d.Temperature(rd)    // hundredths of a degC; call first
//	p := d.Pressure(rd)       // Q24.8 Pa
//	h := d.Humidity(rd)       // Q22.10 %RH
//
// NOTE: I2C.Tx MUST perform a write followed by a repeated-start read when
// both w and r are provided, without releasing the bus.
//
// Compensation is integer-only. Temperature refreshes a fine-temperature
// term that Pressure and Humidity consume, so the calls must be ordered as
// above for each reading. The driver holds no locks; concurrent callers
// serialize externally. The polling sleeps suspend the calling goroutine
// and must not be issued from a context that cannot block.
package bme280

import (
	"errors"
	"time"

	"tinygo.org/x/drivers"
)

// Errors returned by the driver. Bus faults from the transaction adapter
// pass through as-is.
var (
	ErrBadChipID = errors.New("bme280: unexpected chip id")
	ErrTimeout   = errors.New("bme280: measurement timeout")
)

// Status-poll timing. The poll delay doubles from minWait and folds back
// to minWait once it reaches delayCap; settleTime covers power-on and
// soft-reset recovery.
const (
	minWait    = 2 * time.Millisecond
	delayCap   = 32768 * time.Millisecond
	settleTime = 10 * time.Millisecond
)

// Config controls non-hardware behaviour. All fields are optional.
type Config struct {
	// Address defaults to Address (0x76) if zero.
	Address uint16
	// Sleep suspends the caller during reset settling and status polling.
	// Default time.Sleep. Tests inject a recording hook here.
	Sleep func(time.Duration)
}

// Device wraps an I2C connection to a BME280 device and owns the session
// state: the cached oversampling bits, the calibration capture and the
// fine-temperature term.
type Device struct {
	bus     drivers.I2C
	Address uint16

	sleep func(time.Duration)
	ctrl  byte // cached ctrl_meas oversampling bits; mode bits left at sleep
	calib [calibSize]byte
	cal   Calibration
	tFine int32
	rd    RawReading

	w [2]byte // write scratch
	r [8]byte // read scratch
}

// RawReading holds one burst capture of uncompensated ADC codes.
type RawReading struct {
	Pressure    uint32 // 20-bit
	Temperature uint32 // 20-bit
	Humidity    uint16
}

// New creates a new BME280 connection. The I2C bus must already be
// configured; this only creates the Device object and does not touch the
// device.
func New(bus drivers.I2C) Device {
	return Device{
		bus:     bus,
		Address: Address,
	}
}

// Configure opens the device: waits out the reset settling time, verifies
// the chip identity, soft-resets, captures the calibration area in its two
// mandated bursts and applies the default 4x/4x/4x oversampling
// configuration with the chip left in sleep mode. It may be called with no
// cfg. The only non-bus failure is an identity mismatch (ErrBadChipID);
// after one the caller must not proceed to Read.
func (d *Device) Configure(cfgs ...Config) error {
	if len(cfgs) > 0 {
		c := cfgs[0]
		if c.Address != 0 {
			d.Address = c.Address
		}
		if c.Sleep != nil {
			d.sleep = c.Sleep
		}
	}
	if d.sleep == nil {
		d.sleep = time.Sleep
	}

	d.sleep(settleTime)

	id, err := d.readReg(regID)
	if err != nil {
		return err
	}
	if id != ChipID {
		return ErrBadChipID
	}

	if err := d.writeReg(regReset, resetAssert); err != nil {
		return err
	}
	d.sleep(settleTime)

	if err := d.readRegs(regCalib00, d.calib[:calibBlockALen]); err != nil {
		return err
	}
	if err := d.readRegs(regCalib26, d.calib[calibBlockALen:calibBlockALen+calibBlockBLen]); err != nil {
		return err
	}
	d.cal = decodeCalibration(&d.calib)

	if err := d.writeReg(regCtrlHum, osrsH4x); err != nil {
		return err
	}
	d.ctrl = osrsT4x | osrsP4x
	return d.writeReg(regCtrlMeas, d.ctrl|modeSleep)
}

// Calibration re-derives the decoded coefficients from the raw capture.
// Decoding is pure: the result is identical on every call until the device
// is reconfigured.
func (d *Device) Calibration() Calibration {
	return decodeCalibration(&d.calib)
}

// Close soft-resets the chip and forgets the cached control state. The
// reset is fire-and-forget; Close always succeeds.
func (d *Device) Close() {
	_ = d.writeReg(regReset, resetAssert)
	d.ctrl = 0
}

// Trigger starts one forced conversion by rewriting the cached oversampling
// bits with mode forced, and returns the minimum wait before the chip can be
// ready. The device falls back to sleep mode when the conversion completes.
func (d *Device) Trigger() (time.Duration, error) {
	if err := d.writeReg(regCtrlMeas, d.ctrl|modeForced); err != nil {
		return 0, err
	}
	return minWait, nil
}

// Read triggers one forced conversion and blocks until data is ready: it
// settles for the trigger's minimum wait, then polls with no timeout.
func (d *Device) Read() (*RawReading, error) {
	wait, err := d.Trigger()
	if err != nil {
		return nil, err
	}
	if d.sleep == nil {
		d.sleep = time.Sleep
	}
	d.sleep(wait)
	return d.ReadMeasurements(0)
}

// ReadMeasurements waits until the chip reports neither a running
// conversion nor an NVM image update, then captures the 8-byte measurement
// burst, overwriting the previous reading. While busy it sleeps the
// current poll delay, doubling it each round. With a nonzero timeout the
// accumulated sleep is bounded by timeout plus at most one backoff step
// before ErrTimeout ("no data") is returned; a zero timeout polls
// indefinitely. The returned pointer refers to the session's reading and
// stays valid until the next acquisition.
func (d *Device) ReadMeasurements(timeout time.Duration) (*RawReading, error) {
	if d.sleep == nil {
		d.sleep = time.Sleep
	}
	delay := minWait
	var total time.Duration
	for {
		st, err := d.readReg(regStatus)
		if err != nil {
			return nil, err
		}
		if st&(statusMeasuring|statusIMUpdate) == 0 {
			break
		}
		d.sleep(delay)
		total += delay
		if delay >= delayCap {
			delay = minWait
		} else {
			delay <<= 1
		}
		if timeout != 0 && total > timeout {
			return nil, ErrTimeout
		}
	}

	if err := d.readRegs(regPressure, d.r[:8]); err != nil {
		return nil, err
	}
	d.rd = RawReading{
		Pressure:    word20(d.r[0], d.r[1], d.r[2]),
		Temperature: word20(d.r[3], d.r[4], d.r[5]),
		Humidity:    word16(d.r[6], d.r[7]),
	}
	return &d.rd, nil
}

// Float conversions for the fixed-point compensation results. Kept off the
// driver hot path; services publish the fixed-point values as-is.

// Celsius converts a Temperature result to degrees C.
func Celsius(centi int32) float32 { return float32(centi) / 100 }

// Pascals converts a Pressure result to Pa.
func Pascals(q248 uint32) float32 { return float32(q248) / 256 }

// RelHumidity converts a Humidity result to %RH.
func RelHumidity(q2210 uint32) float32 { return float32(q2210) / 1024 }
