// services/hal/adaptor_bme280_driver_test.go
package hal

import (
	"context"
	"errors"
	"testing"

	"envcode-go/types"

	"tinygo.org/x/drivers"
)

// fakeBME280 emulates the sensor's register file behind the I2C
// write-then-read transaction contract. Coefficients and ADC codes are the
// datasheet worked example: 25.08 degC, 100653.25 Pa, 65.74 %RH.
type fakeBME280 struct {
	calibA [26]byte
	calibB [7]byte
	meas   [8]byte

	busyAfterTrigger int
	busyPolls        int
	forced           int
	badID            bool
}

var _ drivers.I2C = (*fakeBME280)(nil)

func newFakeBME280() *fakeBME280 {
	return &fakeBME280{
		calibA: [26]byte{
			0x70, 0x6B, 0x43, 0x67, 0x18, 0xFC, // T1..T3
			0x7D, 0x8E, 0x43, 0xD6, 0xD0, 0x0B, 0x27, 0x0B, 0x8C, 0x00,
			0xF9, 0xFF, 0x8C, 0x3C, 0xF8, 0xC6, 0x70, 0x17, // P1..P9
			0x00, 0x4B, // pad, H1
		},
		calibB: [7]byte{0x68, 0x01, 0x00, 0x14, 0x25, 0x03, 0x1E},
		meas:   [8]byte{0x65, 0x5A, 0xC0, 0x7E, 0xED, 0x00, 0x80, 0x00},
	}
}

func (f *fakeBME280) Tx(addr uint16, w, r []byte) error {
	if len(w) == 2 && len(r) == 0 {
		if w[0] == 0xF4 && w[1]&0x03 == 0x01 { // ctrl_meas, forced
			f.forced++
			f.busyPolls = f.busyAfterTrigger
		}
		return nil
	}
	if len(w) == 1 && len(r) > 0 {
		switch w[0] {
		case 0xD0: // id
			if f.badID {
				r[0] = 0x00
			} else {
				r[0] = 0x60
			}
		case 0xF3: // status
			if f.busyPolls > 0 {
				f.busyPolls--
				r[0] = 0x08
			} else {
				r[0] = 0
			}
		case 0x88:
			copy(r, f.calibA[:])
		case 0xE1:
			copy(r, f.calibB[:])
		case 0xF7:
			copy(r, f.meas[:])
		}
		return nil
	}
	return errors.New("unexpected transaction")
}

func TestBME280Adaptor_Capabilities(t *testing.T) {
	ad, err := NewBME280Adaptor("bme280-0", newFakeBME280(), 0)
	if err != nil {
		t.Fatalf("NewBME280Adaptor: %v", err)
	}
	if ad.ID() != "bme280-0" {
		t.Fatalf("ID = %q", ad.ID())
	}
	kinds := map[string]bool{}
	for _, c := range ad.Capabilities() {
		kinds[c.Kind] = true
		if c.Info["driver"] != "bme280" {
			t.Errorf("%s info missing driver tag: %v", c.Kind, c.Info)
		}
	}
	for _, k := range []string{"temperature", "humidity", "pressure"} {
		if !kinds[k] {
			t.Errorf("missing capability kind %q", k)
		}
	}
}

func TestBME280Adaptor_BadChip(t *testing.T) {
	f := newFakeBME280()
	f.badID = true
	if _, err := NewBME280Adaptor("bme280-0", f, 0); err == nil {
		t.Fatal("expected identity error for wrong chip id")
	}
}

func TestBME280Adaptor_TriggerCollect(t *testing.T) {
	f := newFakeBME280()
	f.busyAfterTrigger = 2
	ad, err := NewBME280Adaptor("bme280-0", f, 0)
	if err != nil {
		t.Fatalf("NewBME280Adaptor: %v", err)
	}

	ctx := context.Background()
	wait, err := ad.Trigger(ctx)
	if err != nil {
		t.Fatalf("Trigger: %v", err)
	}
	if wait <= 0 {
		t.Fatalf("Trigger wait = %v, want > 0", wait)
	}
	if f.forced != 1 {
		t.Fatalf("forced conversions = %d, want 1", f.forced)
	}

	s, err := ad.Collect(ctx)
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if len(s) != 3 || s[0].Kind != "temperature" {
		t.Fatalf("sample order/len wrong: %+v", s)
	}

	tv, ok := findReadingPayload(t, s, "temperature").(types.TemperatureValue)
	if !ok || tv.CentiC != 2508 {
		t.Errorf("temperature payload = %+v, want CentiC 2508", findReadingPayload(t, s, "temperature"))
	}
	hv, ok := findReadingPayload(t, s, "humidity").(types.HumidityValue)
	if !ok || hv.Q2210RH != 67318 {
		t.Errorf("humidity payload = %+v, want Q2210RH 67318", findReadingPayload(t, s, "humidity"))
	}
	pv, ok := findReadingPayload(t, s, "pressure").(types.PressureValue)
	if !ok || pv.Q248Pa != 25767233 {
		t.Errorf("pressure payload = %+v, want Q248Pa 25767233", findReadingPayload(t, s, "pressure"))
	}
}

func TestBME280Adaptor_NotReady(t *testing.T) {
	f := newFakeBME280()
	ad, err := NewBME280Adaptor("bme280-0", f, 0)
	if err != nil {
		t.Fatalf("NewBME280Adaptor: %v", err)
	}
	ctx := context.Background()
	if _, err := ad.Trigger(ctx); err != nil {
		t.Fatalf("Trigger: %v", err)
	}
	f.busyPolls = 1 << 30 // chip never reports ready
	if _, err := ad.Collect(ctx); err != ErrNotReady {
		t.Fatalf("Collect err = %v, want ErrNotReady", err)
	}
}

func TestBME280Adaptor_ControlUnsupported(t *testing.T) {
	ad, err := NewBME280Adaptor("bme280-0", newFakeBME280(), 0)
	if err != nil {
		t.Fatalf("NewBME280Adaptor: %v", err)
	}
	if _, err := ad.Control("temperature", "whatever", nil); err != ErrUnsupported {
		t.Fatalf("Control err = %v, want ErrUnsupported", err)
	}
}
