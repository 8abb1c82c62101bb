//go:build linux

// Package i2cshim adapts host-side I2C libraries to the write-then-read
// transaction shape the sensor drivers consume.
package i2cshim

import (
	"errors"

	d2r2 "github.com/d2r2/go-i2c"
)

// D2R2 wraps a github.com/d2r2/go-i2c handle. The handle is bound to one
// device address at open time, so transactions for any other address fail.
type D2R2 struct {
	dev  *d2r2.I2C
	addr uint16
}

// OpenD2R2 opens /dev/i2c-<bus> for the given device address.
func OpenD2R2(addr uint16, busNr int) (*D2R2, error) {
	dev, err := d2r2.NewI2C(uint8(addr), busNr)
	if err != nil {
		return nil, err
	}
	return &D2R2{dev: dev, addr: addr}, nil
}

func (s *D2R2) Tx(addr uint16, w, r []byte) error {
	if addr != s.addr {
		return errors.New("i2cshim: address differs from the opened device")
	}
	if len(w) > 0 {
		if _, err := s.dev.WriteBytes(w); err != nil {
			return err
		}
	}
	if len(r) > 0 {
		if _, err := s.dev.ReadBytes(r); err != nil {
			return err
		}
	}
	return nil
}

func (s *D2R2) Close() error { return s.dev.Close() }
