//go:build linux

package i2cshim

import (
	"errors"

	"github.com/kidoman/embd"
)

// Embd wraps an embd.I2CBus. The drivers always lead a transaction with the
// register byte, which maps onto embd's register-oriented calls.
type Embd struct {
	bus embd.I2CBus
}

func NewEmbd(bus embd.I2CBus) *Embd { return &Embd{bus: bus} }

func (s *Embd) Tx(addr uint16, w, r []byte) error {
	a := byte(addr)
	switch {
	case len(w) >= 1 && len(r) > 0:
		return s.bus.ReadFromReg(a, w[0], r)
	case len(w) >= 2:
		return s.bus.WriteToReg(a, w[0], w[1:])
	case len(w) == 1:
		return s.bus.WriteByte(a, w[0])
	default:
		return errors.New("i2cshim: empty transaction")
	}
}
