package bme280

// Register access over the atomic write-then-read transaction contract.
// Register bursts are big-endian; the calibration area read through the
// same primitives is little-endian and is decoded in calibration.go.

func (d *Device) writeReg(reg, val byte) error {
	d.w[0] = reg
	d.w[1] = val
	return d.bus.Tx(d.Address, d.w[:2], nil)
}

func (d *Device) readReg(reg byte) (byte, error) {
	d.w[0] = reg
	if err := d.bus.Tx(d.Address, d.w[:1], d.r[:1]); err != nil {
		return 0, err
	}
	return d.r[0], nil
}

// readRegs burst-reads len(into) bytes starting at reg.
func (d *Device) readRegs(reg byte, into []byte) error {
	d.w[0] = reg
	return d.bus.Tx(d.Address, d.w[:1], into)
}

func word16(msb, lsb byte) uint16 { return uint16(msb)<<8 | uint16(lsb) }

// word20 combines MSB/LSB/XLSB; the XLSB top nibble carries the value's low
// four bits.
func word20(msb, lsb, xlsb byte) uint32 {
	return uint32(msb)<<12 | uint32(lsb)<<4 | uint32(xlsb)>>4
}
