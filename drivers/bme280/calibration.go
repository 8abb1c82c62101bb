package bme280

// The chip's trimming coefficients are captured once per session as 33 raw
// bytes: a 26-byte burst at regCalib00 followed by a 7-byte burst at
// regCalib26. The split is mandated by the register map gap, not an
// optimization. Decoding is a pure transform of the buffer and can be
// re-derived at any time without touching the bus.

const (
	calibSize      = 33
	calibBlockALen = 26
	calibBlockBLen = 7
)

// Byte offsets of the named coefficients inside the raw buffer.
const (
	calT1 = 0 // u16 le
	calT2 = 2 // s16 le
	calT3 = 4 // s16 le
	calP1 = 6 // u16 le
	calP2 = 8 // s16 le, P3..P9 follow at 2-byte strides
	calP3 = 10
	calP4 = 12
	calP5 = 14
	calP6 = 16
	calP7 = 18
	calP8 = 20
	calP9 = 22
	calH1 = 25 // u8
	calH2 = 26 // s16 le
	calH3 = 28 // u8
	calH4 = 29 // 12-bit packed, shares byte 30 with H5
	calH5 = 30 // 12-bit packed
	calH6 = 32 // s8
)

// Calibration holds the decoded trimming coefficients.
type Calibration struct {
	T1 uint16
	T2 int16
	T3 int16

	P1 uint16
	P2 int16
	P3 int16
	P4 int16
	P5 int16
	P6 int16
	P7 int16
	P8 int16
	P9 int16

	H1 uint8
	H2 int16
	H3 uint8
	H4 int16 // 12-bit packed, assembled without sign extension
	H5 int16 // 12-bit packed, assembled without sign extension
	H6 int8
}

func decodeCalibration(raw *[calibSize]byte) Calibration {
	return Calibration{
		T1: u16le(raw[calT1], raw[calT1+1]),
		T2: s16le(raw[calT2], raw[calT2+1]),
		T3: s16le(raw[calT3], raw[calT3+1]),

		P1: u16le(raw[calP1], raw[calP1+1]),
		P2: s16le(raw[calP2], raw[calP2+1]),
		P3: s16le(raw[calP3], raw[calP3+1]),
		P4: s16le(raw[calP4], raw[calP4+1]),
		P5: s16le(raw[calP5], raw[calP5+1]),
		P6: s16le(raw[calP6], raw[calP6+1]),
		P7: s16le(raw[calP7], raw[calP7+1]),
		P8: s16le(raw[calP8], raw[calP8+1]),
		P9: s16le(raw[calP9], raw[calP9+1]),

		H1: raw[calH1],
		H2: s16le(raw[calH2], raw[calH2+1]),
		H3: raw[calH3],
		H4: packH4(raw[calH4], raw[calH4+1]),
		H5: packH5(raw[calH5], raw[calH5+1]),
		H6: int8(raw[calH6]),
	}
}

// u16le and s16le decode little-endian pairs from the calibration area
// (the opposite byte order from the measurement registers).
func u16le(lo, hi byte) uint16 { return uint16(hi)<<8 | uint16(lo) }
func s16le(lo, hi byte) int16  { return int16(u16le(lo, hi)) }

// packH4 assembles the 12-bit H4 field: byte 0xE4 carries bits 11:4, the
// low nibble of 0xE5 carries bits 3:0.
func packH4(e4, e5 byte) int16 { return int16(e4)<<4 | int16(e5&0x0F) }

// packH5 assembles the 12-bit H5 field: byte 0xE6 carries bits 11:4, the
// high nibble of 0xE5 carries bits 3:0. Neither packed field is
// sign-extended; production parts keep them well inside 12 bits.
func packH5(e5, e6 byte) int16 { return int16(e6)<<4 | int16(e5>>4) }
