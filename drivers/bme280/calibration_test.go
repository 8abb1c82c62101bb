package bme280

import "testing"

func putU16LE(b []byte, v uint16) {
	b[0] = byte(v)
	b[1] = byte(v >> 8)
}

func putS16LE(b []byte, v int16) {
	putU16LE(b, uint16(v))
}

func TestU16LE(t *testing.T) {
	cases := []struct {
		lo, hi byte
		want   uint16
	}{
		{0x34, 0x12, 0x1234},
		{0x00, 0x00, 0x0000},
		{0xFF, 0xFF, 0xFFFF},
		{0x01, 0x00, 0x0001},
		{0x00, 0x01, 0x0100},
	}
	for _, c := range cases {
		if got := u16le(c.lo, c.hi); got != c.want {
			t.Errorf("u16le(%#02x,%#02x) = %#04x, want %#04x", c.lo, c.hi, got, c.want)
		}
	}
}

func TestS16LE(t *testing.T) {
	cases := []struct {
		lo, hi byte
		want   int16
	}{
		{0x34, 0x12, 0x1234},
		{0xFF, 0xFF, -1},
		{0x00, 0x80, -32768},
		{0xFF, 0x7F, 32767},
	}
	for _, c := range cases {
		if got := s16le(c.lo, c.hi); got != c.want {
			t.Errorf("s16le(%#02x,%#02x) = %d, want %d", c.lo, c.hi, got, c.want)
		}
	}
}

func TestWord16BigEndian(t *testing.T) {
	// Register bursts are big-endian, the opposite of the calibration area.
	if got := word16(0x12, 0x34); got != 0x1234 {
		t.Fatalf("word16(0x12,0x34) = %#04x, want 0x1234", got)
	}
}

func TestWord20(t *testing.T) {
	cases := []struct {
		msb, lsb, xlsb byte
		want           uint32
	}{
		{0x80, 0x00, 0x00, 0x80000},
		{0x00, 0x00, 0xF0, 0x0F},
		{0xFF, 0xFF, 0xF0, 0xFFFFF},
		{0x00, 0x00, 0x00, 0},
	}
	for _, c := range cases {
		if got := word20(c.msb, c.lsb, c.xlsb); got != c.want {
			t.Errorf("word20(%#02x,%#02x,%#02x) = %#x, want %#x", c.msb, c.lsb, c.xlsb, got, c.want)
		}
	}
}

func TestPackH4H5(t *testing.T) {
	// The two 12-bit fields share byte 0xE5: H4 takes its low nibble,
	// H5 its high nibble.
	e4, e5, e6 := byte(0x12), byte(0x34), byte(0x56)
	if got := packH4(e4, e5); got != 0x124 {
		t.Errorf("packH4 = %#03x, want 0x124", got)
	}
	if got := packH5(e5, e6); got != 0x563 {
		t.Errorf("packH5 = %#03x, want 0x563", got)
	}

	// All-ones bytes stay positive: the packed fields are assembled without
	// sign extension.
	if got := packH4(0xFF, 0xFF); got != 0xFFF {
		t.Errorf("packH4(0xFF,0xFF) = %d, want 4095", got)
	}
	if got := packH5(0xFF, 0xFF); got != 0xFFF {
		t.Errorf("packH5(0xFF,0xFF) = %d, want 4095", got)
	}
}

func TestDecodeCalibration(t *testing.T) {
	var raw [calibSize]byte
	putU16LE(raw[calT1:], 27504)
	putS16LE(raw[calT2:], 26435)
	putS16LE(raw[calT3:], -1000)
	putU16LE(raw[calP1:], 36477)
	putS16LE(raw[calP2:], -10685)
	putS16LE(raw[calP3:], 3024)
	putS16LE(raw[calP4:], 2855)
	putS16LE(raw[calP5:], 140)
	putS16LE(raw[calP6:], -7)
	putS16LE(raw[calP7:], 15500)
	putS16LE(raw[calP8:], -14600)
	putS16LE(raw[calP9:], 6000)
	raw[calH1] = 75
	putS16LE(raw[calH2:], 360)
	raw[calH3] = 2
	raw[calH4] = 0x14 // H4 = 0x145 = 325 with the next byte's low nibble
	raw[calH5] = 0x25 // H5 = 0x032 = 50 with the next byte's high nibble
	raw[calH5+1] = 0x03
	h6 := int8(-30)
	raw[calH6] = byte(h6)

	want := Calibration{
		T1: 27504, T2: 26435, T3: -1000,
		P1: 36477, P2: -10685, P3: 3024, P4: 2855, P5: 140, P6: -7,
		P7: 15500, P8: -14600, P9: 6000,
		H1: 75, H2: 360, H3: 2, H4: 325, H5: 50, H6: -30,
	}
	if got := decodeCalibration(&raw); got != want {
		t.Fatalf("decode mismatch:\n got %+v\nwant %+v", got, want)
	}
}

func TestDecodeCalibrationIdempotent(t *testing.T) {
	var raw [calibSize]byte
	for i := range raw {
		raw[i] = byte(i*37 + 11)
	}
	first := decodeCalibration(&raw)
	second := decodeCalibration(&raw)
	if first != second {
		t.Fatalf("decode not idempotent:\n first %+v\nsecond %+v", first, second)
	}
}
