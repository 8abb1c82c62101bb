package bme280

// I2C addresses. SDO tied low selects 0x76, tied high selects 0x77.
const (
	Address    = 0x76
	AddressAlt = 0x77
)

// ChipID is the fixed contents of the identification register.
const ChipID = 0x60

// Register map. The measurement and calibration areas are read in bursts;
// the calibration area is split across two non-contiguous blocks.
const (
	regID       = 0xD0
	regReset    = 0xE0
	regCtrlHum  = 0xF2
	regStatus   = 0xF3
	regCtrlMeas = 0xF4
	regCalib00  = 0x88 // first calibration block, 26 bytes
	regCalib26  = 0xE1 // second calibration block, 7 bytes
	regPressure = 0xF7 // measurement burst: press msb/lsb/xlsb, temp msb/lsb/xlsb, hum msb/lsb
)

// Writing resetAssert to the reset register triggers a soft reset.
const resetAssert = 0xB6

// Status register bits.
const (
	statusMeasuring = 0x08 // conversion in progress
	statusIMUpdate  = 0x01 // NVM image update in progress
)

// ctrl_meas holds osrs_t[7:5], osrs_p[4:2] and mode[1:0]; ctrl_hum holds
// osrs_h[2:0] and must be written before ctrl_meas to take effect.
const (
	modeSleep  = 0x00
	modeForced = 0x01
	modeNormal = 0x03

	osrsT4x = 0x03 << 5
	osrsP4x = 0x03 << 2
	osrsH4x = 0x03
)
