package config

// -----------------------------------------------------------------------------
// Embedded configuration
//
// Populate embeddedConfigs at build time (e.g. via code generation) or
// manually during development.
// Key: device ID (the value placed in ctx via WithDevice)
// Val: raw JSON bytes for that device
// -----------------------------------------------------------------------------

// cfgHumidifierPico is the standalone humidifier: BME280 on I2C0, atomizer
// switch and tank float on GPIO, humidistat control, UART uplink.
const cfgHumidifierPico = `{
  "hal": {
    "version": 1,
    "buses": [
      {"id": "i2c0", "type": "i2c", "params": {"freq_hz": 400000}}
    ],
    "devices": [
      {"id": "bme280-0", "type": "bme280",
       "bus_ref": {"id": "i2c0", "type": "i2c"},
       "params": {"addr": 118, "period_ms": 2000}},
      {"id": "mist_en", "type": "gpio",
       "params": {"pin": 15, "mode": "output", "initial": false}},
      {"id": "tank_low", "type": "gpio",
       "params": {"pin": 14, "mode": "input", "pull": "up",
                  "irq": {"edge": "both", "debounce_ms": 50}}}
    ]
  },
  "humidistat": {
    "target_deci_pct": 550,
    "band_deci_pct": 40,
    "switch_id": 0,
    "humidity_id": 0,
    "tank_low_id": 1,
    "stale_ms": 30000,
    "min_hold_ms": 5000
  },
  "bridge": {
    "transport": {"type": "uart", "uart": {"baud": 115200, "rx_pin": 1, "tx_pin": 0}},
    "forward": ["hal/capability/#", "humidistat/state", "system/heartbeat"],
    "remote_prefix": "upstream"
  },
  "heartbeat": {
    "interval": 2
  }
}`

// cfgEnvmonHost is the hosted environment monitor: sensor on a Linux I2C
// adapter, no actuation, websocket uplink.
const cfgEnvmonHost = `{
  "hal": {
    "version": 1,
    "buses": [
      {"id": "i2c0", "type": "i2c"}
    ],
    "devices": [
      {"id": "bme280-0", "type": "bme280",
       "bus_ref": {"id": "i2c0", "type": "i2c"},
       "params": {"addr": 118, "period_ms": 10000}}
    ]
  },
  "bridge": {
    "transport": {"type": "ws", "ws": {"url": "ws://localhost:8080/uplink"}},
    "forward": ["hal/capability/#", "system/heartbeat"]
  },
  "heartbeat": {
    "interval": 10
  }
}`

var embeddedConfigs = map[string][]byte{
	"humidifier-pico": []byte(cfgHumidifierPico),
	"envmon-host":     []byte(cfgEnvmonHost),
}
