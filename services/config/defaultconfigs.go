package config

// -----------------------------------------------------------------------------
// Embedded configuration
//
// Key: device ID (placed in the context with WithDevice)
// Val: raw JSON bytes for that device
// -----------------------------------------------------------------------------

const cfgTinyFX = `{
  "hal": {
    "button_poll_ms": 20,
    "voltage_poll_ms": 10000,
    "samples": 8,
    "env_sensor": true,
    "env_poll_ms": 5000,
    "clear_on_startup": true
  },
  "fx": {
    "fps": 100,
    "mono": [
      {"name": "pulse_wave", "params": {"speed": 0.5, "length": 6}, "pos": 0},
      {"name": "pulse_wave", "params": {"speed": 0.5, "length": 6}, "pos": 1},
      {"name": "pulse_wave", "params": {"speed": 0.5, "length": 6}, "pos": 2},
      {"name": "pulse_wave", "params": {"speed": 0.5, "length": 6}, "pos": 3},
      {"name": "pulse_wave", "params": {"speed": 0.5, "length": 6}, "pos": 4},
      {"name": "pulse_wave", "params": {"speed": 0.5, "length": 6}, "pos": 5}
    ],
    "colour": {"name": "rainbow", "params": {"speed": 0.1}}
  },
  "audio": {
    "boot_tone": {"freq_hz": 880, "amplitude": 0.3, "shapes": ["sine"]}
  },
  "heartbeat": {
    "interval": 10
  }
}`

const cfgTinyFXW = `{
  "hal": {
    "button_poll_ms": 20,
    "voltage_poll_ms": 10000,
    "samples": 8,
    "clear_on_startup": true
  },
  "fx": {
    "fps": 50,
    "colour": {"name": "rgb", "params": {"r": 0, "g": 0, "b": 0}}
  },
  "heartbeat": {
    "interval": 10
  },
  "net": {
    "ssid": "",
    "password": "",
    "hostname": "tinyfx-w",
    "mode": "cheerlights",
    "interval_ms": 60000,
    "mqtt_broker": "",
    "mqtt_topic": "tinyfx/telemetry"
  }
}`

var embeddedConfigs = map[string][]byte{
	"tinyfx":   []byte(cfgTinyFX),
	"tinyfx_w": []byte(cfgTinyFXW),
}
