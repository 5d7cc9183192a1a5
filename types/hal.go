package types

// ------------------------
// Common HAL state (retained)
// ------------------------

type HALState struct {
	Level  string `json:"level"`  // "idle", "ready", "stopped"
	Status string `json:"status"` // freeform short code
	TS     int64  `json:"ts_ms"`
}

// Link is the link/state reported for a capability.
type Link string

const (
	LinkUp       Link = "up"
	LinkDown     Link = "down"
	LinkDegraded Link = "degraded"
)

type CapabilityStatus struct {
	Link  Link   `json:"link"`
	TS    int64  `json:"ts_ms"`
	Error string `json:"error,omitempty"` // machine-readable short code
}

// ------------------------
// Capability kinds & info
// ------------------------

type Kind string

const (
	KindPWM         Kind = "pwm"
	KindRGB         Kind = "rgb"
	KindButton      Kind = "button"
	KindVoltage     Kind = "voltage"
	KindTemperature Kind = "temperature"
	KindHumidity    Kind = "humidity"
	KindBoard       Kind = "board"
)

// Info envelope each capability exposes (retained).
type Info struct {
	SchemaVersion int    `json:"schema_version"`
	Driver        string `json:"driver"`
	Detail        any    `json:"detail,omitempty"`
}

// ------------------------
// HAL configuration (config/hal)
// ------------------------

type HALConfig struct {
	ButtonPollMs   uint32 `json:"button_poll_ms"`  // 0 => default
	VoltagePollMs  uint32 `json:"voltage_poll_ms"` // 0 => no periodic reads
	SensorPollMs   uint32 `json:"sensor_poll_ms"`  // 0 => no periodic reads
	Samples        int    `json:"samples"`         // ADC samples per read
	EnvSensor      bool   `json:"env_sensor"`      // AHT20 on Qw/ST
	EnvPollMs      uint32 `json:"env_poll_ms"`
	ClearOnStartup bool   `json:"clear_on_startup"`
}

// ------------------------
// Generic replies
// ------------------------

type OKReply struct {
	OK bool `json:"ok"`
}

type ErrorReply struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
}
