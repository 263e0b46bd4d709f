// Package config holds the hand controller configuration
package config

// Drive modes
const (
	ModeHardware = "hardware"
	ModeDebug    = "debug"
)

// Sensor modes
const (
	SensorLive      = "live"
	SensorSynthetic = "synthetic"
)

type Config struct {
	Mode        string        `toml:"mode" yaml:"mode"`
	Channels    int           `toml:"channels" yaml:"channels"`
	MaxPosition int           `toml:"max_position" yaml:"max_position"`
	Sensor      SensorConf    `toml:"sensor" yaml:"sensor"`
	Telemetry   TelemetryConf `toml:"telemetry" yaml:"telemetry"`
	Link        LinkConf      `toml:"link" yaml:"link"`
	Presets     []PresetConf  `toml:"presets" yaml:"presets"`
	Logger      LogConf       `toml:"logger" yaml:"logger"`
	MQTT        MQTTConf      `toml:"mqtt" yaml:"mqtt"`
}

// ---- SENSOR ----

type SensorConf struct {
	Mode           string `toml:"mode" yaml:"mode"`
	Channel        int    `toml:"channel" yaml:"channel"`
	ResolutionBits int    `toml:"resolution_bits" yaml:"resolution_bits"`
}

// ---- TELEMETRY ----

type TelemetryConf struct {
	Enabled    bool `toml:"enabled" yaml:"enabled"`
	IntervalMs int  `toml:"interval_ms" yaml:"interval_ms"`
}

// ---- LINK ----

type LinkConf struct {
	Device string `toml:"device" yaml:"device"`
	Baud   int    `toml:"baud" yaml:"baud"`

	// ReceiveTimeoutMs bounds the wait for the next byte; 0 waits forever
	ReceiveTimeoutMs int `toml:"receive_timeout_ms" yaml:"receive_timeout_ms"`

	// StallTimeoutMs bounds the wait for write capacity; 0 waits forever
	StallTimeoutMs int `toml:"stall_timeout_ms" yaml:"stall_timeout_ms"`
}

// ---- PRESETS ----

type PresetConf struct {
	Name      string `toml:"name" yaml:"name"`
	Positions []int  `toml:"positions" yaml:"positions"`
}

// ---- LOGGER ----

type LogConf struct {
	Level string `toml:"level" yaml:"level"`
}

// ---- MQTT ----

type MQTTConf struct {
	Broker   string `toml:"broker" yaml:"broker"` // e.g. tcp://localhost:1883
	ClientID string `toml:"client_id" yaml:"client_id"`
	User     string `toml:"user" yaml:"user"`
	Password string `toml:"password" yaml:"password"`
	Prefix   string `toml:"prefix" yaml:"prefix"`
	Qos      byte   `toml:"qos" yaml:"qos"`
}

// Default returns the configuration of a six-finger hand with 180 degree
// servos, a 10-bit force sensor and telemetry off.
func Default() Config {
	return Config{
		Mode:        ModeHardware,
		Channels:    6,
		MaxPosition: 180,
		Sensor: SensorConf{
			Mode:           SensorLive,
			ResolutionBits: 10,
		},
		Telemetry: TelemetryConf{
			IntervalMs: 100,
		},
		Link: LinkConf{
			Device: "/dev/ttyACM0",
			Baud:   115200,
		},
		Logger: LogConf{
			Level: "info",
		},
		MQTT: MQTTConf{
			Broker:   "tcp://localhost:1883",
			ClientID: "handctl",
			Prefix:   "hand",
		},
	}
}
