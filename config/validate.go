package config

import (
	"errors"
	"fmt"
	"strings"

	"handctl/protocol"
)

// ErrInvalid is wrapped by every validation failure
var ErrInvalid = errors.New("invalid configuration")

// Validate checks configuration correctness.
// It MUST NOT mutate configuration.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("%w: nil config", ErrInvalid)
	}

	switch strings.ToLower(cfg.Mode) {
	case ModeHardware, ModeDebug:
	default:
		return fmt.Errorf("%w: mode %q (want %q or %q)", ErrInvalid, cfg.Mode, ModeHardware, ModeDebug)
	}

	if cfg.Channels < 1 || cfg.Channels > protocol.MaxChannels {
		return fmt.Errorf("%w: channels %d out of range 1..%d", ErrInvalid, cfg.Channels, protocol.MaxChannels)
	}
	if cfg.MaxPosition < 1 || cfg.MaxPosition > 255 {
		return fmt.Errorf("%w: max_position %d out of range 1..255", ErrInvalid, cfg.MaxPosition)
	}

	// ------------------------------------------------------------
	// SENSOR
	// ------------------------------------------------------------

	switch strings.ToLower(cfg.Sensor.Mode) {
	case SensorLive, SensorSynthetic:
	default:
		return fmt.Errorf("%w: sensor.mode %q (want %q or %q)", ErrInvalid, cfg.Sensor.Mode, SensorLive, SensorSynthetic)
	}
	if cfg.Sensor.ResolutionBits < 1 || cfg.Sensor.ResolutionBits > 16 {
		return fmt.Errorf("%w: sensor.resolution_bits %d out of range 1..16", ErrInvalid, cfg.Sensor.ResolutionBits)
	}
	if cfg.Sensor.Channel < 0 {
		return fmt.Errorf("%w: sensor.channel %d is negative", ErrInvalid, cfg.Sensor.Channel)
	}

	// ------------------------------------------------------------
	// TIMING
	// ------------------------------------------------------------

	if cfg.Telemetry.IntervalMs < 1 {
		return fmt.Errorf("%w: telemetry.interval_ms must be positive", ErrInvalid)
	}
	if cfg.Link.ReceiveTimeoutMs < 0 || cfg.Link.StallTimeoutMs < 0 {
		return fmt.Errorf("%w: link timeouts must not be negative", ErrInvalid)
	}

	// ------------------------------------------------------------
	// PRESETS
	// ------------------------------------------------------------

	names := make(map[string]int)
	for i, p := range cfg.Presets {
		if len(p.Positions) != cfg.Channels {
			return fmt.Errorf("%w: preset %d (%q) has %d positions, want %d", ErrInvalid, i, p.Name, len(p.Positions), cfg.Channels)
		}
		for j, v := range p.Positions {
			if v < 0 || v > 255 {
				return fmt.Errorf("%w: preset %d (%q) position %d is %d", ErrInvalid, i, p.Name, j, v)
			}
		}
		if p.Name == "" {
			continue
		}
		if prev, exists := names[p.Name]; exists {
			return fmt.Errorf("%w: preset name %q used by presets %d and %d", ErrInvalid, p.Name, prev, i)
		}
		names[p.Name] = i
	}

	if cfg.MQTT.Qos > 2 {
		return fmt.Errorf("%w: mqtt.qos %d out of range 0..2", ErrInvalid, cfg.MQTT.Qos)
	}

	return nil
}
