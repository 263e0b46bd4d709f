package config

import (
	"strconv"
	"strings"
)

// Normalize applies post-validation normalization.
// It is allowed to mutate configuration.
// It MUST be called only after Validate().
func Normalize(cfg *Config) {
	if cfg == nil {
		return
	}

	cfg.Mode = strings.ToLower(cfg.Mode)
	cfg.Sensor.Mode = strings.ToLower(cfg.Sensor.Mode)

	// Preset positions above the travel are clamped the same way a write is
	for pi := range cfg.Presets {
		p := &cfg.Presets[pi]
		if p.Name == "" {
			p.Name = "preset" + strconv.Itoa(pi)
		}
		for i, v := range p.Positions {
			if v > cfg.MaxPosition {
				p.Positions[i] = cfg.MaxPosition
			}
		}
	}

	cfg.MQTT.Prefix = strings.Trim(cfg.MQTT.Prefix, "/")
}
