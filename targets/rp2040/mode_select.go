//go:build rp2040

package main

import (
	"machine"

	"handctl/config"
)

// debugPin selects debug mode when jumpered to ground at boot
const debugPin = machine.GPIO15

// ModeConfig determines which servo driver to run
type ModeConfig struct {
	// Debug reports servo writes as text instead of driving PWM
	Debug bool
}

func (m ModeConfig) String() string {
	if m.Debug {
		return config.ModeDebug
	}
	return config.ModeHardware
}

// GetMode samples the debug jumper
func GetMode() ModeConfig {
	debugPin.Configure(machine.PinConfig{Mode: machine.PinInputPullup})
	return ModeConfig{Debug: !debugPin.Get()}
}
