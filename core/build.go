package core

import (
	"fmt"
	"time"

	"handctl/config"
	"handctl/protocol"
)

// Hardware is what a target provides to the core
type Hardware struct {
	Servo  ServoDriver  // required in hardware mode
	Analog AnalogReader // required for live sensing
	Clock  Clock        // nil uses a BootClock
}

// Build assembles a controller from configuration. cfg must already be
// validated.
func Build(cfg *config.Config, hw Hardware, link protocol.ByteTransport, log Logger) (*Controller, error) {
	log = orNop(log)

	layout, err := protocol.NewLayout(cfg.Channels)
	if err != nil {
		return nil, fmt.Errorf("build: %w", err)
	}

	enc := protocol.NewEncoder(layout, link)
	enc.SetStallTimeout(time.Duration(cfg.Link.StallTimeoutMs) * time.Millisecond)

	driver, err := SelectDriver(Mode(cfg.Mode), hw.Servo, enc, log)
	if err != nil {
		return nil, fmt.Errorf("build: mode %q: %w", cfg.Mode, err)
	}

	bank, err := NewBank(driver, cfg.Channels, uint8(cfg.MaxPosition), log)
	if err != nil {
		return nil, fmt.Errorf("build: %w", err)
	}

	clock := hw.Clock
	if clock == nil {
		clock = NewBootClock()
	}
	sampler, err := NewSampler(SamplerConfig{
		Mode:           SamplerMode(cfg.Sensor.Mode),
		Channel:        cfg.Sensor.Channel,
		ResolutionBits: cfg.Sensor.ResolutionBits,
	}, clock, hw.Analog)
	if err != nil {
		return nil, fmt.Errorf("build: %w", err)
	}

	d := NewDispatcher(bank, sampler, PresetsFromConfig(cfg), enc, log)
	d.SetTelemetry(cfg.Telemetry.Enabled, uint32(cfg.Telemetry.IntervalMs))

	log.Infof("%d channels, mode %s, sensor %s/%d bits", cfg.Channels, driverMode(cfg.Mode), sampler.Mode(), sampler.ResolutionBits())

	return NewController(link, enc, d, clock, log), nil
}

// PresetsFromConfig returns the configured presets, or the built-in table
// when none are configured
func PresetsFromConfig(cfg *config.Config) Presets {
	if len(cfg.Presets) == 0 {
		return DefaultPresets(cfg.Channels, uint8(cfg.MaxPosition))
	}
	out := make(Presets, len(cfg.Presets))
	for i, p := range cfg.Presets {
		positions := make([]uint8, len(p.Positions))
		for j, v := range p.Positions {
			positions[j] = uint8(v)
		}
		out[i] = Preset{Name: p.Name, Positions: positions}
	}
	return out
}

func driverMode(m string) string {
	if m == "" {
		return string(ModeHardware)
	}
	return m
}
