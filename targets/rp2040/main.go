//go:build rp2040

package main

import (
	"context"
	"machine"
	"time"

	"handctl/config"
	"handctl/core"
)

func main() {
	// Disable the watchdog left over from a previous reset
	err := machine.Watchdog.Configure(machine.WatchdogConfig{TimeoutMillis: 0})
	if err != nil {
		return
	}

	link := InitUSB()

	cfg := config.Default()
	cfg.Mode = GetMode().String()

	adc := NewForceADC(machine.ADC0)
	adc.Init()

	hw := core.Hardware{
		Analog: adc,
		Clock:  HardwareClock{},
	}
	if cfg.Mode == config.ModeHardware {
		servos, err := NewServoBank(servoPins[:cfg.Channels])
		if err != nil {
			// No servos: fall back to reporting writes as text
			cfg.Mode = config.ModeDebug
		} else {
			hw.Servo = servos
		}
	}

	ctrl, err := core.Build(&cfg, hw, link, core.NopLogger())
	if err != nil {
		for {
			time.Sleep(time.Second)
		}
	}

	// Give the host time to open the port before the banner
	time.Sleep(500 * time.Millisecond)
	_ = ctrl.Start()

	ctx := context.Background()
	for {
		func() {
			defer func() {
				// A panic drops the current step; the loop keeps serving
				_ = recover()
			}()
			_ = ctrl.Step(ctx)
		}()
	}
}
