//go:build rp2040

package main

import (
	"errors"
	"machine"
	"sync"

	"handctl/core"
)

var errNoSuchADC = errors.New("adc: channel not wired")

// ForceADC reads the force sensor through TinyGo's machine.ADC.
// machine.ADC.Get returns 16-bit left-aligned samples, which is the
// convention core.AnalogValue expects.
type ForceADC struct {
	mu       sync.Mutex
	channels []machine.ADC
}

// NewForceADC maps sensor channel i to pins[i]
func NewForceADC(pins ...machine.Pin) *ForceADC {
	d := &ForceADC{channels: make([]machine.ADC, len(pins))}
	for i, p := range pins {
		d.channels[i] = machine.ADC{Pin: p}
	}
	return d
}

// Init powers the ADC and configures every pin
func (d *ForceADC) Init() {
	machine.InitADC()
	for i := range d.channels {
		d.channels[i].Configure(machine.ADCConfig{})
	}
}

func (d *ForceADC) ReadAnalog(channel int) (core.AnalogValue, error) {
	if channel < 0 || channel >= len(d.channels) {
		return 0, errNoSuchADC
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return core.AnalogValue(d.channels[channel].Get()), nil
}
