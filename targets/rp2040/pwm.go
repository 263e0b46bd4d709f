//go:build rp2040

package main

import (
	"errors"
	"machine"

	"tinygo.org/x/drivers/servo"
)

var errNoSuchServo = errors.New("servo: channel not wired")

// Pulse widths for 0 and 180 degrees
const (
	pulseMinUs = 544
	pulseMaxUs = 2400
	fullScale  = 180
)

// servoPins are the six finger servos on GPIO2..GPIO7
var servoPins = [...]machine.Pin{
	machine.GPIO2, machine.GPIO3, machine.GPIO4,
	machine.GPIO5, machine.GPIO6, machine.GPIO7,
}

// pwmPeripheral abstracts over TinyGo's unexported *pwmGroup type
type pwmPeripheral interface {
	Configure(config machine.PWMConfig) error
	Channel(pin machine.Pin) (uint8, error)
	Top() uint32
	Set(channel uint8, value uint32)
}

// ServoBank drives hobby servos from the RP2040 PWM slices
type ServoBank struct {
	servos []servo.Servo
}

// NewServoBank configures one servo per pin
func NewServoBank(pins []machine.Pin) (*ServoBank, error) {
	b := &ServoBank{servos: make([]servo.Servo, len(pins))}
	for i, pin := range pins {
		s, err := servo.New(pwmFor(pin), pin)
		if err != nil {
			return nil, err
		}
		b.servos[i] = s
	}
	return b, nil
}

// Drive converts a position in degrees to a pulse width
func (b *ServoBank) Drive(channel int, position uint8) error {
	if channel < 0 || channel >= len(b.servos) {
		return errNoSuchServo
	}
	p := int(position)
	if p > fullScale {
		p = fullScale
	}
	us := pulseMinUs + p*(pulseMaxUs-pulseMinUs)/fullScale
	b.servos[channel].SetMicroseconds(int16(us))
	return nil
}

// pwmFor returns the PWM slice for a pin
// RP2040: GPIO pin N maps to slice (N >> 1) & 0x7
func pwmFor(pin machine.Pin) pwmPeripheral {
	switch (uint8(pin) >> 1) & 0x7 {
	case 0:
		return machine.PWM0
	case 1:
		return machine.PWM1
	case 2:
		return machine.PWM2
	case 3:
		return machine.PWM3
	case 4:
		return machine.PWM4
	case 5:
		return machine.PWM5
	case 6:
		return machine.PWM6
	default:
		return machine.PWM7
	}
}
