//go:build rp2040

package main

import (
	"machine"
	"time"

	"handctl/protocol"
)

// receiveTimeout bounds one ReadByte so telemetry keeps running while the
// host is quiet
const receiveTimeout = 10 * time.Millisecond

// USBLink is the USB CDC serial port as a byte transport
type USBLink struct {
	timeout time.Duration
}

// InitUSB configures machine.Serial, which is USB CDC on the RP2040
func InitUSB() *USBLink {
	_ = machine.Serial.Configure(machine.UARTConfig{})
	return &USBLink{timeout: receiveTimeout}
}

// ReadByte polls for one byte until the receive timeout
func (u *USBLink) ReadByte() (byte, error) {
	deadline := time.Now().Add(u.timeout)
	for machine.Serial.Buffered() == 0 {
		if time.Now().After(deadline) {
			return 0, protocol.ErrReceiveTimeout
		}
		// Yield to the USB stack
		time.Sleep(100 * time.Microsecond)
	}
	return machine.Serial.ReadByte()
}

// WriteReady always reports capacity; the CDC driver blocks internally
func (u *USBLink) WriteReady() bool {
	return true
}

func (u *USBLink) WriteByte(b byte) error {
	return machine.Serial.WriteByte(b)
}
