// Package serial opens the host end of the hand link
package serial

import (
	"io"

	"handctl/config"
)

// Port represents a serial port interface
// This abstraction allows for different implementations:
// - Native serial (using github.com/tarm/serial)
// - Mock serial (for testing)
type Port interface {
	io.ReadWriteCloser

	// Flush flushes any buffered data
	Flush() error
}

// Config holds serial port configuration
type Config struct {
	// Device path (e.g., "/dev/ttyACM0", "COM3")
	Device string

	// Baud rate (USB CDC ignores this)
	Baud int

	// Read timeout in milliseconds (0 = blocking). A timed out read
	// returns (0, nil).
	ReadTimeout int
}

// DefaultConfig returns the configuration the firmware expects
func DefaultConfig(device string) *Config {
	return &Config{
		Device:      device,
		Baud:        115200,
		ReadTimeout: 100,
	}
}

// FromLink converts the link section of a hand configuration
func FromLink(link config.LinkConf) *Config {
	cfg := DefaultConfig(link.Device)
	if link.Baud > 0 {
		cfg.Baud = link.Baud
	}
	if link.ReceiveTimeoutMs > 0 {
		cfg.ReadTimeout = link.ReceiveTimeoutMs
	}
	return cfg
}
