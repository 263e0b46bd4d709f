package core

import (
	"fmt"
	"math"

	"handctl/protocol"
)

// SamplerMode selects where readings come from
type SamplerMode string

const (
	SamplerLive      SamplerMode = "live"
	SamplerSynthetic SamplerMode = "synthetic"
)

// DefaultResolutionBits matches a 10-bit microcontroller ADC
const DefaultResolutionBits = 10

// SamplerConfig configures a Sampler
type SamplerConfig struct {
	Mode SamplerMode

	// Channel is the analog input to read in live mode
	Channel int

	// ResolutionBits is the reading width, 1..16
	ResolutionBits int
}

// Sample is one reading at ResolutionBits width
type Sample struct {
	Timestamp uint32
	Value     uint16
}

// Sampler produces one (timestamp, reading) pair per call
type Sampler struct {
	cfg    SamplerConfig
	clock  Clock
	reader AnalogReader
}

// NewSampler validates cfg and creates a sampler. reader may be nil in
// synthetic mode.
func NewSampler(cfg SamplerConfig, clock Clock, reader AnalogReader) (*Sampler, error) {
	if cfg.ResolutionBits == 0 {
		cfg.ResolutionBits = DefaultResolutionBits
	}
	if cfg.ResolutionBits < 1 || cfg.ResolutionBits > 16 {
		return nil, fmt.Errorf("new sampler: %w: resolution %d bits", ErrInvalidSampling, cfg.ResolutionBits)
	}
	if clock == nil {
		clock = NewBootClock()
	}
	switch cfg.Mode {
	case SamplerSynthetic:
	case SamplerLive, "":
		cfg.Mode = SamplerLive
		if reader == nil {
			return nil, fmt.Errorf("new sampler: %w", ErrNoAnalogReader)
		}
	default:
		return nil, fmt.Errorf("new sampler: %w: mode %q", ErrInvalidSampling, cfg.Mode)
	}
	return &Sampler{cfg: cfg, clock: clock, reader: reader}, nil
}

// Mode returns the sampling mode in use
func (s *Sampler) Mode() SamplerMode {
	return s.cfg.Mode
}

// ResolutionBits returns the reading width
func (s *Sampler) ResolutionBits() int {
	return s.cfg.ResolutionBits
}

// Sample takes one reading
func (s *Sampler) Sample() (Sample, error) {
	ts := s.clock.Millis()
	if s.cfg.Mode == SamplerSynthetic {
		return Sample{Timestamp: ts, Value: Synthetic(ts, s.cfg.ResolutionBits)}, nil
	}

	raw, err := s.reader.ReadAnalog(s.cfg.Channel)
	if err != nil {
		return Sample{}, fmt.Errorf("sample channel %d: %w", s.cfg.Channel, err)
	}
	return Sample{Timestamp: ts, Value: uint16(raw) >> (16 - s.cfg.ResolutionBits)}, nil
}

// Reading takes one sample and reduces it to the one-byte wire reading
func (s *Sampler) Reading() (protocol.Reading, error) {
	sample, err := s.Sample()
	if err != nil {
		return protocol.Reading{}, err
	}
	return protocol.Reading{Timestamp: sample.Timestamp, Value: WireValue(sample.Value, s.cfg.ResolutionBits)}, nil
}

// Synthetic is the test-signal reading for timestamp ts:
// round(amp*sin(ts/1000) + amp) with amp = (2^bits-1)/2.
func Synthetic(ts uint32, bits int) uint16 {
	amp := float64(uint32(1)<<uint(bits)-1) / 2
	return uint16(math.Round(amp*math.Sin(float64(ts)/1000) + amp))
}

// WireValue reduces a reading of the given width to 8 bits
func WireValue(v uint16, bits int) uint8 {
	if bits <= 8 {
		return uint8(v)
	}
	return uint8(v >> uint(bits-8))
}
