package core

import (
	"errors"
	"math"
	"testing"
)

func TestSyntheticRange(t *testing.T) {
	for _, bits := range []int{1, 8, 10, 16} {
		top := uint16(uint32(1)<<uint(bits) - 1)
		var lo, hi uint16 = math.MaxUint16, 0
		for ts := uint32(0); ts < 7000; ts += 7 {
			v := Synthetic(ts, bits)
			if v > top {
				t.Fatalf("bits=%d ts=%d: %d exceeds %d", bits, ts, v, top)
			}
			if v < lo {
				lo = v
			}
			if v > hi {
				hi = v
			}
		}
		if lo != 0 || hi != top {
			t.Errorf("bits=%d: expected full range 0..%d, got %d..%d", bits, top, lo, hi)
		}
	}
}

func TestSyntheticKnownValues(t *testing.T) {
	// amp = 511.5 at 10 bits
	if v := Synthetic(0, 10); v != 512 {
		t.Errorf("ts=0: expected 512, got %d", v)
	}
	want := uint16(math.Round(511.5*math.Sin(1.5) + 511.5))
	if v := Synthetic(1500, 10); v != want {
		t.Errorf("ts=1500: expected %d, got %d", want, v)
	}
}

func TestWireValue(t *testing.T) {
	testCases := []struct {
		v    uint16
		bits int
		want uint8
	}{
		{255, 8, 255},
		{1, 1, 1},
		{1023, 10, 255},
		{512, 10, 128},
		{0xFFFF, 16, 0xFF},
		{0x1234, 16, 0x12},
	}
	for _, tc := range testCases {
		if got := WireValue(tc.v, tc.bits); got != tc.want {
			t.Errorf("WireValue(%d, %d) = %d, want %d", tc.v, tc.bits, got, tc.want)
		}
	}
}

func TestSamplerSynthetic(t *testing.T) {
	clock := &ManualClock{}
	clock.Set(1500)
	s, err := NewSampler(SamplerConfig{Mode: SamplerSynthetic}, clock, nil)
	if err != nil {
		t.Fatalf("NewSampler failed: %v", err)
	}
	if s.ResolutionBits() != DefaultResolutionBits {
		t.Errorf("Expected default %d bits, got %d", DefaultResolutionBits, s.ResolutionBits())
	}

	r, err := s.Reading()
	if err != nil {
		t.Fatalf("Reading failed: %v", err)
	}
	if r.Timestamp != 1500 {
		t.Errorf("Expected timestamp 1500, got %d", r.Timestamp)
	}
	if r.Value != WireValue(Synthetic(1500, 10), 10) {
		t.Errorf("Unexpected wire value %d", r.Value)
	}
}

func TestSamplerLive(t *testing.T) {
	clock := &ManualClock{}
	clock.Set(42)
	var asked int
	reader := AnalogReaderFunc(func(ch int) (AnalogValue, error) {
		asked = ch
		return 0xFFC0, nil // 10-bit 1023 left-aligned in 16 bits
	})

	s, err := NewSampler(SamplerConfig{Mode: SamplerLive, Channel: 3, ResolutionBits: 10}, clock, reader)
	if err != nil {
		t.Fatalf("NewSampler failed: %v", err)
	}
	sample, err := s.Sample()
	if err != nil {
		t.Fatalf("Sample failed: %v", err)
	}
	if asked != 3 || sample.Value != 1023 || sample.Timestamp != 42 {
		t.Errorf("Unexpected sample %+v from channel %d", sample, asked)
	}
	r, _ := s.Reading()
	if r.Value != 255 {
		t.Errorf("Expected wire value 255, got %d", r.Value)
	}
}

func TestSamplerErrors(t *testing.T) {
	if _, err := NewSampler(SamplerConfig{Mode: SamplerLive}, nil, nil); !errors.Is(err, ErrNoAnalogReader) {
		t.Errorf("Expected ErrNoAnalogReader, got %v", err)
	}
	if _, err := NewSampler(SamplerConfig{Mode: SamplerSynthetic, ResolutionBits: 17}, nil, nil); !errors.Is(err, ErrInvalidSampling) {
		t.Errorf("Expected ErrInvalidSampling, got %v", err)
	}
	if _, err := NewSampler(SamplerConfig{Mode: "dowsing"}, nil, nil); !errors.Is(err, ErrInvalidSampling) {
		t.Errorf("Expected ErrInvalidSampling, got %v", err)
	}

	reader := AnalogReaderFunc(func(int) (AnalogValue, error) { return 0, errDriveFault })
	s, err := NewSampler(SamplerConfig{}, nil, reader)
	if err != nil {
		t.Fatalf("NewSampler failed: %v", err)
	}
	if _, err := s.Reading(); !errors.Is(err, errDriveFault) {
		t.Errorf("Expected reader error, got %v", err)
	}
}

func TestManualClockWraps(t *testing.T) {
	c := &ManualClock{}
	c.Set(math.MaxUint32)
	c.Advance(2)
	if c.Millis() != 1 {
		t.Errorf("Expected wrap to 1, got %d", c.Millis())
	}
}
