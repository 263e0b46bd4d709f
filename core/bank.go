package core

import (
	"fmt"

	"handctl/protocol"
)

// DefaultMaxPosition is the hobby-servo travel in degrees
const DefaultMaxPosition = 180

// Channel is one actuator's state. After any write Min <= Position <= Max.
type Channel struct {
	Position uint8
	Min      uint8
	Max      uint8
}

func (c Channel) clamp(p uint8) uint8 {
	if p < c.Min {
		return c.Min
	}
	if p > c.Max {
		return c.Max
	}
	return p
}

// Bank owns the ordered channels and is the only path that mutates them.
// It is not safe for concurrent use; the device loop is its single owner.
type Bank struct {
	driver      ServoDriver
	channels    []Channel
	maxPosition uint8
	log         Logger
}

// NewBank creates n channels with limits [0, maxPosition] and homes each of
// them to 0 once.
func NewBank(driver ServoDriver, n int, maxPosition uint8, log Logger) (*Bank, error) {
	if driver == nil {
		return nil, fmt.Errorf("new bank: %w", ErrInvalidMode)
	}
	if n < 1 || n > protocol.MaxChannels {
		return nil, fmt.Errorf("new bank: %w: %d channels", ErrInvalidChannel, n)
	}

	b := &Bank{
		driver:      driver,
		channels:    make([]Channel, n),
		maxPosition: maxPosition,
		log:         orNop(log),
	}
	for i := range b.channels {
		b.channels[i] = Channel{Min: 0, Max: maxPosition}
	}
	if err := b.Home(); err != nil {
		return nil, fmt.Errorf("new bank: %w", err)
	}
	return b, nil
}

// Channels returns N
func (b *Bank) Channels() int {
	return len(b.channels)
}

// MaxPosition returns the configured upper bound for any limit
func (b *Bank) MaxPosition() uint8 {
	return b.maxPosition
}

// Valid reports whether id names a channel
func (b *Bank) Valid(id int) bool {
	return id >= 0 && id < len(b.channels)
}

// Home drives every channel to 0, clamped to its current limits
func (b *Bank) Home() error {
	for id := range b.channels {
		if _, err := b.Write(id, 0); err != nil {
			return err
		}
	}
	b.log.Debugf("homed %d channels", len(b.channels))
	return nil
}

// Write clamps p to the channel's limits, drives the result and stores it.
// The returned value is what was applied.
func (b *Bank) Write(id int, p uint8) (uint8, error) {
	if !b.Valid(id) {
		return 0, fmt.Errorf("write: %w: %d", ErrInvalidChannel, id)
	}
	ch := &b.channels[id]
	applied := ch.clamp(p)
	if err := b.driver.Drive(id, applied); err != nil {
		return ch.Position, fmt.Errorf("write channel %d: %w", id, err)
	}
	ch.Position = applied
	return applied, nil
}

// WriteAll writes positions in channel index order. A BatchDriver gets the
// clamped values in one DriveAll call.
func (b *Bank) WriteAll(positions []uint8) ([]uint8, error) {
	if len(positions) != len(b.channels) {
		return nil, fmt.Errorf("write all: %w: got %d, want %d", ErrPositionCount, len(positions), len(b.channels))
	}
	applied := make([]uint8, len(positions))

	if batch, ok := b.driver.(BatchDriver); ok {
		for id, p := range positions {
			applied[id] = b.channels[id].clamp(p)
		}
		if err := batch.DriveAll(applied); err != nil {
			return nil, fmt.Errorf("write all: %w", err)
		}
		for id, v := range applied {
			b.channels[id].Position = v
		}
		return applied, nil
	}

	for id, p := range positions {
		v, err := b.Write(id, p)
		if err != nil {
			return nil, err
		}
		applied[id] = v
	}
	return applied, nil
}

// SetLimits replaces a channel's limits. The stored position is not
// re-clamped; it may sit outside the new range until the next write.
// max above the configured maximum is lowered to it.
func (b *Bank) SetLimits(id int, min, max uint8) error {
	if !b.Valid(id) {
		return fmt.Errorf("set limits: %w: %d", ErrInvalidChannel, id)
	}
	if max > b.maxPosition {
		max = b.maxPosition
	}
	if min > max {
		return fmt.Errorf("set limits channel %d: %w: min %d > max %d", id, ErrInvalidLimits, min, max)
	}
	b.channels[id].Min = min
	b.channels[id].Max = max
	return nil
}

// Channel returns a copy of one channel's state
func (b *Bank) Channel(id int) (Channel, error) {
	if !b.Valid(id) {
		return Channel{}, fmt.Errorf("channel: %w: %d", ErrInvalidChannel, id)
	}
	return b.channels[id], nil
}

// Positions returns a snapshot of every position
func (b *Bank) Positions() []uint8 {
	out := make([]uint8, len(b.channels))
	for i, ch := range b.channels {
		out[i] = ch.Position
	}
	return out
}

// Limits returns a snapshot of every (min, max) pair
func (b *Bank) Limits() []protocol.LimitPair {
	out := make([]protocol.LimitPair, len(b.channels))
	for i, ch := range b.channels {
		out[i] = protocol.LimitPair{Min: ch.Min, Max: ch.Max}
	}
	return out
}

// FlatLimits returns the limit table as min0,max0,min1,max1,...
func (b *Bank) FlatLimits() []uint8 {
	return protocol.FlattenLimits(b.Limits())
}
