// Package protocol implements the hand controller wire protocol
package protocol

import "fmt"

// Version represents the handctl firmware version
const Version = "0.1.0"

// Protocol constants
const (
	// TextFlag marks a text chunk header. Structured opcodes never set it.
	TextFlag = 0x80
	// TextLenMask extracts (chunkLen - 1) from a text header
	TextLenMask = 0x7F

	MaxTextChunk = 128 // Maximum bytes carried by one text chunk

	ReadingPayloadSize = 5 // 4-byte timestamp + 1-byte reading

	// MaxChannels keeps the highest reserved opcode (N+2) below TextFlag
	MaxChannels = TextFlag - 1 - 2
)

// Reserved opcode offsets relative to the channel count
const (
	offsetAllPositions = 0
	offsetAllLimits    = 1
	offsetForceRaw     = 2
)

// Layout is the opcode table for a bank of N channels.
//
//	0 .. N-1   set one channel position   payload 1 byte
//	N          all positions              payload N bytes
//	N+1        all limits                 payload 2N bytes
//	N+2        raw timestamped reading    payload 5 bytes
//	0x80|len-1 text chunk                 payload len bytes
type Layout struct {
	channels int
}

// NewLayout creates the opcode table for the given channel count
func NewLayout(channels int) (Layout, error) {
	if channels < 1 || channels > MaxChannels {
		return Layout{}, fmt.Errorf("protocol: channel count %d out of range [1,%d]", channels, MaxChannels)
	}
	return Layout{channels: channels}, nil
}

// MustLayout is NewLayout for compile-time constant channel counts
func MustLayout(channels int) Layout {
	l, err := NewLayout(channels)
	if err != nil {
		panic(err)
	}
	return l
}

// Channels returns N
func (l Layout) Channels() int {
	return l.channels
}

// AllPositions returns the "all positions" opcode
func (l Layout) AllPositions() byte {
	return byte(l.channels + offsetAllPositions)
}

// AllLimits returns the "all limits" opcode
func (l Layout) AllLimits() byte {
	return byte(l.channels + offsetAllLimits)
}

// ForceRaw returns the timestamped reading opcode
func (l Layout) ForceRaw() byte {
	return byte(l.channels + offsetForceRaw)
}

// PayloadLen returns the fixed payload length for a structured opcode.
// ok is false for unknown opcodes and for text headers.
func (l Layout) PayloadLen(op byte) (n int, ok bool) {
	if op&TextFlag != 0 {
		return 0, false
	}
	switch {
	case int(op) < l.channels:
		return 1, true
	case op == l.AllPositions():
		return l.channels, true
	case op == l.AllLimits():
		return 2 * l.channels, true
	case op == l.ForceRaw():
		return ReadingPayloadSize, true
	}
	return 0, false
}

// TextHeader returns the header byte for a chunk of n bytes (1..128)
func TextHeader(n int) byte {
	return TextFlag | byte(n-1)&TextLenMask
}

// TextChunkLen decodes a text header byte into the chunk length
func TextChunkLen(header byte) int {
	return int(header&TextLenMask) + 1
}

// IsTextHeader reports whether b starts a text chunk
func IsTextHeader(b byte) bool {
	return b&TextFlag != 0
}
