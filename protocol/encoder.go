package protocol

import (
	"fmt"
	"time"
)

// writeRetryDelay is how long sendByte sleeps between capacity checks
const writeRetryDelay = 50 * time.Microsecond

// Encoder serializes messages onto a ByteWriter.
//
// Every message is assembled in a scratch buffer first and then written
// byte by byte, so one message is always complete on the wire before the
// next one starts.
type Encoder struct {
	layout  Layout
	out     ByteWriter
	scratch *ScratchOutput

	// stallTimeout bounds the wait for write capacity; 0 waits forever
	stallTimeout time.Duration
}

// NewEncoder creates an encoder for the given opcode layout
func NewEncoder(layout Layout, out ByteWriter) *Encoder {
	return &Encoder{
		layout:  layout,
		out:     out,
		scratch: NewScratchOutput(),
	}
}

// SetStallTimeout bounds how long WriteByte waits for write capacity
func (e *Encoder) SetStallTimeout(d time.Duration) {
	e.stallTimeout = d
}

// Layout returns the opcode layout in use
func (e *Encoder) Layout() Layout {
	return e.layout
}

// WriteByte waits until the transport has capacity, then writes b.
// Waiting is flow control, not failure; only an expired stall timeout
// turns it into ErrTransportStall.
func (e *Encoder) WriteByte(b byte) error {
	if !e.out.WriteReady() {
		if err := e.waitReady(); err != nil {
			return err
		}
	}
	return e.out.WriteByte(b)
}

func (e *Encoder) waitReady() error {
	var deadline time.Time
	if e.stallTimeout > 0 {
		deadline = time.Now().Add(e.stallTimeout)
	}
	for !e.out.WriteReady() {
		if !deadline.IsZero() && time.Now().After(deadline) {
			return fmt.Errorf("%w after %v", ErrTransportStall, e.stallTimeout)
		}
		time.Sleep(writeRetryDelay)
	}
	return nil
}

// transmit sends the scratch contents and flushes staged output
func (e *Encoder) transmit() error {
	for _, b := range e.scratch.Result() {
		if err := e.WriteByte(b); err != nil {
			return err
		}
	}
	if f, ok := e.out.(Flusher); ok {
		return f.Flush()
	}
	return nil
}

// SendText sends s as one or more text chunks. An empty string produces
// no bytes at all.
func (e *Encoder) SendText(s string) error {
	for _, chunk := range SplitText(s) {
		if len(chunk) == 0 {
			continue
		}
		e.scratch.Reset()
		e.scratch.Output(TextHeader(len(chunk)))
		e.scratch.Output([]byte(chunk)...)
		if err := e.transmit(); err != nil {
			return err
		}
	}
	return nil
}

// Textf formats and sends a text message
func (e *Encoder) Textf(format string, args ...interface{}) error {
	return e.SendText(fmt.Sprintf(format, args...))
}

// SendChannelPosition sends opcode id followed by the position byte
func (e *Encoder) SendChannelPosition(id int, pos uint8) error {
	if id < 0 || id >= e.layout.Channels() {
		return fmt.Errorf("channel position: %w: channel %d", ErrUnknownOpcode, id)
	}
	e.scratch.Reset()
	e.scratch.Output(byte(id), pos)
	return e.transmit()
}

// SendAllPositions sends the all-positions opcode and N position bytes
func (e *Encoder) SendAllPositions(positions []uint8) error {
	if len(positions) != e.layout.Channels() {
		return fmt.Errorf("all positions: %w: got %d, want %d", ErrPayloadSize, len(positions), e.layout.Channels())
	}
	e.scratch.Reset()
	e.scratch.Output(e.layout.AllPositions())
	e.scratch.Output(positions...)
	return e.transmit()
}

// SendAllLimits sends the all-limits opcode and 2N bytes (min0,max0,...)
func (e *Encoder) SendAllLimits(limits []uint8) error {
	if len(limits) != 2*e.layout.Channels() {
		return fmt.Errorf("all limits: %w: got %d, want %d", ErrPayloadSize, len(limits), 2*e.layout.Channels())
	}
	e.scratch.Reset()
	e.scratch.Output(e.layout.AllLimits())
	e.scratch.Output(limits...)
	return e.transmit()
}

// SendTimestampedReading sends the raw force opcode and the 5-byte record
func (e *Encoder) SendTimestampedReading(r Reading) error {
	var rec [ReadingPayloadSize]byte
	PutReading(rec[:], r)
	e.scratch.Reset()
	e.scratch.Output(e.layout.ForceRaw())
	e.scratch.Output(rec[:]...)
	return e.transmit()
}
