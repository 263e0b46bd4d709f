package protocol

import "fmt"

type decodeState uint8

const (
	stateAwaitingOpcode decodeState = iota
	stateReadingText
	stateReadingPayload
)

// Decoder is the byte-at-a-time dual of Encoder.
//
// In AwaitingOpcode a byte with bit 7 set opens a text chunk of
// (b&0x7F)+1 bytes; any other byte must be a known opcode and opens its
// fixed-size payload. When the payload is complete the message is emitted and
// the decoder returns to AwaitingOpcode. Unknown opcodes are reported and
// dropped without leaving AwaitingOpcode, which resynchronizes on the next
// byte.
type Decoder struct {
	layout    Layout
	state     decodeState
	opcode    byte
	remaining int
	payload   []byte
}

// NewDecoder creates a decoder for the given opcode layout
func NewDecoder(layout Layout) *Decoder {
	return &Decoder{layout: layout}
}

// Layout returns the opcode layout in use
func (d *Decoder) Layout() Layout {
	return d.layout
}

// Feed advances the decoder by one byte. done is true when b completed a
// message. err is non-nil only for an unknown opcode.
func (d *Decoder) Feed(b byte) (msg Message, done bool, err error) {
	switch d.state {
	case stateAwaitingOpcode:
		if IsTextHeader(b) {
			d.begin(stateReadingText, b, TextChunkLen(b))
			return Message{}, false, nil
		}
		n, ok := d.layout.PayloadLen(b)
		if !ok {
			return Message{}, false, fmt.Errorf("%w 0x%02x", ErrUnknownOpcode, b)
		}
		d.begin(stateReadingPayload, b, n)
		return Message{}, false, nil

	default:
		d.payload = append(d.payload, b)
		d.remaining--
		if d.remaining > 0 {
			return Message{}, false, nil
		}
		msg = d.complete()
		return msg, true, nil
	}
}

func (d *Decoder) begin(state decodeState, opcode byte, n int) {
	d.state = state
	d.opcode = opcode
	d.remaining = n
	d.payload = make([]byte, 0, n)
}

func (d *Decoder) complete() Message {
	msg := Message{Opcode: d.opcode, Payload: d.payload}
	if d.state == stateReadingText {
		msg.Kind = KindText
	} else {
		switch op := d.opcode; {
		case int(op) < d.layout.Channels():
			msg.Kind = KindChannelPosition
			msg.Channel = int(op)
		case op == d.layout.AllPositions():
			msg.Kind = KindAllPositions
		case op == d.layout.AllLimits():
			msg.Kind = KindAllLimits
		case op == d.layout.ForceRaw():
			msg.Kind = KindForceRaw
		}
	}
	d.Reset()
	return msg
}

// Pending reports whether the decoder is in the middle of a message
func (d *Decoder) Pending() bool {
	return d.state != stateAwaitingOpcode
}

// Reset discards any partial message and waits for the next opcode
func (d *Decoder) Reset() {
	d.state = stateAwaitingOpcode
	d.opcode = 0
	d.remaining = 0
	d.payload = nil
}

// Receive feeds every available byte of input to the decoder, consuming it.
// handle is called for each complete message and reject (if non-nil) for
// each decode error.
func (d *Decoder) Receive(input InputBuffer, handle func(Message), reject func(error)) {
	data := input.Data()
	for _, b := range data {
		msg, done, err := d.Feed(b)
		if err != nil {
			if reject != nil {
				reject(err)
			}
			continue
		}
		if done && handle != nil {
			handle(msg)
		}
	}
	input.Pop(len(data))
}

// Decode is a convenience wrapper that decodes a complete byte slice
func Decode(layout Layout, data []byte) ([]Message, []error) {
	var (
		msgs []Message
		errs []error
	)
	NewDecoder(layout).Receive(NewSliceInputBuffer(data),
		func(m Message) { msgs = append(msgs, m) },
		func(err error) { errs = append(errs, err) })
	return msgs, errs
}
