package protocol

import "fmt"

// Kind identifies a decoded message family
type Kind uint8

const (
	KindText Kind = iota
	KindChannelPosition
	KindAllPositions
	KindAllLimits
	KindForceRaw
)

func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindChannelPosition:
		return "channel_position"
	case KindAllPositions:
		return "all_positions"
	case KindAllLimits:
		return "all_limits"
	case KindForceRaw:
		return "force_raw"
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Message is one complete unit read off the wire
type Message struct {
	Kind Kind

	// Opcode is the first byte as received (text header for KindText)
	Opcode byte

	// Channel is set for KindChannelPosition
	Channel int

	// Payload holds the raw bytes following the opcode
	Payload []byte
}

// NewTextMessage wraps a reassembled string as a KindText message
func NewTextMessage(s string) Message {
	return Message{Kind: KindText, Opcode: TextFlag, Payload: []byte(s)}
}

// Text returns the chunk contents of a text message
func (m Message) Text() string {
	return string(m.Payload)
}

// Position returns the single position byte of a KindChannelPosition message
func (m Message) Position() uint8 {
	if len(m.Payload) == 0 {
		return 0
	}
	return m.Payload[0]
}

// Limits splits an all-limits payload into (min, max) pairs
func (m Message) Limits() []LimitPair {
	pairs := make([]LimitPair, len(m.Payload)/2)
	for i := range pairs {
		pairs[i] = LimitPair{Min: m.Payload[2*i], Max: m.Payload[2*i+1]}
	}
	return pairs
}

// Reading decodes a KindForceRaw payload
func (m Message) Reading() (Reading, error) {
	return ParseReading(m.Payload)
}

func (m Message) String() string {
	switch m.Kind {
	case KindText:
		return fmt.Sprintf("text(%d) %q", len(m.Payload), m.Payload)
	case KindChannelPosition:
		return fmt.Sprintf("position ch=%d value=%d", m.Channel, m.Position())
	default:
		return fmt.Sprintf("%s % x", m.Kind, m.Payload)
	}
}

// LimitPair is one channel's closed position interval
type LimitPair struct {
	Min uint8
	Max uint8
}

// FlattenLimits serializes pairs as min0,max0,min1,max1,...
func FlattenLimits(pairs []LimitPair) []byte {
	out := make([]byte, 0, 2*len(pairs))
	for _, p := range pairs {
		out = append(out, p.Min, p.Max)
	}
	return out
}
