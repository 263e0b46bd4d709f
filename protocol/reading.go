package protocol

import (
	"encoding/binary"
	"fmt"
)

// Reading is one timestamped force sample as carried on the wire.
//
// Layout (little-endian, fixed regardless of host byte order):
//
//	byte 0..3  timestamp, milliseconds since boot (wraps at 2^32)
//	byte 4     raw reading
type Reading struct {
	Timestamp uint32
	Value     uint8
}

// PutReading writes the 5-byte record into dst
func PutReading(dst []byte, r Reading) {
	_ = dst[ReadingPayloadSize-1]
	binary.LittleEndian.PutUint32(dst[0:4], r.Timestamp)
	dst[4] = r.Value
}

// AppendReading appends the 5-byte record to dst
func AppendReading(dst []byte, r Reading) []byte {
	var rec [ReadingPayloadSize]byte
	PutReading(rec[:], r)
	return append(dst, rec[:]...)
}

// ParseReading decodes a 5-byte record
func ParseReading(b []byte) (Reading, error) {
	if len(b) != ReadingPayloadSize {
		return Reading{}, fmt.Errorf("reading record: %w: got %d bytes, want %d", ErrPayloadSize, len(b), ReadingPayloadSize)
	}
	return Reading{
		Timestamp: binary.LittleEndian.Uint32(b[0:4]),
		Value:     b[4],
	}, nil
}
