package protocol

import (
	"bytes"
	"errors"
	"testing"
)

func TestReadingLittleEndian(t *testing.T) {
	testCases := []struct {
		name    string
		reading Reading
		want    []byte
	}{
		{"zero", Reading{0, 0}, []byte{0, 0, 0, 0, 0}},
		{"max", Reading{0xFFFFFFFF, 255}, []byte{0xFF, 0xFF, 0xFF, 0xFF, 0xFF}},
		{"ordered", Reading{0x01020304, 0x7F}, []byte{0x04, 0x03, 0x02, 0x01, 0x7F}},
		{"one ms", Reading{1, 200}, []byte{0x01, 0, 0, 0, 200}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := AppendReading(nil, tc.reading)
			if !bytes.Equal(got, tc.want) {
				t.Errorf("Expected % x, got % x", tc.want, got)
			}
			back, err := ParseReading(got)
			if err != nil {
				t.Fatalf("ParseReading failed: %v", err)
			}
			if back != tc.reading {
				t.Errorf("Expected %+v, got %+v", tc.reading, back)
			}
		})
	}
}

func TestParseReadingRejectsWrongLength(t *testing.T) {
	for _, n := range []int{0, 4, 6} {
		if _, err := ParseReading(make([]byte, n)); !errors.Is(err, ErrPayloadSize) {
			t.Errorf("len %d: expected ErrPayloadSize, got %v", n, err)
		}
	}
}
