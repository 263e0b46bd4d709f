package protocol

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func encodeBytes(t *testing.T, layout Layout, send func(e *Encoder) error) []byte {
	t.Helper()
	w := &captureWriter{}
	if err := send(NewEncoder(layout, w)); err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	return w.buf.Bytes()
}

func TestDecodeTextRoundTrip(t *testing.T) {
	layout := MustLayout(6)

	for n := 0; n <= 300; n++ {
		s := strings.Repeat("k", n)
		data := encodeBytes(t, layout, func(e *Encoder) error { return e.SendText(s) })

		msgs, errs := Decode(layout, data)
		if len(errs) != 0 {
			t.Fatalf("len %d: unexpected errors %v", n, errs)
		}

		var got strings.Builder
		for i, m := range msgs {
			if m.Kind != KindText {
				t.Fatalf("len %d: message %d is %s", n, i, m.Kind)
			}
			got.WriteString(m.Text())
		}
		if got.String() != s {
			t.Fatalf("len %d: reassembled %d bytes", n, got.Len())
		}

		wantChunks := (n + MaxTextChunk - 1) / MaxTextChunk
		if len(msgs) != wantChunks {
			t.Fatalf("len %d: expected %d chunks, got %d", n, wantChunks, len(msgs))
		}
	}
}

func TestDecodeStructuredRoundTrip(t *testing.T) {
	layout := MustLayout(6)
	positions := []uint8{0, 36, 72, 98, 134, 180}
	limits := []uint8{0, 180, 10, 170, 20, 160, 30, 150, 40, 140, 50, 130}
	reading := Reading{Timestamp: 0xFFFFFFFF, Value: 255}

	data := encodeBytes(t, layout, func(e *Encoder) error {
		if err := e.SendChannelPosition(3, 77); err != nil {
			return err
		}
		if err := e.SendAllPositions(positions); err != nil {
			return err
		}
		if err := e.SendAllLimits(limits); err != nil {
			return err
		}
		if err := e.SendText("ok"); err != nil {
			return err
		}
		return e.SendTimestampedReading(reading)
	})

	msgs, errs := Decode(layout, data)
	if len(errs) != 0 {
		t.Fatalf("unexpected errors %v", errs)
	}
	if len(msgs) != 5 {
		t.Fatalf("Expected 5 messages, got %d", len(msgs))
	}

	if msgs[0].Kind != KindChannelPosition || msgs[0].Channel != 3 || msgs[0].Position() != 77 {
		t.Errorf("channel position decoded as %v", msgs[0])
	}
	if msgs[1].Kind != KindAllPositions || !bytes.Equal(msgs[1].Payload, positions) {
		t.Errorf("all positions decoded as %v", msgs[1])
	}
	if msgs[2].Kind != KindAllLimits || !bytes.Equal(FlattenLimits(msgs[2].Limits()), limits) {
		t.Errorf("all limits decoded as %v", msgs[2])
	}
	if msgs[3].Kind != KindText || msgs[3].Text() != "ok" {
		t.Errorf("text decoded as %v", msgs[3])
	}
	got, err := msgs[4].Reading()
	if err != nil || got != reading {
		t.Errorf("reading decoded as %+v, %v", got, err)
	}
}

func TestDecodeUnknownOpcodeResyncs(t *testing.T) {
	layout := MustLayout(6)
	// 0x09 and 0x7F are unknown for N=6
	data := []byte{0x09, 0x7F, 2, 90}

	msgs, errs := Decode(layout, data)
	if len(errs) != 2 {
		t.Fatalf("Expected 2 errors, got %d", len(errs))
	}
	for _, err := range errs {
		if !errors.Is(err, ErrUnknownOpcode) {
			t.Errorf("Expected ErrUnknownOpcode, got %v", err)
		}
	}
	if len(msgs) != 1 || msgs[0].Channel != 2 || msgs[0].Position() != 90 {
		t.Errorf("Expected position ch=2 value=90 after resync, got %v", msgs)
	}
}

func TestDecoderResetDiscardsPartialFrame(t *testing.T) {
	d := NewDecoder(MustLayout(6))

	// Start an all-positions frame and abandon it halfway
	for _, b := range []byte{6, 1, 2, 3} {
		if _, done, err := d.Feed(b); done || err != nil {
			t.Fatalf("unexpected completion or error on 0x%02x: %v", b, err)
		}
	}
	if !d.Pending() {
		t.Fatal("Expected decoder to be mid-frame")
	}

	d.Reset()
	if d.Pending() {
		t.Fatal("Expected Reset to return to AwaitingOpcode")
	}

	if _, done, _ := d.Feed(1); done {
		t.Fatal("opcode byte alone should not complete a message")
	}
	msg, done, err := d.Feed(45)
	if err != nil || !done {
		t.Fatalf("Expected complete message, got done=%v err=%v", done, err)
	}
	if msg.Kind != KindChannelPosition || msg.Channel != 1 || msg.Position() != 45 {
		t.Errorf("Expected position ch=1 value=45, got %v", msg)
	}
}

func TestDecodeHighBitAlwaysText(t *testing.T) {
	for _, n := range []int{1, 6, 64, MaxChannels} {
		layout := MustLayout(n)
		d := NewDecoder(layout)
		for b := 0x80; b <= 0xFF; b++ {
			d.Reset()
			if _, _, err := d.Feed(byte(b)); err != nil {
				t.Fatalf("N=%d: 0x%02x should open a text chunk, got %v", n, b, err)
			}
			if d.state != stateReadingText {
				t.Fatalf("N=%d: 0x%02x did not enter text state", n, b)
			}
		}
	}
}

func TestDecodeIncrementalInput(t *testing.T) {
	layout := MustLayout(6)
	data := encodeBytes(t, layout, func(e *Encoder) error {
		return e.SendTimestampedReading(Reading{Timestamp: 1234, Value: 9})
	})

	d := NewDecoder(layout)
	in := NewFifoBuffer(64)
	var got []Message

	for _, b := range data {
		in.PushByte(b)
		d.Receive(in, func(m Message) { got = append(got, m) }, nil)
		if in.Available() != 0 {
			t.Fatalf("Receive left %d bytes unconsumed", in.Available())
		}
	}

	if len(got) != 1 || got[0].Kind != KindForceRaw {
		t.Fatalf("Expected one force reading, got %v", got)
	}
}
