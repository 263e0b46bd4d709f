package core

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"handctl/protocol"
)

type driveCall struct {
	channel  int
	position uint8
}

// recordDriver remembers every drive; fail makes the next drives fail
type recordDriver struct {
	calls []driveCall
	fail  error
}

func (r *recordDriver) Drive(channel int, position uint8) error {
	if r.fail != nil {
		return r.fail
	}
	r.calls = append(r.calls, driveCall{channel, position})
	return nil
}

// fakeLink serves scripted input and records output. An empty input
// reads as a receive timeout, or as a closed transport once closed is set.
type fakeLink struct {
	in     []byte
	out    bytes.Buffer
	closed bool
}

func (l *fakeLink) ReadByte() (byte, error) {
	if len(l.in) == 0 {
		if l.closed {
			return 0, protocol.ErrTransportClosed
		}
		return 0, protocol.ErrReceiveTimeout
	}
	b := l.in[0]
	l.in = l.in[1:]
	return b, nil
}

func (l *fakeLink) WriteReady() bool { return true }

func (l *fakeLink) WriteByte(b byte) error {
	if l.closed {
		return protocol.ErrTransportClosed
	}
	return l.out.WriteByte(b)
}

// feed appends encoded host messages to the link input
func (l *fakeLink) feed(t *testing.T, layout protocol.Layout, send func(e *protocol.Encoder) error) {
	t.Helper()
	var buf fakeLink
	if err := send(protocol.NewEncoder(layout, &buf)); err != nil {
		t.Fatalf("encode host message: %v", err)
	}
	l.in = append(l.in, buf.out.Bytes()...)
}

// replies decodes and clears everything written so far
func (l *fakeLink) replies(t *testing.T, layout protocol.Layout) []protocol.Message {
	t.Helper()
	msgs, errs := protocol.Decode(layout, l.out.Bytes())
	if len(errs) != 0 {
		t.Fatalf("device output did not decode: %v", errs)
	}
	l.out.Reset()
	return msgs
}

func texts(msgs []protocol.Message) []string {
	var out []string
	for _, m := range msgs {
		if m.Kind == protocol.KindText {
			out = append(out, m.Text())
		}
	}
	return out
}

func hasText(msgs []protocol.Message, prefix string) bool {
	for _, s := range texts(msgs) {
		if strings.HasPrefix(s, prefix) {
			return true
		}
	}
	return false
}

func findKind(msgs []protocol.Message, k protocol.Kind) (protocol.Message, bool) {
	for _, m := range msgs {
		if m.Kind == k {
			return m, true
		}
	}
	return protocol.Message{}, false
}

var errDriveFault = errors.New("drive fault")
