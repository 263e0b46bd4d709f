package bridge

import (
	"context"
	"errors"
	"io"
	"testing"

	"handctl/config"
	"handctl/logger"
	"handctl/protocol"
)

type publication struct {
	topic   string
	payload string
}

type fakePublisher struct {
	out []publication
}

func (f *fakePublisher) publish(topic string, payload []byte) error {
	f.out = append(f.out, publication{topic, string(payload)})
	return nil
}

type fakeDevice struct {
	positions map[int]uint8
	presets   []int
	lines     []string
	messages  chan protocol.Message
}

func newFakeDevice() *fakeDevice {
	return &fakeDevice{positions: map[int]uint8{}, messages: make(chan protocol.Message, 8)}
}

func (d *fakeDevice) Channels() int                       { return 6 }
func (d *fakeDevice) Messages() <-chan protocol.Message   { return d.messages }
func (d *fakeDevice) SetPosition(id int, pos uint8) error { d.positions[id] = pos; return nil }
func (d *fakeDevice) Preset(n int) error                  { d.presets = append(d.presets, n); return nil }
func (d *fakeDevice) Command(line string) error           { d.lines = append(d.lines, line); return nil }
func (d *fakeDevice) Refresh() error                      { return nil }

func newTestBridge(t *testing.T) (*Bridge, *fakeDevice, *fakePublisher) {
	t.Helper()
	log, err := logger.NewLoggerTo(io.Discard, config.LogConf{Level: "info"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	dev := newFakeDevice()
	b := New(dev, config.MQTTConf{Prefix: "hand"}, log)
	pub := &fakePublisher{}
	b.pub = pub
	return b, dev, pub
}

func TestPublishMessages(t *testing.T) {
	b, _, pub := newTestBridge(t)

	msgs := []protocol.Message{
		{Kind: protocol.KindChannelPosition, Channel: 2, Payload: []byte{180}},
		{Kind: protocol.KindAllPositions, Payload: []byte{0, 36, 72, 98, 134, 180}},
		{Kind: protocol.KindAllLimits, Payload: []byte{0, 180, 10, 90}},
		{Kind: protocol.KindForceRaw, Payload: protocol.AppendReading(nil, protocol.Reading{Timestamp: 1000, Value: 77})},
		{Kind: protocol.KindText, Payload: []byte("Servo 2 set to 90")},
	}
	for _, m := range msgs {
		if err := b.publishMessage(m); err != nil {
			t.Fatalf("publishMessage(%v) failed: %v", m, err)
		}
	}

	want := []publication{
		{"hand/position/2", "180"},
		{"hand/positions", "[0,36,72,98,134,180]"},
		{"hand/limits", "[[0,180],[10,90]]"},
		{"hand/force", `{"timestamp":1000,"reading":77}`},
		{"hand/log", "Servo 2 set to 90"},
	}
	if len(pub.out) != len(want) {
		t.Fatalf("Expected %d publications, got %d: %v", len(want), len(pub.out), pub.out)
	}
	for i := range want {
		if pub.out[i] != want[i] {
			t.Errorf("publication %d: expected %+v, got %+v", i, want[i], pub.out[i])
		}
	}
}

func TestHandleCommands(t *testing.T) {
	b, dev, _ := newTestBridge(t)

	if err := b.handleCommand("hand/cmd/position/3", []byte(" 120 ")); err != nil {
		t.Fatalf("position command failed: %v", err)
	}
	if err := b.handleCommand("hand/cmd/position/1", []byte("999")); err != nil {
		t.Fatalf("position command failed: %v", err)
	}
	if err := b.handleCommand("hand/cmd/preset", []byte("2")); err != nil {
		t.Fatalf("preset command failed: %v", err)
	}
	if err := b.handleCommand("hand/cmd/text", []byte("echo 'hi there'")); err != nil {
		t.Fatalf("text command failed: %v", err)
	}

	if dev.positions[3] != 120 || dev.positions[1] != 255 {
		t.Errorf("Unexpected positions %v", dev.positions)
	}
	if len(dev.presets) != 1 || dev.presets[0] != 2 {
		t.Errorf("Unexpected presets %v", dev.presets)
	}
	if len(dev.lines) != 1 || dev.lines[0] != "echo 'hi there'" {
		t.Errorf("Unexpected lines %q", dev.lines)
	}
}

func TestHandleCommandErrors(t *testing.T) {
	b, _, _ := newTestBridge(t)

	for _, tc := range []struct{ topic, payload string }{
		{"hand/cmd/position/9", "1"},
		{"hand/cmd/position/x", "1"},
		{"hand/cmd/position/0", "up"},
		{"hand/cmd/preset", "first"},
		{"hand/cmd/dance", "now"},
		{"other/cmd/text", "hi"},
	} {
		if err := b.handleCommand(tc.topic, []byte(tc.payload)); err == nil {
			t.Errorf("%s %q: expected error", tc.topic, tc.payload)
		}
	}
}

func TestRunStopsWhenDeviceCloses(t *testing.T) {
	b, dev, pub := newTestBridge(t)

	dev.messages <- protocol.Message{Kind: protocol.KindText, Payload: []byte("bye")}
	close(dev.messages)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	if err := b.Run(ctx); !errors.Is(err, protocol.ErrTransportClosed) {
		t.Errorf("Expected ErrTransportClosed, got %v", err)
	}
	if len(pub.out) != 1 || pub.out[0].topic != "hand/log" {
		t.Errorf("Expected log publication before stop, got %v", pub.out)
	}
}
