package hand

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"handctl/config"
	"handctl/core"
	"handctl/logger"
	"handctl/protocol"
)

type duplex struct {
	r *io.PipeReader
	w *io.PipeWriter
}

func (d *duplex) Read(p []byte) (int, error)  { return d.r.Read(p) }
func (d *duplex) Write(p []byte) (int, error) { return d.w.Write(p) }

func (d *duplex) Close() error {
	d.w.Close()
	return d.r.Close()
}

func newDuplexPair() (*duplex, *duplex) {
	ar, bw := io.Pipe()
	br, aw := io.Pipe()
	return &duplex{r: ar, w: aw}, &duplex{r: br, w: bw}
}

// startDevice runs a synthetic-sensor controller behind the returned hand
func startDevice(t *testing.T) *Hand {
	t.Helper()
	log, err := logger.NewLoggerTo(io.Discard, config.LogConf{Level: "debug"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}

	hostEnd, deviceEnd := newDuplexPair()
	h, err := New(hostEnd, 6, log)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	cfg := config.Default()
	cfg.Sensor.Mode = config.SensorSynthetic
	link := protocol.NewStreamLink(deviceEnd, protocol.LinkConfig{ReceiveTimeout: 10 * time.Millisecond})
	servo := core.ServoDriverFunc(func(int, uint8) error { return nil })
	ctrl, err := core.Build(&cfg, core.Hardware{Servo: servo}, link, log)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := ctrl.Start(); err != nil {
			return
		}
		ctrl.Run(ctx)
	}()

	t.Cleanup(func() {
		cancel()
		h.Close()
		deviceEnd.Close()
		<-done
	})
	return h
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestHandBanner(t *testing.T) {
	h := startDevice(t)

	select {
	case msg := <-h.Messages():
		if msg.Kind != protocol.KindText || !strings.HasPrefix(msg.Text(), "handctl ") {
			t.Errorf("Expected banner, got %v", msg)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for banner")
	}
}

func TestHandSetPositionMirrorsAppliedValue(t *testing.T) {
	h := startDevice(t)

	if err := h.SetPosition(2, 250); err != nil {
		t.Fatalf("SetPosition failed: %v", err)
	}
	waitFor(t, "channel 2 at 180", func() bool { return h.Positions()[2] == 180 })
}

func TestHandPresetAndRefresh(t *testing.T) {
	h := startDevice(t)

	if err := h.Preset(1); err != nil {
		t.Fatalf("Preset failed: %v", err)
	}
	want := []uint8{0, 36, 72, 98, 134, 180}
	waitFor(t, "ascending preset", func() bool {
		got := h.Positions()
		for i := range want {
			if got[i] != want[i] {
				return false
			}
		}
		return true
	})

	if err := h.Refresh(); err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}
	waitFor(t, "limits", func() bool { return h.Limits()[5].Max == 180 })
}

func TestHandSetLimits(t *testing.T) {
	h := startDevice(t)

	limits := make([]protocol.LimitPair, 6)
	for i := range limits {
		limits[i] = protocol.LimitPair{Min: 10, Max: 100}
	}
	if err := h.SetLimits(limits); err != nil {
		t.Fatalf("SetLimits failed: %v", err)
	}
	waitFor(t, "limits 10..100", func() bool { return h.Limits()[3] == protocol.LimitPair{Min: 10, Max: 100} })

	if err := h.SetAllPositions([]uint8{0, 50, 200, 0, 0, 0}); err != nil {
		t.Fatalf("SetAllPositions failed: %v", err)
	}
	waitFor(t, "clamped positions", func() bool {
		p := h.Positions()
		return p[0] == 10 && p[1] == 50 && p[2] == 100
	})
}

func TestHandSample(t *testing.T) {
	h := startDevice(t)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	r, err := h.Sample(ctx)
	if err != nil {
		t.Fatalf("Sample failed: %v", err)
	}
	last, ok := h.LastReading()
	if !ok || last != r {
		t.Errorf("LastReading %+v/%v does not match sample %+v", last, ok, r)
	}
}

func TestHandClosed(t *testing.T) {
	h := startDevice(t)
	h.Close()

	if err := h.SetPosition(0, 1); !errors.Is(err, ErrNotConnected) {
		t.Errorf("Expected ErrNotConnected, got %v", err)
	}
	if h.IsConnected() {
		t.Error("Expected IsConnected false after Close")
	}
}

func TestNewRejectsBadChannelCount(t *testing.T) {
	log, _ := logger.NewLoggerTo(io.Discard, config.LogConf{Level: "info"})
	a, b := newDuplexPair()
	defer a.Close()
	defer b.Close()
	if _, err := New(a, 0, log); err == nil {
		t.Error("Expected error for zero channels")
	}
}
