// Package hand is the host-side client for a hand controller
package hand

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"handctl/config"
	"handctl/host/serial"
	"handctl/logger"
	"handctl/protocol"
)

// ErrNotConnected is returned by operations on a closed client
var ErrNotConnected = errors.New("hand: not connected")

// Hand is a connection to one hand controller. It mirrors the device state
// from every message the device sends.
type Hand struct {
	transport *protocol.HostTransport
	log       *logger.Log

	mu         sync.RWMutex
	positions  []uint8
	limits     []protocol.LimitPair
	reading    protocol.Reading
	hasReading bool
	readings   chan protocol.Reading
	messages   chan protocol.Message

	connected bool
}

// Connect opens the configured serial device and attaches a client to it
func Connect(cfg *config.Config, log *logger.Log) (*Hand, error) {
	port, err := serial.Open(serial.FromLink(cfg.Link))
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port: %w", err)
	}

	h, err := New(port, cfg.Channels, log)
	if err != nil {
		port.Close()
		return nil, err
	}

	// Give the device time to initialize (if it just powered on)
	time.Sleep(100 * time.Millisecond)

	return h, nil
}

// New attaches a client to an already open stream
func New(port io.ReadWriteCloser, channels int, log *logger.Log) (*Hand, error) {
	layout, err := protocol.NewLayout(channels)
	if err != nil {
		return nil, fmt.Errorf("hand: %w", err)
	}

	h := &Hand{
		transport: protocol.NewHostTransport(port, layout),
		log:       log.Module("hand"),
		positions: make([]uint8, channels),
		limits:    make([]protocol.LimitPair, channels),
		readings:  make(chan protocol.Reading, 1),
		messages:  make(chan protocol.Message, 64),
		connected: true,
	}
	h.transport.SetMessageHandler(h.handleMessage)
	h.transport.SetErrorHandler(func(err error) {
		h.log.Warnf("link: %v", err)
	})
	go h.forward()

	return h, nil
}

// Channels returns the number of channels this client expects
func (h *Hand) Channels() int {
	return h.transport.Layout().Channels()
}

// Close closes the connection
func (h *Hand) Close() error {
	h.mu.Lock()
	h.connected = false
	h.mu.Unlock()
	return h.transport.Close()
}

// IsConnected returns true if the client is open
func (h *Hand) IsConnected() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.connected
}

// Messages returns every message received from the device
func (h *Hand) Messages() <-chan protocol.Message {
	return h.messages
}

// forward moves transport messages to the client channel so that state is
// already updated when a consumer sees them
func (h *Hand) forward() {
	for {
		msg, err := h.transport.Receive(time.Hour)
		if errors.Is(err, protocol.ErrTransportClosed) {
			close(h.messages)
			return
		}
		if err != nil {
			continue
		}
		select {
		case h.messages <- msg:
		default:
			h.log.Debugf("message channel full, dropping %s", msg.Kind)
		}
	}
}

func (h *Hand) handleMessage(msg protocol.Message) {
	h.mu.Lock()
	defer h.mu.Unlock()

	switch msg.Kind {
	case protocol.KindChannelPosition:
		h.positions[msg.Channel] = msg.Position()
	case protocol.KindAllPositions:
		copy(h.positions, msg.Payload)
	case protocol.KindAllLimits:
		copy(h.limits, msg.Limits())
	case protocol.KindForceRaw:
		r, err := msg.Reading()
		if err != nil {
			return
		}
		h.reading = r
		h.hasReading = true
		select {
		case <-h.readings:
		default:
		}
		h.readings <- r
	case protocol.KindText:
		h.log.Debugf("device: %s", msg.Text())
	}
}

func (h *Hand) check() error {
	if !h.IsConnected() {
		return ErrNotConnected
	}
	return nil
}

// SetPosition moves one channel. The device replies with the applied value.
func (h *Hand) SetPosition(id int, pos uint8) error {
	if err := h.check(); err != nil {
		return err
	}
	return h.transport.SendChannelPosition(id, pos)
}

// SetAllPositions moves every channel
func (h *Hand) SetAllPositions(positions []uint8) error {
	if err := h.check(); err != nil {
		return err
	}
	return h.transport.SendAllPositions(positions)
}

// SetLimits replaces every channel's limits
func (h *Hand) SetLimits(limits []protocol.LimitPair) error {
	if err := h.check(); err != nil {
		return err
	}
	return h.transport.SendAllLimits(protocol.FlattenLimits(limits))
}

// RequestReading asks for one force reading
func (h *Hand) RequestReading() error {
	if err := h.check(); err != nil {
		return err
	}
	return h.transport.SendTimestampedReading(protocol.Reading{})
}

// Sample requests a reading and waits for it
func (h *Hand) Sample(ctx context.Context) (protocol.Reading, error) {
	select {
	case <-h.readings:
	default:
	}
	if err := h.RequestReading(); err != nil {
		return protocol.Reading{}, err
	}
	select {
	case r := <-h.readings:
		return r, nil
	case <-ctx.Done():
		return protocol.Reading{}, ctx.Err()
	}
}

// Command sends a text command line
func (h *Hand) Command(line string) error {
	if err := h.check(); err != nil {
		return err
	}
	return h.transport.SendText(line)
}

// Preset applies preset n
func (h *Hand) Preset(n int) error {
	return h.Command(fmt.Sprintf("preset %d", n))
}

// Refresh asks the device for its positions and limits
func (h *Hand) Refresh() error {
	if err := h.Command("positions"); err != nil {
		return err
	}
	return h.Command("limits")
}

// Positions returns the last known positions
func (h *Hand) Positions() []uint8 {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return append([]uint8(nil), h.positions...)
}

// Limits returns the last known limits
func (h *Hand) Limits() []protocol.LimitPair {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return append([]protocol.LimitPair(nil), h.limits...)
}

// LastReading returns the most recent force reading, if any arrived
func (h *Hand) LastReading() (protocol.Reading, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.reading, h.hasReading
}

// PrintState writes a human-readable summary of the mirrored state
func (h *Hand) PrintState(w io.Writer) {
	fmt.Fprintln(w, "=== Hand State ===")
	limits := h.Limits()
	for i, p := range h.Positions() {
		fmt.Fprintf(w, "  servo %d: %3d  [%d..%d]\n", i, p, limits[i].Min, limits[i].Max)
	}
	if r, ok := h.LastReading(); ok {
		fmt.Fprintf(w, "  force: %d at %d ms\n", r.Value, r.Timestamp)
	} else {
		fmt.Fprintln(w, "  force: no reading yet")
	}
}
